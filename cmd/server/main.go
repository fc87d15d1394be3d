package main

import "eventhub/cmd/server/cmd"

func main() {
	cmd.Execute()
}
