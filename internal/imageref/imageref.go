// Package imageref validates references to externally hosted images.
// Image bytes never pass through this service; only the public URL is kept.
package imageref

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"
)

var ErrInvalidURL = errors.New("invalid image url")

type Validator struct {
	allowedHosts map[string]struct{}
	requireHTTPS bool
	validate     *validator.Validate
}

// New builds a validator. An empty allow-list accepts any host.
func New(allowedHosts []string, requireHTTPS bool) *Validator {
	hosts := make(map[string]struct{}, len(allowedHosts))
	for _, host := range allowedHosts {
		if host = strings.ToLower(strings.TrimSpace(host)); host != "" {
			hosts[host] = struct{}{}
		}
	}
	return &Validator{
		allowedHosts: hosts,
		requireHTTPS: requireHTTPS,
		validate:     validator.New(),
	}
}

// Normalize trims raw and checks it. An empty input yields "" and no error,
// which callers treat as "clear the image".
func (v *Validator) Normalize(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", nil
	}
	if len(trimmed) > 512 {
		return "", fmt.Errorf("%w: longer than 512 characters", ErrInvalidURL)
	}
	if err := v.validate.Var(trimmed, "http_url"); err != nil {
		return "", fmt.Errorf("%w: not an http(s) url", ErrInvalidURL)
	}

	parsed, err := url.Parse(trimmed)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if v.requireHTTPS && !strings.EqualFold(parsed.Scheme, "https") {
		return "", fmt.Errorf("%w: https is required", ErrInvalidURL)
	}
	if len(v.allowedHosts) > 0 && !v.hostAllowed(strings.ToLower(parsed.Hostname())) {
		return "", fmt.Errorf("%w: host %q is not allowed", ErrInvalidURL, parsed.Hostname())
	}
	return trimmed, nil
}

// hostAllowed matches the host itself or any parent domain on the list.
func (v *Validator) hostAllowed(host string) bool {
	for host != "" {
		if _, ok := v.allowedHosts[host]; ok {
			return true
		}
		dot := strings.IndexByte(host, '.')
		if dot < 0 {
			return false
		}
		host = host[dot+1:]
	}
	return false
}
