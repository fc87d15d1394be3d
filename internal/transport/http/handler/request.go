package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"eventhub/internal/model"
	"eventhub/internal/transport/http/middleware"
	"eventhub/internal/transport/http/response"
)

const defaultPageSize = 50

type pageQuery struct {
	Offset int `form:"offset" binding:"min=0"`
	Limit  int `form:"limit" binding:"min=0,max=200"`
}

func (q pageQuery) limit() int {
	if q.Limit == 0 {
		return defaultPageSize
	}
	return q.Limit
}

func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return false
	}
	return true
}

func bindQuery(c *gin.Context, dst any) bool {
	if err := c.ShouldBindQuery(dst); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid query parameters")
		return false
	}
	return true
}

func pathID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid "+name)
		return 0, false
	}
	return uint(id), true
}

func principal(c *gin.Context) (model.Principal, bool) {
	p, ok := middleware.PrincipalFrom(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "authentication required")
	}
	return p, ok
}
