package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/grubyapp/gruby/internal/ai"
	"github.com/grubyapp/gruby/internal/middleware"
	"github.com/grubyapp/gruby/internal/pkg/errcode"
	appErr "github.com/grubyapp/gruby/internal/pkg/errors"
	"github.com/grubyapp/gruby/internal/pkg/response"
)

func getSubject(c *gin.Context) string {
	value, _ := c.Get(middleware.ContextSubjectKey)
	subject, _ := value.(string)
	return subject
}

func queryInt(c *gin.Context, name string, def int) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, false
	}
	return v, true
}

func handleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	logutil.GetLogger(c.Request.Context()).Error("request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.String("subject", getSubject(c)),
		zap.Error(err),
	)
	switch {
	case errors.Is(err, ai.ErrNotConfigured):
		response.Error(c, errcode.ErrAIUnavailable, "embedding provider not configured")
	case ai.IsProviderError(err), errors.Is(err, appErr.ErrUpstream):
		response.Error(c, errcode.ErrUpstream, "upstream unavailable")
	case appErr.IsNotFound(err):
		response.Error(c, errcode.ErrNotFound, "not found")
	case appErr.IsInvalid(err):
		response.Error(c, errcode.ErrInvalid, "invalid request")
	case appErr.IsConflict(err):
		response.Error(c, errcode.ErrConflict, "conflict")
	default:
		response.Error(c, errcode.ErrInternal, "internal error")
	}
}
