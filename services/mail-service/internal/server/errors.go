package server

import (
	"encoding/json"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/stoik/mailview/services/mail-service/internal/apperr"
	"github.com/stoik/mailview/services/mail-service/internal/logger"
)

// writeError answers with the status and body for err's kind. Provider
// errors carry the upstream body under "details".
func writeError(c *gin.Context, err error) {
	e := apperr.Wrap(err)
	status := e.HTTPStatus()

	body := gin.H{"message": e.Message}
	if e.Kind == apperr.Provider {
		body["details"] = details(e.Body)
	}

	fields := []zap.Field{
		zap.String("kind", e.Kind.String()),
		zap.Int("status", status),
		zap.String("path", c.Request.URL.Path),
		zap.String("requestId", c.GetString(requestIDKey)),
		zap.Error(err),
	}
	if status >= 500 {
		logger.Logger.Error("Request failed", fields...)
	} else {
		logger.Logger.Warn("Request rejected", fields...)
	}

	_ = c.Error(err)
	c.AbortWithStatusJSON(status, body)
}

// details embeds a JSON upstream body as-is and anything else as a string.
func details(body string) any {
	if body == "" {
		return nil
	}
	if json.Valid([]byte(body)) {
		return json.RawMessage(body)
	}
	return body
}
