package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/septivank/environment-monitor/internal/model"
	"go.uber.org/zap"
)

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error string     `json:"error"`
	Kind  model.Kind `json:"kind,omitempty"`
}

var statusByKind = map[model.Kind]int{
	model.KindAlreadyExists:    http.StatusConflict,
	model.KindNotFound:         http.StatusNotFound,
	model.KindInvalidDevice:    http.StatusBadRequest,
	model.KindDeviceNotFound:   http.StatusBadRequest,
	model.KindDeviceInactive:   http.StatusBadRequest,
	model.KindMalformedReading: http.StatusBadRequest,
	model.KindInvalidLevel:     http.StatusBadRequest,
	model.KindStorageFailure:   http.StatusServiceUnavailable,
}

// statusFor maps an error kind to its HTTP status
func statusFor(kind model.Kind) int {
	if status, ok := statusByKind[kind]; ok {
		return status
	}
	return http.StatusInternalServerError
}

func respondError(c *gin.Context, logger *zap.Logger, err error) {
	kind := model.KindOf(err)
	status := statusFor(kind)
	if status >= http.StatusInternalServerError {
		requestLogger(c, logger).Error("request failed", zap.Error(err), zap.String("kind", string(kind)))
	}
	c.JSON(status, ErrorResponse{Error: err.Error(), Kind: kind})
}

func respondBadRequest(c *gin.Context, kind model.Kind, err error) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Kind: kind})
}
