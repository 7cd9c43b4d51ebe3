// Package controller holds the HTTP helpers shared by the admin and user
// controllers.
package controller

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/lshigami/learnhub/internal/apperror"
	"github.com/lshigami/learnhub/internal/dto"
	"github.com/lshigami/learnhub/internal/middleware"
	"github.com/lshigami/learnhub/internal/model"
	"github.com/rs/zerolog/log"
)

// StatusFor maps an error kind to its HTTP status.
func StatusFor(kind apperror.Kind) int {
	switch kind {
	case apperror.KindNotFound:
		return http.StatusNotFound
	case apperror.KindForbidden:
		return http.StatusForbidden
	case apperror.KindCapacity, apperror.KindValidation:
		return http.StatusBadRequest
	case apperror.KindConflict:
		return http.StatusConflict
	case apperror.KindUnauthorized:
		return http.StatusUnauthorized
	case apperror.KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// WriteError answers with the classified error. Internal details are logged and
// never sent to the client.
func WriteError(ctx *gin.Context, err error) {
	appErr, ok := apperror.As(err)
	if !ok || appErr.Kind == apperror.KindInternal {
		log.Error().Err(err).Str("method", ctx.Request.Method).Str("path", ctx.Request.URL.Path).Msg("Internal error")
		ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal_error", Message: "internal server error"})
		return
	}
	log.Warn().Str("reason", appErr.Reason).Str("kind", appErr.Kind.String()).Str("path", ctx.Request.URL.Path).
		Msg(appErr.Message)
	ctx.JSON(StatusFor(appErr.Kind), dto.ErrorResponse{Error: appErr.Reason, Message: appErr.Message})
}

// BindError answers a request body that failed binding or validation.
func BindError(ctx *gin.Context, err error) {
	log.Warn().Err(err).Str("path", ctx.Request.URL.Path).Msg("Failed to bind JSON")
	ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid_request", Message: err.Error()})
}

// UintParam parses a positive path parameter. It writes a 400 and returns false
// on failure.
func UintParam(ctx *gin.Context, name string) (uint, bool) {
	val, err := strconv.ParseUint(ctx.Param(name), 10, 32)
	if err != nil || val == 0 {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid_request", Message: fmt.Sprintf("invalid %s", name)})
		return 0, false
	}
	return uint(val), true
}

// OptionalUintQuery parses an optional positive query parameter.
func OptionalUintQuery(ctx *gin.Context, name string) (*uint, bool) {
	raw := ctx.Query(name)
	if raw == "" {
		return nil, true
	}
	val, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || val == 0 {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid_request", Message: fmt.Sprintf("invalid %s", name)})
		return nil, false
	}
	id := uint(val)
	return &id, true
}

// Caller returns the authenticated identity, answering 401 when absent.
func Caller(ctx *gin.Context) (model.Identity, bool) {
	identity, ok := middleware.IdentityFrom(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "unauthorized", Message: "authentication required"})
		return model.Identity{}, false
	}
	return identity, true
}

// Health godoc
// @Summary Liveness probe
// @Tags System
// @Produce json
// @Success 200 {object} dto.HealthResponse
// @Router /health [get]
func Health(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, dto.HealthResponse{Status: "ok"})
}
