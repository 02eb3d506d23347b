package controllers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"homeserve-backend/services"
	"homeserve-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// respondServiceError maps service error kinds to HTTP statuses. Anything
// unstructured is logged and hidden behind a 500.
func respondServiceError(c *gin.Context, err error) {
	var status int
	switch services.KindOf(err) {
	case services.KindNotFound:
		status = http.StatusNotFound
	case services.KindValidation:
		status = http.StatusBadRequest
	case services.KindConflict:
		status = http.StatusConflict
	case services.KindForbidden:
		status = http.StatusForbidden
	default:
		zap.L().Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err))
		utils.RespondWithError(c, http.StatusInternalServerError, "Internal server error")
		return
	}
	var se *services.Error
	errors.As(err, &se)
	utils.RespondWithError(c, status, se.Message)
}

// principal reads the identity set by utils.AuthMiddleware.
func principal(c *gin.Context) (services.Principal, bool) {
	id, err := uuid.Parse(c.GetString("userId"))
	if err != nil {
		utils.RespondWithError(c, http.StatusUnauthorized, "User ID not found in context")
		return services.Principal{}, false
	}
	role, err := services.ParseRole(c.GetString("role"))
	if err != nil {
		utils.RespondWithError(c, http.StatusUnauthorized, "Invalid role in token")
		return services.Principal{}, false
	}
	return services.Principal{ID: id, Role: role, Name: c.GetString("name")}, true
}

func idParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid "+name+" format")
		return uuid.Nil, false
	}
	return id, true
}

// looseNumber accepts a JSON number or string and keeps the raw text, so
// malformed values reach the service instead of failing binding.
type looseNumber string

func (n *looseNumber) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*n = looseNumber(s)
		return nil
	}
	*n = looseNumber(strings.TrimSpace(string(b)))
	return nil
}
