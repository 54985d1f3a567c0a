package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	apperrors "github.com/tmb8080/nova-sub001/internal/domain/errors"
)

// ErrorResponse is the wire shape of every error
type ErrorResponse struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// SuccessResponse wraps every successful payload
type SuccessResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
}

// getUserID extracts and validates the authenticated user id from context
func getUserID(c *gin.Context) (uuid.UUID, error) {
	userIDVal, exists := c.Get("user_id")
	if !exists {
		return uuid.Nil, fmt.Errorf("user ID not found in context")
	}

	switch v := userIDVal.(type) {
	case uuid.UUID:
		return v, nil
	case string:
		return uuid.Parse(v)
	default:
		return uuid.Nil, fmt.Errorf("invalid user ID type in context")
	}
}

// getAdminID extracts the authenticated admin id from context
func getAdminID(c *gin.Context) (uuid.UUID, error) {
	adminIDVal, exists := c.Get("admin_id")
	if !exists {
		return uuid.Nil, fmt.Errorf("admin ID not found in context")
	}

	switch v := adminIDVal.(type) {
	case uuid.UUID:
		return v, nil
	case string:
		return uuid.Parse(v)
	default:
		return uuid.Nil, fmt.Errorf("invalid admin ID type in context")
	}
}

// parsePagination reads limit/offset query params with sane defaults
func parsePagination(c *gin.Context) (limit, offset int) {
	limit = 50
	offset = 0
	if v, err := strconv.Atoi(c.DefaultQuery("limit", "50")); err == nil && v > 0 && v <= 100 {
		limit = v
	}
	if v, err := strconv.Atoi(c.DefaultQuery("offset", "0")); err == nil && v >= 0 {
		offset = v
	}
	return limit, offset
}

// SendSuccess sends a wrapped 200 response
func SendSuccess(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, SuccessResponse{Success: true, Data: data})
}

// SendCreated sends a wrapped 201 response
func SendCreated(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, SuccessResponse{Success: true, Data: data})
}

// respondBadRequest sends a 400 with a fixed code
func respondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Code: "BAD_REQUEST", Message: message})
}

// respondDomainError maps a domain error to its HTTP status, preserving
// the stable reason code so clients can route the user appropriately.
func respondDomainError(c *gin.Context, err error) {
	code := apperrors.GetErrorCode(err)
	details := apperrors.GetErrorDetails(err)

	status := http.StatusInternalServerError
	switch {
	case apperrors.IsInvalidInput(err):
		status = http.StatusBadRequest
	case apperrors.IsNotFound(err):
		status = http.StatusNotFound
	case apperrors.IsConflict(err), apperrors.IsAlreadyExists(err):
		status = http.StatusConflict
	case apperrors.IsServiceUnavailable(err):
		status = http.StatusServiceUnavailable
	}

	message := err.Error()
	if status == http.StatusInternalServerError {
		code = "INTERNAL_ERROR"
		message = "an internal error occurred"
	}

	c.JSON(status, ErrorResponse{Code: code, Message: message, Details: details})
}
