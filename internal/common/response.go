package common

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// APIResponse standard API response structure
type APIResponse struct {
	Data  interface{} `json:"data"`
	Meta  *Meta       `json:"meta,omitempty"`
	Error *ErrorInfo  `json:"error,omitempty"`
}

// Meta pagination metadata for cursor-paged listings
type Meta struct {
	NextCursor *int64 `json:"next_cursor,omitempty"`
	HasNext    bool   `json:"has_next"`
	Limit      int    `json:"limit,omitempty"`
}

// ErrorInfo error details
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// SuccessResponse returns a successful JSON response
func SuccessResponse(c *gin.Context, data interface{}, meta *Meta) {
	c.JSON(http.StatusOK, APIResponse{
		Data: data,
		Meta: meta,
	})
}

// ErrorResponse returns an error JSON response
func ErrorResponse(c *gin.Context, status int, message string, err error) {
	errInfo := &ErrorInfo{
		Code:    getErrorCode(status),
		Message: message,
	}

	c.JSON(status, gin.H{
		"error": errInfo,
	})
}

// ErrorResponseFromErr maps a business error to its HTTP status and responds
func ErrorResponseFromErr(c *gin.Context, err error) {
	ErrorResponse(c, StatusFromError(err), err.Error(), err)
}

// StatusFromError maps the error taxonomy to an HTTP status code
func StatusFromError(err error) int {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, ErrRoomNotFound),
		errors.Is(err, ErrMessageNotFound),
		errors.Is(err, ErrUserNotFound),
		errors.Is(err, ErrParticipantNotFound),
		errors.Is(err, ErrParticipantsNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, ErrNotParticipant),
		errors.Is(err, ErrNotRoomAdmin),
		errors.Is(err, ErrNotMessageSender),
		errors.Is(err, ErrInvalidToken),
		errors.Is(err, ErrExpiredToken):
		return http.StatusUnauthorized
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, ErrNotGroupChat),
		errors.Is(err, ErrSelfDirectChat),
		errors.Is(err, ErrAlreadyParticipant),
		errors.Is(err, ErrCannotTargetSelf),
		errors.Is(err, ErrCannotRemoveAdmin),
		errors.Is(err, ErrBlankTextContent),
		errors.Is(err, ErrMissingMetadata),
		errors.Is(err, ErrInvalidParent),
		errors.Is(err, ErrNotEditable),
		errors.Is(err, ErrInvalidMessageType):
		return http.StatusBadRequest
	case errors.Is(err, ErrStorageDisabled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// getErrorCode generates error code from HTTP status
func getErrorCode(status int) string {
	switch status {
	case 400:
		return "BAD_REQUEST"
	case 401:
		return "UNAUTHORIZED"
	case 403:
		return "FORBIDDEN"
	case 404:
		return "NOT_FOUND"
	case 409:
		return "CONFLICT"
	case 500:
		return "INTERNAL_SERVER_ERROR"
	default:
		return "ERROR"
	}
}
