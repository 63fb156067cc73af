package services

import (
	"errors"
	"net/http"
)

var (
	ErrUnauthenticated         = errors.New("authentication required")
	ErrValidation              = errors.New("invalid request")
	ErrInvalidAction           = errors.New("Invalid action")
	ErrInvalidSort             = errors.New("invalid sort parameters")
	ErrInvalidPostID           = errors.New("invalid post id")
	ErrPostNotFound            = errors.New("post not found")
	ErrForbidden               = errors.New("you are not the author of this post")
	ErrFileMissing             = errors.New("no file selected")
	ErrFileTooLarge            = errors.New("file is too large")
	ErrFileTypeNotSupported    = errors.New("unsupported file type")
	ErrInsufficientUserData    = errors.New("user data insufficient")
	ErrStorageNotConfigured    = errors.New("object storage is not configured")
	ErrWebhookSignatureInvalid = errors.New("invalid webhook signature")
)

// ErrorMap assigns the HTTP status of each client-facing error. Errors not
// listed here are upstream failures.
var ErrorMap = map[error]int{
	ErrUnauthenticated:         http.StatusUnauthorized,
	ErrValidation:              http.StatusBadRequest,
	ErrInvalidAction:           http.StatusBadRequest,
	ErrInvalidSort:             http.StatusBadRequest,
	ErrInvalidPostID:           http.StatusBadRequest,
	ErrPostNotFound:            http.StatusNotFound,
	ErrForbidden:               http.StatusForbidden,
	ErrFileMissing:             http.StatusBadRequest,
	ErrFileTooLarge:            http.StatusBadRequest,
	ErrFileTypeNotSupported:    http.StatusBadRequest,
	ErrInsufficientUserData:    http.StatusBadRequest,
	ErrStorageNotConfigured:    http.StatusInternalServerError,
	ErrWebhookSignatureInvalid: http.StatusUnauthorized,
}

// StatusOf returns the mapped status of err and whether it was mapped.
func StatusOf(err error) (int, bool) {
	for target, status := range ErrorMap {
		if errors.Is(err, target) {
			return status, true
		}
	}
	return http.StatusInternalServerError, false
}
