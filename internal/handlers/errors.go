package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/labstack/echo/v4"

	"github.com/anonto42/nano-blog/backend/internal/middleware"
	"github.com/anonto42/nano-blog/backend/internal/models"
	"github.com/anonto42/nano-blog/backend/internal/services"
)

const msgError = "Error"

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// HTTPErrorHandler maps service errors to their status via services.ErrorMap.
// Unmapped errors are upstream failures and answer 500 with the detail.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status, body := resolveError(err)
	if status >= http.StatusInternalServerError {
		slog.ErrorContext(c.Request().Context(), "Request failed", "method", c.Request().Method, "path", c.Path(), "err", err)
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = c.JSON(status, body)
	}
	if err != nil {
		slog.Error("Failed to write error response", "err", err)
	}
}

func resolveError(err error) (int, ErrorResponse) {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		// Bodies cut off by the body limit are oversized uploads.
		if he.Code == http.StatusRequestEntityTooLarge {
			return http.StatusBadRequest, ErrorResponse{Message: services.ErrFileTooLarge.Error()}
		}
		msg := fmt.Sprint(he.Message)
		if he.Code >= http.StatusInternalServerError {
			return he.Code, ErrorResponse{Message: msgError, Error: msg}
		}
		return he.Code, ErrorResponse{Message: msg}
	}

	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		return http.StatusBadRequest, ErrorResponse{Message: "Validation failed", Error: ve.Error()}
	}

	status, ok := services.StatusOf(err)
	if ok && status < http.StatusInternalServerError {
		return status, ErrorResponse{Message: err.Error()}
	}
	return http.StatusInternalServerError, ErrorResponse{Message: msgError, Error: err.Error()}
}

// JSONSerializer encodes and decodes request and response bodies with
// goccy/go-json.
type JSONSerializer struct{}

func (JSONSerializer) Serialize(c echo.Context, i interface{}, indent string) error {
	enc := json.NewEncoder(c.Response())
	if indent != "" {
		enc.SetIndent("", indent)
	}
	return enc.Encode(i)
}

func (JSONSerializer) Deserialize(c echo.Context, i interface{}) error {
	err := json.NewDecoder(c.Request().Body).Decode(i)
	var ute *json.UnmarshalTypeError
	var se *json.SyntaxError
	switch {
	case errors.As(err, &ute):
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Unmarshal type error: expected=%v, got=%v, field=%v, offset=%v", ute.Type, ute.Value, ute.Field, ute.Offset)).SetInternal(err)
	case errors.As(err, &se):
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Syntax error: offset=%v, error=%v", se.Offset, se.Error())).SetInternal(err)
	case err != nil:
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload").SetInternal(err)
	}
	return nil
}

// bindAndValidate binds the request body into req and runs the registered
// validator over it.
func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return err
	}
	return c.Validate(req)
}

func identityOf(c echo.Context) (models.Identity, error) {
	identity, ok := middleware.IdentityFromContext(c)
	if !ok {
		return models.Identity{}, services.ErrUnauthenticated
	}
	return identity, nil
}
