package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_HTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want int
	}{
		{"validation", ValidationError("bad input"), http.StatusBadRequest},
		{"unauthorized", UnauthorizedError("no token"), http.StatusUnauthorized},
		{"not found", NotFoundError("missing"), http.StatusNotFound},
		{"conflict", ConflictError("taken"), http.StatusConflict},
		{"internal", InternalError("boom", nil), http.StatusInternalServerError},
		{"unknown type", &Error{Type: "mystery"}, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.HTTPStatus())
		})
	}
}

func TestError_ErrorString(t *testing.T) {
	plain := ValidationError("report_type is required")
	assert.Equal(t, "validation: report_type is required", plain.Error())

	wrapped := InternalError("query failed", fmt.Errorf("connection refused"))
	assert.Equal(t, "internal: query failed: connection refused", wrapped.Error())
}

func TestError_Unwrap(t *testing.T) {
	cause := fmt.Errorf("underlying problem")
	err := InternalError("wrapper", cause)

	assert.ErrorIs(t, err, cause)
}

func TestError_ToResponse(t *testing.T) {
	resp := NotFoundError("prediction not found").ToResponse()

	assert.Equal(t, "error", resp["status"])
	assert.Equal(t, http.StatusNotFound, resp["code"])
	assert.Equal(t, "prediction not found", resp["data"])
	assert.NotEmpty(t, resp["timestamp"])
}

func TestError_ToResponseHidesCause(t *testing.T) {
	resp := InternalError("internal server error", fmt.Errorf("password hash mismatch for user 42")).ToResponse()

	for _, v := range resp {
		if s, ok := v.(string); ok {
			assert.NotContains(t, s, "password hash")
		}
	}
}

func TestError_WithField(t *testing.T) {
	err := ValidationError("confidence out of range").
		WithField("field", "confidence_score").
		WithField("value", 1.5)

	assert.Equal(t, "confidence_score", err.Context["field"])
	assert.Equal(t, 1.5, err.Context["value"])
}

func TestAsStructuredError(t *testing.T) {
	structured := ConflictError("username taken")
	assert.Same(t, structured, AsStructuredError(structured))

	wrapped := fmt.Errorf("handler: %w", structured)
	assert.Same(t, structured, AsStructuredError(wrapped))

	plain := errors.New("something broke")
	converted := AsStructuredError(plain)
	require.NotNil(t, converted)
	assert.Equal(t, TypeInternal, converted.Type)
	assert.ErrorIs(t, converted, plain)
}
