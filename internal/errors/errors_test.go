package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want string
	}{
		{
			name: "error without cause",
			err: &AppError{
				Code:    ErrCodeNotFound,
				Message: "User not found",
			},
			want: "User not found",
		},
		{
			name: "error with cause",
			err: &AppError{
				Code:    ErrCodeNetwork,
				Message: "request failed",
				Cause:   errors.New("dial tcp: refused"),
			},
			want: "request failed: dial tcp: refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("AppError.Error() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := Network(cause)

	if !errors.Is(err, cause) {
		t.Errorf("errors.Is(Network(cause), cause) = false")
	}
}

func TestNetwork(t *testing.T) {
	err := Network(errors.New("timeout"))
	if err.Code != ErrCodeNetwork {
		t.Errorf("Network().Code = %v, want %v", err.Code, ErrCodeNetwork)
	}
	if err.Message != NetworkMessage {
		t.Errorf("Network().Message = %q", err.Message)
	}
	if !err.Retryable() {
		t.Errorf("network errors must be retryable")
	}
}

func TestUnauthorized(t *testing.T) {
	err := Unauthorized(http.StatusForbidden, "")
	if err.Code != ErrCodeUnauthorized {
		t.Errorf("Unauthorized().Code = %v", err.Code)
	}
	if err.Message != "Forbidden" {
		t.Errorf("Unauthorized().Message = %q, want Forbidden", err.Message)
	}
	if err.Status != http.StatusForbidden {
		t.Errorf("Unauthorized().Status = %d", err.Status)
	}
	if err.Retryable() {
		t.Errorf("authorization errors are not retryable")
	}
}

func TestApplication(t *testing.T) {
	err := Application(http.StatusConflict, "Email already registered")
	if err.Code != ErrCodeApplication || err.Status != http.StatusConflict {
		t.Errorf("Application() = %+v", err)
	}
}

func TestValidationField(t *testing.T) {
	err := ValidationField("age", "You must be at least 13 years old")
	if err.Code != ErrCodeValidation {
		t.Errorf("ValidationField().Code = %v, want %v", err.Code, ErrCodeValidation)
	}
	if err.Field != "age" {
		t.Errorf("ValidationField().Field = %v, want age", err.Field)
	}
}

func TestNotFoundf(t *testing.T) {
	err := NotFoundf("user %s not found", "u1")
	if err.Code != ErrCodeNotFound {
		t.Errorf("NotFoundf().Code = %v, want %v", err.Code, ErrCodeNotFound)
	}
	if err.Message != "user u1 not found" {
		t.Errorf("NotFoundf().Message = %v", err.Message)
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("boom")
	err := Wrap(cause, ErrCodeInternal, "render failed")
	if err.Code != ErrCodeInternal || !errors.Is(err, cause) {
		t.Errorf("Wrap() = %+v", err)
	}
	if Wrap(nil, ErrCodeInternal, "x") != nil {
		t.Errorf("Wrap(nil) should return nil")
	}
}

func TestPredicates(t *testing.T) {
	wrapped := fmt.Errorf("fetch users: %w", Unauthorized(http.StatusUnauthorized, ""))

	tests := []struct {
		name string
		fn   func(error) bool
		err  error
		want bool
	}{
		{"unauthorized wrapped", IsUnauthorized, wrapped, true},
		{"network", IsNetwork, Network(nil), true},
		{"network false", IsNetwork, wrapped, false},
		{"validation", IsValidation, Validation("bad"), true},
		{"application", IsApplication, Application(400, "bad"), true},
		{"not found", IsNotFound, NotFound("gone"), true},
		{"internal", IsInternal, Internal("oops"), true},
		{"canceled", IsCanceled, &AppError{Code: ErrCodeCanceled}, true},
		{"plain error", IsValidation, errors.New("plain"), false},
		{"nil", IsNotFound, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.fn(tt.err); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetters(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", &AppError{Code: ErrCodeValidation, Field: "email", Status: 422})
	if GetCode(err) != ErrCodeValidation {
		t.Errorf("GetCode() = %v", GetCode(err))
	}
	if GetField(err) != "email" {
		t.Errorf("GetField() = %v", GetField(err))
	}
	if GetStatus(err) != 422 {
		t.Errorf("GetStatus() = %v", GetStatus(err))
	}

	plain := errors.New("plain")
	if GetCode(plain) != "" || GetField(plain) != "" || GetStatus(plain) != 0 {
		t.Errorf("getters on plain errors should return zero values")
	}
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"application verbatim", Application(400, "Email already registered"), "Email already registered"},
		{"application empty falls back", Application(500, ""), "Signup failed"},
		{"network generic", Network(errors.New("dial")), NetworkMessage},
		{"unauthorized falls back", Unauthorized(401, "token expired"), "Signup failed"},
		{"plain error falls back", errors.New("x"), "Signup failed"},
		{"validation verbatim", ValidationField("age", "too young"), "too young"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UserMessage(tt.err, "Signup failed"); got != tt.want {
				t.Errorf("UserMessage() = %q, want %q", got, tt.want)
			}
		})
	}
}
