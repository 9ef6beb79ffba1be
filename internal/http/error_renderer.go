package httpx

import (
	"errors"
	"net/http"

	apperrors "github.com/target/userdeck/internal/errors"
	"github.com/target/userdeck/internal/validation"
)

// ErrorOpts contains all options needed to render an error response.
type ErrorOpts struct {
	W http.ResponseWriter
	R *http.Request
	// Err is the error that occurred (optional, can be nil if only field errors)
	Err error
	// Fallback is shown when Err carries no user-facing message.
	Fallback string
	// FieldErrors contains field-level validation errors (field name → error message)
	FieldErrors map[string]string
	PageMeta    PageMeta
	// Data contains additional template data, such as submitted form values.
	Data map[string]any
	// StatusCode overrides DetermineErrorStatus for full-page responses.
	StatusCode int
	// ShowToast triggers a toast notification with the error message.
	ShowToast bool
}

// DetermineErrorStatus picks the status for a full-page error response.
// htmx requests always get 200 so the fragment is swapped in.
// A status of 0 means the caller should use the default behavior (200).
func DetermineErrorStatus(err error) int {
	switch {
	case err == nil:
		return 0
	case apperrors.IsValidation(err):
		return http.StatusUnprocessableEntity
	case apperrors.IsNotFound(err), apperrors.GetStatus(err) == http.StatusNotFound:
		return http.StatusNotFound
	case apperrors.IsNetwork(err):
		return http.StatusBadGateway
	default:
		return 0
	}
}

// handleUnauthorized turns an authorization rejection into a navigation to
// the login page. The API client has already cleared the session.
func handleUnauthorized(w http.ResponseWriter, r *http.Request, err error) bool {
	if !apperrors.IsUnauthorized(err) {
		return false
	}
	redirectToLogin(w, r)
	return true
}

// RenderError renders a page carrying inline field errors, an error banner and
// optionally a toast. Authorization failures redirect to the login page instead.
func (h *UIHandlers) RenderError(opts ErrorOpts) {
	if handleUnauthorized(opts.W, opts.R, opts.Err) {
		return
	}

	builder := h.pageData(opts.R, opts.PageMeta)

	generalError := processError(opts.Err, opts.Fallback, &opts.FieldErrors)
	if len(opts.FieldErrors) > 0 {
		builder.WithFieldErrors(opts.FieldErrors)
	}
	builder.WithError(generalError)
	if apperrors.IsNetwork(opts.Err) {
		builder.With("Retryable", true)
	}

	for k, v := range opts.Data {
		builder.With(k, v)
	}

	if opts.ShowToast && generalError != "" {
		triggerToast(opts.W, generalError, "error")
	}

	status := opts.StatusCode
	if status == 0 {
		status = DetermineErrorStatus(opts.Err)
	}
	if status == 0 || IsHTMX(opts.R) {
		status = http.StatusOK
	}
	h.renderPageStatus(opts.W, opts.R, status, builder.Build())
}

// processError returns the banner message for err and moves per-field
// validation messages into fieldErrors.
func processError(err error, fallback string, fieldErrors *map[string]string) string {
	var fields validation.Errors
	if errors.As(err, &fields) && len(fields) > 0 {
		if *fieldErrors == nil {
			*fieldErrors = make(map[string]string, len(fields))
		}
		for k, v := range fields {
			if _, exists := (*fieldErrors)[k]; !exists {
				(*fieldErrors)[k] = v
			}
		}
		return errMsgFixBelow
	}

	if err == nil {
		if len(*fieldErrors) > 0 {
			return errMsgFixBelow
		}
		return ""
	}

	if apperrors.IsCanceled(err) {
		return "Request was canceled."
	}
	if fallback == "" {
		fallback = "An error occurred. Please try again."
	}
	return apperrors.UserMessage(err, fallback)
}
