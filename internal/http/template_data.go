package httpx

import (
	"net/http"

	"github.com/target/userdeck/internal/async"
)

// TemplateDataBuilder provides a fluent API for building template data maps.
type TemplateDataBuilder struct {
	data map[string]any
}

// NewTemplateData creates a new TemplateDataBuilder initialized with basePageData.
func NewTemplateData(r *http.Request, meta PageMeta) *TemplateDataBuilder {
	return &TemplateDataBuilder{data: basePageData(r, meta)}
}

// WithError sets a general error message.
func (b *TemplateDataBuilder) WithError(msg string) *TemplateDataBuilder {
	if msg == "" {
		return b
	}
	b.data["Error"] = true
	b.data["ErrorMessage"] = msg
	return b
}

// WithFieldErrors adds field-level validation errors.
func (b *TemplateDataBuilder) WithFieldErrors(errs map[string]string) *TemplateDataBuilder {
	if len(errs) > 0 {
		b.data["Errors"] = errs
	}
	return b
}

// WithValues keeps submitted form values so the form re-renders filled in.
func (b *TemplateDataBuilder) WithValues(values map[string]string) *TemplateDataBuilder {
	if values != nil {
		b.data["Values"] = values
	}
	return b
}

// WithNotice sets an informational banner.
func (b *TemplateDataBuilder) WithNotice(msg string) *TemplateDataBuilder {
	if msg != "" {
		b.data["Notice"] = msg
	}
	return b
}

// WithResult exposes a fetch outcome as Loading/Failed/ErrorMessage/Retryable.
// fallback is shown when the error carries no message of its own.
func WithResult[T any](b *TemplateDataBuilder, key string, res async.Result[T], fallback string) *TemplateDataBuilder {
	b.data[key] = res.Data
	b.data["Loading"] = res.Loading()
	if res.Failed() {
		b.WithError(res.Message(fallback))
		b.data["Retryable"] = res.Retryable()
	}
	return b
}

// With adds a custom field to the template data.
func (b *TemplateDataBuilder) With(key string, value any) *TemplateDataBuilder {
	b.data[key] = value
	return b
}

// Build returns the final template data map.
func (b *TemplateDataBuilder) Build() map[string]any {
	return b.data
}
