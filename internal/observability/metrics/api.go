// Package metrics translates API client and session events into StatsD metrics.
package metrics

import (
	"strconv"
	"time"

	obserrors "github.com/target/userdeck/internal/observability/errors"
	"github.com/target/userdeck/internal/observability/statsd"
)

// Result constants for metric tagging.
const (
	ResultSuccess = "success"
	ResultError   = "error"
)

// Session clear reasons.
const (
	ReasonLogout       = "logout"
	ReasonUnauthorized = "unauthorized"
	ReasonExpired      = "expired"
)

// APICall captures one outbound call to the remote user API.
type APICall struct {
	Op       string
	Status   int
	Duration time.Duration
	Err      error
}

// EmitAPICall emits api.request timing and, on failure, an api.error counter.
func EmitAPICall(sink statsd.Sink, in APICall) {
	if sink == nil {
		return
	}

	result := ResultSuccess
	if in.Err != nil {
		result = ResultError
	}

	tags := map[string]string{
		"op":           in.Op,
		"status_class": StatusClass(in.Status),
		"result":       result,
	}

	if in.Duration > 0 {
		sink.Timing("api.request", in.Duration, tags)
	}

	if in.Err != nil {
		errTags := CloneTags(tags)
		if class := obserrors.Classify(in.Err); class != "" {
			errTags["error_class"] = class
		}
		sink.Count("api.error", 1, errTags)
	}
}

// EmitSessionCleared counts a session being destroyed.
func EmitSessionCleared(sink statsd.Sink, reason string) {
	if sink == nil {
		return
	}
	sink.Count("session.cleared", 1, map[string]string{"reason": reason})
}

// EmitSessionCreated counts a session being established by the given method (password, google).
func EmitSessionCreated(sink statsd.Sink, method string) {
	if sink == nil {
		return
	}
	sink.Count("session.created", 1, map[string]string{"method": method})
}

// StatusClass buckets an HTTP status code as "2xx", "4xx", etc. Zero means no response.
func StatusClass(status int) string {
	if status < 100 || status > 599 {
		return "none"
	}
	return strconv.Itoa(status/100) + "xx"
}

// CloneTags creates a shallow copy of a tag map.
func CloneTags(src map[string]string) map[string]string {
	if len(src) == 0 {
		return map[string]string{}
	}
	out := make(map[string]string, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
