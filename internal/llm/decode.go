package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Result is the outcome of decoding model output: either a value or the
// reason it could not be used.
type Result[T any] struct {
	value  T
	ok     bool
	reason string
}

// Success wraps a usable value.
func Success[T any](v T) Result[T] {
	return Result[T]{value: v, ok: true}
}

// Failure records why no usable value exists.
func Failure[T any](reason string) Result[T] {
	return Result[T]{reason: reason}
}

// Get returns the value and whether it is usable.
func (r Result[T]) Get() (T, bool) {
	return r.value, r.ok
}

// OK reports whether the result holds a value.
func (r Result[T]) OK() bool { return r.ok }

// Reason is empty on success.
func (r Result[T]) Reason() string { return r.reason }

// Validator reports whether a decoded value has the shape the caller needs.
type Validator interface {
	Validate() error
}

// StripCodeFence removes a surrounding ``` or ```json/```html fence.
func StripCodeFence(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "```") {
		return content
	}
	content = strings.TrimPrefix(content, "```")
	// Drop the info string (json, html, ...) up to the first newline.
	if nl := strings.IndexByte(content, '\n'); nl >= 0 {
		if info := strings.TrimSpace(content[:nl]); !strings.ContainsAny(info, "{<[ ") {
			content = content[nl+1:]
		}
	}
	content = strings.TrimSpace(content)
	content = strings.TrimSuffix(content, "```")
	return strings.TrimSpace(content)
}

// extractObject trims prose around the outermost JSON object.
func extractObject(content string) string {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start >= 0 && end > start {
		return content[start : end+1]
	}
	return content
}

// DecodeJSON decodes model output into T and validates it. Any decode or
// validation failure becomes a Failure carrying the reason.
func DecodeJSON[T Validator](content string) Result[T] {
	cleaned := extractObject(StripCodeFence(content))
	if cleaned == "" {
		return Failure[T]("empty response")
	}

	var v T
	if err := json.Unmarshal([]byte(cleaned), &v); err != nil {
		return Failure[T](fmt.Sprintf("invalid JSON: %v", err))
	}
	if err := v.Validate(); err != nil {
		return Failure[T](fmt.Sprintf("invalid shape: %v", err))
	}
	return Success(v)
}

// DecodeHTML accepts fenced or bare markup. Output without any tag is rejected.
func DecodeHTML(content string) Result[string] {
	cleaned := StripCodeFence(content)
	if cleaned == "" {
		return Failure[string]("empty response")
	}
	if !strings.Contains(cleaned, "<") || !strings.Contains(cleaned, ">") {
		return Failure[string]("response contains no markup")
	}
	return Success(cleaned)
}
