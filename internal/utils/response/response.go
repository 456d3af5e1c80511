// Package response provides helpers for writing consistent JSON HTTP responses.
//
// Success responses may have any JSON shape (a student, a {"data": [...]}
// envelope, a {"message": ...} confirmation). Error responses always look
// like:
//
//	{ "status": "error", "error": "field name is required",
//	  "fields": { "name": "is required" } }
//
// "fields" is only present for malformed request bodies.
package response

import (
	"encoding/json"
	"fmt"
	"net/http"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Response is the standard envelope returned for error cases.
type Response struct {
	Status string            `json:"status"`
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// Status string constants. Use these instead of raw string literals so
// a typo is caught by the compiler.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Message is the body of a successful operation that has nothing else
// to return, e.g. a delete.
type Message struct {
	Message string `json:"message"`
}

// WriteJSON writes a JSON-encoded response with the given HTTP status code.
//
// IMPORTANT ORDER: Header() → WriteHeader() → body writes.
// Once WriteHeader is called (or the first Write), headers are locked.
func WriteJSON(w http.ResponseWriter, status int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

// WriteNoContent writes a bodiless 204.
func WriteNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// GeneralError wraps any Go error into our standard Response shape.
func GeneralError(err error) Response {
	return Response{
		Status: StatusError,
		Error:  err.Error(),
	}
}

// Error builds a Response from a plain message.
func Error(msg string) Response {
	return Response{
		Status: StatusError,
		Error:  msg,
	}
}

// FieldErrors builds a Response from a field → problem map. The summary
// line lists the fields in a stable order.
func FieldErrors(fields map[string]string) Response {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	msgs := make([]string, 0, len(names))
	for _, name := range names {
		msgs = append(msgs, fmt.Sprintf("field %s %s", name, fields[name]))
	}

	return Response{
		Status: StatusError,
		Error:  strings.Join(msgs, ", "),
		Fields: fields,
	}
}

// ValidationError converts validator.ValidationErrors into a Response with
// one entry per failing field.
//
// Field keys are dotted JSON paths without the root struct name, e.g.
// "address.city". This relies on the validator having a tag name func
// that reports json names.
func ValidationError(errs validator.ValidationErrors) Response {
	fields := make(map[string]string, len(errs))

	for _, e := range errs {
		fields[fieldPath(e)] = problem(e)
	}

	return FieldErrors(fields)
}

func fieldPath(e validator.FieldError) string {
	ns := e.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func problem(e validator.FieldError) string {
	switch e.ActualTag() {
	case "required":
		return "is required"
	case "min":
		if e.Kind() == reflect.String {
			return "must not be empty"
		}
		return fmt.Sprintf("must be at least %s", e.Param())
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", e.Param())
	default:
		return "is invalid"
	}
}
