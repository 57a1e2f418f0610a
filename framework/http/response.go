package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/km-arc/go-autowire/framework/container"
	"github.com/km-arc/go-autowire/framework/validation"
)

// envelope is the top-level JSON object every helper writes.
type envelope map[string]any

// Response writes JSON answers for one request. When the request carries a
// chi request ID, every envelope repeats it under "request_id".
type Response struct {
	w  http.ResponseWriter
	id string
}

// NewResponse wraps w for the request r. r may be nil.
func NewResponse(w http.ResponseWriter, r *http.Request) *Response {
	res := &Response{w: w}
	if r != nil {
		res.id = middleware.GetReqID(r.Context())
	}
	return res
}

// Raw returns the underlying ResponseWriter.
func (res *Response) Raw() http.ResponseWriter { return res.w }

// JSON sends data as is.
//
//	res.JSON(http.StatusOK, map[string]any{"message": "ok"})
func (res *Response) JSON(status int, data any) {
	res.w.Header().Set("Content-Type", "application/json")
	res.w.WriteHeader(status)
	_ = json.NewEncoder(res.w).Encode(data)
}

func (res *Response) send(status int, body envelope) {
	if res.id != "" {
		body["request_id"] = res.id
	}
	res.JSON(status, body)
}

// Success sends 200 JSON: {"data": v}
func (res *Response) Success(v any) {
	res.send(http.StatusOK, envelope{"data": v})
}

// Error sends {"message": message} with status.
func (res *Response) Error(status int, message string) {
	res.send(status, envelope{"message": message})
}

// NotFound sends 404.
func (res *Response) NotFound(message ...string) {
	res.Error(http.StatusNotFound, first(message, "Not found."))
}

// ServerError sends 500.
func (res *Response) ServerError(message ...string) {
	res.Error(http.StatusInternalServerError, first(message, "Server Error."))
}

// ValidationError sends 422 with the Laravel error bag.
//
//	res.ValidationError(validator.Errors())
func (res *Response) ValidationError(errs *validation.Errors) {
	res.send(http.StatusUnprocessableEntity, envelope{
		"message": "The given data was invalid.",
		"errors":  errs.Bag,
	})
}

// Problem reports a container failure with the status matching its kind.
//
//	if _, err := c.Explain(name); err != nil {
//	    res.Problem(err)
//	}
func (res *Response) Problem(err error) {
	res.Error(StatusOf(err), err.Error())
}

// StatusOf maps a container error to an HTTP status.
func StatusOf(err error) int {
	var (
		unknown  *container.UnknownTypeError
		invalid  *container.InvalidRegistrationError
		param    *container.UnresolvableParameterError
		circular *container.CircularDependencyError
	)
	switch {
	case errors.As(err, &unknown):
		return http.StatusNotFound
	case errors.As(err, &invalid), errors.As(err, &param):
		return http.StatusUnprocessableEntity
	case errors.As(err, &circular):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func first(s []string, fallback string) string {
	if len(s) > 0 && s[0] != "" {
		return s[0]
	}
	return fallback
}
