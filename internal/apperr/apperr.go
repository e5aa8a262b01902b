// Package apperr defines the error taxonomy shared by the stores, the listing
// service, the HTTP handlers and the app core.
package apperr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure for propagation and for the HTTP status it maps to.
type Kind string

const (
	Network    Kind = "network"
	NotFound   Kind = "not_found"
	Validation Kind = "validation"
	Auth       Kind = "auth"
	Permission Kind = "permission"
	Internal   Kind = "internal"
)

// Error is the single error type carried across package boundaries.
type Error struct {
	Kind    Kind
	Op      string
	Field   string
	Message string
	Err     error
}

var (
	ErrAuthRequired = &Error{Kind: Auth, Message: "authentication required"}
	ErrNotFound     = &Error{Kind: NotFound, Message: "not found"}
	ErrUnavailable  = &Error{Kind: Network, Message: "remote store unavailable"}
	ErrForbidden    = &Error{Kind: Permission, Message: "not the owner of this record"}
)

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	} else if e.Err != nil {
		msg = msg + ": " + e.Err.Error()
	}
	if msg == "" {
		msg = string(e.Kind) + " error"
	}
	if e.Op == "" {
		return msg
	}
	return e.Op + ": " + msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error on Kind and, when the target sets one, Message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return t.Message == "" || t.Message == e.Message
}

func New(kind Kind, op, message string) *Error {
	return &Error{Kind: kind, Op: op, Message: message}
}

func Wrap(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func Newf(kind Kind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Message: fmt.Sprintf(format, args...)}
}

// KindOf reports the Kind of the first *Error in err's chain, or Internal.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// FieldOf returns the offending field of a validation error, if any.
func FieldOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Field
	}
	return ""
}

func HTTPStatus(err error) int {
	switch KindOf(err) {
	case Network:
		return http.StatusBadGateway
	case NotFound:
		return http.StatusNotFound
	case Validation:
		return http.StatusBadRequest
	case Auth:
		return http.StatusUnauthorized
	case Permission:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// Body is the JSON error envelope written by handlers.
type Body struct {
	Error string `json:"error"`
	Kind  Kind   `json:"kind"`
	Field string `json:"field,omitempty"`
}

var defaultMessages = map[Kind]string{
	Network:    "remote store unavailable",
	NotFound:   "not found",
	Validation: "invalid request",
	Auth:       "authentication required",
	Permission: "forbidden",
	Internal:   "internal error",
}

// NotFoundErr tags err (typically a driver "no rows" error) as not found.
func NotFoundErr(op string, err error) *Error {
	return &Error{Kind: NotFound, Op: op, Message: "not found", Err: err}
}

// PublicMessage is the user-facing text for err. Wrapped driver errors are
// never exposed.
func PublicMessage(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" && e.Kind != Internal {
		return e.Message
	}
	return defaultMessages[KindOf(err)]
}

// WriteJSON writes err as a JSON envelope with the status of its Kind.
func WriteJSON(w http.ResponseWriter, err error) {
	body := Body{Error: PublicMessage(err), Kind: KindOf(err), Field: FieldOf(err)}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(HTTPStatus(err))
	json.NewEncoder(w).Encode(body)
}
