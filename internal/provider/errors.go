package provider

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sashabaranov/go-openai"
)

// Kind classifies why a provider call failed
type Kind string

const (
	KindConfig    Kind = "config"
	KindNetwork   Kind = "network"
	KindStatus    Kind = "status"
	KindMalformed Kind = "malformed"
)

type Error struct {
	Kind   Kind
	Status int
	Err    error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("provider %s error (status %d): %v", e.Kind, e.Status, e.Err)
	}
	return fmt.Sprintf("provider %s error: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the kind of a provider error, or "" for foreign errors
func KindOf(err error) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ""
}

func classify(err error) error {
	var pe *Error
	if errors.As(err, &pe) {
		return pe
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &Error{Kind: KindStatus, Status: apiErr.HTTPStatusCode, Err: err}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &Error{Kind: KindStatus, Status: reqErr.HTTPStatusCode, Err: err}
	}
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return &Error{Kind: KindMalformed, Err: err}
	}
	return &Error{Kind: KindNetwork, Err: err}
}
