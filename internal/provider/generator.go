// Package provider is the boundary to the external text-generation service.
//
// Callers depend on Generator only. Every failure of a call, whatever its
// cause, is reported as a *GenerationError.
package provider

import (
	"context"
	"errors"
	"fmt"

	"github.com/petasbytes/minutes-agent/memory"
)

// Op names the purpose of a generation call. It is used for labels only.
type Op string

const (
	OpInterview Op = "interview"
	OpMinutes   Op = "minutes"
)

// Request is one generation call: a system instruction, the prior turns as
// context, and the new input.
type Request struct {
	Op      Op
	System  string
	History []memory.Turn
	Input   string
}

// Generator produces text for a Request with a single synchronous attempt.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, req Request) (string, error)

func (f GeneratorFunc) Generate(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}

// ErrGeneration matches every *GenerationError via errors.Is.
var ErrGeneration = errors.New("generation failed")

// ErrEmptyResponse is wrapped when the service answers without any text.
var ErrEmptyResponse = errors.New("empty response")

// GenerationError reports that the generation service could not produce a
// response: network, authentication, quota or malformed payload alike.
type GenerationError struct {
	Provider string
	Op       Op
	Err      error
}

func (e *GenerationError) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("%s: %v", e.Provider, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Provider, e.Op, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

func (e *GenerationError) Is(target error) bool { return target == ErrGeneration }

func failure(provider string, op Op, err error) error {
	return &GenerationError{Provider: provider, Op: op, Err: err}
}
