package modelspec

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors classifying everything that can go wrong while loading
// and building a model. Match with errors.Is.
var (
	// ErrSchema indicates a malformed document structure.
	ErrSchema = errors.New("schema error")

	// ErrUnknownLayerType indicates a layer type missing from the registry.
	ErrUnknownLayerType = errors.New("unknown layer type")

	// ErrParamValidation indicates a missing or invalid layer parameter.
	ErrParamValidation = errors.New("invalid layer parameter")

	// ErrShapeInference indicates a placeholder or shape rule that could
	// not be resolved against the propagated shape.
	ErrShapeInference = errors.New("shape inference failed")
)

// Error is the concrete error type produced by loaders, the registry, and
// the builder. Kind is one of the package sentinels and is exposed through
// Unwrap, so callers classify with errors.Is.
type Error struct {
	Kind error
	Pos  Pos
	Path string // layer placement, e.g. "block 2, component 1, layer 3 (Conv2d)"
	Msg  string
}

// Error implements the error interface.
func (e *Error) Error() string {
	parts := make([]string, 0, 3)
	if s := e.Pos.String(); s != "" {
		parts = append(parts, s)
	}
	if e.Path != "" {
		parts = append(parts, e.Path)
	}
	parts = append(parts, e.Kind.Error()+": "+e.Msg)
	return strings.Join(parts, ": ")
}

// Unwrap returns the sentinel classifying this error.
func (e *Error) Unwrap() error { return e.Kind }

// Schemaf builds an ErrSchema error at the given position.
func Schemaf(pos Pos, format string, args ...any) error {
	return &Error{Kind: ErrSchema, Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

// At returns a copy of err with position and placement filled in, when err
// is an *Error that does not already carry them. Other errors pass through
// unchanged.
func At(err error, pos Pos, path string) error {
	var e *Error
	if !errors.As(err, &e) {
		return err
	}
	dup := *e
	if dup.Pos == (Pos{}) {
		dup.Pos = pos
	}
	if dup.Path == "" {
		dup.Path = path
	}
	return &dup
}
