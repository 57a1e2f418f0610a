package container

import (
	"fmt"
	"strings"
)

// UnresolvableParameterError is returned when a constructor or setter
// parameter has no override, no default and no class type to resolve.
type UnresolvableParameterError struct {
	Param  string
	Class  string
	Reason string
}

func (e *UnresolvableParameterError) Error() string {
	msg := fmt.Sprintf("container: could not resolve parameter [%s] of [%s]", e.Param, e.Class)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

// UnknownTypeError is returned when a type identifier is not defined in the
// catalog, or a declared setter does not exist on the built value.
type UnknownTypeError struct {
	Type   string
	Method string
}

func (e *UnknownTypeError) Error() string {
	if e.Method != "" {
		return fmt.Sprintf("container: [%s] has no method [%s]", e.Type, e.Method)
	}
	return fmt.Sprintf("container: unknown type [%s]. Did you forget to Define it?", e.Type)
}

// InvalidRegistrationError is returned for malformed register or define input.
type InvalidRegistrationError struct {
	Name   string
	Reason string
}

func (e *InvalidRegistrationError) Error() string {
	if e.Name == "" {
		return "container: invalid registration: " + e.Reason
	}
	return fmt.Sprintf("container: invalid registration [%s]: %s", e.Name, e.Reason)
}

// ResolutionError wraps a failure raised while building a value: a
// constructor, factory or setter error, or a dependency of the wrong type.
type ResolutionError struct {
	Name  string
	Cause error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("container: failed to resolve [%s]: %v", e.Name, e.Cause)
}

// Unwrap returns the underlying cause.
func (e *ResolutionError) Unwrap() error { return e.Cause }

// CircularDependencyError is returned when a name is requested again while it
// is still being resolved.
type CircularDependencyError struct {
	Path []string
}

func (e *CircularDependencyError) Error() string {
	return "container: circular dependency detected: " + strings.Join(e.Path, " -> ")
}
