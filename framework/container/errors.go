package container

import (
	"errors"
	"fmt"
)

var (
	ErrAlreadySet          = errors.New("attempting to set an object with a key that already exists")
	ErrUnresolvable        = errors.New("couldn't figure out what to do with key")
	ErrMissingDependencies = errors.New("you must declare all required dependencies for this type")
	ErrProviderNotFound    = errors.New("the provider defined does not exist")
	ErrNotProvider         = errors.New("type does not implement Provider")
	ErrCircularDependency  = errors.New("circular dependency")
	ErrDependency          = errors.New("dependency could not be resolved")
	ErrConstruction        = errors.New("construction failed")
	ErrMalformedAnnotation = errors.New("malformed annotation")
)

// ResolutionError is returned whenever a key cannot be satisfied. Err is one
// of the sentinels above; Cause, when set, is the underlying failure.
//
//	if errors.Is(err, container.ErrMissingDependencies) { ... }
type ResolutionError struct {
	Key    string
	Err    error
	Detail string
	Cause  error
}

func (e *ResolutionError) Error() string {
	msg := fmt.Sprintf("container: [%s]: %v", e.Key, e.Err)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *ResolutionError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Err}
	}
	return []error{e.Err, e.Cause}
}

func resolutionError(key string, sentinel error, detail string, cause error) *ResolutionError {
	return &ResolutionError{Key: key, Err: sentinel, Detail: detail, Cause: cause}
}
