package annotations

import (
	"errors"
	"fmt"

	"github.com/km-arc/go-spf/framework/reflection"
)

var (
	ErrUnknownSubject = errors.New("subject is not a registered type name or instance")
	ErrInvalidKind    = errors.New(`member kind should be "constructor", "method" or "property"`)
	ErrMissingMember  = errors.New("a member name is required for method and property lookups")
)

// EngineError reports a misuse of Engine.Get. It is never transient.
type EngineError struct {
	Subject any
	Kind    reflection.MemberKind
	Member  string
	Err     error
}

func (e *EngineError) Error() string {
	return fmt.Sprintf("annotations: %v (subject %v, kind %s, member %q)", e.Err, e.Subject, e.Kind, e.Member)
}

func (e *EngineError) Unwrap() error { return e.Err }
