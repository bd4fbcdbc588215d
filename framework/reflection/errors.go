package reflection

import (
	"errors"
	"fmt"
)

// ErrNotFound is matched by every LookupError.
var ErrNotFound = errors.New("reflection: not found")

// LookupError reports a type or member that the pool does not know about.
type LookupError struct {
	Name   string
	Kind   MemberKind
	Member string
}

func (e *LookupError) Error() string {
	switch e.Kind {
	case KindMethod, KindProperty:
		return fmt.Sprintf("reflection: %s %q not found on [%s]", e.Kind, e.Member, e.Name)
	case KindConstructor:
		return fmt.Sprintf("reflection: [%s] declares no constructor", e.Name)
	default:
		return fmt.Sprintf("reflection: requested type [%s] doesn't exist", e.Name)
	}
}

// Is lets errors.Is(err, ErrNotFound) match any lookup failure.
func (e *LookupError) Is(target error) bool { return target == ErrNotFound }

// SpecError reports an invalid Spec passed to Pool.Register.
type SpecError struct {
	Name   string
	Reason string
}

func (e *SpecError) Error() string {
	return fmt.Sprintf("reflection: invalid spec [%s]: %s", e.Name, e.Reason)
}
