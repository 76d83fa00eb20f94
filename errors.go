package jsconfig

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	// ErrAlreadyInitialized reports a second Init while strict mode is on.
	ErrAlreadyInitialized = errors.New("jsconfig: already initialized")
	// ErrConfigurationLocked reports a direct mutation of the global
	// configuration after Init while strict mode is on.
	ErrConfigurationLocked = errors.New("jsconfig: configuration locked")
	// ErrScopeMisuse reports a guard closed out of LIFO order or outside the
	// flow that owns it.
	ErrScopeMisuse = errors.New("jsconfig: scope misuse")
	// ErrAlreadyBootstrapped reports Bootstrap after the process runtime was
	// materialized.
	ErrAlreadyBootstrapped = errors.New("jsconfig: default runtime already bootstrapped")
)

// AlreadyInitializedError carries the stack captured by the first Init.
type AlreadyInitializedError struct {
	InitStack string
}

func (e *AlreadyInitializedError) Error() string {
	if e == nil || e.InitStack == "" {
		return ErrAlreadyInitialized.Error()
	}
	return fmt.Sprintf("%s at:%s", ErrAlreadyInitialized, e.InitStack)
}

func (e *AlreadyInitializedError) Is(target error) bool {
	return target == ErrAlreadyInitialized
}

// ConfigurationLockedError names the rejected operation.
type ConfigurationLockedError struct {
	Op string
}

func (e *ConfigurationLockedError) Error() string {
	op := "mutate"
	if e != nil && e.Op != "" {
		op = e.Op
	}
	return fmt.Sprintf("%s: %s after Init; use BeginScope to apply a custom configuration", ErrConfigurationLocked, op)
}

func (e *ConfigurationLockedError) Is(target error) bool {
	return target == ErrConfigurationLocked
}

// ScopeMisuseError describes a rejected Guard.Close. The stack is left
// untouched when it is returned.
type ScopeMisuseError struct {
	Guard    uuid.UUID
	Label    string
	Top      uuid.UUID
	TopLabel string
	Reason   string
}

func (e *ScopeMisuseError) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := fmt.Sprintf("%s: guard %s", ErrScopeMisuse, describeFrame(e.Guard, e.Label))
	if e.Reason != "" {
		msg += " " + e.Reason
	}
	if e.Top != uuid.Nil {
		msg += fmt.Sprintf(" (topmost scope is %s)", describeFrame(e.Top, e.TopLabel))
	}
	return msg
}

func (e *ScopeMisuseError) Is(target error) bool {
	return target == ErrScopeMisuse
}

func describeFrame(id uuid.UUID, label string) string {
	if label == "" {
		return id.String()
	}
	return fmt.Sprintf("%s[%s]", id, label)
}
