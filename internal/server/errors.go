package server

import (
	"errors"
	"fmt"

	"github.com/rbright/dwbremote/internal/wire"
)

var (
	ErrUsage        = errors.New("unparseable command or missing arguments")
	ErrUnknownField = errors.New("unknown get field")
	ErrNoSuchTab    = errors.New("no such tab")
)

// CommandError carries a command-specific non-zero status.
type CommandError struct {
	Code int32
	Err  error
}

func (e *CommandError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("command failed with status %d: %v", e.Code, e.Err)
	}
	return fmt.Sprintf("command failed with status %d", e.Code)
}

func (e *CommandError) Unwrap() error { return e.Err }

// StatusOf maps a dispatch error to its wire status.
func StatusOf(err error) wire.Status {
	if err == nil {
		return wire.StatusOK
	}

	var cmdErr *CommandError
	switch {
	case errors.Is(err, ErrUsage):
		return wire.StatusUsage
	case errors.Is(err, ErrUnknownField):
		return wire.StatusUnknownField
	case errors.Is(err, ErrNoSuchTab):
		return wire.StatusNoSuchTab
	case errors.As(err, &cmdErr):
		return wire.Status(cmdErr.Code)
	default:
		return 1
	}
}
