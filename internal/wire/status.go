package wire

import "strconv"

// Status is the integer result code a server writes after each command.
type Status int32

const (
	StatusOK           Status = 0
	StatusNoSuchTab    Status = -1
	StatusUsage        Status = 37
	StatusUnknownField Status = 137
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusNoSuchTab:
		return "no such tab"
	case StatusUsage:
		return "usage"
	case StatusUnknownField:
		return "unknown field"
	default:
		return "status " + strconv.Itoa(int(s))
	}
}
