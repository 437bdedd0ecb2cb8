// Package control is the local management socket of a dwb-ipcd host: one
// newline-delimited JSON request and one response per connection.
package control

const (
	CommandStatus = "status"
	CommandExec   = "exec"
	CommandFocus  = "focus"
	CommandSave   = "save"
	CommandQuit   = "quit"
)

type Request struct {
	Command string   `json:"command"`
	Args    []string `json:"args,omitempty"`
}

type Response struct {
	OK      bool   `json:"ok"`
	State   string `json:"state,omitempty"`
	Window  string `json:"window,omitempty"`
	Status  int    `json:"status,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Failure builds an error response.
func Failure(err error) Response {
	return Response{OK: false, Error: err.Error()}
}
