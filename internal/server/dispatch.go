package server

import (
	"context"
	"strconv"
	"strings"

	"github.com/rbright/dwbremote/internal/wire"
)

// Result is the outcome of one dispatched command.
type Result struct {
	Reply    string
	HasReply bool
	Status   wire.Status
	Err      error
}

type handlerFunc func(s *Server, ctx context.Context, args []string) (string, bool, error)

var handlers = map[string]handlerFunc{
	"execute":     (*Server).execute,
	"prompt":      (*Server).prompt,
	"pwd_prompt":  (*Server).pwdPrompt,
	"confirm":     (*Server).confirm,
	"get":         (*Server).get,
	"setting":     (*Server).setting,
	"hook":        (*Server).addHooks,
	"add_hooks":   (*Server).addHooks,
	"clear_hooks": (*Server).clearHooks,
	"bind":        (*Server).bind,
}

// Dispatch executes one decoded command. Elements starting with ':' form a
// raw command line. Every other command needs at least one argument.
func (s *Server) Dispatch(ctx context.Context, list []string) Result {
	if len(list) == 0 {
		return resultOf("", false, ErrUsage)
	}

	if strings.HasPrefix(list[0], ":") {
		line := strings.TrimPrefix(strings.Join(list, " "), ":")
		return resultOf("", false, exitStatus(s.browser.Execute(ctx, line)))
	}

	handler, ok := handlers[list[0]]
	if !ok || len(list) < 2 {
		return resultOf("", false, ErrUsage)
	}
	reply, hasReply, err := handler(s, ctx, list[1:])
	return resultOf(reply, hasReply, err)
}

func resultOf(reply string, hasReply bool, err error) Result {
	return Result{Reply: reply, HasReply: hasReply, Status: StatusOf(err), Err: err}
}

func exitStatus(code int) error {
	if code == 0 {
		return nil
	}
	return &CommandError{Code: int32(code)}
}

func (s *Server) execute(ctx context.Context, args []string) (string, bool, error) {
	return "", false, exitStatus(s.browser.Execute(ctx, strings.Join(args, " ")))
}

func (s *Server) prompt(ctx context.Context, args []string) (string, bool, error) {
	answer, ok := s.browser.Prompt(ctx, args[0], false)
	return answer, ok, nil
}

func (s *Server) pwdPrompt(ctx context.Context, args []string) (string, bool, error) {
	answer, ok := s.browser.Prompt(ctx, args[0], true)
	return answer, ok, nil
}

func (s *Server) confirm(ctx context.Context, args []string) (string, bool, error) {
	return strconv.FormatBool(s.browser.Confirm(ctx, args[0])), true, nil
}

func (s *Server) setting(_ context.Context, args []string) (string, bool, error) {
	return s.settingValue(args[0]), true, nil
}

func (s *Server) settingValue(name string) string {
	setting, ok := s.browser.Setting(name)
	if !ok {
		return "(not found)"
	}
	return setting.Format()
}
