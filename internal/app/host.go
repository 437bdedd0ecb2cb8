package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/rbright/dwbremote/internal/browser"
	"github.com/rbright/dwbremote/internal/cli"
	"github.com/rbright/dwbremote/internal/cmdline"
	"github.com/rbright/dwbremote/internal/config"
	"github.com/rbright/dwbremote/internal/control"
	"github.com/rbright/dwbremote/internal/history"
	"github.com/rbright/dwbremote/internal/server"
	"github.com/rbright/dwbremote/internal/transport"
)

const (
	acquireProbeTimeout = 200 * time.Millisecond
	acquireRetries      = 4
)

// Host runs dwb-ipcd, or forwards a ctl command to a running one.
func (r Runner) Host(ctx context.Context, args []string) int {
	parsed, err := cli.ParseHost(args)
	if err != nil {
		return r.usage(cli.BinaryHost, err)
	}
	if code, done := r.informational(cli.BinaryHost, parsed.Mode); done {
		return code
	}

	env, err := r.start(cli.BinaryHost, parsed.ConfigPath)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	defer env.close()

	hostCfg := env.cfg.Config.Host
	if parsed.Session != "" {
		hostCfg.Session = parsed.Session
	}
	if parsed.Profile != "" {
		hostCfg.Profile = parsed.Profile
	}
	if parsed.Title != "" {
		hostCfg.Title = parsed.Title
	}

	socketPath, err := control.SocketPath(hostCfg.Session)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	if parsed.Mode == cli.ModeControl {
		return r.forward(ctx, socketPath, parsed)
	}
	return r.serveHost(ctx, env, hostCfg, socketPath)
}

// forward sends one control request. ctl exec exits with the command's
// status.
func (r Runner) forward(ctx context.Context, socketPath string, parsed cli.Host) int {
	req := control.Request{Command: parsed.Args[0], Args: parsed.Args[1:]}
	resp, err := control.Send(ctx, socketPath, req, parsed.Timeout)
	if err != nil {
		if control.NotRunning(err) {
			fmt.Fprintf(r.Stderr, "error: no dwb-ipcd running for this session\n")
			return 1
		}
		fmt.Fprintf(r.Stderr, "error: forward %s: %v\n", req.Command, err)
		return 1
	}
	if !resp.OK {
		fmt.Fprintf(r.Stderr, "error: %s\n", resp.Error)
		return 1
	}

	switch req.Command {
	case control.CommandStatus:
		fmt.Fprintf(r.Stdout, "%s %s\n", resp.State, resp.Window)
		return 0
	case control.CommandExec:
		return resp.Status
	}
	if resp.Message != "" {
		fmt.Fprintln(r.Stdout, resp.Message)
	}
	return 0
}

func (r Runner) serveHost(ctx context.Context, env runEnv, hostCfg config.HostConfig, socketPath string) int {
	logger := env.logger

	listener, err := control.Acquire(ctx, socketPath, acquireProbeTimeout, acquireRetries)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	defer func() {
		_ = listener.Close()
		_ = os.Remove(socketPath)
	}()

	sessionPath, historyPath, err := hostCfg.Paths()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	seed, err := browser.LoadSession(sessionPath)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	if seed.Name == "" {
		seed.Name = hostCfg.Session
	}

	store, err := history.Open(ctx, historyPath)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	defer store.Close()

	var prompter browser.Prompter = browser.DenyPrompter{}
	if r.Stdin != nil {
		prompter = browser.NewLinePrompter(r.Stdin, r.Stderr)
	}

	b, err := browser.New(browser.Options{
		Profile:  hostCfg.Profile,
		Session:  seed,
		HomePage: hostCfg.HomePage,
		History:  store,
		Prompter: prompter,
		Logger:   logger,
	})
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	conn, err := r.dial(env.cfg.Config.Display)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	defer conn.Close()

	hostConn, ok := conn.(transport.Host)
	if !ok {
		fmt.Fprintln(r.Stderr, "error: display connection cannot create windows")
		return 1
	}
	window, err := hostConn.CreateWindow(transport.WindowAttrs{
		Class: transport.WMClass{Instance: hostCfg.Instance, Class: hostCfg.Class},
		Title: hostCfg.Title,
		Pid:   uint32(os.Getpid()),
	})
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	srv := server.New(conn, window, b, logger)
	b.AttachHooks(srv)
	if err := srv.Start(); err != nil {
		_ = hostConn.DestroyWindow(window)
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	fmt.Fprintln(r.Stdout, window.String())
	logger.Info("host ready",
		"window", window.String(),
		"session", hostCfg.Session,
		"profile", hostCfg.Profile,
		"socket", socketPath,
	)

	hostCtx, stop := context.WithCancel(ctx)
	defer stop()

	ctl := &hostControl{
		srv:     srv,
		browser: b,
		save:    func() error { return browser.SaveSession(sessionPath, b.Snapshot()) },
		quit:    stop,
		logger:  logger,
	}
	controlDone := make(chan error, 1)
	go func() {
		controlDone <- control.Serve(hostCtx, listener, ctl)
	}()

	serveErr := srv.Serve(hostCtx)
	stop()
	if err := <-controlDone; err != nil {
		logger.Error("control socket failed", "error", err.Error())
	}

	if !errors.Is(serveErr, server.ErrWindowDestroyed) {
		if err := hostConn.DestroyWindow(window); err != nil {
			logger.Warn("destroy window failed", "window", window.String(), "error", err.Error())
		}
	}
	if err := ctl.save(); err != nil {
		fmt.Fprintf(r.Stderr, "error: save session: %v\n", err)
		return 1
	}

	switch {
	case serveErr == nil:
		logger.Info("host stopped", "window", window.String())
		return 0
	case errors.Is(serveErr, server.ErrWindowDestroyed):
		logger.Info("host window destroyed", "window", window.String())
		return 0
	default:
		fmt.Fprintf(r.Stderr, "error: %v\n", serveErr)
		logger.Error("host failed", "error", serveErr.Error())
		return 1
	}
}

// hostControl answers requests on the control socket.
type hostControl struct {
	srv     *server.Server
	browser *browser.Browser
	save    func() error
	quit    context.CancelFunc
	logger  *slog.Logger
}

func (h *hostControl) Handle(ctx context.Context, req control.Request) control.Response {
	h.logger.Debug("control request", "command", req.Command, "args", len(req.Args))

	switch req.Command {
	case control.CommandStatus:
		return control.Response{
			OK:      true,
			State:   string(h.srv.State()),
			Window:  h.srv.Window().String(),
			Message: fmt.Sprintf("tabs=%d hooks=%s", len(h.browser.Tabs()), strings.Join(h.srv.Hooks().Names(), ",")),
		}
	case control.CommandExec:
		status := h.browser.Execute(ctx, cmdline.Join(req.Args))
		return control.Response{OK: true, Status: status}
	case control.CommandFocus:
		id, err := h.srv.FocusIn()
		if err != nil {
			return control.Failure(err)
		}
		return control.Response{OK: true, Message: fmt.Sprintf("focus id %d", id)}
	case control.CommandSave:
		if err := h.save(); err != nil {
			return control.Failure(err)
		}
		return control.Response{OK: true, Message: "session saved"}
	case control.CommandQuit:
		h.quit()
		return control.Response{OK: true, Message: "stopping"}
	default:
		return control.Failure(fmt.Errorf("unknown control command %q", req.Command))
	}
}
