// Package browser is a headless stand-in for a dwb instance: a tab model
// driven by command lines that fires protocol hooks as it changes.
package browser

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"path"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rbright/dwbremote/internal/cmdline"
	"github.com/rbright/dwbremote/internal/history"
	"github.com/rbright/dwbremote/internal/server"
	"github.com/rbright/dwbremote/internal/wire"
)

const historyLimit = 100

// HookEmitter receives hook notifications. *server.Server satisfies it.
type HookEmitter interface {
	EmitHook(category wire.HookCategory, payload ...string) bool
}

// HistoryStore records and lists visited pages.
type HistoryStore interface {
	Add(ctx context.Context, uri, title string, at time.Time) error
	Recent(ctx context.Context, limit int) ([]history.Entry, error)
}

type Options struct {
	Profile  string
	Session  Session
	HomePage string
	History  HistoryStore
	Prompter Prompter
	Logger   *slog.Logger
}

type boundKey struct {
	binding  server.Binding
	activate func()
}

// Browser implements server.Browser.
type Browser struct {
	profile  string
	session  string
	homePage string
	history  HistoryStore
	prompter Prompter
	logger   *slog.Logger

	mu       sync.Mutex
	hooks    HookEmitter
	tabs     []server.Tab
	current  int
	mode     string
	settings map[string]server.Setting
	bindings []boundKey
}

var _ server.Browser = (*Browser)(nil)

// New seeds a browser from opts.Session. Without session tabs a single tab
// shows the home page.
func New(opts Options) (*Browser, error) {
	b := &Browser{
		profile:  opts.Profile,
		session:  opts.Session.Name,
		homePage: opts.HomePage,
		history:  opts.History,
		prompter: opts.Prompter,
		logger:   opts.Logger,
		mode:     "normal",
		settings: defaultSettings(opts.HomePage),
		current:  opts.Session.Current,
	}
	if b.logger == nil {
		b.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if b.prompter == nil {
		b.prompter = DenyPrompter{}
	}

	for name, value := range opts.Session.Settings {
		setting, err := settingFromYAML(value)
		if err != nil {
			return nil, fmt.Errorf("session setting %q: %w", name, err)
		}
		b.settings[name] = setting
	}

	for _, tab := range opts.Session.Tabs {
		title := tab.Title
		if title == "" {
			title = titleFor(tab.URI)
		}
		b.tabs = append(b.tabs, server.Tab{URI: tab.URI, Title: title})
	}
	if len(b.tabs) == 0 {
		b.tabs = []server.Tab{{URI: b.homePage, Title: titleFor(b.homePage)}}
		b.current = 0
	}
	if b.current < 0 || b.current >= len(b.tabs) {
		b.current = 0
	}
	return b, nil
}

// AttachHooks routes hook notifications to h.
func (b *Browser) AttachHooks(h HookEmitter) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.hooks = h
}

// Snapshot returns the tab state and every setting changed from its default,
// for persisting.
func (b *Browser) Snapshot() Session {
	b.mu.Lock()
	defer b.mu.Unlock()
	s := Session{Name: b.session, Current: b.current}
	for _, tab := range b.tabs {
		s.Tabs = append(s.Tabs, SessionTab{URI: tab.URI, Title: tab.Title})
	}

	defaults := defaultSettings(b.homePage)
	for name, setting := range b.settings {
		if def, ok := defaults[name]; ok && def == setting {
			continue
		}
		if s.Settings == nil {
			s.Settings = make(map[string]any)
		}
		s.Settings[name] = settingToYAML(setting)
	}
	return s
}

// Execute runs one command line and returns 0 on success.
func (b *Browser) Execute(ctx context.Context, line string) int {
	words, err := cmdline.Split(line)
	if err != nil || len(words) == 0 {
		b.logger.Warn("unparseable command line", "line", line)
		return 1
	}
	b.emit(wire.HookExecute, line)

	if err := b.run(ctx, words[0], words[1:]); err != nil {
		b.logger.Warn("command failed", "command", words[0], "error", err.Error())
		return 1
	}
	return 0
}

var errUnknownCommand = errors.New("unknown command")

func (b *Browser) run(ctx context.Context, command string, args []string) error {
	switch command {
	case "open":
		if len(args) == 0 {
			return errors.New("open needs a uri")
		}
		return b.open(ctx, args[0], false)
	case "tabopen":
		uri := b.homePage
		if len(args) > 0 {
			uri = args[0]
		}
		return b.open(ctx, uri, true)
	case "close":
		return b.closeTab(args)
	case "focus":
		if len(args) == 0 {
			return errors.New("focus needs a tab number")
		}
		return b.focus(args[0])
	case "reload":
		idx, tab, ok := b.currentTab()
		if !ok {
			return server.ErrNoSuchTab
		}
		b.emitLoad(idx, tab.URI)
		return nil
	case "set":
		if len(args) < 2 {
			return errors.New("set needs a name and a value")
		}
		return b.set(args[0], strings.Join(args[1:], " "))
	case "mode":
		if len(args) == 0 {
			return errors.New("mode needs a name")
		}
		b.mu.Lock()
		b.mode = args[0]
		b.mu.Unlock()
		b.emit(wire.HookChangeMode, args[0])
		return nil
	case "download":
		if len(args) == 0 {
			return errors.New("download needs a uri")
		}
		b.emit(wire.HookDownloadFinished, b.downloadPath(args[0], args[1:]))
		return nil
	case "press":
		if len(args) == 0 {
			return errors.New("press needs a shortcut")
		}
		return b.activate(func(k server.Binding) bool { return k.Shortcut == args[0] })
	default:
		if err := b.activate(func(k server.Binding) bool { return k.Command == command }); err == nil {
			return nil
		}
		return fmt.Errorf("%w: %s", errUnknownCommand, command)
	}
}

func (b *Browser) open(ctx context.Context, raw string, newTab bool) error {
	uri := normalizeURI(raw)
	title := titleFor(uri)

	b.mu.Lock()
	if newTab || len(b.tabs) == 0 {
		b.tabs = append(b.tabs, server.Tab{})
		b.current = len(b.tabs) - 1
		newTab = true
	}
	idx := b.current
	b.tabs[idx] = server.Tab{URI: uri, Title: title}
	b.mu.Unlock()

	if newTab {
		b.emit(wire.HookNewTab, strconv.Itoa(idx))
		b.emit(wire.HookFocusTab, strconv.Itoa(idx))
	}
	b.emit(wire.HookNavigation, strconv.Itoa(idx), uri)

	if b.history != nil {
		if err := b.history.Add(ctx, uri, title, time.Now()); err != nil {
			b.logger.Warn("record history failed", "uri", uri, "error", err.Error())
		}
	}
	b.emitLoad(idx, uri)
	return nil
}

func (b *Browser) emitLoad(idx int, uri string) {
	i := strconv.Itoa(idx)
	b.emit(wire.HookLoadCommitted, i, uri)
	b.emit(wire.HookLoadFinished, i, uri)
	b.emit(wire.HookDocumentFinished, i)
}

func (b *Browser) closeTab(args []string) error {
	b.mu.Lock()
	idx := b.current
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil {
			b.mu.Unlock()
			return fmt.Errorf("tab number: %w", err)
		}
		idx = n - 1
	}
	if idx < 0 || idx >= len(b.tabs) {
		b.mu.Unlock()
		return server.ErrNoSuchTab
	}
	b.tabs = append(b.tabs[:idx], b.tabs[idx+1:]...)
	if idx < b.current || b.current >= len(b.tabs) {
		b.current--
	}
	if b.current < 0 {
		b.current = 0
	}
	b.mu.Unlock()

	b.emit(wire.HookCloseTab, strconv.Itoa(idx))
	return nil
}

func (b *Browser) focus(raw string) error {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("tab number: %w", err)
	}

	b.mu.Lock()
	if n < 1 || n > len(b.tabs) {
		b.mu.Unlock()
		return server.ErrNoSuchTab
	}
	b.current = n - 1
	b.mu.Unlock()

	b.emit(wire.HookFocusTab, strconv.Itoa(n-1))
	return nil
}

func (b *Browser) set(name, raw string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	current, exists := b.settings[name]
	setting, err := parseSetting(current, exists, raw)
	if err != nil {
		return fmt.Errorf("set %s: %w", name, err)
	}
	b.settings[name] = setting
	return nil
}

// downloadPath names the file a download of raw is stored at.
func (b *Browser) downloadPath(raw string, rest []string) string {
	name := ""
	if len(rest) > 0 {
		name = rest[0]
	} else if u, err := url.Parse(normalizeURI(raw)); err == nil {
		name = path.Base(u.Path)
	}
	if name == "" || name == "/" || name == "." {
		name = "download"
	}

	dir := ""
	if setting, ok := b.Setting("download-directory"); ok {
		dir = setting.Format()
	}
	if dir == "" {
		return name
	}
	return path.Join(dir, name)
}

// activate fires the first binding selected by match.
func (b *Browser) activate(match func(server.Binding) bool) error {
	b.mu.Lock()
	var fire func()
	for _, k := range b.bindings {
		if match(k.binding) {
			fire = k.activate
			break
		}
	}
	b.mu.Unlock()

	if fire == nil {
		return errors.New("no such binding")
	}
	fire()
	return nil
}

func (b *Browser) emit(category wire.HookCategory, payload ...string) {
	b.mu.Lock()
	hooks := b.hooks
	b.mu.Unlock()
	if hooks != nil {
		hooks.EmitHook(category, payload...)
	}
}

func (b *Browser) currentTab() (int, server.Tab, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.current < 0 || b.current >= len(b.tabs) {
		return 0, server.Tab{}, false
	}
	return b.current, b.tabs[b.current], true
}

func (b *Browser) Prompt(ctx context.Context, text string, secret bool) (string, bool) {
	return b.prompter.Prompt(ctx, text, secret)
}

func (b *Browser) Confirm(ctx context.Context, text string) bool {
	return b.prompter.Confirm(ctx, text)
}

func (b *Browser) Tabs() []server.Tab {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]server.Tab(nil), b.tabs...)
}

func (b *Browser) CurrentTab() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current
}

// Mode returns the current input mode.
func (b *Browser) Mode() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.mode
}

func (b *Browser) History(ctx context.Context) ([]string, error) {
	if b.history == nil {
		return nil, nil
	}
	entries, err := b.history.Recent(ctx, historyLimit)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.String())
	}
	return out, nil
}

func (b *Browser) Profile() string { return b.profile }

func (b *Browser) Session() string { return b.session }

func (b *Browser) Setting(name string) (server.Setting, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	s, ok := b.settings[name]
	return s, ok
}

// SettingNames lists known settings in order.
func (b *Browser) SettingNames() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	names := make([]string, 0, len(b.settings))
	for name := range b.settings {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// BindKey registers binding, replacing one registered under the same name.
func (b *Browser) BindKey(binding server.Binding, activate func()) error {
	if binding.Shortcut == "" && binding.Command == "" {
		return errors.New("binding needs a shortcut or a command")
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for i, k := range b.bindings {
		if k.binding.Name == binding.Name {
			b.bindings[i] = boundKey{binding: binding, activate: activate}
			return nil
		}
	}
	b.bindings = append(b.bindings, boundKey{binding: binding, activate: activate})
	b.logger.Info("binding registered", "name", binding.Name, "shortcut", binding.Shortcut, "command", binding.Command)
	return nil
}

// normalizeURI adds http:// to bare host names.
func normalizeURI(raw string) string {
	if strings.Contains(raw, "://") || strings.HasPrefix(raw, "about:") || strings.HasPrefix(raw, "file:") {
		return raw
	}
	if strings.Contains(raw, ".") || strings.HasPrefix(raw, "localhost") {
		return "http://" + raw
	}
	return raw
}

func titleFor(uri string) string {
	u, err := url.Parse(uri)
	if err != nil || u.Hostname() == "" {
		return uri
	}
	return u.Hostname()
}
