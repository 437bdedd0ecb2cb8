package server

import (
	"context"
	"fmt"
	"strconv"
)

// Browser is the instance a Server drives. Tab indexes are 0-based.
type Browser interface {
	// Execute runs a command line and returns its exit status.
	Execute(ctx context.Context, line string) int
	// Prompt asks the user for text; ok is false when the prompt is dismissed.
	Prompt(ctx context.Context, text string, secret bool) (answer string, ok bool)
	Confirm(ctx context.Context, text string) bool
	Tabs() []Tab
	CurrentTab() int
	History(ctx context.Context) ([]string, error)
	Profile() string
	Session() string
	Setting(name string) (Setting, bool)
	// BindKey registers a binding; activate runs each time it fires.
	BindKey(b Binding, activate func()) error
}

type Tab struct {
	URI   string
	Title string
}

type SettingKind int

const (
	SettingString SettingKind = iota
	SettingInt
	SettingFloat
	SettingBool
)

// Setting is a typed browser setting value.
type Setting struct {
	Kind   SettingKind
	Int    int
	Float  float64
	Bool   bool
	String string
}

// Format renders the value the way get setting replies with it.
func (s Setting) Format() string {
	switch s.Kind {
	case SettingInt:
		return strconv.Itoa(s.Int)
	case SettingFloat:
		return fmt.Sprintf("%.2f", s.Float)
	case SettingBool:
		return strconv.FormatBool(s.Bool)
	default:
		return s.String
	}
}

// Binding is a dynamic key binding registered by a bind command. Name is the
// raw argument it was registered from. Empty Shortcut or Command means none.
type Binding struct {
	Name     string
	Shortcut string
	Command  string
}
