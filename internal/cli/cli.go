// Package cli parses the command lines of the dwbremote binaries.
package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/pflag"
)

const (
	BinaryRemote = "dwbremote"
	BinaryRC     = "dwbrc"
	BinaryHost   = "dwb-ipcd"
)

type Mode string

const (
	ModeRun     Mode = "run"
	ModeList    Mode = "list"
	ModeDoctor  Mode = "doctor"
	ModeControl Mode = "ctl"
	ModeVersion Mode = "version"
	ModeHelp    Mode = "help"
)

// Remote holds a parsed dwbremote command line.
type Remote struct {
	Mode       Mode
	ConfigPath string
	IDs        []string
	Pids       []uint
	Classes    []string
	Names      []string
	All        bool
	ShowID     bool
	ShowIDSet  bool
	Timeout    time.Duration
	TimeoutSet bool
	Args       []string
}

// RC holds a parsed dwbrc command line.
type RC struct {
	Mode       Mode
	ConfigPath string
	ID         string
	Timeout    time.Duration
	TimeoutSet bool
	Args       []string
}

// Host holds a parsed dwb-ipcd command line. In ModeControl, Args carries
// the control command and its arguments.
type Host struct {
	Mode       Mode
	ConfigPath string
	Session    string
	Profile    string
	Title      string
	Timeout    time.Duration
	Args       []string
}

func newFlagSet(binary string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(binary, pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.SetInterspersed(false)
	return fs
}

// ParseRemote parses dwbremote arguments. Flags end at the first non-flag
// argument so the protocol command keeps its own dashes.
func ParseRemote(args []string) (Remote, error) {
	var (
		parsed            Remote
		help, ver, doctor bool
		list              bool
	)

	fs := newFlagSet(BinaryRemote)
	fs.StringVar(&parsed.ConfigPath, "config", "", "config file path")
	fs.StringArrayVarP(&parsed.IDs, "id", "i", nil, "target window id")
	fs.UintSliceVarP(&parsed.Pids, "pid", "p", nil, "target process id")
	fs.StringArrayVarP(&parsed.Classes, "class", "c", nil, "target WM_CLASS")
	fs.StringArrayVarP(&parsed.Names, "name", "n", nil, "target WM_CLASS instance or title")
	fs.BoolVarP(&parsed.All, "all", "a", false, "target every endpoint")
	fs.BoolVarP(&list, "list", "l", false, "list endpoints")
	fs.BoolVarP(&parsed.ShowID, "show-id", "s", false, "prefix replies with the window id")
	fs.DurationVar(&parsed.Timeout, "timeout", 0, "give up waiting after this long")
	fs.BoolVar(&doctor, "doctor", false, "run environment checks")
	fs.BoolVarP(&help, "help", "h", false, "show help")
	fs.BoolVarP(&ver, "version", "v", false, "show version")

	if err := fs.Parse(args); err != nil {
		return Remote{}, err
	}
	parsed.ShowIDSet = fs.Changed("show-id")
	parsed.TimeoutSet = fs.Changed("timeout")
	parsed.Args = fs.Args()

	switch {
	case help:
		parsed.Mode = ModeHelp
	case ver:
		parsed.Mode = ModeVersion
	case doctor:
		parsed.Mode = ModeDoctor
	case list:
		parsed.Mode = ModeList
	case len(parsed.Args) == 0:
		return Remote{}, errors.New("missing command")
	default:
		parsed.Mode = ModeRun
	}
	if parsed.Timeout < 0 {
		return Remote{}, errors.New("--timeout must not be negative")
	}
	return parsed, nil
}

// ParseRC parses dwbrc arguments.
func ParseRC(args []string) (RC, error) {
	var (
		parsed    RC
		help, ver bool
	)

	fs := newFlagSet(BinaryRC)
	fs.StringVar(&parsed.ConfigPath, "config", "", "config file path")
	fs.StringVarP(&parsed.ID, "id", "i", "", "target window id")
	fs.DurationVar(&parsed.Timeout, "timeout", 0, "give up waiting after this long")
	fs.BoolVarP(&help, "help", "h", false, "show help")
	fs.BoolVarP(&ver, "version", "v", false, "show version")

	if err := fs.Parse(args); err != nil {
		return RC{}, err
	}
	parsed.TimeoutSet = fs.Changed("timeout")
	parsed.Args = fs.Args()

	switch {
	case help:
		parsed.Mode = ModeHelp
	case ver:
		parsed.Mode = ModeVersion
	case len(parsed.Args) == 0:
		return RC{}, errors.New("missing command")
	default:
		parsed.Mode = ModeRun
	}
	if parsed.Timeout < 0 {
		return RC{}, errors.New("--timeout must not be negative")
	}
	return parsed, nil
}

var controlCommands = map[string]bool{
	"status": true,
	"exec":   true,
	"focus":  true,
	"save":   true,
	"quit":   true,
}

// ParseHost parses dwb-ipcd arguments: either host flags alone, or
// "ctl <command> [args...]" to drive a running host.
func ParseHost(args []string) (Host, error) {
	var (
		parsed    Host
		help, ver bool
	)

	fs := newFlagSet(BinaryHost)
	fs.StringVar(&parsed.ConfigPath, "config", "", "config file path")
	fs.StringVar(&parsed.Session, "session", "", "session name")
	fs.StringVar(&parsed.Profile, "profile", "", "profile name")
	fs.StringVar(&parsed.Title, "title", "", "window title")
	fs.DurationVar(&parsed.Timeout, "timeout", 2*time.Second, "control request timeout")
	fs.BoolVarP(&help, "help", "h", false, "show help")
	fs.BoolVarP(&ver, "version", "v", false, "show version")

	if err := fs.Parse(args); err != nil {
		return Host{}, err
	}
	rest := fs.Args()

	switch {
	case help:
		parsed.Mode = ModeHelp
		return parsed, nil
	case ver:
		parsed.Mode = ModeVersion
		return parsed, nil
	case len(rest) == 0:
		parsed.Mode = ModeRun
		return parsed, nil
	case rest[0] != string(ModeControl):
		return Host{}, fmt.Errorf("unexpected argument %q", rest[0])
	}

	parsed.Mode = ModeControl
	parsed.Args = rest[1:]
	if len(parsed.Args) == 0 {
		return Host{}, errors.New("ctl requires a command")
	}
	if !controlCommands[parsed.Args[0]] {
		return Host{}, fmt.Errorf("unknown ctl command: %s", parsed.Args[0])
	}
	if parsed.Args[0] == "exec" && len(parsed.Args) < 2 {
		return Host{}, errors.New("ctl exec requires a command line")
	}
	if parsed.Timeout <= 0 {
		return Host{}, errors.New("--timeout must be positive")
	}
	return parsed, nil
}

func HelpText(binary string) string {
	switch binary {
	case BinaryRC:
		return fmt.Sprintf(`Usage:
  %[1]s [-i WINDOW] <command> [args...]

Sends one command to a dwb window and exits with its status. Without -i the
window id is read from $DWB_WINID.

Flags:
  -i, --id WINDOW     Target window id (decimal or 0x hex)
  --timeout DURATION  Give up waiting for the reply (default: wait forever)
  --config PATH       Config file path (default: $XDG_CONFIG_HOME/dwbremote/config.jsonc)
  -h, --help          Show help
  -v, --version       Show version
`, binary)
	case BinaryHost:
		return fmt.Sprintf(`Usage:
  %[1]s [--session NAME] [--profile NAME] [--title TITLE]
  %[1]s [--session NAME] ctl <status|exec|focus|save|quit> [args...]

Runs a headless dwb endpoint on the X display, or controls a running one.

Flags:
  --session NAME      Session to load and own (default from config)
  --profile NAME      Profile reported by "get profile"
  --title TITLE       Window title
  --timeout DURATION  Control request timeout (default: 2s)
  --config PATH       Config file path (default: $XDG_CONFIG_HOME/dwbremote/config.jsonc)
  -h, --help          Show help
  -v, --version       Show version
`, binary)
	default:
		return fmt.Sprintf(`Usage:
  %[1]s [flags] <command> [args...]

Sends a command to one or more dwb windows. Without selection flags the
target is $DWB_WINID, else the most recently focused dwb window.

Commands:
  execute LINE              Run a dwb command line
  prompt TEXT               Ask for input and print it
  pwd_prompt TEXT           Ask for hidden input and print it
  confirm TEXT              Ask for confirmation
  get [N] FIELD             Print a value (uri, title, ntabs, history, ...)
  hook NAME...              Print hook events until the window closes
  add_hooks NAME...         Enable more hooks
  clear_hooks NAME...       Disable hooks
  bind SHORTCUT:COMMAND...  Register key bindings and print activations
  :LINE                     Shorthand for execute

Flags:
  -a, --all           Target every dwb window
  -c, --class NAME    Target windows with this WM_CLASS
  -i, --id WINDOW     Target this window id
  -n, --name NAME     Target windows with this instance name or title
  -p, --pid PID       Target windows owned by this process
  -l, --list          List dwb windows and exit
  -s, --show-id       Prefix replies with the window id
  --timeout DURATION  Give up waiting for replies (default: wait forever)
  --doctor            Run environment checks
  --config PATH       Config file path (default: $XDG_CONFIG_HOME/dwbremote/config.jsonc)
  -h, --help          Show help
  -v, --version       Show version
`, binary)
	}
}

// CommandLine joins a protocol command for logging.
func CommandLine(args []string) string {
	return strings.Join(args, " ")
}
