// Package config resolves, parses, validates, and defaults dwbremote configuration.
package config

// Config is the fully materialized runtime configuration shared by the
// dwbremote binaries.
type Config struct {
	Display   string
	WindowEnv string
	LogLevel  string
	Client    ClientConfig
	Host      HostConfig
}

// ClientConfig controls dwbremote and dwbrc behavior.
type ClientConfig struct {
	ShowID    bool
	TimeoutMS int
}

// HostConfig controls the headless dwb-ipcd instance.
type HostConfig struct {
	Class       string
	Instance    string
	Title       string
	Profile     string
	Session     string
	SessionFile string
	HistoryDB   string
	HomePage    string
}

// Warning is a non-fatal parse/validation message.
type Warning struct {
	Line    int
	Message string
}
