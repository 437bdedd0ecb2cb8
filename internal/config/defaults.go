package config

// DefaultWindowEnv names the variable holding the default target window id.
const DefaultWindowEnv = "DWB_WINID"

// Default returns the canonical runtime configuration used when no file is present.
func Default() Config {
	return Config{
		Display:   "",
		WindowEnv: DefaultWindowEnv,
		LogLevel:  "info",
		Client: ClientConfig{
			ShowID:    false,
			TimeoutMS: 0,
		},
		Host: HostConfig{
			Class:    "Dwb",
			Instance: "dwb",
			Title:    "dwb",
			Profile:  "default",
			Session:  "default",
			HomePage: "about:blank",
		},
	}
}
