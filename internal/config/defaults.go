package config

const (
	defaultOutputDir       = "."
	defaultOutputTemplate  = "{title}"
	defaultEncoder         = "aac"
	defaultTimeoutSeconds  = 30
	defaultDownloadWorkers = 20
	defaultLogFormat       = "console"
	defaultLogLevel        = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Output: Output{
			Dir:      defaultOutputDir,
			Template: defaultOutputTemplate,
			Encoder:  defaultEncoder,
		},
		Network: Network{
			TimeoutSeconds: defaultTimeoutSeconds,
		},
		Download: Download{
			Workers: defaultDownloadWorkers,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
