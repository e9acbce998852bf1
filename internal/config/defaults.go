package config

const (
	defaultThreshold      = 0.1
	defaultPel            = 2
	defaultBlockSize      = 16
	defaultSearchRadius   = 8
	defaultLambda         = 400
	defaultWorkDir        = "~/.cache/filldrops/work"
	defaultHistoryDB      = "~/.local/share/filldrops/history.db"
	defaultFFmpegBinary   = "ffmpeg"
	defaultFFprobeBinary  = "ffprobe"
	defaultLogFormat      = "console"
	defaultLogLevel       = "info"
	defaultConfigLocation = "~/.config/filldrops/config.toml"

	// EnvThreshold overrides filter.threshold when set.
	EnvThreshold = "FILLDROPS_THRESHOLD"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Filter: Filter{
			Threshold:    defaultThreshold,
			Pel:          defaultPel,
			TrueMotion:   true,
			BlockSize:    defaultBlockSize,
			SearchRadius: defaultSearchRadius,
			Lambda:       defaultLambda,
		},
		Render: Render{
			Workers:  0,
			Progress: true,
		},
		Paths: Paths{
			WorkDir:   defaultWorkDir,
			HistoryDB: defaultHistoryDB,
		},
		FFmpeg: FFmpeg{
			FFmpegBinary:  defaultFFmpegBinary,
			FFprobeBinary: defaultFFprobeBinary,
		},
		History: History{
			Enabled: true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
