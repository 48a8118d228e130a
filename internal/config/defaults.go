package config

const (
	defaultConfigPath          = "~/.config/quickshorts/config.toml"
	projectConfigName          = "quickshorts.toml"
	historyFileName            = "history.db"
	defaultStateDir            = "~/.local/share/quickshorts"
	defaultShortDurationSecs   = 60
	defaultWhisperModel        = "base"
	defaultFontSize            = 24
	defaultFontColor           = "white"
	defaultVerticalAlignment   = "bottom"
	defaultHorizontalAlignment = "center"
	defaultFFmpegBinary        = "ffmpeg"
	defaultFFprobeBinary       = "ffprobe"
	defaultWhisperBinary       = "whisper"
	defaultPacketPolicy        = "best_effort"
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Video: Video{
			ShortDurationSecs: defaultShortDurationSecs,
		},
		Subtitles: Subtitles{
			Enabled:             true,
			WhisperModel:        defaultWhisperModel,
			FontSize:            defaultFontSize,
			FontColor:           defaultFontColor,
			VerticalAlignment:   defaultVerticalAlignment,
			HorizontalAlignment: defaultHorizontalAlignment,
		},
		Tools: Tools{
			FFmpegBinary:  defaultFFmpegBinary,
			FFprobeBinary: defaultFFprobeBinary,
			WhisperBinary: defaultWhisperBinary,
		},
		Relay: Relay{
			PacketFailurePolicy: defaultPacketPolicy,
		},
		Paths: Paths{
			StateDir: defaultStateDir,
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
