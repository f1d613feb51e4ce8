package config

const (
	defaultChunkSize      = 32 * 1024
	defaultProbeThreshold = 200
	defaultProbeCeiling   = 64 * 1024
	defaultPipingBaseURL  = "https://ppng.io/"
	defaultPipingTimeout  = 30
	defaultSRTListenAddr  = ":6000"
	defaultPlayerCommand  = "ffplay -autoexit -loglevel warning -"
	defaultLogFormat      = "text"
	defaultLogLevel       = "info"
	defaultConfigPath     = "~/.config/tomitake/config.toml"
	projectConfigFile     = "tomitake.toml"
)

var defaultPlayerCodecs = []string{"vp8", "vp9", "av1", "opus", "vorbis"}

// Default returns a Config populated with defaults.
func Default() Config {
	return Config{
		Relay: Relay{
			ChunkSize: defaultChunkSize,
		},
		Probe: Probe{
			Threshold: defaultProbeThreshold,
			Ceiling:   defaultProbeCeiling,
		},
		Piping: Piping{
			BaseURL:        defaultPipingBaseURL,
			TimeoutSeconds: defaultPipingTimeout,
		},
		SRT: SRT{
			ListenAddr: defaultSRTListenAddr,
		},
		Player: Player{
			Command: defaultPlayerCommand,
			Codecs:  append([]string(nil), defaultPlayerCodecs...),
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
