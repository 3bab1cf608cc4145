package config

import "time"

const (
	DefaultLogLevel       = "info"
	DefaultRedirectAddr   = "127.0.0.1:1887"
	DefaultHostURL        = "ws://127.0.0.1:8787/ws"
	DefaultCaptureTimeout = 5 * time.Minute
	DefaultListen         = "127.0.0.1:8787"
	DefaultWSPath         = "/ws"
	DefaultBotName        = "tonearm"
	DefaultTickInterval   = time.Second
)

// DefaultConfig returns the configuration used when nothing is set.
// Provider endpoints are left empty; they default to Discord's when the
// exchange is built.
func DefaultConfig() Config {
	return Config{
		LogLevel: DefaultLogLevel,
		Client: ClientConfig{
			RedirectAddr:   DefaultRedirectAddr,
			HostURL:        DefaultHostURL,
			CaptureTimeout: DefaultCaptureTimeout,
		},
		Provider: ProviderConfig{
			RedirectURL: "http://" + DefaultRedirectAddr,
		},
		Host: HostConfig{
			Listen:       DefaultListen,
			WSPath:       DefaultWSPath,
			BotName:      DefaultBotName,
			TickInterval: DefaultTickInterval,
		},
	}
}
