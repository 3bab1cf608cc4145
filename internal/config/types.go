package config

import "time"

// Config is the top-level configuration structure for tonearm.
type Config struct {
	LogLevel string         `yaml:"log_level,omitempty" env:"LOG_LEVEL"`
	Client   ClientConfig   `yaml:"client" envPrefix:"CLIENT_"`
	Provider ProviderConfig `yaml:"provider" envPrefix:"PROVIDER_"`
	Host     HostConfig     `yaml:"host" envPrefix:"HOST_"`
}

// ClientConfig configures the remote: the browser login and the host it
// talks to.
type ClientConfig struct {
	ClientID       string        `yaml:"client_id,omitempty" env:"ID"`
	AuthURL        string        `yaml:"auth_url,omitempty" env:"AUTH_URL"`
	RedirectAddr   string        `yaml:"redirect_addr,omitempty" env:"REDIRECT_ADDR"`
	Scopes         []string      `yaml:"scopes,omitempty" env:"SCOPES" envSeparator:","`
	HostURL        string        `yaml:"host_url,omitempty" env:"HOST_URL"`
	CaptureTimeout time.Duration `yaml:"capture_timeout,omitempty" env:"CAPTURE_TIMEOUT"`
	// RefreshToken is never read from the file.
	RefreshToken string `yaml:"-" env:"REFRESH_TOKEN"`
}

// ProviderConfig configures the host's side of the OAuth exchange.
type ProviderConfig struct {
	ClientID     string   `yaml:"client_id,omitempty" env:"CLIENT_ID"`
	ClientSecret string   `yaml:"client_secret,omitempty" env:"CLIENT_SECRET"`
	AuthURL      string   `yaml:"auth_url,omitempty" env:"AUTH_URL"`
	TokenURL     string   `yaml:"token_url,omitempty" env:"TOKEN_URL"`
	ProfileURL   string   `yaml:"profile_url,omitempty" env:"PROFILE_URL"`
	RedirectURL  string   `yaml:"redirect_url,omitempty" env:"REDIRECT_URL"`
	Scopes       []string `yaml:"scopes,omitempty" env:"SCOPES" envSeparator:","`
}

// HostConfig configures the host process.
type HostConfig struct {
	Listen       string        `yaml:"listen,omitempty" env:"LISTEN"`
	WSPath       string        `yaml:"ws_path,omitempty" env:"WS_PATH"`
	BotName      string        `yaml:"bot_name,omitempty" env:"BOT_NAME"`
	BotAvatar    string        `yaml:"bot_avatar,omitempty" env:"BOT_AVATAR"`
	TickInterval time.Duration `yaml:"tick_interval,omitempty" env:"TICK_INTERVAL"`
}
