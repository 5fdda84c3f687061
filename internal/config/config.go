package config

import (
	"errors"
	"io/fs"
	"time"

	"github.com/khanghh/signup-otp/params"
	"github.com/spf13/viper"
)

type SessionConfig struct {
	SessionMaxAge  time.Duration `mapstructure:"sessionMaxAge"`
	CookieName     string        `mapstructure:"cookieName"`
	CookieHttpOnly bool          `mapstructure:"cookieHttpOnly"`
	CookieSecure   bool          `mapstructure:"cookieSecure"`
}

type SignupConfig struct {
	SimulatedLatency time.Duration `mapstructure:"simulatedLatency"`
	FlowIdleTimeout  time.Duration `mapstructure:"flowIdleTimeout"`
}

type OAuthProviderConfig struct {
	ClientID     string `mapstructure:"clientID"`
	ClientSecret string `mapstructure:"clientSecret"`
	RedirectURL  string `mapstructure:"redirectURL"`
}

type Config struct {
	Debug             bool          `mapstructure:"debug"`
	AppName           string        `mapstructure:"appName"`
	BaseURL           string        `mapstructure:"baseURL"`
	ListenAddr        string        `mapstructure:"listenAddr"`
	StaticDir         string        `mapstructure:"staticDir"`
	TemplateDir       string        `mapstructure:"templateDir"`
	Session           SessionConfig `mapstructure:"session"`
	Signup            SignupConfig  `mapstructure:"signup"`
	IdentityProviders struct {
		Google OAuthProviderConfig `mapstructure:"google"`
	} `mapstructure:"identityProviders"`
}

func (c *Config) Sanitize() error {
	if c.AppName == "" {
		c.AppName = params.DefaultSiteName
	}
	if c.ListenAddr == "" {
		c.ListenAddr = params.DefaultListenAddr
	}
	if c.StaticDir == "" {
		c.StaticDir = params.DefaultStaticDir
	}
	if c.Session.SessionMaxAge == 0 {
		c.Session.SessionMaxAge = params.DefaultSessionMaxAge
	}
	if c.Session.CookieName == "" {
		c.Session.CookieName = params.DefaultSessionCookie
	}
	if c.Signup.SimulatedLatency < 0 {
		c.Signup.SimulatedLatency = 0
	}
	if c.Signup.FlowIdleTimeout <= 0 {
		c.Signup.FlowIdleTimeout = params.FlowIdleTimeout
	}
	google := &c.IdentityProviders.Google
	if google.RedirectURL == "" && c.BaseURL != "" {
		google.RedirectURL = c.BaseURL + "/oauth/google/callback"
	}
	return nil
}

// LoadConfig reads the YAML config file and overlays identity provider
// credentials from the environment. A missing file leaves the defaults.
func LoadConfig(filename string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(filename)
	v.SetConfigType("yaml")
	v.SetDefault("signup.simulatedLatency", params.OTPSimulatedLatency)
	v.BindEnv("identityProviders.google.clientID", params.DefaultGoogleClientEnv)
	v.BindEnv("identityProviders.google.clientSecret", params.DefaultGoogleSecretEnv)

	if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	if err := config.Sanitize(); err != nil {
		return nil, err
	}
	return &config, nil
}
