package config

import "time"

// Config holds runtime settings for the CLI.
type Config struct {
	ServerURL      string
	SessionFile    string
	RequestTimeout time.Duration
}

func (c *Config) LoadDefaults() {
	c.ServerURL = "http://localhost:8080"
	c.SessionFile = "wishkeeper.db"
	c.RequestTimeout = 15 * time.Second
}

// LoadConfig applies defaults, then the JSON file, then flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
