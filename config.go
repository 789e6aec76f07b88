package sntp

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	yaml "gopkg.in/yaml.v2"
)

// Duration is a time.Duration written as "500ms" in config files.
type Duration time.Duration

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	return d.UnmarshalText([]byte(s))
}

type Config struct {
	Servers        []string `yaml:"servers" toml:"servers"`
	Port           int      `yaml:"port" toml:"port"`
	Version        int      `yaml:"version" toml:"version"`
	SendTimeout    Duration `yaml:"send_timeout" toml:"send_timeout"`
	ReceiveTimeout Duration `yaml:"receive_timeout" toml:"receive_timeout"`
	Strict         bool     `yaml:"strict" toml:"strict"`
	TTL            int      `yaml:"ttl" toml:"ttl"`

	Metric string `yaml:"metric" toml:"metric"`
	GeoDB  string `yaml:"geo_db" toml:"geo_db"`

	SetClock    bool `yaml:"set_clock" toml:"set_clock"`
	ForceUpdate bool `yaml:"force_update" toml:"force_update"`
}

func DefaultConfig() *Config {
	return &Config{
		Port:           Port,
		Version:        DefaultVersion,
		SendTimeout:    Duration(DefaultTimeout),
		ReceiveTimeout: Duration(DefaultTimeout),
	}
}

// NewConfigFromFile loads path over DefaultConfig. Files ending in .toml are
// read as TOML, anything else as YAML.
func NewConfigFromFile(path string) (cfg *Config, err error) {
	p, err := os.ReadFile(path)
	if err != nil {
		return
	}
	cfg = DefaultConfig()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.Unmarshal(p, cfg)
	default:
		err = yaml.Unmarshal(p, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("sntp: config %s: %w", path, err)
	}
	return
}

// Options converts cfg into client options. m may be nil.
func (cfg *Config) Options(m *Metrics) []Option {
	opts := []Option{
		WithVersion(cfg.Version),
		WithSendTimeout(time.Duration(cfg.SendTimeout)),
		WithReceiveTimeout(time.Duration(cfg.ReceiveTimeout)),
		WithStrictValidation(cfg.Strict),
		WithTTL(cfg.TTL),
		WithMetrics(m),
	}
	if cfg.Port != 0 {
		opts = append(opts, WithPort(cfg.Port))
	}
	return opts
}
