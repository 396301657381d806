package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/aleksaelezovic/xmpkit/pkg/xmp"
)

// ErrConfigNotFound is returned when the config file does not exist.
// Callers can check for this with errors.Is(err, config.ErrConfigNotFound).
var ErrConfigNotFound = errors.New("config file not found")

type ParseConfig struct {
	RequireXMPMeta    bool `yaml:"require_xmpmeta,omitempty"`
	StrictAliasing    bool `yaml:"strict_aliasing,omitempty"`
	OmitNormalization bool `yaml:"omit_normalization,omitempty"`
	AcceptLatin1      bool `yaml:"accept_latin1,omitempty"`
	FixControlChars   bool `yaml:"fix_control_chars,omitempty"`
}

type SerializeConfig struct {
	Compact           bool   `yaml:"compact,omitempty"`
	OmitPacketWrapper bool   `yaml:"omit_packet_wrapper,omitempty"`
	ReadOnly          bool   `yaml:"read_only,omitempty"`
	Sort              bool   `yaml:"sort,omitempty"`
	Encoding          string `yaml:"encoding,omitempty"`
	Padding           int    `yaml:"padding,omitempty"`
	Indent            string `yaml:"indent,omitempty"`
	Newline           string `yaml:"newline,omitempty"`
}

type StoreConfig struct {
	Path string `yaml:"path"`
}

type Config struct {
	Parse     ParseConfig     `yaml:"parse"`
	Serialize SerializeConfig `yaml:"serialize"`
	Store     StoreConfig     `yaml:"store"`
	LogLevel  string          `yaml:"log_level,omitempty"`
}

const ConfigFileName = "xmptool.yaml"

// EnvPrefix prefixes the environment variables that override the file.
const EnvPrefix = "XMPTOOL_"

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Serialize: SerializeConfig{Encoding: "UTF-8"},
		Store:     StoreConfig{Path: ".xmpstore"},
		LogLevel:  "info",
	}
}

// Load reads ConfigFileName from dir. Keys missing from the file keep
// their Default values.
func Load(dir string) (*Config, error) {
	configPath := filepath.Join(dir, ConfigFileName)
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", configPath, err)
	}
	if _, err := xmp.ParseEncoding(cfg.Serialize.Encoding); err != nil {
		return nil, fmt.Errorf("%s: %w", configPath, err)
	}
	return cfg, nil
}

// ApplyEnv overrides the store path and log level from XMPTOOL_STORE and
// XMPTOOL_LOG_LEVEL. A .env file in dir supplies variables the process
// environment does not set.
func (c *Config) ApplyEnv(dir string) error {
	fileEnv, err := godotenv.Read(filepath.Join(dir, ".env"))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to read .env: %w", err)
	}
	lookup := func(name string) string {
		if v, ok := os.LookupEnv(EnvPrefix + name); ok {
			return v
		}
		return fileEnv[EnvPrefix+name]
	}

	if v := lookup("STORE"); v != "" {
		c.Store.Path = v
	}
	if v := lookup("LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	return nil
}

// Save writes cfg as ConfigFileName into dir.
func Save(dir string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, ConfigFileName), data, 0o644)
}

// ParseOptions converts the parse section into parser options.
func (c *Config) ParseOptions() *xmp.ParseOptions {
	return &xmp.ParseOptions{
		RequireXMPMeta:    c.Parse.RequireXMPMeta,
		StrictAliasing:    c.Parse.StrictAliasing,
		OmitNormalization: c.Parse.OmitNormalization,
		AcceptLatin1:      c.Parse.AcceptLatin1,
		FixControlChars:   c.Parse.FixControlChars,
	}
}

// SerializeOptions converts the serialize section into serializer options.
func (c *Config) SerializeOptions() (*xmp.SerializeOptions, error) {
	enc, err := xmp.ParseEncoding(c.Serialize.Encoding)
	if err != nil {
		return nil, err
	}
	return &xmp.SerializeOptions{
		UseCompactFormat:  c.Serialize.Compact,
		OmitPacketWrapper: c.Serialize.OmitPacketWrapper,
		ReadOnlyPacket:    c.Serialize.ReadOnly,
		Sort:              c.Serialize.Sort,
		Encoding:          enc,
		Padding:           c.Serialize.Padding,
		Indent:            c.Serialize.Indent,
		Newline:           c.Serialize.Newline,
	}, nil
}
