package speed

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config is the speedd configuration, loaded from a TOML file.
type Config struct {
	Speed   SpeedConfig   `toml:"speed"`
	Metrics MetricsConfig `toml:"metrics"`
}

type SpeedConfig struct {
	// ListenAddr is the TCP address the server accepts clients on.
	ListenAddr string `toml:"listen_addr"`
	// PollInterval is the violation engine's scan period.
	PollInterval Duration `toml:"poll_interval"`
}

type MetricsConfig struct {
	// ListenAddr is the HTTP address serving Prometheus metrics. Empty
	// disables the metrics listener.
	ListenAddr string `toml:"listen_addr"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	return Config{
		Speed: SpeedConfig{
			ListenAddr:   ":8080",
			PollInterval: Duration(DefaultPollInterval),
		},
	}
}

// LoadConfig reads a TOML config file, applying defaults for absent keys.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config: %w", err)
	}
	if err := toml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// Duration decodes TOML strings like "100ms" into a time.Duration.
type Duration time.Duration

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}
