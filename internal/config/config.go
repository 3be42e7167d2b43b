// Package config loads the service settings from configs/config.yml and
// GARAGE_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	_ "time/tzdata" // zone database for hosts without /usr/share/zoneinfo

	"garage_door/internal/logger"

	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"
)

const (
	EnvPrefix      = "GARAGE"
	configName     = "config"
	DriverPeriph   = "periph"
	DriverSim      = "simulator"
	StoreSQLite    = "sqlite"
	StoreYAML      = "yaml"
	maxBCMPin      = 27
	defaultPort    = "8888"
	defaultDBPath  = "garage.db"
	defaultAuthKey = "/run/secrets/garage_auth_key"
)

// SearchPaths are tried in order when no explicit config file is given.
var SearchPaths = []string{"configs", "/etc/garage-door"}

var (
	// ErrNoAuthKey is returned when no shared key is configured; the command surface refuses to run open.
	ErrNoAuthKey = errors.New("no auth key configured")
	ErrInvalid   = errors.New("invalid config")
)

type TLS struct {
	CertFile string `mapstructure:"cert_file"`
	KeyFile  string `mapstructure:"key_file"`
}

// Enabled reports whether both halves of the key pair are set.
func (t TLS) Enabled() bool { return t.CertFile != "" && t.KeyFile != "" }

type Auth struct {
	Key     string `mapstructure:"key"`
	KeyFile string `mapstructure:"key_file"`
}

type GPIO struct {
	Driver     string        `mapstructure:"driver"`
	SensorPin  int           `mapstructure:"sensor_pin"`
	RelayPin   int           `mapstructure:"relay_pin"`
	TravelTime time.Duration `mapstructure:"travel_time"`
}

type Store struct {
	Driver string `mapstructure:"driver"`
	Path   string `mapstructure:"path"`
}

type FCM struct {
	Enabled bool   `mapstructure:"enabled"`
	URL     string `mapstructure:"url"`
	Key     string `mapstructure:"key"`
	KeyFile string `mapstructure:"key_file"`
}

type MQTT struct {
	Enabled  bool   `mapstructure:"enabled"`
	Broker   string `mapstructure:"broker"`
	ClientID string `mapstructure:"client_id"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Topic    string `mapstructure:"topic"`
}

type Breaker struct {
	Failures int           `mapstructure:"failures"`
	OpenFor  time.Duration `mapstructure:"open_for"`
}

type Notify struct {
	QueueSize int           `mapstructure:"queue_size"`
	Timeout   time.Duration `mapstructure:"timeout"`
	FCM       FCM           `mapstructure:"fcm"`
	MQTT      MQTT          `mapstructure:"mqtt"`
	Breaker   Breaker       `mapstructure:"breaker"`
}

type Relay struct {
	Hold time.Duration `mapstructure:"hold"`
}

type Commands struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

// Config is the resolved service configuration. Secrets read from files
// are folded into Auth.Key and Notify.FCM.Key.
type Config struct {
	Name     string        `mapstructure:"name"`
	Port     string        `mapstructure:"port"`
	LogLevel string        `mapstructure:"log_level"`
	Timezone string        `mapstructure:"timezone"`
	TLS      TLS           `mapstructure:"tls"`
	Auth     Auth          `mapstructure:"auth"`
	Tick     time.Duration `mapstructure:"tick"`
	Relay    Relay         `mapstructure:"relay"`
	Commands Commands      `mapstructure:"commands"`
	GPIO     GPIO          `mapstructure:"gpio"`
	Store    Store         `mapstructure:"store"`
	Notify   Notify        `mapstructure:"notify"`

	// Location is Timezone resolved.
	Location *time.Location `mapstructure:"-"`
	// File is the config file that was read, empty when running on defaults.
	File string `mapstructure:"-"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("name", "garage door")
	v.SetDefault("port", defaultPort)
	v.SetDefault("log_level", logger.InfoLevel)
	v.SetDefault("timezone", "")
	v.SetDefault("tls.cert_file", "")
	v.SetDefault("tls.key_file", "")
	v.SetDefault("auth.key", "")
	v.SetDefault("auth.key_file", defaultAuthKey)
	v.SetDefault("tick", time.Second)
	v.SetDefault("relay.hold", 2*time.Second)
	v.SetDefault("commands.timeout", 10*time.Second)
	v.SetDefault("gpio.driver", DriverPeriph)
	v.SetDefault("gpio.sensor_pin", 4)
	v.SetDefault("gpio.relay_pin", 7)
	v.SetDefault("gpio.travel_time", 12*time.Second)
	v.SetDefault("store.driver", StoreSQLite)
	v.SetDefault("store.path", defaultDBPath)
	v.SetDefault("notify.queue_size", 16)
	v.SetDefault("notify.timeout", 10*time.Second)
	v.SetDefault("notify.fcm.enabled", false)
	v.SetDefault("notify.fcm.url", "https://fcm.googleapis.com/fcm/send")
	v.SetDefault("notify.fcm.key", "")
	v.SetDefault("notify.fcm.key_file", "")
	v.SetDefault("notify.mqtt.enabled", false)
	v.SetDefault("notify.mqtt.broker", "tcp://localhost:1883")
	v.SetDefault("notify.mqtt.client_id", "garage-door")
	v.SetDefault("notify.mqtt.user", "")
	v.SetDefault("notify.mqtt.password", "")
	v.SetDefault("notify.mqtt.topic", "garage/door")
	v.SetDefault("notify.breaker.failures", 3)
	v.SetDefault("notify.breaker.open_for", time.Minute)
}

// Load reads the config file at path, or searches SearchPaths for
// config.yml when path is empty. A missing file in the search paths is not
// an error; an explicit path that cannot be read is.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(configName)
		v.SetConfigType("yaml")
		for _, p := range SearchPaths {
			v.AddConfigPath(p)
		}
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.File = v.ConfigFileUsed()

	if err := cfg.resolveSecrets(); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// resolveSecrets prefers inline values and falls back to the key files.
func (c *Config) resolveSecrets() error {
	if c.Auth.Key == "" && c.Auth.KeyFile != "" {
		key, err := readSecret(c.Auth.KeyFile)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("read auth key: %w", err)
		}
		c.Auth.Key = key
	}
	if c.Notify.FCM.Key == "" && c.Notify.FCM.KeyFile != "" {
		key, err := readSecret(c.Notify.FCM.KeyFile)
		if err != nil {
			return fmt.Errorf("read fcm key: %w", err)
		}
		c.Notify.FCM.Key = key
	}
	return nil
}

func readSecret(path string) (string, error) {
	b, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}

func (c *Config) validate() error {
	if c.Auth.Key == "" {
		return ErrNoAuthKey
	}

	level, ok := logger.ParseLevel(c.LogLevel)
	if !ok {
		return fmt.Errorf("%w: log_level %q", ErrInvalid, c.LogLevel)
	}
	c.LogLevel = level

	if c.Timezone == "" {
		c.Location = time.Local
	} else {
		loc, err := time.LoadLocation(c.Timezone)
		if err != nil {
			return fmt.Errorf("%w: timezone %q: %v", ErrInvalid, c.Timezone, err)
		}
		c.Location = loc
	}

	if (c.TLS.CertFile == "") != (c.TLS.KeyFile == "") {
		return fmt.Errorf("%w: tls needs both cert_file and key_file", ErrInvalid)
	}

	switch c.GPIO.Driver {
	case DriverPeriph, DriverSim:
	default:
		return fmt.Errorf("%w: gpio.driver %q (want %s or %s)", ErrInvalid, c.GPIO.Driver, DriverPeriph, DriverSim)
	}
	for name, pin := range map[string]int{"gpio.sensor_pin": c.GPIO.SensorPin, "gpio.relay_pin": c.GPIO.RelayPin} {
		if pin < 0 || pin > maxBCMPin {
			return fmt.Errorf("%w: %s %d out of range 0-%d", ErrInvalid, name, pin, maxBCMPin)
		}
	}
	if c.GPIO.SensorPin == c.GPIO.RelayPin {
		return fmt.Errorf("%w: sensor and relay share pin %d", ErrInvalid, c.GPIO.SensorPin)
	}

	switch c.Store.Driver {
	case StoreSQLite, StoreYAML:
	default:
		return fmt.Errorf("%w: store.driver %q (want %s or %s)", ErrInvalid, c.Store.Driver, StoreSQLite, StoreYAML)
	}
	if c.Store.Path == "" {
		return fmt.Errorf("%w: store.path is empty", ErrInvalid)
	}

	if c.Tick <= 0 || c.Commands.Timeout <= 0 {
		return fmt.Errorf("%w: tick and commands.timeout must be positive", ErrInvalid)
	}
	return nil
}

// HashAuthKey returns the bcrypt hash the transport compares requests
// against, so the plain key does not outlive startup.
func (c *Config) HashAuthKey() ([]byte, error) {
	if c.Auth.Key == "" {
		return nil, ErrNoAuthKey
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(c.Auth.Key), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash auth key: %w", err)
	}
	c.Auth.Key = ""
	return hash, nil
}
