package config

import (
	"os"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type Client struct {
	ServerURL    string        `yaml:"server_url"`
	HTTPTimeout  time.Duration `yaml:"http_timeout"`
	DBPath       string        `yaml:"db_path"`
	TickInterval time.Duration `yaml:"tick_interval"`
}

type Backend struct {
	Addr           string        `yaml:"addr"`
	DBPath         string        `yaml:"db_path"`
	JWTSecret      string        `yaml:"jwt_secret"`
	TokenTTL       time.Duration `yaml:"token_ttl"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
}

type Config struct {
	Client  Client  `yaml:"client"`
	Backend Backend `yaml:"backend"`
}

func Default() Config {
	return Config{
		Client: Client{
			ServerURL:    "http://127.0.0.1:8080",
			HTTPTimeout:  5 * time.Second,
			DBPath:       "quiz-client.db",
			TickInterval: time.Second,
		},
		Backend: Backend{
			Addr:           ":8080",
			DBPath:         "quiz.db",
			TokenTTL:       8 * time.Hour,
			AllowedOrigins: []string{"*"},
		},
	}
}

// Load reads the YAML file at path over the defaults, then applies QUIZ_*
// environment overrides. An empty path skips the file.
func Load(path string) (Config, error) {
	return load(path, os.LookupEnv)
}

func load(path string, lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()

	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return Config{}, errors.Wrapf(err, "failed to open config %s", path)
		}
		defer f.Close()

		decoder := yaml.NewDecoder(f)
		decoder.KnownFields(true)
		if err := decoder.Decode(&cfg); err != nil {
			return Config{}, errors.Wrapf(err, "failed to decode config %s", path)
		}
	}

	if err := applyEnv(&cfg, lookup); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	var result *multierror.Error

	str := func(name string, dest *string) {
		if value, ok := lookup(name); ok && strings.TrimSpace(value) != "" {
			*dest = strings.TrimSpace(value)
		}
	}
	duration := func(name string, dest *time.Duration) {
		value, ok := lookup(name)
		if !ok || strings.TrimSpace(value) == "" {
			return
		}
		parsed, err := time.ParseDuration(strings.TrimSpace(value))
		if err != nil {
			result = multierror.Append(result, errors.Wrapf(err, "invalid %s", name))
			return
		}
		*dest = parsed
	}

	str("QUIZ_SERVER_URL", &cfg.Client.ServerURL)
	duration("QUIZ_HTTP_TIMEOUT", &cfg.Client.HTTPTimeout)
	str("QUIZ_CLIENT_DB", &cfg.Client.DBPath)
	duration("QUIZ_TICK_INTERVAL", &cfg.Client.TickInterval)

	str("ADDR", &cfg.Backend.Addr)
	str("QUIZ_ADDR", &cfg.Backend.Addr)
	str("QUIZ_BACKEND_DB", &cfg.Backend.DBPath)
	str("QUIZ_JWT_SECRET", &cfg.Backend.JWTSecret)
	duration("QUIZ_TOKEN_TTL", &cfg.Backend.TokenTTL)
	if value, ok := lookup("QUIZ_ALLOWED_ORIGINS"); ok && strings.TrimSpace(value) != "" {
		origins := make([]string, 0)
		for _, origin := range strings.Split(value, ",") {
			if trimmed := strings.TrimSpace(origin); trimmed != "" {
				origins = append(origins, trimmed)
			}
		}
		cfg.Backend.AllowedOrigins = origins
	}

	return result.ErrorOrNil()
}
