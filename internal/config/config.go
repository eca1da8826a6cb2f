package config

import (
	"bytes"
	"fmt"
	"net"
	neturl "net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigPath is used when --config is not provided.
	DefaultConfigPath = "config.yml"
	defaultPort       = 2333
	defaultEnv        = "development"
	defaultDBHost     = "127.0.0.1"
	defaultDBPort     = 3306
	defaultDBUser     = "root"
	defaultDBPassword = "password"
	defaultDBName     = "wisdow_meeting"
	defaultDBCharset  = "utf8mb4"
	defaultDBLoc      = "Local"
	defaultRedisHost  = "localhost"
	defaultRedisPort  = 6379

	defaultGatewayModel     = "gemini-2.5-flash"
	defaultGatewayTimeout   = 5 * time.Minute
	defaultGatewayMaxTokens = 65536
)

// AppConfig holds runtime startup configuration loaded from YAML.
type AppConfig struct {
	Port           int                   `yaml:"port"`
	Env            string                `yaml:"env"` // "development" | "production"
	DSN            string                `yaml:"dsn"` // MySQL DSN, overrides database block
	Database       DatabaseRuntimeConfig `yaml:"database"`
	RedisURL       string                `yaml:"redis_url"`
	JWTSecret      string                `yaml:"jwt_secret"`
	AllowedOrigins []string              `yaml:"allowed_origins"`
	Gateway        GatewayConfig         `yaml:"gateway"`
}

type DatabaseRuntimeConfig struct {
	DSN      string `yaml:"dsn"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	Charset  string `yaml:"charset"`
	Loc      string `yaml:"loc"`
}

// GatewayConfig is the completion-service deployment configuration.
// This is the only externally visible AI configuration: endpoint,
// credential, and model identifier are never user input.
type GatewayConfig struct {
	Endpoint       string `yaml:"endpoint"`
	APIKey         string `yaml:"api_key"`
	Model          string `yaml:"model"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	MaxTokens      int    `yaml:"max_tokens"`
}

// RequestTimeout is the hard wall-clock bound on a single gateway call.
func (c GatewayConfig) RequestTimeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return defaultGatewayTimeout
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

func Load(configPath string) (*AppConfig, error) {
	path := strings.TrimSpace(configPath)
	if path == "" {
		path = DefaultConfigPath
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file %q: %w", path, err)
	}

	cfg := defaultAppConfig()
	decoder := yaml.NewDecoder(bytes.NewReader(content))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parse config file %q: %w", path, err)
	}
	normalize(&cfg)

	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("invalid port %d in %q, expected 1-65535", cfg.Port, path)
	}
	if cfg.Gateway.Endpoint == "" {
		return nil, fmt.Errorf("gateway.endpoint is required in %q", path)
	}
	if cfg.Gateway.APIKey == "" {
		return nil, fmt.Errorf("gateway.api_key is required in %q", path)
	}

	return &cfg, nil
}

func defaultAppConfig() AppConfig {
	return AppConfig{
		Port: defaultPort,
		Env:  defaultEnv,
		Database: DatabaseRuntimeConfig{
			Host:     defaultDBHost,
			Port:     defaultDBPort,
			User:     defaultDBUser,
			Password: defaultDBPassword,
			Name:     defaultDBName,
			Charset:  defaultDBCharset,
			Loc:      defaultDBLoc,
		},
		Gateway: GatewayConfig{
			Model:     defaultGatewayModel,
			MaxTokens: defaultGatewayMaxTokens,
		},
	}
}

func normalize(cfg *AppConfig) {
	cfg.Env = strings.ToLower(strings.TrimSpace(cfg.Env))
	if cfg.Env == "" {
		cfg.Env = defaultEnv
	}
	cfg.JWTSecret = strings.TrimSpace(cfg.JWTSecret)

	origins := make([]string, 0, len(cfg.AllowedOrigins))
	for _, origin := range cfg.AllowedOrigins {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	cfg.AllowedOrigins = origins

	if v := strings.TrimSpace(cfg.DSN); v != "" {
		cfg.Database.DSN = v
	}
	cfg.DSN = cfg.Database.DSNValue()
	cfg.RedisURL = normalizeRedisURL(cfg.RedisURL)

	cfg.Gateway.Endpoint = strings.TrimRight(strings.TrimSpace(cfg.Gateway.Endpoint), "/")
	cfg.Gateway.APIKey = strings.TrimSpace(cfg.Gateway.APIKey)
	cfg.Gateway.Model = strings.TrimSpace(cfg.Gateway.Model)
	if cfg.Gateway.Model == "" {
		cfg.Gateway.Model = defaultGatewayModel
	}
	if cfg.Gateway.MaxTokens <= 0 {
		cfg.Gateway.MaxTokens = defaultGatewayMaxTokens
	}
}

func normalizeRedisURL(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return fmt.Sprintf("redis://%s", net.JoinHostPort(defaultRedisHost, strconv.Itoa(defaultRedisPort)))
	}
	if strings.HasPrefix(trimmed, "redis://") || strings.HasPrefix(trimmed, "rediss://") {
		return trimmed
	}
	return "redis://" + trimmed
}

func (c DatabaseRuntimeConfig) DSNValue() string {
	if v := strings.TrimSpace(c.DSN); v != "" {
		return v
	}

	host := strings.TrimSpace(c.Host)
	if host == "" {
		host = defaultDBHost
	}
	port := c.Port
	if port == 0 {
		port = defaultDBPort
	}
	user := strings.TrimSpace(c.User)
	if user == "" {
		user = defaultDBUser
	}
	password := c.Password
	name := strings.TrimSpace(c.Name)
	if name == "" {
		name = defaultDBName
	}
	charset := strings.TrimSpace(c.Charset)
	if charset == "" {
		charset = defaultDBCharset
	}
	loc := strings.TrimSpace(c.Loc)
	if loc == "" {
		loc = defaultDBLoc
	}

	params := neturl.Values{}
	params.Set("charset", charset)
	params.Set("parseTime", "true")
	params.Set("loc", loc)

	auth := user
	if password != "" {
		auth += ":" + password
	}

	return fmt.Sprintf("%s@tcp(%s)/%s?%s",
		auth, net.JoinHostPort(host, strconv.Itoa(port)), name, params.Encode())
}

func (c *AppConfig) IsDev() bool {
	return strings.EqualFold(c.Env, defaultEnv)
}
