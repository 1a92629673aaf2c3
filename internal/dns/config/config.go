package config

import (
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// AppConfig holds configuration values parsed from environment variables,
// layered over DEFAULT_APP_CONFIG.
type AppConfig struct {
	// Env is the runtime environment, either "dev" or "prod".
	Env string `koanf:"env" validate:"required,oneof=dev prod"`

	Log LoggingConfig `koanf:"log" validate:"required"`

	Listen ListenConfig `koanf:"listen" validate:"required"`

	Resolver ResolverConfig `koanf:"resolver" validate:"required"`

	SelfAnswer SelfAnswerConfig `koanf:"selfanswer" validate:"required"`
}

type LoggingConfig struct {
	// Level defines the logging level: "debug", "info", "warn", or "error".
	Level string `koanf:"level" validate:"required,oneof=debug info warn error"`
}

type ListenConfig struct {
	// Address is the local UDP endpoint the server binds to.
	Address string `koanf:"address" validate:"required,ip_port"`

	// BufferSize is the maximum datagram size read from the listening
	// socket; classic DNS-over-UDP MTU.
	BufferSize int `koanf:"buffersize" validate:"required,gte=512"`
}

type ResolverConfig struct {
	// Default is the upstream DNS server used when the CLI doesn't
	// override it (ip:port format).
	Default string `koanf:"default" validate:"required,ip_port"`

	// TimeoutSeconds bounds each upstream receive, in seconds.
	TimeoutSeconds int `koanf:"timeoutseconds" validate:"required,gte=1"`
}

type SelfAnswerConfig struct {
	// IP is the address synthesized into self-answered A records.
	IP string `koanf:"ip" validate:"required,ip"`

	// TTL is the TTL stamped on synthesized A records.
	TTL int `koanf:"ttl" validate:"required,gte=0"`
}

// DEFAULT_APP_CONFIG holds the defaults layered under the environment, all
// of it overridable via DNS_-prefixed environment variables.
var DEFAULT_APP_CONFIG = AppConfig{
	Env: "prod",
	Log: LoggingConfig{
		Level: "info",
	},
	Listen: ListenConfig{
		Address:    "127.0.0.1:2053",
		BufferSize: 512,
	},
	Resolver: ResolverConfig{
		Default:        "8.8.8.8:53",
		TimeoutSeconds: 5,
	},
	SelfAnswer: SelfAnswerConfig{
		IP:  "76.76.21.21",
		TTL: 60,
	},
}

// validIPPort validates that a field is an "ip:port" pair with a valid IP
// and a port in range.
func validIPPort(fl validator.FieldLevel) bool {
	addr := fl.Field().String()
	ip, port, err := net.SplitHostPort(addr)
	if err != nil || ip == "" || port == "" {
		return false
	}
	if net.ParseIP(ip) == nil {
		return false
	}
	portNum, err := strconv.ParseUint(port, 10, 16)
	return err == nil && portNum > 0 && portNum < 65536
}

// envLoader loads environment variables prefixed DNS_, lowercased with the
// prefix stripped and underscores turned into koanf path separators.
var envLoader = func(k *koanf.Koanf) error {
	return k.Load(env.Provider(".", env.Opt{
		Prefix: "DNS_",
		TransformFunc: func(key, value string) (string, any) {
			key = strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(key, "DNS_")), "_", ".")
			return key, strings.TrimSpace(value)
		},
	}), nil)
}

// defaultLoader loads DEFAULT_APP_CONFIG as the base layer.
var defaultLoader = func(k *koanf.Koanf) error {
	return k.Load(structs.Provider(DEFAULT_APP_CONFIG, "koanf"), nil)
}

// registerValidation wires the custom ip_port tag into v.
var registerValidation = func(v *validator.Validate) error {
	return v.RegisterValidation("ip_port", validIPPort)
}

// Load builds an AppConfig from defaults layered with DNS_-prefixed
// environment variables, then validates it.
func Load() (*AppConfig, error) {
	k := koanf.New(".")

	if err := defaultLoader(k); err != nil {
		return nil, fmt.Errorf("error loading default config: %w", err)
	}

	if err := envLoader(k); err != nil {
		return nil, fmt.Errorf("error loading env: %w", err)
	}

	var cfg AppConfig
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := registerValidation(validate); err != nil {
		return nil, fmt.Errorf("error registering validation: %w", err)
	}

	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	return &cfg, nil
}
