// Package config merges configuration from flags, environment variables, and
// an optional config file, flags winning.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// RunConfig holds configuration values for the long-running service.
type RunConfig struct {
	RPCURL            string
	ContractAddress   string
	Topic0            []string
	EventNames        []string
	StartBlock        uint64
	PGDSN             string
	PollInterval      time.Duration
	HealthInterval    time.Duration
	LatencyThreshold  time.Duration
	EventLookback     uint64
	HTTPPort          int
	Checkpoint        string
	CheckpointEnabled bool
	MaxAttempts       int
	RetryBackoff      time.Duration
	Deadletter        string
	LogLevel          string
}

// LoadRun merges config file, environment variables, and flags into RunConfig.
func LoadRun(cfgFile string, flags *pflag.FlagSet) (RunConfig, error) {
	v, err := newViper(cfgFile, flags)
	if err != nil {
		return RunConfig{}, err
	}

	v.SetDefault("poll-interval", 15*time.Second)
	v.SetDefault("health-interval", time.Minute)
	v.SetDefault("latency-threshold", time.Second)
	v.SetDefault("event-lookback", uint64(5000))
	v.SetDefault("http-port", 8080)
	v.SetDefault("checkpoint", "./data/checkpoint.json")
	v.SetDefault("checkpoint-enabled", true)
	v.SetDefault("max-attempts", 3)
	v.SetDefault("retry-backoff", time.Second)
	v.SetDefault("log-level", "info")

	cfg := RunConfig{
		RPCURL:            v.GetString("rpc"),
		ContractAddress:   v.GetString("address"),
		Topic0:            getStringSlice(v, "topic0"),
		EventNames:        getStringSlice(v, "event-names"),
		StartBlock:        v.GetUint64("start-block"),
		PGDSN:             v.GetString("pg-dsn"),
		PollInterval:      v.GetDuration("poll-interval"),
		HealthInterval:    v.GetDuration("health-interval"),
		LatencyThreshold:  v.GetDuration("latency-threshold"),
		EventLookback:     v.GetUint64("event-lookback"),
		HTTPPort:          v.GetInt("http-port"),
		Checkpoint:        v.GetString("checkpoint"),
		CheckpointEnabled: v.GetBool("checkpoint-enabled"),
		MaxAttempts:       v.GetInt("max-attempts"),
		RetryBackoff:      v.GetDuration("retry-backoff"),
		Deadletter:        v.GetString("deadletter"),
		LogLevel:          v.GetString("log-level"),
	}

	return cfg, nil
}

// HealthConfig holds configuration for the one-shot health command.
type HealthConfig struct {
	RPCURL           string
	ContractAddress  string
	LatencyThreshold time.Duration
	EventLookback    uint64
	LogLevel         string
}

// LoadHealth merges config file, environment variables, and flags into
// HealthConfig.
func LoadHealth(cfgFile string, flags *pflag.FlagSet) (HealthConfig, error) {
	v, err := newViper(cfgFile, flags)
	if err != nil {
		return HealthConfig{}, err
	}

	v.SetDefault("latency-threshold", time.Second)
	v.SetDefault("event-lookback", uint64(5000))
	v.SetDefault("log-level", "info")

	cfg := HealthConfig{
		RPCURL:           v.GetString("rpc"),
		ContractAddress:  v.GetString("address"),
		LatencyThreshold: v.GetDuration("latency-threshold"),
		EventLookback:    v.GetUint64("event-lookback"),
		LogLevel:         v.GetString("log-level"),
	}

	return cfg, nil
}

func newViper(cfgFile string, flags *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix("INDEXER")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	return v, nil
}

// RedactDSN strips the password from a connection string for logging.
func RedactDSN(dsn string) string {
	parsed, err := url.Parse(dsn)
	if err != nil || parsed.User == nil {
		return dsn
	}
	if _, has := parsed.User.Password(); has {
		parsed.User = url.UserPassword(parsed.User.Username(), "xxxxx")
	}
	return parsed.String()
}

func getStringSlice(v *viper.Viper, key string) []string {
	if !v.IsSet(key) {
		return nil
	}

	val := v.Get(key)
	switch typed := val.(type) {
	case []string:
		return cleanStrings(typed)
	case string:
		return splitAndClean(typed)
	case []interface{}:
		items := make([]string, 0, len(typed))
		for _, item := range typed {
			items = append(items, fmt.Sprintf("%v", item))
		}
		return cleanStrings(items)
	default:
		return nil
	}
}

func splitAndClean(input string) []string {
	if input == "" {
		return nil
	}
	parts := strings.Split(input, ",")
	return cleanStrings(parts)
}

func cleanStrings(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}
