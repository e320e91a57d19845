// Package config provides configuration loading from environment variables.
package config

import (
	"log/slog"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/usestring/reqmin/internal/compare"
	"github.com/usestring/reqmin/internal/pipeline"
	"github.com/usestring/reqmin/pkg/client"
	"github.com/usestring/reqmin/pkg/rawhttp"
)

// Defaults
const (
	DefaultMaxConcurrentRuns = 4
	DefaultTaskHistorySize   = 256
	DefaultEntryCacheItems   = 128
)

// Config holds all configuration for the MCP server.
type Config struct {
	RequestTimeout           time.Duration       // REQUEST_TIMEOUT_MS, default 10000ms
	RunTimeout               time.Duration       // RUN_TIMEOUT_MS, default 0 (no deadline)
	MaxResponseBytes         int                 // MAX_RESPONSE_BYTES, default 10 MiB
	MaxConcurrentRuns        int                 // MAX_CONCURRENT_RUNS, default 4
	TaskHistorySize          int                 // TASK_HISTORY_SIZE, default 256
	IgnoreAttributes         []string            // IGNORE_ATTRIBUTES, default "last_modified_header"
	RemovableParamKinds      []rawhttp.ParamKind // REMOVABLE_PARAM_KINDS, default "url,body,cookie"
	ContinueOnTransportError bool                // CONTINUE_ON_TRANSPORT_ERROR, default true
	InsecureSkipVerify       bool                // INSECURE_SKIP_VERIFY, default true
	JSONIndent               int                 // JSON_INDENT, default 4
	PowHTTPBaseURL           string              // POWHTTP_BASE_URL, default "http://localhost:7777"
	EntryCacheMaxItems       int                 // ENTRY_CACHE_MAX_ITEMS, default 128

	// Logging configuration
	LogLevel      string // LOG_LEVEL, default "info"
	LogFile       string // LOG_FILE, default "" (stderr only)
	LogMaxSizeMB  int    // LOG_MAX_SIZE_MB, default 10
	LogMaxBackups int    // LOG_MAX_BACKUPS, default 5
	LogMaxAgeDays int    // LOG_MAX_AGE_DAYS, default 28
	LogCompress   bool   // LOG_COMPRESS, default true
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	return &Config{
		RequestTimeout:           getEnvDurationMs("REQUEST_TIMEOUT_MS", int(client.DefaultTimeout/time.Millisecond)),
		RunTimeout:               getEnvDurationMs("RUN_TIMEOUT_MS", 0),
		MaxResponseBytes:         getEnvInt("MAX_RESPONSE_BYTES", client.DefaultMaxResponseBytes),
		MaxConcurrentRuns:        getEnvInt("MAX_CONCURRENT_RUNS", DefaultMaxConcurrentRuns),
		TaskHistorySize:          getEnvInt("TASK_HISTORY_SIZE", DefaultTaskHistorySize),
		IgnoreAttributes:         getEnvList("IGNORE_ATTRIBUTES", compare.DefaultIgnoreAttributes),
		RemovableParamKinds:      getEnvParamKinds("REMOVABLE_PARAM_KINDS", pipeline.DefaultRemovableKinds),
		ContinueOnTransportError: getEnvBool("CONTINUE_ON_TRANSPORT_ERROR", true),
		InsecureSkipVerify:       getEnvBool("INSECURE_SKIP_VERIFY", true),
		JSONIndent:               getEnvInt("JSON_INDENT", pipeline.DefaultJSONIndent),
		PowHTTPBaseURL:           getEnvString("POWHTTP_BASE_URL", "http://localhost:7777"),
		EntryCacheMaxItems:       getEnvInt("ENTRY_CACHE_MAX_ITEMS", DefaultEntryCacheItems),

		LogLevel:      getEnvString("LOG_LEVEL", "info"),
		LogFile:       getEnvString("LOG_FILE", ""),
		LogMaxSizeMB:  getEnvInt("LOG_MAX_SIZE_MB", 10),
		LogMaxBackups: getEnvInt("LOG_MAX_BACKUPS", 5),
		LogMaxAgeDays: getEnvInt("LOG_MAX_AGE_DAYS", 28),
		LogCompress:   getEnvBool("LOG_COMPRESS", true),
	}
}

// PipelineOptions returns the run options shared by every minimization.
// Per-run fields (markers, body schema, callbacks) are left to the caller.
func (c *Config) PipelineOptions() pipeline.Options {
	return pipeline.Options{
		IgnoreAttributes:      slices.Clone(c.IgnoreAttributes),
		RemovableKinds:        slices.Clone(c.RemovableParamKinds),
		AbortOnTransportError: !c.ContinueOnTransportError,
		JSONIndent:            c.JSONIndent,
	}
}

// ClientOptions returns the raw transport options.
func (c *Config) ClientOptions() []client.Option {
	return []client.Option{
		client.WithTimeout(c.RequestTimeout),
		client.WithMaxResponseBytes(int64(c.MaxResponseBytes)),
		client.WithInsecureSkipVerify(c.InsecureSkipVerify),
	}
}

func getEnvBool(key string, defaultVal bool) bool {
	if v := os.Getenv(key); v != "" {
		switch v {
		case "1", "true", "yes", "on":
			return true
		case "0", "false", "no", "off":
			return false
		}
	}
	return defaultVal
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvDurationMs(key string, defaultMs int) time.Duration {
	ms := getEnvInt(key, defaultMs)
	return time.Duration(ms) * time.Millisecond
}

// getEnvList splits a comma list. A variable set to "none" yields an empty
// list.
func getEnvList(key string, defaultVal []string) []string {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return append([]string(nil), defaultVal...)
	}
	out := []string{}
	if strings.EqualFold(strings.TrimSpace(v), "none") {
		return out
	}
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getEnvParamKinds(key string, defaultVal []rawhttp.ParamKind) []rawhttp.ParamKind {
	names := getEnvList(key, nil)
	if names == nil {
		return append([]rawhttp.ParamKind(nil), defaultVal...)
	}
	kinds := make([]rawhttp.ParamKind, 0, len(names))
	for _, n := range names {
		k, err := rawhttp.ParseParamKind(n)
		if err != nil {
			slog.Warn("ignoring parameter kind", "variable", key, "error", err)
			continue
		}
		kinds = append(kinds, k)
	}
	return kinds
}
