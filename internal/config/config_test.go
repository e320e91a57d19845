package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/usestring/reqmin/pkg/rawhttp"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, 10*time.Second, cfg.RequestTimeout)
	assert.Equal(t, time.Duration(0), cfg.RunTimeout)
	assert.Equal(t, 10<<20, cfg.MaxResponseBytes)
	assert.Equal(t, DefaultMaxConcurrentRuns, cfg.MaxConcurrentRuns)
	assert.Equal(t, DefaultTaskHistorySize, cfg.TaskHistorySize)
	assert.Equal(t, []string{"last_modified_header"}, cfg.IgnoreAttributes)
	assert.Equal(t, []rawhttp.ParamKind{rawhttp.ParamURL, rawhttp.ParamBody, rawhttp.ParamCookie}, cfg.RemovableParamKinds)
	assert.True(t, cfg.ContinueOnTransportError)
	assert.True(t, cfg.InsecureSkipVerify)
	assert.Equal(t, 4, cfg.JSONIndent)
	assert.Equal(t, "http://localhost:7777", cfg.PowHTTPBaseURL)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("REQUEST_TIMEOUT_MS", "2500")
	t.Setenv("RUN_TIMEOUT_MS", "60000")
	t.Setenv("MAX_CONCURRENT_RUNS", "1")
	t.Setenv("IGNORE_ATTRIBUTES", "etag_header, last_modified_header,,")
	t.Setenv("REMOVABLE_PARAM_KINDS", "url,COOKIE,bogus")
	t.Setenv("CONTINUE_ON_TRANSPORT_ERROR", "false")
	t.Setenv("JSON_INDENT", "2")
	t.Setenv("LOG_COMPRESS", "off")

	cfg := Load()

	assert.Equal(t, 2500*time.Millisecond, cfg.RequestTimeout)
	assert.Equal(t, time.Minute, cfg.RunTimeout)
	assert.Equal(t, 1, cfg.MaxConcurrentRuns)
	assert.Equal(t, []string{"etag_header", "last_modified_header"}, cfg.IgnoreAttributes)
	assert.Equal(t, []rawhttp.ParamKind{rawhttp.ParamURL, rawhttp.ParamCookie}, cfg.RemovableParamKinds)
	assert.False(t, cfg.ContinueOnTransportError)
	assert.Equal(t, 2, cfg.JSONIndent)
	assert.False(t, cfg.LogCompress)
}

func TestLoad_NoneClearsList(t *testing.T) {
	t.Setenv("IGNORE_ATTRIBUTES", "none")
	t.Setenv("REMOVABLE_PARAM_KINDS", "none")

	cfg := Load()
	assert.Empty(t, cfg.IgnoreAttributes)
	assert.NotNil(t, cfg.IgnoreAttributes, "an empty list disables the default")
	assert.Empty(t, cfg.RemovableParamKinds)

	opts := cfg.PipelineOptions()
	assert.NotNil(t, opts.IgnoreAttributes)
	assert.NotNil(t, opts.RemovableKinds)
}

func TestLoad_InvalidNumbersFallBack(t *testing.T) {
	t.Setenv("MAX_CONCURRENT_RUNS", "many")
	assert.Equal(t, DefaultMaxConcurrentRuns, Load().MaxConcurrentRuns)
}

func TestPipelineOptions(t *testing.T) {
	t.Setenv("CONTINUE_ON_TRANSPORT_ERROR", "0")
	opts := Load().PipelineOptions()

	assert.True(t, opts.AbortOnTransportError)
	assert.Equal(t, []string{"last_modified_header"}, opts.IgnoreAttributes)
	assert.Equal(t, 4, opts.JSONIndent)
	assert.Len(t, Load().ClientOptions(), 3)
}
