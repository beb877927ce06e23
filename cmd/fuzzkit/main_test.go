package main

import (
	"testing"

	log "github.com/sirupsen/logrus"

	"github.com/fuzzkit/fuzzkit/pkg/config"
)

// TestLogLevelFromVerbosity verifies the -v/-q flags map onto the
// config levels, with quiet overriding verbosity.
func TestLogLevelFromVerbosity(t *testing.T) {
	tests := []struct {
		verbose int
		quiet   bool
		want    config.LogLevel
	}{
		{0, false, config.LogWarn},
		{1, false, config.LogInfo},
		{2, false, config.LogDebug},
		{3, false, config.LogTrace},
		{0, true, config.LogQuiet},
		{2, true, config.LogQuiet},
	}

	for _, tc := range tests {
		if got := logLevelFromVerbosity(tc.verbose, tc.quiet); got != tc.want {
			t.Errorf("logLevelFromVerbosity(%d, %v) = %v, want %v", tc.verbose, tc.quiet, got, tc.want)
		}
	}
}

// TestSetupLoggingUsesConfiguredLevel verifies logging is driven by
// cfg.LogLevel rather than raw flag values.
func TestSetupLoggingUsesConfiguredLevel(t *testing.T) {
	defer log.SetLevel(log.GetLevel())

	tests := []struct {
		level config.LogLevel
		want  log.Level
	}{
		{config.LogQuiet, log.PanicLevel},
		{config.LogWarn, log.WarnLevel},
		{config.LogInfo, log.InfoLevel},
		{config.LogDebug, log.DebugLevel},
		{config.LogTrace, log.TraceLevel},
	}

	for _, tc := range tests {
		cfg := config.DefaultConfig()
		cfg.LogLevel = tc.level

		setupLogging(cfg)
		if got := log.GetLevel(); got != tc.want {
			t.Errorf("level %v: logrus level = %v, want %v", tc.level, got, tc.want)
		}
	}
}
