package config

import (
	"strings"
	"testing"

	"github.com/spf13/pflag"
)

func newFlagSet(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	AddFlags(fs)
	if err := fs.Parse(args); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	return fs
}

// clearEnv blanks all recognized environment variables for the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{envEmitterURL, envSyslogRFC, envUseExecPID, envPIDFile} {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(newFlagSet(t, "--emitter-url", "udp://localhost:514"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.EmitterURL != "udp://localhost:514" {
		t.Errorf("EmitterURL = %q", cfg.EmitterURL)
	}
	if cfg.RFC3164 {
		t.Error("RFC3164 should default to false")
	}
	if !cfg.UseExecPID {
		t.Error("UseExecPID should default to true")
	}
	if cfg.PIDFile != "" {
		t.Errorf("PIDFile = %q, want empty", cfg.PIDFile)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want info", cfg.LogLevel)
	}
}

func TestLoadMissingDestination(t *testing.T) {
	clearEnv(t)

	_, err := Load(newFlagSet(t))
	if err == nil {
		t.Fatal("Load succeeded without a destination")
	}
	if !strings.Contains(err.Error(), "emitter-url") {
		t.Errorf("error should name the missing flag: %v", err)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv(envEmitterURL, "tcp://syslog:514")
	t.Setenv(envSyslogRFC, "3164")
	t.Setenv(envUseExecPID, "false")
	t.Setenv(envPIDFile, "/run/logrelay.pid")

	cfg, err := Load(newFlagSet(t))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.EmitterURL != "tcp://syslog:514" {
		t.Errorf("EmitterURL = %q", cfg.EmitterURL)
	}
	if !cfg.RFC3164 {
		t.Error("SYSLOG_RFC=3164 should select the legacy format")
	}
	if cfg.UseExecPID {
		t.Error("USE_EXEC_PID=false should disable exec name resolution")
	}
	if cfg.PIDFile != "/run/logrelay.pid" {
		t.Errorf("PIDFile = %q", cfg.PIDFile)
	}
}

func TestLoadFlagsBeatEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv(envEmitterURL, "tcp://from-env:514")
	t.Setenv(envSyslogRFC, "3164")

	cfg, err := Load(newFlagSet(t,
		"--emitter-url", "udp://from-flag:514",
		"--syslog-rfc", "5424",
	))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.EmitterURL != "udp://from-flag:514" {
		t.Errorf("EmitterURL = %q, flag should win over environment", cfg.EmitterURL)
	}
	if cfg.RFC3164 {
		t.Error("explicit --syslog-rfc 5424 should win over SYSLOG_RFC=3164")
	}
}

func TestLoadSyslogRFCValues(t *testing.T) {
	clearEnv(t)

	for _, tt := range []struct {
		value string
		want  bool
	}{
		{"3164", true},
		{"5424", false},
		{"", false},
		{"anything", false},
	} {
		fs := newFlagSet(t, "--emitter-url", "udp://h:1")
		if tt.value != "" {
			fs = newFlagSet(t, "--emitter-url", "udp://h:1", "--syslog-rfc", tt.value)
		}
		cfg, err := Load(fs)
		if err != nil {
			t.Fatalf("Load(%q): %v", tt.value, err)
		}
		if cfg.RFC3164 != tt.want {
			t.Errorf("syslog-rfc %q: RFC3164 = %v, want %v", tt.value, cfg.RFC3164, tt.want)
		}
	}
}

func TestBoolString(t *testing.T) {
	trues := []string{"true", "TRUE", "t", "1", "yes", "Y", "on", " on ", "On"}
	for _, s := range trues {
		if !BoolString(s) {
			t.Errorf("BoolString(%q) = false, want true", s)
		}
	}

	falses := []string{"false", "0", "no", "off", "", "enabled", "2", "truth"}
	for _, s := range falses {
		if BoolString(s) {
			t.Errorf("BoolString(%q) = true, want false", s)
		}
	}
}
