// Package config holds the process-wide configuration, read once at startup
// from command-line flags with environment variable fallbacks. The resulting
// Config is immutable and passed by value into every component that needs it;
// nothing here is read again after startup.
package config

import (
	"errors"
	"os"
	"strings"

	"github.com/spf13/pflag"
)

// Environment variables honored when the corresponding flag is unset.
const (
	envEmitterURL = "EMITTER_URL"
	envSyslogRFC  = "SYSLOG_RFC"
	envUseExecPID = "USE_EXEC_PID"
	envPIDFile    = "PIDFILE"
)

// Config is the fixed process configuration.
type Config struct {
	// EmitterURL is the destination address (tcp://, udp:// or file://).
	// Required; startup fails without it.
	EmitterURL string
	// RFC3164 selects the legacy BSD record format instead of RFC 5424.
	RFC3164 bool
	// UseExecPID enables resolving the app name from the container's
	// running executable via /proc.
	UseExecPID bool
	// PIDFile is an optional path to write the daemon's pid to.
	PIDFile string
	// DockerHost overrides the Docker daemon address.
	DockerHost string
	// LogLevel is the slog level name for the daemon's own diagnostics.
	LogLevel string
}

// AddFlags registers the configuration flags on fs.
func AddFlags(fs *pflag.FlagSet) {
	fs.String("emitter-url", "", "destination for forwarded logs (tcp://host:port, udp://host:port, file://path) [$"+envEmitterURL+"]")
	fs.String("syslog-rfc", "", "syslog format variant, \"3164\" for the legacy format (default RFC 5424) [$"+envSyslogRFC+"]")
	fs.String("use-exec-pid", "", "resolve app names from the container's running executable (default true) [$"+envUseExecPID+"]")
	fs.String("pidfile", "", "write the daemon pid to this file [$"+envPIDFile+"]")
	fs.String("docker-host", "", "Docker daemon address (default from environment)")
	fs.String("log-level", "info", "diagnostic log level: debug, info, warn, error")
}

// Load builds a Config from flags and the environment. The destination
// address is the one required value.
func Load(fs *pflag.FlagSet) (Config, error) {
	cfg := Config{
		EmitterURL: flagOrEnv(fs, "emitter-url", envEmitterURL),
		PIDFile:    flagOrEnv(fs, "pidfile", envPIDFile),
		RFC3164:    flagOrEnv(fs, "syslog-rfc", envSyslogRFC) == "3164",
		UseExecPID: true,
	}
	if v := flagOrEnv(fs, "use-exec-pid", envUseExecPID); v != "" {
		cfg.UseExecPID = BoolString(v)
	}
	cfg.DockerHost, _ = fs.GetString("docker-host")
	cfg.LogLevel, _ = fs.GetString("log-level")

	if cfg.EmitterURL == "" {
		return Config{}, errors.New("no destination configured: set --emitter-url or " + envEmitterURL)
	}
	return cfg, nil
}

func flagOrEnv(fs *pflag.FlagSet, flag, env string) string {
	if v, _ := fs.GetString(flag); v != "" {
		return v
	}
	return os.Getenv(env)
}

// BoolString interprets a boolean-ish configuration or label value.
// Recognized true values: true, t, 1, yes, y, on (case-insensitive,
// trimmed). Everything else is false.
func BoolString(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "t", "1", "yes", "y", "on":
		return true
	}
	return false
}
