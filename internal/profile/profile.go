package profile

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Profile is the configuration to start main server.
type Profile struct {
	// Mode can be "prod" or "dev" or "demo"
	Mode string
	// Addr is the binding address for server
	Addr string
	// Port is the binding port for server
	Port int
	// Data is the data directory
	Data string
	// DSN points to where notegraph stores its own data
	DSN string
	// Driver is the database driver (sqlite or postgres)
	Driver string
	// Version is the current version of server
	Version string
	// InstanceURL is the url of your notegraph instance.
	InstanceURL string

	// Secret signs session tokens.
	Secret string
	// SessionTTL is how long a sign-in stays valid.
	SessionTTL time.Duration
	// GraphConcurrency bounds how many graphs are built at the same time.
	GraphConcurrency int
}

const (
	defaultSessionTTL       = 30 * 24 * time.Hour
	defaultGraphConcurrency = 4
)

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// ListenAddr returns host:port for the HTTP listener.
func (p *Profile) ListenAddr() string {
	return fmt.Sprintf("%s:%d", p.Addr, p.Port)
}

// getEnvOrDefault returns the environment variable value or the default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// FromEnv loads settings that are not exposed as flags from NOTEGRAPH_* variables.
// Values already set on the profile win over the environment.
func (p *Profile) FromEnv() {
	if p.Secret == "" {
		p.Secret = os.Getenv("NOTEGRAPH_SECRET")
	}
	if p.InstanceURL == "" {
		p.InstanceURL = os.Getenv("NOTEGRAPH_INSTANCE_URL")
	}

	if p.SessionTTL == 0 {
		p.SessionTTL = defaultSessionTTL
		if raw := os.Getenv("NOTEGRAPH_SESSION_TTL"); raw != "" {
			ttl, err := time.ParseDuration(raw)
			if err != nil || ttl <= 0 {
				slog.Warn("invalid NOTEGRAPH_SESSION_TTL, using default", slog.String("value", raw))
			} else {
				p.SessionTTL = ttl
			}
		}
	}

	if p.GraphConcurrency == 0 {
		p.GraphConcurrency = defaultGraphConcurrency
		raw := getEnvOrDefault("NOTEGRAPH_GRAPH_CONCURRENCY", strconv.Itoa(defaultGraphConcurrency))
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			p.GraphConcurrency = n
		} else {
			slog.Warn("invalid NOTEGRAPH_GRAPH_CONCURRENCY, using default", slog.String("value", raw))
		}
	}
}

func checkDataDir(dataDir string) (string, error) {
	// Convert to absolute path if relative path is supplied.
	if !filepath.IsAbs(dataDir) {
		relativeDir := filepath.Join(filepath.Dir(os.Args[0]), dataDir)
		absDir, err := filepath.Abs(relativeDir)
		if err != nil {
			return "", err
		}
		dataDir = absDir
	}

	// Trim trailing \ or / in case user supplies
	dataDir = strings.TrimRight(dataDir, "\\/")
	if _, err := os.Stat(dataDir); err != nil {
		return "", errors.Wrapf(err, "unable to access data folder %s", dataDir)
	}
	return dataDir, nil
}

func (p *Profile) Validate() error {
	if p.Mode != "demo" && p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "demo"
	}
	if p.Driver == "" {
		p.Driver = "sqlite"
	}
	if p.Driver != "sqlite" && p.Driver != "postgres" {
		return errors.Errorf("unsupported driver %q: only 'sqlite' and 'postgres' are supported", p.Driver)
	}
	if p.Driver == "postgres" && p.DSN == "" {
		return errors.New("dsn is required for the postgres driver")
	}

	if p.Mode == "prod" && p.Data == "" {
		if runtime.GOOS == "windows" {
			p.Data = filepath.Join(os.Getenv("ProgramData"), "notegraph")
			if _, err := os.Stat(p.Data); os.IsNotExist(err) {
				if err := os.MkdirAll(p.Data, 0770); err != nil {
					slog.Error("failed to create data directory", slog.String("data", p.Data), slog.String("error", err.Error()))
					return err
				}
			}
		} else {
			p.Data = "/var/opt/notegraph"
		}
	}

	dataDir, err := checkDataDir(p.Data)
	if err != nil {
		slog.Error("failed to check dsn", slog.String("data", dataDir), slog.String("error", err.Error()))
		return err
	}

	p.Data = dataDir
	if p.Driver == "sqlite" && p.DSN == "" {
		dbFile := fmt.Sprintf("notegraph_%s.db", p.Mode)
		p.DSN = filepath.Join(dataDir, dbFile)
	}

	if p.Mode == "prod" && p.Secret == "" {
		return errors.New("a secret is required in prod mode (set --secret or NOTEGRAPH_SECRET)")
	}

	return nil
}
