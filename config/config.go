// Package config loads environment variables and provides a typed Config used across the service.
// It applies sensible defaults so the binary can run locally (or under docker compose, where the
// database host is called "mysql") with minimal setup. The returned Config is treated as read-only.
package config

import (
	"fmt"
	"log/slog"
	"net"
	"net/netip"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
)

// Supported database drivers.
const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
)

// ConnectionConfig describes the database the status page probes.
type ConnectionConfig struct {
	Driver   string
	Host     string
	Port     int
	Name     string
	User     string
	Password string
	SSLMode  string // postgres only

	// RawDSN, when set, is handed to the driver as-is and the fields above are ignored.
	RawDSN string

	// Timeout bounds connect + query for a single probe.
	Timeout time.Duration
}

// RateLimitConfig controls the optional per-IP limiter in front of the probing endpoints.
type RateLimitConfig struct {
	Enabled       bool
	RequestsPerIP int
	Window        time.Duration

	// TrustedProxies are the peers whose X-Forwarded-For header is believed.
	// Requests from anyone else are keyed on their socket address.
	TrustedProxies []netip.Prefix
}

// Trusts reports whether addr falls inside one of the trusted proxy ranges.
func (c RateLimitConfig) Trusts(addr netip.Addr) bool {
	addr = addr.Unmap()
	for _, p := range c.TrustedProxies {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

type Config struct {
	DB ConnectionConfig

	// HTTP
	HTTPAddr string
	NFSLink  string

	// NFS share check; disabled when NFSMountPath is empty.
	NFSMountPath     string
	NFSCheckInterval time.Duration

	RateLimit RateLimitConfig

	// Telemetry
	OTLPEndpoint string
}

// Load reads environment variables and applies defaults.
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.DB.Driver = strings.ToLower(envOr("DB_DRIVER", DriverMySQL))
	switch cfg.DB.Driver {
	case DriverMySQL, DriverPostgres:
	case "pgx", "postgresql":
		cfg.DB.Driver = DriverPostgres
	default:
		return nil, fmt.Errorf("invalid DB_DRIVER %q: want mysql or postgres", cfg.DB.Driver)
	}

	cfg.DB.Host = envOr("DB_HOST", "mysql")
	cfg.DB.Name = envOr("DB_NAME", "testdb")
	cfg.DB.User = envOr("DB_USER", "root")
	cfg.DB.Password = os.Getenv("DB_PASSWORD")
	cfg.DB.SSLMode = envOr("DB_SSLMODE", "disable")
	cfg.DB.RawDSN = os.Getenv("DB_DSN")

	defPort := 3306
	if cfg.DB.Driver == DriverPostgres {
		defPort = 5432
	}
	port, err := envInt("DB_PORT", defPort)
	if err != nil {
		return nil, err
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("invalid DB_PORT %d: out of range", port)
	}
	cfg.DB.Port = port

	if cfg.DB.Timeout, err = envDuration("DB_TIMEOUT", 5*time.Second); err != nil {
		return nil, err
	}

	// HTTP
	cfg.HTTPAddr = envOr("HTTP_ADDR", ":8080")
	cfg.NFSLink = envOr("NFS_LINK", "/nfs/")
	cfg.NFSMountPath = os.Getenv("NFS_MOUNT_PATH")
	if cfg.NFSCheckInterval, err = envDuration("NFS_CHECK_INTERVAL", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.NFSMountPath != "" && cfg.NFSCheckInterval <= 0 {
		return nil, fmt.Errorf("NFS_CHECK_INTERVAL must be positive when NFS_MOUNT_PATH is set")
	}

	// Rate limiting is off by default: this page normally sits behind a load balancer
	// that would collapse every client onto one address.
	cfg.RateLimit.Enabled = os.Getenv("RATE_LIMIT_ENABLED") == "1"
	if cfg.RateLimit.RequestsPerIP, err = envInt("RATE_LIMIT_REQUESTS_PER_IP", 30); err != nil {
		return nil, err
	}
	secs, err := envInt("RATE_LIMIT_WINDOW_SECONDS", 60)
	if err != nil {
		return nil, err
	}
	cfg.RateLimit.Window = time.Duration(secs) * time.Second
	if cfg.RateLimit.Enabled && (cfg.RateLimit.RequestsPerIP <= 0 || secs <= 0) {
		return nil, fmt.Errorf("rate limit requires positive RATE_LIMIT_REQUESTS_PER_IP and RATE_LIMIT_WINDOW_SECONDS")
	}

	if cfg.RateLimit.TrustedProxies, err = parsePrefixes("RATE_LIMIT_TRUSTED_PROXIES"); err != nil {
		return nil, err
	}

	cfg.OTLPEndpoint = os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")

	return cfg, nil
}

// DriverName returns the database/sql driver name registered for c.Driver.
func (c ConnectionConfig) DriverName() string {
	if c.Driver == DriverPostgres {
		return "pgx"
	}
	return "mysql"
}

// DSN renders the connection string for the configured driver.
func (c ConnectionConfig) DSN() string {
	if c.RawDSN != "" {
		return c.RawDSN
	}
	addr := net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
	if c.Driver == DriverPostgres {
		q := url.Values{}
		q.Set("sslmode", c.SSLMode)
		if c.Timeout > 0 {
			q.Set("connect_timeout", strconv.Itoa(max(1, int(c.Timeout/time.Second))))
		}
		u := url.URL{
			Scheme:   "postgres",
			User:     url.UserPassword(c.User, c.Password),
			Host:     addr,
			Path:     "/" + c.Name,
			RawQuery: q.Encode(),
		}
		return u.String()
	}
	mc := mysql.NewConfig()
	mc.User = c.User
	mc.Passwd = c.Password
	mc.Net = "tcp"
	mc.Addr = addr
	mc.DBName = c.Name
	mc.Timeout = c.Timeout
	mc.ReadTimeout = c.Timeout
	return mc.FormatDSN()
}

// LogValue keeps credentials out of logs.
func (c ConnectionConfig) LogValue() slog.Value {
	if c.RawDSN != "" {
		return slog.GroupValue(
			slog.String("driver", c.Driver),
			slog.String("dsn", "(raw, redacted)"),
		)
	}
	return slog.GroupValue(
		slog.String("driver", c.Driver),
		slog.String("host", c.Host),
		slog.Int("port", c.Port),
		slog.String("database", c.Name),
		slog.String("user", c.User),
		slog.Duration("timeout", c.Timeout),
	)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func envDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		// bare integers are seconds
		if n, nerr := strconv.Atoi(v); nerr == nil {
			return time.Duration(n) * time.Second, nil
		}
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

// parsePrefixes reads a comma separated list of CIDRs or bare addresses.
func parsePrefixes(key string) ([]netip.Prefix, error) {
	var out []netip.Prefix
	for _, item := range strings.Split(os.Getenv(key), ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		if strings.Contains(item, "/") {
			p, err := netip.ParsePrefix(item)
			if err != nil {
				return nil, fmt.Errorf("invalid %s: %w", key, err)
			}
			out = append(out, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(item)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", key, err)
		}
		addr = addr.Unmap()
		out = append(out, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return out, nil
}
