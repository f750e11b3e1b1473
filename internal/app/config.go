package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

// Storage drivers.
const (
	DriverMemory   = "memory"
	DriverFile     = "file"
	DriverPostgres = "postgres"
)

// Config holds the complete application configuration, loadable from
// environment variables (MIS_ prefix), flags, or YAML config files.
type Config struct {
	Addr     string `default:"0.0.0.0:8080" usage:"API server listen address"`
	Timezone string `default:"Local" usage:"IANA time zone for report days and date filters"`
	// APIKeyPepper keys the HMAC that hashes back-office API keys.
	APIKeyPepper string `usage:"HMAC pepper for API key hashing (MIS_API_KEY_PEPPER)" flag:"api-key-pepper"`
	// AdminKeyHashes lists accepted key hashes when keys are not kept in
	// PostgreSQL.
	AdminKeyHashes []string `usage:"Hex HMAC-SHA256 hashes of admin API keys" flag:"admin-key-hashes"`
	Cart           CartConfig
	Storage        StorageConfig
	Receipt        ReceiptConfig
	Printer        PrinterConfig
	AMQP           AMQPConfig
	RateLimit      RateLimitConfig
	CORS           CORSConfig
	Graceful       GracefulConfig
}

// CartConfig controls in-progress cart sessions.
type CartConfig struct {
	IdleTTL time.Duration `default:"2h" usage:"Evict cart sessions idle for longer than this"`
}

// StorageConfig selects where orders and feedback are persisted.
type StorageConfig struct {
	Driver      string `default:"file" usage:"Storage driver: memory, file or postgres"`
	Dir         string `default:"data" usage:"Directory for the file driver"`
	DatabaseURL string `usage:"PostgreSQL connection URL (MIS_STORAGE_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
}

// ReceiptConfig describes the store printed on receipts.
type ReceiptConfig struct {
	StoreName  string `default:"Restaurant" usage:"Store name on receipts"`
	StorePhone string `usage:"Store phone number on receipts"`
	Origin     string `usage:"Public storefront URL used in feedback links"`
	LogoPath   string `usage:"Path to a PNG, JPEG or GIF logo"`
	Footer     string `default:"Thank you for dining with us!" usage:"Receipt footer message"`
	QREndpoint string `default:"https://api.qrserver.com/v1/create-qr-code/?size=150x150&data=" usage:"QR image service for HTML receipts"`
	PrintQR    bool   `default:"true" usage:"Print a feedback QR code on thermal receipts"`
}

// PrinterConfig points at a raw-port network receipt printer.
type PrinterConfig struct {
	Addr            string        `usage:"Printer host:port, usually port 9100. Empty disables printing"`
	DialTimeout     time.Duration `default:"5s" usage:"Printer connect timeout"`
	ChunkSize       int           `default:"20" usage:"Bytes per write"`
	ChunkDelay      time.Duration `default:"50ms" usage:"Pause between writes"`
	DisconnectDelay time.Duration `default:"1s" usage:"Wait after the last write before disconnecting"`
}

// AMQPConfig enables order event publishing.
type AMQPConfig struct {
	URL      string `usage:"RabbitMQ URL. Empty disables order events"`
	Exchange string `default:"mis.orders" usage:"Topic exchange for order events"`
}

// RateLimitConfig controls the per-client sliding window rate limiter.
type RateLimitConfig struct {
	Max    int           `default:"100" usage:"Max requests per window"`
	Window time.Duration `default:"1m"  usage:"Rate limit window duration"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins []string `default:"*" usage:"Allowed CORS origins"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from environment variables, YAML config
// files and flags, then applies platform defaults.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "MIS",
		Files:     []string{"config.yaml", "/etc/mis/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Storage.Driver {
	case DriverMemory, DriverFile:
	case DriverPostgres:
		if c.Storage.DatabaseURL == "" {
			return errors.New("database URL is required for the postgres driver: set MIS_STORAGE_DATABASE_URL or DATABASE_URL")
		}
	default:
		return errors.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if len(c.AdminKeyHashes) > 0 && c.APIKeyPepper == "" {
		return errors.New("admin key hashes need MIS_API_KEY_PEPPER")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves Timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, errors.Wrapf(err, "load time zone %q", c.Timezone)
	}
	return loc, nil
}

// applyPlatformDefaults maps platform-provided environment variables (Railway,
// Render, etc.) that use standard names like DATABASE_URL and PORT to the
// application's MIS_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if c.Storage.DatabaseURL == "" {
		if v := os.Getenv("DATABASE_URL"); v != "" {
			c.Storage.DatabaseURL = v
		}
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == "0.0.0.0:8080" {
		c.Addr = "0.0.0.0:" + port
	}
}
