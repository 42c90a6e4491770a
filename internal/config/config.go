package config

import (
	"os"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
)

const defaultConfigFile = "config.yaml"

// sections lists the top-level keys that environment variables may override.
var sections = map[string]struct{}{
	"server":   {},
	"log":      {},
	"database": {},
	"redis":    {},
	"session":  {},
	"auth":     {},
	"storage":  {},
	"cors":     {},
	"swagger":  {},
}

// Config holds application level configuration loaded from file and environment.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Log      LogConfig      `koanf:"log"`
	Database DatabaseConfig `koanf:"database"`
	Redis    RedisConfig    `koanf:"redis"`
	Session  SessionConfig  `koanf:"session"`
	Auth     AuthConfig     `koanf:"auth"`
	Storage  StorageConfig  `koanf:"storage"`
	CORS     CORSConfig     `koanf:"cors"`
	Swagger  SwaggerConfig  `koanf:"swagger"`
}

type ServerConfig struct {
	Port            string        `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"readtimeout"`
	WriteTimeout    time.Duration `koanf:"writetimeout"`
	ShutdownTimeout time.Duration `koanf:"shutdowntimeout"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Pretty bool   `koanf:"pretty"`
}

// DatabaseConfig selects the SQL driver and pool limits.
type DatabaseConfig struct {
	Driver          string        `koanf:"driver"`
	DSN             string        `koanf:"dsn"`
	MaxOpenConns    int           `koanf:"maxopenconns"`
	MaxIdleConns    int           `koanf:"maxidleconns"`
	ConnMaxLifetime time.Duration `koanf:"connmaxlifetime"`
	Debug           bool          `koanf:"debug"`
}

type RedisConfig struct {
	Enabled  bool   `koanf:"enabled"`
	Addr     string `koanf:"addr"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
}

// SessionConfig controls the signed session cookie.
type SessionConfig struct {
	Secret       string        `koanf:"secret"`
	TTL          time.Duration `koanf:"ttl"`
	CookieName   string        `koanf:"cookiename"`
	SecureCookie bool          `koanf:"securecookie"`
}

type AuthConfig struct {
	BcryptCost int    `koanf:"bcryptcost"`
	RateLimit  string `koanf:"ratelimit"`
}

// StorageConfig selects where profile pictures are written.
// Driver "s3" talks to any S3 compatible endpoint, "blob" opens a gocloud bucket URL
// (file:///path, mem://).
type StorageConfig struct {
	Driver         string `koanf:"driver"`
	Bucket         string `koanf:"bucket"`
	Region         string `koanf:"region"`
	Endpoint       string `koanf:"endpoint"`
	AccessKey      string `koanf:"accesskey"`
	SecretKey      string `koanf:"secretkey"`
	BlobURL        string `koanf:"bloburl"`
	PublicBaseURL  string `koanf:"publicbaseurl"`
	MaxUploadBytes int64  `koanf:"maxuploadbytes"`
}

type CORSConfig struct {
	AllowOrigins []string `koanf:"alloworigins"`
}

type SwaggerConfig struct {
	Enabled bool   `koanf:"enabled"`
	Host    string `koanf:"host"`
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            "3289",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Log: LogConfig{Level: "info"},
		Database: DatabaseConfig{
			Driver:          "mysql",
			DSN:             "user:password@tcp(localhost:3306)/taskmanager?charset=utf8mb4&parseTime=True&loc=UTC",
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: time.Hour,
		},
		Redis: RedisConfig{
			Enabled: true,
			Addr:    "localhost:6379",
		},
		Session: SessionConfig{
			TTL:        time.Hour,
			CookieName: "token",
		},
		Auth: AuthConfig{
			BcryptCost: 10,
			RateLimit:  "20-M",
		},
		Storage: StorageConfig{
			Driver:         "blob",
			Bucket:         "profile-pictures",
			Region:         "us-east-1",
			BlobURL:        "file:///tmp/taskmanager-uploads?create_dir=true",
			PublicBaseURL:  "http://localhost:3289/uploads",
			MaxUploadBytes: 5 << 20,
		},
		CORS: CORSConfig{
			AllowOrigins: []string{"http://localhost:5173"},
		},
		Swagger: SwaggerConfig{Enabled: true},
	}
}

// Load builds Config from defaults, an optional YAML file, and the environment.
// The file path comes from CONFIG_FILE and defaults to ./config.yaml.
func Load() (*Config, error) {
	path := os.Getenv("CONFIG_FILE")
	if path == "" {
		path = defaultConfigFile
	}
	return LoadFrom(path)
}

// LoadFrom is Load with an explicit file path. A missing file is not an error.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()
	k := koanf.New(".")

	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, errors.Wrapf(err, "read config file %s", path)
		}
	}

	if err := k.Load(env.Provider(".", env.Opt{TransformFunc: envKey}), nil); err != nil {
		return nil, errors.Wrap(err, "load env variables")
	}

	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           cfg,
			TagName:          "koanf",
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
			),
			MatchName: func(mapKey, fieldName string) bool {
				return strings.EqualFold(mapKey, fieldName)
			},
		},
	}); err != nil {
		return nil, errors.Wrap(err, "unmarshal config")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// envKey maps SESSION_COOKIE_NAME to session.cookiename. Variables outside the
// known sections are skipped.
func envKey(key, value string) (string, any) {
	section, rest, ok := strings.Cut(strings.ToLower(key), "_")
	if !ok || rest == "" {
		return "", nil
	}
	if _, known := sections[section]; !known {
		return "", nil
	}
	return section + "." + strings.ReplaceAll(rest, "_", ""), value
}

// Validate rejects configurations the server cannot start with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Session.Secret) == "" {
		return errors.New("session.secret must be set")
	}
	if c.Session.TTL <= 0 {
		return errors.New("session.ttl must be positive")
	}
	switch c.Database.Driver {
	case "mysql", "postgres":
	default:
		return errors.Errorf("unknown database driver %q", c.Database.Driver)
	}
	switch c.Storage.Driver {
	case "s3", "blob":
	default:
		return errors.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if c.Storage.MaxUploadBytes <= 0 {
		return errors.New("storage.maxuploadbytes must be positive")
	}
	return nil
}
