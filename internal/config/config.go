package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	MinIO    MinIOConfig    `mapstructure:"minio"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Auth     AuthConfig     `mapstructure:"auth"`
	GS1      GS1Config      `mapstructure:"gs1"`
	Log      LogConfig      `mapstructure:"log"`
	Planner  PlannerConfig  `mapstructure:"planner"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	AllowOrigins    []string      `mapstructure:"allow_origins"`
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
}

// DSN renders the PostgreSQL connection string.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

// Addr returns host:port.
func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type MinIOConfig struct {
	Endpoint  string        `mapstructure:"endpoint"`
	AccessKey string        `mapstructure:"access_key"`
	SecretKey string        `mapstructure:"secret_key"`
	Bucket    string        `mapstructure:"bucket"`
	UseSSL    bool          `mapstructure:"use_ssl"`
	URLExpiry time.Duration `mapstructure:"url_expiry"`
}

// Enabled reports whether export archiving is configured.
func (c MinIOConfig) Enabled() bool {
	return c.Endpoint != "" && c.Bucket != ""
}

type JWTConfig struct {
	Secret             string        `mapstructure:"secret"`
	AccessTokenExpire  time.Duration `mapstructure:"access_token_expire"`
	RefreshTokenExpire time.Duration `mapstructure:"refresh_token_expire"`
	Issuer             string        `mapstructure:"issuer"`
}

// AuthConfig holds the optional directory login backends. Local accounts
// always work.
type AuthConfig struct {
	LDAP  LDAPConfig  `mapstructure:"ldap"`
	AD    LDAPConfig  `mapstructure:"ad"`
	Azure AzureConfig `mapstructure:"azure"`
}

type LDAPConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	URL          string        `mapstructure:"url"`
	BaseDN       string        `mapstructure:"base_dn"`
	BindDN       string        `mapstructure:"bind_dn"`
	BindPassword string        `mapstructure:"bind_password"`
	SkipVerify   bool          `mapstructure:"skip_verify"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

// Configured reports whether the server is enabled and addressable.
func (c LDAPConfig) Configured() bool {
	return c.Enabled && c.URL != "" && c.BaseDN != ""
}

type AzureConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	TenantID     string        `mapstructure:"tenant_id"`
	ClientID     string        `mapstructure:"client_id"`
	ClientSecret string        `mapstructure:"client_secret"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

// Configured reports whether the app registration is enabled and complete.
func (c AzureConfig) Configured() bool {
	return c.Enabled && c.TenantID != "" && c.ClientID != "" && c.ClientSecret != ""
}

type GS1Config struct {
	Enabled         bool          `mapstructure:"enabled"`
	BaseURL         string        `mapstructure:"base_url"`
	ClientID        string        `mapstructure:"client_id"`
	ClientSecret    string        `mapstructure:"client_secret"`
	SubscriptionKey string        `mapstructure:"subscription_key"`
	GLN             string        `mapstructure:"gln"`
	Username        string        `mapstructure:"username"`
	Password        string        `mapstructure:"password"`
	Timeout         time.Duration `mapstructure:"timeout"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// PlannerConfig holds the launch planner's own settings.
type PlannerConfig struct {
	TemplateCatalog string `mapstructure:"template_catalog"` // optional YAML catalog, built-in templates otherwise
	AdminPassword   string `mapstructure:"admin_password"`   // bootstrap password for the admin account
}

// Load reads .env, then configs/config.yaml or ./config.yaml, then the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// no file, environment only
	}
	return decode(v)
}

// LoadFile reads an explicit config file plus environment overrides.
func LoadFile(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return decode(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	bindEnvVariables(v)
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.allow_origins", []string{"*"})

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "planner")
	v.SetDefault("database.dbname", "launch_planner")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", time.Hour)
	v.SetDefault("database.conn_max_idle_time", 10*time.Minute)

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.pool_size", 10)

	v.SetDefault("minio.bucket", "launch-exports")
	v.SetDefault("minio.url_expiry", time.Hour)

	v.SetDefault("jwt.access_token_expire", 2*time.Hour)
	v.SetDefault("jwt.refresh_token_expire", 7*24*time.Hour)
	v.SetDefault("jwt.issuer", "launch-planner")

	v.SetDefault("auth.ldap.timeout", 10*time.Second)
	v.SetDefault("auth.ad.timeout", 10*time.Second)
	v.SetDefault("auth.azure.timeout", 30*time.Second)

	v.SetDefault("gs1.timeout", 30*time.Second)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

func bindEnvVariables(v *viper.Viper) {
	// Server
	v.BindEnv("server.port", "SERVER_PORT")
	v.BindEnv("server.mode", "SERVER_MODE")

	// Database
	v.BindEnv("database.host", "DB_HOST")
	v.BindEnv("database.port", "DB_PORT")
	v.BindEnv("database.user", "DB_USER")
	v.BindEnv("database.password", "DB_PASSWORD")
	v.BindEnv("database.dbname", "DB_NAME")

	// Redis
	v.BindEnv("redis.host", "REDIS_HOST")
	v.BindEnv("redis.port", "REDIS_PORT")
	v.BindEnv("redis.password", "REDIS_PASSWORD")

	// MinIO
	v.BindEnv("minio.endpoint", "MINIO_ENDPOINT")
	v.BindEnv("minio.access_key", "MINIO_ACCESS_KEY")
	v.BindEnv("minio.secret_key", "MINIO_SECRET_KEY")
	v.BindEnv("minio.bucket", "MINIO_BUCKET")

	// JWT
	v.BindEnv("jwt.secret", "JWT_SECRET")

	// Directory login
	v.BindEnv("auth.ldap.url", "LDAP_URL")
	v.BindEnv("auth.ldap.bind_dn", "LDAP_BIND_DN")
	v.BindEnv("auth.ldap.bind_password", "LDAP_BIND_PASSWORD")
	v.BindEnv("auth.ad.url", "AD_URL")
	v.BindEnv("auth.ad.bind_dn", "AD_BIND_DN")
	v.BindEnv("auth.ad.bind_password", "AD_BIND_PASSWORD")
	v.BindEnv("auth.azure.tenant_id", "AZURE_TENANT_ID")
	v.BindEnv("auth.azure.client_id", "AZURE_CLIENT_ID")
	v.BindEnv("auth.azure.client_secret", "AZURE_CLIENT_SECRET")

	// GS1
	v.BindEnv("gs1.client_id", "GS1_CLIENT_ID")
	v.BindEnv("gs1.client_secret", "GS1_CLIENT_SECRET")
	v.BindEnv("gs1.subscription_key", "GS1_SUBSCRIPTION_KEY")
	v.BindEnv("gs1.username", "GS1_USERNAME")
	v.BindEnv("gs1.password", "GS1_PASSWORD")
	v.BindEnv("gs1.gln", "GS1_GLN")

	// Planner
	v.BindEnv("planner.template_catalog", "PLANNER_TEMPLATE_CATALOG")
	v.BindEnv("planner.admin_password", "PLANNER_ADMIN_PASSWORD")
}

// GetEnvOrDefault returns the environment value for key, or defaultValue when unset.
func GetEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
