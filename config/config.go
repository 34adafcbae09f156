package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Log        LogConfig        `mapstructure:"log"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	JWT        JWTConfig        `mapstructure:"jwt"`
	Credits    CreditsConfig    `mapstructure:"credits"`
	Generation GenerationConfig `mapstructure:"generation"`
	Payment    PaymentConfig    `mapstructure:"payment"`
	OSS        OSSConfig        `mapstructure:"oss"`
	S3         S3Config         `mapstructure:"s3"`
	Mirror     MirrorConfig     `mapstructure:"mirror"`
	Queue      QueueConfig      `mapstructure:"queue"`
	CORS       CORSConfig       `mapstructure:"cors"`
	RateLimit  RateLimitConfig  `mapstructure:"rate_limit"`
	Upload     UploadConfig     `mapstructure:"upload"`
	Packages   []PackageConfig  `mapstructure:"packages"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

type LogConfig struct {
	Env   string `mapstructure:"env"`   // prod, dev, local
	Level string `mapstructure:"level"` // debug, info, warn, error
}

type DatabaseConfig struct {
	Driver       string `mapstructure:"driver"` // mysql, postgres, sqlite
	DSN          string `mapstructure:"dsn"`    // 设置后优先于 host/port 等字段
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Username     string `mapstructure:"username"`
	Password     string `mapstructure:"password"`
	Database     string `mapstructure:"database"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

type JWTConfig struct {
	Secret      string `mapstructure:"secret"`
	ExpireHours int    `mapstructure:"expire_hours"`
}

type CreditsConfig struct {
	FirstLoginBonus int    `mapstructure:"first_login_bonus"`
	GenerationCost  int    `mapstructure:"generation_cost"`
	FreeTrialLimit  int    `mapstructure:"free_trial_limit"`
	PKRPerCredit    int    `mapstructure:"pkr_per_credit"`
	ClientHashKey   string `mapstructure:"client_hash_key"` // 客户端标识哈希密钥
}

type GenerationConfig struct {
	Provider   string        `mapstructure:"provider"` // nanobanana, openai, mock
	APIKey     string        `mapstructure:"api_key"`
	BaseURL    string        `mapstructure:"base_url"`
	ModelID    string        `mapstructure:"model_id"`
	NumOutputs int           `mapstructure:"num_outputs"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

type PaymentConfig struct {
	Provider  string          `mapstructure:"provider"` // gateway, mock
	Timeout   time.Duration   `mapstructure:"timeout"`
	JazzCash  JazzCashConfig  `mapstructure:"jazzcash"`
	EasyPaisa EasyPaisaConfig `mapstructure:"easypaisa"`
}

type JazzCashConfig struct {
	MerchantID    string `mapstructure:"merchant_id"`
	Password      string `mapstructure:"password"`
	IntegritySalt string `mapstructure:"integrity_salt"`
	VerifyURL     string `mapstructure:"verify_url"`
}

type EasyPaisaConfig struct {
	MerchantID string `mapstructure:"merchant_id"`
	Password   string `mapstructure:"password"`
	VerifyURL  string `mapstructure:"verify_url"`
}

type OSSConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	AccessKeySecret string `mapstructure:"access_key_secret"`
	BucketName      string `mapstructure:"bucket_name"`
	CDNDomain       string `mapstructure:"cdn_domain"`
}

type S3Config struct {
	Endpoint      string `mapstructure:"endpoint"`
	Region        string `mapstructure:"region"`
	AccessKey     string `mapstructure:"access_key"`
	SecretKey     string `mapstructure:"secret_key"`
	Bucket        string `mapstructure:"bucket"`
	PublicBaseURL string `mapstructure:"public_base_url"`
	UsePathStyle  bool   `mapstructure:"use_path_style"`
	Prefix        string `mapstructure:"prefix"`
}

type MirrorConfig struct {
	Backend       string        `mapstructure:"backend"` // oss, s3, none
	MaxAttempts   int           `mapstructure:"max_attempts"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
	FetchTimeout  time.Duration `mapstructure:"fetch_timeout"`
}

type QueueConfig struct {
	MirrorQueue string `mapstructure:"mirror_queue"`
	MaxWorkers  int    `mapstructure:"max_workers"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	AllowedMethods []string `mapstructure:"allowed_methods"`
	AllowedHeaders []string `mapstructure:"allowed_headers"`
}

type RateLimitConfig struct {
	Enabled           bool `mapstructure:"enabled"`
	RequestsPerMinute int  `mapstructure:"requests_per_minute"`
}

type UploadConfig struct {
	MaxSize           int64    `mapstructure:"max_size"`           // 单张参考图最大字节数
	MaxImages         int      `mapstructure:"max_images"`         // 单次生成最多参考图数量
	AllowedExtensions []string `mapstructure:"allowed_extensions"` // 允许的扩展名
}

// PackageConfig 积分套餐
type PackageConfig struct {
	ID       string `mapstructure:"id"`
	Credits  int    `mapstructure:"credits"`
	Featured bool   `mapstructure:"featured"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("log.env", "dev")
	v.SetDefault("log.level", "info")
	v.SetDefault("database.driver", "mysql")
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.max_open_conns", 100)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("jwt.expire_hours", 168)
	v.SetDefault("credits.first_login_bonus", 5)
	v.SetDefault("credits.generation_cost", 1)
	v.SetDefault("credits.free_trial_limit", 3)
	v.SetDefault("credits.pkr_per_credit", 5)
	v.SetDefault("generation.provider", "mock")
	v.SetDefault("generation.num_outputs", 3)
	v.SetDefault("generation.timeout", 60*time.Second)
	v.SetDefault("payment.provider", "mock")
	v.SetDefault("payment.timeout", 30*time.Second)
	v.SetDefault("mirror.backend", "none")
	v.SetDefault("mirror.max_attempts", 5)
	v.SetDefault("mirror.sweep_interval", 5*time.Minute)
	v.SetDefault("mirror.fetch_timeout", 30*time.Second)
	v.SetDefault("queue.mirror_queue", "photoshoot_mirror")
	v.SetDefault("queue.max_workers", 2)
	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests_per_minute", 10)
	v.SetDefault("upload.max_size", 10<<20)
	v.SetDefault("upload.max_images", 5)
	v.SetDefault("upload.allowed_extensions", []string{".jpg", ".jpeg", ".png", ".webp"})
}

// DefaultPackages 未配置套餐时使用的默认积分套餐
func DefaultPackages() []PackageConfig {
	return []PackageConfig{
		{ID: "pkg_10", Credits: 10},
		{ID: "pkg_25", Credits: 25, Featured: true},
		{ID: "pkg_50", Credits: 50},
		{ID: "pkg_100", Credits: 100},
	}
}

func Load(configPath string) (*Config, error) {
	// .env 中的密钥通过环境变量覆盖 yaml
	dir := filepath.Dir(configPath)
	if err := godotenv.Load(filepath.Join(dir, ".env")); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	// 优先尝试读取 config.local.yaml（包含真实密钥，不提交到git）
	localConfigPath := filepath.Join(dir, "config.local.yaml")
	if _, err := os.Stat(localConfigPath); err == nil {
		configPath = localConfigPath
	}

	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	setDefaults(v)

	// 环境变量覆盖
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if len(cfg.Packages) == 0 {
		cfg.Packages = DefaultPackages()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate 校验配置
func (c *Config) Validate() error {
	if c.Credits.GenerationCost <= 0 {
		return fmt.Errorf("credits.generation_cost must be positive, got %d", c.Credits.GenerationCost)
	}
	if c.Credits.FreeTrialLimit < 0 {
		return fmt.Errorf("credits.free_trial_limit must not be negative, got %d", c.Credits.FreeTrialLimit)
	}
	if c.Credits.FirstLoginBonus < 0 {
		return fmt.Errorf("credits.first_login_bonus must not be negative, got %d", c.Credits.FirstLoginBonus)
	}
	if c.Credits.PKRPerCredit <= 0 {
		return fmt.Errorf("credits.pkr_per_credit must be positive, got %d", c.Credits.PKRPerCredit)
	}

	switch c.Database.Driver {
	case "mysql", "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported database.driver %q", c.Database.Driver)
	}

	switch c.Generation.Provider {
	case "nanobanana", "openai", "mock":
	default:
		return fmt.Errorf("unsupported generation.provider %q", c.Generation.Provider)
	}

	switch c.Payment.Provider {
	case "gateway", "mock":
	default:
		return fmt.Errorf("unsupported payment.provider %q", c.Payment.Provider)
	}

	switch c.Mirror.Backend {
	case "oss", "s3", "none":
	default:
		return fmt.Errorf("unsupported mirror.backend %q", c.Mirror.Backend)
	}

	for _, p := range c.Packages {
		if p.Credits <= 0 {
			return fmt.Errorf("package %q must grant positive credits", p.ID)
		}
	}

	return nil
}

// PaymentConfigured 网关凭据是否齐全
func (c *PaymentConfig) PaymentConfigured() bool {
	return c.JazzCash.MerchantID != "" && c.EasyPaisa.MerchantID != ""
}
