package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Upload   UploadConfig   `mapstructure:"upload"`
	Compose  ComposeConfig  `mapstructure:"compose"`
	RemBG    RemBGConfig    `mapstructure:"rembg"`
	Vision   VisionConfig   `mapstructure:"vision"`
}

type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	Mode         string        `mapstructure:"mode"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type DatabaseConfig struct {
	DSN string `mapstructure:"dsn"`
}

type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

type UploadConfig struct {
	MaxSize      int64    `mapstructure:"max_size"`
	UploadDir    string   `mapstructure:"upload_dir"`
	AllowedTypes []string `mapstructure:"allowed_types"`
	// MaxAge 临时上传文件的保留时长，超过由定时任务清理
	MaxAge time.Duration `mapstructure:"max_age"`
	// CleanupSpec 清理任务的 cron 表达式
	CleanupSpec string `mapstructure:"cleanup_spec"`
}

type ComposeConfig struct {
	CanvasWidth  int `mapstructure:"canvas_width"`
	CanvasHeight int `mapstructure:"canvas_height"`
	JPEGQuality  int `mapstructure:"jpeg_quality"`
	MaxEdge      int `mapstructure:"max_edge"`
	ThumbEdge    int `mapstructure:"thumb_edge"`
}

type RemBGConfig struct {
	APIKey   string        `mapstructure:"api_key"`
	Endpoint string        `mapstructure:"endpoint"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

type VisionConfig struct {
	APIKey   string        `mapstructure:"api_key"`
	Model    string        `mapstructure:"model"`
	Endpoint string        `mapstructure:"endpoint"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// Load 从 YAML 文件加载配置
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	setDefaults(v)
	bindEnv(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// New 使用默认配置路径加载配置，加载失败回落到默认值（环境变量仍生效）
func New() *Config {
	cfg, err := Load("config.yaml")
	if err != nil {
		return defaultConfig()
	}
	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)

	v.SetDefault("database.dsn", "")

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.ttl", 24*time.Hour)

	v.SetDefault("upload.max_size", 10*1024*1024)
	v.SetDefault("upload.upload_dir", "./uploads")
	v.SetDefault("upload.allowed_types", []string{"image/jpeg", "image/png", "image/jpg"})
	v.SetDefault("upload.max_age", 24*time.Hour)
	v.SetDefault("upload.cleanup_spec", "0 3 * * *")

	v.SetDefault("compose.canvas_width", 600)
	v.SetDefault("compose.canvas_height", 800)
	v.SetDefault("compose.jpeg_quality", 80)
	v.SetDefault("compose.max_edge", 1024)
	v.SetDefault("compose.thumb_edge", 200)

	v.SetDefault("rembg.endpoint", "")
	v.SetDefault("rembg.timeout", 30*time.Second)

	v.SetDefault("vision.model", "gpt-4o")
	v.SetDefault("vision.endpoint", "")
	v.SetDefault("vision.timeout", 30*time.Second)
}

// bindEnv 密钥类配置只从环境变量读
func bindEnv(v *viper.Viper) {
	_ = v.BindEnv("database.dsn", "DATABASE_URL")
	_ = v.BindEnv("rembg.api_key", "REMOVEBG_API_KEY")
	_ = v.BindEnv("vision.api_key", "OPENAI_API_KEY")
	_ = v.BindEnv("vision.model", "OPENAI_MODEL")
}

func defaultConfig() *Config {
	v := viper.New()
	setDefaults(v)
	bindEnv(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("default config unmarshal: %v", err))
	}
	return &cfg
}
