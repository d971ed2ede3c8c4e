package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 全局配置结构体（完全匹配config.yaml）
type Config struct {
	Server ServerConfig `mapstructure:"server"` // 服务器配置
	Feed   FeedConfig   `mapstructure:"feed"`   // 数据源配置
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port     int    `mapstructure:"port"`      // 服务端口
	Mode     string `mapstructure:"mode"`      // Gin运行模式：debug/release/test
	LogLevel string `mapstructure:"log_level"` // 日志级别：debug/info/warn/error
}

// FeedConfig 数据源配置
type FeedConfig struct {
	MappingEndpoint   string `mapstructure:"mapping_endpoint"`    // 映射字典接口地址
	OddsEndpoint      string `mapstructure:"odds_endpoint"`       // 比赛快照接口地址
	PollingIntervalMS int    `mapstructure:"polling_interval_ms"` // 轮询间隔毫秒，0=连续轮询
	FetchTimeoutMS    int    `mapstructure:"fetch_timeout_ms"`    // 单次请求超时毫秒
	Proxy             string `mapstructure:"proxy"`               // 代理地址，空=直连
}

// LoadConfig 加载配置：默认值 < config/config.yaml（可选） < 环境变量。
// 部署项通过 .env 覆盖（不提交 git）。
func LoadConfig() (*Config, error) {
	// 1. 加载 .env（若存在），env 中的值会覆盖 config.yaml 中同名字段
	_ = godotenv.Load() // 忽略错误（.env 可不存在）

	// 2. 默认值
	viper.SetDefault("server.port", 4000)
	viper.SetDefault("server.mode", "release")
	viper.SetDefault("server.log_level", "info")
	viper.SetDefault("feed.mapping_endpoint", "http://127.0.0.0:3000/api/mappings")
	viper.SetDefault("feed.odds_endpoint", "http://127.0.0.1:3000/api/state")
	viper.SetDefault("feed.polling_interval_ms", 100)
	viper.SetDefault("feed.fetch_timeout_ms", 5000)
	viper.SetDefault("feed.proxy", "")

	// 3. 读取 config.yaml（可选，缺失不报错）
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./config")
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
	}

	viper.SetTypeByDefaultValue(true)
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	// 4. 环境变量覆盖（优先级 env > yaml > 默认值）
	overrideFromEnv(&cfg)
	return &cfg, nil
}

// overrideFromEnv 用环境变量覆盖配置
func overrideFromEnv(cfg *Config) {
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("GIN_MODE"); v != "" {
		cfg.Server.Mode = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Server.LogLevel = v
	}
	if v := os.Getenv("MAPPING_ENDPOINT"); v != "" {
		cfg.Feed.MappingEndpoint = v
	}
	if v := os.Getenv("ODDS_ENDPOINT"); v != "" {
		cfg.Feed.OddsEndpoint = v
	}
	if v := os.Getenv("ODDS_POLLING_INTERVAL_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms >= 0 {
			cfg.Feed.PollingIntervalMS = ms
		}
	}
	if v := os.Getenv("FETCH_TIMEOUT_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			cfg.Feed.FetchTimeoutMS = ms
		}
	}
	if v := os.Getenv("HTTP_PROXY_URL"); v != "" {
		cfg.Feed.Proxy = v
	}
}
