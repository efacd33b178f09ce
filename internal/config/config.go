package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 全局配置结构体（匹配config/config.yaml，文件可缺省走默认值）
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`  // 服务器配置
	Opinion OpinionConfig `mapstructure:"opinion"` // Opinion平台配置
	Whale   WhaleConfig   `mapstructure:"whale"`   // 巨鲸检测与刷新配置
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port int    `mapstructure:"port"` // 服务端口
	Mode string `mapstructure:"mode"` // Gin运行模式：debug/release/test
}

// OpinionConfig Opinion CLOB 代理的接入配置
type OpinionConfig struct {
	BaseURL string `mapstructure:"base_url"` // API基础地址
	APIKey  string `mapstructure:"api_key"`  // x-api-key（缺失时服务降级为空快照，不报错）
	Timeout int    `mapstructure:"timeout"`  // 单次请求超时（秒）
	Proxy   string `mapstructure:"proxy"`    // 代理地址
}

// WhaleConfig 巨鲸检测与后台刷新配置
type WhaleConfig struct {
	Threshold       float64 `mapstructure:"threshold"`        // 名义价值阈值（美元）
	RefreshInterval int     `mapstructure:"refresh_interval"` // 后台刷新间隔（秒）
	PageCap         int     `mapstructure:"page_cap"`         // /markets 最多翻页数
	PageLimit       int     `mapstructure:"page_limit"`       // 每页条数
	MarketCap       int     `mapstructure:"market_cap"`       // 单轮最多处理的市场数（控制刷新耗时）
	Concurrency     int     `mapstructure:"concurrency"`      // 单轮并发处理的市场数
}

// LoadConfig 加载配置文件（config/config.yaml），敏感项从 .env 与环境变量覆盖。
// 配置文件不存在时不报错，全部走默认值（部署环境只给环境变量的场景）。
func LoadConfig() (*Config, error) {
	// 1. 加载 .env（若存在），env 中的值会覆盖 config.yaml 中同名字段
	_ = godotenv.Load() // 忽略错误（.env 可不存在）

	// 2. 默认值
	viper.SetDefault("server.port", 8000)
	viper.SetDefault("server.mode", "release")
	viper.SetDefault("opinion.base_url", "https://proxy.opinion.trade:8443")
	viper.SetDefault("opinion.timeout", 30)
	viper.SetDefault("whale.threshold", 500)
	viper.SetDefault("whale.refresh_interval", 60)
	viper.SetDefault("whale.page_cap", 7)
	viper.SetDefault("whale.page_limit", 20)
	viper.SetDefault("whale.market_cap", 50)
	viper.SetDefault("whale.concurrency", 8)

	// 3. 读取 config.yaml（可缺省）
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./config")
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
	}

	viper.SetTypeByDefaultValue(true)
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	// 4. 敏感字段：用 env 覆盖（优先级 env > yaml > 默认值）
	overrideFromEnv(&cfg)
	return &cfg, nil
}

// overrideFromEnv 用环境变量覆盖敏感配置
func overrideFromEnv(cfg *Config) {
	if v := os.Getenv("OPINION_API_KEY"); v != "" {
		cfg.Opinion.APIKey = v
	}
	if v := os.Getenv("OPINION_BASE_URL"); v != "" {
		cfg.Opinion.BaseURL = v
	}
	if v := os.Getenv("OPINION_PROXY"); v != "" {
		cfg.Opinion.Proxy = v
	}
	if v := os.Getenv("WHALE_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			cfg.Whale.Threshold = f
		}
	}
	if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil && p > 0 {
			cfg.Server.Port = p
		}
	}
}
