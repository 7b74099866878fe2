package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ServerConfig 定义 HTTP 服务器的监听配置参数
type ServerConfig struct {
	Host string // 监听地址，默认 "0.0.0.0"
	Port int    // 监听端口，默认 8080
}

// DatabaseConfig 定义 SQLite 存储配置
type DatabaseConfig struct {
	Path         string // 数据库文件路径，":memory:" 表示纯内存库
	MaxOpenConns int    // 最大打开连接数，默认 10（内存库被强制为 1）
}

// GatewayConfig 定义外部邮件网关配置
type GatewayConfig struct {
	BaseURL         string        // 外部生成/收件服务的基址
	GenerateTimeout time.Duration // 地址生成请求超时，默认 10s
	InboxTimeout    time.Duration // 收件箱抓取请求超时，默认 15s
	FallbackDomain  string        // 本地兜底地址域名
	RatePerSecond   float64       // 对外请求速率上限
	RateBurst       int           // 速率突发额度
}

// SessionConfig 定义会话生命周期配置
type SessionConfig struct {
	Retention   time.Duration // 非活跃会话保留阈值，默认 24h
	ExportLimit int           // 单次导出邮件上限，默认 1000
}

// CORSConfig 定义跨域资源共享 (CORS) 配置
type CORSConfig struct {
	AllowedOrigins []string // 允许的来源列表，"*" 表示允许所有来源
}

// LogConfig 定义日志系统配置
type LogConfig struct {
	Level       string // 日志级别: debug, info, warn, error
	Development bool   // 开发模式: 启用彩色输出和详细堆栈信息
	File        string // 日志文件路径，留空表示仅输出到控制台
}

// Config 是系统核心配置的根结构体，包含所有子系统的配置
type Config struct {
	Server   ServerConfig   // HTTP 服务器配置
	Database DatabaseConfig // SQLite 配置
	Gateway  GatewayConfig  // 外部网关配置
	Session  SessionConfig  // 会话生命周期配置
	CORS     CORSConfig     // 跨域配置
	Log      LogConfig      // 日志配置
}

// Load 从环境变量和 .env 文件加载系统配置
//
// 配置加载优先级（从高到低）：
//  1. 系统环境变量（最高优先级）
//  2. .env 文件（如果存在）
//  3. 默认值
//
// 环境变量前缀: MAILPANEL_
// 例如: MAILPANEL_SERVER_PORT, MAILPANEL_GATEWAY_BASE_URL
func Load() (*Config, error) {
	// 尝试加载 .env 文件（静默失败，因为 .env 文件是可选的）
	loadEnvFile()

	viper.SetEnvPrefix("mailpanel")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("database.path", "./data/mailpanel.db")
	viper.SetDefault("database.max_open_conns", 10)
	viper.SetDefault("gateway.base_url", "https://www.emailnator.com")
	viper.SetDefault("gateway.generate_timeout", "10s")
	viper.SetDefault("gateway.inbox_timeout", "15s")
	viper.SetDefault("gateway.fallback_domain", "tempmail.tmp")
	viper.SetDefault("gateway.rate_per_second", 4.0)
	viper.SetDefault("gateway.rate_burst", 2)
	viper.SetDefault("session.retention", "24h")
	viper.SetDefault("session.export_limit", 1000)
	viper.SetDefault("cors.allowed_origins", "*")
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.development", false)
	viper.SetDefault("log.file", "")

	generateTimeout, err := time.ParseDuration(viper.GetString("gateway.generate_timeout"))
	if err != nil {
		return nil, fmt.Errorf("invalid gateway.generate_timeout: %w", err)
	}

	inboxTimeout, err := time.ParseDuration(viper.GetString("gateway.inbox_timeout"))
	if err != nil {
		return nil, fmt.Errorf("invalid gateway.inbox_timeout: %w", err)
	}

	retention, err := time.ParseDuration(viper.GetString("session.retention"))
	if err != nil {
		return nil, fmt.Errorf("invalid session.retention: %w", err)
	}
	if retention <= 0 {
		return nil, fmt.Errorf("session.retention must be positive")
	}

	baseURL := viper.GetString("gateway.base_url")
	if baseURL == "" {
		return nil, fmt.Errorf("gateway.base_url must not be empty")
	}

	dbPath := viper.GetString("database.path")
	if dbPath == "" {
		return nil, fmt.Errorf("database.path must not be empty")
	}

	exportLimit := viper.GetInt("session.export_limit")
	if exportLimit <= 0 {
		exportLimit = 1000
	}

	corsOrigins := parseList(viper.GetString("cors.allowed_origins"))
	if len(corsOrigins) == 0 {
		corsOrigins = []string{"*"}
	}

	cfg := &Config{
		Server: ServerConfig{
			Host: viper.GetString("server.host"),
			Port: viper.GetInt("server.port"),
		},
		Database: DatabaseConfig{
			Path:         dbPath,
			MaxOpenConns: viper.GetInt("database.max_open_conns"),
		},
		Gateway: GatewayConfig{
			BaseURL:         baseURL,
			GenerateTimeout: generateTimeout,
			InboxTimeout:    inboxTimeout,
			FallbackDomain:  viper.GetString("gateway.fallback_domain"),
			RatePerSecond:   viper.GetFloat64("gateway.rate_per_second"),
			RateBurst:       viper.GetInt("gateway.rate_burst"),
		},
		Session: SessionConfig{
			Retention:   retention,
			ExportLimit: exportLimit,
		},
		CORS: CORSConfig{
			AllowedOrigins: corsOrigins,
		},
		Log: LogConfig{
			Level:       viper.GetString("log.level"),
			Development: viper.GetBool("log.development"),
			File:        viper.GetString("log.file"),
		},
	}

	return cfg, nil
}

// parseList 将逗号分隔的字符串解析为字符串切片
func parseList(value string) []string {
	parts := strings.Split(value, ",")
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}

// loadEnvFile 尝试加载 .env 文件
//
// 加载顺序：
//  1. 当前目录的 .env
//  2. 父目录的 .env（用于从 backend/ 子目录运行的情况）
//
// 如果文件不存在，静默失败（.env 是可选的）；已存在的环境变量不会
// 被覆盖。
func loadEnvFile() {
	if err := godotenv.Load(".env"); err == nil {
		return
	}

	parentEnv := filepath.Join("..", ".env")
	if _, err := os.Stat(parentEnv); err == nil {
		_ = godotenv.Load(parentEnv)
	}
}
