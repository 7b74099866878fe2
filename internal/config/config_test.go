package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad(t *testing.T) {
	// 保存原始环境变量
	originalEnvs := make(map[string]string)
	envKeys := []string{
		"MAILPANEL_SERVER_HOST",
		"MAILPANEL_SERVER_PORT",
		"MAILPANEL_DATABASE_PATH",
		"MAILPANEL_DATABASE_MAX_OPEN_CONNS",
		"MAILPANEL_GATEWAY_BASE_URL",
		"MAILPANEL_GATEWAY_GENERATE_TIMEOUT",
		"MAILPANEL_GATEWAY_INBOX_TIMEOUT",
		"MAILPANEL_GATEWAY_FALLBACK_DOMAIN",
		"MAILPANEL_SESSION_RETENTION",
		"MAILPANEL_SESSION_EXPORT_LIMIT",
		"MAILPANEL_CORS_ALLOWED_ORIGINS",
		"MAILPANEL_LOG_LEVEL",
		"MAILPANEL_LOG_DEVELOPMENT",
	}

	for _, key := range envKeys {
		originalEnvs[key] = os.Getenv(key)
	}

	// 测试后恢复环境变量
	defer func() {
		for key, value := range originalEnvs {
			if value == "" {
				os.Unsetenv(key)
			} else {
				os.Setenv(key, value)
			}
		}
	}()

	t.Run("加载默认配置成功", func(t *testing.T) {
		for _, key := range envKeys {
			os.Unsetenv(key)
		}

		cfg, err := Load()

		assert.NoError(t, err)
		assert.NotNil(t, cfg)

		// 验证默认值
		assert.Equal(t, "0.0.0.0", cfg.Server.Host)
		assert.Equal(t, 8080, cfg.Server.Port)
		assert.Equal(t, "./data/mailpanel.db", cfg.Database.Path)
		assert.Equal(t, 10, cfg.Database.MaxOpenConns)
		assert.Equal(t, "https://www.emailnator.com", cfg.Gateway.BaseURL)
		assert.Equal(t, 10*time.Second, cfg.Gateway.GenerateTimeout)
		assert.Equal(t, 15*time.Second, cfg.Gateway.InboxTimeout)
		assert.Equal(t, "tempmail.tmp", cfg.Gateway.FallbackDomain)
		assert.Equal(t, 24*time.Hour, cfg.Session.Retention)
		assert.Equal(t, 1000, cfg.Session.ExportLimit)
		assert.Equal(t, []string{"*"}, cfg.CORS.AllowedOrigins)
		assert.Equal(t, "info", cfg.Log.Level)
		assert.False(t, cfg.Log.Development)
	})

	t.Run("加载自定义配置成功", func(t *testing.T) {
		os.Setenv("MAILPANEL_SERVER_HOST", "127.0.0.1")
		os.Setenv("MAILPANEL_SERVER_PORT", "9090")
		os.Setenv("MAILPANEL_DATABASE_PATH", "/tmp/panel.db")
		os.Setenv("MAILPANEL_GATEWAY_BASE_URL", "http://localhost:9999")
		os.Setenv("MAILPANEL_GATEWAY_FALLBACK_DOMAIN", "local.test")
		os.Setenv("MAILPANEL_SESSION_RETENTION", "48h")
		os.Setenv("MAILPANEL_SESSION_EXPORT_LIMIT", "250")
		os.Setenv("MAILPANEL_CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173")
		os.Setenv("MAILPANEL_LOG_LEVEL", "debug")
		os.Setenv("MAILPANEL_LOG_DEVELOPMENT", "true")

		cfg, err := Load()

		assert.NoError(t, err)
		assert.NotNil(t, cfg)

		// 验证自定义值
		assert.Equal(t, "127.0.0.1", cfg.Server.Host)
		assert.Equal(t, 9090, cfg.Server.Port)
		assert.Equal(t, "/tmp/panel.db", cfg.Database.Path)
		assert.Equal(t, "http://localhost:9999", cfg.Gateway.BaseURL)
		assert.Equal(t, "local.test", cfg.Gateway.FallbackDomain)
		assert.Equal(t, 48*time.Hour, cfg.Session.Retention)
		assert.Equal(t, 250, cfg.Session.ExportLimit)
		assert.Equal(t, []string{"http://localhost:3000", "http://localhost:5173"}, cfg.CORS.AllowedOrigins)
		assert.Equal(t, "debug", cfg.Log.Level)
		assert.True(t, cfg.Log.Development)
	})

	t.Run("无效的保留阈值格式失败", func(t *testing.T) {
		for _, key := range envKeys {
			os.Unsetenv(key)
		}
		os.Setenv("MAILPANEL_SESSION_RETENTION", "invalid-duration")

		cfg, err := Load()

		assert.Error(t, err)
		assert.Nil(t, cfg)
		assert.Contains(t, err.Error(), "invalid session.retention")
	})

	t.Run("无效的网关超时格式失败", func(t *testing.T) {
		for _, key := range envKeys {
			os.Unsetenv(key)
		}
		os.Setenv("MAILPANEL_GATEWAY_GENERATE_TIMEOUT", "not-a-duration")

		cfg, err := Load()

		assert.Error(t, err)
		assert.Nil(t, cfg)
		assert.Contains(t, err.Error(), "invalid gateway.generate_timeout")
	})

	t.Run("非法导出上限回退到默认值", func(t *testing.T) {
		for _, key := range envKeys {
			os.Unsetenv(key)
		}
		os.Setenv("MAILPANEL_SESSION_EXPORT_LIMIT", "-5")

		cfg, err := Load()

		assert.NoError(t, err)
		assert.Equal(t, 1000, cfg.Session.ExportLimit)
	})
}

func TestParseList(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "单个项目",
			input:    "item1",
			expected: []string{"item1"},
		},
		{
			name:     "多个项目",
			input:    "item1,item2,item3",
			expected: []string{"item1", "item2", "item3"},
		},
		{
			name:     "带空格的项目",
			input:    " item1 , item2 , item3 ",
			expected: []string{"item1", "item2", "item3"},
		},
		{
			name:     "空字符串",
			input:    "",
			expected: []string{},
		},
		{
			name:     "只有逗号",
			input:    ",,,",
			expected: []string{},
		},
		{
			name:     "混合空值",
			input:    "item1,,item2,",
			expected: []string{"item1", "item2"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result := parseList(tc.input)
			assert.Equal(t, tc.expected, result)
		})
	}
}
