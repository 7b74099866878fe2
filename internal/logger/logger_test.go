package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewLogger(t *testing.T) {
	t.Run("非法级别回退到 info", func(t *testing.T) {
		log, err := NewLogger(Config{Level: "nonsense"})
		require.NoError(t, err)

		assert.True(t, log.Core().Enabled(zapcore.InfoLevel))
		assert.False(t, log.Core().Enabled(zapcore.DebugLevel))
	})

	t.Run("指定文件时建出目录并落盘", func(t *testing.T) {
		logFile := filepath.Join(t.TempDir(), "nested", "panel.log")

		log, err := NewLogger(Config{Level: "info", LogFile: logFile})
		require.NoError(t, err)
		log.Info("boot")

		_, err = os.Stat(logFile)
		assert.NoError(t, err)
	})

	t.Run("轮转参数零值取默认", func(t *testing.T) {
		assert.Equal(t, defaultMaxSizeMB, orDefault(0, defaultMaxSizeMB))
		assert.Equal(t, defaultMaxAgeDays, orDefault(-1, defaultMaxAgeDays))
		assert.Equal(t, 7, orDefault(7, defaultMaxBackups))
	})
}

func TestNewDevelopmentLogger(t *testing.T) {
	assert.NotNil(t, NewDevelopmentLogger())
}
