package service

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mailpanel/backend/internal/domain"
	"mailpanel/backend/internal/storage/sqlite"
)

func newExportFixture(t *testing.T, messageCount int) (*ExportService, *sqlite.Store) {
	t.Helper()
	store, err := sqlite.Open(":memory:", 1)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, store.SaveSession(&domain.Session{
		SessionID:    "sess00000001",
		Email:        "user@tempmail.tmp",
		CreatedAt:    now,
		LastActivity: now,
		IsActive:     true,
	}))

	batch := make([]*domain.Message, 0, messageCount)
	for i := 0; i < messageCount; i++ {
		arrival := now.Add(time.Duration(i) * time.Second)
		batch = append(batch, &domain.Message{
			MessageID:   domain.NewMessageID(fmt.Sprintf("sender%d@x.y", i), "Subject", "preview", arrival),
			SessionID:   "sess00000001",
			Sender:      fmt.Sprintf("sender%d@x.y", i),
			Recipient:   "user@tempmail.tmp",
			Subject:     "Subject",
			BodyPreview: "preview",
			FullContent: "content",
			ReceivedAt:  arrival,
		})
	}
	if messageCount > 0 {
		inserted, err := store.SaveMessageBatch(batch)
		require.NoError(t, err)
		require.Equal(t, messageCount, inserted)
	}

	return NewExportService(store, 1000), store
}

func TestExportTabular(t *testing.T) {
	svc, store := newExportFixture(t, 3)
	messages, _, _, err := store.ListMessages("sess00000001", 10, 0, false)
	require.NoError(t, err)
	require.NoError(t, store.MarkMessageRead("sess00000001", messages[0].MessageID))

	out, err := svc.Export("sess00000001", "tabular")
	require.NoError(t, err)

	assert.Equal(t, "text/csv", out.MimeType)
	assert.Equal(t, FormatTabular, out.Format)

	lines := strings.Split(strings.TrimRight(out.Content, "\n"), "\n")
	// 表头 + 每封邮件一行
	require.Len(t, lines, 4)
	assert.Equal(t, "Sender,Recipient,Subject,Preview,Received At,Read", lines[0])

	for _, line := range lines[1:] {
		assert.Len(t, strings.Split(line, ","), 6)
	}

	// 列表倒序：最新的（已标记已读的）排第一
	assert.True(t, strings.HasSuffix(lines[1], "Yes"))
	assert.True(t, strings.HasSuffix(lines[2], "No"))
}

func TestExportStructured(t *testing.T) {
	svc, _ := newExportFixture(t, 2)

	out, err := svc.Export("sess00000001", "structured")
	require.NoError(t, err)

	assert.Equal(t, "application/json", out.MimeType)

	var decoded []domain.Message
	require.NoError(t, json.Unmarshal([]byte(out.Content), &decoded))
	require.Len(t, decoded, 2)
	assert.Equal(t, "sender1@x.y", decoded[0].Sender)
}

func TestExportText(t *testing.T) {
	svc, _ := newExportFixture(t, 2)

	out, err := svc.Export("sess00000001", "text")
	require.NoError(t, err)

	assert.Equal(t, "text/plain", out.MimeType)
	assert.Equal(t, 2, strings.Count(out.Content, strings.Repeat("-", 50)))
	assert.Contains(t, out.Content, "From: sender0@x.y")
	assert.Contains(t, out.Content, "To: user@tempmail.tmp")
	assert.Contains(t, out.Content, "Subject: Subject")
	assert.Contains(t, out.Content, "Preview: preview")
}

func TestExportAliasesAndErrors(t *testing.T) {
	svc, _ := newExportFixture(t, 1)

	t.Run("接受原面板的格式别名", func(t *testing.T) {
		for alias, canonical := range map[string]string{
			"json": FormatStructured,
			"csv":  FormatTabular,
			"txt":  FormatText,
		} {
			out, err := svc.Export("sess00000001", alias)
			require.NoError(t, err)
			assert.Equal(t, canonical, out.Format)
		}
	})

	t.Run("未知格式返回哨兵错误", func(t *testing.T) {
		_, err := svc.Export("sess00000001", "yaml")
		assert.ErrorIs(t, err, ErrUnknownExportFormat)
	})

	t.Run("空会话导出为空内容而不是错误", func(t *testing.T) {
		out, err := svc.Export("missing-session", "tabular")
		require.NoError(t, err)

		lines := strings.Split(strings.TrimRight(out.Content, "\n"), "\n")
		assert.Len(t, lines, 1) // 只有表头
	})
}

func TestMessageServicePagination(t *testing.T) {
	_, store := newExportFixture(t, 30)
	svc := NewMessageService(store)

	t.Run("零值限额回退到默认页宽", func(t *testing.T) {
		out, err := svc.List("sess00000001", 0, 0, false)
		require.NoError(t, err)

		assert.Len(t, out.Messages, DefaultPageSize)
		assert.Equal(t, 30, out.Total)
		assert.True(t, out.HasMore)
	})

	t.Run("超额限额被钳制", func(t *testing.T) {
		out, err := svc.List("sess00000001", 10000, 0, false)
		require.NoError(t, err)

		assert.Len(t, out.Messages, 30)
		assert.False(t, out.HasMore)
	})

	t.Run("尾页没有更多", func(t *testing.T) {
		out, err := svc.List("sess00000001", 25, 25, false)
		require.NoError(t, err)

		assert.Len(t, out.Messages, 5)
		assert.False(t, out.HasMore)
	})

	t.Run("负偏移归零", func(t *testing.T) {
		out, err := svc.List("sess00000001", 5, -10, false)
		require.NoError(t, err)
		assert.Len(t, out.Messages, 5)
	})
}
