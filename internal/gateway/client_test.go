package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"mailpanel/backend/internal/domain"
)

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	return New(Config{
		BaseURL:         baseURL,
		GenerateTimeout: 2 * time.Second,
		InboxTimeout:    2 * time.Second,
		FallbackDomain:  "tempmail.tmp",
		RatePerSecond:   1000, // 测试不受限流影响
		RateBurst:       1000,
	}, zap.NewNop())
}

func TestGenerate(t *testing.T) {
	t.Run("首个策略成功", func(t *testing.T) {
		var calls int
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			assert.Equal(t, "/api/email/generate", r.URL.Path)

			var payload struct {
				IDs []int `json:"ids"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
			assert.Equal(t, []int{1, 2, 3}, payload.IDs)

			json.NewEncoder(w).Encode(map[string]string{"email": "fresh@example.com"})
		}))
		defer server.Close()

		client := newTestClient(t, server.URL)
		result, err := client.Generate(context.Background(), "")

		require.NoError(t, err)
		assert.Equal(t, "fresh@example.com", result.Email)
		assert.False(t, result.UsedFallback)
		assert.Equal(t, 1, calls)
	})

	t.Run("失败策略跳到下一个", func(t *testing.T) {
		var calls int
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			if calls < 3 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			json.NewEncoder(w).Encode(map[string]string{"email": "third@example.com"})
		}))
		defer server.Close()

		client := newTestClient(t, server.URL)
		result, err := client.Generate(context.Background(), "")

		require.NoError(t, err)
		assert.Equal(t, "third@example.com", result.Email)
		assert.False(t, result.UsedFallback)
		assert.Equal(t, 3, calls)
	})

	t.Run("全部策略失败走本地兜底", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		client := newTestClient(t, server.URL)
		result, err := client.Generate(context.Background(), "")

		require.NoError(t, err)
		assert.True(t, result.UsedFallback)
		assert.True(t, strings.HasSuffix(result.Email, "@tempmail.tmp"))

		local := strings.Split(result.Email, "@")[0]
		assert.Len(t, local, 10)
	})

	t.Run("畸形响应体等同失败", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("not json at all"))
		}))
		defer server.Close()

		client := newTestClient(t, server.URL)
		result, err := client.Generate(context.Background(), "")

		require.NoError(t, err)
		assert.True(t, result.UsedFallback)
	})

	t.Run("前缀统一拼入本地部分", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]string{"email": "base@example.com"})
		}))
		defer server.Close()

		client := newTestClient(t, server.URL)
		result, err := client.Generate(context.Background(), "work")

		require.NoError(t, err)
		assert.Equal(t, "work_base@example.com", result.Email)
	})

	t.Run("兜底地址同样拼前缀", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer server.Close()

		client := newTestClient(t, server.URL)
		result, err := client.Generate(context.Background(), "p")

		require.NoError(t, err)
		assert.True(t, result.UsedFallback)
		assert.True(t, strings.HasPrefix(result.Email, "p_"))
		assert.True(t, strings.HasSuffix(result.Email, "@tempmail.tmp"))
	})
}

func TestFetchInbox(t *testing.T) {
	t.Run("混合形态消息解为带标签变体", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/email/inbox", r.URL.Path)
			w.Write([]byte(`{"messages":[
				{"sender":"a@b.c","subject":"Hi","preview":"hello"},
				"NEW alice\n\nSubject line\npreview line"
			]}`))
		}))
		defer server.Close()

		client := newTestClient(t, server.URL)
		result := client.FetchInbox(context.Background(), "user@example.com")

		assert.Equal(t, StatusOK, result.Status)
		require.Len(t, result.Messages, 2)
		assert.Equal(t, domain.RawStructured, result.Messages[0].Kind)
		assert.Equal(t, domain.RawText, result.Messages[1].Kind)
	})

	t.Run("空收件箱返回 empty 状态", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"messages":[]}`))
		}))
		defer server.Close()

		client := newTestClient(t, server.URL)
		result := client.FetchInbox(context.Background(), "user@example.com")

		assert.Equal(t, StatusEmpty, result.Status)
		assert.Empty(t, result.Messages)
	})

	t.Run("非 200 返回 error 状态而不抛错", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer server.Close()

		client := newTestClient(t, server.URL)
		result := client.FetchInbox(context.Background(), "user@example.com")

		assert.Equal(t, StatusError, result.Status)
		assert.Empty(t, result.Messages)
		assert.NotEmpty(t, result.ErrorDetail)
	})

	t.Run("传输失败返回 error 状态", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		server.Close() // 立刻关掉，制造连接失败

		client := newTestClient(t, server.URL)
		result := client.FetchInbox(context.Background(), "user@example.com")

		assert.Equal(t, StatusError, result.Status)
		assert.NotEmpty(t, result.ErrorDetail)
	})
}

func TestApplyPrefix(t *testing.T) {
	assert.Equal(t, "p_a@b.c", applyPrefix("p", "a@b.c"))
	assert.Equal(t, "no-at-sign", applyPrefix("p", "no-at-sign"))
}
