package gateway

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"mailpanel/backend/internal/domain"
)

// 抓取结果状态
const (
	StatusOK    = "ok"
	StatusEmpty = "no_messages"
	StatusError = "error"
)

// generatePayload 地址生成请求体。外部服务按 ids 组合返回不同风格
// 的地址，从功能最全到最保守依次尝试。
type generatePayload struct {
	IDs []int `json:"ids"`
}

var generateStrategies = []generatePayload{
	{IDs: []int{1, 2, 3}},
	{IDs: []int{2, 3}},
	{IDs: []int{1}},
}

// GenerateResult 地址生成结果。
type GenerateResult struct {
	Email        string
	UsedFallback bool
}

// InboxResult 收件箱抓取结果。
//
// 抓取失败不抛错：返回空消息加 error 状态，调用方必须能区分
// "没有邮件"与"抓取失败"。
type InboxResult struct {
	Messages    []domain.RawMessage
	Status      string
	ErrorDetail string
}

// Config 网关客户端配置。
type Config struct {
	BaseURL         string
	GenerateTimeout time.Duration
	InboxTimeout    time.Duration
	FallbackDomain  string
	RatePerSecond   float64
	RateBurst       int
}

// Client 外部邮件网关客户端。
//
// 只负责和第三方生成/收件服务对话，并把异构响应解成带标签的
// RawMessage 变体；字段归一化是 ingest 包的事。
type Client struct {
	baseURL        string
	fallbackDomain string
	generateClient *http.Client
	inboxClient    *http.Client
	limiter        *rate.Limiter
	log            *zap.Logger
}

// New 创建网关客户端。
func New(cfg Config, log *zap.Logger) *Client {
	if cfg.RatePerSecond <= 0 {
		cfg.RatePerSecond = 4
	}
	if cfg.RateBurst <= 0 {
		cfg.RateBurst = 2
	}

	return &Client{
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		fallbackDomain: cfg.FallbackDomain,
		generateClient: &http.Client{Timeout: cfg.GenerateTimeout},
		inboxClient:    &http.Client{Timeout: cfg.InboxTimeout},
		limiter:        rate.NewLimiter(rate.Limit(cfg.RatePerSecond), cfg.RateBurst),
		log:            log,
	}
}

// Generate 生成一次性邮箱地址。
//
// 依次尝试策略列表，任何传输错误、非 200 状态或畸形响应体都一视
// 同仁地跳到下一个策略。全部失败时本地合成兜底地址，这不是错误
// 路径，结果以 UsedFallback=true 标记。自定义前缀在生成成功之后
// 统一拼接，因此对所有策略和兜底地址行为一致。
func (c *Client) Generate(ctx context.Context, prefix string) (*GenerateResult, error) {
	email := ""
	for _, strategy := range generateStrategies {
		candidate, err := c.tryGenerate(ctx, strategy)
		if err != nil {
			c.log.Debug("generation strategy failed",
				zap.Ints("ids", strategy.IDs),
				zap.Error(err),
			)
			continue
		}
		email = candidate
		break
	}

	usedFallback := false
	if email == "" {
		email = c.fallbackAddress()
		usedFallback = true
		c.log.Warn("all generation strategies failed, using local fallback",
			zap.String("email", email),
		)
	}

	if prefix != "" {
		email = applyPrefix(prefix, email)
	}

	return &GenerateResult{Email: email, UsedFallback: usedFallback}, nil
}

func (c *Client) tryGenerate(ctx context.Context, strategy generatePayload) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}

	body, err := json.Marshal(strategy)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/email/generate", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	setBrowserHeaders(req)

	resp, err := c.generateClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("gateway status %d", resp.StatusCode)
	}

	var payload struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("decode generate response: %w", err)
	}
	if payload.Email == "" {
		return "", fmt.Errorf("generate response missing email")
	}
	return payload.Email, nil
}

// fallbackAddress 本地合成兜底地址。
func (c *Client) fallbackAddress() string {
	sum := md5.Sum([]byte(uuid.NewString()))
	return hex.EncodeToString(sum[:])[:10] + "@" + c.fallbackDomain
}

// applyPrefix 把自定义前缀拼入本地部分："p" + "a@b" -> "p_a@b"。
func applyPrefix(prefix, email string) string {
	at := strings.Index(email, "@")
	if at < 0 {
		return email
	}
	return prefix + "_" + email[:at] + email[at:]
}

// FetchInbox 抓取地址的收件箱。
//
// 每次调用发一个请求；非 200 或传输失败时返回空消息集加 error
// 状态而不是抛错。请求处理线程绝不能被外部服务挂死，超时由
// http.Client 的固定预算兜底。
func (c *Client) FetchInbox(ctx context.Context, email string) InboxResult {
	if err := c.limiter.Wait(ctx); err != nil {
		return InboxResult{Messages: nil, Status: StatusError, ErrorDetail: err.Error()}
	}

	body, err := json.Marshal(map[string]string{"email": email})
	if err != nil {
		return InboxResult{Messages: nil, Status: StatusError, ErrorDetail: err.Error()}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/email/inbox", bytes.NewReader(body))
	if err != nil {
		return InboxResult{Messages: nil, Status: StatusError, ErrorDetail: err.Error()}
	}
	setBrowserHeaders(req)

	resp, err := c.inboxClient.Do(req)
	if err != nil {
		c.log.Warn("inbox fetch failed", zap.String("email", email), zap.Error(err))
		return InboxResult{Messages: nil, Status: StatusError, ErrorDetail: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail := fmt.Sprintf("gateway status %d", resp.StatusCode)
		c.log.Warn("inbox fetch rejected", zap.String("email", email), zap.String("detail", detail))
		return InboxResult{Messages: nil, Status: StatusError, ErrorDetail: detail}
	}

	var payload struct {
		Messages []domain.RawMessage `json:"messages"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return InboxResult{Messages: nil, Status: StatusError, ErrorDetail: err.Error()}
	}

	if len(payload.Messages) == 0 {
		return InboxResult{Messages: nil, Status: StatusEmpty}
	}
	return InboxResult{Messages: payload.Messages, Status: StatusOK}
}

// setBrowserHeaders 设置上游服务要求的浏览器式请求头。
func setBrowserHeaders(req *http.Request) {
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Origin", "https://www.emailnator.com")
	req.Header.Set("Referer", "https://www.emailnator.com/")
}
