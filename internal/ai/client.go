// 包 ai：把客户端网络画像交给 OpenAI 兼容接口做流式分析，并原样转发事件流
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/renleihaokun/cancanneed-network/internal/logger"
	"github.com/renleihaokun/cancanneed-network/internal/metrics"
)

const systemPrompt = "你是一位资深网络分析师。根据给出的客户端网络信息（IP、接入节点、ASN、运营商、时延），" +
	"用简洁的中文给出两三段分析：网络类型与质量判断、可能的使用场景、一条改善建议。不要编造数据。"

// Client：chat-completions 上游的流式客户端
type Client struct {
	endpoint string
	key      string
	model    string
	hc       *http.Client
}

type request struct {
	Model    string    `json:"model"`
	Stream   bool      `json:"stream"`
	Messages []message `json:"messages"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// NewFromEnv：按环境变量构建客户端
// 环境变量：AI_API_KEY（必填，缺失返回 nil 表示功能关闭）、AI_ENDPOINT、AI_MODEL、AI_TIMEOUT_S。
// 约束：超时覆盖整个流式响应周期，慢生成场景不宜设置过短。
func NewFromEnv() *Client {
	key := os.Getenv("AI_API_KEY")
	if key == "" {
		return nil
	}
	endpoint := os.Getenv("AI_ENDPOINT")
	if endpoint == "" {
		endpoint = "https://api.openai.com/v1/chat/completions"
	}
	model := os.Getenv("AI_MODEL")
	if model == "" {
		model = "gpt-4o-mini"
	}
	timeout := 60
	if s := os.Getenv("AI_TIMEOUT_S"); s != "" {
		if n, e := strconv.Atoi(s); e == nil && n > 0 {
			timeout = n
		}
	}
	return &Client{
		endpoint: endpoint,
		key:      key,
		model:    model,
		hc:       &http.Client{Timeout: time.Duration(timeout) * time.Second},
	}
}

// Stream：发起流式分析并把上游 SSE 字节流转发给 w
// 背景：请求体携带网络画像文本，stream=true；上游每个数据块到达即写出并 Flush，
// 客户端断开由 ctx 取消传导到上游连接。
// 返回：首包之前的失败返回 error（由调用方转成一条 SSE 错误事件）；
// 转发中途的错误只能记日志，响应已经在路上。
func (c *Client) Stream(ctx context.Context, profile string, w http.ResponseWriter) error {
	body := request{
		Model:  c.model,
		Stream: true,
		Messages: []message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: profile},
		},
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal upstream request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build upstream request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.key)
	req.Header.Set("Content-Type", "application/json")

	t0 := time.Now()
	metrics.AIRequestsTotal.Inc()
	resp, err := c.hc.Do(req)
	if err != nil {
		metrics.AIFailTotal.Inc()
		return fmt.Errorf("call upstream: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		metrics.AIFailTotal.Inc()
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("upstream http %s: %s", resp.Status, string(b))
	}

	fl, _ := w.(http.Flusher)
	buf := make([]byte, 4096)
	for {
		n, rerr := resp.Body.Read(buf)
		if n > 0 {
			if _, werr := w.Write(buf[:n]); werr != nil {
				logger.L().Debug("ai_client_gone", "err", werr)
				break
			}
			if fl != nil {
				fl.Flush()
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			metrics.AIFailTotal.Inc()
			logger.L().Error("ai_stream_error", "err", rerr)
			break
		}
	}
	dur := time.Since(t0).Milliseconds()
	metrics.AIDurationMs.Observe(float64(dur))
	logger.L().Debug("ai_stream_done", "duration_ms", dur)
	return nil
}
