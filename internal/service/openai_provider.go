package service

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultOpenAIBaseURL = "https://api.openai.com/v1"

	// 生成社交文案使用固定的采样参数与输出上限。
	generationTemperature = 0.7
	generationMaxTokens   = 500

	providerCallTimeout = 30 * time.Second
)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature,omitempty"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// OpenAIProvider 通过 chat completions 接口调用 OpenAI 生成内容。
type OpenAIProvider struct {
	apiKey  string
	model   string
	baseURL string
	http    httpDoer
}

// NewOpenAIProvider 构造 OpenAIProvider，API Key 缺失会立刻返回 ErrAPIKeyMissing。
func NewOpenAIProvider(apiKey, model string) (*OpenAIProvider, error) {
	key := strings.TrimSpace(apiKey)
	if key == "" {
		return nil, ErrAPIKeyMissing
	}

	return &OpenAIProvider{
		apiKey:  key,
		model:   strings.TrimSpace(model),
		baseURL: defaultOpenAIBaseURL,
		http:    &http.Client{Timeout: providerCallTimeout},
	}, nil
}

// SetHTTPClient 覆盖默认 HTTP 客户端，主要用于测试。
func (p *OpenAIProvider) SetHTTPClient(client httpDoer) {
	if client == nil {
		p.http = &http.Client{Timeout: providerCallTimeout}
		return
	}
	p.http = client
}

// SetBaseURL 覆盖默认的 OpenAI API 地址。
func (p *OpenAIProvider) SetBaseURL(base string) {
	trimmed := strings.TrimRight(strings.TrimSpace(base), "/")
	if trimmed == "" {
		return
	}
	p.baseURL = trimmed
}

// Name 返回服务商标识。
func (p *OpenAIProvider) Name() string {
	return AIProviderOpenAI
}

// Generate 以 system+user 双角色消息调用模型，返回修剪后的文本与服务商上报的令牌用量。
func (p *OpenAIProvider) Generate(ctx context.Context, systemPrompt, userPrompt string) (ProviderOutput, error) {
	payload := chatCompletionRequest{
		Model: p.model,
		Messages: []chatMessage{
			{Role: "system", Content: strings.TrimSpace(systemPrompt)},
			{Role: "user", Content: userPrompt},
		},
		MaxTokens:   generationMaxTokens,
		Temperature: generationTemperature,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return ProviderOutput{}, providerFailure(p.Name(), "encode request: %v", err)
	}

	endpoint := p.baseURL + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return ProviderOutput{}, providerFailure(p.Name(), "build request: %v", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", "postcraft-ai/1.0")

	resp, err := p.http.Do(httpReq)
	if err != nil {
		return ProviderOutput{}, providerFailure(p.Name(), "request failed: %v", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return ProviderOutput{}, providerFailure(p.Name(), "read response: %v", err)
	}

	var completion chatCompletionResponse
	if err := json.Unmarshal(respBody, &completion); err != nil {
		return ProviderOutput{}, providerFailure(p.Name(), "decode response: %v", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		errMsg := strings.TrimSpace(completion.Error.Message)
		if errMsg == "" {
			errMsg = resp.Status
		}
		return ProviderOutput{}, providerFailure(p.Name(), "api error: %s", errMsg)
	}

	if len(completion.Choices) == 0 {
		return ProviderOutput{}, providerFailure(p.Name(), "no choices returned")
	}

	tokens := completion.Usage.TotalTokens
	if tokens == 0 {
		tokens = completion.Usage.PromptTokens + completion.Usage.CompletionTokens
	}

	return ProviderOutput{
		Text:   strings.TrimSpace(completion.Choices[0].Message.Content),
		Tokens: tokens,
	}, nil
}
