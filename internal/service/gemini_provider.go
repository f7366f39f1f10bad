package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const defaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// geminiTokenModelHint 用于估算 Gemini 的令牌消耗，接口本身不回传用量。
const geminiTokenModelHint = "gpt-4"

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type geminiGenerateRequest struct {
	Contents         []geminiContent        `json:"contents"`
	GenerationConfig geminiGenerationConfig `json:"generationConfig"`
}

type geminiGenerateResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// GeminiProvider 通过 generateContent 接口调用 Google Gemini 生成内容。
// 该接口不区分 system/user 角色，调用前需把两段指令拼接为单条提示。
type GeminiProvider struct {
	apiKey    string
	model     string
	baseURL   string
	http      httpDoer
	estimator TokenEstimator
}

// NewGeminiProvider 构造 GeminiProvider，API Key 缺失会立刻返回 ErrAPIKeyMissing。
func NewGeminiProvider(apiKey, model string, estimator TokenEstimator) (*GeminiProvider, error) {
	key := strings.TrimSpace(apiKey)
	if key == "" {
		return nil, ErrAPIKeyMissing
	}
	if estimator == nil {
		estimator = NewTokenEstimator()
	}

	return &GeminiProvider{
		apiKey:    key,
		model:     strings.TrimSpace(model),
		baseURL:   defaultGeminiBaseURL,
		http:      &http.Client{Timeout: providerCallTimeout},
		estimator: estimator,
	}, nil
}

// SetHTTPClient 覆盖默认 HTTP 客户端，主要用于测试。
func (p *GeminiProvider) SetHTTPClient(client httpDoer) {
	if client == nil {
		p.http = &http.Client{Timeout: providerCallTimeout}
		return
	}
	p.http = client
}

// SetBaseURL 覆盖默认的 Gemini API 地址。
func (p *GeminiProvider) SetBaseURL(base string) {
	trimmed := strings.TrimRight(strings.TrimSpace(base), "/")
	if trimmed == "" {
		return
	}
	p.baseURL = trimmed
}

// Name 返回服务商标识。
func (p *GeminiProvider) Name() string {
	return AIProviderGemini
}

// Generate 把 system 指令与用户请求拼成单条提示调用模型。
// 令牌用量由 TokenEstimator 对提示与输出估算得出。
func (p *GeminiProvider) Generate(ctx context.Context, systemPrompt, userPrompt string) (ProviderOutput, error) {
	fullPrompt := fmt.Sprintf("%s\n\nUser Request: %s", strings.TrimSpace(systemPrompt), userPrompt)

	payload := geminiGenerateRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: fullPrompt}}}},
		GenerationConfig: geminiGenerationConfig{
			Temperature:     generationTemperature,
			MaxOutputTokens: generationMaxTokens,
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return ProviderOutput{}, providerFailure(p.Name(), "encode request: %v", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent", p.baseURL, p.model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return ProviderOutput{}, providerFailure(p.Name(), "build request: %v", err)
	}
	httpReq.Header.Set("x-goog-api-key", p.apiKey)
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

	var generated geminiGenerateResponse
	if err := json.Unmarshal(respBody, &generated); err != nil {
		return ProviderOutput{}, providerFailure(p.Name(), "decode response: %v", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		errMsg := strings.TrimSpace(generated.Error.Message)
		if errMsg == "" {
			errMsg = resp.Status
		}
		return ProviderOutput{}, providerFailure(p.Name(), "api error: %s", errMsg)
	}

	if len(generated.Candidates) == 0 || len(generated.Candidates[0].Content.Parts) == 0 {
		return ProviderOutput{}, providerFailure(p.Name(), "no candidates returned")
	}

	var textBuilder strings.Builder
	for _, part := range generated.Candidates[0].Content.Parts {
		textBuilder.WriteString(part.Text)
	}
	text := strings.TrimSpace(textBuilder.String())
	if text == "" {
		return ProviderOutput{}, providerFailure(p.Name(), "empty candidate text")
	}

	tokens := p.estimator.Estimate(fullPrompt+text, geminiTokenModelHint)

	return ProviderOutput{Text: text, Tokens: tokens}, nil
}
