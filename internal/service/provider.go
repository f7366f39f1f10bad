package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// 支持的 AI 服务商标识。
const (
	// AIProviderOpenAI 表示使用 OpenAI 能力。
	AIProviderOpenAI = "openai"
	// AIProviderGemini 表示使用 Google Gemini 能力。
	AIProviderGemini = "gemini"
)

var supportedAIProviders = []string{AIProviderOpenAI, AIProviderGemini}

// ErrAPIKeyMissing 表示未提供必需的 AI 服务商 API Key，属于构造期配置错误。
var ErrAPIKeyMissing = errors.New("api key is required")

// ProviderError 表示一次外部模型调用失败，包含服务商名与简短诊断。
// 它在编排层触发回退，不会作为未捕获故障继续向外传播。
type ProviderError struct {
	Provider string
	Message  string
}

// Error 实现 error 接口。
func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}

// ProviderOutput 是单次生成调用的归一化结果。
type ProviderOutput struct {
	Text   string
	Tokens int
}

// Provider 抽象一次外部模型的生成调用。
// 实现必须把所有调用失败收敛为 *ProviderError，绝不 panic。
type Provider interface {
	Name() string
	Generate(ctx context.Context, systemPrompt, userPrompt string) (ProviderOutput, error)
}

type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// normalizeAIProvider 将外部输入归一化为受支持的服务商标识，未知值返回空串。
func normalizeAIProvider(provider string) string {
	normalized := strings.ToLower(strings.TrimSpace(provider))
	for _, candidate := range supportedAIProviders {
		if normalized == candidate {
			return candidate
		}
	}
	return ""
}

func providerFailure(provider string, format string, args ...interface{}) *ProviderError {
	return &ProviderError{Provider: provider, Message: fmt.Sprintf(format, args...)}
}
