package service

import (
	"context"
	"errors"
	"fmt"
	"log"
)

// ErrQuotaExceeded 表示组织的令牌配额已用尽，生成在任何外部调用之前被拒绝。
var ErrQuotaExceeded = errors.New("token quota exceeded")

// GenerationRequest 描述一次生成调用的全部输入。
// TokensAvailable 由调用方注入，编排器自身不读取订阅数据。
type GenerationRequest struct {
	Platform        string
	Tone            string
	Audience        string
	Prompt          string
	Provider        string
	TokensAvailable int
}

// GenerationResult 是一次成功生成的归一化结果，Provider 为实际使用的服务商。
type GenerationResult struct {
	Text     string
	Tokens   int
	Provider string
}

// Orchestrator 在两个 Provider 之上实现服务商选择、配额前置校验与失败回退。
// 它不做任何持久化，落库由 VersionLedger 负责。
type Orchestrator struct {
	primary   Provider
	secondary Provider
}

// NewOrchestrator 构造 Orchestrator，primary 是未指定服务商时的默认选择。
func NewOrchestrator(primary, secondary Provider) (*Orchestrator, error) {
	if primary == nil || secondary == nil {
		return nil, errors.New("orchestrator requires two providers")
	}
	return &Orchestrator{primary: primary, secondary: secondary}, nil
}

// Generate 执行一次生成：先校验配额，再调用请求的服务商，
// 失败时用相同的提示词回退到另一个服务商，最多两次外部调用。
// 两次都失败时返回回退方的错误，首次失败仅记录日志。
func (o *Orchestrator) Generate(ctx context.Context, req GenerationRequest) (GenerationResult, error) {
	if req.TokensAvailable <= 0 {
		return GenerationResult{}, fmt.Errorf("%w: no tokens available", ErrQuotaExceeded)
	}

	systemPrompt, userMessage := BuildPrompt(req.Platform, req.Tone, req.Audience, req.Prompt)
	logAIExchange("generate", "user prompt", userMessage)

	first, second := o.pick(req.Provider)

	output, err := first.Generate(ctx, systemPrompt, userMessage)
	if err == nil {
		logAIExchange("generate", "response "+first.Name(), output.Text)
		return GenerationResult{Text: output.Text, Tokens: output.Tokens, Provider: first.Name()}, nil
	}

	log.Printf("[AI generate] %s failed: %v, falling back to %s", first.Name(), err, second.Name())

	output, fallbackErr := second.Generate(ctx, systemPrompt, userMessage)
	if fallbackErr != nil {
		return GenerationResult{}, fallbackErr
	}

	logAIExchange("generate", "response "+second.Name(), output.Text)
	return GenerationResult{Text: output.Text, Tokens: output.Tokens, Provider: second.Name()}, nil
}

// pick 按请求选择首选服务商，未知或缺省时使用 primary；另一个作为回退方。
func (o *Orchestrator) pick(requested string) (first, second Provider) {
	if normalizeAIProvider(requested) == o.secondary.Name() {
		return o.secondary, o.primary
	}
	return o.primary, o.secondary
}
