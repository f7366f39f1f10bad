package service

import (
	"log"

	"github.com/pkoukk/tiktoken-go"
)

// TokenEstimator 估算一段文本的令牌消耗，modelHint 用于选择编码器。
// 实现必须保证返回非负整数且绝不 panic。
type TokenEstimator interface {
	Estimate(text, modelHint string) int
}

// tiktokenEstimator 优先使用模型对应的子词编码器，失败时退回按长度估算。
type tiktokenEstimator struct{}

// NewTokenEstimator 构造默认的 TokenEstimator。
func NewTokenEstimator() TokenEstimator {
	return tiktokenEstimator{}
}

// Estimate 统计 text 的令牌数。未知模型或编码器不可用时退回 estimateByLength。
func (tiktokenEstimator) Estimate(text, modelHint string) int {
	if text == "" {
		return 0
	}

	encoding, err := tiktoken.EncodingForModel(modelHint)
	if err != nil {
		log.Printf("[AI tokens] encoding for model %q unavailable: %v, using length estimate", modelHint, err)
		return estimateByLength(text)
	}

	return len(encoding.Encode(text, nil, nil))
}

// estimateByLength 是兜底估算：约每 4 个字节一个令牌，向上取整。
func estimateByLength(text string) int {
	if len(text) == 0 {
		return 0
	}
	return (len(text) + 3) / 4
}
