package document

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"

	"sow-reviewer/internal/domain/entity"
)

var (
	tokenEncoder *tiktoken.Tiktoken
	encoderOnce  sync.Once
	encoderErr   error
)

func initTokenEncoder() error {
	encoderOnce.Do(func() {
		tokenEncoder, encoderErr = tiktoken.GetEncoding("cl100k_base")
	})
	return encoderErr
}

// CountTokens counts cl100k_base tokens, estimating when the encoder is unavailable.
func CountTokens(text string) int {
	if err := initTokenEncoder(); err != nil {
		return estimateTokens(text)
	}
	return len(tokenEncoder.Encode(text, nil, nil))
}

// TruncateTokens keeps the first maxTokens tokens of text.
func TruncateTokens(text string, maxTokens int) (string, bool) {
	if maxTokens <= 0 {
		return text, false
	}

	if err := initTokenEncoder(); err != nil {
		maxChars := maxTokens * 4
		if len(text) <= maxChars {
			return text, false
		}
		return entity.CutUTF8(text, maxChars), true
	}

	tokens := tokenEncoder.Encode(text, nil, nil)
	if len(tokens) <= maxTokens {
		return text, false
	}
	return entity.TrimPartialRune(tokenEncoder.Decode(tokens[:maxTokens])), true
}

func estimateTokens(text string) int {
	return (len(text) + 3) / 4
}
