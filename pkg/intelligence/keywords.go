package intelligence

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/luminalabs/personamem-go/pkg/llm"
)

const keywordPromptTemplate = `Given this memory content: "%s"

Extract up to 5 relevant keywords that capture the main topics and themes.
Return only a JSON array of keyword strings.

Example: ["keyword1", "keyword2", "keyword3"]`

// KeywordExtractor pulls searchable keywords out of memory text via an LLM.
type KeywordExtractor struct {
	provider llm.Provider
	logger   *zap.Logger
}

// NewKeywordExtractor creates a keyword extractor. A nil logger discards logs.
func NewKeywordExtractor(provider llm.Provider, logger *zap.Logger) *KeywordExtractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &KeywordExtractor{
		provider: provider,
		logger:   logger,
	}
}

// Extract returns up to five keywords for the content. An unparseable
// response produces an empty list; the returned error reports a failed
// model call only, so callers can treat the result as transient rather
// than definitive.
func (e *KeywordExtractor) Extract(ctx context.Context, content string) ([]string, error) {
	prompt := fmt.Sprintf(keywordPromptTemplate, content)

	response, err := e.provider.Generate(ctx, prompt,
		llm.WithTemperature(0.3),
		llm.WithMaxTokens(100),
	)
	if err != nil {
		e.logger.Debug("keyword extraction unavailable", zap.Error(err))
		return nil, err
	}

	var keywords []string
	if err := json.Unmarshal([]byte(stripCodeFences(response)), &keywords); err != nil {
		e.logger.Debug("keyword extraction response unusable",
			zap.String("response", response))
		return nil, nil
	}

	out := keywords[:0]
	for _, kw := range keywords {
		if kw != "" {
			out = append(out, kw)
		}
	}
	return out, nil
}
