package intelligence_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luminalabs/personamem-go/pkg/intelligence"
)

func TestExtractKeywords(t *testing.T) {
	provider := &fakeProvider{response: `["pasta", "dinner", "recipe"]`}
	extractor := intelligence.NewKeywordExtractor(provider, nil)

	keywords, err := extractor.Extract(context.Background(), "tried a new pasta recipe for dinner")
	require.NoError(t, err)
	assert.Equal(t, []string{"pasta", "dinner", "recipe"}, keywords)

	require.Len(t, provider.prompts, 1)
	assert.Contains(t, provider.prompts[0], "tried a new pasta recipe for dinner")
}

func TestExtractKeywordsStripsCodeFences(t *testing.T) {
	provider := &fakeProvider{response: "```json\n[\"hiking\", \"trail\"]\n```"}
	extractor := intelligence.NewKeywordExtractor(provider, nil)

	keywords, err := extractor.Extract(context.Background(), "hiked the coastal trail")
	require.NoError(t, err)
	assert.Equal(t, []string{"hiking", "trail"}, keywords)
}

func TestExtractKeywordsFiltersEmptyEntries(t *testing.T) {
	provider := &fakeProvider{response: `["run", "", "morning"]`}
	extractor := intelligence.NewKeywordExtractor(provider, nil)

	keywords, err := extractor.Extract(context.Background(), "morning run")
	require.NoError(t, err)
	assert.Equal(t, []string{"run", "morning"}, keywords)
}

func TestExtractKeywordsUnparseableResponse(t *testing.T) {
	provider := &fakeProvider{response: "these are not keywords"}
	extractor := intelligence.NewKeywordExtractor(provider, nil)

	// An unusable response degrades to an empty list, not an error.
	keywords, err := extractor.Extract(context.Background(), "anything")
	require.NoError(t, err)
	assert.Empty(t, keywords)
}

func TestExtractKeywordsModelFailure(t *testing.T) {
	provider := &fakeProvider{err: errors.New("model unavailable")}
	extractor := intelligence.NewKeywordExtractor(provider, nil)

	keywords, err := extractor.Extract(context.Background(), "anything")
	require.Error(t, err)
	assert.Nil(t, keywords)
}
