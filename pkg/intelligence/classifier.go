// Package intelligence derives retrieval signals from memory text: topic
// classification against the taxonomy and keyword extraction.
//
// Both derivations call an LLM and treat its failures as soft. A broken or
// unparseable response yields an empty signal, never an error, so memory
// creation and search degrade instead of failing when the model is down.
package intelligence

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/luminalabs/personamem-go/pkg/llm"
	"github.com/luminalabs/personamem-go/pkg/topics"
)

// ParseSource records which parser produced a classification.
type ParseSource string

const (
	// ParsedOK means the response parsed as the requested JSON array.
	ParsedOK ParseSource = "parsed"

	// ParsedFallback means the line-oriented fallback parser salvaged
	// topic paths from a malformed response.
	ParsedFallback ParseSource = "fallback"

	// ParsedEmpty means nothing usable came back.
	ParsedEmpty ParseSource = "empty"
)

// Classification is the outcome of classifying one memory text.
type Classification struct {
	// TopicIDs are the resolved taxonomy topic ids, deduplicated in
	// first-seen order.
	TopicIDs []string

	// Source records which parser produced the ids.
	Source ParseSource
}

const classifyPromptTemplate = `Given this memory content: "%s"

Identify relevant topics from the following hierarchy:

%s

Consider:
- Main category (Entertainment, Hobbies, Social, Daily)
- Specific subcategories
- Related topics

Return a JSON array of topic paths, where each path is an array starting from the main category to the specific topic.
Example: [["Entertainment & Media", "Music", "Genres"], ["Social & Relationships", "Friends"]]

Only return the JSON array, no other text.`

// Classifier maps memory text onto taxonomy topics via an LLM.
type Classifier struct {
	provider  llm.Provider
	hierarchy *topics.Hierarchy
	logger    *zap.Logger
}

// NewClassifier creates a topic classifier. A nil logger discards logs.
func NewClassifier(provider llm.Provider, hierarchy *topics.Hierarchy, logger *zap.Logger) *Classifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Classifier{
		provider:  provider,
		hierarchy: hierarchy,
		logger:    logger,
	}
}

// Classify asks the LLM which taxonomy topics the content touches and
// resolves the answer to topic ids. The strict parser expects a JSON array
// of name paths; when that fails a permissive line parser runs instead,
// and a response neither parser can use degrades to an empty
// classification. The returned error reports a failed model call only, so
// callers can treat the result as transient rather than definitive.
func (c *Classifier) Classify(ctx context.Context, content string) (Classification, error) {
	prompt := fmt.Sprintf(classifyPromptTemplate, content, c.hierarchy.Outline())

	response, err := c.provider.Generate(ctx, prompt,
		llm.WithTemperature(0.3),
		llm.WithMaxTokens(200),
	)
	if err != nil {
		c.logger.Debug("topic classification unavailable", zap.Error(err))
		return Classification{Source: ParsedEmpty}, err
	}

	cleaned := stripCodeFences(response)

	var paths [][]string
	if err := json.Unmarshal([]byte(cleaned), &paths); err == nil {
		return Classification{
			TopicIDs: c.resolvePaths(paths),
			Source:   ParsedOK,
		}, nil
	}

	paths = parseFallbackPaths(cleaned)
	if len(paths) == 0 {
		c.logger.Debug("topic classification response unusable",
			zap.String("response", response))
		return Classification{Source: ParsedEmpty}, nil
	}
	return Classification{
		TopicIDs: c.resolvePaths(paths),
		Source:   ParsedFallback,
	}, nil
}

// resolvePaths maps topic names to ids, skipping names the taxonomy does
// not know and deduplicating in first-seen order.
func (c *Classifier) resolvePaths(paths [][]string) []string {
	var ids []string
	seen := make(map[string]bool)
	for _, path := range paths {
		for _, name := range path {
			id := c.hierarchy.IDByName(strings.TrimSpace(name))
			if id == "" || seen[id] {
				continue
			}
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids
}

// parseFallbackPaths recovers topic paths from a response that is not valid
// JSON: lines containing "->" become name paths, other non-bracket lines
// become single-name paths.
func parseFallbackPaths(response string) [][]string {
	var paths [][]string
	for _, line := range strings.Split(response, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.Contains(line, "->") {
			parts := strings.Split(line, "->")
			path := make([]string, 0, len(parts))
			for _, part := range parts {
				path = append(path, strings.TrimSpace(part))
			}
			paths = append(paths, path)
			continue
		}
		if strings.HasPrefix(line, "[") || strings.HasPrefix(line, "]") {
			continue
		}
		paths = append(paths, []string{line})
	}
	return paths
}

// stripCodeFences removes ```json fences models wrap JSON answers in.
func stripCodeFences(response string) string {
	response = strings.ReplaceAll(response, "```json", "")
	response = strings.ReplaceAll(response, "```", "")
	return strings.TrimSpace(response)
}
