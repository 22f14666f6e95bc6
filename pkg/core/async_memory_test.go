package core_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luminalabs/personamem-go/pkg/core"
	"github.com/luminalabs/personamem-go/pkg/graph"
	"github.com/luminalabs/personamem-go/pkg/store"
)

type asyncFixture struct {
	client     *core.AsyncClient
	store      *recordingStore
	model      *scriptedModel
	vectorizer *scriptedVectorizer
}

func newAsyncFixture(t *testing.T) *asyncFixture {
	t.Helper()

	recording := &recordingStore{}
	model := &scriptedModel{
		topicResponse:   `[["Entertainment & Media", "Music"]]`,
		keywordResponse: `["guitar", "practice"]`,
	}
	vectorizer := &scriptedVectorizer{fallback: []float64{1, 0, 0}, dims: 3}

	client, err := core.NewAsyncClient(testConfig(),
		core.WithStore(recording),
		core.WithLLMProvider(model),
		core.WithEmbedderProvider(vectorizer),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	return &asyncFixture{client: client, store: recording, model: model, vectorizer: vectorizer}
}

func TestCreateMemoryAsyncDeliversResult(t *testing.T) {
	fx := newAsyncFixture(t)

	resultChan := fx.client.CreateMemoryAsync(context.Background(), "persona_mira",
		"Tried paddleboarding for the first time", graph.NodeTypeActivity,
		core.WithImportance(0.7))

	result := <-resultChan
	require.NotNil(t, result)
	require.NoError(t, result.Error)
	require.NotNil(t, result.Memory)
	assert.Equal(t, "mem_1", result.Memory.ID)
	assert.InDelta(t, 0.7, result.Memory.Importance, 1e-9)

	_, open := <-resultChan
	assert.False(t, open, "result channel closes after delivery")
}

func TestSearchAsyncDeliversResults(t *testing.T) {
	fx := newAsyncFixture(t)
	fx.store.scored = []*store.ScoredMemory{
		{
			Memory:     &store.Memory{ID: "mem_3", Content: "Paddled across the bay", Type: "activity"},
			FinalScore: 0.8,
		},
	}

	resultChan := fx.client.SearchAsync(context.Background(), "water sports",
		core.WithPersonaID("persona_mira"))

	result := <-resultChan
	require.NotNil(t, result)
	require.NoError(t, result.Error)
	require.Len(t, result.Results, 1)
	assert.Equal(t, "mem_3", result.Results[0].Memory.ID)

	_, open := <-resultChan
	assert.False(t, open)
}

func TestGetMemoriesAsyncDeliversResults(t *testing.T) {
	fx := newAsyncFixture(t)
	fx.store.listed = []*store.Memory{
		{ID: "mem_5", PersonaID: "persona_mira", Content: "Watched the regatta", Type: "activity"},
	}

	resultChan := fx.client.GetMemoriesAsync(context.Background(), "persona_mira", 10)

	result := <-resultChan
	require.NotNil(t, result)
	require.NoError(t, result.Error)
	require.Len(t, result.Memories, 1)
	assert.Equal(t, "Watched the regatta", result.Memories[0].Content)

	_, open := <-resultChan
	assert.False(t, open)
}

func TestClearPersonaMemoriesAsync(t *testing.T) {
	fx := newAsyncFixture(t)

	errChan := fx.client.ClearPersonaMemoriesAsync(context.Background(), "persona_mira")
	require.NoError(t, <-errChan)
	assert.Equal(t, []string{"persona_mira"}, fx.store.deleted)

	_, open := <-errChan
	assert.False(t, open)
}

func TestAsyncWaitCoversAllOperations(t *testing.T) {
	fx := newAsyncFixture(t)
	ctx := context.Background()

	contents := []string{
		"Ran the coastal loop before work",
		"Found a secondhand poetry collection",
		"Burned the garlic twice making dinner",
		"Called her sister about the trip",
		"Fixed the squeaky pedal on her bike",
	}

	channels := make([]<-chan *core.MemoryResult, 0, len(contents))
	for _, content := range contents {
		channels = append(channels,
			fx.client.CreateMemoryAsync(ctx, "persona_mira", content, graph.NodeTypeActivity))
	}

	fx.client.Wait()

	// After Wait every result is already buffered.
	for _, resultChan := range channels {
		result := <-resultChan
		require.NoError(t, result.Error)
		require.NotNil(t, result.Memory)
	}
	assert.Len(t, fx.store.created, len(contents))
	assert.Equal(t, len(contents), fx.client.Graph("persona_mira").Len())
}

func TestAsyncCloseWaitsForInFlightWork(t *testing.T) {
	fx := newAsyncFixture(t)

	resultChan := fx.client.CreateMemoryAsync(context.Background(), "persona_mira",
		"Signed up for a pottery class", graph.NodeTypeActivity)

	require.NoError(t, fx.client.Close())

	result := <-resultChan
	require.NoError(t, result.Error)
	require.NotNil(t, result.Memory)
	assert.True(t, fx.store.closed)
	assert.Len(t, fx.store.created, 1)
}
