package sqlite_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luminalabs/personamem-go/pkg/store"
	"github.com/luminalabs/personamem-go/pkg/store/sqlite"
)

func newTestClient(t *testing.T) (*sqlite.Client, string) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "personamem_test.db")
	client, err := sqlite.NewClient(&sqlite.Config{DBPath: dbPath})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close(context.Background()) })
	return client, dbPath
}

// openRaw opens a second connection for row-level assertions.
func openRaw(t *testing.T, dbPath string) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func testMemory(personaID, content string, ts time.Time) *store.Memory {
	return &store.Memory{
		PersonaID:  personaID,
		Content:    content,
		Type:       "activity",
		Importance: 0.5,
		Vector:     []float64{0.5, 0.5},
		Timestamp:  ts,
	}
}

func TestCreatePersonaUpsert(t *testing.T) {
	client, dbPath := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, client.CreatePersona(ctx, "p1", "Mira", `{"age":29}`))
	require.NoError(t, client.CreatePersona(ctx, "p1", "Mira Chen", `{"age":30}`))

	db := openRaw(t, dbPath)
	var name, profile string
	require.NoError(t, db.QueryRow(
		`SELECT name, profile FROM personas WHERE id = ?`, "p1").Scan(&name, &profile))
	assert.Equal(t, "Mira Chen", name)
	assert.Equal(t, `{"age":30}`, profile)

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM personas`).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestCreateMemoryAndGetMemories(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()

	base := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	oldest := testMemory("p1", "first memory", base)
	middle := testMemory("p1", "second memory", base.Add(time.Minute))
	newest := testMemory("p1", "third memory", base.Add(2*time.Minute))
	newest.Type = "emotion"
	newest.Importance = 0.75
	newest.Keywords = []string{"third", "memory"}
	newest.Metadata = map[string]interface{}{"scene": "park"}

	for _, memory := range []*store.Memory{oldest, middle, newest} {
		id, err := client.CreateMemory(ctx, memory)
		require.NoError(t, err)
		assert.NotEmpty(t, id)
	}

	memories, err := client.GetMemories(ctx, "p1", 10)
	require.NoError(t, err)
	require.Len(t, memories, 3)
	assert.Equal(t, "third memory", memories[0].Content, "results should be newest first")
	assert.Equal(t, "second memory", memories[1].Content)
	assert.Equal(t, "first memory", memories[2].Content)

	// Fields survive the round trip
	got := memories[0]
	assert.Equal(t, "p1", got.PersonaID)
	assert.Equal(t, "emotion", got.Type)
	assert.Equal(t, 0.75, got.Importance)
	assert.Equal(t, []float64{0.5, 0.5}, got.Vector)
	assert.Equal(t, []string{"third", "memory"}, got.Keywords)
	assert.Equal(t, "park", got.Metadata["scene"])
	assert.True(t, got.Timestamp.Equal(base.Add(2*time.Minute)))

	// Limit caps the result count from the newest end
	limited, err := client.GetMemories(ctx, "p1", 2)
	require.NoError(t, err)
	require.Len(t, limited, 2)
	assert.Equal(t, "third memory", limited[0].Content)

	// Unknown personas return nothing
	none, err := client.GetMemories(ctx, "ghost", 10)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestHasMemoryContent(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()

	has, err := client.HasMemoryContent(ctx, "p1", "went swimming")
	require.NoError(t, err)
	assert.False(t, has)

	_, err = client.CreateMemory(ctx, testMemory("p1", "went swimming", time.Now()))
	require.NoError(t, err)

	has, err = client.HasMemoryContent(ctx, "p1", "went swimming")
	require.NoError(t, err)
	assert.True(t, has)

	// The check is scoped per persona
	has, err = client.HasMemoryContent(ctx, "p2", "went swimming")
	require.NoError(t, err)
	assert.False(t, has)
}

func TestGetMemoriesByType(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()

	base := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	activity := testMemory("p1", "went to the gym", base)
	emotion := testMemory("p1", "felt energized", base.Add(time.Minute))
	emotion.Type = "emotion"
	for _, memory := range []*store.Memory{activity, emotion} {
		_, err := client.CreateMemory(ctx, memory)
		require.NoError(t, err)
	}

	emotions, err := client.GetMemoriesByType(ctx, "p1", "emotion", 10)
	require.NoError(t, err)
	require.Len(t, emotions, 1)
	assert.Equal(t, "felt energized", emotions[0].Content)

	none, err := client.GetMemoriesByType(ctx, "p1", "preference", 10)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestGetMemoriesByContent(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()

	base := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	for i, content := range []string{"coffee with Dana", "coffee alone", "tea ceremony"} {
		_, err := client.CreateMemory(ctx, testMemory("p1", content, base.Add(time.Duration(i)*time.Minute)))
		require.NoError(t, err)
	}

	matches, err := client.GetMemoriesByContent(ctx, "p1", "coffee", 10)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "coffee alone", matches[0].Content, "newest match first")

	// Substring matching is case-sensitive
	upper, err := client.GetMemoriesByContent(ctx, "p1", "Coffee", 10)
	require.NoError(t, err)
	assert.Empty(t, upper)
}

func TestLinkMemoryTopic(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()

	id, err := client.CreateMemory(ctx, testMemory("p1", "listened to jazz records", time.Now()))
	require.NoError(t, err)

	require.NoError(t, client.UpsertTopic(ctx, &store.TopicRecord{ID: "sub_music", Name: "Music", Type: "subcategory"}))
	require.NoError(t, client.LinkMemoryTopic(ctx, id, "sub_music"))
	// Linking twice is idempotent
	require.NoError(t, client.LinkMemoryTopic(ctx, id, "sub_music"))

	memories, err := client.GetMemoriesByTopic(ctx, "sub_music", 10)
	require.NoError(t, err)
	require.Len(t, memories, 1)
	assert.Equal(t, "listened to jazz records", memories[0].Content)
	assert.Equal(t, []string{"sub_music"}, memories[0].TopicIDs)

	none, err := client.GetMemoriesByTopic(ctx, "sub_games", 10)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestLinkMemoryRelation(t *testing.T) {
	client, dbPath := newTestClient(t)
	ctx := context.Background()

	sourceID, err := client.CreateMemory(ctx, testMemory("p1", "ran in the rain", time.Now()))
	require.NoError(t, err)
	targetID, err := client.CreateMemory(ctx, testMemory("p1", "caught a cold", time.Now()))
	require.NoError(t, err)

	require.NoError(t, client.LinkMemoryRelation(ctx, targetID, sourceID, "caused_by", 0.7))
	// Re-linking the same pair and type updates the strength in place
	require.NoError(t, client.LinkMemoryRelation(ctx, targetID, sourceID, "caused_by", 0.9))

	db := openRaw(t, dbPath)
	var strength float64
	require.NoError(t, db.QueryRow(
		`SELECT strength FROM memory_relations WHERE source_id = ? AND target_id = ? AND type = ?`,
		targetID, sourceID, "caused_by").Scan(&strength))
	assert.Equal(t, 0.9, strength)

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM memory_relations`).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestWarmupSeedsTaxonomy(t *testing.T) {
	client, dbPath := newTestClient(t)
	ctx := context.Background()

	records := []*store.TopicRecord{
		{ID: "cat_daily", Name: "Daily Life", Type: "category"},
		{ID: "topic_food", Name: "Food", Type: "subcategory", ParentID: "cat_daily"},
	}
	require.NoError(t, client.Warmup(ctx, records))
	// Warm-up is safe to repeat
	require.NoError(t, client.Warmup(ctx, records))

	db := openRaw(t, dbPath)
	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM topics`).Scan(&count))
	assert.Equal(t, 2, count)

	var parentID string
	require.NoError(t, db.QueryRow(
		`SELECT parent_id FROM topics WHERE id = ?`, "topic_food").Scan(&parentID))
	assert.Equal(t, "cat_daily", parentID)
}

func TestSearchHybrid(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()

	base := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)

	exact := testMemory("p1", "morning espresso at the cafe", base)
	exact.Vector = []float64{1, 0}
	exact.Keywords = []string{"espresso", "cafe"}

	near := testMemory("p1", "afternoon walk downtown", base.Add(time.Minute))
	near.Vector = []float64{1, 1}

	far := testMemory("p1", "reorganized the bookshelf", base.Add(2*time.Minute))
	far.Vector = []float64{0, 1}

	ids := make(map[string]string, 3)
	for name, memory := range map[string]*store.Memory{"exact": exact, "near": near, "far": far} {
		id, err := client.CreateMemory(ctx, memory)
		require.NoError(t, err)
		ids[name] = id
	}

	require.NoError(t, client.UpsertTopic(ctx, &store.TopicRecord{ID: "topic_food", Name: "Food"}))
	require.NoError(t, client.LinkMemoryTopic(ctx, ids["exact"], "topic_food"))

	input := &store.SearchInput{
		Vector:    []float64{1, 0},
		TopicIDs:  []string{"topic_food"},
		Keywords:  []string{"espresso"},
		PersonaID: "p1",
		TopK:      10,
	}

	results, err := client.SearchHybrid(ctx, input)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, "morning espresso at the cafe", results[0].Memory.Content)
	assert.Equal(t, 1.0, results[0].Similarity)
	assert.Equal(t, 1.0, results[0].TopicRelevance)
	assert.Equal(t, 1.0, results[0].KeywordRelevance)
	assert.InDelta(t, 1.0, results[0].FinalScore, 1e-9)

	assert.Equal(t, "afternoon walk downtown", results[1].Memory.Content)
	assert.Equal(t, "reorganized the bookshelf", results[2].Memory.Content)
	assert.Greater(t, results[1].FinalScore, results[2].FinalScore)
}

func TestSearchHybridScopesAndFilters(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()

	mine := testMemory("p1", "my memory", time.Now())
	mine.Vector = []float64{1, 0}
	theirs := testMemory("p2", "their memory", time.Now())
	theirs.Vector = []float64{1, 0}
	vectorless := testMemory("p1", "no vector", time.Now())
	vectorless.Vector = nil

	for _, memory := range []*store.Memory{mine, theirs, vectorless} {
		_, err := client.CreateMemory(ctx, memory)
		require.NoError(t, err)
	}

	results, err := client.SearchHybrid(ctx, &store.SearchInput{
		Vector:    []float64{1, 0},
		PersonaID: "p1",
		TopK:      10,
	})
	require.NoError(t, err)
	require.Len(t, results, 1, "other personas and vectorless rows are excluded")
	assert.Equal(t, "my memory", results[0].Memory.Content)

	// Without a persona the search spans the whole store
	all, err := client.SearchHybrid(ctx, &store.SearchInput{Vector: []float64{1, 0}, TopK: 10})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	// A nil input or missing query vector cannot rank anything
	none, err := client.SearchHybrid(ctx, nil)
	require.NoError(t, err)
	assert.Nil(t, none)
	none, err = client.SearchHybrid(ctx, &store.SearchInput{PersonaID: "p1"})
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestSearchHybridMatchesReferenceRanking(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()

	base := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	seed := []*store.Memory{
		{PersonaID: "p1", Content: "a", Type: "activity", Vector: []float64{0.9, 0.1}, Keywords: []string{"run"}, Timestamp: base},
		{PersonaID: "p1", Content: "b", Type: "activity", Vector: []float64{0.2, 0.8}, Keywords: []string{"cook", "dinner"}, Timestamp: base.Add(time.Minute)},
		{PersonaID: "p1", Content: "c", Type: "activity", Vector: []float64{0.5, 0.5}, Timestamp: base.Add(2 * time.Minute)},
	}
	for _, memory := range seed {
		_, err := client.CreateMemory(ctx, memory)
		require.NoError(t, err)
	}

	input := &store.SearchInput{
		Vector:    []float64{0.7, 0.3},
		Keywords:  []string{"run", "dinner"},
		PersonaID: "p1",
		TopK:      10,
	}

	results, err := client.SearchHybrid(ctx, input)
	require.NoError(t, err)

	reference := store.Rank(seed, input)
	require.Len(t, results, len(reference))
	for i := range reference {
		assert.Equal(t, reference[i].Memory.Content, results[i].Memory.Content,
			"store ranking must match the reference scorer")
		assert.InDelta(t, reference[i].FinalScore, results[i].FinalScore, 1e-9)
	}
}

func TestDeletePersonaMemories(t *testing.T) {
	client, dbPath := newTestClient(t)
	ctx := context.Background()

	keepID, err := client.CreateMemory(ctx, testMemory("keeper", "staying memory", time.Now()))
	require.NoError(t, err)
	goneA, err := client.CreateMemory(ctx, testMemory("doomed", "memory one", time.Now()))
	require.NoError(t, err)
	goneB, err := client.CreateMemory(ctx, testMemory("doomed", "memory two", time.Now()))
	require.NoError(t, err)

	require.NoError(t, client.UpsertTopic(ctx, &store.TopicRecord{ID: "topic_work", Name: "Work"}))
	require.NoError(t, client.LinkMemoryTopic(ctx, goneA, "topic_work"))
	require.NoError(t, client.LinkMemoryRelation(ctx, goneA, goneB, "related_to", 0.5))
	require.NoError(t, client.LinkMemoryRelation(ctx, goneB, keepID, "related_to", 0.5))

	require.NoError(t, client.DeletePersonaMemories(ctx, "doomed"))

	memories, err := client.GetMemories(ctx, "doomed", 10)
	require.NoError(t, err)
	assert.Empty(t, memories)

	kept, err := client.GetMemories(ctx, "keeper", 10)
	require.NoError(t, err)
	assert.Len(t, kept, 1)

	// Topic links and relations touching the deleted rows are gone too
	db := openRaw(t, dbPath)
	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM memory_topics`).Scan(&count))
	assert.Zero(t, count)
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM memory_relations`).Scan(&count))
	assert.Zero(t, count)

	// Deleting again is harmless
	require.NoError(t, client.DeletePersonaMemories(ctx, "doomed"))
}
