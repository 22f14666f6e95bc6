package topics_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luminalabs/personamem-go/pkg/topics"
)

// fixture builds a two-tree taxonomy:
//
//	root1            root2
//	├── child_a      └── child_c
//	│   └── grand
//	└── child_b
func fixture() *topics.Hierarchy {
	h := topics.NewHierarchy()
	h.AddTopic(&topics.TopicNode{ID: "root1", Name: "Root One", Type: topics.TopicCategory})
	h.AddTopic(&topics.TopicNode{ID: "child_a", Name: "Child A", Type: topics.TopicSubcategory, ParentID: "root1"})
	h.AddTopic(&topics.TopicNode{ID: "child_b", Name: "Child B", Type: topics.TopicSubcategory, ParentID: "root1"})
	h.AddTopic(&topics.TopicNode{ID: "grand", Name: "Grandchild", Type: topics.TopicSubcategory, ParentID: "child_a"})
	h.AddTopic(&topics.TopicNode{ID: "root2", Name: "Root Two", Type: topics.TopicCategory})
	h.AddTopic(&topics.TopicNode{ID: "child_c", Name: "Child C", Type: topics.TopicSubcategory, ParentID: "root2"})
	return h
}

func TestAddTopicAndLookup(t *testing.T) {
	h := fixture()

	require.NotNil(t, h.Get("root1"))
	assert.Equal(t, "Root One", h.Get("root1").Name)
	assert.Nil(t, h.Get("missing"))

	assert.Equal(t, "child_a", h.IDByName("Child A"))
	assert.Empty(t, h.IDByName("child a"), "name lookup is exact")
	assert.Empty(t, h.IDByName("nope"))

	all := h.Topics()
	require.Len(t, all, 6)
	assert.Equal(t, "root1", all[0].ID, "Topics should keep insertion order")

	children := h.Children("root1")
	require.Len(t, children, 2)
	assert.Equal(t, "child_a", children[0].ID)
	assert.Equal(t, "child_b", children[1].ID)
	assert.Empty(t, h.Children("grand"))

	// Ignored inputs
	h.AddTopic(nil)
	h.AddTopic(&topics.TopicNode{Name: "No ID"})
	assert.Len(t, h.Topics(), 6)
}

func TestRelationStrength(t *testing.T) {
	h := fixture()

	tests := []struct {
		name string
		id1  string
		id2  string
		want float64
	}{
		{"same topic", "child_a", "child_a", 1.0},
		{"parent and child", "root1", "child_a", 0.8},
		{"child and parent", "child_a", "root1", 0.8},
		{"siblings", "child_a", "child_b", 0.6},
		{"same tree", "child_b", "grand", 0.4},
		{"root to grandchild", "root1", "grand", 0.4},
		{"different trees", "child_a", "child_c", 0.0},
		{"different roots", "root1", "root2", 0.0},
		{"unknown id", "child_a", "nope", 0.0},
		{"both unknown and equal", "nope", "nope", 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, h.RelationStrength(tt.id1, tt.id2))
			assert.Equal(t, tt.want, h.RelationStrength(tt.id2, tt.id1),
				"relationship strength is symmetric")
		})
	}
}

func TestRelationStrengthRootsAreNotSiblings(t *testing.T) {
	h := fixture()

	// Two roots share an empty ParentID, which must not read as siblings.
	assert.Equal(t, 0.0, h.RelationStrength("root1", "root2"))
}

func TestPath(t *testing.T) {
	h := fixture()

	assert.Equal(t, []string{"Root One", "Child A", "Grandchild"}, h.Path("grand"))
	assert.Equal(t, []string{"Root One"}, h.Path("root1"))
	assert.Nil(t, h.Path("missing"))
}

func TestRelated(t *testing.T) {
	h := fixture()

	related := h.Related("child_a", 0.4)
	require.Len(t, related, 3)
	// Strongest first: parent (0.8), sibling (0.6), child... grand is
	// child_a's child (0.8), so both 0.8 entries precede the sibling.
	assert.Equal(t, "root1", related[0].Topic.ID)
	assert.Equal(t, 0.8, related[0].Strength)
	assert.Equal(t, "grand", related[1].Topic.ID)
	assert.Equal(t, 0.8, related[1].Strength)
	assert.Equal(t, "child_b", related[2].Topic.ID)
	assert.Equal(t, 0.6, related[2].Strength)

	// Raising the cutoff trims the weaker entries
	strong := h.Related("child_a", 0.7)
	require.Len(t, strong, 2)

	// A non-positive minimum falls back to the default cutoff
	defaulted := h.Related("child_b", 0)
	for _, rel := range defaulted {
		assert.GreaterOrEqual(t, rel.Strength, topics.DefaultMinStrength)
	}

	assert.Nil(t, h.Related("missing", 0.1))
}

func TestOutline(t *testing.T) {
	h := fixture()
	outline := h.Outline()

	lines := strings.Split(strings.TrimRight(outline, "\n"), "\n")
	assert.Equal(t, []string{
		"Root One",
		"  - Child A",
		"    - Grandchild",
		"  - Child B",
		"Root Two",
		"  - Child C",
	}, lines)
}

func TestDefaultHierarchy(t *testing.T) {
	h := topics.DefaultHierarchy()

	// Four seeded categories
	var categories []*topics.TopicNode
	for _, topic := range h.Topics() {
		if topic.Type == topics.TopicCategory {
			categories = append(categories, topic)
		}
	}
	require.Len(t, categories, 4)
	assert.Equal(t, "Entertainment & Media", categories[0].Name)
	assert.Equal(t, "Hobbies & Activities", categories[1].Name)
	assert.Equal(t, "Social & Relationships", categories[2].Name)
	assert.Equal(t, "Daily Life", categories[3].Name)

	// Spot-check the wiring
	assert.Equal(t, "sub_music", h.IDByName("Music"))
	assert.Equal(t, "cat_entertainment", h.Get("sub_music").ParentID)
	assert.Equal(t, []string{"Entertainment & Media", "Music"}, h.Path("sub_music"))
	assert.Equal(t, 0.6, h.RelationStrength("sub_music", "sub_videos"))
	assert.Equal(t, 0.0, h.RelationStrength("sub_music", "topic_food"))

	assert.Len(t, h.Children("cat_social"), 5)
	assert.Len(t, h.Children("cat_daily"), 5)

	// The outline feeds the classifier prompt and must include every category
	outline := h.Outline()
	for _, category := range categories {
		assert.Contains(t, outline, category.Name)
	}
	assert.Contains(t, outline, "  - Music")
}
