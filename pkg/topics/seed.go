package topics

// DefaultHierarchy builds the seeded taxonomy every persona starts from:
// four categories covering entertainment, hobbies, social life, and daily
// routine, with their subtopics.
func DefaultHierarchy() *Hierarchy {
	h := NewHierarchy()

	h.AddTopic(&TopicNode{
		ID:         "cat_entertainment",
		Name:       "Entertainment & Media",
		Type:       TopicCategory,
		Importance: 0.8,
	})
	h.AddTopic(&TopicNode{
		ID:         "sub_music",
		Name:       "Music",
		Type:       TopicSubcategory,
		ParentID:   "cat_entertainment",
		Importance: 0.6,
		Metadata: map[string]interface{}{
			"topics": []string{"genres", "artists", "favorite_songs", "listening_history"},
		},
	})
	h.AddTopic(&TopicNode{
		ID:         "sub_videos",
		Name:       "Videos",
		Type:       TopicSubcategory,
		ParentID:   "cat_entertainment",
		Importance: 0.6,
		Metadata: map[string]interface{}{
			"topics": []string{"movies", "tv_shows", "youtube", "creators"},
		},
	})
	h.AddTopic(&TopicNode{
		ID:         "sub_games",
		Name:       "Games",
		Type:       TopicSubcategory,
		ParentID:   "cat_entertainment",
		Importance: 0.6,
		Metadata: map[string]interface{}{
			"topics": []string{"video_games", "board_games", "game_categories"},
		},
	})

	h.AddTopic(&TopicNode{
		ID:         "cat_hobbies",
		Name:       "Hobbies & Activities",
		Type:       TopicCategory,
		Importance: 0.8,
	})
	h.AddTopic(&TopicNode{
		ID:         "sub_creative",
		Name:       "Creative Activities",
		Type:       TopicSubcategory,
		ParentID:   "cat_hobbies",
		Importance: 0.6,
		Metadata: map[string]interface{}{
			"topics": []string{"writing", "art", "crafts"},
		},
	})
	h.AddTopic(&TopicNode{
		ID:         "sub_physical",
		Name:       "Physical Activities",
		Type:       TopicSubcategory,
		ParentID:   "cat_hobbies",
		Importance: 0.6,
		Metadata: map[string]interface{}{
			"topics": []string{"sports", "exercise", "dance"},
		},
	})
	h.AddTopic(&TopicNode{
		ID:         "sub_learning",
		Name:       "Learning",
		Type:       TopicSubcategory,
		ParentID:   "cat_hobbies",
		Importance: 0.6,
		Metadata: map[string]interface{}{
			"topics": []string{"courses", "books", "skills"},
		},
	})

	h.AddTopic(&TopicNode{
		ID:         "cat_social",
		Name:       "Social & Relationships",
		Type:       TopicCategory,
		Importance: 0.8,
	})
	for _, social := range []struct {
		id   string
		name string
	}{
		{"topic_friends", "Friends"},
		{"topic_family", "Family"},
		{"topic_professional", "Professional"},
		{"topic_communities", "Communities"},
		{"topic_online", "Online"},
	} {
		h.AddTopic(&TopicNode{
			ID:         social.id,
			Name:       social.name,
			Type:       TopicSubcategory,
			ParentID:   "cat_social",
			Importance: 0.5,
		})
	}

	h.AddTopic(&TopicNode{
		ID:         "cat_daily",
		Name:       "Daily Life",
		Type:       TopicCategory,
		Importance: 0.8,
	})
	for _, daily := range []struct {
		id   string
		name string
	}{
		{"topic_routines", "Routines"},
		{"topic_places", "Places"},
		{"topic_food", "Food"},
		{"topic_shopping", "Shopping"},
		{"topic_work", "Work"},
	} {
		h.AddTopic(&TopicNode{
			ID:         daily.id,
			Name:       daily.name,
			Type:       TopicSubcategory,
			ParentID:   "cat_daily",
			Importance: 0.5,
		})
	}

	return h
}
