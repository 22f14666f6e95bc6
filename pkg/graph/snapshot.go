package graph

import "encoding/json"

// snapshot is the serialized form of a graph. Nodes carry their relations,
// so the adjacency index is rebuilt on restore rather than stored.
type snapshot struct {
	Nodes []*MemoryNode `json:"nodes"`
}

// Snapshot serializes the graph to JSON, nodes in insertion order.
func (g *Graph) Snapshot() ([]byte, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	snap := snapshot{
		Nodes: make([]*MemoryNode, 0, len(g.order)),
	}
	for _, id := range g.order {
		if node := g.nodes[id]; node != nil {
			snap.Nodes = append(snap.Nodes, node)
		}
	}
	return json.Marshal(snap)
}

// Restore replaces the graph's contents with a snapshot produced by
// Snapshot. All nodes are loaded first so relations between them index
// correctly regardless of their order in the snapshot; relations to ids
// absent from the snapshot stay unindexed, matching AddNode.
func (g *Graph) Restore(data []byte) error {
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	g.nodes = make(map[string]*MemoryNode, len(snap.Nodes))
	g.edges = make(map[string]map[string]RelationType)
	g.order = g.order[:0]

	for _, node := range snap.Nodes {
		if node == nil || node.ID == "" {
			continue
		}
		if node.Metadata == nil {
			node.Metadata = make(map[string]interface{})
		}
		if node.Relations == nil {
			node.Relations = make(map[string]*Relation)
		}
		if _, exists := g.nodes[node.ID]; !exists {
			g.order = append(g.order, node.ID)
		}
		g.nodes[node.ID] = node
	}

	for id, node := range g.nodes {
		for targetID, rel := range node.Relations {
			if _, ok := g.nodes[targetID]; !ok {
				continue
			}
			if g.edges[id] == nil {
				g.edges[id] = make(map[string]RelationType)
			}
			g.edges[id][targetID] = rel.Type
		}
	}
	return nil
}
