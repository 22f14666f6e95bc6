package graph

import (
	"sort"
	"sync"
	"time"
)

// Graph holds one persona's memory nodes and the adjacency index over their
// relations. All methods are safe for concurrent use; mutations take the
// write lock so each write is applied alone.
type Graph struct {
	mu sync.RWMutex

	// nodes maps node id to the node itself.
	nodes map[string]*MemoryNode

	// edges maps source id to target id to the relation type, mirroring
	// node.Relations for traversal without chasing node pointers.
	edges map[string]map[string]RelationType

	// order remembers node insertion order so ranked results break ties
	// deterministically.
	order []string
}

// NewGraph creates an empty memory graph.
func NewGraph() *Graph {
	return &Graph{
		nodes: make(map[string]*MemoryNode),
		edges: make(map[string]map[string]RelationType),
	}
}

// AddNode registers a node and indexes its relations whose targets already
// exist in the graph. Relations to absent targets stay on the node but get
// no adjacency entry; adding the target later does not backfill them.
// Re-adding an existing id overwrites the node.
func (g *Graph) AddNode(node *MemoryNode) {
	if node == nil {
		return
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.nodes[node.ID]; !exists {
		g.order = append(g.order, node.ID)
	}
	g.nodes[node.ID] = node

	for targetID, rel := range node.Relations {
		if _, ok := g.nodes[targetID]; !ok {
			continue
		}
		if g.edges[node.ID] == nil {
			g.edges[node.ID] = make(map[string]RelationType)
		}
		g.edges[node.ID][targetID] = rel.Type
	}
}

// GetNode returns the node with the given id, or nil if absent.
func (g *Graph) GetNode(id string) *MemoryNode {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.nodes[id]
}

// HasNode reports whether the graph contains the given node id.
func (g *Graph) HasNode(id string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.nodes[id]
	return ok
}

// Len returns the number of nodes in the graph.
func (g *Graph) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.nodes)
}

// Nodes returns all nodes in insertion order.
func (g *Graph) Nodes() []*MemoryNode {
	g.mu.RLock()
	defer g.mu.RUnlock()

	nodes := make([]*MemoryNode, 0, len(g.order))
	for _, id := range g.order {
		if node := g.nodes[id]; node != nil {
			nodes = append(nodes, node)
		}
	}
	return nodes
}

// AddRelation creates or overwrites a directed relation between two existing
// nodes. If either endpoint is absent the call is a silent no-op.
func (g *Graph) AddRelation(sourceID, targetID string, relType RelationType, opts ...RelationOption) {
	g.mu.Lock()
	defer g.mu.Unlock()

	source, ok := g.nodes[sourceID]
	if !ok {
		return
	}
	if _, ok := g.nodes[targetID]; !ok {
		return
	}

	source.AddRelation(targetID, relType, opts...)
	if g.edges[sourceID] == nil {
		g.edges[sourceID] = make(map[string]RelationType)
	}
	g.edges[sourceID][targetID] = relType
}

// TraverseOptions bound a GetRelatedNodes walk.
type TraverseOptions struct {
	// RelationType restricts the walk to edges of one type; empty means all.
	RelationType RelationType

	// MinStrength excludes edges weaker than this value.
	MinStrength float64

	// MaxDepth bounds how many hops from the start node are followed.
	MaxDepth int
}

// TraverseOption configures a graph traversal.
type TraverseOption func(*TraverseOptions)

// WithRelationType limits traversal to edges of the given type.
func WithRelationType(relType RelationType) TraverseOption {
	return func(o *TraverseOptions) {
		o.RelationType = relType
	}
}

// WithMinStrength excludes edges with strength below the given value.
func WithMinStrength(min float64) TraverseOption {
	return func(o *TraverseOptions) {
		o.MinStrength = min
	}
}

// WithMaxDepth bounds the traversal depth. Depth 1 visits only direct
// neighbors.
func WithMaxDepth(depth int) TraverseOption {
	return func(o *TraverseOptions) {
		o.MaxDepth = depth
	}
}

func applyTraverseOptions(opts []TraverseOption) *TraverseOptions {
	options := &TraverseOptions{
		MaxDepth: 1,
	}
	for _, opt := range opts {
		opt(options)
	}
	if options.MaxDepth < 1 {
		options.MaxDepth = 1
	}
	return options
}

// GetRelatedNodes walks outgoing relations from the given node, depth-first,
// visiting each node at most once. Filters apply per edge: an edge failing
// the type or strength filter is not crossed, so nodes beyond it are only
// reached through other qualifying paths. The start node is never included.
// An unknown start id returns nil.
func (g *Graph) GetRelatedNodes(id string, opts ...TraverseOption) []*MemoryNode {
	options := applyTraverseOptions(opts)

	g.mu.RLock()
	defer g.mu.RUnlock()

	start, ok := g.nodes[id]
	if !ok {
		return nil
	}

	visited := map[string]bool{id: true}
	var related []*MemoryNode
	g.collectRelated(start, 1, options, visited, &related)
	return related
}

// collectRelated appends qualifying neighbors of node at the given depth and
// recurses while the depth budget allows another hop.
func (g *Graph) collectRelated(node *MemoryNode, depth int, options *TraverseOptions, visited map[string]bool, out *[]*MemoryNode) {
	for targetID, rel := range node.Relations {
		if visited[targetID] {
			continue
		}
		if options.RelationType != "" && rel.Type != options.RelationType {
			continue
		}
		if rel.Strength < options.MinStrength {
			continue
		}
		target, ok := g.nodes[targetID]
		if !ok {
			continue
		}

		visited[targetID] = true
		*out = append(*out, target)
		if depth < options.MaxDepth {
			g.collectRelated(target, depth+1, options, visited, out)
		}
	}
}

// FindPath returns the shortest directed path from startID to endID by edge
// count, including both endpoints, or nil when no path exists. When
// allowedTypes is non-empty the discovered shortest path must use only those
// relation types; a path containing any other type is rejected outright
// rather than searching for an alternative.
func (g *Graph) FindPath(startID, endID string, allowedTypes ...RelationType) []*MemoryNode {
	g.mu.RLock()
	defer g.mu.RUnlock()

	start, ok := g.nodes[startID]
	if !ok {
		return nil
	}
	if _, ok := g.nodes[endID]; !ok {
		return nil
	}
	if startID == endID {
		return []*MemoryNode{start}
	}

	parent := make(map[string]string)
	visited := map[string]bool{startID: true}
	queue := []string{startID}
	found := false

	for len(queue) > 0 && !found {
		current := queue[0]
		queue = queue[1:]

		for targetID := range g.edges[current] {
			if visited[targetID] {
				continue
			}
			visited[targetID] = true
			parent[targetID] = current
			if targetID == endID {
				found = true
				break
			}
			queue = append(queue, targetID)
		}
	}

	if !found {
		return nil
	}

	var ids []string
	for id := endID; ; id = parent[id] {
		ids = append(ids, id)
		if id == startID {
			break
		}
	}
	for i, j := 0, len(ids)-1; i < j; i, j = i+1, j-1 {
		ids[i], ids[j] = ids[j], ids[i]
	}

	if len(allowedTypes) > 0 {
		allowed := make(map[RelationType]bool, len(allowedTypes))
		for _, t := range allowedTypes {
			allowed[t] = true
		}
		for i := 0; i < len(ids)-1; i++ {
			if !allowed[g.edges[ids[i]][ids[i+1]]] {
				return nil
			}
		}
	}

	path := make([]*MemoryNode, len(ids))
	for i, id := range ids {
		path[i] = g.nodes[id]
	}
	return path
}

// GetNodesByType returns all nodes of the given type in insertion order.
func (g *Graph) GetNodesByType(nodeType NodeType) []*MemoryNode {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var nodes []*MemoryNode
	for _, id := range g.order {
		if node := g.nodes[id]; node != nil && node.Type == nodeType {
			nodes = append(nodes, node)
		}
	}
	return nodes
}

// GetNodesByTag returns all nodes carrying the given tag in insertion order.
func (g *Graph) GetNodesByTag(tag string) []*MemoryNode {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var nodes []*MemoryNode
	for _, id := range g.order {
		if node := g.nodes[id]; node != nil && node.HasTag(tag) {
			nodes = append(nodes, node)
		}
	}
	return nodes
}

// GetMostActiveNodes returns up to limit nodes ranked by activation,
// highest first. Equal activations keep insertion order. A non-positive
// limit returns an empty slice.
func (g *Graph) GetMostActiveNodes(limit int) []*MemoryNode {
	if limit <= 0 {
		return nil
	}

	g.mu.RLock()
	defer g.mu.RUnlock()

	now := time.Now().UTC()
	ranked := make([]*MemoryNode, 0, len(g.order))
	for _, id := range g.order {
		if node := g.nodes[id]; node != nil {
			ranked = append(ranked, node)
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Activation(now) > ranked[j].Activation(now)
	})

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// DefaultPruneThreshold is the strength below which PruneWeakRelations
// removes relations when called with a non-positive threshold.
const DefaultPruneThreshold = 0.1

// PruneWeakRelations removes every relation with strength strictly below the
// threshold, along with its adjacency entry, and returns the number removed.
// A non-positive threshold applies DefaultPruneThreshold. Pruning twice with
// the same threshold removes nothing the second time.
func (g *Graph) PruneWeakRelations(threshold float64) int {
	if threshold <= 0 {
		threshold = DefaultPruneThreshold
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	removed := 0
	for sourceID, node := range g.nodes {
		for targetID, rel := range node.Relations {
			if rel.Strength >= threshold {
				continue
			}
			delete(node.Relations, targetID)
			if targets := g.edges[sourceID]; targets != nil {
				delete(targets, targetID)
				if len(targets) == 0 {
					delete(g.edges, sourceID)
				}
			}
			removed++
		}
	}
	return removed
}

// MergeNodes folds sourceID into targetID: metadata entries and tags move
// onto the target (source values win on metadata key conflicts), outgoing
// relations are recreated on the target except those that would point at
// itself, inbound relations are rewritten to point at the target, and the
// source node is removed. Missing endpoints or merging a node into itself
// are silent no-ops.
func (g *Graph) MergeNodes(sourceID, targetID string) {
	if sourceID == targetID {
		return
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	source, ok := g.nodes[sourceID]
	if !ok {
		return
	}
	target, ok := g.nodes[targetID]
	if !ok {
		return
	}

	for key, value := range source.Metadata {
		target.Metadata[key] = value
	}
	for _, tag := range source.Tags {
		target.AddTag(tag)
	}

	for relTargetID, rel := range source.Relations {
		if relTargetID == targetID {
			continue
		}
		merged := *rel
		target.Relations[relTargetID] = &merged
		if _, ok := g.nodes[relTargetID]; ok {
			if g.edges[targetID] == nil {
				g.edges[targetID] = make(map[string]RelationType)
			}
			g.edges[targetID][relTargetID] = merged.Type
		}
	}

	// Inbound edges follow the survivor so no referrer is left dangling.
	for otherID, other := range g.nodes {
		if otherID == sourceID {
			continue
		}
		rel, ok := other.Relations[sourceID]
		if !ok {
			continue
		}
		delete(other.Relations, sourceID)
		if targets := g.edges[otherID]; targets != nil {
			delete(targets, sourceID)
		}
		if otherID == targetID {
			continue
		}
		moved := *rel
		moved.TargetID = targetID
		other.Relations[targetID] = &moved
		if g.edges[otherID] == nil {
			g.edges[otherID] = make(map[string]RelationType)
		}
		g.edges[otherID][targetID] = moved.Type
	}

	g.removeNodeLocked(sourceID)
}

// RemoveNode deletes a node along with its outgoing adjacency entries and
// every relation other nodes hold toward it. Unknown ids are a no-op.
func (g *Graph) RemoveNode(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.nodes[id]; !ok {
		return
	}

	for otherID, other := range g.nodes {
		if otherID == id {
			continue
		}
		if _, ok := other.Relations[id]; ok {
			delete(other.Relations, id)
			if targets := g.edges[otherID]; targets != nil {
				delete(targets, id)
			}
		}
	}

	g.removeNodeLocked(id)
}

// removeNodeLocked drops the node record, its adjacency row, and its
// insertion-order entry. Caller holds the write lock.
func (g *Graph) removeNodeLocked(id string) {
	delete(g.nodes, id)
	delete(g.edges, id)
	for i, orderedID := range g.order {
		if orderedID == id {
			g.order = append(g.order[:i], g.order[i+1:]...)
			break
		}
	}
}

// Stats summarizes the graph's current shape.
type Stats struct {
	// NodeCount is the number of nodes.
	NodeCount int `json:"node_count"`

	// RelationCount is the number of relations across all nodes.
	RelationCount int `json:"relation_count"`

	// NodesByType counts nodes per type.
	NodesByType map[NodeType]int `json:"nodes_by_type"`

	// RelationsByType counts relations per type.
	RelationsByType map[RelationType]int `json:"relations_by_type"`
}

// GetStats returns counts of nodes and relations by type.
func (g *Graph) GetStats() Stats {
	g.mu.RLock()
	defer g.mu.RUnlock()

	stats := Stats{
		NodeCount:       len(g.nodes),
		NodesByType:     make(map[NodeType]int),
		RelationsByType: make(map[RelationType]int),
	}
	for _, node := range g.nodes {
		stats.NodesByType[node.Type]++
		for _, rel := range node.Relations {
			stats.RelationCount++
			stats.RelationsByType[rel.Type]++
		}
	}
	return stats
}
