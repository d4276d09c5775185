package graph

import (
	"context"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/hrygo/notegraph/internal/tagset"
	"github.com/hrygo/notegraph/store"
)

// NoteLister is the slice of the store the builder needs.
type NoteLister interface {
	ListNotes(ctx context.Context, find *store.FindNote) ([]*store.Note, error)
}

// GraphBuilder builds knowledge graphs from an owner's notes.
type GraphBuilder struct {
	lister NoteLister
	config GraphConfig
	sem    *semaphore.Weighted
}

// NewGraphBuilder creates a new GraphBuilder running at most concurrency builds at once.
func NewGraphBuilder(lister NoteLister, concurrency int) *GraphBuilder {
	return NewGraphBuilderWithConfig(lister, concurrency, DefaultConfig())
}

// NewGraphBuilderWithConfig creates a builder with custom config.
func NewGraphBuilderWithConfig(lister NoteLister, concurrency int, config GraphConfig) *GraphBuilder {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &GraphBuilder{
		lister: lister,
		config: config,
		sem:    semaphore.NewWeighted(int64(concurrency)),
	}
}

// Build fetches the notes of userID and constructs their graph.
// A failed fetch is returned as is; no partial graph is produced.
func (b *GraphBuilder) Build(ctx context.Context, userID int32) (*KnowledgeGraph, error) {
	if err := b.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer b.sem.Release(1)

	notes, err := b.lister.ListNotes(ctx, &store.FindNote{CreatorID: &userID})
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}

	inputs := make([]NoteInput, 0, len(notes))
	for _, note := range notes {
		inputs = append(inputs, NoteInput{
			ID:    note.ID,
			Title: note.Title,
			Tags:  tagset.Normalize(note.Tags),
		})
	}
	return Build(inputs, b.config), nil
}

// GetFilteredGraph builds the graph of userID and narrows it with filter.
func (b *GraphBuilder) GetFilteredGraph(ctx context.Context, userID int32, filter GraphFilter) (*KnowledgeGraph, error) {
	graph, err := b.Build(ctx, userID)
	if err != nil {
		return nil, err
	}
	return ApplyFilter(graph, filter), nil
}

type notePair struct {
	i, j int
}

// Build constructs the graph for notes. It is pure: the same input always
// yields the same nodes and links in the same order.
//
// Nodes follow input order. For every pair of notes i < j (input positions)
// whose tag sets intersect there is exactly one link from i to j.
func Build(notes []NoteInput, config GraphConfig) *KnowledgeGraph {
	start := time.Now()
	graph := &KnowledgeGraph{
		Nodes: make([]GraphNode, 0, len(notes)),
		Links: []GraphEdge{},
	}

	// Inverted index: tag -> positions of the notes carrying it, ascending.
	tagToNotes := make(map[string][]int)
	for i, note := range notes {
		graph.Nodes = append(graph.Nodes, GraphNode{
			ID:    note.ID,
			Title: note.Title,
			Tags:  note.Tags.Sorted(),
		})
		for tag := range note.Tags {
			tagToNotes[tag] = append(tagToNotes[tag], i)
		}
	}

	seen := make(map[notePair]struct{})
	pairs := make([]notePair, 0)
	for _, positions := range tagToNotes {
		for a := 0; a < len(positions); a++ {
			for c := a + 1; c < len(positions); c++ {
				p := notePair{i: positions[a], j: positions[c]}
				if _, ok := seen[p]; ok {
					continue
				}
				seen[p] = struct{}{}
				pairs = append(pairs, p)
			}
		}
	}
	sort.Slice(pairs, func(x, y int) bool {
		if pairs[x].i != pairs[y].i {
			return pairs[x].i < pairs[y].i
		}
		return pairs[x].j < pairs[y].j
	})

	for _, p := range pairs {
		source, target := notes[p.i], notes[p.j]
		if source.ID == target.ID {
			continue
		}
		shared := source.Tags.Intersect(target.Tags).Sorted()
		graph.Links = append(graph.Links, GraphEdge{
			Source: source.ID,
			Target: target.ID,
			ViaTag: shared[0],
			Weight: source.Tags.Jaccard(target.Tags),
		})
	}

	if config.EnablePageRank {
		computePageRank(graph)
	}
	if config.EnableCommunityDetection {
		graph.Stats.ClusterCount = detectCommunities(graph)
	}

	graph.Stats.NodeCount = len(graph.Nodes)
	graph.Stats.EdgeCount = len(graph.Links)
	graph.Stats.TagCount = len(tagToNotes)
	graph.BuildMs = time.Since(start).Milliseconds()
	return graph
}

// adjacency returns, per node position, the positions of its neighbors.
// Links are undirected; node IDs are unique within one graph.
func adjacency(graph *KnowledgeGraph) [][]int {
	position := make(map[int32]int, len(graph.Nodes))
	for i, node := range graph.Nodes {
		position[node.ID] = i
	}
	neighbors := make([][]int, len(graph.Nodes))
	for _, link := range graph.Links {
		s, t := position[link.Source], position[link.Target]
		neighbors[s] = append(neighbors[s], t)
		neighbors[t] = append(neighbors[t], s)
	}
	return neighbors
}

// computePageRank computes importance scores using simplified PageRank.
func computePageRank(graph *KnowledgeGraph) {
	n := len(graph.Nodes)
	if n == 0 {
		return
	}

	const (
		damping    = 0.85
		iterations = 20
	)

	neighbors := adjacency(graph)
	scores := make([]float64, n)
	for i := range scores {
		scores[i] = 1.0 / float64(n)
	}

	for iter := 0; iter < iterations; iter++ {
		next := make([]float64, n)
		for i := range next {
			sum := 0.0
			for _, in := range neighbors[i] {
				sum += scores[in] / float64(len(neighbors[in]))
			}
			next[i] = (1-damping)/float64(n) + damping*sum
		}
		scores = next
	}

	// Normalize to 0-1
	var maxScore float64
	for _, score := range scores {
		if score > maxScore {
			maxScore = score
		}
	}
	if maxScore > 0 {
		for i := range graph.Nodes {
			graph.Nodes[i].Importance = scores[i] / maxScore
		}
	}
}

// detectCommunities assigns clusters by label propagation and returns how many there are.
// Ties go to the smallest label so the result does not depend on map order.
func detectCommunities(graph *KnowledgeGraph) int {
	n := len(graph.Nodes)
	if n == 0 {
		return 0
	}

	neighbors := adjacency(graph)
	labels := make([]int, n)
	for i := range labels {
		labels[i] = i
	}

	const maxIterations = 10
	for iter := 0; iter < maxIterations; iter++ {
		changed := false
		for i := range graph.Nodes {
			if len(neighbors[i]) == 0 {
				continue
			}

			labelCount := make(map[int]int)
			for _, neighbor := range neighbors[i] {
				labelCount[labels[neighbor]]++
			}

			bestLabel, bestCount := labels[i], 0
			for label, count := range labelCount {
				if count > bestCount || (count == bestCount && label < bestLabel) {
					bestLabel, bestCount = label, count
				}
			}

			if labels[i] != bestLabel {
				labels[i] = bestLabel
				changed = true
			}
		}
		if !changed {
			break
		}
	}

	clusterMap := make(map[int]int)
	nextCluster := 0
	for i := range graph.Nodes {
		label := labels[i]
		if _, ok := clusterMap[label]; !ok {
			clusterMap[label] = nextCluster
			nextCluster++
		}
		graph.Nodes[i].Cluster = clusterMap[label]
	}
	return nextCluster
}
