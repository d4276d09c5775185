// Package graph builds the tag co-occurrence graph over one owner's notes.
package graph

import (
	"github.com/hrygo/notegraph/internal/tagset"
)

// NoteInput is the part of a note the builder looks at.
type NoteInput struct {
	ID    int32
	Title string
	Tags  tagset.Set
}

// GraphNode represents a note in the knowledge graph.
type GraphNode struct {
	ID         int32    `json:"id"`
	Title      string   `json:"title"`
	Tags       []string `json:"tags"`
	Importance float64  `json:"importance"` // PageRank score, normalized to [0, 1]
	Cluster    int      `json:"cluster"`    // community ID
}

// GraphEdge links two notes that share at least one tag.
type GraphEdge struct {
	Source int32   `json:"source"`
	Target int32   `json:"target"`
	ViaTag string  `json:"via_tag"` // smallest shared tag
	Weight float64 `json:"weight"`  // Jaccard similarity of the two tag sets
}

// KnowledgeGraph represents the complete graph structure.
type KnowledgeGraph struct {
	Nodes   []GraphNode `json:"nodes"`
	Links   []GraphEdge `json:"links"`
	Stats   GraphStats  `json:"stats"`
	BuildMs int64       `json:"build_ms"`
}

// GraphStats contains graph statistics.
type GraphStats struct {
	NodeCount    int `json:"node_count"`
	EdgeCount    int `json:"edge_count"`
	ClusterCount int `json:"cluster_count"`
	TagCount     int `json:"tag_count"`
}

// GraphConfig contains configuration for graph building.
type GraphConfig struct {
	// EnablePageRank enables PageRank importance calculation.
	EnablePageRank bool
	// EnableCommunityDetection enables label propagation community detection.
	EnableCommunityDetection bool
}

// DefaultConfig returns default graph configuration.
func DefaultConfig() GraphConfig {
	return GraphConfig{
		EnablePageRank:           true,
		EnableCommunityDetection: true,
	}
}
