package graph

import (
	"github.com/hrygo/notegraph/internal/tagset"
)

// GraphFilter contains filter criteria for graph visualization.
type GraphFilter struct {
	Tags          []string // keep notes carrying any of these tags
	MinImportance float64
	Clusters      []int
}

// ApplyFilter returns the part of graph whose nodes match filter.
// Links survive only when both endpoints do. Node order is preserved.
func ApplyFilter(graph *KnowledgeGraph, filter GraphFilter) *KnowledgeGraph {
	if graph == nil {
		return nil
	}

	wanted := tagset.FromSlice(filter.Tags)
	clusters := make(map[int]struct{}, len(filter.Clusters))
	for _, c := range filter.Clusters {
		clusters[c] = struct{}{}
	}

	nodeSet := make(map[int32]struct{})
	filteredNodes := make([]GraphNode, 0)
	tagSet := make(map[string]struct{})
	for _, node := range graph.Nodes {
		if wanted.Len() > 0 && !hasAnyTag(node.Tags, wanted) {
			continue
		}
		if node.Importance < filter.MinImportance {
			continue
		}
		if len(clusters) > 0 {
			if _, ok := clusters[node.Cluster]; !ok {
				continue
			}
		}
		filteredNodes = append(filteredNodes, node)
		nodeSet[node.ID] = struct{}{}
		for _, tag := range node.Tags {
			tagSet[tag] = struct{}{}
		}
	}

	filteredLinks := make([]GraphEdge, 0)
	for _, link := range graph.Links {
		_, okSource := nodeSet[link.Source]
		_, okTarget := nodeSet[link.Target]
		if okSource && okTarget {
			filteredLinks = append(filteredLinks, link)
		}
	}

	clusterSet := make(map[int]struct{})
	for _, node := range filteredNodes {
		clusterSet[node.Cluster] = struct{}{}
	}

	return &KnowledgeGraph{
		Nodes:   filteredNodes,
		Links:   filteredLinks,
		BuildMs: graph.BuildMs,
		Stats: GraphStats{
			NodeCount:    len(filteredNodes),
			EdgeCount:    len(filteredLinks),
			ClusterCount: len(clusterSet),
			TagCount:     len(tagSet),
		},
	}
}

func hasAnyTag(tags []string, wanted tagset.Set) bool {
	for _, tag := range tags {
		if wanted.Has(tag) {
			return true
		}
	}
	return false
}
