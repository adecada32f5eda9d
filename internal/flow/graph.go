package flow

import "github.com/scenc/scenc/internal/network"

// edgeGraph is the junction connectivity between drivable edges, used to
// check that a sampled route's end edge is actually reachable from its
// begin edge.
type edgeGraph struct {
	next map[string][]string
}

func newEdgeGraph(net *network.Network) *edgeGraph {
	g := &edgeGraph{next: make(map[string][]string)}
	seen := make(map[[2]string]bool)
	for _, c := range net.Connections() {
		key := [2]string{c.FromEdge, c.ToEdge}
		if seen[key] {
			continue
		}
		seen[key] = true
		g.next[c.FromEdge] = append(g.next[c.FromEdge], c.ToEdge)
	}
	return g
}

// reachable reports whether to can be reached from from by following
// junction connections.
func (g *edgeGraph) reachable(from, to string) bool {
	if from == to {
		return true
	}
	visited := map[string]bool{from: true}
	queue := []string{from}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, n := range g.next[cur] {
			if n == to {
				return true
			}
			if !visited[n] {
				visited[n] = true
				queue = append(queue, n)
			}
		}
	}
	return false
}
