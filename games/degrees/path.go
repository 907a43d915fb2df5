/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package degrees

// ShortestPath returns a shortest teammate chain from start to end inclusive,
// found by breadth-first search. Ties go to whichever neighbor was linked
// first during normalization. ok is false if either player is unknown or no
// chain exists.
func ShortestPath(g *Graph, start, end string) (path []string, ok bool) {
	if _, known := g.adjacency[start]; !known {
		return nil, false
	}

	type frontier struct {
		player string
		path   []string
	}

	queue := []frontier{{player: start, path: []string{start}}}
	visited := map[string]struct{}{start: {}}

	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]

		if curr.player == end {
			return curr.path, true
		}

		adj, ok := g.adjacency[curr.player]
		if !ok {
			continue
		}

		for _, next := range adj.order {
			if _, seen := visited[next]; seen {
				continue
			}
			visited[next] = struct{}{}

			extended := make([]string, len(curr.path)+1)
			copy(extended, curr.path)
			extended[len(curr.path)] = next

			queue = append(queue, frontier{player: next, path: extended})
		}
	}

	return nil, false
}
