package greedy

import "testing"

func dominated(result []uint32, numNodes uint32, edges [][2]uint32) bool {
	inSet := make([]bool, numNodes+1)
	dom := make([]bool, numNodes+1)
	for _, n := range result {
		inSet[n] = true
		dom[n] = true
	}
	for _, e := range edges {
		if inSet[e[0]] {
			dom[e[1]] = true
		}
		if inSet[e[1]] {
			dom[e[0]] = true
		}
	}
	for i := uint32(1); i <= numNodes; i++ {
		if !dom[i] {
			return false
		}
	}
	return true
}

func TestSolveRefGraphIsDominating(t *testing.T) {
	edges := [][2]uint32{{1, 3}, {1, 4}, {1, 7}, {2, 8}, {3, 9}, {4, 8}, {4, 9}, {5, 6}}
	result := Solve(9, edges)
	if !dominated(result, 9, edges) {
		t.Fatalf("greedy result %v does not dominate the reference graph", result)
	}
}

func TestSolveIsolatedNodesDominateThemselves(t *testing.T) {
	result := Solve(3, nil)
	if len(result) != 3 {
		t.Fatalf("got %v, want one entry per isolated node", result)
	}
}
