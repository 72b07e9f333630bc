// Package greedy implements a degree-driven greedy dominating-set cover,
// used as the bundled reference solver and as a known-good fixture for
// executor and scheduler tests.
package greedy

import "container/heap"

// Solve returns a dominating set for a graph of numNodes nodes (1-indexed)
// given its edge list, using repeated selection of the node that currently
// dominates the most not-yet-dominated nodes.
func Solve(numNodes uint32, edges [][2]uint32) []uint32 {
	adj := make([][]uint32, numNodes+1)
	for _, e := range edges {
		adj[e[0]] = append(adj[e[0]], e[1])
		adj[e[1]] = append(adj[e[1]], e[0])
	}

	dominated := make([]bool, numNodes+1)
	remaining := make([]int, numNodes+1)
	for n := uint32(1); n <= numNodes; n++ {
		remaining[n] = len(adj[n]) + 1 // itself plus its neighbors
	}

	pq := make(priorityQueue, 0, numNodes)
	for n := uint32(1); n <= numNodes; n++ {
		pq = append(pq, &pqItem{node: n, gain: remaining[n]})
	}
	heap.Init(&pq)

	var result []uint32
	numDominated := uint32(0)
	for numDominated < numNodes && pq.Len() > 0 {
		item := heap.Pop(&pq).(*pqItem)
		gain := gainOf(item.node, dominated, adj)
		if gain != item.gain {
			item.gain = gain
			heap.Push(&pq, item)
			continue
		}
		if gain == 0 {
			continue
		}
		result = append(result, item.node)
		if !dominated[item.node] {
			dominated[item.node] = true
			numDominated++
		}
		for _, nb := range adj[item.node] {
			if !dominated[nb] {
				dominated[nb] = true
				numDominated++
			}
		}
	}
	return result
}

func gainOf(node uint32, dominated []bool, adj [][]uint32) int {
	gain := 0
	if !dominated[node] {
		gain++
	}
	for _, nb := range adj[node] {
		if !dominated[nb] {
			gain++
		}
	}
	return gain
}

type pqItem struct {
	node uint32
	gain int
}

type priorityQueue []*pqItem

func (pq priorityQueue) Len() int           { return len(pq) }
func (pq priorityQueue) Less(i, j int) bool  { return pq[i].gain > pq[j].gain }
func (pq priorityQueue) Swap(i, j int)       { pq[i], pq[j] = pq[j], pq[i] }
func (pq *priorityQueue) Push(x interface{}) { *pq = append(*pq, x.(*pqItem)) }
func (pq *priorityQueue) Pop() interface{} {
	old := *pq
	n := len(old)
	item := old[n-1]
	*pq = old[:n-1]
	return item
}
