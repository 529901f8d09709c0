package generator

import (
	"math/rand/v2"
)

// chain is a discrete-time Markov chain over K hidden states.
type chain struct {
	k int
	// stay is the per-step probability of remaining in the current state in
	// the symmetric form; jumps go to each other state with (1-stay)/(K-1).
	stay float64
	// matrix, when set, replaces the symmetric form: matrix[i][j] is the
	// probability of moving from state i to state j.
	matrix [][]float64
}

func newChain(k int, transProb float64, matrix [][]float64) chain {
	return chain{k: k, stay: 1 - transProb, matrix: matrix}
}

// sample returns a state index per frame. The initial state is uniform.
func (c chain) sample(n int, r *rand.Rand) []int {
	states := make([]int, n)
	if n == 0 {
		return states
	}
	cur := r.IntN(c.k)
	states[0] = cur
	for t := 1; t < n; t++ {
		cur = c.step(cur, r)
		states[t] = cur
	}
	return states
}

func (c chain) step(cur int, r *rand.Rand) int {
	if c.matrix != nil {
		u := r.Float64()
		acc := 0.0
		row := c.matrix[cur]
		for j, pr := range row {
			acc += pr
			if u < acc {
				return j
			}
		}
		return len(row) - 1
	}
	if c.k < 2 || r.Float64() >= 1-c.stay {
		return cur
	}
	next := r.IntN(c.k - 1)
	if next >= cur {
		next++
	}
	return next
}

// distinctBefore counts the distinct states visited in states[:end].
func distinctBefore(states []int, end int) int {
	seen := make(map[int]struct{})
	for _, s := range states[:end] {
		seen[s] = struct{}{}
	}
	return len(seen)
}
