package topk

// Result holds the selected candidates in descending score order.
// Indices and Scores always have the same length, which is
// min(n, number of admitted candidates).
type Result struct {
	Indices []int
	Scores  []float32
}

// Len returns the number of selected candidates.
func (r Result) Len() int { return len(r.Indices) }

// Clone returns a deep copy of r.
func (r Result) Clone() Result {
	return Result{
		Indices: append([]int(nil), r.Indices...),
		Scores:  append([]float32(nil), r.Scores...),
	}
}

// Selector keeps its heap between calls to avoid reallocating it.
// A Selector is not safe for concurrent use.
type Selector struct {
	heap minHeap
}

// Select returns the n best-scoring indices of scores.
//
// A candidate is considered only if its score is strictly greater than the
// current cutoff. Slots for which no candidate qualified are not returned.
func (s *Selector) Select(scores []float32, n int) Result {
	if n <= 0 || len(scores) == 0 {
		return Result{}
	}

	h := &s.heap
	h.reset(min(n, len(scores)))

	var cutoff float32
	for i, score := range scores {
		if !(score > cutoff) {
			continue
		}
		if h.len() < n {
			h.push(Item{Index: i, Score: score})
		} else {
			h.replaceTop(Item{Index: i, Score: score})
		}
		if h.len() == n {
			cutoff = h.top().Score
		}
	}

	count := h.len()
	res := Result{
		Indices: make([]int, count),
		Scores:  make([]float32, count),
	}
	for k := count - 1; k >= 0; k-- {
		it := h.pop()
		res.Indices[k] = it.Index
		res.Scores[k] = it.Score
	}
	return res
}

// Select is a convenience wrapper around a throwaway Selector.
func Select(scores []float32, n int) Result {
	var s Selector
	return s.Select(scores, n)
}
