package scheduler

import "github.com/mpapenbr/racecoach/pkg/model"

// msgHeap orders by priority (critical first) and by sequence number within
// the same priority. It implements heap.Interface.
type msgHeap []model.CoachingMessage

func (h msgHeap) Len() int { return len(h) }

func (h msgHeap) Less(i, j int) bool {
	if h[i].Priority != h[j].Priority {
		return h[i].Priority < h[j].Priority
	}
	return h[i].Seq < h[j].Seq
}

func (h msgHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *msgHeap) Push(x any) {
	*h = append(*h, x.(model.CoachingMessage)) //nolint:forcetypeassert // by design
}

func (h *msgHeap) Pop() any {
	old := *h
	n := len(old)
	ret := old[n-1]
	*h = old[:n-1]
	return ret
}
