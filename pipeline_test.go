package impulse

import (
	"sync/atomic"
	"testing"
)

func TestTask(t *testing.T) {
	tests := []struct {
		name    string
		workers int
		items   int
	}{
		{"inline", 1, 10},
		{"more workers than items", 8, 3},
		{"uneven chunks", 3, 10},
		{"no items", 4, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items := make([]int, tt.items)
			for i := range items {
				items[i] = i
			}

			seen := make([]atomic.Int32, tt.items)
			task(tt.workers, items, func(item int) {
				seen[item].Add(1)
			})

			for i := range seen {
				if got := seen[i].Load(); got != 1 {
					t.Errorf("item %d processed %d times", i, got)
				}
			}
		})
	}
}
