package dispatch

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPartition(t *testing.T) {
	tests := []struct {
		name  string
		items []int
		size  int
		want  [][]int
	}{
		{
			name:  "empty input",
			items: nil,
			size:  50,
			want:  nil,
		},
		{
			name:  "exact multiple",
			items: []int{1, 2, 3, 4},
			size:  2,
			want:  [][]int{{1, 2}, {3, 4}},
		},
		{
			name:  "remainder batch",
			items: []int{1, 2, 3, 4, 5},
			size:  2,
			want:  [][]int{{1, 2}, {3, 4}, {5}},
		},
		{
			name:  "size larger than input",
			items: []int{1, 2, 3},
			size:  50,
			want:  [][]int{{1, 2, 3}},
		},
		{
			name:  "non-positive size keeps one batch",
			items: []int{1, 2, 3},
			size:  0,
			want:  [][]int{{1, 2, 3}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Partition(tt.items, tt.size))
		})
	}
}

func TestPartitionPreservesOrder(t *testing.T) {
	items := []string{"a", "b", "c", "d", "e", "f", "g"}
	var flat []string
	for _, batch := range Partition(items, 3) {
		flat = append(flat, batch...)
	}
	assert.Equal(t, items, flat)
}

func TestPacerFirstWaitIsImmediate(t *testing.T) {
	p := newPacer(time.Hour)

	start := time.Now()
	require.NoError(t, p.wait(context.Background()))
	assert.Less(t, time.Since(start), time.Second)
}

func TestPacerZeroDelayNeverBlocks(t *testing.T) {
	p := newPacer(0)
	for i := 0; i < 5; i++ {
		require.NoError(t, p.wait(context.Background()))
	}
}

func TestPacerHonorsCancellation(t *testing.T) {
	p := newPacer(time.Hour)
	require.NoError(t, p.wait(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, p.wait(ctx))
}
