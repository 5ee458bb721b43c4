package hub

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDedupSet_ObserveOnce(t *testing.T) {
	req := require.New(t)
	d := NewDedupSet(8)

	req.False(d.Observe("evt-1"))
	req.True(d.Observe("evt-1"))
	req.True(d.Observe("evt-1"))
	req.False(d.Observe("evt-2"))
}

func TestDedupSet_BoundedEviction(t *testing.T) {
	req := require.New(t)
	d := NewDedupSet(4)

	for i := 0; i < 4; i++ {
		req.False(d.Observe(fmt.Sprintf("evt-%d", i)))
	}
	req.Equal(4, d.Len())

	// Pushing a fifth id evicts the oldest.
	req.False(d.Observe("evt-4"))
	req.Equal(4, d.Len())
	req.False(d.Observe("evt-0"))

	// The most recent ids are still deduped.
	req.True(d.Observe("evt-4"))
}

func TestDedupSet_DefaultCapacity(t *testing.T) {
	req := require.New(t)
	d := NewDedupSet(0)

	for i := 0; i < 600; i++ {
		d.Observe(fmt.Sprintf("evt-%d", i))
	}
	req.Equal(512, d.Len())
}
