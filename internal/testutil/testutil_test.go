package testutil

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/aerbatch/internal/engine"
)

func TestSequentialIDs(t *testing.T) {
	g := NewSequentialIDs("")
	assert.Equal(t, "job-1", g.Generate())
	assert.Equal(t, "job-2", g.Generate())
	g.Reset()
	assert.Equal(t, "job-1", g.Generate())
}

func TestSequentialIDs_ThreadSafe(t *testing.T) {
	g := NewSequentialIDs("x")
	seen := sync.Map{}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, dup := seen.LoadOrStore(g.Generate(), true)
			assert.False(t, dup)
		}()
	}
	wg.Wait()
}

func TestStubEngine_EchoesTags(t *testing.T) {
	s := NewStubEngine()
	ctx := context.Background()

	id, err := s.Run(ctx, engine.RunRequest{
		Programs: []engine.Program{
			{Name: "a", Header: map[string]any{"tag": "A"}},
			{Name: "b", Header: map[string]any{"tag": "B"}},
		},
		Shots: IntPtr(3),
	})
	require.NoError(t, err)
	assert.Equal(t, "job-1", id)

	res, err := s.Result(ctx, id)
	require.NoError(t, err)
	require.Len(t, res.Results, 2)
	assert.Equal(t, map[string]int{"B": 3}, res.Results[1].Counts)

	assert.Equal(t, 1, s.RunCalls())
	assert.Equal(t, 1, s.ResultCalls())
	require.Len(t, s.Requests(), 1)

	_, err = s.Result(ctx, "job-9")
	assert.True(t, engine.IsJobNotFound(err))
}

func TestTaggedCircuits(t *testing.T) {
	cs := TaggedCircuits(3)
	require.Len(t, cs, 3)
	assert.Equal(t, "c2", cs[2].Tag)
	assert.Equal(t, "circuit-c2", cs[2].Name)
}
