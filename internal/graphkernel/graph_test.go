package graphkernel

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildAcyclic(t *testing.T) {
	nodes := []string{"A", "B", "C"}
	edges := []Edge[string, int]{
		{Parent: "A", Child: "B", Weight: 1},
		{Parent: "B", Child: "C", Weight: 1},
	}

	g, err := Build(nodes, edges)
	require.NoError(t, err)
	assert.ElementsMatch(t, nodes, g.Nodes())
}

func TestBuildCyclical(t *testing.T) {
	nodes := []string{"A", "B"}
	edges := []Edge[string, int]{
		{Parent: "A", Child: "B", Weight: 1},
		{Parent: "B", Child: "A", Weight: 1},
	}

	_, err := Build(nodes, edges)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCyclical))
}

func TestBuildSelfLoopIsCyclical(t *testing.T) {
	nodes := []string{"A"}
	edges := []Edge[string, int]{
		{Parent: "A", Child: "A", Weight: 1},
	}

	_, err := Build(nodes, edges)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCyclical))
}

func TestBuildNodeOutOfBounds(t *testing.T) {
	nodes := []string{"A"}
	edges := []Edge[string, int]{
		{Parent: "A", Child: "X", Weight: 1},
	}

	_, err := Build(nodes, edges)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNodeOutOfBounds))
}

func TestBuildDuplicateNode(t *testing.T) {
	_, err := Build([]string{"A", "A"}, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDuplicateNode))
}

func TestBuildDuplicateEdge(t *testing.T) {
	nodes := []string{"A", "B"}
	edges := []Edge[string, int]{
		{Parent: "A", Child: "B", Weight: 1},
		{Parent: "A", Child: "B", Weight: 1},
	}

	_, err := Build(nodes, edges)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDuplicateEdge))
}

func TestBuildDedupedFoldsRepeats(t *testing.T) {
	nodes := []string{"A", "A", "B"}
	edges := []Edge[string, int]{
		{Parent: "A", Child: "B", Weight: 1},
		{Parent: "A", Child: "B", Weight: 1},
	}

	g, err := BuildDeduped(nodes, edges)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"A", "B"}, g.Nodes())
}

func TestBuildDedupedDetectsCycleAcrossUnion(t *testing.T) {
	// Simulates the union of a submitted edge with prior state forming a cycle.
	nodes := []string{"A", "B"}
	edges := []Edge[string, int]{
		{Parent: "A", Child: "B", Weight: 1}, // prior
		{Parent: "B", Child: "A", Weight: 1}, // newly submitted
	}

	_, err := BuildDeduped(nodes, edges)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCyclical))
}

func TestLargerDiamondIsAcyclic(t *testing.T) {
	nodes := []string{"A", "B", "C", "D"}
	edges := []Edge[string, int]{
		{Parent: "A", Child: "B", Weight: 1},
		{Parent: "A", Child: "C", Weight: 1},
		{Parent: "B", Child: "D", Weight: 1},
		{Parent: "C", Child: "D", Weight: 1},
	}

	_, err := Build(nodes, edges)
	require.NoError(t, err)
}
