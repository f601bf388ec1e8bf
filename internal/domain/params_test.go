package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func samplePlanParam() PlanParam {
	return PlanParam{
		Dataset: DatasetParam{Id: uuid.New(), Paused: false},
		DataProducts: []DataProductParam{
			{Id: "a", Compute: ComputeCams, Name: "alpha", Version: "1"},
			{Id: "b", Compute: ComputeCams, Name: "beta", Version: "1"},
			{Id: "c", Compute: ComputeDbxaas, Name: "gamma", Version: "1"},
		},
		Dependencies: []DependencyParam{
			{ParentId: "a", ChildId: "b"},
			{ParentId: "b", ChildId: "c"},
		},
	}
}

func TestPlanParamDuplicateProductNone(t *testing.T) {
	p := samplePlanParam()
	_, found := p.DuplicateProduct()
	assert.False(t, found)
}

func TestPlanParamDuplicateProductFirstRepeat(t *testing.T) {
	p := samplePlanParam()
	p.DataProducts = append(p.DataProducts, DataProductParam{Id: "a"})

	id, found := p.DuplicateProduct()
	assert.True(t, found)
	assert.Equal(t, DataProductId("a"), id)
}

func TestPlanParamDuplicateDependencyNone(t *testing.T) {
	p := samplePlanParam()
	_, found := p.DuplicateDependency()
	assert.False(t, found)
}

func TestPlanParamDuplicateDependencyFirstRepeat(t *testing.T) {
	p := samplePlanParam()
	p.Dependencies = append(p.Dependencies, DependencyParam{ParentId: "a", ChildId: "b"})

	edge, found := p.DuplicateDependency()
	assert.True(t, found)
	assert.Equal(t, DependencyEdge{Parent: "a", Child: "b"}, edge)
}

func TestPlanParamSelfDependency(t *testing.T) {
	p := samplePlanParam()
	_, found := p.SelfDependency()
	assert.False(t, found)

	p.Dependencies = append(p.Dependencies, DependencyParam{ParentId: "c", ChildId: "c"})

	id, found := p.SelfDependency()
	assert.True(t, found)
	assert.Equal(t, DataProductId("c"), id)
}

func TestPlanParamDataProductIDsPreservesOrderAndRepeats(t *testing.T) {
	p := samplePlanParam()
	assert.Equal(t, []DataProductId{"a", "b", "c"}, p.DataProductIDs())
}

func TestPlanParamDependencyEdges(t *testing.T) {
	p := samplePlanParam()
	assert.Equal(t, []DependencyEdge{
		{Parent: "a", Child: "b"},
		{Parent: "b", Child: "c"},
	}, p.DependencyEdges())
}

func TestPlanParamParentAndChildIDs(t *testing.T) {
	p := samplePlanParam()
	assert.Equal(t, []DataProductId{"a", "b"}, p.ParentIDs())
	assert.Equal(t, []DataProductId{"b", "c"}, p.ChildIDs())
}

func TestStateParamRequiresRunId(t *testing.T) {
	cases := []struct {
		state    State
		required bool
	}{
		{StateWaiting, false},
		{StateQueued, false},
		{StateRunning, false},
		{StateSuccess, true},
		{StateFailed, true},
		{StateDisabled, false},
	}

	for _, tc := range cases {
		sp := StateParam{State: tc.state}
		assert.Equal(t, tc.required, sp.RequiresRunId(), "state=%s", tc.state)
	}
}

func TestStateParamRequiresLink(t *testing.T) {
	assert.True(t, (&StateParam{State: StateSuccess}).RequiresLink())
	assert.False(t, (&StateParam{State: StateFailed}).RequiresLink())
	assert.False(t, (&StateParam{State: StateQueued}).RequiresLink())
}
