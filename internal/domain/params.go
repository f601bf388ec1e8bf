package domain

import "github.com/google/uuid"

// DatasetParam is the caller-supplied shape of a Dataset submission.
type DatasetParam struct {
	Id     DatasetId `json:"id"`
	Paused bool      `json:"paused"`
	Extra  RawJSON   `json:"extra,omitempty"`
}

// DataProductParam is the caller-supplied shape of a DataProduct
// submission. It deliberately has no State/RunId/Link/Passback fields:
// those are operational and only ever move through StateParam.
type DataProductParam struct {
	Id          DataProductId `json:"id"`
	Compute     Compute       `json:"compute"`
	Name        string        `json:"name"`
	Version     string        `json:"version"`
	Eager       bool          `json:"eager"`
	Passthrough RawJSON       `json:"passthrough,omitempty"`
	Extra       RawJSON       `json:"extra,omitempty"`
}

// DependencyParam is the caller-supplied shape of a Dependency submission.
type DependencyParam struct {
	ParentId DataProductId `json:"parent_id"`
	ChildId  DataProductId `json:"child_id"`
	Extra    RawJSON       `json:"extra,omitempty"`
}

// StateParam is the caller-supplied shape of a state transition request.
// The Plan Service requires RunId when State is success or failed and
// Link when State is success; Passback is always optional. RunId, Link
// and Passback are not rejected when supplied with any other State.
// DatasetId and DataProductId are set by the HTTP facade from the route
// path, not by the caller's JSON body.
type StateParam struct {
	DatasetId     DatasetId     `json:"-"`
	DataProductId DataProductId `json:"-"`
	State         State         `json:"state"`
	RunId         *uuid.UUID    `json:"run_id,omitempty"`
	Link          *string       `json:"link,omitempty"`
	Passback      RawJSON       `json:"passback,omitempty"`
	Extra         RawJSON       `json:"extra,omitempty"`
}

// RequiresRunId reports whether s's target state requires RunId to be
// populated: true for success and failed.
func (s *StateParam) RequiresRunId() bool {
	return s.State == StateSuccess || s.State == StateFailed
}

// RequiresLink reports whether s's target state requires Link to be
// populated: true for success only. Passback is never required.
func (s *StateParam) RequiresLink() bool {
	return s.State == StateSuccess
}

// PlanParam is the full payload of a plan_dag submission: a dataset, the
// data products it contains, and the dependency edges between them.
type PlanParam struct {
	Dataset      DatasetParam       `json:"dataset"`
	DataProducts []DataProductParam `json:"data_products"`
	Dependencies []DependencyParam  `json:"dependencies"`
}

// DataProductIDs returns the ids of p's submitted data products, in
// submission order, including any repeats.
func (p *PlanParam) DataProductIDs() []DataProductId {
	ids := make([]DataProductId, 0, len(p.DataProducts))
	for _, dp := range p.DataProducts {
		ids = append(ids, dp.Id)
	}

	return ids
}

// ParentIDs returns the parent id of every submitted dependency, in
// submission order, including any repeats.
func (p *PlanParam) ParentIDs() []DataProductId {
	ids := make([]DataProductId, 0, len(p.Dependencies))
	for _, d := range p.Dependencies {
		ids = append(ids, d.ParentId)
	}

	return ids
}

// ChildIDs returns the child id of every submitted dependency, in
// submission order, including any repeats.
func (p *PlanParam) ChildIDs() []DataProductId {
	ids := make([]DataProductId, 0, len(p.Dependencies))
	for _, d := range p.Dependencies {
		ids = append(ids, d.ChildId)
	}

	return ids
}

// DependencyEdges returns p's submitted dependencies as graph kernel
// edges, in submission order, including any repeats.
func (p *PlanParam) DependencyEdges() []DependencyEdge {
	edges := make([]DependencyEdge, 0, len(p.Dependencies))
	for _, d := range p.Dependencies {
		edges = append(edges, DependencyEdge{Parent: d.ParentId, Child: d.ChildId})
	}

	return edges
}

// DuplicateProduct returns the id of the first data product id submitted
// more than once, scanning in submission order, and true if one was
// found. A dataset submission must not repeat a product id.
func (p *PlanParam) DuplicateProduct() (DataProductId, bool) {
	seen := make(map[DataProductId]struct{}, len(p.DataProducts))

	for _, dp := range p.DataProducts {
		if _, ok := seen[dp.Id]; ok {
			return dp.Id, true
		}

		seen[dp.Id] = struct{}{}
	}

	return "", false
}

// DuplicateDependency returns the first (parent, child) dependency pair
// submitted more than once, scanning in submission order, and true if one
// was found.
func (p *PlanParam) DuplicateDependency() (DependencyEdge, bool) {
	seen := make(map[DependencyEdge]struct{}, len(p.Dependencies))

	for _, d := range p.Dependencies {
		edge := DependencyEdge{Parent: d.ParentId, Child: d.ChildId}
		if _, ok := seen[edge]; ok {
			return edge, true
		}

		seen[edge] = struct{}{}
	}

	return DependencyEdge{}, false
}

// SelfDependency returns the first dependency whose parent and child are
// the same product, and true if one was found. A product cannot depend on
// itself.
func (p *PlanParam) SelfDependency() (DataProductId, bool) {
	for _, d := range p.Dependencies {
		if d.ParentId == d.ChildId {
			return d.ParentId, true
		}
	}

	return "", false
}
