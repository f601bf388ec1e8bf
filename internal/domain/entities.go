package domain

import (
	"time"

	"github.com/google/uuid"
)

// Dataset is a named unit of orchestration: a collection of data products
// wired together by dependency edges. A dataset can be paused, which
// blocks new state transitions for every data product it owns until it
// is unpaused. Extra carries caller-defined metadata opaque to Fletcher.
type Dataset struct {
	Id           DatasetId `json:"id"`
	Paused       bool      `json:"paused"`
	Extra        RawJSON   `json:"extra,omitempty"`
	ModifiedBy   string    `json:"modified_by"`
	ModifiedDate time.Time `json:"modified_date"`
}

// DataProduct is one runnable unit inside a Dataset. State, RunId, Link,
// and Passback are operational fields that only a state transition may
// change; an upsert of the product's definition (Compute, Name, Version,
// Eager, Passthrough, Extra) never touches them.
type DataProduct struct {
	Id           DataProductId `json:"id"`
	DatasetId    DatasetId     `json:"dataset_id"`
	Compute      Compute       `json:"compute"`
	Name         string        `json:"name"`
	Version      string        `json:"version"`
	Eager        bool          `json:"eager"`
	Passthrough  RawJSON       `json:"passthrough,omitempty"`
	State        State         `json:"state"`
	RunId        *uuid.UUID    `json:"run_id,omitempty"`
	Link         *string       `json:"link,omitempty"`
	Passback     RawJSON       `json:"passback,omitempty"`
	Extra        RawJSON       `json:"extra,omitempty"`
	ModifiedBy   string        `json:"modified_by"`
	ModifiedDate time.Time     `json:"modified_date"`
}

// Dependency is a directed edge: ChildId waits on ParentId within the same
// dataset. ParentId and ChildId must differ and must both reference data
// products belonging to DatasetId.
type Dependency struct {
	DatasetId    DatasetId     `json:"dataset_id"`
	ParentId     DataProductId `json:"parent_id"`
	ChildId      DataProductId `json:"child_id"`
	Extra        RawJSON       `json:"extra,omitempty"`
	ModifiedBy   string        `json:"modified_by"`
	ModifiedDate time.Time     `json:"modified_date"`
}

// Plan is the read-side aggregate of a dataset: its data products and the
// dependency edges between them. It has no storage of its own; it is
// assembled from DataProduct and Dependency rows at read time.
type Plan struct {
	Dataset      Dataset       `json:"dataset"`
	DataProducts []DataProduct `json:"data_products"`
	Dependencies []Dependency  `json:"dependencies"`
}

// DataProductIDs returns the ids of p's data products, in the order they
// were assembled.
func (p *Plan) DataProductIDs() []DataProductId {
	ids := make([]DataProductId, 0, len(p.DataProducts))
	for _, dp := range p.DataProducts {
		ids = append(ids, dp.Id)
	}

	return ids
}

// DependencyEdges returns p's dependencies as graph kernel edges, for
// acyclicity checking.
func (p *Plan) DependencyEdges() []DependencyEdge {
	edges := make([]DependencyEdge, 0, len(p.Dependencies))
	for _, d := range p.Dependencies {
		edges = append(edges, DependencyEdge{Parent: d.ParentId, Child: d.ChildId})
	}

	return edges
}

// DependencyEdge is a dependency reduced to the pair the graph kernel
// needs: which product must finish before which other one starts.
type DependencyEdge struct {
	Parent DataProductId
	Child  DataProductId
}
