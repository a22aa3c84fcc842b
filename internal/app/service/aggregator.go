package service

import "fund_tracer/internal/domain/entity"

// resultAggregator accumulates the output of one scan in discovery order.
type resultAggregator struct {
	edges       []entity.TransferEdge
	truncations []entity.Truncation
}

func newResultAggregator() *resultAggregator {
	return &resultAggregator{edges: make([]entity.TransferEdge, 0)}
}

func (a *resultAggregator) AddEdge(edge entity.TransferEdge) {
	a.edges = append(a.edges, edge)
}

func (a *resultAggregator) AddTruncation(t entity.Truncation) {
	a.truncations = append(a.truncations, t)
}

// Edges returns a copy of the accumulated edges.
func (a *resultAggregator) Edges() []entity.TransferEdge {
	out := make([]entity.TransferEdge, len(a.edges))
	copy(out, a.edges)
	return out
}

func (a *resultAggregator) Truncations() []entity.Truncation {
	if len(a.truncations) == 0 {
		return nil
	}
	out := make([]entity.Truncation, len(a.truncations))
	copy(out, a.truncations)
	return out
}
