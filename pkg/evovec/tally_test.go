package evovec

import (
	"errors"
	"reflect"
	"testing"

	"evovec/internal/evo"
	"evovec/internal/model"
	"evovec/internal/stats"
)

type scriptedMutator struct {
	mutations []evo.Mutation
	err       error
}

func (m *scriptedMutator) Mutate(*model.PolygonSet) (evo.Mutation, error) {
	if m.err != nil {
		return evo.Mutation{}, m.err
	}
	next := m.mutations[0]
	m.mutations = m.mutations[1:]
	return next, nil
}

func TestMutationTallyCountsByKindInFirstSeenOrder(t *testing.T) {
	inner := &scriptedMutator{mutations: []evo.Mutation{
		{Kind: "color", Applied: true},
		{Kind: "move_vertex", Applied: true},
		{Kind: "color", Applied: true},
		{Kind: "topology", Applied: false},
	}}
	tally := newMutationTally(inner)
	outcomes := []string{evo.OutcomeImproved, evo.OutcomeRejected, evo.OutcomeAnnealed, evo.OutcomeNeutral}

	set := &model.PolygonSet{}
	for _, outcome := range outcomes {
		m, err := tally.Mutate(set)
		if err != nil {
			t.Fatalf("mutate: %v", err)
		}
		tally.accept(evo.StepReport{Mutation: m, Outcome: outcome})
	}

	want := []stats.MutationCount{
		{Kind: "color", Proposed: 2, Applied: 2, Accepted: 2},
		{Kind: "move_vertex", Proposed: 1, Applied: 1, Accepted: 0},
		{Kind: "topology", Proposed: 1, Applied: 0, Accepted: 0},
	}
	if got := tally.counts(); !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected counts:\n got=%+v\nwant=%+v", got, want)
	}
}

func TestMutationTallyPassesErrorsThrough(t *testing.T) {
	boom := errors.New("boom")
	tally := newMutationTally(&scriptedMutator{err: boom})
	if _, err := tally.Mutate(&model.PolygonSet{}); !errors.Is(err, boom) {
		t.Fatalf("expected inner error, got %v", err)
	}
	if got := tally.counts(); len(got) != 0 {
		t.Fatalf("failed proposals must not be counted: %+v", got)
	}
}
