package evovec

import (
	"evovec/internal/evo"
	"evovec/internal/model"
	"evovec/internal/stats"
)

// mutationTally wraps a mutator and counts proposals and acceptances per
// mutation kind.
type mutationTally struct {
	inner evo.Mutator
	order []string
	byKey map[string]*stats.MutationCount
}

func newMutationTally(inner evo.Mutator) *mutationTally {
	return &mutationTally{inner: inner, byKey: make(map[string]*stats.MutationCount)}
}

func (t *mutationTally) Mutate(set *model.PolygonSet) (evo.Mutation, error) {
	m, err := t.inner.Mutate(set)
	if err != nil {
		return m, err
	}
	count := t.entry(m.Kind)
	count.Proposed++
	if m.Applied {
		count.Applied++
	}
	return m, nil
}

func (t *mutationTally) accept(report evo.StepReport) {
	switch report.Outcome {
	case evo.OutcomeImproved, evo.OutcomeAnnealed:
		t.entry(report.Mutation.Kind).Accepted++
	}
}

func (t *mutationTally) entry(kind string) *stats.MutationCount {
	count, ok := t.byKey[kind]
	if !ok {
		count = &stats.MutationCount{Kind: kind}
		t.byKey[kind] = count
		t.order = append(t.order, kind)
	}
	return count
}

func (t *mutationTally) counts() []stats.MutationCount {
	out := make([]stats.MutationCount, 0, len(t.order))
	for _, kind := range t.order {
		out = append(out, *t.byKey[kind])
	}
	return out
}
