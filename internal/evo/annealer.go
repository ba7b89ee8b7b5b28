package evo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"

	"evovec/internal/genotype"
	"evovec/internal/model"
)

// EvaluateFn scores a polygon set; lower is better.
type EvaluateFn func(ctx context.Context, set model.PolygonSet) (uint64, error)

// Mutator applies one localized edit to a set in place.
type Mutator interface {
	Mutate(set *model.PolygonSet) (Mutation, error)
}

// HookFn runs after every completed iteration. Returning an error aborts the
// run.
type HookFn func(ctx context.Context, a *Annealer, report StepReport) error

type Phase int

const (
	PhaseRunning Phase = iota
	PhaseTerminated
)

func (p Phase) String() string {
	switch p {
	case PhaseRunning:
		return "running"
	case PhaseTerminated:
		return "terminated"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

const (
	OutcomeImproved = "improved"
	OutcomeAnnealed = "annealed"
	OutcomeRejected = "rejected"
	OutcomeNeutral  = "neutral"
)

var ErrTerminated = errors.New("annealer already terminated")

// State is the mutable part of an annealing run.
type State struct {
	Phase          Phase   `json:"-"`
	Temperature    float64 `json:"temperature"`
	Iteration      int     `json:"iteration"`
	Improving      int     `json:"improving"`
	Annealed       int     `json:"annealed"`
	CurrentFitness uint64  `json:"current_fitness"`
	BestFitness    uint64  `json:"best_fitness"`
}

// StepReport describes one finished iteration.
type StepReport struct {
	Iteration        int
	Temperature      float64
	Mutation         Mutation
	CandidateFitness uint64
	Outcome          string
	BestRefreshed    bool
	State            State
}

type AnnealerConfig struct {
	Schedule Schedule
	Rand     genotype.Source
	Mutator  Mutator
	Evaluate EvaluateFn
	Hook     HookFn
	Logger   *slog.Logger
}

type Result struct {
	Best           model.PolygonSet
	BestFitness    uint64
	InitialFitness uint64
	State          State
}

// Annealer is the simulated annealing controller. It exclusively owns the
// current and best sets; neither is handed out without cloning.
type Annealer struct {
	cfg    AnnealerConfig
	logger *slog.Logger

	current        model.PolygonSet
	best           model.PolygonSet
	initialFitness uint64
	state          State
}

// NewAnnealer scores initial and returns a controller in the running phase,
// or already terminated when the initial temperature is below the threshold.
func NewAnnealer(ctx context.Context, cfg AnnealerConfig, initial model.PolygonSet) (*Annealer, error) {
	if err := cfg.Schedule.Validate(); err != nil {
		return nil, err
	}
	if cfg.Rand == nil {
		return nil, genotype.ErrRandomSourceRequired
	}
	if cfg.Mutator == nil {
		return nil, errors.New("mutator is required")
	}
	if cfg.Evaluate == nil {
		return nil, errors.New("evaluate function is required")
	}
	if len(initial.Polygons) == 0 {
		return nil, ErrEmptySet
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	current := genotype.Clone(initial)
	fitness, err := cfg.Evaluate(ctx, current)
	if err != nil {
		return nil, fmt.Errorf("evaluate initial set: %w", err)
	}

	a := &Annealer{
		cfg:            cfg,
		logger:         logger,
		current:        current,
		best:           genotype.Clone(current),
		initialFitness: fitness,
		state: State{
			Phase:          PhaseRunning,
			Temperature:    cfg.Schedule.Initial,
			CurrentFitness: fitness,
			BestFitness:    fitness,
		},
	}
	if cfg.Schedule.Frozen(a.state.Temperature) {
		a.state.Phase = PhaseTerminated
	}
	return a, nil
}

func (a *Annealer) State() State {
	return a.state
}

func (a *Annealer) Done() bool {
	return a.state.Phase == PhaseTerminated
}

// Best returns a deep copy of the best-ever set.
func (a *Annealer) Best() model.PolygonSet {
	return genotype.Clone(a.best)
}

// Current returns a deep copy of the current set.
func (a *Annealer) Current() model.PolygonSet {
	return genotype.Clone(a.current)
}

// Step runs one propose/score/accept/cool iteration.
func (a *Annealer) Step(ctx context.Context) (StepReport, error) {
	if a.Done() {
		return StepReport{}, ErrTerminated
	}

	candidate := genotype.Clone(a.current)
	mutation, err := a.cfg.Mutator.Mutate(&candidate)
	if err != nil {
		return StepReport{}, fmt.Errorf("mutate: %w", err)
	}
	candidateFitness, err := a.cfg.Evaluate(ctx, candidate)
	if err != nil {
		return StepReport{}, fmt.Errorf("evaluate candidate: %w", err)
	}

	report := StepReport{
		Iteration:        a.state.Iteration + 1,
		Temperature:      a.state.Temperature,
		Mutation:         mutation,
		CandidateFitness: candidateFitness,
	}

	// Ties refresh best so it tracks the most recent equally good state.
	if candidateFitness <= a.state.BestFitness {
		a.best = genotype.Clone(candidate)
		a.state.BestFitness = candidateFitness
		report.BestRefreshed = true
	}

	switch {
	case candidateFitness < a.state.CurrentFitness:
		a.current = candidate
		a.state.CurrentFitness = candidateFitness
		a.state.Improving++
		report.Outcome = OutcomeImproved
	case candidateFitness > a.state.CurrentFitness:
		delta := candidateFitness - a.state.CurrentFitness
		p := AcceptanceProbability(delta, a.state.Temperature, a.cfg.Schedule.Scale)
		if genotype.UnitFloat(a.cfg.Rand) < p {
			a.current = candidate
			a.state.CurrentFitness = candidateFitness
			a.state.Annealed++
			report.Outcome = OutcomeAnnealed
			a.logger.Debug("annealed move accepted",
				"iteration", report.Iteration,
				"delta", delta,
				"temperature", a.state.Temperature,
				"probability", p,
			)
		} else {
			report.Outcome = OutcomeRejected
		}
	default:
		report.Outcome = OutcomeNeutral
	}

	a.state.Temperature = a.cfg.Schedule.Next(a.state.Temperature)
	a.state.Iteration++
	if a.cfg.Schedule.Frozen(a.state.Temperature) {
		a.state.Phase = PhaseTerminated
	}
	report.State = a.state
	return report, nil
}

// Run steps until the schedule freezes, the hook fails or ctx is done.
func (a *Annealer) Run(ctx context.Context) (Result, error) {
	for !a.Done() {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		report, err := a.Step(ctx)
		if err != nil {
			return Result{}, err
		}
		if a.cfg.Hook != nil {
			if err := a.cfg.Hook(ctx, a, report); err != nil {
				return Result{}, fmt.Errorf("iteration %d hook: %w", report.Iteration, err)
			}
		}
	}

	a.logger.Info("annealing terminated",
		"iterations", a.state.Iteration,
		"improving", a.state.Improving,
		"annealed", a.state.Annealed,
		"best_fitness", a.state.BestFitness,
		"temperature", a.state.Temperature,
	)
	return a.Result(), nil
}

func (a *Annealer) Result() Result {
	return Result{
		Best:           a.Best(),
		BestFitness:    a.state.BestFitness,
		InitialFitness: a.initialFitness,
		State:          a.state,
	}
}

// AcceptanceProbability is the Metropolis criterion exp(-delta/(t*scale)).
func AcceptanceProbability(delta uint64, temperature, scale float64) float64 {
	if delta == 0 {
		return 1
	}
	effective := temperature * scale
	if effective <= 0 {
		return 0
	}
	return math.Exp(-float64(delta) / effective)
}
