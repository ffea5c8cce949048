// Package atpg implements random-vector automatic test-pattern
// generation for single stuck-at-0/stuck-at-1 faults on every node of a
// purely combinational circuit.
package atpg

import (
	"math/rand"

	"github.com/pkg/errors"

	"github.com/dsimlabs/digisim"
)

// ErrStalled is returned when StallTrials consecutive trials fail to
// kill any fault before the required coverage is reached.
var ErrStalled = errors.New("atpg: stalled, no progress for too many trials")

// ErrMaxTrialsExceeded is returned when MaxTrials trials run without
// reaching the required coverage.
var ErrMaxTrialsExceeded = errors.New("atpg: maximum trial count exceeded")

// StuckAtKind distinguishes a stuck-at-0 fault from a stuck-at-1 fault.
type StuckAtKind uint8

const (
	StuckAt0 StuckAtKind = iota
	StuckAt1
)

func (k StuckAtKind) value() digisim.Value {
	if k == StuckAt1 {
		return digisim.One
	}
	return digisim.Zero
}

// Fault identifies one stuck-at fault: a node name pinned to a value.
type Fault struct {
	Node string
	Kind StuckAtKind
}

type faultyCircuit struct {
	fault   Fault
	circuit *digisim.Circuit
}

// Vector is a single assignment of 0/1 to every primary input, applied
// at time 0.
type Vector map[string]digisim.Value

// Trial describes one completed iteration of the generation loop, for
// the Progress callback.
type Trial struct {
	Vector      Vector
	Killed      int
	Coverage    float64
	TrialNumber int
	RemainingN  int
}

// Options configures a Run. RequiredCoverage is a fraction in [0, 1].
// MaxTrials and StallTrials are termination guards against the
// non-termination hazard a redundant (undetectable) fault creates;
// zero means "no cap" for that guard alone, but at least one of the
// two should be set by a caller that cannot tolerate an unbounded loop.
type Options struct {
	RequiredCoverage float64
	MaxTrials        int
	StallTrials      int
	Seed             int64
	Progress         func(Trial)
}

// Result is the outcome of a completed Run: the chosen vectors in
// selection order, the cumulative coverage fraction after each vector
// (same length as Vectors), and the final coverage fraction achieved.
type Result struct {
	Vectors           []Vector
	CoverageAfterEach []float64
	Coverage          float64
}

// Run builds the full stuck-at-0/1 fault set for every node of ref,
// then iterates the random-vector / max-coverage-per-trial loop until
// RequiredCoverage is met (within a 0.001 slack) or a termination guard
// fires.
func Run(ref *digisim.Circuit, opts Options) (*Result, error) {
	faults := buildFaultSet(ref)
	initialCount := len(faults)
	if initialCount == 0 {
		return &Result{Coverage: 1}, nil
	}

	remaining := faults

	rng := rand.New(rand.NewSource(opts.Seed))

	res := &Result{}
	stall := 0
	trialN := 0
	for res.Coverage < opts.RequiredCoverage-0.001 {
		trialN++
		if opts.MaxTrials > 0 && trialN > opts.MaxTrials {
			return res, errors.Wrap(ErrMaxTrialsExceeded, "atpg.Run")
		}

		trialSize := len(remaining)
		seed := rng.Int63()
		trialRand := rand.New(rand.NewSource(seed))

		bestKilled := -1
		var bestVector Vector
		var bestKillSet map[int]bool

		for i := 0; i < trialSize; i++ {
			v := randomVector(ref.PrimaryInputs(), trialRand)
			killSet, err := killedBy(ref, remaining, v)
			if err != nil {
				return res, errors.Wrap(err, "atpg.Run: simulating trial vector")
			}
			if len(killSet) > bestKilled {
				bestKilled = len(killSet)
				bestVector = v
				bestKillSet = killSet
			}
		}

		if bestKilled <= 0 {
			stall++
			if opts.StallTrials > 0 && stall >= opts.StallTrials {
				return res, errors.Wrap(ErrStalled, "atpg.Run")
			}
			continue
		}
		stall = 0

		kept := remaining[:0:0]
		for i, fc := range remaining {
			if !bestKillSet[i] {
				kept = append(kept, fc)
			}
		}
		remaining = kept

		res.Vectors = append(res.Vectors, bestVector)
		res.Coverage += float64(bestKilled) / float64(initialCount)
		res.CoverageAfterEach = append(res.CoverageAfterEach, res.Coverage)

		if opts.Progress != nil {
			opts.Progress(Trial{
				Vector:      bestVector,
				Killed:      bestKilled,
				Coverage:    res.Coverage,
				TrialNumber: trialN,
				RemainingN:  len(remaining),
			})
		}
	}

	return res, nil
}

func buildFaultSet(ref *digisim.Circuit) []*faultyCircuit {
	var out []*faultyCircuit
	for _, n := range ref.Nodes() {
		for _, k := range []StuckAtKind{StuckAt0, StuckAt1} {
			f := Fault{Node: n.Name(), Kind: k}
			clone := ref.Clone()
			clone.LockStuckAt(f.Node, f.Kind.value())
			out = append(out, &faultyCircuit{fault: f, circuit: clone})
		}
	}
	return out
}

func randomVector(inputs []*digisim.Node, rng *rand.Rand) Vector {
	v := make(Vector, len(inputs))
	for _, n := range inputs {
		if rng.Intn(2) == 1 {
			v[n.Name()] = digisim.One
		} else {
			v[n.Name()] = digisim.Zero
		}
	}
	return v
}

func killedBy(ref *digisim.Circuit, remaining []*faultyCircuit, v Vector) (map[int]bool, error) {
	refOut, err := runVector(ref, v)
	if err != nil {
		return nil, err
	}
	kills := make(map[int]bool)
	for i, fc := range remaining {
		out, err := runVector(fc.circuit, v)
		if err != nil {
			return nil, err
		}
		if differs(refOut, out) {
			kills[i] = true
		}
	}
	return kills, nil
}

func runVector(c *digisim.Circuit, v Vector) (map[string]digisim.Value, error) {
	stim := make([]digisim.StimulusRecord, 0, len(v))
	for name, val := range v {
		stim = append(stim, digisim.StimulusRecord{Time: 0, Node: name, Value: val})
	}
	res, err := c.Simulate(stim, digisim.ModeFunctional)
	if err != nil {
		return nil, err
	}
	return res.PrimaryOutputValues(c), nil
}

func differs(a, b map[string]digisim.Value) bool {
	for name, av := range a {
		if b[name] != av {
			return true
		}
	}
	return false
}
