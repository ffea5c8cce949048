// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package digisim

import "github.com/pkg/errors"

// GateKind identifies one of the six supported combinational gate
// functions.
type GateKind uint8

const (
	AND GateKind = iota
	OR
	XOR
	NAND
	NOR
	XNOR
)

// String returns the netlist keyword for k (without the leading dot).
func (k GateKind) String() string {
	switch k {
	case AND:
		return "AND"
	case OR:
		return "OR"
	case XOR:
		return "XOR"
	case NAND:
		return "NAND"
	case NOR:
		return "NOR"
	case XNOR:
		return "XNOR"
	default:
		return "UNKNOWN"
	}
}

// MaxGateInputs is the largest number of inputs a single gate may have.
const MaxGateInputs = 8

// Gate is a combinational element of one of six kinds, with one to
// eight input Nodes, one output Node, and a (rise, fall) delay pair.
//
// Gate exposes three operations used by the simulation driver and its
// inertial-delay cancellation policy: Evaluate, Preview and Revert.
type Gate struct {
	Kind      GateKind
	Inputs    []*Node
	Output    *Node
	RiseDelay int
	FallDelay int

	lastOutput  Value
	pendingPrev Value
}

// NewGate builds a Gate. inputs must contain between one and
// MaxGateInputs non-nil nodes, and output must not also appear among
// inputs.
func NewGate(kind GateKind, output *Node, rise, fall int, inputs ...*Node) (*Gate, error) {
	if len(inputs) == 0 {
		return nil, errors.New("gate has no active inputs")
	}
	if len(inputs) > MaxGateInputs {
		return nil, errors.Errorf("gate has %d inputs, max is %d", len(inputs), MaxGateInputs)
	}
	for _, in := range inputs {
		if in == output {
			return nil, errors.Errorf("gate output %q also used as an input", output.Name())
		}
	}
	return &Gate{
		Kind:      kind,
		Inputs:    inputs,
		Output:    output,
		RiseDelay: rise,
		FallDelay: fall,
	}, nil
}

// fold applies the gate's Boolean operator to its current input
// values, folding X/U/Z to 0.
func (g *Gate) fold() int {
	switch g.Kind {
	case AND, NAND:
		r := 1
		for _, in := range g.Inputs {
			r &= in.Value().bit()
		}
		if g.Kind == NAND {
			r = 1 - r
		}
		return r
	case OR, NOR:
		r := 0
		for _, in := range g.Inputs {
			r |= in.Value().bit()
		}
		if g.Kind == NOR {
			r = 1 - r
		}
		return r
	case XOR, XNOR:
		r := 0
		for _, in := range g.Inputs {
			r ^= in.Value().bit()
		}
		if g.Kind == XNOR {
			r = 1 - r
		}
		return r
	default:
		return 0
	}
}

// Evaluate recomputes the gate's output, saving the prior committed
// output into the pending-previous-output slot before overwriting it.
// It returns the new output value, the propagation delay that applies
// to it (FallDelay on a 1->0 transition, RiseDelay on a 0->1 transition,
// 0 otherwise) and whether the output actually changed. changed is
// reported separately from delay because a real transition may be
// configured with a zero rise or fall delay; callers must not mistake
// that case for "no transition occurred".
func (g *Gate) Evaluate() (newVal Value, delay int, changed bool) {
	g.pendingPrev = g.lastOutput
	newBit := g.fold()
	oldBit := g.lastOutput.bit()
	switch {
	case newBit == 0 && oldBit == 1:
		delay = g.FallDelay
		changed = true
	case newBit == 1 && oldBit == 0:
		delay = g.RiseDelay
		changed = true
	default:
		delay = 0
	}
	g.lastOutput = fromBit(newBit)
	return g.lastOutput, delay, changed
}

// Preview re-evaluates the gate's Boolean function without committing
// anything, and reports whether the result would differ from the
// currently committed output. The event-queue cancellation policy uses
// this to decide whether an in-flight output transition must be
// revoked.
func (g *Gate) Preview() bool {
	return g.fold() != g.lastOutput.bit()
}

// Revert restores the committed output to the value it held before the
// most recent Evaluate. It is called by the event queue's cancellation
// policy when a pending NodeUpdate for this gate's output has been
// removed from the queue.
func (g *Gate) Revert() {
	g.lastOutput = g.pendingPrev
}
