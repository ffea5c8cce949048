package digisim

// SimMode selects between delay-aware timing simulation and zero-delay
// functional simulation. Setup/hold checks only fire in ModeTiming.
type SimMode uint8

const (
	ModeFunctional SimMode = iota
	ModeTiming
)

// ViolationKind distinguishes a setup-time violation from a hold-time
// violation.
type ViolationKind uint8

const (
	SetupViolation ViolationKind = iota
	HoldViolation
)

// String returns "setup" or "hold".
func (k ViolationKind) String() string {
	if k == HoldViolation {
		return "hold"
	}
	return "setup"
}

// Violation is a non-fatal diagnostic emitted by a FlipFlop during
// timing simulation. Simulation continues after a Violation is
// recorded.
type Violation struct {
	Kind ViolationKind
	Node *Node
	Time int
}

// FlipFlop is a positive-edge-triggered storage element with D, CLK, Q
// and Qbar nodes plus setup and hold thresholds. No propagation delay
// is modelled for its outputs: Q and Qbar change instantaneously on the
// detected clock edge.
type FlipFlop struct {
	Name string
	D    *Node
	CLK  *Node
	Q    *Node
	QN   *Node

	Setup int
	Hold  int

	lastClockHigh   bool
	lastDChangeTime int
	lastClkRiseTime int
}

// NewFlipFlop builds a FlipFlop. Initial last-change times are set far
// in the past (-(1<<30)) so that a clock edge at time 0 with no preceding D
// change is never mistaken for a setup violation at construction time.
func NewFlipFlop(name string, d, clk, q, qn *Node, setup, hold int) *FlipFlop {
	return &FlipFlop{
		Name:            name,
		D:               d,
		CLK:             clk,
		Q:               q,
		QN:              qn,
		Setup:           setup,
		Hold:            hold,
		lastDChangeTime: -(1 << 30),
		lastClkRiseTime: -(1 << 30),
	}
}

// Evaluate samples CLK for a 0->1 transition using the internal
// last-clock-high flag (updated unconditionally on every call), and on
// a detected edge captures D into Q/Qbar. In ModeTiming it reports a
// SetupViolation if D changed too recently before this edge. qChanged
// and qnChanged report whether Q/Qbar actually took on a new value —
// callers use them to decide whether a fan-out NodeUpdate is warranted;
// a falling edge, a CLK glitch that doesn't cross 0->1, or a rising
// edge that recaptures the value Q already held all leave the
// corresponding flag false.
func (f *FlipFlop) Evaluate(currentTime int, mode SimMode) (violations []Violation, qChanged, qnChanged bool) {
	clkHigh := f.CLK.Value() == One
	rising := !f.lastClockHigh && clkHigh
	f.lastClockHigh = clkHigh

	if !rising {
		return nil, false, false
	}

	oldQ, oldQN := f.Q.Value(), f.QN.Value()
	d := f.D.Value()
	f.Q.Write(d)
	f.QN.Write(Not(d))
	f.lastClkRiseTime = currentTime
	qChanged = f.Q.Value() != oldQ
	qnChanged = f.QN.Value() != oldQN

	if mode == ModeTiming && currentTime-f.lastDChangeTime < f.Setup {
		return []Violation{{Kind: SetupViolation, Node: f.Q, Time: currentTime}}, qChanged, qnChanged
	}
	return nil, qChanged, qnChanged
}

// NoteDChange records that D changed at time t. In ModeTiming it
// reports a HoldViolation if the change happened too soon after the
// most recent clock edge.
func (f *FlipFlop) NoteDChange(t int, mode SimMode) []Violation {
	f.lastDChangeTime = t
	if mode == ModeTiming && t-f.lastClkRiseTime < f.Hold {
		return []Violation{{Kind: HoldViolation, Node: f.Q, Time: t}}
	}
	return nil
}
