package digisim

import (
	"sort"

	"github.com/pkg/errors"
)

// StimulusRecord is one (time, node, value) triple from a stimulus
// stream: a scheduled primary-input value change.
type StimulusRecord struct {
	Time  int
	Node  string
	Value Value
}

// WaveformRecord is one observed value change on a node, at the time it
// was committed by the simulation driver.
type WaveformRecord struct {
	Time  int
	Node  *Node
	Value Value
}

// SimResult is everything a caller needs after a Simulate call: the
// full waveform (for VCD output), any setup/hold violations recorded
// during a timing run, and the settled value of every node at the end
// of the run.
type SimResult struct {
	InitialValues map[string]Value
	Waveform      []WaveformRecord
	Violations    []Violation
	FinalValues   map[string]Value
}

// PrimaryOutputValues returns the settled value of every primary output
// node, keyed by name.
func (r *SimResult) PrimaryOutputValues(c *Circuit) map[string]Value {
	out := make(map[string]Value, len(c.primaryOutputs))
	for _, n := range c.primaryOutputs {
		out[n.Name()] = r.FinalValues[n.Name()]
	}
	return out
}

// Simulate replays stimulus against c in the given mode and returns the
// resulting waveform, violations and final node values.
//
// Timing mode is delay-aware: gate output changes take effect
// RiseDelay/FallDelay stimulus-time units after the triggering input
// change, and an in-flight change that would be superseded before it
// lands is cancelled (inertial delay). Setup/hold violations on
// flip-flops are recorded, not fatal.
//
// Functional mode ignores gate delays (every settled output change
// takes effect at the time of the triggering input change) and never
// checks setup/hold. It also performs an initial settling pass (driving
// any gate whose all-zero-input output is non-zero, i.e. NAND, NOR and
// XNOR) before reading the first stimulus record.
func (c *Circuit) Simulate(stimulus []StimulusRecord, mode SimMode) (*SimResult, error) {
	q := NewEventQueue()

	res := &SimResult{
		InitialValues: make(map[string]Value, len(c.nodeOrder)),
		FinalValues:   make(map[string]Value, len(c.nodeOrder)),
	}

	scheduleGateChange := func(g *Gate, atTime int) {
		newVal, delay, changed := g.Evaluate()
		if !changed {
			return
		}
		t := atTime
		if mode == ModeTiming {
			t = atTime + delay
		}
		q.PushEvent(&Event{Time: t, Kind: NodeUpdate, Node: g.Output, Value: newVal})
	}

	if mode == ModeFunctional {
		// Initial settling pass: drive NAND/NOR/XNOR startup transitions
		// to convergence, silently (no waveform records), before the
		// dumpvars snapshot is taken.
		for _, g := range c.gates {
			scheduleGateChange(g, 0)
		}
		c.drain(q, mode, nil, nil)
		for _, name := range c.nodeOrder {
			res.InitialValues[name] = c.nodes[name].Value()
		}
	} else {
		// Timing mode: startup transitions are scheduled at their real
		// delay and observed like any other event; the pre-settlement
		// snapshot is the nodes' current values (all-zero on a freshly
		// built circuit, since Simulate does not reset node state).
		for _, name := range c.nodeOrder {
			res.InitialValues[name] = c.nodes[name].Value()
		}
		for _, g := range c.gates {
			scheduleGateChange(g, 0)
		}
	}

	sortedStimulus := append([]StimulusRecord(nil), stimulus...)
	sort.SliceStable(sortedStimulus, func(i, j int) bool { return sortedStimulus[i].Time < sortedStimulus[j].Time })
	for _, s := range sortedStimulus {
		n, ok := c.LookupNode(s.Node)
		if !ok {
			return nil, errors.Errorf("stimulus refers to unknown node %q", s.Node)
		}
		q.PushEvent(&Event{Time: s.Time, Kind: NodeUpdate, Node: n, Value: s.Value})
	}

	c.drain(q, mode, &res.Waveform, &res.Violations)

	for _, name := range c.nodeOrder {
		res.FinalValues[name] = c.nodes[name].Value()
	}
	return res, nil
}

// drain runs the event loop to completion. If waveform is non-nil,
// every NodeUpdate is recorded into it; if violations is non-nil, every
// flip-flop diagnostic is appended to it. Passing nil for both lets
// Simulate reuse this loop for the silent initial settling pass in
// functional mode.
func (c *Circuit) drain(q *EventQueue, mode SimMode, waveform *[]WaveformRecord, violations *[]Violation) {
	for !q.Empty() {
		e := q.PopMin()
		switch e.Kind {
		case NodeUpdate:
			e.Node.Write(e.Value)
			if waveform != nil {
				*waveform = append(*waveform, WaveformRecord{Time: e.Time, Node: e.Node, Value: e.Node.Value()})
			}
			for _, g := range c.gatesByInput[e.Node] {
				if g.Preview() {
					q.CancelUpdatesTo(g.Output, g)
					q.PushEvent(&Event{Time: e.Time, Kind: GateRecompute, Gate: g})
				}
			}
			for _, ff := range c.ffByCLK[e.Node] {
				q.PushEvent(&Event{Time: e.Time, Kind: FlipFlopClockTick, FlipFlop: ff})
			}
			for _, ff := range c.ffByD[e.Node] {
				vs := ff.NoteDChange(e.Time, mode)
				if violations != nil {
					*violations = append(*violations, vs...)
				}
			}
		case GateRecompute:
			newVal, delay, changed := e.Gate.Evaluate()
			if !changed {
				continue
			}
			t := e.Time
			if mode == ModeTiming {
				t = e.Time + delay
			}
			q.PushEvent(&Event{Time: t, Kind: NodeUpdate, Node: e.Gate.Output, Value: newVal})
		case FlipFlopClockTick:
			vs, qChanged, qnChanged := e.FlipFlop.Evaluate(e.Time, mode)
			if violations != nil {
				*violations = append(*violations, vs...)
			}
			if qChanged {
				q.PushEvent(&Event{Time: e.Time, Kind: NodeUpdate, Node: e.FlipFlop.Q, Value: e.FlipFlop.Q.Value()})
			}
			if qnChanged {
				q.PushEvent(&Event{Time: e.Time, Kind: NodeUpdate, Node: e.FlipFlop.QN, Value: e.FlipFlop.QN.Value()})
			}
		}
	}
}
