package digisim_test

import (
	"testing"

	ds "github.com/dsimlabs/digisim"
	"github.com/pkg/errors"
)

func trace(t *testing.T, err error) {
	t.Helper()
	if err, ok := err.(interface {
		StackTrace() errors.StackTrace
	}); ok {
		for _, f := range err.StackTrace() {
			t.Logf("%+v ", f)
		}
	}
}

func newAND(t *testing.T, rise, fall int) *ds.Circuit {
	t.Helper()
	c := ds.NewCircuit()
	if err := c.AddGate(ds.AND, "O", rise, fall, "A", "B"); err != nil {
		trace(t, err)
		t.Fatal(err)
	}
	if err := c.Finalize(); err != nil {
		t.Fatal(err)
	}
	return c
}

func TestANDSteadyState(t *testing.T) {
	stim := []ds.StimulusRecord{
		{Time: 0, Node: "A", Value: ds.One},
		{Time: 0, Node: "B", Value: ds.One},
	}

	t.Run("functional", func(t *testing.T) {
		c := newAND(t, 10, 5)
		res, err := c.Simulate(stim, ds.ModeFunctional)
		if err != nil {
			t.Fatal(err)
		}
		if got := res.PrimaryOutputValues(c)["O"]; got != ds.One {
			t.Fatalf("O = %v, want 1", got)
		}
		for _, w := range res.Waveform {
			if w.Node.Name() == "O" && w.Time != 0 {
				t.Fatalf("unexpected late change on O: %+v", w)
			}
		}
	})

	t.Run("timing", func(t *testing.T) {
		c := newAND(t, 10, 5)
		res, err := c.Simulate(stim, ds.ModeTiming)
		if err != nil {
			t.Fatal(err)
		}
		var oChanges []ds.WaveformRecord
		for _, w := range res.Waveform {
			if w.Node.Name() == "O" {
				oChanges = append(oChanges, w)
			}
		}
		if len(oChanges) != 1 || oChanges[0].Time != 10 || oChanges[0].Value != ds.One {
			t.Fatalf("O changes = %+v, want exactly one change to 1 at t=10", oChanges)
		}
	})
}

func TestInertialDelayCancelsGlitch(t *testing.T) {
	c := newAND(t, 10, 5)
	stim := []ds.StimulusRecord{
		{Time: 0, Node: "A", Value: ds.One},
		{Time: 0, Node: "B", Value: ds.One},
		{Time: 1, Node: "A", Value: ds.Zero},
	}
	res, err := c.Simulate(stim, ds.ModeTiming)
	if err != nil {
		t.Fatal(err)
	}
	for _, w := range res.Waveform {
		if w.Node.Name() == "O" {
			t.Fatalf("output O should never have changed, got %+v", w)
		}
	}
	if res.FinalValues["O"] != ds.Zero {
		t.Fatalf("final O = %v, want 0", res.FinalValues["O"])
	}
}

func TestGlitchSuppressionScenario(t *testing.T) {
	c := newAND(t, 10, 5)
	stim := []ds.StimulusRecord{
		{Time: 0, Node: "A", Value: ds.Zero},
		{Time: 0, Node: "B", Value: ds.One},
		{Time: 1, Node: "A", Value: ds.One},
		{Time: 2, Node: "A", Value: ds.Zero},
	}
	res, err := c.Simulate(stim, ds.ModeTiming)
	if err != nil {
		t.Fatal(err)
	}
	for _, w := range res.Waveform {
		if w.Node.Name() == "O" {
			t.Fatalf("expected no value-change record for O, got %+v", w)
		}
	}
}

func TestNANDStartupSettling(t *testing.T) {
	c := ds.NewCircuit()
	if err := c.AddGate(ds.NAND, "O", 3, 4, "A", "B"); err != nil {
		t.Fatal(err)
	}
	if err := c.Finalize(); err != nil {
		t.Fatal(err)
	}

	res, err := c.Simulate(nil, ds.ModeTiming)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Waveform) != 1 {
		t.Fatalf("waveform = %+v, want exactly one record", res.Waveform)
	}
	if res.Waveform[0].Time != 3 || res.Waveform[0].Value != ds.One {
		t.Fatalf("got %+v, want {Time:3 Value:1}", res.Waveform[0])
	}
}

func newDFF(t *testing.T, setup, hold int) *ds.Circuit {
	t.Helper()
	c := ds.NewCircuit()
	if err := c.AddFlipFlop("FF0", setup, hold, "D", "CLK", "Q", "QN"); err != nil {
		t.Fatal(err)
	}
	if err := c.Finalize(); err != nil {
		t.Fatal(err)
	}
	return c
}

func TestDFFCapture(t *testing.T) {
	c := newDFF(t, 2, 1)
	stim := []ds.StimulusRecord{
		{Time: 0, Node: "D", Value: ds.One},
		{Time: 5, Node: "CLK", Value: ds.One},
	}
	res, err := c.Simulate(stim, ds.ModeFunctional)
	if err != nil {
		t.Fatal(err)
	}
	if res.FinalValues["Q"] != ds.One || res.FinalValues["QN"] != ds.Zero {
		t.Fatalf("Q=%v QN=%v, want Q=1 QN=0", res.FinalValues["Q"], res.FinalValues["QN"])
	}
	for _, w := range res.Waveform {
		if w.Node.Name() == "Q" && w.Value == ds.One && w.Time != 5 {
			t.Fatalf("Q captured at unexpected time: %+v", w)
		}
	}
}

func TestDFFSetupViolation(t *testing.T) {
	c := newDFF(t, 2, 1)
	stim := []ds.StimulusRecord{
		{Time: 4, Node: "D", Value: ds.One},
		{Time: 5, Node: "CLK", Value: ds.One},
	}
	res, err := c.Simulate(stim, ds.ModeTiming)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Violations) != 1 {
		t.Fatalf("violations = %+v, want exactly one", res.Violations)
	}
	v := res.Violations[0]
	if v.Kind != ds.SetupViolation || v.Node.Name() != "Q" || v.Time != 5 {
		t.Fatalf("violation = %+v, want SetupViolation on Q at t=5", v)
	}
}

func TestDFFEdgeTriggering(t *testing.T) {
	c := newDFF(t, 0, 0)
	stim := []ds.StimulusRecord{
		{Time: 0, Node: "D", Value: ds.One},
		{Time: 10, Node: "CLK", Value: ds.One},
		{Time: 20, Node: "CLK", Value: ds.Zero},
		{Time: 30, Node: "CLK", Value: ds.One},
	}
	res, err := c.Simulate(stim, ds.ModeTiming)
	if err != nil {
		t.Fatal(err)
	}
	var qChanges []int
	for _, w := range res.Waveform {
		if w.Node.Name() == "Q" && w.Value == ds.One {
			qChanges = append(qChanges, w.Time)
		}
	}
	if len(qChanges) != 1 || qChanges[0] != 10 {
		t.Fatalf("Q rose at %v, want exactly [10]", qChanges)
	}
}

func TestStuckAtLocking(t *testing.T) {
	c := newAND(t, 0, 0)
	if err := c.LockStuckAt("A", ds.One); err != nil {
		t.Fatal(err)
	}
	stim := []ds.StimulusRecord{
		{Time: 0, Node: "A", Value: ds.Zero},
		{Time: 0, Node: "B", Value: ds.One},
	}
	res, err := c.Simulate(stim, ds.ModeFunctional)
	if err != nil {
		t.Fatal(err)
	}
	if res.FinalValues["A"] != ds.One {
		t.Fatalf("A = %v, want 1 (locked)", res.FinalValues["A"])
	}
	if res.FinalValues["O"] != ds.One {
		t.Fatalf("O = %v, want 1 since A stays locked at 1", res.FinalValues["O"])
	}
}

func TestLockStuckAtUnknownNode(t *testing.T) {
	c := newAND(t, 0, 0)
	if err := c.LockStuckAt("nope", ds.One); err == nil {
		t.Fatal("expected an error locking an unknown node")
	}
}

func TestSimulateUnknownStimulusNode(t *testing.T) {
	c := newAND(t, 0, 0)
	stim := []ds.StimulusRecord{{Time: 0, Node: "nope", Value: ds.One}}
	if _, err := c.Simulate(stim, ds.ModeFunctional); err == nil {
		t.Fatal("expected an error for stimulus referring to an unknown node")
	}
}

func TestFunctionalTimingEquivalenceAtSteadyState(t *testing.T) {
	stim := []ds.StimulusRecord{
		{Time: 0, Node: "A", Value: ds.One},
		{Time: 0, Node: "B", Value: ds.Zero},
		{Time: 5, Node: "B", Value: ds.One},
	}
	cf := newAND(t, 10, 5)
	ct := newAND(t, 10, 5)

	fres, err := cf.Simulate(stim, ds.ModeFunctional)
	if err != nil {
		t.Fatal(err)
	}
	tres, err := ct.Simulate(stim, ds.ModeTiming)
	if err != nil {
		t.Fatal(err)
	}
	fo := fres.PrimaryOutputValues(cf)
	to := tres.PrimaryOutputValues(ct)
	for name, v := range fo {
		if to[name] != v {
			t.Fatalf("output %s: functional=%v timing=%v, want equal at steady state", name, v, to[name])
		}
	}
}

func TestPrimaryInputsAndOutputs(t *testing.T) {
	c := newAND(t, 0, 0)
	var inNames []string
	for _, n := range c.PrimaryInputs() {
		inNames = append(inNames, n.Name())
	}
	if len(inNames) != 2 {
		t.Fatalf("primary inputs = %v, want 2", inNames)
	}
	var outNames []string
	for _, n := range c.PrimaryOutputs() {
		outNames = append(outNames, n.Name())
	}
	if len(outNames) != 1 || outNames[0] != "O" {
		t.Fatalf("primary outputs = %v, want [O]", outNames)
	}
}

func TestAddGateRejectsOutputAsInput(t *testing.T) {
	c := ds.NewCircuit()
	if err := c.AddGate(ds.AND, "A", 0, 0, "A", "B"); err == nil {
		t.Fatal("expected an error for a gate whose output is also an input")
	}
}

func TestAddGateRejectsDuplicateDriver(t *testing.T) {
	c := ds.NewCircuit()
	if err := c.AddGate(ds.AND, "O", 0, 0, "A", "B"); err != nil {
		t.Fatal(err)
	}
	if err := c.AddGate(ds.OR, "O", 0, 0, "C", "D"); err == nil {
		t.Fatal("expected an error for a second gate driving the same output")
	}
}

func TestCircuitClone(t *testing.T) {
	c := newAND(t, 10, 5)
	clone := c.Clone()

	stim := []ds.StimulusRecord{
		{Time: 0, Node: "A", Value: ds.One},
		{Time: 0, Node: "B", Value: ds.One},
	}
	if _, err := clone.Simulate(stim, ds.ModeFunctional); err != nil {
		t.Fatal(err)
	}
	if got, ok := c.LookupNode("A"); !ok || got.Value() != ds.Zero {
		t.Fatalf("original circuit's node A was mutated by simulating the clone")
	}
}
