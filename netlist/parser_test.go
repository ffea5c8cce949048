package netlist_test

import (
	"strings"
	"testing"

	ds "github.com/dsimlabs/digisim"
	"github.com/dsimlabs/digisim/netlist"
)

func TestParseCircuitGatesAndDFF(t *testing.T) {
	src := `# a small mixed netlist
O .AND 10 5 A B
FF0 .DFF 2 1 D CLK Q QN
`
	c, err := netlist.ParseCircuit("test.net", strings.NewReader(src))
	if err != nil {
		t.Fatal(err)
	}
	if len(c.Gates()) != 1 {
		t.Fatalf("gates = %d, want 1", len(c.Gates()))
	}
	if len(c.FlipFlops()) != 1 {
		t.Fatalf("flip-flops = %d, want 1", len(c.FlipFlops()))
	}
	g := c.Gates()[0]
	if g.Kind != ds.AND || g.RiseDelay != 10 || g.FallDelay != 5 {
		t.Fatalf("gate = %+v, want AND rise=10 fall=5", g)
	}
}

func TestParseCircuitRejectsUnknownKind(t *testing.T) {
	src := "O .FROB 1 1 A B\n"
	if _, err := netlist.ParseCircuit("test.net", strings.NewReader(src)); err == nil {
		t.Fatal("expected an error for an unknown element kind")
	}
}

func TestParseCircuitRejectsZeroInputGate(t *testing.T) {
	src := "O .AND 1 1\n"
	if _, err := netlist.ParseCircuit("test.net", strings.NewReader(src)); err == nil {
		t.Fatal("expected an error for a gate with no inputs")
	}
}

func TestParseCircuitReportsLineNumber(t *testing.T) {
	src := "O .AND 1 1 A B\nP .FROB 1 1 A B\n"
	_, err := netlist.ParseCircuit("test.net", strings.NewReader(src))
	if err == nil {
		t.Fatal("expected an error")
	}
	pe, ok := err.(*netlist.ParseError)
	if !ok {
		t.Fatalf("err = %T, want *netlist.ParseError", err)
	}
	if pe.Line != 2 {
		t.Fatalf("Line = %d, want 2", pe.Line)
	}
}

func TestParseStimulus(t *testing.T) {
	src := `0 A 1
0 B 1
1.9 A 0
`
	recs, err := netlist.ParseStimulus("test.stim", strings.NewReader(src))
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 3 {
		t.Fatalf("records = %d, want 3", len(recs))
	}
	if recs[2].Time != 1 {
		t.Fatalf("time = %d, want 1 (truncated from 1.9)", recs[2].Time)
	}
	if recs[2].Value != ds.Zero {
		t.Fatalf("value = %v, want 0", recs[2].Value)
	}
}

func TestParseStimulusRejectsBadValue(t *testing.T) {
	src := "0 A 2\n"
	if _, err := netlist.ParseStimulus("test.stim", strings.NewReader(src)); err == nil {
		t.Fatal("expected an error for a value other than 0 or 1")
	}
}
