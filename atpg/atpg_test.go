package atpg_test

import (
	"bytes"
	"testing"

	ds "github.com/dsimlabs/digisim"
	"github.com/dsimlabs/digisim/atpg"
)

func newAND(t *testing.T) *ds.Circuit {
	t.Helper()
	c := ds.NewCircuit()
	if err := c.AddGate(ds.AND, "O", 1, 1, "A", "B"); err != nil {
		t.Fatal(err)
	}
	if err := c.Finalize(); err != nil {
		t.Fatal(err)
	}
	return c
}

func TestRunReachesFullCoverageOnTwoInputAND(t *testing.T) {
	c := newAND(t)
	res, err := atpg.Run(c, atpg.Options{
		RequiredCoverage: 1.0,
		MaxTrials:        200,
		StallTrials:      50,
		Seed:             1,
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.Coverage < 0.999 {
		t.Fatalf("coverage = %v, want >= 1.0", res.Coverage)
	}
	if len(res.Vectors) == 0 {
		t.Fatal("expected at least one chosen vector")
	}
}

func TestRunCoverageIsMonotone(t *testing.T) {
	c := newAND(t)
	res, err := atpg.Run(c, atpg.Options{
		RequiredCoverage: 1.0,
		MaxTrials:        200,
		StallTrials:      50,
		Seed:             42,
	})
	if err != nil {
		t.Fatal(err)
	}
	prev := 0.0
	for i, cov := range res.CoverageAfterEach {
		if cov < prev {
			t.Fatalf("coverage decreased at vector %d: %v -> %v", i, prev, cov)
		}
		prev = cov
	}
}

func TestRunZeroNodesNoop(t *testing.T) {
	c := ds.NewCircuit()
	if err := c.Finalize(); err != nil {
		t.Fatal(err)
	}
	res, err := atpg.Run(c, atpg.Options{RequiredCoverage: 1.0})
	if err != nil {
		t.Fatal(err)
	}
	if res.Coverage != 1 {
		t.Fatalf("coverage = %v, want 1 for an empty circuit", res.Coverage)
	}
}

func TestRunRespectsMaxTrials(t *testing.T) {
	c := newAND(t)
	_, err := atpg.Run(c, atpg.Options{
		RequiredCoverage: 2.0, // unreachable
		MaxTrials:        3,
		Seed:             7,
	})
	if err == nil {
		t.Fatal("expected ErrMaxTrialsExceeded for an unreachable coverage target")
	}
}

func TestWriteReportFormat(t *testing.T) {
	c := newAND(t)
	res, err := atpg.Run(c, atpg.Options{
		RequiredCoverage: 1.0,
		MaxTrials:        200,
		StallTrials:      50,
		Seed:             3,
	})
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := atpg.WriteReport(&buf, res); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !bytes.Contains([]byte(out), []byte("--------------- Test Vector #1 ---------------")) {
		t.Fatalf("report missing vector header, got:\n%s", out)
	}
	if !bytes.Contains([]byte(out), []byte("Total Coverage =")) {
		t.Fatalf("report missing coverage line, got:\n%s", out)
	}
}
