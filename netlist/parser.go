// Package netlist reads flat, line-oriented netlist and stimulus text
// formats and builds a digisim.Circuit from them.
//
// A netlist is a sequence of records, one per non-blank, non-comment
// line (comments start with '#' and run to end of line):
//
//	<output_node> .<KIND> <rise_delay> <fall_delay> <in1> [in2 .. in8]
//	<name> .DFF <setup> <hold> <D> <CLK> <Q> <Qbar>
//
// KIND is one of AND, OR, XOR, NAND, NOR, XNOR. Fields are separated by
// arbitrary whitespace.
//
// A stimulus stream is a sequence of records, one per non-blank,
// non-comment line:
//
//	<time> <node_name> <value>
//
// value is 0 or 1. time is parsed as a float and truncated toward zero.
package netlist

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/dsimlabs/digisim"
)

// ParseError reports the source location of a malformed record.
type ParseError struct {
	File string
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	return errors.Wrapf(e.Err, "%s:%d", e.File, e.Line).Error()
}

func (e *ParseError) Cause() error { return e.Err }

func (e *ParseError) Unwrap() error { return e.Err }

var gateKeywords = map[string]digisim.GateKind{
	"AND":  digisim.AND,
	"OR":   digisim.OR,
	"XOR":  digisim.XOR,
	"NAND": digisim.NAND,
	"NOR":  digisim.NOR,
	"XNOR": digisim.XNOR,
}

// ParseCircuit reads a netlist from r (source named file, for error
// messages) and returns a finalized digisim.Circuit.
func ParseCircuit(file string, r io.Reader) (*digisim.Circuit, error) {
	c := digisim.NewCircuit()
	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := stripComment(sc.Text())
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		if err := parseRecord(c, fields); err != nil {
			return nil, &ParseError{File: file, Line: lineNo, Err: err}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrapf(err, "%s: read", file)
	}
	if err := c.Finalize(); err != nil {
		return nil, errors.Wrapf(err, "%s: finalize", file)
	}
	return c, nil
}

func stripComment(line string) string {
	if i := strings.IndexByte(line, '#'); i >= 0 {
		return line[:i]
	}
	return line
}

func parseRecord(c *digisim.Circuit, fields []string) error {
	if len(fields) < 2 {
		return errors.Errorf("record %q: expected at least 2 fields", strings.Join(fields, " "))
	}
	keyword := fields[1]
	if !strings.HasPrefix(keyword, ".") {
		return errors.Errorf("record %q: second field must start with '.'", strings.Join(fields, " "))
	}
	keyword = strings.TrimPrefix(keyword, ".")

	if keyword == "DFF" {
		return parseFlipFlop(c, fields)
	}
	kind, ok := gateKeywords[keyword]
	if !ok {
		return errors.Errorf("unknown element kind %q", keyword)
	}
	return parseGate(c, kind, fields)
}

func parseGate(c *digisim.Circuit, kind digisim.GateKind, fields []string) error {
	// fields: <output> .<KIND> <rise> <fall> <in1> [.. in8]
	if len(fields) < 5 {
		return errors.Errorf("%s record %q: expected output, delays and at least one input", kind, strings.Join(fields, " "))
	}
	output := fields[0]
	rise, err := strconv.Atoi(fields[2])
	if err != nil {
		return errors.Wrapf(err, "rise delay %q", fields[2])
	}
	fall, err := strconv.Atoi(fields[3])
	if err != nil {
		return errors.Wrapf(err, "fall delay %q", fields[3])
	}
	inputs := fields[4:]
	if err := c.AddGate(kind, output, rise, fall, inputs...); err != nil {
		return err
	}
	return nil
}

func parseFlipFlop(c *digisim.Circuit, fields []string) error {
	// fields: <name> .DFF <setup> <hold> <D> <CLK> <Q> <Qbar>
	if len(fields) != 8 {
		return errors.Errorf("DFF record %q: expected exactly 8 fields", strings.Join(fields, " "))
	}
	name := fields[0]
	setup, err := strconv.Atoi(fields[2])
	if err != nil {
		return errors.Wrapf(err, "setup %q", fields[2])
	}
	hold, err := strconv.Atoi(fields[3])
	if err != nil {
		return errors.Wrapf(err, "hold %q", fields[3])
	}
	d, clk, q, qn := fields[4], fields[5], fields[6], fields[7]
	return c.AddFlipFlop(name, setup, hold, d, clk, q, qn)
}

// ParseStimulus reads a stimulus stream from r (source named file, for
// error messages) and returns its records in file order. Records need
// not be time-sorted; digisim.Circuit.Simulate sorts them.
func ParseStimulus(file string, r io.Reader) ([]digisim.StimulusRecord, error) {
	var out []digisim.StimulusRecord
	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := stripComment(sc.Text())
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		rec, err := parseStimulusRecord(fields)
		if err != nil {
			return nil, &ParseError{File: file, Line: lineNo, Err: err}
		}
		out = append(out, rec)
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrapf(err, "%s: read", file)
	}
	return out, nil
}

func parseStimulusRecord(fields []string) (digisim.StimulusRecord, error) {
	if len(fields) != 3 {
		return digisim.StimulusRecord{}, errors.Errorf("stimulus record %q: expected exactly 3 fields", strings.Join(fields, " "))
	}
	t, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return digisim.StimulusRecord{}, errors.Wrapf(err, "time %q", fields[0])
	}
	var v digisim.Value
	switch fields[2] {
	case "0":
		v = digisim.Zero
	case "1":
		v = digisim.One
	default:
		return digisim.StimulusRecord{}, errors.Errorf("value %q: must be 0 or 1", fields[2])
	}
	return digisim.StimulusRecord{Time: int(t), Node: fields[1], Value: v}, nil
}
