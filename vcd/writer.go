// Package vcd writes an IEEE-1364 Value Change Dump subset: a header,
// a $dumpvars block for the initial values, and one #<time> /
// <bit><id> pair per observed, non-redundant value change.
package vcd

import (
	"bufio"
	"fmt"
	"io"
	"sort"

	"github.com/dsimlabs/digisim"
)

// identAlphabet is the printable-ASCII range VCD identifiers are
// conventionally drawn from (excluding '$', which opens a keyword).
const identAlphabet = "!\"#%&'()*+,-./0123456789:;<=>?@ABCDEFGHIJKLMNOPQRSTUVWXYZ[\\]^_`abcdefghijklmnopqrstuvwxyz{|}~"

// identFor returns the n-th identifier in the base-len(identAlphabet)
// sequence, starting from "!" at n=0. Identifiers are allocated in
// Circuit node order so a given netlist always produces the same ids.
func identFor(n int) string {
	base := len(identAlphabet)
	if n < base {
		return string(identAlphabet[n])
	}
	return identFor(n/base-1) + string(identAlphabet[n%base])
}

// Write renders res against c's node set to w, in VCD text form.
// timescale is the $timescale unit string (e.g. "1ns"); date and
// version populate the corresponding header fields.
func Write(w io.Writer, c *digisim.Circuit, res *digisim.SimResult, date, version, timescale string) error {
	bw := bufio.NewWriter(w)

	nodes := c.Nodes()
	ids := make(map[string]string, len(nodes))
	for i, n := range nodes {
		ids[n.Name()] = identFor(i)
	}

	fmt.Fprintf(bw, "$date\n\t%s\n$end\n", date)
	fmt.Fprintf(bw, "$version\n\t%s\n$end\n", version)
	fmt.Fprintf(bw, "$timescale %s $end\n", timescale)
	fmt.Fprintf(bw, "$scope module circuit $end\n")
	for _, n := range nodes {
		fmt.Fprintf(bw, "$var wire 1 %s %s $end\n", ids[n.Name()], n.Name())
	}
	fmt.Fprintf(bw, "$upscope $end\n")
	fmt.Fprintf(bw, "$enddefinitions $end\n")

	fmt.Fprintf(bw, "$dumpvars\n")
	last := make(map[string]digisim.Value, len(nodes))
	for _, n := range nodes {
		v := res.InitialValues[n.Name()]
		fmt.Fprintf(bw, "%s%s\n", v, ids[n.Name()])
		last[n.Name()] = v
	}
	fmt.Fprintf(bw, "$end\n")

	byTime := make(map[int][]digisim.WaveformRecord)
	var times []int
	for _, rec := range res.Waveform {
		if prev, ok := last[rec.Node.Name()]; ok && prev == rec.Value {
			continue
		}
		last[rec.Node.Name()] = rec.Value
		if _, seen := byTime[rec.Time]; !seen {
			times = append(times, rec.Time)
		}
		byTime[rec.Time] = append(byTime[rec.Time], rec)
	}
	sort.Ints(times)

	for _, t := range times {
		fmt.Fprintf(bw, "#%d\n", t)
		for _, rec := range byTime[t] {
			fmt.Fprintf(bw, "%s%s\n", rec.Value, ids[rec.Node.Name()])
		}
	}

	return bw.Flush()
}
