// Command digisim is the interactive front end for the simulation and
// ATPG engine: it prompts for a netlist, a mode, and (for either
// simulation mode) a stimulus file or (for ATPG) a required coverage
// percentage, then drives the engine. A simulation writes a VCD file
// next to the stimulus file and prints the primary outputs to stdout;
// ATPG writes its vector report to atpg_report.txt.
package main

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dsimlabs/digisim"
	"github.com/dsimlabs/digisim/atpg"
	"github.com/dsimlabs/digisim/netlist"
	"github.com/dsimlabs/digisim/vcd"
)

func main() {
	in := bufio.NewReader(os.Stdin)

	netlistPath := prompt(in, "Netlist file: ")
	c, err := openCircuit(netlistPath)
	if err != nil {
		log.Fatalf("digisim: %v", err)
	}

	if promptYN(in, "Run timing simulation? [y/n]: ") {
		if err := runSimulation(in, c, digisim.ModeTiming); err != nil {
			log.Fatalf("digisim: %v", err)
		}
		return
	}
	if promptYN(in, "Run functional simulation? [y/n]: ") {
		if err := runSimulation(in, c, digisim.ModeFunctional); err != nil {
			log.Fatalf("digisim: %v", err)
		}
		return
	}
	if promptYN(in, "Run ATPG? [y/n]: ") {
		if err := runATPG(in, c); err != nil {
			log.Fatalf("digisim: %v", err)
		}
		return
	}

	log.Println("digisim: nothing selected, exiting")
}

func openCircuit(path string) (*digisim.Circuit, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return netlist.ParseCircuit(path, f)
}

func runSimulation(in *bufio.Reader, c *digisim.Circuit, mode digisim.SimMode) error {
	stimPath := prompt(in, "Stimulus file: ")
	sf, err := os.Open(stimPath)
	if err != nil {
		return err
	}
	defer sf.Close()

	stim, err := netlist.ParseStimulus(stimPath, sf)
	if err != nil {
		return err
	}

	res, err := c.Simulate(stim, mode)
	if err != nil {
		return err
	}

	for _, v := range res.Violations {
		fmt.Fprintf(os.Stderr, "violation: %v on %s at t=%d\n", v.Kind, v.Node.Name(), v.Time)
	}

	outPath := stimPath + ".vcd"
	out, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer out.Close()
	if err := vcd.Write(out, c, res, "unknown", "digisim", "1ns"); err != nil {
		return err
	}
	log.Printf("digisim: wrote %s", outPath)

	fmt.Println("primary outputs:")
	for name, v := range res.PrimaryOutputValues(c) {
		fmt.Printf("  %s = %s\n", name, v)
	}
	return nil
}

func runATPG(in *bufio.Reader, c *digisim.Circuit) error {
	pctStr := prompt(in, "Required coverage (0-100): ")
	pct, err := strconv.ParseFloat(pctStr, 64)
	if err != nil {
		return err
	}

	opts := atpg.Options{
		RequiredCoverage: pct / 100,
		MaxTrials:        10000,
		StallTrials:      50,
		Seed:             time.Now().UnixNano(),
		Progress: func(t atpg.Trial) {
			log.Printf("trial %d: killed %d faults, coverage %.4f", t.TrialNumber, t.Killed, t.Coverage)
		},
	}

	res, err := atpg.Run(c, opts)
	if err != nil {
		return err
	}

	reportPath := "atpg_report.txt"
	f, err := os.Create(reportPath)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := atpg.WriteReport(f, res); err != nil {
		return err
	}
	log.Printf("digisim: wrote %s (coverage=%.4f)", reportPath, res.Coverage)
	return nil
}

func prompt(in *bufio.Reader, msg string) string {
	fmt.Print(msg)
	line, _ := in.ReadString('\n')
	return strings.TrimSpace(line)
}

func promptYN(in *bufio.Reader, msg string) bool {
	ans := strings.ToLower(prompt(in, msg))
	return ans == "y" || ans == "yes"
}
