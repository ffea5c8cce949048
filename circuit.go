// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package digisim

import "github.com/pkg/errors"

// Circuit owns a set of Nodes keyed by name, an ordered list of Gates
// and an ordered list of FlipFlops. Gates and flip-flops hold
// non-owning references to Circuit's nodes. The event queue that
// drives simulation is not stored here: Simulate builds a fresh one
// for each call.
type Circuit struct {
	nodes     map[string]*Node
	nodeOrder []string // insertion order, for deterministic iteration
	gates     []*Gate
	flipflops []*FlipFlop

	primaryInputs  []*Node
	primaryOutputs []*Node

	// fan-out, built by Finalize
	gatesByInput map[*Node][]*Gate
	ffByCLK      map[*Node][]*FlipFlop
	ffByD        map[*Node][]*FlipFlop

	// driven tracks, incrementally, which node is already the output of
	// a gate or flip-flop, so AddGate/AddFlipFlop can reject a second
	// driver in O(1) instead of rescanning every existing element.
	driven map[*Node]bool

	finalized bool
}

// NewCircuit returns an empty, unfinalized Circuit.
func NewCircuit() *Circuit {
	return &Circuit{nodes: make(map[string]*Node), driven: make(map[*Node]bool)}
}

// Node returns the named node, creating it (initialized to Zero) if it
// does not already exist. Node names are unique within a Circuit;
// equality is by pointer thereafter.
func (c *Circuit) Node(name string) *Node {
	if n, ok := c.nodes[name]; ok {
		return n
	}
	n := NewNode(name)
	c.nodes[name] = n
	c.nodeOrder = append(c.nodeOrder, name)
	return n
}

// LookupNode returns the named node and true, or nil and false if no
// such node exists.
func (c *Circuit) LookupNode(name string) (*Node, bool) {
	n, ok := c.nodes[name]
	return n, ok
}

// Nodes returns every node in the circuit, in creation order.
func (c *Circuit) Nodes() []*Node {
	out := make([]*Node, len(c.nodeOrder))
	for i, name := range c.nodeOrder {
		out[i] = c.nodes[name]
	}
	return out
}

// Gates returns every gate in the circuit, in the order they were added.
func (c *Circuit) Gates() []*Gate { return c.gates }

// FlipFlops returns every flip-flop in the circuit, in the order they
// were added.
func (c *Circuit) FlipFlops() []*FlipFlop { return c.flipflops }

// AddGate creates a gate of kind kind driving the named output from the
// named inputs, and adds it to the circuit. Node names are resolved
// through Node, creating new nodes as needed. AddGate rejects a gate
// whose output also appears as one of its own inputs and a gate with no
// inputs or more than MaxGateInputs inputs. It also rejects
// a duplicate driver: a node may be the output of at most one gate or
// flip-flop in the circuit.
func (c *Circuit) AddGate(kind GateKind, output string, rise, fall int, inputNames ...string) error {
	if c.finalized {
		return errors.New("circuit already finalized")
	}
	out := c.Node(output)
	if err := c.checkNotAlreadyDriven(out); err != nil {
		return errors.Wrapf(err, "gate driving %q", output)
	}
	inputs := make([]*Node, len(inputNames))
	for i, name := range inputNames {
		inputs[i] = c.Node(name)
	}
	g, err := NewGate(kind, out, rise, fall, inputs...)
	if err != nil {
		return errors.Wrapf(err, "gate driving %q", output)
	}
	c.gates = append(c.gates, g)
	c.driven[out] = true
	return nil
}

// AddFlipFlop creates a D flip-flop named name wired to the given D,
// CLK, Q and Qbar node names, and adds it to the circuit. Like AddGate,
// it rejects a duplicate driver on Q or Qbar.
func (c *Circuit) AddFlipFlop(name string, setup, hold int, d, clk, q, qn string) error {
	if c.finalized {
		return errors.New("circuit already finalized")
	}
	qNode, qnNode := c.Node(q), c.Node(qn)
	if err := c.checkNotAlreadyDriven(qNode); err != nil {
		return errors.Wrapf(err, "flip-flop %q", name)
	}
	if err := c.checkNotAlreadyDriven(qnNode); err != nil {
		return errors.Wrapf(err, "flip-flop %q", name)
	}
	ff := NewFlipFlop(name, c.Node(d), c.Node(clk), qNode, qnNode, setup, hold)
	c.flipflops = append(c.flipflops, ff)
	c.driven[qNode] = true
	c.driven[qnNode] = true
	return nil
}

func (c *Circuit) checkNotAlreadyDriven(n *Node) error {
	if c.driven[n] {
		return errors.Errorf("node %q already driven", n.Name())
	}
	return nil
}

// Finalize derives the primary input/output sets and fan-out tables
// used by the simulation driver. It must be called once, after all
// gates and flip-flops have been added, and before Simulate or Clone.
//
// A node is a primary input iff it is not the output of any gate and
// not a Q or Qbar of any flip-flop. A node is a primary output iff it
// is not an input of any gate and not a D or CLK of any flip-flop.
func (c *Circuit) Finalize() error {
	if c.finalized {
		return errors.New("circuit already finalized")
	}

	driven := make(map[*Node]bool)
	consumed := make(map[*Node]bool)

	c.gatesByInput = make(map[*Node][]*Gate)
	c.ffByCLK = make(map[*Node][]*FlipFlop)
	c.ffByD = make(map[*Node][]*FlipFlop)

	for _, g := range c.gates {
		driven[g.Output] = true
		for _, in := range g.Inputs {
			consumed[in] = true
			c.gatesByInput[in] = append(c.gatesByInput[in], g)
		}
	}
	for _, f := range c.flipflops {
		driven[f.Q] = true
		driven[f.QN] = true
		consumed[f.D] = true
		consumed[f.CLK] = true
		c.ffByCLK[f.CLK] = append(c.ffByCLK[f.CLK], f)
		c.ffByD[f.D] = append(c.ffByD[f.D], f)
	}

	c.primaryInputs = nil
	c.primaryOutputs = nil
	for _, name := range c.nodeOrder {
		n := c.nodes[name]
		if !driven[n] {
			c.primaryInputs = append(c.primaryInputs, n)
		}
		if !consumed[n] {
			c.primaryOutputs = append(c.primaryOutputs, n)
		}
	}

	c.finalized = true
	return nil
}

// PrimaryInputs returns every node that is not driven by any gate or
// flip-flop, in creation order. Finalize must have been called.
func (c *Circuit) PrimaryInputs() []*Node { return c.primaryInputs }

// PrimaryOutputs returns every node that is not consumed by any gate or
// flip-flop, in creation order. Finalize must have been called.
func (c *Circuit) PrimaryOutputs() []*Node { return c.primaryOutputs }

// LockStuckAt pins the named node to v. It returns an error if no node
// by that name exists in the circuit, rather than silently no-opping on
// a typo'd name.
func (c *Circuit) LockStuckAt(name string, v Value) error {
	n, ok := c.nodes[name]
	if !ok {
		return errors.Errorf("no such node %q", name)
	}
	n.LockStuckAt(v)
	return nil
}

// Clone returns a deep copy of c: new Node, Gate and FlipFlop instances
// wired to each other exactly as in the receiver, with all state
// (values, locks, last-output bookkeeping) reset to its construction-
// time default. Clone is used by ATPG to build independent faulty
// circuits from a single reference netlist; the clone does not share
// any mutable state with the receiver.
func (c *Circuit) Clone() *Circuit {
	out := NewCircuit()
	nodeMap := make(map[*Node]*Node, len(c.nodeOrder))
	for _, name := range c.nodeOrder {
		nodeMap[c.nodes[name]] = out.Node(name)
	}
	for _, g := range c.gates {
		ins := make([]*Node, len(g.Inputs))
		for i, in := range g.Inputs {
			ins[i] = nodeMap[in]
		}
		ng, err := NewGate(g.Kind, nodeMap[g.Output], g.RiseDelay, g.FallDelay, ins...)
		if err != nil {
			// g was already validated when built; Clone cannot fail.
			panic(errors.Wrap(err, "clone: rebuilding validated gate"))
		}
		out.gates = append(out.gates, ng)
		out.driven[ng.Output] = true
	}
	for _, f := range c.flipflops {
		nf := NewFlipFlop(f.Name, nodeMap[f.D], nodeMap[f.CLK], nodeMap[f.Q], nodeMap[f.QN], f.Setup, f.Hold)
		out.flipflops = append(out.flipflops, nf)
		out.driven[nf.Q] = true
		out.driven[nf.QN] = true
	}
	if c.finalized {
		if err := out.Finalize(); err != nil {
			panic(errors.Wrap(err, "clone: finalizing a structurally valid circuit"))
		}
	}
	return out
}
