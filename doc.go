// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

/*
Package digisim implements a gate-level digital logic simulator and
stuck-at fault vector generator.

A Circuit is built from combinational gates (AND, OR, XOR, NAND, NOR,
XNOR, each with one to eight inputs) and positive-edge-triggered D
flip-flops, wired together by shared Node references. Two simulation
modes replay a stimulus stream against the same Circuit: timing
simulation, which is delay-aware and reports setup/hold violations, and
functional simulation, which settles instantaneously after every input
change.

The companion packages digisim/netlist, digisim/vcd and digisim/atpg
build netlists from text, dump simulation results as VCD waveforms, and
generate stuck-at test vectors, respectively.
*/
package digisim
