// Package wire defines the JSON-over-HTTP genome representation shared by
// the engine's API (SPEC_FULL.md §6.1), its outbound fitness client
// (§6.2), and the reference evaluator (cmd/fitnessd) — one shape, used by
// every boundary that serializes a genome, rather than three parallel
// encodings that could drift apart.
package wire

import (
	"fmt"

	"github.com/signalnine/evogen/internal/genome"
	"github.com/signalnine/evogen/internal/vm"
)

// Instruction is the wire shape of a vm.Instruction: op is the uppercase
// opcode name, arg is present (a JSON number) only for PUSH/LOAD/STORE.
type Instruction struct {
	Op  string   `json:"op"`
	Arg *float64 `json:"arg"`
}

// Genome is the wire shape of a genome.Genome.
type Genome struct {
	Instructions []Instruction `json:"instructions"`
}

// FromGenome converts a genome.Genome to its wire representation.
func FromGenome(g genome.Genome) Genome {
	instr := g.Instructions()
	out := make([]Instruction, len(instr))
	for i, in := range instr {
		w := Instruction{Op: in.Op.String()}
		if in.HasArg {
			arg := in.Arg
			w.Arg = &arg
		}
		out[i] = w
	}
	return Genome{Instructions: out}
}

// ToGenome converts a wire Genome back into a genome.Genome, validating
// that every opcode is recognized and that argument presence matches the
// opcode's required shape.
func ToGenome(w Genome) (genome.Genome, error) {
	instr := make([]vm.Instruction, len(w.Instructions))
	for i, in := range w.Instructions {
		op, ok := vm.ParseOpcode(in.Op)
		if !ok {
			return genome.Genome{}, fmt.Errorf("wire: unrecognized opcode %q at position %d", in.Op, i)
		}
		wantArg := op == vm.PUSH || op == vm.LOAD || op == vm.STORE
		if (in.Arg != nil) != wantArg {
			return genome.Genome{}, fmt.Errorf("wire: argument presence invariant violated at position %d", i)
		}
		switch {
		case in.Arg != nil:
			instr[i] = vm.Instruction{Op: op, Arg: *in.Arg, HasArg: true}
		default:
			instr[i] = vm.Instruction{Op: op}
		}
	}
	return genome.New(instr), nil
}
