// Package genome represents candidate programs as ordered instruction
// sequences and implements the random-construction and mutation operators
// that drive reproduction in the evolution engine. Genomes are immutable
// values: every operator here returns a new genome rather than editing one
// in place, so an elite and its offspring never alias each other's storage.
package genome

import (
	"fmt"

	"github.com/signalnine/evogen/internal/rng"
	"github.com/signalnine/evogen/internal/vm"
)

// Default length bounds, per the specification.
const (
	MinGenomeLen = 2
	MaxGenomeLen = 64
)

// allOpcodes lists every opcode a random instruction may draw.
var allOpcodes = []vm.Opcode{
	vm.PUSH, vm.LOAD, vm.STORE, vm.ADD, vm.SUB, vm.MUL, vm.DIV,
	vm.DUP, vm.SWAP, vm.POP, vm.HALT, vm.NOP,
}

// Genome is an ordered, immutable sequence of VM instructions.
type Genome struct {
	instructions []vm.Instruction
}

// New builds a Genome from a fixed instruction slice, defensively copying
// it so later mutation of the caller's slice cannot alias this genome.
func New(instructions []vm.Instruction) Genome {
	cp := make([]vm.Instruction, len(instructions))
	copy(cp, instructions)
	return Genome{instructions: cp}
}

// Instructions returns a defensive copy of the genome's program.
func (g Genome) Instructions() []vm.Instruction {
	cp := make([]vm.Instruction, len(g.instructions))
	copy(cp, g.instructions)
	return cp
}

// Len returns the number of instructions.
func (g Genome) Len() int { return len(g.instructions) }

// At returns the instruction at position i.
func (g Genome) At(i int) vm.Instruction { return g.instructions[i] }

// Validate checks the length invariant in [MinGenomeLen, MaxGenomeLen] and
// that every instruction's HasArg matches its opcode's required shape.
func (g Genome) Validate() error {
	if g.Len() < MinGenomeLen || g.Len() > MaxGenomeLen {
		return fmt.Errorf("genome: length %d outside [%d, %d]", g.Len(), MinGenomeLen, MaxGenomeLen)
	}
	for i, in := range g.instructions {
		wantArg := in.Op == vm.PUSH || in.Op == vm.LOAD || in.Op == vm.STORE
		if in.HasArg != wantArg {
			return fmt.Errorf("genome: instruction %d (%v) argument presence invariant violated", i, in.Op)
		}
	}
	return nil
}

// Run executes the genome against scalar input x using the package vm.
func (g Genome) Run(x float64) vm.Result {
	return vm.Run(g.instructions, x)
}

// RandomInstruction draws a single instruction uniformly over the opcode
// set, filling in its argument per the opcode-specific distribution: PUSH
// draws a constant from N(0, 2.0), LOAD/STORE draw a register index
// uniformly from {0..3}, and all other opcodes take no argument.
func RandomInstruction(s *rng.Stream) vm.Instruction {
	op := rng.Choice(s, allOpcodes)
	switch op {
	case vm.PUSH:
		return vm.Push(s.GenNormal(0, 2.0))
	case vm.LOAD:
		return vm.Load(s.GenIndex(vm.NumRegisters))
	case vm.STORE:
		return vm.Store(s.GenIndex(vm.NumRegisters))
	default:
		return vm.Simple(op)
	}
}

// Random builds a genome of uniformly-chosen length in [minLen, maxLen]
// filled with independently drawn random instructions.
func Random(s *rng.Stream, minLen, maxLen int) Genome {
	length := minLen
	if maxLen > minLen {
		length = s.GenRangeInt(minLen, maxLen+1)
	}
	instructions := make([]vm.Instruction, length)
	for i := range instructions {
		instructions[i] = RandomInstruction(s)
	}
	return Genome{instructions: instructions}
}

// clone returns a deep copy of the genome's instruction slice so mutation
// operators never alias the source genome's backing array.
func (g Genome) clone() []vm.Instruction {
	cp := make([]vm.Instruction, len(g.instructions))
	copy(cp, g.instructions)
	return cp
}

// Mutate applies, with independent probability p, exactly one of the four
// mutation operators (point-mutate, tweak-constant, insert, delete) chosen
// uniformly, returning a new, length-bounded, well-formed genome. With
// probability 1-p the input genome is returned unchanged (same contents,
// a fresh copy).
func Mutate(g Genome, p float64, s *rng.Stream) Genome {
	if !s.GenBool(p) {
		return Genome{instructions: g.clone()}
	}

	switch s.GenIndex(4) {
	case 0:
		return pointMutate(g, s)
	case 1:
		return tweakConstant(g, s)
	case 2:
		return insert(g, s)
	default:
		return deleteAt(g, s)
	}
}

// pointMutate replaces a random instruction with a freshly drawn one.
func pointMutate(g Genome, s *rng.Stream) Genome {
	instr := g.clone()
	pos := s.GenIndex(len(instr))
	instr[pos] = RandomInstruction(s)
	return Genome{instructions: instr}
}

// tweakConstant perturbs the argument of a random PUSH instruction by a
// small normal offset. Falls back to pointMutate when no PUSH exists.
func tweakConstant(g Genome, s *rng.Stream) Genome {
	var pushPositions []int
	for i, in := range g.instructions {
		if in.Op == vm.PUSH {
			pushPositions = append(pushPositions, i)
		}
	}
	if len(pushPositions) == 0 {
		return pointMutate(g, s)
	}
	instr := g.clone()
	pos := rng.Choice(s, pushPositions)
	instr[pos] = vm.Push(instr[pos].Arg + s.GenNormal(0, 0.5))
	return Genome{instructions: instr}
}

// insert adds a freshly drawn instruction at a random position (including
// the end). No-op if the genome is already at MaxGenomeLen.
func insert(g Genome, s *rng.Stream) Genome {
	if g.Len() >= MaxGenomeLen {
		return Genome{instructions: g.clone()}
	}
	pos := s.GenRangeInt(0, g.Len()+1)
	instr := make([]vm.Instruction, 0, g.Len()+1)
	instr = append(instr, g.instructions[:pos]...)
	instr = append(instr, RandomInstruction(s))
	instr = append(instr, g.instructions[pos:]...)
	return Genome{instructions: instr}
}

// deleteAt removes the instruction at a random position. No-op if the
// genome is already at MinGenomeLen.
func deleteAt(g Genome, s *rng.Stream) Genome {
	if g.Len() <= MinGenomeLen {
		return Genome{instructions: g.clone()}
	}
	pos := s.GenIndex(g.Len())
	instr := make([]vm.Instruction, 0, g.Len()-1)
	instr = append(instr, g.instructions[:pos]...)
	instr = append(instr, g.instructions[pos+1:]...)
	return Genome{instructions: instr}
}

// Equal reports whether two genomes have byte-identical instruction
// sequences.
func Equal(a, b Genome) bool {
	if a.Len() != b.Len() {
		return false
	}
	for i := range a.instructions {
		if a.instructions[i] != b.instructions[i] {
			return false
		}
	}
	return true
}
