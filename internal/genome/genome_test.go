package genome

import (
	"testing"

	"github.com/signalnine/evogen/internal/rng"
	"github.com/signalnine/evogen/internal/vm"
)

func TestRandomGenomeLengthBounds(t *testing.T) {
	s := rng.NewStream(1)
	for i := 0; i < 200; i++ {
		g := Random(s, MinGenomeLen, 16)
		if g.Len() < MinGenomeLen || g.Len() > 16 {
			t.Fatalf("genome length %d out of bounds", g.Len())
		}
		if err := g.Validate(); err != nil {
			t.Fatalf("random genome failed validation: %v", err)
		}
	}
}

func TestMutateZeroProbabilityIsIdentity(t *testing.T) {
	s := rng.NewStream(2)
	base := Random(s, 8, 8)
	for i := 0; i < 50; i++ {
		mutated := Mutate(base, 0, s)
		if !Equal(base, mutated) {
			t.Fatal("p=0 mutation changed the genome")
		}
	}
}

func TestMutateAlwaysValid(t *testing.T) {
	s := rng.NewStream(3)
	base := Random(s, 8, 16)
	for i := 0; i < 500; i++ {
		base = Mutate(base, 1.0, s)
		if err := base.Validate(); err != nil {
			t.Fatalf("mutation produced invalid genome: %v", err)
		}
	}
}

func TestDeleteAtMinLengthIsNoOp(t *testing.T) {
	s := rng.NewStream(4)
	instr := make([]vm.Instruction, MinGenomeLen)
	for i := range instr {
		instr[i] = vm.Simple(vm.NOP)
	}
	g := New(instr)
	result := deleteAt(g, s)
	if result.Len() != MinGenomeLen {
		t.Fatalf("expected delete at min length to be a no-op, got length %d", result.Len())
	}
}

func TestInsertAtMaxLengthIsNoOp(t *testing.T) {
	s := rng.NewStream(5)
	instr := make([]vm.Instruction, MaxGenomeLen)
	for i := range instr {
		instr[i] = vm.Simple(vm.NOP)
	}
	g := New(instr)
	result := insert(g, s)
	if result.Len() != MaxGenomeLen {
		t.Fatalf("expected insert at max length to be a no-op, got length %d", result.Len())
	}
}

func TestTweakConstantFallsBackWithoutPush(t *testing.T) {
	s := rng.NewStream(6)
	instr := []vm.Instruction{vm.Simple(vm.NOP), vm.Simple(vm.NOP), vm.Simple(vm.HALT)}
	g := New(instr)
	result := tweakConstant(g, s)
	if err := result.Validate(); err != nil {
		t.Fatalf("fallback point-mutate produced invalid genome: %v", err)
	}
}

func TestGenomeCloneDoesNotAliasMutation(t *testing.T) {
	s := rng.NewStream(8)
	base := Random(s, 8, 8)
	baseCopy := New(base.Instructions())
	mutated := pointMutate(base, s)
	if Equal(base, mutated) {
		// Extremely unlikely but not impossible; rerun with a fresh draw.
		mutated = pointMutate(base, s)
	}
	if !Equal(base, baseCopy) {
		t.Fatal("mutating the result altered the source genome")
	}
}

func TestValidateRejectsBadArgumentPresence(t *testing.T) {
	instr := make([]vm.Instruction, MinGenomeLen)
	instr[0] = vm.Instruction{Op: vm.ADD, HasArg: true, Arg: 1}
	for i := 1; i < len(instr); i++ {
		instr[i] = vm.Simple(vm.NOP)
	}
	bad := New(instr)
	if err := bad.Validate(); err == nil {
		t.Fatal("expected validation error for malformed ADD argument")
	}
}
