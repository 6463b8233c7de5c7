package rng

import (
	"math"
	"testing"
)

func TestStreamDeterministic(t *testing.T) {
	a := NewStream(42)
	b := NewStream(42)

	for i := 0; i < 1000; i++ {
		if a.Uint32() != b.Uint32() {
			t.Fatalf("streams diverged at draw %d", i)
		}
	}
}

func TestStreamDifferentSeeds(t *testing.T) {
	a := NewStream(1)
	b := NewStream(2)

	same := 0
	for i := 0; i < 100; i++ {
		if a.Uint32() == b.Uint32() {
			same++
		}
	}
	if same == 100 {
		t.Fatal("different seeds produced identical streams")
	}
}

func TestFloat64Range(t *testing.T) {
	s := NewStream(7)
	for i := 0; i < 10000; i++ {
		f := s.Float64()
		if f < 0 || f >= 1 {
			t.Fatalf("Float64 out of range: %v", f)
		}
	}
}

func TestGenRangeIntBounds(t *testing.T) {
	s := NewStream(7)
	for i := 0; i < 10000; i++ {
		v := s.GenRangeInt(5, 9)
		if v < 5 || v >= 9 {
			t.Fatalf("GenRangeInt out of range: %v", v)
		}
	}
}

func TestGenIndexCoversRange(t *testing.T) {
	s := NewStream(99)
	seen := make(map[int]bool)
	for i := 0; i < 2000; i++ {
		seen[s.GenIndex(4)] = true
	}
	if len(seen) != 4 {
		t.Fatalf("GenIndex(4) only produced %d distinct values", len(seen))
	}
}

func TestGenBoolProbability(t *testing.T) {
	s := NewStream(3)
	trues := 0
	const n = 20000
	for i := 0; i < n; i++ {
		if s.GenBool(0.3) {
			trues++
		}
	}
	frac := float64(trues) / float64(n)
	if frac < 0.27 || frac > 0.33 {
		t.Fatalf("GenBool(0.3) frequency out of tolerance: %v", frac)
	}
}

func TestGenNormalMeanAndSpread(t *testing.T) {
	s := NewStream(11)
	const n = 20000
	var sum, sumSq float64
	for i := 0; i < n; i++ {
		v := s.GenNormal(5, 2)
		sum += v
		sumSq += v * v
	}
	mean := sum / n
	variance := sumSq/n - mean*mean
	if math.Abs(mean-5) > 0.15 {
		t.Fatalf("GenNormal mean out of tolerance: %v", mean)
	}
	if math.Abs(variance-4) > 0.4 {
		t.Fatalf("GenNormal variance out of tolerance: %v", variance)
	}
}

func TestChoiceUniform(t *testing.T) {
	s := NewStream(5)
	seq := []string{"a", "b", "c"}
	counts := map[string]int{}
	for i := 0; i < 3000; i++ {
		counts[Choice(s, seq)]++
	}
	for _, v := range seq {
		if counts[v] == 0 {
			t.Fatalf("Choice never produced %q", v)
		}
	}
}

func TestChoicePanicsOnEmpty(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on empty sequence")
		}
	}()
	s := NewStream(1)
	Choice(s, []int{})
}
