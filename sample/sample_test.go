package sample

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"testing"
)

func TestSample_WithoutReplacement(t *testing.T) {
	list := []string{"a", "b", "c", "d", "e", "f", "g"}
	src := NewSeeded(7)

	for k := 0; k <= len(list); k++ {
		for trial := 0; trial < 50; trial++ {
			got, err := Sample(src, list, k)
			if err != nil {
				t.Fatalf("Sample(k=%d) error = %v", k, err)
			}
			if len(got) != k {
				t.Fatalf("Sample(k=%d) returned %d elements", k, len(got))
			}
			seen := make(map[string]bool, k)
			for _, v := range got {
				if !slices.Contains(list, v) {
					t.Fatalf("Sample(k=%d) returned %q which is not in the input", k, v)
				}
				if seen[v] {
					t.Fatalf("Sample(k=%d) returned %q twice: %v", k, v, got)
				}
				seen[v] = true
			}
		}
	}
}

func TestSample_DoesNotMutateInput(t *testing.T) {
	list := []int{1, 2, 3, 4, 5, 6}
	orig := slices.Clone(list)

	got, err := Sample(NewSeeded(1), list, len(list))
	if err != nil {
		t.Fatalf("Sample() error = %v", err)
	}
	if !slices.Equal(list, orig) {
		t.Fatalf("input mutated: got %v, want %v", list, orig)
	}

	// The result must not alias the input.
	got[0] = -1
	if list[0] == -1 {
		t.Fatalf("result shares storage with input")
	}
}

func TestSample_Boundaries(t *testing.T) {
	list := []string{"x", "y", "z"}

	empty, err := Sample(NewSeeded(3), list, 0)
	if err != nil {
		t.Fatalf("Sample(k=0) error = %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("Sample(k=0) = %v, want empty", empty)
	}

	full, err := Sample(NewSeeded(3), list, len(list))
	if err != nil {
		t.Fatalf("Sample(k=len) error = %v", err)
	}
	sorted := slices.Clone(full)
	slices.Sort(sorted)
	if !slices.Equal(sorted, list) {
		t.Fatalf("Sample(k=len) = %v, want a permutation of %v", full, list)
	}

	none, err := Sample(NewSeeded(3), []string{}, 0)
	if err != nil {
		t.Fatalf("Sample(empty, 0) error = %v", err)
	}
	if len(none) != 0 {
		t.Fatalf("Sample(empty, 0) = %v, want empty", none)
	}
}

func TestSample_InvalidCount(t *testing.T) {
	list := []int{1, 2, 3}
	tests := []struct {
		name string
		list []int
		k    int
	}{
		{name: "negative", list: list, k: -1},
		{name: "one past length", list: list, k: len(list) + 1},
		{name: "empty list", list: nil, k: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Sample(NewSeeded(1), tt.list, tt.k)
			if !errors.Is(err, ErrInvalidArgument) {
				t.Fatalf("Sample(k=%d) error = %v, want ErrInvalidArgument", tt.k, err)
			}
			if got != nil {
				t.Fatalf("Sample(k=%d) = %v, want nil on error", tt.k, got)
			}
		})
	}
}

func TestSample_MisbehavingSource(t *testing.T) {
	src := SourceFunc(func(n int) int { return n })
	if _, err := Sample(src, []int{1, 2, 3}, 2); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("Sample() error = %v, want ErrInvalidArgument", err)
	}
}

func TestSample_FrozenSourceStillPermutes(t *testing.T) {
	src := SourceFunc(func(int) int { return 0 })
	got, err := Sample(src, []int{1, 2, 3, 4}, 4)
	if err != nil {
		t.Fatalf("Sample() error = %v", err)
	}
	// Always swapping with index 0 rotates the slice: [2 3 4 1].
	want := []int{2, 3, 4, 1}
	if !slices.Equal(got, want) {
		t.Fatalf("Sample() = %v, want %v", got, want)
	}
}

func TestSample_Determinism(t *testing.T) {
	list := []string{"a", "b", "c", "d", "e", "f", "g", "h"}

	first, err := Sample(NewSeeded(12345), list, 5)
	if err != nil {
		t.Fatalf("Sample() error = %v", err)
	}
	second, err := Sample(NewSeeded(12345), list, 5)
	if err != nil {
		t.Fatalf("Sample() error = %v", err)
	}
	if !slices.Equal(first, second) {
		t.Fatalf("same seed produced %v and %v", first, second)
	}
}

// TestSample_PermutationCoverage checks that all 24 orderings of a 4-element
// list occur with roughly equal frequency.
func TestSample_PermutationCoverage(t *testing.T) {
	const (
		trials = 24000
		perms  = 24
	)
	list := []int{0, 1, 2, 3}
	src := NewSeeded(42)

	counts := make(map[string]int, perms)
	for i := 0; i < trials; i++ {
		got, err := Sample(src, list, len(list))
		if err != nil {
			t.Fatalf("Sample() error = %v", err)
		}
		counts[fmt.Sprint(got)]++
	}
	if len(counts) != perms {
		t.Fatalf("observed %d distinct permutations, want %d", len(counts), perms)
	}

	expected := float64(trials) / perms
	chi2 := 0.0
	for _, observed := range counts {
		d := float64(observed) - expected
		chi2 += d * d / expected
	}
	// 23 degrees of freedom; the one-in-a-million critical value is about 71.
	if chi2 > 71 {
		t.Fatalf("chi-square = %.2f exceeds critical value; counts = %v", chi2, counts)
	}
}

func TestSample_ConcurrentSeededSource(t *testing.T) {
	src := NewSeeded(99)
	list := []int{1, 2, 3, 4, 5}

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				if _, err := Sample(src, list, 3); err != nil {
					errs <- err
					return
				}
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent Sample() error = %v", err)
	}
}

func TestNewSeed(t *testing.T) {
	a, err := NewSeed()
	if err != nil {
		t.Fatalf("NewSeed() error = %v", err)
	}
	b, err := NewSeed()
	if err != nil {
		t.Fatalf("NewSeed() error = %v", err)
	}
	if a == b {
		t.Fatalf("two seeds were equal: %d", a)
	}
}
