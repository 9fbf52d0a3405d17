// Package sample draws ordered samples without replacement from a slice.
//
// Sample performs a full Fisher–Yates shuffle of a copy of the input and
// returns the first k elements, so every ordered k-subset is equally likely
// when the Source is uniform. The input slice is never modified.
//
// # Randomness
//
// All randomness flows through a Source. Default returns a Source backed by
// the math/rand/v2 top-level generator, which is safe for concurrent use.
// NewSeeded returns a deterministic Source for reproducible runs and tests;
// it serializes access with a mutex so a single instance may be shared
// between goroutines.
//
// # Errors
//
// A count outside [0, len(list)] is reported as ErrInvalidArgument. Sample
// never clamps.
//
// Example:
//
//	picks, err := sample.Sample(sample.Default(), []string{"a", "b", "c"}, 2)
//	if err != nil {
//	    return err
//	}
package sample
