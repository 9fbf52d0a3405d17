package sample

import (
	"errors"
	"fmt"
)

// ErrInvalidArgument is returned when a sample request cannot be satisfied:
// the count is outside [0, len(list)], or the Source misbehaves.
var ErrInvalidArgument = errors.New("sample: invalid argument")

// Sample returns k distinct elements of list in random order.
//
// The whole copy is shuffled with Fisher–Yates before the first k elements
// are returned. The result never shares a backing array with list, and list
// itself is left untouched.
func Sample[T any](src Source, list []T, k int) ([]T, error) {
	if k < 0 || k > len(list) {
		return nil, fmt.Errorf("%w: k=%d outside [0, %d]", ErrInvalidArgument, k, len(list))
	}
	if src == nil {
		src = Default()
	}

	out := make([]T, len(list))
	copy(out, list)
	if err := shuffle(src, out); err != nil {
		return nil, err
	}
	return out[:k:k], nil
}

// shuffle permutes s in place.
func shuffle[T any](src Source, s []T) error {
	for i := len(s) - 1; i > 0; i-- {
		j := src.IntN(i + 1)
		if j < 0 || j > i {
			return fmt.Errorf("%w: source returned %d for range [0, %d]", ErrInvalidArgument, j, i)
		}
		s[i], s[j] = s[j], s[i]
	}
	return nil
}
