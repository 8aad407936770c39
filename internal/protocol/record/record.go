// Package record writes fixed-stride records into pre-sized frame buffers.
package record

import (
	"errors"
	"fmt"
	"iter"

	"github.com/danmuck/guildwire/internal/protocol/field"
)

var (
	ErrInvalidStride = errors.New("record: stride must be positive")
	ErrCountMismatch = errors.New("record: sequence length does not match count")
)

// Projection writes one entry into dst, which is exactly one stride long.
type Projection[T any] func(dst []byte, entry T) error

// Size returns the bytes needed for count records of stride bytes.
func Size(count, stride int) int {
	return count * stride
}

// Put writes entries[i] into buf[start+i*stride:start+(i+1)*stride] in slice
// order and returns the number of bytes written. The buffer is never grown.
func Put[T any](buf []byte, start, stride int, entries []T, project Projection[T]) (int, error) {
	return PutSeq(buf, start, stride, len(entries), func(yield func(T) bool) {
		for _, e := range entries {
			if !yield(e) {
				return
			}
		}
	}, project)
}

// PutSeq is Put for callers holding an iterator. count must equal the number
// of values seq yields.
func PutSeq[T any](buf []byte, start, stride, count int, seq iter.Seq[T], project Projection[T]) (int, error) {
	if stride <= 0 {
		return 0, ErrInvalidStride
	}
	total := Size(count, stride)
	if start < 0 || count < 0 || start > len(buf) || len(buf)-start < total {
		return 0, fmt.Errorf("%w: start=%d records=%d stride=%d len=%d",
			field.ErrOutOfBounds, start, count, stride, len(buf))
	}

	i := 0
	var err error
	for e := range seq {
		if i == count {
			err = fmt.Errorf("%w: more than %d", ErrCountMismatch, count)
			break
		}
		off := start + i*stride
		if perr := project(buf[off:off+stride:off+stride], e); perr != nil {
			err = fmt.Errorf("record %d: %w", i, perr)
			break
		}
		i++
	}
	if err != nil {
		return 0, err
	}
	if i != count {
		return 0, fmt.Errorf("%w: got %d want %d", ErrCountMismatch, i, count)
	}
	return total, nil
}
