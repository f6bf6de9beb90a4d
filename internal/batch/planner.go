// Package batch implements the multi-register batched read planner: it
// validates a list of field names for monotonic, gap-bounded adjacency,
// computes the single physical read that covers them all, and slices the
// returned word stream back into per-field results in input order. The
// inverter firmware performs poorly under many small reads; fusing them
// into one transaction is essential.
package batch

import (
	"fmt"

	"github.com/kvaps/huawei-solar-go/internal/registers"
)

// MaxGapWords is the observed firmware limit on the distance between two
// consecutive requested registers; a caller wanting more must split the
// request into two calls.
const MaxGapWords = 64

// ErrInvalidName signals a batch request naming an unknown field.
type ErrInvalidName struct{ Name string }

func (e *ErrInvalidName) Error() string { return fmt.Sprintf("batch: unknown field %q", e.Name) }

// ErrInvalidRange signals a batch request whose resolved descriptors
// violate monotonic adjacency or the inter-register gap cap.
type ErrInvalidRange struct {
	A, B   string
	Reason string
}

func (e *ErrInvalidRange) Error() string {
	return fmt.Sprintf("batch: %s -> %s: %s", e.A, e.B, e.Reason)
}

// Plan is the validated, resolved shape of one batch read: the physical
// read's (address, count) and the descriptors in input order, ready to be
// sliced out of the returned word stream by Decode.
type Plan struct {
	Address     uint16
	Count       uint16
	Descriptors []registers.Descriptor
}

// Build validates names against cat and computes the single physical read
// that covers all of them. It performs no I/O; the caller issues the
// actual transport read using Plan.Address and Plan.Count.
func Build(cat *registers.Catalog, names []string) (Plan, error) {
	if len(names) == 0 {
		return Plan{}, fmt.Errorf("batch: names must be non-empty")
	}

	descs := make([]registers.Descriptor, len(names))
	for i, name := range names {
		d, err := cat.Lookup(name)
		if err != nil {
			return Plan{}, &ErrInvalidName{Name: name}
		}
		descs[i] = d
	}

	for i := 1; i < len(descs); i++ {
		a, b := descs[i-1], descs[i]
		aEnd := int(a.Address) + int(a.Length)
		if aEnd > int(b.Address) {
			return Plan{}, &ErrInvalidRange{A: a.Name, B: b.Name, Reason: fmt.Sprintf("%d + %d > %d: not monotonically increasing", a.Address, a.Length, b.Address)}
		}
		gap := int(b.Address) - aEnd
		if gap > MaxGapWords {
			return Plan{}, &ErrInvalidRange{A: a.Name, B: b.Name, Reason: fmt.Sprintf("gap of %d words exceeds the %d-word cap", gap, MaxGapWords)}
		}
	}

	first, last := descs[0], descs[len(descs)-1]
	total := uint16(int(last.Address) + int(last.Length) - int(first.Address))

	return Plan{Address: first.Address, Count: total, Descriptors: descs}, nil
}

// Decode slices words (the full physical read, length == plan.Count) back
// into one Result per descriptor, in input order, skipping the gap words
// between registers.
func Decode(plan Plan, words []uint16, tz *int) ([]registers.Result, error) {
	if len(words) != int(plan.Count) {
		return nil, fmt.Errorf("batch: expected %d words, got %d", plan.Count, len(words))
	}

	results := make([]registers.Result, len(plan.Descriptors))
	base := plan.Descriptors[0].Address
	for i, d := range plan.Descriptors {
		offset := int(d.Address - base)
		res, err := registers.Decode(d, words[offset:offset+int(d.Length)], tz)
		if err != nil {
			return nil, err
		}
		results[i] = res
	}
	return results, nil
}
