// Package counters holds the update rules for denormalized counters.
package counters

import "math"

// Op is one counter mutation.
type Op struct {
	Kind  Kind
	Value int64
}

type Kind int

const (
	Increment Kind = iota
	Decrement
	Set
)

func SetTo(n int64) Op { return Op{Kind: Set, Value: n} }

func Delta(d int64) Op {
	switch {
	case d == math.MinInt64:
		return Op{Kind: Decrement, Value: math.MaxInt64}
	case d < 0:
		return Op{Kind: Decrement, Value: -d}
	default:
		return Op{Kind: Increment, Value: d}
	}
}

// Saturating returns current+delta clamped to [0, MaxInt64].
func Saturating(current int64, delta int64) int64 {
	if delta > 0 && current > math.MaxInt64-delta {
		return math.MaxInt64
	}
	if delta < 0 && current < math.MinInt64-delta {
		return 0
	}
	next := current + delta
	if next < 0 {
		return 0
	}
	return next
}

// Apply never yields a negative value.
func Apply(current int64, op Op) int64 {
	switch op.Kind {
	case Increment:
		return Saturating(current, op.Value)
	case Decrement:
		return Saturating(current, -op.Value)
	case Set:
		return Saturating(0, op.Value)
	default:
		return Saturating(current, 0)
	}
}
