package counters

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApplyNeverNegative(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	var count int64
	for i := 0; i < 10_000; i++ {
		switch rng.Intn(3) {
		case 0:
			count = Apply(count, Delta(1))
		case 1:
			count = Apply(count, Delta(-1))
		default:
			count = Apply(count, Delta(int64(rng.Intn(9)-6)))
		}
		if count < 0 {
			t.Fatalf("counter went negative at step %d: %d", i, count)
		}
	}
}

func TestApplyOperations(t *testing.T) {
	assert.Equal(t, int64(3), Apply(2, Delta(1)))
	assert.Equal(t, int64(0), Apply(0, Delta(-1)))
	assert.Equal(t, int64(0), Apply(5, SetTo(-4)))
	assert.Equal(t, int64(9), Apply(5, SetTo(9)))
	assert.Equal(t, int64(1), Apply(4, Delta(-3)))
	assert.Equal(t, int64(0), Saturating(1, -3))
}

func TestExtremeDeltasStayInRange(t *testing.T) {
	assert.Equal(t, Op{Kind: Decrement, Value: math.MaxInt64}, Delta(math.MinInt64))
	assert.Equal(t, int64(0), Apply(7, Delta(math.MinInt64)))
	assert.Equal(t, int64(0), Apply(math.MaxInt64, Delta(math.MinInt64)))
	assert.Equal(t, int64(math.MaxInt64), Apply(math.MaxInt64, Delta(1)))
	assert.Equal(t, int64(math.MaxInt64), Saturating(5, math.MaxInt64))
	assert.Equal(t, int64(0), Saturating(-5, math.MinInt64))
}
