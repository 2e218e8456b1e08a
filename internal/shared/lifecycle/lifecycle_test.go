package lifecycle

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeleteBeforeCreateConvergesOnTombstone(t *testing.T) {
	state, transition := Unknown.ObserveInactive()
	assert.Equal(t, Tombstone, transition)

	state, transition = state.ObserveActive()
	assert.Equal(t, Tombstoned, state)
	assert.Equal(t, Unchanged, transition)
}

func TestCreateThenDeleteCascadesOnce(t *testing.T) {
	state, transition := Unknown.ObserveActive()
	assert.Equal(t, Materialized, transition)

	state, transition = state.ObserveActive()
	assert.Equal(t, Refreshed, transition)

	state, transition = state.ObserveInactive()
	assert.Equal(t, Tombstone, transition)

	state, transition = state.ObserveInactive()
	assert.Equal(t, Tombstoned, state)
	assert.Equal(t, Unchanged, transition)
}
