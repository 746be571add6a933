package remote

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScope_BeginSupersedesPrevious(t *testing.T) {
	var s Scope

	first, t1 := s.Begin(context.Background())
	second, t2 := s.Begin(context.Background())

	assert.ErrorIs(t, first.Err(), context.Canceled)
	assert.NoError(t, second.Err())
	assert.False(t, s.IsCurrent(t1))
	assert.True(t, s.IsCurrent(t2))
	assert.True(t, s.InFlight())

	s.Finish(t1)
	assert.True(t, s.InFlight(), "finishing a stale token must not release the current request")

	s.Finish(t2)
	assert.False(t, s.InFlight())
	assert.ErrorIs(t, second.Err(), context.Canceled)
	assert.True(t, s.IsCurrent(t2))
}

func TestScope_CancelInvalidates(t *testing.T) {
	var s Scope
	ctx, token := s.Begin(context.TODO())
	s.Cancel()

	assert.ErrorIs(t, ctx.Err(), context.Canceled)
	assert.False(t, s.IsCurrent(token))
	assert.Equal(t, token+1, s.Token())
}
