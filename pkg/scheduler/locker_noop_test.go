package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoopLocker_AlwaysAcquires(t *testing.T) {
	l := NoopLocker()
	h, err := l.TryLock(context.Background(), "any", time.Second)
	require.NoError(t, err)
	require.NotNil(t, h)
	assert.Equal(t, "any", h.Key())
	assert.NoError(t, h.Unlock(context.Background()))
	assert.NoError(t, h.Renew(context.Background(), time.Minute))
}

func TestNoopLocker_IsRecognizedAsNoop(t *testing.T) {
	l := NoopLocker()
	_, isNoop := l.(noopIndicator)
	assert.True(t, isNoop)
}
