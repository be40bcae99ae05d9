package breaker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

func TestBreaker_Do_PassesThroughSuccessAndError(t *testing.T) {
	b := New("t1")

	require.NoError(t, b.Do(context.Background(), func() error { return nil }))

	err := b.Do(context.Background(), func() error { return errBoom })
	assert.ErrorIs(t, err, errBoom)
}

func TestBreaker_Do_RejectsNilContextAndFunc(t *testing.T) {
	b := New("t2")

	err := b.Do(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNilFunc)

	err = b.Do(nil, func() error { return nil }) //nolint:staticcheck
	assert.ErrorIs(t, err, ErrNilContext)
}

func TestBreaker_Trips_OnConsecutiveFailures(t *testing.T) {
	b := New("t3", WithTripPolicy(NewConsecutiveFailures(2)), WithTimeout(time.Minute))

	_ = b.Do(context.Background(), func() error { return errBoom })
	_ = b.Do(context.Background(), func() error { return errBoom })

	err := b.Do(context.Background(), func() error {
		t.Fatal("function must not run while breaker is open")
		return nil
	})
	require.Error(t, err)
	assert.True(t, IsOpen(err))
	assert.Equal(t, StateOpen, b.State())
}

func TestBreaker_OnStateChange_FiresAsynchronously(t *testing.T) {
	changed := make(chan State, 4)
	b := New("t4",
		WithTripPolicy(NewConsecutiveFailures(1)),
		WithOnStateChange(func(name string, from, to State) {
			changed <- to
		}),
	)

	_ = b.Do(context.Background(), func() error { return errBoom })

	select {
	case s := <-changed:
		assert.Equal(t, StateOpen, s)
	case <-time.After(time.Second):
		t.Fatal("state change callback never fired")
	}
}

func TestFailureRatio_ReadyToTrip(t *testing.T) {
	p := NewFailureRatio(0.5, 4)
	counts := Counts{Requests: 4, TotalFailures: 3}
	assert.True(t, p.ReadyToTrip(counts))

	counts = Counts{Requests: 2, TotalFailures: 2}
	assert.False(t, p.ReadyToTrip(counts), "below MinRequests must not trip")
}
