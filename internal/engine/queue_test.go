package engine

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunUntilOrdersByTimeThenInsertion(t *testing.T) {
	q := New()
	var got []string
	rec := func(s string) Action { return func() { got = append(got, s) } }

	q.MustSchedule(2, rec("c"))
	q.MustSchedule(1, rec("a"))
	q.MustSchedule(1, rec("b"))
	q.MustSchedule(0.5, rec("first"))

	n := q.RunUntil(10)
	assert.Equal(t, 4, n)
	assert.Equal(t, []string{"first", "a", "b", "c"}, got)
	assert.Equal(t, 2.0, q.Now())
}

func TestRunUntilStopsBeforeLaterEvent(t *testing.T) {
	q := New()
	ran := false
	q.MustSchedule(1, func() {})
	q.MustSchedule(5, func() { ran = true })

	q.RunUntil(3)
	assert.False(t, ran)
	assert.Equal(t, 1.0, q.Now())
	assert.Equal(t, 1, q.Pending())

	next, ok := q.NextTime()
	require.True(t, ok)
	assert.Equal(t, 5.0, next)
}

func TestRunUntilIncludesEventsAtEnd(t *testing.T) {
	q := New()
	ran := false
	q.MustSchedule(3, func() { ran = true })
	q.RunUntil(3)
	assert.True(t, ran)
}

func TestRunUntilIdempotentWhenDrained(t *testing.T) {
	q := New()
	count := 0
	q.MustSchedule(1, func() { count++ })
	q.RunUntil(2)
	require.Equal(t, 1, count)

	executed := q.Executed()
	now := q.Now()
	assert.Equal(t, 0, q.RunUntil(2))
	assert.Equal(t, 1, count)
	assert.Equal(t, executed, q.Executed())
	assert.Equal(t, now, q.Now())
}

func TestScheduleInPastFails(t *testing.T) {
	q := New()
	q.MustSchedule(2, func() {})
	q.RunUntil(2)

	_, err := q.Schedule(1, func() {})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidSchedule))

	var se *ScheduleError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, 1.0, se.At)
	assert.Equal(t, 2.0, se.Now)

	_, err = q.Schedule(math.NaN(), func() {})
	assert.ErrorIs(t, err, ErrInvalidSchedule)
}

func TestMustSchedulePanicsInPast(t *testing.T) {
	q := New()
	q.MustSchedule(1, func() {})
	q.RunUntil(1)
	assert.Panics(t, func() { q.MustSchedule(0.5, func() {}) })
}

func TestActionsCanScheduleAtCurrentTime(t *testing.T) {
	q := New()
	var got []int
	q.MustSchedule(1, func() {
		got = append(got, 1)
		q.MustSchedule(q.Now(), func() { got = append(got, 2) })
	})
	q.MustSchedule(1, func() { got = append(got, 3) })
	q.RunUntil(1)
	assert.Equal(t, []int{1, 3, 2}, got)
}

func TestCancelledEventIsSkipped(t *testing.T) {
	q := New()
	ran := false
	ev := q.MustSchedule(1, func() { ran = true })
	ev.Cancel()
	assert.True(t, ev.Cancelled())
	assert.Equal(t, 0, q.RunUntil(2))
	assert.False(t, ran)
	assert.Equal(t, 0, q.Pending())
}

func TestAfterIsRelativeToClock(t *testing.T) {
	q := New()
	var at float64
	q.MustSchedule(2, func() {
		_, err := q.After(0.5, func() { at = q.Now() })
		if err != nil {
			t.Errorf("after: %v", err)
		}
	})
	q.RunUntil(10)
	assert.Equal(t, 2.5, at)
}
