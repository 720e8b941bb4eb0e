package navigation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	out = 100 * time.Millisecond
	in  = 200 * time.Millisecond
)

type recorder struct {
	pages      []int
	milestones []Milestone
}

func newController(t *testing.T, pageCount int) (*Controller, *ManualScheduler, *recorder) {
	t.Helper()
	sched := NewManualScheduler()
	rec := &recorder{}
	c := NewController(pageCount, Config{Interval: 10, OutDelay: out, InDelay: in},
		WithScheduler(sched),
		OnPageChange(func(s State) { rec.pages = append(rec.pages, s.Page) }),
		OnAssessmentAvailable(func(m Milestone) { rec.milestones = append(rec.milestones, m) }),
	)
	return c, sched, rec
}

// settle lets both transition delays elapse.
func settle(s *ManualScheduler) {
	s.Advance(out + in)
}

func TestGoToPageAppliesAfterBothDelays(t *testing.T) {
	c, sched, rec := newController(t, 30)

	require.True(t, c.GoToPage(1))
	assert.True(t, c.State().Transitioning)
	assert.Equal(t, 1, c.State().Page)

	sched.Advance(out)
	assert.Equal(t, 2, c.State().Page)
	assert.True(t, c.State().Transitioning, "in-delay still running")

	sched.Advance(in)
	assert.False(t, c.State().Transitioning)
	assert.Equal(t, []int{2}, rec.pages)
}

func TestRoundTripReturnsToOriginalPage(t *testing.T) {
	for start := 1; start < 30; start++ {
		c, sched, _ := newController(t, 30)
		c.Restore(start, 0)

		require.True(t, c.GoToPage(1))
		settle(sched)
		require.True(t, c.GoToPage(-1))
		settle(sched)

		assert.Equal(t, start, c.State().Page, "start page %d", start)
	}
}

func TestCallsDuringTransitionAreIgnored(t *testing.T) {
	c, sched, rec := newController(t, 30)

	require.True(t, c.GoToPage(1))
	assert.False(t, c.GoToPage(1))
	assert.False(t, c.GoToPage(-1))
	assert.False(t, c.JumpTo(20))

	sched.Advance(out)
	assert.False(t, c.GoToPage(1), "in-delay has not elapsed")
	assert.Equal(t, 2, c.State().Page)

	sched.Advance(in)
	assert.Equal(t, 2, c.State().Page)
	assert.Equal(t, []int{2}, rec.pages)
	assert.Zero(t, sched.Pending())
}

func TestOutOfRangeIsIgnored(t *testing.T) {
	c, _, _ := newController(t, 3)

	assert.False(t, c.GoToPage(-1))
	assert.False(t, c.JumpTo(0))
	assert.False(t, c.JumpTo(4))
	assert.False(t, c.JumpTo(1), "already on page 1")
	assert.False(t, c.GoToPage(2), "delta must be one page")
	assert.False(t, c.State().Transitioning)
}

func TestLastPageBoundary(t *testing.T) {
	c, sched, _ := newController(t, 3)

	require.True(t, c.JumpTo(3))
	settle(sched)
	assert.False(t, c.GoToPage(1))
	assert.Equal(t, 3, c.State().Page)
}

func TestMilestoneFiresOncePerMultiple(t *testing.T) {
	c, sched, rec := newController(t, 40)

	for range 9 {
		require.True(t, c.GoToPage(1))
		settle(sched)
	}
	assert.Equal(t, 10, c.State().Page)
	assert.Equal(t, []Milestone{{From: 1, To: 10}}, rec.milestones)

	// back and forth across page 10
	require.True(t, c.GoToPage(-1))
	settle(sched)
	require.True(t, c.GoToPage(1))
	settle(sched)
	assert.Len(t, rec.milestones, 1)

	require.True(t, c.JumpTo(20))
	settle(sched)
	require.True(t, c.JumpTo(10))
	settle(sched)
	require.True(t, c.JumpTo(20))
	settle(sched)

	assert.Equal(t, []Milestone{{From: 1, To: 10}, {From: 11, To: 20}}, rec.milestones)
	assert.Equal(t, 20, c.State().LastMilestone)
}

func TestJumpPastMilestoneDoesNotFire(t *testing.T) {
	c, sched, rec := newController(t, 40)

	require.True(t, c.JumpTo(25))
	settle(sched)

	assert.Empty(t, rec.milestones)
}

func TestRestoreSuppressesEarlierMilestones(t *testing.T) {
	c, sched, rec := newController(t, 40)
	c.Restore(19, 20)

	require.True(t, c.GoToPage(1))
	settle(sched)
	require.True(t, c.JumpTo(10))
	settle(sched)

	assert.Empty(t, rec.milestones)
	assert.Equal(t, 10, c.State().Page)
}

func TestCloseStopsPendingTransition(t *testing.T) {
	c, sched, rec := newController(t, 10)

	require.True(t, c.GoToPage(1))
	c.Close()
	settle(sched)

	assert.Equal(t, 1, c.State().Page)
	assert.Empty(t, rec.pages)
	assert.False(t, c.JumpTo(5))
}

func TestManualSchedulerOrdersByDeadline(t *testing.T) {
	s := NewManualScheduler()
	var order []string
	s.AfterFunc(30*time.Millisecond, func() { order = append(order, "c") })
	s.AfterFunc(10*time.Millisecond, func() {
		order = append(order, "a")
		s.AfterFunc(5*time.Millisecond, func() { order = append(order, "b") })
	})
	stopped := s.AfterFunc(20*time.Millisecond, func() { order = append(order, "x") })
	assert.True(t, stopped.Stop())
	assert.False(t, stopped.Stop())

	s.Advance(25 * time.Millisecond)
	assert.Equal(t, []string{"a", "b"}, order)
	assert.Equal(t, 1, s.Pending())

	s.Advance(5 * time.Millisecond)
	assert.Equal(t, []string{"a", "b", "c"}, order)
}
