package navigation

import (
	"sync"
	"time"
)

type Config struct {
	// Interval is the page distance between assessment milestones.
	Interval int
	// OutDelay elapses before the new page is applied, InDelay after it.
	OutDelay time.Duration
	InDelay  time.Duration
}

func DefaultConfig() Config {
	return Config{
		Interval: 10,
		OutDelay: 150 * time.Millisecond,
		InDelay:  150 * time.Millisecond,
	}
}

// Milestone is the page range an assessment becomes available for.
type Milestone struct {
	From int `json:"from"`
	To   int `json:"to"`
}

type State struct {
	Page          int  `json:"page"`
	PageCount     int  `json:"page_count"`
	Transitioning bool `json:"transitioning"`
	LastMilestone int  `json:"last_milestone"`
}

type Option func(*Controller)

func WithScheduler(s Scheduler) Option {
	return func(c *Controller) {
		c.sched = s
	}
}

// OnPageChange is called after every applied page change, outside the controller lock.
func OnPageChange(f func(State)) Option {
	return func(c *Controller) {
		c.onPage = f
	}
}

// OnAssessmentAvailable is called at most once per milestone.
func OnAssessmentAvailable(f func(Milestone)) Option {
	return func(c *Controller) {
		c.onMilestone = f
	}
}

// Controller owns the current page and serializes transitions between pages.
// Calls that arrive mid-transition or point outside the document are ignored.
type Controller struct {
	mu sync.Mutex

	cfg   Config
	sched Scheduler

	page          int
	pageCount     int
	transitioning bool
	lastMilestone int
	timer         Timer
	closed        bool

	onPage      func(State)
	onMilestone func(Milestone)
}

func NewController(pageCount int, cfg Config, opts ...Option) *Controller {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultConfig().Interval
	}
	c := &Controller{
		cfg:       cfg,
		sched:     RealScheduler(),
		page:      1,
		pageCount: pageCount,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GoToPage moves one page forward (+1) or back (-1). It reports whether the move was accepted.
func (c *Controller) GoToPage(delta int) bool {
	if delta != 1 && delta != -1 {
		return false
	}
	c.mu.Lock()
	target := c.page + delta
	c.mu.Unlock()

	return c.begin(target, delta)
}

// JumpTo moves directly to page. It reports whether the move was accepted.
func (c *Controller) JumpTo(page int) bool {
	return c.begin(page, 0)
}

func (c *Controller) begin(target, delta int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || c.transitioning {
		return false
	}
	// the page may have moved between reading it and taking the lock
	if delta != 0 && target != c.page+delta {
		return false
	}
	if target < 1 || target > c.pageCount || target == c.page {
		return false
	}

	c.transitioning = true
	c.timer = c.sched.AfterFunc(c.cfg.OutDelay, func() {
		c.apply(target)
	})
	return true
}

func (c *Controller) apply(target int) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}

	c.page = target
	var reached *Milestone
	if target%c.cfg.Interval == 0 && target > c.lastMilestone {
		c.lastMilestone = target
		reached = &Milestone{From: target - c.cfg.Interval + 1, To: target}
	}
	c.timer = c.sched.AfterFunc(c.cfg.InDelay, c.finish)
	state := c.stateLocked()
	onPage, onMilestone := c.onPage, c.onMilestone
	c.mu.Unlock()

	if onPage != nil {
		onPage(state)
	}
	if reached != nil && onMilestone != nil {
		onMilestone(*reached)
	}
}

func (c *Controller) finish() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.transitioning = false
	c.timer = nil
}

// Restore seeds a resumed reader without firing events. Out-of-range values are ignored.
func (c *Controller) Restore(page, lastMilestone int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.transitioning {
		return
	}
	if page >= 1 && page <= c.pageCount {
		c.page = page
	}
	if lastMilestone > c.lastMilestone {
		c.lastMilestone = lastMilestone
	}
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

func (c *Controller) stateLocked() State {
	return State{
		Page:          c.page,
		PageCount:     c.pageCount,
		Transitioning: c.transitioning,
		LastMilestone: c.lastMilestone,
	}
}

// Close stops a pending transition; later calls are ignored.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}
