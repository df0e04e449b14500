// Copyright 2026 The QWDash Authors
// SPDX-License-Identifier: Apache-2.0

package idle

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/qwdash/qwdash/lib/clock"
)

const (
	// DefaultIdleTimeout is how long without activity before dimming.
	DefaultIdleTimeout = 30 * time.Second

	// DefaultReassertInterval is the period of the forced dim while
	// dimmed.
	DefaultReassertInterval = 30 * time.Second

	eventBuffer = 64
	jobBuffer   = 16
)

// Phase is the scheduler's view of the screen.
type Phase int

const (
	// Active means recent activity; the screen is kept on.
	Active Phase = iota
	// Dimmed means the idle timeout passed; the screen is kept at the
	// floor.
	Dimmed
)

func (p Phase) String() string {
	if p == Dimmed {
		return "dimmed"
	}
	return "active"
}

// Controller is the power state machine the scheduler drives.
// *power.Controller implements it.
type Controller interface {
	AssertOn(ctx context.Context, force bool) error
	AssertOff(ctx context.Context, force bool) error
}

// StatusSink receives human-readable status lines. *status.Feed
// implements it.
type StatusSink interface {
	Append(text string)
}

// Options configures a Scheduler.
type Options struct {
	Controller Controller
	Clock      clock.Clock

	// IdleTimeout and ReassertInterval default to 30s when zero.
	IdleTimeout      time.Duration
	ReassertInterval time.Duration

	// Status is optional.
	Status StatusSink
	Logger *slog.Logger
}

type eventKind int

const (
	eventActivity eventKind = iota
	eventForceOn
	eventForceOff
	eventResume
	eventIdleExpired
	eventReassertDue
	eventFlush
)

type event struct {
	kind       eventKind
	generation uint64
	done       chan struct{}
}

// job is one unit of work for the write worker. A job with done set
// is a flush marker and runs nothing.
type job struct {
	name   string
	run    func(ctx context.Context) error
	status string
	done   chan struct{}
}

// Scheduler is the idle/activity state machine. Create it with
// NewScheduler, then Start it; public methods are safe for concurrent
// use and never block on device I/O.
type Scheduler struct {
	controller       Controller
	clock            clock.Clock
	idleTimeout      time.Duration
	reassertInterval time.Duration
	status           StatusSink
	logger           *slog.Logger

	events     chan event
	jobs       chan job
	stopping   chan struct{}
	loopDone   chan struct{}
	workerDone chan struct{}
	startOnce  sync.Once
	stopOnce   sync.Once
	started    atomic.Bool

	// Owned by the loop goroutine after Start.
	idleTimer          *clock.Timer
	reassertTimer      *clock.Timer
	idleGeneration     uint64
	reassertGeneration uint64

	// Owned by the worker goroutine.
	lastFailure string

	mu           sync.Mutex
	phase        Phase
	lastActivity time.Time
}

// NewScheduler returns a stopped Scheduler in the Active phase.
func NewScheduler(options Options) *Scheduler {
	scheduler := &Scheduler{
		controller:       options.Controller,
		clock:            options.Clock,
		idleTimeout:      options.IdleTimeout,
		reassertInterval: options.ReassertInterval,
		status:           options.Status,
		logger:           options.Logger,
		events:           make(chan event, eventBuffer),
		jobs:             make(chan job, jobBuffer),
		stopping:         make(chan struct{}),
		loopDone:         make(chan struct{}),
		workerDone:       make(chan struct{}),
		phase:            Active,
	}
	if scheduler.clock == nil {
		scheduler.clock = clock.Real()
	}
	if scheduler.idleTimeout <= 0 {
		scheduler.idleTimeout = DefaultIdleTimeout
	}
	if scheduler.reassertInterval <= 0 {
		scheduler.reassertInterval = DefaultReassertInterval
	}
	if scheduler.logger == nil {
		scheduler.logger = slog.Default()
	}
	return scheduler
}

// Start arms the idle timer and starts the loop and worker. The screen
// is assumed on; nothing is written until the first transition.
func (s *Scheduler) Start() {
	s.startOnce.Do(func() {
		select {
		case <-s.stopping:
			return
		default:
		}
		s.mu.Lock()
		s.lastActivity = s.clock.Now()
		s.mu.Unlock()
		s.armIdle()
		s.started.Store(true)
		go s.loop()
		go s.worker()
		s.logger.Info("idle scheduler started",
			"idle_timeout", s.idleTimeout,
			"reassert_interval", s.reassertInterval,
		)
	})
}

// OnUserActivity forces the screen on and restarts the idle timeout.
func (s *Scheduler) OnUserActivity() { s.post(event{kind: eventActivity}) }

// ForceOn behaves like activity but always reports a status line.
func (s *Scheduler) ForceOn() { s.post(event{kind: eventForceOn}) }

// ForceOff dims immediately and keeps the screen dimmed until the next
// activity.
func (s *Scheduler) ForceOff() { s.post(event{kind: eventForceOff}) }

// Reassert re-applies the current intent with force, for use after
// events known to reset brightness such as resume from sleep.
func (s *Scheduler) Reassert() { s.post(event{kind: eventResume}) }

// Flush blocks until every event posted before it has been handled and
// the writes they caused have finished. It returns early if the
// scheduler stops.
func (s *Scheduler) Flush() {
	if !s.started.Load() {
		return
	}
	done := make(chan struct{})
	s.post(event{kind: eventFlush, done: done})
	select {
	case <-done:
	case <-s.loopDone:
	}
}

// State returns the current phase.
func (s *Scheduler) State() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// LastActivity returns when activity was last seen, or when the
// scheduler started.
func (s *Scheduler) LastActivity() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActivity
}

// Stop cancels both timers and waits for the in-flight write, if any.
// Queued writes that have not started are dropped.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stopping) })
	if !s.started.Load() {
		return
	}
	<-s.loopDone
	<-s.workerDone
}

func (s *Scheduler) post(e event) {
	select {
	case <-s.stopping:
		return
	default:
	}
	select {
	case s.events <- e:
	case <-s.stopping:
	}
}

func (s *Scheduler) loop() {
	defer close(s.loopDone)
	defer close(s.jobs)
	for {
		select {
		case <-s.stopping:
			s.cancelIdle()
			s.cancelReassert()
			s.logger.Info("idle scheduler stopped")
			return
		case e := <-s.events:
			s.handle(e)
		}
	}
}

func (s *Scheduler) handle(e event) {
	switch e.kind {
	case eventActivity, eventForceOn:
		s.cancelIdle()
		s.cancelReassert()
		previous := s.setPhase(Active, true)
		statusLine := ""
		if e.kind == eventForceOn {
			statusLine = "screen forced on"
		} else if previous == Dimmed {
			statusLine = "screen on"
		}
		s.enqueue(job{name: "assert on", run: s.assertOn(true), status: statusLine})
		s.armIdle()

	case eventForceOff:
		s.cancelIdle()
		s.cancelReassert()
		s.setPhase(Dimmed, false)
		s.enqueue(job{name: "forced off", run: s.assertOff(true), status: "screen forced off"})
		s.armReassert()

	case eventResume:
		if s.State() == Dimmed {
			s.enqueue(job{name: "resume reassert", run: s.assertOff(true), status: "brightness reasserted after resume"})
		} else {
			s.enqueue(job{name: "resume reassert", run: s.assertOn(true), status: "brightness reasserted after resume"})
		}

	case eventIdleExpired:
		if s.idleTimer == nil || e.generation != s.idleGeneration {
			return
		}
		s.idleTimer = nil
		s.setPhase(Dimmed, false)
		s.enqueue(job{
			name:   "idle dim",
			run:    s.assertOff(false),
			status: fmt.Sprintf("screen dimmed to minimum (%s without activity)", s.idleTimeout),
		})
		s.armReassert()

	case eventReassertDue:
		if s.reassertTimer == nil || e.generation != s.reassertGeneration || s.State() != Dimmed {
			return
		}
		s.reassertTimer = nil
		s.enqueue(job{name: "periodic reassert", run: s.assertOff(true), status: "brightness kept low (periodic reassert)"})
		s.armReassert()

	case eventFlush:
		select {
		case s.jobs <- job{done: e.done}:
		case <-s.stopping:
		}
	}
}

func (s *Scheduler) assertOn(force bool) func(context.Context) error {
	return func(ctx context.Context) error { return s.controller.AssertOn(ctx, force) }
}

func (s *Scheduler) assertOff(force bool) func(context.Context) error {
	return func(ctx context.Context) error { return s.controller.AssertOff(ctx, force) }
}

// setPhase records the new phase and returns the previous one.
func (s *Scheduler) setPhase(phase Phase, activity bool) Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	previous := s.phase
	s.phase = phase
	if activity {
		s.lastActivity = s.clock.Now()
	}
	if previous != phase {
		s.logger.Debug("idle phase changed", "from", previous.String(), "to", phase.String())
	}
	return previous
}

func (s *Scheduler) armIdle() {
	s.idleGeneration++
	generation := s.idleGeneration
	s.idleTimer = s.clock.AfterFunc(s.idleTimeout, func() {
		s.post(event{kind: eventIdleExpired, generation: generation})
	})
}

func (s *Scheduler) armReassert() {
	s.reassertGeneration++
	generation := s.reassertGeneration
	s.reassertTimer = s.clock.AfterFunc(s.reassertInterval, func() {
		s.post(event{kind: eventReassertDue, generation: generation})
	})
}

func (s *Scheduler) cancelIdle() {
	if s.idleTimer != nil {
		s.idleTimer.Stop()
		s.idleTimer = nil
	}
	s.idleGeneration++
}

func (s *Scheduler) cancelReassert() {
	if s.reassertTimer != nil {
		s.reassertTimer.Stop()
		s.reassertTimer = nil
	}
	s.reassertGeneration++
}

// enqueue hands a write to the worker without blocking the loop. When
// the worker is this far behind, dropping is safe: the next transition
// or periodic reassert writes again.
func (s *Scheduler) enqueue(j job) {
	select {
	case s.jobs <- j:
	default:
		s.logger.Warn("backlight write queue full, dropping write", "job", j.name)
	}
}

func (s *Scheduler) worker() {
	defer close(s.workerDone)
	ctx := context.Background()
	for j := range s.jobs {
		if j.done != nil {
			close(j.done)
			continue
		}
		select {
		case <-s.stopping:
			continue
		default:
		}
		s.report(j, j.run(ctx))
	}
}

// report publishes a job's outcome. Repeated identical failures, such
// as every reassert against an unresolved device, produce one status
// line.
func (s *Scheduler) report(j job, err error) {
	if err == nil {
		s.lastFailure = ""
		if j.status != "" && s.status != nil {
			s.status.Append(j.status)
		}
		return
	}
	message := "backlight unavailable: " + err.Error()
	if message == s.lastFailure {
		s.logger.Debug("backlight write failed again", "job", j.name, "error", err)
		return
	}
	s.lastFailure = message
	s.logger.Warn("backlight write failed", "job", j.name, "error", err)
	if s.status != nil {
		s.status.Append(message)
	}
}
