package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/teslashibe/go-robomaster/internal/log"
	"github.com/teslashibe/go-robomaster/pkg/robomaster"
	"github.com/teslashibe/go-robomaster/pkg/worker"
)

func init() {
	log.Discard()
}

type mockDriver struct {
	calls []string
	err   error
}

func (m *mockDriver) ChassisSpeed(x, y, z float64) error {
	m.calls = append(m.calls, fmt.Sprintf("speed %g %g %g", x, y, z))
	return m.err
}

func (m *mockDriver) Stop() error {
	m.calls = append(m.calls, "stop")
	return m.err
}

func (m *mockDriver) GimbalMove(p, y, vp, vy float64) error {
	m.calls = append(m.calls, fmt.Sprintf("gimbal %g %g", p, y))
	return m.err
}

func (m *mockDriver) BlasterFire() error {
	m.calls = append(m.calls, "fire")
	return m.err
}

func TestTeleop_Keys(t *testing.T) {
	m := &mockDriver{}
	tp := &teleop{robot: m, lines: readLines(strings.NewReader("w s\na d\nq e\ni k f\nz x\n"))}

	if err := tp.Handle(context.Background()); err != nil {
		t.Fatalf("Handle: %v", err)
	}

	want := []string{
		"speed 0.5 0 0", "speed -0.5 0 0",
		"speed 0 -0.5 0", "speed 0 0.5 0",
		"speed 0 0 -90", "speed 0 0 90",
		"gimbal 5 0", "gimbal -5 0", "fire",
		"stop",
		"stop", // end of input
	}
	if strings.Join(m.calls, "|") != strings.Join(want, "|") {
		t.Errorf("calls = %q, want %q", m.calls, want)
	}
}

func TestTeleop_CommandErrorEndsSession(t *testing.T) {
	boom := errors.New("boom")
	m := &mockDriver{err: boom}
	tp := &teleop{robot: m, lines: readLines(strings.NewReader("w\nw\n"))}

	if err := tp.Handle(context.Background()); !errors.Is(err, boom) {
		t.Errorf("Handle = %v, want %v", err, boom)
	}
	if len(m.calls) != 1 {
		t.Errorf("calls after failure = %q", m.calls)
	}
}

func TestTeleop_Cancel(t *testing.T) {
	tp := &teleop{robot: &mockDriver{}, lines: make(chan string)}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := tp.Handle(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Handle = %v, want deadline exceeded", err)
	}
}

func TestGuard_StopsOnHit(t *testing.T) {
	m := &mockDriver{}
	g := &guard{
		robot:  m,
		push:   worker.NewQueue[robomaster.Record](6),
		events: worker.NewQueue[robomaster.Record](6),
	}
	g.push.Offer(robomaster.ChassisPosition{X: 1})
	g.events.Offer(robomaster.SoundEvent{Count: 2})
	g.events.Offer(robomaster.ArmorHitEvent{Index: 1})
	g.events.Offer(robomaster.ArmorHitEvent{Index: 3})

	if err := g.Handle(context.Background()); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if len(m.calls) != 2 || m.calls[0] != "stop" || g.hits != 2 {
		t.Errorf("calls = %q, hits = %d", m.calls, g.hits)
	}
	if g.push.Len() != 0 || g.events.Len() != 0 {
		t.Error("queues not drained")
	}

	if err := g.Handle(context.Background()); err != nil || len(m.calls) != 2 {
		t.Errorf("idle tick: err %v, calls %q", err, m.calls)
	}
}
