package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/teslashibe/go-robomaster/internal/log"
	"github.com/teslashibe/go-robomaster/pkg/robomaster"
	"github.com/teslashibe/go-robomaster/pkg/worker"
)

// driver is the part of the command channel teleop uses.
type driver interface {
	ChassisSpeed(x, y, z float64) error
	Stop() error
	GimbalMove(pitch, yaw, speedPitch, speedYaw float64) error
	BlasterFire() error
}

// Teleop speeds.
const (
	driveSpeed = 0.5 // m/s
	turnSpeed  = 90  // °/s
	pitchStep  = 5   // degrees per key
)

const keyHelp = "w/s forward/back, a/d left/right, q/e turn, i/k pitch, f fire, x stop"

// teleop applies one key per whitespace-separated token read from lines.
type teleop struct {
	robot driver
	lines <-chan string
}

// readLines feeds r line by line into a channel, closed at EOF.
func readLines(r io.Reader) <-chan string {
	ch := make(chan string)
	go func() {
		defer close(ch)
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			ch <- sc.Text()
		}
	}()
	return ch
}

// Handle runs until input ends or ctx is cancelled. It is meant for a
// single-shot Mind.
func (t *teleop) Handle(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-t.lines:
			if !ok {
				return t.robot.Stop()
			}
			for _, key := range strings.Fields(line) {
				if err := t.key(key); err != nil {
					return err
				}
			}
		}
	}
}

// key maps a single key to a command. Unknown keys print the help line.
func (t *teleop) key(k string) error {
	switch k {
	case "w":
		return t.robot.ChassisSpeed(driveSpeed, 0, 0)
	case "s":
		return t.robot.ChassisSpeed(-driveSpeed, 0, 0)
	case "a":
		return t.robot.ChassisSpeed(0, -driveSpeed, 0)
	case "d":
		return t.robot.ChassisSpeed(0, driveSpeed, 0)
	case "q":
		return t.robot.ChassisSpeed(0, 0, -turnSpeed)
	case "e":
		return t.robot.ChassisSpeed(0, 0, turnSpeed)
	case "i":
		return t.robot.GimbalMove(pitchStep, 0, 0, 0)
	case "k":
		return t.robot.GimbalMove(-pitchStep, 0, 0, 0)
	case "f":
		return t.robot.BlasterFire()
	case "x":
		return t.robot.Stop()
	}
	fmt.Printf("   unknown key %q (%s)\n", k, keyHelp)
	return nil
}

// guard stops the chassis whenever an armor plate is hit and logs pushed
// telemetry.
type guard struct {
	robot  driver
	push   *worker.Queue[robomaster.Record]
	events *worker.Queue[robomaster.Record]
	hits   int
}

func (g *guard) Handle(ctx context.Context) error {
	if _, err := worker.Drain(g.push, func(r robomaster.Record) error {
		log.Debug("telemetry", "kind", r.Kind(), "record", r)
		return nil
	}); err != nil {
		return err
	}

	_, err := worker.Drain(g.events, func(r robomaster.Record) error {
		hit, ok := r.(robomaster.ArmorHitEvent)
		if !ok {
			log.Debug("ignoring event", "kind", r.Kind())
			return nil
		}
		g.hits++
		log.Info("armor hit, stopping", "index", hit.Index, "type", hit.Type, "hits", g.hits)
		return g.robot.Stop()
	})
	return err
}
