// Command drive is a line-oriented teleoperation console for a RoboMaster
// EP. Type keys and press enter; the chassis stops itself on armor hits.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli"

	"github.com/teslashibe/go-robomaster/internal/config"
	"github.com/teslashibe/go-robomaster/internal/log"
	"github.com/teslashibe/go-robomaster/pkg/mind"
	"github.com/teslashibe/go-robomaster/pkg/robomaster"
	"github.com/teslashibe/go-robomaster/pkg/telemetry"
	"github.com/teslashibe/go-robomaster/pkg/worker"
)

const queueSize = 6

func main() {
	app := cli.NewApp()
	app.Name = "drive"
	app.Usage = "drive a RoboMaster EP from the terminal"
	app.Flags = config.RobotFlags()
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	log.Init(c.String(config.FlagLogLevel))

	robot := config.Robot(c)
	ctx := context.Background()
	cmd, err := robomaster.Dial(ctx, robot)
	if err != nil {
		return err
	}
	defer cmd.Close()
	robot.IP = cmd.Addr()

	for _, step := range []func() error{
		func() error { return cmd.RobotMode(robomaster.ModeChassisLead) },
		func() error { return cmd.ChassisPushOn(robomaster.PushFreq{Position: 1, Attitude: 1}) },
		func() error { return cmd.ArmorEvent(robomaster.ArmorHit, true) },
	} {
		if err := step(); err != nil {
			return fmt.Errorf("setup: %w", err)
		}
	}

	push := worker.NewQueue[robomaster.Record](queueSize)
	events := worker.NewQueue[robomaster.Record](queueSize)

	h := worker.NewHub()
	h.Add(telemetry.NewPushListener(telemetry.PushConfig{}, push))
	h.Add(telemetry.NewEventListener(telemetry.EventConfig{IP: robot.IP, DialTimeout: robot.Timeout}, events))
	h.Add(mind.New(mind.Config{Name: "guard", Robot: robot}, func(ctx context.Context, cmd *robomaster.Commander) (mind.Handler, error) {
		return &guard{robot: cmd, push: push, events: events}, nil
	}))
	h.Add(mind.New(mind.Config{Name: "teleop", Robot: robot, Once: true}, func(ctx context.Context, cmd *robomaster.Commander) (mind.Handler, error) {
		return &teleop{robot: cmd, lines: readLines(os.Stdin)}, nil
	}), worker.Critical())

	fmt.Printf("🎮 Driving %s\n   %s\n", robot.IP, keyHelp)
	err = h.Run(ctx)
	fmt.Println("👋 Goodbye!")
	return err
}
