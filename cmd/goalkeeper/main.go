// Command goalkeeper turns a RoboMaster EP into a goalkeeper: it watches
// the goal through the camera, tracks an approaching green ball sideways and
// kicks it away.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli"

	"github.com/teslashibe/go-robomaster/internal/config"
	"github.com/teslashibe/go-robomaster/internal/log"
	"github.com/teslashibe/go-robomaster/pkg/geometry"
	"github.com/teslashibe/go-robomaster/pkg/hub"
	"github.com/teslashibe/go-robomaster/pkg/keeper"
	"github.com/teslashibe/go-robomaster/pkg/mind"
	"github.com/teslashibe/go-robomaster/pkg/robomaster"
	"github.com/teslashibe/go-robomaster/pkg/telemetry"
	"github.com/teslashibe/go-robomaster/pkg/vision"
	"github.com/teslashibe/go-robomaster/pkg/web"
	"github.com/teslashibe/go-robomaster/pkg/worker"
)

const (
	queueSize = 6
	pushRate  = 30
)

func main() {
	app := cli.NewApp()
	app.Name = "goalkeeper"
	app.Usage = "keep goal with a RoboMaster EP"
	app.Flags = append(config.RobotFlags(),
		cli.Float64Flag{
			Name:  "max-width",
			Value: config.DefaultFieldWidth,
			Usage: "width of the goal area in meters",
		},
		cli.Float64Flag{
			Name:  "max-depth",
			Value: config.DefaultFieldDepth,
			Usage: "depth of the goal area in meters",
		},
		cli.StringFlag{
			Name:  "dashboard",
			Usage: "serve the status dashboard on this address, e.g. :8080",
		},
	)
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	log.Init(c.String(config.FlagLogLevel))

	kcfg := keeper.DefaultConfig()
	kcfg.FieldWidth = c.Float64("max-width")
	kcfg.FieldDepth = c.Float64("max-depth")
	if err := kcfg.Validate(); err != nil {
		return err
	}
	vcfg := vision.DefaultConfig()

	robot := config.Robot(c)
	fmt.Println("🥅 RoboMaster goalkeeper")
	if robot.IP == "" {
		fmt.Println("   Waiting for the robot's address broadcast...")
	}

	ctx := context.Background()
	cmd, err := robomaster.Dial(ctx, robot)
	if err != nil {
		return err
	}
	defer cmd.Close()

	// Every worker reuses the address the session resolved.
	robot.IP = cmd.Addr()
	fmt.Printf("   Robot: %s\n", robot.IP)
	fmt.Printf("   Goal:  %.2f m × %.2f m\n", kcfg.FieldWidth, kcfg.FieldDepth)

	if err := setup(cmd); err != nil {
		return err
	}
	defer teardown(cmd)

	balls := worker.NewQueue[*geometry.Ball](queueSize)
	push := worker.NewQueue[robomaster.Record](queueSize)
	events := worker.NewQueue[robomaster.Record](queueSize)

	h := worker.NewHub()
	h.Worker("vision", func() (worker.Worker, error) {
		det, err := vision.NewDetector(vcfg)
		if err != nil {
			return nil, err
		}
		src := vision.NewFFmpegSource(robot.IP, robomaster.VideoPort, vcfg)
		return vision.NewWorker("vision", src, det.Detect, balls,
			vision.ForwardNone[geometry.Ball](),
			vision.WithCloser[geometry.Ball](det.Close)), nil
	})
	h.Add(telemetry.NewPushListener(telemetry.PushConfig{}, push))
	h.Add(telemetry.NewEventListener(telemetry.EventConfig{IP: robot.IP, DialTimeout: robot.Timeout}, events))

	var opts []keeper.Option
	if addr := c.String("dashboard"); addr != "" {
		status := hub.New("status")
		srv := web.NewServer(addr, status)
		srv.AddQueue("vision", balls)
		srv.AddQueue("push", push)
		srv.AddQueue("event", events)
		h.Add(status, worker.Once())
		h.Add(srv, worker.Once())
		opts = append(opts, keeper.WithSink(srv.Publish))
	}

	in := keeper.Inputs{Vision: balls, Push: push, Event: events}
	h.Add(mind.New(mind.Config{Name: "keeper", Robot: robot}, func(ctx context.Context, cmd *robomaster.Commander) (mind.Handler, error) {
		return keeper.New(kcfg, cmd, in, opts...)
	}), worker.Critical())

	fmt.Println("✅ Keeping goal. Ctrl-C to stop.")
	err = h.Run(ctx)
	fmt.Println("👋 Goodbye!")
	return err
}

// setup turns on the video stream and the telemetry the keeper consumes.
func setup(cmd *robomaster.Commander) error {
	steps := []func() error{
		func() error { return cmd.Stream(true) },
		func() error {
			return cmd.ChassisPushOn(robomaster.PushFreq{Position: pushRate, Attitude: pushRate})
		},
		func() error { return cmd.ArmorSensitivity(robomaster.MaxArmorSensitivity) },
		func() error { return cmd.ArmorEvent(robomaster.ArmorHit, true) },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return fmt.Errorf("setup: %w", err)
		}
	}
	return nil
}

// teardown is best effort; the robot drops everything when the session
// ends anyway.
func teardown(cmd *robomaster.Commander) {
	if err := errors.Join(
		cmd.ArmorEvent(robomaster.ArmorHit, false),
		cmd.ChassisPushOff(),
		cmd.Stream(false),
	); err != nil {
		log.Warn("teardown", "err", err)
	}
}
