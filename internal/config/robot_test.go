package config

import (
	"testing"
	"time"

	"github.com/urfave/cli"

	"github.com/teslashibe/go-robomaster/pkg/robomaster"
)

func TestRobotIP(t *testing.T) {
	t.Setenv("ROBOT_IP", "192.168.2.1")

	if got := RobotIP(""); got != "192.168.2.1" {
		t.Errorf("RobotIP from env: got %q", got)
	}
	if got := RobotIP("10.0.0.5"); got != "10.0.0.5" {
		t.Errorf("explicit address should win, got %q", got)
	}
}

func TestTimeout(t *testing.T) {
	tests := []struct {
		env  string
		want time.Duration
	}{
		{"", DefaultTimeout},
		{"2.5", 2500 * time.Millisecond},
		{"nope", DefaultTimeout},
		{"-1", DefaultTimeout},
	}

	for _, tt := range tests {
		t.Setenv("ROBOT_TIMEOUT", tt.env)
		if got := Timeout(DefaultTimeout); got != tt.want {
			t.Errorf("Timeout(%q) = %v, want %v", tt.env, got, tt.want)
		}
	}
}

func TestRobotFlags(t *testing.T) {
	t.Setenv("ROBOT_IP", "")

	app := cli.NewApp()
	app.Flags = RobotFlags()

	var got robomaster.Config
	var level string
	app.Action = func(c *cli.Context) error {
		got = Robot(c)
		level = c.String(FlagLogLevel)
		return nil
	}
	if err := app.Run([]string{"test", "--ip", "192.168.2.1", "--timeout", "3s", "--log-level", "debug"}); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if got.IP != "192.168.2.1" || got.Timeout != 3*time.Second {
		t.Errorf("Robot = %+v", got)
	}
	if level != "debug" {
		t.Errorf("log level = %q", level)
	}
}

func TestRobotFlags_Defaults(t *testing.T) {
	t.Setenv("ROBOT_IP", "")
	t.Setenv("ROBOT_TIMEOUT", "")

	app := cli.NewApp()
	app.Flags = RobotFlags()

	var got robomaster.Config
	app.Action = func(c *cli.Context) error {
		got = Robot(c)
		return nil
	}
	if err := app.Run([]string{"test"}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got.IP != "" || got.Timeout != DefaultTimeout {
		t.Errorf("Robot = %+v, want discovery with default timeout", got)
	}
}
