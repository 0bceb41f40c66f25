package config

import (
	"github.com/urfave/cli"

	"github.com/teslashibe/go-robomaster/pkg/robomaster"
)

// Flag names shared by every entry point.
const (
	FlagIP       = "ip"
	FlagTimeout  = "timeout"
	FlagLogLevel = "log-level"
)

// RobotFlags are the connection and logging flags every command accepts.
func RobotFlags() []cli.Flag {
	return []cli.Flag{
		cli.StringFlag{
			Name:   FlagIP,
			Usage:  "robot address; discovered from its broadcast when empty",
			EnvVar: "ROBOT_IP",
		},
		cli.DurationFlag{
			Name:  FlagTimeout,
			Value: Timeout(DefaultTimeout),
			Usage: "discovery, connect and per-command timeout",
		},
		cli.StringFlag{
			Name:  FlagLogLevel,
			Value: LogLevel(DefaultLogLevel),
			Usage: "debug, info, warn or error",
		},
	}
}

// Robot builds the command channel config from parsed flags.
func Robot(c *cli.Context) robomaster.Config {
	return robomaster.Config{
		IP:      RobotIP(c.String(FlagIP)),
		Timeout: c.Duration(FlagTimeout),
	}
}
