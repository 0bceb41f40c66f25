// Package config provides configuration helpers for the robomaster commands.
package config

import (
	"os"
	"strconv"
	"time"
)

// CLI defaults shared by every entry point.
const (
	DefaultTimeout  = 10 * time.Second
	DefaultLogLevel = "info"

	// DefaultFieldWidth and DefaultFieldDepth bound the goalkeeper's area (meters).
	DefaultFieldWidth = 0.5
	DefaultFieldDepth = 0.5
)

// RobotIP returns ip if non-empty, otherwise the ROBOT_IP env var.
// An empty result means the address should be discovered from the
// robot's broadcast.
func RobotIP(defaultIP string) string {
	if defaultIP != "" {
		return defaultIP
	}
	return os.Getenv("ROBOT_IP")
}

// Timeout returns the command timeout from ROBOT_TIMEOUT (seconds) if set
// and valid, otherwise def.
func Timeout(def time.Duration) time.Duration {
	v := os.Getenv("ROBOT_TIMEOUT")
	if v == "" {
		return def
	}
	secs, err := strconv.ParseFloat(v, 64)
	if err != nil || secs <= 0 {
		return def
	}
	return time.Duration(secs * float64(time.Second))
}

// LogLevel returns LOG_LEVEL or the default level.
func LogLevel(def string) string {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		return v
	}
	return def
}
