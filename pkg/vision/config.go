// Package vision decodes the robot's video stream and locates the ball in
// each frame.
package vision

import (
	"errors"
	"fmt"

	"github.com/teslashibe/go-robomaster/pkg/geometry"
)

// Config holds the camera calibration and the color segmentation tuning.
type Config struct {
	// === Frame ===
	Width  int `json:"width"`  // pixels
	Height int `json:"height"` // pixels

	// === Calibration ===
	HFOV        float64 `json:"hfov"`         // horizontal field of view, degrees
	FocalLength float64 `json:"focal_length"` // pixels
	BallRadius  float64 `json:"ball_radius"`  // meters

	// === Segmentation ===
	// HSV bounds, inclusive, on OpenCV's 0-180 hue scale.
	LowerHSV [3]float64 `json:"lower_hsv"`
	UpperHSV [3]float64 `json:"upper_hsv"`

	// BlurSize is the Gaussian kernel edge, odd.
	BlurSize int `json:"blur_size"`

	// OpenSize is the morphological opening kernel edge.
	OpenSize int `json:"open_size"`

	// Epsilon is the polygon approximation tolerance as a fraction of
	// the contour perimeter.
	Epsilon float64 `json:"epsilon"`
}

// DefaultConfig returns the calibration for the EP camera at 720p and a
// tennis-ball green.
func DefaultConfig() Config {
	return Config{
		Width:       1280,
		Height:      720,
		HFOV:        96,
		FocalLength: 576,
		BallRadius:  0.0325,
		LowerHSV:    [3]float64{29, 90, 90},
		UpperHSV:    [3]float64{64, 255, 255},
		BlurSize:    11,
		OpenSize:    3,
		Epsilon:     0.01,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	var errs []error
	if c.Width <= 0 || c.Height <= 0 {
		errs = append(errs, fmt.Errorf("frame size %dx%d must be positive", c.Width, c.Height))
	}
	if c.HFOV <= 0 || c.HFOV >= 180 {
		errs = append(errs, fmt.Errorf("hfov %v must be in (0, 180)", c.HFOV))
	}
	if c.FocalLength <= 0 {
		errs = append(errs, errors.New("focal length must be positive"))
	}
	if c.BallRadius <= 0 {
		errs = append(errs, errors.New("ball radius must be positive"))
	}
	if c.BlurSize <= 0 || c.BlurSize%2 == 0 {
		errs = append(errs, fmt.Errorf("blur size %d must be odd and positive", c.BlurSize))
	}
	if c.OpenSize <= 0 {
		errs = append(errs, fmt.Errorf("open size %d must be positive", c.OpenSize))
	}
	if c.Epsilon <= 0 || c.Epsilon >= 1 {
		errs = append(errs, fmt.Errorf("epsilon %v must be in (0, 1)", c.Epsilon))
	}
	for i := range c.LowerHSV {
		if c.LowerHSV[i] > c.UpperHSV[i] {
			errs = append(errs, fmt.Errorf("hsv channel %d: lower %v above upper %v", i, c.LowerHSV[i], c.UpperHSV[i]))
		}
	}
	return errors.Join(errs...)
}

// Camera returns the geometry used to range a detected circle.
func (c Config) Camera() geometry.Camera {
	return geometry.Camera{
		Width:       c.Width,
		Height:      c.Height,
		HFOV:        c.HFOV,
		FocalLength: c.FocalLength,
		BallRadius:  c.BallRadius,
	}
}

// FrameBytes is the size of one BGR24 frame.
func (c Config) FrameBytes() int {
	return c.Width * c.Height * 3
}
