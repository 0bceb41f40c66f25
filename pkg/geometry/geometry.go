// Package geometry converts a detected ball in image coordinates into a
// range and bearing relative to the robot, and picks the most ball-like
// contour from a set of candidates.
package geometry

import "math"

// Ball is a located ball relative to the camera.
type Ball struct {
	Forward float64 `json:"forward"` // meters along the optical axis
	Lateral float64 `json:"lateral"` // meters, positive to the right
	Bearing float64 `json:"bearing"` // degrees from the optical axis
}

// Distance returns the pinhole range estimate to an object of true radius
// radius that appears with pixelRadius in an image taken with focal
// length focal (pixels).
func Distance(focal, radius, pixelRadius float64) float64 {
	return focal * radius / pixelRadius
}

// Bearing returns the horizontal angle in degrees of image column x.
func Bearing(x, width, hfov float64) float64 {
	return hfov * (x/width - 0.5)
}

// Decompose splits a range along bearing (degrees) into forward and
// lateral offsets.
func Decompose(distance, bearing float64) Ball {
	rad := bearing * math.Pi / 180
	return Ball{
		Forward: distance * math.Cos(rad),
		Lateral: distance * math.Sin(rad),
		Bearing: bearing,
	}
}

// Camera holds the calibration used to locate a ball.
type Camera struct {
	Width       int     // pixels
	Height      int     // pixels
	HFOV        float64 // degrees
	FocalLength float64 // pixels
	BallRadius  float64 // meters
}

// Locate converts an enclosing circle centered at column x with radius r
// (pixels) into a Ball. It reports false for a degenerate radius.
func (c Camera) Locate(x, r float64) (Ball, bool) {
	if r <= 0 || c.Width <= 0 {
		return Ball{}, false
	}
	d := Distance(c.FocalLength, c.BallRadius, r)
	return Decompose(d, Bearing(x, float64(c.Width), c.HFOV)), true
}
