package vision

import (
	"errors"
	"image"
	"sync"

	"gocv.io/x/gocv"

	"github.com/teslashibe/go-robomaster/pkg/geometry"
)

var errDetectorClosed = errors.New("vision: detector is closed")

// Detector finds the ball in BGR frames by color segmentation and contour
// shape.
type Detector struct {
	cfg    Config
	camera geometry.Camera
	lower  gocv.Scalar
	upper  gocv.Scalar
	kernel gocv.Mat

	// Scratch buffers reused across frames.
	mu      sync.Mutex
	closed  bool
	blurred gocv.Mat
	hsv     gocv.Mat
	mask    gocv.Mat
}

// NewDetector creates a detector. Close releases its OpenCV buffers.
func NewDetector(cfg Config) (*Detector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Detector{
		cfg:     cfg,
		camera:  cfg.Camera(),
		lower:   gocv.NewScalar(cfg.LowerHSV[0], cfg.LowerHSV[1], cfg.LowerHSV[2], 0),
		upper:   gocv.NewScalar(cfg.UpperHSV[0], cfg.UpperHSV[1], cfg.UpperHSV[2], 0),
		kernel:  gocv.GetStructuringElement(gocv.MorphRect, image.Pt(cfg.OpenSize, cfg.OpenSize)),
		blurred: gocv.NewMat(),
		hsv:     gocv.NewMat(),
		mask:    gocv.NewMat(),
	}, nil
}

// Detect returns the ball seen in frame, or nil when no contour qualifies.
func (d *Detector) Detect(frame gocv.Mat) (*geometry.Ball, error) {
	if frame.Empty() {
		return nil, errors.New("vision: empty frame")
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, errDetectorClosed
	}

	k := d.cfg.BlurSize
	gocv.GaussianBlur(frame, &d.blurred, image.Pt(k, k), 0, 0, gocv.BorderDefault)
	gocv.CvtColor(d.blurred, &d.hsv, gocv.ColorBGRToHSV)
	gocv.InRangeWithScalar(d.hsv, d.lower, d.upper, &d.mask)
	gocv.MorphologyEx(d.mask, &d.mask, gocv.MorphOpen, d.kernel)

	contours := gocv.FindContours(d.mask, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	cands := make([]geometry.Candidate, 0, contours.Size())
	for i := 0; i < contours.Size(); i++ {
		c := contours.At(i)
		approx := gocv.ApproxPolyDP(c, d.cfg.Epsilon*gocv.ArcLength(c, true), true)
		cands = append(cands, geometry.Candidate{
			Index:    i,
			Vertices: approx.Size(),
			Area:     gocv.ContourArea(c),
		})
		approx.Close()
	}

	best, ok := geometry.Best(cands)
	if !ok {
		return nil, nil
	}

	x, _, r := gocv.MinEnclosingCircle(contours.At(best.Index))
	ball, ok := d.camera.Locate(float64(x), float64(r))
	if !ok {
		return nil, nil
	}
	return &ball, nil
}

// Close releases the OpenCV buffers.
func (d *Detector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	return errors.Join(d.kernel.Close(), d.blurred.Close(), d.hsv.Close(), d.mask.Close())
}
