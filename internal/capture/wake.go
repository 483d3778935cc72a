package capture

import (
	"image"
	"sync"

	"gocv.io/x/gocv"
)

// Frame differencing parameters.
const (
	// wakeWidth is the width frames are shrunk to before comparison.
	wakeWidth = 160
	// wakeBlur is the Gaussian kernel size applied to the shrunk frame.
	wakeBlur = 7
	// wakeDiff is the per-pixel intensity change that counts as changed.
	wakeDiff = 25

	// DefaultWakeThreshold is the share of changed pixels, in percent,
	// that wakes the pipeline from idle.
	DefaultWakeThreshold = 1.0
)

// WakeDetector reports when consecutive frames differ enough that a hand
// may have entered the view. It is cheap enough to run on every idle frame
// so hand tracking only runs when something moves.
type WakeDetector struct {
	threshold float64
	prev      gocv.Mat
	hasPrev   bool
	mu        sync.Mutex
}

// NewWakeDetector creates a detector firing when more than threshold
// percent of pixels change. Non-positive thresholds use the default.
func NewWakeDetector(threshold float64) *WakeDetector {
	if threshold <= 0 {
		threshold = DefaultWakeThreshold
	}
	return &WakeDetector{
		threshold: threshold,
		prev:      gocv.NewMat(),
	}
}

// Moved compares frame with the previous one and returns whether the
// change exceeds the threshold, along with the changed percentage. The
// first frame after construction or Reset only sets the baseline.
func (w *WakeDetector) Moved(frame *gocv.Mat) (bool, float64) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if frame == nil || frame.Empty() {
		return false, 0
	}

	cur := prepare(*frame)

	if !w.hasPrev || cur.Rows() != w.prev.Rows() || cur.Cols() != w.prev.Cols() {
		w.prev.Close()
		w.prev = cur
		w.hasPrev = true
		return false, 0
	}

	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(cur, w.prev, &diff)
	gocv.Threshold(diff, &diff, wakeDiff, 255, gocv.ThresholdBinary)

	changed := float64(gocv.CountNonZero(diff)) / float64(diff.Rows()*diff.Cols()) * 100

	w.prev.Close()
	w.prev = cur

	return changed > w.threshold, changed
}

// prepare shrinks, greys and blurs frame into a new Mat.
func prepare(frame gocv.Mat) gocv.Mat {
	small := gocv.NewMat()
	if frame.Cols() > wakeWidth {
		h := frame.Rows() * wakeWidth / frame.Cols()
		gocv.Resize(frame, &small, image.Point{X: wakeWidth, Y: h}, 0, 0, gocv.InterpolationArea)
	} else {
		frame.CopyTo(&small)
	}
	defer small.Close()

	gray := gocv.NewMat()
	if small.Channels() > 1 {
		gocv.CvtColor(small, &gray, gocv.ColorBGRToGray)
	} else {
		small.CopyTo(&gray)
	}
	gocv.GaussianBlur(gray, &gray, image.Point{X: wakeBlur, Y: wakeBlur}, 0, 0, gocv.BorderDefault)
	return gray
}

// Threshold returns the wake threshold in percent.
func (w *WakeDetector) Threshold() float64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.threshold
}

// SetThreshold changes the wake threshold. Non-positive values are ignored.
func (w *WakeDetector) SetThreshold(threshold float64) {
	if threshold <= 0 {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.threshold = threshold
}

// Reset drops the baseline; the next frame starts a new comparison.
func (w *WakeDetector) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.prev.Close()
	w.prev = gocv.NewMat()
	w.hasPrev = false
}

// Close releases the stored frame. Moved keeps working after Close.
func (w *WakeDetector) Close() {
	w.Reset()
}
