// Package extract cuts candidate crops of the centre micro-pattern out of a
// photo. Strategies are tried in a fixed order and every one that applies
// contributes a candidate; the axis-aligned strategy always does.
package extract

import (
	"errors"
	"image"

	"github.com/sirupsen/logrus"

	"github.com/cristianadrielbraun/protectedqr/internal/contract"
	"github.com/cristianadrielbraun/protectedqr/internal/imgproc"
)

// Extraction method tags, in order of preference.
const (
	MethodWarpGrid = "warp-grid"
	MethodWarp     = "warp"
	MethodAxis     = "axis"
)

// Input is what verification knows about a photo before scoring.
type Input struct {
	Image *image.Gray

	// Corners are the detected symbol corners in any order, nil if none.
	Corners []imgproc.Point
	// Dimension is the detector's module count, 0 if it did not report one.
	Dimension int
	// Modules is the count reconstructed from the decoded token, 0 if unknown.
	Modules int
}

// Candidate is one grayscale crop and the strategy that produced it.
type Candidate struct {
	Method string
	Crop   *image.Gray
}

// errNotApplicable means a strategy lacks the inputs it needs.
var errNotApplicable = errors.New("strategy not applicable")

// Strategy produces crops of one kind. Rectified strategies share one slot:
// once one of them succeeds the rest are skipped.
type Strategy struct {
	Name      string
	Rectified bool
	Run       func(c contract.Contract, in Input) ([]*image.Gray, error)
}

// DefaultStrategies returns warp-grid, warp and axis in that order.
func DefaultStrategies() []Strategy {
	return []Strategy{
		{Name: MethodWarpGrid, Rectified: true, Run: WarpGrid},
		{Name: MethodWarp, Rectified: true, Run: Warp},
		{Name: MethodAxis, Run: Axis},
	}
}

// Extractor runs strategies under one contract.
type Extractor struct {
	contract   contract.Contract
	log        logrus.FieldLogger
	strategies []Strategy
}

// New returns an Extractor using DefaultStrategies.
func New(c contract.Contract, log logrus.FieldLogger) *Extractor {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Extractor{contract: c, log: log, strategies: DefaultStrategies()}
}

// Candidates returns every crop the strategies could produce, in strategy order.
func (e *Extractor) Candidates(in Input) []Candidate {
	var out []Candidate
	rectified := false
	for _, s := range e.strategies {
		if s.Rectified && rectified {
			continue
		}
		crops, err := s.Run(e.contract, in)
		if err != nil {
			if !errors.Is(err, errNotApplicable) {
				e.log.WithField("method", s.Name).WithError(err).Debug("extraction strategy fell through")
			}
			continue
		}
		for _, crop := range crops {
			out = append(out, Candidate{Method: s.Name, Crop: crop})
		}
		rectified = rectified || s.Rectified
	}
	return out
}
