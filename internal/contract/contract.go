// Package contract holds the fixed geometry and scoring constants shared by
// generation and verification. Artifacts issued under one contract version can
// only be verified with the same values, so nothing here is configurable at
// runtime.
package contract

import (
	"fmt"
)

// Contract is a versioned set of protected QR constants.
type Contract struct {
	Version string

	// QR symbol
	ErrorCorrection string // only "H" is supported
	BorderModules   int
	DefaultSizePx   int

	// Host square and micro-pattern
	HostSquareModules  int
	HostPaddingModules float64
	PatternSpanModules float64
	PatternGridModules int
	DotCount           int
	DotSizeModules     float64
	HoleSizeModules    float64
	HollowDotIndex     int
	MinReadableModules int // smallest symbol side that still decodes with the host square cleared

	// Scoring
	BinarizeThreshold  uint8
	MatchWeight        float64
	CorrelationWeight  float64
	AuthenticThreshold float64
	PhotocopyThreshold float64

	// Extraction
	ExpectedCropPx       int
	ReferenceRectifiedPx int
	RectifySlackPx       int
	MinCropPx            int
	BoundsPaddingPx      int
	GridJitterPx         int // grid crops are also taken this far off centre
}

// V1 returns the contract every artifact issued so far was generated with.
func V1() Contract {
	return Contract{
		Version:         "v1",
		ErrorCorrection: "H",
		BorderModules:   1,
		DefaultSizePx:   600,

		HostSquareModules:  15,
		HostPaddingModules: 1.0,
		PatternSpanModules: 14.0,
		PatternGridModules: 56,
		DotCount:           12,
		DotSizeModules:     0.85,
		HoleSizeModules:    0.5,
		HollowDotIndex:     6,
		MinReadableModules: 37,

		BinarizeThreshold:  128,
		MatchWeight:        0.7,
		CorrelationWeight:  0.3,
		AuthenticThreshold: 0.70,
		PhotocopyThreshold: 0.55,

		ExpectedCropPx:       154,
		ReferenceRectifiedPx: 600,
		RectifySlackPx:       20,
		MinCropPx:            8,
		BoundsPaddingPx:      5,
		GridJitterPx:         1,
	}
}

// Validate reports values that would make generation and verification disagree
// or produce an undrawable layout.
func (c Contract) Validate() error {
	switch {
	case c.ErrorCorrection != "H":
		return fmt.Errorf("contract %s: unsupported error correction %q", c.Version, c.ErrorCorrection)
	case c.BorderModules < 0:
		return fmt.Errorf("contract %s: negative border", c.Version)
	case c.HostSquareModules < 3:
		return fmt.Errorf("contract %s: host square too small", c.Version)
	case c.PatternSpanModules <= 0 || c.PatternSpanModules > float64(c.HostSquareModules):
		return fmt.Errorf("contract %s: pattern span %.2f must fit the host square", c.Version, c.PatternSpanModules)
	case c.PatternGridModules < 1:
		return fmt.Errorf("contract %s: pattern grid must have at least one module", c.Version)
	case c.DotCount != 12:
		return fmt.Errorf("contract %s: marker layout is defined for 12 dots, got %d", c.Version, c.DotCount)
	case c.HollowDotIndex < 0 || c.HollowDotIndex >= c.DotCount:
		return fmt.Errorf("contract %s: hollow dot index %d out of range", c.Version, c.HollowDotIndex)
	case c.MinReadableModules < c.HostSquareModules:
		return fmt.Errorf("contract %s: minimum symbol cannot be smaller than the host square", c.Version)
	case c.HoleSizeModules >= c.DotSizeModules:
		return fmt.Errorf("contract %s: hole must be smaller than the dot", c.Version)
	case c.PhotocopyThreshold > c.AuthenticThreshold:
		return fmt.Errorf("contract %s: photocopy threshold above authentic threshold", c.Version)
	case c.MinCropPx < 1:
		return fmt.Errorf("contract %s: minimum crop must be positive", c.Version)
	case c.GridJitterPx < 0:
		return fmt.Errorf("contract %s: negative grid jitter", c.Version)
	}
	return nil
}

// DotStepModules is the distance between consecutive marker dots along one
// side of the host square, in modules.
func (c Contract) DotStepModules() float64 {
	area := float64(c.HostSquareModules) - 2*c.HostPaddingModules
	spacing := (area - 4*c.DotSizeModules) / 3
	return c.DotSizeModules + spacing
}
