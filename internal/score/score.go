// Package score compares an extracted centre crop against the micro-pattern
// regenerated from the decoded token.
package score

import (
	"image"

	"gonum.org/v1/gonum/stat"

	"github.com/cristianadrielbraun/protectedqr/internal/contract"
	"github.com/cristianadrielbraun/protectedqr/internal/pattern"
)

// Verdict is the outcome of one comparison. Between the photocopy and
// authentic thresholds both flags are false.
type Verdict struct {
	IsAuthentic       bool    `json:"is_authentic"`
	ConfidenceScore   float64 `json:"confidence_score"`
	BinaryMatchRatio  float64 `json:"binary_match_ratio"`
	BinaryCorrelation float64 `json:"binary_correlation"`
	IsPhotocopy       bool    `json:"is_photocopy"`
}

// Scorer applies the contract's binarization and decision bands.
type Scorer struct {
	contract contract.Contract
}

// New returns a Scorer for c.
func New(c contract.Contract) *Scorer {
	return &Scorer{contract: c}
}

// Score regenerates the pattern for token at the crop's exact size and
// compares the two. It never fails: degenerate crops get a defined verdict.
func (s *Scorer) Score(crop *image.Gray, token string) Verdict {
	size := crop.Bounds().Dx()
	expected := pattern.ForToken(token, size, s.contract.PatternGridModules)
	return s.Compare(expected, crop)
}

// Compare scores actual against expected over their common area.
func (s *Scorer) Compare(expected, actual *image.Gray) Verdict {
	w := min(expected.Bounds().Dx(), actual.Bounds().Dx())
	h := min(expected.Bounds().Dy(), actual.Bounds().Dy())
	if w <= 0 || h <= 0 {
		return s.decide(0, 0)
	}

	e := s.binarize(expected, w, h)
	a := s.binarize(actual, w, h)

	same := 0
	for i := range e {
		if e[i] == a[i] {
			same++
		}
	}
	match := float64(same) / float64(len(e))

	var corr float64
	if constant(e) || constant(a) {
		if match > 0.99 {
			corr = 1
		}
	} else {
		corr = stat.Correlation(e, a, nil)
	}
	return s.decide(match, corr)
}

func (s *Scorer) decide(match, corr float64) Verdict {
	c := s.contract
	conf := c.MatchWeight*match + c.CorrelationWeight*corr
	return Verdict{
		IsAuthentic:       conf > c.AuthenticThreshold,
		ConfidenceScore:   conf,
		BinaryMatchRatio:  match,
		BinaryCorrelation: corr,
		IsPhotocopy:       conf < c.PhotocopyThreshold,
	}
}

// binarize flattens the top-left w x h of g, 1 for dark pixels.
func (s *Scorer) binarize(g *image.Gray, w, h int) []float64 {
	out := make([]float64, 0, w*h)
	b := g.Bounds()
	for y := 0; y < h; y++ {
		row := g.Pix[g.PixOffset(b.Min.X, b.Min.Y+y):]
		for x := 0; x < w; x++ {
			if row[x] < s.contract.BinarizeThreshold {
				out = append(out, 1)
			} else {
				out = append(out, 0)
			}
		}
	}
	return out
}

func constant(v []float64) bool {
	for _, x := range v[1:] {
		if x != v[0] {
			return false
		}
	}
	return true
}

// Best returns the index of the highest-confidence verdict, the first one on
// ties, or -1 for an empty slice.
func Best(vs []Verdict) int {
	best := -1
	for i, v := range vs {
		if best < 0 || v.ConfidenceScore > vs[best].ConfidenceScore {
			best = i
		}
	}
	return best
}
