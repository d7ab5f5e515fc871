// Package verify runs the full check on a photo: locate and decode the
// symbol, rebuild its geometry from the token, extract candidate centre crops
// and keep the best authenticity verdict.
package verify

import (
	"image"

	"github.com/sirupsen/logrus"

	"github.com/cristianadrielbraun/protectedqr/internal/contract"
	"github.com/cristianadrielbraun/protectedqr/internal/extract"
	"github.com/cristianadrielbraun/protectedqr/internal/imgproc"
	"github.com/cristianadrielbraun/protectedqr/internal/locate"
	"github.com/cristianadrielbraun/protectedqr/internal/qrerr"
	"github.com/cristianadrielbraun/protectedqr/internal/qrmatrix"
	"github.com/cristianadrielbraun/protectedqr/internal/score"
)

// Result is the verdict for one photo. Token is nil when no payload could be
// decoded; the verdict is then all zero.
type Result struct {
	Token *string `json:"token"`
	score.Verdict
	Method string `json:"method,omitempty"`

	Attempt    locate.Attempt `json:"-"`
	Candidates int            `json:"-"`
}

// Decoded reports whether a payload was found.
func (r Result) Decoded() bool { return r.Token != nil }

// Verifier checks photos under one contract.
type Verifier struct {
	contract  contract.Contract
	locator   *locate.Locator
	extractor *extract.Extractor
	scorer    *score.Scorer
	log       logrus.FieldLogger
}

// New wires a Verifier around det.
func New(c contract.Contract, det locate.Detector, log logrus.FieldLogger) *Verifier {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Verifier{
		contract:  c,
		locator:   locate.New(det, log),
		extractor: extract.New(c, log),
		scorer:    score.New(c),
		log:       log,
	}
}

// Verify checks img. Only an empty image is an error; a photo without a
// readable symbol yields a Result with a nil Token.
func (v *Verifier) Verify(img image.Image) (Result, error) {
	if img == nil || img.Bounds().Empty() {
		return Result{}, qrerr.Input("verify", "image is empty")
	}

	loc := v.locator.Locate(img)
	if !loc.Decoded {
		return Result{}, nil
	}
	token := loc.Token

	in := extract.Input{Image: imgproc.Gray(img)}
	if loc.HasCorners {
		in.Corners = loc.Corners.Points
		in.Dimension = loc.Corners.Dimension
	}
	modules, err := qrmatrix.ModuleCount(token, v.contract.BorderModules)
	if err != nil {
		// a symbol this encoder cannot reproduce has no grid to align to
		v.log.WithError(err).Debug("module count unavailable")
	} else {
		in.Modules = modules
	}

	candidates := v.extractor.Candidates(in)
	verdicts := make([]score.Verdict, len(candidates))
	for i, c := range candidates {
		verdicts[i] = v.scorer.Score(c.Crop, token)
	}
	best := score.Best(verdicts)

	res := Result{Token: &token, Attempt: loc.Attempt, Candidates: len(candidates)}
	if best >= 0 {
		res.Verdict = verdicts[best]
		res.Method = candidates[best].Method
	}

	v.log.WithFields(logrus.Fields{
		"method":     res.Method,
		"confidence": res.ConfidenceScore,
		"authentic":  res.IsAuthentic,
		"photocopy":  res.IsPhotocopy,
		"candidates": len(candidates),
		"modules":    in.Modules,
	}).Debug("verified protected qr")
	return res, nil
}
