package crop

import (
	"image"

	"github.com/menta2k/smartthumb/pkg/salience"
)

// Weights combine the sub-scores into a candidate's total. The same
// weights merge the detector maps into the combined importance map.
type Weights struct {
	Detail     float64
	Saturation float64
	Skin       float64
	Boost      float64
}

// Breakdown holds the named sub-scores for one candidate. Sub-scores are
// area-normalized means, so candidates of different sizes compare fairly.
type Breakdown struct {
	Detail     float64 `json:"detail"`
	Saturation float64 `json:"saturation"`
	Skin       float64 `json:"skin"`
	Boost      float64 `json:"boost"`
	Total      float64 `json:"total"`
}

// Scored pairs a candidate with its breakdown, for debugging consumers.
type Scored struct {
	Candidate Candidate `json:"candidate"`
	Score     Breakdown `json:"score"`
}

// Scorer evaluates candidates against precomputed integral images of the
// detector and boost maps. It is read-only after construction and safe
// for concurrent use.
type Scorer struct {
	edge  *salience.Integral
	sat   *salience.Integral
	skin  *salience.Integral
	boost *salience.Integral

	area    float64 // working image area in pixels
	weights Weights
	outside float64 // outside-importance, <= 0
}

// NewScorer builds a scorer over the four maps. All maps must share the
// working-image dimensions.
func NewScorer(edge, sat, skin, boost *salience.Map, w Weights, outsideImportance float64) *Scorer {
	return &Scorer{
		edge:    edge.Integral(),
		sat:     sat.Integral(),
		skin:    skin.Integral(),
		boost:   boost.Integral(),
		area:    float64(edge.W * edge.H),
		weights: w,
		outside: outsideImportance,
	}
}

// Score computes the breakdown for one candidate. Each detector sub-score
// is the mean weight inside the crop plus the (negative) outside
// importance times the mean weight left outside, so concentrating salient
// content inside the crop is rewarded twice. The boost sub-score has no
// outside term: adding a boost anywhere must never lower a score.
func (s *Scorer) Score(c Candidate) Breakdown {
	r := image.Rect(c.X, c.Y, c.X+c.W, c.Y+c.H)
	inArea := float64(c.W * c.H)
	outArea := s.area - inArea

	b := Breakdown{
		Detail:     s.balance(s.edge, r, inArea, outArea),
		Saturation: s.balance(s.sat, r, inArea, outArea),
		Skin:       s.balance(s.skin, r, inArea, outArea),
		Boost:      s.boost.Sum(r) / inArea,
	}
	b.Total = s.weights.Detail*b.Detail +
		s.weights.Saturation*b.Saturation +
		s.weights.Skin*b.Skin +
		s.weights.Boost*b.Boost
	return b
}

func (s *Scorer) balance(it *salience.Integral, r image.Rectangle, inArea, outArea float64) float64 {
	inside := it.Sum(r)
	v := inside / inArea
	if outArea > 0 {
		v += s.outside * (it.Total() - inside) / outArea
	}
	return v
}

// ScoreAll evaluates every candidate in enumeration order.
func (s *Scorer) ScoreAll(cands []Candidate) []Scored {
	out := make([]Scored, len(cands))
	for i, c := range cands {
		out[i] = Scored{Candidate: c, Score: s.Score(c)}
	}
	return out
}

// MapToSource converts a winning candidate from working-image coordinates
// back to source coordinates. factor is the downscale factor (working
// over source); a factor of exactly 1 is an identity mapping. The result
// is clamped to the source bounds and never empty for a valid candidate.
func MapToSource(c Candidate, factor float64, source image.Rectangle) image.Rectangle {
	r := image.Rect(c.X, c.Y, c.X+c.W, c.Y+c.H)
	if factor != 1 {
		inv := 1 / factor
		r = image.Rect(
			int(float64(c.X)*inv+0.5),
			int(float64(c.Y)*inv+0.5),
			int(float64(c.X+c.W)*inv+0.5),
			int(float64(c.Y+c.H)*inv+0.5),
		)
	}
	return r.Add(source.Min).Intersect(source)
}
