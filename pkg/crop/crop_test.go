package crop

import (
	"errors"
	"image"
	"math"
	"reflect"
	"testing"

	"github.com/menta2k/smartthumb/pkg/salience"
)

func defaultParams(tw, th int) Params {
	return Params{
		TargetWidth:  tw,
		TargetHeight: th,
		MinScale:     0.8,
		MaxScale:     1.0,
		ScaleStep:    0.1,
		Step:         8,
	}
}

func TestGenerateDeterministic(t *testing.T) {
	a, err := Generate(640, 480, defaultParams(100, 80))
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	b, err := Generate(640, 480, defaultParams(100, 80))
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Error("two runs produced different candidate lists")
	}
}

func TestGenerateOrderAndBounds(t *testing.T) {
	cands, err := Generate(640, 480, defaultParams(100, 80))
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if len(cands) == 0 {
		t.Fatal("no candidates")
	}

	work := image.Rect(0, 0, 640, 480)
	ratio := 100.0 / 80.0
	prev := cands[0]
	for i, c := range cands {
		if c.Index != i {
			t.Fatalf("candidate %d carries index %d", i, c.Index)
		}
		r := image.Rect(c.X, c.Y, c.X+c.W, c.Y+c.H)
		if !r.In(work) {
			t.Fatalf("candidate %v exceeds working bounds", c)
		}
		if got := float64(c.W) / float64(c.H); math.Abs(got-ratio) > 0.05 {
			t.Fatalf("candidate %v ratio %g, want ~%g", c, got, ratio)
		}
		if i > 0 {
			// Scale outer descending, then y, then x.
			switch {
			case c.W > prev.W:
				t.Fatalf("width grew from %d to %d at index %d", prev.W, c.W, i)
			case c.W == prev.W && c.Y < prev.Y:
				t.Fatalf("y went backwards at index %d", i)
			case c.W == prev.W && c.Y == prev.Y && c.X <= prev.X:
				t.Fatalf("x did not advance at index %d", i)
			}
		}
		prev = c
	}
}

func TestGenerateFullImageTarget(t *testing.T) {
	cands, err := Generate(320, 200, defaultParams(320, 200))
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if len(cands) != 1 {
		t.Fatalf("expected exactly one candidate, got %d", len(cands))
	}
	c := cands[0]
	if c.X != 0 || c.Y != 0 || c.W != 320 || c.H != 200 {
		t.Errorf("expected the full image, got %v", c)
	}
}

func TestGenerateUnsatisfiable(t *testing.T) {
	p := defaultParams(400, 400)
	if _, err := Generate(320, 200, p); !errors.Is(err, ErrNoCandidates) {
		t.Errorf("expected ErrNoCandidates for oversized target, got %v", err)
	}

	p.AllowUpscaling = true
	cands, err := Generate(320, 200, p)
	if err != nil {
		t.Fatalf("Generate with upscaling failed: %v", err)
	}
	for _, c := range cands {
		if c.W > 320 || c.H > 200 {
			t.Fatalf("candidate %v exceeds working image", c)
		}
	}
}

func TestGenerateZeroTarget(t *testing.T) {
	if _, err := Generate(320, 200, defaultParams(0, 100)); !errors.Is(err, ErrNoCandidates) {
		t.Errorf("expected ErrNoCandidates for zero target, got %v", err)
	}
}

func TestPositions(t *testing.T) {
	got := positions(20, 8)
	want := []int{0, 8, 16, 20}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("positions(20, 8) = %v, want %v", got, want)
	}
	if got := positions(0, 8); !reflect.DeepEqual(got, []int{0}) {
		t.Errorf("positions(0, 8) = %v, want [0]", got)
	}
	if got := positions(16, 8); !reflect.DeepEqual(got, []int{0, 8, 16}) {
		t.Errorf("positions(16, 8) = %v, want [0 8 16]", got)
	}
	if got := positions(-1, 8); got != nil {
		t.Errorf("positions(-1, 8) = %v, want nil", got)
	}
}

func testScorer(w, h int, fill func(m *salience.Map)) *Scorer {
	edge := salience.NewMap(w, h)
	sat := salience.NewMap(w, h)
	skin := salience.NewMap(w, h)
	boost := salience.NewMap(w, h)
	if fill != nil {
		fill(edge)
	}
	return NewScorer(edge, sat, skin, boost, Weights{Detail: 1, Saturation: 0.6, Skin: 1.2, Boost: 1}, -0.5)
}

func TestScoreAgainstNaiveSums(t *testing.T) {
	edge := salience.NewMap(16, 12)
	sat := salience.NewMap(16, 12)
	skin := salience.NewMap(16, 12)
	boost := salience.NewMap(16, 12)
	for y := 0; y < 12; y++ {
		for x := 0; x < 16; x++ {
			edge.Set(x, y, float64(x)/16)
			sat.Set(x, y, float64(y)/12)
			skin.Set(x, y, float64(x+y)/28)
			boost.Set(x, y, 0.25)
		}
	}
	w := Weights{Detail: 1, Saturation: 0.6, Skin: 1.2, Boost: 0.8}
	s := NewScorer(edge, sat, skin, boost, w, -0.5)

	c := Candidate{X: 3, Y: 2, W: 8, H: 6}
	got := s.Score(c)

	naive := func(m *salience.Map) float64 {
		var inside, total float64
		for y := 0; y < 12; y++ {
			for x := 0; x < 16; x++ {
				v := m.At(x, y)
				total += v
				if x >= 3 && x < 11 && y >= 2 && y < 8 {
					inside += v
				}
			}
		}
		inArea := 48.0
		outArea := 16*12 - inArea
		return inside/inArea - 0.5*(total-inside)/outArea
	}
	if want := naive(edge); math.Abs(got.Detail-want) > 1e-9 {
		t.Errorf("Detail = %g, want %g", got.Detail, want)
	}
	if want := naive(sat); math.Abs(got.Saturation-want) > 1e-9 {
		t.Errorf("Saturation = %g, want %g", got.Saturation, want)
	}
	if want := naive(skin); math.Abs(got.Skin-want) > 1e-9 {
		t.Errorf("Skin = %g, want %g", got.Skin, want)
	}
	if math.Abs(got.Boost-0.25) > 1e-9 {
		t.Errorf("Boost = %g, want 0.25", got.Boost)
	}
	wantTotal := w.Detail*got.Detail + w.Saturation*got.Saturation + w.Skin*got.Skin + w.Boost*got.Boost
	if math.Abs(got.Total-wantTotal) > 1e-12 {
		t.Errorf("Total = %g, want %g", got.Total, wantTotal)
	}
}

func TestBoostHasNoOutsidePenalty(t *testing.T) {
	mk := func(outside float64) Breakdown {
		edge := salience.NewMap(10, 10)
		sat := salience.NewMap(10, 10)
		skin := salience.NewMap(10, 10)
		boost := salience.NewMap(10, 10)
		boost.Set(1, 1, outside) // outside the crop below
		boost.Set(6, 6, 1)
		s := NewScorer(edge, sat, skin, boost, Weights{Boost: 1}, -0.5)
		return s.Score(Candidate{X: 5, Y: 5, W: 4, H: 4})
	}
	without := mk(0)
	with := mk(3)
	if with.Boost != without.Boost || with.Total != without.Total {
		t.Errorf("boost weight outside the crop changed the score: %v vs %v", with, without)
	}
}

func TestOptimizeTieBreak(t *testing.T) {
	cands, err := Generate(320, 240, defaultParams(40, 30))
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	// All-zero maps: every candidate scores zero, so the first-seen rule
	// must pick index 0.
	s := testScorer(320, 240, nil)
	c, _, err := Optimize(cands, s)
	if err != nil {
		t.Fatalf("Optimize failed: %v", err)
	}
	if c.Index != 0 {
		t.Errorf("tie resolved to index %d, want 0", c.Index)
	}
}

func TestOptimizeParallelMatchesSerial(t *testing.T) {
	cands, err := Generate(320, 240, defaultParams(40, 30))
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	s := testScorer(320, 240, func(m *salience.Map) {
		for y := 60; y < 120; y++ {
			for x := 200; x < 260; x++ {
				m.Set(x, y, 1)
			}
		}
	})

	serial, serialScore, err := optimize(cands, s, 1)
	if err != nil {
		t.Fatalf("serial optimize failed: %v", err)
	}
	for _, workers := range []int{2, 4, 13} {
		parallel, parallelScore, err := optimize(cands, s, workers)
		if err != nil {
			t.Fatalf("optimize with %d workers failed: %v", workers, err)
		}
		if parallel != serial || parallelScore != serialScore {
			t.Errorf("%d workers picked %v (%g), serial picked %v (%g)",
				workers, parallel, parallelScore.Total, serial, serialScore.Total)
		}
	}
}

func TestOptimizeUnevenWorkerSplit(t *testing.T) {
	// Candidate counts that do not divide evenly across workers leave
	// the last worker with a short or empty range; it must never index
	// past the candidate list.
	s := testScorer(64, 64, func(m *salience.Map) {
		for y := 20; y < 44; y++ {
			for x := 20; x < 44; x++ {
				m.Set(x, y, 1)
			}
		}
	})
	for _, n := range []int{1, 2, 3, 5, 7, 11} {
		cands := make([]Candidate, n)
		for i := range cands {
			cands[i] = Candidate{Index: i, X: i * 4, Y: i * 4, W: 24, H: 24}
		}
		serial, serialScore, err := optimize(cands, s, 1)
		if err != nil {
			t.Fatalf("serial optimize of %d candidates failed: %v", n, err)
		}
		for workers := 2; workers <= n+2; workers++ {
			got, gotScore, err := optimize(cands, s, workers)
			if err != nil {
				t.Fatalf("%d candidates / %d workers failed: %v", n, workers, err)
			}
			if got != serial || gotScore != serialScore {
				t.Errorf("%d candidates / %d workers picked %v, serial picked %v", n, workers, got, serial)
			}
		}
	}
}

func TestOptimizeEmpty(t *testing.T) {
	s := testScorer(10, 10, nil)
	if _, _, err := Optimize(nil, s); !errors.Is(err, ErrNoCandidates) {
		t.Errorf("expected ErrNoCandidates, got %v", err)
	}
}

func TestScoreAllOrder(t *testing.T) {
	cands, err := Generate(160, 120, defaultParams(40, 30))
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	s := testScorer(160, 120, nil)
	scored := s.ScoreAll(cands)
	if len(scored) != len(cands) {
		t.Fatalf("ScoreAll returned %d entries for %d candidates", len(scored), len(cands))
	}
	for i, sc := range scored {
		if sc.Candidate != cands[i] {
			t.Fatalf("ScoreAll reordered candidates at %d", i)
		}
	}
}

func TestMapToSourceIdentity(t *testing.T) {
	src := image.Rect(0, 0, 640, 480)
	c := Candidate{X: 10, Y: 20, W: 100, H: 80}
	got := MapToSource(c, 1.0, src)
	want := image.Rect(10, 20, 110, 100)
	if got != want {
		t.Errorf("identity mapping = %v, want %v", got, want)
	}
}

func TestMapToSourceScales(t *testing.T) {
	src := image.Rect(0, 0, 2000, 1000)
	c := Candidate{X: 100, Y: 50, W: 200, H: 100}
	got := MapToSource(c, 0.5, src)
	want := image.Rect(200, 100, 600, 300)
	if got != want {
		t.Errorf("scaled mapping = %v, want %v", got, want)
	}
	if !got.In(src) {
		t.Errorf("mapped rectangle %v escapes source bounds", got)
	}
}

func TestMapToSourceClamps(t *testing.T) {
	src := image.Rect(0, 0, 1000, 500)
	// A candidate flush against the working edge can round past the
	// source edge; the result must still be inside.
	c := Candidate{X: 233, Y: 83, W: 100, H: 84}
	got := MapToSource(c, 1.0/3.0, src)
	if !got.In(src) {
		t.Errorf("mapped rectangle %v escapes source bounds", got)
	}
	if got.Empty() {
		t.Error("mapped rectangle is empty")
	}
}
