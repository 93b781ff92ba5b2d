package hotword

import (
	"errors"
	"testing"
	"time"
)

func TestNewMulti(t *testing.T) {
	model := newFakeModel(nil)
	d1 := newTestDetector(t, model, 1)
	d2 := newTestDetector(t, model, 2)

	if _, err := NewMulti(model); !errors.Is(err, ErrTooFewDetectors) {
		t.Errorf("no detectors: err = %v, want ErrTooFewDetectors", err)
	}
	if _, err := NewMulti(model, d1); !errors.Is(err, ErrTooFewDetectors) {
		t.Errorf("one detector: err = %v, want ErrTooFewDetectors", err)
	}
	if _, err := NewMulti(model, d1, nil); !errors.Is(err, ErrInvalidDetector) {
		t.Errorf("nil detector: err = %v, want ErrInvalidDetector", err)
	}
	if _, err := NewMulti(nil, d1, d2); !errors.Is(err, ErrConfiguration) {
		t.Errorf("nil model: err = %v, want a configuration error", err)
	}
	m, err := NewMulti(model, d1, d2)
	if err != nil {
		t.Fatalf("two detectors: %v", err)
	}
	if got := m.Labels(); len(got) != 2 {
		t.Errorf("Labels() = %v", got)
	}
}

func TestFindBestMatch(t *testing.T) {
	model := newFakeModel(map[float32]float32{1: 0.65, 2: 0.85})
	d1 := newTestDetector(t, model, 1, WithThreshold(0.7))
	d2 := newTestDetector(t, model, 2, WithThreshold(0.7))
	m, err := NewMulti(model, d1, d2)
	if err != nil {
		t.Fatal(err)
	}

	best, score, err := m.FindBestMatch(speechFrame(), false)
	if err != nil {
		t.Fatal(err)
	}
	if best != d2 || score != 0.85 {
		t.Fatalf("best = %v, %v; want %v, 0.85", best, score, d2)
	}
	if model.embedCount() != 1 {
		t.Fatalf("embeddings computed = %d, want 1", model.embedCount())
	}
}

func TestFindBestMatchNone(t *testing.T) {
	model := newFakeModel(map[float32]float32{1: 0.5, 2: 0.69})
	d1 := newTestDetector(t, model, 1, WithThreshold(0.7))
	d2 := newTestDetector(t, model, 2, WithThreshold(0.7))
	m, err := NewMulti(model, d1, d2)
	if err != nil {
		t.Fatal(err)
	}

	best, score, err := m.FindBestMatch(speechFrame(), false)
	if err != nil {
		t.Fatal(err)
	}
	if best != nil || score != 0 {
		t.Fatalf("best = %v, %v; want nil, 0", best, score)
	}
}

func TestFindBestMatchTie(t *testing.T) {
	model := newFakeModel(map[float32]float32{1: 0.8, 2: 0.8})
	d1 := newTestDetector(t, model, 1, WithThreshold(0.7))
	d2 := newTestDetector(t, model, 2, WithThreshold(0.7))
	m, err := NewMulti(model, d1, d2)
	if err != nil {
		t.Fatal(err)
	}
	best, _, err := m.FindBestMatch(speechFrame(), false)
	if err != nil {
		t.Fatal(err)
	}
	if best != d1 {
		t.Fatalf("tie went to %v, want the first detector", best)
	}
}

func TestFindBestMatchPerDetectorThreshold(t *testing.T) {
	// d2 scores higher but misses its own stricter threshold.
	model := newFakeModel(map[float32]float32{1: 0.75, 2: 0.9})
	d1 := newTestDetector(t, model, 1, WithThreshold(0.7))
	d2 := newTestDetector(t, model, 2, WithThreshold(0.95))
	m, err := NewMulti(model, d1, d2)
	if err != nil {
		t.Fatal(err)
	}
	best, score, err := m.FindBestMatch(speechFrame(), false)
	if err != nil {
		t.Fatal(err)
	}
	if best != d1 || score != 0.75 {
		t.Fatalf("best = %v, %v; want %v, 0.75", best, score, d1)
	}
}

func TestFindBestMatchCooldown(t *testing.T) {
	model := newFakeModel(map[float32]float32{1: 0.9, 2: 0.8})
	clock := newFakeClock()
	d1 := newTestDetector(t, model, 1, WithThreshold(0.7), WithRelaxation(2*time.Second), WithClock(clock.Now))
	d2 := newTestDetector(t, model, 2, WithThreshold(0.7), WithRelaxation(2*time.Second), WithClock(clock.Now))
	m, err := NewMulti(model, d1, d2)
	if err != nil {
		t.Fatal(err)
	}

	best, _, _ := m.FindBestMatch(speechFrame(), false)
	if best != d1 {
		t.Fatalf("first frame: best = %v, want %v", best, d1)
	}

	// Both detectors fired on the first frame and are cooling down.
	clock.Advance(500 * time.Millisecond)
	best, score, _ := m.FindBestMatch(speechFrame(), false)
	if best != nil || score != 0 {
		t.Fatalf("cooling: best = %v, %v; want nil, 0", best, score)
	}

	clock.Advance(2 * time.Second)
	best, _, _ = m.FindBestMatch(speechFrame(), false)
	if best != d1 {
		t.Fatalf("after cooldown: best = %v, want %v", best, d1)
	}
}

func TestFindBestMatchNoGuard(t *testing.T) {
	model := newFakeModel(map[float32]float32{1: 0.65, 2: 0.85})
	d1 := newTestDetector(t, model, 1, WithThreshold(0.7), WithContinuous(false))
	d2 := newTestDetector(t, model, 2, WithThreshold(0.7), WithContinuous(false))
	m, err := NewMulti(model, d1, d2)
	if err != nil {
		t.Fatal(err)
	}

	// A window that opens loud, e.g. a hotword begun in the previous slide.
	for i, unsafe := range []bool{false, true} {
		best, score, err := m.FindBestMatch(abruptFrame(), unsafe)
		if err != nil {
			t.Fatal(err)
		}
		if best != d2 || score != 0.85 {
			t.Fatalf("unsafe=%v: best = %v, score = %v, want d2 0.85", unsafe, best, score)
		}
		if got := model.embedCount(); got != i+1 {
			t.Fatalf("unsafe=%v: embedCount = %d, want %d", unsafe, got, i+1)
		}
	}

	matches, err := m.FindAllMatches(abruptFrame(), false)
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 1 || matches[0].Detector != d2 {
		t.Fatalf("matches = %+v, want d2 only", matches)
	}
	if got := model.embedCount(); got != 3 {
		t.Fatalf("embedCount = %d, want 3", got)
	}
}

func TestFindBestMatchModelError(t *testing.T) {
	model := newFakeModel(nil)
	d1 := newTestDetector(t, model, 1)
	d2 := newTestDetector(t, model, 2)
	m, err := NewMulti(model, d1, d2)
	if err != nil {
		t.Fatal(err)
	}
	model.err = errors.New("inference failed")
	if _, _, err := m.FindBestMatch(speechFrame(), false); err == nil {
		t.Fatal("expected error")
	}
	if _, err := m.FindAllMatches(speechFrame(), false); err == nil {
		t.Fatal("expected error")
	}
}

func TestFindAllMatches(t *testing.T) {
	model := newFakeModel(map[float32]float32{1: 0.9, 2: 0.95, 3: 0.72, 4: 0.4})
	var ds []*Detector
	for _, id := range []float32{1, 2, 3, 4} {
		ds = append(ds, newTestDetector(t, model, id, WithThreshold(0.7)))
	}
	m, err := NewMulti(model, ds...)
	if err != nil {
		t.Fatal(err)
	}

	matches, err := m.FindAllMatches(speechFrame(), false)
	if err != nil {
		t.Fatal(err)
	}
	want := []struct {
		d     *Detector
		score float32
	}{
		{ds[1], 0.95},
		{ds[0], 0.9},
		{ds[2], 0.72},
	}
	if len(matches) != len(want) {
		t.Fatalf("got %d matches, want %d", len(matches), len(want))
	}
	for i, w := range want {
		if matches[i].Detector != w.d || matches[i].Score != w.score {
			t.Errorf("match %d = (%v, %v), want (%v, %v)", i, matches[i].Detector, matches[i].Score, w.d, w.score)
		}
	}
	if model.embedCount() != 1 {
		t.Fatalf("embeddings computed = %d, want 1", model.embedCount())
	}
}

func TestFindAllMatchesStableTies(t *testing.T) {
	model := newFakeModel(map[float32]float32{1: 0.8, 2: 0.9, 3: 0.8})
	d1 := newTestDetector(t, model, 1, WithThreshold(0.7))
	d2 := newTestDetector(t, model, 2, WithThreshold(0.7))
	d3 := newTestDetector(t, model, 3, WithThreshold(0.7))
	m, err := NewMulti(model, d1, d2, d3)
	if err != nil {
		t.Fatal(err)
	}
	matches, err := m.FindAllMatches(speechFrame(), false)
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 3 || matches[0].Detector != d2 || matches[1].Detector != d1 || matches[2].Detector != d3 {
		t.Fatalf("unexpected order: %+v", matches)
	}
}

func TestFindAllMatchesInclusiveThreshold(t *testing.T) {
	model := newFakeModel(map[float32]float32{1: 0.7, 2: 0.69})
	d1 := newTestDetector(t, model, 1, WithThreshold(0.7))
	d2 := newTestDetector(t, model, 2, WithThreshold(0.7))
	m, err := NewMulti(model, d1, d2)
	if err != nil {
		t.Fatal(err)
	}
	matches, err := m.FindAllMatches(speechFrame(), false)
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 1 || matches[0].Detector != d1 {
		t.Fatalf("matches = %+v, want only d1", matches)
	}
}

func TestFindAllMatchesNone(t *testing.T) {
	model := newFakeModel(map[float32]float32{1: 0.1, 2: 0.2})
	d1 := newTestDetector(t, model, 1, WithThreshold(0.7))
	d2 := newTestDetector(t, model, 2, WithThreshold(0.7))
	m, err := NewMulti(model, d1, d2)
	if err != nil {
		t.Fatal(err)
	}
	matches, err := m.FindAllMatches(speechFrame(), false)
	if err != nil || len(matches) != 0 {
		t.Fatalf("matches = %+v, %v; want none", matches, err)
	}
}
