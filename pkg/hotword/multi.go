package hotword

import (
	"fmt"
	"slices"
)

// Match is one detector whose score met its threshold.
type Match struct {
	Detector *Detector
	Score    float32
}

// MultiDetector arbitrates between several detectors that share one
// embedding model. Each frame is embedded once and the embedding is scored
// by every detector.
//
// The model is assumed compatible with every detector's profile. The
// MultiDetector keeps no state of its own; cooldown lives in the
// detectors, so the same concurrency rules apply.
type MultiDetector struct {
	model     Model
	detectors []*Detector
}

// NewMulti creates a MultiDetector over at least two detectors.
func NewMulti(model Model, detectors ...*Detector) (*MultiDetector, error) {
	if model == nil {
		return nil, configError(ErrInvalidDetector, "nil model", nil)
	}
	if len(detectors) < 2 {
		return nil, configError(ErrTooFewDetectors, fmt.Sprintf("got %d", len(detectors)), nil)
	}
	for i, d := range detectors {
		if d == nil {
			return nil, configError(ErrInvalidDetector, fmt.Sprintf("element %d is nil", i), nil)
		}
	}
	return &MultiDetector{model: model, detectors: slices.Clone(detectors)}, nil
}

// Detectors returns the detectors in arbitration order.
func (m *MultiDetector) Detectors() []*Detector {
	return slices.Clone(m.detectors)
}

// Labels returns the hotword labels in arbitration order.
func (m *MultiDetector) Labels() []string {
	labels := make([]string, len(m.detectors))
	for i, d := range m.detectors {
		labels[i] = d.Label()
	}
	return labels
}

// FindBestMatch returns the detector with the highest score among those
// meeting their own threshold. The first detector wins a tie. If none
// qualifies it returns (nil, 0).
//
// The arbiter does not apply the frame guard: every frame is embedded
// exactly once. unsafe is accepted for parity with ScoreFrame.
func (m *MultiDetector) FindBestMatch(frame []int16, unsafe bool) (*Detector, float32, error) {
	vec, err := m.embed(frame)
	if err != nil {
		return nil, 0, err
	}

	var (
		best      *Detector
		bestScore float32
	)
	for _, d := range m.detectors {
		score := d.ScoreEmbedding(vec)
		if !d.Meets(score) {
			continue
		}
		if best == nil || score > bestScore {
			best, bestScore = d, score
		}
	}
	return best, bestScore, nil
}

// FindAllMatches returns every detector meeting its own threshold, ordered
// by score, highest first. Equal scores keep arbitration order. Like
// FindBestMatch it embeds the frame exactly once.
func (m *MultiDetector) FindAllMatches(frame []int16, unsafe bool) ([]Match, error) {
	vec, err := m.embed(frame)
	if err != nil {
		return nil, err
	}

	var matches []Match
	for _, d := range m.detectors {
		score := d.ScoreEmbedding(vec)
		if d.Meets(score) {
			matches = append(matches, Match{Detector: d, Score: score})
		}
	}
	slices.SortStableFunc(matches, func(a, b Match) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		}
		return 0
	})
	return matches, nil
}

func (m *MultiDetector) embed(frame []int16) ([]float32, error) {
	vec, err := m.model.AudioToVector(frame)
	if err != nil {
		return nil, fmt.Errorf("hotword: %w", err)
	}
	return vec, nil
}
