package hotword

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"sync"
	"time"

	"github.com/Souzou03/mofel/pkg/refstore"
)

// fakeModel embeds every frame as a fixed vector and scores by looking up
// the first reference value, which tests use as a detector id.
type fakeModel struct {
	mu     sync.Mutex
	kind   ModelKind
	scores map[float32]float32
	embeds int
	err    error
}

func newFakeModel(scores map[float32]float32) *fakeModel {
	return &fakeModel{kind: KindResnet50ArcLoss, scores: scores}
}

func (m *fakeModel) Kind() ModelKind { return m.kind }

func (m *fakeModel) AudioToVector(frame []int16) ([]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.embeds++
	if m.err != nil {
		return nil, m.err
	}
	return []float32{1, 0, 0}, nil
}

func (m *fakeModel) ScoreVector(_ []float32, refs [][]float32) float32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.scores[refs[0][0]]
}

func (m *fakeModel) setScore(id, score float32) {
	m.mu.Lock()
	m.scores[id] = score
	m.mu.Unlock()
}

func (m *fakeModel) embedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.embeds
}

// testProfile returns a valid profile whose first value is id.
func testProfile(id float32) *Profile {
	return &Profile{
		Embeddings: [][]float32{{id, 0, 0}, {id, 1, 0}, {id, 0, 1}, {id, 1, 1}},
		ModelKind:  KindResnet50ArcLoss,
	}
}

// fakeClock is a manually advanced time source.
type fakeClock struct {
	t time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

// speechFrame is one second of audio that opens quietly and then gets
// loud, as a spoken word does.
func speechFrame() []int16 {
	f := make([]int16, SampleRate)
	for i := range f {
		amp := int16(10000)
		if i < onsetSamples {
			amp = 100
		}
		if i%2 == 0 {
			f[i] = amp
		} else {
			f[i] = -amp
		}
	}
	return f
}

// abruptFrame is one second of audio that is loud from the first sample.
func abruptFrame() []int16 {
	f := speechFrame()
	f[0] = 10000
	return f
}

// memStore is an in-memory refstore.Store.
type memStore struct {
	files   map[string][]byte
	openErr error
}

var _ refstore.Store = (*memStore)(nil)

func (s *memStore) Open(_ context.Context, name string) (io.ReadCloser, error) {
	if s.openErr != nil {
		return nil, fmt.Errorf("open %s: %w", name, s.openErr)
	}
	data, ok := s.files[name]
	if !ok {
		return nil, fmt.Errorf("open %s: %w", name, fs.ErrNotExist)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *memStore) Create(context.Context, string) (io.WriteCloser, error) {
	return nil, errors.New("read-only")
}

func (s *memStore) Exists(_ context.Context, name string) (bool, error) {
	_, ok := s.files[name]
	return ok, nil
}
