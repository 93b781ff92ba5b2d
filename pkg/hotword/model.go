package hotword

import "fmt"

// ModelKind identifies the embedding model variant that produced a set of
// reference vectors. Reference files declare it as the "model_type" string.
type ModelKind int

const (
	// KindUnknown is the zero value; no model reports it and no reference
	// file may declare it.
	KindUnknown ModelKind = iota

	// KindResnet50ArcLoss is the ResNet-50 ArcFace-loss embedding model
	// ("resnet_50_arc").
	KindResnet50ArcLoss

	// KindFirstIterationSiamese is the first-generation siamese embedding
	// model ("first_iteration_siamese").
	KindFirstIterationSiamese
)

var kindNames = map[ModelKind]string{
	KindResnet50ArcLoss:       "resnet_50_arc",
	KindFirstIterationSiamese: "first_iteration_siamese",
}

func (k ModelKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("ModelKind(%d)", int(k))
}

// ParseModelKind maps a declared model_type tag to its ModelKind.
func ParseModelKind(s string) (ModelKind, error) {
	for k, name := range kindNames {
		if name == s {
			return k, nil
		}
	}
	return KindUnknown, fmt.Errorf("hotword: unknown model type %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (k ModelKind) MarshalText() ([]byte, error) {
	name, ok := kindNames[k]
	if !ok {
		return nil, fmt.Errorf("hotword: cannot marshal %s", k)
	}
	return []byte(name), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *ModelKind) UnmarshalText(b []byte) error {
	v, err := ParseModelKind(string(b))
	if err != nil {
		return err
	}
	*k = v
	return nil
}

// Model is the embedding model shared by all detectors of a stream.
//
// Frames are PCM16 samples at 16 kHz mono. The model owns shape validation:
// frames of the wrong length must fail inside AudioToVector.
//
// # Thread Safety
//
// Implementations must be safe for concurrent use; a single Model is shared
// read-only by every detector built on it.
type Model interface {
	// Kind reports which embedding model variant this is.
	Kind() ModelKind

	// AudioToVector converts a raw audio frame into an embedding.
	AudioToVector(frame []int16) ([]float32, error)

	// ScoreVector returns the similarity of vec to the reference set,
	// effectively in [0, 1].
	ScoreVector(vec []float32, refs [][]float32) float32
}
