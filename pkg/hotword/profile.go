package hotword

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"

	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"

	"github.com/Souzou03/mofel/pkg/refstore"
)

// MinReferenceSamples is the minimum number of reference embeddings a
// profile must contain.
const MinReferenceSamples = 4

// Profile is the set of reference embeddings of one hotword.
type Profile struct {
	// Embeddings are the reference vectors, all of the same length.
	Embeddings [][]float32

	// ModelKind is the model variant that produced Embeddings.
	ModelKind ModelKind
}

// Dimension returns the embedding length, or 0 for an empty profile.
func (p *Profile) Dimension() int {
	if len(p.Embeddings) == 0 {
		return 0
	}
	return len(p.Embeddings[0])
}

// referenceFile is the on-disk shape of a reference file.
type referenceFile struct {
	Embeddings [][]float32 `json:"embeddings" yaml:"embeddings" msgpack:"embeddings"`
	ModelType  string      `json:"model_type" yaml:"model_type" msgpack:"model_type"`
}

// LoadProfile reads the named reference file from store and validates it
// against model. Every failure is a *ConfigError.
//
// The file format follows the extension: .json, .yaml/.yml or
// .msgpack/.mpk. Profiles are not cached; each call reads the file.
func LoadProfile(ctx context.Context, store refstore.Store, name string, model Model) (*Profile, error) {
	rc, err := store.Open(ctx, name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, configError(ErrReferenceNotFound, name, nil)
		}
		return nil, configError(ErrReferenceUnreadable, name, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, configError(ErrReferenceUnreadable, name, err)
	}
	var rf referenceFile
	if err := decodeReference(refstore.Ext(name), data, &rf); err != nil {
		return nil, configError(ErrMalformedReference, name, err)
	}
	return newProfile(name, rf, model)
}

// ProfileFromEmbeddings builds a Profile in memory, applying the same
// validation as LoadProfile. It is used when references are produced at
// runtime rather than read from a file.
func ProfileFromEmbeddings(embeddings [][]float32, modelType string, model Model) (*Profile, error) {
	return newProfile("", referenceFile{Embeddings: embeddings, ModelType: modelType}, model)
}

func newProfile(name string, rf referenceFile, model Model) (*Profile, error) {
	if len(rf.Embeddings) < MinReferenceSamples {
		return nil, configError(ErrInsufficientSamples,
			fmt.Sprintf("%s: have %d, need at least %d", name, len(rf.Embeddings), MinReferenceSamples), nil)
	}
	dim := len(rf.Embeddings[0])
	for i, e := range rf.Embeddings {
		if len(e) == 0 || len(e) != dim {
			return nil, configError(ErrMalformedReference,
				fmt.Sprintf("%s: embedding %d has length %d, want %d", name, i, len(e), dim), nil)
		}
	}
	kind, err := ParseModelKind(rf.ModelType)
	if err != nil || model == nil || kind != model.Kind() {
		got := "<nil>"
		if model != nil {
			got = model.Kind().String()
		}
		return nil, configError(ErrModelMismatch,
			fmt.Sprintf("%s: reference %q, model %s", name, rf.ModelType, got), nil)
	}
	return &Profile{Embeddings: rf.Embeddings, ModelKind: kind}, nil
}

func decodeReference(ext string, data []byte, rf *referenceFile) error {
	switch ext {
	case "json", "":
		return json.Unmarshal(data, rf)
	case "yaml", "yml":
		return yaml.Unmarshal(data, rf)
	case "msgpack", "mpk":
		return msgpack.Unmarshal(data, rf)
	default:
		return fmt.Errorf("unsupported reference format %q", ext)
	}
}

// EncodeProfile writes p in the format selected by ext ("json", "yaml",
// "msgpack", ...).
func EncodeProfile(w io.Writer, ext string, p *Profile) error {
	rf := referenceFile{Embeddings: p.Embeddings, ModelType: p.ModelKind.String()}
	var (
		data []byte
		err  error
	)
	switch ext {
	case "json", "":
		data, err = json.Marshal(rf)
	case "yaml", "yml":
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err = enc.Encode(rf); err == nil {
			err = enc.Close()
		}
		data = buf.Bytes()
	case "msgpack", "mpk":
		data, err = msgpack.Marshal(rf)
	default:
		return fmt.Errorf("hotword: unsupported reference format %q", ext)
	}
	if err != nil {
		return fmt.Errorf("hotword: encode profile: %w", err)
	}
	_, err = w.Write(data)
	return err
}
