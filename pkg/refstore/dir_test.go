package refstore

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

func TestDirCreateAndOpen(t *testing.T) {
	d, err := NewDir(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	const data = `{"embeddings":[],"model_type":"resnet_50_arc"}`
	w, err := d.Create(ctx, "mofel/model/mofel_ref.json")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := io.WriteString(w, data); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	r, err := d.Open(ctx, "mofel/model/mofel_ref.json")
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != data {
		t.Fatalf("got %q, want %q", got, data)
	}
}

func TestDirOpenMissing(t *testing.T) {
	d, err := NewDir(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	_, err = d.Open(context.Background(), "missing.json")
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected fs.ErrNotExist, got %v", err)
	}
}

func TestDirExists(t *testing.T) {
	root := t.TempDir()
	d, err := NewDir(root)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	if ok, err := d.Exists(ctx, "a.json"); err != nil || ok {
		t.Fatalf("Exists(missing) = %v, %v; want false, nil", ok, err)
	}
	if err := os.WriteFile(filepath.Join(root, "a.json"), []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}
	if ok, err := d.Exists(ctx, "a.json"); err != nil || !ok {
		t.Fatalf("Exists(present) = %v, %v; want true, nil", ok, err)
	}
	if err := os.Mkdir(filepath.Join(root, "sub"), 0o755); err != nil {
		t.Fatal(err)
	}
	if ok, _ := d.Exists(ctx, "sub"); ok {
		t.Fatal("a directory is not a reference file")
	}
}

func TestExt(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"ref.json", "json"},
		{"a/b/REF.YAML", "yaml"},
		{"ref.msgpack", "msgpack"},
		{"noext", ""},
	}
	for _, tt := range tests {
		if got := Ext(tt.name); got != tt.want {
			t.Errorf("Ext(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestParseLocation(t *testing.T) {
	tests := []struct {
		in      string
		want    Location
		wantErr bool
	}{
		{in: "./mofel/model/mofel_ref.json", want: Location{Name: "./mofel/model/mofel_ref.json"}},
		{in: "s3://refs/hotwords/stop.json", want: Location{Bucket: "refs", Name: "hotwords/stop.json"}},
		{in: "s3://refs", wantErr: true},
		{in: "s3:///key.json", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseLocation(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseLocation(%q): expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseLocation(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseLocation(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
		if got.String() != tt.in && got.IsS3() {
			t.Errorf("String() = %q, want %q", got.String(), tt.in)
		}
	}
}
