package refstore

import (
	"fmt"
	"net/url"
	"strings"
)

// Location is a parsed reference location: either a local path or an
// s3://bucket/key URI.
type Location struct {
	Bucket string // empty for local paths
	Name   string // object key or file path
}

// ParseLocation parses a reference location. Anything without an s3://
// scheme is treated as a local path.
func ParseLocation(s string) (Location, error) {
	if !strings.HasPrefix(s, "s3://") {
		return Location{Name: s}, nil
	}
	u, err := url.Parse(s)
	if err != nil {
		return Location{}, fmt.Errorf("refstore: parse %q: %w", s, err)
	}
	key := strings.TrimPrefix(u.Path, "/")
	if u.Host == "" || key == "" {
		return Location{}, fmt.Errorf("refstore: %q: want s3://bucket/key", s)
	}
	return Location{Bucket: u.Host, Name: key}, nil
}

// IsS3 reports whether the location names an object in a bucket.
func (l Location) IsS3() bool {
	return l.Bucket != ""
}

func (l Location) String() string {
	if l.IsS3() {
		return "s3://" + l.Bucket + "/" + l.Name
	}
	return l.Name
}
