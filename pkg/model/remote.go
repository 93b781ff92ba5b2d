package model

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/Souzou03/mofel/pkg/audio/pcm"
	"github.com/Souzou03/mofel/pkg/hotword"
)

// DefaultTimeout bounds one round trip to the sidecar.
const DefaultTimeout = 5 * time.Second

var (
	// ErrEmptyFrame is returned for a frame with no samples.
	ErrEmptyFrame = errors.New("model: empty frame")

	// ErrRemote is wrapped by errors reported by the sidecar itself.
	ErrRemote = errors.New("model: sidecar error")
)

type request struct {
	ID         string `json:"id"`
	Model      string `json:"model"`
	SampleRate int    `json:"sample_rate"`
	Audio      string `json:"audio"`
}

type response struct {
	ID        string    `json:"id"`
	Embedding []float32 `json:"embedding,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// Remote is a [hotword.Model] served by an inference sidecar over a
// websocket. Requests are serialized on one connection, which is dialed on
// first use and redialed after any transport error.
type Remote struct {
	url     string
	kind    hotword.ModelKind
	header  http.Header
	timeout time.Duration
	dialer  *websocket.Dialer
	logger  *slog.Logger

	mu   sync.Mutex
	conn *websocket.Conn
}

var _ hotword.Model = (*Remote)(nil)

// RemoteOption configures a Remote.
type RemoteOption func(*Remote)

// WithHeader adds a header to the websocket handshake.
func WithHeader(key, value string) RemoteOption {
	return func(r *Remote) { r.header.Add(key, value) }
}

// WithTimeout sets the per-frame round-trip deadline (default 5s).
func WithTimeout(d time.Duration) RemoteOption {
	return func(r *Remote) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithDialer sets the websocket dialer.
func WithDialer(d *websocket.Dialer) RemoteOption {
	return func(r *Remote) {
		if d != nil {
			r.dialer = d
		}
	}
}

// WithLogger sets the logger used for connection diagnostics.
func WithLogger(l *slog.Logger) RemoteOption {
	return func(r *Remote) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewRemote creates a Remote for the sidecar at url (ws:// or wss://)
// serving the given model kind. No connection is made until the first
// frame.
func NewRemote(url string, kind hotword.ModelKind, opts ...RemoteOption) *Remote {
	r := &Remote{
		url:     url,
		kind:    kind,
		header:  http.Header{},
		timeout: DefaultTimeout,
		dialer:  websocket.DefaultDialer,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Kind returns the model kind the sidecar serves.
func (r *Remote) Kind() hotword.ModelKind {
	return r.kind
}

// URL returns the sidecar endpoint.
func (r *Remote) URL() string {
	return r.url
}

// AudioToVector sends frame to the sidecar and returns its embedding.
func (r *Remote) AudioToVector(frame []int16) ([]float32, error) {
	return r.Embed(context.Background(), frame)
}

// ScoreVector returns [Similarity] of vec to refs.
func (r *Remote) ScoreVector(vec []float32, refs [][]float32) float32 {
	return Similarity(vec, refs)
}

// Embed is AudioToVector with a context. The round trip ends at the
// earlier of the context deadline and the configured timeout.
func (r *Remote) Embed(ctx context.Context, frame []int16) ([]float32, error) {
	if len(frame) == 0 {
		return nil, ErrEmptyFrame
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	conn, err := r.connectLocked(ctx)
	if err != nil {
		return nil, err
	}

	deadline := time.Now().Add(r.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	req := request{
		ID:         uuid.NewString(),
		Model:      r.kind.String(),
		SampleRate: hotword.SampleRate,
		Audio:      base64.StdEncoding.EncodeToString(pcm.Bytes(frame)),
	}
	conn.SetWriteDeadline(deadline)
	if err := conn.WriteJSON(req); err != nil {
		r.dropLocked(err)
		return nil, fmt.Errorf("model: send frame: %w", err)
	}

	conn.SetReadDeadline(deadline)
	for {
		var resp response
		if err := conn.ReadJSON(&resp); err != nil {
			r.dropLocked(err)
			return nil, fmt.Errorf("model: read embedding: %w", err)
		}
		if resp.ID != req.ID {
			r.logger.Debug("model: discarding stale response", "id", resp.ID)
			continue
		}
		if resp.Error != "" {
			return nil, fmt.Errorf("%w: %s", ErrRemote, resp.Error)
		}
		if len(resp.Embedding) == 0 {
			return nil, fmt.Errorf("%w: empty embedding", ErrRemote)
		}
		return resp.Embedding, nil
	}
}

// Close closes the connection, if any. A later call redials.
func (r *Remote) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.conn == nil {
		return nil
	}
	err := r.conn.Close()
	r.conn = nil
	return err
}

func (r *Remote) connectLocked(ctx context.Context) (*websocket.Conn, error) {
	if r.conn != nil {
		return r.conn, nil
	}
	conn, resp, err := r.dialer.DialContext(ctx, r.url, r.header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("model: dial %s: %w (status %d)", r.url, err, resp.StatusCode)
		}
		return nil, fmt.Errorf("model: dial %s: %w", r.url, err)
	}
	r.logger.Debug("model: connected", "url", r.url, "kind", r.kind)
	r.conn = conn
	return conn, nil
}

func (r *Remote) dropLocked(cause error) {
	if r.conn == nil {
		return
	}
	r.logger.Debug("model: dropping connection", "url", r.url, "error", cause)
	r.conn.Close()
	r.conn = nil
}
