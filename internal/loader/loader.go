package loader

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"csvdeck/internal/dataset"
	"csvdeck/internal/logging"
	"csvdeck/internal/manifest"
)

// State is the coarse status of the current dataset.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateReady
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateError:
		return "error"
	}
	return "unknown"
}

// Request is one selection. Token grows with every selection; only the
// result carrying the latest token is ever applied.
type Request struct {
	Token      uint64
	ID         uuid.UUID
	Descriptor manifest.Descriptor
	Issued     time.Time
}

// Result is the outcome of running a Request.
type Result struct {
	Request Request
	Rows    *dataset.RowSet
	Err     error
}

// Snapshot is the state observed by the view.
type Snapshot struct {
	State      State
	Token      uint64
	Descriptor *manifest.Descriptor
	Rows       *dataset.RowSet
	Message    string
}

// Loader fetches and parses datasets and keeps the load state. Retrieval
// of a superseded selection is never cancelled; its result is dropped
// when it arrives.
type Loader struct {
	fetcher Fetcher
	logger  *slog.Logger

	mu    sync.Mutex
	token uint64
	snap  Snapshot
}

func New(fetcher Fetcher, logger *slog.Logger) *Loader {
	return &Loader{
		fetcher: fetcher,
		logger:  logging.OrDefault(logger).With("component", "loader"),
	}
}

// Load fetches and parses one dataset. It is all-or-nothing: on any error
// no rows are returned.
func (l *Loader) Load(ctx context.Context, desc manifest.Descriptor) (*dataset.RowSet, error) {
	body, err := l.fetcher.Fetch(ctx, desc.RelativePath)
	if err != nil {
		return nil, err
	}
	rs, err := dataset.ParseBytes(body)
	if err != nil {
		return nil, err
	}
	return rs, nil
}

// Select records a new selection and moves to loading. Rows of the last
// successful load stay visible until the new result is applied.
func (l *Loader) Select(desc manifest.Descriptor) Request {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.token++
	d := desc
	l.snap.State = StateLoading
	l.snap.Token = l.token
	l.snap.Descriptor = &d
	l.snap.Message = ""

	req := Request{Token: l.token, ID: uuid.New(), Descriptor: desc, Issued: time.Now()}
	l.logger.Debug("dataset selected", "file", desc.FileName, "token", req.Token, "load_id", req.ID)
	return req
}

// Run performs the retrieval for req without touching loader state.
func (l *Loader) Run(ctx context.Context, req Request) Result {
	rs, err := l.Load(ctx, req.Descriptor)
	return Result{Request: req, Rows: rs, Err: err}
}

// Apply commits res if it belongs to the latest selection and reports
// whether it did. A failure clears the rows.
func (l *Loader) Apply(res Result) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	req := res.Request
	if req.Token != l.token {
		l.logger.Debug("dropping stale result", "file", req.Descriptor.FileName,
			"token", req.Token, "latest", l.token, "load_id", req.ID)
		return false
	}

	elapsed := time.Since(req.Issued)
	if res.Err != nil {
		l.snap.State = StateError
		l.snap.Rows = nil
		l.snap.Message = res.Err.Error()
		l.logger.Warn("dataset load failed", "file", req.Descriptor.FileName,
			"load_id", req.ID, "error", res.Err, "elapsed", elapsed)
		return true
	}

	l.snap.State = StateReady
	l.snap.Rows = res.Rows
	l.snap.Message = ""
	l.logger.Info("dataset loaded", "file", req.Descriptor.FileName,
		"rows", res.Rows.Len(), "load_id", req.ID, "elapsed", elapsed)
	return true
}

// Start selects desc and loads it in the background. done, when not nil,
// is called once with whether the result was applied and the state after.
func (l *Loader) Start(ctx context.Context, desc manifest.Descriptor, done func(applied bool, s Snapshot)) Request {
	req := l.Select(desc)
	go func() {
		applied := l.Apply(l.Run(ctx, req))
		if done != nil {
			done(applied, l.Snapshot())
		}
	}()
	return req
}

// Snapshot returns a copy of the current state.
func (l *Loader) Snapshot() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snap
}

// Latest is the token of the most recent selection.
func (l *Loader) Latest() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.token
}
