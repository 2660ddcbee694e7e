package resolve

import (
	"context"
	"errors"
	"fmt"
	"time"

	"booklib/internal/record"

	"go.uber.org/zap"
)

// ErrNoSources is returned when a request carries no descriptors.
var ErrNoSources = errors.New("no sources supplied")

// ErrNoMatch marks a source whose collection did not contain the requested key.
var ErrNoMatch = errors.New("no record matches key")

// ErrEmpty marks a source that returned an empty collection when empty is not allowed.
var ErrEmpty = errors.New("empty collection")

// SourceDefault names the caller-supplied default in a Result.
const SourceDefault = "default"

// DefaultTimeout bounds a single fetch attempt when the resolver is built without one.
const DefaultTimeout = 3 * time.Second

// Fetcher retrieves the raw payload for a query.
type Fetcher interface {
	Fetch(ctx context.Context, q Query) ([]byte, error)
}

// FetchFunc adapts a function to the Fetcher interface.
type FetchFunc func(ctx context.Context, q Query) ([]byte, error)

func (f FetchFunc) Fetch(ctx context.Context, q Query) ([]byte, error) {
	return f(ctx, q)
}

// Descriptor is one ordered candidate for satisfying a query.
type Descriptor struct {
	Name string
	// Authoritative marks the remote API. Results from any other source are degraded.
	Authoritative bool
	Fetcher       Fetcher
	Normalize     record.Normalizer
}

// Selector picks the record for a single-record query out of a normalized collection.
type Selector func(records []record.Record, key string) (record.Record, bool)

// Request is one resolution: a query, its ordered sources and the fallback value.
type Request struct {
	Query   Query
	Sources []Descriptor
	// AllowEmpty accepts an empty collection as a successful answer.
	AllowEmpty bool
	// Default populates the terminal result when every source fails.
	Default []record.Record
	// Select overrides the id lookup used for single-record queries.
	Select Selector
}

// Attempt records why a source was abandoned.
type Attempt struct {
	Source string
	Reason string
	// Err is the failure itself, for errors.Is checks by callers.
	Err error
}

// Result is the outcome of a resolution. Exactly one is produced per request.
type Result struct {
	Query   Query
	Records []record.Record
	// Record is set for single-record queries.
	Record   record.Record
	Source   string
	Degraded bool
	Attempts []Attempt
}

// Found reports whether a single-record query produced a record.
func (r Result) Found() bool {
	return r.Record != nil
}

// Resolver tries descriptors strictly in order until one yields usable data.
type Resolver struct {
	logger  *zap.Logger
	timeout time.Duration
}

// New creates a resolver. A non-positive timeout falls back to DefaultTimeout.
func New(logger *zap.Logger, timeout time.Duration) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Resolver{logger: logger, timeout: timeout}
}

// Resolve produces the Result for req. Ordinary fetch failures never surface as
// errors; they advance the chain. An error is returned only for an invalid
// request or a cancelled parent context, and even then the Result carries the
// default value.
func (r *Resolver) Resolve(ctx context.Context, req Request) (Result, error) {
	if err := req.Query.Validate(); err != nil {
		return r.terminal(req, nil), err
	}
	if len(req.Sources) == 0 {
		return r.terminal(req, nil), ErrNoSources
	}
	for i, d := range req.Sources {
		if d.Fetcher == nil || d.Normalize == nil {
			return r.terminal(req, nil), fmt.Errorf("source %d (%s): missing fetcher or normalizer", i, d.Name)
		}
	}

	attempts := make([]Attempt, 0, len(req.Sources))
	for _, d := range req.Sources {
		if err := ctx.Err(); err != nil {
			return r.terminal(req, attempts), err
		}

		res, err := r.try(ctx, req, d)
		if err == nil {
			res.Attempts = attempts
			if res.Degraded {
				r.logger.Info("resolved from fallback source",
					zap.String("query", req.Query.String()),
					zap.String("source", d.Name),
					zap.Int("failed_sources", len(attempts)))
			}
			return res, nil
		}

		r.logger.Debug("source failed",
			zap.String("query", req.Query.String()),
			zap.String("source", d.Name),
			zap.Error(err))
		attempts = append(attempts, Attempt{Source: d.Name, Reason: err.Error(), Err: err})
	}

	if err := ctx.Err(); err != nil {
		return r.terminal(req, attempts), err
	}

	r.logger.Warn("all sources failed, using default",
		zap.String("query", req.Query.String()),
		zap.Int("failed_sources", len(attempts)))
	return r.terminal(req, attempts), nil
}

func (r *Resolver) try(ctx context.Context, req Request, d Descriptor) (Result, error) {
	raw, err := r.fetch(ctx, req.Query, d.Fetcher)
	if err != nil {
		return Result{}, err
	}

	records, err := d.Normalize(raw)
	if err != nil {
		return Result{}, err
	}

	res := Result{
		Query:    req.Query,
		Source:   d.Name,
		Degraded: !d.Authoritative,
	}

	if req.Query.Kind.Single() {
		rec, ok := r.selector(req)(records, req.Query.Key)
		if !ok {
			return Result{}, fmt.Errorf("%w %q", ErrNoMatch, req.Query.Key)
		}
		res.Record = rec
		res.Records = []record.Record{rec}
		return res, nil
	}

	if len(records) == 0 && !req.AllowEmpty {
		return Result{}, ErrEmpty
	}
	res.Records = records
	return res, nil
}

// fetch runs one attempt under the per-attempt timeout. A fetcher that ignores
// its context is abandoned when the deadline passes.
func (r *Resolver) fetch(ctx context.Context, q Query, f Fetcher) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	type outcome struct {
		raw []byte
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		raw, err := f.Fetch(ctx, q)
		done <- outcome{raw: raw, err: err}
	}()

	select {
	case out := <-done:
		return out.raw, out.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (r *Resolver) selector(req Request) Selector {
	if req.Select != nil {
		return req.Select
	}
	return func(records []record.Record, key string) (record.Record, bool) {
		return record.FindByID(records, key)
	}
}

func (r *Resolver) terminal(req Request, attempts []Attempt) Result {
	res := Result{
		Query:    req.Query,
		Records:  cloneAll(req.Default),
		Source:   SourceDefault,
		Degraded: true,
		Attempts: attempts,
	}
	if res.Records == nil {
		res.Records = []record.Record{}
	}
	if req.Query.Kind.Single() && req.Query.Key != "" {
		if rec, ok := r.selector(req)(res.Records, req.Query.Key); ok {
			res.Record = rec
		}
	}
	return res
}

func cloneAll(in []record.Record) []record.Record {
	if in == nil {
		return nil
	}
	out := make([]record.Record, len(in))
	for i, r := range in {
		out[i] = r.Clone()
	}
	return out
}
