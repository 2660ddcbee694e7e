package library

import (
	"context"
	"errors"

	"booklib/internal/config"
	"booklib/internal/record"
	"booklib/internal/resolve"
	"booklib/internal/source"

	"go.uber.org/zap"
)

var (
	// ErrUnavailable is returned by mutations when the deployment has no remote API.
	ErrUnavailable = errors.New("operation unavailable: no remote API configured")
	// ErrMutationFailed wraps a create/update/delete the remote API did not accept.
	ErrMutationFailed = errors.New("mutation failed")
	// ErrNotFound is returned when a mutation references a record the API does not have.
	ErrNotFound = errors.New("record not found")
	// ErrAlreadyInCart is returned when a book is added to the cart twice.
	ErrAlreadyInCart = errors.New("book already in cart")
)

// Source names reported in results.
const (
	SourceRemote   = "remote"
	SourceSnapshot = "snapshot"
	SourceSample   = "sample"
)

// Sources are the candidate data sources in priority order. Nil entries are skipped.
type Sources struct {
	Remote   Remote
	Snapshot resolve.Fetcher
	Sample   resolve.Fetcher
}

// Service resolves library data through the fallback chain and sends
// mutations to the remote API only.
type Service struct {
	resolver *resolve.Resolver
	sources  Sources
	logger   *zap.Logger
}

// NewService creates a library service.
func NewService(resolver *resolve.Resolver, sources Sources, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{resolver: resolver, sources: sources, logger: logger}
}

// NewFromConfig wires the remote API, snapshot file and built-in sample data
// according to cfg.
func NewFromConfig(cfg config.Config, logger *zap.Logger) *Service {
	var sources Sources
	if cfg.RemoteEnabled {
		sources.Remote = source.NewRemote(cfg.APIURL, cfg.UserAgent, cfg.RequestsPerSecond, cfg.FetchTimeout)
	}
	if cfg.SnapshotPath != "" {
		sources.Snapshot = source.NewSnapshot(cfg.SnapshotPath)
	}
	sources.Sample = source.NewEmbedded()
	return NewService(resolve.New(logger, cfg.FetchTimeout), sources, logger)
}

// RemoteAvailable reports whether mutations can be attempted.
func (s *Service) RemoteAvailable() bool {
	return s.sources.Remote != nil
}

func (s *Service) descriptors(collection string) []resolve.Descriptor {
	normalize := record.ForCollection(collection)

	var out []resolve.Descriptor
	if s.sources.Remote != nil {
		out = append(out, resolve.Descriptor{Name: SourceRemote, Authoritative: true, Fetcher: s.sources.Remote, Normalize: normalize})
	}
	if s.sources.Snapshot != nil {
		out = append(out, resolve.Descriptor{Name: SourceSnapshot, Fetcher: s.sources.Snapshot, Normalize: normalize})
	}
	if s.sources.Sample != nil {
		out = append(out, resolve.Descriptor{Name: SourceSample, Fetcher: s.sources.Sample, Normalize: normalize})
	}
	return out
}

func (s *Service) resolve(ctx context.Context, q resolve.Query) (resolve.Result, error) {
	return s.resolver.Resolve(ctx, resolve.Request{
		Query:      q,
		Sources:    s.descriptors(q.Kind.Collection()),
		AllowEmpty: !q.Kind.Single(),
	})
}

// Books lists the catalog.
func (s *Service) Books(ctx context.Context) (resolve.Result, error) {
	return s.resolve(ctx, resolve.Books())
}

// Book looks up one book by id.
func (s *Service) Book(ctx context.Context, id string) (resolve.Result, error) {
	return s.resolve(ctx, resolve.Book(id))
}

// Users lists the users.
func (s *Service) Users(ctx context.Context) (resolve.Result, error) {
	return s.resolve(ctx, resolve.Users())
}

// User looks up one user by id.
func (s *Service) User(ctx context.Context, id string) (resolve.Result, error) {
	return s.resolve(ctx, resolve.User(id))
}

// Cart lists the cart.
func (s *Service) Cart(ctx context.Context) (resolve.Result, error) {
	return s.resolve(ctx, resolve.Cart())
}
