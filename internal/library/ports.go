package library

import (
	"context"

	"booklib/internal/record"
	"booklib/internal/resolve"
)

//go:generate mockgen -destination=mock_remote_test.go -package=library booklib/internal/library Remote

// Remote is the authoritative API: it answers queries and accepts mutations.
type Remote interface {
	resolve.Fetcher
	Create(ctx context.Context, collection string, rec record.Record) (record.Record, error)
	Update(ctx context.Context, collection, id string, rec record.Record) (record.Record, error)
	Delete(ctx context.Context, collection, id string) error
}
