package resolve

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"booklib/internal/record"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type countingFetcher struct {
	calls atomic.Int32
	body  string
	err   error
}

func (c *countingFetcher) Fetch(ctx context.Context, q Query) ([]byte, error) {
	c.calls.Add(1)
	if c.err != nil {
		return nil, c.err
	}
	return []byte(c.body), nil
}

func ok(body string) *countingFetcher {
	return &countingFetcher{body: body}
}

func failing(msg string) *countingFetcher {
	return &countingFetcher{err: errors.New(msg)}
}

func desc(name string, authoritative bool, f Fetcher) Descriptor {
	return Descriptor{Name: name, Authoritative: authoritative, Fetcher: f, Normalize: record.Raw}
}

func newResolver() *Resolver {
	return New(nil, 200*time.Millisecond)
}

func TestResolve_FirstFailsSecondSucceeds(t *testing.T) {
	a := failing("connection refused")
	b := ok(`[{"id":1,"title":"A"},{"id":2,"title":"B"}]`)

	res, err := newResolver().Resolve(context.Background(), Request{
		Query:   Books(),
		Sources: []Descriptor{desc("remote", true, a), desc("snapshot", false, b)},
	})

	require.NoError(t, err)
	assert.Equal(t, "snapshot", res.Source)
	assert.True(t, res.Degraded)
	assert.Len(t, res.Records, 2)
	assert.Equal(t, int32(1), a.calls.Load(), "failed source must not be retried")
	assert.Equal(t, int32(1), b.calls.Load())
	require.Len(t, res.Attempts, 1)
	assert.Equal(t, "remote", res.Attempts[0].Source)
}

func TestResolve_StopsAtFirstSuccess(t *testing.T) {
	a := ok(`[{"id":1}]`)
	b := ok(`[{"id":2}]`)

	res, err := newResolver().Resolve(context.Background(), Request{
		Query:   Books(),
		Sources: []Descriptor{desc("remote", true, a), desc("snapshot", false, b)},
	})

	require.NoError(t, err)
	assert.Equal(t, "remote", res.Source)
	assert.False(t, res.Degraded)
	assert.Empty(t, res.Attempts)
	assert.Equal(t, int32(0), b.calls.Load(), "lower-priority source must not be consulted")
}

func TestResolve_AllFailUsesDefault(t *testing.T) {
	def := []record.Record{{"id": float64(99), "title": "Sample"}}

	res, err := newResolver().Resolve(context.Background(), Request{
		Query: Books(),
		Sources: []Descriptor{
			desc("remote", true, failing("down")),
			desc("snapshot", false, ok(`not json`)),
		},
		Default: def,
	})

	require.NoError(t, err)
	assert.Equal(t, SourceDefault, res.Source)
	assert.True(t, res.Degraded)
	assert.Equal(t, def, res.Records)
	assert.Len(t, res.Attempts, 2)
}

func TestResolve_AllFailWithoutDefaultYieldsEmptyCollection(t *testing.T) {
	res, err := newResolver().Resolve(context.Background(), Request{
		Query:   Cart(),
		Sources: []Descriptor{desc("remote", true, failing("down"))},
	})

	require.NoError(t, err)
	assert.NotNil(t, res.Records)
	assert.Empty(t, res.Records)
	assert.True(t, res.Degraded)
}

func TestResolve_DefaultIsNotShared(t *testing.T) {
	def := []record.Record{{"id": float64(1)}}
	res, err := newResolver().Resolve(context.Background(), Request{
		Query:   Books(),
		Sources: []Descriptor{desc("remote", true, failing("down"))},
		Default: def,
	})
	require.NoError(t, err)

	res.Records[0]["title"] = "changed"
	assert.NotContains(t, def[0], "title")
}

func TestResolve_EmptyCollection(t *testing.T) {
	t.Run("rejected by default", func(t *testing.T) {
		res, err := newResolver().Resolve(context.Background(), Request{
			Query:   Books(),
			Sources: []Descriptor{desc("remote", true, ok(`[]`)), desc("snapshot", false, ok(`[{"id":1}]`))},
		})
		require.NoError(t, err)
		assert.Equal(t, "snapshot", res.Source)
	})

	t.Run("accepted when allowed", func(t *testing.T) {
		res, err := newResolver().Resolve(context.Background(), Request{
			Query:      Books(),
			Sources:    []Descriptor{desc("remote", true, ok(`[]`)), desc("snapshot", false, ok(`[{"id":1}]`))},
			AllowEmpty: true,
		})
		require.NoError(t, err)
		assert.Equal(t, "remote", res.Source)
		assert.Empty(t, res.Records)
		assert.False(t, res.Degraded)
	})
}

func TestResolve_SingleRecordLooseMatch(t *testing.T) {
	res, err := newResolver().Resolve(context.Background(), Request{
		Query:   Book("2"),
		Sources: []Descriptor{desc("snapshot", false, ok(`[{"id":1},{"id":2,"title":"Two"}]`))},
	})

	require.NoError(t, err)
	require.True(t, res.Found())
	assert.Equal(t, float64(2), res.Record.ID())
	assert.Equal(t, "Two", res.Record.String("title"))
}

func TestResolve_SingleRecordMissAdvances(t *testing.T) {
	a := ok(`[{"id":1},{"id":3}]`)
	b := ok(`[{"id":2,"title":"from b"}]`)

	res, err := newResolver().Resolve(context.Background(), Request{
		Query:   Book("2"),
		Sources: []Descriptor{desc("snapshot", false, a), desc("embedded", false, b)},
	})

	require.NoError(t, err)
	assert.Equal(t, "embedded", res.Source)
	assert.Equal(t, "from b", res.Record.String("title"))
	require.Len(t, res.Attempts, 1)
	assert.Contains(t, res.Attempts[0].Reason, ErrNoMatch.Error())
}

func TestResolve_SingleRecordMissEverywhere(t *testing.T) {
	res, err := newResolver().Resolve(context.Background(), Request{
		Query:   Book("42"),
		Sources: []Descriptor{desc("snapshot", false, ok(`[{"id":1}]`))},
	})

	require.NoError(t, err)
	assert.False(t, res.Found())
	assert.Equal(t, SourceDefault, res.Source)
}

func TestResolve_CustomSelector(t *testing.T) {
	res, err := newResolver().Resolve(context.Background(), Request{
		Query:   CartItem("5"),
		Sources: []Descriptor{desc("remote", true, ok(`[{"id":1,"cartid":5}]`))},
		Select: func(records []record.Record, key string) (record.Record, bool) {
			for _, r := range records {
				if record.LooseEqual(r["cartid"], key) {
					return r, true
				}
			}
			return nil, false
		},
	})

	require.NoError(t, err)
	assert.Equal(t, "remote", res.Source)
	assert.Equal(t, float64(1), res.Record.ID())
}

func TestResolve_NormalizerRejection(t *testing.T) {
	res, err := newResolver().Resolve(context.Background(), Request{
		Query: Books(),
		Sources: []Descriptor{
			{Name: "remote", Authoritative: true, Fetcher: ok(`[{"title":"no id"}]`), Normalize: record.Books},
			{Name: "snapshot", Fetcher: ok(`[{"id":1}]`), Normalize: record.Books},
		},
	})

	require.NoError(t, err)
	assert.Equal(t, "snapshot", res.Source)
}

func TestResolve_TimeoutAdvances(t *testing.T) {
	slow := FetchFunc(func(ctx context.Context, q Query) ([]byte, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})

	r := New(nil, 20*time.Millisecond)
	res, err := r.Resolve(context.Background(), Request{
		Query:   Users(),
		Sources: []Descriptor{desc("remote", true, slow), desc("snapshot", false, ok(`[{"id":1}]`))},
	})

	require.NoError(t, err)
	assert.Equal(t, "snapshot", res.Source)
	require.Len(t, res.Attempts, 1)
	assert.Contains(t, res.Attempts[0].Reason, context.DeadlineExceeded.Error())
}

func TestResolve_InvalidRequests(t *testing.T) {
	r := newResolver()

	t.Run("no sources", func(t *testing.T) {
		res, err := r.Resolve(context.Background(), Request{Query: Books()})
		assert.ErrorIs(t, err, ErrNoSources)
		assert.True(t, res.Degraded)
		assert.NotNil(t, res.Records)
	})

	t.Run("unknown kind", func(t *testing.T) {
		_, err := r.Resolve(context.Background(), Request{Query: Query{Kind: "authors"}, Sources: []Descriptor{desc("x", true, ok(`[]`))}})
		assert.ErrorIs(t, err, ErrInvalidQuery)
	})

	t.Run("single without key", func(t *testing.T) {
		_, err := r.Resolve(context.Background(), Request{Query: Book(""), Sources: []Descriptor{desc("x", true, ok(`[]`))}})
		assert.ErrorIs(t, err, ErrInvalidQuery)
	})

	t.Run("collection with key", func(t *testing.T) {
		_, err := r.Resolve(context.Background(), Request{Query: Query{Kind: KindBooks, Key: "1"}, Sources: []Descriptor{desc("x", true, ok(`[]`))}})
		assert.ErrorIs(t, err, ErrInvalidQuery)
	})

	t.Run("nil fetcher", func(t *testing.T) {
		_, err := r.Resolve(context.Background(), Request{Query: Books(), Sources: []Descriptor{{Name: "x", Normalize: record.Raw}}})
		assert.Error(t, err)
	})
}

func TestResolve_Idempotent(t *testing.T) {
	r := newResolver()
	req := Request{
		Query: Book("7"),
		Sources: []Descriptor{
			desc("remote", true, failing("unreachable")),
			desc("snapshot", false, ok(`[{"id":7,"title":"The Great Gatsby"}]`)),
		},
	}

	first, err := r.Resolve(context.Background(), req)
	require.NoError(t, err)
	second, err := r.Resolve(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestResolve_CancelledParent(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	b := ok(`[{"id":1}]`)
	res, err := newResolver().Resolve(ctx, Request{
		Query:   Books(),
		Sources: []Descriptor{desc("remote", true, b)},
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, SourceDefault, res.Source)
	assert.Equal(t, int32(0), b.calls.Load())
}

func TestResolve_ConcurrentQueriesAreIndependent(t *testing.T) {
	r := newResolver()
	books := ok(`[{"id":1},{"id":2}]`)
	cart := ok(`[{"id":10,"cartid":1}]`)

	var wg sync.WaitGroup
	results := make([]Result, 2)
	for i, req := range []Request{
		{Query: Books(), Sources: []Descriptor{desc("remote", true, books)}},
		{Query: Cart(), Sources: []Descriptor{desc("remote", true, cart)}},
	} {
		wg.Add(1)
		go func(i int, req Request) {
			defer wg.Done()
			res, err := r.Resolve(context.Background(), req)
			assert.NoError(t, err)
			results[i] = res
		}(i, req)
	}
	wg.Wait()

	assert.Len(t, results[0].Records, 2)
	assert.Len(t, results[1].Records, 1)
}

func TestQuery_String(t *testing.T) {
	assert.Equal(t, "books", Books().String())
	assert.Equal(t, "book#7", Book("7").String())
	assert.Equal(t, "cart", KindCartItem.Collection())
}
