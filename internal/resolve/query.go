package resolve

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidQuery is returned for queries that name an unknown kind or misuse the key.
var ErrInvalidQuery = errors.New("invalid query")

// Kind names a logical resource.
type Kind string

const (
	KindBooks    Kind = "books"
	KindBook     Kind = "book"
	KindUsers    Kind = "users"
	KindUser     Kind = "user"
	KindCart     Kind = "cart"
	KindCartItem Kind = "cartitem"
)

var collections = map[Kind]string{
	KindBooks:    "books",
	KindBook:     "books",
	KindUsers:    "users",
	KindUser:     "users",
	KindCart:     "cart",
	KindCartItem: "cart",
}

// Collection returns the API collection backing the kind.
func (k Kind) Collection() string {
	return collections[k]
}

// Single reports whether the kind addresses one record by key.
func (k Kind) Single() bool {
	return k == KindBook || k == KindUser || k == KindCartItem
}

// Query identifies what is being fetched.
type Query struct {
	Kind Kind
	Key  string
}

// Books, Book, Users, User, Cart and CartItem build the common queries.
func Books() Query { return Query{Kind: KindBooks} }
func Book(id string) Query { return Query{Kind: KindBook, Key: id} }
func Users() Query { return Query{Kind: KindUsers} }
func User(id string) Query { return Query{Kind: KindUser, Key: id} }
func Cart() Query { return Query{Kind: KindCart} }
func CartItem(id string) Query { return Query{Kind: KindCartItem, Key: id} }

// Validate checks the kind is known and the key matches its arity.
func (q Query) Validate() error {
	if _, ok := collections[q.Kind]; !ok {
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidQuery, q.Kind)
	}
	key := strings.TrimSpace(q.Key)
	if q.Kind.Single() && key == "" {
		return fmt.Errorf("%w: %s requires a key", ErrInvalidQuery, q.Kind)
	}
	if !q.Kind.Single() && key != "" {
		return fmt.Errorf("%w: %s does not take a key", ErrInvalidQuery, q.Kind)
	}
	return nil
}

func (q Query) String() string {
	if q.Key == "" {
		return string(q.Kind)
	}
	return string(q.Kind) + "#" + q.Key
}
