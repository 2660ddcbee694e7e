package library

import (
	"context"
	"errors"
	"fmt"

	"booklib/internal/record"
	"booklib/internal/resolve"
	"booklib/internal/source"

	"go.uber.org/zap"
)

// mutate runs fn against the remote API. Without one it fails fast with
// ErrUnavailable and no I/O happens.
func (s *Service) mutate(ctx context.Context, op string, fn func(ctx context.Context, remote Remote) error) error {
	if s.sources.Remote == nil {
		return fmt.Errorf("%s: %w", op, ErrUnavailable)
	}
	if err := fn(ctx, s.sources.Remote); err != nil {
		s.logger.Warn("mutation failed", zap.String("op", op), zap.Error(err))
		return fmt.Errorf("%s: %w: %w", op, ErrMutationFailed, err)
	}
	s.logger.Info("mutation applied", zap.String("op", op))
	return nil
}

// AddBook creates a book.
func (s *Service) AddBook(ctx context.Context, b record.Book) (record.Book, error) {
	if err := record.Validate(b); err != nil {
		return record.Book{}, err
	}
	var out record.Book
	err := s.mutate(ctx, "add book", func(ctx context.Context, remote Remote) error {
		created, err := remote.Create(ctx, "books", b.Record())
		if err != nil {
			return err
		}
		out = record.AsBook(created)
		return nil
	})
	return out, err
}

// UpdateBook replaces the book with the given id.
func (s *Service) UpdateBook(ctx context.Context, id string, b record.Book) (record.Book, error) {
	if err := record.Validate(b); err != nil {
		return record.Book{}, err
	}
	var out record.Book
	err := s.mutate(ctx, "update book", func(ctx context.Context, remote Remote) error {
		updated, err := remote.Update(ctx, "books", id, b.Record())
		if err != nil {
			return err
		}
		out = record.AsBook(updated)
		return nil
	})
	return out, err
}

// DeleteBook removes a book.
func (s *Service) DeleteBook(ctx context.Context, id string) error {
	return s.mutate(ctx, "delete book", func(ctx context.Context, remote Remote) error {
		return remote.Delete(ctx, "books", id)
	})
}

// AddUser creates a user.
func (s *Service) AddUser(ctx context.Context, u record.User) (record.User, error) {
	if err := record.Validate(u); err != nil {
		return record.User{}, err
	}
	var out record.User
	err := s.mutate(ctx, "add user", func(ctx context.Context, remote Remote) error {
		created, err := remote.Create(ctx, "users", u.Record())
		if err != nil {
			return err
		}
		out = record.AsUser(created)
		return nil
	})
	return out, err
}

// DeleteUser removes a user.
func (s *Service) DeleteUser(ctx context.Context, id string) error {
	return s.mutate(ctx, "delete user", func(ctx context.Context, remote Remote) error {
		return remote.Delete(ctx, "users", id)
	})
}

// AddToCart puts a book in the cart. The book and the current cart are read
// from the remote API only, so fallback data never ends up persisted.
func (s *Service) AddToCart(ctx context.Context, bookID string) (record.CartItem, error) {
	if s.sources.Remote == nil {
		return record.CartItem{}, fmt.Errorf("add to cart: %w", ErrUnavailable)
	}

	book, err := s.resolver.Resolve(ctx, resolve.Request{
		Query:   resolve.Book(bookID),
		Sources: s.remoteOnly("books"),
	})
	if err != nil {
		return record.CartItem{}, err
	}
	if book.Degraded || !book.Found() {
		return record.CartItem{}, s.lookupFailure(bookID, book.Attempts)
	}

	cart, err := s.resolver.Resolve(ctx, resolve.Request{
		Query:      resolve.Cart(),
		Sources:    s.remoteOnly("cart"),
		AllowEmpty: true,
	})
	if err != nil {
		return record.CartItem{}, err
	}
	if cart.Degraded {
		return record.CartItem{}, fmt.Errorf("add to cart: %w: cart unreadable", ErrMutationFailed)
	}
	for _, item := range cart.Records {
		if record.LooseEqual(item["cartid"], book.Record.ID()) {
			return record.CartItem{}, ErrAlreadyInCart
		}
	}

	b := record.AsBook(book.Record)
	payload := record.CartItem{CartTitle: b.Title, CartImage: b.ThumbnailURL}.Record()
	payload["cartid"] = book.Record.ID()

	var out record.CartItem
	err = s.mutate(ctx, "add to cart", func(ctx context.Context, remote Remote) error {
		created, err := remote.Create(ctx, "cart", payload)
		if err != nil {
			return err
		}
		out = record.AsCartItem(created)
		return nil
	})
	return out, err
}

// RemoveFromCart deletes a cart entry by its own id.
func (s *Service) RemoveFromCart(ctx context.Context, id string) error {
	return s.mutate(ctx, "remove from cart", func(ctx context.Context, remote Remote) error {
		return remote.Delete(ctx, "cart", id)
	})
}

// lookupFailure tells a book the remote does not have apart from a remote
// that could not answer.
func (s *Service) lookupFailure(bookID string, attempts []resolve.Attempt) error {
	for _, a := range attempts {
		if errors.Is(a.Err, source.ErrNotFound) || errors.Is(a.Err, resolve.ErrNoMatch) {
			return fmt.Errorf("add to cart: book %s: %w", bookID, ErrNotFound)
		}
	}
	var cause error = errors.New("remote gave no answer")
	if n := len(attempts); n > 0 && attempts[n-1].Err != nil {
		cause = attempts[n-1].Err
	}
	s.logger.Warn("mutation failed", zap.String("op", "add to cart"), zap.Error(cause))
	return fmt.Errorf("add to cart: book %s: %w: %w", bookID, ErrMutationFailed, cause)
}

func (s *Service) remoteOnly(collection string) []resolve.Descriptor {
	return []resolve.Descriptor{{
		Name:          SourceRemote,
		Authoritative: true,
		Fetcher:       s.sources.Remote,
		Normalize:     record.ForCollection(collection),
	}}
}
