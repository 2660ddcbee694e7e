package library

import (
	"context"

	"booklib/internal/resolve"

	"golang.org/x/sync/errgroup"
)

// Overview is the catalog, the users and the cart resolved together.
type Overview struct {
	Books resolve.Result
	Users resolve.Result
	Cart  resolve.Result
}

// Degraded reports whether any part came from fallback data.
func (o Overview) Degraded() bool {
	return o.Books.Degraded || o.Users.Degraded || o.Cart.Degraded
}

// Overview resolves all three collections concurrently. Each part falls back
// on its own, so one collection can be live while another is sample data.
func (s *Service) Overview(ctx context.Context) (Overview, error) {
	var ov Overview

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		res, err := s.Books(egCtx)
		ov.Books = res
		return err
	})
	eg.Go(func() error {
		res, err := s.Users(egCtx)
		ov.Users = res
		return err
	})
	eg.Go(func() error {
		res, err := s.Cart(egCtx)
		ov.Cart = res
		return err
	})

	if err := eg.Wait(); err != nil {
		return ov, err
	}
	return ov, nil
}
