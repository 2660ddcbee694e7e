package main

import (
	"context"
	"io"
	"sync"

	"booklib/internal/library"
	"booklib/internal/resolve"

	"github.com/spf13/cobra"
)

func (a *app) booksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "books",
		Short: "List the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.service.Books(cmd.Context())
			if err != nil {
				return err
			}
			return a.render(cmd.OutOrStdout(), res, printBooks)
		},
	}
}

func (a *app) bookCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "book <id>",
		Short: "Show one book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.service.Book(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.render(cmd.OutOrStdout(), res, func(w io.Writer, res resolve.Result) {
				printBook(w, res, args[0])
			})
		},
	}
}

func (a *app) usersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "users",
		Short: "List users",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.service.Users(cmd.Context())
			if err != nil {
				return err
			}
			return a.render(cmd.OutOrStdout(), res, printUsers)
		},
	}
}

func (a *app) userCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "user <id>",
		Short: "Show one user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.service.User(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.render(cmd.OutOrStdout(), res, func(w io.Writer, res resolve.Result) {
				printUser(w, res, args[0])
			})
		},
	}
}

func (a *app) cartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cart",
		Short: "List the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.service.Cart(cmd.Context())
			if err != nil {
				return err
			}
			return a.render(cmd.OutOrStdout(), res, printCart)
		},
	}
}

// homeCmd loads the catalog and the cart side by side, the way the home
// screen does, and prints both once they arrive.
func (a *app) homeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "home",
		Short: "Show the catalog together with the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			view := library.NewView(cmd.Context())
			defer view.Dispose()

			var (
				mu          sync.Mutex
				books, cart resolve.Result
				firstErr    error
			)
			keep := func(dst *resolve.Result) func(resolve.Result, error) {
				return func(res resolve.Result, err error) {
					mu.Lock()
					defer mu.Unlock()
					*dst = res
					if err != nil && firstErr == nil {
						firstErr = err
					}
				}
			}

			view.Load(func(ctx context.Context) (resolve.Result, error) {
				return a.service.Books(ctx)
			}, keep(&books))
			view.Load(func(ctx context.Context) (resolve.Result, error) {
				return a.service.Cart(ctx)
			}, keep(&cart))
			view.Wait()

			if firstErr != nil {
				return firstErr
			}
			out := cmd.OutOrStdout()
			if err := a.render(out, books, printBooks); err != nil {
				return err
			}
			return a.render(out, cart, printCart)
		},
	}
}

// summaryCmd resolves every collection at once and reports where each came from.
func (a *app) summaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Count books, users and cart entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ov, err := a.service.Overview(cmd.Context())
			if err != nil {
				return err
			}
			return a.renderOverview(cmd.OutOrStdout(), ov)
		},
	}
}
