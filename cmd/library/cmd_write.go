package main

import (
	"fmt"

	"booklib/internal/auth"
	"booklib/internal/record"

	"github.com/spf13/cobra"
)

func (a *app) require(role auth.Role) error {
	if err := auth.Require(a.name, a.password, role); err != nil {
		return fmt.Errorf("login as %s: %w", role, err)
	}
	return nil
}

type bookFlags struct {
	title     string
	authors   []string
	thumbnail string
	short     string
	long      string
}

func (f *bookFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.title, "title", "", "book title")
	cmd.Flags().StringSliceVar(&f.authors, "author", nil, "author (repeatable)")
	cmd.Flags().StringVar(&f.thumbnail, "thumbnail", "", "cover image URL")
	cmd.Flags().StringVar(&f.short, "short", "", "short description")
	cmd.Flags().StringVar(&f.long, "long", "", "long description")
}

func (f *bookFlags) book() record.Book {
	return record.Book{
		Title:            f.title,
		Authors:          f.authors,
		ThumbnailURL:     f.thumbnail,
		ShortDescription: f.short,
		LongDescription:  f.long,
	}
}

func (a *app) addBookCmd() *cobra.Command {
	var f bookFlags
	cmd := &cobra.Command{
		Use:   "add-book",
		Short: "Add a book to the catalog (admin)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.require(auth.RoleAdmin); err != nil {
				return err
			}
			created, err := a.service.AddBook(cmd.Context(), f.book())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added book %s: %s\n", created.ID, created.Title)
			return nil
		},
	}
	f.register(cmd)
	return cmd
}

func (a *app) updateBookCmd() *cobra.Command {
	var f bookFlags
	cmd := &cobra.Command{
		Use:   "update-book <id>",
		Short: "Replace a book in the catalog (admin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.require(auth.RoleAdmin); err != nil {
				return err
			}
			updated, err := a.service.UpdateBook(cmd.Context(), args[0], f.book())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "updated book %s: %s\n", updated.ID, updated.Title)
			return nil
		},
	}
	f.register(cmd)
	return cmd
}

func (a *app) deleteBookCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete-book <id>",
		Short: "Remove a book from the catalog (admin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.require(auth.RoleAdmin); err != nil {
				return err
			}
			if err := a.service.DeleteBook(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted book %s\n", args[0])
			return nil
		},
	}
}

func (a *app) addUserCmd() *cobra.Command {
	var u record.User
	cmd := &cobra.Command{
		Use:   "add-user",
		Short: "Register a user (admin)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.require(auth.RoleAdmin); err != nil {
				return err
			}
			created, err := a.service.AddUser(cmd.Context(), u)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added user %s: %s %s\n", created.ID, created.FirstName, created.LastName)
			return nil
		},
	}
	cmd.Flags().StringVar(&u.FirstName, "first-name", "", "first name")
	cmd.Flags().StringVar(&u.LastName, "last-name", "", "last name")
	cmd.Flags().StringVar(&u.Email, "email", "", "email address")
	cmd.Flags().StringVar(&u.Phone, "phone", "", "phone number")
	cmd.Flags().StringVar(&u.Address, "address", "", "postal address")
	return cmd
}

func (a *app) deleteUserCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete-user <id>",
		Short: "Remove a user (admin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.require(auth.RoleAdmin); err != nil {
				return err
			}
			if err := a.service.DeleteUser(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted user %s\n", args[0])
			return nil
		},
	}
}

func (a *app) addToCartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add-to-cart <bookID>",
		Short: "Put a book in the cart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.require(auth.RoleUser); err != nil {
				return err
			}
			item, err := a.service.AddToCart(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added %q to the cart (entry %s)\n", item.CartTitle, item.ID)
			return nil
		},
	}
}

func (a *app) removeFromCartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove-from-cart <id>",
		Short: "Remove an entry from the cart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.require(auth.RoleUser); err != nil {
				return err
			}
			if err := a.service.RemoveFromCart(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed cart entry %s\n", args[0])
			return nil
		},
	}
}

func (a *app) loginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Check a name and password and report the portal they open",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			role, err := auth.Check(a.name, a.password)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "welcome %s (%s portal)\n", a.name, role)
			return nil
		},
	}
}
