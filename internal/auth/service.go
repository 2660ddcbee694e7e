// Package auth holds the demo login check. It compares against two fixed
// accounts and is not a security boundary.
package auth

import (
	"errors"
	"strings"
)

var (
	ErrMissingCredentials = errors.New("enter the name and password")
	ErrUnauthorized       = errors.New("invalid credentials")
)

// Role is the portal a login opens.
type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleUser  Role = "USER"
)

type account struct {
	name     string
	password string
	role     Role
}

var accounts = []account{
	{name: "Admin", password: "Admin123", role: RoleAdmin},
	{name: "User", password: "User123", role: RoleUser},
}

// Check returns the role for a name/password pair.
func Check(name, password string) (Role, error) {
	name = strings.TrimSpace(name)
	if name == "" || password == "" {
		return "", ErrMissingCredentials
	}
	for _, a := range accounts {
		if a.name == name && a.password == password {
			return a.role, nil
		}
	}
	return "", ErrUnauthorized
}

// Require checks the credentials and that they open the wanted portal.
func Require(name, password string, want Role) error {
	role, err := Check(name, password)
	if err != nil {
		return err
	}
	if role != want {
		return ErrUnauthorized
	}
	return nil
}
