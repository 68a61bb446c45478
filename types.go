package accounts

import (
	"context"
	"fmt"
	"strings"
)

// Logger takes a message followed by key/value pairs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Identity holds the attributes of an authenticated identity
type Identity interface {
	ID() string
	Username() string
	Email() string
}

// Authenticator holds methods to deal with authentication
type Authenticator interface {
	Login(ctx context.Context, identifier, password string) (string, Identity, error)
	TokenService() TokenService
}

// IdentityProvider ensure we have a store to retrieve auth identity
type IdentityProvider interface {
	VerifyIdentity(ctx context.Context, identifier, password string) (Identity, error)
	FindIdentityByID(ctx context.Context, id string) (Identity, error)
}

// PasswordAuthenticator authenticates passwords
type PasswordAuthenticator interface {
	HashPassword(password string) (string, error)
	ComparePasswordAndHash(password, hash string) error
}

type defLogger struct{}

func (d defLogger) Error(msg string, args ...any) {
	fmt.Println(formatLogLine("[ERR] ACCOUNTS", msg, args...))
}

func (d defLogger) Warn(msg string, args ...any) {
	fmt.Println(formatLogLine("[WRN] ACCOUNTS", msg, args...))
}

func (d defLogger) Info(msg string, args ...any) {
	fmt.Println(formatLogLine("[INF] ACCOUNTS", msg, args...))
}

func (d defLogger) Debug(msg string, args ...any) {
	fmt.Println(formatLogLine("[DBG] ACCOUNTS", msg, args...))
}

// formatLogLine renders a message with trailing key/value pairs. A dangling
// key is printed on its own.
func formatLogLine(prefix, msg string, args ...any) string {
	var b strings.Builder
	b.WriteString(prefix)
	b.WriteString(" ")
	b.WriteString(strings.TrimRight(msg, " \n"))

	i := 0
	for ; i+1 < len(args); i += 2 {
		fmt.Fprintf(&b, " %v=%v", args[i], args[i+1])
	}
	if i < len(args) {
		fmt.Fprintf(&b, " %v", args[i])
	}

	return b.String()
}
