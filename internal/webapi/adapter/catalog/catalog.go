// Package catalog resolves error codes to user-facing messages from a
// fixed table, optionally loaded from a YAML or JSON file.
package catalog

import (
	"context"
	"fmt"
	"maps"
	"strconv"
	"strings"

	"github.com/spf13/viper"

	"webcore/internal/domain"
)

// Catalog is an immutable code → message table. It implements
// webapi.MessageResolver and is safe for concurrent use.
type Catalog struct {
	messages map[int]string
}

// New copies messages into a Catalog.
func New(messages map[int]string) *Catalog {
	return &Catalog{messages: maps.Clone(messages)}
}

// Default returns the built-in English messages for the codes this module
// raises.
func Default() *Catalog {
	return New(map[int]string{
		domain.CodeUnauthorizedRequest: "You need to sign in to do that.",
		domain.CodeForbiddenRequest:    "You do not have permission to do that.",
		domain.CodeRateLimited:         "Too many requests. Please slow down.",
		domain.CodeInvalidRequest:      "The request could not be understood.",
		domain.CodeResourceNotFound:    "The requested resource does not exist.",
		domain.CodeInvalidCredentials:  "The email or password is incorrect.",
	})
}

// Load reads a file with a top-level "messages" table keyed by error code:
//
//	messages:
//	  "1": "Please sign in."
//	  "2": "Not allowed."
//
// Entries from the file are layered over base; base may be nil.
func Load(path string, base *Catalog) (*Catalog, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading message catalog %s: %w", path, err)
	}

	merged := make(map[int]string)
	if base != nil {
		maps.Copy(merged, base.messages)
	}
	for key, msg := range v.GetStringMapString("messages") {
		code, err := strconv.Atoi(strings.TrimSpace(key))
		if err != nil {
			return nil, fmt.Errorf("message catalog %s: key %q is not an error code: %w", path, key, err)
		}
		merged[code] = msg
	}
	return &Catalog{messages: merged}, nil
}

// Message returns the message for code, or "" when none is configured.
func (c *Catalog) Message(_ context.Context, code int) string {
	return c.messages[code]
}

// Len returns the number of configured messages.
func (c *Catalog) Len() int { return len(c.messages) }
