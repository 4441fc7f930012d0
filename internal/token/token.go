// Package token implements the magic token that authorizes every
// out-of-band request in the reporting flow: the web portal calls and the
// step-by-step Discord component chain. The token is not encrypted, only
// encoded; forgery is prevented by the trailing server secret, which never
// leaves the server in decoded form. Tokens embed only stable identifiers
// (message id, report id), never status or other mutable fields, so a token
// stays valid while the referenced report mutates.
package token

import (
	"encoding/base64"
	"errors"
	"strings"
)

const delimiter = "#"

// ErrInvalidToken is returned for any token that cannot be resolved:
// undecodable input, wrong segment count, or a secret mismatch. Callers must
// not distinguish these cases; tokens arrive from untrusted clients.
var ErrInvalidToken = errors.New("invalid magic token")

// Context is the (message, report) pair a token is bound to.
type Context struct {
	MessageID string
	ReportID  string
}

// Codec issues and resolves magic tokens against a shared server secret.
type Codec struct {
	secret string
}

func NewCodec(secret string) *Codec {
	return &Codec{secret: secret}
}

// Issue encodes the context and the server secret into an opaque token.
func (c *Codec) Issue(ctx Context) string {
	raw := strings.Join([]string{ctx.MessageID, ctx.ReportID, c.secret}, delimiter)
	return base64.URLEncoding.EncodeToString([]byte(raw))
}

// Resolve decodes a token and verifies its secret segment. Malformed
// encodings and secret mismatches are treated identically.
func (c *Codec) Resolve(tok string) (Context, error) {
	decoded, err := base64.URLEncoding.DecodeString(tok)
	if err != nil {
		return Context{}, ErrInvalidToken
	}

	parts := strings.Split(string(decoded), delimiter)
	if len(parts) != 3 {
		return Context{}, ErrInvalidToken
	}
	if parts[2] != c.secret {
		return Context{}, ErrInvalidToken
	}

	return Context{MessageID: parts[0], ReportID: parts[1]}, nil
}
