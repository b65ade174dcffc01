package analytics

import (
	"context"
	"os"
	"strings"
)

// PlaceholderToken is the value shipped in sample configs; it never enables delivery.
const PlaceholderToken = "YOUR_MIXPANEL_TOKEN"

// DefaultTokenEnv is the environment variable EnvTokenSource reads when none is named.
const DefaultTokenEnv = "MIXPANEL_TOKEN"

// TokenSource supplies the project token used to initialize the analytics client.
type TokenSource interface {
	Token(ctx context.Context) string
}

// TokenFunc adapts a function to TokenSource.
type TokenFunc func(ctx context.Context) string

func (f TokenFunc) Token(ctx context.Context) string {
	if f == nil {
		return ""
	}
	return f(ctx)
}

// StaticTokenSource always returns the same token.
type StaticTokenSource string

func (s StaticTokenSource) Token(context.Context) string {
	return string(s)
}

// EnvTokenSource returns the first non-empty value among the named environment variables.
type EnvTokenSource struct {
	Keys []string
}

func (s EnvTokenSource) Token(context.Context) string {
	keys := s.Keys
	if len(keys) == 0 {
		keys = []string{DefaultTokenEnv}
	}
	for _, key := range keys {
		if value := strings.TrimSpace(os.Getenv(key)); value != "" {
			return value
		}
	}
	return ""
}

// UsableToken reports whether token can initialize a client. Blank values and
// the placeholder are rejected.
func UsableToken(token string) bool {
	token = strings.TrimSpace(token)
	return token != "" && token != PlaceholderToken
}
