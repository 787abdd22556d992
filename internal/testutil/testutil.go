// Package testutil holds helpers shared by package and integration tests.
package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"webcore/internal/domain"
	"webcore/internal/token"
)

// TestSecret signs every token minted by the helpers below.
const TestSecret = "webcore-test-secret-0123456789abcdef"

// FixedTime is the reference instant for deterministic tests.
var FixedTime = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

// TokenConfig returns a valid signing config using TestSecret.
func TokenConfig() *token.Config {
	return &token.Config{Secret: TestSecret, ExpirationInMinutes: 60}
}

// IssueTestToken mints a token for email with subject userID, issued at
// issuedAt. A zero issuedAt means now.
func IssueTestToken(t *testing.T, email string, userID int, issuedAt time.Time) string {
	t.Helper()
	iss, err := token.NewIssuer(TokenConfig())
	require.NoError(t, err)
	tok, err := iss.IssueForUser(email, userID, issuedAt)
	require.NoError(t, err)
	return tok.AccessToken
}

// NewVerifier returns a verifier for TestSecret tokens. A nil clock means
// time.Now.
func NewVerifier(t *testing.T, clock func() time.Time) *token.Verifier {
	t.Helper()
	var opts []token.Option
	if clock != nil {
		opts = append(opts, token.WithClock(clock))
	}
	v, err := token.NewVerifier(TokenConfig(), opts...)
	require.NoError(t, err)
	return v
}

// LogBuffer is a concurrency-safe sink for a JSON slog.Logger.
type LogBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *LogBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *LogBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// Entries decodes every logged line.
func (b *LogBuffer) Entries(t *testing.T) []map[string]any {
	t.Helper()
	var entries []map[string]any
	for line := range strings.SplitSeq(strings.TrimSpace(b.String()), "\n") {
		if line == "" {
			continue
		}
		var e map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &e), "log line: %s", line)
		entries = append(entries, e)
	}
	return entries
}

// NewLogger returns a debug-level JSON logger writing to a fresh LogBuffer.
func NewLogger() (*slog.Logger, *LogBuffer) {
	buf := &LogBuffer{}
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})), buf
}

// DiscardLogger drops everything.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// DecodeError reads an ErrorResponse envelope from resp, asserting the JSON
// content type.
func DecodeError(t *testing.T, contentType string, body io.Reader) domain.ErrorResponse {
	t.Helper()
	require.Equal(t, "application/json", contentType)
	var er domain.ErrorResponse
	require.NoError(t, json.NewDecoder(body).Decode(&er))
	return er
}

// DecodeResponseError is DecodeError for an *http.Response.
func DecodeResponseError(t *testing.T, resp *http.Response) domain.ErrorResponse {
	t.Helper()
	return DecodeError(t, resp.Header.Get("Content-Type"), resp.Body)
}
