package ai

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatProvider is the minimal text-generation contract consumed by the
// structuring engine, the document generator and the transcript formatter.
type ChatProvider interface {
	Chat(ctx context.Context, messages []Message) (string, error)
}

// JSONChatProvider forces the provider to return a single JSON object.
type JSONChatProvider interface {
	ChatJSON(ctx context.Context, messages []Message) (string, error)
}

// ErrorKind classifies a provider fault so callers can map it to a
// distinct user-facing status instead of a generic failure.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindMissingKey
	KindAuth
	KindRateLimited
	KindConnectivity
)

type ProviderError struct {
	Kind ErrorKind
	Msg  string
}

func (e *ProviderError) Error() string { return e.Msg }

func newProviderErr(kind ErrorKind, format string, args ...any) *ProviderError {
	return &ProviderError{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// KindOf extracts the classification from err, KindUnknown otherwise.
func KindOf(err error) ErrorKind {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindUnknown
}

// classifyHTTP maps a non-2xx provider response to an error kind.
func classifyHTTP(status int, body string) *ProviderError {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return newProviderErr(KindAuth, "provider rejected credentials: %s", body)
	case status == http.StatusTooManyRequests:
		return newProviderErr(KindRateLimited, "provider rate limit reached: %s", body)
	case status >= 500:
		return newProviderErr(KindConnectivity, "provider unavailable (status %d): %s", status, body)
	default:
		return newProviderErr(KindUnknown, "provider error (status %d): %s", status, body)
	}
}

// classifyTransport maps a transport-level failure (DNS, refused
// connection, timeout) to a connectivity error.
func classifyTransport(err error) *ProviderError {
	var ne net.Error
	if errors.As(err, &ne) || errors.Is(err, context.DeadlineExceeded) {
		return newProviderErr(KindConnectivity, "provider unreachable: %v", err)
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return newProviderErr(KindConnectivity, "provider unreachable: %v", err)
	}
	return newProviderErr(KindUnknown, "provider request failed: %v", err)
}
