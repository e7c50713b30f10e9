package authflow

import (
	"log/slog"
	"net/url"
	"strings"
)

// DefaultScheme is the custom URI scheme registered for the desktop app.
const DefaultScheme = "drift"

const deepLinkHost = "auth"

// ParseDeepLink returns the token carried by a scheme://auth?token=... URL.
// Besides the canonical form it accepts scheme:auth?... and scheme:///auth?...
// since launchers differ in how they hand the URL over.
func ParseDeepLink(raw, scheme string) (string, bool) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", false
	}
	if !strings.EqualFold(u.Scheme, scheme) {
		return "", false
	}

	target := u.Host
	switch {
	case u.Opaque != "":
		target, _, _ = strings.Cut(u.Opaque, "?")
	case target == "":
		target = u.Path
	}
	if strings.Trim(target, "/") != deepLinkHost {
		return "", false
	}

	return ParseToken("?" + u.RawQuery)
}

// DeepLinkHandler redeems tokens from OS-delivered custom-scheme URLs.
type DeepLinkHandler struct {
	scheme  string
	deliver DeliverFunc
}

// NewDeepLinkHandler creates a handler for scheme. An empty scheme means
// DefaultScheme.
func NewDeepLinkHandler(scheme string, deliver DeliverFunc) *DeepLinkHandler {
	if scheme == "" {
		scheme = DefaultScheme
	}
	return &DeepLinkHandler{scheme: scheme, deliver: deliver}
}

// Scheme returns the URI scheme the handler accepts.
func (h *DeepLinkHandler) Scheme() string {
	return h.scheme
}

// Handle processes one batch of URLs. URLs that are not auth callbacks are
// skipped. It returns the number of tokens delivered.
func (h *DeepLinkHandler) Handle(urls []string) int {
	delivered := 0
	for _, raw := range urls {
		token, ok := ParseDeepLink(raw, h.scheme)
		if !ok {
			slog.Debug("ignore deep link", "url", redact(raw))
			continue
		}

		slog.Info("auth token received", "channel", "deep-link")
		if h.deliver != nil {
			h.deliver(token)
		}
		delivered++
	}
	return delivered
}

// redact drops the query so tokens never reach the log.
func redact(raw string) string {
	before, _, _ := strings.Cut(raw, "?")
	return before
}
