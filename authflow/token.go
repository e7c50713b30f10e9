// Package authflow redeems identity-provider callbacks for a bearer token,
// either through a short-lived loopback HTTP listener or through a
// custom-URI-scheme deep link.
package authflow

import (
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"
)

const tokenKey = "token="

// ParseToken extracts the token query parameter from a request URI or full
// URL. The value runs up to the next '&' and is percent-decoded. If decoding
// fails or yields invalid UTF-8 the raw text is returned instead. ok is false
// when there is no token parameter, and also when it is present but empty
// ("token=" redeems nothing).
func ParseToken(rawURL string) (token string, ok bool) {
	q := rawURL
	if i := strings.IndexByte(q, '?'); i >= 0 {
		q = q[i+1:]
	} else {
		return "", false
	}
	if i := strings.IndexByte(q, '#'); i >= 0 {
		q = q[:i]
	}

	for part := range strings.SplitSeq(q, "&") {
		raw, found := strings.CutPrefix(part, tokenKey)
		if !found {
			continue
		}
		if raw == "" {
			return "", false
		}
		decoded, err := url.PathUnescape(raw)
		if err != nil || !utf8.ValidString(decoded) {
			return raw, true
		}
		return decoded, true
	}
	return "", false
}

// LoginURL appends redirect_uri=callbackURL to the identity provider's
// login page URL.
func LoginURL(authURL, callbackURL string) (string, error) {
	if authURL == "" {
		return "", fmt.Errorf("auth url not configured")
	}
	u, err := url.Parse(authURL)
	if err != nil {
		return "", fmt.Errorf("parse auth url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("auth url must be absolute: %q", authURL)
	}

	q := u.Query()
	q.Set("redirect_uri", callbackURL)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
