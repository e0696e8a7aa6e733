package client

import (
	"fmt"
	"net/url"
	"strings"
)

// BuildURL builds the board connection URL
// (<ws|wss>://<host>/ws/board/<boardID>/<token>) from an http(s) or ws(s)
// base. https maps to wss so the socket scheme always follows the page's own.
func BuildURL(base string, boardID int64, token string) (string, error) {
	if token == "" {
		return "", fmt.Errorf("client.BuildURL: empty token")
	}

	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("client.BuildURL: %w", err)
	}

	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("client.BuildURL: unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("client.BuildURL: missing host in %q", base)
	}

	// Path carries the decoded form and RawPath the escaped one; setting the
	// escaped token on Path would make String() encode it a second time.
	baseRaw := strings.TrimRight(u.EscapedPath(), "/")
	u.Path = strings.TrimRight(u.Path, "/") + fmt.Sprintf("/ws/board/%d/%s", boardID, token)
	u.RawPath = baseRaw + fmt.Sprintf("/ws/board/%d/%s", boardID, url.PathEscape(token))
	return u.String(), nil
}
