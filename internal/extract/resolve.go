package extract

import (
	"fmt"
	"net/url"
	"strings"
)

// ParseBase parses an absolute http(s) URL to resolve links against.
func ParseBase(raw string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", raw, err)
	}
	if !isHTTPScheme(u.Scheme) || u.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q: must be an absolute http or https URL", raw)
	}
	return u, nil
}

// Resolve turns a link found on a page into an absolute URL.
//
// An absolute http(s) link is returned as written (apart from surrounding
// whitespace). A relative or site-relative link is resolved against base.
// Empty links, fragment-only links, links that do not parse, and links
// with other schemes (javascript:, mailto:, tel:, data:) return an error
// wrapping ErrInvalidLink.
func Resolve(base *url.URL, link string) (string, error) {
	link = strings.TrimSpace(link)
	if link == "" {
		return "", fmt.Errorf("%w: empty link", ErrInvalidLink)
	}
	if strings.HasPrefix(link, "#") {
		return "", fmt.Errorf("%w: fragment-only link %q", ErrInvalidLink, link)
	}

	u, err := url.Parse(link)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrInvalidLink, link, err)
	}

	if u.IsAbs() {
		if !isHTTPScheme(u.Scheme) {
			return "", fmt.Errorf("%w: unsupported scheme %q in %q", ErrInvalidLink, u.Scheme, link)
		}
		if u.Host == "" {
			return "", fmt.Errorf("%w: missing host in %q", ErrInvalidLink, link)
		}
		return link, nil
	}

	if base == nil {
		return "", fmt.Errorf("%w: relative link %q without a base URL", ErrInvalidLink, link)
	}
	return base.ResolveReference(u).String(), nil
}

func isHTTPScheme(scheme string) bool {
	return strings.EqualFold(scheme, "http") || strings.EqualFold(scheme, "https")
}
