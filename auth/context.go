// Package auth models the authenticated browsing context the pipeline borrows
// from a web session, and the providers able to produce it.
package auth

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/hlsrip-cli/hlsrip/constant"
)

// Context carries the request identity of one authenticated session.
// It is passed by value and never mutated once acquired.
type Context struct {
	UserAgent string `json:"user_agent"`
	Referer   string `json:"referer"`
	Origin    string `json:"origin"`
	// Cookie is the combined Cookie header, "a=1; b=2".
	Cookie string `json:"-"`
}

// Headers renders the context as outbound request headers.
func (c Context) Headers() http.Header {
	h := make(http.Header)
	h.Set("Accept", "*/*")
	if c.UserAgent != "" {
		h.Set("User-Agent", c.UserAgent)
	}
	if c.Referer != "" {
		h.Set("Referer", c.Referer)
	}
	if c.Origin != "" {
		h.Set("Origin", c.Origin)
	}
	if c.Cookie != "" {
		h.Set("Cookie", c.Cookie)
	}
	return h
}

// Overlay returns c with every non-empty field of o replacing its own.
func (c Context) Overlay(o Context) Context {
	if o.UserAgent != "" {
		c.UserAgent = o.UserAgent
	}
	if o.Referer != "" {
		c.Referer = o.Referer
	}
	if o.Origin != "" {
		c.Origin = o.Origin
	}
	if o.Cookie != "" {
		c.Cookie = o.Cookie
	}
	return c
}

// WithDefaults fills the blanks left by a provider: the fallback user agent,
// the target page as referer and the referer's origin.
func (c Context) WithDefaults(target string) Context {
	if c.UserAgent == "" {
		c.UserAgent = constant.UserAgent
	}
	if c.Referer == "" {
		c.Referer = target
	}
	if c.Origin == "" {
		c.Origin = OriginOf(c.Referer)
	}
	return c
}

// OriginOf returns "scheme://host" of rawURL, or "" when it has no host.
func OriginOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}

// Account is the key a session is stored under: the lowercased host of rawURL.
func Account(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return strings.ToLower(rawURL)
	}
	return strings.ToLower(u.Hostname())
}

// JoinCookies renders name/value pairs as a single Cookie header.
func JoinCookies(cookies []*http.Cookie) string {
	parts := make([]string, 0, len(cookies))
	for _, c := range cookies {
		parts = append(parts, c.Name+"="+c.Value)
	}
	return strings.Join(parts, "; ")
}
