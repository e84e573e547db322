package store

import (
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/net/publicsuffix"
)

// JarCookies is a CookieStore backed by a net/http cookie jar. Cookies are
// scoped to the base URL, so an http.Client using Jar() sends the token cookie
// along with every request to that host, as a browser would.
type JarCookies struct {
	jar http.CookieJar
	url *url.URL
}

// NewJarCookies creates a cookie store for baseURL with a fresh jar
func NewJarCookies(baseURL string) (*JarCookies, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create cookie jar")
	}
	return NewJarCookiesWithJar(baseURL, jar)
}

// NewJarCookiesWithJar creates a cookie store for baseURL on an existing jar
func NewJarCookiesWithJar(baseURL string, jar http.CookieJar) (*JarCookies, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse base URL")
	}
	if u.Host == "" {
		return nil, errors.Errorf("base URL %q has no host", baseURL)
	}
	if u.Path == "" {
		u.Path = "/"
	}
	return &JarCookies{jar: jar, url: u}, nil
}

// Jar returns the underlying cookie jar
func (j *JarCookies) Jar() http.CookieJar {
	return j.jar
}

// Get returns the named cookie as the jar would send it to the base URL
func (j *JarCookies) Get(name string) (string, bool, error) {
	for _, c := range j.jar.Cookies(j.url) {
		if c.Name == name {
			return c.Value, true, nil
		}
	}
	return "", false, nil
}

// Set writes the named cookie
func (j *JarCookies) Set(name, value string, opts CookieOptions) error {
	j.jar.SetCookies(j.url, []*http.Cookie{newCookie(name, value, opts)})
	return nil
}

// Remove expires the named cookie
func (j *JarCookies) Remove(name string, opts CookieOptions) error {
	c := newCookie(name, "", opts)
	c.MaxAge = -1
	j.jar.SetCookies(j.url, []*http.Cookie{c})
	return nil
}

func newCookie(name, value string, opts CookieOptions) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     opts.Path,
		Domain:   strings.TrimPrefix(opts.Domain, "."),
		Expires:  opts.Expires,
		MaxAge:   opts.MaxAge,
		Secure:   opts.Secure,
		HttpOnly: opts.HTTPOnly,
		SameSite: opts.SameSite,
	}
}
