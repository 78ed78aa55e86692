// AngelaMos | 2026
// cookie.go

package cookie

import (
	"net/http"
	"time"
)

// Jar is the request's cookies as plain values. Resolvers read from a Jar and
// return the cookies to set instead of touching the response themselves.
type Jar map[string]string

func FromRequest(r *http.Request) Jar {
	cookies := r.Cookies()
	jar := make(Jar, len(cookies))
	for _, c := range cookies {
		if _, seen := jar[c.Name]; seen {
			continue
		}
		jar[c.Name] = c.Value
	}
	return jar
}

func (j Jar) Get(name string) (string, bool) {
	v, ok := j[name]
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// Policy holds the attributes shared by every cookie this service writes.
type Policy struct {
	Secure bool
	Domain string
}

// New builds an HTTP-only, SameSite=Lax cookie scoped to the site root. A
// zero maxAge yields a session cookie.
func (p Policy) New(name, value string, maxAge time.Duration) *http.Cookie {
	c := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   p.Domain,
		HttpOnly: true,
		Secure:   p.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	if maxAge > 0 {
		c.MaxAge = int(maxAge / time.Second)
		c.Expires = time.Now().Add(maxAge).UTC()
	}
	return c
}

func (p Policy) Expire(name string) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Domain:   p.Domain,
		HttpOnly: true,
		Secure:   p.Secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0).UTC(),
	}
}

func Write(w http.ResponseWriter, cookies ...*http.Cookie) {
	for _, c := range cookies {
		http.SetCookie(w, c)
	}
}
