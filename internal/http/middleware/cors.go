package middleware

import (
	"net/http"
	"strings"
)

const (
	corsAllowHeaders = "Content-Type"
	corsAllowMethods = "POST, OPTIONS"
)

// CORSPolicy decides which origin the intake endpoint advertises. Headers are
// always emitted; an unlisted origin gets the first configured one.
type CORSPolicy struct {
	allowAny bool
	origins  []string
	allow    map[string]struct{}
}

// NewCORSPolicy builds a policy from configured origins. "*" (or an empty
// list) allows any origin.
func NewCORSPolicy(allowedOrigins []string) CORSPolicy {
	p := CORSPolicy{allow: map[string]struct{}{}}
	for _, origin := range allowedOrigins {
		origin = strings.TrimSpace(origin)
		if origin == "" {
			continue
		}
		if origin == "*" {
			p.allowAny = true
			continue
		}
		if _, dup := p.allow[origin]; !dup {
			p.origins = append(p.origins, origin)
		}
		p.allow[origin] = struct{}{}
	}
	if len(p.origins) == 0 {
		p.allowAny = true
	}
	return p
}

// AllowOrigin returns the Access-Control-Allow-Origin value for a request.
func (p CORSPolicy) AllowOrigin(requestOrigin string) string {
	if p.allowAny || len(p.origins) == 0 {
		return "*"
	}
	if _, ok := p.allow[strings.TrimSpace(requestOrigin)]; ok {
		return strings.TrimSpace(requestOrigin)
	}
	return p.origins[0]
}

// Headers returns the cross-origin headers for a response.
func (p CORSPolicy) Headers(requestOrigin string) map[string]string {
	h := map[string]string{
		"Access-Control-Allow-Origin":  p.AllowOrigin(requestOrigin),
		"Access-Control-Allow-Headers": corsAllowHeaders,
		"Access-Control-Allow-Methods": corsAllowMethods,
	}
	if len(p.origins) > 1 && !p.allowAny {
		h["Vary"] = "Origin"
	}
	return h
}

// CORS stamps the policy's headers on every response, errors and preflight
// included. The wrapped handler answers OPTIONS itself.
func CORS(policy CORSPolicy) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for k, v := range policy.Headers(r.Header.Get("Origin")) {
				if k == "Vary" {
					w.Header().Add(k, v)
					continue
				}
				w.Header().Set(k, v)
			}
			next.ServeHTTP(w, r)
		})
	}
}
