// Package transport holds http.RoundTripper decorators for the GitLab client.
package transport

import "net/http"

// AuthRoundTripper adds the bearer credential and User-Agent to every request.
type AuthRoundTripper struct {
	Base      http.RoundTripper
	Token     string
	UserAgent string
}

func (a *AuthRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	rt := a.Base
	if rt == nil {
		rt = http.DefaultTransport
	}

	// RoundTrip must not modify the caller's request.
	r := req.Clone(req.Context())
	if a.Token != "" {
		r.Header.Set("Authorization", "Bearer "+a.Token)
	}
	if a.UserAgent != "" {
		r.Header.Set("User-Agent", a.UserAgent)
	}
	return rt.RoundTrip(r)
}
