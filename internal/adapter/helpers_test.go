package adapter

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/amishk599/atsprobe/internal/model"
)

// roundTripFunc adapts a function into an http.RoundTripper.
type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

// testOptions returns adapter options whose client sends every request to srv.
// The original host stays in the Host header so handlers can route on r.Host.
func testOptions(srv *httptest.Server) Options {
	return Options{
		Client: &http.Client{
			Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
				req.URL.Scheme = "http"
				req.URL.Host = srv.Listener.Addr().String()
				return http.DefaultTransport.RoundTrip(req)
			}),
		},
		RateLimits: map[model.Provider]time.Duration{model.ProviderWorkable: 0},
	}
}

func isHTTPError(err error, target **model.HTTPError) bool {
	return errors.As(err, target)
}

// jsonHandler serves a fixed JSON payload.
func jsonHandler(payload string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(payload))
	}
}
