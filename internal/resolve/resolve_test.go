package resolve

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func TestResolve_FollowsRedirects(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		switch req.URL.Path {
		case "/doi":
			hits.Add(1)
			http.Redirect(w, req, "/article/42", http.StatusFound)
		case "/article/42":
			w.WriteHeader(http.StatusOK)
		default:
			http.NotFound(w, req)
		}
	}))
	defer srv.Close()

	r := New(WithRateLimit(1000))
	ctx := context.Background()

	got := r.Resolve(ctx, srv.URL+"/doi")
	want := srv.URL + "/article/42"
	if got != want {
		t.Errorf("Resolve() = %q, want %q", got, want)
	}

	// Second resolution comes from the cache.
	if again := r.Resolve(ctx, srv.URL+"/doi"); again != want {
		t.Errorf("cached Resolve() = %q, want %q", again, want)
	}
	if hits.Load() != 1 {
		t.Errorf("origin hit %d times, want 1", hits.Load())
	}
}

func TestResolve_ErrorsReturnOriginal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		http.Error(w, "no bots", http.StatusForbidden)
	}))
	defer srv.Close()

	r := New(WithRateLimit(1000))
	url := srv.URL + "/paper"
	if got := r.Resolve(context.Background(), url); got != url {
		t.Errorf("Resolve() = %q, want original %q on 403", got, url)
	}

	dead := "http://127.0.0.1:1/nope"
	if got := r.Resolve(context.Background(), dead); got != dead {
		t.Errorf("Resolve() = %q, want original on connection error", got)
	}

	if got := r.Resolve(context.Background(), ""); got != "" {
		t.Errorf("Resolve(\"\") = %q", got)
	}
}

func TestResolve_SendsBrowserUserAgent(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		gotUA = req.Header.Get("User-Agent")
	}))
	defer srv.Close()

	New(WithRateLimit(1000)).Resolve(context.Background(), srv.URL)
	if gotUA != userAgent {
		t.Errorf("User-Agent = %q", gotUA)
	}
}
