package geoip

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(t *testing.T, token string, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{BaseURL: srv.URL + "/", Token: token})
}

func TestLookup(t *testing.T) {
	c := newTestClient(t, "", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/203.0.113.7" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		fmt.Fprint(w, `{"ip": "203.0.113.7", "city": "Seattle", "loc": "47.6062,-122.3321"}`)
	}))

	point, err := c.Lookup(context.Background(), "203.0.113.7")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if point == nil {
		t.Fatal("expected a point")
	}
	if point.Lat != 47.6062 || point.Lon != -122.3321 {
		t.Fatalf("unexpected point %+v", point)
	}
}

func TestLookup_ForwardsToken(t *testing.T) {
	c := newTestClient(t, "secret", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("token"); got != "secret" {
			t.Errorf("token not forwarded, got %q", got)
		}
		fmt.Fprint(w, `{"loc": "1,2"}`)
	}))

	if _, err := c.Lookup(context.Background(), "203.0.113.7"); err != nil {
		t.Fatalf("Lookup: %v", err)
	}
}

func TestLookup_MissReturnsNil(t *testing.T) {
	cases := map[string]http.HandlerFunc{
		"status 404 in body": func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"status": 404, "error": "unknown address"}`)
		},
		"missing loc": func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"ip": "203.0.113.7", "bogon": true}`)
		},
		"malformed loc": func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"loc": "somewhere"}`)
		},
		"http 404": func(w http.ResponseWriter, r *http.Request) {
			http.NotFound(w, r)
		},
	}
	for name, handler := range cases {
		c := newTestClient(t, "", handler)
		point, err := c.Lookup(context.Background(), "203.0.113.7")
		if err != nil {
			t.Errorf("%s: unexpected error %v", name, err)
		}
		if point != nil {
			t.Errorf("%s: expected nil point, got %+v", name, point)
		}
	}
}
