package httpserver

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNormaliseBasePath(t *testing.T) {
	cases := map[string]string{
		"":       "",
		"/":      "",
		"api":    "/api",
		"/api":   "/api",
		"/api/":  "/api",
		" /api ": "/api",
		"/a/b/":  "/a/b",
	}
	for in, want := range cases {
		if got := normaliseBasePath(in); got != want {
			t.Fatalf("normaliseBasePath(%q): expected %q, got %q", in, want, got)
		}
	}
}

func TestMountWithBasePath(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(r.URL.Path))
	})
	handler := mountWithBasePath("/xbin", inner)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/xbin/api/machines", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Body.String() != "/api/machines" {
		t.Fatalf("prefix not stripped, handler saw %q", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/other/path", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("paths outside the base must 404, got %d", rec.Code)
	}

	// A path that merely shares the prefix string is not under the base.
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/xbinextra", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for /xbinextra, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/xbin", nil))
	if rec.Body.String() != "/" {
		t.Fatalf("bare base path should map to root, got %q", rec.Body.String())
	}
}

func TestMountWithoutBasePathIsPassthrough(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(r.URL.Path))
	})
	handler := mountWithBasePath("", inner)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/machines", nil))
	if rec.Body.String() != "/api/machines" {
		t.Fatalf("expected passthrough, got %q", rec.Body.String())
	}
}
