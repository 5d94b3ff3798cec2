package source

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"

	"bookfetch/internal/errs"
)

func TestGetReturnsBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("hello"))
	}))
	defer server.Close()

	session := NewSession()
	body, err := session.Get(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if string(body) != "hello" {
		t.Fatalf("unexpected body: %q", body)
	}
}

func TestGetNon200IsRequestError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer server.Close()

	session := NewSession()
	if _, err := session.Get(context.Background(), server.URL); !errors.Is(err, errs.ErrRequest) {
		t.Fatalf("expected request error, got %v", err)
	}
}

func TestGetJSONDecodes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id": 7, "title": "book"}`))
	}))
	defer server.Close()

	session := NewSession()
	var payload struct {
		ID    int    `json:"id"`
		Title string `json:"title"`
	}
	if err := session.GetJSON(context.Background(), server.URL, &payload); err != nil {
		t.Fatalf("GetJSON returned error: %v", err)
	}
	if payload.ID != 7 || payload.Title != "book" {
		t.Fatalf("unexpected payload: %+v", payload)
	}
}

func TestGetJSONDecodeErrorIsNotRequestError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer server.Close()

	session := NewSession()
	var payload map[string]any
	err := session.GetJSON(context.Background(), server.URL, &payload)
	if err == nil {
		t.Fatal("expected decode error")
	}
	if errors.Is(err, errs.ErrRequest) {
		t.Fatalf("decode error misclassified as request error: %v", err)
	}
}

func TestPostSendsForm(t *testing.T) {
	var gotContentType, gotBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		r.ParseForm()
		gotBody = r.PostForm.Encode()
	}))
	defer server.Close()

	session := NewSession()
	values := url.Values{"username": {"alice"}}
	if _, err := session.Post(context.Background(), server.URL, WithFormBody(values)); err != nil {
		t.Fatalf("Post returned error: %v", err)
	}
	if gotContentType != "application/x-www-form-urlencoded" {
		t.Fatalf("unexpected content type %q", gotContentType)
	}
	if gotBody != "username=alice" {
		t.Fatalf("unexpected form body %q", gotBody)
	}
}

func TestPageCachesByExactURL(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte("page"))
	}))
	defer server.Close()

	session := NewSession()
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if _, err := session.Page(ctx, server.URL); err != nil {
			t.Fatalf("Page returned error: %v", err)
		}
	}
	if hits.Load() != 1 {
		t.Fatalf("expected a single fetch, got %d", hits.Load())
	}
}

// The cache key is the URL alone: refetching with different headers reuses
// the first response. Known quirk, pinned here on purpose.
func TestPageCacheIgnoresHeaders(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte("variant " + r.Header.Get("X-Variant")))
	}))
	defer server.Close()

	session := NewSession()
	ctx := context.Background()
	first, err := session.Page(ctx, server.URL, WithHeader("X-Variant", "a"))
	if err != nil {
		t.Fatalf("Page returned error: %v", err)
	}
	second, err := session.Page(ctx, server.URL, WithHeader("X-Variant", "b"))
	if err != nil {
		t.Fatalf("Page returned error: %v", err)
	}
	if string(first) != string(second) {
		t.Fatalf("cache served different responses: %q vs %q", first, second)
	}
	if hits.Load() != 1 {
		t.Fatalf("expected a single fetch, got %d", hits.Load())
	}
}

func TestForceCookiesAttachesCookieHeader(t *testing.T) {
	var gotCookie string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCookie = r.Header.Get("Cookie")
	}))
	defer server.Close()

	session := NewSession()
	serverURL, _ := url.Parse(server.URL)
	session.client.Jar.SetCookies(serverURL, []*http.Cookie{{Name: "sid", Value: "abc"}})

	if _, err := session.Get(context.Background(), server.URL, WithForceCookies()); err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if gotCookie != "sid=abc" {
		t.Fatalf("unexpected cookie header %q", gotCookie)
	}
}
