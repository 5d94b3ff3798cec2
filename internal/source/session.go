package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"
)

const defaultUserAgent = "bookfetch"

// Session owns all outbound HTTP for one source instance: the cookie-bearing
// client, request decoration, and the page cache. A session is never shared
// between source instances; the cache is keyed by exact URL only, so a
// re-fetch of the same URL with different headers reuses the first response.
type Session struct {
	client    *http.Client
	logger    *slog.Logger
	userAgent string

	mu    sync.Mutex
	pages map[string][]byte
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithTimeout overrides the request timeout.
func WithTimeout(timeout time.Duration) SessionOption {
	return func(s *Session) {
		if timeout > 0 {
			s.client.Timeout = timeout
		}
	}
}

// WithUserAgent overrides the User-Agent header attached to every request.
func WithUserAgent(agent string) SessionOption {
	return func(s *Session) {
		if agent != "" {
			s.userAgent = agent
		}
	}
}

// WithLogger attaches a logger used for debug dumps of failed responses.
func WithLogger(logger *slog.Logger) SessionOption {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewSession constructs a session with its own cookie jar and page cache.
func NewSession(opts ...SessionOption) *Session {
	jar, _ := cookiejar.New(nil)
	session := &Session{
		client: &http.Client{
			Jar:     jar,
			Timeout: 30 * time.Second,
		},
		logger:    slog.Default(),
		userAgent: defaultUserAgent,
		pages:     map[string][]byte{},
	}
	for _, opt := range opts {
		opt(session)
	}
	return session
}

// Client returns the underlying HTTP client, for handing to the downloader.
func (s *Session) Client() *http.Client {
	return s.client
}

// RequestOption decorates a single request.
type RequestOption func(*requestSpec)

type requestSpec struct {
	headers      map[string]string
	body         io.Reader
	contentType  string
	forceCookies bool
}

// WithHeaders attaches headers to the request.
func WithHeaders(headers map[string]string) RequestOption {
	return func(spec *requestSpec) {
		if spec.headers == nil {
			spec.headers = map[string]string{}
		}
		for key, value := range headers {
			spec.headers[key] = value
		}
	}
}

// WithHeader attaches a single header to the request.
func WithHeader(key, value string) RequestOption {
	return func(spec *requestSpec) {
		if spec.headers == nil {
			spec.headers = map[string]string{}
		}
		spec.headers[key] = value
	}
}

// WithFormBody attaches URL-encoded form values as the request body.
func WithFormBody(values url.Values) RequestOption {
	return func(spec *requestSpec) {
		spec.body = strings.NewReader(values.Encode())
		spec.contentType = "application/x-www-form-urlencoded"
	}
}

// WithJSONBody marshals payload as the JSON request body.
func WithJSONBody(payload any) RequestOption {
	return func(spec *requestSpec) {
		data, err := json.Marshal(payload)
		if err != nil {
			spec.body = &errorReader{err: err}
			return
		}
		spec.body = bytes.NewReader(data)
		spec.contentType = "application/json"
	}
}

// WithForceCookies attaches the session's cookies explicitly as a Cookie
// header. Some vendors reject jar-attached cookies on specific endpoints.
func WithForceCookies() RequestOption {
	return func(spec *requestSpec) {
		spec.forceCookies = true
	}
}

type errorReader struct{ err error }

func (r *errorReader) Read([]byte) (int, error) { return 0, r.err }

// Get issues an authenticated GET and returns the body. Any status other
// than 200 is a request error; the body is logged at debug level.
func (s *Session) Get(ctx context.Context, rawURL string, opts ...RequestOption) ([]byte, error) {
	return s.do(ctx, http.MethodGet, rawURL, opts...)
}

// Post issues an authenticated POST with the same contract as Get.
func (s *Session) Post(ctx context.Context, rawURL string, opts ...RequestOption) ([]byte, error) {
	return s.do(ctx, http.MethodPost, rawURL, opts...)
}

// GetJSON fetches rawURL and decodes the body into target. Request errors
// propagate unchanged; decode errors are reported as such, never swallowed.
func (s *Session) GetJSON(ctx context.Context, rawURL string, target any, opts ...RequestOption) error {
	body, err := s.Get(ctx, rawURL, opts...)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, target); err != nil {
		return fmt.Errorf("decode json from %s: %w", rawURL, err)
	}
	return nil
}

// PostJSON posts to rawURL and decodes the response body into target.
func (s *Session) PostJSON(ctx context.Context, rawURL string, target any, opts ...RequestOption) error {
	body, err := s.Post(ctx, rawURL, opts...)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, target); err != nil {
		return fmt.Errorf("decode json from %s: %w", rawURL, err)
	}
	return nil
}

// Page fetches rawURL through the per-session cache. The first response for
// a URL wins regardless of request options on later calls.
func (s *Session) Page(ctx context.Context, rawURL string, opts ...RequestOption) ([]byte, error) {
	s.mu.Lock()
	cached, ok := s.pages[rawURL]
	s.mu.Unlock()
	if ok {
		return cached, nil
	}

	body, err := s.Get(ctx, rawURL, opts...)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.pages[rawURL] = body
	s.mu.Unlock()
	return body, nil
}

func (s *Session) do(ctx context.Context, method, rawURL string, opts ...RequestOption) ([]byte, error) {
	spec := requestSpec{}
	for _, opt := range opts {
		opt(&spec)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, spec.body)
	if err != nil {
		return nil, wrapRequestErr("build request", rawURL, err)
	}
	req.Header.Set("User-Agent", s.userAgent)
	if spec.contentType != "" {
		req.Header.Set("Content-Type", spec.contentType)
	}
	for key, value := range spec.headers {
		req.Header.Set(key, value)
	}
	if spec.forceCookies {
		req.Header.Set("Cookie", s.cookieHeader(req.URL))
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, wrapRequestErr(method, rawURL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, wrapRequestErr("read body", rawURL, err)
	}
	if resp.StatusCode != http.StatusOK {
		s.logger.Debug("request failed",
			"url", rawURL,
			"status", resp.StatusCode,
			"body", string(body))
		return nil, wrapRequestErr(method, rawURL, fmt.Errorf("status %d", resp.StatusCode))
	}
	return body, nil
}

func (s *Session) cookieHeader(u *url.URL) string {
	pairs := make([]string, 0, 8)
	for _, cookie := range s.client.Jar.Cookies(u) {
		pairs = append(pairs, cookie.Name+"="+cookie.Value)
	}
	return strings.Join(pairs, "; ")
}
