package source

import (
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/mengzhuo/cookiestxt"
)

// LoadCookieFile authenticates by loading a Netscape-format cookie jar.
// Expiry timestamps are deliberately dropped so already-expired cookies
// still reach the server; several vendors keep honoring them. Sources
// without cookie support ignore the call.
func (b *Base) LoadCookieFile(path string) error {
	if !b.SupportsCookies() {
		return nil
	}
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open cookie file: %w", err)
	}
	defer file.Close()

	cookies, err := cookiestxt.Parse(file)
	if err != nil {
		return fmt.Errorf("parse cookie file %s: %w", path, err)
	}

	jar := b.session.client.Jar
	for _, cookie := range cookies {
		cookie.Expires = time.Time{}
		cookie.MaxAge = 0
		jar.SetCookies(cookieOrigin(cookie), []*http.Cookie{cookie})
	}
	b.authenticated = true
	return nil
}

func cookieOrigin(cookie *http.Cookie) *url.URL {
	host := strings.TrimPrefix(cookie.Domain, ".")
	scheme := "https"
	if !cookie.Secure {
		scheme = "http"
	}
	return &url.URL{Scheme: scheme, Host: host, Path: "/"}
}
