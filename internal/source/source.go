package source

import (
	"context"
	"regexp"

	"bookfetch/internal/audiobook"
	"bookfetch/internal/errs"
)

// AuthMethod is one way a source can be authenticated.
type AuthMethod int

const (
	// AuthCookies authenticates by loading a Netscape cookie jar file.
	AuthCookies AuthMethod = iota
	// AuthLogin authenticates with username/password credentials.
	AuthLogin
)

// Credentials carries login data from config or flags to a source's login
// hook. Library is used by vendors that scope accounts to a library.
type Credentials struct {
	Username string
	Password string
	Library  string
}

// Source is the capability surface every site adapter implements. Download
// is the sole entry point the driver calls once authentication is settled;
// DownloadFromID resolves the opaque placeholders the same source put into a
// series. Capabilities a source lacks degrade to empty results, not errors.
type Source interface {
	// Names lists display names, primary first.
	Names() []string
	// Match lists the URL patterns that claim this source.
	Match() []*regexp.Regexp

	AuthMethods() []AuthMethod
	RequiresAuthentication() bool
	SupportsCookies() bool
	SupportsLogin() bool
	Authenticated() bool
	MarkAuthenticated()
	LoadCookieFile(path string) error

	Session() *Session

	Download(ctx context.Context, rawURL string) (audiobook.Result, error)
	DownloadFromID(ctx context.Context, id audiobook.BookID) (*audiobook.Book, error)
	Login(ctx context.Context, rawURL string, creds Credentials) error
}

// Base supplies the session, authentication state machine, and default hooks
// shared by all adapters. The authenticated flag is sticky: once set by a
// cookie load or login it stays set for the lifetime of the instance.
type Base struct {
	session       *Session
	authMethods   []AuthMethod
	authenticated bool
}

// NewBase builds the shared adapter state. methods may be empty for sources
// that never require authentication.
func NewBase(session *Session, methods ...AuthMethod) Base {
	return Base{session: session, authMethods: methods}
}

// Session returns the adapter's HTTP session.
func (b *Base) Session() *Session { return b.session }

// AuthMethods returns the supported authentication methods.
func (b *Base) AuthMethods() []AuthMethod {
	return append([]AuthMethod(nil), b.authMethods...)
}

// RequiresAuthentication reports whether any authentication is needed.
func (b *Base) RequiresAuthentication() bool { return len(b.authMethods) > 0 }

// SupportsCookies reports whether a cookie file can authenticate this source.
func (b *Base) SupportsCookies() bool { return b.supports(AuthCookies) }

// SupportsLogin reports whether credentials can authenticate this source.
func (b *Base) SupportsLogin() bool { return b.supports(AuthLogin) }

// Authenticated reports whether authentication has succeeded.
func (b *Base) Authenticated() bool { return b.authenticated }

// MarkAuthenticated records a successful cookie load or login.
func (b *Base) MarkAuthenticated() { b.authenticated = true }

func (b *Base) supports(method AuthMethod) bool {
	for _, m := range b.authMethods {
		if m == method {
			return true
		}
	}
	return false
}

// DownloadFromID is the default hook for sources that never produce series
// placeholders.
func (b *Base) DownloadFromID(ctx context.Context, id audiobook.BookID) (*audiobook.Book, error) {
	return nil, errs.Wrap(errs.ErrBookNotFound, "source", "download_from_id", id.String(), nil)
}

// Login is the default hook for sources without credential login.
func (b *Base) Login(ctx context.Context, rawURL string, creds Credentials) error {
	return nil
}

// Login settles credential authentication for a source: it runs the
// adapter's hook and records success. Sources without login support are left
// untouched.
func Login(ctx context.Context, src Source, rawURL string, creds Credentials) error {
	if !src.SupportsLogin() {
		return nil
	}
	if err := src.Login(ctx, rawURL, creds); err != nil {
		return errs.Wrap(errs.ErrUserNotAuthorized, "source", "login", src.Names()[0], err)
	}
	src.MarkAuthenticated()
	return nil
}
