package transport

import (
	"net/http"
	"strings"
	"time"

	"github.com/feldspar-io/authgate/internal"
)

// Default cookie names. Overridable through [CookieConfig].
const (
	DefaultSessionCookie = "auth_session"
	DefaultAccessCookie  = "auth_access_token"
	DefaultRefreshCookie = "auth_refresh_token"
)

// Carrier abstracts the HTTP channel a credential travels on. The engine
// only ever reads headers and reads/writes named cookies through it; the
// request/response objects themselves stay with the host framework.
type Carrier interface {
	Cookie(name string) (string, bool)
	SetCookie(cookie *http.Cookie)
	Header(name string) string
}

// CookieAttributes carries the placement attributes for one named cookie.
// Zero fields inherit the config-wide Path/Domain/SameSite values.
type CookieAttributes struct {
	Path     string
	Domain   string
	SameSite http.SameSite
}

func (a CookieAttributes) withFallback(path, domain string, sameSite http.SameSite) CookieAttributes {
	if a.Path == "" {
		a.Path = path
	}
	if a.Domain == "" {
		a.Domain = domain
	}
	if a.SameSite == 0 {
		a.SameSite = sameSite
	}
	return a
}

// CookieConfig carries the attribute overrides applied to the cookies the
// selector writes. Path/Domain/SameSite apply to all three cookies;
// Session/Access/Refresh override them per cookie. Zero values fall back
// to the documented defaults (secure, httpOnly, SameSite=Lax, path "/").
type CookieConfig struct {
	SessionName string
	AccessName  string
	RefreshName string

	Path     string
	Domain   string
	SameSite http.SameSite

	Session CookieAttributes
	Access  CookieAttributes
	Refresh CookieAttributes

	// DisableSecure drops the Secure attribute for non-TLS development
	// setups. Production deployments keep it set.
	DisableSecure bool
}

func (c CookieConfig) withDefaults() CookieConfig {
	if c.SessionName == "" {
		c.SessionName = DefaultSessionCookie
	}
	if c.AccessName == "" {
		c.AccessName = DefaultAccessCookie
	}
	if c.RefreshName == "" {
		c.RefreshName = DefaultRefreshCookie
	}
	if c.Path == "" {
		c.Path = "/"
	}
	if c.SameSite == 0 {
		c.SameSite = http.SameSiteLaxMode
	}
	c.Session = c.Session.withFallback(c.Path, c.Domain, c.SameSite)
	c.Access = c.Access.withFallback(c.Path, c.Domain, c.SameSite)
	c.Refresh = c.Refresh.withFallback(c.Path, c.Domain, c.SameSite)
	return c
}

// Selector decides whether credentials travel via cookies or bearer
// headers and performs cookie set/clear. Mobile and tablet clients never
// receive cookies: they carry the token themselves and present it via the
// Authorization header on each request.
type Selector struct {
	cookies CookieConfig
}

// NewSelector builds a selector with the given cookie policy.
func NewSelector(cfg CookieConfig) *Selector {
	return &Selector{cookies: cfg.withDefaults()}
}

// UseCookies reports whether the client behind the carrier should receive
// cookies. Absence of a user agent counts as a browser client.
func (s *Selector) UseCookies(c Carrier) bool {
	return !internal.IsMobileOrTablet(c.Header("User-Agent"))
}

// Bearer extracts the Authorization bearer value, if present.
func Bearer(c Carrier) (string, bool) {
	const prefix = "Bearer "
	value := c.Header("Authorization")
	if !strings.HasPrefix(value, prefix) {
		return "", false
	}
	tok := value[len(prefix):]
	if tok == "" {
		return "", false
	}
	return tok, true
}

// ReadSessionToken resolves the opaque session token: authorization header
// first, session cookie as the browser fallback.
func (s *Selector) ReadSessionToken(c Carrier) (string, bool) {
	if tok, ok := Bearer(c); ok {
		return tok, true
	}
	return c.Cookie(s.cookies.SessionName)
}

// ReadAccessToken resolves the JWT access token. Mobile clients present it
// exclusively via the authorization header; browser clients via the access
// cookie with the header as fallback.
func (s *Selector) ReadAccessToken(c Carrier) (string, bool) {
	if !s.UseCookies(c) {
		return Bearer(c)
	}
	if tok, ok := c.Cookie(s.cookies.AccessName); ok {
		return tok, true
	}
	return Bearer(c)
}

// ReadRefreshToken resolves the JWT refresh token. Mobile clients never
// refresh silently, so the refresh cookie is only consulted for browser
// clients.
func (s *Selector) ReadRefreshToken(c Carrier) (string, bool) {
	if !s.UseCookies(c) {
		return "", false
	}
	return c.Cookie(s.cookies.RefreshName)
}

// WriteSessionCookie delivers an opaque session token to browser clients.
// No-op for mobile/tablet carriers.
func (s *Selector) WriteSessionCookie(c Carrier, token string, expiresAt time.Time) {
	if !s.UseCookies(c) {
		return
	}
	c.SetCookie(s.cookie(s.cookies.SessionName, token, expiresAt))
}

// WriteTokenPair delivers a JWT access/refresh pair to browser clients.
// No-op for mobile/tablet carriers.
func (s *Selector) WriteTokenPair(c Carrier, access string, accessExpiresAt time.Time, refresh string, refreshExpiresAt time.Time) {
	if !s.UseCookies(c) {
		return
	}
	c.SetCookie(s.cookie(s.cookies.AccessName, access, accessExpiresAt))
	c.SetCookie(s.cookie(s.cookies.RefreshName, refresh, refreshExpiresAt))
}

// WriteAccessCookie replaces only the access cookie, used when a fresh
// access token is minted without rotating the refresh credential.
func (s *Selector) WriteAccessCookie(c Carrier, access string, expiresAt time.Time) {
	if !s.UseCookies(c) {
		return
	}
	c.SetCookie(s.cookie(s.cookies.AccessName, access, expiresAt))
}

// ClearSessionCookie expires the session cookie on browser clients. Mobile
// clients own their token storage and are left alone.
func (s *Selector) ClearSessionCookie(c Carrier) {
	if !s.UseCookies(c) {
		return
	}
	c.SetCookie(s.expired(s.cookies.SessionName))
}

// ClearTokenPair expires both JWT cookies on browser clients.
func (s *Selector) ClearTokenPair(c Carrier) {
	if !s.UseCookies(c) {
		return
	}
	c.SetCookie(s.expired(s.cookies.AccessName))
	c.SetCookie(s.expired(s.cookies.RefreshName))
}

func (s *Selector) attrsFor(name string) CookieAttributes {
	switch name {
	case s.cookies.AccessName:
		return s.cookies.Access
	case s.cookies.RefreshName:
		return s.cookies.Refresh
	default:
		return s.cookies.Session
	}
}

func (s *Selector) cookie(name, value string, expiresAt time.Time) *http.Cookie {
	attrs := s.attrsFor(name)
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     attrs.Path,
		Domain:   attrs.Domain,
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   !s.cookies.DisableSecure,
		SameSite: attrs.SameSite,
	}
}

func (s *Selector) expired(name string) *http.Cookie {
	c := s.cookie(name, "", time.Unix(0, 0))
	c.MaxAge = -1
	return c
}
