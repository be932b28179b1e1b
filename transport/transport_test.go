package transport

import (
	"net/http"
	"testing"
	"time"
)

const (
	desktopUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"
	mobileUA  = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1"
)

type fakeCarrier struct {
	headers map[string]string
	cookies map[string]string
	set     []*http.Cookie
}

func newFakeCarrier(userAgent string) *fakeCarrier {
	return &fakeCarrier{
		headers: map[string]string{"User-Agent": userAgent},
		cookies: map[string]string{},
	}
}

func (c *fakeCarrier) Cookie(name string) (string, bool) {
	v, ok := c.cookies[name]
	return v, ok && v != ""
}

func (c *fakeCarrier) SetCookie(cookie *http.Cookie) {
	c.set = append(c.set, cookie)
}

func (c *fakeCarrier) Header(name string) string {
	return c.headers[name]
}

func (c *fakeCarrier) lastCookie(t *testing.T, name string) *http.Cookie {
	t.Helper()
	for i := len(c.set) - 1; i >= 0; i-- {
		if c.set[i].Name == name {
			return c.set[i]
		}
	}
	t.Fatalf("no cookie %q written", name)
	return nil
}

func TestWriteSessionCookieDesktop(t *testing.T) {
	s := NewSelector(CookieConfig{})
	c := newFakeCarrier(desktopUA)
	expires := time.Now().Add(time.Hour)

	s.WriteSessionCookie(c, "tok-1", expires)

	cookie := c.lastCookie(t, DefaultSessionCookie)
	if cookie.Value != "tok-1" {
		t.Fatalf("value = %q", cookie.Value)
	}
	if !cookie.HttpOnly {
		t.Fatal("session cookie must be httpOnly")
	}
	if !cookie.Secure {
		t.Fatal("session cookie must be secure by default")
	}
	if cookie.SameSite != http.SameSiteLaxMode {
		t.Fatalf("samesite = %v", cookie.SameSite)
	}
	if cookie.Path != "/" {
		t.Fatalf("path = %q", cookie.Path)
	}
}

func TestMobileCarriersNeverReceiveCookies(t *testing.T) {
	s := NewSelector(CookieConfig{})
	c := newFakeCarrier(mobileUA)

	s.WriteSessionCookie(c, "tok-1", time.Now().Add(time.Hour))
	s.WriteTokenPair(c, "acc", time.Now().Add(time.Minute), "ref", time.Now().Add(time.Hour))
	s.WriteAccessCookie(c, "acc", time.Now().Add(time.Minute))
	s.ClearSessionCookie(c)
	s.ClearTokenPair(c)

	if len(c.set) != 0 {
		t.Fatalf("mobile carrier received %d cookies", len(c.set))
	}
}

func TestWriteTokenPairDesktop(t *testing.T) {
	s := NewSelector(CookieConfig{})
	c := newFakeCarrier(desktopUA)

	s.WriteTokenPair(c, "acc", time.Now().Add(time.Minute), "ref", time.Now().Add(time.Hour))

	if c.lastCookie(t, DefaultAccessCookie).Value != "acc" {
		t.Fatal("access cookie not written")
	}
	if c.lastCookie(t, DefaultRefreshCookie).Value != "ref" {
		t.Fatal("refresh cookie not written")
	}
}

func TestClearTokenPairExpiresBothCookies(t *testing.T) {
	s := NewSelector(CookieConfig{})
	c := newFakeCarrier(desktopUA)

	s.ClearTokenPair(c)

	for _, name := range []string{DefaultAccessCookie, DefaultRefreshCookie} {
		cookie := c.lastCookie(t, name)
		if cookie.Value != "" || cookie.MaxAge != -1 {
			t.Fatalf("cookie %q not expired: value=%q maxage=%d", name, cookie.Value, cookie.MaxAge)
		}
	}
}

func TestReadSessionTokenPrefersBearer(t *testing.T) {
	s := NewSelector(CookieConfig{})
	c := newFakeCarrier(desktopUA)
	c.cookies[DefaultSessionCookie] = "cookie-token"
	c.headers["Authorization"] = "Bearer header-token"

	tok, ok := s.ReadSessionToken(c)
	if !ok || tok != "header-token" {
		t.Fatalf("token = %q, ok = %v", tok, ok)
	}

	delete(c.headers, "Authorization")
	tok, ok = s.ReadSessionToken(c)
	if !ok || tok != "cookie-token" {
		t.Fatalf("cookie fallback token = %q, ok = %v", tok, ok)
	}
}

func TestReadAccessTokenByDevice(t *testing.T) {
	s := NewSelector(CookieConfig{})

	desktop := newFakeCarrier(desktopUA)
	desktop.cookies[DefaultAccessCookie] = "cookie-access"
	desktop.headers["Authorization"] = "Bearer header-access"
	if tok, _ := s.ReadAccessToken(desktop); tok != "cookie-access" {
		t.Fatalf("desktop token = %q, want cookie value", tok)
	}

	mobile := newFakeCarrier(mobileUA)
	mobile.cookies[DefaultAccessCookie] = "cookie-access"
	mobile.headers["Authorization"] = "Bearer header-access"
	if tok, _ := s.ReadAccessToken(mobile); tok != "header-access" {
		t.Fatalf("mobile token = %q, want bearer value", tok)
	}
}

func TestReadRefreshTokenMobileNever(t *testing.T) {
	s := NewSelector(CookieConfig{})

	mobile := newFakeCarrier(mobileUA)
	mobile.cookies[DefaultRefreshCookie] = "ref"
	if _, ok := s.ReadRefreshToken(mobile); ok {
		t.Fatal("mobile carrier must never yield a refresh token")
	}

	desktop := newFakeCarrier(desktopUA)
	desktop.cookies[DefaultRefreshCookie] = "ref"
	if tok, ok := s.ReadRefreshToken(desktop); !ok || tok != "ref" {
		t.Fatalf("desktop refresh token = %q, ok = %v", tok, ok)
	}
}

func TestBearerParsing(t *testing.T) {
	c := newFakeCarrier(desktopUA)

	if _, ok := Bearer(c); ok {
		t.Fatal("missing header yielded a bearer token")
	}

	c.headers["Authorization"] = "Basic dXNlcjpwYXNz"
	if _, ok := Bearer(c); ok {
		t.Fatal("basic auth yielded a bearer token")
	}

	c.headers["Authorization"] = "Bearer "
	if _, ok := Bearer(c); ok {
		t.Fatal("empty bearer value yielded a token")
	}

	c.headers["Authorization"] = "Bearer abc"
	if tok, ok := Bearer(c); !ok || tok != "abc" {
		t.Fatalf("token = %q, ok = %v", tok, ok)
	}
}

func TestCookieConfigOverrides(t *testing.T) {
	s := NewSelector(CookieConfig{
		SessionName:   "sid",
		Path:          "/app",
		Domain:        "example.com",
		SameSite:      http.SameSiteStrictMode,
		DisableSecure: true,
	})
	c := newFakeCarrier(desktopUA)

	s.WriteSessionCookie(c, "tok", time.Now().Add(time.Hour))

	cookie := c.lastCookie(t, "sid")
	if cookie.Path != "/app" || cookie.Domain != "example.com" {
		t.Fatalf("path/domain = %q/%q", cookie.Path, cookie.Domain)
	}
	if cookie.SameSite != http.SameSiteStrictMode {
		t.Fatalf("samesite = %v", cookie.SameSite)
	}
	if cookie.Secure {
		t.Fatal("secure should be disabled")
	}
}

func TestCookieConfigPerCookieAttributes(t *testing.T) {
	s := NewSelector(CookieConfig{
		Path: "/app",
		Refresh: CookieAttributes{
			Path:     "/app/auth/refresh",
			SameSite: http.SameSiteStrictMode,
		},
	})
	c := newFakeCarrier(desktopUA)

	s.WriteTokenPair(c, "acc", time.Now().Add(time.Minute), "ref", time.Now().Add(time.Hour))

	refresh := c.lastCookie(t, DefaultRefreshCookie)
	if refresh.Path != "/app/auth/refresh" {
		t.Fatalf("refresh path = %q", refresh.Path)
	}
	if refresh.SameSite != http.SameSiteStrictMode {
		t.Fatalf("refresh samesite = %v", refresh.SameSite)
	}

	// Cookies without an override keep the config-wide attributes.
	access := c.lastCookie(t, DefaultAccessCookie)
	if access.Path != "/app" {
		t.Fatalf("access path = %q", access.Path)
	}
	if access.SameSite != http.SameSiteLaxMode {
		t.Fatalf("access samesite = %v", access.SameSite)
	}
}
