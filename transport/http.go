package transport

import "net/http"

// HTTPCarrier adapts a net/http request/response pair to the [Carrier]
// interface. Hosts on other frameworks implement Carrier directly.
type HTTPCarrier struct {
	w http.ResponseWriter
	r *http.Request
}

// NewHTTPCarrier wraps a response writer and request.
func NewHTTPCarrier(w http.ResponseWriter, r *http.Request) *HTTPCarrier {
	return &HTTPCarrier{w: w, r: r}
}

// Cookie returns the named request cookie value.
func (h *HTTPCarrier) Cookie(name string) (string, bool) {
	c, err := h.r.Cookie(name)
	if err != nil || c.Value == "" {
		return "", false
	}
	return c.Value, true
}

// SetCookie appends a Set-Cookie header to the response.
func (h *HTTPCarrier) SetCookie(cookie *http.Cookie) {
	http.SetCookie(h.w, cookie)
}

// Header returns the named request header value.
func (h *HTTPCarrier) Header(name string) string {
	return h.r.Header.Get(name)
}
