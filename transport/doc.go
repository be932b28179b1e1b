// Package transport decides how credentials travel between client and
// engine: httpOnly cookies for browser clients, bearer headers for mobile
// and tablet clients. The [Selector] owns the decision and all cookie
// writes; the [Carrier] interface keeps the engine independent of any HTTP
// framework.
//
// # What this package must NOT do
//
//   - Validate credentials. It moves strings, nothing more.
//   - Set cookies for a mobile/tablet user agent, ever — those clients own
//     their token storage.
package transport
