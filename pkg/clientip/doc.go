// Package clientip resolves the originating client address behind reverse
// proxies and exposes it to request-scoped logging.
package clientip
