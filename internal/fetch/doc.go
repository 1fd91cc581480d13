// Package fetch retrieves pages over HTTP for the crawler.
//
// HTTPFetcher sets a User-Agent and optional headers and cookie on every
// request. It caps the body size and can route requests through a SOCKS5
// proxy, such as a local Tor daemon. When a delay is configured, all
// requests share one rate limiter, so the delay holds across concurrent
// workers rather than per worker.
//
// Non-2xx responses are errors. The crawler treats a failed fetch as
// absent and produces no records for it; no retry is attempted here.
package fetch
