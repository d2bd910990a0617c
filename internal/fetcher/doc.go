// Package fetcher retrieves pages over HTTP for the crawler.
//
// HTTPFetcher sends an identifying User-Agent, decodes gzip, deflate and
// brotli content encodings, caps the body at a configurable size and
// converts it to UTF-8 text using the declared or sniffed charset.
// Requests can be routed through a SOCKS5 or HTTP proxy, and a cookie plus
// arbitrary headers can be attached to every request.
package fetcher
