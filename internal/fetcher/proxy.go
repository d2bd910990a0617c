package fetcher

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/net/proxy"
)

// ParseProxy parses a proxy value.
// A bare "host:port" is treated as a SOCKS5 proxy, which is what a local
// Tor daemon or ssh -D tunnel exposes.
func ParseProxy(addr string) (*url.URL, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, ErrInvalidProxyAddress
	}

	if !strings.Contains(addr, "://") {
		if !isValidHostPort(addr) {
			return nil, ErrInvalidProxyAddress
		}
		return &url.URL{Scheme: "socks5", Host: addr}, nil
	}

	u, err := url.Parse(addr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidProxyAddress, err)
	}
	switch u.Scheme {
	case "socks5", "socks5h", "http", "https":
	default:
		return nil, ErrInvalidProxyAddress
	}
	if !isValidHostPort(u.Host) {
		return nil, ErrInvalidProxyAddress
	}
	return u, nil
}

// isValidHostPort checks for a non-empty host and a port in 1..65535.
func isValidHostPort(address string) bool {
	host, port, err := net.SplitHostPort(address)
	if err != nil || host == "" {
		return false
	}
	n, err := strconv.Atoi(port)
	if err != nil {
		return false
	}
	return n >= 1 && n <= 65535
}

// applyProxy configures transport to route through u.
func applyProxy(transport *http.Transport, u *url.URL) error {
	switch u.Scheme {
	case "http", "https":
		transport.Proxy = http.ProxyURL(u)
		return nil
	}

	dialer, err := proxy.FromURL(u, proxy.Direct)
	if err != nil {
		return fmt.Errorf("failed to create SOCKS5 dialer: %w", err)
	}

	if cd, ok := dialer.(proxy.ContextDialer); ok {
		transport.DialContext = cd.DialContext
		return nil
	}
	transport.DialContext = func(_ context.Context, network, addr string) (net.Conn, error) {
		return dialer.Dial(network, addr)
	}
	return nil
}
