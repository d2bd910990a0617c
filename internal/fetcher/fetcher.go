package fetcher

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/andybalholm/brotli"
	"golang.org/x/net/html/charset"

	"github.com/nao1215/sitecrawl/internal/model"
)

const (
	// DefaultUserAgent identifies the crawler as a desktop Firefox.
	DefaultUserAgent = "Mozilla/5.0 (X11; Ubuntu; Linux x86_64; rv:96.0) Gecko/20100101 Firefox/96.0"

	// DefaultTimeout bounds a whole request including the body read.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxBodySize is the body cap in bytes. 0 reads bodies whole
	// whatever their size.
	DefaultMaxBodySize int64 = 0

	// maxRedirects stops redirect loops.
	maxRedirects = 10
)

// HTTPFetcher fetches pages with net/http.
type HTTPFetcher struct {
	client      *http.Client
	userAgent   string
	timeout     time.Duration
	maxBodySize int64
	proxy       string
	cookie      string
	headers     map[string]string

	// custom is set by WithHTTPClient and skips transport construction.
	custom *http.Client
}

// Option configures an HTTPFetcher.
type Option func(*HTTPFetcher)

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(f *HTTPFetcher) {
		f.userAgent = ua
	}
}

// WithTimeout sets the per-request timeout. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(f *HTTPFetcher) {
		f.timeout = d
	}
}

// WithMaxBodySize caps the number of decoded body bytes per page. A larger
// body fails the fetch with ErrBodyTooLarge. Zero means no limit.
func WithMaxBodySize(n int64) Option {
	return func(f *HTTPFetcher) {
		f.maxBodySize = n
	}
}

// WithProxy routes requests through a proxy. See ParseProxy for the
// accepted forms.
func WithProxy(addr string) Option {
	return func(f *HTTPFetcher) {
		f.proxy = addr
	}
}

// WithCookie attaches a raw cookie string such as "session=abc" to every request.
func WithCookie(cookie string) Option {
	return func(f *HTTPFetcher) {
		f.cookie = cookie
	}
}

// WithHeaders sets extra request headers.
func WithHeaders(headers map[string]string) Option {
	return func(f *HTTPFetcher) {
		f.headers = make(map[string]string, len(headers))
		for k, v := range headers {
			f.headers[k] = v
		}
	}
}

// WithHTTPClient uses client as is. Proxy and timeout options are ignored;
// cookie and headers are still injected.
func WithHTTPClient(client *http.Client) Option {
	return func(f *HTTPFetcher) {
		f.custom = client
	}
}

// New creates an HTTPFetcher.
func New(opts ...Option) (*HTTPFetcher, error) {
	f := &HTTPFetcher{
		userAgent:   DefaultUserAgent,
		timeout:     DefaultTimeout,
		maxBodySize: DefaultMaxBodySize,
	}
	for _, opt := range opts {
		opt(f)
	}

	client := f.custom
	if client == nil {
		var err error
		if client, err = f.newHTTPClient(); err != nil {
			return nil, err
		}
	} else {
		// Shallow copy so the caller's client keeps its transport.
		c := *client
		client = &c
	}

	if f.cookie != "" || len(f.headers) > 0 {
		base := client.Transport
		if base == nil {
			base = http.DefaultTransport
		}
		client.Transport = &headerInjectingTransport{
			base:    base,
			cookie:  f.cookie,
			headers: f.headers,
		}
	}

	f.client = client
	return f, nil
}

func (f *HTTPFetcher) newHTTPClient() (*http.Client, error) {
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: 10 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		MaxIdleConns:          10,
		MaxIdleConnsPerHost:   2,
		IdleConnTimeout:       30 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		// Content-Encoding is decoded by readBody.
		DisableCompression: true,
	}

	if f.proxy != "" {
		u, err := ParseProxy(f.proxy)
		if err != nil {
			return nil, err
		}
		transport.Proxy = nil
		if err := applyProxy(transport, u); err != nil {
			return nil, err
		}
	}

	jar, _ := cookiejar.New(nil) //nolint:errcheck // cookiejar.New only fails with invalid options

	return &http.Client{
		Transport: transport,
		Timeout:   f.timeout,
		Jar:       jar,
		CheckRedirect: func(_ *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return http.ErrUseLastResponse
			}
			return nil
		},
	}, nil
}

// Fetch downloads rawURL and returns its body as UTF-8 text.
// Any content type is accepted; bytes that are not valid in the detected
// charset are replaced with U+FFFD.
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) (*model.Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL(rawURL), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/*;q=0.8,*/*;q=0.7")
	req.Header.Set("Accept-Encoding", "gzip, deflate, br")

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10)) //nolint:errcheck // drain for connection reuse
		return nil, &StatusError{StatusCode: resp.StatusCode, Status: resp.Status}
	}

	contentType := resp.Header.Get("Content-Type")
	raw, err := f.readBody(resp)
	if err != nil {
		return nil, err
	}

	page := &model.Page{
		URL:         rawURL,
		StatusCode:  resp.StatusCode,
		ContentType: contentType,
		Headers:     resp.Header.Clone(),
		Body:        decodeText(raw, contentType),
		FetchedAt:   time.Now(),
	}
	page.Duration = page.FetchedAt.Sub(start)
	page.ComputeHash()

	return page, nil
}

// requestURL returns rawURL in a form net/url accepts: a '%' that does not
// start an escape sequence is sent as "%25".
func requestURL(rawURL string) string {
	if _, err := url.Parse(rawURL); err == nil {
		return rawURL
	}

	var sb strings.Builder
	for i := 0; i < len(rawURL); i++ {
		c := rawURL[i]
		if c == '%' && (i+2 >= len(rawURL) || !isHex(rawURL[i+1]) || !isHex(rawURL[i+2])) {
			sb.WriteString("%25")
			continue
		}
		sb.WriteByte(c)
	}
	return sb.String()
}

func isHex(c byte) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}

// readBody undoes Content-Encoding and reads the whole body, failing when it
// is longer than maxBodySize.
func (f *HTTPFetcher) readBody(resp *http.Response) ([]byte, error) {
	if resp.Body == nil {
		return nil, ErrEmptyResponse
	}

	reader := io.Reader(resp.Body)
	switch strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding"))) {
	case "gzip", "x-gzip":
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("gzip decode: %w", err)
		}
		defer gz.Close()
		reader = gz
	case "deflate":
		fl := flate.NewReader(resp.Body)
		defer fl.Close()
		reader = fl
	case "br":
		reader = brotli.NewReader(resp.Body)
	}

	if f.maxBodySize > 0 {
		reader = io.LimitReader(reader, f.maxBodySize+1)
	}

	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if f.maxBodySize > 0 && int64(len(body)) > f.maxBodySize {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrBodyTooLarge, f.maxBodySize)
	}
	return body, nil
}

// decodeText converts raw to UTF-8 using the Content-Type charset, a BOM or
// <meta> sniffing, in that order of precedence.
func decodeText(raw []byte, contentType string) string {
	if len(raw) == 0 {
		return ""
	}

	r, err := charset.NewReader(bytes.NewReader(raw), contentType)
	if err != nil {
		return strings.ToValidUTF8(string(raw), "\uFFFD")
	}
	decoded, err := io.ReadAll(r)
	if err != nil {
		return strings.ToValidUTF8(string(raw), "\uFFFD")
	}
	return strings.ToValidUTF8(string(decoded), "\uFFFD")
}
