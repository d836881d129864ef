// Package metadata fetches a page and pulls a preview title and description
// out of its markup. Extraction never fails: when the page cannot be fetched
// the hostname stands in for the title.
package metadata

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/joestump/link-library/internal/metrics"
)

const (
	// DefaultUserAgent identifies fetches made on behalf of the application.
	DefaultUserAgent = "Mozilla/5.0 (compatible; LinkLibrary/1.0)"

	defaultTimeout = 10 * time.Second
	maxBodyBytes   = 2 << 20
	maxRedirects   = 5
)

var (
	titleRe = regexp.MustCompile(`(?i)<title[^>]*>([^<]+)</title>`)

	// The description meta tag is matched with name before content and with
	// content before name.
	descNameFirstRe    = regexp.MustCompile(`(?i)<meta[^>]*name=["']description["'][^>]*content=["']([^"']+)["'][^>]*>`)
	descContentFirstRe = regexp.MustCompile(`(?i)<meta[^>]*content=["']([^"']+)["'][^>]*name=["']description["'][^>]*>`)

	errPrivateHost = errors.New("host resolves to a private or reserved address")
)

// Metadata is the preview shown for a URL.
type Metadata struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
}

// Options configures an Extractor. Zero values select defaults.
type Options struct {
	UserAgent string
	Timeout   time.Duration
	// RateLimit caps outbound fetches per second across all callers.
	// Zero disables pacing.
	RateLimit float64
	// AllowPrivateHosts permits fetching loopback and private network
	// addresses.
	AllowPrivateHosts bool
	// Client overrides the HTTP client. Timeout still bounds each call, but
	// redirect and dial-time address checks are left to the client.
	Client *http.Client
}

// Extractor fetches pages for link previews.
type Extractor struct {
	client    *http.Client
	userAgent string
	timeout   time.Duration
	limiter   *rate.Limiter
	// blocked reports addresses that must not be fetched. Nil allows all.
	blocked func(net.IP) bool
	log     *zap.Logger
}

// New returns an Extractor configured by opts.
func New(opts Options, log *zap.Logger) *Extractor {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}

	e := &Extractor{
		userAgent: opts.UserAgent,
		timeout:   opts.Timeout,
		log:       log.Named("metadata"),
	}
	if !opts.AllowPrivateHosts {
		e.blocked = isPrivateIP
	}
	if opts.RateLimit > 0 {
		e.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	}

	e.client = opts.Client
	if e.client == nil {
		e.client = e.newClient()
	}
	return e
}

// Extract returns the title and description of the page at rawURL. Any
// failure yields the hostname as title and an empty description.
func (e *Extractor) Extract(ctx context.Context, rawURL string) Metadata {
	result := Metadata{URL: rawURL, Title: rawURL}

	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		metrics.MetadataFetchesTotal.WithLabelValues("invalid").Inc()
		e.log.Warn("unparseable url", zap.String("url", rawURL))
		return result
	}
	result.Title = strings.ToLower(u.Hostname())

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	html, err := e.fetch(ctx, u)
	if err != nil {
		metrics.MetadataFetchesTotal.WithLabelValues("fallback").Inc()
		e.log.Warn("metadata fetch failed", zap.String("url", rawURL), zap.Error(err))
		return result
	}
	metrics.MetadataFetchesTotal.WithLabelValues("ok").Inc()

	if title := firstGroup(html, titleRe); title != "" {
		result.Title = title
	}
	result.Description = firstGroup(html, descNameFirstRe)
	if result.Description == "" {
		result.Description = firstGroup(html, descContentFirstRe)
	}
	return result
}

func (e *Extractor) fetch(ctx context.Context, u *url.URL) (string, error) {
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if err := e.checkHost(ctx, u.Hostname()); err != nil {
		return "", err
	}
	if e.limiter != nil {
		if err := e.limiter.Wait(ctx); err != nil {
			return "", err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", e.userAgent)

	resp, err := e.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", err
	}
	return string(body), nil
}

func firstGroup(s string, re *regexp.Regexp) string {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

func (e *Extractor) newClient() *http.Client {
	dialer := &net.Dialer{Timeout: e.timeout, Control: e.dialControl}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	// Dial-time checks must see the target address, not a proxy.
	transport.Proxy = nil
	transport.DialContext = dialer.DialContext
	return &http.Client{
		Timeout:       e.timeout,
		Transport:     transport,
		CheckRedirect: e.checkRedirect,
	}
}

// checkRedirect caps redirect chains and applies the scheme and host checks
// to every hop.
func (e *Extractor) checkRedirect(req *http.Request, via []*http.Request) error {
	if len(via) >= maxRedirects {
		return fmt.Errorf("stopped after %d redirects", maxRedirects)
	}
	if scheme := strings.ToLower(req.URL.Scheme); scheme != "http" && scheme != "https" {
		return fmt.Errorf("redirect to unsupported scheme %q", req.URL.Scheme)
	}
	return e.checkHost(req.Context(), req.URL.Hostname())
}

// dialControl checks the resolved address of every outbound connection.
func (e *Extractor) dialControl(_, address string, _ syscall.RawConn) error {
	if e.blocked == nil {
		return nil
	}
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return err
	}
	ip := net.ParseIP(host)
	if ip == nil || e.blocked(ip) {
		return errPrivateHost
	}
	return nil
}

// checkHost rejects hosts that resolve to loopback, private, link-local or
// cloud metadata addresses.
func (e *Extractor) checkHost(ctx context.Context, host string) error {
	if e.blocked == nil {
		return nil
	}
	ips, err := net.DefaultResolver.LookupIPAddr(ctx, host)
	if err != nil {
		return err
	}
	for _, ip := range ips {
		if e.blocked(ip.IP) {
			return errPrivateHost
		}
	}
	return nil
}

var metadataIPs = []net.IP{
	net.ParseIP("169.254.169.254"), // AWS, GCP, Azure
	net.ParseIP("168.63.129.16"),   // Azure
}

func isPrivateIP(ip net.IP) bool {
	if ip.IsLoopback() || ip.IsPrivate() || ip.IsUnspecified() ||
		ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() {
		return true
	}
	for _, m := range metadataIPs {
		if ip.Equal(m) {
			return true
		}
	}
	return false
}
