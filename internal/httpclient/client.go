// Package httpclient provides the outbound HTTP client used for the Hevy API:
// rate limited, with default headers and protection against redirects into
// private networks.
package httpclient

import (
	"context"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/gymkit/hevymcp/errors"
)

// Options configures a Client
type Options struct {
	Timeout           time.Duration
	RequestsPerSecond float64           // 0 = unlimited
	Headers           map[string]string // added to every request unless already set
	BlockPrivateIP    bool              // refuse to dial or redirect into private ranges
	MaxRedirects      int               // default 10
}

// Client wraps http.Client with a rate limiter, default headers and
// SSRF protection.
type Client struct {
	*http.Client
	limiter        *rate.Limiter
	headers        map[string]string
	allowedSchemes []string
	blockPrivateIP bool
	maxRedirects   int
}

// New creates a Client from opts
func New(opts Options) *Client {
	client := newClient(&http.Client{Timeout: opts.Timeout}, opts)

	if client.blockPrivateIP {
		dialer := &net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}

		client.Transport = &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
				host, _, err := net.SplitHostPort(addr)
				if err != nil {
					return nil, errors.Wrap(err, "invalid address")
				}

				ips, err := net.DefaultResolver.LookupIP(ctx, "ip", host)
				if err != nil {
					return nil, errors.Wrapf(err, "failed to resolve host %q", host)
				}

				for _, ip := range ips {
					if isPrivateIP(ip) {
						return nil, errors.Newf("private IP address blocked: %s", ip)
					}
				}

				return dialer.DialContext(ctx, network, addr)
			},
			MaxIdleConns:          10,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		}
	}

	return client
}

// WrapClient wraps an existing http.Client (e.g. httptest's) without touching
// its transport. BlockPrivateIP only affects URL validation here.
func WrapClient(httpClient *http.Client, opts Options) *Client {
	return newClient(httpClient, opts)
}

func newClient(httpClient *http.Client, opts Options) *Client {
	maxRedirects := opts.MaxRedirects
	if maxRedirects <= 0 {
		maxRedirects = 10
	}

	client := &Client{
		Client:         httpClient,
		headers:        opts.Headers,
		allowedSchemes: []string{"http", "https"},
		blockPrivateIP: opts.BlockPrivateIP,
		maxRedirects:   maxRedirects,
	}

	if opts.RequestsPerSecond > 0 {
		// Burst of 1: requests are evenly spaced, never bunched
		client.limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
	}

	client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		if len(via) >= client.maxRedirects {
			return errors.Newf("stopped after %d redirects", client.maxRedirects)
		}
		if err := client.validateURL(req.URL); err != nil {
			return errors.Wrap(err, "redirect blocked")
		}
		return nil
	}

	return client
}

// Do waits for the rate limiter, applies default headers and executes req.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	if err := c.validateURL(req.URL); err != nil {
		return nil, errors.Wrap(err, "request blocked by SSRF protection")
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(req.Context()); err != nil {
			return nil, errors.Wrap(err, "rate limiter")
		}
	}

	for k, v := range c.headers {
		if req.Header.Get(k) == "" {
			req.Header.Set(k, v)
		}
	}

	return c.Client.Do(req)
}

// validateURL validates URL for SSRF protection before making request
func (c *Client) validateURL(u *url.URL) error {
	scheme := strings.ToLower(u.Scheme)
	allowed := false
	for _, s := range c.allowedSchemes {
		if scheme == s {
			allowed = true
			break
		}
	}
	if !allowed {
		return errors.Newf("scheme %q not allowed (allowed: %v)", scheme, c.allowedSchemes)
	}

	// http://evil.com@localhost/ style confusion
	if u.User != nil {
		return errors.New("URL contains credentials")
	}

	hostname := u.Hostname()
	if hostname == "" {
		return errors.New("URL missing hostname")
	}

	if c.blockPrivateIP && IsPrivateHost(hostname) {
		return errors.Newf("private address blocked: %s", hostname)
	}

	return nil
}

// IsPrivateHost reports whether hostname is localhost or a literal private IP.
// Names that resolve to private IPs are caught at dial time instead.
func IsPrivateHost(hostname string) bool {
	if isLocalhost(hostname) {
		return true
	}
	if ip := net.ParseIP(hostname); ip != nil {
		return isPrivateIP(ip)
	}
	return false
}

var privateBlocks = []*net.IPNet{
	mustCIDR("10.0.0.0/8"),
	mustCIDR("172.16.0.0/12"),
	mustCIDR("192.168.0.0/16"),
	mustCIDR("127.0.0.0/8"),
	mustCIDR("169.254.0.0/16"),
	mustCIDR("0.0.0.0/8"),
	mustCIDR("224.0.0.0/4"),
	mustCIDR("240.0.0.0/4"),
	mustCIDR("fc00::/7"),
	mustCIDR("fec0::/10"),
	mustCIDR("2001:db8::/32"),
}

func mustCIDR(s string) *net.IPNet {
	_, block, err := net.ParseCIDR(s)
	if err != nil {
		panic(err)
	}
	return block
}

// isPrivateIP checks if an IP is in private/special use ranges
func isPrivateIP(ip net.IP) bool {
	if ip.IsLoopback() || ip.IsLinkLocalUnicast() || ip.IsMulticast() || ip.IsUnspecified() {
		return true
	}
	for _, block := range privateBlocks {
		if block.Contains(ip) {
			return true
		}
	}
	return false
}

// isLocalhost checks for localhost variants
func isLocalhost(hostname string) bool {
	hostname = strings.ToLower(hostname)
	return hostname == "localhost" ||
		hostname == "localhost.localdomain" ||
		strings.HasSuffix(hostname, ".localhost")
}
