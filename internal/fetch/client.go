// Package fetch provides the HTTP client all extractors share: browser-like
// default headers, per-call header/cookie injection and an optional SOCKS5
// proxy for region-locked platforms.
package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"golang.org/x/net/proxy"

	"github.com/medialoom/socialpick/internal/config"
	"github.com/medialoom/socialpick/internal/domain"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

// Options adjust a single request.
type Options struct {
	Referer  string
	Cookie   string
	Headers  map[string]string
	UseProxy bool
}

// Client is the shared upstream HTTP client.
type Client struct {
	// client serves short requests with an overall timeout.
	client *http.Client
	// streamClient serves streaming downloads without an overall timeout.
	streamClient *http.Client
	// proxied variants dial through the configured SOCKS5 proxy.
	proxied       *http.Client
	proxiedStream *http.Client
	logger        *slog.Logger
}

// NewClient creates the fetch client. Proxy configuration is optional; when
// absent, proxied requests silently use the direct clients.
func NewClient(cfg config.ProxyConfig, logger *slog.Logger) (*Client, error) {
	streamTransport := &http.Transport{
		ResponseHeaderTimeout: 30 * time.Second,
	}

	c := &Client{
		client:       &http.Client{Timeout: 2 * time.Minute},
		streamClient: &http.Client{Transport: streamTransport},
		logger:       logger,
	}

	if cfg.Enabled() {
		dialer, err := proxy.SOCKS5("tcp", cfg.Addr(), nil, proxy.Direct)
		if err != nil {
			return nil, fmt.Errorf("socks5 proxy %s: %w", cfg.Addr(), err)
		}
		dialCtx := func(ctx context.Context, network, addr string) (net.Conn, error) {
			if cd, ok := dialer.(proxy.ContextDialer); ok {
				return cd.DialContext(ctx, network, addr)
			}
			return dialer.Dial(network, addr)
		}
		c.proxied = &http.Client{
			Timeout:   2 * time.Minute,
			Transport: &http.Transport{DialContext: dialCtx},
		}
		c.proxiedStream = &http.Client{
			Transport: &http.Transport{
				DialContext:           dialCtx,
				ResponseHeaderTimeout: 30 * time.Second,
			},
		}
	}

	return c, nil
}

func (c *Client) pick(opts Options, streaming bool) *http.Client {
	if opts.UseProxy && c.proxied != nil {
		if streaming {
			return c.proxiedStream
		}
		return c.proxied
	}
	if streaming {
		return c.streamClient
	}
	return c.client
}

func (c *Client) request(ctx context.Context, url string, opts Options) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", defaultUserAgent)
	req.Header.Set("Accept", "*/*")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	if opts.Referer != "" {
		req.Header.Set("Referer", opts.Referer)
	}
	if opts.Cookie != "" {
		req.Header.Set("Cookie", opts.Cookie)
	}
	for k, v := range opts.Headers {
		req.Header.Set(k, v)
	}

	return req, nil
}

// Get performs a GET and returns the body for 2xx responses. Any other
// status is a *domain.FetchError.
func (c *Client) Get(ctx context.Context, url string, opts Options) (io.ReadCloser, error) {
	req, err := c.request(ctx, url, opts)
	if err != nil {
		return nil, err
	}

	resp, err := c.pick(opts, false).Do(req)
	if err != nil {
		return nil, &domain.FetchError{URL: url, Err: err}
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		resp.Body.Close()
		return nil, &domain.FetchError{URL: url, Status: resp.StatusCode, Err: domain.ErrRateLimited}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, domain.NewFetchError(url, resp.StatusCode, nil)
	}

	return resp.Body, nil
}

// Text fetches a URL and returns its body as a string.
func (c *Client) Text(ctx context.Context, url string, opts Options) (string, error) {
	body, err := c.Get(ctx, url, opts)
	if err != nil {
		return "", err
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return "", fmt.Errorf("read body of %s: %w", url, err)
	}
	return string(data), nil
}

// Bytes fetches a URL and returns its raw body.
func (c *Client) Bytes(ctx context.Context, url string, opts Options) ([]byte, error) {
	body, err := c.Get(ctx, url, opts)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("read body of %s: %w", url, err)
	}
	return data, nil
}

// JSON fetches a URL and decodes the response into out.
func (c *Client) JSON(ctx context.Context, url string, opts Options, out any) error {
	body, err := c.Get(ctx, url, opts)
	if err != nil {
		return err
	}
	defer body.Close()

	if err := json.NewDecoder(body).Decode(out); err != nil {
		return fmt.Errorf("decode json of %s: %w", url, err)
	}
	return nil
}

// DownloadTo streams a URL into path without buffering the body in memory.
// The partial file is removed on any failure.
func (c *Client) DownloadTo(ctx context.Context, url, path string, opts Options) error {
	req, err := c.request(ctx, url, opts)
	if err != nil {
		return err
	}

	resp, err := c.pick(opts, true).Do(req)
	if err != nil {
		return &domain.FetchError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.NewFetchError(url, resp.StatusCode, nil)
	}

	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		os.Remove(path)
		return fmt.Errorf("download %s: %w", url, err)
	}

	if err := out.Close(); err != nil {
		os.Remove(path)
		return fmt.Errorf("close %s: %w", path, err)
	}

	return nil
}
