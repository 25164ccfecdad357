// Package fetch implements streaming source downloads with bounded
// concurrency, retry with backoff, and per-host circuit breaking.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/cenk/backoff"
	"github.com/cespare/xxhash/v2"
	"github.com/rs/dnscache"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"

	"github.com/quarrypkg/quarry/internal/core/domain"
	"github.com/quarrypkg/quarry/internal/core/ports"
)

const copyChunkSize = 32 * 1024

// Downloader implements ports.Downloader over HTTP. It is transport only:
// content verification is the pipeline's job.
type Downloader struct {
	client     *http.Client
	stopDNS    func()
	sourcesDir string
	userAgent  string
	maxRetries uint64
	baseDelay  time.Duration
	width      int
	sink       ports.ProgressSink
	logger     ports.Logger
	breakers   *breakerSet
}

// Option configures a Downloader.
type Option func(*Downloader)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(d *Downloader) {
		d.client = c
	}
}

// WithMaxRetries sets the retry budget for transient failures.
func WithMaxRetries(n uint64) Option {
	return func(d *Downloader) {
		d.maxRetries = n
	}
}

// WithBaseDelay sets the initial backoff delay.
func WithBaseDelay(delay time.Duration) Option {
	return func(d *Downloader) {
		d.baseDelay = delay
	}
}

// WithWidth sets the worker pool width for FetchAll.
func WithWidth(n int) Option {
	return func(d *Downloader) {
		if n > 0 {
			d.width = n
		}
	}
}

// WithProgressSink sets the sink receiving download progress events.
func WithProgressSink(sink ports.ProgressSink) Option {
	return func(d *Downloader) {
		d.sink = sink
	}
}

// New creates a Downloader writing artifacts into sourcesDir. Close releases
// the DNS refresher once the Downloader is no longer needed.
func New(sourcesDir string, logger ports.Logger, sink ports.ProgressSink, opts ...Option) *Downloader {
	client, stopDNS := newClient()
	d := &Downloader{
		client:     client,
		stopDNS:    stopDNS,
		sourcesDir: sourcesDir,
		userAgent:  "quarry/1.0",
		maxRetries: 3,
		baseDelay:  500 * time.Millisecond,
		width:      4,
		sink:       sink,
		logger:     logger,
		breakers:   newBreakerSet(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Close stops the background DNS cache refresher. Safe to call more than
// once.
func (d *Downloader) Close() {
	if d.stopDNS != nil {
		d.stopDNS()
		d.stopDNS = nil
	}
}

// newClient builds an HTTP client with a DNS-cached dialer. Source hosts
// are hit once per package of a large install; caching lookups keeps the
// pool from hammering the resolver. The returned stop function ends the
// cache refresher.
func newClient() (*http.Client, func()) {
	resolver := &dnscache.Resolver{}
	stop := make(chan struct{})
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				resolver.Refresh(true)
			case <-stop:
				return
			}
		}
	}()

	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	client := &http.Client{
		Timeout: 5 * time.Minute, // source tarballs can be large
		Transport: &http.Transport{
			DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
				host, port, err := net.SplitHostPort(addr)
				if err != nil {
					return nil, err
				}
				ips, err := resolver.LookupHost(ctx, host)
				if err != nil {
					return nil, err
				}
				for _, ip := range ips {
					conn, err := dialer.DialContext(ctx, network, net.JoinHostPort(ip, port))
					if err == nil {
						return conn, nil
					}
				}
				return nil, fmt.Errorf("failed to dial any resolved IP for %s", host)
			},
			MaxIdleConns:          100,
			MaxIdleConnsPerHost:   10,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		},
	}
	return client, func() { close(stop) }
}

// ArtifactPath returns the local path an artifact for the specification is
// cached at. The name carries a hash of the source URL so a changed URL for
// the same version is never served from a stale file.
func (d *Downloader) ArtifactPath(spec domain.PackageSpec) string {
	name := fmt.Sprintf("%s_%s_%016x.tar.gz",
		spec.Name, spec.Version.String(), xxhash.Sum64String(spec.Source))
	return filepath.Join(d.sourcesDir, name)
}

// Fetch downloads the source artifact for one specification and returns its
// local path. Transient failures are retried with exponential backoff up to
// the configured budget; structural failures are returned immediately.
func (d *Downloader) Fetch(ctx context.Context, spec domain.PackageSpec) (string, error) {
	dest := d.ArtifactPath(spec)

	if info, err := os.Stat(dest); err == nil && info.Size() > 0 {
		d.logger.Info("reusing cached artifact for " + spec.ID())
		return dest, nil
	}

	if err := os.MkdirAll(d.sourcesDir, 0o750); err != nil {
		return "", zerr.Wrap(err, "failed to create sources directory")
	}

	breaker := d.breakers.forURL(spec.Source)
	if !breaker.Ready() {
		open := zerr.Wrap(domain.ErrSourceUnreachable, "circuit breaker open for source host")
		return "", zerr.With(open, "package", spec.Name)
	}

	err := breaker.Call(func() error {
		return d.fetchWithRetry(ctx, spec, dest)
	}, 0)
	if err != nil {
		return "", err
	}
	return dest, nil
}

// fetchWithRetry runs download attempts under the retry policy. Permanent
// failures short-circuit the backoff loop.
func (d *Downloader) fetchWithRetry(ctx context.Context, spec domain.PackageSpec, dest string) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = d.baseDelay
	policy.MaxInterval = 30 * time.Second

	attempt := func() error {
		err := d.fetchOnce(ctx, spec, dest)
		switch {
		case err == nil:
			return nil
		case errors.Is(err, domain.ErrMalformedArtifact):
			// Retrying cannot fix a structurally wrong response.
			return backoff.Permanent(err)
		case ctx.Err() != nil:
			return backoff.Permanent(ctx.Err())
		default:
			d.logger.Warn("retrying download for " + spec.ID() + ": " + err.Error())
			return err
		}
	}

	err := backoff.Retry(attempt, backoff.WithContext(backoff.WithMaxRetries(policy, d.maxRetries), ctx))
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrMalformedArtifact) {
		return err
	}
	unreachable := zerr.With(zerr.Wrap(domain.ErrSourceUnreachable, err.Error()), "package", spec.Name)
	return zerr.With(unreachable, "source", spec.Source)
}

// fetchOnce performs a single download attempt, streaming the body to a
// temporary file that is renamed into place only on success.
func (d *Downloader) fetchOnce(ctx context.Context, spec domain.PackageSpec, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, spec.Source, nil)
	if err != nil {
		return zerr.With(zerr.Wrap(domain.ErrMalformedArtifact, err.Error()), "source", spec.Source)
	}
	req.Header.Set("User-Agent", d.userAgent)
	req.Header.Set("Accept", "*/*")

	resp, err := d.client.Do(req)
	if err != nil {
		return zerr.Wrap(err, "request failed")
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusOK:
		// Fall through to the body copy.
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return zerr.With(zerr.New("retryable upstream status"), "status", resp.StatusCode)
	default:
		badStatus := zerr.With(zerr.Wrap(domain.ErrMalformedArtifact, "unexpected upstream status"), "status", resp.StatusCode)
		return zerr.With(badStatus, "source", spec.Source)
	}

	tmp, err := os.CreateTemp(d.sourcesDir, spec.Name+"-*.partial")
	if err != nil {
		return zerr.Wrap(err, "failed to create temporary file")
	}
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
	}()

	written, err := d.copyWithProgress(spec, tmp, resp.Body, resp.ContentLength)
	if err != nil {
		return err
	}
	if written == 0 {
		return zerr.With(zerr.Wrap(domain.ErrMalformedArtifact, "empty payload"), "source", spec.Source)
	}
	if resp.ContentLength >= 0 && written != resp.ContentLength {
		truncated := zerr.With(zerr.Wrap(domain.ErrMalformedArtifact, "truncated payload"), "expected", resp.ContentLength)
		return zerr.With(truncated, "received", written)
	}

	if err := tmp.Close(); err != nil {
		return zerr.Wrap(err, "failed to close artifact file")
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return zerr.Wrap(err, "failed to move artifact into place")
	}
	return nil
}

func (d *Downloader) copyWithProgress(spec domain.PackageSpec, dst io.Writer, src io.Reader, total int64) (int64, error) {
	buf := make([]byte, copyChunkSize)
	var written int64
	for {
		n, err := src.Read(buf)
		if n > 0 {
			if _, werr := dst.Write(buf[:n]); werr != nil {
				return written, zerr.Wrap(werr, "failed to write artifact")
			}
			written += int64(n)
			d.sink.Download(domain.Progress{
				Package: spec.Name,
				Bytes:   written,
				Total:   total,
			})
		}
		if err == io.EOF {
			return written, nil
		}
		if err != nil {
			return written, zerr.Wrap(err, "failed to read response body")
		}
	}
}

// FetchAll downloads the given specifications on a bounded pool and streams
// completions in the order they finish. The channel closes once every
// download has terminated.
func (d *Downloader) FetchAll(ctx context.Context, specs []domain.PackageSpec) <-chan ports.FetchResult {
	results := make(chan ports.FetchResult, len(specs))

	var g errgroup.Group
	g.SetLimit(d.width)
	for _, spec := range specs {
		g.Go(func() error {
			path, err := d.Fetch(ctx, spec)
			results <- ports.FetchResult{Spec: spec, Path: path, Err: err}
			return nil
		})
	}

	go func() {
		_ = g.Wait()
		close(results)
	}()

	return results
}
