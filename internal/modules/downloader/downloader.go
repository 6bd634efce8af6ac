package downloader

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"imagefetch/internal/models"
	"imagefetch/internal/modules/classifier"
)

// userAgent identifies the client on every outbound request.
const userAgent = "imagefetch/1.0 (respectful bot)"

// DefaultTimeout bounds a single request including the body read.
const DefaultTimeout = 10 * time.Second

// Downloader fetches image payloads over HTTP. It validates declared headers
// through the classifier before reading the body, and enforces the size cap
// against actual bytes read so a lying or absent Content-Length cannot bypass
// it.
type Downloader struct {
	hc      *http.Client
	maxSize int64
}

// New creates a Downloader with the given request timeout and payload cap.
func New(timeout time.Duration, maxSize int64) *Downloader {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if maxSize <= 0 {
		maxSize = classifier.DefaultMaxSize
	}
	return &Downloader{
		hc:      &http.Client{Timeout: timeout},
		maxSize: maxSize,
	}
}

// Fetch performs a GET for the given URL and returns the validated payload.
func (d *Downloader) Fetch(ctx context.Context, url string, logger *zap.Logger) (*models.Payload, *models.Error) {
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		url = "http://" + url
	}

	logger.Debug("fetching", zap.String("url", url))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, models.WrapError(models.KindConnection, err, "invalid request for %s", url)
	}
	req.Header.Set("User-Agent", userAgent)

	rsp, err := d.hc.Do(req)
	if err != nil {
		return nil, transportError(err, url)
	}
	defer rsp.Body.Close()

	if rsp.StatusCode < 200 || rsp.StatusCode >= 300 {
		return nil, models.NewHTTPError(rsp.StatusCode)
	}

	contentType := rsp.Header.Get("Content-Type")
	if cerr := classifier.Check(contentType, rsp.ContentLength, d.maxSize); cerr != nil {
		return nil, cerr
	}

	// Read one byte past the cap so an undeclared or understated length
	// still trips the limit.
	data, err := io.ReadAll(io.LimitReader(rsp.Body, d.maxSize+1))
	if err != nil {
		return nil, transportError(err, url)
	}
	if int64(len(data)) > d.maxSize {
		return nil, models.NewError(models.KindTooLarge,
			"image too large: more than %d bytes received", d.maxSize)
	}

	return &models.Payload{
		URL:            url,
		ContentType:    contentType,
		DeclaredLength: rsp.ContentLength,
		Data:           data,
	}, nil
}

// transportError maps a transport-level failure to the timeout or connection
// error kind.
func transportError(err error, url string) *models.Error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return models.WrapError(models.KindTimeout, err,
			"connection timeout - the server didn't respond in time (%s)", url)
	}
	return models.WrapError(models.KindConnection, err,
		"connection error - could not reach the server (%s)", url)
}
