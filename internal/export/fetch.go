package export

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	ferrors "git.home.luguber.info/inful/scholarsite/internal/foundation/errors"
)

const maxPageBytes = 32 * 1024 * 1024

// NewHTTPClient creates the client used to fetch pages. Redirects are
// followed only within the starting host.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) == 0 {
				return nil
			}
			if req.URL.Host != via[0].URL.Host {
				return errors.New("redirect to different host blocked")
			}
			if len(via) >= 5 {
				return errors.New("too many redirects")
			}
			return nil
		},
	}
}

type fetched struct {
	status      int
	contentType string
	body        []byte
}

// fetch performs one GET. The request is detached from ctx cancellation so
// an interrupt never tears a page in half; the client timeout still bounds it.
func fetch(ctx context.Context, client *http.Client, pageURL string) (fetched, error) {
	req, err := http.NewRequestWithContext(context.WithoutCancel(ctx), http.MethodGet, pageURL, http.NoBody)
	if err != nil {
		return fetched{}, fmt.Errorf("build request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return fetched{}, ferrors.WrapError(err, ferrors.CategoryNetwork, "fetch failed").
			WithContext("url", pageURL).Build()
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	res := fetched{status: resp.StatusCode, contentType: resp.Header.Get("Content-Type")}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64*1024))
		return res, ferrors.NetworkError(fmt.Sprintf("unexpected status %d", resp.StatusCode)).
			WithContext("url", pageURL).
			WithContext("status", resp.StatusCode).Build()
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes+1))
	if err != nil {
		return res, ferrors.WrapError(err, ferrors.CategoryNetwork, "read response").
			WithContext("url", pageURL).Build()
	}
	if len(data) > maxPageBytes {
		return res, ferrors.NetworkError("response too large").WithContext("url", pageURL).Build()
	}
	res.body = data
	return res, nil
}
