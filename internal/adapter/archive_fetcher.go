package adapter

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/MKhiriev/go-session-keeper/internal/config"
	"github.com/MKhiriev/go-session-keeper/internal/logger"
	"github.com/MKhiriev/go-session-keeper/internal/utils"
	"github.com/go-resty/resty/v2"
)

// maxRedirects covers share links of file hosts that bounce through a
// confirmation page before serving the file.
const maxRedirects = 10

type httpArchiveFetcher struct {
	client *utils.HTTPClient
	logger *logger.Logger
}

// NewHTTPArchiveFetcher constructs an [ArchiveFetcher] that downloads archives
// over HTTP(S), bounded by the configured download timeout.
func NewHTTPArchiveFetcher(cfg config.Adapter, log *logger.Logger) ArchiveFetcher {
	client := utils.NewHTTPClient()
	client.
		SetTimeout(cfg.DownloadTimeout).
		SetRedirectPolicy(resty.FlexibleRedirectPolicy(maxRedirects))

	return &httpArchiveFetcher{client: client, logger: log}
}

// Fetch streams the response body into dst without buffering it in memory.
// Transport faults and non-2xx statuses are reported as [ErrArchiveFetch].
func (f *httpArchiveFetcher) Fetch(ctx context.Context, url string, dst io.Writer) (int64, error) {
	resp, err := f.client.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(url)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrArchiveFetch, err)
	}

	body := resp.RawBody()
	defer body.Close()

	if resp.StatusCode() < http.StatusOK || resp.StatusCode() >= http.StatusMultipleChoices {
		return 0, fmt.Errorf("%w: http %d", ErrArchiveFetch, resp.StatusCode())
	}

	n, err := io.Copy(dst, body)
	if err != nil {
		return n, fmt.Errorf("%w: %w", ErrArchiveFetch, err)
	}

	f.logger.Debug().Str("url", url).Int64("bytes", n).Msg("archive downloaded")
	return n, nil
}
