package source

import (
	"context"
	"net/http"

	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/bitrise-io/go-utils/v2/retryhttp"
	"github.com/melbahja/got"
)

type httpDownloader struct {
	client *http.Client
}

// NewHTTPDownloader returns a Downloader backed by a retrying http client.
func NewHTTPDownloader(logger log.Logger) Downloader {
	return httpDownloader{client: retryhttp.NewClient(logger).StandardClient()}
}

// Download ...
func (d httpDownloader) Download(ctx context.Context, destination, url string) error {
	downloader := got.New()
	downloader.Client = d.client

	return downloader.Do(got.NewDownload(ctx, url, destination))
}
