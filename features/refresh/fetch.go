package refresh

import (
	"bytes"
	"context"
	"net/http"
	"sync"

	"entrylist/internal/config"
	"entrylist/internal/utils"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"github.com/gocolly/colly/v2"
	"github.com/rs/zerolog/log"
)

// PageFetcher downloads HTML pages through colly.
type PageFetcher struct {
	base    *colly.Collector
	headers map[string]string
}

func NewPageFetcher(base *colly.Collector, headers map[string]string) *PageFetcher {
	return &PageFetcher{base: base, headers: headers}
}

// Document fetches url and parses it. purpose names the request in errors.
func (f *PageFetcher) Document(ctx context.Context, url, purpose string) (*goquery.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c := f.base.Clone()
	var (
		mu   sync.Mutex
		doc  *goquery.Document
		ferr error
	)

	c.OnRequest(func(r *colly.Request) {
		for k, v := range f.headers {
			r.Headers.Set(k, v)
		}
	})
	c.OnResponse(func(r *colly.Response) {
		d, err := goquery.NewDocumentFromReader(bytes.NewReader(r.Body))
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			ferr = err
			return
		}
		d.Url = r.Request.URL
		doc = d
	})
	c.OnError(func(r *colly.Response, err error) {
		mu.Lock()
		defer mu.Unlock()
		ferr = newFetchError(purpose, url, r.StatusCode, err)
	})

	if err := c.Visit(url); err != nil {
		return nil, newFetchError(purpose, url, 0, err)
	}
	c.Wait()

	mu.Lock()
	defer mu.Unlock()
	if ferr != nil {
		log.Error().Err(ferr).Str("url", url).Msg("Page fetch failed")
		return nil, ferr
	}
	return doc, nil
}

// ExportFetcher downloads list exports with retries and a timeout.
type ExportFetcher struct {
	client *resty.Client
	cache  *utils.ResponseStore
}

func NewExportFetcher(cfg config.RefreshConfig, userAgent string, headers map[string]string, cache *utils.ResponseStore) *ExportFetcher {
	client := resty.New().
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.RetryCount).
		SetHeader("User-Agent", userAgent).
		SetHeaders(headers)

	return &ExportFetcher{client: client, cache: cache}
}

// Get returns the body of url. source and runID tag cached copies.
func (f *ExportFetcher) Get(ctx context.Context, url, purpose, source, runID string) ([]byte, error) {
	body, _, err := f.cache.Get(url, source, runID, func() ([]byte, error) {
		resp, err := f.client.R().SetContext(ctx).Get(url)
		if err != nil {
			return nil, newFetchError(purpose, url, 0, err)
		}
		if resp.StatusCode() != http.StatusOK {
			return nil, newFetchError(purpose, url, resp.StatusCode(), nil)
		}
		return resp.Body(), nil
	})
	if err != nil {
		log.Error().Err(err).Str("url", url).Msg("Export download failed")
	}
	return body, err
}

func newFetchError(purpose, url string, status int, cause error) *FetchError {
	e := &FetchError{
		Purpose:    purpose,
		Method:     http.MethodGet,
		URL:        url,
		Status:     status,
		StatusText: http.StatusText(status),
	}
	// Status errors carry no extra reason; transport errors do.
	if cause != nil && status == 0 {
		e.Reason = cause.Error()
	}
	return e
}
