package fetch

import (
	"context"
	"fmt"
	"image"
	"io"
	"net/http"

	"github.com/arvos-app/arvos-fetch/internal/domain"
	"github.com/arvos-app/arvos-fetch/internal/fixtures"
	"github.com/arvos-app/arvos-fetch/internal/logger"
	"github.com/arvos-app/arvos-fetch/pkg/httpclient"
)

// ImageCache is the keyed image store consulted before any network access.
type ImageCache interface {
	Get(ctx context.Context, url string) (image.Image, bool, error)
	Put(ctx context.Context, url string, img image.Image) error
}

// FixtureSource substitutes local streams for URLs in simulated mode.
// ok is false when the URL has no fixture for that kind of fetch and should go to
// the network.
type FixtureSource interface {
	Resolve(kind fixtures.Kind, url string) (rc io.ReadCloser, ok bool, err error)
}

// Deps are the collaborators of a Fetcher. Fixtures is nil unless simulated mode is on.
type Deps struct {
	Client   httpclient.Client
	Cache    ImageCache
	Fixtures FixtureSource
	Log      logger.Logger
}

// Fetcher retrieves text documents and images on behalf of one session.
// It is safe for concurrent use; it holds no per-request state.
type Fetcher struct {
	session  domain.Session
	client   httpclient.Client
	cache    ImageCache
	fixtures FixtureSource
	log      logger.Logger
}

// New builds a Fetcher. A nil client falls back to resty with the transport's default timeout.
func New(session domain.Session, deps Deps) *Fetcher {
	client := deps.Client
	if client == nil {
		client = httpclient.NewRestyClient(0)
	}
	return &Fetcher{
		session:  session,
		client:   client,
		cache:    deps.Cache,
		fixtures: deps.Fixtures,
		log:      logger.Ensure(deps.Log),
	}
}

// Session returns the session the fetcher decorates requests with.
func (f *Fetcher) Session() domain.Session { return f.session }

// FetchText retrieves a line-oriented text document, dropping '#' comment lines and
// concatenating the rest.
func (f *Fetcher) FetchText(ctx context.Context, url string) domain.Outcome[string] {
	if f.fixtures != nil {
		rc, ok, err := f.fixtures.Resolve(fixtures.KindText, url)
		if ok {
			return f.textFromFixture(url, rc, err)
		}
	}

	target := BuildURL(url, f.session)
	resp, err := f.client.Get(ctx, target, nil)
	if err != nil {
		return f.textFailure(url, domain.NetworkError(err))
	}
	body := resp.Body()
	defer closeQuietly(body)

	if resp.StatusCode() != http.StatusOK {
		return f.textFailure(url, domain.HTTPStatusError(resp.StatusCode()))
	}

	text, err := filterLines(body)
	if err != nil {
		return f.textFailure(url, domain.NetworkError(err))
	}
	f.log.DebugObj("text fetched", "fetch_text", map[string]any{
		"url":    url,
		"source": "network",
		"bytes":  len(text),
	})
	return domain.Success(text)
}

func (f *Fetcher) textFromFixture(url string, rc io.ReadCloser, openErr error) domain.Outcome[string] {
	if openErr != nil {
		return f.textFailure(url, domain.Exception(openErr))
	}
	defer closeQuietly(rc)

	text, err := filterLines(rc)
	if err != nil {
		return f.textFailure(url, domain.Exception(err))
	}
	f.log.DebugObj("text fetched", "fetch_text", map[string]any{
		"url":    url,
		"source": "fixture",
		"bytes":  len(text),
	})
	return domain.Success(text)
}

func (f *Fetcher) textFailure(url string, ferr *domain.FetchError) domain.Outcome[string] {
	f.logFailure(url, "text", ferr)
	return domain.Failure[string](ferr)
}

// FetchImage retrieves and decodes an image. The cache is consulted first; a freshly
// decoded image is written through to the cache, and a failed cache write fails the fetch.
// Image requests go to url as given, without session decoration.
func (f *Fetcher) FetchImage(ctx context.Context, url string) domain.Outcome[image.Image] {
	if f.cache != nil {
		img, ok, err := f.cache.Get(ctx, url)
		if err != nil {
			return f.imageFailure(url, domain.CacheReadError(err))
		}
		if ok {
			f.log.DebugObj("image cache hit", "fetch_image", map[string]any{"url": url})
			return domain.Success(img)
		}
	}

	if f.fixtures != nil {
		rc, ok, err := f.fixtures.Resolve(fixtures.KindImage, url)
		if ok {
			return f.imageFromFixture(ctx, url, rc, err)
		}
	}

	resp, err := f.client.Get(ctx, url, nil)
	if err != nil {
		return f.imageFailure(url, domain.NetworkError(err))
	}
	body := resp.Body()
	defer closeQuietly(body)

	if resp.StatusCode() != http.StatusOK {
		return f.imageFailure(url, domain.NetworkError(fmt.Errorf("HTTP error status %d", resp.StatusCode())))
	}

	img, err := decodeImage(body)
	if err != nil {
		return f.imageFailure(url, domain.NetworkError(err))
	}
	return f.store(ctx, url, img, "network")
}

func (f *Fetcher) imageFromFixture(ctx context.Context, url string, rc io.ReadCloser, openErr error) domain.Outcome[image.Image] {
	if openErr != nil {
		return f.imageFailure(url, domain.Exception(openErr))
	}
	defer closeQuietly(rc)

	img, err := decodeImage(rc)
	if err != nil {
		return f.imageFailure(url, domain.Exception(err))
	}
	return f.store(ctx, url, img, "fixture")
}

// store writes a decoded image through to the cache. On write failure the image is dropped.
func (f *Fetcher) store(ctx context.Context, url string, img image.Image, source string) domain.Outcome[image.Image] {
	if f.cache != nil {
		if err := f.cache.Put(ctx, url, img); err != nil {
			return f.imageFailure(url, domain.CacheWriteError(err))
		}
	}
	bounds := img.Bounds()
	f.log.DebugObj("image fetched", "fetch_image", map[string]any{
		"url":    url,
		"source": source,
		"width":  bounds.Dx(),
		"height": bounds.Dy(),
	})
	return domain.Success(img)
}

func (f *Fetcher) imageFailure(url string, ferr *domain.FetchError) domain.Outcome[image.Image] {
	f.logFailure(url, "image", ferr)
	return domain.Failure[image.Image](ferr)
}

func (f *Fetcher) logFailure(url, resource string, ferr *domain.FetchError) {
	f.log.WarnObj("fetch failed", "fetch_error", map[string]any{
		"url":      url,
		"resource": resource,
		"kind":     ferr.Kind.String(),
		"error":    ferr.Message,
	})
}

// closeQuietly closes c, ignoring the error so it never masks the fetch outcome.
func closeQuietly(c io.Closer) {
	if c != nil {
		_ = c.Close()
	}
}
