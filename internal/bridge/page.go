package bridge

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/jonathan/jobai-assistant/internal/extract"
	"github.com/jonathan/jobai-assistant/internal/fetch"
	"github.com/jonathan/jobai-assistant/internal/logger"
)

// Page gives a page script access to the rendered document of its page.
type Page interface {
	URL() string
	Document(ctx context.Context) (*goquery.Document, error)
}

// StaticPage serves an already loaded HTML document.
type StaticPage struct {
	html string
	url  string
}

// NewStaticPage wraps HTML content; pageURL may be empty.
func NewStaticPage(html, pageURL string) *StaticPage {
	return &StaticPage{html: html, url: pageURL}
}

// LoadFile reads a saved HTML page from disk.
func LoadFile(path string) (*StaticPage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read page %s: %w", path, err)
	}
	return NewStaticPage(string(data), "file://"+path), nil
}

// URL returns the page address.
func (p *StaticPage) URL() string { return p.url }

// Document parses the HTML.
func (p *StaticPage) Document(_ context.Context) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(p.html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return doc, nil
}

// RemotePage loads its document over HTTP. With UseBrowser set, pages whose plain HTML
// yields too little job text are rendered again in a headless browser.
type RemotePage struct {
	url            string
	Options        *fetch.Options
	UseBrowser     bool
	BrowserTimeout time.Duration
	Logger         *zap.Logger
}

// NewRemotePage returns a page for pageURL with default fetch options.
func NewRemotePage(pageURL string) *RemotePage {
	return &RemotePage{url: pageURL, Options: fetch.DefaultOptions()}
}

// URL returns the page address.
func (p *RemotePage) URL() string { return p.url }

// Document fetches and parses the page.
func (p *RemotePage) Document(ctx context.Context) (*goquery.Document, error) {
	log := logger.OrNop(p.Logger)

	opts := fetch.DefaultOptions()
	if p.Options != nil {
		copied := *p.Options
		opts = &copied
	}
	if opts.Logger == nil {
		opts.Logger = log
	}

	result, err := fetch.URL(ctx, p.url, opts)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(result.HTML))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	if !p.UseBrowser {
		return doc, nil
	}

	text := extract.New(extract.DetectPlatform(p.url)).Extract(doc)
	if !fetch.ShouldUseBrowser(text) {
		return doc, nil
	}

	log.Debug("content too short, rendering in browser",
		zap.Int("chars", len(text)), zap.Int("min", fetch.MinContentLength))

	rendered, err := fetch.WithBrowser(ctx, p.url, p.BrowserTimeout, log)
	if err != nil {
		// The HTTP document is still usable.
		log.Warn("browser rendering failed, using HTTP content", zap.Error(err))
		return doc, nil
	}

	renderedDoc, err := goquery.NewDocumentFromReader(strings.NewReader(rendered))
	if err != nil {
		return doc, nil
	}
	return renderedDoc, nil
}
