// Package pdf turns purchase orders and invoices into printable documents.
package pdf

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

var ErrEmptyDocument = errors.New("pdf: empty document")

// PageOptions mirror the print settings stored with the business settings.
type PageOptions struct {
	PaperSize   string
	Orientation string
	MarginMM    float64
}

// Renderer converts a complete HTML document into PDF bytes.
type Renderer interface {
	Render(ctx context.Context, html string, opts PageOptions) ([]byte, error)
}

// paper sizes in millimetres, portrait.
var paperSizes = map[string][2]float64{
	"A4":     {210, 297},
	"A5":     {148, 210},
	"Letter": {215.9, 279.4},
	"Legal":  {215.9, 355.6},
}

// PaperInches returns width and height in inches; unknown sizes fall back to A4.
func PaperInches(size string) (float64, float64) {
	dims, ok := paperSizes[size]
	if !ok {
		dims = paperSizes["A4"]
	}
	return mmToInches(dims[0]), mmToInches(dims[1])
}

func mmToInches(mm float64) float64 { return mm / 25.4 }

type ChromeRenderer struct {
	allocCtx    context.Context
	allocCancel context.CancelFunc
	timeout     time.Duration
	log         *zap.Logger
}

// NewChromeRenderer connects to CHROME_REMOTE_URL when given, otherwise launches a local headless Chrome
// on first use.
func NewChromeRenderer(remoteURL string, timeout time.Duration, log *zap.Logger) *ChromeRenderer {
	if log == nil {
		log = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	r := &ChromeRenderer{timeout: timeout, log: log.Named("pdf")}
	if remoteURL != "" {
		r.allocCtx, r.allocCancel = chromedp.NewRemoteAllocator(context.Background(), remoteURL)
		return r
	}
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.DisableGPU,
		chromedp.NoSandbox,
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("font-render-hinting", "none"),
	)
	r.allocCtx, r.allocCancel = chromedp.NewExecAllocator(context.Background(), opts...)
	return r
}

func (r *ChromeRenderer) Render(ctx context.Context, html string, opts PageOptions) ([]byte, error) {
	if strings.TrimSpace(html) == "" {
		return nil, ErrEmptyDocument
	}

	browserCtx, cancelBrowser := chromedp.NewContext(r.allocCtx,
		chromedp.WithLogf(func(format string, args ...any) {
			r.log.Debug(fmt.Sprintf(format, args...))
		}),
	)
	defer cancelBrowser()
	runCtx, cancel := context.WithTimeout(browserCtx, r.timeout)
	defer cancel()
	// Stop rendering when the request goes away.
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	width, height := PaperInches(opts.PaperSize)
	margin := mmToInches(opts.MarginMM)
	start := time.Now()

	var out []byte
	err := chromedp.Run(runCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(tree.Frame.ID, html).Do(ctx)
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			data, _, err := page.PrintToPDF().
				WithPrintBackground(true).
				WithPaperWidth(width).
				WithPaperHeight(height).
				WithMarginTop(margin).
				WithMarginBottom(margin).
				WithMarginLeft(margin).
				WithMarginRight(margin).
				WithLandscape(opts.Orientation == "landscape").
				Do(ctx)
			out = data
			return err
		}),
	)
	if err != nil {
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("pdf: rendering timed out after %s: %w", r.timeout, err)
		}
		r.log.Error("chrome rendering failed", zap.Error(err))
		return nil, fmt.Errorf("pdf: render: %w", err)
	}
	if len(out) == 0 {
		return nil, ErrEmptyDocument
	}

	r.log.Debug("pdf rendered", zap.Int("bytes", len(out)), zap.Duration("took", time.Since(start)))
	return out, nil
}

func (r *ChromeRenderer) Close() {
	if r.allocCancel != nil {
		r.allocCancel()
	}
}
