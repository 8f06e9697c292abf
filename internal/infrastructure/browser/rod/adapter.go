package rod

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"net/url"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"research-agent/internal/application/port/output"
	"research-agent/internal/domain/entity"

	"github.com/disintegration/imaging"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/ysmood/gson"
)

var _ output.BrowserPort = (*BrowserAdapter)(nil)

const (
	defaultTimeout     = 10 * time.Second
	maxUIElements      = 500
	maxScreenshotWidth = 1024
)

var (
	ErrInvalidURL             = errors.New("invalid url")
	ErrInvalidScrollDirection = errors.New("unknown scroll direction")
	ErrBrowserClosed          = errors.New("browser is closed")
)

type BrowserAdapter struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
	page     *rod.Page
	timeout  time.Duration
	logger   output.LoggerPort

	mu     sync.Mutex
	closed bool
}

type Option func(*BrowserAdapter)

func WithTimeout(d time.Duration) Option {
	return func(b *BrowserAdapter) {
		if d > 0 {
			b.timeout = d
		}
	}
}

func WithLogger(l output.LoggerPort) Option {
	return func(b *BrowserAdapter) {
		b.logger = l
	}
}

// NewBrowserAdapter launches a local browser, or attaches to a running one
// when cfg.CDPURL is set, and opens a blank page.
func NewBrowserAdapter(ctx context.Context, cfg entity.BrowserConfig, opts ...Option) (*BrowserAdapter, error) {
	b := &BrowserAdapter{timeout: defaultTimeout}
	for _, opt := range opts {
		opt(b)
	}

	var controlURL string
	if cfg.CDPURL != "" {
		u, err := launcher.ResolveURL(cfg.CDPURL)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve cdp url: %w", err)
		}
		controlURL = u
	} else {
		b.launcher = newLauncher(cfg).Context(ctx)
		u, err := b.launcher.Launch()
		if err != nil {
			return nil, fmt.Errorf("failed to launch browser: %w", err)
		}
		controlURL = u
	}

	setup := rod.New().Context(ctx).ControlURL(controlURL)
	if err := setup.Connect(); err != nil {
		b.killLauncher()
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}
	browser := setup.Context(context.Background())
	b.browser = browser

	page, err := setup.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		b.Close()
		return nil, fmt.Errorf("failed to open page: %w", err)
	}
	page = page.Context(context.Background())
	b.page = page

	if cfg.CDPURL != "" && cfg.WindowWidth > 0 && cfg.WindowHeight > 0 {
		_ = page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
			Width:  cfg.WindowWidth,
			Height: cfg.WindowHeight,
		})
	}

	if cfg.DownloadsPath != "" {
		err := proto.BrowserSetDownloadBehavior{
			Behavior:     proto.BrowserSetDownloadBehaviorBehaviorAllow,
			DownloadPath: cfg.DownloadsPath,
		}.Call(browser)
		if err != nil {
			b.log("Download path not applied", "path", cfg.DownloadsPath, "error", err)
		}
	}

	b.log("Browser started", "headless", cfg.Headless, "cdp", cfg.CDPURL != "")
	return b, nil
}

func newLauncher(cfg entity.BrowserConfig) *launcher.Launcher {
	l := launcher.New().
		Headless(cfg.Headless).
		NoSandbox(true).
		Delete("use-mock-keychain")

	if cfg.WindowWidth > 0 && cfg.WindowHeight > 0 {
		l = l.Set("window-size", fmt.Sprintf("%d,%d", cfg.WindowWidth, cfg.WindowHeight))
	}
	if cfg.BinaryPath != "" {
		l = l.Bin(cfg.BinaryPath)
	}
	if cfg.UserDataDir != "" {
		l = l.UserDataDir(cfg.UserDataDir)
	}
	if cfg.DisableSecurity {
		l = l.Set("disable-web-security").
			Set("allow-running-insecure-content").
			Set("disable-site-isolation-trials").
			Set("disable-features", "IsolateOrigins,site-per-process")
	}
	for _, arg := range cfg.ExtraArgs {
		name, value, hasValue := strings.Cut(strings.TrimLeft(arg, "-"), "=")
		if name == "" {
			continue
		}
		if hasValue {
			l = l.Set(flags.Flag(name), value)
		} else {
			l = l.Set(flags.Flag(name))
		}
	}
	return l
}

func (b *BrowserAdapter) log(msg string, args ...any) {
	if b.logger != nil {
		b.logger.Debug(msg, args...)
	}
}

func (b *BrowserAdapter) activePage(ctx context.Context) (*rod.Page, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed || b.page == nil {
		return nil, ErrBrowserClosed
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return b.page.Context(ctx), nil
}

func validateURL(raw string) error {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidURL, raw, err)
	}
	switch u.Scheme {
	case "http", "https":
		if u.Host == "" {
			return fmt.Errorf("%w: %s: missing host", ErrInvalidURL, raw)
		}
	case "about", "file", "data":
	default:
		return fmt.Errorf("%w: %s: unsupported scheme %q", ErrInvalidURL, raw, u.Scheme)
	}
	return nil
}

func (b *BrowserAdapter) Navigate(ctx context.Context, rawURL string) error {
	if err := validateURL(rawURL); err != nil {
		return err
	}
	page, err := b.activePage(ctx)
	if err != nil {
		return err
	}

	if err := page.Timeout(3 * b.timeout).Navigate(strings.TrimSpace(rawURL)); err != nil {
		return fmt.Errorf("navigation failed: %w", err)
	}
	if err := page.Timeout(3 * b.timeout).WaitLoad(); err != nil {
		return fmt.Errorf("page load failed: %w", err)
	}
	page.WaitIdle(2 * time.Second)
	return nil
}

func isXPath(selector string) bool {
	return strings.HasPrefix(selector, "/") || strings.HasPrefix(selector, "(/")
}

func (b *BrowserAdapter) find(page *rod.Page, selector string) (*rod.Element, error) {
	if isXPath(selector) {
		return page.Timeout(b.timeout).ElementX(selector)
	}
	return page.Timeout(b.timeout).Element(selector)
}

func (b *BrowserAdapter) Click(ctx context.Context, selector string) error {
	page, err := b.activePage(ctx)
	if err != nil {
		return err
	}

	el, err := b.find(page, selector)
	if err != nil {
		return fmt.Errorf("element not found: %s: %w", selector, err)
	}
	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("click failed: %w", err)
	}

	page.WaitIdle(2 * time.Second)
	return nil
}

func (b *BrowserAdapter) Fill(ctx context.Context, selector, text string) error {
	page, err := b.activePage(ctx)
	if err != nil {
		return err
	}

	el, err := b.find(page, selector)
	if err != nil {
		return fmt.Errorf("field not found: %s: %w", selector, err)
	}
	if err := el.SelectAllText(); err == nil {
		_ = el.Input("")
	}
	if err := el.Input(text); err != nil {
		return fmt.Errorf("input failed: %w", err)
	}
	return nil
}

func (b *BrowserAdapter) PressEnter(ctx context.Context) error {
	page, err := b.activePage(ctx)
	if err != nil {
		return err
	}

	el, err := page.Timeout(b.timeout).Element("body")
	if err != nil {
		return fmt.Errorf("body not found: %w", err)
	}
	if err := el.Input("\r"); err != nil {
		return fmt.Errorf("failed to press Enter: %w", err)
	}
	page.WaitIdle(time.Second)
	return nil
}

func (b *BrowserAdapter) Scroll(ctx context.Context, direction string) error {
	page, err := b.activePage(ctx)
	if err != nil {
		return err
	}

	var script string
	switch strings.ToLower(strings.TrimSpace(direction)) {
	case "down":
		script = `() => window.scrollBy(0, window.innerHeight)`
	case "up":
		script = `() => window.scrollBy(0, -window.innerHeight)`
	case "top":
		script = `() => window.scrollTo(0, 0)`
	case "bottom":
		script = `() => window.scrollTo(0, document.body.scrollHeight)`
	default:
		return fmt.Errorf("%w: %s", ErrInvalidScrollDirection, direction)
	}

	if _, err := page.Eval(script); err != nil {
		return fmt.Errorf("scroll failed: %w", err)
	}
	page.WaitIdle(800 * time.Millisecond)
	return nil
}

func (b *BrowserAdapter) GetPageContent(ctx context.Context) (*entity.PageContent, error) {
	page, err := b.activePage(ctx)
	if err != nil {
		return nil, err
	}

	info, err := page.Info()
	if err != nil {
		return nil, fmt.Errorf("page info failed: %w", err)
	}

	body, err := page.Timeout(b.timeout).Element("body")
	if err != nil {
		return nil, fmt.Errorf("body not found: %w", err)
	}
	rawHTML, err := body.HTML()
	if err != nil {
		return nil, fmt.Errorf("failed to get HTML: %w", err)
	}
	text, err := body.Text()
	if err != nil {
		return nil, fmt.Errorf("failed to get text: %w", err)
	}

	elements, err := b.GetUIElements(ctx)
	if err != nil {
		b.log("UI extraction failed", "error", err)
		elements = nil
	}

	return &entity.PageContent{
		URL:        info.URL,
		Title:      info.Title,
		HTML:       CleanHTML(rawHTML, nil),
		Text:       strings.TrimSpace(text),
		UIElements: elements,
	}, nil
}

const inViewportJS = `() => {
	const r = this.getBoundingClientRect();
	return r.top < window.innerHeight && r.bottom >= 0 && r.left < window.innerWidth && r.right >= 0;
}`

// uiSelectors are queried in order; the first match of an element wins.
var uiSelectors = []struct {
	query string
	typ   string
}{
	{"button, [role='button'], input[type='submit'], [aria-label]:not([aria-label=''])", "button"},
	{"input:not([type='hidden']):not([type='submit']), textarea, select", "input"},
	{"a[href]", "link"},
}

func (b *BrowserAdapter) GetUIElements(ctx context.Context) ([]entity.UIElement, error) {
	page, err := b.activePage(ctx)
	if err != nil {
		return nil, err
	}

	var result []entity.UIElement
	seen := make(map[string]bool)

	for _, group := range uiSelectors {
		elements, err := page.Elements(group.query)
		if err != nil {
			return result, fmt.Errorf("query %q failed: %w", group.query, err)
		}
		for _, el := range elements {
			if len(result) >= maxUIElements {
				return result, nil
			}
			visible, err := el.Visible()
			if err != nil || !visible {
				continue
			}
			xpath, err := el.GetXPath(true)
			if err != nil || seen[xpath] {
				continue
			}
			seen[xpath] = true

			text, _ := el.Text()
			aria, _ := el.Attribute("aria-label")
			role, _ := el.Attribute("role")
			inViewport := true
			if res, err := el.Eval(inViewportJS); err == nil {
				inViewport = res.Value.Bool()
			}

			result = append(result, entity.UIElement{
				ID:         fmt.Sprintf("ui-%04d", len(result)),
				Type:       group.typ,
				Text:       truncate(strings.TrimSpace(text), 200),
				AriaLabel:  deref(aria),
				Role:       deref(role),
				Visible:    true,
				InViewport: inViewport,
				Selector:   xpath,
			})
		}
	}

	return result, nil
}

func (b *BrowserAdapter) Screenshot(ctx context.Context) (*entity.Screenshot, error) {
	page, err := b.activePage(ctx)
	if err != nil {
		return nil, err
	}

	raw, err := page.Screenshot(false, &proto.PageCaptureScreenshot{
		Format:  proto.PageCaptureScreenshotFormatJpeg,
		Quality: gson.Int(80),
	})
	if err != nil {
		return nil, fmt.Errorf("screenshot failed: %w", err)
	}

	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("image decode failed: %w", err)
	}
	if img.Bounds().Dx() > maxScreenshotWidth {
		img = imaging.Resize(img, maxScreenshotWidth, 0, imaging.Lanczos)
	}

	buf := new(bytes.Buffer)
	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: 75}); err != nil {
		return nil, fmt.Errorf("jpeg encode failed: %w", err)
	}

	return &entity.Screenshot{
		Data:   buf.Bytes(),
		Format: "jpeg",
		Width:  img.Bounds().Dx(),
		Height: img.Bounds().Dy(),
	}, nil
}

func (b *BrowserAdapter) CurrentURL() string {
	page, err := b.activePage(context.Background())
	if err != nil {
		return ""
	}
	info, err := page.Info()
	if err != nil {
		return ""
	}
	return info.URL
}

// Close is idempotent.
func (b *BrowserAdapter) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	b.mu.Unlock()

	// An attached browser belongs to someone else; only our page goes away.
	if !b.ownsBrowser() {
		if b.page != nil {
			if err := b.page.Close(); err != nil {
				b.log("Page close failed", "error", err)
			}
		}
		return
	}

	if b.browser != nil {
		if err := b.browser.Close(); err != nil {
			b.log("Browser close failed", "error", err)
		}
	}
	b.killLauncher()
}

func (b *BrowserAdapter) ownsBrowser() bool {
	return b.launcher != nil
}

func (b *BrowserAdapter) killLauncher() {
	if b.launcher != nil {
		b.launcher.Kill()
		b.launcher.Cleanup()
	}
}

func deref(s *string) string {
	if s != nil {
		return *s
	}
	return ""
}

// truncate cuts s to at most n bytes on a rune boundary.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
