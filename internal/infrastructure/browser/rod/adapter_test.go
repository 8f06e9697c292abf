package rod

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"unicode/utf8"

	"research-agent/internal/domain/entity"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func htmlServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, body)
	}))
	t.Cleanup(server.Close)
	return server
}

// newTestAdapter starts a headless browser or skips when none is installed.
func newTestAdapter(t *testing.T) *BrowserAdapter {
	t.Helper()
	if testing.Short() {
		t.Skip("browser tests disabled in short mode")
	}
	if _, ok := launcher.LookPath(); !ok {
		t.Skip("no local browser found")
	}

	cfg := entity.DefaultBrowserConfig()
	cfg.Headless = true

	adapter, err := NewBrowserAdapter(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(adapter.Close)
	return adapter
}

func TestValidateURL(t *testing.T) {
	tests := []struct {
		url     string
		wantErr bool
	}{
		{"https://example.com", false},
		{"http://localhost:8080/path", false},
		{"about:blank", false},
		{"ftp://example.com", true},
		{"example.com", true},
		{"http://", true},
		{"://broken", true},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			err := validateURL(tt.url)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidURL)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestIsXPath(t *testing.T) {
	assert.True(t, isXPath("//button"))
	assert.True(t, isXPath("/html/body"))
	assert.True(t, isXPath("(//a)[2]"))
	assert.False(t, isXPath("#submit"))
	assert.False(t, isXPath("button.primary"))
}

func TestNewLauncherFlags(t *testing.T) {
	cfg := entity.BrowserConfig{
		Headless:        true,
		WindowWidth:     1280,
		WindowHeight:    720,
		UserDataDir:     t.TempDir(),
		DisableSecurity: true,
		ExtraArgs:       []string{"--lang=en-US", "--mute-audio"},
	}

	l := newLauncher(cfg)

	assert.True(t, l.Has("window-size"))
	assert.Equal(t, "1280,720", l.Get("window-size"))
	assert.True(t, l.Has("disable-web-security"))
	assert.Equal(t, "en-US", l.Get("lang"))
	assert.True(t, l.Has("mute-audio"))
}

func TestNewLauncherFlags_SecureByDefault(t *testing.T) {
	l := newLauncher(entity.DefaultBrowserConfig())

	assert.False(t, l.Has("disable-web-security"))
	assert.False(t, l.Has("allow-running-insecure-content"))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "ab...", truncate("abcdef", 2))
}

func TestTruncate_KeepsRunesWhole(t *testing.T) {
	got := truncate("héllo wörld", 2)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, "h...", got)

	got = truncate(strings.Repeat("日本語", 100), 200)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, strings.Repeat("日本語", 22)+"...", got)
}

func TestBrowserAdapter_OwnsBrowser(t *testing.T) {
	assert.False(t, (&BrowserAdapter{}).ownsBrowser(), "attached via cdp")
	assert.True(t, (&BrowserAdapter{launcher: launcher.New()}).ownsBrowser())
}

func TestBrowserAdapter_NavigateAndContent(t *testing.T) {
	adapter := newTestAdapter(t)
	server := htmlServer(t, articlePage)
	ctx := context.Background()

	require.NoError(t, adapter.Navigate(ctx, server.URL))

	content, err := adapter.GetPageContent(ctx)
	require.NoError(t, err)
	assert.Equal(t, server.URL+"/", content.URL)
	assert.Equal(t, "Release Notes", content.Title)
	assert.Contains(t, content.HTML, "Go 1.24 Release Notes")
	assert.Contains(t, content.Text, "Generic type aliases")
	assert.Equal(t, server.URL+"/", adapter.CurrentURL())
}

func TestBrowserAdapter_Navigate_InvalidURL(t *testing.T) {
	adapter := newTestAdapter(t)

	err := adapter.Navigate(context.Background(), "not a url")
	assert.ErrorIs(t, err, ErrInvalidURL)
}

func TestBrowserAdapter_FillAndClick(t *testing.T) {
	adapter := newTestAdapter(t)
	server := htmlServer(t, expandablePage)
	ctx := context.Background()

	require.NoError(t, adapter.Navigate(ctx, server.URL))
	require.NoError(t, adapter.Click(ctx, "#more"))

	content, err := adapter.GetPageContent(ctx)
	require.NoError(t, err)
	assert.Contains(t, content.Text, "Details expanded")

	server = htmlServer(t, searchPage)
	require.NoError(t, adapter.Navigate(ctx, server.URL))
	require.NoError(t, adapter.Fill(ctx, "#q", "generic aliases"))
	require.NoError(t, adapter.Fill(ctx, "//input[@name='q']", "type parameters"))
	assert.NoError(t, adapter.PressEnter(ctx))
}

func TestBrowserAdapter_Scroll(t *testing.T) {
	adapter := newTestAdapter(t)
	server := htmlServer(t, longPage)
	ctx := context.Background()
	require.NoError(t, adapter.Navigate(ctx, server.URL))

	for _, dir := range []string{"down", "UP", " bottom ", "top"} {
		assert.NoError(t, adapter.Scroll(ctx, dir), dir)
	}
	assert.ErrorIs(t, adapter.Scroll(ctx, "sideways"), ErrInvalidScrollDirection)
}

func TestBrowserAdapter_GetUIElements(t *testing.T) {
	adapter := newTestAdapter(t)
	server := htmlServer(t, searchPage)
	ctx := context.Background()
	require.NoError(t, adapter.Navigate(ctx, server.URL))

	elements, err := adapter.GetUIElements(ctx)
	require.NoError(t, err)

	types := map[string]bool{}
	for _, el := range elements {
		assert.NotEmpty(t, el.ID)
		assert.NotEmpty(t, el.Selector)
		types[el.Type] = true
	}
	assert.True(t, types["button"])
	assert.True(t, types["input"])
}

func TestBrowserAdapter_Screenshot(t *testing.T) {
	adapter := newTestAdapter(t)
	server := htmlServer(t, articlePage)
	ctx := context.Background()
	require.NoError(t, adapter.Navigate(ctx, server.URL))

	shot, err := adapter.Screenshot(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, shot.Data)
	assert.Equal(t, "jpeg", shot.Format)
	assert.LessOrEqual(t, shot.Width, maxScreenshotWidth)

	_, format, err := image.DecodeConfig(bytes.NewReader(shot.Data))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
}

func TestBrowserAdapter_Close(t *testing.T) {
	adapter := newTestAdapter(t)

	adapter.Close()
	adapter.Close()

	assert.ErrorIs(t, adapter.Navigate(context.Background(), "https://example.com"), ErrBrowserClosed)
	assert.Empty(t, adapter.CurrentURL())
}

func TestBrowserAdapter_CloseLeavesAttachedBrowserRunning(t *testing.T) {
	if testing.Short() {
		t.Skip("browser tests disabled in short mode")
	}
	if _, ok := launcher.LookPath(); !ok {
		t.Skip("no local browser found")
	}

	l := launcher.New().Headless(true).NoSandbox(true)
	wsURL, err := l.Launch()
	require.NoError(t, err)
	t.Cleanup(func() {
		l.Kill()
		l.Cleanup()
	})

	parsed, err := url.Parse(wsURL)
	require.NoError(t, err)

	cfg := entity.DefaultBrowserConfig()
	cfg.CDPURL = "http://" + parsed.Host

	adapter, err := NewBrowserAdapter(context.Background(), cfg)
	require.NoError(t, err)
	adapter.Close()

	external := rod.New().ControlURL(wsURL)
	require.NoError(t, external.Connect())
	_, err = external.Pages()
	assert.NoError(t, err)
}
