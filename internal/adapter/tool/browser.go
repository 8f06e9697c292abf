package tool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"research-agent/internal/application/port/output"
	"research-agent/internal/domain/entity"
)

const (
	DefaultSearchURL = "https://www.google.com/search?q=%s&udm=14"
	maxExtractLen    = 15000
)

var (
	_ output.ToolPort = (*NavigateTool)(nil)
	_ output.ToolPort = (*WebSearchTool)(nil)
	_ output.ToolPort = (*ClickTool)(nil)
	_ output.ToolPort = (*FillTool)(nil)
	_ output.ToolPort = (*PressEnterTool)(nil)
	_ output.ToolPort = (*ScrollTool)(nil)
	_ output.ToolPort = (*ExtractTool)(nil)
	_ output.ToolPort = (*UISummaryTool)(nil)
	_ output.ToolPort = (*ScreenshotTool)(nil)
)

// BrowserTools returns the standard browser actions bound to one session.
func BrowserTools(browser output.BrowserPort, logger output.LoggerPort) []output.ToolPort {
	return []output.ToolPort{
		NewNavigateTool(browser, logger),
		NewWebSearchTool(browser, logger, DefaultSearchURL),
		NewClickTool(browser, logger),
		NewFillTool(browser, logger),
		NewPressEnterTool(browser, logger),
		NewScrollTool(browser, logger),
		NewExtractTool(browser, logger),
		NewUISummaryTool(browser, logger),
		NewScreenshotTool(browser, logger),
	}
}

type NavigateTool struct {
	browser output.BrowserPort
	logger  output.LoggerPort
}

func NewNavigateTool(browser output.BrowserPort, logger output.LoggerPort) *NavigateTool {
	return &NavigateTool{browser: browser, logger: logger}
}

func (t *NavigateTool) Name() entity.ToolName { return entity.ToolBrowserNavigate }
func (t *NavigateTool) Description() string {
	return "Open a URL in the current tab. Returns the final URL after redirects."
}
func (t *NavigateTool) Parameters() map[string]interface{} {
	return objectSchema(map[string]interface{}{
		"url": stringProp("Absolute URL, e.g. https://example.com"),
	}, "url")
}

func (t *NavigateTool) Execute(ctx context.Context, args string) (string, error) {
	var input struct {
		URL string `json:"url"`
	}
	if err := decodeArgs(args, &input); err != nil {
		return "", err
	}
	if err := t.browser.Navigate(ctx, input.URL); err != nil {
		return "", err
	}
	return fmt.Sprintf("Navigated to %s", t.browser.CurrentURL()), nil
}

// WebSearchTool opens a search engine results page and returns its text.
type WebSearchTool struct {
	browser   output.BrowserPort
	logger    output.LoggerPort
	searchURL string
}

// NewWebSearchTool takes a URL template with a single %s for the escaped query.
func NewWebSearchTool(browser output.BrowserPort, logger output.LoggerPort, searchURL string) *WebSearchTool {
	if searchURL == "" {
		searchURL = DefaultSearchURL
	}
	return &WebSearchTool{browser: browser, logger: logger, searchURL: searchURL}
}

func (t *WebSearchTool) Name() entity.ToolName { return entity.ToolBrowserSearch }
func (t *WebSearchTool) Description() string {
	return "Search the web and return the text of the results page. Use it to find sources before navigating."
}
func (t *WebSearchTool) Parameters() map[string]interface{} {
	return objectSchema(map[string]interface{}{
		"query": stringProp("Search query"),
	}, "query")
}

func (t *WebSearchTool) Execute(ctx context.Context, args string) (string, error) {
	var input struct {
		Query string `json:"query"`
	}
	if err := decodeArgs(args, &input); err != nil {
		return "", err
	}
	if strings.TrimSpace(input.Query) == "" {
		return "", errors.New("query is required")
	}

	if err := t.browser.Navigate(ctx, fmt.Sprintf(t.searchURL, url.QueryEscape(input.Query))); err != nil {
		return "", err
	}
	content, err := t.browser.GetPageContent(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Search results for %q (%s):\n\n%s", input.Query, content.URL, clip(content.Text, maxExtractLen)), nil
}

type ClickTool struct {
	browser output.BrowserPort
	logger  output.LoggerPort
}

func NewClickTool(browser output.BrowserPort, logger output.LoggerPort) *ClickTool {
	return &ClickTool{browser: browser, logger: logger}
}

func (t *ClickTool) Name() entity.ToolName { return entity.ToolBrowserClick }
func (t *ClickTool) Description() string {
	return "Click an element. Take the selector from ui_summary; CSS and XPath are both accepted."
}
func (t *ClickTool) Parameters() map[string]interface{} {
	return objectSchema(map[string]interface{}{
		"selector": stringProp("CSS or XPath selector"),
	}, "selector")
}

func (t *ClickTool) Execute(ctx context.Context, args string) (string, error) {
	var input struct {
		Selector string `json:"selector"`
	}
	if err := decodeArgs(args, &input); err != nil {
		return "", err
	}
	if err := t.browser.Click(ctx, input.Selector); err != nil {
		return "", err
	}
	return fmt.Sprintf("Clicked %s, now at %s", input.Selector, t.browser.CurrentURL()), nil
}

type FillTool struct {
	browser output.BrowserPort
	logger  output.LoggerPort
}

func NewFillTool(browser output.BrowserPort, logger output.LoggerPort) *FillTool {
	return &FillTool{browser: browser, logger: logger}
}

func (t *FillTool) Name() entity.ToolName { return entity.ToolBrowserFill }
func (t *FillTool) Description() string {
	return "Replace the value of an input or textarea."
}
func (t *FillTool) Parameters() map[string]interface{} {
	return objectSchema(map[string]interface{}{
		"selector": stringProp("CSS or XPath selector of the field"),
		"text":     stringProp("Text to type"),
	}, "selector", "text")
}

func (t *FillTool) Execute(ctx context.Context, args string) (string, error) {
	var input struct {
		Selector string `json:"selector"`
		Text     string `json:"text"`
	}
	if err := decodeArgs(args, &input); err != nil {
		return "", err
	}
	if err := t.browser.Fill(ctx, input.Selector, input.Text); err != nil {
		return "", err
	}
	return fmt.Sprintf("Filled '%s' with text", input.Selector), nil
}

type PressEnterTool struct {
	browser output.BrowserPort
	logger  output.LoggerPort
}

func NewPressEnterTool(browser output.BrowserPort, logger output.LoggerPort) *PressEnterTool {
	return &PressEnterTool{browser: browser, logger: logger}
}

func (t *PressEnterTool) Name() entity.ToolName { return entity.ToolBrowserPressEnter }
func (t *PressEnterTool) Description() string   { return "Press Enter, e.g. to submit a search form." }
func (t *PressEnterTool) Parameters() map[string]interface{} {
	return objectSchema(map[string]interface{}{})
}

func (t *PressEnterTool) Execute(ctx context.Context, _ string) (string, error) {
	if err := t.browser.PressEnter(ctx); err != nil {
		return "", err
	}
	return "Enter pressed", nil
}

type ScrollTool struct {
	browser output.BrowserPort
	logger  output.LoggerPort
}

func NewScrollTool(browser output.BrowserPort, logger output.LoggerPort) *ScrollTool {
	return &ScrollTool{browser: browser, logger: logger}
}

func (t *ScrollTool) Name() entity.ToolName { return entity.ToolBrowserScroll }
func (t *ScrollTool) Description() string   { return "Scroll the page by one screen or to an edge." }
func (t *ScrollTool) Parameters() map[string]interface{} {
	return objectSchema(map[string]interface{}{
		"direction": map[string]interface{}{
			"type":        "string",
			"enum":        []string{"up", "down", "top", "bottom"},
			"description": "Scroll direction",
		},
	}, "direction")
}

func (t *ScrollTool) Execute(ctx context.Context, args string) (string, error) {
	var input struct {
		Direction string `json:"direction"`
	}
	if err := decodeArgs(args, &input); err != nil {
		return "", err
	}
	if err := t.browser.Scroll(ctx, input.Direction); err != nil {
		return "", err
	}
	return fmt.Sprintf("Scrolled %s", input.Direction), nil
}

type ExtractTool struct {
	browser output.BrowserPort
	logger  output.LoggerPort
}

func NewExtractTool(browser output.BrowserPort, logger output.LoggerPort) *ExtractTool {
	return &ExtractTool{browser: browser, logger: logger}
}

func (t *ExtractTool) Name() entity.ToolName { return entity.ToolBrowserExtract }
func (t *ExtractTool) Description() string {
	return "Extract the content of the current page as plain text (default) or cleaned HTML."
}
func (t *ExtractTool) Parameters() map[string]interface{} {
	return objectSchema(map[string]interface{}{
		"format": map[string]interface{}{
			"type":        "string",
			"enum":        []string{"text", "html"},
			"description": "Output format",
		},
	})
}

func (t *ExtractTool) Execute(ctx context.Context, args string) (string, error) {
	var input struct {
		Format string `json:"format"`
	}
	if err := decodeArgs(args, &input); err != nil {
		return "", err
	}

	content, err := t.browser.GetPageContent(ctx)
	if err != nil {
		return "", err
	}

	body := content.Text
	if input.Format == "html" {
		body = content.HTML
	}
	return fmt.Sprintf("Title: %s\nURL: %s\n\n%s", content.Title, content.URL, clip(body, maxExtractLen)), nil
}

type UISummaryTool struct {
	browser output.BrowserPort
	logger  output.LoggerPort
}

func NewUISummaryTool(browser output.BrowserPort, logger output.LoggerPort) *UISummaryTool {
	return &UISummaryTool{browser: browser, logger: logger}
}

func (t *UISummaryTool) Name() entity.ToolName { return entity.ToolBrowserUISummary }
func (t *UISummaryTool) Description() string {
	return "List visible interactive elements (buttons, inputs, links) with selectors."
}
func (t *UISummaryTool) Parameters() map[string]interface{} {
	return objectSchema(map[string]interface{}{})
}

func (t *UISummaryTool) Execute(ctx context.Context, _ string) (string, error) {
	elements, err := t.browser.GetUIElements(ctx)
	if err != nil {
		return "", err
	}
	if len(elements) == 0 {
		return "No interactive elements found", nil
	}
	data, err := json.Marshal(elements)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// ScreenshotTool captures the viewport. The image itself is not returned as
// text; callers that support vision pick it up through LastImage.
type ScreenshotTool struct {
	browser output.BrowserPort
	logger  output.LoggerPort

	mu   sync.Mutex
	last *entity.Image
}

func NewScreenshotTool(browser output.BrowserPort, logger output.LoggerPort) *ScreenshotTool {
	return &ScreenshotTool{browser: browser, logger: logger}
}

func (t *ScreenshotTool) Name() entity.ToolName { return entity.ToolBrowserScreenshot }
func (t *ScreenshotTool) Description() string   { return "Take a screenshot of the visible page." }
func (t *ScreenshotTool) Parameters() map[string]interface{} {
	return objectSchema(map[string]interface{}{})
}

func (t *ScreenshotTool) Execute(ctx context.Context, _ string) (string, error) {
	shot, err := t.browser.Screenshot(ctx)
	if err != nil {
		return "", err
	}

	t.mu.Lock()
	t.last = &entity.Image{Data: shot.Data, MediaType: "image/" + shot.Format}
	t.mu.Unlock()

	return fmt.Sprintf("Screenshot captured (%dx%d %s)", shot.Width, shot.Height, shot.Format), nil
}

// LastImage returns and clears the most recent screenshot.
func (t *ScreenshotTool) LastImage() *entity.Image {
	t.mu.Lock()
	defer t.mu.Unlock()
	img := t.last
	t.last = nil
	return img
}

func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "\n... (truncated)"
}
