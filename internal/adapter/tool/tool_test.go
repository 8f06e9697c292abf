package tool

import (
	"context"
	"errors"
	"strings"
	"testing"

	"research-agent/internal/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBrowser struct {
	url       string
	navigated []string
	clicked   []string
	filled    map[string]string
	scrolled  []string
	enter     int
	content   *entity.PageContent
	elements  []entity.UIElement
	shot      *entity.Screenshot
	failWith  error
}

func (f *fakeBrowser) Navigate(_ context.Context, url string) error {
	if f.failWith != nil {
		return f.failWith
	}
	f.navigated = append(f.navigated, url)
	f.url = url
	return nil
}

func (f *fakeBrowser) Click(_ context.Context, selector string) error {
	f.clicked = append(f.clicked, selector)
	return f.failWith
}

func (f *fakeBrowser) Fill(_ context.Context, selector, text string) error {
	if f.filled == nil {
		f.filled = map[string]string{}
	}
	f.filled[selector] = text
	return f.failWith
}

func (f *fakeBrowser) PressEnter(context.Context) error {
	f.enter++
	return f.failWith
}

func (f *fakeBrowser) Scroll(_ context.Context, direction string) error {
	f.scrolled = append(f.scrolled, direction)
	return f.failWith
}

func (f *fakeBrowser) GetPageContent(context.Context) (*entity.PageContent, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	return f.content, nil
}

func (f *fakeBrowser) GetUIElements(context.Context) ([]entity.UIElement, error) {
	return f.elements, f.failWith
}

func (f *fakeBrowser) Screenshot(context.Context) (*entity.Screenshot, error) {
	return f.shot, f.failWith
}

func (f *fakeBrowser) CurrentURL() string { return f.url }
func (f *fakeBrowser) Close()             {}

func TestBrowserTools_Names(t *testing.T) {
	tools := BrowserTools(&fakeBrowser{}, nil)

	var names []string
	for _, tl := range tools {
		names = append(names, tl.Name().String())
		assert.Equal(t, "object", tl.Parameters()["type"])
		assert.NotEmpty(t, tl.Description())
	}
	assert.ElementsMatch(t, []string{
		"navigate", "web_search", "click", "fill", "press_enter",
		"scroll", "extract", "ui_summary", "screenshot",
	}, names)
}

func TestNavigateTool(t *testing.T) {
	b := &fakeBrowser{}
	out, err := NewNavigateTool(b, nil).Execute(context.Background(), `{"url":"https://go.dev"}`)

	require.NoError(t, err)
	assert.Equal(t, "Navigated to https://go.dev", out)

	_, err = NewNavigateTool(b, nil).Execute(context.Background(), `{not json`)
	assert.ErrorContains(t, err, "invalid arguments")
}

func TestWebSearchTool(t *testing.T) {
	b := &fakeBrowser{content: &entity.PageContent{URL: "https://search", Text: "result one"}}
	tl := NewWebSearchTool(b, nil, "https://search.example/?q=%s")

	out, err := tl.Execute(context.Background(), `{"query":"go generics"}`)
	require.NoError(t, err)

	assert.Equal(t, []string{"https://search.example/?q=go+generics"}, b.navigated)
	assert.Contains(t, out, "result one")

	_, err = tl.Execute(context.Background(), `{"query":"  "}`)
	assert.Error(t, err)
}

func TestInteractionTools(t *testing.T) {
	ctx := context.Background()
	b := &fakeBrowser{url: "https://x"}

	_, err := NewClickTool(b, nil).Execute(ctx, `{"selector":"#go"}`)
	require.NoError(t, err)
	_, err = NewFillTool(b, nil).Execute(ctx, `{"selector":"#q","text":"hello"}`)
	require.NoError(t, err)
	_, err = NewPressEnterTool(b, nil).Execute(ctx, "")
	require.NoError(t, err)
	out, err := NewScrollTool(b, nil).Execute(ctx, `{"direction":"down"}`)
	require.NoError(t, err)

	assert.Equal(t, []string{"#go"}, b.clicked)
	assert.Equal(t, "hello", b.filled["#q"])
	assert.Equal(t, 1, b.enter)
	assert.Equal(t, "Scrolled down", out)

	b.failWith = errors.New("boom")
	_, err = NewClickTool(b, nil).Execute(ctx, `{"selector":"#go"}`)
	assert.EqualError(t, err, "boom")
}

func TestExtractTool(t *testing.T) {
	b := &fakeBrowser{content: &entity.PageContent{
		URL:   "https://go.dev",
		Title: "Go",
		HTML:  "<p>Build simple</p>",
		Text:  strings.Repeat("x", maxExtractLen+10),
	}}
	tl := NewExtractTool(b, nil)

	out, err := tl.Execute(context.Background(), "{}")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "Title: Go\nURL: https://go.dev"))
	assert.True(t, strings.HasSuffix(out, "(truncated)"))

	out, err = tl.Execute(context.Background(), `{"format":"html"}`)
	require.NoError(t, err)
	assert.Contains(t, out, "<p>Build simple</p>")
}

func TestUISummaryTool(t *testing.T) {
	b := &fakeBrowser{}
	out, err := NewUISummaryTool(b, nil).Execute(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "No interactive elements found", out)

	b.elements = []entity.UIElement{{ID: "ui-0000", Type: "button", Text: "Go", Selector: "/html/body/button"}}
	out, err = NewUISummaryTool(b, nil).Execute(context.Background(), "")
	require.NoError(t, err)
	assert.Contains(t, out, `"selector":"/html/body/button"`)
}

func TestScreenshotTool(t *testing.T) {
	b := &fakeBrowser{shot: &entity.Screenshot{Data: []byte{1}, Format: "jpeg", Width: 10, Height: 5}}
	tl := NewScreenshotTool(b, nil)

	out, err := tl.Execute(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "Screenshot captured (10x5 jpeg)", out)

	img := tl.LastImage()
	require.NotNil(t, img)
	assert.Equal(t, "image/jpeg", img.MediaType)
	assert.Nil(t, tl.LastImage())
}

func TestAskForAssistantTool(t *testing.T) {
	ctx := context.Background()

	out, err := NewAskForAssistantTool(nil, nil).Execute(ctx, `{"query":"captcha?"}`)
	require.NoError(t, err)
	assert.Equal(t, "Human cannot help you. Please try another way.", out)

	ask := func(_ context.Context, q string) (string, error) { return "solved it", nil }
	out, err = NewAskForAssistantTool(ask, nil).Execute(ctx, `{"query":"captcha?"}`)
	require.NoError(t, err)
	assert.Equal(t, "AI ask: captcha?. User response: solved it", out)

	failing := func(context.Context, string) (string, error) { return "", errors.New("closed stdin") }
	_, err = NewAskForAssistantTool(failing, nil).Execute(ctx, `{"query":"captcha?"}`)
	assert.ErrorContains(t, err, "closed stdin")
}

type fakeMCPClient struct {
	called string
	args   map[string]any
}

func (f *fakeMCPClient) Connect(context.Context) error { return nil }
func (f *fakeMCPClient) ListTools(context.Context) ([]entity.ToolDefinition, error) {
	return nil, nil
}
func (f *fakeMCPClient) CallTool(_ context.Context, name string, args map[string]any) (string, error) {
	f.called = name
	f.args = args
	return "42", nil
}
func (f *fakeMCPClient) Disconnect(context.Context) error { return nil }

func TestMCPTool(t *testing.T) {
	client := &fakeMCPClient{}
	tl := NewMCPTool(client, "calc", entity.ToolDefinition{Name: "add", Description: "Add numbers"})

	assert.Equal(t, entity.ToolName("mcp_calc_add"), tl.Name())
	assert.Equal(t, "object", tl.Parameters()["type"])

	out, err := tl.Execute(context.Background(), `{"a":40,"b":2}`)
	require.NoError(t, err)
	assert.Equal(t, "42", out)
	assert.Equal(t, "add", client.called)
	assert.Equal(t, float64(40), client.args["a"])
}
