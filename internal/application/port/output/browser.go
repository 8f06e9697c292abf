package output

import (
	"context"

	"research-agent/internal/domain/entity"
)

type BrowserPort interface {
	Navigate(ctx context.Context, url string) error
	Click(ctx context.Context, selector string) error
	Fill(ctx context.Context, selector, text string) error
	PressEnter(ctx context.Context) error
	Scroll(ctx context.Context, direction string) error

	GetPageContent(ctx context.Context) (*entity.PageContent, error)
	GetUIElements(ctx context.Context) ([]entity.UIElement, error)
	Screenshot(ctx context.Context) (*entity.Screenshot, error)

	CurrentURL() string
	Close()
}

// BrowserFactory opens a browser session for one task.
type BrowserFactory interface {
	NewBrowser(ctx context.Context, cfg entity.BrowserConfig) (BrowserPort, error)
}
