package rod

import (
	"context"

	"research-agent/internal/application/port/output"
	"research-agent/internal/domain/entity"
)

var _ output.BrowserFactory = (*Factory)(nil)

// Factory launches one browser per task.
type Factory struct {
	opts []Option
}

func NewFactory(opts ...Option) *Factory {
	return &Factory{opts: opts}
}

func (f *Factory) NewBrowser(ctx context.Context, cfg entity.BrowserConfig) (output.BrowserPort, error) {
	adapter, err := NewBrowserAdapter(ctx, cfg, f.opts...)
	if err != nil {
		return nil, err
	}
	return adapter, nil
}
