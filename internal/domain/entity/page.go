package entity

type PageContent struct {
	URL        string
	Title      string
	HTML       string
	// Text is the visible text of the page body.
	Text       string
	UIElements []UIElement
}

type UIElement struct {
	ID         string `json:"id"`
	Type       string `json:"type"`
	Text       string `json:"text"`
	AriaLabel  string `json:"aria_label,omitempty"`
	Role       string `json:"role,omitempty"`
	Visible    bool   `json:"visible"`
	InViewport bool   `json:"in_viewport"`
	Selector   string `json:"selector"`
}

type Screenshot struct {
	Data   []byte
	Format string
	Width  int
	Height int
}
