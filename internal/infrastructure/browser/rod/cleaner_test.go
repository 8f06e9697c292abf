package rod

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/net/html"
)

func TestCleanHTML(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		keep    []string
		removed []string
	}{
		{
			name:    "scripts and styles",
			input:   `<body><div id="main">Hello</div><script>alert("hi")</script><style>.x{}</style></body>`,
			keep:    []string{`id="main"`, "Hello"},
			removed: []string{"<script", "<style", "alert"},
		},
		{
			name:    "comments",
			input:   `<body><!-- secret --><p>Text</p></body>`,
			keep:    []string{"<p>Text</p>"},
			removed: []string{"secret"},
		},
		{
			name:    "noisy attributes",
			input:   `<body><a href="/x" style="color:red" data-track="1" onclick="go()" aria-label="Docs">Docs</a></body>`,
			keep:    []string{`href="/x"`, `aria-label="Docs"`},
			removed: []string{"style=", "data-track", "onclick"},
		},
		{
			name:    "head content",
			input:   `<html><head><title>T</title><meta charset="utf-8"></head><body><h1>Title</h1></body></html>`,
			keep:    []string{"<h1>Title</h1>"},
			removed: []string{"<title>", "<meta"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := CleanHTML(tt.input, nil)
			for _, s := range tt.keep {
				assert.Contains(t, out, s)
			}
			for _, s := range tt.removed {
				assert.NotContains(t, out, s)
			}
		})
	}
}

func TestCleanHTML_Truncates(t *testing.T) {
	cfg := DefaultCleanConfig
	cfg.MaxOutputSize = 50

	out := CleanHTML("<body><p>"+strings.Repeat("a", 500)+"</p></body>", &cfg)

	assert.True(t, strings.HasSuffix(out, truncatedMarker))
	assert.Len(t, out, 50+len(truncatedMarker))
}

func TestCleanHTML_CustomFilter(t *testing.T) {
	cfg := DefaultCleanConfig
	cfg.AttrFilter = func(attr html.Attribute) bool { return attr.Key == "class" }

	out := CleanHTML(`<body><div class="wrapper" id="x">hi</div></body>`, &cfg)

	assert.NotContains(t, out, "wrapper")
	assert.Contains(t, out, `id="x"`)
}
