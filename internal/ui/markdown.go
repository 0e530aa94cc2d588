package ui

import (
	"fmt"

	"github.com/charmbracelet/glamour"
)

// RenderMarkdown renders markdown to stdout with terminal styling, falling
// back to the raw text when the renderer is unavailable.
func RenderMarkdown(md string) {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		fmt.Println(md)
		return
	}

	out, err := renderer.Render(md)
	if err != nil {
		fmt.Println(md)
		return
	}

	fmt.Print(out)
}
