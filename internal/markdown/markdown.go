package markdown

import (
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/ansi"
	"github.com/charmbracelet/glamour/styles"
)

// renderer is the subset of glamour.TermRenderer used here.
type renderer interface {
	Render(string) (string, error)
}

type cacheKey struct {
	width int
	style string
}

var (
	rendererMu sync.Mutex
	renderers  = map[cacheKey]renderer{}
)

// styleConfig maps a display theme name to a glamour style. Unknown names
// fall back to the dark style.
func styleConfig(name string) ansi.StyleConfig {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "light":
		return styles.LightStyleConfig
	case "mono", "ascii":
		style := styles.ASCIIStyleConfig
		style.Item.BlockPrefix = "- "
		return style
	case "notty", "plain":
		return styles.NoTTYStyleConfig
	default:
		return styles.DarkStyleConfig
	}
}

// Render formats the note for terminal output at the given width. On a
// renderer error or panic the trimmed input is returned unchanged.
func Render(width int, style, input string) string {
	value := normalize(input)
	if strings.TrimSpace(value) == "" {
		return ""
	}
	if width < 1 {
		width = 1
	}

	r := cachedRenderer(width, style)
	if r == nil {
		return value
	}
	out, err := safeRender(r, value)
	if err != nil {
		return value
	}
	out = strings.TrimRight(out, "\n")
	if strings.TrimSpace(out) == "" {
		return value
	}
	return out
}

func safeRender(r renderer, value string) (out string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("markdown renderer panic: %v", rec)
		}
	}()
	return r.Render(value)
}

func cachedRenderer(width int, style string) renderer {
	key := cacheKey{width: width, style: style}

	rendererMu.Lock()
	defer rendererMu.Unlock()
	if cached, ok := renderers[key]; ok {
		return cached
	}
	created, err := glamour.NewTermRenderer(
		glamour.WithStyles(styleConfig(style)),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil
	}
	renderers[key] = created
	return created
}

func normalize(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return strings.TrimRight(s, "\n")
}
