package preview

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

const (
	PositionCenter      = "center"
	PositionTopRight    = "top-right"
	PositionBottomRight = "bottom-right"
	PositionBottomLeft  = "bottom-left"
	PositionTopLeft     = "top-left"

	DefaultOpacity = 0.25
)

var positions = map[string]string{
	PositionCenter:      "top: 50%; left: 50%; transform: translate(-50%, -50%) rotate(-30deg); font-size: 48px",
	PositionTopRight:    "top: 16px; right: 16px; font-size: 18px",
	PositionBottomRight: "bottom: 16px; right: 16px; font-size: 18px",
	PositionBottomLeft:  "bottom: 16px; left: 16px; font-size: 18px",
	PositionTopLeft:     "top: 16px; left: 16px; font-size: 18px",
}

// WatermarkOptions controls the overlay. Zero Opacity means DefaultOpacity
// and an unknown Position falls back to center.
type WatermarkOptions struct {
	Text     string
	Opacity  float64
	Position string
	Guard    bool
}

// guardScript re-inserts a removed overlay and swallows the usual devtools
// shortcuts and the context menu. Deterrence only.
const guardScript = `<script data-preview-guard>
(function () {
  var mark = document.querySelector('[data-preview-watermark]');
  if (!mark) return;
  var copy = mark.cloneNode(true);
  setInterval(function () {
    if (!document.querySelector('[data-preview-watermark]')) {
      (document.body || document.documentElement).appendChild(copy.cloneNode(true));
    }
  }, 1000);
  document.addEventListener('keydown', function (e) {
    var k = (e.key || '').toUpperCase();
    if (e.key === 'F12' || (e.ctrlKey && e.shiftKey && (k === 'I' || k === 'J')) || (e.ctrlKey && k === 'U')) {
      e.preventDefault();
      e.stopPropagation();
    }
  }, true);
  document.addEventListener('contextmenu', function (e) { e.preventDefault(); });
})();
</script>`

// Watermark appends a fixed-position overlay after doc. The original markup
// is left untouched; HTML parsers move trailing content into the body.
func Watermark(doc string, opts WatermarkOptions) string {
	opacity := opts.Opacity
	if opacity <= 0 || opacity > 1 {
		opacity = DefaultOpacity
	}
	pos, ok := positions[opts.Position]
	if !ok {
		pos = positions[PositionCenter]
	}

	var b strings.Builder
	b.Grow(len(doc) + len(guardScript) + 512)
	b.WriteString(doc)
	b.WriteString("\n")
	fmt.Fprintf(&b,
		`<div data-preview-watermark aria-hidden="true" style="position: fixed; %s; z-index: 2147483647; pointer-events: none; user-select: none; white-space: nowrap; opacity: %.2f; color: #111; font-family: sans-serif; font-weight: 700; text-shadow: 0 0 2px #fff">%s</div>`,
		pos, opacity, html.EscapeString(opts.Text))
	if opts.Guard {
		b.WriteString("\n")
		b.WriteString(guardScript)
	}
	return b.String()
}
