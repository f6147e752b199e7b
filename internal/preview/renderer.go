package preview

import "site-generator-backend/internal/sitecode"

// Rendered is a preview document ready to serve.
type Rendered struct {
	HTML    string
	Lossy   bool
	Dropped int
}

// Renderer runs stored code through normalize, convert, sanitize and
// watermark.
type Renderer struct {
	sanitizer *Sanitizer
	watermark WatermarkOptions
}

func NewRenderer(allowHosts []string, watermark WatermarkOptions) *Renderer {
	if len(allowHosts) == 0 {
		allowHosts = DefaultScriptHosts
	}
	return &Renderer{
		sanitizer: NewSanitizer(allowHosts),
		watermark: watermark,
	}
}

func (r *Renderer) Render(code string) Rendered {
	converted := sitecode.Convert(sitecode.Normalize(code), sitecode.DefaultOptions())
	doc := r.sanitizer.Sanitize(converted.HTML)
	return Rendered{
		HTML:    Watermark(doc, r.watermark),
		Lossy:   converted.Lossy,
		Dropped: converted.Dropped,
	}
}
