// Package preview prepares stored site code for display to visitors who have
// not paid: scripts and outbound actions are stripped and a watermark overlay
// is added.
//
// None of this protects the code. The overlay and the devtools guard are a
// deterrent that anyone can bypass with view-source or curl; the only real
// access control is the download token.
package preview

import (
	"bytes"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// DefaultScriptHosts are the script origins kept in previews.
var DefaultScriptHosts = []string{"cdn.tailwindcss.com"}

// rawTextTags are the elements whose content the tokenizer returns as one
// unparsed text token.
var rawTextTags = map[string]bool{
	"script":    true,
	"style":     true,
	"textarea":  true,
	"title":     true,
	"xmp":       true,
	"iframe":    true,
	"noembed":   true,
	"noframes":  true,
	"noscript":  true,
	"plaintext": true,
}

var urlAttrs = map[string]bool{
	"href":       true,
	"src":        true,
	"action":     true,
	"formaction": true,
	"xlink:href": true,
	"data":       true,
	"poster":     true,
	"background": true,
}

type Sanitizer struct {
	allowHosts map[string]bool
}

func NewSanitizer(allowHosts []string) *Sanitizer {
	s := &Sanitizer{allowHosts: make(map[string]bool, len(allowHosts))}
	for _, h := range allowHosts {
		s.allowHosts[strings.ToLower(strings.TrimSpace(h))] = true
	}
	return s
}

// Sanitize runs the default sanitizer.
func Sanitize(doc string) string {
	return NewSanitizer(DefaultScriptHosts).Sanitize(doc)
}

// Sanitize removes scripts not on the allow-list, event handler attributes,
// javascript: URLs, embedded frames and objects, <base> and meta refresh, and
// disarms forms. Tokens that need no change are copied byte for byte, so the
// output is stable under repeated sanitizing. A literal "<" in text is
// written as "&lt;" so dropping a token can never join its neighbours into
// a new tag.
func (s *Sanitizer) Sanitize(doc string) string {
	z := html.NewTokenizer(strings.NewReader(doc))
	var out bytes.Buffer
	out.Grow(len(doc))

	skipTag := ""
	skipDepth := 0
	inRawText := false

	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			break
		}
		raw := z.Raw()

		if skipTag != "" {
			switch tt {
			case html.StartTagToken:
				if name, _ := z.TagName(); string(name) == skipTag {
					skipDepth++
				}
			case html.EndTagToken:
				if name, _ := z.TagName(); string(name) == skipTag {
					skipDepth--
					if skipDepth == 0 {
						skipTag = ""
					}
				}
			}
			continue
		}

		if tt == html.TextToken {
			if inRawText {
				out.Write(raw)
			} else {
				out.Write(bytes.ReplaceAll(raw, []byte("<"), []byte("&lt;")))
			}
			inRawText = false
			continue
		}
		inRawText = false

		if tt != html.StartTagToken && tt != html.SelfClosingTagToken {
			out.Write(raw)
			continue
		}

		// TagName and TagAttr rewrite the token buffer in place
		raw = bytes.Clone(raw)
		nameBytes, hasAttr := z.TagName()
		name := string(nameBytes)
		attrs := readAttrs(z, hasAttr)

		switch name {
		case "script":
			if !s.allowedScript(attrs) {
				// script content is raw text up to </script> even after "/>"
				skipTag, skipDepth = "script", 1
				continue
			}
		case "iframe", "object":
			if tt == html.StartTagToken || name == "iframe" {
				skipTag, skipDepth = name, 1
			}
			continue
		case "embed", "base", "frame", "frameset":
			continue
		case "meta":
			if strings.EqualFold(strings.TrimSpace(attrValue(attrs, "http-equiv")), "refresh") {
				continue
			}
		}

		inRawText = rawTextTags[name]
		cleaned, changed := cleanAttrs(name, attrs)
		if !changed {
			out.Write(raw)
			continue
		}
		writeTag(&out, name, cleaned, tt == html.SelfClosingTagToken)
	}

	return out.String()
}

func (s *Sanitizer) allowedScript(attrs []html.Attribute) bool {
	src := strings.TrimSpace(attrValue(attrs, "src"))
	if src == "" {
		return false
	}
	if strings.HasPrefix(src, "//") {
		src = "https:" + src
	}
	u, err := url.Parse(src)
	if err != nil || (u.Scheme != "https" && u.Scheme != "http") {
		return false
	}
	if !s.allowHosts[strings.ToLower(u.Hostname())] {
		return false
	}
	for _, a := range attrs {
		if isEventHandler(a.Key) {
			return false
		}
	}
	return true
}

func readAttrs(z *html.Tokenizer, more bool) []html.Attribute {
	var attrs []html.Attribute
	for more {
		var key, val []byte
		key, val, more = z.TagAttr()
		attrs = append(attrs, html.Attribute{Key: string(key), Val: string(val)})
	}
	return attrs
}

func cleanAttrs(tag string, attrs []html.Attribute) ([]html.Attribute, bool) {
	changed := false
	cleaned := make([]html.Attribute, 0, len(attrs)+1)
	hasMarker := false

	for _, a := range attrs {
		switch {
		case isEventHandler(a.Key):
			changed = true
			continue
		case a.Key == "formaction":
			changed = true
			continue
		case tag == "form" && a.Key == "action":
			changed = true
			continue
		case urlAttrs[a.Key] && isScriptURL(a.Val):
			a.Val = "#"
			changed = true
		case a.Key == "data-preview-form":
			hasMarker = true
		}
		cleaned = append(cleaned, a)
	}

	if tag == "form" && !hasMarker {
		cleaned = append(cleaned, html.Attribute{Key: "data-preview-form", Val: "true"})
		changed = true
	}
	return cleaned, changed
}

func writeTag(out *bytes.Buffer, name string, attrs []html.Attribute, selfClosing bool) {
	out.WriteByte('<')
	out.WriteString(name)
	for _, a := range attrs {
		out.WriteByte(' ')
		out.WriteString(a.Key)
		out.WriteString(`="`)
		out.WriteString(html.EscapeString(a.Val))
		out.WriteByte('"')
	}
	if selfClosing {
		out.WriteString(" />")
		return
	}
	out.WriteByte('>')
}

func attrValue(attrs []html.Attribute, key string) string {
	for _, a := range attrs {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func isEventHandler(key string) bool {
	return len(key) > 2 && strings.HasPrefix(key, "on") && key != "open"
}

// isScriptURL matches javascript: and vbscript: URLs, ignoring the
// whitespace and control characters browsers skip in the scheme.
func isScriptURL(v string) bool {
	var b strings.Builder
	for _, r := range v {
		if r <= ' ' {
			continue
		}
		b.WriteRune(r)
		if b.Len() >= len("javascript:") {
			break
		}
	}
	lower := strings.ToLower(b.String())
	return strings.HasPrefix(lower, "javascript:") || strings.HasPrefix(lower, "vbscript:")
}
