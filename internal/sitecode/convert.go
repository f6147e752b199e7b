package sitecode

import (
	"bytes"
	"regexp"
	"strings"
	"unicode"
)

const (
	tailwindScript = `<script src="https://cdn.tailwindcss.com"></script>`
	baseStylesheet = `<link rel="stylesheet" href="https://fonts.googleapis.com/css2?family=Inter:wght@400;500;600;700&display=swap">`
)

var (
	classNameRe = regexp.MustCompile(`className\s*=`)
	htmlForRe   = regexp.MustCompile(`htmlFor\s*=`)
	headOpenRe  = regexp.MustCompile(`(?i)<head(\s[^>]*)?>`)
	htmlOpenRe  = regexp.MustCompile(`(?i)<html(\s[^>]*)?>`)
	numberRe    = regexp.MustCompile(`^-?\d+(\.\d+)?$`)
)

// unitless CSS properties keep bare numeric values.
var unitless = map[string]bool{
	"opacity":      true,
	"z-index":      true,
	"font-weight":  true,
	"line-height":  true,
	"flex":         true,
	"flex-grow":    true,
	"flex-shrink":  true,
	"order":        true,
	"zoom":         true,
	"aspect-ratio": true,
}

type Options struct {
	RemoveComplexExpressions bool
	ConvertClassName         bool
	PreserveInlineStyles     bool
	AddTailwind              bool
}

// DefaultOptions enables every conversion step. The preview pipeline uses it.
func DefaultOptions() Options {
	return Options{
		RemoveComplexExpressions: true,
		ConvertClassName:         true,
		PreserveInlineStyles:     true,
		AddTailwind:              true,
	}
}

// Result is the converted document. Lossy is set whenever something could not
// be carried over: a dropped expression or style value, or a component tag
// left in place. Dropped counts removed expressions.
type Result struct {
	HTML    string
	Lossy   bool
	Dropped int
}

// Convert rewrites JSX-flavored markup into static HTML good enough for a
// visual preview. It is a single scan over the text, not a parser; the
// contents of <script>, <style> and HTML comments are copied verbatim.
func Convert(markup string, opts Options) Result {
	if IsJSONPayload(markup) {
		return Result{HTML: markup, Lossy: true}
	}

	c := &converter{src: markup, opts: opts, out: make([]byte, 0, len(markup)+256)}
	c.run()

	html := string(c.out)
	if opts.ConvertClassName {
		html = classNameRe.ReplaceAllString(html, "class=")
		html = htmlForRe.ReplaceAllString(html, "for=")
	}
	if opts.AddTailwind {
		html = injectTailwind(html)
	}
	return Result{HTML: html, Lossy: c.lossy, Dropped: c.dropped}
}

type converter struct {
	src     string
	pos     int
	out     []byte
	opts    Options
	lossy   bool
	dropped int
}

func (c *converter) run() {
	s := c.src
	for c.pos < len(s) {
		rest := s[c.pos:]
		switch {
		case strings.HasPrefix(rest, "<!--"):
			c.copyThrough("-->")
		case strings.HasPrefix(rest, "<!"):
			c.copyThrough(">")
		case strings.HasPrefix(rest, "<>"):
			c.pos += 2
		case strings.HasPrefix(rest, "</>"):
			c.pos += 3
		case rest[0] == '<' && len(rest) > 1 && (isLetter(rest[1]) || rest[1] == '/'):
			c.tag()
		case rest[0] == '{':
			c.textExpression()
		default:
			c.out = append(c.out, rest[0])
			c.pos++
		}
	}
}

func (c *converter) copyThrough(end string) {
	idx := strings.Index(c.src[c.pos:], end)
	if idx < 0 {
		c.out = append(c.out, c.src[c.pos:]...)
		c.pos = len(c.src)
		return
	}
	stop := c.pos + idx + len(end)
	c.out = append(c.out, c.src[c.pos:stop]...)
	c.pos = stop
}

func (c *converter) copyRest() {
	c.out = append(c.out, c.src[c.pos:]...)
	c.pos = len(c.src)
}

func (c *converter) tag() {
	s := c.src
	start := c.pos
	c.pos++
	closing := s[c.pos] == '/'
	if closing {
		c.pos++
	}
	nameStart := c.pos
	for c.pos < len(s) && isNameChar(s[c.pos]) {
		c.pos++
	}
	name := s[nameStart:c.pos]
	c.out = append(c.out, s[start:c.pos]...)

	if isComponentName(name) {
		c.lossy = true
	}
	if closing {
		c.copyThrough(">")
		return
	}

	selfClosing := c.attributes()
	lower := strings.ToLower(name)
	if !selfClosing && (lower == "script" || lower == "style") {
		c.rawText(lower)
	}
}

// attributes consumes the rest of an opening tag through '>'.
func (c *converter) attributes() bool {
	s := c.src
	selfClosing := false
	for c.pos < len(s) {
		ch := s[c.pos]
		switch {
		case ch == '>':
			c.out = append(c.out, ch)
			c.pos++
			return selfClosing
		case ch == '{':
			c.spreadAttribute()
			selfClosing = false
		case isNameChar(ch):
			c.attribute()
			selfClosing = false
		default:
			if !isSpace(ch) {
				selfClosing = ch == '/'
			}
			c.out = append(c.out, ch)
			c.pos++
		}
	}
	return selfClosing
}

func (c *converter) attribute() {
	s := c.src
	nameStart := c.pos
	for c.pos < len(s) && isNameChar(s[c.pos]) {
		c.pos++
	}
	name := s[nameStart:c.pos]
	if c.opts.ConvertClassName {
		switch name {
		case "className":
			name = "class"
		case "htmlFor":
			name = "for"
		}
	}

	eq := skipSpace(s, c.pos)
	if eq >= len(s) || s[eq] != '=' {
		c.out = append(c.out, name...)
		return
	}
	v := skipSpace(s, eq+1)
	if v >= len(s) {
		c.out = append(c.out, name...)
		c.copyRest()
		return
	}

	switch s[v] {
	case '"', '\'':
		end := strings.IndexByte(s[v+1:], s[v])
		if end < 0 {
			c.out = append(c.out, name...)
			c.copyRest()
			return
		}
		stop := v + 1 + end + 1
		c.out = append(c.out, name...)
		c.out = append(c.out, '=')
		c.out = append(c.out, s[v:stop]...)
		c.pos = stop
	case '{':
		end := matchBrace(s, v)
		if end < 0 {
			c.out = append(c.out, name...)
			c.copyRest()
			return
		}
		c.pos = end + 1
		c.expressionAttribute(name, s[v+1:end])
	default:
		stop := v
		for stop < len(s) && !isSpace(s[stop]) && s[stop] != '>' {
			stop++
		}
		c.out = append(c.out, name...)
		c.out = append(c.out, '=')
		c.out = append(c.out, s[v:stop]...)
		c.pos = stop
	}
}

func (c *converter) expressionAttribute(name, inner string) {
	expr := strings.TrimSpace(inner)

	if name == "style" && c.opts.PreserveInlineStyles && isObjectLiteral(expr) {
		css := c.flattenStyle(expr[1 : len(expr)-1])
		if css == "" {
			c.trimOutput()
			return
		}
		c.writeAttr(name, css)
		return
	}

	if !c.opts.RemoveComplexExpressions {
		c.out = append(c.out, name...)
		c.out = append(c.out, "={"...)
		c.out = append(c.out, inner...)
		c.out = append(c.out, '}')
		return
	}

	switch {
	case expr == "true":
		c.out = append(c.out, name...)
	case expr == "false" || expr == "" || isComment(expr):
		c.trimOutput()
	default:
		if lit, ok := literalValue(expr); ok {
			c.writeAttr(name, lit)
			return
		}
		c.drop()
	}
}

// spreadAttribute handles {...props} in attribute position.
func (c *converter) spreadAttribute() {
	end := matchBrace(c.src, c.pos)
	if end < 0 {
		c.copyRest()
		return
	}
	if c.opts.RemoveComplexExpressions {
		c.pos = end + 1
		c.drop()
		return
	}
	c.out = append(c.out, c.src[c.pos:end+1]...)
	c.pos = end + 1
}

func (c *converter) textExpression() {
	s := c.src
	end := matchBrace(s, c.pos)
	if end < 0 {
		c.out = append(c.out, '{')
		c.pos++
		return
	}
	container := s[c.pos : end+1]
	expr := strings.TrimSpace(s[c.pos+1 : end])
	c.pos = end + 1

	if !c.opts.RemoveComplexExpressions {
		c.out = append(c.out, container...)
		return
	}
	if expr == "" || isComment(expr) {
		return
	}
	if lit, ok := literalValue(expr); ok {
		c.out = append(c.out, lit...)
		return
	}
	c.dropped++
	c.lossy = true
}

// rawText copies element content up to the matching close tag.
func (c *converter) rawText(name string) {
	idx := indexFold(c.src[c.pos:], "</"+name)
	if idx < 0 {
		c.copyRest()
		return
	}
	c.out = append(c.out, c.src[c.pos:c.pos+idx]...)
	c.pos += idx
}

// drop removes the attribute whose name was just written.
func (c *converter) drop() {
	c.trimOutput()
	c.dropped++
	c.lossy = true
}

// trimOutput removes trailing whitespace so a dropped attribute leaves no gap.
func (c *converter) trimOutput() {
	c.out = bytes.TrimRight(c.out, " \t\r\n")
}

func (c *converter) writeAttr(name, value string) {
	c.out = append(c.out, name...)
	c.out = append(c.out, `="`...)
	c.out = append(c.out, strings.ReplaceAll(value, `"`, "&quot;")...)
	c.out = append(c.out, '"')
}

// flattenStyle turns the body of a style object literal into a CSS
// declaration list. Pairs whose value is not a literal are dropped.
func (c *converter) flattenStyle(body string) string {
	var decls []string
	for _, part := range splitTopLevel(body, ',') {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key, value, ok := cutTopLevel(part, ':')
		if !ok {
			c.dropped++
			c.lossy = true
			continue
		}
		key = strings.TrimSpace(key)
		if k, quoted := literalValue(key); quoted {
			key = k
		} else {
			key = kebab(key)
		}

		value = strings.TrimSpace(value)
		v, ok := literalValue(value)
		if !ok {
			c.dropped++
			c.lossy = true
			continue
		}
		if numberRe.MatchString(value) && value != "0" && !unitless[key] {
			v += "px"
		}
		decls = append(decls, key+": "+strings.ReplaceAll(v, `"`, "'"))
	}
	return strings.Join(decls, "; ")
}

func injectTailwind(doc string) string {
	var tags []string
	if !strings.Contains(doc, "cdn.tailwindcss.com") {
		tags = append(tags, tailwindScript)
	}
	if !strings.Contains(doc, baseStylesheet) {
		tags = append(tags, baseStylesheet)
	}
	if len(tags) == 0 {
		return doc
	}
	block := strings.Join(tags, "\n")

	if loc := headOpenRe.FindStringIndex(doc); loc != nil {
		return doc[:loc[1]] + "\n" + block + doc[loc[1]:]
	}
	if loc := htmlOpenRe.FindStringIndex(doc); loc != nil {
		return doc[:loc[1]] + "\n<head>\n" + block + "\n</head>" + doc[loc[1]:]
	}
	return "<head>\n" + block + "\n</head>\n" + doc
}

// matchBrace returns the index of the '}' closing the '{' at i, skipping
// string literals, or -1 when unbalanced.
func matchBrace(s string, i int) int {
	depth := 0
	for j := i; j < len(s); j++ {
		switch s[j] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return j
			}
		case '"', '\'', '`':
			end := skipString(s, j)
			if end < 0 {
				return -1
			}
			j = end
		}
	}
	return -1
}

// skipString returns the index of the quote closing the literal opened at i.
func skipString(s string, i int) int {
	q := s[i]
	for j := i + 1; j < len(s); j++ {
		switch s[j] {
		case '\\':
			j++
		case q:
			return j
		}
	}
	return -1
}

func splitTopLevel(s string, sep byte) []string {
	var parts []string
	for {
		before, after, ok := cutTopLevel(s, sep)
		parts = append(parts, before)
		if !ok {
			return parts
		}
		s = after
	}
}

// cutTopLevel splits s at the first sep outside quotes and brackets.
func cutTopLevel(s string, sep byte) (string, string, bool) {
	depth := 0
	for i := 0; i < len(s); i++ {
		switch ch := s[i]; {
		case ch == '"' || ch == '\'' || ch == '`':
			end := skipString(s, i)
			if end < 0 {
				return s, "", false
			}
			i = end
		case ch == '(' || ch == '[' || ch == '{':
			depth++
		case ch == ')' || ch == ']' || ch == '}':
			depth--
		case ch == sep && depth == 0:
			return s[:i], s[i+1:], true
		}
	}
	return s, "", false
}

// literalValue returns the value of a string or number literal expression.
func literalValue(expr string) (string, bool) {
	if numberRe.MatchString(expr) {
		return expr, true
	}
	if len(expr) < 2 {
		return "", false
	}
	q := expr[0]
	if (q != '"' && q != '\'' && q != '`') || skipString(expr, 0) != len(expr)-1 {
		return "", false
	}
	body := expr[1 : len(expr)-1]
	if q == '`' && strings.Contains(body, "${") {
		return "", false
	}
	return strings.NewReplacer(`\`+string(q), string(q), `\\`, `\`, `\n`, "\n").Replace(body), true
}

func isObjectLiteral(expr string) bool {
	return len(expr) >= 2 && expr[0] == '{' && expr[len(expr)-1] == '}' && matchBrace(expr, 0) == len(expr)-1
}

func isComment(expr string) bool {
	return strings.HasPrefix(expr, "/*") && strings.HasSuffix(expr, "*/") && strings.Count(expr, "*/") == 1
}

// isComponentName reports a capitalised or namespaced tag such as <Header> or
// <motion.div>. All-caps legacy tags like <DIV> are plain HTML.
func isComponentName(name string) bool {
	if name == "" {
		return false
	}
	if strings.Contains(name, ".") {
		return true
	}
	if name[0] < 'A' || name[0] > 'Z' {
		return false
	}
	return strings.IndexFunc(name, unicode.IsLower) >= 0
}

func kebab(key string) string {
	var b strings.Builder
	for _, r := range key {
		if unicode.IsUpper(r) {
			b.WriteByte('-')
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	out := b.String()
	if strings.HasPrefix(out, "ms-") {
		out = "-" + out
	}
	return out
}

// indexFold is strings.Index with ASCII case folding.
func indexFold(s, sub string) int {
	n := len(sub)
	for i := 0; i+n <= len(s); i++ {
		if strings.EqualFold(s[i:i+n], sub) {
			return i
		}
	}
	return -1
}

func skipSpace(s string, i int) int {
	for i < len(s) && isSpace(s[i]) {
		i++
	}
	return i
}

func isSpace(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r' || ch == '\f'
}

func isLetter(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isNameChar(ch byte) bool {
	return isLetter(ch) || (ch >= '0' && ch <= '9') || ch == '-' || ch == '_' || ch == ':' || ch == '.' || ch == '@'
}
