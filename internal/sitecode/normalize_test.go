package sitecode_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"site-generator-backend/internal/sitecode"
)

func TestNormalize_WrapsFragment(t *testing.T) {
	out := sitecode.Normalize("<section><h1>Padaria Pão Quente</h1></section>")

	assert.True(t, strings.HasPrefix(out, "<!DOCTYPE html>\n<html>"))
	assert.Contains(t, out, "<body>\n<section><h1>Padaria Pão Quente</h1></section>\n</body>")
	assert.True(t, strings.HasSuffix(out, "</html>"))
	assert.Contains(t, out, `<meta charset="UTF-8">`)
}

func TestNormalize_KeepsFullDocument(t *testing.T) {
	doc := "<!doctype html>\n<html lang=\"pt\"><body>oi</body></html>"
	assert.Equal(t, doc, sitecode.Normalize(doc))
}

func TestNormalize_StripsFencesAndProse(t *testing.T) {
	raw := "Here is your website:\n\n```html\n<!DOCTYPE html>\n<html><body>ok</body></html>\n```\n\nLet me know if you need changes."
	assert.Equal(t, "<!DOCTYPE html>\n<html><body>ok</body></html>", sitecode.Normalize(raw))
}

func TestNormalize_UnclosedFence(t *testing.T) {
	raw := "```jsx\n<html><body>partial</body></html>"
	assert.Equal(t, "<html><body>partial</body></html>", sitecode.Normalize(raw))
}

func TestNormalize_RemovesImportsAndUnwrapsComponent(t *testing.T) {
	raw := "```jsx\n" +
		"'use client';\n" +
		"import React, { useState } from 'react';\n" +
		"import {\n  Menu,\n  X,\n} from 'lucide-react';\n" +
		"import './styles.css';\n\n" +
		"export default function Home() {\n" +
		"  const [open, setOpen] = useState(false);\n" +
		"  return (\n" +
		"    <main className=\"p-4\">Olá</main>\n" +
		"  );\n" +
		"}\n" +
		"```"

	out := sitecode.Normalize(raw)

	assert.NotContains(t, out, "import")
	assert.NotContains(t, out, "export")
	assert.NotContains(t, out, "useState")
	assert.NotContains(t, out, "use client")
	assert.Contains(t, out, "<body>\n<main className=\"p-4\">Olá</main>\n</body>")
}

func TestNormalize_ArrowComponent(t *testing.T) {
	raw := "const Landing = () => (\n  <div>hi</div>\n);\n\nexport default Landing;"
	out := sitecode.Normalize(raw)

	assert.Contains(t, out, "<body>\n<div>hi</div>\n</body>")
	assert.NotContains(t, out, "Landing")
}

func TestNormalize_JSONPayloadUnchanged(t *testing.T) {
	raw := `  {"sections": [{"type": "hero", "title": "Padaria"}]}`
	assert.Equal(t, raw, sitecode.Normalize(raw))

	fenced := "```json\n{\"sections\": []}\n```"
	assert.Equal(t, `{"sections": []}`, sitecode.Normalize(fenced))
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		"",
		"plain text",
		"<div>fragment</div>",
		"```html\n<p>fenced</p>\n```",
		"import x from 'y'\n<div/>",
		"export default function A() { return (<b>x</b>) }",
		"<!DOCTYPE html><html><body>full</body></html>",
		`{"a": 1}`,
		"{not json",
		"export default export const x = 1;\n<div>hi</div>",
		"<script type=\"module\">\nimport { a } from './a.js';\na()\n</script>\n<p>x</p>",
	}
	for _, in := range inputs {
		once := sitecode.Normalize(in)
		assert.Equal(t, once, sitecode.Normalize(once), "input %q", in)
	}
}

func TestNormalize_KeepsModuleScriptBodies(t *testing.T) {
	doc := "<!DOCTYPE html>\n<html><body>\n" +
		"<script type=\"module\">\n" +
		"import { a } from './a.js';\n" +
		"import './b.js';\n" +
		"export const c = a();\n" +
		"</script>\n" +
		"</body></html>"
	assert.Equal(t, doc, sitecode.Normalize(doc))
}

func TestNormalize_KeepsProseThatLooksLikeStatements(t *testing.T) {
	doc := "<!DOCTYPE html>\n<html><body>\n<p>\n" +
		"export your data today\n" +
		"import your contacts in one click\n" +
		"</p>\n</body></html>"
	assert.Equal(t, doc, sitecode.Normalize(doc))
}

func TestNormalize_RepeatedExportPrefix(t *testing.T) {
	out := sitecode.Normalize("export default export const x = 1;\n<div>hi</div>")

	assert.Contains(t, out, "<body>\nconst x = 1;\n<div>hi</div>\n</body>")
	assert.NotContains(t, out, "export")
	assert.Equal(t, out, sitecode.Normalize(out))
}

func TestIsJSONPayload(t *testing.T) {
	assert.True(t, sitecode.IsJSONPayload(`[1, 2]`))
	assert.False(t, sitecode.IsJSONPayload(`{broken`))
	assert.False(t, sitecode.IsJSONPayload(`<div>{"a":1}</div>`))
}
