// Package sitecode turns raw model output into renderable markup. Nothing in
// here parses HTML or JSX: both stages are best-effort text transforms that
// never fail.
package sitecode

import (
	"encoding/json"
	"regexp"
	"strings"
)

const documentHead = "<!DOCTYPE html>\n<html>\n<head>\n" +
	"<meta charset=\"UTF-8\">\n" +
	"<meta name=\"viewport\" content=\"width=device-width, initial-scale=1.0\">\n" +
	"</head>\n<body>\n"

const documentTail = "\n</body>\n</html>"

var (
	langTagRe = regexp.MustCompile(`^[A-Za-z0-9_+.-]*$`)

	exportOnlyRe   = regexp.MustCompile(`^\s*export\s+(default\s+[A-Za-z_$][\w$]*|\{[^}]*\}(\s*from\s*['"][^'"]*['"])?)\s*;?\s*$`)
	exportPrefixRe = regexp.MustCompile(`^(\s*)(?:export\s+(?:default\s+)?)+((?:async\s+)?(?:function|class|const|let|var)\b)`)

	importStmtRe = regexp.MustCompile(`^import\s+(?:type\s+)?(?:(?:[A-Za-z_$][\w$]*\s*,\s*)?(?:\{[^}]*\}|\*\s*as\s+[A-Za-z_$][\w$]*)|[A-Za-z_$][\w$]*)\s*from\s*['"][^'"]+['"]\s*;?$`)
	importBareRe = regexp.MustCompile(`^import\s*['"][^'"]+['"]\s*;?$`)
	importOpenRe = regexp.MustCompile(`^import\s+(?:type\s+)?(?:[A-Za-z_$][\w$]*\s*,\s*)?\{[^}]*$`)

	functionComponentRe = regexp.MustCompile(`(?s)^(?:async\s+)?function\s*[A-Za-z0-9_$]*\s*\([^)]*\)\s*\{.*?\breturn\s*\((.*)\)\s*;?\s*\}\s*;?$`)
	arrowBlockRe        = regexp.MustCompile(`(?s)^(?:const|let|var)\s+[A-Za-z0-9_$]+\s*=\s*\([^)]*\)\s*=>\s*\{.*?\breturn\s*\((.*)\)\s*;?\s*\}\s*;?$`)
	arrowExprRe         = regexp.MustCompile(`(?s)^(?:const|let|var)\s+[A-Za-z0-9_$]+\s*=\s*\([^)]*\)\s*=>\s*\((.*)\)\s*;?$`)
)

// Normalize strips model artifacts (code fences, module statements, component
// wrappers) and wraps bare fragments in a minimal HTML document. Structured
// JSON payloads pass through untouched.
func Normalize(raw string) string {
	if IsJSONPayload(raw) {
		return raw
	}

	s := stripFences(raw)
	if IsJSONPayload(s) {
		return strings.TrimSpace(s)
	}

	s = stripModuleLines(s)
	s = strings.TrimSpace(unwrapComponent(strings.TrimSpace(s)))

	if !HasDocumentRoot(s) {
		s = documentHead + s + documentTail
	}
	return s
}

// IsJSONPayload reports whether s is structured page-builder output rather
// than markup.
func IsJSONPayload(s string) bool {
	t := strings.TrimSpace(s)
	if t == "" || (t[0] != '{' && t[0] != '[') {
		return false
	}
	return json.Valid([]byte(t))
}

// HasDocumentRoot reports whether s already carries a doctype or <html> root.
func HasDocumentRoot(s string) bool {
	lower := strings.ToLower(s)
	return strings.Contains(lower, "<!doctype html") || strings.Contains(lower, "<html")
}

// stripFences keeps the body of the first fenced block. Prose before the
// opening fence and after the closing one is dropped.
func stripFences(s string) string {
	idx := strings.Index(s, "```")
	if idx < 0 {
		return s
	}
	rest := s[idx+3:]
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 && langTagRe.MatchString(strings.TrimSpace(rest[:nl])) {
		rest = rest[nl+1:]
	}
	if end := strings.Index(rest, "```"); end >= 0 {
		rest = rest[:end]
	}
	return rest
}

// stripModuleLines drops import, export and directive statements. Lines inside
// <script> bodies are left alone, as are lines that only resemble a
// statement, such as prose starting with "export".
func stripModuleLines(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	inImport := false
	inScript := false

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)

		if inScript {
			inScript = opensScript(line, true)
			out = append(out, line)
			continue
		}
		if inImport {
			if strings.Contains(trimmed, "}") {
				inImport = false
			}
			continue
		}

		switch {
		case importStmtRe.MatchString(trimmed), importBareRe.MatchString(trimmed):
			continue
		case importOpenRe.MatchString(trimmed):
			inImport = true
			continue
		case isDirective(trimmed):
			continue
		case exportOnlyRe.MatchString(line):
			continue
		case exportPrefixRe.MatchString(line):
			line = exportPrefixRe.ReplaceAllString(line, "$1$2")
		}
		inScript = opensScript(line, false)
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}

// opensScript reports whether a <script> body is still open at the end of
// line, given whether one was open at its start.
func opensScript(line string, open bool) bool {
	lower := strings.ToLower(line)
	for {
		if open {
			i := strings.Index(lower, "</script")
			if i < 0 {
				return true
			}
			lower, open = lower[i+len("</script"):], false
			continue
		}
		i := strings.Index(lower, "<script")
		if i < 0 {
			return false
		}
		lower, open = lower[i+len("<script"):], true
	}
}

func isDirective(trimmed string) bool {
	switch strings.TrimSuffix(trimmed, ";") {
	case `'use client'`, `"use client"`, `'use strict'`, `"use strict"`:
		return true
	}
	return false
}

// unwrapComponent reduces a single function component to the JSX it returns.
func unwrapComponent(s string) string {
	for _, re := range []*regexp.Regexp{functionComponentRe, arrowBlockRe, arrowExprRe} {
		if m := re.FindStringSubmatch(s); m != nil {
			return m[1]
		}
	}
	return s
}
