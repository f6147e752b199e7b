package services

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

const whatsappPlaceholder = "5500000000000"

var (
	fieldListRe  = regexp.MustCompile(`(?is)(?:campos|fields)(?:\s*:|\s+(?:de|do|da|like|such as)\s)?\s*(.*)$`)
	formWordRe   = regexp.MustCompile(`\b(?:formul[aá]rios?|forms?)\b`)
	mapWordRe    = regexp.MustCompile(`\b(?:mapas?|maps?)\b`)
	fieldSplitRe = regexp.MustCompile(`(?i)\s*(?:,|;|/|\s+e\s+|\s+and\s+|\s+or\s+|\s+ou\s+)\s*`)
)

var defaultFormFields = []string{"nome", "email", "mensagem"}

type instructionRule struct {
	matches func(lower string) bool
	render  func(instruction, phone string) string
}

var instructionRules = []instructionRule{
	{
		matches: func(lower string) bool { return strings.Contains(lower, "whatsapp") },
		render: func(_, phone string) string {
			number := digitsOnly(phone)
			if number == "" {
				number = whatsappPlaceholder
			}
			return fmt.Sprintf("Add a floating WhatsApp button fixed to the bottom-right corner of the page: "+
				"a round green (#25D366) button with the WhatsApp logo as an inline SVG, linking to https://wa.me/%s "+
				"with target=\"_blank\" and rel=\"noopener\", visible on every screen size and above all other content.", number)
		},
	},
	{
		matches: func(lower string) bool {
			return formWordRe.MatchString(lower) && containsAny(lower, "campos", "fields")
		},
		render: func(instruction, _ string) string {
			return fmt.Sprintf("Add a contact form section with exactly these fields: %s. "+
				"Each field gets a visible label and a matching input type (email, tel, textarea for messages), "+
				"required fields are marked, and the submit button uses the site's primary color.",
				strings.Join(parseFormFields(instruction), ", "))
		},
	},
	{
		matches: func(lower string) bool { return mapWordRe.MatchString(lower) },
		render: func(_, _ string) string {
			return "Add a location section with an embedded Google Maps iframe " +
				"(src=\"https://maps.google.com/maps?q=<business address>&output=embed\"), full width, " +
				"400px tall, rounded corners, with the address and opening hours next to it."
		},
	},
	{
		matches: func(lower string) bool { return containsAny(lower, "depoimentos", "depoimento", "testimonials", "testimonial") },
		render: func(_, _ string) string {
			return "Add a testimonials section with three customer quotes in cards, " +
				"each with the customer's name, a short role or city, and a five-star rating, " +
				"laid out in a responsive grid that stacks on mobile."
		},
	},
}

// RewriteInstruction turns recognised requests into a templated, specific
// instruction. Matching is case-insensitive: forms and maps on whole words,
// the rest anywhere in the text. Every matching template is included and
// the original request is appended.
// Instructions with no trigger are returned unchanged.
func RewriteInstruction(instruction, phone string) string {
	lower := strings.ToLower(instruction)

	var parts []string
	for _, rule := range instructionRules {
		if rule.matches(lower) {
			parts = append(parts, rule.render(instruction, phone))
		}
	}
	if len(parts) == 0 {
		return instruction
	}

	parts = append(parts,
		"Keep everything else on the page unchanged.",
		"Original request: "+instruction)
	return strings.Join(parts, "\n")
}

func parseFormFields(instruction string) []string {
	m := fieldListRe.FindStringSubmatch(instruction)
	if m == nil {
		return defaultFormFields
	}

	var fields []string
	for _, f := range fieldSplitRe.Split(m[1], -1) {
		f = strings.TrimFunc(f, func(r rune) bool {
			return unicode.IsSpace(r) || unicode.IsPunct(r)
		})
		if f != "" {
			fields = append(fields, f)
		}
	}
	if len(fields) == 0 {
		return defaultFormFields
	}
	return fields
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func digitsOnly(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}
