package generator

import (
	"fmt"
	"strings"

	"site-generator-backend/internal/models"
)

const generateSystemPrompt = `You are a senior web designer building single-page marketing websites for small businesses.
Return one complete HTML document styled with Tailwind CSS utility classes.
Rules:
- Output only the code, no explanations.
- Use semantic sections: header with navigation, hero, about, services, contact, footer.
- Write copy in the same language as the request.
- Do not include external JavaScript other than the Tailwind CDN.
- Use placeholder images from https://placehold.co when an image is needed.`

const modifySystemPrompt = `You are a senior web designer editing an existing website.
Apply the requested change and return the COMPLETE updated document.
Rules:
- Output only the code, no explanations.
- Keep everything the request does not mention unchanged.
- Keep the existing visual identity (colors, fonts, spacing) unless asked otherwise.`

const profileSystemPrompt = `Extract the business profile from the user's description.
Answer with a single JSON object with these keys:
"company_name" (string), "sector" (string), "design_style" (string),
"objective" (string), "audience" (string), "functionalities" (array of strings).
Use an empty string or empty array when the description does not say.`

func buildGeneratePrompt(prompt string, profile models.BusinessProfile) string {
	var b strings.Builder
	b.WriteString("Build a website for this request:\n")
	b.WriteString(prompt)
	if ctx := profileContext(profile); ctx != "" {
		b.WriteString("\n\nBusiness profile:\n")
		b.WriteString(ctx)
	}
	return b.String()
}

func buildModifyPrompt(code, instruction string, profile models.BusinessProfile) string {
	var b strings.Builder
	b.WriteString("Current website code:\n```html\n")
	b.WriteString(code)
	b.WriteString("\n```\n\nRequested change:\n")
	b.WriteString(instruction)
	if ctx := profileContext(profile); ctx != "" {
		b.WriteString("\n\nBusiness profile:\n")
		b.WriteString(ctx)
	}
	return b.String()
}

func profileContext(p models.BusinessProfile) string {
	var lines []string
	add := func(label, value string) {
		if strings.TrimSpace(value) != "" {
			lines = append(lines, fmt.Sprintf("- %s: %s", label, value))
		}
	}
	add("Company", p.CompanyName)
	add("Sector", p.Sector)
	add("Design style", p.DesignStyle)
	add("Objective", p.Objective)
	add("Audience", p.Audience)
	if len(p.Functionalities) > 0 {
		add("Features", strings.Join(p.Functionalities, ", "))
	}
	return strings.Join(lines, "\n")
}
