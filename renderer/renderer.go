// Package renderer renders reconciliation plans, imported activities and
// synchronization reports as markdown.
package renderer

import (
	"embed"
	"fmt"
	"io/fs"
	"strings"
	"text/template"
)

//go:embed *.md
var templates embed.FS

// RenderPlan renders a reconciliation plan to a markdown string.
func RenderPlan(p *Plan) string {
	partials := map[string]string{
		"plan_counts":    "plan_counts.md",
		"plan_mutations": "plan_mutations.md",
	}
	return renderTemplate("plan", "plan.md", partials, p)
}

// RenderActivities renders the activities converted for an account.
func RenderActivities(a *Activities) string {
	return renderTemplate("activities", "activities.md", nil, a)
}

// RenderSync renders the outcome of a synchronization run.
func RenderSync(s *Sync) string {
	return renderTemplate("sync", "sync.md", nil, s)
}

// renderTemplate renders a main template that depends on several partials.
func renderTemplate(templateName, mainFile string, partials map[string]string, data any) string {
	mainContent, err := fs.ReadFile(templates, mainFile)
	if err != nil {
		return fmt.Sprintf("error reading main template %q: %v", mainFile, err)
	}

	tmpl, err := template.New(templateName).Parse(string(mainContent))
	if err != nil {
		return fmt.Sprintf("error parsing main template %q: %v", mainFile, err)
	}

	for name, file := range partials {
		content, err := fs.ReadFile(templates, file)
		if err != nil {
			return fmt.Sprintf("error reading partial template %q: %v", file, err)
		}
		if _, err := tmpl.New(name).Parse(string(content)); err != nil {
			return fmt.Sprintf("error parsing partial template %q for %q: %v", file, name, err)
		}
	}

	var b strings.Builder
	if err := tmpl.ExecuteTemplate(&b, templateName, data); err != nil {
		return fmt.Sprintf("error executing template %q: %v", templateName, err)
	}
	return b.String()
}
