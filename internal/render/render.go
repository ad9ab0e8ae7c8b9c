// Package render turns dashboard applications into HTML table rows.
package render

import (
	"html/template"
	"strings"

	"github.com/pscheid92/applyme/internal/domain"
)

// Placeholder is the single row shown when there is nothing to display.
const Placeholder template.HTML = `<td colspan="3" class="small">Aucune donnée (fais tourner n8n puis refresh)</td>`

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#039;",
)

// EscapeHTML escapes text for insertion into element content or a quoted
// attribute.
func EscapeHTML(s string) string {
	return htmlEscaper.Replace(s)
}

// EscapeAttr escapes a URL used as a link target. Backticks are dropped.
func EscapeAttr(s string) string {
	return EscapeHTML(strings.ReplaceAll(s, "`", ""))
}

// Rows renders one <tr> body per application, in input order. Empty input
// yields the placeholder row. The result is a pure function of apps.
func Rows(apps []domain.Application) []template.HTML {
	if len(apps) == 0 {
		return []template.HTML{Placeholder}
	}

	rows := make([]template.HTML, 0, len(apps))
	for _, a := range apps {
		rows = append(rows, row(a))
	}
	return rows
}

func row(a domain.Application) template.HTML {
	title := a.Title
	if title == "" {
		title = a.JobURL
	}
	href := a.JobURL
	if href == "" {
		href = "#"
	}

	var b strings.Builder
	b.WriteString("<td>")
	b.WriteString(EscapeHTML(a.Company))
	b.WriteString(`</td><td><a href="`)
	b.WriteString(EscapeAttr(href))
	b.WriteString(`" target="_blank">`)
	b.WriteString(EscapeHTML(title))
	b.WriteString("</a></td><td>")
	b.WriteString(EscapeHTML(a.Status))
	b.WriteString("</td>")

	return template.HTML(b.String()) //nolint:gosec // every field is escaped above
}
