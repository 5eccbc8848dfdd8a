package anthropic

import (
	"fmt"
	"strings"

	"soaforge/internal/catalog"
	"soaforge/internal/domain/services"
)

const systemPrompt = `You are a paraplanner drafting a Statement of Advice (SoA) for an Australian financial advice practice.

You will receive the parsed text of the client's source documents (fact find, file notes, statements) and a list of section templates. Draft every requested section using only facts found in the source documents. Never invent client data; when a required fact is absent, list it in missing_fields and draft around the gap.

Respond with a single JSON array and nothing else. Each element:
{
  "section_key": "<key from the template list>",
  "title": "<section title>",
  "content": {
    "text": "<prose, optional>",
    "bullets": ["<bullet>", ...],
    "tables": [{"headers": [...], "rows": [[...], ...]}]
  },
  "sources": [{"document_name": "<source document name>", "excerpt": "<short supporting quote>", "location": "<page or heading, optional>"}],
  "missing_fields": ["<description of absent data>", ...]
}

Populate content to match each template's content_type. Every factual claim needs at least one source entry. Omit sections you cannot draft at all rather than fabricating them.`

// buildUserPrompt lays out the source material and the requested
// templates for one generation call.
func buildUserPrompt(templates []catalog.Template, docs []services.SourceDocument) string {
	var b strings.Builder

	b.WriteString("SOURCE DOCUMENTS\n\n")
	for _, doc := range docs {
		fmt.Fprintf(&b, "--- %s ---\n%s\n\n", doc.Name, doc.Text)
	}

	b.WriteString("SECTION TEMPLATES TO DRAFT\n\n")
	for _, tpl := range templates {
		fmt.Fprintf(&b, "- key: %s\n  title: %s\n  content_type: %s\n", tpl.Key, tpl.Title, tpl.ContentType)
		if tpl.Description != "" {
			fmt.Fprintf(&b, "  description: %s\n", tpl.Description)
		}
		if len(tpl.RequiredFields) > 0 {
			fmt.Fprintf(&b, "  required_fields: %s\n", strings.Join(tpl.RequiredFields, ", "))
		}
		if tpl.Table != nil && len(tpl.Table.Headers) > 0 {
			fmt.Fprintf(&b, "  table_headers: %s\n", strings.Join(tpl.Table.Headers, " | "))
		}
	}

	b.WriteString("\nDraft the sections now as a JSON array.")
	return b.String()
}
