package dashboard

import (
	"strings"
)

// Report is a structured dashboard body. It renders to the markdown that
// is sent as the issue body.
type Report struct {
	Header   string    `toml:"header"`
	Sections []Section `toml:"sections"`
	Footer   string    `toml:"footer"`
}

// Section groups related update entries under a heading
type Section struct {
	Title string `toml:"title"`
	Note  string `toml:"note"`
	Items []Item `toml:"items"`
}

// Item is one dependency update line. Checked items render as ticked boxes.
type Item struct {
	Label   string `toml:"label"`
	Detail  string `toml:"detail"`
	Checked bool   `toml:"checked"`
}

// RenderBody renders a report as markdown. Sections without items are
// dropped so the body only changes when the set of updates does.
func RenderBody(report Report) string {
	var sb strings.Builder

	if header := strings.TrimSpace(report.Header); header != "" {
		sb.WriteString(header + "\n\n")
	}

	for _, section := range report.Sections {
		if len(section.Items) == 0 {
			continue
		}
		sb.WriteString("## " + section.Title + "\n\n")
		if note := strings.TrimSpace(section.Note); note != "" {
			sb.WriteString(note + "\n\n")
		}
		for _, item := range section.Items {
			box := "[ ]"
			if item.Checked {
				box = "[x]"
			}
			sb.WriteString(" - " + box + " " + item.Label)
			if item.Detail != "" {
				sb.WriteString(" (" + item.Detail + ")")
			}
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}

	if footer := strings.TrimSpace(report.Footer); footer != "" {
		sb.WriteString("---\n\n" + footer + "\n")
	}

	return strings.TrimRight(sb.String(), "\n") + "\n"
}
