package markdown

import (
	"regexp"
	"strings"

	"clinote/internal/prompt"
)

// Matches "2. Key Findings: ...", "**Diagnosis:** ..." and "- Treatment Plan**: ..."
// for the labels the prompt asks for.
var sectionLineRe = func() *regexp.Regexp {
	labels := make([]string, 0, len(prompt.Sections))
	for _, s := range prompt.Sections {
		labels = append(labels, regexp.QuoteMeta(s))
	}

	return regexp.MustCompile(`(?i)^(\d+[.)]\s*|[-•]\s*)?\**\s*(` +
		strings.Join(labels, "|") + `)\s*\**\s*:\s*\**\s*(.*)$`)
}()

// FormatSummary escapes a model summary for MarkdownV2 and renders the
// section labels in bold. Everything else is sent as plain text.
func FormatSummary(summary string) string {
	lines := strings.Split(strings.TrimSpace(summary), "\n")

	for i, line := range lines {
		lines[i] = formatLine(strings.TrimRight(line, " \t\r"))
	}

	return strings.Join(lines, "\n")
}

func formatLine(line string) string {
	m := sectionLineRe.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return EscapeV2(line)
	}

	prefix, label, rest := strings.TrimSpace(m[1]), m[2], strings.TrimSpace(m[3])

	var b strings.Builder
	if prefix != "" {
		b.WriteString(EscapeV2(prefix))
		b.WriteByte(' ')
	}
	b.WriteString("*" + EscapeV2(label) + ":*")
	if rest != "" {
		b.WriteByte(' ')
		b.WriteString(EscapeV2(rest))
	}

	return b.String()
}
