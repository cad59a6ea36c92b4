package prompt

import "strings"

const notePlaceholder = "{{note}}"

const template = `Summarize the following clinical note. Provide a structured summary with these sections:

1. Chief Complaint: Main reason for visit
2. Key Findings: Important observations and test results
3. Diagnosis: Medical diagnosis or impression
4. Treatment Plan: Medications and recommendations

IMPORTANT: Only use information present in the note. Do not add information that is not in the original note.

Clinical Note:
` + notePlaceholder + `

Summary:`

// Sections lists the labels the template asks the model to emit, in order.
//
//nolint:gochecknoglobals // Read-only.
var Sections = []string{
	"Chief Complaint",
	"Key Findings",
	"Diagnosis",
	"Treatment Plan",
}

// Build embeds normalized note text verbatim into the summarization frame.
// Empty text still yields the frame; rejecting empty notes is the caller's job.
func Build(normalized string) string {
	return strings.Replace(template, notePlaceholder, normalized, 1)
}
