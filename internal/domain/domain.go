package domain

import "strings"

// Source tells which entry path a note came through.
type Source string

const (
	SourceText  Source = "text"
	SourceImage Source = "image"
)

// Extraction is the OCR outcome for a single image.
//
// Confidence is two-valued: 1 when text was extracted, 0 otherwise.
// Zero confidence is a failure whatever Text holds, and blank Text is a
// failure whatever the confidence says.
type Extraction struct {
	Text       string
	Confidence float64
}

func (e Extraction) Failed() bool {
	return e.Confidence == 0 || strings.TrimSpace(e.Text) == ""
}

// FailedExtraction is the sentinel every OCR engine returns on internal failure.
func FailedExtraction() Extraction {
	return Extraction{}
}
