package models

import "strings"

// FileKind classifies a selected file for the mixing and count rules.
type FileKind string

const (
	KindImage       FileKind = "image"
	KindPDF         FileKind = "pdf"
	KindUnsupported FileKind = "unsupported"
)

// KindOf maps a MIME type to its FileKind.
func KindOf(contentType string) FileKind {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	switch {
	case strings.HasPrefix(ct, "image/"):
		return KindImage
	case ct == "application/pdf":
		return KindPDF
	default:
		return KindUnsupported
	}
}

// SelectedFile is a file chosen for upload, held in memory until sent.
type SelectedFile struct {
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
	Data        []byte `json:"-"`
}

func (f SelectedFile) Kind() FileKind {
	return KindOf(f.ContentType)
}

// PreviewPDF is the sentinel preview for PDF files.
const PreviewPDF = "PDF"

// Preview is the display payload for one selected file: a data URL for
// images, or PreviewPDF.
type Preview struct {
	FileName string `json:"file_name"`
	Payload  string `json:"payload"`
}
