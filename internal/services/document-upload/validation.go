package documentupload

import (
	"encoding/base64"
	"strconv"

	"formassist/internal/common/errors"
	"formassist/internal/models"
)

// Validate checks the combined selection of existing and incoming files for
// one document type. PDFs and images never mix; multi-file types hold one
// PDF or up to two images, single-file types hold one file.
func Validate(cfg *Config, docType string, multi bool, existing, incoming []models.SelectedFile) error {
	total := len(existing) + len(incoming)
	hasImages, hasPDF := false, false
	for _, set := range [][]models.SelectedFile{existing, incoming} {
		for _, f := range set {
			switch f.Kind() {
			case models.KindImage:
				hasImages = true
			case models.KindPDF:
				hasPDF = true
			}
		}
	}

	if hasImages && hasPDF {
		return errors.NewMixedFileTypesError(docType)
	}

	if multi {
		if hasPDF && total > cfg.MaxPDFFiles {
			return errors.NewTooManyFilesError(docType, pdfLimitMessage(cfg.MaxPDFFiles), total)
		}
		if hasImages && total > cfg.MaxImageFiles {
			return errors.NewTooManyFilesError(docType, imageLimitMessage(cfg.MaxImageFiles), total)
		}
		return nil
	}
	if total > cfg.MaxSingleFiles {
		return errors.NewTooManyFilesError(docType, singleLimitMessage(cfg.MaxSingleFiles), total)
	}
	return nil
}

func pdfLimitMessage(n int) string {
	if n == 1 {
		return "Upload only 1 PDF file."
	}
	return "Upload only " + strconv.Itoa(n) + " PDF files."
}

func imageLimitMessage(n int) string {
	if n == 2 {
		return "Upload maximum 2 photos (front and back)."
	}
	return "Upload maximum " + strconv.Itoa(n) + " photos."
}

func singleLimitMessage(n int) string {
	if n == 1 {
		return "Upload only 1 file."
	}
	return "Upload only " + strconv.Itoa(n) + " files."
}

// Preview renders the display payload of f: a data URL for images and
// models.PreviewPDF for PDFs. Anything else is unsupported.
func Preview(f models.SelectedFile) (models.Preview, error) {
	switch f.Kind() {
	case models.KindImage:
		return models.Preview{
			FileName: f.Name,
			Payload:  "data:" + f.ContentType + ";base64," + base64.StdEncoding.EncodeToString(f.Data),
		}, nil
	case models.KindPDF:
		return models.Preview{FileName: f.Name, Payload: models.PreviewPDF}, nil
	default:
		return models.Preview{}, errors.NewUnsupportedFileTypeError(f.Name, f.ContentType)
	}
}
