package extract

import (
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	apperr "github.com/keenlabs/docvec/internal/pkg/errors"
)

// readPDFFile concatenates the plain text of every page, one line break per
// page. Pages whose text cannot be decoded are skipped rather than failing
// the whole document.
func readPDFFile(path string) (string, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", apperr.ErrRead, err)
	}
	defer f.Close()

	var sb strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		sb.WriteString(text)
		sb.WriteByte('\n')
	}
	return sb.String(), nil
}
