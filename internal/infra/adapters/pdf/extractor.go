// File: internal/infra/adapters/pdf/extractor.go
package pdf

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	lpdf "github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/rs/zerolog"

	"pdf-ai-pipeline/internal/domain"
	"pdf-ai-pipeline/internal/domain/ports/adapter"
	"pdf-ai-pipeline/internal/infra/logging"
)

var _ adapter.TextExtractor = (*Extractor)(nil)

// ErrNoText is returned for documents whose pages carry no text operators.
var ErrNoText = fmt.Errorf("%w: no extractable text; the document may be a scanned image", domain.ErrInvalidInput)

// Extractor validates PDFs with pdfcpu and decodes page text with
// ledongthuc/pdf, which maps font encodings and ToUnicode CMaps to UTF-8.
type Extractor struct {
	log *zerolog.Logger
}

func NewExtractor(log *zerolog.Logger) *Extractor {
	return &Extractor{log: logging.Component(log, "pdf")}
}

func (e *Extractor) Extract(ctx context.Context, data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("%w: empty document", domain.ErrInvalidInput)
	}
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	pctx, err := api.ReadContext(bytes.NewReader(data), conf)
	if err != nil {
		return "", fmt.Errorf("%w: read pdf: %v", domain.ErrInvalidInput, err)
	}
	if err := api.ValidateContext(pctx); err != nil {
		return "", fmt.Errorf("%w: invalid pdf: %v", domain.ErrInvalidInput, err)
	}

	text, err := e.plainText(ctx, data)
	if err != nil {
		return "", err
	}
	if text == "" {
		return "", ErrNoText
	}
	e.log.Debug().Int("pages", pctx.PageCount).Int("chars", len(text)).Msg("pdf text extracted")
	return text, nil
}

// plainText decodes every page and joins the non-blank ones with newlines.
// Pages the decoder cannot interpret are logged and skipped.
func (e *Extractor) plainText(ctx context.Context, data []byte) (out string, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = "", fmt.Errorf("%w: decode pdf: %v", domain.ErrInvalidInput, r)
		}
	}()
	r, err := lpdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: decode pdf: %v", domain.ErrInvalidInput, err)
	}

	n := r.NumPage()
	fonts := make(map[string]*lpdf.Font)
	pages := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		for _, name := range p.Fonts() {
			if _, ok := fonts[name]; !ok {
				f := p.Font(name)
				fonts[name] = &f
			}
		}
		txt, err := p.GetPlainText(fonts)
		if err != nil {
			logging.With(ctx, e.log).Warn().Err(err).Int("page", i).Msg("skip page: content unreadable")
			continue
		}
		if txt = strings.TrimSpace(txt); txt != "" {
			pages = append(pages, txt)
		}
	}
	return strings.Join(pages, "\n"), nil
}
