package report

import (
	"fmt"

	"github.com/gingfrederik/docx"
)

// ExportDocx writes the report as a Word document, one section per
// article.
func ExportDocx(rep *BrandReport, path string) error {
	f := docx.NewFile()

	p := f.AddParagraph()
	run := p.AddText(fmt.Sprintf("Brand News Report: %s", rep.Brand))
	run.Size(20)

	p = f.AddParagraph()
	p.AddText(fmt.Sprintf("%d articles", len(rep.Articles)))
	f.AddParagraph() // Spacer

	for _, art := range rep.Articles {
		p = f.AddParagraph()
		run = p.AddText(art.Title)
		run.Size(16)

		p = f.AddParagraph()
		p.AddText(art.URL)

		p = f.AddParagraph()
		p.AddText(fmt.Sprintf("Relevance: %s", art.Relevance))

		p = f.AddParagraph()
		p.AddText(art.Content)

		f.AddParagraph() // Spacer
	}

	if err := f.Save(path); err != nil {
		return fmt.Errorf("saving report docx: %w", err)
	}
	return nil
}
