package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

var pdfColumns = []struct {
	title string
	width float64
}{
	{"ID", 14},
	{"Channel", 42},
	{"Kind", 20},
	{"Value", 44},
	{"Start", 26},
	{"End", 26},
	{"Modifiers", 105},
}

// ExportPDF writes the annotations of doc as a landscape A4 table with a
// summary header.
func ExportPDF(doc *Document, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	p := gofpdf.New("L", "mm", "A4", "")
	p.SetTitle(doc.Title, true)
	p.SetCreator("tracklane", true)
	tr := p.UnicodeTranslatorFromDescriptor("")
	p.SetFooterFunc(func() {
		p.SetY(-12)
		p.SetFont("Helvetica", "I", 8)
		p.CellFormat(0, 8, fmt.Sprintf("Page %d", p.PageNo()), "", 0, "C", false, 0, "")
	})
	p.AddPage()

	p.SetFont("Helvetica", "B", 16)
	p.CellFormat(0, 10, tr(doc.Title), "", 1, "L", false, 0, "")

	sum := doc.Summarize()
	p.SetFont("Helvetica", "", 10)
	for _, line := range []string{
		fmt.Sprintf("Media: %s", doc.State.Media.Src),
		fmt.Sprintf("Channels: %d   Annotations: %d (%d spans, %d instants)",
			sum.Channels, sum.Annotations, sum.Spans, sum.Instants),
		fmt.Sprintf("Mean span: %s   Std dev: %s   Longest: %s   Coverage: %.1f%%",
			formatMs(sum.MeanDuration), formatMs(sum.StdDuration), formatMs(sum.MaxDuration), sum.Coverage*100),
	} {
		p.CellFormat(0, 6, tr(line), "", 1, "L", false, 0, "")
	}
	p.Ln(4)

	header := func() {
		p.SetFont("Helvetica", "B", 9)
		p.SetFillColor(230, 232, 236)
		for _, c := range pdfColumns {
			p.CellFormat(c.width, 7, c.title, "1", 0, "L", true, 0, "")
		}
		p.Ln(-1)
		p.SetFont("Helvetica", "", 8)
	}
	header()

	_, pageH := p.GetPageSize()
	_, _, _, bottom := p.GetMargins()
	for i, a := range doc.Annotations {
		if p.GetY()+6 > pageH-bottom-12 {
			p.AddPage()
			header()
		}
		mods := make([]string, len(a.Modifiers))
		for j, m := range a.Modifiers {
			mods[j] = m.Key + "=" + m.Value
		}
		end := ""
		if a.Kind.HasDuration() {
			end = formatMs(a.End)
		}
		cells := []string{
			fmt.Sprint(a.ID),
			truncate(doc.ChannelName(a.ChannelID), 24),
			string(a.Kind),
			truncate(a.Value, 26),
			formatMs(a.Start),
			end,
			truncate(strings.Join(mods, ", "), 64),
		}
		fill := i%2 == 1
		p.SetFillColor(246, 247, 249)
		for k, c := range pdfColumns {
			p.CellFormat(c.width, 6, tr(cells[k]), "1", 0, "L", fill, 0, "")
		}
		p.Ln(-1)
	}

	if err := p.OutputFileAndClose(path); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}
