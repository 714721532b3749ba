package report

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/phpdave11/gofpdf"
	"github.com/samber/lo"
)

const Header = "KASHMIR DISHA - CAREER GUIDANCE REPORT"

var separator = strings.Repeat("=", 80)

// Text lays out a saved report: header, profile block, separator, guidance.
func Text(profile, guidance string) string {
	var b strings.Builder
	b.WriteString(Header + "\n")
	b.WriteString(separator + "\n\n")
	b.WriteString(profile)
	b.WriteString("\n" + separator + "\n\n")
	b.WriteString(guidance)
	return b.String()
}

// ProfileText renders an archived profile map as a sorted key list,
// leaving out empty values.
func ProfileText(profile map[string]string) string {
	keys := lo.Filter(lo.Keys(profile), func(k string, _ int) bool {
		return strings.TrimSpace(profile[k]) != ""
	})
	slices.Sort(keys)

	var b strings.Builder
	b.WriteString("STUDENT PROFILE:\n")
	for _, k := range keys {
		fmt.Fprintf(&b, "- %s: %s\n", k, profile[k])
	}
	return b.String()
}

// Filename returns Career_Report_<Name>_<YYYYMMDD_HHMMSS><ext>, with spaces
// in the name replaced by underscores.
func Filename(name string, t time.Time, ext string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		name = "Student"
	}
	name = strings.NewReplacer(" ", "_", "/", "_", "\\", "_").Replace(name)
	return fmt.Sprintf("Career_Report_%s_%s%s", name, t.Format("20060102_150405"), ext)
}

func SaveText(dir, name string, t time.Time, profile, guidance string) (string, error) {
	path := filepath.Join(dir, Filename(name, t, ".txt"))
	if err := os.WriteFile(path, []byte(Text(profile, guidance)), 0o644); err != nil {
		return "", fmt.Errorf("failed to save report: %w", err)
	}
	log.Printf("[INFO] Saved text report to %s", path)
	return path, nil
}

func SavePDF(dir, name string, t time.Time, profile, guidance string) (string, error) {
	var buf bytes.Buffer
	if err := PDF(&buf, name, profile, guidance); err != nil {
		return "", err
	}

	path := filepath.Join(dir, Filename(name, t, ".pdf"))
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("failed to save PDF report: %w", err)
	}
	log.Printf("[INFO] Saved PDF report to %s", path)
	return path, nil
}

// PDF renders the report on A4 pages with wrapped text.
func PDF(w io.Writer, name, profile, guidance string) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(14, 14, 14)
	pdf.SetAutoPageBreak(true, 14)
	pdf.SetTitle(Header, true)

	family, tr := configureFont(pdf)
	pdf.AddPage()

	pdf.SetFont(family, "B", 15)
	pdf.CellFormat(0, 9, tr(Header), "", 1, "L", false, 0, "")
	if name != "" {
		pdf.SetFont(family, "", 11)
		pdf.CellFormat(0, 7, tr("Prepared for "+name), "", 1, "L", false, 0, "")
	}
	rule(pdf)

	pdf.SetFont(family, "", 10)
	pdf.MultiCell(0, 5, tr(strings.TrimSpace(profile)), "", "L", false)
	rule(pdf)

	pdf.SetFont(family, "", 10.5)
	pdf.MultiCell(0, 5.5, tr(strings.TrimSpace(guidance)), "", "L", false)

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("failed to render PDF report: %w", err)
	}
	return nil
}

func rule(pdf *gofpdf.Fpdf) {
	pdf.Ln(2)
	left, _, right, _ := pdf.GetMargins()
	pageW, _ := pdf.GetPageSize()
	y := pdf.GetY()
	pdf.SetDrawColor(203, 213, 225)
	pdf.Line(left, y, pageW-right, y)
	pdf.Ln(4)
}

// Fonts tried for full Unicode output (rupee sign, Devanagari names).
var utf8Fonts = []struct {
	family  string
	regular string
	bold    string
}{
	{"DejaVuSansUTF8", "/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf", "/usr/share/fonts/truetype/dejavu/DejaVuSans-Bold.ttf"},
	{"LiberationSansUTF8", "/usr/share/fonts/truetype/liberation/LiberationSans-Regular.ttf", "/usr/share/fonts/truetype/liberation/LiberationSans-Bold.ttf"},
}

// configureFont registers the first available UTF-8 font. Without one it
// falls back to Helvetica and translates text to cp1252.
func configureFont(pdf *gofpdf.Fpdf) (string, func(string) string) {
	for _, f := range utf8Fonts {
		regular, err := os.ReadFile(f.regular)
		if err != nil || len(regular) == 0 {
			continue
		}
		bold := regular
		if b, err := os.ReadFile(f.bold); err == nil && len(b) > 0 {
			bold = b
		}

		pdf.SetError(nil)
		pdf.AddUTF8FontFromBytes(f.family, "", regular)
		pdf.AddUTF8FontFromBytes(f.family, "B", bold)
		if pdf.Error() == nil {
			return f.family, func(s string) string { return s }
		}
	}

	pdf.SetError(nil)
	translate := pdf.UnicodeTranslatorFromDescriptor("")
	return "Helvetica", func(s string) string {
		return translate(strings.ReplaceAll(s, "₹", "Rs."))
	}
}
