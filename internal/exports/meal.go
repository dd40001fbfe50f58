package exports

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/fdg312/coach-hub/internal/mealbuilder"
	"github.com/jung-kurt/gofpdf"
)

// MealPlan renders a stored meal payload. The totals line counts the A
// variant of every meal, the same default the builder shows.
func MealPlan(pl mealbuilder.Payload, format Format) ([]byte, error) {
	switch format {
	case FormatPDF:
		return mealPDF(pl)
	case FormatCSV:
		return mealCSV(pl)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

func defaultTotals(pl mealbuilder.Payload) mealbuilder.Macros {
	return mealbuilder.FromPayload(pl).Totals(-1)
}

func mealCSV(pl mealbuilder.Payload) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{"meal", "name", "time", "option", "food", "portion", "protein", "carbs", "fat", "calories"}
	if err := w.Write(header); err != nil {
		return nil, err
	}

	for mi, m := range pl.Meals {
		for _, f := range m.Foods {
			row := []string{
				strconv.Itoa(mi + 1),
				m.Name,
				m.Time,
				string(m.MealOption),
				f.Name,
				f.Portion,
				formatNum(f.Protein),
				formatNum(f.Carbs),
				formatNum(f.Fat),
				formatNum(f.Calories),
			}
			if err := w.Write(row); err != nil {
				return nil, err
			}
		}
	}

	t := defaultTotals(pl)
	if err := w.Write([]string{"total", "", "", "", "", "", formatNum(t.Protein), formatNum(t.Carbs), formatNum(t.Fat), formatNum(t.Calories)}); err != nil {
		return nil, err
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func mealPDF(pl mealbuilder.Payload) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	title := pl.Title
	if title == "" {
		title = "Meal Plan"
	}
	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(0, 10, tr(title))
	pdf.Ln(10)

	if pl.Description != "" {
		pdf.SetFont("Arial", "", 10)
		pdf.MultiCell(0, 5, tr(pl.Description), "", "L", false)
		pdf.Ln(4)
	}

	t := defaultTotals(pl)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Daily totals: %s kcal, protein %s g, carbs %s g, fat %s g",
		formatNum(t.Calories), formatNum(t.Protein), formatNum(t.Carbs), formatNum(t.Fat)))
	pdf.Ln(10)

	for _, m := range pl.Meals {
		heading := orDash(m.Name)
		if m.Time != "" {
			heading += " (" + m.Time + ")"
		}
		if m.MealOption == mealbuilder.OptionB {
			heading += " - option B"
		}
		pdf.SetFont("Arial", "B", 12)
		pdf.Cell(0, 8, tr(heading))
		pdf.Ln(8)

		pdf.SetFont("Arial", "B", 8)
		pdf.CellFormat(60, 6, "Food", "1", 0, "C", false, 0, "")
		pdf.CellFormat(30, 6, "Portion", "1", 0, "C", false, 0, "")
		pdf.CellFormat(25, 6, "Protein", "1", 0, "C", false, 0, "")
		pdf.CellFormat(25, 6, "Carbs", "1", 0, "C", false, 0, "")
		pdf.CellFormat(25, 6, "Fat", "1", 0, "C", false, 0, "")
		pdf.CellFormat(25, 6, "kcal", "1", 0, "C", false, 0, "")
		pdf.Ln(-1)

		pdf.SetFont("Arial", "", 8)
		for _, f := range m.Foods {
			pdf.CellFormat(60, 6, tr(orDash(f.Name)), "1", 0, "L", false, 0, "")
			pdf.CellFormat(30, 6, tr(orDash(f.Portion)), "1", 0, "C", false, 0, "")
			pdf.CellFormat(25, 6, formatNum(f.Protein), "1", 0, "C", false, 0, "")
			pdf.CellFormat(25, 6, formatNum(f.Carbs), "1", 0, "C", false, 0, "")
			pdf.CellFormat(25, 6, formatNum(f.Fat), "1", 0, "C", false, 0, "")
			pdf.CellFormat(25, 6, formatNum(f.Calories), "1", 0, "C", false, 0, "")
			pdf.Ln(-1)
		}
		pdf.Ln(4)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}
	return buf.Bytes(), nil
}
