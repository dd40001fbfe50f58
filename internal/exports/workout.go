package exports

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/fdg312/coach-hub/internal/workoutbuilder"
	"github.com/jung-kurt/gofpdf"
)

// WorkoutPlan renders a stored workout payload. Days come out Monday first.
func WorkoutPlan(pl workoutbuilder.Payload, format Format) ([]byte, error) {
	switch format {
	case FormatPDF:
		return workoutPDF(pl)
	case FormatCSV:
		return workoutCSV(pl)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

func workoutCSV(pl workoutbuilder.Payload) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{"day", "day_label", "mode", "group", "group_type", "exercise", "name", "sets", "reps", "notes", "video_file"}
	if err := w.Write(header); err != nil {
		return nil, err
	}

	for _, weekday := range workoutbuilder.Weekdays {
		day, ok := pl.Week[weekday]
		if !ok || day.Mode != workoutbuilder.DayWorkout {
			if err := w.Write([]string{weekday, "", string(workoutbuilder.DayRest), "", "", "", "", "", "", "", ""}); err != nil {
				return nil, err
			}
			continue
		}
		for gi, g := range day.Groups {
			for ei, ex := range g.Exercises {
				row := []string{
					weekday,
					day.DayLabel,
					string(day.Mode),
					strconv.Itoa(gi + 1),
					string(g.Type),
					strconv.Itoa(ei + 1),
					ex.Name,
					ex.Sets,
					ex.Reps,
					ex.Notes,
					ex.VideoFile,
				}
				if err := w.Write(row); err != nil {
					return nil, err
				}
			}
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func workoutPDF(pl workoutbuilder.Payload) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	title := pl.PlanName
	if title == "" {
		title = "Workout Plan"
	}
	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(0, 10, tr(title))
	pdf.Ln(10)

	pdf.SetFont("Arial", "", 10)
	schedule := "Fixed schedule"
	if pl.BuilderMode == workoutbuilder.ModeFlexible && pl.WorkoutDaysPerWeek != nil {
		schedule = fmt.Sprintf("Flexible schedule, %d workout days per week", *pl.WorkoutDaysPerWeek)
	}
	pdf.Cell(0, 6, schedule)
	pdf.Ln(10)

	for _, weekday := range workoutbuilder.Weekdays {
		day, ok := pl.Week[weekday]

		heading := weekday
		if ok && day.DayLabel != "" {
			heading += " - " + day.DayLabel
		}
		pdf.SetFont("Arial", "B", 12)
		pdf.Cell(0, 8, tr(heading))
		pdf.Ln(8)

		if !ok || day.Mode != workoutbuilder.DayWorkout {
			pdf.SetFont("Arial", "I", 10)
			pdf.Cell(0, 6, "Rest day")
			pdf.Ln(8)
			continue
		}

		for gi, g := range day.Groups {
			pdf.SetFont("Arial", "", 10)
			pdf.Cell(0, 6, fmt.Sprintf("Group %d: %s", gi+1, g.Type))
			pdf.Ln(6)

			pdf.SetFont("Arial", "B", 8)
			pdf.CellFormat(60, 6, "Exercise", "1", 0, "C", false, 0, "")
			pdf.CellFormat(20, 6, "Sets", "1", 0, "C", false, 0, "")
			pdf.CellFormat(20, 6, "Reps", "1", 0, "C", false, 0, "")
			pdf.CellFormat(90, 6, "Notes", "1", 0, "C", false, 0, "")
			pdf.Ln(-1)

			pdf.SetFont("Arial", "", 8)
			for _, ex := range g.Exercises {
				pdf.CellFormat(60, 6, tr(orDash(ex.Name)), "1", 0, "L", false, 0, "")
				pdf.CellFormat(20, 6, tr(orDash(ex.Sets)), "1", 0, "C", false, 0, "")
				pdf.CellFormat(20, 6, tr(orDash(ex.Reps)), "1", 0, "C", false, 0, "")
				pdf.CellFormat(90, 6, tr(ex.Notes), "1", 0, "L", false, 0, "")
				pdf.Ln(-1)
			}
			pdf.Ln(2)
		}
		pdf.Ln(4)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}
	return buf.Bytes(), nil
}
