// Package export writes interview data to Excel workbooks.
package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/msomdec/recruit-dashboard/internal/domain"
)

const (
	HistorySheet  = "Interviews"
	SummarySheet  = "Summary"
	ReportSheet   = "Report"
	QuestionSheet = "Questions"

	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var historyHeaders = []string{
	"ID", "Candidate", "Email", "Phone", "Date", "Status",
	"Communication", "Technical", "Average", "Recommendation", "Score",
}

var thinBorder = []excelize.Border{
	{Type: "left", Color: "000000", Style: 1},
	{Type: "right", Color: "000000", Style: 1},
	{Type: "top", Color: "000000", Style: 1},
	{Type: "bottom", Color: "000000", Style: 1},
}

func headerStyle(f *excelize.File) (int, error) {
	return f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    thinBorder,
	})
}

func cell(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}

func freezeHeader(f *excelize.File, sheet string) error {
	return f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

// WriteHistory writes one row per record to w, followed by a summary sheet.
func WriteHistory(w io.Writer, records []*domain.Record, generatedAt time.Time) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", HistorySheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(SummarySheet); err != nil {
		return fmt.Errorf("create summary sheet: %w", err)
	}

	if err := writeHistoryRows(f, records); err != nil {
		return fmt.Errorf("write history sheet: %w", err)
	}
	if err := writeSummary(f, records, generatedAt); err != nil {
		return fmt.Errorf("write summary sheet: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeHistoryRows(f *excelize.File, records []*domain.Record) error {
	style, err := headerStyle(f)
	if err != nil {
		return err
	}
	for i, h := range historyHeaders {
		f.SetCellValue(HistorySheet, cell(i+1, 1), h)
	}
	f.SetCellStyle(HistorySheet, "A1", cell(len(historyHeaders), 1), style)
	f.SetColWidth(HistorySheet, "B", "C", 28)
	f.SetColWidth(HistorySheet, "E", "E", 18)
	f.SetColWidth(HistorySheet, "J", "J", 20)

	for i, r := range records {
		row := i + 2
		values := []any{
			r.ID, r.CandidateName, r.CandidateEmail, r.CandidatePhone,
			r.Date.Format("2006-01-02 15:04"), string(r.Status),
		}
		if r.Feedback != nil {
			values = append(values, r.Feedback.CommunicationRating, r.Feedback.TechnicalRating, r.Feedback.Average())
		} else {
			values = append(values, "", "", "")
		}
		if r.Report != nil {
			values = append(values, r.Report.Recommendation, r.Report.Score)
		}
		for col, v := range values {
			f.SetCellValue(HistorySheet, cell(col+1, row), v)
		}
	}

	if len(records) > 0 {
		last := cell(len(historyHeaders), len(records)+1)
		if err := f.AutoFilter(HistorySheet, "A1:"+last, nil); err != nil {
			return err
		}
	}
	return freezeHeader(f, HistorySheet)
}

func writeSummary(f *excelize.File, records []*domain.Record, generatedAt time.Time) error {
	label, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	f.SetColWidth(SummarySheet, "A", "A", 24)

	counts := map[domain.Status]int{}
	for _, r := range records {
		counts[r.Status]++
	}
	rows := [][2]any{
		{"Generated", generatedAt.Format("2006-01-02 15:04:05")},
		{"Total", len(records)},
		{"Scheduled", counts[domain.StatusScheduled]},
		{"Completed", counts[domain.StatusCompleted]},
		{"Cancelled", counts[domain.StatusCancelled]},
	}
	for i, kv := range rows {
		f.SetCellValue(SummarySheet, cell(1, i+1), kv[0])
		f.SetCellValue(SummarySheet, cell(2, i+1), kv[1])
	}
	return f.SetCellStyle(SummarySheet, "A1", cell(1, len(rows)), label)
}

// WriteReport writes a single interview's feedback, report and questions.
func WriteReport(w io.Writer, r *domain.Record) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", ReportSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(QuestionSheet); err != nil {
		return fmt.Errorf("create questions sheet: %w", err)
	}

	label, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create style: %w", err)
	}
	wrap, err := f.NewStyle(&excelize.Style{Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"}})
	if err != nil {
		return fmt.Errorf("create style: %w", err)
	}
	f.SetColWidth(ReportSheet, "A", "A", 22)
	f.SetColWidth(ReportSheet, "B", "B", 80)

	row := 1
	put := func(k string, v any) {
		f.SetCellValue(ReportSheet, cell(1, row), k)
		f.SetCellStyle(ReportSheet, cell(1, row), cell(1, row), label)
		f.SetCellValue(ReportSheet, cell(2, row), v)
		f.SetCellStyle(ReportSheet, cell(2, row), cell(2, row), wrap)
		row++
	}

	put("Candidate", r.CandidateName)
	put("Email", r.CandidateEmail)
	put("Date", r.Date.Format("2006-01-02 15:04"))
	put("Status", string(r.Status))
	if r.Feedback != nil {
		put("Communication", r.Feedback.CommunicationRating)
		put("Technical", r.Feedback.TechnicalRating)
		put("Notes", r.Feedback.Notes)
	}
	if r.Report != nil {
		put("Summary", r.Report.Summary)
		put("Strengths", strings.Join(r.Report.Strengths, "\n"))
		put("Areas for Improvement", strings.Join(r.Report.Weaknesses, "\n"))
		put("AI Analysis", r.Report.AIAnalysis)
		if r.Report.Recommendation != "" {
			put("Recommendation", r.Report.Recommendation)
		}
		if r.Report.Score > 0 {
			put("Score", r.Report.Score)
		}
	}

	if err := writeQuestions(f, r.Questions); err != nil {
		return fmt.Errorf("write questions sheet: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeQuestions(f *excelize.File, questions []domain.Question) error {
	style, err := headerStyle(f)
	if err != nil {
		return err
	}
	headers := []string{"#", "Question", "Category", "Difficulty"}
	for i, h := range headers {
		f.SetCellValue(QuestionSheet, cell(i+1, 1), h)
	}
	f.SetCellStyle(QuestionSheet, "A1", "D1", style)
	f.SetColWidth(QuestionSheet, "B", "B", 70)

	for i, q := range questions {
		row := i + 2
		f.SetCellValue(QuestionSheet, cell(1, row), q.ID)
		f.SetCellValue(QuestionSheet, cell(2, row), q.Question)
		f.SetCellValue(QuestionSheet, cell(3, row), q.Category)
		f.SetCellValue(QuestionSheet, cell(4, row), q.Difficulty)
	}
	return freezeHeader(f, QuestionSheet)
}

// Filename builds a download name such as interviews-2026-03-02.xlsx.
func Filename(prefix string, t time.Time) string {
	return fmt.Sprintf("%s-%s.xlsx", prefix, t.Format("2006-01-02"))
}
