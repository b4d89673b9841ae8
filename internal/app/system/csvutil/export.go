// internal/app/system/csvutil/export.go
package csvutil

import (
	"bytes"
	"encoding/csv"
	"io"
	"strings"
	"time"
)

// ContentType is sent with every CSV export.
const ContentType = "text/csv;charset=utf-8"

// Export file prefixes.
const (
	TasksReportPrefix         = "tasks-report"
	VolunteersDirectoryPrefix = "volunteers-directory"
)

// FileName returns "<prefix>-<YYYY-MM-DD>.csv" for day.
func FileName(prefix string, day time.Time) string {
	return prefix + "-" + day.Format("2006-01-02") + ".csv"
}

// lineBreaks folds CRLF and lone CR to LF, which is what CSV readers
// return for a quoted line break.
var lineBreaks = strings.NewReplacer("\r\n", "\n", "\r", "\n")

func normalizeRecord(rec []string) []string {
	out := make([]string, len(rec))
	for i, f := range rec {
		out[i] = lineBreaks.Replace(f)
	}
	return out
}

// Escape quotes a single field the way it appears in an exported file:
// wrapped in quotes when it holds a comma, quote or line break, with
// inner quotes doubled. Line breaks are written as LF.
func Escape(field string) string {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write([]string{lineBreaks.Replace(field)})
	w.Flush()
	return strings.TrimSuffix(buf.String(), "\n")
}

// Write emits header and rows as RFC 4180 CSV with CRLF line endings.
func Write(out io.Writer, header []string, rows [][]string) error {
	w := csv.NewWriter(out)
	w.UseCRLF = true
	if err := w.Write(normalizeRecord(header)); err != nil {
		return err
	}
	for _, row := range rows {
		if err := w.Write(normalizeRecord(row)); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// TaskRow is one assignment line of a tasks report.
type TaskRow struct {
	Title       string
	Description string
	Assignee    string
	Email       string
	Status      string
	Priority    string
	DueDate     *time.Time
	CompletedAt *time.Time
	Notes       string
}

// TasksReportHeader is the first line of a tasks report.
var TasksReportHeader = []string{"Title", "Description", "Assigned To", "Email", "Status", "Priority", "Due Date", "Completed At", "Completion Notes"}

// WriteTasksReport writes rows as a tasks report.
func WriteTasksReport(out io.Writer, rows []TaskRow) error {
	recs := make([][]string, 0, len(rows))
	for _, r := range rows {
		recs = append(recs, []string{
			r.Title, r.Description, r.Assignee, r.Email, r.Status, r.Priority,
			day(r.DueDate), stamp(r.CompletedAt), r.Notes,
		})
	}
	return Write(out, TasksReportHeader, recs)
}

// VolunteerRow is one line of a volunteers directory.
type VolunteerRow struct {
	Name         string
	Email        string
	Phone        string
	Skills       string
	Availability string
	Joined       time.Time
}

// VolunteersDirectoryHeader is the first line of a volunteers directory.
var VolunteersDirectoryHeader = []string{"Name", "Email", "Phone", "Skills", "Availability", "Joined"}

// WriteVolunteersDirectory writes rows as a volunteers directory.
func WriteVolunteersDirectory(out io.Writer, rows []VolunteerRow) error {
	recs := make([][]string, 0, len(rows))
	for _, r := range rows {
		recs = append(recs, []string{
			r.Name, r.Email, r.Phone, r.Skills, r.Availability, day(&r.Joined),
		})
	}
	return Write(out, VolunteersDirectoryHeader, recs)
}

func day(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.UTC().Format("2006-01-02")
}

func stamp(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
