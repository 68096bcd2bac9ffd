package report

import (
	"fmt"
	"io"
	"strings"

	"geoattend/internal/session"
)

// TimestampLayout is the fixed layout for exported timestamps, stable across
// locales so exports sort and diff cleanly.
const TimestampLayout = "2006-01-02 15:04:05"

// quoted wraps a field in double quotes, doubling embedded quotes. Name
// fields are quoted unconditionally in both exports.
func quoted(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// WriteWeeklyCSV emits the weekly export: a fixed header then one row per
// attended record. A week with no matching sessions yields header-only
// output.
func WriteWeeklyCSV(w io.Writer, rows []WeeklyRow) error {
	if _, err := io.WriteString(w, "Week,Session Name,Type,Group,Student Name,Student ID,Timestamp,Status\n"); err != nil {
		return err
	}
	for _, row := range rows {
		line := fmt.Sprintf("%d,%s,%s,%s,%s,%s,%s,Present\n",
			row.Week,
			quoted(row.SessionName),
			row.Type,
			row.Group,
			quoted(row.StudentName),
			row.StudentID,
			quoted(row.Timestamp.Format(TimestampLayout)),
		)
		if _, err := io.WriteString(w, line); err != nil {
			return err
		}
	}
	return nil
}

// WriteMasterCSV emits the master export: per-student 0/1 slots for every
// week's lecture and section, then totals, absence percentage, and the
// warning tier.
func WriteMasterCSV(w io.Writer, rows []MasterRow) error {
	var header strings.Builder
	header.WriteString("Student ID,Student Name")
	for wk := 1; wk <= session.WeeksPerTerm; wk++ {
		fmt.Fprintf(&header, ",Week %d Lecture,Week %d Section", wk, wk)
	}
	header.WriteString(",Total Present,Total Absent,Absence %,Status Warning\n")
	if _, err := io.WriteString(w, header.String()); err != nil {
		return err
	}

	for _, row := range rows {
		var b strings.Builder
		b.WriteString(row.StudentID)
		b.WriteByte(',')
		b.WriteString(quoted(row.StudentName))
		for wk := 0; wk < session.WeeksPerTerm; wk++ {
			b.WriteByte(',')
			b.WriteString(bit(row.Lecture[wk]))
			b.WriteByte(',')
			b.WriteString(bit(row.Section[wk]))
		}
		fmt.Fprintf(&b, ",%d,%d,%.1f%%,%s\n", row.TotalPresent, row.TotalAbsent, row.AbsencePercent, row.Warning)
		if _, err := io.WriteString(w, b.String()); err != nil {
			return err
		}
	}
	return nil
}

func bit(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
