// Package report derives the weekly and master attendance views from the
// session and record history. Everything here is a pure function of its
// inputs.
package report

import (
	"math"
	"time"

	"geoattend/internal/checkin"
	"geoattend/internal/roster"
	"geoattend/internal/session"
)

// TotalSlots is the number of attendance slots a student is graded on:
// one lecture and one section per week of the term.
const TotalSlots = 2 * session.WeeksPerTerm

// Warning is the absence-severity label used in the master report. The
// literal strings match the exported CSV.
type Warning string

const (
	WarningGood   Warning = "Good"
	WarningFirst  Warning = "1st Warning (3+)"
	WarningSecond Warning = "2nd Warning (5+)"
	WarningBanned Warning = "BANNED (7+)"
)

// WarningFor maps a cumulative absence count to its tier. Thresholds are
// inclusive lower bounds evaluated highest-first.
func WarningFor(totalAbsent int) Warning {
	switch {
	case totalAbsent >= 7:
		return WarningBanned
	case totalAbsent >= 5:
		return WarningSecond
	case totalAbsent >= 3:
		return WarningFirst
	default:
		return WarningGood
	}
}

// WeeklyRow is one attended (session, record) pair for a given week. The
// weekly view lists only who attended; absentees are not enumerable from it.
type WeeklyRow struct {
	Week        int
	SessionName string
	Type        session.Type
	Group       string
	StudentName string
	StudentID   string
	Timestamp   time.Time
}

// Weekly joins the week's sessions with their records.
func Weekly(week int, sessions []session.Session, records []checkin.Record) []WeeklyRow {
	byID := make(map[string]session.Session)
	for _, s := range sessions {
		if s.Week == week {
			byID[s.ID] = s
		}
	}
	var rows []WeeklyRow
	for _, rec := range records {
		s, ok := byID[rec.SessionID]
		if !ok {
			continue
		}
		rows = append(rows, WeeklyRow{
			Week:        week,
			SessionName: s.Name,
			Type:        s.Type,
			Group:       s.Group,
			StudentName: rec.StudentName,
			StudentID:   rec.StudentID,
			Timestamp:   rec.Timestamp,
		})
	}
	return rows
}

// MasterRow is one roster entry's full-term accounting. Lecture[w-1] and
// Section[w-1] say whether the student attended any session of that type in
// week w; group affiliation is deliberately not filtered.
type MasterRow struct {
	StudentID      string
	StudentName    string
	Lecture        [session.WeeksPerTerm]bool
	Section        [session.WeeksPerTerm]bool
	TotalPresent   int
	TotalAbsent    int
	AbsencePercent float64
	Warning        Warning
}

// Master builds the 14-week matrix for every roster entry.
func Master(students []roster.Student, sessions []session.Session, records []checkin.Record) []MasterRow {
	sessByID := make(map[string]session.Session, len(sessions))
	for _, s := range sessions {
		sessByID[s.ID] = s
	}

	// attended[studentID][week][type]
	type slot struct {
		week int
		typ  session.Type
	}
	attended := make(map[string]map[slot]bool)
	for _, rec := range records {
		s, ok := sessByID[rec.SessionID]
		if !ok {
			continue
		}
		if attended[rec.StudentID] == nil {
			attended[rec.StudentID] = make(map[slot]bool)
		}
		attended[rec.StudentID][slot{week: s.Week, typ: s.Type}] = true
	}

	rows := make([]MasterRow, 0, len(students))
	for _, stu := range students {
		row := MasterRow{StudentID: stu.ID, StudentName: stu.FullName}
		slots := attended[stu.ID]
		for w := 1; w <= session.WeeksPerTerm; w++ {
			lec := slots[slot{week: w, typ: session.TypeLecture}]
			sec := slots[slot{week: w, typ: session.TypeSection}]
			row.Lecture[w-1] = lec
			row.Section[w-1] = sec
			for _, present := range []bool{lec, sec} {
				if present {
					row.TotalPresent++
				} else {
					row.TotalAbsent++
				}
			}
		}
		row.AbsencePercent = math.Round(float64(row.TotalAbsent)/TotalSlots*1000) / 10
		row.Warning = WarningFor(row.TotalAbsent)
		rows = append(rows, row)
	}
	return rows
}
