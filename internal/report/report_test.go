package report

import (
	"strings"
	"testing"
	"time"

	"geoattend/internal/checkin"
	"geoattend/internal/roster"
	"geoattend/internal/session"
)

func TestWarningTiers(t *testing.T) {
	cases := []struct {
		absent int
		want   Warning
	}{
		{0, WarningGood},
		{2, WarningGood},
		{3, WarningFirst},
		{4, WarningFirst},
		{5, WarningSecond},
		{6, WarningSecond},
		{7, WarningBanned},
		{28, WarningBanned},
	}
	for _, tc := range cases {
		if got := WarningFor(tc.absent); got != tc.want {
			t.Errorf("WarningFor(%d) = %s, want %s", tc.absent, got, tc.want)
		}
	}
}

func makeSession(id string, typ session.Type, week int) session.Session {
	return session.Session{ID: id, Type: typ, Name: "Software Engineering", Group: "Group A", Week: week}
}

func makeRecord(sessionID, studentID, name string) checkin.Record {
	return checkin.Record{
		SessionID:   sessionID,
		StudentID:   studentID,
		StudentName: name,
		Status:      checkin.StatusPresent,
		Timestamp:   time.Date(2026, 3, 9, 10, 15, 0, 0, time.UTC),
	}
}

func TestWeeklyJoinsOnlyMatchingWeek(t *testing.T) {
	sessions := []session.Session{
		makeSession("lec-w3", session.TypeLecture, 3),
		makeSession("lec-w4", session.TypeLecture, 4),
	}
	records := []checkin.Record{
		makeRecord("lec-w3", "2020001", "Ahmed Mohamed"),
		makeRecord("lec-w4", "2020001", "Ahmed Mohamed"),
		makeRecord("lec-w3", "2020002", "Sara Ali"),
	}

	rows := Weekly(3, sessions, records)
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	for _, row := range rows {
		if row.Week != 3 {
			t.Errorf("row week = %d, want 3", row.Week)
		}
	}
}

func TestWeeklyNoMatchingSessions(t *testing.T) {
	rows := Weekly(9, []session.Session{makeSession("lec-w3", session.TypeLecture, 3)},
		[]checkin.Record{makeRecord("lec-w3", "2020001", "Ahmed Mohamed")})
	if len(rows) != 0 {
		t.Errorf("got %d rows for empty week, want 0", len(rows))
	}

	var b strings.Builder
	if err := WriteWeeklyCSV(&b, rows); err != nil {
		t.Fatal(err)
	}
	want := "Week,Session Name,Type,Group,Student Name,Student ID,Timestamp,Status\n"
	if b.String() != want {
		t.Errorf("empty week export = %q, want header only", b.String())
	}
}

func TestWeeklyCSVRowFormat(t *testing.T) {
	rows := Weekly(3, []session.Session{makeSession("lec-w3", session.TypeLecture, 3)},
		[]checkin.Record{makeRecord("lec-w3", "2020001", "Ahmed Mohamed")})

	var b strings.Builder
	if err := WriteWeeklyCSV(&b, rows); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimRight(b.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	want := `3,"Software Engineering",Lecture,Group A,"Ahmed Mohamed",2020001,"2026-03-09 10:15:00",Present`
	if lines[1] != want {
		t.Errorf("row = %q\nwant  %q", lines[1], want)
	}
}

func TestMasterAccounting(t *testing.T) {
	students := []roster.Student{
		{ID: "2020001", FullName: "Ahmed Mohamed"},
		{ID: "2020002", FullName: "Sara Ali"},
	}
	sessions := []session.Session{
		makeSession("lec-w1", session.TypeLecture, 1),
		makeSession("sec-w1", session.TypeSection, 1),
		makeSession("lec-w2", session.TypeLecture, 2),
	}
	// Ahmed attends everything offered; Sara only the week 1 lecture.
	records := []checkin.Record{
		makeRecord("lec-w1", "2020001", "Ahmed Mohamed"),
		makeRecord("sec-w1", "2020001", "Ahmed Mohamed"),
		makeRecord("lec-w2", "2020001", "Ahmed Mohamed"),
		makeRecord("lec-w1", "2020002", "Sara Ali"),
	}

	rows := Master(students, sessions, records)
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}

	ahmed := rows[0]
	if ahmed.TotalPresent != 3 || ahmed.TotalAbsent != TotalSlots-3 {
		t.Errorf("ahmed totals = %d present / %d absent", ahmed.TotalPresent, ahmed.TotalAbsent)
	}
	if !ahmed.Lecture[0] || !ahmed.Section[0] || !ahmed.Lecture[1] || ahmed.Section[1] {
		t.Errorf("ahmed slots wrong: %+v", ahmed)
	}

	sara := rows[1]
	if sara.TotalPresent != 1 {
		t.Errorf("sara present = %d, want 1", sara.TotalPresent)
	}
	if sara.Warning != WarningBanned {
		t.Errorf("sara warning = %s, want banned at %d absences", sara.Warning, sara.TotalAbsent)
	}
}

func TestMasterAnySessionOfTypeCounts(t *testing.T) {
	// Group affiliation is not filtered: attending the "wrong" group's
	// section still marks the week's section slot.
	students := []roster.Student{{ID: "2020001", FullName: "Ahmed Mohamed"}}
	sections := []session.Session{
		{ID: "sec-a1", Type: session.TypeSection, Name: "SE", Group: "A1", Week: 2},
		{ID: "sec-b2", Type: session.TypeSection, Name: "SE", Group: "B2", Week: 2},
	}
	records := []checkin.Record{makeRecord("sec-b2", "2020001", "Ahmed Mohamed")}

	rows := Master(students, sections, records)
	if !rows[0].Section[1] {
		t.Error("week 2 section slot should be marked")
	}
}

func TestMasterAbsencePercent(t *testing.T) {
	students := []roster.Student{{ID: "2020001", FullName: "Ahmed Mohamed"}}
	var sessions []session.Session
	var records []checkin.Record
	// 25 of 28 slots attended: 3 absences, 10.7%.
	for w := 1; w <= session.WeeksPerTerm; w++ {
		lec := makeSession("lec-"+string(rune('a'+w)), session.TypeLecture, w)
		sec := makeSession("sec-"+string(rune('a'+w)), session.TypeSection, w)
		sessions = append(sessions, lec, sec)
		if w > 3 {
			records = append(records, makeRecord(lec.ID, "2020001", "Ahmed Mohamed"))
		}
		records = append(records, makeRecord(sec.ID, "2020001", "Ahmed Mohamed"))
	}

	rows := Master(students, sessions, records)
	row := rows[0]
	if row.TotalAbsent != 3 {
		t.Fatalf("absent = %d, want 3", row.TotalAbsent)
	}
	if row.AbsencePercent != 10.7 {
		t.Errorf("absence percent = %v, want 10.7", row.AbsencePercent)
	}
	if row.Warning != WarningFirst {
		t.Errorf("warning = %s, want first tier", row.Warning)
	}
}

func TestMasterCSVFormat(t *testing.T) {
	students := []roster.Student{{ID: "2020001", FullName: "Ahmed Mohamed"}}
	rows := Master(students, nil, nil)

	var b strings.Builder
	if err := WriteMasterCSV(&b, rows); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimRight(b.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}

	if !strings.HasPrefix(lines[0], "Student ID,Student Name,Week 1 Lecture,Week 1 Section") {
		t.Errorf("header start = %q", lines[0])
	}
	if !strings.HasSuffix(lines[0], "Week 14 Lecture,Week 14 Section,Total Present,Total Absent,Absence %,Status Warning") {
		t.Errorf("header end = %q", lines[0])
	}

	// Never attended anything: all zeros, 100%, banned.
	wantRow := `2020001,"Ahmed Mohamed"` + strings.Repeat(",0,0", session.WeeksPerTerm) + `,0,28,100.0%,BANNED (7+)`
	if lines[1] != wantRow {
		t.Errorf("row = %q\nwant  %q", lines[1], wantRow)
	}
}
