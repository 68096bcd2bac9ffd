package roster

import (
	"context"
	"errors"
	"testing"
)

func TestParseTrimsFields(t *testing.T) {
	students := Parse("2020001, Ahmed Mohamed\n2020002, Sara Ali")
	if len(students) != 2 {
		t.Fatalf("got %d students, want 2", len(students))
	}
	if students[0].ID != "2020001" || students[0].FullName != "Ahmed Mohamed" {
		t.Errorf("first entry = %+v", students[0])
	}
	if students[1].ID != "2020002" || students[1].FullName != "Sara Ali" {
		t.Errorf("second entry = %+v", students[1])
	}
}

func TestParseSkipsMalformedLines(t *testing.T) {
	students := Parse("just a name without comma\n2020003, Omar Hassan\n\n")
	if len(students) != 1 {
		t.Fatalf("got %d students, want 1", len(students))
	}
	if students[0].ID != "2020003" {
		t.Errorf("entry = %+v", students[0])
	}
}

func TestImportReplacesWholesale(t *testing.T) {
	repo := NewMemoryRepository()
	svc := NewService(repo)
	ctx := context.Background()

	if _, err := svc.Import(ctx, "2020001, Ahmed Mohamed\n2020002, Sara Ali"); err != nil {
		t.Fatal(err)
	}
	n, err := svc.Import(ctx, "2020009, Mona Adel")
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("imported %d, want 1", n)
	}
	students, _ := repo.ListAll(ctx)
	if len(students) != 1 || students[0].ID != "2020009" {
		t.Errorf("roster after reimport = %+v, want only 2020009", students)
	}
}

func TestImportEmptyKeepsPriorRoster(t *testing.T) {
	repo := NewMemoryRepository()
	svc := NewService(repo)
	ctx := context.Background()

	if _, err := svc.Import(ctx, "2020001, Ahmed Mohamed"); err != nil {
		t.Fatal(err)
	}
	_, err := svc.Import(ctx, "a single malformed line")
	if !errors.Is(err, ErrEmptyImport) {
		t.Fatalf("expected ErrEmptyImport, got %v", err)
	}
	students, _ := repo.ListAll(ctx)
	if len(students) != 1 || students[0].ID != "2020001" {
		t.Errorf("prior roster lost: %+v", students)
	}
}
