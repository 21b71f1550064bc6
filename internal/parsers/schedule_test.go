package parsers

import (
	"context"
	"testing"
)

func TestExtractScheduleByHeaderNames(t *testing.T) {
	t.Parallel()

	page := Page{
		Name:    "schedule",
		Headers: []string{"Payment Amount", "Start Date", "End Date"},
		Rows: [][]string{
			{"100.00", "2024-01-01", "2024-06-30"},
			{"200.00", "2024-07-01", "2024-12-31"},
		},
	}

	lines := ExtractSchedule(context.Background(), nil, page)
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if lines[0].From != "2024-01-01" || lines[0].To != "2024-06-30" || lines[0].Price != "100.00" {
		t.Fatalf("unexpected first line %+v", lines[0])
	}
}

func TestExtractScheduleSkipsMalformedLines(t *testing.T) {
	t.Parallel()

	page := Page{
		Name:    "schedule",
		Headers: []string{"From", "To", "Price"},
		Rows: [][]string{
			{"2024-01-01", "2024-06-30", "100.00"},
			{"2024-07-01", "", "200.00"},  // missing to
			{"2024-07-01", "2024-12-31"},  // short row
			{"2025-01-01", "2025-06-30", "300.00"},
		},
	}

	lines := ExtractSchedule(context.Background(), nil, page)
	if len(lines) != 2 {
		t.Fatalf("expected malformed lines skipped, got %d lines", len(lines))
	}
	if lines[1].Price != "300.00" {
		t.Fatalf("unexpected surviving line %+v", lines[1])
	}
}

func TestExtractScheduleFallsBackToPositional(t *testing.T) {
	t.Parallel()

	page := Page{
		Name:    "schedule",
		Headers: []string{"A", "B", "C"},
		Rows:    [][]string{{"x", "y", "z"}},
	}

	lines := ExtractSchedule(context.Background(), nil, page)
	if len(lines) != 1 || lines[0].From != "x" || lines[0].Price != "z" {
		t.Fatalf("unexpected lines %+v", lines)
	}
}
