package parsers

import (
	"strings"
	"testing"
)

func TestParseCSVGuessesSeparator(t *testing.T) {
	t.Parallel()

	input := "Product No.;Description;Price\nA100;Server;10.50\nA200;Switch;5.00\n"
	pages, err := ParseCSV(strings.NewReader(input), "")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(pages) != 1 {
		t.Fatalf("expected 1 page, got %d", len(pages))
	}

	page := pages[0]
	if len(page.Headers) != 3 || page.Headers[2] != "Price" {
		t.Fatalf("unexpected headers %v", page.Headers)
	}
	if len(page.Rows) != 2 || page.Rows[1][1] != "Switch" {
		t.Fatalf("unexpected rows %v", page.Rows)
	}
}

func TestParseCSVHonorsSeparatorOverride(t *testing.T) {
	t.Parallel()

	// Commas dominate the first line, but the file is semicolon-separated.
	input := "Product, No;Description, more;Price, usd\nA100;a,b,c;10\n"
	pages, err := ParseCSV(strings.NewReader(input), ";")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := pages[0].Headers; len(got) != 3 || got[0] != "Product, No" {
		t.Fatalf("unexpected headers %v", got)
	}
	if got := pages[0].Rows[0]; got[1] != "a,b,c" {
		t.Fatalf("unexpected row %v", got)
	}
}

func TestParseCSVSeparatorUsesFirstRuneLiterally(t *testing.T) {
	t.Parallel()

	// A separator that merely starts with 't' is not a tab request.
	input := "AtBtC\n1t2t3\n"
	pages, err := ParseCSV(strings.NewReader(input), "t")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := pages[0].Headers; len(got) != 3 || got[0] != "A" || got[2] != "C" {
		t.Fatalf("unexpected headers %v", got)
	}
	if got := pages[0].Rows[0]; len(got) != 3 || got[1] != "2" {
		t.Fatalf("unexpected row %v", got)
	}

	// Tab is requested with the literal character or its escape.
	for _, sep := range []string{"\t", "\\t"} {
		pages, err := ParseCSV(strings.NewReader("A\tB\n1\t2\n"), sep)
		if err != nil {
			t.Fatalf("parse with %q: %v", sep, err)
		}
		if got := pages[0].Headers; len(got) != 2 || got[1] != "B" {
			t.Fatalf("separator %q: unexpected headers %v", sep, got)
		}
	}
}

func TestParseCSVSkipsLeadingAndBlankRows(t *testing.T) {
	t.Parallel()

	input := "\n\nProduct No.,Price\nA100,10\n\nA200,20\n"
	pages, err := ParseCSV(strings.NewReader(input), ",")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	page := pages[0]
	if len(page.Headers) != 2 {
		t.Fatalf("unexpected headers %v", page.Headers)
	}
	if len(page.Rows) != 2 {
		t.Fatalf("expected blank rows skipped, got %v", page.Rows)
	}
}

func TestParseCSVEmptyFile(t *testing.T) {
	t.Parallel()

	pages, err := ParseCSV(strings.NewReader(""), "")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(pages) != 1 || pages[0].HasRows() || pages[0].Headers != nil {
		t.Fatalf("expected single empty page, got %+v", pages)
	}
}

func TestGuessSeparator(t *testing.T) {
	t.Parallel()

	cases := map[string]rune{
		"a,b,c":     ',',
		"a;b;c":     ';',
		"a\tb\tc":   '\t',
		"plain":     ',',
		"a;b,c;d;e": ';',
	}
	for line, want := range cases {
		if got := GuessSeparator(line); got != want {
			t.Errorf("GuessSeparator(%q) = %q, want %q", line, got, want)
		}
	}
}
