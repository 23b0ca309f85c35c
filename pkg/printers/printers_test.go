package printers

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/muesli/termenv"

	"tableflip.dev/zeit/pkg/entry"
	"tableflip.dev/zeit/pkg/timeutil"
)

func init() {
	color.NoColor = true
}

func TestEntriesRunningFirst(t *testing.T) {
	var buf bytes.Buffer
	pp := &PrettyPrint{Out: &buf, ShowID: true}
	start := time.Date(2024, 6, 3, 9, 0, 0, 0, time.Local)
	pp.Entries(entry.Catalog{},
		entry.Entry{ID: 1, Project: "Design", Start: entry.At(start), End: entry.Ptr(start.Add(45 * time.Minute)), Duration: 45},
		entry.Entry{ID: 2, Project: "Ops", Start: entry.At(start.Add(time.Hour)), Running: true},
	)
	out := buf.String()
	ops, design := strings.Index(out, "Ops"), strings.Index(out, "Design")
	if ops < 0 || design < 0 || ops > design {
		t.Fatalf("expected running entry first, got %q", out)
	}
	if !strings.Contains(out, "45 Min") || !strings.Contains(out, entry.RunningLabel) {
		t.Fatalf("expected duration labels, got %q", out)
	}
	if !strings.Contains(out, "09:00 - 09:45") {
		t.Fatalf("expected time range, got %q", out)
	}
}

func TestEntriesEmpty(t *testing.T) {
	var buf bytes.Buffer
	(&PrettyPrint{Out: &buf}).Entries(entry.Catalog{})
	if !strings.Contains(buf.String(), "Keine Einträge gefunden") {
		t.Fatalf("expected empty state, got %q", buf.String())
	}
}

func TestStatsOrderedByTime(t *testing.T) {
	var buf bytes.Buffer
	pp := &PrettyPrint{Out: &buf}
	pp.Stats(timeutil.Week{Year: 2024, Number: 23}, entry.Stats{
		TotalHours: 2.5,
		Projects:   map[string]float64{"Ops": 30, "Design": 120},
	}, entry.Catalog{})
	out := buf.String()
	if !strings.Contains(out, "KW 23 / 2024") || !strings.Contains(out, "2.5h") || !strings.Contains(out, "2 Projekte") {
		t.Fatalf("unexpected stats output %q", out)
	}
	if strings.Index(out, "Design") > strings.Index(out, "Ops") {
		t.Fatalf("expected larger project first, got %q", out)
	}
}

func TestWeekTotals(t *testing.T) {
	var buf bytes.Buffer
	pp := &PrettyPrint{Out: &buf}
	pp.Week(timeutil.Week{Year: 2024, Number: 23}, [timeutil.WorkDays]float64{90, 0, 0, 0, 30}, time.Time{})
	out := buf.String()
	if !strings.Contains(out, "Mo 03.06.") || !strings.Contains(out, "Fr 07.06.") {
		t.Fatalf("expected day headers, got %q", out)
	}
	if !strings.Contains(out, "1.5h") || !strings.Contains(out, "0.5h") {
		t.Fatalf("expected day totals, got %q", out)
	}
}

func TestSwatchAscii(t *testing.T) {
	s := &Swatch{Profile: termenv.Ascii}
	if got := s.Paint("Design", "#667eea"); got != "Design" {
		t.Fatalf("expected plain text, got %q", got)
	}
}

func TestEncodeYAML(t *testing.T) {
	var buf bytes.Buffer
	err := Encode(&buf, FormatYAML, []entry.Project{{ID: 3, Name: "Ops", Color: "#00ff00"}})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "name: Ops") || !strings.Contains(out, "id: 3") {
		t.Fatalf("expected yaml with json field names, got %q", out)
	}
}

func TestParseFormat(t *testing.T) {
	if f, err := ParseFormat("JSON"); err != nil || f != FormatJSON {
		t.Fatalf("expected json, got %v %v", f, err)
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Fatalf("expected error for xml")
	}
}
