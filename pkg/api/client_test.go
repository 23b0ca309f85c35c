package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func testClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	log := logrus.New()
	log.Out = io.Discard
	return New(srv.URL+"/", log)
}

func TestEntries(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/api/entries" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		_, _ = io.WriteString(w, `[
			{"id":1,"project":"Design","description":"","start_time":"2024-06-03T09:00:00","end_time":"2024-06-03T10:00:00","duration_minutes":60,"is_running":false},
			{"id":2,"project":"Ops","description":"x","start_time":"2024-06-03T11:00:00","end_time":null,"duration_minutes":null,"is_running":true}
		]`)
	})
	entries, err := c.Entries(context.Background())
	if err != nil {
		t.Fatalf("entries: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Duration != 60 || entries[0].Start.Hour() != 9 {
		t.Fatalf("unexpected first entry %+v", entries[0])
	}
	if !entries[1].IsRunning() || entries[1].End != nil {
		t.Fatalf("expected running second entry, got %+v", entries[1])
	}
}

func TestStartSendsForm(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/entries/start" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/x-www-form-urlencoded" {
			t.Errorf("unexpected content type %q", ct)
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		if r.PostForm.Get("project") != "Design" || r.PostForm.Get("description") != "mockups" {
			t.Errorf("unexpected form %v", r.PostForm)
		}
		_, _ = io.WriteString(w, `{"message":"Timer gestartet","id":12}`)
	})
	started, err := c.Start(context.Background(), "Design", "mockups")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if started.ID != 12 || started.Message != "Timer gestartet" {
		t.Fatalf("unexpected reply %+v", started)
	}
}

func TestUpdateEntryPath(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Path != "/api/entries/7" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		_ = r.ParseForm()
		for k, want := range map[string]string{"date": "2024-06-06", "start_time": "13:00", "end_time": "14:30"} {
			if got := r.PostForm.Get(k); got != want {
				t.Errorf("%s: expected %q, got %q", k, want, got)
			}
		}
		_, _ = io.WriteString(w, `{"message":"Eintrag aktualisiert","duration":90}`)
	})
	saved, err := c.UpdateEntry(context.Background(), 7, EntryForm{
		Project: "Design", Date: "2024-06-06", StartTime: "13:00", EndTime: "14:30",
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if saved.Duration != 90 {
		t.Fatalf("expected 90, got %v", saved.Duration)
	}
}

func TestServerErrorDetail(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"detail":"Timer bereits aktiv"}`)
	})
	_, err := c.Start(context.Background(), "Design", "")
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *Error, got %T %v", err, err)
	}
	if apiErr.Status != http.StatusBadRequest || apiErr.Detail != "Timer bereits aktiv" {
		t.Fatalf("unexpected error %+v", apiErr)
	}
	if !IsStatus(err, http.StatusBadRequest) {
		t.Fatalf("expected IsStatus to match")
	}
}

func TestValidationErrorDetail(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = io.WriteString(w, `{"detail":[{"loc":["body","project"],"msg":"field required"}]}`)
	})
	_, err := c.CreateEntry(context.Background(), EntryForm{})
	if err == nil || err.Error() != "field required" {
		t.Fatalf("expected joined validation message, got %v", err)
	}
}

func TestTransportErrorIsWrapped(t *testing.T) {
	c := New("http://127.0.0.1:1", nil)
	_, err := c.Projects(context.Background())
	if err == nil {
		t.Fatalf("expected error")
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		t.Fatalf("transport failure must not be an *Error")
	}
	if !strings.HasPrefix(err.Error(), "api: projects: ") {
		t.Fatalf("expected operation prefix, got %q", err.Error())
	}
}

func TestWeekStats(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/stats/week/2024/23" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_, _ = io.WriteString(w, `{"year":2024,"week":23,"total_hours":1.5,"total_minutes":90,"projects":{"Design":90},"start_date":"03.06.2024","end_date":"09.06.2024"}`)
	})
	stats, err := c.WeekStats(context.Background(), 2024, 23)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.TotalMinutes != 90 || stats.Projects["Design"] != 90 {
		t.Fatalf("unexpected stats %+v", stats)
	}
}

func TestExportCSVStreams(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("start_date") != "2024-06-03" || r.URL.Query().Get("end_date") != "2024-06-09" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "text/csv")
		_, _ = io.WriteString(w, "Datum,Projekt\n03.06.2024,Design\n")
	})
	var sb strings.Builder
	n, err := c.ExportCSV(context.Background(), "2024-06-03", "2024-06-09", &sb)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if sb.String() != "Datum,Projekt\n03.06.2024,Design\n" || n != int64(sb.Len()) {
		t.Fatalf("unexpected export %q (%d bytes)", sb.String(), n)
	}
}

func TestCreateProjectDefaultsColor(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		if got := r.PostForm.Get("color"); got != "#667eea" {
			t.Errorf("expected default color, got %q", got)
		}
		_, _ = io.WriteString(w, `{"message":"Projekt erstellt","id":4}`)
	})
	saved, err := c.CreateProject(context.Background(), "Neu", "")
	if err != nil || saved.ID != 4 {
		t.Fatalf("unexpected result %+v %v", saved, err)
	}
}
