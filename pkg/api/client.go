// Package api is the HTTP client for the time tracking server.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"tableflip.dev/zeit/pkg/entry"
)

// Error is a non-2xx reply. Detail is the server's message and is meant to
// be shown to the user as is.
type Error struct {
	Status int
	Detail string
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("server returned %d", e.Status)
	}
	return e.Detail
}

// IsStatus reports whether err is an *Error with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Status == status
}

// EntryForm is the body of a manual create or an update.
type EntryForm struct {
	Project     string
	Description string
	// Date is "2006-01-02".
	Date string
	// StartTime and EndTime are "15:04".
	StartTime string
	EndTime   string
}

func (f EntryForm) values() url.Values {
	return url.Values{
		"project":     {f.Project},
		"description": {f.Description},
		"date":        {f.Date},
		"start_time":  {f.StartTime},
		"end_time":    {f.EndTime},
	}
}

// Client talks to one server.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	Logger  logrus.FieldLogger
}

// New returns a client for baseURL with a 30s request timeout.
func New(baseURL string, log logrus.FieldLogger) *Client {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Client{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTP:    &http.Client{Timeout: 30 * time.Second},
		Logger:  log.WithField("component", "api"),
	}
}

// Projects lists the active projects.
func (c *Client) Projects(ctx context.Context) ([]entry.Project, error) {
	var out []entry.Project
	if err := c.do(ctx, "projects", http.MethodGet, "/api/projects", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateProject adds a project.
func (c *Client) CreateProject(ctx context.Context, name, color string) (entry.ProjectSaved, error) {
	var out entry.ProjectSaved
	err := c.do(ctx, "create project", http.MethodPost, "/api/projects", projectForm(name, color), &out)
	return out, err
}

// UpdateProject renames or recolors a project. The server renames the
// project on all of its entries as well.
func (c *Client) UpdateProject(ctx context.Context, id int, name, color string) (entry.ProjectSaved, error) {
	var out entry.ProjectSaved
	err := c.do(ctx, "update project", http.MethodPut, "/api/projects/"+strconv.Itoa(id), projectForm(name, color), &out)
	return out, err
}

// DeleteProject deactivates a project. Its entries are kept.
func (c *Client) DeleteProject(ctx context.Context, id int) error {
	return c.do(ctx, "delete project", http.MethodDelete, "/api/projects/"+strconv.Itoa(id), nil, nil)
}

// Entries returns the most recent entries.
func (c *Client) Entries(ctx context.Context) ([]entry.Entry, error) {
	var out []entry.Entry
	if err := c.do(ctx, "entries", http.MethodGet, "/api/entries", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Start starts the timer.
func (c *Client) Start(ctx context.Context, project, description string) (entry.Started, error) {
	var out entry.Started
	form := url.Values{"project": {project}, "description": {description}}
	err := c.do(ctx, "start", http.MethodPost, "/api/entries/start", form, &out)
	return out, err
}

// Stop stops the running timer.
func (c *Client) Stop(ctx context.Context) (entry.Stopped, error) {
	var out entry.Stopped
	err := c.do(ctx, "stop", http.MethodPost, "/api/entries/stop", url.Values{}, &out)
	return out, err
}

// CreateEntry adds a finished entry.
func (c *Client) CreateEntry(ctx context.Context, form EntryForm) (entry.Saved, error) {
	var out entry.Saved
	err := c.do(ctx, "create entry", http.MethodPost, "/api/entries/manual", form.values(), &out)
	return out, err
}

// UpdateEntry replaces an entry's fields.
func (c *Client) UpdateEntry(ctx context.Context, id int, form EntryForm) (entry.Saved, error) {
	var out entry.Saved
	err := c.do(ctx, "update entry", http.MethodPut, "/api/entries/"+strconv.Itoa(id), form.values(), &out)
	return out, err
}

// DeleteEntry removes an entry.
func (c *Client) DeleteEntry(ctx context.Context, id int) error {
	return c.do(ctx, "delete entry", http.MethodDelete, "/api/entries/"+strconv.Itoa(id), nil, nil)
}

// WeekStats returns the totals of one ISO week.
func (c *Client) WeekStats(ctx context.Context, year, week int) (entry.Stats, error) {
	var out entry.Stats
	path := fmt.Sprintf("/api/stats/week/%d/%d", year, week)
	err := c.do(ctx, "week stats", http.MethodGet, path, nil, &out)
	return out, err
}

// ExportCSV streams the CSV export of [start, end] into w. Dates are
// "2006-01-02"; empty means unbounded.
func (c *Client) ExportCSV(ctx context.Context, start, end string, w io.Writer) (int64, error) {
	q := url.Values{}
	if start != "" {
		q.Set("start_date", start)
	}
	if end != "" {
		q.Set("end_date", end)
	}
	path := "/api/export/csv"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	resp, err := c.send(ctx, "export", http.MethodGet, path, nil)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, fmt.Errorf("api: export: %w", err)
	}
	return n, nil
}

func projectForm(name, color string) url.Values {
	if color == "" {
		color = entry.DefaultColor
	}
	return url.Values{"name": {name}, "color": {color}}
}

func (c *Client) do(ctx context.Context, op, method, path string, form url.Values, out interface{}) error {
	resp, err := c.send(ctx, op, method, path, form)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("api: %s: decode: %w", op, err)
	}
	return nil
}

// send performs the request and turns non-2xx replies into *Error. The
// caller closes the body of a successful response.
func (c *Client) send(ctx context.Context, op, method, path string, form url.Values) (*http.Response, error) {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("api: %s: %w", op, err)
	}
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	req.Header.Set("Accept", "application/json")

	c.Logger.WithField("method", method).WithField("path", path).Debug("request")
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("api: %s: %w", op, err)
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	apiErr := &Error{Status: resp.StatusCode, Detail: detail(raw)}
	c.Logger.WithField("status", resp.StatusCode).WithField("path", path).Warn(apiErr.Detail)
	return nil, apiErr
}

// detail extracts {"detail": ...} from an error body. Validation errors carry
// a list; its messages are joined.
func detail(raw []byte) string {
	var body struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(raw, &body); err != nil || len(body.Detail) == 0 {
		return strings.TrimSpace(string(raw))
	}
	var s string
	if err := json.Unmarshal(body.Detail, &s); err == nil {
		return s
	}
	var list []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(body.Detail, &list); err == nil {
		msgs := make([]string, 0, len(list))
		for _, item := range list {
			msgs = append(msgs, item.Msg)
		}
		return strings.Join(msgs, "; ")
	}
	return string(bytes.TrimSpace(body.Detail))
}
