// Package client is a small HTTP client for a running presence server,
// used by the CLI subcommands.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/okian/presence/internal/domain/types"
)

// defaultTimeout bounds one API call. Enrollment uploads can carry several
// images, so it is generous.
const defaultTimeout = 2 * time.Minute

// Client talks to the presence HTTP API.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a client for the server at baseURL, e.g. "http://localhost:9080".
func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
	}
}

// Start begins a camera session.
func (c *Client) Start(ctx context.Context) error {
	return c.post(ctx, "/api/start", nil, nil)
}

// Stop ends the camera session.
func (c *Client) Stop(ctx context.Context) error {
	return c.post(ctx, "/api/stop", nil, nil)
}

// SetAttendance toggles attendance marking on a running service without
// touching the camera session.
func (c *Client) SetAttendance(ctx context.Context, active bool) error {
	return c.post(ctx, "/api/set_attendance", map[string]bool{"active": active}, nil)
}

// Status fetches the live service state.
func (c *Client) Status(ctx context.Context) (types.Status, error) {
	var st types.Status
	err := c.get(ctx, "/api/status", &st)
	return st, err
}

// AddPerson uploads image files for a person and returns the enrollment
// summary. Partial failures are reported in the summary, not as an error.
func (c *Client) AddPerson(ctx context.Context, name string, paths []string) (types.EnrollmentSummary, error) {
	var summary types.EnrollmentSummary

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("name", name); err != nil {
		return summary, fmt.Errorf("writing name field: %w", err)
	}
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return summary, fmt.Errorf("reading %s: %w", path, err)
		}
		part, err := mw.CreateFormFile("images", filepath.Base(path))
		if err != nil {
			return summary, fmt.Errorf("creating form file: %w", err)
		}
		if _, err := part.Write(data); err != nil {
			return summary, fmt.Errorf("writing form file: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return summary, fmt.Errorf("closing multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/add_person", &buf)
	if err != nil {
		return summary, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return summary, fmt.Errorf("calling add_person: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return summary, fmt.Errorf("reading response: %w", err)
	}

	// 400 with a summary body means no image was usable; surface the
	// itemized reasons alongside the error.
	if uerr := json.Unmarshal(body, &summary); uerr != nil && resp.StatusCode == http.StatusOK {
		return summary, fmt.Errorf("decoding response: %w", uerr)
	}
	if resp.StatusCode != http.StatusOK {
		return summary, fmt.Errorf("add_person: %s", statusMessage(resp.StatusCode, body))
	}
	return summary, nil
}

// People lists enrolled people.
func (c *Client) People(ctx context.Context) ([]types.PersonInfo, error) {
	var people []types.PersonInfo
	err := c.get(ctx, "/api/get_people", &people)
	return people, err
}

// DeletePerson removes a person from the roster.
func (c *Client) DeletePerson(ctx context.Context, name string) error {
	body, err := json.Marshal(map[string]string{"name": name})
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+"/api/delete_person", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("calling delete_person: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("delete_person: %s", statusMessage(resp.StatusCode, data))
	}
	return nil
}

// Attendance fetches the records for one day (YYYY-MM-DD); empty day means
// today.
func (c *Client) Attendance(ctx context.Context, day string) ([]types.AttendanceRecord, error) {
	path := "/api/attendance"
	if day != "" {
		path += "?date=" + day
	}
	var records []types.AttendanceRecord
	err := c.get(ctx, path, &records)
	return records, err
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("calling %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: %s", path, statusMessage(resp.StatusCode, body))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

func (c *Client) post(ctx context.Context, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("calling %s: %w", path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: %s", path, statusMessage(resp.StatusCode, data))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// statusMessage prefers the server's error message over the bare status.
func statusMessage(status int, body []byte) string {
	var apiErr struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Message != "" {
		return apiErr.Message
	}
	return http.StatusText(status)
}
