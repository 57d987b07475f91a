// Package client talks to a running lead-time analysis server.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/okian/leadtime/internal/adapters/ingest"
	"github.com/okian/leadtime/internal/adapters/repository"
	"github.com/okian/leadtime/internal/domain/types"
)

// Default client settings.
const (
	DefaultTimeout      = 30 * time.Second
	DefaultPollInterval = 500 * time.Millisecond
)

const contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Client wraps http.Client with the analysis API routes.
type Client struct {
	baseURL      string
	http         *http.Client
	pollInterval time.Duration
}

// New creates a client for the server at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		http:         &http.Client{Timeout: DefaultTimeout},
		pollInterval: DefaultPollInterval,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Submit uploads body as a dataset named name. The name's extension
// selects the format; sheet is passed through for spreadsheets.
func (c *Client) Submit(ctx context.Context, name string, body io.Reader, sheet string) (types.Submission, error) {
	q := url.Values{}
	q.Set("name", filepath.Base(name))
	contentType := "text/csv"
	if f, err := ingest.FormatOf(name); err == nil {
		q.Set("format", string(f))
		if f == ingest.FormatXLSX {
			contentType = contentTypeXLSX
		}
	}
	if sheet != "" {
		q.Set("sheet", sheet)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/analyses?"+q.Encode(), body)
	if err != nil {
		return types.Submission{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	var sub types.Submission
	if err := c.do(req, http.StatusAccepted, &sub); err != nil {
		return types.Submission{}, err
	}
	return sub, nil
}

// Get fetches an analysis, including its report once done.
func (c *Client) Get(ctx context.Context, id string) (repository.Analysis, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/analyses/"+url.PathEscape(id), http.NoBody)
	if err != nil {
		return repository.Analysis{}, fmt.Errorf("create request: %w", err)
	}
	var a repository.Analysis
	if err := c.do(req, http.StatusOK, &a); err != nil {
		return repository.Analysis{}, err
	}
	return a, nil
}

// List fetches up to limit analyses, newest first.
func (c *Client) List(ctx context.Context, limit int) ([]types.AnalysisSummary, error) {
	u := fmt.Sprintf("%s/analyses?limit=%d", c.baseURL, limit)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	var list []types.AnalysisSummary
	if err := c.do(req, http.StatusOK, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// Wait polls id until it leaves the pending state or ctx is done. A failed
// analysis is returned together with ErrAnalysisFailed; on other errors the
// last state seen is returned.
func (c *Client) Wait(ctx context.Context, id string) (repository.Analysis, error) {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	var last repository.Analysis
	for {
		a, err := c.Get(ctx, id)
		if err != nil {
			return last, err
		}
		last = a
		switch a.Status {
		case repository.StatusDone:
			return a, nil
		case repository.StatusFailed:
			return a, fmt.Errorf("%w: %s", ErrAnalysisFailed, a.Error)
		}

		select {
		case <-ctx.Done():
			return a, fmt.Errorf("wait for %s: %w", id, ctx.Err())
		case <-ticker.C:
		}
	}
}

// ExportCSV copies the CSV answers of a finished analysis to w.
func (c *Client) ExportCSV(ctx context.Context, id string, w io.Writer) error {
	return c.download(ctx, id, "export.csv", w)
}

// ExportXLSX copies the workbook of a finished analysis to w.
func (c *Client) ExportXLSX(ctx context.Context, id string, w io.Writer) error {
	return c.download(ctx, id, "export.xlsx", w)
}

func (c *Client) download(ctx context.Context, id, file string, w io.Writer) error {
	u := c.baseURL + "/analyses/" + url.PathEscape(id) + "/" + file
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("get %s: %w", file, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decodeError(resp)
	}
	if _, err := io.Copy(w, resp.Body); err != nil {
		return fmt.Errorf("read %s: %w", file, err)
	}
	return nil
}

// do sends req and decodes a JSON body into out when the status matches.
func (c *Client) do(req *http.Request, want int, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != want {
		return decodeError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err := json.Unmarshal(body, apiErr); err != nil || apiErr.Code == "" {
		apiErr.Code = strings.ToLower(strings.ReplaceAll(http.StatusText(resp.StatusCode), " ", "_"))
		apiErr.Message = strings.TrimSpace(string(body))
	}
	return apiErr
}
