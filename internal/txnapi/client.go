// Package txnapi is the HTTP client for the transactions backend.
package txnapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/sathvik-zluri/moneytrack/internal/models"
)

const (
	DefaultTimeout = 50 * time.Second

	FrequencyCustom = "custom"
)

type Client struct {
	baseURL string
	http    *http.Client
	log     zerolog.Logger
}

func New(baseURL string, timeout time.Duration, log zerolog.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		log:     log.With().Str("component", "txnapi").Logger(),
	}
}

type DateRange struct {
	Start models.Date
	End   models.Date
}

type ListQuery struct {
	Page      int
	Limit     int
	Sort      string
	Frequency string
	// Range is only sent when Frequency is "custom".
	Range *DateRange
}

func (q ListQuery) values() url.Values {
	v := url.Values{}
	v.Set("page", strconv.Itoa(q.Page))
	v.Set("limit", strconv.Itoa(q.Limit))
	v.Set("sort", q.Sort)
	if q.Frequency != FrequencyCustom {
		v.Set("frequency", q.Frequency)
	} else if q.Range != nil {
		if !q.Range.Start.IsZero() {
			v.Set("startDate", q.Range.Start.FormValue())
		}
		if !q.Range.End.IsZero() {
			v.Set("endDate", q.Range.End.FormValue())
		}
	}
	return v
}

type Pagination struct {
	TotalCount int `json:"totalCount"`
}

type ListResponse struct {
	Message    string               `json:"message"`
	Data       []models.Transaction `json:"data"`
	Pagination Pagination           `json:"pagination"`
}

type MutationResponse struct {
	Message string `json:"message"`
}

func (c *Client) List(ctx context.Context, q ListQuery) (*ListResponse, error) {
	var out ListResponse
	if err := c.do(ctx, http.MethodGet, "/list?"+q.values().Encode(), nil, "", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Add(ctx context.Context, in models.TransactionInput) (*MutationResponse, error) {
	return c.mutate(ctx, http.MethodPost, "/add", in)
}

func (c *Client) Update(ctx context.Context, id int, in models.TransactionInput) (*MutationResponse, error) {
	return c.mutate(ctx, http.MethodPut, "/update/"+strconv.Itoa(id), in)
}

func (c *Client) Delete(ctx context.Context, id int) (*MutationResponse, error) {
	var out MutationResponse
	if err := c.do(ctx, http.MethodDelete, "/delete/"+strconv.Itoa(id), nil, "", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) mutate(ctx context.Context, method, path string, in models.TransactionInput) (*MutationResponse, error) {
	body, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("encode transaction: %w", err)
	}
	var out MutationResponse
	if err := c.do(ctx, method, path, bytes.NewReader(body), "application/json", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UploadCSV posts the file as the multipart field "file".
func (c *Client) UploadCSV(ctx context.Context, file models.UploadCandidateFile) (*models.UploadResult, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	mediaType := file.MediaType
	if mediaType == "" {
		mediaType = "text/csv"
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, file.Name))
	h.Set("Content-Type", mediaType)

	part, err := mw.CreatePart(h)
	if err != nil {
		return nil, fmt.Errorf("create form part: %w", err)
	}
	if _, err := part.Write(file.Data); err != nil {
		return nil, fmt.Errorf("write form part: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("close form: %w", err)
	}

	var out models.UploadResult
	if err := c.do(ctx, http.MethodPost, "/uploadcsv", &buf, mw.FormDataContentType(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn().Err(err).Str("method", method).Str("path", path).Msg("Backend request failed")
		return &Error{Kind: KindNetwork, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{Kind: KindNetwork, Err: fmt.Errorf("read response: %w", err)}
	}

	c.log.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("Backend request")

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := &Error{Kind: KindClient, Status: resp.StatusCode}
		if resp.StatusCode >= http.StatusInternalServerError {
			apiErr.Kind = KindServer
		}
		if len(data) > 0 {
			if err := json.Unmarshal(data, &apiErr.Body); err != nil {
				c.log.Debug().Err(err).Int("status", resp.StatusCode).Msg("Error body is not JSON")
			}
		}
		return apiErr
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}
