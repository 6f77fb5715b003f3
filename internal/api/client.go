// Package api submits analysis requests to the analyze endpoint.
package api

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"

	"github.com/jonathan/jobai-assistant/internal/logger"
	"github.com/jonathan/jobai-assistant/internal/negotiate"
	"github.com/jonathan/jobai-assistant/internal/types"
)

const (
	// DefaultBaseURL is the local backend address
	DefaultBaseURL = "http://127.0.0.1:8000"
	// DefaultAnalyzePath is the analyze endpoint path
	DefaultAnalyzePath = "/analyze-full"
	// DefaultTimeout bounds a single analyze call
	DefaultTimeout = 5 * time.Minute
	// DefaultUserAgent is sent with every request
	DefaultUserAgent = "JobAI/1.0"

	// FieldJobDescription is the multipart field carrying the job description text
	FieldJobDescription = "job_description"
	// FieldResume is the multipart file part carrying the resume
	FieldResume = "resume"
)

// Client posts multipart analyze requests.
type Client struct {
	BaseURL     string
	AnalyzePath string
	HTTPClient  *http.Client
	UserAgent   string
	Logger      *zap.Logger
}

// Endpoint returns the absolute analyze URL.
func (c *Client) Endpoint() string {
	base := c.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	path := c.AnalyzePath
	if path == "" {
		path = DefaultAnalyzePath
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}

// Submit posts req to the analyze endpoint and returns the raw response.
// The caller owns the response body. Transport failures are returned as *negotiate.NetworkError;
// HTTP error statuses are not, they are left for the negotiator.
func (c *Client) Submit(ctx context.Context, req *types.AnalysisRequest) (*http.Response, error) {
	if req == nil {
		return nil, types.ErrMissingJobDescription
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	body, contentType, err := encodeForm(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode analyze form: %w", err)
	}

	endpoint := c.Endpoint()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return nil, &negotiate.NetworkError{URL: endpoint, Message: "invalid analyze URL", Cause: err}
	}
	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("Accept", "application/json, application/pdf, */*")
	userAgent := c.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	httpReq.Header.Set("User-Agent", userAgent)

	log := logger.OrNop(c.Logger)
	log.Debug("submitting analyze request",
		zap.String("url", endpoint),
		zap.Int("jd_chars", len([]rune(req.JobDescription))),
		zap.String("resume", req.Resume.Name),
		zap.Int("resume_bytes", len(req.Resume.Data)))

	resp, err := c.client().Do(httpReq)
	if err != nil {
		return nil, &negotiate.NetworkError{URL: endpoint, Message: "analyze request failed", Cause: err}
	}

	log.Debug("analyze response received",
		zap.Int("status", resp.StatusCode),
		zap.String("content_type", resp.Header.Get("Content-Type")))

	return resp, nil
}

func (c *Client) client() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return &http.Client{Timeout: DefaultTimeout}
}

// encodeForm builds the multipart body: the job description field and the resume file part.
func encodeForm(req *types.AnalysisRequest) (*bytes.Buffer, string, error) {
	var b bytes.Buffer
	w := multipart.NewWriter(&b)

	if err := w.WriteField(FieldJobDescription, req.JobDescription); err != nil {
		return nil, "", err
	}

	name := ResumeFilename(req.Resume)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="%s"; filename="%s"`, FieldResume, escapeQuotes(name)))
	header.Set("Content-Type", ResumeContentType(req.Resume))

	part, err := w.CreatePart(header)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(req.Resume.Data); err != nil {
		return nil, "", err
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &b, w.FormDataContentType(), nil
}

// ResumeContentType returns the declared content type, or one sniffed from the file bytes.
func ResumeContentType(f *types.ResumeFile) string {
	if f.ContentType != "" {
		return f.ContentType
	}
	return mimetype.Detect(f.Data).String()
}

// ResumeFilename returns the base name of the resume, or a name derived from its sniffed type.
func ResumeFilename(f *types.ResumeFile) string {
	if name := filepath.Base(strings.TrimSpace(f.Name)); name != "" && name != "." && name != string(filepath.Separator) {
		return name
	}
	return "resume" + mimetype.Detect(f.Data).Extension()
}

var quoteEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
