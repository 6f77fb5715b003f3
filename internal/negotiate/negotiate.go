// Package negotiate turns an analyze reply into a normalized AnalysisResult.
//
// The backend may answer in one of three shapes: a JSON body carrying an inline report (optionally
// pointing at a downloadable document), a binary document body, or a JSON status acknowledgment
// whose document lives at a separate URL. Normalize classifies the reply into exactly one shape
// and performs any follow-up document fetch it needs.
package negotiate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jonathan/jobai-assistant/internal/logger"
	"github.com/jonathan/jobai-assistant/internal/types"
)

// Policy selects how a failed follow-up document fetch is handled when the primary reply already
// carried a usable report.
type Policy string

const (
	// PolicyDegrade returns the report without a document and logs a warning
	PolicyDegrade Policy = "degrade"
	// PolicyStrict fails the whole analysis with a SecondaryFetchError
	PolicyStrict Policy = "strict"
)

const (
	// DefaultDocumentPath is fetched for acknowledgments that carry no document reference
	DefaultDocumentPath = "/download/report.pdf"
	// DefaultMaxBodyBytes bounds every body the negotiator reads
	DefaultMaxBodyBytes = 50 << 20
	// DefaultFetchTimeout bounds a single follow-up document fetch
	DefaultFetchTimeout = 60 * time.Second
)

// ParsePolicy maps a configuration value to a Policy. Empty selects PolicyDegrade.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PolicyDegrade:
		return PolicyDegrade, nil
	case PolicyStrict:
		return PolicyStrict, nil
	default:
		return "", fmt.Errorf("unknown secondary fetch policy %q", s)
	}
}

// Negotiator normalizes analyze replies. The zero value is usable once BaseURL is set.
type Negotiator struct {
	HTTPClient            *http.Client
	BaseURL               string // Relative document references are resolved against this
	WellKnownDocumentPath string // Defaults to DefaultDocumentPath
	SecondaryPolicy       Policy // Defaults to PolicyDegrade
	MaxBodyBytes          int64  // Defaults to DefaultMaxBodyBytes
	Logger                *zap.Logger
}

// Normalize reads resp and produces an AnalysisResult. The response body is always closed.
//
// Non-2xx statuses yield a *NetworkError and never a partial result. Replies that match no shape
// yield a *ResponseShapeError.
func (n *Negotiator) Normalize(ctx context.Context, resp *http.Response) (*types.AnalysisResult, error) {
	if resp == nil {
		return nil, &ResponseShapeError{Message: "no response"}
	}
	defer func() { _ = resp.Body.Close() }()

	log := logger.OrNop(n.Logger)
	source := requestURL(resp)

	body, err := n.readBody(resp.Body)
	if err != nil {
		return nil, &NetworkError{URL: source, Status: resp.StatusCode, Message: "failed to read response body", Cause: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &NetworkError{
			URL:     source,
			Status:  resp.StatusCode,
			Message: "analyze request failed",
			Detail:  errorDetail(resp.Header.Get("Content-Type"), body),
		}
	}

	r, err := classify(resp.Header.Get("Content-Type"), body, dispositionFilename(resp.Header))
	if err != nil {
		var ne *NetworkError
		if errors.As(err, &ne) {
			ne.URL = source
			ne.Status = resp.StatusCode
		}
		return nil, err
	}
	log.Debug("classified analyze reply", zap.String(logger.FieldShape, r.shape()), zap.Int("bytes", len(body)))

	result := &types.AnalysisResult{Shape: r.shape()}

	switch v := r.(type) {
	case reportReply:
		result.Report = v.report
		if v.documentRef != "" {
			doc, err := n.fetchDocument(ctx, v.documentRef)
			if err != nil {
				if n.policy() == PolicyStrict {
					return nil, &SecondaryFetchError{URL: n.resolve(v.documentRef), Cause: err}
				}
				log.Warn("document fetch failed, returning report only",
					zap.String("ref", v.documentRef), zap.Error(err))
			} else {
				result.Document = doc
			}
		}

	case documentReply:
		result.Document = v.document

	case ackReply:
		ref := v.documentRef
		if ref == "" {
			ref = n.documentPath()
		}
		doc, err := n.fetchDocument(ctx, ref)
		if err != nil {
			return nil, &SecondaryFetchError{URL: n.resolve(ref), Escalated: true, Cause: err}
		}
		result.Document = doc
	}

	if !result.Valid() {
		return nil, &ResponseShapeError{Message: InvalidResponseMessage}
	}

	log.Info("analysis reply normalized",
		zap.String(logger.FieldShape, result.Shape),
		zap.Bool("report", result.Report != nil),
		zap.Bool("document", result.Document != nil))

	return result, nil
}

// fetchDocument GETs a document reference and returns it as a Document.
func (n *Negotiator) fetchDocument(ctx context.Context, ref string) (*types.Document, error) {
	target := n.resolve(ref)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, &NetworkError{URL: target, Message: "invalid document URL", Cause: err}
	}

	resp, err := n.client().Do(req)
	if err != nil {
		return nil, &NetworkError{URL: target, Message: "document request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := n.readBody(resp.Body)
	if err != nil {
		return nil, &NetworkError{URL: target, Status: resp.StatusCode, Message: "failed to read document body", Cause: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &NetworkError{
			URL:     target,
			Status:  resp.StatusCode,
			Message: "document request failed",
			Detail:  errorDetail(resp.Header.Get("Content-Type"), body),
		}
	}

	if len(body) == 0 {
		return nil, &NetworkError{URL: target, Status: resp.StatusCode, Message: "empty document body"}
	}

	filename := dispositionFilename(resp.Header)
	if filename == "" {
		filename = urlFilename(target)
	}

	return newDocument(body, resp.Header.Get("Content-Type"), filename, target), nil
}

// resolve joins a relative reference onto BaseURL. Absolute URLs are returned unchanged.
func (n *Negotiator) resolve(ref string) string {
	ref = strings.ReplaceAll(strings.TrimSpace(ref), `\`, "/")
	if u, err := url.Parse(ref); err == nil && u.IsAbs() {
		return ref
	}
	return strings.TrimRight(n.BaseURL, "/") + "/" + strings.TrimLeft(ref, "/")
}

func (n *Negotiator) readBody(r io.Reader) ([]byte, error) {
	limit := n.MaxBodyBytes
	if limit <= 0 {
		limit = DefaultMaxBodyBytes
	}
	body, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(body)) > limit {
		return nil, fmt.Errorf("body exceeds %d bytes", limit)
	}
	return body, nil
}

func (n *Negotiator) client() *http.Client {
	if n.HTTPClient != nil {
		return n.HTTPClient
	}
	return &http.Client{Timeout: DefaultFetchTimeout}
}

func (n *Negotiator) policy() Policy {
	if n.SecondaryPolicy == "" {
		return PolicyDegrade
	}
	return n.SecondaryPolicy
}

func (n *Negotiator) documentPath() string {
	if n.WellKnownDocumentPath == "" {
		return DefaultDocumentPath
	}
	return n.WellKnownDocumentPath
}

// errorDetail extracts a human-readable message from an error body. JSON bodies shaped like
// {"message": ...}, {"detail": ...} or {"error": ...} yield that field.
func errorDetail(contentType string, body []byte) string {
	if isJSON(mediaTypeOf(contentType), body) {
		var payload struct {
			Message string `json:"message"`
			Detail  any    `json:"detail"`
			Error   string `json:"error"`
		}
		if err := json.Unmarshal(body, &payload); err == nil {
			switch {
			case payload.Message != "":
				return payload.Message
			case payload.Error != "":
				return payload.Error
			case payload.Detail != nil:
				if s, ok := payload.Detail.(string); ok {
					return s
				}
			}
		}
	}
	if isDocument(mediaTypeOf(contentType), body) {
		return ""
	}
	return logger.TruncateForLog(singleLine(string(body)), 300)
}

func dispositionFilename(h http.Header) string {
	disposition := h.Get("Content-Disposition")
	if disposition == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(disposition)
	if err != nil {
		return ""
	}
	name := strings.TrimSpace(params["filename"])
	if name == "" {
		return ""
	}
	return path.Base(strings.ReplaceAll(name, `\`, "/"))
}

func urlFilename(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	base := path.Base(u.Path)
	if base == "." || base == "/" {
		return ""
	}
	return base
}

func requestURL(resp *http.Response) string {
	if resp.Request != nil && resp.Request.URL != nil {
		return resp.Request.URL.String()
	}
	return ""
}
