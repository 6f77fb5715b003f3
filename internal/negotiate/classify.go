package negotiate

import (
	"bytes"
	"encoding/json"
	"errors"
	"mime"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/mitchellh/mapstructure"

	"github.com/jonathan/jobai-assistant/internal/schemas"
	"github.com/jonathan/jobai-assistant/internal/types"
)

// Reply shapes. Exactly one is selected per response.
const (
	// ShapeReport is a JSON body with an inline report and an optional document reference
	ShapeReport = "report"
	// ShapeDocument is a binary document body with no report
	ShapeDocument = "document"
	// ShapeAck is a JSON status acknowledgment; the document is fetched separately
	ShapeAck = "ack"
)

// reply is the classified form of a response body.
type reply interface {
	shape() string
}

type reportReply struct {
	report      *types.StructuredReport
	documentRef string
}

type documentReply struct {
	document *types.Document
}

type ackReply struct {
	documentRef string
}

func (reportReply) shape() string   { return ShapeReport }
func (documentReply) shape() string { return ShapeDocument }
func (ackReply) shape() string      { return ShapeAck }

// downloadKeys are tried in order inside a "downloads" object.
var downloadKeys = []string{"pdf", "docx", "doc"}

// urlKeys are top-level fields carrying an absolute document URL.
var urlKeys = []string{"pdf_url", "document_url", "docx_url", "file_url"}

// documentTypes are media types accepted as a binary document body.
var documentTypes = []string{
	"application/pdf",
	"application/msword",
	"application/octet-stream",
	"application/rtf",
	"application/zip",
}

// documentTypePrefixes cover the office document families.
var documentTypePrefixes = []string{
	"application/vnd.openxmlformats-officedocument.",
	"application/vnd.oasis.opendocument.",
}

// classify selects the reply shape from the content type and body.
func classify(contentType string, body []byte, filename string) (reply, error) {
	mediaType := mediaTypeOf(contentType)

	if isJSON(mediaType, body) {
		return classifyJSON(body)
	}

	if isDocument(mediaType, body) {
		if len(body) == 0 {
			return nil, &ResponseShapeError{Message: "empty document body"}
		}
		return documentReply{document: newDocument(body, contentType, filename, "")}, nil
	}

	return nil, &ResponseShapeError{Message: InvalidResponseMessage}
}

func classifyJSON(body []byte) (reply, error) {
	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, &ResponseShapeError{Message: InvalidResponseMessage, Cause: err}
	}

	if status, _ := raw["status"].(string); strings.EqualFold(status, "error") {
		message, _ := raw["message"].(string)
		return nil, &NetworkError{Message: "server reported an error", Detail: message}
	}

	ref := documentRef(raw)

	if hasReportFields(raw) {
		if err := schemas.ValidateReport(body); err != nil {
			return nil, malformedReport(err)
		}
		report, err := decodeReport(raw)
		if err != nil {
			return nil, &ResponseShapeError{Message: "malformed report", Cause: err}
		}
		// Report keys with no content count as absent.
		if !report.IsEmpty() {
			return reportReply{report: report, documentRef: ref}, nil
		}
	}

	if _, ok := raw["status"]; ok {
		return ackReply{documentRef: ref}, nil
	}

	return nil, &ResponseShapeError{Message: InvalidResponseMessage}
}

func malformedReport(err error) error {
	var ve *schemas.ValidationError
	if errors.As(err, &ve) {
		return &ResponseShapeError{Message: "malformed report: " + ve.Summary()}
	}
	return &ResponseShapeError{Message: "malformed report", Cause: err}
}

func hasReportFields(raw map[string]any) bool {
	for _, key := range types.ReportFields {
		value, ok := raw[key]
		if !ok || value == nil {
			continue
		}
		if s, isString := value.(string); isString && strings.TrimSpace(s) == "" {
			continue
		}
		return true
	}
	return false
}

func decodeReport(raw map[string]any) (*types.StructuredReport, error) {
	var report types.StructuredReport
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:  &report,
		TagName: "mapstructure",
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, err
	}
	return &report, nil
}

// documentRef returns the document reference carried by a JSON body, if any.
func documentRef(raw map[string]any) string {
	if downloads, ok := raw["downloads"].(map[string]any); ok {
		for _, key := range downloadKeys {
			if ref, _ := downloads[key].(string); strings.TrimSpace(ref) != "" {
				return strings.TrimSpace(ref)
			}
		}
	}
	for _, key := range urlKeys {
		if ref, _ := raw[key].(string); strings.TrimSpace(ref) != "" {
			return strings.TrimSpace(ref)
		}
	}
	return ""
}

func mediaTypeOf(contentType string) string {
	if contentType == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return mediaType
}

func isJSON(mediaType string, body []byte) bool {
	if mediaType == "application/json" || strings.HasSuffix(mediaType, "+json") {
		return true
	}
	// Some deployments omit the header or send text/plain for JSON.
	if mediaType == "" || mediaType == "text/plain" {
		trimmed := bytes.TrimSpace(body)
		return len(trimmed) > 0 && trimmed[0] == '{'
	}
	return false
}

func isDocument(mediaType string, body []byte) bool {
	if isDocumentType(mediaType) {
		return true
	}
	if strings.HasPrefix(mediaType, "text/") || strings.HasSuffix(mediaType, "json") {
		return false
	}
	return len(body) > 0 && isDocumentType(mediaTypeOf(mimetype.Detect(body).String()))
}

func isDocumentType(mediaType string) bool {
	for _, t := range documentTypes {
		if mediaType == t {
			return true
		}
	}
	for _, prefix := range documentTypePrefixes {
		if strings.HasPrefix(mediaType, prefix) {
			return true
		}
	}
	return false
}

// newDocument fills in the content type and filename when the response left them out.
func newDocument(data []byte, contentType, filename, sourceURL string) *types.Document {
	detected := mimetype.Detect(data)

	mediaType := mediaTypeOf(contentType)
	if mediaType == "" || mediaType == "application/octet-stream" {
		mediaType = mediaTypeOf(detected.String())
	}

	if filename == "" {
		filename = "report" + detected.Extension()
	}

	return &types.Document{
		Data:        data,
		ContentType: mediaType,
		Filename:    filename,
		SourceURL:   sourceURL,
	}
}
