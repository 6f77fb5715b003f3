package negotiate

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pdfBytes = []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n<< /Root 1 0 R >>\n%%EOF\n")

// analyzeServer serves the primary reply at /analyze and any extra routes given.
func analyzeServer(t *testing.T, primary http.HandlerFunc, routes map[string]http.HandlerFunc) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/analyze", primary)
	for route, handler := range routes {
		mux.HandleFunc(route, handler)
	}
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func postAnalyze(t *testing.T, server *httptest.Server) *http.Response {
	t.Helper()
	resp, err := server.Client().Post(server.URL+"/analyze", "text/plain", strings.NewReader("jd"))
	require.NoError(t, err)
	return resp
}

func jsonHandler(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}
}

func pdfHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/pdf")
	_, _ = w.Write(pdfBytes)
}

func newNegotiator(server *httptest.Server, policy Policy) *Negotiator {
	return &Negotiator{
		HTTPClient:      server.Client(),
		BaseURL:         server.URL,
		SecondaryPolicy: policy,
	}
}

func TestNormalize_InlineReportWithoutDocument(t *testing.T) {
	server := analyzeServer(t, jsonHandler(http.StatusOK, `{"ats_feedback":["Add metrics"],"keywords":["Go","Kafka"]}`), nil)

	result, err := newNegotiator(server, PolicyDegrade).Normalize(context.Background(), postAnalyze(t, server))
	require.NoError(t, err)

	assert.Equal(t, ShapeReport, result.Shape)
	require.NotNil(t, result.Report)
	assert.Equal(t, []string{"Add metrics"}, result.Report.ATSFeedback)
	assert.Equal(t, []string{"Go", "Kafka"}, result.Report.Keywords)
	assert.Empty(t, result.Report.StarBullets)
	assert.Empty(t, result.Report.Interview)
	assert.Nil(t, result.Document)
}

func TestNormalize_BinaryDocument(t *testing.T) {
	server := analyzeServer(t, pdfHandler, nil)

	result, err := newNegotiator(server, PolicyDegrade).Normalize(context.Background(), postAnalyze(t, server))
	require.NoError(t, err)

	assert.Equal(t, ShapeDocument, result.Shape)
	assert.Nil(t, result.Report)
	require.NotNil(t, result.Document)
	assert.Equal(t, pdfBytes, result.Document.Data)
	assert.Equal(t, "application/pdf", result.Document.ContentType)
	assert.Equal(t, "report.pdf", result.Document.Filename)
}

func TestNormalize_OctetStreamSniffed(t *testing.T) {
	server := analyzeServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Header().Set("Content-Disposition", `attachment; filename="tailored.pdf"`)
		_, _ = w.Write(pdfBytes)
	}, nil)

	result, err := newNegotiator(server, PolicyDegrade).Normalize(context.Background(), postAnalyze(t, server))
	require.NoError(t, err)

	require.NotNil(t, result.Document)
	assert.Equal(t, "application/pdf", result.Document.ContentType)
	assert.Equal(t, "tailored.pdf", result.Document.Filename)
}

func TestNormalize_Non2xxIsNetworkError(t *testing.T) {
	tests := []struct {
		name        string
		handler     http.HandlerFunc
		wantStatus  int
		wantMessage string
	}{
		{
			name: "plain text body",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, "resume could not be parsed", http.StatusUnprocessableEntity)
			},
			wantStatus:  http.StatusUnprocessableEntity,
			wantMessage: "resume could not be parsed",
		},
		{
			name:        "json detail",
			handler:     jsonHandler(http.StatusBadRequest, `{"detail":"job_description is required"}`),
			wantStatus:  http.StatusBadRequest,
			wantMessage: "job_description is required",
		},
		{
			name: "empty body",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
			},
			wantStatus:  http.StatusBadGateway,
			wantMessage: "Request failed: 502",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := analyzeServer(t, tt.handler, nil)

			result, err := newNegotiator(server, PolicyDegrade).Normalize(context.Background(), postAnalyze(t, server))
			require.Error(t, err)
			assert.Nil(t, result)

			var ne *NetworkError
			require.True(t, errors.As(err, &ne))
			assert.Equal(t, tt.wantStatus, ne.Status)
			assert.Equal(t, tt.wantMessage, UserMessage(err))
		})
	}
}

func TestNormalize_StatusErrorWith200(t *testing.T) {
	server := analyzeServer(t, jsonHandler(http.StatusOK, `{"status":"error","message":"Model unavailable"}`), nil)

	result, err := newNegotiator(server, PolicyDegrade).Normalize(context.Background(), postAnalyze(t, server))
	require.Error(t, err)
	assert.Nil(t, result)

	var ne *NetworkError
	require.True(t, errors.As(err, &ne))
	assert.Equal(t, "Model unavailable", UserMessage(err))
}

func TestNormalize_ReportWithDocumentReference(t *testing.T) {
	server := analyzeServer(t,
		jsonHandler(http.StatusOK, `{"keywords":["Go"],"downloads":{"pdf":"/files/report.pdf"}}`),
		map[string]http.HandlerFunc{"/files/report.pdf": pdfHandler},
	)

	result, err := newNegotiator(server, PolicyStrict).Normalize(context.Background(), postAnalyze(t, server))
	require.NoError(t, err)

	assert.Equal(t, ShapeReport, result.Shape)
	require.NotNil(t, result.Report)
	require.NotNil(t, result.Document)
	assert.Equal(t, pdfBytes, result.Document.Data)
	assert.Equal(t, server.URL+"/files/report.pdf", result.Document.SourceURL)
	assert.Equal(t, "report.pdf", result.Document.Filename)
}

func TestNormalize_BackendFullReply(t *testing.T) {
	docx := func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.wordprocessingml.document")
		_, _ = w.Write([]byte("PK\x03\x04docx-bytes"))
	}
	server := analyzeServer(t,
		jsonHandler(http.StatusOK, `{
			"status": "success",
			"result": "1. ATS feedback\n- Add metrics",
			"downloads": {"txt": "/download/report.txt", "md": "/download/report.md", "docx": "download\\report.docx"}
		}`),
		map[string]http.HandlerFunc{"/download/report.docx": docx},
	)

	result, err := newNegotiator(server, PolicyDegrade).Normalize(context.Background(), postAnalyze(t, server))
	require.NoError(t, err)

	assert.Equal(t, ShapeReport, result.Shape)
	require.NotNil(t, result.Report)
	assert.Contains(t, result.Report.Summary, "Add metrics")
	require.NotNil(t, result.Document)
	assert.Equal(t, "report.docx", result.Document.Filename)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.wordprocessingml.document", result.Document.ContentType)
}

func TestNormalize_SecondaryFetchFailurePolicy(t *testing.T) {
	body := `{"keywords":["Go"],"pdf_url":"%s/missing.pdf"}`

	t.Run("degrade keeps the report", func(t *testing.T) {
		var server *httptest.Server
		server = analyzeServer(t, func(w http.ResponseWriter, r *http.Request) {
			jsonHandler(http.StatusOK, strings.Replace(body, "%s", server.URL, 1))(w, r)
		}, nil)

		result, err := newNegotiator(server, PolicyDegrade).Normalize(context.Background(), postAnalyze(t, server))
		require.NoError(t, err)
		require.NotNil(t, result.Report)
		assert.Equal(t, []string{"Go"}, result.Report.Keywords)
		assert.Nil(t, result.Document)
	})

	t.Run("strict fails the analysis", func(t *testing.T) {
		var server *httptest.Server
		server = analyzeServer(t, func(w http.ResponseWriter, r *http.Request) {
			jsonHandler(http.StatusOK, strings.Replace(body, "%s", server.URL, 1))(w, r)
		}, nil)

		result, err := newNegotiator(server, PolicyStrict).Normalize(context.Background(), postAnalyze(t, server))
		require.Error(t, err)
		assert.Nil(t, result)

		var sfe *SecondaryFetchError
		require.True(t, errors.As(err, &sfe))
		assert.False(t, sfe.Escalated)

		var ne *NetworkError
		require.True(t, errors.As(err, &ne))
		assert.Equal(t, http.StatusNotFound, ne.Status)
	})
}

func TestNormalize_AckFetchesWellKnownPath(t *testing.T) {
	server := analyzeServer(t,
		jsonHandler(http.StatusOK, `{"status":"ok"}`),
		map[string]http.HandlerFunc{DefaultDocumentPath: pdfHandler},
	)

	result, err := newNegotiator(server, PolicyDegrade).Normalize(context.Background(), postAnalyze(t, server))
	require.NoError(t, err)

	assert.Equal(t, ShapeAck, result.Shape)
	assert.Nil(t, result.Report)
	require.NotNil(t, result.Document)
	assert.Equal(t, pdfBytes, result.Document.Data)
}

func TestNormalize_AckUsesCustomPath(t *testing.T) {
	server := analyzeServer(t,
		jsonHandler(http.StatusOK, `{"status":"done"}`),
		map[string]http.HandlerFunc{"/out/latest.pdf": pdfHandler},
	)

	n := newNegotiator(server, PolicyDegrade)
	n.WellKnownDocumentPath = "/out/latest.pdf"

	result, err := n.Normalize(context.Background(), postAnalyze(t, server))
	require.NoError(t, err)
	require.NotNil(t, result.Document)
}

func TestNormalize_AckFetchFailureIsAlwaysHard(t *testing.T) {
	for _, policy := range []Policy{PolicyDegrade, PolicyStrict} {
		t.Run(string(policy), func(t *testing.T) {
			server := analyzeServer(t, jsonHandler(http.StatusOK, `{"status":"ok"}`), nil)

			result, err := newNegotiator(server, policy).Normalize(context.Background(), postAnalyze(t, server))
			require.Error(t, err)
			assert.Nil(t, result)

			var sfe *SecondaryFetchError
			require.True(t, errors.As(err, &sfe))
			assert.True(t, sfe.Escalated)
			assert.Equal(t, server.URL+DefaultDocumentPath, sfe.URL)

			var ne *NetworkError
			assert.True(t, errors.As(err, &ne))
		})
	}
}

func TestNormalize_EmptyReportIsNotAReport(t *testing.T) {
	t.Run("without status", func(t *testing.T) {
		server := analyzeServer(t, jsonHandler(http.StatusOK, `{"keywords":[]}`), nil)

		result, err := newNegotiator(server, PolicyDegrade).Normalize(context.Background(), postAnalyze(t, server))
		require.Error(t, err)
		assert.Nil(t, result)

		var rse *ResponseShapeError
		assert.True(t, errors.As(err, &rse))
	})

	t.Run("with status fetches the document", func(t *testing.T) {
		server := analyzeServer(t,
			jsonHandler(http.StatusOK, `{"status":"ok","outreach":{}}`),
			map[string]http.HandlerFunc{DefaultDocumentPath: pdfHandler},
		)

		result, err := newNegotiator(server, PolicyDegrade).Normalize(context.Background(), postAnalyze(t, server))
		require.NoError(t, err)

		assert.Equal(t, ShapeAck, result.Shape)
		assert.Nil(t, result.Report)
		require.NotNil(t, result.Document)
		assert.Equal(t, pdfBytes, result.Document.Data)
	})
}

func TestNormalize_MalformedReportNamesField(t *testing.T) {
	server := analyzeServer(t, jsonHandler(http.StatusOK, `{"keywords":"Go"}`), nil)

	_, err := newNegotiator(server, PolicyDegrade).Normalize(context.Background(), postAnalyze(t, server))
	require.Error(t, err)

	var rse *ResponseShapeError
	require.True(t, errors.As(err, &rse))
	assert.Contains(t, rse.Message, "keywords")
	assert.NotContains(t, err.Error(), "\n")
	assert.Equal(t, InvalidResponseMessage, UserMessage(err))
}

func TestNormalize_UnrecognizedReply(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
	}{
		{name: "html page", contentType: "text/html", body: "<html><body>Gateway</body></html>"},
		{name: "json without known fields", contentType: "application/json", body: `{"foo":"bar"}`},
		{name: "malformed json", contentType: "application/json", body: `{"keywords":`},
		{name: "json array", contentType: "application/json", body: `["Go"]`},
		{name: "plain text", contentType: "text/plain", body: "done"},
		{name: "report field with wrong type", contentType: "application/json", body: `{"keywords":"Go"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := analyzeServer(t, func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", tt.contentType)
				_, _ = io.WriteString(w, tt.body)
			}, nil)

			result, err := newNegotiator(server, PolicyDegrade).Normalize(context.Background(), postAnalyze(t, server))
			require.Error(t, err)
			assert.Nil(t, result)

			var rse *ResponseShapeError
			require.True(t, errors.As(err, &rse))
			assert.Equal(t, InvalidResponseMessage, UserMessage(err))
		})
	}
}

func TestNormalize_JSONWithoutContentType(t *testing.T) {
	server := analyzeServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = io.WriteString(w, `  {"interview":["Tell me about Kafka"]}`)
	}, nil)

	result, err := newNegotiator(server, PolicyDegrade).Normalize(context.Background(), postAnalyze(t, server))
	require.NoError(t, err)
	require.NotNil(t, result.Report)
	assert.Equal(t, []string{"Tell me about Kafka"}, result.Report.Interview)
}

func TestNormalize_BodyTooLarge(t *testing.T) {
	server := analyzeServer(t, pdfHandler, nil)

	n := newNegotiator(server, PolicyDegrade)
	n.MaxBodyBytes = 8

	_, err := n.Normalize(context.Background(), postAnalyze(t, server))
	var ne *NetworkError
	require.True(t, errors.As(err, &ne))
}

func TestNormalize_NilResponse(t *testing.T) {
	_, err := (&Negotiator{}).Normalize(context.Background(), nil)
	var rse *ResponseShapeError
	assert.True(t, errors.As(err, &rse))
}

func TestResolve(t *testing.T) {
	n := &Negotiator{BaseURL: "http://127.0.0.1:8000/"}

	assert.Equal(t, "http://127.0.0.1:8000/download/report.docx", n.resolve("/download/report.docx"))
	assert.Equal(t, "http://127.0.0.1:8000/download/report.docx", n.resolve(`download\report.docx`))
	assert.Equal(t, "https://cdn.example.com/r.pdf", n.resolve("https://cdn.example.com/r.pdf"))
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, PolicyDegrade, p)

	p, err = ParsePolicy("STRICT")
	require.NoError(t, err)
	assert.Equal(t, PolicyStrict, p)

	_, err = ParsePolicy("retry")
	assert.Error(t, err)
}

func TestUserMessage(t *testing.T) {
	assert.Equal(t, "", UserMessage(nil))
	assert.Equal(t, "boom", UserMessage(errors.New("boom")))
	assert.Equal(t, "Request failed: connection refused",
		UserMessage(&NetworkError{Message: "connection refused"}))
	assert.Equal(t, "line one line two",
		UserMessage(&NetworkError{Status: 500, Detail: "line one\nline two"}))
	assert.Equal(t, "Report document unavailable: Request failed: 404",
		UserMessage(&SecondaryFetchError{Cause: &NetworkError{Status: 404}}))
}
