// Command analyze-stub serves a fake analyze backend for local testing.
//
// SHAPE selects the reply: "report" (JSON report with a document reference), "document" (PDF body)
// or "ack" (status only; the document is served at /download/report.pdf). A "shape" query
// parameter overrides it per request.
package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/jonathan/jobai-assistant/internal/api"
	"github.com/jonathan/jobai-assistant/internal/logger"
	"github.com/jonathan/jobai-assistant/internal/negotiate"
	"github.com/jonathan/jobai-assistant/internal/report"
	"github.com/jonathan/jobai-assistant/internal/types"
)

func main() {
	shape := os.Getenv("SHAPE")
	if strings.TrimSpace(shape) == "" {
		shape = negotiate.ShapeReport
	}
	addr := os.Getenv("ADDR")
	if strings.TrimSpace(addr) == "" {
		addr = "127.0.0.1:8000"
	}

	log, err := logger.New(false, os.Getenv("DEBUG") != "")
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	log.Info("analyze-stub listening", zap.String("addr", addr), zap.String(logger.FieldShape, shape))
	if err := http.ListenAndServe(addr, newMux(shape, log)); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func sampleReport(jd string) *types.StructuredReport {
	return &types.StructuredReport{
		ATSFeedback: []string{"Add metrics to each bullet", "Mirror the posting's wording for core skills"},
		Keywords:    keywords(jd),
		StarBullets: []string{"Cut p99 latency 40% by moving ingestion to streaming consumers"},
		Outreach: types.Outreach{
			Email:    "Hello, I am applying for the role and would welcome a short call.",
			LinkedIn: "Hi! I just applied for the role and would love to connect.",
		},
		Interview: []string{"Walk me through a system you scaled.", "How do you handle backpressure?"},
	}
}

// keywords picks capitalized words from the job description.
func keywords(jd string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, word := range strings.Fields(jd) {
		word = strings.Trim(word, ".,;:()")
		if len(word) < 2 || strings.ToUpper(word[:1]) != word[:1] || seen[word] {
			continue
		}
		seen[word] = true
		out = append(out, word)
		if len(out) == 8 {
			break
		}
	}
	return out
}

func newMux(defaultShape string, log *zap.Logger) *http.ServeMux {
	var (
		mu     sync.Mutex
		lastJD string
	)

	mux := http.NewServeMux()
	mux.HandleFunc(api.DefaultAnalyzePath, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"status": "error", "message": "expected multipart form"})
			return
		}
		jd := strings.TrimSpace(r.FormValue(api.FieldJobDescription))
		if jd == "" {
			writeJSON(w, http.StatusBadRequest, map[string]any{"detail": "job_description is required"})
			return
		}
		if _, _, err := r.FormFile(api.FieldResume); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"detail": "resume is required"})
			return
		}
		mu.Lock()
		lastJD = jd
		mu.Unlock()

		shape := r.URL.Query().Get("shape")
		if shape == "" {
			shape = defaultShape
		}
		log.Info("analyze request", zap.String(logger.FieldShape, shape), zap.String("jd", logger.TruncateForLog(jd, 60)))

		switch shape {
		case negotiate.ShapeReport:
			body := map[string]any{"status": "success", "downloads": map[string]string{"pdf": "/download/report.pdf"}}
			raw, _ := json.Marshal(sampleReport(jd))
			_ = json.Unmarshal(raw, &body)
			writeJSON(w, http.StatusOK, body)
		case negotiate.ShapeDocument:
			writePDF(w, sampleReport(jd), log)
		case negotiate.ShapeAck:
			writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
		default:
			http.Error(w, "unknown shape "+shape, http.StatusBadRequest)
		}
	})
	mux.HandleFunc("/download/report.pdf", func(w http.ResponseWriter, _ *http.Request) {
		mu.Lock()
		jd := lastJD
		mu.Unlock()
		writePDF(w, sampleReport(jd), log)
	})
	return mux
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writePDF(w http.ResponseWriter, r *types.StructuredReport, log *zap.Logger) {
	var buf bytes.Buffer
	if err := report.RenderPDF(r, &buf); err != nil {
		log.Error("failed to render PDF", zap.Error(err))
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="report.pdf"`)
	_, _ = w.Write(buf.Bytes())
}
