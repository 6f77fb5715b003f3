package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/jobai-assistant/internal/api"
	"github.com/jonathan/jobai-assistant/internal/blobstore"
	"github.com/jonathan/jobai-assistant/internal/ingestion"
	"github.com/jonathan/jobai-assistant/internal/negotiate"
	"github.com/jonathan/jobai-assistant/internal/orchestrator"
	"github.com/jonathan/jobai-assistant/internal/report"
	"github.com/jonathan/jobai-assistant/internal/types"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze a resume against a job description",
	Long: `Send a job description and a resume to the analyze backend and render the result.

The job description comes from a posting URL, a saved HTML page, or a plain text file.
Any document the backend returns is saved to the output directory.`,
	Args: cobra.NoArgs,
	RunE: runAnalyze,
}

var (
	jdFile     string
	resumePath string
	outDir     string
	writePDF   bool
)

func init() {
	analyzeCmd.Flags().StringVarP(&pageURL, "url", "u", "", "URL of the job posting")
	analyzeCmd.Flags().StringVar(&htmlFile, "html", "", "Path to a saved job posting HTML file")
	analyzeCmd.Flags().StringVarP(&jdFile, "jd-file", "j", "", "Path to a text file containing the job description")
	analyzeCmd.Flags().StringVarP(&resumePath, "resume", "r", "", "Path to the resume file (required)")
	analyzeCmd.Flags().StringVarP(&outDir, "out", "o", ".", "Output directory for returned documents")
	analyzeCmd.Flags().BoolVar(&writePDF, "pdf", false, "Also render the structured report to report.pdf")
	analyzeCmd.Flags().BoolVar(&useBrowser, "browser", false, "Render the page in a headless browser when plain HTML has too little text")

	analyzeCmd.MarkFlagsMutuallyExclusive("url", "html", "jd-file")
	_ = analyzeCmd.MarkFlagRequired("resume")

	rootCmd.AddCommand(analyzeCmd)
}

// analyzeOutput is the --json rendering of a completed analysis.
type analyzeOutput struct {
	Shape        string                  `json:"shape"`
	Report       *types.StructuredReport `json:"report,omitempty"`
	DocumentURL  string                  `json:"document_url,omitempty"`
	DocumentPath string                  `json:"document_path,omitempty"`
	ReportPDF    string                  `json:"report_pdf,omitempty"`
}

func runAnalyze(cmd *cobra.Command, _ []string) error {
	if pageURL == "" && htmlFile == "" && jdFile == "" {
		return fmt.Errorf("one of --url, --html or --jd-file must be provided")
	}

	page, err := openPage(pageURL, htmlFile, useBrowser || cfg.UseBrowser)
	if err != nil {
		return err
	}

	policy, err := negotiate.ParsePolicy(cfg.SecondaryPolicy)
	if err != nil {
		return err
	}

	httpClient := newHTTPClient(cfg.RequestTimeoutDuration())
	blobs := blobstore.New()

	deps := orchestrator.Deps{
		Submitter: &api.Client{
			BaseURL:     cfg.APIBase,
			AnalyzePath: cfg.AnalyzePath,
			HTTPClient:  httpClient,
			UserAgent:   cfg.UserAgent,
			Logger:      log,
		},
		Normalizer: &negotiate.Negotiator{
			HTTPClient:            httpClient,
			BaseURL:               cfg.APIBase,
			WellKnownDocumentPath: cfg.DocumentPath,
			SecondaryPolicy:       policy,
			Logger:                log,
		},
		Blobs:  blobs,
		Logger: log,
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	if page != nil {
		deps.Channel = attachPage(ctx, page)
	}

	o := orchestrator.New(deps)
	defer o.Close()

	// The page round-trip and the local file reads are independent.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		o.PrefetchJobDescription(gctx)
		return nil
	})
	g.Go(func() error {
		resume, err := readResume(resumePath)
		if err != nil {
			return err
		}
		o.SetResume(resume)
		return nil
	})
	if jdFile != "" {
		g.Go(func() error {
			jd, meta, err := ingestion.FromFile(jdFile)
			if err != nil {
				return err
			}
			log.Debug("job description loaded", zap.String("source", meta.Source), zap.Int("chars", meta.Chars))
			o.SetJobDescription(jd)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	result, err := o.Submit(ctx)
	if err != nil {
		return err
	}

	out := analyzeOutput{Shape: result.Shape, Report: result.Report, DocumentURL: o.Snapshot().DocumentURL}

	if result.Document != nil {
		path, err := report.SaveDocument(result.Document, outDir)
		if err != nil {
			return err
		}
		out.DocumentPath = path
	}

	if writePDF && result.Report != nil {
		out.ReportPDF = filepath.Join(outDir, "report.pdf")
		if result.Document != nil && filepath.Base(out.DocumentPath) == "report.pdf" {
			out.ReportPDF = filepath.Join(outDir, "report.summary.pdf")
		}
		if err := os.MkdirAll(outDir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory %s: %w", outDir, err)
		}
		if err := report.WritePDF(result.Report, out.ReportPDF); err != nil {
			return err
		}
	}

	log.Info("analysis finished",
		zap.String("shape", out.Shape),
		zap.String("document", out.DocumentPath),
		zap.String("blob", out.DocumentURL))

	if jsonOutput {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	printer := report.NewPrinter(cmd.OutOrStdout(), !color.NoColor)
	if result.Report != nil {
		printer.Print(result.Report)
	}
	printer.PrintDocument(result.Document, out.DocumentPath)
	if out.ReportPDF != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "%s Report PDF: %s\n", color.GreenString("✓"), out.ReportPDF)
	}
	return nil
}

func readResume(path string) (*types.ResumeFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read resume: %w", err)
	}
	f := &types.ResumeFile{Name: filepath.Base(path), Data: data}
	f.ContentType = api.ResumeContentType(f)
	return f, nil
}

func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = api.DefaultTimeout
	}
	return &http.Client{Timeout: timeout}
}
