package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/jobai-assistant/internal/bridge"
	"github.com/jonathan/jobai-assistant/internal/fetch"
	"github.com/jonathan/jobai-assistant/internal/ingestion"
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract the job description from a posting page",
	Long:  "Load a job posting from a URL or a saved HTML file and print the job description found on it.",
	Args:  cobra.NoArgs,
	RunE:  runExtract,
}

var (
	pageURL    string
	htmlFile   string
	useBrowser bool
	extractOut string
)

func init() {
	extractCmd.Flags().StringVarP(&pageURL, "url", "u", "", "URL of the job posting")
	extractCmd.Flags().StringVar(&htmlFile, "html", "", "Path to a saved job posting HTML file")
	extractCmd.Flags().BoolVar(&useBrowser, "browser", false, "Render the page in a headless browser when plain HTML has too little text")
	extractCmd.Flags().StringVarP(&extractOut, "out", "o", "", "Also write the job description and its metadata into this directory")
	extractCmd.MarkFlagsMutuallyExclusive("url", "html")

	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, _ []string) error {
	page, err := openPage(pageURL, htmlFile, useBrowser || cfg.UseBrowser)
	if err != nil {
		return err
	}
	if page == nil {
		return fmt.Errorf("either --url or --html must be provided")
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	client := attachPage(ctx, page)

	jd, err := client.RequestJobDescription(ctx)
	if err == nil && extractOut != "" {
		if werr := ingestion.WriteOutput(extractOut, jd, ingestion.NewMetadata(jd, page.URL())); werr != nil {
			return werr
		}
	}

	if jsonOutput {
		resp := bridge.Response{OK: err == nil, JD: jd}
		if err != nil {
			resp.Error = err.Error()
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return errors.Join(enc.Encode(resp), err)
	}

	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), jd)
	return nil
}

// openPage returns the page named by the flags, or nil when neither is set.
func openPage(rawURL, path string, browser bool) (bridge.Page, error) {
	switch {
	case path != "":
		page, err := bridge.LoadFile(path)
		if err != nil {
			return nil, err
		}
		return page, nil
	case rawURL != "":
		page := bridge.NewRemotePage(rawURL)
		page.Options.Logger = log
		page.UseBrowser = browser
		page.BrowserTimeout = fetch.DefaultBrowserTimeout
		page.Logger = log
		return page, nil
	default:
		return nil, nil
	}
}

// attachPage loads a page script for page into a fresh hub and returns a client for its tab.
func attachPage(ctx context.Context, page bridge.Page) *bridge.Client {
	const tabID = "cli"

	hub := bridge.NewHub(log)
	hub.Attach(ctx, tabID, bridge.NewPageScript(page, nil, log))

	timeout := cfg.BridgeTimeoutDuration()
	if _, remote := page.(*bridge.RemotePage); remote {
		// Remote pages load inside the round-trip.
		timeout += fetch.DefaultTimeout
		if useBrowser || cfg.UseBrowser {
			timeout += fetch.DefaultBrowserTimeout
		}
	}

	return &bridge.Client{Hub: hub, TabID: tabID, Timeout: timeout, Logger: log}
}
