package main

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/brightpath/onboard/internal/model"
)

var (
	extractFamily      string
	extractContentType string
	extractLabel       string
)

var extractCmd = &cobra.Command{
	Use:   "extract [file]",
	Short: "Extract structured facts from one transcript or document",
	Long:  "Reads session content from a file (or stdin when no file is given), runs it through the extraction pipeline for the given session family, and prints the result as JSON.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		req, err := buildRequest(args, extractFamily, extractContentType, extractLabel)
		if err != nil {
			return err
		}

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		result, err := env.Orchestrator.Extract(ctx, req)
		if err != nil {
			return err
		}

		zap.L().Info("extraction complete",
			zap.String("family", string(result.Family)),
			zap.Int("items", len(result.Items)),
			zap.Int("dropped", result.Dropped),
			zap.Bool("fallback", result.Fallback),
			zap.Int64("latency_ms", result.LatencyMs),
		)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

// buildRequest assembles an ExtractionRequest from command arguments,
// reading content from the named file or stdin.
func buildRequest(args []string, family, contentType, label string) (model.ExtractionRequest, error) {
	var req model.ExtractionRequest

	fam := model.Family(family)
	if family == "" {
		return req, eris.New("--family is required")
	}

	ct, err := parseContentType(contentType)
	if err != nil {
		return req, err
	}

	var content []byte
	if len(args) == 1 {
		content, err = os.ReadFile(args[0])
		if err != nil {
			return req, eris.Wrapf(err, "read %s", args[0])
		}
		if label == "" {
			label = labelForFile(args[0])
		}
	} else {
		content, err = io.ReadAll(os.Stdin)
		if err != nil {
			return req, eris.Wrap(err, "read stdin")
		}
	}
	if len(content) == 0 {
		return req, eris.New("content is empty")
	}
	if label == "" {
		label = string(ct)
	}

	req = model.ExtractionRequest{
		Content:      string(content),
		ContentLabel: label,
		ContentType:  ct,
		Family:       fam,
	}
	return req, nil
}

// parseContentType validates a --content-type flag value.
func parseContentType(raw string) (model.ContentType, error) {
	ct := model.ContentType(raw)
	if !ct.Valid() {
		return "", eris.Errorf("unknown content type: %s", raw)
	}
	return ct, nil
}

// labelForFile derives a content label from a filename, e.g.
// "kickoff-session.txt" becomes "kickoff-session".
func labelForFile(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func init() {
	extractCmd.Flags().StringVar(&extractFamily, "family", "", "session family (kickoff, process, technical, signoff, persona)")
	extractCmd.Flags().StringVar(&extractContentType, "content-type", "transcript", "content medium (audio, video, document, transcript)")
	extractCmd.Flags().StringVar(&extractLabel, "label", "", "content label for provenance (default derived from filename)")
	rootCmd.AddCommand(extractCmd)
}
