package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/brightpath/onboard/internal/model"
)

var (
	batchFamily      string
	batchContentType string
	batchOutDir      string
	batchLimit       int
)

var batchCmd = &cobra.Command{
	Use:   "batch <dir>",
	Short: "Extract from every transcript in a directory",
	Long:  "Walks a directory of session transcripts (.txt, .md), runs each through the extraction pipeline concurrently, and writes one result JSON per input.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		contentType, err := parseContentType(batchContentType)
		if err != nil {
			return err
		}

		files, err := collectInputs(args[0], batchLimit)
		if err != nil {
			return err
		}
		if len(files) == 0 {
			zap.L().Info("no input files found", zap.String("dir", args[0]))
			return nil
		}

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		outDir := batchOutDir
		if outDir == "" {
			outDir = args[0]
		}
		if err := os.MkdirAll(outDir, 0o755); err != nil {
			return eris.Wrap(err, "create output dir")
		}

		return processBatch(ctx, files, outDir, cfg.Pipeline.MaxConcurrent,
			model.Family(batchFamily), contentType,
			func(ctx context.Context, req model.ExtractionRequest) (*model.ExtractionResult, error) {
				return env.Orchestrator.Extract(ctx, req)
			})
	},
}

// collectInputs lists transcript files under dir, sorted, capped at limit.
func collectInputs(dir string, limit int) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, eris.Wrapf(err, "read dir %s", dir)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".txt", ".md":
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)

	if limit > 0 && len(files) > limit {
		files = files[:limit]
	}
	return files, nil
}

// extractFunc is the callback signature for running one extraction.
type extractFunc func(ctx context.Context, req model.ExtractionRequest) (*model.ExtractionResult, error)

// processBatch runs extraction over the files concurrently and writes a
// <name>.result.json next to each output. Individual failures do not
// abort the batch.
func processBatch(ctx context.Context, files []string, outDir string, concurrency int, family model.Family, contentType model.ContentType, extract extractFunc) error {
	if concurrency <= 0 {
		concurrency = 1
	}

	zap.L().Info("processing batch",
		zap.Int("files", len(files)),
		zap.Int("concurrency", concurrency),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	var succeeded, failed atomic.Int64

	for _, file := range files {
		g.Go(func() error {
			log := zap.L().With(zap.String("file", file))

			content, err := os.ReadFile(file)
			if err != nil {
				failed.Add(1)
				log.Error("read input failed", zap.Error(err))
				return nil
			}

			result, err := extract(gctx, model.ExtractionRequest{
				Content:      string(content),
				ContentLabel: labelForFile(file),
				ContentType:  contentType,
				Family:       family,
			})
			if err != nil {
				failed.Add(1)
				log.Error("extraction failed", zap.Error(err))
				return nil // don't abort batch on individual failure
			}

			outPath := filepath.Join(outDir, labelForFile(file)+".result.json")
			data, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				failed.Add(1)
				log.Error("marshal result failed", zap.Error(err))
				return nil
			}
			if err := os.WriteFile(outPath, data, 0o644); err != nil {
				failed.Add(1)
				log.Error("write result failed", zap.Error(err))
				return nil
			}

			succeeded.Add(1)
			log.Info("extraction complete",
				zap.Int("items", len(result.Items)),
				zap.Bool("fallback", result.Fallback),
			)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return eris.Wrap(err, "batch processing")
	}

	zap.L().Info("batch complete",
		zap.Int64("succeeded", succeeded.Load()),
		zap.Int64("failed", failed.Load()),
	)
	return nil
}

func init() {
	batchCmd.Flags().StringVar(&batchFamily, "family", "", "session family for all files (required)")
	batchCmd.Flags().StringVar(&batchContentType, "content-type", "transcript", "content medium for all files")
	batchCmd.Flags().StringVar(&batchOutDir, "out", "", "output directory (default alongside inputs)")
	batchCmd.Flags().IntVar(&batchLimit, "limit", 0, "max number of files to process (0 = all)")
	batchCmd.MarkFlagRequired("family") //nolint:errcheck
	rootCmd.AddCommand(batchCmd)
}
