package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"imagefetch/internal/models"
	"imagefetch/internal/modules/classifier"
	"imagefetch/internal/modules/dedup"
	"imagefetch/internal/modules/downloader"
	"imagefetch/internal/modules/filereader"
	"imagefetch/internal/modules/namer"
	"imagefetch/internal/modules/persistence"
	"imagefetch/internal/modules/pipeline"
)

var (
	urlFile string
	destDir string
	maxSize int64
	timeout time.Duration
	delay   time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "imagefetch [url]...",
	Short: "Fetch images from URLs into a local directory",
	Long: `A tool for collecting images from the web. Each URL is fetched,
verified to be an image, checked against content already on disk, and
stored under a safe, collision-free filename. Byte-identical images are
kept only once.`,
	Args: cobra.ArbitraryArgs,
}

// Execute runs the root command with the given context and logger.
func Execute(ctx context.Context, logger *zap.Logger) {
	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		return run(ctx, args, logger)
	}
	if err := rootCmd.Execute(); err != nil {
		logger.Error("execution failed", zap.Error(err))
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().StringVarP(&urlFile, "file", "f", "", "text file to extract image URLs from")
	rootCmd.Flags().StringVarP(&destDir, "dir", "d", "fetched_images", "destination directory for fetched images")
	rootCmd.Flags().Int64Var(&maxSize, "max-size", classifier.DefaultMaxSize, "maximum image size in bytes")
	rootCmd.Flags().DurationVar(&timeout, "timeout", downloader.DefaultTimeout, "per-request timeout")
	rootCmd.Flags().DurationVar(&delay, "delay", pipeline.DefaultDelay, "pause between successive fetches")
	pflag.CommandLine.AddFlagSet(rootCmd.Flags())
}

func run(ctx context.Context, args []string, logger *zap.Logger) error {
	urls, err := filereader.Collect(args, urlFile, logger)
	if err != nil {
		return err
	}
	if len(urls) == 0 {
		return fmt.Errorf("no URLs provided: pass them as arguments or via --file")
	}

	store := persistence.New(destDir)
	if err := store.EnsureDir(); err != nil {
		return fmt.Errorf("cannot create destination directory %s: %w", destDir, err)
	}

	index := dedup.NewIndex()
	if err := index.Seed(ctx, destDir, logger); err != nil {
		return fmt.Errorf("cannot scan destination directory %s: %w", destDir, err)
	}

	p := pipeline.New(
		downloader.New(timeout, maxSize),
		namer.New(destDir),
		index,
		store,
		delay,
		logger,
	)

	logger.Info("starting batch",
		zap.Int("urls", len(urls)),
		zap.String("dir", destDir))

	summary := p.Run(ctx, urls, printOutcome)
	printSummary(summary)
	return nil
}

// printOutcome writes the per-URL status line.
func printOutcome(o models.Outcome) {
	switch o.Status {
	case models.StatusSuccess:
		fmt.Printf("✓ Successfully fetched: %s\n", filepath.Base(o.Path))
		fmt.Printf("✓ Image saved to %s\n", o.Path)
	case models.StatusSkipped:
		fmt.Printf("⚠ Duplicate skipped: %s\n", o.URL)
	default:
		fmt.Printf("✗ %s\n", o.Err.Error())
	}
}

func printSummary(s models.Summary) {
	fmt.Println()
	fmt.Printf("Successfully fetched: %d\n", s.Succeeded)
	fmt.Printf("Failed attempts:      %d\n", s.Failed)
	fmt.Printf("Duplicates skipped:   %d\n", s.Duplicates)
	fmt.Printf("Total images in %s: %d\n", destDir, s.TotalFiles)
}
