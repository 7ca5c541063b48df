package main

import (
	"fmt"
	"io"
	"os"

	"github.com/hyperjump/kotae/internal/cli"
	"github.com/hyperjump/kotae/internal/models"
	"github.com/spf13/cobra"
)

func newIngestCmd(opts *rootOptions) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "ingest <file|directory|->",
		Short: "Build a corpus from a document",
		Long: `Builds and stores a corpus for a file, for every allowed file under a
directory (one corpus per file), or for text read from stdin when the
argument is "-". Prints the key of each new corpus.`,
		Example: `  kotae ingest report.pdf
  kotae ingest ./inbox
  echo "..." | kotae ingest -`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := cli.ParseOutputFormat(output)
			if err != nil {
				return err
			}
			return runIngest(cmd, opts, args[0], format)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "text", "output format: text, compact, or json")
	return cmd
}

func runIngest(cmd *cobra.Command, opts *rootOptions, target string, format cli.OutputFormat) error {
	cfg, _, logger, err := setup(opts)
	if err != nil {
		return err
	}
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		return err
	}
	defer components.Close()

	ctx := cmd.Context()
	var results []*models.IngestResult
	if target == "-" {
		text, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
		res, err := components.Indexer.IngestText(ctx, "stdin", string(text))
		if err != nil {
			return fmt.Errorf("ingest failed: %w", err)
		}
		results = append(results, res)
		return cli.WriteIngestResults(cmd.OutOrStdout(), results, format)
	}

	info, err := os.Stat(target)
	if err != nil {
		return fmt.Errorf("failed to stat path: %w", err)
	}
	if info.IsDir() {
		results, err = components.Indexer.IngestDirectory(ctx, target)
		if writeErr := cli.WriteIngestResults(cmd.OutOrStdout(), results, format); writeErr != nil {
			return writeErr
		}
		if err != nil {
			return fmt.Errorf("ingesting directory failed: %w", err)
		}
		return nil
	}
	res, err := components.Indexer.IngestFile(ctx, target)
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}
	results = append(results, res)
	return cli.WriteIngestResults(cmd.OutOrStdout(), results, format)
}
