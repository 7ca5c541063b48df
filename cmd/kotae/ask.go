package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/hyperjump/kotae/internal/cli"
	"github.com/hyperjump/kotae/internal/models"
	"github.com/spf13/cobra"
)

type askOptions struct {
	topK      int
	serverURL string
	output    string
}

func newAskCmd(opts *rootOptions) *cobra.Command {
	askOpts := &askOptions{}
	cmd := &cobra.Command{
		Use:   "ask <corpus-key> <question...>",
		Short: "Answer a question from a stored corpus",
		Long: `Ranks the paragraphs of a corpus against the question and prints the
closest ones. The question is all remaining arguments joined by spaces, so
multi-word questions work with or without quotes.`,
		Example: `  kotae ask 3f2a9c1e-... what is the refund policy
  kotae ask --top-k 5 --output json 3f2a9c1e-... "who signed the contract?"
  kotae ask --server http://localhost:5000 3f2a9c1e-... when does it expire`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := cli.ParseOutputFormat(askOpts.output)
			if err != nil {
				return err
			}
			query := &models.AskQuery{
				Key:      args[0],
				Question: buildQuestion(args[1:]),
				TopK:     askOpts.topK,
			}
			if query.Question == "" {
				return errors.New("question cannot be empty")
			}

			var response *models.AskResponse
			if askOpts.serverURL != "" {
				response, err = askViaHTTP(cmd.Context(), askOpts.serverURL, query)
			} else {
				response, err = askDirect(cmd.Context(), opts, query)
			}
			if err != nil {
				return fmt.Errorf("ask failed: %w", err)
			}
			return cli.WriteAskResponse(cmd.OutOrStdout(), response, format)
		},
	}
	cmd.Flags().IntVarP(&askOpts.topK, "top-k", "k", 0, "number of paragraphs to return (0 = config default)")
	cmd.Flags().StringVar(&askOpts.serverURL, "server", "", "server URL; empty reads the store directly")
	cmd.Flags().StringVarP(&askOpts.output, "output", "o", "text", "output format: text, compact, or json")
	return cmd
}

// buildQuestion joins the positional args so a question works the same with or without shell quoting.
func buildQuestion(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

func askDirect(ctx context.Context, opts *rootOptions, query *models.AskQuery) (*models.AskResponse, error) {
	cfg, _, logger, err := setup(opts)
	if err != nil {
		return nil, err
	}
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		return nil, err
	}
	defer components.Close()
	return components.Engine.Ask(ctx, query)
}

func askViaHTTP(ctx context.Context, serverURL string, query *models.AskQuery) (*models.AskResponse, error) {
	body, err := json.Marshal(map[string]interface{}{"question": query.Question, "top_k": query.TopK})
	if err != nil {
		return nil, err
	}
	endpoint := strings.TrimRight(serverURL, "/") + "/api/v1/corpora/" + url.PathEscape(query.Key) + "/ask"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	var response models.AskResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &response, nil
}
