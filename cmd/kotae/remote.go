package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/hyperjump/kotae/internal/cli"
	"github.com/spf13/cobra"
)

const defaultServerURL = "http://localhost:5000"

func newListCmd(opts *rootOptions) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored corpora, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := cli.ParseOutputFormat(output)
			if err != nil {
				return err
			}
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

			infos, err := components.Store.List(cmd.Context())
			if err != nil {
				return fmt.Errorf("list failed: %w", err)
			}
			return cli.WriteCorpusList(cmd.OutOrStdout(), infos, format)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "text", "output format: text, compact, or json")
	return cmd
}

func newStatusCmd() *cobra.Command {
	var serverURL string
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the status of a running server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var status map[string]interface{}
			if err := getJSON(strings.TrimRight(serverURL, "/")+"/api/v1/status", &status); err != nil {
				return fmt.Errorf("status failed: %w", err)
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(status)
		},
	}
	cmd.Flags().StringVar(&serverURL, "server", defaultServerURL, "server URL")
	return cmd
}

func newWatchCmd() *cobra.Command {
	var serverURL string
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Manage the inbox directories of a running server",
	}
	cmd.PersistentFlags().StringVar(&serverURL, "server", defaultServerURL, "server URL")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "add <path>",
			Short: "Add a directory to watch and ingest its files",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				path, err := filepath.Abs(args[0])
				if err != nil {
					return err
				}
				body, _ := json.Marshal(map[string]interface{}{"path": path, "sync": true})
				resp, err := http.Post(watchEndpoint(serverURL), "application/json", bytes.NewReader(body))
				if err != nil {
					return fmt.Errorf("request failed: %w", err)
				}
				defer resp.Body.Close()
				if resp.StatusCode != http.StatusCreated {
					return responseError("add failed", resp)
				}
				cmd.Printf("Added: %s\n", path)
				return nil
			},
		},
		&cobra.Command{
			Use:   "remove <path>",
			Short: "Stop watching a directory",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				path, err := filepath.Abs(args[0])
				if err != nil {
					return err
				}
				req, err := http.NewRequest(http.MethodDelete, watchEndpoint(serverURL)+"?path="+url.QueryEscape(path), nil)
				if err != nil {
					return err
				}
				resp, err := http.DefaultClient.Do(req)
				if err != nil {
					return fmt.Errorf("request failed: %w", err)
				}
				defer resp.Body.Close()
				if resp.StatusCode != http.StatusOK {
					return responseError("remove failed", resp)
				}
				cmd.Printf("Removed: %s\n", path)
				return nil
			},
		},
		&cobra.Command{
			Use:   "list",
			Short: "List watched directories",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				var out struct {
					Directories []string `json:"directories"`
				}
				if err := getJSON(watchEndpoint(serverURL), &out); err != nil {
					return fmt.Errorf("list failed: %w", err)
				}
				for _, d := range out.Directories {
					cmd.Println(d)
				}
				return nil
			},
		},
	)
	return cmd
}

func watchEndpoint(serverURL string) string {
	return strings.TrimRight(serverURL, "/") + "/api/v1/watch/directories"
}

func getJSON(endpoint string, v interface{}) error {
	resp, err := http.Get(endpoint)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return responseError("request failed", resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func responseError(msg string, resp *http.Response) error {
	b, _ := io.ReadAll(resp.Body)
	return fmt.Errorf("%s (%d): %s", msg, resp.StatusCode, strings.TrimSpace(string(b)))
}
