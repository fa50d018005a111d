package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/sitekit/internal/config"
	"github.com/kailas-cloud/sitekit/internal/version"
	sitekit "github.com/kailas-cloud/sitekit/pkg/sdk"
)

// --- complete ---

var completeCmd = &cobra.Command{
	Use:   "complete <prompt>",
	Short: "Send a prompt to the chat completion API and print the reply",
	Long: `Send a prompt to the chat completion API and print the reply.

Failures are printed the same way the legacy endpoint returns them:
"Error: <message>", or "No response generated." when the API sent no choices.
Use --json for the tagged result.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")

		client, cleanup, err := newClient(cmd.Context())
		if err != nil {
			return err
		}
		defer cleanup()

		res := client.Complete(cmd.Context(), args[0])
		if asJSON {
			return writeCompletionJSON(cmd.OutOrStdout(), res)
		}
		fmt.Fprintln(cmd.OutOrStdout(), res.String())
		return nil
	},
}

func init() {
	completeCmd.Flags().Bool("json", false, "print the tagged result as JSON")
}

func writeCompletionJSON(w io.Writer, res sitekit.Completion) error {
	out := map[string]string{"status": "ok", "content": res.Content}
	if !res.OK {
		out = map[string]string{"status": "error", "kind": res.Kind, "message": res.Message}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// --- import ---

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import catalog items from a YAML or JSON file",
	Long: `Import catalog items from a YAML or JSON file.

The file holds a list of items, or an object with an "items" list:

  - id: bolt-1
    title: Hex bolt
    skUs: BLT-1,BLT-2
    itemDetailedDescription: Zinc plated hex bolt
    mfgPartNos: M-100

Items without an id get a random one.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		items, err := readItems(args[0])
		if err != nil {
			return err
		}

		client, cleanup, err := newClient(cmd.Context())
		if err != nil {
			return err
		}
		defer cleanup()

		results, err := client.Import(cmd.Context(), items)
		if err != nil {
			return err
		}

		failed := 0
		out := cmd.OutOrStdout()
		for _, r := range results {
			if r.OK {
				continue
			}
			failed++
			fmt.Fprintf(out, "%s\terror: %v\n", r.ID, r.Err)
		}
		fmt.Fprintf(out, "imported %d of %d items\n", len(results)-failed, len(results))
		if failed > 0 {
			return fmt.Errorf("%d items failed", failed)
		}
		return nil
	},
}

type unmarshalFunc func(data []byte, v any) error

// readItems decodes a list of items, or an {"items": [...]} object, by file extension.
func readItems(path string) ([]sitekit.Item, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var unmarshal unmarshalFunc
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		unmarshal = json.Unmarshal
	case ".yaml", ".yml":
		unmarshal = yaml.Unmarshal
	default:
		return nil, fmt.Errorf("unsupported file type %q (want .json, .yaml or .yml)", ext)
	}

	items, err := decodeItems(data, unmarshal)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%s: no items", path)
	}
	return items, nil
}

func decodeItems(data []byte, unmarshal unmarshalFunc) ([]sitekit.Item, error) {
	var items []sitekit.Item
	if err := unmarshal(data, &items); err == nil {
		return items, nil
	}

	var wrapped struct {
		Items []sitekit.Item `json:"items" yaml:"items"`
	}
	if err := unmarshal(data, &wrapped); err != nil {
		return nil, err
	}
	return wrapped.Items, nil
}

// --- search ---

var searchCmd = &cobra.Command{
	Use:   "search <text>",
	Short: "Filter the catalog the way the storefront search box does",
	Long: `Filter the catalog the way the storefront search box does.

Categories:
  Search Item by SKUs
  Search Item by Material Description
  Search by Manufacturer Part Nos.

Blank text lists the unfiltered catalog.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, _ := cmd.Flags().GetString("category")
		text := ""
		if len(args) == 1 {
			text = args[0]
		}

		client, cleanup, err := newClient(cmd.Context())
		if err != nil {
			return err
		}
		defer cleanup()

		res, err := client.Search(cmd.Context(), cat, text)
		if err != nil {
			return err
		}
		return printResults(cmd.OutOrStdout(), res)
	},
}

func init() {
	searchCmd.Flags().StringP("category", "c", "Search Item by SKUs", "search category")
}

func printResults(w io.Writer, res sitekit.Results) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tSKUS\tMFG PART NOS")
	for _, it := range res.Items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", it.ID, it.Title, it.SKUs, it.MfgPartNos)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%d of %d items\n", len(res.Items), res.Total)
	return err
}

// --- version ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "sitekit %s (commit %s, built %s)\n",
			version.Version, version.Commit, version.Date)
	},
}

// newClient builds an SDK client from the environment's configuration.
func newClient(ctx context.Context) (*sitekit.Client, func(), error) {
	_, cfg, logger, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	if cfg.Database.Driver == config.DriverMemory {
		logger.Warn("database.driver is memory; the catalog only lives for this command")
	}

	client, err := sitekit.New(ctx, sdkOptions(cfg, logger)...)
	if err != nil {
		_ = logger.Sync()
		return nil, nil, err
	}
	cleanup := func() {
		client.Close()
		_ = logger.Sync()
	}
	return client, cleanup, nil
}

// sdkOptions maps the service configuration onto SDK options.
func sdkOptions(cfg config.Config, logger *zap.Logger) []sitekit.Option {
	opts := []sitekit.Option{
		sitekit.WithKeyPrefix(cfg.Storage.KeyPrefix),
		sitekit.WithOpenAI(cfg.Completion.BaseURL, cfg.Completion.Model),
		sitekit.WithHTTPClient(&http.Client{Timeout: time.Duration(cfg.Completion.TimeoutSec) * time.Second}),
		sitekit.WithSecretName(cfg.Completion.SecretName),
		sitekit.WithSecretCache(time.Duration(cfg.Secrets.CacheTTLSec) * time.Second),
		sitekit.WithPageSize(cfg.Catalog.PageSize),
		sitekit.WithMaxBatchSize(cfg.Catalog.MaxBatchSize),
		sitekit.WithZapLogger(logger),
	}

	db := cfg.Database
	switch db.Driver {
	case config.DriverMemory:
		opts = append(opts, sitekit.WithMemory())
	case config.DriverValkey:
		opts = append(opts, sitekit.WithValkey("", db.Password))
	default:
		opts = append(opts, sitekit.WithRedis("", db.Password))
	}
	if db.Driver != config.DriverMemory {
		opts = append(opts,
			sitekit.WithAddrs(db.Addrs...),
			sitekit.WithUsername(db.Username),
			sitekit.WithDB(db.DB),
		)
		if db.Standalone {
			opts = append(opts, sitekit.WithStandalone())
		}
	}

	for name, value := range cfg.Secrets.Values {
		opts = append(opts, sitekit.WithSecret(name, value))
	}
	return opts
}
