package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tsawler/docparse"
	"github.com/tsawler/docparse/model"
)

var parseCmd = &cobra.Command{
	Use:   "parse [elements.json]",
	Short: "Parse a JSON array of document elements",
	Long: `Parse reads a JSON array of document elements from a file (or stdin
when the argument is omitted or "-") and prints one response per element.

Each element carries an id, a type tag, text and optional metadata:

  [
    {"id": "t1", "type": "table", "text": "Name | Age\nAda | 36"},
    {"id": "f1", "type": "formula", "text": "E = mc^2"}
  ]

Examples:
  docparse parse elements.json
  docparse parse --format text elements.json
  cat elements.json | docparse parse --no-cache --concurrency 4`,
	Args: cobra.MaximumNArgs(1),
	RunE: runParse,
}

func init() {
	parseCmd.Flags().Duration("timeout", 30*time.Second, "per-element parse timeout")
	parseCmd.Flags().Int("concurrency", 10, "elements parsed concurrently")
	parseCmd.Flags().Bool("no-cache", false, "disable the result cache")
	viper.BindPFlag("timeout", parseCmd.Flags().Lookup("timeout"))
	viper.BindPFlag("concurrency", parseCmd.Flags().Lookup("concurrency"))
	viper.BindPFlag("no-cache", parseCmd.Flags().Lookup("no-cache"))

	rootCmd.AddCommand(parseCmd)
}

// elementInput is the wire form of one element.
type elementInput struct {
	ID       string         `json:"id"`
	Type     string         `json:"type"`
	Text     string         `json:"text"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

func runParse(cmd *cobra.Command, args []string) error {
	var in io.Reader = os.Stdin
	if len(args) == 1 && args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}

	var inputs []elementInput
	if err := json.NewDecoder(in).Decode(&inputs); err != nil {
		return fmt.Errorf("decode elements: %w", err)
	}
	els := make([]*model.Element, len(inputs))
	for i, input := range inputs {
		els[i] = &model.Element{
			ID:       input.ID,
			Type:     model.ParseElementType(input.Type),
			RawType:  input.Type,
			Text:     input.Text,
			Metadata: input.Metadata,
		}
	}

	config, err := loadConfig()
	if err != nil {
		return err
	}
	client, err := docparse.New(
		docparse.WithConfig(config),
		docparse.WithLogger(newLogger()),
	)
	if err != nil {
		return err
	}
	defer client.Close(cmd.Context())

	responses := client.ParseBatch(cmd.Context(), els)

	switch outputFormat {
	case "text":
		printText(els, responses)
	default:
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(responses); err != nil {
			return err
		}
	}

	if verbose {
		stats := client.Statistics()
		fmt.Fprintf(os.Stderr, "parsed %d elements, success rate %.2f, cache hit rate %.2f\n",
			stats.Monitor.TotalCount, stats.Monitor.SuccessRate, stats.Monitor.CacheHitRate)
	}
	return nil
}

func printText(els []*model.Element, responses []*model.ParseResponse) {
	for i, resp := range responses {
		id := ""
		if i < len(els) && els[i] != nil {
			id = els[i].ID
		}
		if resp.Error != "" {
			fmt.Printf("%-10s error: %s\n", id, resp.Error)
			continue
		}
		fmt.Printf("%-10s parser=%-8s ok=%-5v confidence=%.2f duration=%s\n",
			id, resp.ParserUsed, resp.Success,
			resp.Result.Metadata.Confidence, resp.Duration.Round(time.Millisecond))
	}
}
