package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/teemow/gdrive-mcp/internal/docs"
)

const (
	outputJSON = "json"
	outputYAML = "yaml"
	outputText = "text"
)

type convertOptions struct {
	format   string
	requests bool
}

// convertOutput is what the convert command prints in the json and yaml
// formats
type convertOutput struct {
	Title        string             `json:"title,omitempty" yaml:"title,omitempty"`
	FolderID     string             `json:"folderId,omitempty" yaml:"folderId,omitempty"`
	Text         string             `json:"text" yaml:"text"`
	Length       int64              `json:"length" yaml:"length"`
	Instructions []docs.Instruction `json:"instructions" yaml:"instructions"`
	Requests     []any              `json:"requests,omitempty" yaml:"requests,omitempty"`
}

func newConvertCmd() *cobra.Command {
	var opts convertOptions

	cmd := &cobra.Command{
		Use:   "convert [file|-]",
		Short: "Convert markdown offline and print the result",
		Long: `Convert a markdown file into the plain text of a Google Doc and the styling
instructions that format it, without talking to Google.

Reads standard input when no file or "-" is given. A front matter block is
stripped from the body and its title and folder_id are reported.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := cmd.InOrStdin()
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("failed to open markdown file: %w", err)
				}
				defer func() { _ = f.Close() }()
				in = f
			}
			return runConvert(in, cmd.OutOrStdout(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.format, "format", "f", outputJSON, "Output format: json, yaml or text")
	cmd.Flags().BoolVar(&opts.requests, "requests", false, "Include the Docs API batchUpdate requests")

	return cmd
}

func runConvert(in io.Reader, out io.Writer, opts convertOptions) error {
	source, err := io.ReadAll(in)
	if err != nil {
		return fmt.Errorf("failed to read markdown: %w", err)
	}

	meta, body, err := docs.SplitFrontMatter(string(source))
	if err != nil {
		return err
	}
	conv := docs.ConvertMarkdown(body)

	if opts.format == outputText {
		_, err := io.WriteString(out, conv.Text)
		return err
	}

	result := convertOutput{
		Title:        meta.Title,
		FolderID:     meta.FolderID,
		Text:         conv.Text,
		Length:       conv.Length(),
		Instructions: conv.Instructions,
	}
	if result.Instructions == nil {
		result.Instructions = []docs.Instruction{}
	}
	if opts.requests {
		if result.Requests, err = genericRequests(conv); err != nil {
			return err
		}
	}

	switch opts.format {
	case outputJSON:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	case outputYAML:
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(result); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported format %q (supported: json, yaml, text)", opts.format)
	}
}

// genericRequests turns the Docs API requests into plain maps. The API types
// only carry json tags, so this keeps their field names in yaml output too.
func genericRequests(conv docs.Conversion) ([]any, error) {
	payload, err := json.Marshal(conv.Requests())
	if err != nil {
		return nil, fmt.Errorf("failed to encode requests: %w", err)
	}
	var requests []any
	if err := json.Unmarshal(payload, &requests); err != nil {
		return nil, fmt.Errorf("failed to decode requests: %w", err)
	}
	return requests, nil
}
