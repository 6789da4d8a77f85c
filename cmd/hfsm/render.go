package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/atlekbai/hfsm/definition"
	"github.com/atlekbai/hfsm/graph"
	"github.com/atlekbai/hfsm/internal/render"
)

var renderCmd = &cobra.Command{
	Use:   "render [definition]",
	Short: "Render the state tree of a definition",
	Long: `Builds the machine described by the definition and prints it.

Formats:
  text     indented tree, the initial state highlighted
  yaml     link forest as YAML
  json     link forest as JSON
  dot      UML style Graphviz diagram
  mermaid  Mermaid state diagram`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, rest, err := loadEnv(cmd, args)
		if err != nil {
			return err
		}
		if len(rest) > 0 {
			return fmt.Errorf("unexpected argument %q", rest[0])
		}
		defer e.logger.Sync() //nolint:errcheck

		m, err := e.def.Build(e.logger)
		if err != nil {
			return err
		}
		format, _ := cmd.Flags().GetString("format")
		return renderMachine(cmd.OutOrStdout(), m, format)
	},
}

func init() {
	renderCmd.Flags().StringP("format", "f", "text", "Output format: text, yaml, json, dot or mermaid")
	rootCmd.AddCommand(renderCmd)
}

func renderMachine(w io.Writer, m *definition.Machine, format string) error {
	switch format {
	case "text":
		return render.Tree(w, m.Roots(), m.ExportLinkForest(), render.Options{
			Active: m.CurrentState(),
			Color:  render.DetectColor(w),
		})
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(m.ExportLinkForest())
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(m.ExportLinkForest())
	case "dot":
		_, err := fmt.Fprint(w, graph.UmlDotGraph(m.Info()))
		return err
	case "mermaid":
		_, err := fmt.Fprint(w, graph.MermaidGraph(m.Info(), graph.DefaultDirection))
		return err
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}
