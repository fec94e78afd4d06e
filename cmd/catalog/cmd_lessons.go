package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/alem-hub/lesson-catalog/internal/application/query"
	"github.com/alem-hub/lesson-catalog/internal/domain/lesson"
	"github.com/alem-hub/lesson-catalog/internal/domain/shared"
	"github.com/alem-hub/lesson-catalog/pkg/logger"
)

var (
	listFormat   string
	getFormat    string
	exportFormat string
	listOffset   int
	listLimit    int
	exportPath   string
)

// listCmd prints the catalog in course order
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List lessons in course order",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

// getCmd prints one lesson
var getCmd = &cobra.Command{
	Use:   "get <file>",
	Short: "Show a lesson by file name (exact, case-sensitive)",
	Example: `  catalog get lesson7.md
  catalog get lesson7.md --format json`,
	Args: cobra.ExactArgs(1),
	RunE: runGet,
}

// countCmd prints the number of lessons
var countCmd = &cobra.Command{
	Use:   "count",
	Short: "Print the number of lessons",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), catalogSource().Count())
		return err
	},
}

// validateCmd checks file names and title numerals
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check that file numbers, title numerals and order agree",
	Long: `Checks every lesson:
  - the file is named lessonN.md
  - the title starts with "Урок N"
  - both numbers agree
  - numbers increase by one in catalog order

Exits non-zero when an issue is found.`,
	Args: cobra.NoArgs,
	RunE: runValidate,
}

// exportCmd writes the catalog to a file or stdout
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the catalog as JSON or YAML",
	Example: `  catalog export --format yaml --out lessons.yaml
  catalog export --format json > lessons.json`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

func init() {
	listCmd.Flags().StringVarP(&listFormat, "format", "f", "table", "Output format: table, json, yaml")
	listCmd.Flags().IntVar(&listOffset, "offset", 0, "Skip this many lessons")
	listCmd.Flags().IntVar(&listLimit, "limit", 0, "Show at most this many lessons (0 = all)")

	getCmd.Flags().StringVarP(&getFormat, "format", "f", "table", "Output format: table, json, yaml")

	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "json", "Export format: json, yaml")
	exportCmd.Flags().StringVarP(&exportPath, "out", "o", "", "Output file (default: stdout)")
}

// ══════════════════════════════════════════════════════════════════════════════
// COMMANDS
// ══════════════════════════════════════════════════════════════════════════════

func runList(cmd *cobra.Command, args []string) error {
	h := query.NewListLessonsHandler(catalogSource())
	res, err := h.Handle(cmd.Context(), query.ListLessonsQuery{Offset: listOffset, Limit: listLimit})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch listFormat {
	case "table", "":
		return writeLessonTable(out, res.Lessons)
	default:
		return encode(out, listFormat, res)
	}
}

func runGet(cmd *cobra.Command, args []string) error {
	h := query.NewGetLessonHandler(catalogSource())
	res, err := h.Handle(cmd.Context(), query.GetLessonQuery{File: args[0]})
	if err != nil {
		if shared.IsNotFound(err) {
			return fmt.Errorf("lesson %q not found", args[0])
		}
		return err
	}

	out := cmd.OutOrStdout()
	switch getFormat {
	case "table", "":
		return writeLessonTable(out, []query.LessonDTO{*res})
	default:
		return encode(out, getFormat, res)
	}
}

func runValidate(cmd *cobra.Command, args []string) error {
	report := catalogSource().Validate()
	if _, err := fmt.Fprintln(cmd.OutOrStdout(), report.String()); err != nil {
		return err
	}
	if !report.OK() {
		log.Warn("catalog validation found issues", logger.Int("issues", len(report.Issues)))
		return fmt.Errorf("%w: %d issue(s)", shared.ErrValidation, len(report.Issues))
	}
	return nil
}

// exportDocument is the on-disk shape of an exported catalog.
type exportDocument struct {
	Version string          `json:"version" yaml:"version"`
	Count   int             `json:"count" yaml:"count"`
	Lessons []lesson.Record `json:"lessons" yaml:"lessons"`
}

func runExport(cmd *cobra.Command, args []string) error {
	if exportFormat != "json" && exportFormat != "yaml" {
		return fmt.Errorf("unsupported export format %q (want json or yaml)", exportFormat)
	}

	m := catalogSource()
	doc := exportDocument{
		Version: m.Fingerprint(),
		Count:   m.Count(),
		Lessons: m.All(),
	}

	out := cmd.OutOrStdout()
	if exportPath != "" {
		f, err := os.Create(exportPath)
		if err != nil {
			return fmt.Errorf("create %s: %w", exportPath, err)
		}
		defer f.Close()
		out = f
	}

	if err := encode(out, exportFormat, doc); err != nil {
		return err
	}

	if exportPath != "" {
		log.Info("catalog exported",
			logger.String("path", exportPath),
			logger.String("format", exportFormat),
			logger.LessonCount(doc.Count),
			logger.Version(doc.Version),
		)
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// OUTPUT
// ══════════════════════════════════════════════════════════════════════════════

func encode(w io.Writer, format string, v any) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported format %q (want table, json or yaml)", format)
	}
}

func writeLessonTable(w io.Writer, lessons []query.LessonDTO) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tFILE\tTITLE")
	for _, l := range lessons {
		fmt.Fprintf(tw, "%d\t%s\t%s\n", l.Position, l.File, strings.TrimSpace(l.Title))
	}
	return tw.Flush()
}
