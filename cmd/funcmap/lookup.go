package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/yousuf/funcmap/internal/funcmap"
)

var (
	lookupMapPath string
	lookupFormat  string
)

var lookupCmd = &cobra.Command{
	Use:   "lookup SOURCE LINE COLUMN",
	Short: "Name the function enclosing a position",
	Long: `Print the innermost function of SOURCE that encloses the zero-based LINE and
COLUMN, according to the function mappings of an enriched source map.`,
	Args: cobra.ExactArgs(3),
	RunE: runLookup,
}

var functionsCmd = &cobra.Command{
	Use:   "functions SOURCE",
	Short: "List the functions recorded for a source",
	Args:  cobra.ExactArgs(1),
	RunE:  runFunctions,
}

func init() {
	for _, cmd := range []*cobra.Command{lookupCmd, functionsCmd} {
		cmd.Flags().StringVarP(&lookupMapPath, "map", "m", "", "Enriched source map (- for stdin)")
		cmd.Flags().StringVar(&lookupFormat, "format", "human", "Output format: human, json")
		cmd.MarkFlagRequired("map")
	}
}

func loadDecoder(cmd *cobra.Command, path string) (*funcmap.Decoder, error) {
	data, err := readInput(cmd, path)
	if err != nil {
		return nil, err
	}
	m, err := funcmap.ParseEnriched(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return funcmap.NewDecoder(m)
}

func runLookup(cmd *cobra.Command, args []string) error {
	source := args[0]
	line, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid line %q: %w", args[1], err)
	}
	column, err := strconv.Atoi(args[2])
	if err != nil {
		return fmt.Errorf("invalid column %q: %w", args[2], err)
	}

	decoder, err := loadDecoder(cmd, lookupMapPath)
	if err != nil {
		return err
	}
	name, ok, err := decoder.Decode(source, line, column)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch lookupFormat {
	case "json":
		var result *string
		if ok {
			result = &name
		}
		encoder := json.NewEncoder(out)
		return encoder.Encode(map[string]any{
			"source": source,
			"line":   line,
			"column": column,
			"name":   result,
		})
	case "human":
		s := newStyles(!noColor)
		if !ok {
			s.missing.Fprintf(out, "no enclosing function at %s:%d:%d\n", source, line, column)
			return nil
		}
		s.name.Fprintln(out, name)
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", lookupFormat)
	}
}

func runFunctions(cmd *cobra.Command, args []string) error {
	decoder, err := loadDecoder(cmd, lookupMapPath)
	if err != nil {
		return err
	}
	descs, err := decoder.Functions(args[0])
	if err != nil {
		return err
	}

	switch lookupFormat {
	case "json":
		if descs == nil {
			descs = []funcmap.FunctionDesc{}
		}
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(descs)
	case "human":
		return outputFunctionsTable(cmd, descs)
	default:
		return fmt.Errorf("unknown output format: %s", lookupFormat)
	}
}

func outputFunctionsTable(cmd *cobra.Command, descs []funcmap.FunctionDesc) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintf(w, "Start\tEnd\tName\n")
	fmt.Fprintf(w, "-----\t---\t----\n")

	for _, d := range descs {
		fmt.Fprintf(w, "%d:%d\t%d:%d\t%s\n", d.StartLine, d.StartColumn, d.EndLine, d.EndColumn, d.Name)
	}

	return nil
}
