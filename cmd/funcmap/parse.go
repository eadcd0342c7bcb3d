package main

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/yousuf/funcmap/internal/client"
	"github.com/yousuf/funcmap/internal/config"
	"github.com/yousuf/funcmap/internal/funcmap"
	"github.com/yousuf/funcmap/internal/parser"
	"gopkg.in/yaml.v3"
)

var (
	parseDialect string
	parseFormat  string
	parseOutPath string
	parseBaseDir string
)

var parseCmd = &cobra.Command{
	Use:   "parse FILE...",
	Short: "Extract function descriptors from source files",
	Long: `Run the configured parser (a wasm plugin or a tool on an MCP server) over
source files and print a descriptor file suitable for "funcmap encode".
Sources are keyed by their path relative to --base.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runParse,
}

func init() {
	parseCmd.Flags().StringVar(&parseDialect, "dialect", "", "Dialect for all files: TypeScript, ECMAScript, TSX, JSX (default: by extension)")
	parseCmd.Flags().StringVar(&parseFormat, "format", "json", "Output format: json, yaml")
	parseCmd.Flags().StringVarP(&parseOutPath, "out", "o", "", "Output file (default: stdout)")
	parseCmd.Flags().StringVar(&parseBaseDir, "base", "", "Directory source keys are relative to (default: as given)")
}

func runParse(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	files, err := collectFiles(cmd, args)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	p, closeParser, err := openParser(ctx, cfg.Parser)
	if err != nil {
		return err
	}
	defer closeParser()

	descs, err := parser.ParseAll(ctx, p, files)
	if err != nil {
		return err
	}

	out, err := marshalDescriptors(descs, parseFormat)
	if err != nil {
		return err
	}
	return writeOutput(cmd, parseOutPath, out)
}

func collectFiles(cmd *cobra.Command, paths []string) (map[string]parser.File, error) {
	files := make(map[string]parser.File, len(paths))
	for _, path := range paths {
		dialect, err := fileDialect(path)
		if err != nil {
			return nil, err
		}
		data, err := readInput(cmd, path)
		if err != nil {
			return nil, err
		}
		key := filepath.ToSlash(path)
		if parseBaseDir != "" {
			rel, err := filepath.Rel(parseBaseDir, path)
			if err != nil {
				return nil, fmt.Errorf("relativizing %s: %w", path, err)
			}
			key = filepath.ToSlash(rel)
		}
		files[key] = parser.File{Source: string(data), Dialect: dialect}
	}
	return files, nil
}

func fileDialect(path string) (parser.Dialect, error) {
	if parseDialect != "" {
		return parser.ParseDialect(parseDialect)
	}
	return parser.DialectFor(path)
}

func marshalDescriptors(descs map[string][]funcmap.FunctionDesc, format string) ([]byte, error) {
	switch format {
	case "json":
		out, err := json.MarshalIndent(descs, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(out, '\n'), nil
	case "yaml":
		return yaml.Marshal(descs)
	default:
		return nil, fmt.Errorf("unknown output format: %s", format)
	}
}

// openParser builds the parser described by cfg. The returned function
// releases it.
func openParser(ctx context.Context, cfg *config.ParserConfig) (parser.Parser, func() error, error) {
	if cfg == nil {
		return nil, nil, fmt.Errorf("no parser configured (set parser in the config file)")
	}

	switch cfg.Type {
	case "wasm":
		p, err := parser.NewWasmParser(ctx, cfg.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("loading parser plugin: %w", err)
		}
		return p, func() error { return p.Close(context.Background()) }, nil
	case "mcp":
		if cfg.Server == nil {
			return nil, nil, fmt.Errorf("parser: server is required for mcp type")
		}
		c, err := client.NewClient(ctx, *cfg.Server)
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to parser server: %w", err)
		}
		tool := cfg.Tool
		if tool == "" {
			tool = parser.DefaultTool
		}
		if !c.HasTool(tool) {
			c.Close()
			return nil, nil, fmt.Errorf("parser server has no %q tool", tool)
		}
		return parser.NewMCPParser(c, tool), c.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown parser type: %s", cfg.Type)
	}
}
