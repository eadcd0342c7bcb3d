package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/yousuf/funcmap/internal/sourcemap"
)

var (
	symbolicateMapPath string
	symbolicateDebug   bool
)

var symbolicateCmd = &cobra.Command{
	Use:   "symbolicate [STACK_FILE]",
	Short: "Map a stack trace back to original sources",
	Long: `Read a JavaScript stack trace (from STACK_FILE or stdin) produced by generated
code and print it with original files, positions and function names. Names
come from the function mappings when the map has them, otherwise from the
mappings' symbol names or the frame itself.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSymbolicate,
}

func init() {
	symbolicateCmd.Flags().StringVarP(&symbolicateMapPath, "map", "m", "", "Source map, plain or enriched")
	symbolicateCmd.Flags().BoolVar(&symbolicateDebug, "debug", false, "Show mapping status for each frame")
	symbolicateCmd.MarkFlagRequired("map")
}

func runSymbolicate(cmd *cobra.Command, args []string) error {
	stackPath := "-"
	if len(args) == 1 {
		stackPath = args[0]
	}

	mapData, err := readInput(cmd, symbolicateMapPath)
	if err != nil {
		return err
	}
	stack, err := readInput(cmd, stackPath)
	if err != nil {
		return err
	}

	s, err := sourcemap.New(mapData)
	if err != nil {
		return err
	}

	frames := s.Frames(string(stack))
	styles := newStyles(!noColor)
	out := cmd.OutOrStdout()
	for _, frame := range frames {
		line := sourcemap.FormatFrame(frame)
		if symbolicateDebug {
			line = sourcemap.FormatWithMetadata([]sourcemap.MappedFrame{frame})
		}
		switch {
		case frame.Mapped:
			styles.name.Fprintln(out, line)
		case frame.IsNative:
			fmt.Fprintln(out, line)
		default:
			styles.missing.Fprintln(out, strings.TrimRight(line, "\n"))
		}
	}
	return nil
}
