package main

import (
	"encoding/json"
	"fmt"
	"log"

	"github.com/spf13/cobra"
	"github.com/yousuf/funcmap/internal/funcmap"
)

var (
	encodeMapPath   string
	encodeDescPath  string
	encodeOutPath   string
	encodeSelfCheck bool
)

var encodeCmd = &cobra.Command{
	Use:   "encode",
	Short: "Enrich a source map with function mappings",
	Long: `Read a source map and a descriptor file (JSON or YAML object mapping each
source to its function descriptors) and write the source map with the
x_com_bloomberg_sourcesFunctionMappings field added. Descriptor lines and
columns are zero-based.`,
	RunE: runEncode,
}

func init() {
	encodeCmd.Flags().StringVarP(&encodeMapPath, "map", "m", "", "Source map to enrich (- for stdin)")
	encodeCmd.Flags().StringVarP(&encodeDescPath, "descriptors", "d", "", "Descriptor file (JSON or YAML)")
	encodeCmd.Flags().StringVarP(&encodeOutPath, "out", "o", "", "Output file (default: stdout)")
	encodeCmd.Flags().BoolVar(&encodeSelfCheck, "self-check", false, "Decode the result and fail if it does not round-trip")
	encodeCmd.MarkFlagRequired("map")
	encodeCmd.MarkFlagRequired("descriptors")
}

func runEncode(cmd *cobra.Command, args []string) error {
	if encodeMapPath == "-" && encodeDescPath == "-" {
		return fmt.Errorf("--map and --descriptors cannot both read stdin")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	mapData, err := readInput(cmd, encodeMapPath)
	if err != nil {
		return err
	}
	descData, err := readInput(cmd, encodeDescPath)
	if err != nil {
		return err
	}

	sm, err := funcmap.ParseSourceMap(mapData)
	if err != nil {
		return fmt.Errorf("parsing source map: %w", err)
	}
	descs, err := funcmap.LoadDescriptors(descData)
	if err != nil {
		return err
	}

	var opts []funcmap.EncodeOption
	if encodeSelfCheck || cfg.Development {
		opts = append(opts, funcmap.WithSelfCheck(true))
	}
	enriched, err := funcmap.Encode(sm, descs, opts...)
	if err != nil {
		return err
	}

	out, err := json.Marshal(enriched)
	if err != nil {
		return fmt.Errorf("marshaling source map: %w", err)
	}
	if encodeOutPath != "" {
		log.Printf("Encoded %d source(s) into %s", len(descs), encodeOutPath)
	}
	return writeOutput(cmd, encodeOutPath, append(out, '\n'))
}
