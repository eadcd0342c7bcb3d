package parser

import (
	"context"
	"fmt"
	"log"
	"sync"

	extism "github.com/extism/go-sdk"
	"github.com/yousuf/funcmap/internal/funcmap"
)

// WasmParser runs a parser compiled to WebAssembly as an Extism plugin. The
// plugin exports "parse", which takes a JSON request {source, dialect} and
// returns {functions, error}.
//
// Each WasmParser owns its plugin instance; construct one explicitly and
// Close it when done. Calls are serialised because a plugin instance is not
// safe for concurrent use.
type WasmParser struct {
	plugin *extism.Plugin
	mu     sync.Mutex
}

// NewWasmParser loads the plugin at wasmPath.
func NewWasmParser(ctx context.Context, wasmPath string) (*WasmParser, error) {
	manifest := extism.Manifest{
		Wasm: []extism.Wasm{
			extism.WasmFile{
				Path: wasmPath,
			},
		},
	}

	config := extism.PluginConfig{
		EnableWasi: true,
	}

	plugin, err := extism.NewPlugin(ctx, manifest, config, []extism.HostFunction{})
	if err != nil {
		return nil, fmt.Errorf("failed to create plugin: %w", err)
	}
	plugin.SetLogger(func(level extism.LogLevel, message string) {
		log.Printf("[PARSER] %s: %s", level.String(), message)
	})

	return &WasmParser{plugin: plugin}, nil
}

// Parse calls the plugin's parse export.
func (p *WasmParser) Parse(ctx context.Context, source string, dialect Dialect) ([]funcmap.FunctionDesc, error) {
	input, err := encodeRequest(source, dialect)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	exit, output, err := p.plugin.CallWithContext(ctx, "parse", input)
	p.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("plugin execution failed: %w", err)
	}
	if exit != 0 {
		return nil, fmt.Errorf("plugin exited with code %d", exit)
	}

	return decodeResponse(output)
}

// Close releases the plugin.
func (p *WasmParser) Close(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.plugin == nil {
		return nil
	}
	err := p.plugin.Close(ctx)
	p.plugin = nil
	return err
}
