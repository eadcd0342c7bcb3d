package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/yousuf/funcmap/internal/funcmap"
	"github.com/yousuf/funcmap/internal/parser"
	"github.com/yousuf/funcmap/internal/session"
)

// ListSourceMapsArgs represents the arguments for the list_source_maps tool
type ListSourceMapsArgs struct{}

// UploadSourceMapArgs represents the arguments for the upload_source_map tool
type UploadSourceMapArgs struct {
	Name    string `json:"name" jsonschema:"Name to store the source map under"`
	Content string `json:"content" jsonschema:"Source map JSON, plain or carrying x_com_bloomberg_sourcesFunctionMappings"`
}

// UseSourceMapArgs represents the arguments for the use_source_map tool
type UseSourceMapArgs struct {
	Name string `json:"name" jsonschema:"Name of a stored source map to use by default in this session"`
}

// EnrichSourceMapArgs represents the arguments for the enrich_source_map tool
type EnrichSourceMapArgs struct {
	Map         string `json:"map,omitempty" jsonschema:"Stored source map to enrich. Defaults to the session's current map."`
	Target      string `json:"target,omitempty" jsonschema:"Name to store the enriched map under. Defaults to overwriting the input map."`
	Descriptors string `json:"descriptors,omitempty" jsonschema:"JSON or YAML object mapping each source to its function descriptors {name, startLine, startColumn, endLine, endColumn}"`
	Parse       bool   `json:"parse,omitempty" jsonschema:"Derive descriptors by parsing sourcesContent with the configured parser"`
}

// LookupFunctionArgs represents the arguments for the lookup_function tool
type LookupFunctionArgs struct {
	Map    string `json:"map,omitempty" jsonschema:"Stored source map. Defaults to the session's current map."`
	Source string `json:"source" jsonschema:"Source file as listed in the map's sources"`
	Line   int    `json:"line" jsonschema:"Zero-based line in the original source"`
	Column int    `json:"column" jsonschema:"Zero-based column in the original source"`
}

// ListFunctionsArgs represents the arguments for the list_functions tool
type ListFunctionsArgs struct {
	Map    string `json:"map,omitempty" jsonschema:"Stored source map. Defaults to the session's current map."`
	Source string `json:"source" jsonschema:"Source file as listed in the map's sources"`
}

// SymbolicateStackArgs represents the arguments for the symbolicate_stack tool
type SymbolicateStackArgs struct {
	Map   string `json:"map,omitempty" jsonschema:"Stored source map. Defaults to the session's current map."`
	Stack string `json:"stack" jsonschema:"JavaScript stack trace produced by the generated code"`
	Debug bool   `json:"debug,omitempty" jsonschema:"Annotate each frame with its mapping status (default: false)"`
}

// ParseSourceArgs represents the arguments for the parse_source tool
type ParseSourceArgs struct {
	Source  string `json:"source" jsonschema:"Source text to parse"`
	Dialect string `json:"dialect,omitempty" jsonschema:"TypeScript, ECMAScript, TSX or JSX. Guessed from path when omitted."`
	Path    string `json:"path,omitempty" jsonschema:"File name used to guess the dialect"`
}

type mapSummary struct {
	Name     string `json:"name"`
	File     string `json:"file,omitempty"`
	Sources  int    `json:"sources"`
	Enriched bool   `json:"enriched"`
}

type lookupResult struct {
	Source string `json:"source"`
	Line   int    `json:"line"`
	Column int    `json:"column"`
	Name   string `json:"name,omitempty"`
	Found  bool   `json:"found"`
}

// NewMcpServer creates and configures the MCP server
func NewMcpServer(sessionMgr *session.Manager) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "funcmap",
		Version: "1.0.0",
	}, &mcp.ServerOptions{
		Instructions: `
Function-name mappings for JavaScript source maps

funcmap stores source maps and enriches them with the
x_com_bloomberg_sourcesFunctionMappings field, which records for every
original source the span and name of each function. With it, a position in
original code resolves to the innermost enclosing function even when the
generated code was renamed or inlined.

Available Tools:
1. "list_source_maps" - List stored maps
2. "upload_source_map" - Store a map (plain or enriched)
3. "use_source_map" - Select the map used when a tool call omits "map"
4. "enrich_source_map" - Add function mappings from descriptors (or by parsing sourcesContent)
5. "list_functions" - List the functions recorded for a source
6. "lookup_function" - Name the innermost function at a zero-based line/column
7. "symbolicate_stack" - Map a stack trace from generated code back to original functions

Recommended Workflow:
1. upload_source_map({ name: "app", content: "<source map JSON>" })
2. enrich_source_map({ descriptors: "{\"src/app.ts\": [...]}" }) unless the map is already enriched
3. symbolicate_stack({ stack: "Error: boom\n    at a (bundle.js:1:120)" })

Notes:
- Lines and columns in lookup_function and descriptors are zero-based
- Stack trace positions are taken as printed by the JavaScript engine (one-based)
`,
	})

	server.AddReceivingMiddleware(createSessionInjectionMiddleware(sessionMgr))
	server.AddReceivingMiddleware(createLoggingMiddleware())

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_source_maps",
		Description: "List stored source maps and whether they carry function mappings.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args ListSourceMapsArgs) (*mcp.CallToolResult, any, error) {
		st := sessionMgr.Store()
		names, err := st.List()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to list source maps: %w", err)
		}

		summaries := make([]mapSummary, 0, len(names))
		for _, name := range names {
			m, err := st.Get(name)
			if err != nil {
				return nil, nil, fmt.Errorf("failed to read %q: %w", name, err)
			}
			summaries = append(summaries, mapSummary{
				Name:     name,
				File:     m.File,
				Sources:  len(m.Sources),
				Enriched: m.Enriched(),
			})
		}
		return jsonResult(summaries)
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "upload_source_map",
		Description: "Store a source map under a name and select it for this session. Enriched maps are validated before they are stored.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args UploadSourceMapArgs) (*mcp.CallToolResult, any, error) {
		sessionCtx, err := getSessionFromContext(ctx)
		if err != nil {
			return nil, nil, err
		}
		if args.Name == "" {
			return nil, nil, fmt.Errorf("name is required")
		}

		m, err := funcmap.ParseAny([]byte(args.Content))
		if err != nil {
			return nil, nil, fmt.Errorf("invalid source map: %w", err)
		}
		if m.Enriched() {
			if _, err := funcmap.NewDecoder(m); err != nil {
				return nil, nil, fmt.Errorf("invalid function mappings: %w", err)
			}
		}

		if err := sessionMgr.PutMap(args.Name, m); err != nil {
			return nil, nil, fmt.Errorf("failed to store source map: %w", err)
		}
		sessionCtx.UseMap(args.Name)
		log.Printf("[STORE] Session: %s | Stored %q (%d sources, enriched: %t)", sessionCtx.SessionID, args.Name, len(m.Sources), m.Enriched())

		return textResult(fmt.Sprintf("Stored %q (%d sources, enriched: %t)", args.Name, len(m.Sources), m.Enriched())), nil, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "use_source_map",
		Description: "Select the stored source map that other tools use when their map argument is omitted.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args UseSourceMapArgs) (*mcp.CallToolResult, any, error) {
		sessionCtx, err := getSessionFromContext(ctx)
		if err != nil {
			return nil, nil, err
		}
		if _, err := sessionMgr.Entry(args.Name); err != nil {
			return nil, nil, err
		}
		sessionCtx.UseMap(args.Name)
		return textResult(fmt.Sprintf("Using %q", args.Name)), nil, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name: "enrich_source_map",
		Description: `Add function mappings to a stored source map.

Descriptors are a JSON or YAML object keyed by source:
    {"src/app.ts": [{"name": "<top-level>", "startLine": 0, "startColumn": 0, "endLine": 40, "endColumn": 0},
                    {"name": "main", "startLine": 3, "startColumn": 0, "endLine": 12, "endColumn": 1}]}

Within a source, functions must nest or be disjoint. Names missing from the
map's names table are appended. With parse set, descriptors are produced by
the configured parser from the map's sourcesContent.`,
	}, func(ctx context.Context, req *mcp.CallToolRequest, args EnrichSourceMapArgs) (*mcp.CallToolResult, any, error) {
		name, err := resolveMap(ctx, args.Map)
		if err != nil {
			return nil, nil, err
		}

		var descs map[string][]funcmap.FunctionDesc
		switch {
		case args.Parse:
			descs, err = parseSourcesContent(ctx, sessionMgr, name)
		case args.Descriptors != "":
			descs, err = funcmap.LoadDescriptors([]byte(args.Descriptors))
		default:
			err = fmt.Errorf("either descriptors or parse is required")
		}
		if err != nil {
			return nil, nil, err
		}

		enriched, err := sessionMgr.Enrich(name, args.Target, descs)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to enrich %q: %w", name, err)
		}

		target := args.Target
		if target == "" {
			target = name
		}
		return jsonResult(struct {
			Map              string    `json:"map"`
			FunctionMappings []*string `json:"x_com_bloomberg_sourcesFunctionMappings"`
		}{target, enriched.FunctionMappings})
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_functions",
		Description: "List the functions recorded for a source, in start order.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args ListFunctionsArgs) (*mcp.CallToolResult, any, error) {
		decoder, err := enrichedDecoder(ctx, sessionMgr, args.Map)
		if err != nil {
			return nil, nil, err
		}
		descs, err := decoder.Functions(args.Source)
		if err != nil {
			return nil, nil, err
		}
		if descs == nil {
			descs = []funcmap.FunctionDesc{}
		}
		return jsonResult(descs)
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "lookup_function",
		Description: "Return the name of the innermost function enclosing a zero-based line and column of an original source.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args LookupFunctionArgs) (*mcp.CallToolResult, any, error) {
		decoder, err := enrichedDecoder(ctx, sessionMgr, args.Map)
		if err != nil {
			return nil, nil, err
		}
		name, ok, err := decoder.Decode(args.Source, args.Line, args.Column)
		if err != nil {
			return nil, nil, err
		}
		return jsonResult(lookupResult{
			Source: args.Source,
			Line:   args.Line,
			Column: args.Column,
			Name:   name,
			Found:  ok,
		})
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "symbolicate_stack",
		Description: "Map a JavaScript stack trace from generated code back to original files, positions and enclosing function names.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args SymbolicateStackArgs) (*mcp.CallToolResult, any, error) {
		name, err := resolveMap(ctx, args.Map)
		if err != nil {
			return nil, nil, err
		}
		entry, err := sessionMgr.Entry(name)
		if err != nil {
			return nil, nil, err
		}
		if strings.TrimSpace(args.Stack) == "" {
			return nil, nil, fmt.Errorf("stack is required")
		}

		log.Printf("[SYMBOLICATE] Map: %s | Enriched: %t", name, entry.Decoder != nil)
		return textResult(entry.Symbolicator.Map(args.Stack, args.Debug)), nil, nil
	})

	if sessionMgr.Parser() != nil {
		mcp.AddTool(server, &mcp.Tool{
			Name:        "parse_source",
			Description: "Parse source text with the configured parser and return its function descriptors.",
		}, func(ctx context.Context, req *mcp.CallToolRequest, args ParseSourceArgs) (*mcp.CallToolResult, any, error) {
			dialect, err := resolveDialect(args.Dialect, args.Path)
			if err != nil {
				return nil, nil, err
			}
			descs, err := sessionMgr.Parser().Parse(ctx, args.Source, dialect)
			if err != nil {
				return nil, nil, err
			}
			return jsonResult(descs)
		})
	}

	return server
}

// resolveMap returns name, or the session's current map when name is empty.
func resolveMap(ctx context.Context, name string) (string, error) {
	if name != "" {
		return name, nil
	}
	sessionCtx, err := getSessionFromContext(ctx)
	if err != nil {
		return "", err
	}
	if current := sessionCtx.CurrentMap(); current != "" {
		return current, nil
	}
	return "", fmt.Errorf("no source map selected: pass map or call use_source_map")
}

func enrichedDecoder(ctx context.Context, sessionMgr *session.Manager, mapName string) (*funcmap.Decoder, error) {
	name, err := resolveMap(ctx, mapName)
	if err != nil {
		return nil, err
	}
	entry, err := sessionMgr.Entry(name)
	if err != nil {
		return nil, err
	}
	if entry.Decoder == nil {
		return nil, fmt.Errorf("source map %q has no function mappings; call enrich_source_map first", name)
	}
	return entry.Decoder, nil
}

func resolveDialect(dialect, path string) (parser.Dialect, error) {
	if dialect != "" {
		return parser.ParseDialect(dialect)
	}
	if path != "" {
		return parser.DialectFor(path)
	}
	return "", fmt.Errorf("dialect or path is required")
}

// parseSourcesContent runs the configured parser over every source whose
// content is embedded in the map and whose extension names a dialect.
func parseSourcesContent(ctx context.Context, sessionMgr *session.Manager, name string) (map[string][]funcmap.FunctionDesc, error) {
	p := sessionMgr.Parser()
	if p == nil {
		return nil, fmt.Errorf("no parser configured")
	}
	entry, err := sessionMgr.Entry(name)
	if err != nil {
		return nil, err
	}

	files := make(map[string]parser.File)
	for i, source := range entry.Map.Sources {
		if i >= len(entry.Map.SourcesContent) || entry.Map.SourcesContent[i] == nil {
			continue
		}
		dialect, err := parser.DialectFor(source)
		if err != nil {
			continue
		}
		files[source] = parser.File{Source: *entry.Map.SourcesContent[i], Dialect: dialect}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("source map %q has no parsable sourcesContent", name)
	}

	return parser.ParseAll(ctx, p, files)
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}
}

func jsonResult(v any) (*mcp.CallToolResult, any, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal result: %w", err)
	}
	return textResult(string(data)), nil, nil
}
