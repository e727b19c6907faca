package manifest

import (
	_ "embed"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
)

// defaultHCL is the built-in mapping table, used when the operator does not
// supply a manifest file.
//
//go:embed default.hcl
var defaultHCL []byte

// Entry is one row of the import mapping table. Src is relative to the
// extraction root, Dest is relative to the working tree. Both use forward
// slashes regardless of platform.
type Entry struct {
	Src  string
	Dest string
}

// Archive describes the archive a table is being evaluated against. Its
// fields are exposed to manifest expressions as `archive.path` and
// `archive.stem`.
type Archive struct {
	Path string
	Stem string
}

// assetBlock is the HCL schema for a single `asset` block. Dest is kept as
// an expression so manifests can interpolate archive attributes.
type assetBlock struct {
	Src  string         `hcl:"src,label"`
	Dest hcl.Expression `hcl:"dest"`
}

// root is the HCL schema for a whole manifest file.
type root struct {
	Assets []*assetBlock `hcl:"asset,block"`
}

// Load reads and validates the mapping table from the HCL file at path.
func Load(path string, arc Archive) ([]Entry, error) {
	file, diags := hclparse.NewParser().ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse manifest %q: %w", path, diags)
	}
	return decode(file, arc)
}

// Default returns the embedded mapping table.
func Default(arc Archive) ([]Entry, error) {
	file, diags := hclparse.NewParser().ParseHCL(defaultHCL, "default.hcl")
	if diags.HasErrors() {
		// The embedded table is compiled in; a parse failure is a build defect.
		panic(fmt.Errorf("embedded default manifest is invalid: %w", diags))
	}
	return decode(file, arc)
}

func decode(file *hcl.File, arc Archive) ([]Entry, error) {
	var cfg root
	if diags := gohcl.DecodeBody(file.Body, nil, &cfg); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode manifest: %w", diags)
	}
	if len(cfg.Assets) == 0 {
		return nil, fmt.Errorf("manifest declares no asset blocks")
	}

	evalCtx := &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"archive": cty.ObjectVal(map[string]cty.Value{
				"path": cty.StringVal(arc.Path),
				"stem": cty.StringVal(arc.Stem),
			}),
		},
	}

	entries := make([]Entry, 0, len(cfg.Assets))
	for _, block := range cfg.Assets {
		val, diags := block.Dest.Value(evalCtx)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to evaluate dest for asset %q: %w", block.Src, diags)
		}
		if val.IsNull() || val.Type() != cty.String {
			return nil, fmt.Errorf("dest for asset %q must be a string", block.Src)
		}

		entry := Entry{Src: block.Src, Dest: val.AsString()}
		if err := validateEntry(entry); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// validateEntry rejects paths that are empty, absolute, or that would
// resolve outside their respective roots. Catching traversal here means a
// hostile or mistyped manifest fails at load time, before any filesystem
// work happens. Src is checked first so a bad label is reported as such
// rather than attributed to its dest.
func validateEntry(e Entry) error {
	if e.Src == "" {
		return fmt.Errorf("asset block has an empty src label")
	}
	if err := validatePath(e.Src); err != nil {
		return fmt.Errorf("asset %q: src path %q %s", e.Src, e.Src, err)
	}
	if e.Dest == "" {
		return fmt.Errorf("asset %q has an empty dest path", e.Src)
	}
	if err := validatePath(e.Dest); err != nil {
		return fmt.Errorf("asset %q: dest path %q %s", e.Src, e.Dest, err)
	}
	return nil
}

func validatePath(p string) error {
	if filepath.IsAbs(p) {
		return fmt.Errorf("must be relative")
	}
	clean := filepath.Clean(filepath.FromSlash(p))
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return fmt.Errorf("escapes its root")
	}
	return nil
}
