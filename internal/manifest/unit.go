package manifest

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/svcstorego/internal/ctxlog"
)

// Extension is the recognized manifest file suffix.
const Extension = ".hcl"

// Unit is the loaded, enumerable representation of one manifest file.
type Unit struct {
	// Name is the file's base name with the extension stripped.
	Name string
	// Path is the originating file's path as given to Load.
	Path string
	// Services holds the decoded `service` blocks in declaration order.
	Services []*ServiceDecl
	// Extras counts the top-level blocks that are not service declarations.
	// They are ordinary helper values a manifest may carry alongside its
	// services and are never offered to the eligibility filter.
	Extras int
}

// ServiceDecl is one `service` block.
type ServiceDecl struct {
	// Label is the block label, always present.
	Label string
	// Name is the explicitly declared identity; may be empty.
	Name string
	// Handler names the compiled-in Go handler backing the service.
	Handler string
	// Description is free-form documentation carried into deployment info.
	Description string
	// DontDeploy is the explicit opt-out marker.
	DontDeploy bool
}

// Identity returns the stable registry key for the declaration: the declared
// name when present, otherwise the unit-qualified block label.
func (d *ServiceDecl) Identity(unitName string) string {
	if d.Name != "" {
		return d.Name
	}
	return fmt.Sprintf("%s.%s", unitName, d.Label)
}

// fileRoot decodes all top-level blocks from a manifest file. Unknown block
// types land in Remain.
type fileRoot struct {
	Services []*hclService `hcl:"service,block"`
	Remain   hcl.Body      `hcl:",remain"`
}

type hclService struct {
	Label       string `hcl:"label,label"`
	Name        string `hcl:"name,optional"`
	Handler     string `hcl:"handler"`
	Description string `hcl:"description,optional"`
	DontDeploy  bool   `hcl:"dont_deploy,optional"`
}

// IsManifestFile reports whether path has the manifest extension.
func IsManifestFile(path string) bool {
	return strings.HasSuffix(strings.ToLower(path), Extension)
}

// Load parses the manifest at path into a Unit.
//
// A new parser is created per call so the load is guaranteed to reflect the
// file's current on-disk contents rather than any cached parse. Parse and
// decode diagnostics propagate as errors; a malformed unit abandons only its
// own deployment, never the whole batch.
//
// Declarations may reference the `unit` variable, which evaluates to the
// unit's name, e.g. `name = "${unit}.ping"`.
func Load(ctx context.Context, path string) (*Unit, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Loading manifest unit.", "path", path)

	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", path, diags)
	}

	base := filepath.Base(path)
	unitName := strings.TrimSuffix(base, filepath.Ext(base))

	evalCtx := &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"unit": cty.StringVal(unitName),
		},
	}

	var root fileRoot
	diags = gohcl.DecodeBody(hclFile.Body, evalCtx, &root)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode manifest %s: %w", path, diags)
	}

	unit := &Unit{
		Name: unitName,
		Path: path,
	}

	for _, svc := range root.Services {
		unit.Services = append(unit.Services, &ServiceDecl{
			Label:       svc.Label,
			Name:        svc.Name,
			Handler:     svc.Handler,
			Description: svc.Description,
			DontDeploy:  svc.DontDeploy,
		})
	}
	unit.Extras = countExtraBlocks(hclFile.Body)

	logger.Debug("Manifest unit loaded.", "unit", unit.Name, "services", len(unit.Services), "extras", unit.Extras)
	return unit, nil
}

// countExtraBlocks counts non-service top-level blocks without decoding
// them. Helper content has no schema we could enforce, so only the native
// syntax body is inspected.
func countExtraBlocks(body hcl.Body) int {
	syntaxBody, ok := body.(*hclsyntax.Body)
	if !ok {
		return 0
	}
	extras := 0
	for _, block := range syntaxBody.Blocks {
		if block.Type != "service" {
			extras++
		}
	}
	return extras
}
