package hcl

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/vk/bounceaction/internal/config"
	"github.com/vk/bounceaction/internal/ctxlog"
	"github.com/vk/bounceaction/internal/fsutil"
	"github.com/vk/bounceaction/internal/schema"
)

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct{}

// NewLoader creates a new HCL scenario loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load parses every .hcl file under the given paths and merges their
// scenarios into one model. Scenario names must be unique across files.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, config.Converter, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	files, err := fsutil.FindFiles(paths, ".hcl")
	if err != nil {
		return nil, nil, err
	}
	if len(files) == 0 {
		return nil, nil, fmt.Errorf("no .hcl files found in %v", paths)
	}
	logger.Debug("Discovered HCL files.", "count", len(files))

	model := &config.Model{}
	seen := make(map[string]string)
	parser := hclparse.NewParser()

	for _, file := range files {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, nil, fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
		}

		var root schema.File
		diags = gohcl.DecodeBody(hclFile.Body, nil, &root)
		if diags.HasErrors() {
			return nil, nil, fmt.Errorf("failed to decode HCL file %s: %w", file, diags)
		}

		for _, s := range root.Scenarios {
			if prev, dup := seen[s.Name]; dup {
				return nil, nil, fmt.Errorf("scenario %q in %s is already defined in %s", s.Name, file, prev)
			}
			seen[s.Name] = file

			sc, err := translateScenario(ctx, s, file)
			if err != nil {
				return nil, nil, err
			}
			model.Scenarios = append(model.Scenarios, sc)
		}
	}

	logger.Debug("HCL loading complete.", "files", len(files), "scenarios", len(model.Scenarios))
	return model, NewConverter(), nil
}
