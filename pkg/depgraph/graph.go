package depgraph

import (
	"slices"
	"strings"
)

// Graph is the read-only module graph of the application compilation.
type Graph struct {
	modules []Module
	common  []Module

	// issuers maps each distinct issuer name to the indices of the modules it
	// imported, in module order.
	issuers     map[string][]int
	issuerNames []string
}

// NewGraph indexes the application compilation of report. The chunk named
// commonChunk contributes its modules; a missing chunk counts as empty.
func NewGraph(report *Report, commonChunk string) *Graph {
	app := report.App()

	g := &Graph{issuers: make(map[string][]int)}

	for _, chunk := range app.Chunks {
		if slices.Contains(chunk.Names, commonChunk) {
			g.common = chunk.Modules

			break
		}
	}

	seen := make(map[Module]struct{}, len(app.Modules)+len(g.common))

	for _, m := range slices.Concat(app.Modules, g.common) {
		if _, dup := seen[m]; dup {
			continue
		}

		seen[m] = struct{}{}

		if m.IssuerName != "" {
			if _, known := g.issuers[m.IssuerName]; !known {
				g.issuerNames = append(g.issuerNames, m.IssuerName)
			}

			g.issuers[m.IssuerName] = append(g.issuers[m.IssuerName], len(g.modules))
		}

		g.modules = append(g.modules, m)
	}

	return g
}

// Modules returns every module, direct ones first.
func (g *Graph) Modules() []Module {
	return g.modules
}

// CommonModules returns the modules of the common chunk.
func (g *Graph) CommonModules() []Module {
	return g.common
}

// Dependents returns the modules whose issuer name contains file, in module
// order.
func (g *Graph) Dependents(file string) []Module {
	var indices []int

	for _, issuer := range g.issuerNames {
		if strings.Contains(issuer, file) {
			indices = append(indices, g.issuers[issuer]...)
		}
	}

	slices.Sort(indices)

	out := make([]Module, 0, len(indices))
	for _, idx := range slices.Compact(indices) {
		out = append(out, g.modules[idx])
	}

	return out
}

// Importer returns the first module whose name contains file.
func (g *Graph) Importer(file string) (Module, bool) {
	for _, m := range g.modules {
		if strings.Contains(m.Name, file) {
			return m, true
		}
	}

	return Module{}, false
}
