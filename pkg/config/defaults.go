package config

import (
	"github.com/Sumatoshi-tech/squeaky/pkg/ancestry"
	"github.com/Sumatoshi-tech/squeaky/pkg/depgraph"
	"github.com/Sumatoshi-tech/squeaky/pkg/namespace"
	"github.com/Sumatoshi-tech/squeaky/pkg/specificity"
	"github.com/Sumatoshi-tech/squeaky/pkg/verify"
)

// Search defaults.
const (
	DefaultSearchBackend = BackendGrep
	DefaultExcludePath   = namespace.DefaultExcludePath
)

// DefaultSearchDirectories are searched when none are configured.
var DefaultSearchDirectories = []string{"app"}

// Graph defaults.
const (
	DefaultStatsPath       = "stats.json"
	DefaultCommonInclude   = ".*"
	DefaultTemplateLeaf    = `\.eco$`
	DefaultCommonChunkName = depgraph.DefaultCommonChunkName
)

// DefaultCacheSize bounds the heuristic ancestor cache.
const DefaultCacheSize = ancestry.DefaultCacheSize

// Logging defaults.
const (
	DefaultLogLevel = "info"
	DefaultLogJSON  = false
)

// DefaultDenylistClasses are classes owned by third-party widgets.
var DefaultDenylistClasses = []string{
	".backgrid",
	".backgrid-paginator",
	".category",
	".disabled",
	".editable",
	".has-items",
	".item",
	".mjs-nestedSortable-error",
	".renderable",
	".sort-caret",
	".sortable",
	".string-cell",
	".username",
}

// DefaultDenylistPrefixes are class prefixes owned by third-party widgets.
var DefaultDenylistPrefixes = []string{
	".language-",
	".select2",
	".selectize",
	".tdcss",
	".tddcss",
	".tipsy",
	".ui-",
}

func defaultBuckets() []string {
	return specificity.DefaultBuckets
}

func defaultExceptionBuckets() []string {
	return specificity.DefaultExceptionBuckets
}

func defaultUsageExtensions() []string {
	return verify.DefaultUsageExtensions
}
