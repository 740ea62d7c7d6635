package namespace

import (
	"path/filepath"
	"strings"

	"github.com/src-d/enry/v2"
)

// Category selects the replacement rules applied to a referencing file.
type Category int

// File categories.
const (
	// Unknown files are skipped.
	Unknown Category = iota

	// Stylesheet files only have `composes:` references rewritten.
	Stylesheet

	// Script files get the full rule suite.
	Script

	// Markup files get the full rule suite except CoffeeScript className bodies.
	Markup

	// TemplateWithInterpolation files get the Script rules plus ERB ternary and
	// `#{}` interpolation rules.
	TemplateWithInterpolation
)

var categoryNames = map[Category]string{
	Unknown:                   "unknown",
	Stylesheet:                "stylesheet",
	Script:                    "script",
	Markup:                    "markup",
	TemplateWithInterpolation: "template",
}

// String returns the category name.
func (c Category) String() string {
	return categoryNames[c]
}

var extensionCategories = map[string]Category{
	".css":    Stylesheet,
	".scss":   Stylesheet,
	".sass":   Stylesheet,
	".less":   Stylesheet,
	".js":     Script,
	".jsx":    Script,
	".mjs":    Script,
	".ts":     Script,
	".tsx":    Script,
	".coffee": Script,
	".html":   Markup,
	".htm":    Markup,
	".eco":    Markup,
	".ejs":    Markup,
	".hbs":    Markup,
	".vue":    Markup,
	".erb":    TemplateWithInterpolation,
	".rb":     TemplateWithInterpolation,
	".haml":   TemplateWithInterpolation,
	".slim":   TemplateWithInterpolation,
}

// languageCategories maps linguist language names for extensions missing
// from extensionCategories.
var languageCategories = map[string]Category{
	"CSS":          Stylesheet,
	"SCSS":         Stylesheet,
	"Sass":         Stylesheet,
	"Less":         Stylesheet,
	"Stylus":       Stylesheet,
	"JavaScript":   Script,
	"TypeScript":   Script,
	"CoffeeScript": Script,
	"LiveScript":   Script,
	"HTML":         Markup,
	"Handlebars":   Markup,
	"Mustache":     Markup,
	"Twig":         Markup,
	"HTML+ERB":     TemplateWithInterpolation,
	"Ruby":         TemplateWithInterpolation,
	"Haml":         TemplateWithInterpolation,
	"Slim":         TemplateWithInterpolation,
}

// CategoryOf classifies path by extension, falling back to enry's language
// detection for extensions not known here.
func CategoryOf(path string) Category {
	if c, ok := extensionCategories[strings.ToLower(filepath.Ext(path))]; ok {
		return c
	}

	lang, safe := enry.GetLanguageByExtension(path)
	if !safe || lang == "" {
		return Unknown
	}

	return languageCategories[lang]
}
