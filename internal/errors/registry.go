package errors

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
	DocURL   string
}

const docBase = "https://chen.dev/docs/errors/"

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Scan Errors (E100-E102)
	// ============================================

	"E100": {
		Category: CategoryScan,
		Message:  "Pages directory unreadable",
		Detail:   "The pages directory exists but could not be listed. Routes are not generated from a partial view of the directory.",
		DocURL:   docBase + "E100",
	},

	// ============================================
	// Route Table Errors (E103-E109)
	// ============================================

	"E103": {
		Category: CategoryRoutes,
		Message:  "Duplicate layout",
		Detail:   "A directory may contain only one _layout file.",
		DocURL:   docBase + "E103",
	},
	"E104": {
		Category: CategoryRoutes,
		Message:  "Duplicate not-found page",
		Detail:   "A directory may contain only one _404 file.",
		DocURL:   docBase + "E104",
	},
	"E105": {
		Category: CategoryRoutes,
		Message:  "Duplicate route segment",
		Detail:   "Two sibling pages resolve to the same route segment, so the route table would be ambiguous.",
		DocURL:   docBase + "E105",
	},

	// ============================================
	// Virtual Module Errors (E110-E119)
	// ============================================

	"E110": {
		Category: CategoryModule,
		Message:  "Unknown virtual module",
		Detail:   "The requested module id is not served by chen.",
		DocURL:   docBase + "E110",
	},

	// ============================================
	// Config Errors (E120-E129)
	// ============================================

	"E120": {
		Category: CategoryConfig,
		Message:  "Invalid configuration",
		Detail:   "chen.json could not be read or parsed.",
		DocURL:   docBase + "E120",
	},
	"E122": {
		Category: CategoryConfig,
		Message:  "Invalid port",
		Detail:   "The dev server port must be between 0 and 65535.",
		DocURL:   docBase + "E122",
	},

	// ============================================
	// Build Errors (E130-E139)
	// ============================================

	"E130": {
		Category: CategoryBuild,
		Message:  "Bundle failed",
		Detail:   "esbuild reported errors while bundling the application.",
		DocURL:   docBase + "E130",
	},
	"E131": {
		Category: CategoryDev,
		Message:  "Watcher failed to start",
		Detail:   "The file watcher for the pages directory could not be created.",
		DocURL:   docBase + "E131",
	},

	// ============================================
	// CLI Errors (E140-E149)
	// ============================================

	"E140": {
		Category: CategoryCLI,
		Message:  "Cannot write output",
		Detail:   "The generated file could not be written.",
		DocURL:   docBase + "E140",
	},
}

// GetAllCodes returns all registered error codes.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	return codes
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}

// Register adds a new error template to the registry.
func Register(code string, template ErrorTemplate) {
	registry[code] = template
}
