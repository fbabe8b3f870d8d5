package errors

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Construction Errors (E001-E019)
	// ============================================

	"E001": {
		Category: CategoryConstruction,
		Message:  "Dependency cycle between states",
		Detail:   "The declared parent, child and node dependencies of these states form a cycle, so no execution order exists.",
	},
	"E002": {
		Category: CategoryConstruction,
		Message:  "Unknown state dependency",
		Detail:   "A state depends on a state type that was not registered with the engine.",
	},
	"E003": {
		Category: CategoryConstruction,
		Message:  "Duplicate state",
		Detail:   "The same state type was registered more than once.",
	},
	"E004": {
		Category: CategoryConstruction,
		Message:  "Conflicting traversal direction",
		Detail:   "A state cannot depend on its own value in both its parent and its children.",
	},

	// ============================================
	// Runtime Errors (E005-E019)
	// ============================================

	"E005": {
		Category: CategoryRuntime,
		Message:  "Component borrow conflict",
		Detail:   "A component table was borrowed exclusively while another borrow was live.",
	},
	"E006": {
		Category: CategoryRuntime,
		Message:  "Undeclared or missing dependency",
		Detail:   "A state read a dependency it did not declare, or a declared dependency was missing on the node.",
	},
	"E007": {
		Category: CategoryRuntime,
		Message:  "Node not found",
		Detail:   "The node id does not exist in the tree.",
	},
	"E008": {
		Category: CategoryRuntime,
		Message:  "Engine poisoned",
		Detail:   "A previous update cycle panicked; the dirty state is unrecoverable.",
	},
	"E009": {
		Category: CategoryRuntime,
		Message:  "Patch does not apply",
		Detail:   "The patch targets a node of the wrong kind or carries an unknown operation.",
	},

	// ============================================
	// Config Errors (E120-E139)
	// ============================================

	"E120": {
		Category: CategoryConfig,
		Message:  "Invalid configuration file",
		Detail:   "The configuration file could not be read or parsed.",
	},
	"E121": {
		Category: CategoryConfig,
		Message:  "Configuration file not found",
		Detail:   "No realdom.json or realdom.yaml was found.",
	},
	"E122": {
		Category: CategoryConfig,
		Message:  "Invalid configuration value",
		Detail:   "A configuration value is out of range.",
	},

	// ============================================
	// CLI Errors (E140-E159)
	// ============================================

	"E140": {
		Category: CategoryCLI,
		Message:  "Invalid scene",
		Detail:   "The scene file could not be parsed into a node tree.",
	},
	"E141": {
		Category: CategoryCLI,
		Message:  "Inspector failed",
		Detail:   "The inspector HTTP server stopped unexpectedly.",
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
