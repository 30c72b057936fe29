package main

// CLIResult is the JSON envelope for commands that do not print
// diagnostics. Diagnostics use report.Envelope.
type CLIResult struct {
	Command string `json:"command"`
	Results any    `json:"results"`
	Error   string `json:"error,omitempty"`
}

// CLIRule is a JSON-friendly issue description.
type CLIRule struct {
	ID          string `json:"id"`
	Brief       string `json:"brief"`
	Explanation string `json:"explanation"`
	Category    string `json:"category"`
	Priority    int    `json:"priority"`
	Severity    string `json:"severity"`
}

// CLIType is a JSON-friendly indexed class.
type CLIType struct {
	QualifiedName string `json:"qualified_name"`
	Kind          string `json:"kind"`
	Line          int    `json:"line"`
	Col           int    `json:"col"`
}

// CLISupertype is a supertype as written and as resolved.
type CLISupertype struct {
	Raw      string `json:"raw"`
	Resolved string `json:"resolved"`
}

// CLIHierarchy is one class with its ancestors and direct subtypes.
type CLIHierarchy struct {
	Type       CLIType        `json:"type"`
	File       string         `json:"file"`
	Supertypes []CLISupertype `json:"supertypes"`
	Imports    []string       `json:"imports,omitempty"`
	Ancestors  []string       `json:"ancestors"`
	Subtypes   []CLIType      `json:"subtypes"`
}

// CLIFile is a JSON-friendly file representation.
type CLIFile struct {
	Path      string   `json:"path"`
	Kind      string   `json:"kind"`
	LineCount int      `json:"line_count"`
	Types     []string `json:"types,omitempty"`
}
