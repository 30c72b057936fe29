package store

import "time"

// Index domain types

type File struct {
	ID           int64
	Path         string
	Kind         string // "kotlin", "resource", "manifest"
	Hash         string
	LineCount    int
	LastAnalyzed time.Time
}

type Type struct {
	ID            int64
	FileID        int64
	Name          string
	QualifiedName string
	Kind          string // "class", "interface", "object"
	Line          int
	Col           int
}

type Supertype struct {
	ID           int64
	TypeID       int64
	RawName      string
	ResolvedName string
	Ordinal      int
}

type Import struct {
	ID       int64
	FileID   int64
	Path     string
	Alias    string
	Wildcard bool
}

// Run history types

type Run struct {
	ID              int64
	Root            string
	StartedAt       time.Time
	FinishedAt      *time.Time
	FileCount       int
	DiagnosticCount int
}

// Diagnostic is a persisted diagnostic. Fix fields are empty when the
// diagnostic had no fix.
type Diagnostic struct {
	ID        int64
	RunID     int64
	RuleID    string
	Severity  string
	Path      string
	StartLine int
	StartCol  int
	EndLine   int
	EndCol    int
	StartByte int
	EndByte   int
	Message   string
	FixName   string
	FixOld    string
	FixNew    string
}
