package lintchecks

import (
	"github.com/bmv-2143/lintchecks/internal/ancestry"
	"github.com/bmv-2143/lintchecks/internal/diag"
	"github.com/bmv-2143/lintchecks/internal/store"
)

// Public type aliases for internal types used in the Engine and
// QueryBuilder APIs. These are Go type aliases (=), so no conversion is
// needed.

type Store = store.Store
type Run = store.Run
type Type = store.Type
type File = store.File
type Supertype = store.Supertype
type Import = store.Import
type DiagnosticFilter = store.DiagnosticFilter

type Diagnostic = diag.Diagnostic
type Location = diag.Location
type TextReplacement = diag.TextReplacement
type Issue = diag.Issue

type Rules = ancestry.Rules
type ComponentKind = ancestry.ComponentKind
