package store

// DataStore is the interface for index writes. Both Store (direct SQLite)
// and BatchedStore (in-memory buffering for parallel parsing) implement
// this interface.
type DataStore interface {
	// Index inserts. Each returns the assigned ID.
	InsertType(t *Type) (int64, error)
	InsertSupertype(st *Supertype) (int64, error)
	InsertImport(imp *Import) (int64, error)
}

// Compile-time check: *Store satisfies DataStore.
var _ DataStore = (*Store)(nil)
