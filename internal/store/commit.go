package store

import (
	"database/sql"
	"fmt"
)

// CommitBatch inserts all buffered data from a BatchedStore into SQLite
// within a single transaction. Fake (negative) IDs are remapped to real
// (positive, AUTOINCREMENT) IDs, and all FK references within the batch
// are rewritten using the fakeToReal mapping.
//
// Insert order respects FK dependencies:
//  1. Types (depend on file_id only, which is already real)
//  2. Supertypes (depend on type_id)
//  3. Imports (depend on file_id only)
func (s *Store) CommitBatch(batch *BatchedStore) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("commit batch: begin: %w", err)
	}
	defer tx.Rollback()

	fakeToReal := make(map[int64]int64)

	// 1. Types
	for _, t := range batch.Types {
		realID, err := insertTypeTx(tx, &t)
		if err != nil {
			return fmt.Errorf("commit batch: type %q: %w", t.QualifiedName, err)
		}
		fakeToReal[t.ID] = realID
	}

	// 2. Supertypes
	for _, st := range batch.Supertypes {
		if st.TypeID < 0 {
			realID, ok := fakeToReal[st.TypeID]
			if !ok {
				return fmt.Errorf("commit batch: supertype %q has type_id=%d not in fakeToReal map (have %d types)", st.RawName, st.TypeID, len(batch.Types))
			}
			st.TypeID = realID
		}
		realID, err := insertSupertypeTx(tx, &st)
		if err != nil {
			return fmt.Errorf("commit batch: supertype %q: %w", st.RawName, err)
		}
		fakeToReal[st.ID] = realID
	}

	// 3. Imports
	for _, imp := range batch.Imports {
		realID, err := insertImportTx(tx, &imp)
		if err != nil {
			return fmt.Errorf("commit batch: import %q: %w", imp.Path, err)
		}
		fakeToReal[imp.ID] = realID
	}

	return tx.Commit()
}

// --- Transaction-scoped insert helpers ---
// These mirror the Store insert methods but accept *sql.Tx instead of using s.db.

func insertTypeTx(tx *sql.Tx, t *Type) (int64, error) {
	res, err := tx.Exec(
		`INSERT INTO types (file_id, name, qualified_name, kind, line, col)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		t.FileID, t.Name, t.QualifiedName, t.Kind, t.Line, t.Col,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func insertSupertypeTx(tx *sql.Tx, st *Supertype) (int64, error) {
	res, err := tx.Exec(
		`INSERT INTO supertypes (type_id, raw_name, resolved_name, ordinal)
		 VALUES (?, ?, ?, ?)`,
		st.TypeID, st.RawName, st.ResolvedName, st.Ordinal,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func insertImportTx(tx *sql.Tx, imp *Import) (int64, error) {
	res, err := tx.Exec(
		`INSERT INTO imports (file_id, path, alias, wildcard)
		 VALUES (?, ?, ?, ?)`,
		imp.FileID, imp.Path, imp.Alias, imp.Wildcard,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}
