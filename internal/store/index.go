package store

import (
	"database/sql"
	"fmt"
)

// --- File operations ---

func (s *Store) InsertFile(f *File) (int64, error) {
	res, err := s.db.Exec(
		"INSERT INTO files (path, kind, hash, line_count, last_analyzed) VALUES (?, ?, ?, ?, ?)",
		f.Path, f.Kind, f.Hash, f.LineCount, f.LastAnalyzed,
	)
	if err != nil {
		return 0, fmt.Errorf("insert file: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	f.ID = id
	return id, nil
}

const fileCols = `id, path, kind, hash, line_count, last_analyzed`

func (s *Store) fileWhere(where string, arg any) (*File, error) {
	f := &File{}
	err := s.db.QueryRow("SELECT "+fileCols+" FROM files WHERE "+where, arg).
		Scan(&f.ID, &f.Path, &f.Kind, &f.Hash, &f.LineCount, &f.LastAnalyzed)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return f, nil
}

// FileByPath returns the file recorded under a project-relative path, or nil.
func (s *Store) FileByPath(path string) (*File, error) {
	f, err := s.fileWhere("path = ?", path)
	if err != nil {
		return nil, fmt.Errorf("file by path: %w", err)
	}
	return f, nil
}

// FileByID returns a file by ID, or nil.
func (s *Store) FileByID(id int64) (*File, error) {
	f, err := s.fileWhere("id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("file by id: %w", err)
	}
	return f, nil
}

func (s *Store) FilesByKind(kind string) ([]*File, error) {
	rows, err := s.db.Query(
		"SELECT "+fileCols+" FROM files WHERE kind = ? ORDER BY path", kind,
	)
	if err != nil {
		return nil, fmt.Errorf("files by kind: %w", err)
	}
	defer rows.Close()
	var files []*File
	for rows.Next() {
		f := &File{}
		if err := rows.Scan(&f.ID, &f.Path, &f.Kind, &f.Hash, &f.LineCount, &f.LastAnalyzed); err != nil {
			return nil, fmt.Errorf("scan file: %w", err)
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

// --- Type operations ---

func (s *Store) InsertType(t *Type) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO types (file_id, name, qualified_name, kind, line, col)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		t.FileID, t.Name, t.QualifiedName, t.Kind, t.Line, t.Col,
	)
	if err != nil {
		return 0, fmt.Errorf("insert type: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	t.ID = id
	return id, nil
}

// TypeCols is the column list for type queries, exported for use by
// QueryBuilder.
const TypeCols = `id, file_id, name, qualified_name, kind, line, col`

// ScanTypeRow scans a single row selected with TypeCols.
func ScanTypeRow(scanner interface{ Scan(...any) error }) (*Type, error) {
	t := &Type{}
	if err := scanner.Scan(&t.ID, &t.FileID, &t.Name, &t.QualifiedName, &t.Kind, &t.Line, &t.Col); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *Store) queryTypes(query string, args ...any) ([]*Type, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var types []*Type
	for rows.Next() {
		t, err := ScanTypeRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan type: %w", err)
		}
		types = append(types, t)
	}
	return types, rows.Err()
}

func (s *Store) TypesByFile(fileID int64) ([]*Type, error) {
	return s.queryTypes("SELECT "+TypeCols+" FROM types WHERE file_id = ? ORDER BY line, col", fileID)
}

func (s *Store) TypesByName(name string) ([]*Type, error) {
	return s.queryTypes("SELECT "+TypeCols+" FROM types WHERE name = ? ORDER BY qualified_name", name)
}

// TypeByQualifiedName returns the first type declared under qn, or nil.
func (s *Store) TypeByQualifiedName(qn string) (*Type, error) {
	types, err := s.queryTypes("SELECT "+TypeCols+" FROM types WHERE qualified_name = ? ORDER BY id LIMIT 1", qn)
	if err != nil {
		return nil, fmt.Errorf("type by qualified name: %w", err)
	}
	if len(types) == 0 {
		return nil, nil
	}
	return types[0], nil
}

// --- Supertype operations ---

func (s *Store) InsertSupertype(st *Supertype) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO supertypes (type_id, raw_name, resolved_name, ordinal)
		 VALUES (?, ?, ?, ?)`,
		st.TypeID, st.RawName, st.ResolvedName, st.Ordinal,
	)
	if err != nil {
		return 0, fmt.Errorf("insert supertype: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	st.ID = id
	return id, nil
}

func (s *Store) SupertypesByType(typeID int64) ([]*Supertype, error) {
	rows, err := s.db.Query(
		"SELECT id, type_id, raw_name, resolved_name, ordinal FROM supertypes WHERE type_id = ? ORDER BY ordinal", typeID,
	)
	if err != nil {
		return nil, fmt.Errorf("supertypes by type: %w", err)
	}
	defer rows.Close()
	var out []*Supertype
	for rows.Next() {
		st := &Supertype{}
		if err := rows.Scan(&st.ID, &st.TypeID, &st.RawName, &st.ResolvedName, &st.Ordinal); err != nil {
			return nil, fmt.Errorf("scan supertype: %w", err)
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

// Supertypes returns the resolved direct supertypes of every type declared
// under qn, in declaration order. It makes Store usable as an
// ancestry.Hierarchy.
func (s *Store) Supertypes(qn string) ([]string, error) {
	rows, err := s.db.Query(
		`SELECT st.resolved_name FROM supertypes st
		 JOIN types t ON t.id = st.type_id
		 WHERE t.qualified_name = ?
		 ORDER BY t.id, st.ordinal`, qn,
	)
	if err != nil {
		return nil, fmt.Errorf("supertypes of %s: %w", qn, err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan supertype: %w", err)
		}
		out = append(out, name)
	}
	return out, rows.Err()
}

// Subtypes returns the types whose direct supertypes include qn.
func (s *Store) Subtypes(qn string) ([]*Type, error) {
	return s.queryTypes(
		`SELECT `+prefixedTypeCols+` FROM types t
		 JOIN supertypes st ON st.type_id = t.id
		 WHERE st.resolved_name = ?
		 ORDER BY t.qualified_name`, qn,
	)
}

const prefixedTypeCols = `t.id, t.file_id, t.name, t.qualified_name, t.kind, t.line, t.col`

// --- Import operations ---

func (s *Store) InsertImport(imp *Import) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO imports (file_id, path, alias, wildcard)
		 VALUES (?, ?, ?, ?)`,
		imp.FileID, imp.Path, imp.Alias, imp.Wildcard,
	)
	if err != nil {
		return 0, fmt.Errorf("insert import: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	imp.ID = id
	return id, nil
}

func (s *Store) ImportsByFile(fileID int64) ([]*Import, error) {
	rows, err := s.db.Query(
		"SELECT id, file_id, path, alias, wildcard FROM imports WHERE file_id = ? ORDER BY id", fileID,
	)
	if err != nil {
		return nil, fmt.Errorf("imports by file: %w", err)
	}
	defer rows.Close()
	var out []*Import
	for rows.Next() {
		imp := &Import{}
		if err := rows.Scan(&imp.ID, &imp.FileID, &imp.Path, &imp.Alias, &imp.Wildcard); err != nil {
			return nil, fmt.Errorf("scan import: %w", err)
		}
		out = append(out, imp)
	}
	return out, rows.Err()
}
