package database

import (
	"database/sql"
	"fmt"
	"sort"
)

// Catalog is a names-only snapshot of a database's tables and their
// columns, taken once per session. All schema resolution works against
// this snapshot; no identifier is ever used in a query without having
// been seen here first.
type Catalog struct {
	columns map[string][]string // table name -> column names, in table order
}

// LoadCatalog introspects the live database's table/column catalog.
// Only names are read, no data.
func LoadCatalog(db *sql.DB) (*Catalog, error) {
	rows, err := db.Query("SELECT name FROM sqlite_master WHERE type = 'table' ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("listing tables: %w", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning table name: %w", err)
		}
		tables = append(tables, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing tables: %w", err)
	}

	cat := &Catalog{columns: make(map[string][]string, len(tables))}
	for _, table := range tables {
		cols, err := tableColumns(db, table)
		if err != nil {
			return nil, err
		}
		cat.columns[table] = cols
	}
	return cat, nil
}

func tableColumns(db *sql.DB, table string) ([]string, error) {
	// PRAGMA table_info does not support bound parameters; the table name
	// comes straight from sqlite_master, so it is safe to interpolate.
	rows, err := db.Query(fmt.Sprintf("PRAGMA table_info(%q)", table))
	if err != nil {
		return nil, fmt.Errorf("introspecting table %s: %w", table, err)
	}
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var (
			cid        int
			name, typ  string
			notNull    int
			defaultVal sql.NullString
			pk         int
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &defaultVal, &pk); err != nil {
			return nil, fmt.Errorf("scanning column of %s: %w", table, err)
		}
		cols = append(cols, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("introspecting table %s: %w", table, err)
	}
	return cols, nil
}

// HasTable reports whether the catalog contains a table with this name.
func (c *Catalog) HasTable(name string) bool {
	_, ok := c.columns[name]
	return ok
}

// HasColumn reports whether table exists and has a column with this name.
func (c *Catalog) HasColumn(table, column string) bool {
	for _, col := range c.columns[table] {
		if col == column {
			return true
		}
	}
	return false
}

// Columns returns the column names of table, in table order. Returns nil
// for an unknown table.
func (c *Catalog) Columns(table string) []string {
	return c.columns[table]
}

// Tables returns all table names in lexicographic order.
func (c *Catalog) Tables() []string {
	names := make([]string, 0, len(c.columns))
	for name := range c.columns {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
