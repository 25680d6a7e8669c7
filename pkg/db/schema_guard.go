package db

import (
	"database/sql"
	"fmt"
	"strings"
)

// ColumnType represents expected column schema
type ColumnType struct {
	Name     string
	DataType string
	Nullable bool
}

// TableSchema represents expected table structure
type TableSchema struct {
	Name    string
	Columns []ColumnType
}

// SchemaGuard validates database schema matches expectations
type SchemaGuard struct {
	db *sql.DB
}

// NewSchemaGuard creates a new schema guard
func NewSchemaGuard(db *sql.DB) *SchemaGuard {
	return &SchemaGuard{db: db}
}

// ValidateTable validates a table's schema
func (sg *SchemaGuard) ValidateTable(schema TableSchema) error {
	query := `
		SELECT COLUMN_NAME, DATA_TYPE, IS_NULLABLE
		FROM INFORMATION_SCHEMA.COLUMNS
		WHERE TABLE_SCHEMA = DATABASE()
		AND TABLE_NAME = ?
		ORDER BY ORDINAL_POSITION
	`

	rows, err := sg.db.Query(query, schema.Name)
	if err != nil {
		return fmt.Errorf("failed to query table schema for %s: %w", schema.Name, err)
	}
	defer rows.Close()

	actual := make(map[string]ColumnType)
	for rows.Next() {
		var colName, dataType, isNullable string
		if err := rows.Scan(&colName, &dataType, &isNullable); err != nil {
			return fmt.Errorf("failed to scan column info: %w", err)
		}
		actual[colName] = ColumnType{
			Name:     colName,
			DataType: dataType,
			Nullable: isNullable == "YES",
		}
	}

	if len(actual) == 0 {
		return fmt.Errorf("table %s does not exist or has no columns", schema.Name)
	}

	for _, want := range schema.Columns {
		got, exists := actual[want.Name]
		if !exists {
			return fmt.Errorf("table %s missing expected column: %s", schema.Name, want.Name)
		}

		// Base type match, tolerating size specifications (varchar vs varchar(191))
		if !strings.HasPrefix(got.DataType, want.DataType) {
			return fmt.Errorf("table %s column %s has type %s, expected %s",
				schema.Name, want.Name, got.DataType, want.DataType)
		}
	}

	return nil
}

// ValidateTables validates multiple tables
func (sg *SchemaGuard) ValidateTables(schemas []TableSchema) error {
	for _, schema := range schemas {
		if err := sg.ValidateTable(schema); err != nil {
			return err
		}
	}
	return nil
}
