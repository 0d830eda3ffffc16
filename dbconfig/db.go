package dbconfig

import (
	"database/sql"

	_ "github.com/lib/pq"
)

// DBConfig reads the chain catalogue from postgres.
type DBConfig struct {
	db *sql.DB
}

// NewDBConfig opens a postgres connection pool for the provided connection string.
//
// Parameters:
// - connStr: the database connection string.
//
// Returns:
// - *DBConfig: a pointer to the newly created DBConfig instance.
// - error: an error if the connection string is rejected by the driver.
func NewDBConfig(connStr string) (*DBConfig, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, wrapDBError(ErrDatabaseConnect, err)
	}
	return &DBConfig{db: db}, nil
}

// NewDBConfigWithDB wraps an existing connection pool.
func NewDBConfigWithDB(db *sql.DB) *DBConfig {
	return &DBConfig{db: db}
}

// Close closes the connection pool.
func (r *DBConfig) Close() error {
	return r.db.Close()
}
