// Package gormtx binds gorm operations to an externally managed *sql.Tx so
// repository writes run inside the transaction their service opened.
package gormtx

import (
	"database/sql"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Bind returns a gorm handle whose statements execute on tx instead of the
// pool. Commit and rollback stay with the caller that began the transaction.
func Bind(db *gorm.DB, tx *sql.Tx) *gorm.DB {
	txdb, err := gorm.Open(postgres.New(postgres.Config{Conn: tx}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 db.Config.Logger,
	})
	if err != nil {
		// Initialization over an existing connection does no I/O; if it
		// ever fails, surface the error on the handle instead of silently
		// falling back to the pool.
		failed := db.Session(&gorm.Session{NewDB: true})
		_ = failed.AddError(err)
		return failed
	}
	return txdb
}
