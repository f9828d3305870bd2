package timesheet

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Writes issued through WithTx must run on the transaction connection, not
// on the shared pool: a rollback has to take the write with it.
func TestRepository_WithTxRunsOnTransaction(t *testing.T) {
	poolDB, poolMock, err := sqlmock.New()
	assert.NoError(t, err)
	defer poolDB.Close()

	txDB, txMock, err := sqlmock.New()
	assert.NoError(t, err)
	defer txDB.Close()

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: poolDB}), &gorm.Config{})
	assert.NoError(t, err)
	repo := NewRepository(gdb)

	entryID := uuid.New()
	txMock.ExpectBegin()
	txMock.ExpectQuery(`INSERT INTO "timesheet_entries"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(entryID.String()))
	txMock.ExpectRollback()

	tx, err := txDB.Begin()
	assert.NoError(t, err)

	entry := &TimesheetEntry{
		ID:          entryID,
		TimesheetID: uuid.New(),
		Project:     "Core",
		Task:        "Ops",
		Source:      SourceManual,
	}
	err = repo.WithTx(tx).CreateEntry(context.Background(), entry)
	assert.NoError(t, err)
	assert.NoError(t, tx.Rollback())

	// Pool mock has no expectations registered: had the insert gone to the
	// pool, CreateEntry itself would have errored.
	assert.NoError(t, poolMock.ExpectationsWereMet())
	assert.NoError(t, txMock.ExpectationsWereMet())
}

// Reads inside the transaction follow the same binding.
func TestRepository_WithTxReadsOnTransaction(t *testing.T) {
	poolDB, _, err := sqlmock.New()
	assert.NoError(t, err)
	defer poolDB.Close()

	txDB, txMock, err := sqlmock.New()
	assert.NoError(t, err)
	defer txDB.Close()

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: poolDB}), &gorm.Config{})
	assert.NoError(t, err)
	repo := NewRepository(gdb)

	timesheetID := uuid.New()
	txMock.ExpectBegin()
	txMock.ExpectQuery(`SELECT \* FROM "timesheet_entries"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "timesheet_id"}))
	txMock.ExpectCommit()

	tx, err := txDB.Begin()
	assert.NoError(t, err)

	rows, err := repo.WithTx(tx).FindEntries(context.Background(), timesheetID)
	assert.NoError(t, err)
	assert.Empty(t, rows)
	assert.NoError(t, tx.Commit())
	assert.NoError(t, txMock.ExpectationsWereMet())
}
