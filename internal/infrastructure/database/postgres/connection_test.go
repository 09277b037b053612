package postgres

import (
	"context"
	"database/sql"
	"errors"
	"io/fs"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/KeyIP-CostEngine/internal/config"
	"github.com/turtacn/KeyIP-CostEngine/internal/testutil"
	pkgerrors "github.com/turtacn/KeyIP-CostEngine/pkg/errors"
)

func stubOpen(t *testing.T, db *sql.DB, err error) *string {
	t.Helper()
	var gotDSN string
	prev := sqlOpen
	sqlOpen = func(driver, dsn string) (*sql.DB, error) {
		assert.Equal(t, DriverName, driver)
		gotDSN = dsn
		return db, err
	}
	t.Cleanup(func() { sqlOpen = prev })
	return &gotDSN
}

func testDBConfig() config.DatabaseConfig {
	return config.DatabaseConfig{Host: "db", Port: 5432, User: "ipcost", Password: "pw", DBName: "ipcost", SSLMode: "disable", MaxConns: 4}
}

func TestOpen_PingsAndLogs(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	mock.ExpectPing()
	dsn := stubOpen(t, db, nil)
	log := testutil.NewMockLogger()

	conn, err := Open(context.Background(), testDBConfig(), log)

	require.NoError(t, err)
	assert.Equal(t, "postgres://ipcost:pw@db:5432/ipcost?sslmode=disable", *dsn)
	assert.True(t, log.HasMessage("info", "connected to PostgreSQL"))
	assert.Equal(t, 4, conn.DB().Stats().MaxOpenConnections)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOpen_PingFailure(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	mock.ExpectPing().WillReturnError(errors.New("connection refused"))
	mock.ExpectClose()
	stubOpen(t, db, nil)

	conn, err := Open(context.Background(), testDBConfig(), testutil.NewMockLogger())

	assert.Nil(t, conn)
	assert.Equal(t, pkgerrors.ErrCodeDatabaseError, pkgerrors.GetCode(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOpen_DriverError(t *testing.T) {
	stubOpen(t, nil, errors.New("unknown driver"))

	_, err := Open(context.Background(), testDBConfig(), testutil.NewMockLogger())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodeDatabaseError))
}

func TestConnection_HealthCheckAndClose(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	log := testutil.NewMockLogger()
	conn := NewConnectionWithDB(db, log)

	mock.ExpectPing()
	assert.NoError(t, conn.HealthCheck(context.Background()))

	mock.ExpectPing().WillReturnError(errors.New("down"))
	assert.Error(t, conn.HealthCheck(context.Background()))

	mock.ExpectClose()
	assert.NoError(t, conn.Close())
	assert.NoError(t, conn.Close())
	assert.True(t, log.HasMessage("info", "closed PostgreSQL connection"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEmbeddedMigrations(t *testing.T) {
	names, err := fs.Glob(migrationFS, "migrations/*.sql")
	require.NoError(t, err)

	ups, downs := 0, 0
	for _, n := range names {
		switch {
		case len(n) > 7 && n[len(n)-7:] == ".up.sql":
			ups++
		case len(n) > 9 && n[len(n)-9:] == ".down.sql":
			downs++
		}
	}
	assert.Equal(t, 3, ups)
	assert.Equal(t, ups, downs)
}

//Personal.AI order the ending
