package postgres

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/sqlmatch/pkg/adapter"
)

func TestBuildPostgresDSN(t *testing.T) {
	tests := []struct {
		name     string
		config   adapter.Config
		expected string
	}{
		{
			name: "basic connection",
			config: adapter.Config{
				Host:     "localhost",
				Port:     5432,
				Database: "testdb",
				Username: "user",
				Password: "pass",
			},
			expected: "host=localhost port=5432 dbname=testdb sslmode=disable user=user password=pass",
		},
		{
			name: "with custom sslmode",
			config: adapter.Config{
				Host:     "prod.example.com",
				Port:     5432,
				Database: "proddb",
				Username: "admin",
				Options:  map[string]string{"sslmode": "require"},
			},
			expected: "host=prod.example.com port=5432 dbname=proddb sslmode=require user=admin",
		},
		{
			name:     "defaults",
			config:   adapter.Config{Database: "mydb"},
			expected: "host=localhost port=5432 dbname=mydb sslmode=disable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, buildPostgresDSN(tt.config))
		})
	}
}

func mockAdapter(t *testing.T, cfg adapter.Config) (*Adapter, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	adp := New(nil)
	adp.DB = db
	adp.Cfg = cfg
	return adp, mock
}

func TestAdapter_Schema(t *testing.T) {
	adp, mock := mockAdapter(t, adapter.Config{Database: "flights", Schema: "spider"})

	mock.ExpectQuery(regexp.QuoteMeta(adapter.InformationSchemaQuery("$1"))).
		WithArgs("spider").
		WillReturnRows(sqlmock.NewRows([]string{"table_name", "column_name"}).
			AddRow("airlines", "uid").
			AddRow("airlines", "airline").
			AddRow("flights", "airline").
			AddRow("flights", "flightno"))

	s, err := adp.Schema(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "flights", s.Name())
	assert.Equal(t, []string{"airlines", "flights"}, s.Tables())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdapter_ForeignKeys(t *testing.T) {
	adp, mock := mockAdapter(t, adapter.Config{Database: "flights"})

	mock.ExpectQuery("FOREIGN KEY").
		WithArgs("public").
		WillReturnRows(sqlmock.NewRows([]string{"table_name", "column_name", "table_name", "column_name"}).
			AddRow("flights", "airline", "airlines", "uid"))

	fk, err := adp.ForeignKeys(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"__airlines.uid__":    "__airlines.uid__",
		"__flights.airline__": "__airlines.uid__",
	}, fk)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdapter_NotConnected(t *testing.T) {
	adp := New(nil)
	_, err := adp.ForeignKeys(context.Background())
	require.ErrorIs(t, err, adapter.ErrNotConnected)
	_, err = adp.Schema(context.Background())
	require.ErrorIs(t, err, adapter.ErrNotConnected)
}
