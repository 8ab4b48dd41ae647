package database

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/rpupo63/blog-publisher-backend/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestParseEndpoint(t *testing.T) {
	testCases := []struct {
		name    string
		spec    string
		want    Endpoint
		wantErr bool
	}{
		{
			name: "full",
			spec: "primary=db1.internal:5433?sslmode=require",
			want: Endpoint{Name: "primary", Host: "db1.internal", Port: 5433, SSLMode: "require"},
		},
		{
			name: "host only",
			spec: "db2",
			want: Endpoint{Name: "db2:5432", Host: "db2", Port: 5432},
		},
		{
			name: "ipv6",
			spec: "local=[::1]:6543",
			want: Endpoint{Name: "local", Host: "::1", Port: 6543},
		},
		{
			name: "blank name",
			spec: " =db3:5432 ",
			want: Endpoint{Name: "db3:5432", Host: "db3", Port: 5432},
		},
		{name: "no host", spec: "name=", wantErr: true},
		{name: "bad port", spec: "x=db:abc", wantErr: true},
		{name: "bad options", spec: "x=db:5432?sslmode=%zz", wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseEndpoint(tc.spec)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestEndpointDSN(t *testing.T) {
	opts := ConnectOptions{Database: "blog", User: "admin", Password: "pw", SSLMode: "require"}

	dsn := Endpoint{Host: "db1", Port: 5433}.DSN(opts)
	assert.Equal(t, "host=db1 user=admin password=pw dbname=blog port=5433 sslmode=require connect_timeout=10", dsn)

	dsn = Endpoint{Host: "db1", Port: 5433, SSLMode: "disable"}.DSN(opts)
	assert.Contains(t, dsn, "sslmode=disable")

	opts.Password = `it's a \secret`
	dsn = Endpoint{Host: "db1", Port: 5433}.DSN(opts)
	assert.Contains(t, dsn, `password='it\'s a \\secret' dbname=blog`)

	opts.Password = ""
	dsn = Endpoint{Host: "db1", Port: 5433}.DSN(opts)
	assert.Contains(t, dsn, "password='' dbname=blog")
}

// healthyDB answers the probe queries; tableCount is what information_schema reports.
func healthyDB(t *testing.T, tableCount int) *gorm.DB {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	mock.ExpectExec(`SELECT 1`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT count\(\*\) FROM information_schema.tables`).
		WithArgs("blog_articles").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(tableCount))
	return openMock(t, mockDB)
}

func TestConnect(t *testing.T) {
	endpoints := []Endpoint{
		{Name: "pooler", Host: "pooler.internal", Port: 6543},
		{Name: "direct-no-table", Host: "direct.internal", Port: 5432},
		{Name: "direct", Host: "direct2.internal", Port: 5432},
	}

	var tried []string
	opts := ConnectOptions{
		Database:     "blog",
		User:         "admin",
		Table:        "blog_articles",
		RequireTable: true,
		Open: func(dsn string) (*gorm.DB, error) {
			tried = append(tried, dsn)
			switch {
			case strings.Contains(dsn, "host=pooler.internal"):
				return nil, errors.New("dial tcp: connection refused")
			case strings.Contains(dsn, "host=direct.internal"):
				return healthyDB(t, 0), nil
			default:
				return healthyDB(t, 1), nil
			}
		},
	}

	db, selected, err := Connect(context.Background(), endpoints, opts)
	require.NoError(t, err)
	assert.NotNil(t, db)
	assert.Equal(t, "direct", selected.Name)
	assert.Len(t, tried, 3)
}

func TestConnectWithoutTableCheck(t *testing.T) {
	opts := ConnectOptions{
		Open: func(string) (*gorm.DB, error) {
			mockDB, mock, err := sqlmock.New()
			require.NoError(t, err)
			mock.ExpectExec(`SELECT 1`).WillReturnResult(sqlmock.NewResult(0, 0))
			return openMock(t, mockDB), nil
		},
	}

	_, selected, err := Connect(context.Background(), []Endpoint{{Name: "only", Host: "db", Port: 5432}}, opts)
	require.NoError(t, err)
	assert.Equal(t, "only", selected.Name)
}

func TestConnectAllFail(t *testing.T) {
	opts := ConnectOptions{
		Table:        "blog_articles",
		RequireTable: true,
		Open: func(string) (*gorm.DB, error) {
			return healthyDB(t, 0), nil
		},
	}

	_, _, err := Connect(context.Background(), []Endpoint{{Name: "a", Host: "a", Port: 1}, {Name: "b", Host: "b", Port: 2}}, opts)
	assert.True(t, errs.IsDatabaseConnectionError(err))

	var apiErr *errs.ApiErr
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, errs.IsTableMissingError(apiErr.Cause))
}

func TestConnectNoEndpoints(t *testing.T) {
	_, _, err := Connect(context.Background(), nil, ConnectOptions{})
	assert.True(t, errs.IsConfigMissingError(err))
}
