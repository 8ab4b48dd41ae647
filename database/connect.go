package database

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rpupo63/blog-publisher-backend/errs"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/plugin/dbresolver"
)

const defaultPort = 5432

// Endpoint is one candidate address for the primary database.
type Endpoint struct {
	Name    string
	Host    string
	Port    int
	SSLMode string
}

func (e Endpoint) Address() string {
	return net.JoinHostPort(e.Host, strconv.Itoa(e.Port))
}

// ParseEndpoint reads "name=host:port?sslmode=require". Name, port and
// sslmode are optional.
func ParseEndpoint(spec string) (Endpoint, error) {
	spec = strings.TrimSpace(spec)
	name, rest, found := strings.Cut(spec, "=")
	if !found {
		rest = spec
		name = ""
	}
	hostPort, rawQuery, _ := strings.Cut(rest, "?")
	if hostPort == "" {
		return Endpoint{}, fmt.Errorf("endpoint %q has no host", spec)
	}

	ep := Endpoint{Name: strings.TrimSpace(name), Host: hostPort, Port: defaultPort}
	if host, port, err := net.SplitHostPort(hostPort); err == nil {
		p, err := strconv.Atoi(port)
		if err != nil || p <= 0 {
			return Endpoint{}, fmt.Errorf("endpoint %q has invalid port %q", spec, port)
		}
		ep.Host, ep.Port = host, p
	}
	if rawQuery != "" {
		q, err := url.ParseQuery(rawQuery)
		if err != nil {
			return Endpoint{}, fmt.Errorf("endpoint %q has invalid options: %w", spec, err)
		}
		ep.SSLMode = q.Get("sslmode")
	}
	if ep.Name == "" {
		ep.Name = ep.Address()
	}
	return ep, nil
}

func ParseEndpoints(specs []string) ([]Endpoint, error) {
	endpoints := make([]Endpoint, 0, len(specs))
	for _, spec := range specs {
		ep, err := ParseEndpoint(spec)
		if err != nil {
			return nil, err
		}
		endpoints = append(endpoints, ep)
	}
	return endpoints, nil
}

// Opener opens a gorm handle for a DSN. Swapped out in tests.
type Opener func(dsn string) (*gorm.DB, error)

type ConnectOptions struct {
	Database       string
	User           string
	Password       string
	SSLMode        string // used when an endpoint does not set its own
	ConnectTimeout time.Duration
	Table          string
	RequireTable   bool     // reject endpoints where Table does not exist
	Replicas       []string // read-only DSNs registered through dbresolver
	GormConfig     *gorm.Config
	Open           Opener
}

func (o ConnectOptions) timeout() time.Duration {
	if o.ConnectTimeout <= 0 {
		return 10 * time.Second
	}
	return o.ConnectTimeout
}

// DSN builds the postgres connection string for this endpoint.
func (e Endpoint) DSN(opts ConnectOptions) string {
	sslMode := e.SSLMode
	if sslMode == "" {
		sslMode = opts.SSLMode
	}
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=%s connect_timeout=%d",
		dsnValue(e.Host), dsnValue(opts.User), dsnValue(opts.Password), dsnValue(opts.Database),
		e.Port, dsnValue(sslMode), int(opts.timeout().Seconds()))
}

// dsnValue quotes v for a key/value connection string when it is empty or
// holds a space, quote or backslash.
func dsnValue(v string) string {
	if v != "" && !strings.ContainsAny(v, " \t\n'\\") {
		return v
	}
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}

func (o ConnectOptions) openPostgres(dsn string) (*gorm.DB, error) {
	cfg := o.GormConfig
	if cfg == nil {
		cfg = &gorm.Config{}
	}
	return gorm.Open(postgres.New(postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: true,
	}), cfg)
}

// Connect tries each endpoint in order and keeps the first one that answers
// and, when RequireTable is set, already has the articles table.
func Connect(ctx context.Context, endpoints []Endpoint, opts ConnectOptions) (*gorm.DB, Endpoint, error) {
	if len(endpoints) == 0 {
		return nil, Endpoint{}, errs.NewConfigMissingError("DB_ENDPOINTS")
	}
	open := opts.Open
	if open == nil {
		open = opts.openPostgres
	}

	var lastErr error
	for i, ep := range endpoints {
		logger := log.With().
			Str("endpoint", ep.Name).
			Str("address", ep.Address()).
			Int("attempt", i+1).
			Int("of", len(endpoints)).
			Logger()
		logger.Info().Msg("Trying database endpoint")

		db, err := open(ep.DSN(opts))
		if err == nil {
			if err = probe(ctx, db, opts); err != nil {
				closeQuietly(db)
			}
		}
		if err != nil {
			logger.Warn().Err(err).Msg("Database endpoint rejected")
			lastErr = err
			continue
		}

		if len(opts.Replicas) > 0 {
			if err := useReplicas(db, opts.Replicas); err != nil {
				closeQuietly(db)
				return nil, Endpoint{}, errs.NewDatabaseConnectionError("Unable to register read replicas", err)
			}
			logger.Info().Int("replicas", len(opts.Replicas)).Msg("Read replicas registered")
		}

		logger.Info().Msg("Database endpoint selected")
		return db, ep, nil
	}

	return nil, Endpoint{}, errs.NewDatabaseConnectionError(
		fmt.Sprintf("All %d database endpoints failed", len(endpoints)), lastErr)
}

func probe(ctx context.Context, db *gorm.DB, opts ConnectOptions) error {
	ctx, cancel := context.WithTimeout(ctx, opts.timeout())
	defer cancel()

	if err := db.WithContext(ctx).Exec("SELECT 1").Error; err != nil {
		return err
	}
	if !opts.RequireTable {
		return nil
	}

	var count int64
	err := db.WithContext(ctx).
		Raw("SELECT count(*) FROM information_schema.tables WHERE table_schema = CURRENT_SCHEMA() AND table_name = ?", opts.Table).
		Scan(&count).Error
	if err != nil {
		return err
	}
	if count == 0 {
		return errs.NewTableMissingError(opts.Table)
	}
	return nil
}

func useReplicas(db *gorm.DB, dsns []string) error {
	replicas := make([]gorm.Dialector, 0, len(dsns))
	for _, dsn := range dsns {
		replicas = append(replicas, postgres.Open(dsn))
	}
	return db.Use(dbresolver.Register(dbresolver.Config{
		Replicas: replicas,
		Policy:   dbresolver.RandomPolicy{},
	}))
}

func closeQuietly(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
