package models

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
	"gorm.io/gen"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

/*
Column report usage:

Set GENERATE_COLUMN_REPORT=true and start the service. It compares the columns of the
articles table with the Article struct and exits:

	--- table blog_articles ---
	columns not mapped by the model: legacy_views
	model fields missing from the table: none

GENERATE_MODELS=true migrates the table, prints the same report and writes the typed
query helpers to GENERATE_OUT_PATH (default ./query).
*/

// ColumnReport lists the differences between a table and the Article model.
type ColumnReport struct {
	Table         string
	UnmappedInDB  []string // present in the table, unknown to the model
	MissingFromDB []string // declared by the model, absent from the table
}

func (r ColumnReport) Clean() bool {
	return len(r.UnmappedInDB) == 0 && len(r.MissingFromDB) == 0
}

// GenerateModels migrates the articles table and generates query helpers into outPath.
func GenerateModels(db *gorm.DB, table, outPath string) error {
	if err := db.Exec("SELECT 1").Error; err != nil {
		return fmt.Errorf("database not ready: %w", err)
	}

	migrateDB := db.Session(&gorm.Session{SkipDefaultTransaction: true, PrepareStmt: false})
	if err := migrateDB.Table(table).AutoMigrate(&Article{}); err != nil {
		return fmt.Errorf("migrate %s: %w", table, err)
	}
	log.Info().Str("table", table).Msg("Articles table migrated")

	report, err := BuildColumnReport(db, table)
	if err != nil {
		return err
	}
	LogColumnReport(report)

	g := gen.NewGenerator(gen.Config{
		OutPath:           outPath,
		Mode:              gen.WithDefaultQuery | gen.WithQueryInterface,
		FieldNullable:     true,
		FieldCoverable:    true,
		FieldWithIndexTag: true,
		FieldWithTypeTag:  true,
	})
	g.UseDB(db)
	g.ApplyBasic(Article{})
	g.Execute()

	log.Info().Str("outPath", outPath).Msg("Model generation complete")
	return nil
}

// BuildColumnReport compares the live table with the Article model.
func BuildColumnReport(db *gorm.DB, table string) (ColumnReport, error) {
	report := ColumnReport{Table: table}

	dbColumns, err := tableColumns(db, table)
	if err != nil {
		return report, err
	}
	modelColumns, err := ArticleColumns()
	if err != nil {
		return report, err
	}

	report.UnmappedInDB = difference(dbColumns, modelColumns)
	report.MissingFromDB = difference(modelColumns, dbColumns)
	return report, nil
}

func LogColumnReport(report ColumnReport) {
	event := log.Info()
	if !report.Clean() {
		event = log.Warn()
	}
	event.
		Str("table", report.Table).
		Strs("unmappedInDB", report.UnmappedInDB).
		Strs("missingFromDB", report.MissingFromDB).
		Msg("Column report")
}

// ArticleColumns returns the column names gorm maps for Article, in declaration order.
func ArticleColumns() ([]string, error) {
	s, err := schema.Parse(&Article{}, &sync.Map{}, schema.NamingStrategy{})
	if err != nil {
		return nil, fmt.Errorf("parse article schema: %w", err)
	}
	columns := make([]string, 0, len(s.Fields))
	for _, field := range s.Fields {
		if field.DBName != "" {
			columns = append(columns, field.DBName)
		}
	}
	return columns, nil
}

func tableColumns(db *gorm.DB, table string) ([]string, error) {
	if !db.Migrator().HasTable(table) {
		return nil, fmt.Errorf("table %s does not exist", table)
	}
	columnTypes, err := db.Migrator().ColumnTypes(table)
	if err != nil {
		return nil, fmt.Errorf("read columns of %s: %w", table, err)
	}
	columns := make([]string, 0, len(columnTypes))
	for _, ct := range columnTypes {
		columns = append(columns, ct.Name())
	}
	return columns, nil
}

// difference returns the items of a that are not in b, keeping a's order.
func difference(a, b []string) []string {
	seen := make(map[string]struct{}, len(b))
	for _, item := range b {
		seen[item] = struct{}{}
	}
	var out []string
	for _, item := range a {
		if _, ok := seen[item]; !ok {
			out = append(out, item)
		}
	}
	return out
}
