package record

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/indieinfra/cloudshelf/config"
	"github.com/indieinfra/cloudshelf/media"
	storageutil "github.com/indieinfra/cloudshelf/storage/util"
)

type placeholderStyle int

const (
	placeholderQuestion placeholderStyle = iota
	placeholderDollar
)

const recordColumns = "id, external_id, name, url, created_at"

type SQLRecordStore struct {
	cfg         *config.SQLRecordStrategy
	db          *sql.DB
	driver      string
	tables      map[media.Kind]string
	placeholder placeholderStyle
}

func NewSQLRecordStore(cfg *config.SQLRecordStrategy) (*SQLRecordStore, error) {
	store, err := newSQLRecordStoreWithDB(cfg, nil)
	if err != nil {
		return nil, err
	}

	dsn, err := prepareDSN(store.driver, cfg.DSN)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(store.driver, dsn)
	if err != nil {
		return nil, err
	}

	store.db = db

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := store.initSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

func newSQLRecordStoreWithDB(cfg *config.SQLRecordStrategy, db *sql.DB) (*SQLRecordStore, error) {
	if cfg == nil {
		return nil, fmt.Errorf("record sql config is nil")
	}

	driverName, err := resolveSQLDriverName(cfg.Driver)
	if err != nil {
		return nil, err
	}

	prefix := "cloudshelf"
	if cfg.TablePrefix != nil {
		prefix = *cfg.TablePrefix
	}

	placeholder := placeholderQuestion
	if driverName == "pgx" {
		placeholder = placeholderDollar
	}

	return &SQLRecordStore{
		cfg:    cfg,
		db:     db,
		driver: driverName,
		tables: map[media.Kind]string{
			media.KindImage: storageutil.DeriveTableName(prefix, "images"),
			media.KindVideo: storageutil.DeriveTableName(prefix, "videos"),
		},
		placeholder: placeholder,
	}, nil
}

func resolveSQLDriverName(driver string) (string, error) {
	switch strings.ToLower(driver) {
	case "postgres":
		return "pgx", nil
	case "mysql":
		return "mysql", nil
	case "sqlite":
		return "sqlite", nil
	default:
		return "", fmt.Errorf("unsupported sql driver %q", driver)
	}
}

// prepareDSN makes sure MySQL hands back DATETIME columns as time.Time.
func prepareDSN(driver, dsn string) (string, error) {
	if driver != "mysql" {
		return dsn, nil
	}

	parsed, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("invalid mysql dsn: %w", err)
	}
	parsed.ParseTime = true

	return parsed.FormatDSN(), nil
}

func (rs *SQLRecordStore) Close() error {
	if rs.db == nil {
		return nil
	}

	return rs.db.Close()
}

func (rs *SQLRecordStore) initSchema(ctx context.Context) error {
	for _, kind := range []media.Kind{media.KindImage, media.KindVideo} {
		if _, err := rs.db.ExecContext(ctx, rs.schemaQuery(rs.tables[kind])); err != nil {
			return fmt.Errorf("failed to create %s table: %w", kind, err)
		}
	}

	return nil
}

func (rs *SQLRecordStore) schemaQuery(table string) string {
	timestampType := "TIMESTAMP"
	if rs.driver == "mysql" {
		timestampType = "DATETIME(6)"
	}

	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
id VARCHAR(36) PRIMARY KEY,
external_id VARCHAR(255) NOT NULL,
name TEXT NOT NULL,
url TEXT NOT NULL,
created_at %s NOT NULL
)`, table, timestampType)
}

func (rs *SQLRecordStore) Insert(ctx context.Context, kind media.Kind, rec *Record) error {
	table, err := rs.table(kind)
	if err != nil {
		return err
	}

	// v7 ids sort by creation time, so they break created_at ties in insertion order.
	uuidV7, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("generate record id: %w", err)
	}
	id := uuidV7.String()

	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	if _, err := rs.db.ExecContext(ctx, rs.insertQuery(table), id, rec.ExternalID, rec.Name, rec.URL, createdAt); err != nil {
		return fmt.Errorf("insert %s record: %w", kind, err)
	}

	rec.ID = id
	rec.CreatedAt = createdAt
	return nil
}

func (rs *SQLRecordStore) FindAll(ctx context.Context, kind media.Kind) ([]*Record, error) {
	table, err := rs.table(kind)
	if err != nil {
		return nil, err
	}

	rows, err := rs.db.QueryContext(ctx, rs.selectAllQuery(table))
	if err != nil {
		return nil, fmt.Errorf("list %s records: %w", kind, err)
	}
	defer rows.Close()

	records := make([]*Record, 0)
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.ExternalID, &rec.Name, &rec.URL, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan %s record: %w", kind, err)
		}
		records = append(records, &rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list %s records: %w", kind, err)
	}

	return records, nil
}

func (rs *SQLRecordStore) FindByID(ctx context.Context, kind media.Kind, id string) (*Record, error) {
	return rs.findBy(ctx, kind, "id", id)
}

func (rs *SQLRecordStore) FindByExternalID(ctx context.Context, kind media.Kind, externalID string) (*Record, error) {
	return rs.findBy(ctx, kind, "external_id", externalID)
}

func (rs *SQLRecordStore) DeleteByID(ctx context.Context, kind media.Kind, id string) error {
	return rs.deleteBy(ctx, kind, "id", id)
}

func (rs *SQLRecordStore) DeleteByExternalID(ctx context.Context, kind media.Kind, externalID string) error {
	return rs.deleteBy(ctx, kind, "external_id", externalID)
}

func (rs *SQLRecordStore) findBy(ctx context.Context, kind media.Kind, column, value string) (*Record, error) {
	table, err := rs.table(kind)
	if err != nil {
		return nil, err
	}

	var rec Record
	row := rs.db.QueryRowContext(ctx, rs.selectByQuery(table, column), value)
	if err := row.Scan(&rec.ID, &rec.ExternalID, &rec.Name, &rec.URL, &rec.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find %s record: %w", kind, err)
	}

	return &rec, nil
}

func (rs *SQLRecordStore) deleteBy(ctx context.Context, kind media.Kind, column, value string) error {
	table, err := rs.table(kind)
	if err != nil {
		return err
	}

	res, err := rs.db.ExecContext(ctx, rs.deleteByQuery(table, column), value)
	if err != nil {
		return fmt.Errorf("delete %s record: %w", kind, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete %s record: %w", kind, err)
	}

	if affected == 0 {
		return ErrNotFound
	}

	return nil
}

func (rs *SQLRecordStore) table(kind media.Kind) (string, error) {
	table, ok := rs.tables[kind]
	if !ok {
		return "", fmt.Errorf("no table for media kind %q", kind)
	}

	return table, nil
}

func (rs *SQLRecordStore) insertQuery(table string) string {
	return fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s, %s, %s, %s, %s)",
		table,
		recordColumns,
		rs.placeholderFor(1),
		rs.placeholderFor(2),
		rs.placeholderFor(3),
		rs.placeholderFor(4),
		rs.placeholderFor(5),
	)
}

func (rs *SQLRecordStore) selectAllQuery(table string) string {
	return fmt.Sprintf("SELECT %s FROM %s ORDER BY created_at, id", recordColumns, table)
}

func (rs *SQLRecordStore) selectByQuery(table, column string) string {
	return fmt.Sprintf("SELECT %s FROM %s WHERE %s = %s", recordColumns, table, column, rs.placeholderFor(1))
}

func (rs *SQLRecordStore) deleteByQuery(table, column string) string {
	return fmt.Sprintf("DELETE FROM %s WHERE %s = %s", table, column, rs.placeholderFor(1))
}

func (rs *SQLRecordStore) placeholderFor(index int) string {
	if rs.placeholder == placeholderDollar {
		return fmt.Sprintf("$%d", index)
	}

	return "?"
}
