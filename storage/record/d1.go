package record

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	cloudflare "github.com/cloudflare/cloudflare-go/v6"
	cfd1 "github.com/cloudflare/cloudflare-go/v6/d1"
	"github.com/cloudflare/cloudflare-go/v6/option"
	"github.com/google/uuid"

	"github.com/indieinfra/cloudshelf/config"
	"github.com/indieinfra/cloudshelf/media"
	storageutil "github.com/indieinfra/cloudshelf/storage/util"
)

// d1TimeLayout is fixed width so that text ordering of created_at matches time ordering.
const d1TimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// D1RecordStore implements RecordStore on Cloudflare D1 via the HTTP API.
// It mirrors the tables of SQLRecordStore.
type D1RecordStore struct {
	cfg    *config.D1RecordStrategy
	client *cloudflare.Client
	tables map[media.Kind]string
}

// NewD1RecordStore builds a store and ensures both tables exist.
func NewD1RecordStore(cfg *config.D1RecordStrategy) (*D1RecordStore, error) {
	return newD1RecordStoreWithClient(cfg, nil)
}

// newD1RecordStoreWithClient lets tests point the Cloudflare client at a fake API.
func newD1RecordStoreWithClient(cfg *config.D1RecordStrategy, httpClient *http.Client) (*D1RecordStore, error) {
	if cfg == nil {
		return nil, fmt.Errorf("record d1 config is nil")
	}

	prefix := "cloudshelf"
	if cfg.TablePrefix != nil {
		prefix = *cfg.TablePrefix
	}

	store := &D1RecordStore{
		cfg:    cfg,
		client: buildD1Client(cfg, httpClient),
		tables: map[media.Kind]string{
			media.KindImage: storageutil.DeriveTableName(prefix, "images"),
			media.KindVideo: storageutil.DeriveTableName(prefix, "videos"),
		},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := store.initSchema(ctx); err != nil {
		return nil, err
	}

	return store, nil
}

// buildD1Client creates a Cloudflare client with the API token and an optional endpoint override.
func buildD1Client(cfg *config.D1RecordStrategy, httpClient *http.Client) *cloudflare.Client {
	opts := []option.RequestOption{option.WithAPIToken(strings.TrimSpace(cfg.APIToken))}

	if httpClient != nil {
		opts = append(opts, option.WithHTTPClient(httpClient))
	}

	if base := strings.TrimSpace(cfg.Endpoint); base != "" {
		opts = append(opts, option.WithBaseURL(strings.TrimSuffix(base, "/")))
	}

	return cloudflare.NewClient(opts...)
}

// initSchema doubles as the connectivity and credentials check.
func (ds *D1RecordStore) initSchema(ctx context.Context) error {
	for _, kind := range []media.Kind{media.KindImage, media.KindVideo} {
		if _, err := ds.executeQuery(ctx, ds.schemaQuery(ds.tables[kind]), nil); err != nil {
			return fmt.Errorf("d1 initialization failed (check account_id, database_id, and api_token): %w", err)
		}
	}

	return nil
}

func (ds *D1RecordStore) schemaQuery(table string) string {
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
id TEXT PRIMARY KEY,
external_id TEXT NOT NULL,
name TEXT NOT NULL,
url TEXT NOT NULL,
created_at TEXT NOT NULL
)`, table)
}

func (ds *D1RecordStore) insertQuery(table string) string {
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (?, ?, ?, ?, ?)", table, recordColumns)
}

func (ds *D1RecordStore) selectAllQuery(table string) string {
	return fmt.Sprintf("SELECT %s FROM %s ORDER BY created_at, id", recordColumns, table)
}

func (ds *D1RecordStore) selectByQuery(table, column string) string {
	return fmt.Sprintf("SELECT %s FROM %s WHERE %s = ? LIMIT 1", recordColumns, table, column)
}

// deleteByQuery returns the removed id so a miss can be told apart from a hit.
func (ds *D1RecordStore) deleteByQuery(table, column string) string {
	return fmt.Sprintf("DELETE FROM %s WHERE %s = ? RETURNING id", table, column)
}

func (ds *D1RecordStore) Insert(ctx context.Context, kind media.Kind, rec *Record) error {
	table, err := ds.table(kind)
	if err != nil {
		return err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("generate record id: %w", err)
	}

	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	createdAt = createdAt.UTC()

	params := []any{id.String(), rec.ExternalID, rec.Name, rec.URL, createdAt.Format(d1TimeLayout)}
	if _, err := ds.executeQuery(ctx, ds.insertQuery(table), params); err != nil {
		return fmt.Errorf("insert %s record: %w", kind, err)
	}

	rec.ID = id.String()
	rec.CreatedAt = createdAt
	return nil
}

func (ds *D1RecordStore) FindAll(ctx context.Context, kind media.Kind) ([]*Record, error) {
	table, err := ds.table(kind)
	if err != nil {
		return nil, err
	}

	rows, err := ds.executeQuery(ctx, ds.selectAllQuery(table), nil)
	if err != nil {
		return nil, fmt.Errorf("list %s records: %w", kind, err)
	}

	records := make([]*Record, 0, len(rows))
	for _, row := range rows {
		rec, err := recordFromRow(row)
		if err != nil {
			return nil, fmt.Errorf("scan %s record: %w", kind, err)
		}
		records = append(records, rec)
	}

	return records, nil
}

func (ds *D1RecordStore) FindByID(ctx context.Context, kind media.Kind, id string) (*Record, error) {
	return ds.findBy(ctx, kind, "id", id)
}

func (ds *D1RecordStore) FindByExternalID(ctx context.Context, kind media.Kind, externalID string) (*Record, error) {
	return ds.findBy(ctx, kind, "external_id", externalID)
}

func (ds *D1RecordStore) DeleteByID(ctx context.Context, kind media.Kind, id string) error {
	return ds.deleteBy(ctx, kind, "id", id)
}

func (ds *D1RecordStore) DeleteByExternalID(ctx context.Context, kind media.Kind, externalID string) error {
	return ds.deleteBy(ctx, kind, "external_id", externalID)
}

func (ds *D1RecordStore) findBy(ctx context.Context, kind media.Kind, column, value string) (*Record, error) {
	table, err := ds.table(kind)
	if err != nil {
		return nil, err
	}

	rows, err := ds.executeQuery(ctx, ds.selectByQuery(table, column), []any{value})
	if err != nil {
		return nil, fmt.Errorf("find %s record: %w", kind, err)
	}

	if len(rows) == 0 {
		return nil, ErrNotFound
	}

	rec, err := recordFromRow(rows[0])
	if err != nil {
		return nil, fmt.Errorf("scan %s record: %w", kind, err)
	}

	return rec, nil
}

func (ds *D1RecordStore) deleteBy(ctx context.Context, kind media.Kind, column, value string) error {
	table, err := ds.table(kind)
	if err != nil {
		return err
	}

	rows, err := ds.executeQuery(ctx, ds.deleteByQuery(table, column), []any{value})
	if err != nil {
		return fmt.Errorf("delete %s record: %w", kind, err)
	}

	if len(rows) == 0 {
		return ErrNotFound
	}

	return nil
}

func (ds *D1RecordStore) table(kind media.Kind) (string, error) {
	table, ok := ds.tables[kind]
	if !ok {
		return "", fmt.Errorf("no table for media kind %q", kind)
	}

	return table, nil
}

// executeQuery sends one statement to D1 and returns its rows. A statement
// without results yields nil rows and no error.
func (ds *D1RecordStore) executeQuery(ctx context.Context, sql string, params []any) ([]map[string]any, error) {
	body := cfd1.DatabaseQueryParamsBodyD1SingleQuery{Sql: cloudflare.F(sql)}
	if len(params) > 0 {
		body.Params = cloudflare.F(convertParams(params))
	}

	resp, err := ds.client.D1.Database.Query(ctx, ds.cfg.DatabaseID, cfd1.DatabaseQueryParams{
		AccountID: cloudflare.F(strings.TrimSpace(ds.cfg.AccountID)),
		Body:      body,
	})
	if err != nil {
		return nil, err
	}

	if resp == nil || len(resp.Result) == 0 {
		return nil, nil
	}

	result := resp.Result[0]
	if !result.Success {
		return nil, fmt.Errorf("d1 query execution failed")
	}

	rows := make([]map[string]any, 0, len(result.Results))
	for _, r := range result.Results {
		m, ok := r.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("unexpected row type %T", r)
		}
		rows = append(rows, m)
	}

	return rows, nil
}

// convertParams renders parameters in D1's string form.
func convertParams(params []any) []string {
	out := make([]string, 0, len(params))
	for _, p := range params {
		out = append(out, fmt.Sprint(p))
	}

	return out
}

func recordFromRow(row map[string]any) (*Record, error) {
	var rec Record
	var created string

	for column, dst := range map[string]*string{
		"id":          &rec.ID,
		"external_id": &rec.ExternalID,
		"name":        &rec.Name,
		"url":         &rec.URL,
		"created_at":  &created,
	} {
		v, ok := row[column].(string)
		if !ok {
			return nil, fmt.Errorf("column %s missing or not a string", column)
		}
		*dst = v
	}

	createdAt, err := time.Parse(time.RFC3339Nano, created)
	if err != nil {
		return nil, fmt.Errorf("invalid created_at %q: %w", created, err)
	}
	rec.CreatedAt = createdAt

	return &rec, nil
}
