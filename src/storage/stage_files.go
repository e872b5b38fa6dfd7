package storage

import (
	"context"
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"market-loader/src/models"

	"github.com/go-resty/resty/v2"
)

// Engines without native stages keep stage definitions in this table.
const stageRegistryTable = "_stages"

// -----------------------------------------------------------------------------

// stageRegistry persists MStageDef rows so CREATE OR REPLACE STAGE can be emulated.
type stageRegistry struct {
	db          *sql.DB
	table       string
	placeholder func(n int) string
}

func (r *stageRegistry) ddl() string {
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	name VARCHAR(255) PRIMARY KEY,
	url TEXT NOT NULL,
	file_format TEXT NOT NULL
)`, r.table)
}

// replace upserts the definition, matching CREATE OR REPLACE semantics.
func (r *stageRegistry) replace(ctx context.Context, def models.MStageDef) error {
	format, err := json.Marshal(def.FileFormat)
	if err != nil {
		return err
	}
	query := fmt.Sprintf(`INSERT INTO %s (name, url, file_format) VALUES (%s, %s, %s)
ON CONFLICT (name) DO UPDATE SET url = excluded.url, file_format = excluded.file_format`,
		r.table, r.placeholder(1), r.placeholder(2), r.placeholder(3))
	_, err = r.db.ExecContext(ctx, query, def.Name, def.URL, string(format))
	return err
}

func (r *stageRegistry) lookup(ctx context.Context, name string) (models.MStageDef, error) {
	def := models.MStageDef{Name: name}
	var format string
	query := fmt.Sprintf("SELECT url, file_format FROM %s WHERE name = %s", r.table, r.placeholder(1))
	if err := r.db.QueryRowContext(ctx, query, name).Scan(&def.URL, &format); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return def, fmt.Errorf("stage %s does not exist", name)
		}
		return def, err
	}
	if err := json.Unmarshal([]byte(format), &def.FileFormat); err != nil {
		return def, fmt.Errorf("stage %s has an unreadable file format: %w", name, err)
	}
	return def, nil
}

// -----------------------------------------------------------------------------

// stagedFile is an opened file from a stage plus the format to read it with.
type stagedFile struct {
	body   io.ReadCloser
	format models.MFileFormat
}

// openStagedFile resolves file under the stage URL. Supported schemes are file, http(s)
// and s3, the latter read through the bucket's public HTTPS endpoint.
func openStagedFile(ctx context.Context, client *resty.Client, def models.MStageDef, file string) (*stagedFile, error) {
	if t := strings.ToLower(def.FileFormat.Type); t != "" && t != "csv" {
		return nil, fmt.Errorf("unsupported file format type %q", def.FileFormat.Type)
	}
	if q := def.FileFormat.FieldOptionallyEnclosedBy; q != "" && q != `"` {
		return nil, fmt.Errorf("unsupported field enclosure %q", q)
	}

	location, err := url.Parse(def.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid stage url %q: %w", def.URL, err)
	}

	var body io.ReadCloser
	switch location.Scheme {
	case "file", "":
		dir := location.Path
		if location.Host != "" {
			dir = filepath.Join(location.Host, location.Path)
		}
		body, err = os.Open(filepath.Join(dir, file))
	case "http", "https":
		body, err = httpGet(ctx, client, strings.TrimSuffix(def.URL, "/")+"/"+file)
	case "s3":
		public := fmt.Sprintf("https://%s.s3.amazonaws.com/%s", location.Host, strings.Trim(location.Path, "/"))
		body, err = httpGet(ctx, client, strings.TrimSuffix(public, "/")+"/"+file)
	default:
		return nil, fmt.Errorf("unsupported stage url scheme %q", location.Scheme)
	}
	if err != nil {
		return nil, err
	}

	return &stagedFile{body: body, format: def.FileFormat}, nil
}

func (f *stagedFile) Close() error { return f.body.Close() }

func httpGet(ctx context.Context, client *resty.Client, target string) (io.ReadCloser, error) {
	resp, err := client.R().SetContext(ctx).SetDoNotParseResponse(true).Get(target)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", target, err)
	}
	if resp.StatusCode() != http.StatusOK {
		resp.RawBody().Close()
		return nil, fmt.Errorf("fetch %s: bad status %d", target, resp.StatusCode())
	}
	return resp.RawBody(), nil
}

// -----------------------------------------------------------------------------

// each feeds every data row to fn. Empty fields become NULL.
func (f *stagedFile) each(columns int, fn func(values []any) error) (int64, error) {
	reader := csv.NewReader(f.body)
	reader.FieldsPerRecord = columns
	reader.ReuseRecord = true

	var rows int64
	line := 0
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return rows, fmt.Errorf("csv line %d: %w", line+1, err)
		}
		line++
		if line <= f.format.SkipHeader {
			continue
		}

		values := make([]any, len(record))
		for i, v := range record {
			if v == "" {
				values[i] = nil
			} else {
				values[i] = v
			}
		}
		if err := fn(values); err != nil {
			return rows, fmt.Errorf("csv line %d: %w", line, err)
		}
		rows++
	}
	return rows, nil
}
