package postgres

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/site-reconciliation-service/internal/domain"
)

// --- fakes ---

type fakeResults struct {
	execs   int
	failAt  int
	failErr error
	closed  bool
}

func (r *fakeResults) Exec() (pgconn.CommandTag, error) {
	r.execs++
	if r.failErr != nil && r.execs == r.failAt {
		return pgconn.CommandTag{}, r.failErr
	}
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func (r *fakeResults) Query() (pgx.Rows, error) { return nil, errors.New("not implemented") }
func (r *fakeResults) QueryRow() pgx.Row { return nil }
func (r *fakeResults) Close() error {
	r.closed = true
	return nil
}

type fakeConn struct {
	execSQL []string
	batches []*pgx.Batch
	results *fakeResults
}

func (c *fakeConn) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	c.execSQL = append(c.execSQL, sql)
	return pgconn.NewCommandTag("CREATE TABLE"), nil
}

func (c *fakeConn) SendBatch(_ context.Context, b *pgx.Batch) pgx.BatchResults {
	c.batches = append(c.batches, b)
	return c.results
}

func testStore(c *fakeConn) *Store {
	return &Store{db: c, logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

func testReport() *domain.Report {
	loadedAt := time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)
	rep := domain.BuildReport([]domain.SiteRecord{
		{
			Key: "site-1", Row: 1, Name: "Eleport Noord", StreetDB: "Damrak 1", CityDB: "Amsterdam",
			Location: &domain.Point{Lat: 52.3745, Lon: 4.897}, GeoSource: domain.GeoSourceDB,
			Category: domain.CategoryFullyCorrect, LoadedAt: loadedAt,
		},
		{
			Key: "site-2", Row: 2, Name: "Eleport Plein", StreetDB: "Plein 9", CityDB: "Leiden",
			InvalidGeometry: true, Category: domain.CategoryMissingInMapProvider, LoadedAt: loadedAt,
		},
	}, loadedAt)
	return &rep
}

// --- tests ---

func TestRecordArgs(t *testing.T) {
	rep := testReport()

	args, err := recordArgs(rep.Records[0])
	require.NoError(t, err)
	require.Len(t, args, 12)
	assert.Equal(t, "site-1", args[0])
	assert.Equal(t, "fully_correct", args[5])
	require.NotNil(t, args[6])
	assert.InDelta(t, 52.3745, *args[6].(*float64), 1e-9)
	assert.InDelta(t, 4.897, *args[7].(*float64), 1e-9)
	assert.Equal(t, "db", args[8])
	assert.Contains(t, string(args[10].([]byte)), `"key":"site-1"`)

	args, err = recordArgs(rep.Records[1])
	require.NoError(t, err)
	assert.Nil(t, args[6].(*float64), "unplottable records store NULL coordinates")
	assert.Nil(t, args[7].(*float64))
	assert.Equal(t, true, args[9])
}

func TestBuildBatch(t *testing.T) {
	batch, err := buildBatch(testReport())
	require.NoError(t, err)

	// Two upserts, one prune, one refresh row.
	require.Equal(t, 4, batch.Len())
	assert.Equal(t, upsertRecordSQL, batch.QueuedQueries[0].SQL)
	assert.Equal(t, pruneRecordsSQL, batch.QueuedQueries[2].SQL)
	assert.Equal(t, []string{"site-1", "site-2"}, batch.QueuedQueries[2].Arguments[0])
	assert.Equal(t, insertRefreshSQL, batch.QueuedQueries[3].SQL)
	assert.Equal(t, 2, batch.QueuedQueries[3].Arguments[1])
}

func TestStore_Publish(t *testing.T) {
	c := &fakeConn{results: &fakeResults{}}
	s := testStore(c)

	require.NoError(t, s.Publish(context.Background(), testReport()))
	require.Len(t, c.batches, 1)
	assert.Equal(t, 4, c.results.execs)
	assert.True(t, c.results.closed)
}

func TestStore_PublishError(t *testing.T) {
	c := &fakeConn{results: &fakeResults{failAt: 2, failErr: errors.New("deadlock detected")}}
	s := testStore(c)

	err := s.Publish(context.Background(), testReport())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "deadlock detected")
	assert.Equal(t, 2, c.results.execs, "stops at the first failed statement")
	assert.True(t, c.results.closed)
}

func TestStore_PublishNil(t *testing.T) {
	c := &fakeConn{results: &fakeResults{}}
	require.NoError(t, testStore(c).Publish(context.Background(), nil))
	assert.Empty(t, c.batches)
}

func TestStore_EnsureSchema(t *testing.T) {
	c := &fakeConn{}
	s := testStore(c)

	require.NoError(t, s.EnsureSchema(context.Background()))
	require.Len(t, c.execSQL, 1)
	assert.Contains(t, c.execSQL[0], "CREATE TABLE IF NOT EXISTS site_records")
	assert.Equal(t, "postgres", s.Name())
	s.Close()
}
