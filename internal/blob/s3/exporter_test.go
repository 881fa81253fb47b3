package s3blob

import (
	"bufio"
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/lottopick/internal/domain"
)

type memoryBucket struct {
	objects      map[string][]byte
	contentTypes map[string]string
	multipart    int
}

func newMemoryBucket() *memoryBucket {
	return &memoryBucket{objects: map[string][]byte{}, contentTypes: map[string]string{}}
}

func (b *memoryBucket) Put(_ context.Context, path string, data io.Reader, contentType string) error {
	buf, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	b.objects[path] = buf
	b.contentTypes[path] = contentType
	return nil
}

func (b *memoryBucket) PutMultipart(ctx context.Context, path string, data io.Reader, _ int64) error {
	b.multipart++
	return b.Put(ctx, path, data, "")
}

func (b *memoryBucket) Get(_ context.Context, path string) (io.ReadCloser, error) {
	data, ok := b.objects[path]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (b *memoryBucket) List(_ context.Context, prefix string) ([]domain.BlobInfo, error) {
	var out []domain.BlobInfo
	for p, data := range b.objects {
		if strings.HasPrefix(p, prefix) {
			out = append(out, domain.BlobInfo{Path: p, Size: int64(len(data))})
		}
	}
	return out, nil
}

func (b *memoryBucket) Exists(_ context.Context, path string) (bool, error) {
	_, ok := b.objects[path]
	return ok, nil
}

type fixedDraws struct {
	draws  []domain.Draw
	filter domain.DrawFilter
	err    error
}

func (f *fixedDraws) ListDraws(_ context.Context, filter domain.DrawFilter) ([]domain.Draw, error) {
	f.filter = filter
	return f.draws, f.err
}

type recordingAudit struct{ events []string }

func (a *recordingAudit) Log(_ context.Context, event string, _ map[string]any) error {
	a.events = append(a.events, event)
	return nil
}

func (a *recordingAudit) List(context.Context, domain.ListOpts) ([]domain.AuditEntry, error) {
	return nil, nil
}

func sampleDraws() []domain.Draw {
	return []domain.Draw{
		{
			Variant: "lotto",
			Date:    time.Date(2013, 5, 1, 0, 0, 0, 0, time.UTC),
			Stake:   sql.Null[int64]{V: 24_000_000, Valid: true},
			Numbers: []int{3, 12, 19, 27, 33, 41},
			Extra:   sql.Null[int64]{V: 9, Valid: true},
			Payouts: []domain.PayoutRow{{Description: "6 Richtige", Winners: 1, Amount: 1e6}},
		},
		{
			Variant: "lotto",
			Date:    time.Date(2013, 5, 4, 0, 0, 0, 0, time.UTC),
			Stake:   sql.Null[int64]{V: 31_000_000, Valid: true},
			Numbers: []int{1, 5, 22, 30, 44, 49},
			Bonus:   []int{8},
		},
	}
}

func TestExportDraws(t *testing.T) {
	bucket := newMemoryBucket()
	source := &fixedDraws{draws: sampleDraws()}
	audit := &recordingAudit{}
	exp := NewExporter(bucket, bucket, source, audit, "cold")
	asOf := time.Date(2013, 5, 4, 0, 0, 0, 0, time.UTC)

	n, err := exp.ExportDraws(context.Background(), "lotto", asOf)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	require.NotNil(t, source.filter.Until)
	assert.Equal(t, asOf, *source.filter.Until)

	path := "cold/lotto/draws/2013-05-04.jsonl"
	require.Contains(t, bucket.objects, path)
	assert.Equal(t, "application/x-ndjson", bucket.contentTypes[path])
	assert.Equal(t, []string{"export.draws"}, audit.events)

	var lines []map[string]any
	sc := bufio.NewScanner(bytes.NewReader(bucket.objects[path]))
	for sc.Scan() {
		var line map[string]any
		require.NoError(t, json.Unmarshal(sc.Bytes(), &line))
		lines = append(lines, line)
	}
	require.Len(t, lines, 2)
	assert.Equal(t, "2013-05-01", lines[0]["date"])
	assert.Equal(t, float64(9), lines[0]["extra"])
	assert.Nil(t, lines[1]["extra"])
	assert.Equal(t, float64(31_000_000), lines[1]["stake"])

	// A second run finds the object, writes nothing and reports its size.
	n, err = exp.ExportDraws(context.Background(), "lotto", asOf)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.Len(t, audit.events, 1)
}

func TestListExports(t *testing.T) {
	bucket := newMemoryBucket()
	exp := NewExporter(bucket, bucket, &fixedDraws{draws: sampleDraws()}, nil, "cold")
	bucket.objects["cold/eurojackpot/draws/2024-03-08.jsonl"] = []byte("{}\n")

	_, err := exp.ExportDraws(context.Background(), "lotto", time.Date(2013, 5, 4, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	_, err = exp.ExportImpact(context.Background(), "lotto", domain.ImpactNumbers,
		time.Date(2013, 5, 4, 0, 0, 0, 0, time.UTC), []domain.Impact{{Value: 1, Score: 0.5, Observed: true}})
	require.NoError(t, err)

	infos, err := exp.ListExports(context.Background(), "lotto")
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, "cold/lotto/draws/2013-05-04.jsonl", infos[0].Path)
	assert.Equal(t, "cold/lotto/impact/numbers/2013-05-04.json", infos[1].Path)
	assert.Positive(t, infos[0].Size)

	_, err = NewExporter(bucket, nil, nil, nil, "cold").ListExports(context.Background(), "lotto")
	require.Error(t, err)
}

func TestExportDraws_Errors(t *testing.T) {
	bucket := newMemoryBucket()

	exp := NewExporter(bucket, nil, &fixedDraws{err: errors.New("db down")}, nil, "")
	_, err := exp.ExportDraws(context.Background(), "lotto", time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "export draws query")

	exp = NewExporter(bucket, nil, &fixedDraws{}, nil, "")
	n, err := exp.ExportDraws(context.Background(), "lotto", time.Now())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, bucket.objects)
}

func TestExportPick(t *testing.T) {
	bucket := newMemoryBucket()
	exp := NewExporter(bucket, bucket, &fixedDraws{}, nil, "cold")
	exp.now = func() time.Time { return time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC) }

	result := domain.PickResult{
		Best3: domain.Recommendation{Category: "3 Richtige", Numbers: []int{1, 2, 3, 4, 5, 6}, Score: 1.5},
	}
	path, err := exp.ExportPick(context.Background(), "lotto", []int{1, 2, 3, 4, 5, 6, 7}, result)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(path, "cold/lotto/picks/2024-03-10/"))
	assert.True(t, strings.HasSuffix(path, ".json"))

	var report pickReport
	require.NoError(t, json.Unmarshal(bucket.objects[path], &report))
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7}, report.Candidates)
	assert.Equal(t, result.Best3, report.Result.Best3)
	assert.Contains(t, path, report.ID)
}

func TestExportImpact(t *testing.T) {
	bucket := newMemoryBucket()
	exp := NewExporter(bucket, nil, &fixedDraws{}, nil, "cold")
	asOf := time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC)

	path, err := exp.ExportImpact(context.Background(), "lotto", domain.ImpactBonus, asOf,
		[]domain.Impact{{Value: 0, Score: 0.1, Observed: true}})
	require.NoError(t, err)
	assert.Equal(t, "cold/lotto/impact/bonus/2024-03-09.json", path)
	assert.Equal(t, "application/json", bucket.contentTypes[path])
}

func TestMarshalJSONL(t *testing.T) {
	buf, err := marshalJSONL([]map[string]string{{"a": "<b>"}, {"c": "d"}})
	require.NoError(t, err)
	assert.Equal(t, "{\"a\":\"<b>\"}\n{\"c\":\"d\"}\n", string(buf))
}

func TestNormaliseEndpoint(t *testing.T) {
	assert.Equal(t, "http://localhost:9000", normaliseEndpoint("localhost:9000", false))
	assert.Equal(t, "https://s3.example.com", normaliseEndpoint("s3.example.com", true))
	assert.Equal(t, "http://minio:9000", normaliseEndpoint("http://minio:9000", true))
}
