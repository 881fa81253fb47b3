package s3blob

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/alanyoungcy/lottopick/internal/domain"
)

// multipartThreshold is the payload size from which draw exports go through
// the multipart uploader.
const multipartThreshold = 8 * 1024 * 1024

// DrawSource is the read side of the draw store the exporter needs.
type DrawSource interface {
	ListDraws(ctx context.Context, filter domain.DrawFilter) ([]domain.Draw, error)
}

// ExportImpl implements domain.Exporter on top of a blob writer.
//
// Layout under the configured prefix:
//
//	{prefix}/{variant}/draws/{asOf}.jsonl
//	{prefix}/{variant}/impact/{kind}/{asOf}.json
//	{prefix}/{variant}/picks/{date}/{id}.json
type ExportImpl struct {
	writer domain.BlobWriter
	reader domain.BlobReader
	draws  DrawSource
	audit  domain.AuditStore
	prefix string
	now    func() time.Time
}

// NewExporter creates an ExportImpl. reader and audit may be nil; without a
// reader every draw export is rewritten.
func NewExporter(
	writer domain.BlobWriter,
	reader domain.BlobReader,
	draws DrawSource,
	audit domain.AuditStore,
	prefix string,
) *ExportImpl {
	if prefix == "" {
		prefix = "export"
	}
	return &ExportImpl{
		writer: writer,
		reader: reader,
		draws:  draws,
		audit:  audit,
		prefix: prefix,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// ExportDraws writes the draw history of a variant up to and including asOf
// as JSONL, one draw with its payouts per line. When the export already
// exists it is left alone and its line count is returned.
func (e *ExportImpl) ExportDraws(ctx context.Context, variant string, asOf time.Time) (int64, error) {
	path := e.drawsPath(variant, asOf)
	if e.reader != nil {
		exists, err := e.reader.Exists(ctx, path)
		if err != nil {
			return 0, fmt.Errorf("s3blob: export draws check: %w", err)
		}
		if exists {
			return e.countLines(ctx, path)
		}
	}

	draws, err := e.draws.ListDraws(ctx, domain.DrawFilter{Variant: variant, Until: &asOf})
	if err != nil {
		return 0, fmt.Errorf("s3blob: export draws query: %w", err)
	}
	if len(draws) == 0 {
		return 0, nil
	}

	lines := make([]drawLine, len(draws))
	for i, d := range draws {
		lines[i] = newDrawLine(d)
	}
	buf, err := marshalJSONL(lines)
	if err != nil {
		return 0, fmt.Errorf("s3blob: export draws marshal: %w", err)
	}

	if len(buf) >= multipartThreshold {
		err = e.writer.PutMultipart(ctx, path, bytes.NewReader(buf), minPartSize)
	} else {
		err = e.writer.Put(ctx, path, bytes.NewReader(buf), "application/x-ndjson")
	}
	if err != nil {
		return 0, fmt.Errorf("s3blob: export draws upload: %w", err)
	}

	count := int64(len(draws))
	e.record(ctx, "export.draws", map[string]any{
		"path":  path,
		"count": count,
		"as_of": asOf.Format(time.DateOnly),
	})
	return count, nil
}

// countLines reads an existing JSONL export back and counts its records.
func (e *ExportImpl) countLines(ctx context.Context, path string) (int64, error) {
	body, err := e.reader.Get(ctx, path)
	if err != nil {
		return 0, fmt.Errorf("s3blob: export draws read back: %w", err)
	}
	defer body.Close()

	var n int64
	sc := bufio.NewScanner(body)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		if len(bytes.TrimSpace(sc.Bytes())) > 0 {
			n++
		}
	}
	if err := sc.Err(); err != nil {
		return 0, fmt.Errorf("s3blob: export draws read back %s: %w", path, err)
	}
	return n, nil
}

// ListExports returns every exported object of a variant ordered by path.
func (e *ExportImpl) ListExports(ctx context.Context, variant string) ([]domain.BlobInfo, error) {
	if e.reader == nil {
		return nil, fmt.Errorf("s3blob: list exports: no reader configured")
	}
	infos, err := e.reader.List(ctx, e.prefix+"/"+variant+"/")
	if err != nil {
		return nil, fmt.Errorf("s3blob: list exports: %w", err)
	}
	slices.SortFunc(infos, func(a, b domain.BlobInfo) int { return strings.Compare(a.Path, b.Path) })
	return infos, nil
}

// drawLine is the exported form of a draw. Missing values become JSON null.
type drawLine struct {
	Date    string             `json:"date"`
	Stake   *int64             `json:"stake"`
	Numbers []int              `json:"numbers"`
	Bonus   []int              `json:"bonus"`
	Extra   *int64             `json:"extra"`
	Payouts []domain.PayoutRow `json:"payouts"`
}

func newDrawLine(d domain.Draw) drawLine {
	line := drawLine{
		Date:    d.Date.Format(time.DateOnly),
		Numbers: d.Numbers,
		Bonus:   d.Bonus,
		Payouts: d.Payouts,
	}
	if d.Stake.Valid {
		line.Stake = &d.Stake.V
	}
	if d.Extra.Valid {
		line.Extra = &d.Extra.V
	}
	return line
}

type impactReport struct {
	Variant string            `json:"variant"`
	Kind    domain.ImpactKind `json:"kind"`
	AsOf    string            `json:"as_of"`
	Impacts []domain.Impact   `json:"impacts"`
	Created time.Time         `json:"created_at"`
}

// ExportImpact writes one impact vector and returns its path.
func (e *ExportImpl) ExportImpact(ctx context.Context, variant string, kind domain.ImpactKind, asOf time.Time, impacts []domain.Impact) (string, error) {
	path := fmt.Sprintf("%s/%s/impact/%s/%s.json", e.prefix, variant, kind, asOf.Format(time.DateOnly))
	report := impactReport{
		Variant: variant,
		Kind:    kind,
		AsOf:    asOf.Format(time.DateOnly),
		Impacts: impacts,
		Created: e.now(),
	}
	if err := e.putJSON(ctx, path, report); err != nil {
		return "", fmt.Errorf("s3blob: export impact: %w", err)
	}
	e.record(ctx, "export.impact", map[string]any{"path": path, "kind": string(kind)})
	return path, nil
}

type pickReport struct {
	ID         string            `json:"id"`
	Variant    string            `json:"variant"`
	Candidates []int             `json:"candidates"`
	Result     domain.PickResult `json:"result"`
	Created    time.Time         `json:"created_at"`
}

// ExportPick writes a recommendation report under a fresh id and returns
// its path.
func (e *ExportImpl) ExportPick(ctx context.Context, variant string, candidates []int, result domain.PickResult) (string, error) {
	report := pickReport{
		ID:         uuid.NewString(),
		Variant:    variant,
		Candidates: candidates,
		Result:     result,
		Created:    e.now(),
	}
	path := fmt.Sprintf("%s/%s/picks/%s/%s.json", e.prefix, variant, report.Created.Format(time.DateOnly), report.ID)
	if err := e.putJSON(ctx, path, report); err != nil {
		return "", fmt.Errorf("s3blob: export pick: %w", err)
	}
	e.record(ctx, "export.pick", map[string]any{"path": path, "id": report.ID})
	return path, nil
}

func (e *ExportImpl) drawsPath(variant string, asOf time.Time) string {
	return fmt.Sprintf("%s/%s/draws/%s.jsonl", e.prefix, variant, asOf.Format(time.DateOnly))
}

func (e *ExportImpl) putJSON(ctx context.Context, path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", path, err)
	}
	if err := e.writer.Put(ctx, path, bytes.NewReader(data), "application/json"); err != nil {
		return fmt.Errorf("upload %s: %w", path, err)
	}
	return nil
}

// record writes an audit entry; failures are ignored.
func (e *ExportImpl) record(ctx context.Context, event string, detail map[string]any) {
	if e.audit == nil {
		return
	}
	_ = e.audit.Log(ctx, event, detail)
}

// marshalJSONL serialises a slice of values as newline-delimited JSON (JSONL).
func marshalJSONL[T any](records []T) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	for i, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return nil, fmt.Errorf("jsonl encode record %d: %w", i, err)
		}
	}
	return buf.Bytes(), nil
}

var _ domain.Exporter = (*ExportImpl)(nil)
