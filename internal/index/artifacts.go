package index

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// Record inserts or replaces the artifact for (CacheKey, Kind).
func (i *Index) Record(ctx context.Context, a *Artifact) (err error) {
	start := time.Now()
	defer func() { recordQuery("record", start, err) }()

	i.mu.Lock()
	defer i.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	createdAt := a.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err = i.db.ExecContext(ctx, `
	INSERT INTO previews (cache_key, kind, source_path, mime_type, builder, page, artifact_path, size, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(cache_key, kind) DO UPDATE SET
		source_path = excluded.source_path,
		mime_type = excluded.mime_type,
		builder = excluded.builder,
		page = excluded.page,
		artifact_path = excluded.artifact_path,
		size = excluded.size,
		created_at = excluded.created_at
	`,
		a.CacheKey, a.Kind, a.SourcePath, a.MimeType, a.Builder,
		a.Page, a.ArtifactPath, a.Size, createdAt.Unix(),
	)
	return err
}

const artifactColumns = `cache_key, kind, source_path, mime_type, builder, page, artifact_path, size, created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanArtifact(s scanner) (*Artifact, error) {
	var a Artifact
	var createdAt int64
	if err := s.Scan(&a.CacheKey, &a.Kind, &a.SourcePath, &a.MimeType, &a.Builder,
		&a.Page, &a.ArtifactPath, &a.Size, &createdAt); err != nil {
		return nil, err
	}
	a.CreatedAt = time.Unix(createdAt, 0)
	return &a, nil
}

// Lookup returns the artifact for (cacheKey, kind), or nil when none is
// recorded.
func (i *Index) Lookup(ctx context.Context, cacheKey, kind string) (a *Artifact, err error) {
	start := time.Now()
	defer func() { recordQuery("lookup", start, err) }()

	i.mu.RLock()
	defer i.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	row := i.db.QueryRowContext(ctx,
		`SELECT `+artifactColumns+` FROM previews WHERE cache_key = ? AND kind = ?`,
		cacheKey, kind)
	a, err = scanArtifact(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return a, err
}

// ListBySource returns every artifact generated from sourcePath, newest
// first.
func (i *Index) ListBySource(ctx context.Context, sourcePath string) (out []Artifact, err error) {
	start := time.Now()
	defer func() { recordQuery("list_by_source", start, err) }()

	i.mu.RLock()
	defer i.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := i.db.QueryContext(ctx,
		`SELECT `+artifactColumns+` FROM previews WHERE source_path = ? ORDER BY created_at DESC, id DESC`,
		sourcePath)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		a, err := scanArtifact(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

// DeleteBySource removes the records for sourcePath and returns them so the
// caller can remove the files.
func (i *Index) DeleteBySource(ctx context.Context, sourcePath string) (removed []Artifact, err error) {
	removed, err = i.ListBySource(ctx, sourcePath)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	defer func() { recordQuery("delete_by_source", start, err) }()

	i.mu.Lock()
	defer i.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err = i.db.ExecContext(ctx, `DELETE FROM previews WHERE source_path = ?`, sourcePath)
	if err != nil {
		return nil, err
	}
	return removed, nil
}

// CountByKind returns the number of recorded artifacts per kind.
func (i *Index) CountByKind(ctx context.Context) (counts map[string]int, err error) {
	start := time.Now()
	defer func() { recordQuery("count_by_kind", start, err) }()

	i.mu.RLock()
	defer i.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := i.db.QueryContext(ctx, `SELECT kind, COUNT(*) FROM previews GROUP BY kind`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts = make(map[string]int)
	for rows.Next() {
		var kind string
		var n int
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, err
		}
		counts[kind] = n
	}
	return counts, rows.Err()
}
