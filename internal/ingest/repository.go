package ingest

import (
	"database/sql"
	"fmt"
)

// Repository is the ingest record catalog.
type Repository interface {
	Create(r *Record) error
	ListByAlbum(album string, limit int) ([]*Record, error)
	Albums() ([]AlbumSummary, error)
}

type SQLRepository struct {
	db *sql.DB
}

func NewSQLRepository(db *sql.DB) *SQLRepository {
	return &SQLRepository{db: db}
}

func (r *SQLRepository) Create(rec *Record) error {
	query := `INSERT INTO uploads (id, album, original_name, stored_name, size_bytes, path, content_type, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.db.Exec(query,
		rec.ID,
		rec.Album,
		rec.OriginalName,
		rec.StoredName,
		rec.SizeBytes,
		rec.Path,
		rec.ContentType,
		rec.CreatedAt,
	)
	return err
}

func (r *SQLRepository) ListByAlbum(album string, limit int) ([]*Record, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `SELECT id, album, original_name, stored_name, size_bytes, path, content_type, created_at
			  FROM uploads WHERE album = $1 ORDER BY created_at DESC LIMIT $2`

	rows, err := r.db.Query(query, album, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		rec := &Record{}
		err := rows.Scan(
			&rec.ID,
			&rec.Album,
			&rec.OriginalName,
			&rec.StoredName,
			&rec.SizeBytes,
			&rec.Path,
			&rec.ContentType,
			&rec.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

func (r *SQLRepository) Albums() ([]AlbumSummary, error) {
	query := `SELECT album, COUNT(*), COALESCE(SUM(size_bytes), 0)
			  FROM uploads GROUP BY album ORDER BY album`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var albums []AlbumSummary
	for rows.Next() {
		var a AlbumSummary
		if err := rows.Scan(&a.Album, &a.FileCount, &a.SizeBytes); err != nil {
			return nil, err
		}
		albums = append(albums, a)
	}

	return albums, rows.Err()
}

func (r *SQLRepository) CountByAlbum(album string) (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM uploads WHERE album = $1`, album).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count album records: %w", err)
	}
	return count, nil
}
