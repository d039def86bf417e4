package cache

import (
	"database/sql"
	"embed"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"

	"github.com/vehement/geoworld/internal/geo"
	"github.com/vehement/geoworld/pkg/logger"
)

//go:embed migrations/*.sql
var migrations embed.FS

// SQLiteStore keeps tile payloads in a single SQLite database file.
type SQLiteStore struct {
	db     *sql.DB
	codec  codec
	logger logger.Logger
}

var _ DiskStore = (*SQLiteStore)(nil)

func NewSQLiteStore(path string, compress bool, l logger.Logger) (*SQLiteStore, error) {
	if l == nil {
		l = logger.NewNop()
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}

	s := &SQLiteStore{
		db:     db,
		codec:  codec{compress: compress},
		logger: l,
	}
	if err := s.runMigrations(); err != nil {
		return nil, err
	}

	l.Info("sqlite tile store initialized", "path", path)
	return s, nil
}

func (s *SQLiteStore) runMigrations() error {
	goose.SetBaseFS(migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return err
	}
	if err := goose.Up(s.db, "migrations"); err != nil {
		return err
	}
	return nil
}

func (s *SQLiteStore) Load(tile geo.TileID) (geo.TileData, error) {
	query := `SELECT payload
	FROM tile_cache
	WHERE x = ? AND y = ? AND z = ?`

	var payload []byte
	err := s.db.QueryRow(query, tile.X, tile.Y, tile.Zoom).Scan(&payload)
	if err != nil {
		if err == sql.ErrNoRows {
			return geo.TileData{}, ErrNotFound
		}
		s.logger.Error("sqlite load failed", "tile", tile.Key(), "error", err)
		return geo.TileData{}, err
	}

	data, err := s.codec.decode(payload)
	if err != nil {
		s.logger.Warn("removing corrupt cache row", "tile", tile.Key(), "error", err)
		s.Delete(tile)
		return geo.TileData{}, err
	}

	s.touch(tile)
	return data, nil
}

func (s *SQLiteStore) touch(tile geo.TileID) {
	_, err := s.db.Exec(`UPDATE tile_cache SET access_ts = ? WHERE x = ? AND y = ? AND z = ?`,
		time.Now().Unix(), tile.X, tile.Y, tile.Zoom)
	if err != nil {
		s.logger.Debug("sqlite touch failed", "tile", tile.Key(), "error", err)
	}
}

func (s *SQLiteStore) Save(tile geo.TileID, payload []byte) error {
	query := `INSERT INTO tile_cache (x, y, z, payload, size, access_ts)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT(x, y, z) DO UPDATE SET
		payload = excluded.payload,
		size = excluded.size,
		access_ts = excluded.access_ts`

	_, err := s.db.Exec(query, tile.X, tile.Y, tile.Zoom,
		payload, len(payload), time.Now().Unix())
	if err != nil {
		s.logger.Error("sqlite save failed", "tile", tile.Key(), "error", err)
		return err
	}
	return nil
}

func (s *SQLiteStore) Delete(tile geo.TileID) error {
	_, err := s.db.Exec(`DELETE FROM tile_cache WHERE x = ? AND y = ? AND z = ?`,
		tile.X, tile.Y, tile.Zoom)
	return err
}

func (s *SQLiteStore) Scan() ([]StoredEntry, error) {
	rows, err := s.db.Query(`SELECT x, y, z, size, access_ts FROM tile_cache`)
	if err != nil {
		return nil, fmt.Errorf("scan tile_cache: %w", err)
	}
	defer rows.Close()

	var entries []StoredEntry
	for rows.Next() {
		var e StoredEntry
		var accessTS int64
		if err := rows.Scan(&e.Tile.X, &e.Tile.Y, &e.Tile.Zoom, &e.Size, &accessTS); err != nil {
			return nil, err
		}
		e.LastAccess = time.Unix(accessTS, 0)
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

func (s *SQLiteStore) Close() error { return s.db.Close() }
