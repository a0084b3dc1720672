package mb

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/eak1mov/go-flightmap/tile"
)

// Reader implements tile.Reader and tile.Visitor for MBTiles files.
type Reader struct {
	db   *sql.DB
	stmt *sql.Stmt
}

// NewReader opens an MBTiles file read-only. The Reader must be closed.
func NewReader(filePath string) (*Reader, error) {
	db, err := sql.Open(driverName, fmt.Sprintf("file:%s?mode=ro", filePath))
	if err != nil {
		return nil, err
	}

	stmt, err := db.Prepare("SELECT tile_data FROM tiles WHERE zoom_level = ? AND tile_column = ? AND tile_row = ?")
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("open %s: %w", filePath, err)
	}
	return &Reader{db: db, stmt: stmt}, nil
}

func (r *Reader) Close() error {
	return errors.Join(r.stmt.Close(), r.db.Close())
}

func (r *Reader) ReadMetadata() (map[string]string, error) {
	rows, err := r.db.Query("SELECT name, value FROM metadata")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	metadata := make(map[string]string)
	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			return nil, err
		}
		metadata[name] = value
	}
	return metadata, rows.Err()
}

// ReadTile returns an empty slice for tiles not in the pack.
func (r *Reader) ReadTile(tileID tile.ID) ([]byte, error) {
	if err := tileID.Check(); err != nil {
		return nil, err
	}

	var tileData []byte
	err := r.stmt.QueryRow(tileID.Z, tileID.X, tmsRow(tileID.Z, tileID.Y)).Scan(&tileData)
	if errors.Is(err, sql.ErrNoRows) {
		return make([]byte, 0), nil
	}
	return tileData, err
}

// VisitTiles visits the tiles of the pack. Rows with coordinates outside
// the pyramid are skipped.
func (r *Reader) VisitTiles(visitor func(tile.ID, []byte) error) error {
	rows, err := r.db.Query("SELECT zoom_level, tile_column, tile_row, tile_data FROM tiles")
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var z, x, row int64
		var tileData []byte
		if err := rows.Scan(&z, &x, &row, &tileData); err != nil {
			return err
		}
		if z < 0 || z > tile.MaxZoom {
			continue
		}
		tileID, err := tile.NewID(int(z), int(x), int(tmsRow(uint32(z), uint32(row))))
		if err != nil || row < 0 {
			continue
		}
		if err := visitor(tileID, tileData); err != nil {
			return err
		}
	}
	return rows.Err()
}
