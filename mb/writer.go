package mb

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/eak1mov/go-flightmap/tile"
)

// Writer implements tile.Writer for MBTiles files. All tiles are written in
// one transaction committed by Finalize.
type Writer struct {
	db     *sql.DB
	tx     *sql.Tx
	stmt   *sql.Stmt
	logger *slog.Logger
	count  int
}

type writerConfig struct {
	Metadata map[string]string
	Logger   *slog.Logger
}

type WriterOption func(*writerConfig)

func WithMetadata(metadata map[string]string) WriterOption {
	return func(c *writerConfig) { c.Metadata = metadata }
}

func WithLogger(logger *slog.Logger) WriterOption {
	return func(c *writerConfig) { c.Logger = logger }
}

// NewWriter creates an MBTiles file. The file must not exist.
func NewWriter(filePath string, opts ...WriterOption) (_ *Writer, err error) {
	config := writerConfig{
		Logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(&config)
	}

	db, err := sql.Open(driverName, filePath)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			db.Close()
		}
	}()

	_, err = db.Exec(`
		CREATE TABLE metadata (name TEXT, value TEXT);
		CREATE TABLE tiles (
			zoom_level INTEGER,
			tile_column INTEGER,
			tile_row INTEGER,
			tile_data BLOB
		);
	`)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", filePath, err)
	}

	tx, err := db.Begin()
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	for name, value := range config.Metadata {
		if _, err = tx.Exec("INSERT INTO metadata (name, value) VALUES (?, ?)", name, value); err != nil {
			return nil, err
		}
	}

	stmt, err := tx.Prepare("INSERT INTO tiles (zoom_level, tile_column, tile_row, tile_data) VALUES (?, ?, ?, ?)")
	if err != nil {
		return nil, err
	}
	return &Writer{db: db, tx: tx, stmt: stmt, logger: config.Logger}, nil
}

func (w *Writer) WriteTile(tileID tile.ID, tileData []byte) error {
	if err := tileID.Check(); err != nil {
		return err
	}
	if _, err := w.stmt.Exec(tileID.Z, tileID.X, tmsRow(tileID.Z, tileID.Y), tileData); err != nil {
		return err
	}
	w.count++
	return nil
}

// Finalize commits the tiles and builds the tile index.
func (w *Writer) Finalize() error {
	if w.tx == nil {
		return nil
	}
	err := errors.Join(w.stmt.Close(), w.tx.Commit())
	w.tx = nil
	if err != nil {
		return err
	}

	w.logger.Debug("creating mbtiles index", slog.Int("tiles", w.count))
	_, err = w.db.Exec("CREATE UNIQUE INDEX tile_index ON tiles (zoom_level, tile_column, tile_row)")
	return err
}

// Close releases the database. Tiles not finalized are discarded.
func (w *Writer) Close() error {
	var err error
	if w.tx != nil {
		err = errors.Join(w.stmt.Close(), w.tx.Rollback())
		w.tx = nil
	}
	return errors.Join(err, w.db.Close())
}
