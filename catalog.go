package flictool

import (
	"database/sql"
	"fmt"

	"github.com/bodgit/flictool/flh"
	"github.com/klauspost/compress/zstd"
	_ "github.com/mattn/go-sqlite3"
)

// CatalogDB records every animation seen by a scan, keyed by content
// hash. The first frame of each animation is kept as a preview,
// compressed with zstd.
type CatalogDB struct {
	db *sql.DB
}

func NewCatalogDB(file string) (*CatalogDB, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("%s?_foreign_keys=on", file))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)

	if _, err = db.Exec("CREATE TABLE IF NOT EXISTS animation (id INTEGER PRIMARY KEY NOT NULL, hash TEXT NOT NULL UNIQUE, path TEXT NOT NULL, frames INTEGER NOT NULL, width INTEGER NOT NULL, height INTEGER NOT NULL, size INTEGER NOT NULL, preview BLOB)"); err != nil {
		return nil, err
	}

	return &CatalogDB{
		db: db,
	}, nil
}

func (db *CatalogDB) Close() error {
	return db.db.Close()
}

// Animation is one catalog row.
type Animation struct {
	Path   string
	Hash   string
	Frames int
	Width  int
	Height int
	Size   int64
}

// Add inserts a scanned animation, or refreshes the stored path when
// the same content has been seen before under another name.
func (db *CatalogDB) Add(a Animation, preview *flh.Frame) error {
	var id int64
	switch err := db.db.QueryRow("SELECT id FROM animation WHERE hash = ?", a.Hash).Scan(&id); err {
	case sql.ErrNoRows:
		var blob []byte
		if preview != nil {
			enc, err := zstd.NewWriter(nil)
			if err != nil {
				return err
			}
			blob = enc.EncodeAll(preview.Pix, nil)
			enc.Close()
		}
		_, err := db.db.Exec("INSERT INTO animation (hash, path, frames, width, height, size, preview) VALUES (?, ?, ?, ?, ?, ?, ?)",
			a.Hash, a.Path, a.Frames, a.Width, a.Height, a.Size, blob)
		return err
	case nil:
		_, err := db.db.Exec("UPDATE animation SET path = ? WHERE id = ?", a.Path, id)
		return err
	default:
		return err
	}
}

// FindByHash returns the catalog entry for a content hash, or nil if
// the hash has never been scanned.
func (db *CatalogDB) FindByHash(hash string) (*Animation, error) {
	a := Animation{Hash: hash}
	switch err := db.db.QueryRow("SELECT path, frames, width, height, size FROM animation WHERE hash = ?", hash).Scan(&a.Path, &a.Frames, &a.Width, &a.Height, &a.Size); err {
	case sql.ErrNoRows:
		return nil, nil
	case nil:
		return &a, nil
	default:
		return nil, err
	}
}

// Preview returns the stored first frame for a content hash, or nil
// if none was kept.
func (db *CatalogDB) Preview(hash string) (*flh.Frame, error) {
	var width, height int
	var blob []byte
	switch err := db.db.QueryRow("SELECT width, height, preview FROM animation WHERE hash = ?", hash).Scan(&width, &height, &blob); err {
	case sql.ErrNoRows:
		return nil, nil
	case nil:
		if blob == nil {
			return nil, nil
		}
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return nil, err
		}
		defer dec.Close()

		pix, err := dec.DecodeAll(blob, nil)
		if err != nil {
			return nil, err
		}
		return &flh.Frame{
			Width:  width,
			Height: height,
			Pix:    pix,
		}, nil
	default:
		return nil, err
	}
}
