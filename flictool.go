/*
Package flictool converts between directories of 16 bpp bitmap frames
and Rock Raiders FLH animations, and keeps a catalog of scanned
animation files.
*/
package flictool

import (
	"bufio"
	"log"
	"os"

	"github.com/bodgit/flictool/flh"
)

type Tool struct {
	db     *CatalogDB
	logger *log.Logger
}

func New(db string, logger *log.Logger) (*Tool, error) {
	catalog, err := NewCatalogDB(db)
	if err != nil {
		return nil, err
	}
	return &Tool{
		db:     catalog,
		logger: logger,
	}, nil
}

func (t *Tool) Close() error {
	return t.db.Close()
}

// Info returns the header configuration and content hash of an
// animation file. When the content is already cataloged the header
// is served from the catalog instead of the file.
func (t *Tool) Info(file string) (flh.Config, string, error) {
	hash, err := hashFile(file)
	if err != nil {
		return flh.Config{}, "", err
	}

	a, err := t.db.FindByHash(hash)
	if err != nil {
		return flh.Config{}, "", err
	}
	if a != nil {
		return flh.Config{
			Width:  a.Width,
			Height: a.Height,
			Depth:  16,
			Frames: a.Frames,
		}, hash, nil
	}

	f, err := os.Open(file)
	if err != nil {
		return flh.Config{}, "", err
	}
	defer f.Close()

	config, err := flh.DecodeConfig(bufio.NewReader(f))
	if err != nil {
		return flh.Config{}, "", err
	}
	return config, hash, nil
}
