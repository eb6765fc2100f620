package flictool

import (
	"bufio"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bodgit/flictool/flh"
)

func (t *Tool) findAnimations(ctx context.Context, base string) (<-chan string, <-chan error, error) {
	out := make(chan string)
	errc := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errc)
		errc <- filepath.Walk(base, func(file string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}

			// Ignore any hidden files or directories, otherwise we end up fighting with things like Spotlight, etc.
			if info.Name()[0] == '.' {
				if info.Mode().IsDir() {
					return filepath.SkipDir
				}
				return nil
			}

			if !info.Mode().IsRegular() || !strings.EqualFold(filepath.Ext(file), ".flh") {
				return nil
			}

			select {
			case out <- file:
			case <-ctx.Done():
				return errors.New("walk cancelled")
			}

			return nil
		})
	}()
	return out, errc, nil
}

// scanFile catalogs one animation file. Files that fail to decode are
// logged and skipped rather than aborting the whole scan.
func (t *Tool) scanFile(file string) error {
	hash, err := hashFile(file)
	if err != nil {
		return err
	}

	info, err := os.Stat(file)
	if err != nil {
		return err
	}

	known, err := t.db.FindByHash(hash)
	if err != nil {
		return err
	}
	if known != nil {
		known.Path = file
		return t.db.Add(*known, nil)
	}

	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()

	d, err := flh.NewDecoder(bufio.NewReader(f))
	if err != nil {
		t.logger.Printf("Skipping \"%s\": %v\n", file, err)
		return nil
	}
	preview, err := d.Next()
	if err != nil {
		t.logger.Printf("Skipping \"%s\": %v\n", file, err)
		return nil
	}

	config := d.Config()
	if err := t.db.Add(Animation{
		Path:   file,
		Hash:   hash,
		Frames: config.Frames,
		Width:  config.Width,
		Height: config.Height,
		Size:   info.Size(),
	}, preview); err != nil {
		return err
	}

	t.logger.Printf("Cataloged \"%s\": %d frames of %dx%d\n", file, config.Frames, config.Width, config.Height)
	return nil
}

func (t *Tool) scanWorker(ctx context.Context, in <-chan string) (<-chan error, error) {
	errc := make(chan error, 1)
	go func() {
		defer close(errc)
		for file := range in {
			if err := t.scanFile(file); err != nil {
				errc <- err
				return
			}
		}
	}()
	return errc, nil
}

func waitForPipeline(errs ...<-chan error) error {
	errc := mergeErrors(errs...)
	for err := range errc {
		if err != nil {
			return err
		}
	}
	return nil
}

func mergeErrors(cs ...<-chan error) <-chan error {
	var wg sync.WaitGroup
	out := make(chan error, len(cs))
	wg.Add(len(cs))
	for _, c := range cs {
		go func(c <-chan error) {
			for n := range c {
				out <- n
			}
			wg.Done()
		}(c)
	}
	go func() {
		wg.Wait()
		close(out)
	}()
	return out
}

// Scan walks a directory tree and catalogs every .flh file found.
func (t *Tool) Scan(path string) error {
	dir, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	ctx, cancelFunc := context.WithCancel(context.Background())
	defer cancelFunc()

	var errcList []<-chan error

	files, errc, err := t.findAnimations(ctx, dir)
	if err != nil {
		return err
	}
	errcList = append(errcList, errc)

	for i := 0; i < 10; i++ {
		errc, err := t.scanWorker(ctx, files)
		if err != nil {
			return err
		}
		errcList = append(errcList, errc)
	}

	return waitForPipeline(errcList...)
}
