package db

import (
	"context"
	"os"
	"path/filepath"

	"github.com/google/renameio"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	. "github.com/stevegt/goadapt"
	"golang.org/x/sync/errgroup"
)

// file mode of written blocks; they are served as static assets
const blockMode = 0644

// Writer writes a Database to a directory, one JSON file per block.
// Each file is written to a temporary name and renamed into place, so
// a reader never sees a partial block.  Blocks are independent, so
// Workers > 1 writes them in parallel; the files produced are the
// same either way.
type Writer struct {
	Dir     string
	Workers int
	Stats   *Stats
}

// Write stores every block of db under w.Dir, creating the directory
// if needed, and returns the number of blocks written.
func (w *Writer) Write(db *Database) (n int, err error) {
	defer Return(&err)
	Assert(db != nil, "db is nil")

	err = mkdir(w.Dir, 0755)
	Ck(errors.Wrapf(err, "cannot create %s", w.Dir))

	workers := w.Workers
	if workers < 1 {
		workers = 1
	}

	log.Infof("Writing %d blocks to %s", len(db.Blocks), w.Dir)
	// the first failed write cancels the blocks not yet started
	g, ctx := errgroup.WithContext(context.Background())
	g.SetLimit(workers)
	for _, bkey := range db.Keys() {
		if ctx.Err() != nil {
			break
		}
		block := db.Blocks[bkey]
		g.Go(func() error {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return w.WriteBlock(block)
		})
	}
	err = g.Wait()
	if err != nil {
		return 0, err
	}

	n = len(db.Blocks)
	log.Infof("Wrote %d blocks", n)
	return
}

// WriteBlock writes a single block to w.Dir.
func (w *Writer) WriteBlock(block *Block) (err error) {
	path := filepath.Join(w.Dir, BlockFile(block.Key))
	buf, err := block.MarshalJSON()
	if err != nil {
		return errors.Wrapf(err, "cannot encode block %s", block.Key)
	}
	log.Debugf("Writing %d entries to %s", block.Len(), path)
	err = renameio.WriteFile(path, buf, blockMode)
	if err != nil {
		return errors.Wrapf(err, "cannot write %s", path)
	}
	w.Stats.blockWritten(block)
	return
}

func canstat(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func mkdir(dir string, mode os.FileMode) (err error) {
	if _, err = os.Stat(dir); os.IsNotExist(err) {
		err = os.MkdirAll(dir, mode)
		if err != nil {
			return
		}
	}
	return
}
