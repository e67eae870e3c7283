package db

import (
	"bytes"
	"runtime"
	"strconv"

	log "github.com/sirupsen/logrus"
)

// Config holds the settings for one build.
type Config struct {
	KeyColumn string // address column; DefaultKeyColumn if empty
	Limit     int    // maximum records per block; DefaultLimit if zero
	Strict    bool   // drop rows with malformed addresses
	Workers   int    // parallel block writes; 1 if zero
	Stats     *Stats // optional
}

// Build runs the whole pipeline: load srcs in order, clean, partition,
// and write the blocks to dir.  Nothing is written unless every
// source loads successfully.  It returns the database it wrote.
func Build(cfg Config, dir string, srcs ...Source) (db *Database, err error) {
	limit := cfg.Limit
	if limit == 0 {
		limit = DefaultLimit
	}
	if limit < 1 {
		return nil, ErrBadLimit
	}

	loader := &Loader{KeyColumn: cfg.KeyColumn, Strict: cfg.Strict, Stats: cfg.Stats}
	recs, err := loader.Load(srcs...)
	if err != nil {
		return nil, err
	}

	dropped := recs.Clean()
	if dropped > 0 {
		log.Infof("Dropped %d records with only placeholder values", dropped)
	}
	cfg.Stats.recordsDropped(dropped)

	db, err = Partition(recs, limit)
	if err != nil {
		return nil, err
	}

	w := &Writer{Dir: dir, Workers: cfg.Workers, Stats: cfg.Stats}
	_, err = w.Write(db)
	if err != nil {
		return nil, err
	}
	cfg.Stats.Finish()
	return
}

// GetGID returns the goroutine ID of its calling function, for logging purposes.
func GetGID() uint64 {
	b := make([]byte, 64)
	b = b[:runtime.Stack(b, false)]
	b = bytes.TrimPrefix(b, []byte("goroutine "))
	b = b[:bytes.IndexByte(b, ' ')]
	n, _ := strconv.ParseUint(string(b), 10, 64)
	return n
}
