package db

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	. "github.com/stevegt/goadapt"
)

// DefaultKeyColumn is the CSV column holding the address.
const DefaultKeyColumn = "icao24"

// Stdin is the path that selects standard input as a source.
const Stdin = "-"

// Source is one CSV input.  Name identifies it in logs and errors.
type Source struct {
	Name   string
	Reader io.Reader
}

// OpenSource opens path for reading.  The path "-" returns stdin,
// named "stdin".  Callers should Close the source when done.
func OpenSource(path string) (src Source, err error) {
	if path == Stdin {
		return Source{Name: "stdin", Reader: os.Stdin}, nil
	}
	fh, err := os.Open(path)
	if err != nil {
		return src, errors.Wrapf(err, "cannot open source")
	}
	return Source{Name: path, Reader: fh}, nil
}

// Close closes the underlying file.  Stdin is left open.
func (src Source) Close() error {
	if src.Reader == os.Stdin {
		return nil
	}
	if c, ok := src.Reader.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// MissingKeyColumnError is returned when a source has no address
// column in its header.
type MissingKeyColumnError struct {
	Source string
	Column string
}

func (e *MissingKeyColumnError) Error() string {
	return fmt.Sprintf("%s: CSV should have at least an %q column", e.Source, e.Column)
}

// Loader reads CSV sources into Records.
type Loader struct {
	KeyColumn string // defaults to DefaultKeyColumn
	Strict    bool   // drop rows whose address is not KeyLen hex digits
	Stats     *Stats
}

func (l *Loader) keyColumn() string {
	if l.KeyColumn == "" {
		return DefaultKeyColumn
	}
	return l.KeyColumn
}

// Load merges srcs, in order, into a new Records set.
func (l *Loader) Load(srcs ...Source) (recs Records, err error) {
	recs = Records{}
	for _, src := range srcs {
		recs, _, err = l.Merge(recs, src)
		if err != nil {
			return nil, err
		}
	}
	return
}

// Merge reads one source and merges its rows into recs, returning the
// updated set and the number of rows that contributed at least one
// attribute.  Empty values are ignored, so a later source can only
// override a field by providing a value for it.
func (l *Loader) Merge(recs Records, src Source) (out Records, n int, err error) {
	defer Return(&err)

	log.Infof("Reading from %s", src.Name)

	keycol := l.keyColumn()
	rd := csv.NewReader(src.Reader)
	rd.FieldsPerRecord = -1

	header, err := rd.Read()
	if errors.Cause(err) == io.EOF {
		return recs, 0, &MissingKeyColumnError{Source: src.Name, Column: keycol}
	}
	Ck(errors.Wrapf(err, "%s: header", src.Name))

	idx := -1
	for i, name := range header {
		if name == keycol {
			idx = i
		}
	}
	if idx < 0 {
		return recs, 0, &MissingKeyColumnError{Source: src.Name, Column: keycol}
	}

	if recs == nil {
		recs = Records{}
	}
	for {
		row, err := rd.Read()
		if errors.Cause(err) == io.EOF {
			break
		}
		Ck(errors.Wrapf(err, "%s", src.Name))

		raw := field(row, idx)
		if raw == "" {
			line, _ := rd.FieldPos(0)
			log.Warnf("%s: line %d: empty %s, skipping", src.Name, line, keycol)
			continue
		}

		rec := Record{}
		for i, name := range header {
			if name == keycol {
				continue
			}
			if val := field(row, i); val != "" {
				rec[name] = val
			}
		}
		if len(rec) == 0 {
			continue
		}

		key := NormalizeKey(raw)
		if !key.Valid() {
			line, _ := rd.FieldPos(idx)
			if l.Strict {
				log.Warnf("%s: line %d: malformed address %q, skipping", src.Name, line, raw)
				l.Stats.recordsRejected(1)
				continue
			}
			log.Warnf("%s: line %d: malformed address %q", src.Name, line, raw)
		}

		recs = recs.Merge(key, rec)
		n++
	}

	log.Infof("Read %d aircraft from %s", n, src.Name)
	l.Stats.recordsLoaded(src.Name, n)
	return recs, n, nil
}

// field returns row[i], or "" for short rows.
func field(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}
