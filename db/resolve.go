package db

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	. "github.com/stevegt/goadapt"
	"golang.org/x/exp/slices"
)

// UnmarshalJSON reads a block written by MarshalJSON.  The block's
// Key is not part of the encoding and is left unchanged.
func (b *Block) UnmarshalJSON(buf []byte) (err error) {
	var members map[string]json.RawMessage
	err = json.Unmarshal(buf, &members)
	if err != nil {
		return
	}
	b.Entries = make(map[string]Record, len(members))
	b.Children = nil
	for key, raw := range members {
		if key == ChildrenKey {
			children := []string{}
			err = json.Unmarshal(raw, &children)
			if err != nil {
				return errors.Wrapf(err, "%s", ChildrenKey)
			}
			b.Children = children
			continue
		}
		var rec Record
		err = json.Unmarshal(raw, &rec)
		if err != nil {
			return errors.Wrapf(err, "entry %s", key)
		}
		b.Entries[key] = rec
	}
	return
}

// ReadBlock loads the block named bkey from dir.
func ReadBlock(dir, bkey string) (block *Block, err error) {
	path := filepath.Join(dir, BlockFile(bkey))
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	block = &Block{Key: bkey}
	err = json.Unmarshal(buf, block)
	if err != nil {
		return nil, errors.Wrapf(err, "malformed block %s", path)
	}
	return
}

// Resolve looks up an address in a written database the same way the
// web client does: start at the block named by the first character,
// and while the rest of the address is not an entry, step into the
// child one character deeper if the block lists it.  ok is false if
// the address has no record.
func Resolve(dir string, key Key) (rec Record, ok bool, err error) {
	key = NormalizeKey(string(key))
	for level := 1; level <= len(key); level++ {
		bkey, dkey := key.Split(level)
		var block *Block
		block, err = ReadBlock(dir, bkey)
		if err != nil {
			return nil, false, err
		}
		rec, ok = block.Entries[dkey]
		if ok {
			return
		}
		if block.IsLeaf() || len(dkey) == 0 {
			return nil, false, nil
		}
		next, _ := key.Split(level + 1)
		if !slices.Contains(block.Children, next) {
			return nil, false, nil
		}
	}
	return nil, false, nil
}

// CorruptError describes a block that breaks the database layout.
type CorruptError struct {
	Block  string
	Reason string
}

func (e *CorruptError) Error() string {
	return fmt.Sprintf("block %s: %s", e.Block, e.Reason)
}

// VerifyReport summarizes a verified database directory.
type VerifyReport struct {
	Blocks     int      // blocks reachable from the roots
	Internal   int      // reachable blocks with children
	Records    int      // records stored in reachable blocks
	MaxEntries int      // largest number of records in one block
	Orphans    []string // block files not reachable from any root
}

// Verify walks every block reachable from the sixteen roots in dir and
// checks that each listed child exists, that no block holds more
// than limit records, and that child keys extend their parent's key
// by one character.  Block files left over from an earlier build are
// reported as orphans rather than errors.
func Verify(dir string, limit int) (report VerifyReport, err error) {
	defer Return(&err)

	if !canstat(dir) {
		return report, fmt.Errorf("cannot open: %s", dir)
	}

	seen := map[string]bool{}
	queue := rootKeys()
	for len(queue) > 0 {
		bkey := queue[0]
		queue = queue[1:]
		if seen[bkey] {
			return report, &CorruptError{Block: bkey, Reason: "listed twice"}
		}
		seen[bkey] = true

		if !canstat(filepath.Join(dir, BlockFile(bkey))) {
			return report, &CorruptError{Block: bkey, Reason: "missing"}
		}
		block, err := ReadBlock(dir, bkey)
		Ck(err)

		report.Blocks++
		report.Records += block.Len()
		if block.Len() > report.MaxEntries {
			report.MaxEntries = block.Len()
		}
		if limit > 0 && block.Len() > limit {
			reason := fmt.Sprintf("%d entries exceed limit %d", block.Len(), limit)
			return report, &CorruptError{Block: bkey, Reason: reason}
		}
		if block.IsLeaf() {
			continue
		}
		report.Internal++
		for _, ckey := range block.Children {
			if len(ckey) != len(bkey)+1 || !strings.HasPrefix(ckey, bkey) {
				reason := fmt.Sprintf("child %q is not one digit below", ckey)
				return report, &CorruptError{Block: bkey, Reason: reason}
			}
			queue = append(queue, ckey)
		}
	}

	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	Ck(err)
	for _, path := range files {
		bkey := strings.TrimSuffix(filepath.Base(path), ".json")
		if !seen[bkey] {
			report.Orphans = append(report.Orphans, bkey)
		}
	}
	slices.Sort(report.Orphans)
	if len(report.Orphans) > 0 {
		log.Warnf("%d block files in %s are not reachable", len(report.Orphans), dir)
	}
	return
}
