package db

import (
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/exp/slices"
)

// ChildrenKey is the JSON member of a split block that lists its
// child blocks.
const ChildrenKey = "children"

// DefaultLimit is the default maximum number of records per block.
const DefaultLimit = 2500

// ErrBadLimit is returned for a block limit below 1.
var ErrBadLimit = errors.New("block limit must be at least 1")

// Block is one shard of the database.  Entries maps dkeys to records.
// A nil Children marks a leaf; a split block has a non-nil, sorted
// Children list, and its Entries are the records kept in place by
// merge-back.
type Block struct {
	Key      string
	Entries  map[string]Record
	Children []string
}

func newBlock(bkey string) *Block {
	return &Block{Key: bkey, Entries: map[string]Record{}}
}

// IsLeaf returns true if the block has not been split.
func (b *Block) IsLeaf() bool {
	return b.Children == nil
}

// Len returns the number of records stored directly in the block.
func (b *Block) Len() int {
	return len(b.Entries)
}

// MarshalJSON writes the block as a compact object with sorted keys,
// including the children member of split blocks.
func (b *Block) MarshalJSON() ([]byte, error) {
	keys := make([]string, 0, len(b.Entries)+1)
	for dkey := range b.Entries {
		keys = append(keys, dkey)
	}
	if !b.IsLeaf() {
		keys = append(keys, ChildrenKey)
	}
	slices.Sort(keys)
	return encodeObject(keys, func(key string) interface{} {
		if key == ChildrenKey && !b.IsLeaf() {
			return b.Children
		}
		return b.Entries[key]
	})
}

// Database is the finished set of blocks, keyed by bkey.
type Database struct {
	Limit  int
	Blocks map[string]*Block
}

// Keys returns every bkey in ascending order.
func (db *Database) Keys() (keys []string) {
	keys = make([]string, 0, len(db.Blocks))
	for bkey := range db.Blocks {
		keys = append(keys, bkey)
	}
	slices.Sort(keys)
	return
}

// Seed sorts recs into top-level blocks by the first character of
// each address.  All sixteen hex roots are present even when empty.
func Seed(recs Records) map[string]*Block {
	blocks := make(map[string]*Block, 16)
	for _, bkey := range rootKeys() {
		blocks[bkey] = newBlock(bkey)
	}
	for key, rec := range recs {
		bkey, dkey := key.Split(1)
		b, ok := blocks[bkey]
		if !ok {
			// only reachable with malformed addresses
			b = newBlock(bkey)
			blocks[bkey] = b
		}
		b.Entries[dkey] = rec
	}
	return blocks
}

// Partition seeds the top-level blocks and splits every block holding
// more than limit records.  Blocks are visited breadth first in key
// order; children created by a split are queued behind the blocks
// already waiting.
func Partition(recs Records, limit int) (db *Database, err error) {
	if limit < 1 {
		return nil, ErrBadLimit
	}
	db = &Database{Limit: limit, Blocks: Seed(recs)}

	queue := db.Keys()
	for len(queue) > 0 {
		bkey := queue[0]
		queue = queue[1:]

		block := db.Blocks[bkey]
		if block.Len() <= limit {
			continue
		}
		log.Debugf("Splitting block %s with %d entries", bkey, block.Len())
		children := block.split(limit)
		log.Debugf("%d children created, %d entries retained in parent", len(children), block.Len())
		for _, child := range children {
			db.Blocks[child.Key] = child
			queue = append(queue, child.Key)
		}
	}
	return
}

// split moves the block's entries into children one hex digit deeper,
// then folds the smallest children back in while the parent stays
// under limit.  The children slot itself counts as one entry.  The
// block is rewritten in place and the children that were not folded
// back are returned in key order.
func (b *Block) split(limit int) (children []*Block) {
	retained := map[string]Record{}
	groups := map[string]*Block{}
	for dkey, rec := range b.Entries {
		if dkey == "" {
			// can't go any deeper
			retained[dkey] = rec
			continue
		}
		ckey := b.Key + dkey[:1]
		child, ok := groups[ckey]
		if !ok {
			child = newBlock(ckey)
			groups[ckey] = child
		}
		child.Entries[dkey[1:]] = rec
	}

	for _, child := range groups {
		children = append(children, child)
	}
	slices.SortFunc(children, func(x, y *Block) int {
		if x.Len() != y.Len() {
			return x.Len() - y.Len()
		}
		return compareKeys(x.Key, y.Key)
	})

	count := 1 + len(retained)
	for len(children) > 0 && children[0].Len()+count < limit {
		child := children[0]
		digit := child.Key[len(child.Key)-1:]
		for cdkey, rec := range child.Entries {
			retained[digit+cdkey] = rec
			count++
		}
		children = children[1:]
	}

	slices.SortFunc(children, func(x, y *Block) int {
		return compareKeys(x.Key, y.Key)
	})
	b.Entries = retained
	b.Children = make([]string, 0, len(children))
	for _, child := range children {
		b.Children = append(b.Children, child.Key)
	}
	return
}

func compareKeys(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
