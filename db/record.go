package db

import (
	"golang.org/x/exp/slices"
)

// Computed is the placeholder value some sources use for attributes
// that were derived rather than observed.  Placeholders are removed
// by Clean and never written.
const Computed = "-COMPUTED-"

// Record maps attribute names to values for one address.
type Record map[string]string

// Records is the whole merged data set, keyed by address.
type Records map[Key]Record

// Merge copies the fields of rec into the record stored under key,
// creating it if needed.  Fields already present are overwritten, so
// the last merge of a given field wins.  Merge returns the updated
// set; a nil receiver is allocated.
func (recs Records) Merge(key Key, rec Record) Records {
	if recs == nil {
		recs = Records{}
	}
	cur, ok := recs[key]
	if !ok {
		cur = make(Record, len(rec))
		recs[key] = cur
	}
	for name, val := range rec {
		cur[name] = val
	}
	return recs
}

// Clean deletes placeholder attributes and then drops any record left
// without attributes.  It returns the number of records dropped.
func (recs Records) Clean() (dropped int) {
	for key, rec := range recs {
		for name, val := range rec {
			if val == Computed {
				delete(rec, name)
			}
		}
		if len(rec) == 0 {
			delete(recs, key)
			dropped++
		}
	}
	return
}

// Keys returns the addresses in ascending order.
func (recs Records) Keys() (keys []Key) {
	keys = make([]Key, 0, len(recs))
	for key := range recs {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	return
}

// MarshalJSON writes the record as a compact object with sorted keys.
func (rec Record) MarshalJSON() ([]byte, error) {
	names := make([]string, 0, len(rec))
	for name := range rec {
		names = append(names, name)
	}
	slices.Sort(names)
	return encodeObject(names, func(name string) interface{} {
		return rec[name]
	})
}
