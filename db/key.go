package db

import (
	"fmt"
	"strings"
)

// KeyLen is the length of a well-formed address.
const KeyLen = 6

// Key is an ICAO address as stored in the database.  Keys read from
// CSV are upper-cased but otherwise taken as-is; Valid reports whether
// a key is a well-formed six digit hex address.
type Key string

// NormalizeKey converts raw CSV input into a Key.
func NormalizeKey(raw string) Key {
	return Key(strings.ToUpper(raw))
}

// Valid returns true if the key is exactly KeyLen hex digits.
func (k Key) Valid() bool {
	if len(k) != KeyLen {
		return false
	}
	for i := 0; i < len(k); i++ {
		if !isHex(k[i]) {
			return false
		}
	}
	return true
}

// Split divides the key into a bkey of n characters and the dkey
// that follows it.  Keys shorter than n yield the whole key as bkey
// and an empty dkey.
func (k Key) Split(n int) (bkey, dkey string) {
	s := string(k)
	if n > len(s) {
		n = len(s)
	}
	return s[:n], s[n:]
}

// BlockFile returns the file name of the block with the given bkey.
func BlockFile(bkey string) string {
	return bkey + ".json"
}

// rootKeys returns the sixteen top-level bkeys in ascending order.
func rootKeys() (keys []string) {
	for i := 0; i < 16; i++ {
		keys = append(keys, fmt.Sprintf("%01X", i))
	}
	return
}

func isHex(c byte) bool {
	switch {
	case '0' <= c && c <= '9':
		return true
	case 'A' <= c && c <= 'F':
		return true
	case 'a' <= c && c <= 'f':
		return true
	}
	return false
}
