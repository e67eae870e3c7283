/*

Package db builds a static, sharded aircraft lookup database from one
or more CSV files.  The result is a directory of small JSON files
that a web client can fetch one at a time to resolve an ICAO address
to its registration, type and other attributes.

Vocabulary:

- address: 24-bit ICAO aircraft address, six hexadecimal characters,
	always upper case once loaded
- key: an address as stored in memory (type Key)
- record: attribute name -> value map for one address
- source: one CSV file (or stdin) with a header row and an address column
- placeholder: the "-COMPUTED-" value; derived data we never ship
- block: one JSON file; maps detail keys to records
- bkey: block key; the address prefix shared by everything in a block,
	also the file name without ".json"
- dkey: detail key; the rest of the address after bkey
- limit: maximum number of records stored directly in one block
- children: list of bkeys one hex digit deeper; present only in blocks
	that were split.  An address whose dkey is not found in a block
	with children continues in the child named bkey + dkey[0:1].
- leaf: a block without children
- merge-back: folding small children back into their parent during a
	split so that fewer files are written
- database: every block produced by one build, rooted at the sixteen
	one-character bkeys "0" through "F"

*/

package db
