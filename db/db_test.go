package db

import (
	"fmt"
	"io/ioutil"
	"os"
	"strings"
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	. "github.com/stevegt/goadapt"
)

const testDbDirPrefix = "aircraftdb"

// test boolean condition
func tassert(t *testing.T, cond bool, txt string, args ...interface{}) {
	t.Helper() // cause file:line info to show caller
	if !cond {
		t.Fatalf(txt, args...)
	}
}

// setup returns an empty output directory.  With DEBUG=1 the
// directory is kept and its name printed.
func setup(t *testing.T) (dir string) {
	var err error
	debug := os.Getenv("DEBUG")
	if debug == "1" {
		dir, err = ioutil.TempDir("", testDbDirPrefix)
		Ck(err)
		fmt.Println(dir)
		// no cleanup
	} else {
		dir = t.TempDir()
		// automatically cleaned up
	}
	return
}

func mksrc(name, csv string) Source {
	return Source{Name: name, Reader: strings.NewReader(csv)}
}

// mkkey returns the i'th of a sequence of distinct addresses spread
// over the whole address space.
func mkkey(i int) Key {
	return Key(fmt.Sprintf("%06X", (i*7919+13)%0x1000000))
}

// fakeRecords returns n records with distinct addresses and seeded
// synthetic attributes.
func fakeRecords(n int, seed int64) Records {
	f := gofakeit.New(seed)
	recs := Records{}
	for i := 0; i < n; i++ {
		recs[mkkey(i)] = Record{
			"r": f.Numerify("N#####"),
			"t": f.RandomString([]string{"A320", "B738", "C172", "E190", "DH8D"}),
		}
	}
	return recs
}

// blockRecords returns n records whose addresses start with prefix.
func blockRecords(recs Records, prefix string, n int) Records {
	if recs == nil {
		recs = Records{}
	}
	width := KeyLen - len(prefix)
	for i := 0; i < n; i++ {
		key := Key(fmt.Sprintf("%s%0*X", prefix, width, i))
		recs[key] = Record{"reg": fmt.Sprintf("N%d", i)}
	}
	return recs
}

func copyRecords(recs Records) Records {
	out := Records{}
	for key, rec := range recs {
		out = out.Merge(key, rec)
	}
	return out
}
