package db

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestBuild(t *testing.T) {
	dir := setup(t)
	stats := NewStats()
	cfg := Config{Limit: 2500, Stats: stats}
	db, err := Build(cfg, dir,
		mksrc("a.csv", "icao24,reg,type\nABC123,N1,C172\nABC124,-COMPUTED-,\nABC125,N3,\n"),
		mksrc("b.csv", "icao24,reg\nABC123,N2\n"),
	)
	tassert(t, err == nil, "%v", err)
	tassert(t, len(db.Blocks) == 16, "expected 16 blocks, got %d", len(db.Blocks))

	buf, err := os.ReadFile(filepath.Join(dir, "A.json"))
	tassert(t, err == nil, "%v", err)
	expect := `{"BC123":{"reg":"N2","type":"C172"},"BC125":{"reg":"N3"}}`
	tassert(t, string(buf) == expect, "expected %s got %s", expect, buf)

	got := testutil.ToFloat64(stats.loaded.WithLabelValues("a.csv"))
	tassert(t, got == 3, "a.csv loaded %v", got)
	got = testutil.ToFloat64(stats.loaded.WithLabelValues("b.csv"))
	tassert(t, got == 1, "b.csv loaded %v", got)
	got = testutil.ToFloat64(stats.dropped)
	tassert(t, got == 1, "dropped %v", got)
	got = testutil.ToFloat64(stats.blocks)
	tassert(t, got == 16, "blocks %v", got)
	got = testutil.ToFloat64(stats.internal)
	tassert(t, got == 0, "internal %v", got)

	metrics := filepath.Join(setup(t), "aircraftdb.prom")
	err = stats.WriteTextfile(metrics)
	tassert(t, err == nil, "%v", err)
	buf, err = os.ReadFile(metrics)
	tassert(t, err == nil, "%v", err)
	tassert(t, strings.Contains(string(buf), "aircraftdb_blocks_written_total 16"), "%s", buf)
}

func TestBuildMissingKeyColumnWritesNothing(t *testing.T) {
	dir := filepath.Join(setup(t), "out")
	_, err := Build(Config{}, dir,
		mksrc("a.csv", "icao24,reg\nABC123,N1\n"),
		mksrc("b.csv", "address,reg\nABC123,N2\n"),
	)
	var e *MissingKeyColumnError
	tassert(t, errors.As(err, &e), "%v", err)
	tassert(t, e.Source == "b.csv", "wrong source %q", e.Source)
	tassert(t, !canstat(dir), "output written after configuration error")
}

func TestBuildBadLimit(t *testing.T) {
	_, err := Build(Config{Limit: -1}, setup(t), mksrc("a.csv", "icao24\n"))
	tassert(t, err == ErrBadLimit, "expected ErrBadLimit, got %v", err)
}

func TestStatsNil(t *testing.T) {
	var s *Stats
	s.recordsLoaded("x", 1)
	s.recordsDropped(1)
	s.blockWritten(newBlock("A"))
	s.Finish()
	err := s.WriteTextfile(filepath.Join(setup(t), "x.prom"))
	tassert(t, err == nil, "%v", err)
}
