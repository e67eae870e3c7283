package main

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	log "github.com/sirupsen/logrus"
	acdb "github.com/t7a/aircraftdb/db"

	"github.com/docopt/docopt-go"
)

// exit codes
const (
	rcOK      = 0
	rcUsage   = 2
	rcConfig  = 3
	rcIO      = 5
	rcCorrupt = 6
)

func init() {
	var debug string
	debug = os.Getenv("DEBUG")
	if debug == "1" {
		log.SetLevel(log.DebugLevel)
	}
	logrus.SetReportCaller(true)
	formatter := &logrus.TextFormatter{
		CallerPrettyfier: caller(),
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyFile: "caller",
		},
	}
	formatter.TimestampFormat = "15:04:05.999999999"
	logrus.SetFormatter(formatter)
}

// caller returns string presentation of log caller which is formatted as
// `/path/to/file.go:line_number`. e.g. `/internal/app/api.go:25`
func caller() func(*runtime.Frame) (function string, file string) {
	return func(f *runtime.Frame) (function string, file string) {
		p, _ := os.Getwd()
		return "", fmt.Sprintf("%s:%d gid %d", strings.TrimPrefix(f.File, p), f.Line, acdb.GetGID())
	}
}

const usage = `csv2json

Reads CSV files with aircraft information and produces a directory of
JSON files.  The last <path> is the database directory; every other
<path> is a CSV file, or "-" to read from stdin.  If multiple CSV files
provide conflicting data then the data from the last-listed file is
used.

Usage:
  csv2json verify [options] <dbdir>
  csv2json [options] <path> <path>...

Options:
  -h --help         Show this screen.
  --limit=<n>       Maximum entries per block [default: 2500].
  --key=<column>    Name of the address column [default: icao24].
  --jobs=<n>        Number of blocks written in parallel [default: 1].
  --strict          Skip rows whose address is not six hex digits.
  --metrics=<file>  Write build statistics in Prometheus textfile format.
`

type Opts struct {
	Verify  bool
	Dbdir   string
	Path    []string
	Limit   string `docopt:"--limit"`
	Key     string `docopt:"--key"`
	Jobs    string `docopt:"--jobs"`
	Strict  bool   `docopt:"--strict"`
	Metrics string `docopt:"--metrics"`
}

func main() {
	// see https://github.com/google/go-cmdtest
	os.Exit(run())
}

func run() (rc int) {
	parser := &docopt.Parser{HelpHandler: docopt.PrintHelpOnly, OptionsFirst: false}
	o, err := parser.ParseArgs(usage, os.Args[1:], "0.0")
	if err != nil {
		return rcUsage
	}
	var opts Opts
	err = o.Bind(&opts)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return rcUsage
	}
	log.Debug(opts)

	limit, err := strconv.Atoi(opts.Limit)
	if err != nil || limit < 1 {
		fmt.Fprintf(os.Stderr, "invalid --limit: %q\n", opts.Limit)
		return rcConfig
	}

	switch true {
	case opts.Verify:
		report, err := acdb.Verify(opts.Dbdir, limit)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			if _, ok := errors.Cause(err).(*acdb.CorruptError); ok {
				return rcCorrupt
			}
			return rcIO
		}
		fmt.Printf("%d blocks, %d split, %d records, largest block %d entries\n",
			report.Blocks, report.Internal, report.Records, report.MaxEntries)
		for _, bkey := range report.Orphans {
			fmt.Printf("orphan %s\n", acdb.BlockFile(bkey))
		}
	default:
		jobs, err := strconv.Atoi(opts.Jobs)
		if err != nil || jobs < 1 {
			fmt.Fprintf(os.Stderr, "invalid --jobs: %q\n", opts.Jobs)
			return rcConfig
		}
		cfg := acdb.Config{
			KeyColumn: opts.Key,
			Limit:     limit,
			Strict:    opts.Strict,
			Workers:   jobs,
		}
		if opts.Metrics != "" {
			cfg.Stats = acdb.NewStats()
		}
		paths := opts.Path
		dir := paths[len(paths)-1]
		db, err := build(cfg, dir, paths[:len(paths)-1])
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			switch errors.Cause(err).(type) {
			case *acdb.MissingKeyColumnError:
				return rcConfig
			}
			return rcIO
		}
		if opts.Metrics != "" {
			err = cfg.Stats.WriteTextfile(opts.Metrics)
			if err != nil {
				// statistics never fail a build
				log.Warnf("cannot write metrics: %v", err)
			}
		}
		fmt.Printf("wrote %d blocks to %s\n", len(db.Blocks), dir)
	}
	return rcOK
}

// build opens every CSV path and runs the pipeline into dir.
func build(cfg acdb.Config, dir string, paths []string) (db *acdb.Database, err error) {
	var srcs []acdb.Source
	defer func() {
		for _, src := range srcs {
			src.Close()
		}
	}()
	for _, path := range paths {
		src, err := acdb.OpenSource(path)
		if err != nil {
			return nil, errors.Wrapf(err, "%s", path)
		}
		srcs = append(srcs, src)
	}
	return acdb.Build(cfg, dir, srcs...)
}
