// Command storebridge exercises the store callback bridge.
//
// Usage:
//
//	storebridge selftest   Run engine flows against the SQLite host store
//	storebridge exports    Print the exported store functions
package main

import (
	"log"
	"os"

	flags "github.com/jessevdk/go-flags"

	signalbridge "github.com/gwillem/signal-bridge"
)

type globalOpts struct {
	DB       string `long:"db" description:"Path to database file (default: temporary)"`
	Verbose  bool   `short:"v" long:"verbose" description:"Enable verbose logging"`
	Dispatch bool   `long:"dispatch" description:"Route store calls through the dispatch callback only"`
	Native   bool   `long:"native" description:"Call the store through the exported C entry points"`

	SelfTest selftestCommand `command:"selftest" description:"Run session and pre-key flows through the bridge"`
	Exports  exportsCommand  `command:"exports" description:"List store operations, callback ids and exported functions"`
}

var opts globalOpts

func main() {
	parser := flags.NewParser(&opts, flags.Default)
	parser.SubcommandsOptional = false

	_, err := parser.Parse()
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}
}

func bridgeOpts(dbPath string, dispatch bool) []signalbridge.Option {
	bopts := []signalbridge.Option{signalbridge.WithDBPath(dbPath)}
	if opts.Verbose {
		bopts = append(bopts, signalbridge.WithLogger(log.New(os.Stderr, "", log.LstdFlags)))
	}
	if dispatch {
		bopts = append(bopts, signalbridge.WithDispatchRouting())
	}
	if opts.Native {
		bopts = append(bopts, signalbridge.WithNativeBoundary())
	}
	return bopts
}
