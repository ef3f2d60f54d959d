package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Faultbox/midgard-terrain/pkg/grf"
)

// cmdGRFList lists archive entries, e.g. the ground files available to import-gnd.
func cmdGRFList(args []string) error {
	fs := flag.NewFlagSet("grf-list", flag.ExitOnError)
	limit := fs.Int("n", 0, "Limit output to N files (0 = all)")
	fs.Parse(args)

	if fs.NArg() < 1 {
		return usage("grf-list [-n N] <file.grf> [pattern]")
	}

	archive, err := grf.Open(fs.Arg(0))
	if err != nil {
		return err
	}
	defer archive.Close()

	pattern := ""
	if fs.NArg() > 1 {
		pattern = strings.ToLower(fs.Arg(1))
	}

	count := 0
	for _, f := range archive.List() {
		if !matchEntry(f, pattern) {
			continue
		}
		fmt.Println(f)
		count++
		if *limit > 0 && count >= *limit {
			break
		}
	}

	if pattern != "" {
		fmt.Fprintf(os.Stderr, "\n(%d files matched)\n", count)
	}
	return nil
}

// matchEntry reports whether an archive path matches a glob on its base name
// or contains pattern. An empty pattern matches everything.
func matchEntry(path, pattern string) bool {
	if pattern == "" {
		return true
	}
	if matched, _ := filepath.Match(pattern, filepath.Base(path)); matched {
		return true
	}
	return strings.Contains(path, pattern)
}
