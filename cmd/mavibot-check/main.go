// cmd/mavibot-check/main.go
//
// mavibot-check - integrity checker for a RecordManager file.
//
// Usage:
//
//	mavibot-check [-quick] <database-file>
//
// Runs the full page-reachability walk by default (free list, every
// managed tree's current and historical BTreeHeader/BTreeInfo records,
// every CopiedPagesBtree-kept page); -quick only checks the recorded
// header and root offsets against the file size.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/dibyang/directory-mavibot/pkg/recordmgr"
)

func main() {
	quick := flag.Bool("quick", false, "skip the full page walk, only check recorded offsets against file size")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: mavibot-check [-quick] <database-file>")
		os.Exit(2)
	}
	path := flag.Arg(0)

	rm, err := recordmgr.Open(path, 0)
	if err != nil {
		fmt.Fprintf(os.Stderr, "opening %s: %v\n", path, err)
		os.Exit(1)
	}
	defer rm.Close()

	var errs []recordmgr.IntegrityError
	if *quick {
		errs = rm.QuickCheck()
	} else {
		errs = rm.IntegrityCheck()
	}

	if len(errs) == 0 {
		fmt.Println("ok")
		return
	}

	for _, e := range errs {
		fmt.Fprintln(os.Stderr, e.Error())
	}
	fmt.Fprintf(os.Stderr, "%d error(s) found\n", len(errs))
	os.Exit(1)
}
