// Command saju computes Four Pillars charts, luck cycles and solar terms
// from the command line, optionally against a SQLite almanac.
//
//	saju pillars --date 2000-03-07 --time 12:34 --location 서울
//	saju daeun --date 2000-03-07 --time 12:34 --gender female
//	saju saeun --from 2024 --to 2033 --birth-year 2000
//	saju terms --year 2024
//	saju seed --db data/almanac.db --from 1900 --to 2100
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "saju: %v\n", err)
		os.Exit(1)
	}
}
