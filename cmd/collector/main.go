// Command collector ingests exchange trades into PostgreSQL, keeping a raw
// page cache on disk so a restart or a rebuilt database resumes without
// re-fetching what was already seen.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
