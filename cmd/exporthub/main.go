package main

import (
	"fmt"
	"io"
	"os"

	_ "exporthub/internal/storage/local"
	_ "exporthub/internal/storage/s3"
)

func main() {
	os.Exit(mainWithArgs(os.Args[1:], os.Stdout, os.Stderr))
}

// mainWithArgs runs the command tree and maps the outcome to an exit code.
func mainWithArgs(args []string, stdout, stderr io.Writer) int {
	root := buildRootCmdWith(&cli{stdout: stdout, stderr: stderr, lookupEnv: os.LookupEnv})
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}
	return 0
}
