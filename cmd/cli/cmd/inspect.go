package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/perf-attribution/internal/elfinfo"
)

var (
	stringsPattern string
	stringsMinLen  int
	scanStrings    bool
	statOnly       bool
)

// inspectCmd represents the inspect command.
var inspectCmd = &cobra.Command{
	Use:   "inspect <binary>",
	Short: "Inspect a shared library",
	Long: `Inspect prints a shared library's exported and imported symbols and
its direct dependencies as JSON. Mangled C++ and Rust names are
demangled.

A file that cannot be parsed as ELF yields empty lists, not an error,
matching how the analyzer treats foreign binaries during a scene run.

With --strings the binary is scanned for printable character runs
instead, optionally filtered by a regular expression.`,
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)

	inspectCmd.Flags().BoolVar(&scanStrings, "strings", false, "Scan for printable strings instead of symbols")
	inspectCmd.Flags().StringVar(&stringsPattern, "pattern", "", "Regular expression filter for --strings")
	inspectCmd.Flags().IntVar(&stringsMinLen, "min-len", elfinfo.DefaultMinStringLength, "Minimum string length for --strings")
	inspectCmd.Flags().BoolVar(&statOnly, "stat", false, "Print symbol and dependency counts only")
}

func runInspect(cmd *cobra.Command, args []string) error {
	path := args[0]
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("binary not found: %s", path)
	}

	analyzer := elfinfo.NewAnalyzer(elfinfo.WithLogger(GetLogger()))

	if scanStrings {
		found, err := analyzer.ScanStrings(path, stringsPattern, stringsMinLen)
		if err != nil {
			return err
		}
		for _, s := range found {
			fmt.Println(s)
		}
		return nil
	}

	var out interface{}
	if statOnly {
		out = analyzer.Stat(path)
	} else {
		out = analyzer.Analyze(path)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
