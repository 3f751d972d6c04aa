package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/meigma/sarc"
)

var extractCmd = &cobra.Command{
	Use:   "extract ARCHIVE",
	Short: "Extract every entry to a directory",
	Long: "Extract every entry of ARCHIVE below the output directory. Entries without an embedded " +
		"or manifest name are written as <HASH><ext> with the extension guessed from the payload.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		arc, err := openArchive(cmd, args[0])
		if err != nil {
			return err
		}
		defer arc.Close()

		out, _ := cmd.Flags().GetString("out")
		if out == "" {
			out = defaultOutDir(args[0])
		}

		stats, err := arc.Extract(cmd.Context(), out, extractOptions(cmd)...)
		if stats != nil {
			printExtractStats(cmd, out, stats)
		}
		return err
	},
}

func init() {
	extractCmd.Flags().StringP("out", "o", "", "Output directory (default: archive path without extension)")
	extractCmd.Flags().IntP("workers", "w", 1, "Number of entries written concurrently")
	extractCmd.Flags().Bool("skip-existing", false, "Leave files that already exist in place")
	extractCmd.Flags().Bool("strict", false, "Fail when any entry could not be extracted")
	extractCmd.Flags().Bool("direct", false, "Write files in place instead of via temp files")

	rootCmd.AddCommand(extractCmd)
}

func extractOptions(cmd *cobra.Command) []sarc.ExtractOption {
	workers, _ := cmd.Flags().GetInt("workers")
	skip, _ := cmd.Flags().GetBool("skip-existing")
	strict, _ := cmd.Flags().GetBool("strict")
	direct, _ := cmd.Flags().GetBool("direct")

	return []sarc.ExtractOption{
		sarc.ExtractWithWorkers(workers),
		sarc.ExtractWithOverwrite(!skip),
		sarc.ExtractWithStrict(strict),
		sarc.ExtractWithDirectWrites(direct),
	}
}

// defaultOutDir strips the container extensions from path: "Theme.szs"
// becomes "Theme", "pack.sarc.zs" becomes "pack".
func defaultOutDir(path string) string {
	out := path
	for _, ext := range []string{".zs", ".szs", ".sarc", ".arc", ".pack"} {
		out = strings.TrimSuffix(out, ext)
	}
	if out == path || out == "" {
		out = path + ".d"
	}
	return filepath.Clean(out)
}

func printExtractStats(cmd *cobra.Command, out string, stats *sarc.ExtractStats) {
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "extracted %d files (%s) to %s\n", stats.Written, humanize.IBytes(stats.Bytes), out)
	if stats.Dirs > 0 {
		fmt.Fprintf(w, "created %d directories\n", stats.Dirs)
	}
	if stats.Skipped > 0 {
		fmt.Fprintf(w, "skipped %d existing files\n", stats.Skipped)
	}
	for _, f := range stats.Failures {
		fmt.Fprintf(w, "failed: %v\n", f)
	}
	for _, n := range stats.Notes {
		fmt.Fprintf(w, "note: %v\n", n)
	}
}
