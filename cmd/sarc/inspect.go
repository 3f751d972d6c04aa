package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/meigma/sarc"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect ARCHIVE",
	Short: "Print the header fields and entry table",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		arc, err := openArchive(cmd, args[0])
		if err != nil {
			return err
		}
		defer arc.Close()

		report, err := arc.Inspect()
		if err != nil {
			return err
		}

		digests, _ := cmd.Flags().GetBool("digests")
		return writeReport(cmd.OutOrStdout(), report, digests)
	},
}

func init() {
	inspectCmd.Flags().Bool("digests", false, "Show the sha256 digest of each payload")

	rootCmd.AddCommand(inspectCmd)
}

func writeReport(w io.Writer, r *sarc.Report, digests bool) error {
	fmt.Fprintf(w, "format:      %s\n", r.Format)
	fmt.Fprintf(w, "byte order:  %s\n", r.ByteOrder)
	fmt.Fprintf(w, "multiplier:  0x%X\n", r.HashMultiplier)
	fmt.Fprintf(w, "size:        %s\n", humanize.IBytes(uint64(r.FileSize)))
	fmt.Fprintf(w, "data offset: 0x%X\n", r.DataOffset)
	fmt.Fprintf(w, "entries:     %d\n\n", len(r.Entries))

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	header := "#\tHASH\tSIZE\tSOURCE\tCHECK\tMAGIC\tNAME"
	if digests {
		header += "\tDIGEST"
	}
	fmt.Fprintln(tw, header)
	for _, e := range r.Entries {
		fmt.Fprintf(tw, "%d\t%08X\t%s\t%s\t%s\t%q\t%s",
			e.Index, e.Hash, humanize.IBytes(e.Size()), e.Source, e.Verification, e.Magic, e.Name)
		if digests {
			fmt.Fprintf(tw, "\t%s", e.Digest)
		}
		fmt.Fprintln(tw)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	for _, e := range r.Entries {
		if e.Note != nil {
			fmt.Fprintf(w, "note: %v\n", e.Note)
		}
	}
	for _, name := range r.Unmatched {
		fmt.Fprintf(w, "unmatched manifest name: %s\n", name)
	}
	for _, name := range r.UnreferencedNames {
		fmt.Fprintf(w, "unreferenced string-table name: %s\n", name)
	}
	for _, c := range r.Collisions {
		fmt.Fprintf(w, "manifest collision: %08X kept %s, dropped %s\n", c.Hash, c.Kept, c.Dropped)
	}
	return nil
}
