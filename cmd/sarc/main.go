// Command sarc decodes SARC resource archives.
package main

import (
	"log/slog"
	"os"

	"charm.land/log/v2"
	"github.com/spf13/cobra"

	"github.com/meigma/sarc"
)

var rootCmd = &cobra.Command{
	Use:           "sarc",
	Short:         "Decode SARC resource archives",
	Long:          "Decode SARC resource archives, optionally wrapped in Yaz0 or zstd, and extract their contents.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringP("manifest", "m", "", "Path to a JSON or text name manifest")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		newLogger(rootCmd).Error("sarc failed", "err", err)
		os.Exit(1)
	}
}

func newLogger(cmd *cobra.Command) *slog.Logger {
	level := log.InfoLevel
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = log.DebugLevel
	}
	handler := log.NewWithOptions(cmd.ErrOrStderr(), log.Options{
		Level:  level,
		Prefix: "sarc",
	})
	return slog.New(handler)
}

// openArchive opens path with the manifest and logger configured by the
// persistent flags.
func openArchive(cmd *cobra.Command, path string) (*sarc.Archive, error) {
	opts := []sarc.Option{sarc.WithLogger(newLogger(cmd))}

	manifestPath, _ := cmd.Flags().GetString("manifest")
	if manifestPath != "" {
		m, err := sarc.LoadManifest(manifestPath)
		if err != nil {
			return nil, err
		}
		opts = append(opts, sarc.WithManifest(m))
	}

	return sarc.Open(path, opts...)
}
