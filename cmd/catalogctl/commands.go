package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"photo-catalog/internal/catalog"
	"photo-catalog/internal/database"
	"photo-catalog/internal/exifmeta"
	"photo-catalog/internal/logging"
	"photo-catalog/internal/scanner"
	"photo-catalog/internal/startup"
)

// app holds state shared by the subcommands of one invocation.
type app struct {
	configPath string
	config     *startup.Config
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "catalogctl",
		Short:         "Build, synchronize and edit the photo catalog",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.loadConfig()
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "path to the YAML configuration file")

	root.AddCommand(
		a.scanCmd(),
		a.extractCmd(),
		a.buildCmd(),
		a.syncCmd(),
		a.tagsCmd(),
		a.metaCmd(),
	)
	return root
}

func (a *app) loadConfig() error {
	cfg, err := startup.Load(a.configPath)
	if err != nil {
		return err
	}
	logging.Configure(cfg.LoggingOptions(startup.StderrIsTerminal()))
	a.config = cfg
	return nil
}

func (a *app) openDatabase(ctx context.Context) (*database.Database, error) {
	db, err := database.New(ctx, a.config.DatabaseOptions())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return db, nil
}

func (a *app) newBuilder() *catalog.Builder {
	builder := catalog.NewBuilder(a.config.AllowedExtensions, exifmeta.NewExtractor())
	builder.SetWorkers(a.config.Sync.Workers)
	return builder
}

func (a *app) scanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scan",
		Short: "Print image paths under the upload folder",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := scanner.New(a.config.AllowedExtensions).Scan(cmd.Context(), a.config.UploadDir)
			if err != nil {
				return err
			}
			for _, p := range paths {
				fmt.Fprintln(cmd.OutOrStdout(), p)
			}
			return nil
		},
	}
}

func (a *app) extractCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "extract FILE",
		Short: "Print the normalized EXIF fields of one file as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fields := exifmeta.NewExtractor().Extract(args[0])
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(fields)
		},
	}
}

func (a *app) buildCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "build",
		Short: "Print the catalog table as tab separated values",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			builder := a.newBuilder()
			records, err := builder.Build(cmd.Context(), a.config.UploadDir)
			if err != nil {
				return err
			}
			return writeTSV(cmd.OutOrStdout(), records)
		},
	}
}

func (a *app) syncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Run one synchronization pass",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			db, err := a.openDatabase(ctx)
			if err != nil {
				return err
			}
			defer db.Close()

			builder := a.newBuilder()
			records, err := builder.Build(ctx, a.config.UploadDir)
			if err != nil {
				return err
			}

			result, err := catalog.SyncWithStore(ctx, db, records)
			fmt.Fprintf(cmd.OutOrStdout(), "inserted %d\n", result.Inserted)
			if err != nil {
				return fmt.Errorf("%d of %d records failed: %w", result.Failed, len(records), err)
			}
			return nil
		},
	}
}

func (a *app) tagsCmd() *cobra.Command {
	tagsCmd := &cobra.Command{
		Use:   "tags",
		Short: "Edit keyword tags of a catalogued image",
	}

	edit := func(use, short string, apply func(*catalog.Editor, context.Context, string, string) (string, int64, error)) *cobra.Command {
		return &cobra.Command{
			Use:   use + " PATH TAGS",
			Short: short,
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				ctx := cmd.Context()
				path, err := filepath.Abs(args[0])
				if err != nil {
					return err
				}

				db, err := a.openDatabase(ctx)
				if err != nil {
					return err
				}
				defer db.Close()

				result, rows, err := apply(catalog.NewEditor(db), ctx, path, args[1])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d\n", result, rows)
				return nil
			},
		}
	}

	tagsCmd.AddCommand(
		edit("add", "Merge tags into a record", (*catalog.Editor).AddTags),
		edit("remove", "Remove tags from a record", (*catalog.Editor).RemoveTags),
	)
	return tagsCmd
}

func (a *app) metaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "meta PATH DATETIME,MAKE,MODEL",
		Short: "Replace capture time, make and model of a record",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			path, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}

			db, err := a.openDatabase(ctx)
			if err != nil {
				return err
			}
			defer db.Close()

			rows, err := catalog.NewEditor(db).EditMetadataText(ctx, path, args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "updated %d\n", rows)
			return nil
		},
	}
}

// writeTSV writes a header line then one line per record. Absent values are
// empty; tabs and newlines inside values are replaced with spaces.
func writeTSV(w io.Writer, records []catalog.Record) error {
	if _, err := fmt.Fprintln(w, strings.Join(catalog.Columns, "\t")); err != nil {
		return err
	}

	cleaner := strings.NewReplacer("\t", " ", "\n", " ", "\r", " ")
	cells := make([]string, len(catalog.Columns))
	for _, r := range records {
		for i, v := range r.Values() {
			if v == nil {
				cells[i] = ""
				continue
			}
			cells[i] = cleaner.Replace(fmt.Sprint(v))
		}
		if _, err := fmt.Fprintln(w, strings.Join(cells, "\t")); err != nil {
			return err
		}
	}
	return nil
}
