package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/joestump/link-library/internal/exporter"
)

func newImportCmd() *cobra.Command {
	var (
		userEmail string
		libraryID string
		xlsx      bool
	)
	cmd := &cobra.Command{
		Use:   "import <file|->",
		Short: "Import links into a library",
		Long: "Import links from a JSON list, a newline-separated list of URLs, or\n" +
			"(with --xlsx) a workbook written by export. Use - to read stdin.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap()
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			p, err := a.principal(ctx, userEmail)
			if err != nil {
				return err
			}

			in := cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}

			svc := a.service()
			var n int
			if xlsx {
				records, err := exporter.ReadRecords(in)
				if err != nil {
					return fmt.Errorf("read workbook: %w", err)
				}
				n, err = svc.ImportRecords(ctx, p, libraryID, records)
				if err != nil {
					return err
				}
			} else {
				data, err := io.ReadAll(in)
				if err != nil {
					return err
				}
				n, err = svc.Import(ctx, p, libraryID, string(data))
				if err != nil {
					return err
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "imported %d links\n", n)
			return nil
		},
	}
	cmd.Flags().StringVar(&userEmail, "user", "", "email of the library owner")
	cmd.Flags().StringVar(&libraryID, "library", "", "library id")
	cmd.Flags().BoolVar(&xlsx, "xlsx", false, "input is an xlsx workbook")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("library")
	return cmd
}

func newExportCmd() *cobra.Command {
	var (
		userEmail string
		libraryID string
		dir       string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a library to an xlsx workbook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap()
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			p, err := a.principal(ctx, userEmail)
			if err != nil {
				return err
			}

			exp, err := a.service().Export(ctx, p, libraryID)
			if err != nil {
				return err
			}

			path := filepath.Join(dir, exp.Filename)
			if err := os.WriteFile(path, exp.Data, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported %d links to %s\n", exp.Count, path)
			return nil
		},
	}
	cmd.Flags().StringVar(&userEmail, "user", "", "email of the library owner")
	cmd.Flags().StringVar(&libraryID, "library", "", "library id")
	cmd.Flags().StringVar(&dir, "dir", ".", "output directory")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("library")
	return cmd
}
