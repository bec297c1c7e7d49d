package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"

	"pitchside/internal/config"
	"pitchside/internal/repos"
)

var (
	cfg config.Config

	rootCmd = &cobra.Command{
		Use:           "pitchside",
		Short:         "Cricket equipment storefront and catalog admin",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load()
			return err
		},
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE:  runServe,
	}

	migrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := repos.OpenDB(cfg.DBDSN)
			if err != nil {
				return err
			}
			defer db.Close()
			log.Printf("[migrate] %s is up to date", cfg.DBDSN)
			return nil
		},
	}

	verifyCmd = &cobra.Command{
		Use:   "verify",
		Short: "Report category and product references to missing rows",
		RunE:  runVerify,
	}
)

func init() {
	rootCmd.AddCommand(serveCmd, migrateCmd, verifyCmd)
}

func runVerify(cmd *cobra.Command, args []string) error {
	db, err := repos.OpenDB(cfg.DBDSN)
	if err != nil {
		return err
	}
	defer db.Close()
	refs, err := repos.NewCategoryRepo(db).Dangling(context.Background())
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for _, r := range refs {
		fmt.Fprintln(out, r)
	}
	if len(refs) > 0 {
		return fmt.Errorf("%d dangling references", len(refs))
	}
	fmt.Fprintln(out, "ok: no dangling references")
	return nil
}

// openLogFile tees the standard logger into cfg.LogFile.
func openLogFile(path string) func() {
	if path == "" {
		return func() {}
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		log.Printf("[warn] could not open log file %s: %v", path, err)
		return func() {}
	}
	log.SetOutput(io.MultiWriter(os.Stdout, f))
	return func() { f.Close() }
}
