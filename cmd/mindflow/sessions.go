package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mindflow/mindflow/internal/engine"
	"github.com/mindflow/mindflow/internal/store"
)

func newSessionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List archived sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			archive, err := store.NewArchive(cfg.Store.ArchiveDir)
			if err != nil {
				return err
			}
			defer archive.Close()

			ids, err := archive.List()
			if err != nil {
				return err
			}
			if len(ids) == 0 {
				fmt.Println("No archived sessions.")
				return nil
			}

			for _, id := range ids {
				t, err := archive.Get(id)
				if err != nil {
					return err
				}
				info := t.SessionInfo
				fmt.Printf("%s  %s  %d messages  %s  stage=%s\n",
					info.SessionID,
					info.StartTime.Format("2006-01-02 15:04"),
					info.MessageCount,
					info.Duration,
					info.CurrentStage)
			}
			return nil
		},
	}
	return cmd
}

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <session-id>",
		Short: "Print an archived transcript as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			archive, err := store.NewArchive(cfg.Store.ArchiveDir)
			if err != nil {
				return err
			}
			defer archive.Close()

			t, err := archive.Get(args[0])
			if err != nil {
				return err
			}
			return printJSON(t)
		},
	}
	return cmd
}

func newReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report <session-id>",
		Short: "Generate a report for an archived session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			archive, err := store.NewArchive(cfg.Store.ArchiveDir)
			if err != nil {
				return err
			}
			defer archive.Close()

			t, err := archive.Get(args[0])
			if err != nil {
				return err
			}

			eng := engine.NewFromTranscript(engine.Config{}, t)
			return printJSON(eng.GenerateReport())
		},
	}
	return cmd
}
