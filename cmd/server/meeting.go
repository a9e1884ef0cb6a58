package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dkeye/Huddle/internal/adapters/directory"
	"github.com/dkeye/Huddle/internal/config"
	"github.com/dkeye/Huddle/internal/core"
)

var meetingCmd = &cobra.Command{
	Use:   "meeting",
	Short: "Manage meetings in the configured directory",
}

var meetingCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Register a meeting url",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		title, _ := cmd.Flags().GetString("title")
		url, _ := cmd.Flags().GetString("url")
		return withDirectory(cmd, func(dir core.MeetingDirectory) error {
			mt, err := dir.CreateMeeting(cmd.Context(), title, url)
			if err != nil {
				return err
			}
			return printJSON(cmd, mt)
		})
	},
}

var meetingGetCmd = &cobra.Command{
	Use:   "get <url>",
	Short: "Look up an active meeting by url",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDirectory(cmd, func(dir core.MeetingDirectory) error {
			mt, err := dir.GetMeetingByURL(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd, mt)
		})
	},
}

func init() {
	meetingCreateCmd.Flags().String("title", "", "meeting title")
	meetingCreateCmd.Flags().String("url", "", "meeting url (the room id clients join)")
	_ = meetingCreateCmd.MarkFlagRequired("url")
	meetingCmd.AddCommand(meetingCreateCmd, meetingGetCmd)
}

var errNoDirectory = errors.New("no persistent meeting directory configured (set directory.driver to sqlite)")

func withDirectory(cmd *cobra.Command, fn func(core.MeetingDirectory) error) error {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return err
	}
	setupLogger(cfg.Mode)
	if cfg.Directory.Driver != directory.DriverSQLite {
		return errNoDirectory
	}
	dir, closeDir, err := directory.Open(cmd.Context(), cfg.Directory.Driver, cfg.Directory.DSN)
	if err != nil {
		return fmt.Errorf("open meeting directory: %w", err)
	}
	defer closeDir()
	return fn(dir)
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
