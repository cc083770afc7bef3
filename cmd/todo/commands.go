package main

import (
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"text/tabwriter"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"taskboard/internal/config"
	"taskboard/internal/kv"
	"taskboard/internal/storage"
	"taskboard/internal/store"
	"taskboard/internal/task"
	"taskboard/internal/ui"
	"taskboard/internal/view"
)

type app struct {
	cfg     config.Config
	backend *storage.Store
	tasks   *store.Store
}

func (a *app) Close() error {
	return a.backend.Close()
}

func loadConfig(configPath string) (config.Config, error) {
	if configPath == "" {
		configPath = config.ResolveConfigPath()
	}
	cfg, err := config.LoadOrCreate(configPath)
	if err != nil {
		return cfg, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// setupLogging sends log output to the configured log file, or drops it.
// Stderr belongs to command output and, for the root command, to the TUI.
func setupLogging(cfg config.Config) (closeLog func(), err error) {
	if cfg.LogFile == "" {
		log.SetOutput(io.Discard)
		return func() {}, nil
	}
	f, err := tea.LogToFile(cfg.LogFile, "todo")
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return func() { f.Close() }, nil
}

func openApp(cfg config.Config) (*app, error) {
	backend, err := storage.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	tasks := store.New(backend)
	if err := tasks.Load(); err != nil {
		backend.Close()
		return nil, err
	}
	return &app{cfg: cfg, backend: backend, tasks: tasks}, nil
}

func newRootCmd() *cobra.Command {
	var configPath string

	// withApp opens the store for one command and closes it afterwards.
	withApp := func(fn func(cmd *cobra.Command, a *app, args []string) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			closeLog, err := setupLogging(cfg)
			if err != nil {
				return err
			}
			defer closeLog()
			a, err := openApp(cfg)
			if err != nil {
				return err
			}
			defer a.Close()
			return fn(cmd, a, args)
		}
	}

	root := &cobra.Command{
		Use:           "todo",
		Short:         "Track tasks with statuses, tags and deadlines",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, a *app, _ []string) error {
			return ui.Run(a.tasks, a.backend, a.cfg)
		}),
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to config.toml (default $"+config.ConfigEnv+" or the user config dir)")

	root.AddCommand(
		newAddCmd(withApp),
		newListCmd(withApp),
		newStatusCmd(withApp),
		newRemoveCmd(withApp),
		newClearDoneCmd(withApp),
		newStatsCmd(withApp),
		newTagsCmd(withApp),
	)
	return root
}

type appRunner func(fn func(cmd *cobra.Command, a *app, args []string) error) func(*cobra.Command, []string) error

func newAddCmd(withApp appRunner) *cobra.Command {
	var in store.NewTask
	cmd := &cobra.Command{
		Use:   "add TEXT...",
		Short: "Add a pending task",
		Args:  cobra.MinimumNArgs(1),
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			in.Text = strings.Join(args, " ")
			for _, id := range in.Tags {
				if _, ok := task.ResolveTag(id); !ok {
					return fmt.Errorf("unknown tag %q", id)
				}
			}
			for _, d := range []string{in.StartDate, in.Deadline} {
				if d == "" {
					continue
				}
				if _, err := task.ParseDate(d, nil); err != nil {
					return err
				}
			}
			created, err := a.tasks.Add(in)
			if err != nil {
				return err
			}
			if created == nil {
				return errors.New("task text is empty")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added %s\n", created.ID)
			return nil
		}),
	}
	cmd.Flags().StringSliceVarP(&in.Tags, "tag", "t", nil, "catalog tag id (repeatable)")
	cmd.Flags().StringVar(&in.StartDate, "start", "", "start date, YYYY-MM-DD")
	cmd.Flags().StringVar(&in.Deadline, "deadline", "", "deadline, YYYY-MM-DD")
	cmd.Flags().StringVar(&in.Assignee, "assignee", "", "who is responsible")
	return cmd
}

func newListCmd(withApp appRunner) *cobra.Command {
	var statusFlag, tagFlag string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks, newest first",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, a *app, _ []string) error {
			status := a.cfg.StatusFilter()
			if cmd.Flags().Changed("status") {
				f, err := task.ParseStatusFilter(statusFlag)
				if err != nil {
					return err
				}
				status = f
			}
			tag := a.cfg.TagFilter()
			if cmd.Flags().Changed("tag") {
				tag = strings.TrimSpace(tagFlag)
			}

			now := a.tasks.Now()
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tSTATUS\tTEXT\tTAGS\tASSIGNEE\tDEADLINE")
			for _, t := range a.tasks.FilteredView(status, tag) {
				deadline := t.Deadline
				if view.IsOverdue(t.Deadline, now) && t.Status != task.StatusDone {
					deadline += " (overdue)"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", t.ID, t.Status, t.Text, tagLabels(t.Tags), t.Assignee, deadline)
			}
			return w.Flush()
		}),
	}
	cmd.Flags().StringVarP(&statusFlag, "status", "s", task.FilterAll, "all, pending, in-progress or done")
	cmd.Flags().StringVarP(&tagFlag, "tag", "t", task.FilterAll, "all or a tag id")
	return cmd
}

func newStatusCmd(withApp appRunner) *cobra.Command {
	return &cobra.Command{
		Use:   "status ID STATUS",
		Short: "Set a task's status (pending, in-progress, done)",
		Args:  cobra.ExactArgs(2),
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			s, err := task.ParseStatus(args[1])
			if err != nil {
				return err
			}
			if _, ok := a.tasks.Get(args[0]); !ok {
				fmt.Fprintf(cmd.ErrOrStderr(), "no task %s\n", args[0])
				return nil
			}
			return a.tasks.SetStatus(args[0], s)
		}),
	}
}

func newRemoveCmd(withApp appRunner) *cobra.Command {
	return &cobra.Command{
		Use:     "rm ID",
		Aliases: []string{"delete"},
		Short:   "Delete a task",
		Args:    cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			return a.tasks.Remove(args[0])
		}),
	}
}

func newClearDoneCmd(withApp appRunner) *cobra.Command {
	return &cobra.Command{
		Use:   "clear-done",
		Short: "Delete every done task",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, a *app, _ []string) error {
			n, err := a.tasks.ClearDone()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "cleared %d\n", n)
			return nil
		}),
	}
}

func newStatsCmd(withApp appRunner) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show per-status counts and completion",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, a *app, _ []string) error {
			s := a.tasks.Stats()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "pending: %d\nin-progress: %d\ndone: %d\ntotal: %d\n", s.Pending, s.InProgress, s.Done, s.Total)
			if s.Total > 0 {
				fmt.Fprintf(out, "complete: %d%%\n", s.CompletionPercentage)
			}
			saved, ok, err := a.backend.UpdatedAt(kv.KeyTodos)
			if err != nil {
				return err
			}
			if ok {
				fmt.Fprintf(out, "last saved: %s\n", saved.Local().Format("2006-01-02 15:04:05"))
			}
			return nil
		}),
	}
}

func newTagsCmd(withApp appRunner) *cobra.Command {
	var used bool
	cmd := &cobra.Command{
		Use:   "tags",
		Short: "List catalog tags",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, a *app, _ []string) error {
			out := cmd.OutOrStdout()
			if used {
				for _, id := range a.tasks.UsedTags() {
					fmt.Fprintln(out, id)
				}
				return nil
			}
			for _, t := range task.Catalog() {
				fmt.Fprintf(out, "%s\t%s\n", t.ID, t.Label)
			}
			return nil
		}),
	}
	cmd.Flags().BoolVar(&used, "used", false, "only tags that are on at least one task")
	return cmd
}

// tagLabels joins the labels of catalog tags, skipping ids the catalog
// does not know.
func tagLabels(ids []string) string {
	var labels []string
	for _, id := range ids {
		if t, ok := task.ResolveTag(id); ok {
			labels = append(labels, t.Label)
		}
	}
	return strings.Join(labels, ",")
}
