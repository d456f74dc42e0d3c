package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"tasklogger/internal/task"
	"tasklogger/internal/tasklist"
)

var (
	indexStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666"))
	doneStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#87AF87"))
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the tasks in the active backend",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		snap, err := a.load(cmd.Context())
		if err != nil {
			return err
		}
		printTasks(cmd.OutOrStdout(), snap)
		return nil
	},
}

var (
	addDeadline string
	addNotes    string
)

var addCmd = &cobra.Command{
	Use:   "add TITLE",
	Short: "Add a pending task",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		if _, err := a.load(cmd.Context()); err != nil {
			return err
		}
		snap, err := a.list.Apply(cmd.Context(), tasklist.Add{
			Title:    strings.Join(args, " "),
			Deadline: addDeadline,
			Notes:    addNotes,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Task saved (%s, %d total)\n", snap.Mode, len(snap.Tasks))
		return nil
	},
}

var doneCmd = &cobra.Command{
	Use:   "done N",
	Short: "Toggle the N-th listed task between Pending and Done",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return applyToNth(cmd, args[0], func(t task.Task) tasklist.Intent {
			return tasklist.ToggleStatus{ID: t.ID}
		}, func(w io.Writer, t task.Task, snap tasklist.Snapshot) {
			if i := snap.Index(t.ID); i >= 0 {
				fmt.Fprintf(w, "%s is now %s\n", snap.Tasks[i].Title, snap.Tasks[i].Status)
			}
		})
	},
}

var rmCmd = &cobra.Command{
	Use:     "rm N",
	Aliases: []string{"delete"},
	Short:   "Delete the N-th listed task",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return applyToNth(cmd, args[0], func(t task.Task) tasklist.Intent {
			return tasklist.Delete{ID: t.ID}
		}, func(w io.Writer, t task.Task, _ tasklist.Snapshot) {
			fmt.Fprintf(w, "Task deleted: %s\n", t.Title)
		})
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the active backend and how many tasks each backend holds",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := cmd.Context()
		dbCount, err := a.db.Count(ctx)
		if err != nil {
			return err
		}
		kvCount, err := a.kv.Count(ctx)
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "active: %s\n", a.cfg.Mode())
		fmt.Fprintf(w, "sqlite: %s (%s)\n", plural(dbCount, "task"), a.db.Path())
		fmt.Fprintf(w, "prefs: %s (%s)\n", plural(kvCount, "task"), a.kv.Path())
		return nil
	},
}

func init() {
	addCmd.Flags().StringVar(&addDeadline, "deadline", "", "deadline, YYYY-MM-DD or Jan 2, 2006")
	addCmd.Flags().StringVar(&addNotes, "notes", "", "free-form notes")
}

// applyToNth resolves a 1-based list position to a task and applies the intent built for it.
func applyToNth(cmd *cobra.Command, arg string, build func(task.Task) tasklist.Intent, report func(io.Writer, task.Task, tasklist.Snapshot)) error {
	n, err := strconv.Atoi(arg)
	if err != nil {
		return fmt.Errorf("invalid task number %q", arg)
	}

	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	snap, err := a.load(cmd.Context())
	if err != nil {
		return err
	}
	t, err := nth(snap, n)
	if err != nil {
		return err
	}
	after, err := a.list.Apply(cmd.Context(), build(t))
	if err != nil {
		return err
	}
	report(cmd.OutOrStdout(), t, after)
	return nil
}

func nth(snap tasklist.Snapshot, n int) (task.Task, error) {
	if n < 1 || n > len(snap.Tasks) {
		return task.Task{}, fmt.Errorf("no task %d in %s (%s)", n, snap.Mode, plural(len(snap.Tasks), "task"))
	}
	return snap.Tasks[n-1], nil
}

func printTasks(w io.Writer, snap tasklist.Snapshot) {
	if len(snap.Tasks) == 0 {
		fmt.Fprintf(w, "No tasks in %s\n", snap.Mode)
		return
	}
	for i, t := range snap.Tasks {
		deadline := "No deadline"
		if t.HasDeadline() {
			deadline = t.Deadline
		}
		status := string(t.Status)
		if t.Status == task.StatusDone {
			status = doneStyle.Render(status)
		}
		fmt.Fprintf(w, "%s %s  %s • %s\n", indexStyle.Render(strconv.Itoa(i+1)+"."), t.Title, deadline, status)
		if t.Notes != "" {
			fmt.Fprintf(w, "   %s\n", t.Notes)
		}
	}
}

func plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
