package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"life-os/internal/client"
	"life-os/internal/database"
	"life-os/internal/planner"
	"life-os/internal/utils"
	"life-os/internal/viewstate"
)

func newUpcomingCmd(opts *options) *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "upcoming",
		Short: "Show open tasks due today, tomorrow and over the next week",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.client()
			if err != nil {
				return err
			}
			up, err := c.Upcoming(context.Background(), date)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if up.Len() == 0 {
				fmt.Fprintln(out, "Nothing due this week 🎉")
				return nil
			}
			printBucket(out, "Today", up.Today)
			printBucket(out, "Tomorrow", up.Tomorrow)
			printBucket(out, "Next 7 days", up.Next7Days)
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "reference day (YYYY-MM-DD, default today)")
	return cmd
}

func printBucket(out io.Writer, title string, items []planner.UpcomingItem) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(out, "%s\n", title)
	for _, it := range items {
		fmt.Fprintf(out, "  %s", taskLine(it.Task))
		if it.Badge != "" {
			fmt.Fprintf(out, " [%s]", it.Badge)
		}
		fmt.Fprintln(out)
	}
}

func taskLine(t *database.Task) string {
	box := "⬜"
	if t.Completed {
		box = "✅"
	}
	priority := ""
	if t.Priority != nil {
		priority = string(*t.Priority)
	}
	line := fmt.Sprintf("%s %s %s", box, utils.GetPriorityEmoji(priority), t.Title)
	if t.DueDate != nil {
		line += " · " + *t.DueDate
	}
	if due := utils.FormatDueTime(t.DueTime); due != "" {
		line += " " + due
	}
	return line + "  " + t.ID
}

func newTasksCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tasks",
		Aliases: []string{"task"},
		Short:   "List and edit tasks",
	}
	cmd.AddCommand(
		newTasksListCmd(opts),
		newTasksAddCmd(opts),
		newTasksToggleCmd(opts),
		newTasksRemoveCmd(opts),
	)
	return cmd
}

func newTasksListCmd(opts *options) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List open tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.client()
			if err != nil {
				return err
			}
			list := client.ListOptions{Order: "due_date"}
			if !all {
				list.Filters = []client.Filter{{Column: "completed", Value: "false"}}
			}
			tasks, err := c.Tasks().List(context.Background(), list)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(tasks) == 0 {
				fmt.Fprintln(out, "No tasks.")
				return nil
			}
			planner.SortTasks(tasks)
			for _, t := range tasks {
				fmt.Fprintln(out, taskLine(t))
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&all, "all", "a", false, "include completed tasks")
	return cmd
}

func newTasksAddCmd(opts *options) *cobra.Command {
	var due, at, priority string
	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Create a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.client()
			if err != nil {
				return err
			}
			fields := map[string]any{"title": args[0]}
			if due != "" {
				fields["due_date"] = due
			}
			if at != "" {
				fields["due_time"] = at
			}
			if priority != "" {
				fields["priority"] = priority
			}
			task, err := c.Tasks().Create(context.Background(), fields)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✅ Added: %s\n", taskLine(task))
			return nil
		},
	}
	cmd.Flags().StringVar(&due, "due", "", "due date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&at, "at", "", "due time (HH:MM)")
	cmd.Flags().StringVar(&priority, "priority", "", "low, medium or high")
	return cmd
}

// taskState loads the caller's tasks into a local view so edits go
// through the dispatcher like any other client.
func taskState(ctx context.Context, opts *options) (*client.Table[*database.Task], *viewstate.Dispatcher[*database.Task], error) {
	c, err := opts.client()
	if err != nil {
		return nil, nil, err
	}
	tasks := c.Tasks()
	rows, err := tasks.List(ctx, client.ListOptions{})
	if err != nil {
		return nil, nil, err
	}
	list := viewstate.NewList[*database.Task]()
	list.Load(rows)
	return tasks, viewstate.NewDispatcher(list, nil), nil
}

func newTasksToggleCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <id>",
		Short: "Flip a task between open and done",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			tasks, d, err := taskState(ctx, opts)
			if err != nil {
				return err
			}
			id := args[0]
			task, err := d.Update(ctx, id, func(ctx context.Context) (*database.Task, error) {
				return tasks.Toggle(ctx, id)
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), taskLine(task))
			return nil
		},
	}
}

func newTasksRemoveCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete a task",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			tasks, d, err := taskState(ctx, opts)
			if err != nil {
				return err
			}
			id := args[0]
			if err := d.Delete(ctx, id, func(ctx context.Context) error { return tasks.Delete(ctx, id) }); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "🗑 Deleted %s, %d left\n", id, d.List().Len())
			return nil
		},
	}
}

func newHabitsCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "habits",
		Aliases: []string{"habit"},
		Short:   "Habit streaks and check-ins",
	}
	cmd.AddCommand(newHabitsListCmd(opts), newHabitsToggleCmd(opts))
	return cmd
}

func newHabitsListCmd(opts *options) *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show habits with their streaks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.client()
			if err != nil {
				return err
			}
			view, err := c.HabitSummary(context.Background(), date)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(view.Habits) == 0 {
				fmt.Fprintln(out, "No habits yet.")
				return nil
			}
			for _, h := range view.Habits {
				box := "⬜"
				if h.CompletedToday {
					box = "✅"
				}
				fmt.Fprintf(out, "%s %s %s 🔥%d (best %d)  %s\n", box, h.Habit.Emoji, h.Habit.Name, h.CurrentStreak, h.BestStreak, h.Habit.ID)
			}
			fmt.Fprintf(out, "%d/%d done on %s\n", view.Totals.TodayDone, view.Totals.ActiveHabits, view.Date)
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "day to show (YYYY-MM-DD, default today)")
	return cmd
}

func newHabitsToggleCmd(opts *options) *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "toggle <id>",
		Short: "Check a habit in or out for a day",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.client()
			if err != nil {
				return err
			}
			res, err := c.ToggleHabit(context.Background(), args[0], date)
			if err != nil {
				return err
			}
			state := "undone"
			if res.Completed {
				state = "done"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s on %s 🔥%d (best %d)\n",
				res.Habit.Emoji, res.Habit.Name, state, res.Date, res.Habit.Streak, res.Habit.BestStreak)
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "day to toggle (YYYY-MM-DD, default today)")
	return cmd
}
