package main

import (
	"fmt"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
	"github.com/spf13/cobra"

	"github.com/klimat/klimat/internal/model"
	"github.com/klimat/klimat/internal/ui"
)

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Manage farm tasks",
}

var (
	taskAddCrop     string
	taskAddDue      string
	taskAddPriority string
)

var taskAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a task",
	Long: `Add a task with a due date. Dates can be natural language:

  klimat task add "Spray for armyworm" --crop maize --due "next friday"
  klimat task add "Fix fence" --due 2025-05-01`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		due, err := parseDue(taskAddDue)
		if err != nil {
			return err
		}
		task := model.Task{
			ID:       fmt.Sprintf("manual_%d", time.Now().UnixNano()),
			CropID:   taskAddCrop,
			Name:     args[0],
			Priority: taskAddPriority,
			DueDate:  due.Format("2006-01-02"),
		}
		if err := tasks.Add(cmd.Context(), &task); err != nil {
			return err
		}
		fmt.Printf("Added %s (due %s)\n", task.Name, task.DueDate)
		return nil
	},
}

// parseDue accepts YYYY-MM-DD or natural language like "next friday".
func parseDue(text string) (time.Time, error) {
	if text == "" {
		return time.Now(), nil
	}
	if t, err := time.ParseInLocation("2006-01-02", text, time.Local); err == nil {
		return t, nil
	}

	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	r, err := w.Parse(text, time.Now())
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse due date %q: %w", text, err)
	}
	if r == nil {
		return time.Time{}, fmt.Errorf("could not understand due date %q", text)
	}
	return r.Time, nil
}

var (
	taskListCrop   string
	taskListStatus string
	taskListToday  bool
)

var taskListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		var list []model.Task
		var err error
		switch {
		case taskListToday:
			list, err = tasks.Today(ctx, time.Now())
		case taskListCrop != "":
			list, err = tasks.ByCrop(ctx, taskListCrop)
		case taskListStatus != "":
			list, err = tasks.ByStatus(ctx, taskListStatus)
		default:
			list, err = tasks.All(ctx)
		}
		if err != nil {
			return err
		}
		printTasks(list)
		return nil
	},
}

var taskDoneCmd = &cobra.Command{
	Use:   "done <id>",
	Short: "Mark a task done",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := tasks.Complete(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Printf("Done: %s\n", args[0])
		return nil
	},
}

var taskNoteCmd = &cobra.Command{
	Use:   "note <id> <text>",
	Short: "Attach a field note to a task",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		task, err := tasks.Get(ctx, args[0])
		if err != nil {
			return err
		}
		if task == nil {
			return fmt.Errorf("no task with id %s", args[0])
		}
		if _, err := tasks.AddNote(ctx, &model.Note{TaskID: args[0], Text: args[1]}); err != nil {
			return err
		}
		fmt.Println("Note saved.")
		return nil
	},
}

var taskShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a task with its notes and photos",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		task, err := tasks.Get(ctx, args[0])
		if err != nil {
			return err
		}
		if task == nil {
			return fmt.Errorf("no task with id %s", args[0])
		}

		fmt.Println(ui.Header(task.Name))
		fmt.Println("  " + ui.Field("crop", task.CropName))
		fmt.Println("  " + ui.Field("due", task.DueDate))
		fmt.Println("  " + ui.Field("status", ui.Status(task.Status)))
		fmt.Println("  " + ui.Field("priority", ui.Priority(task.Priority)))
		if task.Description != "" {
			fmt.Println("  " + task.Description)
		}

		notes, err := tasks.Notes(ctx, task.ID)
		if err != nil {
			return err
		}
		for _, n := range notes {
			fmt.Printf("  note: %s\n", n.Text)
		}
		photos, err := tasks.Photos(ctx, task.ID)
		if err != nil {
			return err
		}
		for _, p := range photos {
			fmt.Printf("  photo: %s\n", p.Path)
		}
		return nil
	},
}

var taskDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := tasks.Delete(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Printf("Deleted: %s\n", args[0])
		return nil
	},
}

func init() {
	taskAddCmd.Flags().StringVar(&taskAddCrop, "crop", "", "crop id the task belongs to")
	taskAddCmd.Flags().StringVar(&taskAddDue, "due", "", "due date (YYYY-MM-DD or natural language)")
	taskAddCmd.Flags().StringVar(&taskAddPriority, "priority", "", "critical, high, medium, or low")

	taskListCmd.Flags().StringVar(&taskListCrop, "crop", "", "filter by crop id")
	taskListCmd.Flags().StringVar(&taskListStatus, "status", "", "filter by status")
	taskListCmd.Flags().BoolVar(&taskListToday, "today", false, "only today's pending tasks")

	taskCmd.AddCommand(taskAddCmd)
	taskCmd.AddCommand(taskListCmd)
	taskCmd.AddCommand(taskDoneCmd)
	taskCmd.AddCommand(taskNoteCmd)
	taskCmd.AddCommand(taskShowCmd)
	taskCmd.AddCommand(taskDeleteCmd)
}
