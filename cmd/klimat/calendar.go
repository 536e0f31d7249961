package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/klimat/klimat/internal/model"
	"github.com/klimat/klimat/internal/ui"
)

var calendarCmd = &cobra.Command{
	Use:   "calendar",
	Short: "Browse the planting calendar",
}

var (
	calendarListMonth string
	calendarListCrop  string
)

var calendarListCmd = &cobra.Command{
	Use:   "list",
	Short: "List calendar events",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		var events []model.CalendarEvent
		var err error
		switch {
		case calendarListMonth != "":
			t, perr := time.Parse("2006-01", calendarListMonth)
			if perr != nil {
				return fmt.Errorf("invalid month %q, expected YYYY-MM", calendarListMonth)
			}
			events, err = calendar.ByMonth(ctx, t.Year(), t.Month())
		case calendarListCrop != "":
			events, err = calendar.ByCrop(ctx, calendarListCrop)
		default:
			events, err = calendar.All(ctx)
		}
		if err != nil {
			return err
		}
		printEvents(events)
		return nil
	},
}

var calendarUpcomingCmd = &cobra.Command{
	Use:   "upcoming",
	Short: "Events due in the next week, plus anything overdue",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		now := time.Now()

		overdue, err := calendar.Overdue(ctx, now)
		if err != nil {
			return err
		}
		if len(overdue) > 0 {
			fmt.Println(ui.Header("Overdue"))
			printEvents(overdue)
		}

		upcoming, err := calendar.Upcoming(ctx, now)
		if err != nil {
			return err
		}
		fmt.Println(ui.Header("Coming up"))
		printEvents(upcoming)
		return nil
	},
}

var calendarDoneCmd = &cobra.Command{
	Use:   "done <id>",
	Short: "Mark a calendar event completed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid event id %q", args[0])
		}
		if err := calendar.SetCompleted(cmd.Context(), id, true); err != nil {
			return err
		}
		fmt.Printf("Completed event %d\n", id)
		return nil
	},
}

var calendarStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Season progress at a glance",
	RunE: func(cmd *cobra.Command, args []string) error {
		stats, err := calendar.Stats(cmd.Context(), time.Now())
		if err != nil {
			return err
		}
		fmt.Println(ui.Header("Calendar"))
		fmt.Println("  " + ui.Field("total", strconv.Itoa(stats.Total)))
		fmt.Println("  " + ui.Field("completed", strconv.Itoa(stats.Completed)))
		fmt.Println("  " + ui.Field("upcoming", strconv.Itoa(stats.Upcoming)))
		fmt.Println("  " + ui.Field("overdue", strconv.Itoa(stats.Overdue)))
		return nil
	},
}

func printEvents(events []model.CalendarEvent) {
	if len(events) == 0 {
		fmt.Println("  no events")
		return
	}
	for _, e := range events {
		mark := " "
		if e.Completed {
			mark = "x"
		}
		fmt.Printf("  [%s] #%-3d %s  %-10s %s\n", mark, e.ID, e.Date, e.Crop, e.Event)
	}
}

func init() {
	calendarListCmd.Flags().StringVar(&calendarListMonth, "month", "", "filter by month (YYYY-MM)")
	calendarListCmd.Flags().StringVar(&calendarListCrop, "crop", "", "filter by crop name")

	calendarCmd.AddCommand(calendarListCmd)
	calendarCmd.AddCommand(calendarUpcomingCmd)
	calendarCmd.AddCommand(calendarDoneCmd)
	calendarCmd.AddCommand(calendarStatsCmd)
}
