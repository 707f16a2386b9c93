package main

import (
	"github.com/matt-steen/sqr1/pkg/db"
	"github.com/spf13/cobra"
)

// eventView is an event with its project resolved for display.
type eventView struct {
	db.CalendarEvent
	ProjectName string `json:"projectName,omitempty"`
}

type eventFlags struct {
	title       string
	date        string
	month       string
	description string
	project     string
	color       string

	clearDescription bool
	clearProject     bool
	clearColor       bool
}

func (a *app) eventCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "event",
		Short: "Manage calendar events",
	}

	cmd.AddCommand(a.eventListCmd(), a.eventCreateCmd(), a.eventUpdateCmd(), &cobra.Command{
		Use:   "delete <event>",
		Short: "Delete an event",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.database.Events.DeleteEvent(cmd.Context(), args[0])
		},
	})

	return cmd
}

func (a *app) eventListCmd() *cobra.Command {
	var f eventFlags

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List events, optionally for one date or month",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			var projectID *string
			if f.project != "" {
				projectID = &f.project
			}

			var (
				events []db.CalendarEvent
				err    error
			)

			switch {
			case f.date != "":
				events, err = a.database.Events.EventsForDate(ctx, f.date, projectID)
			case f.month != "":
				events, err = a.database.Events.EventsForMonth(ctx, f.month, projectID)
			default:
				events, err = a.database.Events.Events(ctx)
			}

			if err != nil {
				return err
			}

			projects, err := a.database.Projects.Projects(ctx)
			if err != nil {
				return err
			}

			views := make([]eventView, 0, len(events))

			for _, e := range events {
				if projectID != nil && (e.ProjectID == nil || *e.ProjectID != *projectID) {
					continue
				}

				views = append(views, eventView{CalendarEvent: e, ProjectName: db.ProjectName(projects, e.ProjectID)})
			}

			return a.print(views)
		},
	}

	cmd.Flags().StringVar(&f.date, "date", "", "only events on this date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.month, "month", "", "only events in this month (YYYY-MM)")
	cmd.Flags().StringVar(&f.project, "project", "", "only events of this project")

	return cmd
}

func (a *app) eventCreateCmd() *cobra.Command {
	var f eventFlags

	cmd := &cobra.Command{
		Use:   "create <title> <date>",
		Short: "Create an event",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ne := db.NewEvent{Title: args[0], Date: args[1]}

			if cmd.Flags().Changed("description") {
				ne.Description = &f.description
			}

			if cmd.Flags().Changed("project") {
				ne.ProjectID = &f.project
			}

			if cmd.Flags().Changed("color") {
				c := db.EventColor(f.color)
				ne.Color = &c
			}

			event, err := a.database.Events.CreateEvent(cmd.Context(), ne)
			if err != nil {
				return err
			}

			return a.print(event)
		},
	}

	cmd.Flags().StringVar(&f.description, "description", "", "event description")
	cmd.Flags().StringVar(&f.project, "project", "", "project the event belongs to")
	cmd.Flags().StringVar(&f.color, "color", "", "palette color, e.g. #3b82f6")

	return cmd
}

func (a *app) eventUpdateCmd() *cobra.Command {
	var f eventFlags

	cmd := &cobra.Command{
		Use:   "update <event>",
		Short: "Change the fields of an event",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()

			patch := db.EventPatch{
				ClearDescription: f.clearDescription,
				ClearProject:     f.clearProject,
				ClearColor:       f.clearColor,
			}

			if flags.Changed("title") {
				patch.Title = &f.title
			}

			if flags.Changed("date") {
				patch.Date = &f.date
			}

			if flags.Changed("description") {
				patch.Description = &f.description
			}

			if flags.Changed("project") {
				patch.ProjectID = &f.project
			}

			if flags.Changed("color") {
				c := db.EventColor(f.color)
				patch.Color = &c
			}

			event, err := a.database.Events.UpdateEvent(cmd.Context(), args[0], patch)
			if err != nil {
				return err
			}

			return a.print(event)
		},
	}

	cmd.Flags().StringVar(&f.title, "title", "", "new title")
	cmd.Flags().StringVar(&f.date, "date", "", "new date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.description, "description", "", "new description")
	cmd.Flags().StringVar(&f.project, "project", "", "new project")
	cmd.Flags().StringVar(&f.color, "color", "", "new palette color")
	cmd.Flags().BoolVar(&f.clearDescription, "clear-description", false, "remove the description")
	cmd.Flags().BoolVar(&f.clearProject, "clear-project", false, "detach the event from its project")
	cmd.Flags().BoolVar(&f.clearColor, "clear-color", false, "remove the color")

	return cmd
}
