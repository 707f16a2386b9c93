package main

import (
	"github.com/matt-steen/sqr1/pkg/db"
	"github.com/spf13/cobra"
)

func (a *app) projectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Manage projects",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List all projects",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				projects, err := a.database.Projects.Projects(cmd.Context())
				if err != nil {
					return err
				}

				return a.print(projects)
			},
		},
		&cobra.Command{
			Use:   "create <title>",
			Short: "Create a project with one empty tab",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				project, err := a.database.Projects.CreateProject(cmd.Context(), args[0])
				if err != nil {
					return err
				}

				return a.print(project)
			},
		},
		&cobra.Command{
			Use:   "show <project>",
			Short: "Show a project and its tabs",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.printProject(cmd, args[0])
			},
		},
		&cobra.Command{
			Use:   "rename <project> <title>",
			Short: "Rename a project",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				project, err := a.database.Projects.Project(cmd.Context(), args[0])
				if err != nil {
					return err
				}

				project.Title = args[1]

				if err := a.database.Projects.UpdateProject(cmd.Context(), *project); err != nil {
					return err
				}

				return a.print(project)
			},
		},
		&cobra.Command{
			Use:   "delete <project>",
			Short: "Delete a project and its tabs",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.database.Projects.DeleteProject(cmd.Context(), args[0])
			},
		},
	)

	return cmd
}

func (a *app) tabCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tab",
		Short: "Manage the tabs of a project",
	}

	patch := func(use, short string, build func(arg string) db.TabPatch) *cobra.Command {
		return &cobra.Command{
			Use:   use,
			Short: short,
			Args:  cobra.ExactArgs(3),
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := a.database.Projects.UpdateTab(cmd.Context(), args[0], args[1], build(args[2])); err != nil {
					return err
				}

				return a.printProject(cmd, args[0])
			},
		}
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "add <project>",
			Short: "Add an empty note tab",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				tab, err := a.database.Projects.AddTab(cmd.Context(), args[0])
				if err != nil {
					return err
				}

				return a.print(tab)
			},
		},
		patch("rename <project> <tab> <title>", "Rename a tab", func(title string) db.TabPatch {
			return db.TabPatch{Title: &title}
		}),
		patch("write <project> <tab> <content>", "Replace the note text of a tab", func(content string) db.TabPatch {
			return db.TabPatch{Content: &content}
		}),
		patch("mode <project> <tab> note|checklist", "Switch a tab between note and checklist", func(mode string) db.TabPatch {
			m := db.TabMode(mode)

			return db.TabPatch{Mode: &m}
		}),
		&cobra.Command{
			Use:   "delete <project> <tab>",
			Short: "Delete a tab; the last tab of a project is kept",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := a.database.Projects.DeleteTab(cmd.Context(), args[0], args[1]); err != nil {
					return err
				}

				return a.printProject(cmd, args[0])
			},
		},
	)

	return cmd
}

func (a *app) checkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Manage the checklist of a tab",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "add <project> <tab> <text>",
			Short: "Append a checklist item",
			Args:  cobra.ExactArgs(3),
			RunE: func(cmd *cobra.Command, args []string) error {
				item, err := a.database.Projects.AddChecklistItem(cmd.Context(), args[0], args[1], args[2])
				if err != nil {
					return err
				}

				return a.print(item)
			},
		},
		&cobra.Command{
			Use:   "toggle <project> <tab> <item>",
			Short: "Check or uncheck an item",
			Args:  cobra.ExactArgs(3),
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := a.database.Projects.ToggleChecklistItem(cmd.Context(), args[0], args[1], args[2]); err != nil {
					return err
				}

				return a.printProject(cmd, args[0])
			},
		},
		&cobra.Command{
			Use:   "edit <project> <tab> <item> <text>",
			Short: "Replace the text of an item",
			Args:  cobra.ExactArgs(4),
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := a.database.Projects.UpdateChecklistItemText(cmd.Context(), args[0], args[1], args[2], args[3]); err != nil {
					return err
				}

				return a.printProject(cmd, args[0])
			},
		},
		&cobra.Command{
			Use:   "remove <project> <tab> <item>",
			Short: "Remove an item",
			Args:  cobra.ExactArgs(3),
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := a.database.Projects.RemoveChecklistItem(cmd.Context(), args[0], args[1], args[2]); err != nil {
					return err
				}

				return a.printProject(cmd, args[0])
			},
		},
	)

	return cmd
}

func (a *app) printProject(cmd *cobra.Command, id string) error {
	project, err := a.database.Projects.Project(cmd.Context(), id)
	if err != nil {
		return err
	}

	return a.print(project)
}
