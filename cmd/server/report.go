package main

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/yukikurage/task-tracker-api/internal/config"
	"github.com/yukikurage/task-tracker-api/internal/database"
	"github.com/yukikurage/task-tracker-api/internal/repository"
	"github.com/yukikurage/task-tracker-api/internal/services"
)

func reportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "report",
		Short: "Print the administrator overview",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if err := database.Connect(cfg); err != nil {
				return err
			}

			summaries := services.NewSummaryService(repository.NewStore(database.GetDB()))
			overview, err := summaries.AdminOverview(services.Principal{IsSuperuser: true})
			if err != nil {
				return err
			}

			totals := table.NewWriter()
			totals.SetOutputMirror(os.Stdout)
			totals.SetTitle("Totals")
			totals.AppendHeader(table.Row{"Total", "Completed", "Pending", "High priority"})
			totals.AppendRow(table.Row{
				overview.Totals.TotalTasks,
				overview.Totals.Completed,
				overview.Totals.Pending,
				overview.Totals.HighPriority,
			})
			totals.Render()

			users := table.NewWriter()
			users.SetOutputMirror(os.Stdout)
			users.SetTitle("Top users")
			users.AppendHeader(table.Row{"Username", "Total", "Completed", "High priority"})
			for _, row := range overview.TopUsers {
				users.AppendRow(table.Row{row.Username, row.Total, row.Completed, row.HighPriority})
			}
			users.Render()

			recent := table.NewWriter()
			recent.SetOutputMirror(os.Stdout)
			recent.SetTitle("Recent tasks")
			recent.AppendHeader(table.Row{"ID", "Title", "Status", "Priority", "Owner", "Created"})
			for _, t := range overview.RecentTasks {
				recent.AppendRow(table.Row{t.ID, t.Title, t.Status, t.Priority, t.Owner.Username, t.CreatedAt.Format("2006-01-02 15:04")})
			}
			recent.Render()
			return nil
		},
	}
}

func grantCmd() *cobra.Command {
	var staff, superuser, manager bool
	cmd := &cobra.Command{
		Use:   "grant <username>",
		Short: "Set a user's staff, superuser or manager flags",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if err := database.Connect(cfg); err != nil {
				return err
			}

			var caps services.Capabilities
			if cmd.Flags().Changed("staff") {
				caps.Staff = &staff
			}
			if cmd.Flags().Changed("superuser") {
				caps.Superuser = &superuser
			}
			if cmd.Flags().Changed("manager") {
				caps.Manager = &manager
			}

			auth := services.NewAuthService(repository.NewUserRepository(database.GetDB()))
			user, err := auth.GrantCapabilities(args[0], caps)
			if err != nil {
				return err
			}

			fmt.Printf("%s: staff=%t superuser=%t manager=%t\n", user.Username, user.IsStaff, user.IsSuperuser, user.CanManageTasks)
			return nil
		},
	}
	cmd.Flags().BoolVar(&staff, "staff", false, "grant or revoke staff access")
	cmd.Flags().BoolVar(&superuser, "superuser", false, "grant or revoke superuser access")
	cmd.Flags().BoolVar(&manager, "manager", false, "grant or revoke task management")
	return cmd
}
