package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"sparrow/internal/cli/formatter"
	"sparrow/internal/domain"
)

func newAccountCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "account",
		Aliases: []string{"accounts"},
		Short:   "Manage platform accounts",
	}

	cmd.AddCommand(
		newAccountAddCmd(app),
		newAccountListCmd(app),
		newAccountScheduleCmd(app),
		newAccountPauseCmd(app),
		newAccountResumeCmd(app),
	)

	return cmd
}

func newAccountAddCmd(app *App) *cobra.Command {
	var platform, handle, profileID string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Connect a platform account to a profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			now := time.Now().UTC()
			a := &domain.Account{
				ID:        uuid.New().String(),
				Platform:  platform,
				Handle:    handle,
				ProfileID: profileID,
				Status:    domain.AccountActive,
				CreatedAt: now,
				UpdatedAt: now,
			}
			if err := app.Accounts.Create(context.Background(), a); err != nil {
				return err
			}
			fmt.Printf("Created account @%s on %s (%s)\n", a.Handle, a.Platform, a.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&platform, "platform", "x", "Platform key")
	cmd.Flags().StringVar(&handle, "handle", "", "Account handle without @")
	cmd.Flags().StringVar(&profileID, "profile", "", "Profile ID the account posts as")
	_ = cmd.MarkFlagRequired("handle")
	_ = cmd.MarkFlagRequired("profile")

	return cmd
}

func newAccountListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List accounts and their schedules",
		RunE: func(cmd *cobra.Command, args []string) error {
			accounts, err := app.Accounts.List(context.Background())
			if err != nil {
				return err
			}
			if len(accounts) == 0 {
				fmt.Println("No accounts.")
				return nil
			}

			rows := make([][]string, 0, len(accounts))
			for _, a := range accounts {
				lastErr := ""
				if a.DiscoveryError != nil {
					lastErr = formatter.Excerpt(*a.DiscoveryError, 32)
				}
				rows = append(rows, []string{
					formatter.TruncID(a.ID),
					a.Platform,
					"@" + a.Handle,
					string(a.Status),
					scheduleSummary(a.Schedules),
					lastErr,
				})
			}
			fmt.Print(formatter.RenderTable(
				[]string{"ID", "Platform", "Handle", "Status", "Schedules", "Last Error"}, rows))
			return nil
		},
	}
}

func scheduleSummary(schedules []domain.DiscoverySchedule) string {
	if len(schedules) == 0 {
		return "-"
	}
	out := ""
	for i, s := range schedules {
		if i > 0 {
			out += ", "
		}
		state := "off"
		if s.Enabled {
			state = s.CronExpression
		}
		out += fmt.Sprintf("%s=%s", s.Type, state)
	}
	return out
}

func newAccountScheduleCmd(app *App) *cobra.Command {
	var typ, cronExpr string
	var disable bool

	cmd := &cobra.Command{
		Use:   "schedule ACCOUNT_ID",
		Short: "Set a discovery schedule on an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			err := app.Accounts.SetSchedule(ctx, args[0], domain.DiscoveryType(typ), cronExpr, !disable)
			if err != nil {
				return err
			}
			if app.Scheduler != nil && app.Scheduler.IsRunning() {
				if err := app.Scheduler.Reload(ctx); err != nil {
					return err
				}
			}
			if disable {
				fmt.Printf("Disabled %s discovery for %s\n", typ, args[0])
			} else {
				fmt.Printf("Scheduled %s discovery for %s: %s\n", typ, args[0], cronExpr)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&typ, "type", "", "Discovery type (replies|search)")
	cmd.Flags().StringVar(&cronExpr, "cron", "*/15 * * * *", "Cron expression")
	cmd.Flags().BoolVar(&disable, "disable", false, "Disable the schedule instead")
	_ = cmd.MarkFlagRequired("type")

	return cmd
}

func newAccountPauseCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "pause ACCOUNT_ID",
		Short: "Pause discovery for an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Accounts.SetStatus(context.Background(), args[0], domain.AccountPaused); err != nil {
				return err
			}
			fmt.Printf("Paused account %s\n", args[0])
			return nil
		},
	}
}

func newAccountResumeCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "resume ACCOUNT_ID",
		Short: "Resume discovery for an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Accounts.SetStatus(context.Background(), args[0], domain.AccountActive); err != nil {
				return err
			}
			fmt.Printf("Resumed account %s\n", args[0])
			return nil
		},
	}
}
