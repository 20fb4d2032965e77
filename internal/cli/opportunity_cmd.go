package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"sparrow/internal/cli/formatter"
	"sparrow/internal/domain"
	"sparrow/internal/repository"
)

// resolveOpportunityID accepts a full UUID or a unique prefix.
func resolveOpportunityID(ctx context.Context, app *App, input string) (string, error) {
	if input == "" {
		return "", fmt.Errorf("opportunity ID is required")
	}

	opps, err := app.Opportunities.List(ctx, repository.OpportunityQuery{})
	if err != nil {
		return "", err
	}

	for _, o := range opps {
		if o.ID == input {
			return o.ID, nil
		}
	}

	var matches []string
	for _, o := range opps {
		if strings.HasPrefix(o.ID, input) {
			matches = append(matches, o.ID)
		}
	}

	switch len(matches) {
	case 0:
		return "", fmt.Errorf("opportunity not found: %q", input)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("opportunity ID prefix %q is ambiguous (%d matches)", input, len(matches))
	}
}

func newOpportunityCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "opportunity",
		Aliases: []string{"opp", "opportunities"},
		Short:   "Inspect and manage discovered opportunities",
	}

	cmd.AddCommand(
		newOpportunityListCmd(app),
		newOpportunityShowCmd(app),
		newOpportunityDismissCmd(app),
	)

	return cmd
}

func newOpportunityListCmd(app *App) *cobra.Command {
	var accountID, status string
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List opportunities, best score first",
		RunE: func(cmd *cobra.Command, args []string) error {
			q := repository.OpportunityQuery{AccountID: accountID, Limit: limit}
			if status != "" {
				if !domain.ValidOpportunityStatuses[status] {
					return fmt.Errorf("invalid status %q", status)
				}
				s := domain.OpportunityStatus(status)
				q.Status = &s
			}

			opps, err := app.Opportunities.List(context.Background(), q)
			if err != nil {
				return err
			}

			fmt.Print(formatter.FormatOpportunityList(opps))
			return nil
		},
	}

	cmd.Flags().StringVar(&accountID, "account", "", "Filter by account ID")
	cmd.Flags().StringVar(&status, "status", "pending", "Filter by status (pending|dismissed|responded|expired, empty for all)")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum rows")

	return cmd
}

func newOpportunityShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show one opportunity with its score breakdown",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			id, err := resolveOpportunityID(ctx, app, args[0])
			if err != nil {
				return err
			}
			o, err := app.Opportunities.GetByID(ctx, id)
			if err != nil {
				return err
			}
			author, _ := app.Authors.GetByID(ctx, o.AuthorID)

			fmt.Println(formatter.FormatOpportunityDetail(o, author))

			responses, err := app.Responses.ListByOpportunity(ctx, o.ID)
			if err != nil {
				return err
			}
			for _, r := range responses {
				fmt.Println(formatter.FormatResponse(r))
			}
			return nil
		},
	}
}

func newOpportunityDismissCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "dismiss ID",
		Short: "Dismiss a pending opportunity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			id, err := resolveOpportunityID(ctx, app, args[0])
			if err != nil {
				return err
			}
			if err := app.Opportunities.UpdateStatus(ctx, id, domain.OpportunityDismissed); err != nil {
				return err
			}
			fmt.Printf("Dismissed opportunity %s\n", id)
			return nil
		},
	}
}
