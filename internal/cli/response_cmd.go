package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"sparrow/internal/cli/formatter"
	"sparrow/internal/generation"
)

func newGenerateCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "generate OPPORTUNITY_ID",
		Short: "Draft a response for an opportunity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			oppID, err := resolveOpportunityID(ctx, app, args[0])
			if err != nil {
				return err
			}
			opp, err := app.Opportunities.GetByID(ctx, oppID)
			if err != nil {
				return err
			}
			account, err := app.Accounts.GetByID(ctx, opp.AccountID)
			if err != nil {
				return err
			}

			resp, err := app.Pipeline.Generate(ctx, oppID, account.ProfileID)
			var cv *generation.ConstraintViolationError
			if errors.As(err, &cv) {
				return fmt.Errorf("draft is %d characters, platform limit is %d; regenerate or edit", cv.Length, cv.MaxLength)
			}
			if err != nil {
				return err
			}

			fmt.Println(formatter.FormatResponse(resp))
			return nil
		},
	}
}

func newPostCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "post RESPONSE_ID",
		Short: "Publish a draft response to its platform",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := app.Posting.Post(context.Background(), args[0])
			if err != nil {
				return err
			}
			fmt.Printf("Posted response %s: %s\n", resp.ID, resp.PlatformPostURL)
			return nil
		},
	}
}

func newResponseCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "response",
		Aliases: []string{"responses", "resp"},
		Short:   "Manage drafted responses",
	}

	cmd.AddCommand(
		newResponseListCmd(app),
		newResponseEditCmd(app),
		newResponseDismissCmd(app),
	)

	return cmd
}

func newResponseListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list OPPORTUNITY_ID",
		Short: "List response versions for an opportunity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			oppID, err := resolveOpportunityID(ctx, app, args[0])
			if err != nil {
				return err
			}
			responses, err := app.Responses.ListByOpportunity(ctx, oppID)
			if err != nil {
				return err
			}
			if len(responses) == 0 {
				fmt.Println("No responses.")
				return nil
			}
			for _, r := range responses {
				fmt.Println(formatter.FormatResponse(r))
			}
			return nil
		},
	}
}

func newResponseEditCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "edit RESPONSE_ID TEXT",
		Short: "Replace the text of a draft response",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Responses.UpdateText(context.Background(), args[0], args[1]); err != nil {
				return err
			}
			fmt.Printf("Updated response %s\n", args[0])
			return nil
		},
	}
}

func newResponseDismissCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "dismiss RESPONSE_ID",
		Short: "Dismiss a draft response",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Responses.Dismiss(context.Background(), args[0]); err != nil {
				return err
			}
			fmt.Printf("Dismissed response %s\n", args[0])
			return nil
		},
	}
}
