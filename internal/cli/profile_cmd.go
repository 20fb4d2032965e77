package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"sparrow/internal/cli/formatter"
	"sparrow/internal/domain"
)

func newProfileCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "profile",
		Aliases: []string{"profiles"},
		Short:   "Manage response profiles",
	}

	cmd.AddCommand(
		newProfileAddCmd(app),
		newProfileListCmd(app),
		newProfileUpdateCmd(app),
	)

	return cmd
}

func newProfileAddCmd(app *App) *cobra.Command {
	var name, voice string
	var principles, interests, keywords, communities []string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a response profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			now := time.Now().UTC()
			p := &domain.Profile{
				ID:          uuid.New().String(),
				Name:        name,
				Voice:       voice,
				Principles:  principles,
				Interests:   interests,
				Keywords:    keywords,
				Communities: communities,
				CreatedAt:   now,
				UpdatedAt:   now,
			}
			if err := app.Profiles.Create(context.Background(), p); err != nil {
				return err
			}
			fmt.Printf("Created profile %s (%s)\n", p.Name, p.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Profile name")
	cmd.Flags().StringVar(&voice, "voice", "", "Voice description used in generation prompts")
	cmd.Flags().StringSliceVar(&principles, "principle", nil, "Response principle (repeatable)")
	cmd.Flags().StringSliceVar(&interests, "interest", nil, "Interest topic (repeatable)")
	cmd.Flags().StringSliceVar(&keywords, "keyword", nil, "Search keyword (repeatable)")
	cmd.Flags().StringSliceVar(&communities, "community", nil, "Community (repeatable)")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func newProfileListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List profiles",
		RunE: func(cmd *cobra.Command, args []string) error {
			profiles, err := app.Profiles.List(context.Background())
			if err != nil {
				return err
			}
			if len(profiles) == 0 {
				fmt.Println("No profiles.")
				return nil
			}

			rows := make([][]string, 0, len(profiles))
			for _, p := range profiles {
				rows = append(rows, []string{
					formatter.TruncID(p.ID),
					p.Name,
					strings.Join(p.Keywords, ", "),
					strings.Join(p.Interests, ", "),
				})
			}
			fmt.Print(formatter.RenderTable([]string{"ID", "Name", "Keywords", "Interests"}, rows))
			return nil
		},
	}
}

func newProfileUpdateCmd(app *App) *cobra.Command {
	var name, voice string
	var principles, interests, keywords, communities []string

	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Update a profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			p, err := app.Profiles.GetByID(ctx, args[0])
			if err != nil {
				return err
			}

			if cmd.Flags().Changed("name") {
				p.Name = name
			}
			if cmd.Flags().Changed("voice") {
				p.Voice = voice
			}
			if cmd.Flags().Changed("principle") {
				p.Principles = principles
			}
			if cmd.Flags().Changed("interest") {
				p.Interests = interests
			}
			if cmd.Flags().Changed("keyword") {
				p.Keywords = keywords
			}
			if cmd.Flags().Changed("community") {
				p.Communities = communities
			}
			p.UpdatedAt = time.Now().UTC()

			if err := app.Profiles.Update(ctx, p); err != nil {
				return err
			}
			fmt.Printf("Updated profile %s\n", p.Name)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Profile name")
	cmd.Flags().StringVar(&voice, "voice", "", "Voice description")
	cmd.Flags().StringSliceVar(&principles, "principle", nil, "Response principle (repeatable)")
	cmd.Flags().StringSliceVar(&interests, "interest", nil, "Interest topic (repeatable)")
	cmd.Flags().StringSliceVar(&keywords, "keyword", nil, "Search keyword (repeatable)")
	cmd.Flags().StringSliceVar(&communities, "community", nil, "Community (repeatable)")

	return cmd
}
