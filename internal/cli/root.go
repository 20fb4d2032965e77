// Package cli implements the sparrow command tree.
package cli

import (
	"go.uber.org/zap"

	"sparrow/internal/config"
	"sparrow/internal/generation"
	"sparrow/internal/metrics"
	"sparrow/internal/repository"
	"sparrow/internal/scheduler"
	"sparrow/internal/service"

	"github.com/spf13/cobra"
)

// App holds references to everything CLI commands need.
type App struct {
	Opportunities service.OpportunityService
	Responses     service.ResponseService
	Posting       service.PostingService
	Accounts      service.AccountService
	Profiles      service.ProfileService

	Authors repository.AuthorRepo

	Scheduler *scheduler.Scheduler
	Sweeper   *scheduler.Sweeper
	Pipeline  *generation.Pipeline
	Metrics   *metrics.Metrics

	Config     config.Config
	ConfigPath string
	Logger     *zap.Logger
}

// NewRootCmd creates the top-level "sparrow" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "sparrow",
		Short:         "Social media opportunity engine",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newInitCmd(app),
		newServeCmd(app),
		newDiscoverCmd(app),
		newSweepCmd(app),
		newOpportunityCmd(app),
		newGenerateCmd(app),
		newPostCmd(app),
		newResponseCmd(app),
		newAccountCmd(app),
		newProfileCmd(app),
	)

	return root
}
