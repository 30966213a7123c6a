package cli

import (
	"github.com/valter-silva-au/remedy/internal/core"
	"github.com/valter-silva-au/remedy/internal/integration"
	"github.com/valter-silva-au/remedy/internal/observability"
	"github.com/valter-silva-au/remedy/pkg/models"
)

// Service instances, set during app initialization in app.go.
var (
	BasePath  string
	GlobalCfg *models.GlobalConfig

	Registry core.TaskRegistry
	Runner   core.TaskRunner
	Selector core.IssueSelector

	Git      integration.GitClient
	Fixer    integration.Fixer
	Platform integration.Platform // nil when no token is configured

	Bus      observability.Bus
	EventLog observability.EventLog
)
