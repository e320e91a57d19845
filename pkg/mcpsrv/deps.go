package mcpsrv

import (
	"github.com/usestring/reqmin/internal/capture"
	"github.com/usestring/reqmin/internal/config"
	"github.com/usestring/reqmin/internal/pipeline"
	"github.com/usestring/reqmin/internal/tasks"
	"github.com/usestring/reqmin/internal/views"
)

// Deps contains all dependencies available to custom tools.
// This gives custom tools access to the same views, tasks, and minimizer
// as the builtin tools.
type Deps struct {
	Config    *config.Config
	Views     *views.Store
	Tasks     *tasks.Manager
	Minimizer *pipeline.Minimizer
	Importer  *capture.Importer
}
