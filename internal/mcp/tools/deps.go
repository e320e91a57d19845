package tools

import (
	"sync"

	"github.com/usestring/reqmin/internal/capture"
	"github.com/usestring/reqmin/internal/config"
	"github.com/usestring/reqmin/internal/pipeline"
	"github.com/usestring/reqmin/internal/tasks"
	"github.com/usestring/reqmin/internal/views"
)

// Deps contains all dependencies needed by tool handlers.
type Deps struct {
	Config    *config.Config
	Views     *views.Store
	Tasks     *tasks.Manager
	Minimizer *pipeline.Minimizer

	// Importer loads captured requests from powhttp. Nil disables import.
	Importer *capture.Importer

	// task ID -> view opened with the result of a "new view" run
	outputs sync.Map
}

func (d *Deps) setOutputView(taskID, viewID string) {
	d.outputs.Store(taskID, viewID)
}

// OutputView returns the view a finished "new view" task opened.
func (d *Deps) OutputView(taskID string) (string, bool) {
	v, ok := d.outputs.Load(taskID)
	if !ok {
		return "", false
	}
	return v.(string), true
}
