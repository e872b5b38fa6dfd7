package pipeline

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"market-loader/src/logger"
	"market-loader/src/models"
)

// ErrUnknownPipeline is returned for a name nothing was registered under.
type ErrUnknownPipeline struct{ Name string }

func (e *ErrUnknownPipeline) Error() string { return fmt.Sprintf("pipeline %s not found", e.Name) }

// -----------------------------------------------------------------------------

// Registry owns the pipelines of a process and serializes their runs: the CLI,
// HTTP and gRPC surfaces all go through it.
type Registry struct {
	Pipelines map[string]IPipeline
	Runner    *Runner
	History   *History
	Logger    *logger.Logger
	mu        sync.RWMutex
	runMu     sync.Mutex
}

func NewRegistry(runner *Runner, history *History, pipelines ...IPipeline) *Registry {
	r := &Registry{
		Pipelines: make(map[string]IPipeline),
		Runner:    runner,
		History:   history,
		Logger:    logger.NewLogger("Registry"),
	}
	for _, p := range pipelines {
		r.Pipelines[p.Name()] = p
	}
	return r
}

// -----------------------------------------------------------------------------

// Add registers a pipeline; names must be unique.
func (r *Registry) Add(p IPipeline) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.Pipelines[p.Name()]; exists {
		return fmt.Errorf("pipeline %s already exists", p.Name())
	}
	r.Pipelines[p.Name()] = p
	r.Logger.Info("Added pipeline: %s", p.Name())
	return nil
}

func (r *Registry) Get(name string) (IPipeline, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.Pipelines[name]
	if !ok {
		return nil, &ErrUnknownPipeline{Name: name}
	}
	return p, nil
}

// PipelineInfo is the listing entry exposed by the control surfaces.
type PipelineInfo struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Stages      []string `json:"stages"`
}

// List returns the registered pipelines sorted by name.
func (r *Registry) List() []PipelineInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]PipelineInfo, 0, len(r.Pipelines))
	for _, p := range r.Pipelines {
		info := PipelineInfo{Name: p.Name(), Description: p.Description()}
		for _, s := range p.Stages(RunOptions{}) {
			info.Stages = append(info.Stages, s.Name)
		}
		infos = append(infos, info)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}

// -----------------------------------------------------------------------------

// Run executes one pipeline. Concurrent calls wait for the running one to finish.
func (r *Registry) Run(ctx context.Context, name string, opts RunOptions) (models.MRunReport, error) {
	p, err := r.Get(name)
	if err != nil {
		return models.MRunReport{}, err
	}

	r.runMu.Lock()
	defer r.runMu.Unlock()

	report, err := r.Runner.Run(ctx, p, opts)
	if r.History != nil {
		r.History.Add(report)
	}
	return report, err
}
