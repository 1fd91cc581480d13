package pipeline

import (
	"context"
	"log/slog"

	"github.com/nao1215/tablecrawl/internal/model"
)

// Step is one stage of record processing.
type Step interface {
	// Process returns the record to pass on and whether to keep it.
	// Returning false drops the record without error.
	Process(ctx context.Context, rec model.DetailRecord) (model.DetailRecord, bool, error)

	// Name returns the step's name for logging purposes.
	Name() string
}

// Pipeline runs records through steps in order.
// Steps of one pipeline are never run concurrently, because the crawler
// serializes record emission.
type Pipeline struct {
	steps []Step

	logger *slog.Logger

	// continueOnError keeps a record moving when a step fails. The failing
	// step's output is discarded and the next step sees the input record.
	continueOnError bool
}

// Option is a function that configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithContinueOnError configures the pipeline to log step failures and
// carry on instead of returning them.
//
// Design decision: We stop on the first failure by default. A record that
// could not be stored or written would otherwise be missing from the run
// without the exit status saying so.
func WithContinueOnError(continueOnError bool) Option {
	return func(p *Pipeline) {
		p.continueOnError = continueOnError
	}
}

// New creates a new Pipeline with the given options.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		steps: make([]Step, 0),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// AddStep appends a step to the pipeline.
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// AddSteps appends multiple steps to the pipeline.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// Process runs rec through every step. It reports false when a step
// dropped the record; later steps are then skipped.
func (p *Pipeline) Process(ctx context.Context, rec model.DetailRecord) (model.DetailRecord, bool, error) {
	for _, step := range p.steps {
		if err := ctx.Err(); err != nil {
			return rec, false, err
		}

		out, keep, err := step.Process(ctx, rec)
		if err != nil {
			p.logger.Error("step failed",
				"step", step.Name(),
				"site", rec.Site,
				"url", rec.URL,
				"error", err,
			)
			if !p.continueOnError {
				return rec, false, err
			}
			continue
		}
		if !keep {
			p.logger.Debug("record dropped",
				"step", step.Name(),
				"record", rec.String(),
			)
			return out, false, nil
		}
		rec = out
	}
	return rec, true, nil
}

// StepCount returns the number of steps in the pipeline.
func (p *Pipeline) StepCount() int {
	return len(p.steps)
}

// StepNames returns the names of all steps in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}
