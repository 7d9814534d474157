package entity

import "context"

// Record is an entity-storage document: a property bag persisted by a
// storage backend and decorated by the pipeline on its way in and out.
type Record map[string]any

// Stage transforms records at the storage boundary.
type Stage interface {
	// BeforeWrite runs before a record is persisted.
	BeforeWrite(ctx context.Context, rec Record) error
	// AfterRead runs before a loaded record is returned to callers.
	AfterRead(ctx context.Context, rec Record) error
}

// Pipeline composes stages in a fixed order. The same order applies on both
// the write and the read side.
type Pipeline struct {
	stages []Stage
}

// NewPipeline creates a pipeline running the stages in the given order.
func NewPipeline(stages ...Stage) *Pipeline {
	return &Pipeline{stages: stages}
}

// BeforeWrite runs every stage's write hook. The first error aborts.
func (p *Pipeline) BeforeWrite(ctx context.Context, rec Record) error {
	for _, stage := range p.stages {
		if err := stage.BeforeWrite(ctx, rec); err != nil {
			return err
		}
	}
	return nil
}

// AfterRead runs every stage's read hook. The first error aborts.
func (p *Pipeline) AfterRead(ctx context.Context, rec Record) error {
	for _, stage := range p.stages {
		if err := stage.AfterRead(ctx, rec); err != nil {
			return err
		}
	}
	return nil
}
