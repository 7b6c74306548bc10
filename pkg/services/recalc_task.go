package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/agilehub/practice-engine/pkg/services/workqueue"
)

// RecalcTask recomputes one person's affinities on the work queue. The
// serialization key is the person ID, so recalculations for one person run
// in submission order while different persons proceed in parallel.
type RecalcTask struct {
	workqueue.BaseTask
	personID uuid.UUID
	calc     AffinityService
}

// NewRecalcTask creates a recalculation task for a person.
func NewRecalcTask(personID uuid.UUID, calc AffinityService) *RecalcTask {
	return &RecalcTask{
		BaseTask: workqueue.NewBaseTask("recalculate-affinities", "person:"+personID.String()),
		personID: personID,
		calc:     calc,
	}
}

// Execute runs the recalculation.
func (t *RecalcTask) Execute(ctx context.Context) error {
	_, err := t.calc.RecalculateAffinities(ctx, t.personID)
	return err
}

// queueScheduler dispatches recalc tasks onto the shared work queue.
type queueScheduler struct {
	queue *workqueue.Queue
	calc  AffinityService
}

// NewQueueScheduler creates a RecalcScheduler backed by a work queue.
func NewQueueScheduler(queue *workqueue.Queue, calc AffinityService) RecalcScheduler {
	return &queueScheduler{queue: queue, calc: calc}
}

func (s *queueScheduler) Schedule(personID uuid.UUID) {
	s.queue.Enqueue(NewRecalcTask(personID, s.calc))
}

// Ensure queueScheduler implements RecalcScheduler at compile time.
var _ RecalcScheduler = (*queueScheduler)(nil)
