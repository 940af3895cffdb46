package sweep

import (
	"context"

	"github.com/google/uuid"
	"github.com/riverqueue/river"
	"github.com/sirupsen/logrus"

	"github.com/PaulFidika/entitlekit/admin"
)

// ExpireStaleTrialsArgs is the river job payload for one reconciliation
// sweep. Enqueue it from a periodic job or an admin console action.
type ExpireStaleTrialsArgs struct {
	// ActorID identifies the system account in the audit trail.
	ActorID uuid.UUID `json:"actor_id"`
}

func (ExpireStaleTrialsArgs) Kind() string { return "entitlements_expire_stale_trials" }

// ExpireStaleTrialsWorker runs the sweep inside a river queue.
type ExpireStaleTrialsWorker struct {
	river.WorkerDefaults[ExpireStaleTrialsArgs]

	Admin *admin.Administrator
	Log   logrus.FieldLogger
}

func (w *ExpireStaleTrialsWorker) Work(ctx context.Context, job *river.Job[ExpireStaleTrialsArgs]) error {
	n, err := w.Admin.BulkExpireStaleTrials(ctx, job.Args.ActorID)
	if err != nil {
		return err
	}
	if w.Log != nil && n > 0 {
		w.Log.WithField("expired", n).Info("stale trial sweep")
	}
	return nil
}

// RegisterWorker adds the sweep worker to a river worker registry.
func RegisterWorker(workers *river.Workers, w *ExpireStaleTrialsWorker) {
	river.AddWorker(workers, w)
}
