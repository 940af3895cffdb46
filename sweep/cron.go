// Package sweep schedules the stale-trial reconciliation pass. Hosts pick
// one of two runners: an in-process cron scheduler, or a river job for
// deployments that already run a river queue.
package sweep

import (
	"context"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/PaulFidika/entitlekit/admin"
)

// Scheduler runs BulkExpireStaleTrials on a cron spec with a fixed system
// actor. The sweep is idempotent, so overlapping or missed runs are
// harmless.
type Scheduler struct {
	cron *cron.Cron
	log  logrus.FieldLogger
}

// NewScheduler builds a scheduler. spec is a standard 5-field cron
// expression, e.g. "*/30 * * * *". actorID identifies the system account
// in the audit trail.
func NewScheduler(a *admin.Administrator, actorID uuid.UUID, spec string, log logrus.FieldLogger) (*Scheduler, error) {
	if log == nil {
		l := logrus.New()
		l.SetLevel(logrus.WarnLevel)
		log = l
	}
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		n, err := a.BulkExpireStaleTrials(context.Background(), actorID)
		if err != nil {
			log.WithError(err).Warn("stale trial sweep failed")
			return
		}
		if n > 0 {
			log.WithField("expired", n).Info("stale trial sweep")
		}
	})
	if err != nil {
		return nil, err
	}
	return &Scheduler{cron: c, log: log}, nil
}

// Start begins running sweeps in the background.
func (s *Scheduler) Start() { s.cron.Start() }

// Stop stops scheduling and waits for an in-flight sweep to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}
