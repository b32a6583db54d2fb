package job

import (
	"context"
	"time"

	"github.com/emrgen/linktrace/internal/store"
	"github.com/sirupsen/logrus"
)

// VisitPruner deletes visit rows older than the configured retention
// window. A zero retention means visits are kept forever and each run is
// a no-op.
type VisitPruner struct {
	store     store.Store
	retention time.Duration
}

func NewVisitPruner(store store.Store, retention time.Duration) *VisitPruner {
	return &VisitPruner{
		store:     store,
		retention: retention,
	}
}

func (p *VisitPruner) Schedule() string {
	return "@hourly"
}

func (p *VisitPruner) Run() {
	if p.retention == 0 {
		return
	}

	cutoff := time.Now().Add(-p.retention)
	removed, err := p.store.DeleteVisitsBefore(context.Background(), cutoff)
	if err != nil {
		logrus.Errorf("error pruning visits: %v", err)
		return
	}

	if removed > 0 {
		logrus.Infof("pruned %d visits older than %s", removed, cutoff.Format(time.RFC3339))
	}
}
