package trading

import (
	"errors"
	"time"

	"github.com/jasonlvhit/gocron"

	"github.com/zsmartex/tokex/config"
)

// ExpiryJob sweeps orders past their ExpiresAt into the expired state. It
// runs outside the hot path but every transition still goes through the
// order's own router, so a sweep can never race a fill.
type ExpiryJob struct {
	Exchange *Exchange
}

func (j *ExpiryJob) Process() {
	now := time.Now()

	for _, o := range j.Exchange.Ledger().LiveOrders() {
		if o.ExpiresAt == nil || o.ExpiresAt.After(now) {
			continue
		}

		if _, err := j.Exchange.ExpireOrder(o.ID); err != nil {
			// InvalidState just means it went terminal since the snapshot
			if !errors.Is(err, ErrInvalidState) {
				config.Logger.Errorf("[tokex.expiry] order %d: %v", o.ID, err)
			}
			continue
		}

		config.Logger.Infof("[tokex.expiry] order %d expired", o.ID)
	}
}

// StartExpiryScheduler runs the sweep periodically until the returned stop
// function is called.
func StartExpiryScheduler(exchange *Exchange, interval uint64) func() {
	job := &ExpiryJob{Exchange: exchange}

	s := gocron.NewScheduler()
	s.Every(interval).Seconds().Do(job.Process)
	stop := s.Start()

	return func() {
		s.Clear()
		close(stop)
	}
}
