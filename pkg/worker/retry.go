package worker

import (
	"context"
	"net/http"
	"sync/atomic"

	"github.com/darkweak/offline/errors"
	"github.com/darkweak/offline/pkg/api/prometheus"
	"github.com/darkweak/offline/pkg/cachestorage"
	"github.com/darkweak/offline/pkg/rfc"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const retryConcurrency = 4

// RetryReport counts the outcome of a retry batch
type RetryReport struct {
	Refreshed int `json:"refreshed"`
	Failed    int `json:"failed"`
}

// Retry re-fetches every entry of the current generation when the tag is the retry one.
// Other tags are ignored. Concurrent calls share the running batch.
func (w *Worker) Retry(ctx context.Context, tag string) (RetryReport, error) {
	if tag != w.config.RetryTag {
		w.logger.Debug("Ignored the message", zap.String("tag", tag))
		return RetryReport{}, nil
	}
	if err := w.expect("retry", Activated); err != nil {
		return RetryReport{}, err
	}

	if !w.pending.begin() {
		return RetryReport{}, &errors.InvalidStateError{Operation: "retry", State: "draining"}
	}
	defer w.pending.end()

	v, _, shared := w.retryGroup.Do(tag, func() (interface{}, error) {
		return w.retry(ctx), nil
	})
	if shared {
		w.logger.Debug("Joined the running retry batch")
	}

	return v.(RetryReport), nil
}

func (w *Worker) retry(ctx context.Context) RetryReport {
	cache := w.currentCache()
	if cache == nil {
		return RetryReport{}
	}

	var refreshed, failed int64
	g := new(errgroup.Group)
	g.SetLimit(retryConcurrency)
	for _, key := range cache.Keys() {
		key := key
		g.Go(func() error {
			if err := w.refresh(ctx, cache, key); err != nil {
				atomic.AddInt64(&failed, 1)
				prometheus.Increment(prometheus.RetryFailureCounter)
				w.logger.Warn("Impossible to refresh the entry", zap.String("key", cachestorage.RequestKey(key)), zap.Error(err))

				return nil
			}
			atomic.AddInt64(&refreshed, 1)
			prometheus.Increment(prometheus.RetryRefreshedCounter)

			return nil
		})
	}
	_ = g.Wait()

	report := RetryReport{Refreshed: int(refreshed), Failed: int(failed)}
	w.logger.Info("Retry batch done", zap.Int("refreshed", report.Refreshed), zap.Int("failed", report.Failed))

	return report
}

func (w *Worker) refresh(ctx context.Context, cache *cachestorage.Cache, key *http.Request) error {
	rq := key.WithContext(ctx)
	res, err := w.fetcher.RoundTrip(rq)
	if err != nil {
		return err
	}
	if !rfc.IsOK(res.StatusCode) {
		_ = res.Body.Close()
		return &errors.UnsuccessfulResponseError{StatusCode: res.StatusCode}
	}

	return cache.Put(key, res)
}
