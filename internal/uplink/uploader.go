// Package uplink batch-uploads unsent raw detections to a remote endpoint.
// Delivery is best effort: rows are marked uploaded only after the endpoint
// acknowledged the batch, so a failed attempt is retried on the next run.
package uplink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/santiway/radiowatch/internal/conf"
	"github.com/santiway/radiowatch/internal/datastore"
	"github.com/santiway/radiowatch/internal/detection"
	"github.com/santiway/radiowatch/internal/errors"
	"github.com/santiway/radiowatch/internal/logging"
	"github.com/santiway/radiowatch/internal/observability/metrics"
	"golang.org/x/sync/errgroup"
)

const defaultBatchSize = 100

// Batch is the JSON payload posted to the remote endpoint.
type Batch struct {
	Node       string                   `json:"node"`
	Session    string                   `json:"session"`
	Detections []detection.RawDetection `json:"detections"`
}

// Uploader drains unsent rows from every session in batches.
type Uploader struct {
	store     datastore.Interface
	client    *retryablehttp.Client
	endpoint  string
	node      string
	batchSize int
	metrics   *metrics.UplinkMetrics
	log       *slog.Logger
}

// New builds an Uploader from settings. Metrics may be nil.
func New(settings *conf.Settings, store datastore.Interface, m *metrics.UplinkMetrics) (*Uploader, error) {
	if settings.Uplink.Endpoint == "" {
		return nil, errors.Newf("uplink endpoint not configured").
			Component("uplink").
			Category(errors.CategoryConfiguration).
			Build()
	}

	batchSize := settings.Uplink.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	client := retryablehttp.NewClient()
	client.RetryMax = 3
	client.RetryWaitMin = time.Second
	client.RetryWaitMax = 10 * time.Second
	client.Logger = nil
	if settings.Uplink.Timeout > 0 {
		client.HTTPClient.Timeout = time.Duration(settings.Uplink.Timeout) * time.Second
	}

	return &Uploader{
		store:     store,
		client:    client,
		endpoint:  settings.Uplink.Endpoint,
		node:      settings.Main.Name,
		batchSize: batchSize,
		metrics:   m,
		log:       logging.ForService("uplink"),
	}, nil
}

// Run uploads unsent rows from all sessions concurrently and returns once
// every session is drained or failed. A failure in one session does not
// stop the others.
func (u *Uploader) Run(ctx context.Context) error {
	sessions, err := u.store.ListSessions()
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(3)
	for _, session := range sessions {
		g.Go(func() error {
			uploaded, err := u.drainSession(ctx, session)
			if err != nil {
				u.log.Error("session upload failed", "session", session, "error", err)
				return err
			}
			if uploaded > 0 {
				u.log.Info("session upload complete", "session", session, "rows", uploaded)
			}
			return nil
		})
	}
	return g.Wait()
}

// drainSession uploads one session batch by batch until no unsent rows
// remain.
func (u *Uploader) drainSession(ctx context.Context, session string) (int, error) {
	total := 0
	for {
		if err := ctx.Err(); err != nil {
			return total, err
		}

		rows, err := u.store.GetUnsentDetections(session, u.batchSize)
		if err != nil {
			return total, err
		}
		if len(rows) == 0 {
			return total, nil
		}

		if err := u.postBatch(ctx, session, rows); err != nil {
			if u.metrics != nil {
				u.metrics.UploadErrors.Inc()
			}
			return total, err
		}

		ids := make([]uint, 0, len(rows))
		for i := range rows {
			ids = append(ids, rows[i].ID)
		}
		if err := u.store.MarkUploaded(session, ids); err != nil {
			return total, err
		}

		if u.metrics != nil {
			u.metrics.BatchesSent.Inc()
			u.metrics.RowsUploaded.Add(float64(len(rows)))
		}
		total += len(rows)

		if len(rows) < u.batchSize {
			return total, nil
		}
	}
}

// postBatch sends one batch and fails unless the endpoint answers 2xx.
func (u *Uploader) postBatch(ctx context.Context, session string, rows []datastore.RawRecord) error {
	batch := Batch{
		Node:       u.node,
		Session:    session,
		Detections: make([]detection.RawDetection, 0, len(rows)),
	}
	for i := range rows {
		batch.Detections = append(batch.Detections, rows[i].ToDetection())
	}

	payload, err := json.Marshal(&batch)
	if err != nil {
		return errors.New(err).
			Component("uplink").
			Category(errors.CategoryUplink).
			Build()
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, u.endpoint, bytes.NewReader(payload))
	if err != nil {
		return errors.New(err).
			Component("uplink").
			Category(errors.CategoryUplink).
			Build()
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := u.client.Do(req)
	if err != nil {
		return errors.New(err).
			Component("uplink").
			Category(errors.CategoryNetwork).
			Context("endpoint", u.endpoint).
			Build()
	}
	defer resp.Body.Close()

	if u.metrics != nil {
		u.metrics.UploadDuration.Observe(time.Since(start).Seconds())
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errors.New(fmt.Errorf("endpoint returned %s", resp.Status)).
			Component("uplink").
			Category(errors.CategoryUplink).
			Context("endpoint", u.endpoint).
			Build()
	}
	return nil
}
