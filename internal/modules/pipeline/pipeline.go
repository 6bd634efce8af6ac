// Package pipeline sequences fetch, classification, dedupe, naming, and
// persistence for each URL in a batch and folds the outcomes into a summary.
package pipeline

import (
	"context"
	"time"

	"go.uber.org/zap"

	"imagefetch/internal/models"
	"imagefetch/internal/modules/dedup"
	"imagefetch/internal/modules/downloader"
	"imagefetch/internal/modules/namer"
	"imagefetch/internal/modules/persistence"
)

// DefaultDelay is the pause between successive network fetches.
const DefaultDelay = time.Second

// Pipeline processes URLs strictly one at a time, in input order. The
// fingerprint index and the destination directory are only ever touched from
// this single control flow, so duplicate and collision checks need no
// locking.
type Pipeline struct {
	dl       *downloader.Downloader
	resolver *namer.Resolver
	index    *dedup.Index
	store    *persistence.FilePersister
	delay    time.Duration
	logger   *zap.Logger
}

func New(dl *downloader.Downloader, resolver *namer.Resolver, index *dedup.Index,
	store *persistence.FilePersister, delay time.Duration, logger *zap.Logger) *Pipeline {
	if delay < 0 {
		delay = DefaultDelay
	}
	return &Pipeline{
		dl:       dl,
		resolver: resolver,
		index:    index,
		store:    store,
		delay:    delay,
		logger:   logger,
	}
}

// Run processes the batch. Each outcome is passed to report as soon as it is
// determined, in input order. A canceled context stops the batch before the
// next URL; outcomes already reported stand. The returned summary includes
// the number of files in the destination directory after the run.
func (p *Pipeline) Run(ctx context.Context, urls []string, report func(models.Outcome)) models.Summary {
	var summary models.Summary

	for i, url := range urls {
		if i > 0 && !p.pause(ctx) {
			p.logger.Warn("batch interrupted", zap.Int("remaining", len(urls)-i))
			break
		}
		if ctx.Err() != nil {
			p.logger.Warn("batch interrupted", zap.Int("remaining", len(urls)-i))
			break
		}

		outcome := p.process(ctx, url)

		switch outcome.Status {
		case models.StatusSuccess:
			summary.Succeeded++
		case models.StatusSkipped:
			summary.Duplicates++
		case models.StatusFailed:
			summary.Failed++
		}

		if report != nil {
			report(outcome)
		}
	}

	total, err := p.store.CountFiles()
	if err != nil {
		p.logger.Warn("could not count files in destination directory", zap.Error(err))
	}
	summary.TotalFiles = total

	return summary
}

// process runs one URL through the pipeline. Every failure is absorbed here
// and converted to an outcome; nothing aborts the batch.
func (p *Pipeline) process(ctx context.Context, url string) models.Outcome {
	payload, ferr := p.dl.Fetch(ctx, url, p.logger)
	if ferr != nil {
		return p.failed(url, ferr)
	}

	if p.index.IsDuplicate(payload.Data) {
		p.logger.Info("duplicate content skipped", zap.String("url", url))
		return models.Outcome{
			URL:    url,
			Status: models.StatusSkipped,
			Err:    models.NewError(models.KindDuplicate, "image already exists (duplicate detected)"),
		}
	}

	name, nerr := p.resolver.Resolve(payload.URL, payload.ContentType)
	if nerr != nil {
		return p.failed(url, nerr)
	}

	path, serr := p.store.Save(name, payload.Data, p.logger)
	if serr != nil {
		return p.failed(url, serr)
	}

	p.logger.Info("fetched image",
		zap.String("url", url),
		zap.String("path", path),
		zap.Int("bytes", len(payload.Data)))
	return models.Outcome{URL: url, Status: models.StatusSuccess, Path: path}
}

func (p *Pipeline) failed(url string, err *models.Error) models.Outcome {
	p.logger.Warn("fetch failed",
		zap.String("url", url),
		zap.String("kind", err.Kind.String()),
		zap.Error(err))
	return models.Outcome{URL: url, Status: models.StatusFailed, Err: err}
}

// pause waits out the inter-request delay. Returns false if the context was
// canceled first.
func (p *Pipeline) pause(ctx context.Context) bool {
	if p.delay == 0 {
		return ctx.Err() == nil
	}

	t := time.NewTimer(p.delay)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
