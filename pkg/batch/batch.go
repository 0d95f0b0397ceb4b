// Package batch runs conversation analysis over many transcripts
// concurrently with a bounded worker pool. A failing conversation never
// aborts the batch; per-conversation errors are collected alongside the
// successful results.
package batch

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/medforge/careinsight/pkg/conversation"
	"github.com/medforge/careinsight/pkg/lexicon"
	"github.com/medforge/careinsight/pkg/metrics"
)

// ConversationError records the failure of a single conversation inside
// a batch run.
type ConversationError struct {
	ConversationID string
	Err            error
}

func (e ConversationError) Error() string {
	return "conversation " + e.ConversationID + ": " + e.Err.Error()
}

func (e ConversationError) Unwrap() error { return e.Err }

// Result is the outcome of one batch run. Analytics holds the
// successful records in input order; Errors holds one entry per failed
// conversation, also in input order. Partial is set when the run was
// cancelled before every transcript was attempted.
type Result struct {
	Analytics []*conversation.Analytics
	Errors    []ConversationError
	Partial   bool
	Elapsed   time.Duration
}

// Processor fans transcripts out to a fixed pool of analysis workers.
type Processor struct {
	logger  *logrus.Entry
	workers int
}

// NewProcessor creates a batch processor with the given concurrency.
// A non-positive worker count falls back to the number of CPUs.
func NewProcessor(logger *logrus.Logger, workers int) *Processor {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Processor{
		logger:  logger.WithField("component", "batch"),
		workers: workers,
	}
}

// Run analyzes every transcript and returns the combined result. The
// vocabulary is snapshotted once at batch start so that concurrent
// lexicon edits cannot change classification mid-run. Cancelling the
// context stops the dispatch of new work; transcripts already handed to
// a worker still complete.
func (p *Processor) Run(ctx context.Context, lex *lexicon.Lexicon, transcripts []conversation.Transcript) *Result {
	start := time.Now()
	result := &Result{}
	if len(transcripts) == 0 {
		result.Elapsed = time.Since(start)
		return result
	}

	snap := lex.Snapshot()
	analyzer := conversation.NewAnalyzer(p.logger.Logger, snap)

	type slot struct {
		analytics *conversation.Analytics
		err       error
		attempted bool
	}
	slots := make([]slot, len(transcripts))

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < p.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				a, err := analyzer.Analyze(transcripts[i])
				slots[i] = slot{analytics: a, err: err, attempted: true}
			}
		}()
	}

dispatch:
	for i := range transcripts {
		select {
		case jobs <- i:
		case <-ctx.Done():
			result.Partial = true
			break dispatch
		}
	}
	close(jobs)
	wg.Wait()

	utterances := 0
	for i, s := range slots {
		if !s.attempted {
			continue
		}
		if s.err != nil {
			result.Errors = append(result.Errors, ConversationError{
				ConversationID: transcripts[i].ConversationID,
				Err:            s.err,
			})
			continue
		}
		result.Analytics = append(result.Analytics, s.analytics)
		utterances += len(s.analytics.Utterances)
		for _, fp := range s.analytics.FrictionPoints {
			metrics.CountFrictionPoint(string(fp.Barrier))
		}
	}
	result.Elapsed = time.Since(start)

	metrics.ObserveBatch(start, len(result.Analytics), len(result.Errors))
	metrics.CountUtterances(utterances)

	p.logger.WithFields(logrus.Fields{
		"transcripts": len(transcripts),
		"analyzed":    len(result.Analytics),
		"failed":      len(result.Errors),
		"partial":     result.Partial,
		"elapsed":     result.Elapsed,
	}).Info("Batch analysis complete")

	return result
}
