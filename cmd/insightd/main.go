package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/medforge/careinsight/pkg/batch"
	"github.com/medforge/careinsight/pkg/classify"
	"github.com/medforge/careinsight/pkg/config"
	"github.com/medforge/careinsight/pkg/conversation"
	"github.com/medforge/careinsight/pkg/corpus"
	"github.com/medforge/careinsight/pkg/lexicon"
	"github.com/medforge/careinsight/pkg/messaging"
	"github.com/medforge/careinsight/pkg/metrics"
	"github.com/medforge/careinsight/pkg/query"
	"github.com/medforge/careinsight/pkg/rootcause"
	"github.com/medforge/careinsight/pkg/spotlight"
	"github.com/medforge/careinsight/pkg/stream"
)

// reportWindow is the span each aggregation pass compares against the
// span immediately before it.
const reportWindow = 7 * 24 * time.Hour

var (
	logger = logrus.New()

	appConfig  *config.Configuration
	lex        *lexicon.Lexicon
	store      *corpus.Store
	processor  *batch.Processor
	generator  *spotlight.Generator
	hub        *stream.Hub
	amqpClient *messaging.Client
	publisher  *messaging.Publisher
)

func main() {
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)
	logger.SetLevel(logrus.InfoLevel)

	var err error
	appConfig, err = config.LoadConfig(logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}
	logger.SetLevel(appConfig.LogLevel)

	metrics.Init(logger)

	lex = lexicon.New(logger)
	if appConfig.LexiconFile != "" {
		if err := lex.LoadFile(appConfig.LexiconFile, logger); err != nil {
			logger.WithError(err).WithField("file", appConfig.LexiconFile).
				Fatal("Failed to load lexicon file")
		}
	}

	store = corpus.NewStore()
	processor = batch.NewProcessor(logger, appConfig.BatchWorkers)
	generator = spotlight.NewGenerator(logger, appConfig.Spotlight)
	hub = stream.NewHub(logger)

	rootCtx, rootCancel := context.WithCancel(context.Background())
	defer rootCancel()

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		hub.Run(rootCtx)
	}()

	if appConfig.AMQPUrl != "" {
		amqpClient = messaging.NewClient(logger, messaging.Config{
			URL:             appConfig.AMQPUrl,
			TranscriptQueue: appConfig.TranscriptQueue,
			AnalyticsQueue:  appConfig.AnalyticsQueue,
		})
		if err := amqpClient.Connect(); err != nil {
			logger.WithError(err).Fatal("Failed to connect to AMQP server")
		}
		defer amqpClient.Disconnect()

		publisher = messaging.NewPublisher(amqpClient)

		consumer := messaging.NewConsumer(amqpClient, handleTranscript)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := consumer.Run(rootCtx); err != nil && rootCtx.Err() == nil {
				logger.WithError(err).Error("Transcript consumer stopped")
			}
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		runAggregation(rootCtx)
	}()

	httpServer := startHTTPServer()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	logger.WithField("signal", sig.String()).Info("Shutting down")

	rootCancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Warn("HTTP server shutdown failed")
	}

	wg.Wait()
	logger.Info("Shutdown complete")
}

// handleTranscript analyzes one inbound transcript and publishes the
// resulting record.
func handleTranscript(ctx context.Context, msg *messaging.TranscriptMessage) error {
	res := processor.Run(ctx, lex, []conversation.Transcript{msg.Transcript()})
	if len(res.Errors) > 0 {
		// An unanalyzable transcript stays failed on redelivery; log and drop.
		logger.WithError(res.Errors[0]).WithField("conversation_id", msg.ConversationID).
			Warn("Skipping unanalyzable transcript")
		return nil
	}
	if len(res.Analytics) == 0 {
		return fmt.Errorf("batch returned no result for %s", msg.ConversationID)
	}

	a := res.Analytics[0]
	store.Add(a)
	hub.Broadcast(stream.KindAnalytics, a)
	if publisher != nil {
		if err := publisher.PublishAnalytics(a); err != nil {
			logger.WithError(err).Warn("Failed to publish conversation analytics")
		}
	}
	return nil
}

// runAggregation periodically recomputes corpus metrics, trends, root
// causes and spotlights over the report window.
func runAggregation(ctx context.Context) {
	ticker := time.NewTicker(appConfig.AggregationInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			aggregateOnce(time.Now().UTC())
		}
	}
}

func aggregateOnce(now time.Time) {
	snap := lex.Snapshot()
	current := store.Window(now.Add(-reportWindow), now)
	previous := store.Window(now.Add(-2*reportWindow), now.Add(-reportWindow))

	m := corpus.Aggregate(current, previous, snap.Topics)
	trends := corpus.TopicTrends(current, previous, snap.Topics)
	causes := rootcause.FromConversations(current, previous)
	spots := generator.Generate(m, trends, causes, now)

	for _, s := range spots {
		metrics.CountSpotlight(string(s.Type))
	}

	hub.Broadcast(stream.KindMetrics, m)
	if len(spots) > 0 {
		hub.Broadcast(stream.KindSpotlights, spots)
	}

	if publisher != nil {
		if err := publisher.PublishMetrics(m); err != nil {
			logger.WithError(err).Warn("Failed to publish corpus metrics")
		}
		if len(spots) > 0 {
			if err := publisher.PublishSpotlights(spots); err != nil {
				logger.WithError(err).Warn("Failed to publish spotlights")
			}
		}
	}

	logger.WithFields(logrus.Fields{
		"conversations": len(current),
		"spotlights":    len(spots),
		"root_causes":   len(causes),
	}).Info("Aggregation pass complete")
}

func startHTTPServer() *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", handleHealth)
	mux.HandleFunc("/ws", hub.ServeWs)
	mux.HandleFunc("/api/conversations", handleConversations)
	if appConfig.HTTPEnableMetrics {
		mux.Handle("/metrics", metrics.Handler())
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", appConfig.HTTPPort),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		logger.WithField("port", appConfig.HTTPPort).Info("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("HTTP server failed")
		}
	}()

	return server
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":        "ok",
		"conversations": store.Len(),
		"ws_clients":    hub.ClientCount(),
	})
}

// handleConversations serves the stored analytics filtered by query
// parameters.
func handleConversations(w http.ResponseWriter, r *http.Request) {
	f, err := filterFromRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	snap := lex.Snapshot()
	matched, err := query.Apply(store.All(), f, snap.Topics)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"total":         len(matched),
		"conversations": matched,
	})
}

func filterFromRequest(r *http.Request) (query.Filter, error) {
	var f query.Filter
	q := r.URL.Query()

	for _, v := range splitParam(q.Get("sentiment")) {
		f.Sentiments = append(f.Sentiments, classify.SentimentLabel(v))
	}
	f.Topics = splitParam(q.Get("topic"))
	for _, v := range splitParam(q.Get("type")) {
		f.Types = append(f.Types, conversation.ConversationType(v))
	}
	for _, v := range splitParam(q.Get("resolution")) {
		f.Resolutions = append(f.Resolutions, conversation.ResolutionStatus(v))
	}
	for _, v := range splitParam(q.Get("risk")) {
		f.RiskLevels = append(f.RiskLevels, conversation.RiskLevel(v))
	}
	f.Search = q.Get("q")

	if v := q.Get("friction"); v != "" {
		friction := v == "true"
		f.FrictionDetected = &friction
	}
	if v := q.Get("from"); v != "" {
		ts, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return f, fmt.Errorf("invalid from timestamp: %w", err)
		}
		f.From = &ts
	}
	if v := q.Get("to"); v != "" {
		ts, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return f, fmt.Errorf("invalid to timestamp: %w", err)
		}
		f.To = &ts
	}
	if v := q.Get("min_csat"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return f, fmt.Errorf("invalid min_csat: %w", err)
		}
		f.MinCSAT = &n
	}
	if v := q.Get("max_csat"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return f, fmt.Errorf("invalid max_csat: %w", err)
		}
		f.MaxCSAT = &n
	}

	return f, nil
}

func splitParam(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
