// Package metrics exposes Prometheus counters for the question pipeline.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Pipeline stages.
const (
	StageSchema = "schema"
	StageSQL    = "sql"
	StageExec   = "execute"
	StageAnswer = "answer"
)

// Question outcomes.
const (
	OutcomeAnswered  = "answered"
	OutcomeFailed    = "failed"
	OutcomeCancelled = "cancelled"
)

var (
	questionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatdb_questions_total",
			Help: "Total number of questions by outcome.",
		},
		[]string{"outcome"},
	)
	stageDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chatdb_stage_duration_seconds",
			Help:    "Duration of each pipeline stage in seconds.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 20, 60},
		},
		[]string{"stage"},
	)
	sqlFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "chatdb_sql_failures_total",
			Help: "Total number of generated statements that were rejected or failed in the warehouse.",
		},
	)
	sqlRepromptsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "chatdb_sql_reprompts_total",
			Help: "Total number of corrective re-prompts sent to obtain a bare SQL statement.",
		},
	)
	answerChunksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "chatdb_answer_chunks_total",
			Help: "Total number of streamed answer chunks delivered.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		questionsTotal,
		stageDurationSeconds,
		sqlFailuresTotal,
		sqlRepromptsTotal,
		answerChunksTotal,
	)
}

func ObserveQuestion(outcome string) {
	questionsTotal.WithLabelValues(outcome).Inc()
}

func ObserveStage(stage string, elapsed time.Duration) {
	stageDurationSeconds.WithLabelValues(stage).Observe(elapsed.Seconds())
}

func IncrementSQLFailure() {
	sqlFailuresTotal.Inc()
}

func IncrementReprompt() {
	sqlRepromptsTotal.Inc()
}

func AddAnswerChunks(n int) {
	if n > 0 {
		answerChunksTotal.Add(float64(n))
	}
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Serve exposes /metrics on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
