// Package metrics holds the Prometheus collectors for the scoring engine.
package metrics

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "lexamen"

// Registry is private to the service so tests can read it without the
// process-wide default collectors.
var Registry = prometheus.NewRegistry()

var factory = promauto.With(Registry)

var (
	reviews = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "flashcard_reviews_total",
		Help:      "Flashcard reviews accepted, by quality.",
	}, []string{"quality"})

	attempts = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "attempts_total",
		Help:      "Answer submissions by content type and outcome (correct, incorrect, limited).",
	}, []string{"content_type", "outcome"})

	xpAwarded = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "xp_awarded_total",
		Help:      "XP credited to students, by reason.",
	}, []string{"reason"})

	topicCompletions = factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "topic_completions_total",
		Help:      "Full passes over a curriculum topic.",
	})

	causaTransitions = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "causa_transitions_total",
		Help:      "Duel state transitions, by resulting status.",
	}, []string{"status"})

	leagueMembers = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "league_memberships_total",
		Help:      "Weekly league memberships created, by source (lazy, rollover).",
	}, []string{"source"})

	rolloverMovements = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rollover_movements_total",
		Help:      "End-of-week tier movements.",
	}, []string{"movement"})
)

func init() {
	Registry.MustRegister(collectors.NewGoCollector())
}

func ObserveReview(quality int) {
	reviews.WithLabelValues(strconv.Itoa(quality)).Inc()
}

func ObserveAttempt(contentType, outcome string) {
	attempts.WithLabelValues(contentType, outcome).Inc()
}

func ObserveXP(reason string, xp int64) {
	if xp > 0 {
		xpAwarded.WithLabelValues(reason).Add(float64(xp))
	}
}

func ObserveTopicCompletion() { topicCompletions.Inc() }

func ObserveCausa(status string) {
	causaTransitions.WithLabelValues(status).Inc()
}

func ObserveMembership(source string) {
	leagueMembers.WithLabelValues(source).Inc()
}

func ObserveMovement(movement string, n int) {
	rolloverMovements.WithLabelValues(movement).Add(float64(n))
}

// Handler exposes Registry in the Prometheus text format.
func Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(Registry, promhttp.HandlerOpts{}))
}
