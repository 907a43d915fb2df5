/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	datasetLoads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "teamlink_dataset_loads_total",
		Help: "Dataset read attempts by result",
	}, []string{"result"})

	datasetMatches = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "teamlink_dataset_matches",
		Help: "Matches in the loaded dataset",
	})

	activeGames = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "teamlink_games_active",
		Help: "Game sessions currently held in memory",
	})

	roundsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "teamlink_rounds_started_total",
		Help: "Rounds that found a playable start/end pair",
	})

	roundFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "teamlink_round_failures_total",
		Help: "Rounds that could not start, by reason",
	}, []string{"reason"})

	roundsWon = promauto.NewCounter(prometheus.CounterOpts{
		Name: "teamlink_rounds_won_total",
		Help: "Rounds completed by the player",
	})

	movesAccepted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "teamlink_moves_accepted_total",
		Help: "Players added to a chain",
	})

	movesRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "teamlink_moves_rejected_total",
		Help: "Proposed players that were rejected, by reason",
	}, []string{"reason"})

	winSteps = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "teamlink_win_steps",
		Help:    "Chain length of completed rounds",
		Buckets: prometheus.LinearBuckets(2, 1, 9),
	})
)

func registerMetricsHandler(cfg *Config, mux *httprouter.Router) {
	mux.Handler("GET", cfg.prefix+"/metrics", promhttp.Handler())
}
