/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	gamesCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "killchain_games_created_total",
		Help: "Number of game sessions created.",
	})

	gamesActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "killchain_games_active",
		Help: "Number of game sessions currently held in memory.",
	})

	playersConnected = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "killchain_players_connected",
		Help: "Number of websocket connections currently open.",
	})

	killsRecorded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "killchain_kills_total",
		Help: "Number of eliminations committed to a game session.",
	})

	killsPending = promauto.NewCounter(prometheus.CounterOpts{
		Name: "killchain_kill_requests_total",
		Help: "Number of elimination requests awaiting victim confirmation.",
	})

	notificationsPushed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "killchain_notifications_pushed_total",
		Help: "Number of push notifications delivered to registered endpoints.",
	})

	messagesDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "killchain_messages_dropped_total",
		Help: "Number of outbound messages dropped due to slow clients.",
	})
)

func registerMetrics(cfg *Config, mux *httprouter.Router) {
	handler := promhttp.Handler()

	mux.GET(cfg.prefix+"/metrics", func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		handler.ServeHTTP(w, r)
	})
}
