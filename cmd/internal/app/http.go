package app

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	authapi "taskward/cmd/internal/auth/api"
	"taskward/cmd/internal/realtime"
)

func registerHTTP(
	mux *http.ServeMux,
	log Logger,
	dbPool *pgxpool.Pool,
	rdb *redis.Client,
	auth *authapi.Handler,
	ws *realtime.Gateway,
	metrics *Metrics,
) {
	mux.HandleFunc("/checks/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	mux.HandleFunc("/checks/ready", func(w http.ResponseWriter, r *http.Request) {
		if dbPool != nil {
			if err := PingDB(r.Context(), dbPool, 2*time.Second); err != nil {
				log.Info("ready.db.not_ready", "err", err)
				http.Error(w, "db not ready", http.StatusServiceUnavailable)
				return
			}
		}
		if rdb != nil {
			pingCtx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			err := rdb.Ping(pingCtx).Err()
			cancel()
			if err != nil {
				log.Info("ready.redis.not_ready", "err", err)
				http.Error(w, "redis not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready\n"))
	})

	auth.Register(mux)

	// The broadcast channel sits behind the same bearer gate as the rest of
	// the protected surface; the upgrade never happens for anonymous callers.
	mux.Handle("/ws/init/", auth.RequireAuth(ws))

	mux.Handle("/metrics", metrics.Handler())
}
