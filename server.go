package main

import (
	"log"
	"net/http"
)

func registerRoutes(mux *http.ServeMux, ws *wsHandler, metrics *trackerMetrics) {
	mux.HandleFunc("/api/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.HandleFunc("/ws", ws.handle)

	if metrics != nil {
		mux.Handle("/metrics", metrics.handler())
	}

	fs := http.FileServer(http.Dir("./static"))
	mux.Handle("/", withLogging(fs))
}

func withLogging(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Printf("%s %s", r.Method, r.URL.Path)
		h.ServeHTTP(w, r)
	})
}
