package http

import (
	stdhttp "net/http"
	"time"

	"github.com/wb-go/wbf/zlog"
)

func (h *Handler) Routes() stdhttp.Handler {
	mux := stdhttp.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(stdhttp.StatusOK)
		_, _ = w.Write([]byte(`{"result":"ok"}`))
	})
	mux.HandleFunc("POST /forests/{root}/comments", h.IngestComments)
	mux.HandleFunc("GET /forests/{root}", h.GetComments)
	mux.HandleFunc("GET /forests/{root}/path", h.GetPath)
	mux.HandleFunc("GET /forests/{root}/search", h.SearchComments)
	mux.HandleFunc("DELETE /forests/{root}", h.DeleteForest)

	return accessLog(mux)
}

type statusRecorder struct {
	stdhttp.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

func accessLog(next stdhttp.Handler) stdhttp.Handler {
	return stdhttp.HandlerFunc(func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: stdhttp.StatusOK}
		next.ServeHTTP(rec, r)

		zlog.Logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("took", time.Since(start)).
			Msg("request")
	})
}
