// Package server exposes the interview session API over HTTP.
package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"ai-interviewer/internal/evaluation"
	"ai-interviewer/internal/record"
	"ai-interviewer/internal/session"
)

type Server struct {
	manager   *session.Manager
	records   record.Store
	evaluator evaluation.Evaluator
	server    *http.Server
	port      int
	startTime time.Time
}

func New(manager *session.Manager, records record.Store, evaluator evaluation.Evaluator, port int) *Server {
	return &Server{
		manager:   manager,
		records:   records,
		evaluator: evaluator,
		port:      port,
		startTime: time.Now(),
	}
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/api/evaluate-answer", s.handleEvaluateAnswer)
	mux.HandleFunc("/api/evaluate-voice", s.handleEvaluateVoice)
	mux.HandleFunc("/api/interviews", s.handleInterviews)
	mux.HandleFunc("/api/interviews/", s.handleInterview)

	return mux
}

func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.port),
		Handler:      s.routes(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Printf("interview API listening on :%d", s.port)
	return s.server.ListenAndServe()
}

func (s *Server) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}
