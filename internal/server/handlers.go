package server

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"ai-interviewer/internal/evaluation"
	"ai-interviewer/internal/interview"
	"ai-interviewer/internal/questions"
	"ai-interviewer/internal/record"
	"ai-interviewer/internal/session"
)

const maxAudioUpload = 10 << 20

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"uptime": time.Since(s.startTime).String(),
	})
}

// handleEvaluateAnswer scores a single typed answer. The response is always
// 200 with a feedback object: evaluator failures come back as an all-error
// record, never as an HTTP error.
func (s *Server) handleEvaluateAnswer(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Question string `json:"question"`
		Answer   string `json:"answer"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusOK, evaluation.TextFailure("Invalid request body"))
		return
	}

	raw, err := s.evaluator.EvaluateText(r.Context(), req.Question, req.Answer)
	if err != nil {
		log.Printf("evaluate-answer failed: %v", err)
		writeJSON(w, http.StatusOK, evaluation.TextFailure(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, evaluation.NormalizeText(raw))
}

// handleEvaluateVoice scores a recorded answer uploaded as multipart form
// data (field "audio", plus "question").
func (s *Server) handleEvaluateVoice(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	audio, question, ok := readAudioForm(w, r)
	if !ok {
		return
	}

	raw, err := s.evaluator.EvaluateVoice(r.Context(), question, audio)
	if err != nil {
		log.Printf("evaluate-voice failed: %v", err)
		writeJSON(w, http.StatusOK, evaluation.VoiceFailure(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, evaluation.NormalizeVoice(raw))
}

// handleInterviews creates a draft interview from a generation payload
// (POST) or lists records by status (GET).
func (s *Server) handleInterviews(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var req struct {
			JobTitle       string          `json:"job_title"`
			JobDescription string          `json:"job_description"`
			SessionType    string          `json:"session_type"`
			Payload        json.RawMessage `json:"payload"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		qs, err := questions.Parse(req.Payload)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		rec := &interview.Record{
			Questions:      qs,
			JobTitle:       req.JobTitle,
			JobDescription: req.JobDescription,
			SessionType:    req.SessionType,
		}
		id, err := s.records.Create(r.Context(), rec)
		if err != nil {
			log.Printf("failed to create interview: %v", err)
			http.Error(w, "failed to create interview", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusCreated, rec)
		log.Printf("created interview %s with %d questions", id, len(qs))

	case http.MethodGet:
		status := interview.Status(r.URL.Query().Get("status"))
		if status == "" {
			status = interview.StatusDraft
		}
		recs, err := s.records.ListByStatus(r.Context(), status)
		if err != nil {
			http.Error(w, "failed to list interviews", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, recs)

	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleInterview serves per-session routes:
//
//	GET  /api/interviews/{id}          record plus live progress
//	POST /api/interviews/{id}/answers  typed answer submission
//	POST /api/interviews/{id}/voice    recorded answer submission
func (s *Server) handleInterview(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/interviews/")
	id, action, _ := strings.Cut(rest, "/")
	if id == "" {
		http.Error(w, "missing interview id", http.StatusBadRequest)
		return
	}

	switch {
	case action == "" && r.Method == http.MethodGet:
		s.getInterview(w, r, id)
	case action == "answers" && r.Method == http.MethodPost:
		s.submitAnswer(w, r, id)
	case action == "voice" && r.Method == http.MethodPost:
		s.submitVoice(w, r, id)
	default:
		http.Error(w, "not found", http.StatusNotFound)
	}
}

func (s *Server) getInterview(w http.ResponseWriter, r *http.Request, id string) {
	rec, err := s.records.Get(r.Context(), id)
	if errors.Is(err, record.ErrNotFound) {
		http.Error(w, "interview not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "failed to load interview", http.StatusInternalServerError)
		return
	}

	resp := map[string]any{"record": rec}
	if machine, ok := s.manager.Get(id); ok {
		answers, text, voice := machine.Progress()
		resp["state"] = machine.State()
		resp["current_index"] = machine.CurrentIndex()
		resp["answers"] = answers
		resp["text_feedbacks"] = text
		resp["voice_feedbacks"] = voice
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) submitAnswer(w http.ResponseWriter, r *http.Request, id string) {
	var req struct {
		Answer string `json:"answer"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Answer) == "" {
		http.Error(w, "answer is required", http.StatusBadRequest)
		return
	}

	machine := s.resumeSession(w, r, id)
	if machine == nil {
		return
	}
	if err := machine.SubmitText(r.Context(), req.Answer); err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	s.writeProgress(w, machine)
}

func (s *Server) submitVoice(w http.ResponseWriter, r *http.Request, id string) {
	audio, _, ok := readAudioForm(w, r)
	if !ok {
		return
	}

	machine := s.resumeSession(w, r, id)
	if machine == nil {
		return
	}
	if err := machine.SubmitVoice(r.Context(), audio); err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	s.writeProgress(w, machine)
}

// resumeSession maps session-manager failures onto HTTP responses. A nil
// machine means the response has been written.
func (s *Server) resumeSession(w http.ResponseWriter, r *http.Request, id string) *session.Machine {
	machine, err := s.manager.Resume(r.Context(), id)
	switch {
	case errors.Is(err, record.ErrNotFound):
		http.Error(w, "interview not found", http.StatusNotFound)
		return nil
	case errors.Is(err, session.ErrCompleted):
		http.Error(w, "interview is already completed", http.StatusConflict)
		return nil
	case err != nil:
		log.Printf("failed to resume session %s: %v", id, err)
		http.Error(w, "failed to resume session", http.StatusInternalServerError)
		return nil
	}
	return machine
}

func (s *Server) writeProgress(w http.ResponseWriter, machine *session.Machine) {
	next, _ := machine.CurrentQuestion()
	writeJSON(w, http.StatusAccepted, map[string]any{
		"state":          machine.State(),
		"current_index":  machine.CurrentIndex(),
		"question_count": machine.QuestionCount(),
		"next_question":  next.Text,
	})
}

func readAudioForm(w http.ResponseWriter, r *http.Request) (evaluation.Audio, string, bool) {
	if err := r.ParseMultipartForm(maxAudioUpload); err != nil {
		http.Error(w, "invalid multipart form", http.StatusBadRequest)
		return evaluation.Audio{}, "", false
	}
	file, header, err := r.FormFile("audio")
	if err != nil {
		http.Error(w, "audio file is required", http.StatusBadRequest)
		return evaluation.Audio{}, "", false
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil || len(data) == 0 {
		http.Error(w, "failed to read audio", http.StatusBadRequest)
		return evaluation.Audio{}, "", false
	}

	mime := header.Header.Get("Content-Type")
	if mime == "" {
		mime = "audio/webm"
	}
	return evaluation.Audio{Data: data, MIMEType: mime}, r.FormValue("question"), true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}
