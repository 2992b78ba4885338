package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/idozri/vidto-listen/internal/api/middleware"
	"github.com/idozri/vidto-listen/internal/job"
)

type JobHandler struct {
	queue *job.JobQueue
}

func NewJobHandler(queue *job.JobQueue) *JobHandler {
	return &JobHandler{queue: queue}
}

// ListJobs returns the extraction jobs of the caller's session
func (h *JobHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.queue.ListJobs()
	if err != nil {
		jsonError(w, "failed to list jobs: "+err.Error(), http.StatusInternalServerError)
		return
	}

	sessionID := middleware.GetSession(r).ID()
	owned := []*job.Job{}
	for _, j := range jobs {
		if jobSession(j) == sessionID {
			owned = append(owned, j)
		}
	}
	jsonResponse(w, owned, http.StatusOK)
}

// GetJob returns a single job by ID
func (h *JobHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		jsonError(w, "missing job ID", http.StatusBadRequest)
		return
	}

	j, err := h.queue.GetJob(id)
	if err != nil || jobSession(j) != middleware.GetSession(r).ID() {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	jsonResponse(w, j, http.StatusOK)
}

func jobSession(j *job.Job) string {
	var p job.ExtractParams
	if err := json.Unmarshal(j.Params, &p); err != nil {
		return ""
	}
	return p.SessionID
}
