package routes

import (
	"net/http"

	"vidstego/failures"
	"vidstego/logger"
	"vidstego/success"
	"vidstego/taskqueue"
)

// JobStatusResponse represents the job status response
type JobStatusResponse struct {
	ID    string `json:"id"`
	State string `json:"state"`
}

// JobStatusHandler returns the state of a job. Live jobs come from the
// dispatcher; finished ones from the outcome records.
func (api *API) JobStatusHandler(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		logger.Warn("Missing id parameter in status request")
		writeDetail(w, http.StatusBadRequest, "Missing id parameter")
		return
	}

	if state, ok := api.Dispatcher.State(id); ok {
		writeJSON(w, http.StatusOK, JobStatusResponse{ID: id, State: state.String()})
		return
	}

	if rec, err := success.GetSuccess(id); err != nil {
		logger.Errorf("Failed to query success for job %s: %v", id, err)
	} else if rec != nil {
		writeJSON(w, http.StatusOK, JobStatusResponse{ID: id, State: taskqueue.JobStateCompleted.String()})
		return
	}
	if rec, err := failures.GetFailure(id); err != nil {
		logger.Errorf("Failed to query failure for job %s: %v", id, err)
	} else if rec != nil {
		writeJSON(w, http.StatusOK, JobStatusResponse{ID: id, State: taskqueue.JobStateFailed.String()})
		return
	}

	writeDetail(w, http.StatusNotFound, "Job "+id+" not found")
}
