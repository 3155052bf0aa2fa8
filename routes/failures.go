package routes

import (
	"net/http"

	"vidstego/failures"
	"vidstego/logger"
)

// FailureQueryHandler returns the failure record of a job, if any.
func FailureQueryHandler(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		writeDetail(w, http.StatusBadRequest, "id parameter required")
		return
	}

	record, err := failures.GetFailure(id)
	if err != nil {
		logger.Errorf("Failed to query failure for job %s: %v", id, err)
		writeDetail(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if record == nil {
		writeJSON(w, http.StatusOK, map[string]any{
			"id":      id,
			"status":  "not_found",
			"message": "No failure recorded for this job",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"id":            record.JobID,
		"status":        "failed",
		"kind":          record.Kind,
		"timestamp":     record.Timestamp,
		"error":         record.Error,
		"original_name": record.OriginalName,
	})
}

// FailureListHandler lists every recorded failure.
func FailureListHandler(w http.ResponseWriter, r *http.Request) {
	list, err := failures.ListFailures()
	if err != nil {
		logger.Errorf("Failed to list failures: %v", err)
		writeDetail(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if list == nil {
		list = []failures.FailureRecord{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"failures": list,
		"count":    len(list),
	})
}
