package routes

import (
	"net/http"

	"vidstego/logger"
	"vidstego/success"
)

// SuccessQueryHandler returns the success record of a job, if any.
func SuccessQueryHandler(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		writeDetail(w, http.StatusBadRequest, "id parameter required")
		return
	}

	record, err := success.GetSuccess(id)
	if err != nil {
		logger.Errorf("Failed to query success for job %s: %v", id, err)
		writeDetail(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if record == nil {
		writeJSON(w, http.StatusOK, map[string]any{
			"id":      id,
			"status":  "not_found",
			"message": "No success record found for this job",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"id":          record.JobID,
		"status":      "success",
		"kind":        record.Kind,
		"timestamp":   record.Timestamp,
		"output_name": record.OutputName,
		"frames":      record.Frames,
		"width":       record.Width,
		"height":      record.Height,
		"fps":         record.FPS,
		"elapsed":     record.Elapsed,
	})
}

// SuccessListHandler lists every success record.
func SuccessListHandler(w http.ResponseWriter, r *http.Request) {
	list, err := success.ListSuccessRecords()
	if err != nil {
		logger.Errorf("Failed to list success records: %v", err)
		writeDetail(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if list == nil {
		list = []success.SuccessRecord{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"records": list,
		"count":   len(list),
	})
}
