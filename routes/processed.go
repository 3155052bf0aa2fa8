package routes

import (
	"errors"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"

	"vidstego/logger"
	"vidstego/storage"
)

// DownloadHandler serves a processed output by name.
func (api *API) DownloadHandler(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	path, err := api.Storage.OutputPath(name)
	if err != nil {
		writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			writeDetail(w, http.StatusNotFound, "No processed video named "+name)
			return
		}
		logger.Errorf("Failed to open processed video %s: %v", path, err)
		writeDetail(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	defer f.Close()
	stat, err := f.Stat()
	if err != nil || stat.IsDir() {
		writeDetail(w, http.StatusNotFound, "No processed video named "+name)
		return
	}

	w.Header().Set("Content-Type", "video/mp4")
	http.ServeContent(w, r, name, stat.ModTime(), f)
}

// DeleteHandler removes a processed output before the retention sweep does.
func (api *API) DeleteHandler(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	err := api.Storage.Remove(name)
	switch {
	case errors.Is(err, storage.ErrInvalidName):
		writeDetail(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, os.ErrNotExist):
		writeDetail(w, http.StatusNotFound, "No processed video named "+name)
	case err != nil:
		logger.Errorf("Failed to delete processed video %s: %v", name, err)
		writeDetail(w, http.StatusInternalServerError, "Internal server error")
	default:
		logger.Infof("Deleted processed video %s", name)
		w.WriteHeader(http.StatusNoContent)
	}
}
