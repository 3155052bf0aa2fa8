package routes

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"os"

	"vidstego/logger"
	"vidstego/models"
	"vidstego/taskqueue"
	"vidstego/video"
)

// DecodeResponse is the JSON body returned by a successful decode.
type DecodeResponse struct {
	Message      string `json:"message"`
	HiddenText   string `json:"hidden_text"`
	DecodedVideo string `json:"decoded_video"`
}

// EncodeHandler accepts a video and hidden_text, and returns the encoded video.
func (api *API) EncodeHandler(w http.ResponseWriter, r *http.Request) {
	logger.Debugf("Encode request: method=%s, remoteAddr=%s", r.Method, r.RemoteAddr)
	const action = "Encode"

	file, header, err := api.readUpload(w, r)
	if err != nil {
		writeDetail(w, http.StatusBadRequest, fmt.Sprintf("%s failed: %v", action, err))
		return
	}
	defer file.Close()

	if _, ok := r.MultipartForm.Value["hidden_text"]; !ok {
		writeDetail(w, http.StatusBadRequest, action+" failed: missing form field hidden_text")
		return
	}
	text := r.FormValue("hidden_text")

	job, err := api.Storage.Stage(models.JobKindEncode, header.Filename, file)
	if err != nil {
		logger.Errorf("Failed to stage upload %s: %v", header.Filename, err)
		writeDetail(w, http.StatusInternalServerError, fmt.Sprintf("%s failed: %v", action, err))
		return
	}

	ctx, cancel := api.queueContext(r.Context())
	defer cancel()
	res, err := api.Processor.Encode(ctx, job, text)
	if err != nil {
		writeDetail(w, failureStatus(err), fmt.Sprintf("%s failed: %v", action, err))
		return
	}

	out, err := os.Open(res.Job.OutputPath)
	if err != nil {
		logger.Errorf("Failed to open encoded output %s: %v", res.Job.OutputPath, err)
		writeDetail(w, http.StatusInternalServerError, fmt.Sprintf("%s failed: %v", action, err))
		return
	}
	defer out.Close()
	stat, err := out.Stat()
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, fmt.Sprintf("%s failed: %v", action, err))
		return
	}

	w.Header().Set("Content-Type", "video/mp4")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, job.OutputName()))
	http.ServeContent(w, r, job.OutputName(), stat.ModTime(), out)
	logger.Infof("Encode request completed: job=%s, frames=%d, requester=%s", job.ID, res.Output.Frames, requester(r))
}

// DecodeHandler accepts a video, recovers its hidden text and renders it
// onto a new video kept in the processed area.
func (api *API) DecodeHandler(w http.ResponseWriter, r *http.Request) {
	logger.Debugf("Decode request: method=%s, remoteAddr=%s", r.Method, r.RemoteAddr)
	const action = "Decode"

	file, header, err := api.readUpload(w, r)
	if err != nil {
		writeDetail(w, http.StatusBadRequest, fmt.Sprintf("%s failed: %v", action, err))
		return
	}
	defer file.Close()

	job, err := api.Storage.Stage(models.JobKindDecode, header.Filename, file)
	if err != nil {
		logger.Errorf("Failed to stage upload %s: %v", header.Filename, err)
		writeDetail(w, http.StatusInternalServerError, fmt.Sprintf("%s failed: %v", action, err))
		return
	}

	ctx, cancel := api.queueContext(r.Context())
	defer cancel()
	res, err := api.Processor.Decode(ctx, job)
	if err != nil {
		writeDetail(w, failureStatus(err), fmt.Sprintf("%s failed: %v", action, err))
		return
	}

	writeJSON(w, http.StatusOK, DecodeResponse{
		Message:      "Decode complete",
		HiddenText:   res.HiddenText,
		DecodedVideo: job.OutputName(),
	})
	logger.Infof("Decode request completed: job=%s, frames=%d, requester=%s", job.ID, res.Output.Frames, requester(r))
}

// readUpload parses the multipart form and returns the "file" part.
func (api *API) readUpload(w http.ResponseWriter, r *http.Request) (multipart.File, *multipart.FileHeader, error) {
	if api.MaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, api.MaxUploadBytes)
	}
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		logger.Warnf("Failed to parse multipart form: %v", err)
		return nil, nil, fmt.Errorf("invalid multipart form: %w", err)
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		logger.Warnf("Missing file in upload: %v", err)
		return nil, nil, fmt.Errorf("missing form file: %w", err)
	}
	return file, header, nil
}

func (api *API) queueContext(parent context.Context) (context.Context, context.CancelFunc) {
	if api.QueueTimeout > 0 {
		return context.WithTimeout(parent, api.QueueTimeout)
	}
	return context.WithCancel(parent)
}

// failureStatus maps a job error onto the response status.
func failureStatus(err error) int {
	switch {
	case errors.Is(err, video.ErrOpen):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled),
		errors.Is(err, taskqueue.ErrClosed):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
