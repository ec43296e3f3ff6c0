package handlers

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/myrddinforetold-commits/sora-enhancer/internal/domain"
	"github.com/myrddinforetold-commits/sora-enhancer/internal/middleware"
)

// multipartMemory caps what ParseMultipartForm buffers in memory before
// spilling the upload to a temp file.
const multipartMemory = 32 << 20

var allowedExtensions = map[string]bool{
	".mp4":  true,
	".mov":  true,
	".m4v":  true,
	".webm": true,
	".avi":  true,
	".mkv":  true,
}

type enhanceResponse struct {
	JobID string `json:"job_id"`
}

// Enhance accepts a multipart submission, durably stores the upload, creates
// the job record, and enqueues it. Validation failures never create a job.
func (a *App) Enhance(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, a.MaxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			a.error(w, http.StatusRequestEntityTooLarge, "validation_error",
				fmt.Sprintf("upload exceeds %d bytes", maxErr.Limit))
			return
		}
		a.error(w, http.StatusBadRequest, "validation_error", "malformed multipart body")
		return
	}
	defer func() {
		// The rejected temp upload must not linger.
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		a.error(w, http.StatusBadRequest, "validation_error", "file is required")
		return
	}
	defer file.Close()
	if header.Size == 0 {
		a.error(w, http.StatusBadRequest, "validation_error", "file is empty")
		return
	}
	ext, err := validateFileType(header)
	if err != nil {
		a.error(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	opts, err := parseOptions(r)
	if err != nil {
		a.error(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	ctx := r.Context()
	jobID := uuid.NewString()

	// The upload is committed to the blob store before the job exists, so
	// no worker ever picks up a job whose input is not yet readable.
	inputRef, err := a.Blobs.Put(ctx, "uploads/"+jobID+ext, file)
	if err != nil {
		a.Logger.Error().Err(err).Msg("submit: store upload failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to store upload")
		return
	}

	job := &domain.Job{
		ID:       jobID,
		Status:   domain.JobStatusQueued,
		Step:     "Waiting for a worker",
		Options:  opts,
		InputRef: inputRef,
	}
	if err := a.Store.Create(ctx, job); err != nil {
		a.Logger.Error().Err(err).Msg("submit: create job failed")
		_ = a.Blobs.Delete(ctx, inputRef)
		a.error(w, http.StatusInternalServerError, "internal", "failed to create job")
		return
	}

	if err := a.Queue.Enqueue(jobID); err != nil {
		// Roll back: a job that can never run must not sit queued forever.
		_ = a.Store.Delete(ctx, jobID)
		_ = a.Blobs.Delete(ctx, inputRef)
		if errors.Is(err, domain.ErrQueueFull) {
			a.error(w, http.StatusServiceUnavailable, "queue_full", "too many pending jobs, try again later")
			return
		}
		a.Logger.Error().Err(err).Msg("submit: enqueue failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to enqueue job")
		return
	}

	a.Logger.Info().
		Str("request_id", middleware.RequestIDFromContext(ctx)).
		Str("job_id", jobID).
		Str("input_ref", inputRef).
		Msg("submit: job queued")
	a.json(w, http.StatusAccepted, enhanceResponse{JobID: jobID})
}

func parseOptions(r *http.Request) (domain.Options, error) {
	opts := domain.DefaultOptions()
	var err error
	if opts.RemoveWatermark, err = parseBoolField(r, "remove_watermark", true); err != nil {
		return domain.Options{}, err
	}
	if opts.EnhanceVideo, err = parseBoolField(r, "enhance_video", true); err != nil {
		return domain.Options{}, err
	}
	if opts.EnhanceAudio, err = parseBoolField(r, "enhance_audio", true); err != nil {
		return domain.Options{}, err
	}
	if opts.VideoPreset, err = domain.ParseVideoPreset(r.FormValue("video_preset")); err != nil {
		return domain.Options{}, err
	}
	if opts.AudioPreset, err = domain.ParseAudioPreset(r.FormValue("audio_preset")); err != nil {
		return domain.Options{}, err
	}
	return opts, nil
}

func parseBoolField(r *http.Request, field string, fallback bool) (bool, error) {
	raw := r.FormValue(field)
	if raw == "" {
		return fallback, nil
	}
	switch strings.ToLower(raw) {
	case "on", "yes":
		return true, nil
	case "off", "no":
		return false, nil
	}
	v, err := strconv.ParseBool(strings.ToLower(raw))
	if err != nil {
		return false, fmt.Errorf("%w: %s must be a boolean, got %q", domain.ErrValidation, field, raw)
	}
	return v, nil
}

func validateFileType(header *multipart.FileHeader) (string, error) {
	ext := strings.ToLower(filepath.Ext(header.Filename))
	if allowedExtensions[ext] {
		return ext, nil
	}
	if strings.HasPrefix(header.Header.Get("Content-Type"), "video/") {
		return ".mp4", nil
	}
	return "", fmt.Errorf("%w: unsupported file type %q", domain.ErrValidation, header.Filename)
}
