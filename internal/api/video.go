package api

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/bobarin/aistudio/internal/artifact"
	"github.com/bobarin/aistudio/internal/models"
	"github.com/bobarin/aistudio/internal/slideshow"
	"github.com/bobarin/aistudio/internal/stream"
	"github.com/go-chi/chi/v5"
)

const streamPathPrefix = "/api/video/stream/"

// CreateSlideshow handles POST /api/video/slideshow
func (h *Handler) CreateSlideshow(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, http.StatusRequestEntityTooLarge, "Upload is too large.")
			return
		}
		respondError(w, http.StatusBadRequest, "Invalid multipart form.")
		return
	}
	defer r.MultipartForm.RemoveAll()

	req, err := slideshowRequest(r.MultipartForm)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.generator.Generate(r.Context(), req)
	if err != nil {
		h.respondGenerateError(w, r, err)
		return
	}

	h.artifacts.Put(r.Context(), result.Key, artifact.Entry{
		Data:      result.Data,
		OwnerID:   user.ID,
		CreatedAt: h.now().UTC(),
	})

	videoURL := streamPathPrefix + result.Key
	if err := h.store.CreateGeneratedVideo(r.Context(), &models.GeneratedVideo{UserID: user.ID, VideoURL: videoURL}); err != nil {
		h.log.Error().Err(err).Int64("user_id", user.ID).Str("key", result.Key).Msg("failed to record generated video")
	}

	h.log.Info().
		Int64("user_id", user.ID).
		Str("key", result.Key).
		Int("bytes", len(result.Data)).
		Str("canvas", result.Canvas.String()).
		Msg("slideshow generated")

	respondJSON(w, http.StatusOK, models.SlideshowResponse{
		Success:         true,
		Message:         "Slideshow video generated successfully.",
		VideoURL:        videoURL,
		DurationSeconds: result.Duration,
		Width:           result.Canvas.Width,
		Height:          result.Canvas.Height,
	})
}

type formError string

func (e formError) Error() string { return string(e) }

// slideshowRequest reads the form fields, applying the documented defaults.
func slideshowRequest(form *multipart.Form) (slideshow.Request, error) {
	req := slideshow.Request{
		DurationSeconds: slideshow.DefaultDuration,
		SlideEffect:     true,
		Transition:      string(slideshow.ModeSlide),
	}

	if v := formValue(form, "duration_seconds"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return req, formError("duration_seconds must be an integer.")
		}
		req.DurationSeconds = n
	}
	for name, dst := range map[string]*bool{"crossfade": &req.Crossfade, "slide_effect": &req.SlideEffect} {
		if v := formValue(form, name); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return req, formError(name + " must be a boolean.")
			}
			*dst = b
		}
	}
	if v := formValue(form, "transition"); v != "" {
		req.Transition = v
	}

	for _, fh := range form.File["images"] {
		data, err := readFormFile(fh)
		if err != nil {
			return req, formError("Failed to read uploaded image.")
		}
		req.Images = append(req.Images, slideshow.Upload{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Data:        data,
		})
	}

	return req, nil
}

func formValue(form *multipart.Form, name string) string {
	if vs := form.Value[name]; len(vs) > 0 {
		return vs[0]
	}
	return ""
}

func readFormFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func (h *Handler) respondGenerateError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *slideshow.ValidationError
	var ee *slideshow.EncodeError

	switch {
	case errors.As(err, &ve):
		respondError(w, http.StatusBadRequest, ve.Message)
	case errors.Is(err, slideshow.ErrEncodeTimeout):
		respondError(w, http.StatusRequestTimeout, "Video generation timed out. Please try again with fewer or smaller images.")
	case errors.As(err, &ee):
		h.log.Error().Err(err).Msg("slideshow encode failed")
		respondError(w, http.StatusInternalServerError, "Video generation failed. Please try again.")
	case errors.Is(err, context.Canceled):
		h.log.Info().Msg("slideshow request cancelled by client")
	default:
		h.log.Error().Err(err).Msg("slideshow generation failed")
		respondError(w, http.StatusInternalServerError, "Failed to generate slideshow video.")
	}
}

// StreamVideo handles GET and HEAD /api/video/stream/{filename}
func (h *Handler) StreamVideo(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	filename := chi.URLParam(r, "filename")

	if e, ok := h.artifacts.Get(r.Context(), filename); ok && e.OwnerID == user.ID {
		stream.Serve(w, r, e.Data)
		return
	}

	known, err := h.store.HasVideoRecord(r.Context(), user.ID, streamPathPrefix+filename)
	if err != nil {
		h.log.Error().Err(err).Str("filename", filename).Msg("failed to look up video record")
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if known {
		respondError(w, http.StatusGone, "Video has expired. Please generate it again.")
		return
	}

	respondError(w, http.StatusNotFound, "Video not found")
}
