package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"ortografia/internal/importer"
	"ortografia/internal/models"
	"ortografia/internal/service"
)

// WordHandler handles the titanic word list
type WordHandler struct {
	wordService   *service.WordService
	uploadMaxSize int64
}

// NewWordHandler creates a new word handler. uploadMaxSize caps import files.
func NewWordHandler(wordService *service.WordService, uploadMaxSize int64) *WordHandler {
	return &WordHandler{
		wordService:   wordService,
		uploadMaxSize: uploadMaxSize,
	}
}

// List returns words filtered by the category, difficulty, active and search
// query parameters
func (h *WordHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := models.WordFilter{
		Category: strings.TrimSpace(q.Get("category")),
		Search:   strings.TrimSpace(q.Get("search")),
	}
	if v := q.Get("difficulty"); v != "" {
		d, err := strconv.Atoi(v)
		if err != nil {
			respondWithError(w, r, badRequest("difficulty must be a number"))
			return
		}
		filter.Difficulty = d
	}
	if v := q.Get("active"); v != "" {
		active, err := strconv.ParseBool(v)
		if err != nil {
			respondWithError(w, r, badRequest("active must be true or false"))
			return
		}
		filter.Active = &active
	}

	words, err := h.wordService.List(r.Context(), actor(r), filter)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{"words": words, "total": len(words)})
}

// Stats summarizes the word table
func (h *WordHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.wordService.Stats(r.Context(), actor(r))
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{"stats": stats})
}

// Create adds a private word. Scope fields in the body are ignored.
func (h *WordHandler) Create(w http.ResponseWriter, r *http.Request) {
	h.create(w, r, false)
}

// CreateScoped adds a word that may be shared with a classroom or globally
func (h *WordHandler) CreateScoped(w http.ResponseWriter, r *http.Request) {
	h.create(w, r, true)
}

func (h *WordHandler) create(w http.ResponseWriter, r *http.Request, scoped bool) {
	var in service.WordInput
	if err := decodeJSON(w, r, &in); err != nil {
		respondWithError(w, r, err)
		return
	}
	if !scoped {
		in.ClassroomID = nil
		in.IsGlobal = false
	}

	word, err := h.wordService.Create(r.Context(), actor(r), in)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respond(w, http.StatusCreated, map[string]any{"message": "word created", "word": word})
}

// Update rewrites a word the acting teacher created
func (h *WordHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	var in service.WordInput
	if err := decodeJSON(w, r, &in); err != nil {
		respondWithError(w, r, err)
		return
	}

	word, err := h.wordService.Update(r.Context(), actor(r), id, in)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{"message": "word updated", "word": word})
}

// Delete removes a word the acting teacher created
func (h *WordHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	if err := h.wordService.Delete(r.Context(), actor(r), id); err != nil {
		respondWithError(w, r, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{"message": "word deleted"})
}

// Toggle flips a word's active flag
func (h *WordHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	active, err := h.wordService.ToggleActive(r.Context(), actor(r), id)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{"is_active": active})
}

// Active returns the active words of a difficulty for a game. No token needed.
func (h *WordHandler) Active(w http.ResponseWriter, r *http.Request) {
	difficulty, err := strconv.Atoi(r.PathValue("difficulty"))
	if err != nil {
		respondWithError(w, r, badRequest("difficulty must be 1, 2 or 3"))
		return
	}
	words, err := h.wordService.ActiveForGame(r.Context(), difficulty)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{"words": words})
}

// Available lists the words the acting teacher may use, optionally with the
// words shared to the classroom_id query parameter
func (h *WordHandler) Available(w http.ResponseWriter, r *http.Request) {
	var classroomID *int64
	if v := r.URL.Query().Get("classroom_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			respondWithError(w, r, badRequest("classroom_id must be a number"))
			return
		}
		classroomID = &id
	}

	words, err := h.wordService.Available(r.Context(), actor(r), classroomID)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{"words": words})
}

// Import creates private words from an uploaded xlsx or csv file in the
// "file" form field
func (h *WordHandler) Import(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.uploadMaxSize)
	if err := r.ParseMultipartForm(h.uploadMaxSize); err != nil {
		respondWithError(w, r, badRequest("file too large or not a multipart upload"))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		respondWithError(w, r, badRequest("file is required"))
		return
	}
	defer file.Close()

	format, err := importer.FormatFromName(header.Filename)
	if err != nil {
		respondWithError(w, r, badRequest(err.Error()))
		return
	}
	rows, err := importer.Read(file, format)
	if err != nil {
		if errors.Is(err, importer.ErrUnsupportedFormat) {
			err = badRequest(err.Error())
		} else {
			err = badRequest("could not read the file: " + err.Error())
		}
		respondWithError(w, r, err)
		return
	}

	results, err := h.wordService.Import(r.Context(), actor(r), rows)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	created := 0
	for _, res := range results {
		if res.Created {
			created++
		}
	}
	respond(w, http.StatusOK, map[string]any{
		"results": results,
		"created": created,
		"failed":  len(results) - created,
	})
}
