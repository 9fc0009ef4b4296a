package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	service "github.com/okian/presence/internal/app"
)

// maxUploadBytes bounds one enrollment upload.
const maxUploadBytes = 32 << 20

// handleAddPerson handles POST /api/add_person: multipart form with a
// "name" field and one or more "images" files. Partial failures are
// reported per item; the request fails only when no image was usable.
func (s *Server) handleAddPerson(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "bad_multipart", err)
		return
	}

	name := strings.TrimSpace(r.FormValue("name"))
	if name == "" {
		writeError(w, http.StatusBadRequest, "missing_name", errors.New("missing name"))
		return
	}

	files := r.MultipartForm.File["images"]
	if len(files) == 0 {
		writeError(w, http.StatusBadRequest, "missing_images", errors.New("no images uploaded"))
		return
	}

	items := make([]string, 0, len(files))
	images := make([][]byte, 0, len(files))
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_upload", err)
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_upload", err)
			return
		}
		items = append(items, fh.Filename)
		images = append(images, data)
	}

	summary, err := s.deps.Enroll(r.Context(), name, items, images)
	if err != nil {
		if errors.Is(err, service.ErrNothingUsable) {
			writeJSON(w, http.StatusBadRequest, summary)
			return
		}
		writeError(w, http.StatusInternalServerError, "enroll_failed", err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// handleGetPeople handles GET /api/get_people.
func (s *Server) handleGetPeople(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.People(r.Context()))
}

type deleteRequest struct {
	Name string `json:"name"`
}

// handleDeletePerson handles DELETE /api/delete_person.
func (s *Server) handleDeletePerson(w http.ResponseWriter, r *http.Request) {
	var req deleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", err)
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "missing_name", errors.New("missing name"))
		return
	}

	if err := s.deps.DeletePerson(r.Context(), req.Name); err != nil {
		if isNotFound(err) {
			writeError(w, http.StatusNotFound, "not_found", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "delete_failed", err)
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{Status: "deleted"})
}
