package httptransport

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	apperrors "loan-intake/internal/common/errors"
	"loan-intake/internal/common/metrics"
	"loan-intake/internal/common/validation"
	"loan-intake/internal/intake"
	"loan-intake/internal/loanapp"

	"github.com/go-chi/chi/v5"
)

const (
	// multipart parts above this spill to temp files
	multipartMemory = 8 << 20
	// room for the user_id field and part headers on top of the file cap
	multipartOverhead = 1 << 20
	maxJSONBody       = 1 << 20

	msgUserIDRequired       = "User ID is required"
	msgUpdateFieldsRequired = "Application ID and status are required"
)

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	err := r.ParseMultipartForm(multipartMemory)
	// the body cap is installed by middleware.RequestSize on the route
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		metrics.IntakeRejections.WithLabelValues("size").Inc()
		writeJSON(w, http.StatusBadRequest, &loanapp.SubmitResult{Message: loanapp.FileTooLargeMessage(h.maxUpload)})
		return
	}
	if err != nil && !errors.Is(err, http.ErrNotMultipart) {
		writeFailure(w, http.StatusBadRequest, "Invalid form data: "+err.Error())
		return
	}
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}

	userID := r.FormValue("user_id")
	if userID == "" {
		writeFailure(w, http.StatusBadRequest, msgUserIDRequired)
		return
	}

	var upload intake.Upload
	if r.MultipartForm != nil {
		if files := r.MultipartForm.File["jpg_file"]; len(files) > 0 {
			upload = intake.NewMultipartFile(files[0])
		}
	}

	res := h.svc.Submit(r.Context(), userID, upload)
	writeJSON(w, apperrors.HTTPStatus(res.Code), res)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	var applicantID *string
	if v := r.URL.Query().Get("user_id"); v != "" {
		applicantID = &v
	}

	res := h.svc.List(r.Context(), applicantID)
	writeJSON(w, apperrors.HTTPStatus(res.Code), res)
}

func (h *Handler) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxJSONBody))
	if err != nil {
		writeFailure(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	var body map[string]interface{}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&body); err != nil {
		writeFailure(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if isBlank(body["application_id"]) || isBlank(body["status"]) {
		writeFailure(w, http.StatusBadRequest, msgUpdateFieldsRequired)
		return
	}
	if result := validation.UpdateStatusRequestSchema.Validate(body); !result.Valid {
		writeFailure(w, http.StatusBadRequest, "Invalid request: "+result.Error())
		return
	}

	id, err := body["application_id"].(json.Number).Int64()
	if err != nil {
		writeFailure(w, http.StatusBadRequest, "Invalid request: application_id: "+err.Error())
		return
	}

	res := h.svc.UpdateStatus(r.Context(), id, body["status"].(string))
	writeJSON(w, apperrors.HTTPStatus(res.Code), res)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id < 1 {
		writeFailure(w, http.StatusBadRequest, "Invalid application ID")
		return
	}

	res := h.svc.Get(r.Context(), id)
	writeJSON(w, apperrors.HTTPStatus(res.Code), res)
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleReady(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	results := make(map[string]string, len(h.checks))
	for name, check := range h.checks {
		if err := check(r.Context()); err != nil {
			status = http.StatusServiceUnavailable
			results[name] = err.Error()
			continue
		}
		results[name] = "ok"
	}

	state := "ready"
	if status != http.StatusOK {
		state = "not_ready"
	}
	writeJSON(w, status, map[string]interface{}{"status": state, "checks": results})
}

// isBlank mirrors the falsy check the staff API has always applied to
// required fields.
func isBlank(v interface{}) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return val == ""
	case json.Number:
		return val.String() == "0"
	case bool:
		return !val
	default:
		return false
	}
}
