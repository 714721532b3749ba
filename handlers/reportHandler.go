package handlers

import (
	"bytes"
	"context"
	"errors"
	"log"
	"mime"
	"net/http"
	"strconv"

	"disha/db"
	"disha/models"
	"disha/services/report"

	"github.com/gorilla/mux"
)

type ReportGenerator interface {
	GenerateReport(ctx context.Context, studentID string, responses map[string]string) (*models.Report, error)
}

type ReportArchive interface {
	GetReportsByStudent(ctx context.Context, studentID string) ([]*models.Report, error)
	GetReportByID(ctx context.Context, id int) (*models.Report, error)
	DeleteReport(ctx context.Context, id int) error
}

type ReportHandler struct {
	generator ReportGenerator
	archive   ReportArchive
}

func NewReportHandler(generator ReportGenerator, archive ReportArchive) *ReportHandler {
	return &ReportHandler{generator: generator, archive: archive}
}

func (h *ReportHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/generate-report", h.GenerateReport).Methods("POST")
	router.HandleFunc("/api/generate-report/pdf", h.GenerateReportPDF).Methods("POST")
	router.HandleFunc("/api/reports/{user_id}", h.GetReports).Methods("GET")
	router.HandleFunc("/api/report/{id:[0-9]+}", h.GetReportByID).Methods("GET")
	router.HandleFunc("/api/report/{id:[0-9]+}", h.DeleteReport).Methods("DELETE")
}

func (h *ReportHandler) GenerateReport(w http.ResponseWriter, r *http.Request) {
	generated, ok := h.generate(w, r)
	if !ok {
		return
	}

	writeJSONResponse(w, http.StatusOK, models.ReportResponse{
		Success:  true,
		Report:   generated.Content,
		UserName: generated.StudentName,
	})
}

func (h *ReportHandler) GenerateReportPDF(w http.ResponseWriter, r *http.Request) {
	generated, ok := h.generate(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := report.PDF(&buf, generated.StudentName, report.ProfileText(generated.Profile), generated.Content); err != nil {
		log.Printf("[ERROR] PDF rendering failed for user %s: %v", generated.StudentID, err)
		writeErrorResponse(w, http.StatusInternalServerError, "Failed to render PDF report")
		return
	}

	filename := report.Filename(generated.StudentName, generated.CreatedAt, ".pdf")
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

func (h *ReportHandler) GetReports(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["user_id"]

	reports, err := h.archive.GetReportsByStudent(r.Context(), userID)
	if err != nil {
		writeErrorResponse(w, http.StatusInternalServerError, "Failed to retrieve reports")
		return
	}

	writeJSONResponse(w, http.StatusOK, reports)
}

func (h *ReportHandler) GetReportByID(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid report ID")
		return
	}

	found, err := h.archive.GetReportByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, db.ErrReportNotFound) {
			writeErrorResponse(w, http.StatusNotFound, err.Error())
		} else {
			writeErrorResponse(w, http.StatusInternalServerError, "Failed to retrieve report")
		}
		return
	}

	writeJSONResponse(w, http.StatusOK, found)
}

func (h *ReportHandler) DeleteReport(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid report ID")
		return
	}

	if err := h.archive.DeleteReport(r.Context(), id); err != nil {
		if errors.Is(err, db.ErrReportNotFound) {
			writeErrorResponse(w, http.StatusNotFound, err.Error())
		} else {
			writeErrorResponse(w, http.StatusInternalServerError, "Failed to delete report")
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// generate decodes the request and runs report generation, writing the
// error response itself when it fails.
func (h *ReportHandler) generate(w http.ResponseWriter, r *http.Request) (*models.Report, bool) {
	var req models.ReportRequest
	if err := decodeRequest(r, &req); err != nil {
		if errors.Is(err, errInvalidJSON) {
			writeErrorResponse(w, http.StatusBadRequest, "Invalid JSON payload")
		} else {
			writeErrorResponse(w, http.StatusBadRequest, "user_id is required")
		}
		return nil, false
	}

	generated, err := h.generator.GenerateReport(r.Context(), req.UserID, req.Responses)
	if err != nil {
		if errors.Is(err, db.ErrProfileNotFound) {
			writeErrorResponse(w, http.StatusNotFound, "User not found")
		} else {
			log.Printf("[ERROR] Report generation failed for user %s: %v", req.UserID, err)
			writeErrorResponse(w, http.StatusInternalServerError, err.Error())
		}
		return nil, false
	}
	return generated, true
}
