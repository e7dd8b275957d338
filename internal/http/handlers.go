package http

import (
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"latte/internal/core"
	"latte/internal/export"
)

func (s *Server) handleListFarms(w http.ResponseWriter, r *http.Request) {
	farms, err := s.engine.Farms(r.Context())
	if err != nil {
		s.logger.Error("list farms failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list farms")
		return
	}
	if farms == nil {
		farms = []string{}
	}
	writeJSON(w, http.StatusOK, farmListResponse{Farms: farms})
}

func (s *Server) handleListAnimals(w http.ResponseWriter, r *http.Request) {
	farm := scopeParam(r, "farm")

	animals, err := s.engine.Animals(r.Context(), farm)
	if err != nil {
		s.logger.Error("list animals failed", zap.String("farm", farm), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list animals")
		return
	}

	today := s.engine.Today()
	resp := animalListResponse{Farm: farm, Animals: make([]animalDTO, 0, len(animals))}
	for _, a := range animals {
		resp.Animals = append(resp.Animals, toAnimalDTO(a, today))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleFarmSummary(w http.ResponseWriter, r *http.Request) {
	farm := scopeParam(r, "farm")

	summary, err := s.engine.FarmSummary(r.Context(), farm)
	if err != nil {
		s.logger.Error("farm summary failed", zap.String("farm", farm), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to compute farm summary")
		return
	}
	writeJSON(w, http.StatusOK, toFarmSummaryResponse(summary))
}

func (s *Server) handleAnimalSummary(w http.ResponseWriter, r *http.Request) {
	earTag := scopeParam(r, "earTag")

	summary, err := s.engine.AnimalSummary(r.Context(), earTag)
	if errors.Is(err, core.ErrAnimalNotFound) {
		writeError(w, http.StatusNotFound, "animal not found")
		return
	}
	if err != nil {
		s.logger.Error("animal summary failed", zap.String("ear_tag", earTag), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to compute animal summary")
		return
	}
	writeJSON(w, http.StatusOK, toAnimalSummaryResponse(summary, s.engine.Today()))
}

func (s *Server) handleFarmCSV(w http.ResponseWriter, r *http.Request) {
	farm := scopeParam(r, "farm")

	summary, err := s.engine.FarmSummary(r.Context(), farm)
	if err != nil {
		s.logger.Error("farm report failed", zap.String("farm", farm), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to build farm report")
		return
	}
	s.serveCSV(w, farm, summary.Annual)
}

func (s *Server) handleAnimalCSV(w http.ResponseWriter, r *http.Request) {
	earTag := scopeParam(r, "earTag")

	summary, err := s.engine.AnimalSummary(r.Context(), earTag)
	if errors.Is(err, core.ErrAnimalNotFound) {
		writeError(w, http.StatusNotFound, "animal not found")
		return
	}
	if err != nil {
		s.logger.Error("animal report failed", zap.String("ear_tag", earTag), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to build animal report")
		return
	}
	s.serveCSV(w, earTag, summary.Annual)
}

func (s *Server) serveCSV(w http.ResponseWriter, scope string, rows []core.AnnualProduction) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", export.ReportFilename(scope)))

	if err := export.WriteAnnualReport(w, rows); err != nil {
		// Headers are already out; the truncated body is all we can do.
		s.logger.Error("csv write failed", zap.String("scope", scope), zap.Error(err))
	}
}
