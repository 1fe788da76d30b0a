package ui

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gomarkdown/markdown"
	mdhtml "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"hypolab/app"
	"hypolab/domain/core"
	"hypolab/domain/experiment"
	"hypolab/domain/hypothesis"
	"hypolab/internal/errors"
)

func (a *App) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		a.logger.Error("response encoding failed: %v", err)
	}
}

// writeError maps errors onto HTTP status codes through application error
// codes, translating core sentinels at the boundary.
func (a *App) writeError(w http.ResponseWriter, err error) {
	appErr := classify(err)
	status := statusFor(errors.GetCode(appErr))
	if status == http.StatusInternalServerError {
		a.logger.Error("request failed: %v", err)
	}
	a.writeJSON(w, status, map[string]string{"error": appErr.Error(), "code": appErr.Code})
}

// classify translates a core sentinel error into a coded application error.
// Errors already carrying a code pass through unchanged.
func classify(err error) *errors.AppError {
	if errors.IsAppError(err) {
		return err.(*errors.AppError)
	}
	switch {
	case core.IsNotFoundError(err):
		return errors.NotFound(err.Error())
	case core.IsValidationError(err):
		return errors.InvalidInput(err.Error())
	case core.IsNotImplementedError(err):
		return errors.NotImplemented(err.Error())
	case core.IsStorageError(err):
		return errors.StorageError("ledger operation failed", err)
	default:
		return errors.InternalError(err.Error())
	}
}

func statusFor(code string) int {
	switch code {
	case errors.CodeNotFound:
		return http.StatusNotFound
	case errors.CodeInvalidInput:
		return http.StatusBadRequest
	case errors.CodeNotImplemented:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

func (a *App) handleHealth(w http.ResponseWriter, r *http.Request) {
	a.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *App) handleCreateRun(w http.ResponseWriter, r *http.Request) {
	var req app.RunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.writeError(w, core.NewValidationError("request body", err.Error()))
		return
	}
	result, err := a.pipeline.Run(r.Context(), req)
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.writeJSON(w, http.StatusCreated, result)
}

func (a *App) handleGetRun(w http.ResponseWriter, r *http.Request) {
	id := core.RunID(chi.URLParam(r, "runID"))
	detail, err := a.pipeline.GetRun(id)
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, detail)
}

// handleInstructions renders the run's markdown instructions as HTML
func (a *App) handleInstructions(w http.ResponseWriter, r *http.Request) {
	id := core.RunID(chi.URLParam(r, "runID"))
	source, err := a.pipeline.Instructions(id)
	if err != nil {
		a.writeError(w, err)
		return
	}

	p := parser.NewWithExtensions(parser.CommonExtensions)
	renderer := mdhtml.NewRenderer(mdhtml.RendererOptions{Flags: mdhtml.CommonFlags})
	rendered := markdown.ToHTML(source, p, renderer)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(rendered); err != nil {
		a.logger.Error("instructions write failed: %v", err)
	}
}

func (a *App) handleListHypotheses(w http.ResponseWriter, r *http.Request) {
	domain := r.URL.Query().Get("domain")
	status := hypothesis.Status(r.URL.Query().Get("status"))

	hypotheses, err := a.pipeline.ListHypotheses(domain, status)
	if err != nil {
		a.writeError(w, err)
		return
	}
	if hypotheses == nil {
		hypotheses = []hypothesis.Hypothesis{}
	}
	a.writeJSON(w, http.StatusOK, map[string]interface{}{
		"hypotheses": hypotheses,
		"total":      len(hypotheses),
	})
}

func (a *App) handleListExperiments(w http.ResponseWriter, r *http.Request) {
	status := experiment.Status(r.URL.Query().Get("status"))

	experiments, err := a.pipeline.ListExperiments(status)
	if err != nil {
		a.writeError(w, err)
		return
	}
	if experiments == nil {
		experiments = []experiment.Experiment{}
	}
	a.writeJSON(w, http.StatusOK, map[string]interface{}{
		"experiments": experiments,
		"total":       len(experiments),
	})
}

func (a *App) handleExecuteExperiment(w http.ResponseWriter, r *http.Request) {
	id := core.ExperimentID(chi.URLParam(r, "experimentID"))
	execution, err := a.pipeline.ExecuteExperiment(id)
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, execution)
}

func (a *App) handleSelfCheck(w http.ResponseWriter, r *http.Request) {
	result, err := a.pipeline.SelfCheck(r.Context())
	if err != nil && result == nil {
		a.writeError(w, err)
		return
	}
	// A failed check still returns the comparison detail.
	a.writeJSON(w, http.StatusOK, result)
}
