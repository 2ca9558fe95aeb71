package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/medrec/hpquestion/application/port/inbound"
	"github.com/medrec/hpquestion/domain"
	"github.com/medrec/hpquestion/domain/entity"
	"github.com/medrec/hpquestion/infrastructure/http/response"
	"github.com/medrec/hpquestion/infrastructure/http/validator"
	"github.com/medrec/hpquestion/infrastructure/service/logger"
	apperr "github.com/medrec/hpquestion/pkg/error"
)

type HPQuestionHandler struct {
	hpQuestionUseCase inbound.HPQuestionUseCase
	logger            logger.Logger
}

func NewHPQuestionHandler(hpQuestionUseCase inbound.HPQuestionUseCase, log logger.Logger) *HPQuestionHandler {
	return &HPQuestionHandler{
		hpQuestionUseCase: hpQuestionUseCase,
		logger:            log.WithFields(map[string]interface{}{"component": "hp_question_handler"}),
	}
}

// RegisterRoutes mounts the HP question routes on router.
func (h *HPQuestionHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/test", h.Test).Methods(http.MethodGet)
	router.HandleFunc("/AddEditHpQuestion", h.AddEditHPQuestion).Methods(http.MethodPost)
	router.HandleFunc("/GetHpQuestion", h.ListHPQuestions).Methods(http.MethodPost)
	router.HandleFunc("/GetHpQuestion/{HPQuestionId}", h.GetHPQuestion).Methods(http.MethodGet)
	router.HandleFunc("/DeleteHpQuestion", h.DeleteHPQuestion).Methods(http.MethodPost)
	router.HandleFunc("/SoftDeleteHpQuestion", h.SoftDeleteHPQuestion).Methods(http.MethodPost)
	router.HandleFunc("/GetHpQuestionsByCategory/{HPQuestionCategory}", h.GetHPQuestionsByCategory).Methods(http.MethodGet)
	router.HandleFunc("/UpdateQuestionOrder", h.UpdateQuestionOrder).Methods(http.MethodPost)
	router.HandleFunc("/GetHpQuestionAudit/{HPQuestionId}", h.GetHPQuestionAudit).Methods(http.MethodGet)
}

func (h *HPQuestionHandler) Test(w http.ResponseWriter, r *http.Request) {
	response.Message(w, http.StatusOK, "HP question routes are working")
}

// AddEditHPQuestion creates a question, or updates it when HPQuestionId is set
func (h *HPQuestionHandler) AddEditHPQuestion(w http.ResponseWriter, r *http.Request) {
	var req inbound.AddEditHPQuestionRequest
	if !h.decode(w, r, &req) {
		return
	}

	req.CreatedBy = validator.ActorOrDefault(req.CreatedBy, domain.DefaultActor)
	req.UpdatedBy = validator.ActorOrDefault(req.UpdatedBy, domain.DefaultActor)

	question, err := h.hpQuestionUseCase.AddEditHPQuestion(r.Context(), req)
	if err != nil {
		h.writeError(w, r, "Failed to save HP question", err)
		return
	}

	response.Success(w, http.StatusOK, question)
}

// ListHPQuestions returns a filtered page of questions
func (h *HPQuestionHandler) ListHPQuestions(w http.ResponseWriter, r *http.Request) {
	var req inbound.ListHPQuestionsRequest
	if !h.decode(w, r, &req) {
		return
	}

	result, err := h.hpQuestionUseCase.ListHPQuestions(r.Context(), req)
	if err != nil {
		h.writeError(w, r, "Failed to list HP questions", err)
		return
	}

	response.Success(w, http.StatusOK, result)
}

func (h *HPQuestionHandler) GetHPQuestion(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["HPQuestionId"]

	question, err := h.hpQuestionUseCase.GetHPQuestion(r.Context(), id)
	if err != nil {
		h.writeError(w, r, "Failed to get HP question", err)
		return
	}

	response.Success(w, http.StatusOK, question)
}

// DeleteHPQuestion removes a question permanently
func (h *HPQuestionHandler) DeleteHPQuestion(w http.ResponseWriter, r *http.Request) {
	var req inbound.DeleteHPQuestionRequest
	if !h.decode(w, r, &req) {
		return
	}
	req.DeletedBy = validator.ActorOrDefault(req.DeletedBy, domain.DefaultActor)

	if err := h.hpQuestionUseCase.DeleteHPQuestion(r.Context(), req); err != nil {
		h.writeError(w, r, "Failed to delete HP question", err)
		return
	}

	response.Message(w, http.StatusOK, response.MessageSuccess)
}

// SoftDeleteHPQuestion deactivates a question
func (h *HPQuestionHandler) SoftDeleteHPQuestion(w http.ResponseWriter, r *http.Request) {
	var req inbound.SoftDeleteHPQuestionRequest
	if !h.decode(w, r, &req) {
		return
	}
	req.UpdatedBy = validator.ActorOrDefault(req.UpdatedBy, domain.DefaultActor)

	question, err := h.hpQuestionUseCase.SoftDeleteHPQuestion(r.Context(), req)
	if err != nil {
		h.writeError(w, r, "Failed to soft delete HP question", err)
		return
	}

	response.Success(w, http.StatusOK, question)
}

func (h *HPQuestionHandler) GetHPQuestionsByCategory(w http.ResponseWriter, r *http.Request) {
	category := entity.HPQuestionCategory(mux.Vars(r)["HPQuestionCategory"])

	questions, err := h.hpQuestionUseCase.GetHPQuestionsByCategory(r.Context(), category)
	if err != nil {
		h.writeError(w, r, "Failed to get HP questions by category", err)
		return
	}

	response.Success(w, http.StatusOK, questions)
}

// UpdateQuestionOrder applies a batch of order changes. Any failed item turns
// the whole response into a 500 that still carries every item's result.
func (h *HPQuestionHandler) UpdateQuestionOrder(w http.ResponseWriter, r *http.Request) {
	var req inbound.UpdateQuestionOrderRequest
	if !h.decode(w, r, &req) {
		return
	}
	req.UpdatedBy = validator.ActorOrDefault(req.UpdatedBy, domain.DefaultActor)

	start := time.Now()
	result, err := h.hpQuestionUseCase.UpdateQuestionOrder(r.Context(), req)
	logger.LogPerformance(r.Context(), h.logger, "update_question_order", time.Since(start), map[string]interface{}{
		"items": len(req.QuestionOrders),
	})
	if err != nil {
		h.writeError(w, r, "Failed to update question order", err)
		return
	}

	if result.Failed() {
		failed := 0
		for _, res := range result.Results {
			if res.Status == inbound.ReorderFailed {
				failed++
			}
		}
		message := fmt.Sprintf("failed to update %d of %d question orders", failed, len(result.Results))
		h.logger.Warn(r.Context(), "Question order update partially failed", map[string]interface{}{
			"failed": failed,
			"total":  len(result.Results),
		})
		response.WriteJSON(w, http.StatusInternalServerError, message, result)
		return
	}

	response.Success(w, http.StatusOK, result)
}

func (h *HPQuestionHandler) GetHPQuestionAudit(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["HPQuestionId"]

	limit, ok := validator.ParseOptionalInt(r.URL.Query().Get("limit"))
	if !ok {
		response.BadRequest(w, "limit must be a non-negative integer")
		return
	}

	entries, err := h.hpQuestionUseCase.GetHPQuestionAudit(r.Context(), id, limit)
	if err != nil {
		h.writeError(w, r, "Failed to get HP question audit", err)
		return
	}

	response.Success(w, http.StatusOK, entries)
}

func (h *HPQuestionHandler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		response.BadRequest(w, "Invalid request body")
		return false
	}
	return true
}

func (h *HPQuestionHandler) writeError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	appErr := apperr.MapError(err)
	fields := map[string]interface{}{
		"path":   r.URL.Path,
		"status": appErr.Status,
	}
	if appErr.Status >= http.StatusInternalServerError {
		h.logger.Error(r.Context(), msg, err, fields)
	} else {
		h.logger.Debug(r.Context(), msg, fields)
	}
	response.AppError(w, appErr)
}
