package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"controlsim_go/internal/models"
	"controlsim_go/internal/redis"
	"controlsim_go/internal/simulation"
	"controlsim_go/pkg/logger"
)

// Handler contém os handlers HTTP para a API
type Handler struct {
	runner       *simulation.Runner
	redisService *redis.Service
}

// NewHandler cria um novo handler de API
func NewHandler(runner *simulation.Runner, redisService *redis.Service) *Handler {
	return &Handler{
		runner:       runner,
		redisService: redisService,
	}
}

// GetStatus retorna o estado atual do pipeline
func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.respondWithError(w, http.StatusMethodNotAllowed, "Método não permitido")
		return
	}

	// O driver é a fonte primária; o Redis cobre consultas após o processo
	// da simulação ter reiniciado
	status := h.runner.Status()
	if !status.Running && h.redisService != nil && h.redisService.IsConnected() {
		if redisStatus, err := h.redisService.GetStatus(); err == nil && redisStatus != nil {
			status = *redisStatus
		}
	}

	response := map[string]interface{}{
		"mode":      status.Mode.String(),
		"anomalies": status.Anomalies,
		"running":   status.Running,
		"timestamp": status.Timestamp.UnixNano() / int64(time.Millisecond),
	}

	if status.RunID != "" {
		response["runId"] = status.RunID
	}
	if status.LastAlert != "" {
		response["lastAlert"] = status.LastAlert
	}
	if status.AlertCount > 0 {
		response["alertCount"] = status.AlertCount
	}

	h.respondWithJSON(w, http.StatusOK, response)
}

// GetHistory retorna o histórico de valores de uma grandeza
func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.respondWithError(w, http.StatusMethodNotAllowed, "Método não permitido")
		return
	}

	// Extrair a grandeza da URL
	parts := strings.Split(r.URL.Path, "/")
	if len(parts) < 4 {
		h.respondWithError(w, http.StatusBadRequest, "Grandeza não fornecida")
		return
	}

	quantity, ok := models.ParseQuantity(parts[len(parts)-1])
	if !ok {
		h.respondWithError(w, http.StatusBadRequest,
			"Grandeza inválida. Use force, position ou temperature.")
		return
	}

	var history []models.HistoryPoint

	if h.redisService != nil && h.redisService.IsConnected() {
		if redisHistory, err := h.redisService.GetReadingHistory(quantity); err == nil {
			history = redisHistory
		}
	}

	if history == nil {
		history = []models.HistoryPoint{}
	}

	h.respondWithJSON(w, http.StatusOK, history)
}

// GetModeChanges retorna as transições de modo mais recentes
func (h *Handler) GetModeChanges(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.respondWithError(w, http.StatusMethodNotAllowed, "Método não permitido")
		return
	}

	var changes []models.ModeChange

	if h.redisService != nil && h.redisService.IsConnected() {
		if redisChanges, err := h.redisService.GetModeChanges(); err == nil {
			changes = redisChanges
		}
	}

	if changes == nil {
		changes = []models.ModeChange{}
	}

	h.respondWithJSON(w, http.StatusOK, changes)
}

// GetAlerts retorna os alertas registrados na execução corrente
func (h *Handler) GetAlerts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.respondWithError(w, http.StatusMethodNotAllowed, "Método não permitido")
		return
	}

	h.respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"alerts": h.runner.Log().Alerts(),
		"count":  h.runner.Log().AlertCount(),
	})
}

// GetReport retorna o relatório da última execução concluída
func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.respondWithError(w, http.StatusMethodNotAllowed, "Método não permitido")
		return
	}

	if h.runner.IsRunning() {
		h.respondWithError(w, http.StatusConflict, "Execução ainda em andamento")
		return
	}

	runID := h.runner.RunID()
	report := h.runner.Report()

	// Execução anterior persistida no Redis, caso o driver não tenha dados
	if runID == "" && h.redisService != nil && h.redisService.IsConnected() {
		if redisReport, err := h.redisService.GetReport(""); err == nil {
			report = redisReport
		}
	}

	if report == "" {
		h.respondWithError(w, http.StatusNotFound, "Nenhum relatório disponível")
		return
	}

	h.respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"runId":  runID,
		"report": report,
	})
}

// StopSimulation encerra a execução corrente
func (h *Handler) StopSimulation(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.respondWithError(w, http.StatusMethodNotAllowed, "Método não permitido")
		return
	}

	if !h.runner.IsRunning() {
		h.respondWithError(w, http.StatusConflict, "Nenhuma execução em andamento")
		return
	}

	h.runner.Stop()

	h.respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"stopped": true,
		"runId":   h.runner.RunID(),
	})
}

// respondWithError responde com erro em formato JSON
func (h *Handler) respondWithError(w http.ResponseWriter, code int, message string) {
	h.respondWithJSON(w, code, map[string]string{"error": message})
}

// respondWithJSON responde com JSON
func (h *Handler) respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Errorf("Erro ao codificar resposta JSON: %v", err)
		fmt.Fprintf(w, `{"error":"Erro interno ao processar resposta"}`)
	}
}
