package server

import (
	"encoding/json"
	"net/http"
	"time"

	"controlsim_go/internal/api"
	"controlsim_go/internal/websocket"
	"controlsim_go/pkg/logger"
)

// setupRoutes configura todas as rotas do servidor
func (s *Server) setupRoutes() {
	// Rota de status/health check
	s.router.HandleFunc("/health", s.handleHealth)

	// Informações do servidor
	s.router.HandleFunc("/info", s.handleInfo)

	// Endpoint de descoberta para clientes
	s.router.HandleFunc("/api/discover", s.handleDiscover)

	// WebSocket para telemetria em tempo real
	wsHandler := websocket.NewHandler(s.wsHub)
	s.router.Handle("/ws", s.wrapWithMiddleware(wsHandler))
	s.router.HandleFunc("/ws/health", wsHandler.GetHealthHandler())

	// API REST do pipeline
	apiRouter := api.NewRouter(s.runner, s.redisService, "/api")
	apiRouter.Setup()
	s.router.Handle("/api/", apiRouter)

	logger.Info("Rotas configuradas")
}

// handleHealth responde a health checks
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	response := map[string]interface{}{
		"status":    "ok",
		"uptime":    time.Since(s.serverInfo.StartTime).String(),
		"running":   s.runner.IsRunning(),
		"timestamp": time.Now().Format(time.RFC3339),
	}

	json.NewEncoder(w).Encode(response)
}

// handleInfo retorna informações sobre o servidor
func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	info := s.GetServerInfo()

	response := map[string]interface{}{
		"version":      info.Version,
		"ip":           info.IP,
		"port":         info.Port,
		"startTime":    info.StartTime.Format(time.RFC3339),
		"uptime":       time.Since(info.StartTime).String(),
		"connections":  info.Connections,
		"websocketUrl": info.WebSocketURL,
		"apiUrl":       info.APIURL,
	}

	json.NewEncoder(w).Encode(response)
}

// handleDiscover permite que clientes descubram o servidor e seus serviços
func (s *Server) handleDiscover(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)

	response := map[string]interface{}{
		"service":      "controlsim-monitor",
		"version":      s.serverInfo.Version,
		"ip":           s.serverInfo.IP,
		"port":         s.serverInfo.Port,
		"websocketUrl": s.serverInfo.WebSocketURL,
		"apiUrl":       s.serverInfo.APIURL,
		"mdnsInstance": s.discoveryService.GetInstanceName(),
	}

	json.NewEncoder(w).Encode(response)
}

// wrapWithMiddleware adiciona middlewares comuns a um handler
func (s *Server) wrapWithMiddleware(handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// CORS
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		// Logging
		start := time.Now()
		handler.ServeHTTP(w, r)
		logger.Debugf("%s %s processado em %v", r.Method, r.URL.Path, time.Since(start))
	})
}
