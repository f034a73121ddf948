package api

import (
	"net/http"
	"strings"

	"controlsim_go/internal/redis"
	"controlsim_go/internal/simulation"
	"controlsim_go/pkg/logger"
)

// Router gerencia as rotas da API
type Router struct {
	handler     *Handler
	mux         *http.ServeMux
	basePath    string
	middlewares []Middleware
}

// NewRouter cria um novo router para a API
func NewRouter(runner *simulation.Runner, redisService *redis.Service, basePath string) *Router {
	handler := NewHandler(runner, redisService)

	// Normalizar base path
	if basePath != "" && !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}
	if basePath != "" && strings.HasSuffix(basePath, "/") {
		basePath = basePath[:len(basePath)-1]
	}

	// Configurar middlewares padrão
	middlewares := []Middleware{
		LoggingMiddleware,
		RecoveryMiddleware,
		CorsMiddleware,
	}

	return &Router{
		handler:     handler,
		mux:         http.NewServeMux(),
		basePath:    basePath,
		middlewares: middlewares,
	}
}

// Setup configura todas as rotas
func (r *Router) Setup() {
	// Estado do pipeline
	r.mux.Handle(r.path("/status"), r.applyMiddleware(http.HandlerFunc(r.handler.GetStatus)))

	// Histórico de leituras por grandeza
	r.mux.Handle(r.path("/history/"), r.applyMiddleware(http.HandlerFunc(r.handler.GetHistory)))

	// Transições de modo
	r.mux.Handle(r.path("/mode-changes"), r.applyMiddleware(http.HandlerFunc(r.handler.GetModeChanges)))

	// Alertas registrados
	r.mux.Handle(r.path("/alerts"), r.applyMiddleware(http.HandlerFunc(r.handler.GetAlerts)))

	// Relatório da última execução
	r.mux.Handle(r.path("/report"), r.applyMiddleware(http.HandlerFunc(r.handler.GetReport)))

	// Controle da execução
	r.mux.Handle(r.path("/stop"), r.applyMiddleware(http.HandlerFunc(r.handler.StopSimulation)))

	logger.Infof("API configurada com base path: %s", r.basePath)
}

// Handler retorna o handler HTTP final com todos os middlewares aplicados
func (r *Router) Handler() http.Handler {
	return r.applyMiddleware(r.mux)
}

// AddMiddleware adiciona um novo middleware
func (r *Router) AddMiddleware(middleware Middleware) {
	r.middlewares = append(r.middlewares, middleware)
}

// path retorna o caminho completo para uma rota
func (r *Router) path(route string) string {
	if !strings.HasPrefix(route, "/") {
		route = "/" + route
	}
	return r.basePath + route
}

// applyMiddleware aplica todos os middlewares ao handler
func (r *Router) applyMiddleware(handler http.Handler) http.Handler {
	if len(r.middlewares) == 0 {
		return handler
	}

	return Chain(r.middlewares...)(handler)
}

// ServeHTTP implementa a interface http.Handler
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	handler := r.Handler()
	handler.ServeHTTP(w, req)
}
