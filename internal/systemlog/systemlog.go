package systemlog

import (
	"fmt"
	"sync"
	"time"

	"controlsim_go/pkg/logger"
)

// AlertHandler é um tipo de função para receber alertas do sistema
type AlertHandler func(text string)

// SystemLog é o registro compartilhado do sistema junto com a flag de atividade.
// É o único estado mutável compartilhado entre todos os componentes do pipeline:
// um único escritor (o driver da simulação) limpa a flag uma única vez, todos os
// demais componentes apenas a consultam no início de cada ciclo.
type SystemLog struct {
	mu      sync.Mutex
	entries []string
	alerts  []string
	active  bool

	handlersLock  sync.RWMutex
	alertHandlers []AlertHandler
}

// New cria um novo registro do sistema com a flag de atividade ligada
func New() *SystemLog {
	return &SystemLog{
		active: true,
	}
}

// Write adiciona uma linha ao registro
func (l *SystemLog) Write(msg string) {
	line := fmt.Sprintf("%s | %s", time.Now().Format("15:04:05.000000"), msg)

	l.mu.Lock()
	l.entries = append(l.entries, line)
	l.mu.Unlock()
}

// Alert adiciona uma linha de alerta ao registro e a repassa ao canal do operador
func (l *SystemLog) Alert(msg string) {
	line := fmt.Sprintf("%s | ALERTA | %s", time.Now().Format("15:04:05.000000"), msg)

	l.mu.Lock()
	l.entries = append(l.entries, line)
	l.alerts = append(l.alerts, msg)
	l.mu.Unlock()

	logger.Warnf("Alerta do sistema: %s", msg)

	// Notificar os handlers registrados (hub WebSocket, Redis, etc.)
	l.handlersLock.RLock()
	handlers := l.alertHandlers
	l.handlersLock.RUnlock()

	for _, handler := range handlers {
		handler(msg)
	}
}

// RegisterAlertHandler registra uma função para receber alertas
func (l *SystemLog) RegisterAlertHandler(handler AlertHandler) {
	l.handlersLock.Lock()
	defer l.handlersLock.Unlock()
	l.alertHandlers = append(l.alertHandlers, handler)
}

// Active consulta a flag de atividade do sistema
func (l *SystemLog) Active() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.active
}

// Deactivate limpa a flag de atividade, sinalizando o encerramento cooperativo.
// Deve ser chamado uma única vez pelo driver da simulação.
func (l *SystemLog) Deactivate() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.active = false
}

// Entries retorna uma cópia das linhas registradas
func (l *SystemLog) Entries() []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]string, len(l.entries))
	copy(out, l.entries)
	return out
}

// Alerts retorna uma cópia dos alertas registrados
func (l *SystemLog) Alerts() []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]string, len(l.alerts))
	copy(out, l.alerts)
	return out
}

// LastAlert retorna o alerta mais recente, se houver
func (l *SystemLog) LastAlert() string {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.alerts) == 0 {
		return ""
	}
	return l.alerts[len(l.alerts)-1]
}

// AlertCount retorna o número de alertas registrados
func (l *SystemLog) AlertCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.alerts)
}
