package websocket

import (
	"context"
	"sync"
	"time"

	"controlsim_go/internal/models"
	"controlsim_go/pkg/logger"
)

// StatusProvider fornece o estado atual do pipeline para consultas de clientes
type StatusProvider func() models.SystemStatus

// ReportProvider fornece o relatório da última execução concluída
type ReportProvider func() (runID string, report string)

// Hub gerencia todas as conexões WebSocket e distribuição de mensagens
type Hub struct {
	// Clientes registrados
	clients map[*Client]bool

	// Canal para registrar clientes
	register chan *Client

	// Canal para desregistrar clientes
	unregister chan *Client

	// Canal para mensagens de broadcast
	broadcast chan []byte

	// Comando recebido dos clientes
	commands chan models.ClientCommand

	// Mutex para operações concorrentes no mapa de clientes
	mu sync.RWMutex

	// Última leitura enviada por grandeza (limitação de taxa)
	lastReading     map[models.Quantity]models.Reading
	lastReadingTime map[models.Quantity]time.Time
	readingLock     sync.Mutex

	// Fontes de dados para consultas dos clientes
	statusProvider StatusProvider
	reportProvider ReportProvider

	// Estatísticas
	stats struct {
		totalMessages      int64
		totalClients       int64
		messagesPerSecond  float64
		lastStatsReset     time.Time
		messagesSinceReset int64
	}
	statsLock sync.Mutex

	// Sinal para encerramento do hub
	ctx    context.Context
	cancel context.CancelFunc
}

// NewHub cria uma nova instância do Hub
func NewHub() *Hub {
	ctx, cancel := context.WithCancel(context.Background())

	h := &Hub{
		clients:         make(map[*Client]bool),
		register:        make(chan *Client),
		unregister:      make(chan *Client),
		broadcast:       make(chan []byte, 256),
		commands:        make(chan models.ClientCommand, 100),
		lastReading:     make(map[models.Quantity]models.Reading),
		lastReadingTime: make(map[models.Quantity]time.Time),
		ctx:             ctx,
		cancel:          cancel,
	}

	h.stats.lastStatsReset = time.Now()

	return h
}

// SetStatusProvider define a fonte do estado do pipeline para consultas
func (h *Hub) SetStatusProvider(provider StatusProvider) {
	h.statusProvider = provider
}

// SetReportProvider define a fonte do relatório final para consultas
func (h *Hub) SetReportProvider(provider ReportProvider) {
	h.reportProvider = provider
}

// Run inicia o loop principal do hub para gerenciar clientes e mensagens
func (h *Hub) Run() {
	logger.Info("Iniciando WebSocket Hub")

	// Ticker para estatísticas periódicas
	statsTicker := time.NewTicker(30 * time.Second)
	defer statsTicker.Stop()

	// Ticker para manter as conexões vivas
	pingTicker := time.NewTicker(5 * time.Second)
	defer pingTicker.Stop()

	for {
		select {
		case <-h.ctx.Done():
			logger.Info("Encerrando WebSocket Hub")
			h.closeAllClients()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			clientCount := len(h.clients)
			h.mu.Unlock()

			logger.Infof("Novo cliente WebSocket conectado. ID: %s. Total: %d", client.id, clientCount)

			h.statsLock.Lock()
			h.stats.totalClients++
			h.statsLock.Unlock()

			go h.sendInitialDataToClient(client)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)

				logger.Infof("Cliente WebSocket desconectado. ID: %s. Total: %d", client.id, len(h.clients))
			}
			h.mu.Unlock()

		case message := <-h.broadcast:
			h.mu.RLock()
			clientCount := len(h.clients)

			h.statsLock.Lock()
			h.stats.totalMessages++
			h.stats.messagesSinceReset++
			h.statsLock.Unlock()

			if clientCount == 0 {
				h.mu.RUnlock()
				continue
			}

			// Clientes com buffer cheio são marcados para desconexão
			deadClients := make([]*Client, 0, 4)

			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					deadClients = append(deadClients, client)
				}
			}
			h.mu.RUnlock()

			// Desregistrar fora do lock para evitar contenção
			for _, client := range deadClients {
				h.unregister <- client
			}

		case cmd := <-h.commands:
			go h.handleClientCommand(cmd)

		case <-statsTicker.C:
			h.statsLock.Lock()
			elapsed := time.Since(h.stats.lastStatsReset).Seconds()
			if elapsed > 0 {
				h.stats.messagesPerSecond = float64(h.stats.messagesSinceReset) / elapsed
			}
			h.stats.messagesSinceReset = 0
			h.stats.lastStatsReset = time.Now()

			mps := h.stats.messagesPerSecond
			total := h.stats.totalMessages
			h.statsLock.Unlock()

			h.mu.RLock()
			clientCount := len(h.clients)
			h.mu.RUnlock()

			logger.Infof("Estatísticas WebSocket: %d clientes, %.2f msgs/seg, total: %d mensagens",
				clientCount, mps, total)

		case <-pingTicker.C:
			h.sendPingToAllClients()
		}
	}
}

// BroadcastReading envia uma leitura processada para todos os clientes.
// A taxa é limitada a uma mensagem a cada 50ms por grandeza, exceto quando o
// valor muda de forma significativa ou a leitura é anômala.
func (h *Hub) BroadcastReading(reading models.Reading) {
	h.readingLock.Lock()

	shouldSend := true
	if last, ok := h.lastReading[reading.Quantity]; ok && !reading.Anomaly {
		if time.Since(h.lastReadingTime[reading.Quantity]) < 50*time.Millisecond {
			// Mudança menor que 0.05 na mesma janela não é retransmitida
			if abs(reading.Value-last.Value) <= 0.05 {
				shouldSend = false
			}
		}
	}

	h.lastReading[reading.Quantity] = reading
	if shouldSend {
		h.lastReadingTime[reading.Quantity] = time.Now()
	}
	h.readingLock.Unlock()

	if !shouldSend {
		return
	}

	message := models.ReadingMessage{
		WebSocketMessage: models.WebSocketMessage{
			Type:      "reading",
			Timestamp: time.Now(),
		},
		Reading: reading,
	}

	if jsonMessage, err := SerializeMessage(message); err == nil {
		h.broadcast <- jsonMessage
	} else {
		logger.Error("Erro ao serializar mensagem de leitura", err)
	}
}

// BroadcastModeChange envia uma transição de modo para todos os clientes
func (h *Hub) BroadcastModeChange(change models.ModeChange) {
	message := models.ModeChangeMessage{
		WebSocketMessage: models.WebSocketMessage{
			Type:      "mode_change",
			Timestamp: time.Now(),
		},
		Change: change,
	}

	if jsonMessage, err := SerializeMessage(message); err == nil {
		h.broadcast <- jsonMessage
	} else {
		logger.Error("Erro ao serializar mensagem de transição de modo", err)
	}
}

// BroadcastAlert envia um alerta do sistema para todos os clientes
func (h *Hub) BroadcastAlert(text string) {
	message := models.AlertMessage{
		WebSocketMessage: models.WebSocketMessage{
			Type:      "alert",
			Timestamp: time.Now(),
		},
		Text: text,
	}

	if jsonMessage, err := SerializeMessage(message); err == nil {
		h.broadcast <- jsonMessage
	} else {
		logger.Error("Erro ao serializar mensagem de alerta", err)
	}
}

// BroadcastStatus envia o estado atual do pipeline para todos os clientes
func (h *Hub) BroadcastStatus(status models.SystemStatus) {
	message := models.StatusMessage{
		WebSocketMessage: models.WebSocketMessage{
			Type:      "status",
			Timestamp: time.Now(),
		},
		Status: status,
	}

	if jsonMessage, err := SerializeMessage(message); err == nil {
		h.broadcast <- jsonMessage
	} else {
		logger.Error("Erro ao serializar mensagem de status", err)
	}
}

// BroadcastReport envia o relatório final de uma execução para todos os clientes
func (h *Hub) BroadcastReport(runID, report string) {
	message := models.ReportMessage{
		WebSocketMessage: models.WebSocketMessage{
			Type:      "report",
			Timestamp: time.Now(),
		},
		RunID:  runID,
		Report: report,
	}

	if jsonMessage, err := SerializeMessage(message); err == nil {
		h.broadcast <- jsonMessage
	} else {
		logger.Error("Erro ao serializar mensagem de relatório", err)
	}
}

// handleClientCommand processa comandos recebidos dos clientes
func (h *Hub) handleClientCommand(cmd models.ClientCommand) {
	logger.Infof("Comando recebido do cliente %s: %s", cmd.ClientID, cmd.Command)

	switch cmd.Command {
	case "get_status":
		h.sendCurrentStatus(cmd.ClientID)
	case "get_report":
		h.sendReport(cmd.ClientID)
	case "ping":
		h.sendPong(cmd.ClientID, cmd.Params)
	default:
		logger.Warnf("Comando desconhecido: %s", cmd.Command)
	}
}

// sendCurrentStatus envia o estado atual para um cliente específico
func (h *Hub) sendCurrentStatus(clientID string) {
	if h.statusProvider == nil {
		return
	}

	client := h.getClientByID(clientID)
	if client == nil {
		return
	}

	message := models.StatusMessage{
		WebSocketMessage: models.WebSocketMessage{
			Type:      "status",
			Timestamp: time.Now(),
		},
		Status: h.statusProvider(),
	}

	if jsonMsg, err := SerializeMessage(message); err == nil {
		client.send <- jsonMsg
	}
}

// sendReport envia o relatório da última execução para um cliente específico
func (h *Hub) sendReport(clientID string) {
	if h.reportProvider == nil {
		return
	}

	client := h.getClientByID(clientID)
	if client == nil {
		return
	}

	runID, report := h.reportProvider()
	message := models.ReportMessage{
		WebSocketMessage: models.WebSocketMessage{
			Type:      "report",
			Timestamp: time.Now(),
		},
		RunID:  runID,
		Report: report,
	}

	if jsonMsg, err := SerializeMessage(message); err == nil {
		client.send <- jsonMsg
	}
}

// sendPong envia resposta de pong para um cliente específico
func (h *Hub) sendPong(clientID string, params interface{}) {
	client := h.getClientByID(clientID)
	if client == nil {
		return
	}

	// Extrair timestamp do ping
	var pingTime int64
	if paramsMap, ok := params.(map[string]interface{}); ok {
		if timeVal, ok := paramsMap["time"].(float64); ok {
			pingTime = int64(timeVal)
		}
	}

	pong := models.PongMessage{
		WebSocketMessage: models.WebSocketMessage{
			Type:      "pong",
			Timestamp: time.Now(),
		},
		Time:       pingTime,
		ServerTime: time.Now().UnixNano() / int64(time.Millisecond),
	}

	if jsonMsg, err := SerializeMessage(pong); err == nil {
		client.send <- jsonMsg
	}
}

// sendInitialDataToClient envia dados iniciais para um novo cliente
func (h *Hub) sendInitialDataToClient(client *Client) {
	welcome := models.WebSocketMessage{
		Type:      "welcome",
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"message":  "Conectado ao monitor do simulador de controle",
			"clientId": client.id,
		},
	}

	if jsonMsg, err := SerializeMessage(welcome); err == nil {
		client.send <- jsonMsg
	}

	// Estado corrente logo na conexão, quando disponível
	if h.statusProvider != nil {
		status := models.StatusMessage{
			WebSocketMessage: models.WebSocketMessage{
				Type:      "status",
				Timestamp: time.Now(),
			},
			Status: h.statusProvider(),
		}
		if jsonMsg, err := SerializeMessage(status); err == nil {
			client.send <- jsonMsg
		}
	}
}

// Shutdown encerra graciosamente o hub
func (h *Hub) Shutdown() {
	h.cancel()
	// Aguardar um pequeno tempo para processamento finalizar
	time.Sleep(100 * time.Millisecond)
}

// closeAllClients fecha todas as conexões dos clientes
func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()

	logger.Info("Fechando todas as conexões de clientes WebSocket")
	for client := range h.clients {
		close(client.send)
		delete(h.clients, client)
	}
}

// ClientCount retorna o número atual de clientes conectados
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// getClientByID retorna um cliente pelo seu ID
func (h *Hub) getClientByID(clientID string) *Client {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients {
		if client.id == clientID {
			return client
		}
	}
	return nil
}

// sendPingToAllClients envia ping para todos os clientes
func (h *Hub) sendPingToAllClients() {
	ping := models.PingMessage{
		WebSocketMessage: models.WebSocketMessage{
			Type:      "ping",
			Timestamp: time.Now(),
		},
		Time: time.Now().UnixNano() / int64(time.Millisecond),
	}

	if jsonMsg, err := SerializeMessage(ping); err == nil {
		h.mu.RLock()
		if len(h.clients) > 0 {
			h.broadcast <- jsonMsg
		}
		h.mu.RUnlock()
	}
}

// abs retorna o valor absoluto de um float64
func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
