package models

import "time"

// WebSocketMessage representa a estrutura base de todas as mensagens WebSocket
type WebSocketMessage struct {
	Type      string      `json:"type"`            // Tipo da mensagem: "reading", "mode_change", "alert", etc.
	Timestamp time.Time   `json:"timestamp"`       // Timestamp da mensagem
	Data      interface{} `json:"data,omitempty"`  // Dados adicionais específicos do tipo
	Error     string      `json:"error,omitempty"` // Mensagem de erro, se houver
}

// ReadingMessage é uma mensagem específica para amostras de leitura
type ReadingMessage struct {
	WebSocketMessage
	Reading Reading `json:"reading"`
}

// ModeChangeMessage é uma mensagem específica para transições de modo
type ModeChangeMessage struct {
	WebSocketMessage
	Change ModeChange `json:"change"`
}

// AlertMessage é uma mensagem específica para alertas do sistema
type AlertMessage struct {
	WebSocketMessage
	Text string `json:"text"`
}

// StatusMessage é uma mensagem específica para o estado atual do pipeline
type StatusMessage struct {
	WebSocketMessage
	Status SystemStatus `json:"status"`
}

// ReportMessage é uma mensagem com o relatório final de uma execução
type ReportMessage struct {
	WebSocketMessage
	RunID  string `json:"runId"`
	Report string `json:"report"`
}

// CommandMessage é uma mensagem de comando do cliente para o servidor
type CommandMessage struct {
	Type   string      `json:"type"`             // Tipo de comando: "get_status", "ping", etc.
	Params interface{} `json:"params,omitempty"` // Parâmetros adicionais
	ID     string      `json:"id,omitempty"`     // ID opcional para correlacionar solicitações/respostas
}

// ClientCommand representa um comando enviado pelo cliente
type ClientCommand struct {
	Command  string      `json:"command"`
	Params   interface{} `json:"params,omitempty"`
	ClientID string      `json:"-"` // Usado internamente, não enviado no JSON
}

// PingMessage representa um ping de manutenção de conexão
type PingMessage struct {
	WebSocketMessage
	Time int64 `json:"time"` // Timestamp do ping em milissegundos
}

// PongMessage representa um pong enviado pelo servidor
type PongMessage struct {
	WebSocketMessage
	Time       int64 `json:"time"`       // Timestamp original do ping
	ServerTime int64 `json:"serverTime"` // Timestamp do servidor em milissegundos
}
