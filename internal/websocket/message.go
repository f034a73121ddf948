package websocket

import (
	"encoding/json"
	"time"

	"controlsim_go/internal/models"
)

// Funções utilitárias para criação e processamento de mensagens WebSocket

// NewReadingMessage cria uma nova mensagem de leitura
func NewReadingMessage(reading models.Reading) *models.ReadingMessage {
	return &models.ReadingMessage{
		WebSocketMessage: models.WebSocketMessage{
			Type:      "reading",
			Timestamp: time.Now(),
		},
		Reading: reading,
	}
}

// NewModeChangeMessage cria uma nova mensagem de transição de modo
func NewModeChangeMessage(change models.ModeChange) *models.ModeChangeMessage {
	return &models.ModeChangeMessage{
		WebSocketMessage: models.WebSocketMessage{
			Type:      "mode_change",
			Timestamp: time.Now(),
		},
		Change: change,
	}
}

// NewAlertMessage cria uma nova mensagem de alerta
func NewAlertMessage(text string) *models.AlertMessage {
	return &models.AlertMessage{
		WebSocketMessage: models.WebSocketMessage{
			Type:      "alert",
			Timestamp: time.Now(),
		},
		Text: text,
	}
}

// NewStatusMessage cria uma nova mensagem de status
func NewStatusMessage(status models.SystemStatus) *models.StatusMessage {
	return &models.StatusMessage{
		WebSocketMessage: models.WebSocketMessage{
			Type:      "status",
			Timestamp: time.Now(),
		},
		Status: status,
	}
}

// NewErrorMessage cria uma nova mensagem de erro
func NewErrorMessage(message string, errorCode string) models.WebSocketMessage {
	return models.WebSocketMessage{
		Type:      "error",
		Timestamp: time.Now(),
		Error:     message,
		Data: map[string]string{
			"code": errorCode,
		},
	}
}

// SerializeMessage serializa uma mensagem para JSON
func SerializeMessage(message interface{}) ([]byte, error) {
	return json.Marshal(message)
}

// ParseClientCommand analisa um comando recebido do cliente
func ParseClientCommand(data []byte) (models.CommandMessage, error) {
	var command models.CommandMessage
	err := json.Unmarshal(data, &command)
	return command, err
}
