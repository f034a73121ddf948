package models

import (
	"strings"
	"time"
)

// Quantity identifica a grandeza física controlada por um par sensor/atuador
type Quantity int

const (
	// Force grandeza de força (atuador: Motor)
	Force Quantity = iota
	// Position grandeza de posição (atuador: Gripper)
	Position
	// Temperature grandeza de temperatura (atuador: Stabiliser)
	Temperature
)

// Quantities lista todas as grandezas controladas pelo sistema
var Quantities = []Quantity{Force, Position, Temperature}

// String retorna o nome da grandeza
func (q Quantity) String() string {
	switch q {
	case Force:
		return "Force"
	case Position:
		return "Position"
	case Temperature:
		return "Temperature"
	}
	return "Unknown"
}

// ActuatorName retorna o nome do atuador associado à grandeza
func (q Quantity) ActuatorName() string {
	switch q {
	case Force:
		return "Motor"
	case Position:
		return "Gripper"
	case Temperature:
		return "Stabiliser"
	}
	return "Unknown"
}

// Setpoint retorna o valor de referência fixo do controle para a grandeza
func (q Quantity) Setpoint() float64 {
	switch q {
	case Force:
		return 30.0
	case Position:
		return 0.0
	case Temperature:
		return 240.0
	}
	return 0.0
}

// SampleRange retorna o intervalo de geração de valores simulados da grandeza
func (q Quantity) SampleRange() (float64, float64) {
	switch q {
	case Force:
		return 10.0, 55.0
	case Position:
		return -0.1, 0.2
	case Temperature:
		return 20.0, 130.0
	}
	return 0.0, 1.0
}

// ParseQuantity converte o nome de uma grandeza (sem distinção de caixa)
func ParseQuantity(name string) (Quantity, bool) {
	switch strings.ToLower(name) {
	case "force":
		return Force, true
	case "position":
		return Position, true
	case "temperature":
		return Temperature, true
	}
	return Force, false
}

// Anomalous verifica se um valor está fora dos limites aceitáveis da grandeza
func (q Quantity) Anomalous(value float64) bool {
	switch q {
	case Force:
		return value < 5.0 || value > 60.0
	case Position:
		return value > 0.5 || value < -0.5
	case Temperature:
		return value > 120.0
	}
	return false
}

// Reading representa uma medição produzida por um canal de sensor
type Reading struct {
	ID          int64     `json:"id"`
	Quantity    Quantity  `json:"quantity"`
	Value       float64   `json:"value"`
	Anomaly     bool      `json:"anomaly"`
	GeneratedAt time.Time `json:"generatedAt"`
	ProcessedAt time.Time `json:"processedAt,omitempty"` // Zero se a leitura não passou pelo filtro
}

// Command representa uma instrução de controle emitida pelo comandante
type Command struct {
	Quantity    Quantity  `json:"quantity"`
	Magnitude   float64   `json:"magnitude"`
	ReadingID   int64     `json:"readingId"`
	GeneratedAt time.Time `json:"generatedAt"` // Timestamp de geração da leitura de origem
	IssuedAt    time.Time `json:"issuedAt"`
}

// FeedbackMessage representa o retorno de um atuador ao sensor de origem
type FeedbackMessage struct {
	Acknowledged        bool      `json:"acknowledged"`
	AlertText           string    `json:"alertText,omitempty"`
	RecalibrationOffset float64   `json:"recalibrationOffset"`
	ProducedAt          time.Time `json:"producedAt"`
}

// OperatingMode representa o modo de operação global do sistema
type OperatingMode int

const (
	// Normal operação nominal
	Normal OperatingMode = iota
	// Degraded operação degradada (esforço de controle reduzido)
	Degraded
	// EmergencyStop parada de emergência
	EmergencyStop
)

// String retorna o nome do modo de operação
func (m OperatingMode) String() string {
	switch m {
	case Normal:
		return "normal"
	case Degraded:
		return "degradado"
	case EmergencyStop:
		return "parada_emergencia"
	}
	return "desconhecido"
}

// ModeChange registra uma transição de modo de operação
type ModeChange struct {
	From      OperatingMode `json:"from"`
	To        OperatingMode `json:"to"`
	Anomalies int           `json:"anomalies"` // Contador de anomalias no momento da transição
	Timestamp time.Time     `json:"timestamp"`
}

// HistoryPoint representa um ponto do histórico de uma grandeza
type HistoryPoint struct {
	Value     float64   `json:"value"`
	Timestamp time.Time `json:"timestamp"`
}

// SystemStatus representa o estado atual do pipeline de controle
type SystemStatus struct {
	Mode       OperatingMode `json:"mode"`
	Anomalies  int           `json:"anomalies"`
	Running    bool          `json:"running"`
	RunID      string        `json:"runId,omitempty"`
	Timestamp  time.Time     `json:"timestamp"`
	LastAlert  string        `json:"lastAlert,omitempty"`
	AlertCount int           `json:"alertCount,omitempty"`
}
