package config

import (
	"encoding/json"
	"os"
	"strconv"
	"time"
)

// Config representa a configuração completa da aplicação
type Config struct {
	Server     ServerConfig     `json:"server"`
	Simulation SimulationConfig `json:"simulation"`
	Control    ControlConfig    `json:"control"`
	Faults     FaultConfig      `json:"faults"`
	Redis      RedisConfig      `json:"redis"`
	PLC        PLCConfig        `json:"plc"`
}

// ServerConfig contém configurações do servidor HTTP/WebSocket de monitoramento
type ServerConfig struct {
	Enabled         bool          `json:"enabled"`
	Port            int           `json:"port"`
	ReadTimeout     time.Duration `json:"readTimeout"`
	WriteTimeout    time.Duration `json:"writeTimeout"`
	ShutdownTimeout time.Duration `json:"shutdownTimeout"`
}

// SimulationConfig contém os parâmetros temporais e de política do pipeline
type SimulationConfig struct {
	RunDuration   time.Duration `json:"runDuration"`   // Duração total da simulação
	CycleInterval time.Duration `json:"cycleInterval"` // Período nominal de amostragem (5ms canônico)
	GracePeriod   time.Duration `json:"gracePeriod"`   // Tolerância após limpar a flag de atividade
	ChannelBuffer int           `json:"channelBuffer"` // Capacidade dos canais limitados

	// Orçamentos de deadline por estágio
	ProcessingDeadline time.Duration `json:"processingDeadline"` // Filtro local do sensor (200µs)
	TransitDeadline    time.Duration `json:"transitDeadline"`    // Sensor -> comandante (100µs)
	OperationDeadline  time.Duration `json:"operationDeadline"`  // Execução do atuador (2ms)
	FeedbackDeadline   time.Duration `json:"feedbackDeadline"`   // Idade máxima do feedback (500µs)

	// Latência simulada de hardware do atuador
	ActuationTime time.Duration `json:"actuationTime"`

	// Probabilidade de o atuador solicitar recalibração
	RecalibrationChance float64 `json:"recalibrationChance"`

	// Políticas divergentes entre variantes do sistema original
	UnconditionalFeedback bool `json:"unconditionalFeedback"` // true: todo feedback é enviado ao sensor
	EmergencyPassthrough  bool `json:"emergencyPassthrough"`  // true: E-STOP repassa o comando bruto; false: halt total

	// Semente para as fontes aleatórias por componente (reprodutibilidade)
	Seed int64 `json:"seed"`
}

// PidGains contém os ganhos de um controlador PID
type PidGains struct {
	Kp float64 `json:"kp"`
	Ki float64 `json:"ki"`
	Kd float64 `json:"kd"`
}

// ControlConfig contém os ganhos PID por grandeza
type ControlConfig struct {
	Force       PidGains `json:"force"`
	Position    PidGains `json:"position"`
	Temperature PidGains `json:"temperature"`
}

// FaultConfig contém os parâmetros de injeção de falhas de transporte
type FaultConfig struct {
	DropProbability  float64       `json:"dropProbability"`  // Chance de descarte de pacote (~5%)
	DelayProbability float64       `json:"delayProbability"` // Chance de atraso injetado (~5%)
	DelayDuration    time.Duration `json:"delayDuration"`    // Atraso injetado antes do envio
}

// RedisConfig contém configurações do Redis
type RedisConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Password string `json:"password"`
	DB       int    `json:"db"`
	Prefix   string `json:"prefix"`
	Enabled  bool   `json:"enabled"`
}

// PLCConfig contém configurações para espelhar comandos em um PLC S7
type PLCConfig struct {
	Enabled      bool          `json:"enabled"`
	Host         string        `json:"host"`
	Rack         int           `json:"rack"`
	Slot         int           `json:"slot"`
	DBNumber     int           `json:"dbNumber"`
	UpdateRate   time.Duration `json:"updateRate"`
	ReadTimeout  time.Duration `json:"readTimeout"`
	WriteTimeout time.Duration `json:"writeTimeout"`
}

// Load carrega a configuração do arquivo ou usa valores padrão
func Load() (*Config, error) {
	config := getDefaultConfig()

	// Verificar se existe um arquivo de configuração
	if _, err := os.Stat("config.json"); err == nil {
		file, err := os.Open("config.json")
		if err != nil {
			return nil, err
		}
		defer file.Close()

		decoder := json.NewDecoder(file)
		if err := decoder.Decode(&config); err != nil {
			return nil, err
		}
	}

	// Sobrescrever com variáveis de ambiente, se existirem
	applyEnvironmentOverrides(&config)

	return &config, nil
}

// applyEnvironmentOverrides sobrescreve configurações com variáveis de ambiente
func applyEnvironmentOverrides(config *Config) {
	if v := os.Getenv("SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			config.Server.Port = port
		}
	}
	if v := os.Getenv("REDIS_HOST"); v != "" {
		config.Redis.Host = v
	}
	if v := os.Getenv("REDIS_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			config.Redis.Port = port
		}
	}
	if v := os.Getenv("PLC_HOST"); v != "" {
		config.PLC.Host = v
	}
	if v := os.Getenv("SIM_DURATION"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			config.Simulation.RunDuration = d
		}
	}
	if v := os.Getenv("SIM_SEED"); v != "" {
		if seed, err := strconv.ParseInt(v, 10, 64); err == nil {
			config.Simulation.Seed = seed
		}
	}
}
