package plc

import (
	"context"
	"sync"
	"time"

	"controlsim_go/internal/config"
	"controlsim_go/internal/models"
	"controlsim_go/pkg/logger"
)

// MapPoint representa um ponto de mapeamento entre o simulador e o PLC
type MapPoint struct {
	DBNumber    int    // Número do bloco de dados
	ByteOffset  int    // Offset em bytes
	DataType    string // Tipo de dados: "float", "int"
	Description string // Descrição do ponto
}

// Service espelha os esforços de controle e o modo de operação em um PLC S7,
// permitindo acompanhar a simulação a partir de um painel industrial real.
type Service struct {
	client           *S7Client
	config           config.PLCConfig
	ctx              context.Context
	cancel           context.CancelFunc
	commandMapping   map[models.Quantity]MapPoint // Mapeamento dos esforços por grandeza
	modeMapping      MapPoint                     // Mapeamento do modo de operação
	anomalyMapping   MapPoint                     // Mapeamento do contador de anomalias
	updateFrequency  time.Duration
	lastCommands     map[models.Quantity]models.Command
	lastStatus       *models.SystemStatus
	commandSubscribe chan models.Command
	statusSubscribe  chan models.SystemStatus
	mutex            sync.RWMutex
	running          bool
}

// NewService cria um novo serviço de espelhamento no PLC
func NewService(cfg config.PLCConfig) *Service {
	ctx, cancel := context.WithCancel(context.Background())

	return &Service{
		client:           NewS7Client(cfg),
		config:           cfg,
		ctx:              ctx,
		cancel:           cancel,
		updateFrequency:  cfg.UpdateRate,
		lastCommands:     make(map[models.Quantity]models.Command),
		commandSubscribe: make(chan models.Command, 10),
		statusSubscribe:  make(chan models.SystemStatus, 10),
		running:          false,
	}
}

// Start inicia o serviço de comunicação com o PLC
func (s *Service) Start() error {
	if !s.config.Enabled {
		logger.Info("Serviço PLC desabilitado por configuração")
		return nil
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.running {
		return nil
	}

	if err := s.client.Connect(); err != nil {
		return err
	}

	s.configureDefaultMapping()

	go s.runUpdateLoop()

	s.running = true
	logger.Info("Serviço PLC iniciado")
	return nil
}

// Stop para o serviço de comunicação com o PLC
func (s *Service) Stop() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if !s.running {
		return
	}

	s.cancel()
	s.client.Disconnect()
	s.running = false
	logger.Info("Serviço PLC parado")
}

// IsRunning verifica se o serviço está em execução
func (s *Service) IsRunning() bool {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.running
}

// UpdateCommand registra um comando emitido para espelhamento no PLC
func (s *Service) UpdateCommand(cmd models.Command) {
	if !s.config.Enabled || !s.IsRunning() {
		return
	}

	select {
	case s.commandSubscribe <- cmd:
	default:
		// Canal cheio, descartar a atualização
		logger.Warn("Canal de comandos para PLC está cheio, descartando atualização")
	}
}

// UpdateStatus registra o estado do pipeline para espelhamento no PLC
func (s *Service) UpdateStatus(status models.SystemStatus) {
	if !s.config.Enabled || !s.IsRunning() {
		return
	}

	select {
	case s.statusSubscribe <- status:
	default:
		logger.Warn("Canal de status para PLC está cheio, descartando atualização")
	}
}

// configureDefaultMapping configura o mapeamento padrão no bloco de dados.
// Layout do DB: REAL por grandeza (0, 4, 8), INT do modo em 12, INT do
// contador de anomalias em 14.
func (s *Service) configureDefaultMapping() {
	db := s.config.DBNumber

	s.commandMapping = map[models.Quantity]MapPoint{
		models.Force:       {DBNumber: db, ByteOffset: 0, DataType: "float", Description: "Esforço Motor"},
		models.Position:    {DBNumber: db, ByteOffset: 4, DataType: "float", Description: "Esforço Gripper"},
		models.Temperature: {DBNumber: db, ByteOffset: 8, DataType: "float", Description: "Esforço Stabiliser"},
	}

	s.modeMapping = MapPoint{
		DBNumber:    db,
		ByteOffset:  12,
		DataType:    "int",
		Description: "Modo de operação",
	}

	s.anomalyMapping = MapPoint{
		DBNumber:    db,
		ByteOffset:  14,
		DataType:    "int",
		Description: "Anomalias acumuladas",
	}
}

// runUpdateLoop executa o loop de atualização contínua para o PLC
func (s *Service) runUpdateLoop() {
	ticker := time.NewTicker(s.updateFrequency)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return

		case cmd := <-s.commandSubscribe:
			s.mutex.Lock()
			s.lastCommands[cmd.Quantity] = cmd
			s.mutex.Unlock()

		case status := <-s.statusSubscribe:
			s.mutex.Lock()
			s.lastStatus = &status
			s.mutex.Unlock()

		case <-ticker.C:
			s.mutex.RLock()
			commands := make(map[models.Quantity]models.Command, len(s.lastCommands))
			for q, cmd := range s.lastCommands {
				commands[q] = cmd
			}
			status := s.lastStatus
			s.mutex.RUnlock()

			s.mirrorToPLC(commands, status)
		}
	}
}

// mirrorToPLC escreve os últimos esforços e o estado no bloco de dados
func (s *Service) mirrorToPLC(commands map[models.Quantity]models.Command, status *models.SystemStatus) {
	if len(commands) == 0 && status == nil {
		return
	}

	if !s.client.IsConnected() {
		if err := s.client.Connect(); err != nil {
			logger.Error("Falha ao reconectar ao PLC", err)
			return
		}
	}

	for q, cmd := range commands {
		point := s.commandMapping[q]
		if err := s.client.WriteFloat(point.DBNumber, point.ByteOffset, float32(cmd.Magnitude)); err != nil {
			logger.Errorf("Erro ao espelhar esforço de %v no PLC: %v", q, err)
			return
		}
	}

	if status != nil {
		if err := s.client.WriteInt(s.modeMapping.DBNumber, s.modeMapping.ByteOffset, int16(status.Mode)); err != nil {
			logger.Errorf("Erro ao espelhar modo no PLC: %v", err)
			return
		}
		if err := s.client.WriteInt(s.anomalyMapping.DBNumber, s.anomalyMapping.ByteOffset, int16(status.Anomalies)); err != nil {
			logger.Errorf("Erro ao espelhar contador de anomalias no PLC: %v", err)
			return
		}
	}

	logger.Debug("Estado espelhado no PLC")
}

// Shutdown encerra graciosamente o serviço
func (s *Service) Shutdown() {
	s.Stop()
}
