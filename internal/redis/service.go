package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"

	"controlsim_go/internal/config"
	"controlsim_go/internal/models"
	"controlsim_go/pkg/logger"
)

// Service persiste a telemetria do pipeline no Redis: valores correntes e
// histórico por grandeza, transições de modo, alertas e relatórios finais.
type Service struct {
	client    *redis.Client
	ctx       context.Context
	cancel    context.CancelFunc
	prefix    string
	config    config.RedisConfig
	connected bool
	mutex     sync.RWMutex

	// Constantes específicas do serviço
	maxHistorySize   int64
	maxAlertListSize int64
}

// NewService cria um novo serviço Redis
func NewService(cfg config.RedisConfig) (*Service, error) {
	if !cfg.Enabled {
		logger.Info("Serviço Redis desabilitado por configuração")
		return &Service{
			config:           cfg,
			connected:        false,
			maxHistorySize:   1000,
			maxAlertListSize: 200,
		}, nil
	}

	// Criar contexto cancelável
	ctx, cancel := context.WithCancel(context.Background())

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	service := &Service{
		client:           client,
		ctx:              ctx,
		cancel:           cancel,
		prefix:           cfg.Prefix,
		config:           cfg,
		maxHistorySize:   1000,
		maxAlertListSize: 200,
	}

	// Testar conexão
	if err := service.TestConnection(); err != nil {
		logger.Warnf("Aviso: %v. O Redis será utilizado em modo offline.", err)
		service.connected = false
		return service, nil
	}

	service.connected = true
	return service, nil
}

// TestConnection testa a conexão com o Redis
func (s *Service) TestConnection() error {
	if !s.config.Enabled {
		return fmt.Errorf("serviço Redis desabilitado")
	}

	result, err := s.client.Ping(s.ctx).Result()
	if err != nil {
		return fmt.Errorf("erro ao conectar ao Redis: %w", err)
	}

	logger.Infof("Conexão com o Redis estabelecida. Resposta: %s", result)
	s.connected = true
	return nil
}

// IsConnected verifica se o serviço está conectado
func (s *Service) IsConnected() bool {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.connected && s.config.Enabled
}

// quantityKey monta a chave base de uma grandeza ("controlsim:force", etc.)
func (s *Service) quantityKey(q models.Quantity) string {
	return fmt.Sprintf("%s:%s", s.prefix, strings.ToLower(q.String()))
}

// WriteReading persiste uma leitura: valor corrente e ponto de histórico
func (s *Service) WriteReading(reading models.Reading) error {
	s.mutex.RLock()
	if !s.connected || !s.config.Enabled {
		s.mutex.RUnlock()
		return nil
	}
	s.mutex.RUnlock()

	pipe := s.client.Pipeline()
	timestamp := reading.GeneratedAt.UnixNano() / int64(time.Millisecond)
	key := s.quantityKey(reading.Quantity)

	// Valor corrente e timestamp da última amostra
	pipe.Set(s.ctx, key, reading.Value, 0)
	pipe.Set(s.ctx, fmt.Sprintf("%s:timestamp", s.prefix), timestamp, 0)

	// Histórico ordenado por timestamp, limitado aos últimos 1000 pontos
	histKey := fmt.Sprintf("%s:history", key)
	pipe.ZAdd(s.ctx, histKey, &redis.Z{
		Score:  float64(timestamp),
		Member: reading.Value,
	})
	pipe.ZRemRangeByRank(s.ctx, histKey, 0, -(s.maxHistorySize + 1))

	// Contador de anomalias por grandeza
	if reading.Anomaly {
		pipe.Incr(s.ctx, fmt.Sprintf("%s:anomalias", key))
	}

	_, err := pipe.Exec(s.ctx)
	if err != nil {
		s.mutex.Lock()
		s.connected = false
		s.mutex.Unlock()
		return fmt.Errorf("erro ao escrever leitura no Redis: %w", err)
	}

	return nil
}

// WriteModeChange persiste uma transição de modo de operação
func (s *Service) WriteModeChange(change models.ModeChange) error {
	s.mutex.RLock()
	if !s.connected || !s.config.Enabled {
		s.mutex.RUnlock()
		return nil
	}
	s.mutex.RUnlock()

	pipe := s.client.Pipeline()
	timestamp := change.Timestamp.UnixNano() / int64(time.Millisecond)

	// Modo corrente
	pipe.Set(s.ctx, fmt.Sprintf("%s:modo", s.prefix), change.To.String(), 0)

	// Detalhes da transição em JSON, indexados por timestamp
	jsonData, err := json.Marshal(change)
	if err != nil {
		return fmt.Errorf("erro ao serializar transição de modo: %w", err)
	}

	changesKey := fmt.Sprintf("%s:transicoes_modo", s.prefix)
	pipe.ZAdd(s.ctx, changesKey, &redis.Z{
		Score:  float64(timestamp),
		Member: string(jsonData),
	})
	pipe.ZRemRangeByRank(s.ctx, changesKey, 0, -(s.maxAlertListSize + 1))

	_, err = pipe.Exec(s.ctx)
	if err != nil {
		s.mutex.Lock()
		s.connected = false
		s.mutex.Unlock()
		return fmt.Errorf("erro ao escrever transição de modo no Redis: %w", err)
	}

	logger.Debugf("Transição de modo registrada no Redis: %v -> %v", change.From, change.To)
	return nil
}

// WriteAlert persiste um alerta do sistema
func (s *Service) WriteAlert(text string) error {
	s.mutex.RLock()
	if !s.connected || !s.config.Enabled {
		s.mutex.RUnlock()
		return nil
	}
	s.mutex.RUnlock()

	pipe := s.client.Pipeline()
	timestamp := time.Now().UnixNano() / int64(time.Millisecond)

	pipe.Set(s.ctx, fmt.Sprintf("%s:ultimo_alerta", s.prefix), text, 0)
	pipe.Incr(s.ctx, fmt.Sprintf("%s:total_alertas", s.prefix))

	alertsKey := fmt.Sprintf("%s:alertas", s.prefix)
	pipe.ZAdd(s.ctx, alertsKey, &redis.Z{
		Score:  float64(timestamp),
		Member: fmt.Sprintf("%d|%s", timestamp, text),
	})
	pipe.ZRemRangeByRank(s.ctx, alertsKey, 0, -(s.maxAlertListSize + 1))

	_, err := pipe.Exec(s.ctx)
	if err != nil {
		s.mutex.Lock()
		s.connected = false
		s.mutex.Unlock()
		return fmt.Errorf("erro ao escrever alerta no Redis: %w", err)
	}

	return nil
}

// WriteStatus persiste o estado atual do pipeline
func (s *Service) WriteStatus(status models.SystemStatus) error {
	s.mutex.RLock()
	if !s.connected || !s.config.Enabled {
		s.mutex.RUnlock()
		return nil
	}
	s.mutex.RUnlock()

	pipe := s.client.Pipeline()

	pipe.Set(s.ctx, fmt.Sprintf("%s:modo", s.prefix), status.Mode.String(), 0)
	pipe.Set(s.ctx, fmt.Sprintf("%s:anomalias", s.prefix), status.Anomalies, 0)
	pipe.Set(s.ctx, fmt.Sprintf("%s:executando", s.prefix), strconv.FormatBool(status.Running), 0)
	pipe.Set(s.ctx, fmt.Sprintf("%s:timestamp", s.prefix),
		status.Timestamp.UnixNano()/int64(time.Millisecond), 0)

	if status.RunID != "" {
		pipe.Set(s.ctx, fmt.Sprintf("%s:execucao", s.prefix), status.RunID, 0)
	}
	if status.LastAlert != "" {
		pipe.Set(s.ctx, fmt.Sprintf("%s:ultimo_alerta", s.prefix), status.LastAlert, 0)
	}

	_, err := pipe.Exec(s.ctx)
	if err != nil {
		s.mutex.Lock()
		s.connected = false
		s.mutex.Unlock()
		return fmt.Errorf("erro ao escrever status no Redis: %w", err)
	}

	return nil
}

// WriteReport persiste o relatório final de uma execução
func (s *Service) WriteReport(runID, report string) error {
	s.mutex.RLock()
	if !s.connected || !s.config.Enabled {
		s.mutex.RUnlock()
		return nil
	}
	s.mutex.RUnlock()

	pipe := s.client.Pipeline()

	pipe.Set(s.ctx, fmt.Sprintf("%s:relatorio:%s", s.prefix, runID), report, 0)
	pipe.Set(s.ctx, fmt.Sprintf("%s:ultimo_relatorio", s.prefix), runID, 0)

	_, err := pipe.Exec(s.ctx)
	if err != nil {
		s.mutex.Lock()
		s.connected = false
		s.mutex.Unlock()
		return fmt.Errorf("erro ao escrever relatório no Redis: %w", err)
	}

	logger.Infof("Relatório da execução %s registrado no Redis", runID)
	return nil
}

// GetStatus obtém o estado atual do pipeline a partir do Redis
func (s *Service) GetStatus() (*models.SystemStatus, error) {
	s.mutex.RLock()
	if !s.connected || !s.config.Enabled {
		s.mutex.RUnlock()
		return nil, fmt.Errorf("Redis não conectado ou desabilitado")
	}
	s.mutex.RUnlock()

	status := &models.SystemStatus{
		Timestamp: time.Now(), // Valor padrão
	}

	modeCmd := s.client.Get(s.ctx, fmt.Sprintf("%s:modo", s.prefix))
	if modeCmd.Err() != nil {
		return nil, fmt.Errorf("erro ao obter modo: %w", modeCmd.Err())
	}
	switch modeCmd.Val() {
	case models.Degraded.String():
		status.Mode = models.Degraded
	case models.EmergencyStop.String():
		status.Mode = models.EmergencyStop
	default:
		status.Mode = models.Normal
	}

	if anomCmd := s.client.Get(s.ctx, fmt.Sprintf("%s:anomalias", s.prefix)); anomCmd.Err() == nil {
		if count, err := anomCmd.Int(); err == nil {
			status.Anomalies = count
		}
	}

	if runCmd := s.client.Get(s.ctx, fmt.Sprintf("%s:executando", s.prefix)); runCmd.Err() == nil {
		status.Running = runCmd.Val() == "true"
	}

	if idCmd := s.client.Get(s.ctx, fmt.Sprintf("%s:execucao", s.prefix)); idCmd.Err() == nil {
		status.RunID = idCmd.Val()
	}

	if alertCmd := s.client.Get(s.ctx, fmt.Sprintf("%s:ultimo_alerta", s.prefix)); alertCmd.Err() == nil {
		status.LastAlert = alertCmd.Val()
	}

	if countCmd := s.client.Get(s.ctx, fmt.Sprintf("%s:total_alertas", s.prefix)); countCmd.Err() == nil {
		if count, err := countCmd.Int(); err == nil {
			status.AlertCount = count
		}
	}

	if tsCmd := s.client.Get(s.ctx, fmt.Sprintf("%s:timestamp", s.prefix)); tsCmd.Err() == nil && tsCmd.Err() != redis.Nil {
		if ts, err := tsCmd.Int64(); err == nil {
			status.Timestamp = time.Unix(0, ts*int64(time.Millisecond))
		}
	}

	return status, nil
}

// GetReadingHistory obtém o histórico de valores de uma grandeza
func (s *Service) GetReadingHistory(q models.Quantity) ([]models.HistoryPoint, error) {
	s.mutex.RLock()
	if !s.connected || !s.config.Enabled {
		s.mutex.RUnlock()
		return nil, fmt.Errorf("Redis não conectado ou desabilitado")
	}
	s.mutex.RUnlock()

	historyKey := fmt.Sprintf("%s:history", s.quantityKey(q))
	dataCmd := s.client.ZRangeWithScores(s.ctx, historyKey, 0, -1)
	if dataCmd.Err() != nil {
		return nil, fmt.Errorf("erro ao obter histórico de %s: %w", q, dataCmd.Err())
	}

	results := dataCmd.Val()
	history := make([]models.HistoryPoint, 0, len(results))

	for _, item := range results {
		value, ok := item.Member.(string)
		if !ok {
			continue
		}

		val, err := strconv.ParseFloat(value, 64)
		if err != nil {
			continue
		}

		history = append(history, models.HistoryPoint{
			Value:     val,
			Timestamp: time.Unix(0, int64(item.Score)*int64(time.Millisecond)),
		})
	}

	return history, nil
}

// GetModeChanges obtém as transições de modo mais recentes
func (s *Service) GetModeChanges() ([]models.ModeChange, error) {
	s.mutex.RLock()
	if !s.connected || !s.config.Enabled {
		s.mutex.RUnlock()
		return nil, fmt.Errorf("Redis não conectado ou desabilitado")
	}
	s.mutex.RUnlock()

	changesKey := fmt.Sprintf("%s:transicoes_modo", s.prefix)
	dataCmd := s.client.ZRevRange(s.ctx, changesKey, 0, 49)
	if dataCmd.Err() != nil {
		return nil, fmt.Errorf("erro ao obter transições de modo: %w", dataCmd.Err())
	}

	entries := dataCmd.Val()
	changes := make([]models.ModeChange, 0, len(entries))

	for _, entry := range entries {
		var change models.ModeChange
		if err := json.Unmarshal([]byte(entry), &change); err != nil {
			continue
		}
		changes = append(changes, change)
	}

	return changes, nil
}

// GetReport obtém o relatório de uma execução (ou da última, com runID vazio)
func (s *Service) GetReport(runID string) (string, error) {
	s.mutex.RLock()
	if !s.connected || !s.config.Enabled {
		s.mutex.RUnlock()
		return "", fmt.Errorf("Redis não conectado ou desabilitado")
	}
	s.mutex.RUnlock()

	if runID == "" {
		idCmd := s.client.Get(s.ctx, fmt.Sprintf("%s:ultimo_relatorio", s.prefix))
		if idCmd.Err() != nil {
			return "", fmt.Errorf("nenhum relatório registrado: %w", idCmd.Err())
		}
		runID = idCmd.Val()
	}

	reportCmd := s.client.Get(s.ctx, fmt.Sprintf("%s:relatorio:%s", s.prefix, runID))
	if reportCmd.Err() != nil {
		return "", fmt.Errorf("erro ao obter relatório %s: %w", runID, reportCmd.Err())
	}

	return reportCmd.Val(), nil
}

// Shutdown encerra graciosamente o serviço Redis
func (s *Service) Shutdown() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	if s.client != nil {
		if err := s.client.Close(); err != nil {
			logger.Errorf("Erro ao fechar conexão com Redis: %v", err)
		} else {
			logger.Info("Conexão com o Redis fechada")
		}
	}

	s.connected = false
}
