package commander

import (
	"context"
	"sync"
	"time"

	"controlsim_go/internal/config"
	"controlsim_go/internal/control"
	"controlsim_go/internal/models"
	"controlsim_go/internal/stats"
	"controlsim_go/internal/systemlog"
	"controlsim_go/pkg/logger"
)

// Limiares da máquina de modos de operação
const (
	degradedThreshold  = 3  // Anomalias acumuladas para entrar em modo degradado
	emergencyThreshold = 10 // Anomalias acumuladas para a parada de emergência
)

// Fator aplicado ao esforço de controle em modo degradado
const degradedScale = 0.5

// ReadingHandler recebe cada leitura aceita pelo comandante (telemetria)
type ReadingHandler func(models.Reading)

// CommandHandler recebe cada comando emitido (telemetria, espelho PLC)
type CommandHandler func(models.Command)

// ModeChangeHandler recebe cada transição de modo de operação
type ModeChangeHandler func(models.ModeChange)

// Commander é o nó central do pipeline: recebe as leituras dos três sensores,
// mantém a máquina de modos de operação e emite comandos PID aos atuadores.
// O modo e o contador de anomalias são propriedade exclusiva do comandante;
// os demais componentes apenas consultam instantâneos via Status.
type Commander struct {
	pids map[models.Quantity]*control.Pid

	mu        sync.RWMutex
	mode      models.OperatingMode
	anomalies int

	log *systemlog.SystemLog
	sim config.SimulationConfig

	readingHandlers    []ReadingHandler
	commandHandlers    []CommandHandler
	modeChangeHandlers []ModeChangeHandler

	stats stats.BenchmarkStats
}

// New cria um comandante com um controlador PID por grandeza
func New(sim config.SimulationConfig, ctrl config.ControlConfig, log *systemlog.SystemLog) *Commander {
	return &Commander{
		pids: map[models.Quantity]*control.Pid{
			models.Force:       control.NewPid(ctrl.Force),
			models.Position:    control.NewPid(ctrl.Position),
			models.Temperature: control.NewPid(ctrl.Temperature),
		},
		mode: models.Normal,
		log:  log,
		sim:  sim,
	}
}

// RegisterReadingHandler registra uma função para receber leituras aceitas
func (c *Commander) RegisterReadingHandler(handler ReadingHandler) {
	c.readingHandlers = append(c.readingHandlers, handler)
}

// RegisterCommandHandler registra uma função para receber comandos emitidos
func (c *Commander) RegisterCommandHandler(handler CommandHandler) {
	c.commandHandlers = append(c.commandHandlers, handler)
}

// RegisterModeChangeHandler registra uma função para receber transições de modo
func (c *Commander) RegisterModeChangeHandler(handler ModeChangeHandler) {
	c.modeChangeHandlers = append(c.modeChangeHandlers, handler)
}

// Mode retorna o modo de operação corrente
func (c *Commander) Mode() models.OperatingMode {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.mode
}

// Anomalies retorna o contador corrente de anomalias acumuladas
func (c *Commander) Anomalies() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.anomalies
}

// Status retorna um instantâneo do estado do comandante
func (c *Commander) Status() models.SystemStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return models.SystemStatus{
		Mode:      c.mode,
		Anomalies: c.anomalies,
		Timestamp: time.Now(),
	}
}

// Run executa o laço de fan-in sobre os três canais de sensores até que algum
// deles feche ou o contexto seja cancelado. Fecha os canais de comando ao
// encerrar e retorna as estatísticas acumuladas.
func (c *Commander) Run(
	ctx context.Context,
	force, position, temperature <-chan models.Reading,
	commands map[models.Quantity]chan models.Command,
) stats.BenchmarkStats {
	defer func() {
		for _, ch := range commands {
			close(ch)
		}
	}()

	for {
		// Qualquer canal de sensor fechado sinaliza o encerramento do
		// pipeline inteiro
		select {
		case <-ctx.Done():
			logger.Debug("Comandante encerrando (contexto cancelado)")
			return c.stats

		case reading, ok := <-force:
			if !ok {
				return c.stats
			}
			c.handleReading(ctx, reading, commands)

		case reading, ok := <-position:
			if !ok {
				return c.stats
			}
			c.handleReading(ctx, reading, commands)

		case reading, ok := <-temperature:
			if !ok {
				return c.stats
			}
			c.handleReading(ctx, reading, commands)
		}
	}
}

// handleReading processa uma leitura: verifica o deadline de trânsito, avança
// a máquina de modos e, quando aplicável, calcula e emite o comando PID
func (c *Commander) handleReading(ctx context.Context, reading models.Reading, commands map[models.Quantity]chan models.Command) {
	c.stats.CommanderReadings++

	// Deadline de trânsito sensor -> comandante (100µs): medido a partir do
	// fim do processamento. Leituras anômalas pulam o filtro e não carregam
	// o timestamp; essas não entram na medição. Perda é contada mas a
	// leitura segue o fluxo normal
	if !reading.ProcessedAt.IsZero() {
		transit := time.Since(reading.ProcessedAt)
		c.stats.TransitTime += transit
		if transit > c.sim.TransitDeadline {
			c.stats.TransitDeadlineMisses++
			c.log.Write("[DEADLINE] Trânsito estourado para leitura de " + reading.Quantity.String())
		}
	}

	for _, handler := range c.readingHandlers {
		handler(reading)
	}

	// A escalada de segurança corre antes de qualquer cálculo de controle
	mode := c.updateMode(reading)

	if reading.Anomaly {
		c.stats.AnomalousReadings++

		// Em parada de emergência a leitura anômala contorna o PID: o
		// valor bruto segue direto ao atuador para manter o eixo vivo.
		// Na variante de halt total o Deactivate já foi disparado na
		// transição e nada mais é emitido.
		if mode == models.EmergencyStop && c.sim.EmergencyPassthrough {
			c.issue(ctx, models.Command{
				Quantity:    reading.Quantity,
				Magnitude:   reading.Value,
				ReadingID:   reading.ID,
				GeneratedAt: reading.GeneratedAt,
				IssuedAt:    time.Now(),
			}, commands)
		}
		return
	}

	// Atuação PID suspensa durante a parada de emergência; as leituras
	// normais seguem apenas reduzindo o contador até a recuperação
	if mode == models.EmergencyStop {
		return
	}

	scale := 1.0
	if mode == models.Degraded {
		scale = degradedScale
	}

	// Período de amostragem fixo: dt variável invalidaria o termo derivativo
	dt := c.sim.CycleInterval.Seconds()
	magnitude := c.pids[reading.Quantity].Compute(reading.Quantity.Setpoint(), reading.Value, dt, scale)

	c.issue(ctx, models.Command{
		Quantity:    reading.Quantity,
		Magnitude:   magnitude,
		ReadingID:   reading.ID,
		GeneratedAt: reading.GeneratedAt,
		IssuedAt:    time.Now(),
	}, commands)
}

// issue envia um comando ao atuador da grandeza e notifica os handlers
func (c *Commander) issue(ctx context.Context, cmd models.Command, commands map[models.Quantity]chan models.Command) {
	select {
	case commands[cmd.Quantity] <- cmd:
		c.stats.CommandsIssued++
	case <-ctx.Done():
		return
	}

	for _, handler := range c.commandHandlers {
		handler(cmd)
	}
}

// updateMode avança a máquina de modos conforme a leitura e retorna o modo
// resultante. O contador sobe uma unidade por leitura anômala e desce uma
// unidade (piso zero) por leitura normal. A parada de emergência é pegajosa:
// transições para degradado ficam suprimidas até o contador zerar de fato,
// quando a recuperação vai direto para o modo normal.
func (c *Commander) updateMode(reading models.Reading) models.OperatingMode {
	c.mu.Lock()

	if reading.Anomaly {
		c.anomalies++
	} else if c.anomalies > 0 {
		c.anomalies--
	}

	from := c.mode
	to := from

	switch {
	case c.anomalies >= emergencyThreshold:
		to = models.EmergencyStop
	case c.anomalies >= degradedThreshold && from != models.EmergencyStop:
		to = models.Degraded
	case c.anomalies == 0 && from != models.Normal:
		to = models.Normal
	}

	changed := to != from
	anomalies := c.anomalies
	c.mode = to
	c.mu.Unlock()

	if !changed {
		return to
	}

	change := models.ModeChange{
		From:      from,
		To:        to,
		Anomalies: anomalies,
		Timestamp: time.Now(),
	}

	switch to {
	case models.EmergencyStop:
		c.log.Alert("FALHA CRÍTICA! Entrando em PARADA DE EMERGÊNCIA.")
		if !c.sim.EmergencyPassthrough {
			// Variante de halt total: derruba a flag de atividade e
			// todo o pipeline encerra cooperativamente
			c.log.Deactivate()
		}
	case models.Degraded:
		c.log.Alert("Taxa alta de anomalias! Entrando em MODO DEGRADADO.")
	case models.Normal:
		c.log.Write("[MODO] Sistema estabilizado, retornando ao modo normal")
		logger.Infof("Modo de operação: %v -> %v", from, to)
	}

	for _, handler := range c.modeChangeHandlers {
		handler(change)
	}

	return to
}
