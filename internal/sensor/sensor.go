package sensor

import (
	"context"
	"math/rand"
	"time"

	"controlsim_go/internal/config"
	"controlsim_go/internal/models"
	"controlsim_go/internal/stats"
	"controlsim_go/internal/systemlog"
	"controlsim_go/pkg/logger"
)

// Capacidade do buffer de histórico do filtro de média móvel
const historyCapacity = 5

// Channel é o canal de sensoriamento de uma grandeza. Cada instância roda em
// sua própria goroutine, gera leituras em período fixo, filtra, transmite ao
// comandante e consome o feedback de recalibração do atuador correspondente.
type Channel struct {
	quantity        models.Quantity
	idCounter       int64
	history         []float64
	calibrationBias float64

	log    *systemlog.SystemLog
	sim    config.SimulationConfig
	faults config.FaultConfig
	rng    *rand.Rand

	stats stats.BenchmarkStats
}

// New cria um novo canal de sensor para a grandeza informada.
// A semente deriva da configuração para que a injeção de falhas seja
// reprodutível em testes.
func New(quantity models.Quantity, sim config.SimulationConfig, faults config.FaultConfig, log *systemlog.SystemLog) *Channel {
	return &Channel{
		quantity: quantity,
		history:  make([]float64, 0, historyCapacity),
		log:      log,
		sim:      sim,
		faults:   faults,
		rng:      rand.New(rand.NewSource(sim.Seed + int64(quantity)*31)),
	}
}

// Run executa o laço principal do canal até a flag de atividade ser limpa ou o
// receptor desaparecer. Fecha o canal de saída ao encerrar e retorna as
// estatísticas acumuladas.
func (c *Channel) Run(ctx context.Context, out chan<- models.Reading, feedback <-chan models.FeedbackMessage) stats.BenchmarkStats {
	defer close(out)

	interval := c.sim.CycleInterval
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	nextDeadline := time.Now().Add(interval)

	for {
		// Encerramento cooperativo: consultar a flag no início do ciclo
		if !c.log.Active() {
			logger.Debugf("Sensor %v encerrando (flag de atividade limpa)", c.quantity)
			return c.stats
		}

		select {
		case <-ctx.Done():
			logger.Debugf("Sensor %v encerrando (contexto cancelado)", c.quantity)
			return c.stats

		case fb := <-feedback:
			// O feedback chega de forma concorrente ao timer de geração
			c.handleFeedback(fb)

		case now := <-ticker.C:
			// Jitter: desvio absoluto do despertar em relação ao deadline
			// ideal, mesma definição usada no lado do atuador
			c.stats.RecordSensorJitter(wakeJitter(now, nextDeadline))
			nextDeadline = nextDeadline.Add(interval)

			c.stats.SensorCycles++

			// 1. Gerar leitura
			genStart := time.Now()
			reading := c.generate()
			c.stats.GenTime += time.Since(genStart)

			// 2. Filtrar e classificar
			procStart := time.Now()
			processed, ok := c.process(reading)
			c.stats.ProcTime += time.Since(procStart)
			if !ok {
				// Deadline de processamento perdido: leitura descartada
				continue
			}

			if processed.Anomaly {
				c.log.Write("[ANOMALIA] " + c.quantity.String() + " leitura fora dos limites")
			}

			// 3. Transmitir ao comandante
			if !c.transmit(ctx, out, processed) {
				logger.Infof("Sensor %v: receptor indisponível, encerrando canal", c.quantity)
				return c.stats
			}
		}
	}
}

// wakeJitter retorna o desvio absoluto entre o instante real do despertar e o
// deadline ideal do ciclo
func wakeJitter(now, deadline time.Time) time.Duration {
	d := now.Sub(deadline)
	if d < 0 {
		d = -d
	}
	return d
}

// generate produz uma leitura bruta da distribuição da grandeza, somada ao
// viés de calibração corrente
func (c *Channel) generate() models.Reading {
	c.idCounter++

	lo, hi := c.quantity.SampleRange()
	value := lo + c.rng.Float64()*(hi-lo)

	return models.Reading{
		ID:          c.idCounter,
		Quantity:    c.quantity,
		Value:       value + c.calibrationBias,
		GeneratedAt: time.Now(),
	}
}

// process aplica a classificação de anomalia e o filtro de média móvel.
// Retorna (leitura, false) quando o deadline local de processamento é perdido
// e a leitura deve ser descartada silenciosamente.
func (c *Channel) process(reading models.Reading) (models.Reading, bool) {
	start := time.Now()

	// 1. Detectar anomalia: leituras anômalas pulam o filtro e seguem
	// imediatamente, sinalizadas, para o comandante
	if c.quantity.Anomalous(reading.Value) {
		reading.Anomaly = true
		return reading, true
	}

	// 2. Média móvel sobre o buffer limitado de histórico
	if len(c.history) >= historyCapacity {
		c.history = c.history[1:]
	}
	c.history = append(c.history, reading.Value)

	var total float64
	for _, v := range c.history {
		total += v
	}
	reading.Value = total / float64(len(c.history))
	reading.ProcessedAt = time.Now()

	// 3. Deadline de processamento (200µs): estouro descarta a leitura
	if time.Since(start) > c.sim.ProcessingDeadline {
		c.stats.ProcDeadlineMisses++
		c.log.Write("[DEADLINE] Sensor " + c.quantity.String() + ": processamento estourou o orçamento, leitura descartada")
		return reading, false
	}

	return reading, true
}

// transmit envia a leitura ao comandante sobre o canal limitado, com injeção
// de falhas simulando um transporte imperfeito. Retorna false somente quando o
// receptor desapareceu (condição terminal do canal).
func (c *Channel) transmit(ctx context.Context, out chan<- models.Reading, reading models.Reading) bool {
	roll := c.rng.Float64()

	// FALHA 1: descarte de pacote (~5%). Tratado como ciclo bem sucedido.
	if roll < c.faults.DropProbability {
		c.stats.DroppedPackets++
		c.log.Write("[FALHA] Pacote descartado pelo transporte simulado: " + c.quantity.String())
		return true
	}

	// FALHA 2: atraso de rede (~5%) antes do envio
	if roll > 1.0-c.faults.DelayProbability {
		c.stats.DelayedPackets++
		time.Sleep(c.faults.DelayDuration)
	}

	// Envio com backpressure: bloqueia se o buffer do comandante estiver
	// cheio; o cancelamento do contexto cobre o receptor desaparecido.
	select {
	case out <- reading:
		return true
	case <-ctx.Done():
		return false
	}
}

// handleFeedback consome uma mensagem de feedback do atuador de origem
func (c *Channel) handleFeedback(fb models.FeedbackMessage) {
	// 1. Orçamento de latência de feedback (500µs): perda é contada, não fatal
	age := time.Since(fb.ProducedAt)
	if age > c.sim.FeedbackDeadline {
		c.stats.FeedbackDeadlineMisses++
		c.log.Write("[DEADLINE] Feedback para " + c.quantity.String() + " chegou atrasado")
	}

	// 2. Recalibração dinâmica: offset não nulo ajusta o viés imediatamente
	if fb.RecalibrationOffset != 0 {
		c.calibrationBias += fb.RecalibrationOffset
		c.log.Write("[FEEDBACK] Sensor " + c.quantity.String() + " recalibrado")
		logger.Debugf("Sensor %v recalibrado em %.4f (viés atual: %.4f)",
			c.quantity, fb.RecalibrationOffset, c.calibrationBias)
	}

	// 3. Texto de alerta não trivial é registrado
	if fb.AlertText != "" {
		c.log.Write("[FEEDBACK] Alerta para " + c.quantity.String() + ": " + fb.AlertText)
	}
}

// CalibrationBias retorna o viés de calibração corrente (uso em testes e
// inspeção)
func (c *Channel) CalibrationBias() float64 {
	return c.calibrationBias
}
