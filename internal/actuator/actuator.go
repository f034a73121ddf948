package actuator

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"controlsim_go/internal/config"
	"controlsim_go/internal/models"
	"controlsim_go/internal/stats"
	"controlsim_go/internal/systemlog"
	"controlsim_go/pkg/logger"
)

// Channel é o canal de atuação de uma grandeza. Consome comandos do
// comandante, simula a latência de hardware, fiscaliza o deadline de operação
// e devolve feedback de confirmação ou recalibração ao sensor de origem.
type Channel struct {
	quantity models.Quantity

	log *systemlog.SystemLog
	sim config.SimulationConfig
	rng *rand.Rand

	// Instante da chegada do comando anterior, para o jitter entre chegadas
	lastArrival time.Time

	stats stats.BenchmarkStats
}

// New cria um novo canal de atuador para a grandeza informada
func New(quantity models.Quantity, sim config.SimulationConfig, log *systemlog.SystemLog) *Channel {
	return &Channel{
		quantity: quantity,
		log:      log,
		sim:      sim,
		rng:      rand.New(rand.NewSource(sim.Seed + int64(quantity)*97)),
	}
}

// Run consome comandos até o canal fechar ou o contexto ser cancelado e
// retorna as estatísticas acumuladas. O canal de feedback nunca é fechado
// aqui: o sensor pode já ter encerrado, então os envios são não bloqueantes.
func (a *Channel) Run(ctx context.Context, commands <-chan models.Command, feedback chan<- models.FeedbackMessage) stats.BenchmarkStats {
	for {
		select {
		case <-ctx.Done():
			logger.Debugf("Atuador %s encerrando (contexto cancelado)", a.quantity.ActuatorName())
			return a.stats

		case cmd, ok := <-commands:
			if !ok {
				logger.Debugf("Atuador %s encerrando (canal de comandos fechado)", a.quantity.ActuatorName())
				return a.stats
			}
			a.execute(cmd, feedback)
		}
	}
}

// execute aplica um comando ao hardware simulado
func (a *Channel) execute(cmd models.Command, feedback chan<- models.FeedbackMessage) {
	arrival := time.Now()
	a.stats.ActuatorCycles++

	// Jitter do atuador: desvio do intervalo entre chegadas em relação ao
	// período nominal de amostragem
	if !a.lastArrival.IsZero() {
		gap := arrival.Sub(a.lastArrival)
		jitter := gap - a.sim.CycleInterval
		if jitter < 0 {
			jitter = -jitter
		}
		a.stats.RecordActuatorJitter(jitter)
	}
	a.lastArrival = arrival

	// Latência simulada do hardware (100µs canônico)
	time.Sleep(a.sim.ActuationTime)

	execTime := time.Since(arrival)
	a.stats.ExecTime += execTime

	// Deadline de operação (2ms): estouro é contado e registrado, o
	// comando ainda é considerado aplicado
	if execTime > a.sim.OperationDeadline {
		a.stats.ExecDeadlineMisses++
		a.log.Write(fmt.Sprintf("[DEADLINE] Atuador %s estourou o orçamento de operação", a.quantity.ActuatorName()))
	}

	// Latência fim-a-fim: da geração da leitura de origem até a conclusão
	// da atuação
	if !cmd.GeneratedAt.IsZero() {
		a.stats.EndToEndTime += time.Since(cmd.GeneratedAt)
	}

	a.respond(feedback)
}

// respond produz o feedback do ciclo: confirmação simples na maior parte dos
// casos, pedido de recalibração com offset aleatório nos demais
func (a *Channel) respond(feedback chan<- models.FeedbackMessage) {
	fb := models.FeedbackMessage{
		Acknowledged: true,
		ProducedAt:   time.Now(),
	}

	if a.rng.Float64() < a.sim.RecalibrationChance {
		// Offset uniforme em [-0.5, 0.5)
		fb.Acknowledged = false
		fb.RecalibrationOffset = a.rng.Float64() - 0.5
		fb.AlertText = fmt.Sprintf("%s solicitou recalibração do sensor de %s",
			a.quantity.ActuatorName(), a.quantity)
		a.log.Write("[FEEDBACK] " + fb.AlertText)
	} else if !a.sim.UnconditionalFeedback {
		// Variante padrão: confirmações simples não voltam ao sensor
		return
	}

	// Envio não bloqueante: o sensor de origem pode já ter encerrado e o
	// descarte aqui evita um impasse no desligamento
	select {
	case feedback <- fb:
	default:
		logger.Debugf("Atuador %s: feedback descartado (sensor indisponível)", a.quantity.ActuatorName())
	}
}
