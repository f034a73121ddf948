package simulation

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"controlsim_go/internal/actuator"
	"controlsim_go/internal/commander"
	"controlsim_go/internal/config"
	"controlsim_go/internal/models"
	"controlsim_go/internal/sensor"
	"controlsim_go/internal/stats"
	"controlsim_go/internal/systemlog"
	"controlsim_go/pkg/logger"
)

// Intervalo de verificação da flag de atividade durante a espera do driver
const activityPollInterval = 10 * time.Millisecond

// ErrAlreadyRunning indica que uma execução já está em andamento
var ErrAlreadyRunning = errors.New("simulação já em execução")

// Runner é o driver da simulação: monta o pipeline completo (três sensores,
// comandante, três atuadores), executa pela duração configurada, encerra de
// forma cooperativa e reduz as estatísticas parciais no relatório final.
type Runner struct {
	cfg *config.Config

	mu        sync.RWMutex
	running   bool
	runID     string
	startedAt time.Time
	elapsed   time.Duration
	result    stats.BenchmarkStats

	log       *systemlog.SystemLog
	commander *commander.Commander

	cancel context.CancelFunc
	done   chan struct{}
}

// New cria um driver de simulação a partir da configuração
func New(cfg *config.Config) *Runner {
	log := systemlog.New()
	return &Runner{
		cfg:       cfg,
		log:       log,
		commander: commander.New(cfg.Simulation, cfg.Control, log),
	}
}

// Log retorna o registro compartilhado do sistema
func (r *Runner) Log() *systemlog.SystemLog {
	return r.log
}

// Commander retorna o comandante, para registro de handlers de telemetria
func (r *Runner) Commander() *commander.Commander {
	return r.commander
}

// IsRunning informa se uma execução está em andamento
func (r *Runner) IsRunning() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.running
}

// RunID retorna o identificador da execução corrente (ou da última concluída)
func (r *Runner) RunID() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.runID
}

// Status retorna um instantâneo do estado do sistema para telemetria
func (r *Runner) Status() models.SystemStatus {
	status := r.commander.Status()

	r.mu.RLock()
	status.Running = r.running
	status.RunID = r.runID
	r.mu.RUnlock()

	status.LastAlert = r.log.LastAlert()
	status.AlertCount = r.log.AlertCount()
	return status
}

// Result retorna as estatísticas reduzidas e a duração da última execução
func (r *Runner) Result() (stats.BenchmarkStats, time.Duration) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.result, r.elapsed
}

// Report renderiza o relatório da última execução concluída
func (r *Runner) Report() string {
	result, elapsed := r.Result()
	return result.Report(elapsed)
}

// Start inicia a simulação em segundo plano. Retorna ErrAlreadyRunning se uma
// execução já estiver em andamento.
func (r *Runner) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return ErrAlreadyRunning
	}
	r.running = true
	r.runID = uuid.New().String()
	r.startedAt = time.Now()
	r.done = make(chan struct{})

	runCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.mu.Unlock()

	go func() {
		defer close(r.done)
		r.run(runCtx)
	}()

	return nil
}

// Stop encerra a execução corrente e aguarda todas as goroutines do pipeline
func (r *Runner) Stop() {
	r.mu.RLock()
	running := r.running
	done := r.done
	r.mu.RUnlock()

	if !running {
		return
	}

	r.log.Deactivate()
	if done != nil {
		<-done
	}
}

// Wait bloqueia até a execução corrente terminar
func (r *Runner) Wait() {
	r.mu.RLock()
	done := r.done
	r.mu.RUnlock()

	if done != nil {
		<-done
	}
}

// run monta e executa o pipeline até a duração configurada, o cancelamento do
// contexto ou a queda da flag de atividade (halt de emergência)
func (r *Runner) run(ctx context.Context) {
	sim := r.cfg.Simulation

	logger.Infof("Iniciando simulação %s (duração: %v, ciclo: %v)", r.RunID(), sim.RunDuration, sim.CycleInterval)

	// Canais limitados por grandeza
	readings := make(map[models.Quantity]chan models.Reading)
	commands := make(map[models.Quantity]chan models.Command)
	feedbacks := make(map[models.Quantity]chan models.FeedbackMessage)
	for _, q := range models.Quantities {
		readings[q] = make(chan models.Reading, sim.ChannelBuffer)
		commands[q] = make(chan models.Command, sim.ChannelBuffer)
		feedbacks[q] = make(chan models.FeedbackMessage, sim.ChannelBuffer)
	}

	// Contexto interno cancelado após o período de tolerância, como último
	// recurso contra goroutines presas em envios
	pipeCtx, cancelPipe := context.WithCancel(ctx)
	defer cancelPipe()

	results := make(chan stats.BenchmarkStats, 2*len(models.Quantities)+1)
	var wg sync.WaitGroup

	// Sensores
	for _, q := range models.Quantities {
		wg.Add(1)
		go func(q models.Quantity) {
			defer wg.Done()
			s := sensor.New(q, sim, r.cfg.Faults, r.log)
			results <- s.Run(pipeCtx, readings[q], feedbacks[q])
		}(q)
	}

	// Comandante
	wg.Add(1)
	go func() {
		defer wg.Done()
		results <- r.commander.Run(pipeCtx,
			readings[models.Force], readings[models.Position], readings[models.Temperature],
			commands)
	}()

	// Atuadores
	for _, q := range models.Quantities {
		wg.Add(1)
		go func(q models.Quantity) {
			defer wg.Done()
			a := actuator.New(q, sim, r.log)
			results <- a.Run(pipeCtx, commands[q], feedbacks[q])
		}(q)
	}

	// Espera pela duração configurada, cancelamento externo ou halt
	r.await(ctx, sim.RunDuration)

	// Encerramento cooperativo: limpar a flag, tolerar a drenagem dos
	// canais e só então cancelar o contexto do pipeline
	r.log.Deactivate()

	graceTimer := time.NewTimer(sim.GracePeriod)
	finished := make(chan struct{})
	go func() {
		wg.Wait()
		close(finished)
	}()

	select {
	case <-finished:
		graceTimer.Stop()
	case <-graceTimer.C:
		logger.Warn("Período de tolerância esgotado, cancelando o pipeline")
		cancelPipe()
		<-finished
	}

	close(results)

	var merged stats.BenchmarkStats
	for partial := range results {
		merged = merged.Merge(partial)
	}

	r.mu.Lock()
	r.running = false
	r.elapsed = time.Since(r.startedAt)
	r.result = merged
	elapsed := r.elapsed
	r.mu.Unlock()

	logger.Infof("Simulação %s concluída em %v (%d comandos emitidos)", r.RunID(), elapsed, merged.CommandsIssued)
}

// await bloqueia até a duração nominal da execução, verificando periodicamente
// a flag de atividade para reagir a um halt de emergência antecipado
func (r *Runner) await(ctx context.Context, duration time.Duration) {
	deadline := time.NewTimer(duration)
	defer deadline.Stop()

	poll := time.NewTicker(activityPollInterval)
	defer poll.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-deadline.C:
			return
		case <-poll.C:
			if !r.log.Active() {
				logger.Warn("Flag de atividade limpa antes da duração nominal (halt de emergência)")
				return
			}
		}
	}
}
