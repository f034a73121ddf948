package actuator

import (
	"context"
	"testing"
	"time"

	"controlsim_go/internal/config"
	"controlsim_go/internal/models"
	"controlsim_go/internal/systemlog"
)

func testSimConfig() config.SimulationConfig {
	return config.SimulationConfig{
		CycleInterval:       5 * time.Millisecond,
		OperationDeadline:   2 * time.Millisecond,
		ActuationTime:       100 * time.Microsecond,
		RecalibrationChance: 0.05,
		Seed:                42,
	}
}

func TestExecuteCountsCyclesAndLatency(t *testing.T) {
	a := New(models.Force, testSimConfig(), systemlog.New())
	feedback := make(chan models.FeedbackMessage, 8)

	a.execute(models.Command{
		Quantity:    models.Force,
		Magnitude:   1.5,
		GeneratedAt: time.Now().Add(-200 * time.Microsecond),
		IssuedAt:    time.Now(),
	}, feedback)

	if a.stats.ActuatorCycles != 1 {
		t.Errorf("ActuatorCycles = %d, esperado 1", a.stats.ActuatorCycles)
	}
	if a.stats.ExecTime < 100*time.Microsecond {
		t.Errorf("ExecTime = %v, deve incluir a latência simulada de hardware", a.stats.ExecTime)
	}
	if a.stats.EndToEndTime < 300*time.Microsecond {
		t.Errorf("EndToEndTime = %v, deve medir desde a geração da leitura", a.stats.EndToEndTime)
	}
}

func TestOperationDeadlineMiss(t *testing.T) {
	sim := testSimConfig()
	// Orçamento menor que a latência de hardware força o estouro
	sim.OperationDeadline = 10 * time.Microsecond
	a := New(models.Position, sim, systemlog.New())
	feedback := make(chan models.FeedbackMessage, 8)

	a.execute(models.Command{Quantity: models.Position, GeneratedAt: time.Now()}, feedback)

	if a.stats.ExecDeadlineMisses != 1 {
		t.Errorf("ExecDeadlineMisses = %d, esperado 1", a.stats.ExecDeadlineMisses)
	}
}

func TestRecalibrationFeedback(t *testing.T) {
	sim := testSimConfig()
	sim.RecalibrationChance = 1.0
	a := New(models.Temperature, sim, systemlog.New())
	feedback := make(chan models.FeedbackMessage, 8)

	a.execute(models.Command{Quantity: models.Temperature, GeneratedAt: time.Now()}, feedback)

	select {
	case fb := <-feedback:
		if fb.Acknowledged {
			t.Error("pedido de recalibração não deve chegar confirmado")
		}
		if fb.RecalibrationOffset < -0.5 || fb.RecalibrationOffset >= 0.5 {
			t.Errorf("offset = %v, esperado em [-0.5, 0.5)", fb.RecalibrationOffset)
		}
		if fb.AlertText == "" {
			t.Error("pedido de recalibração deve carregar texto de alerta")
		}
	default:
		t.Fatal("nenhum feedback de recalibração produzido")
	}
}

func TestAcknowledgementSuppressedByDefault(t *testing.T) {
	sim := testSimConfig()
	sim.RecalibrationChance = 0.0
	a := New(models.Force, sim, systemlog.New())
	feedback := make(chan models.FeedbackMessage, 8)

	a.execute(models.Command{Quantity: models.Force, GeneratedAt: time.Now()}, feedback)

	select {
	case fb := <-feedback:
		t.Errorf("confirmação simples não deve voltar ao sensor na variante padrão: %+v", fb)
	default:
	}
}

func TestUnconditionalFeedbackSendsAcknowledgement(t *testing.T) {
	sim := testSimConfig()
	sim.RecalibrationChance = 0.0
	sim.UnconditionalFeedback = true
	a := New(models.Force, sim, systemlog.New())
	feedback := make(chan models.FeedbackMessage, 8)

	a.execute(models.Command{Quantity: models.Force, GeneratedAt: time.Now()}, feedback)

	select {
	case fb := <-feedback:
		if !fb.Acknowledged {
			t.Error("confirmação deve chegar com Acknowledged ligado")
		}
		if fb.RecalibrationOffset != 0 {
			t.Errorf("confirmação simples não carrega offset: %v", fb.RecalibrationOffset)
		}
	default:
		t.Fatal("variante incondicional deve enviar a confirmação")
	}
}

func TestFeedbackSendNeverBlocks(t *testing.T) {
	sim := testSimConfig()
	sim.RecalibrationChance = 1.0
	a := New(models.Force, sim, systemlog.New())

	// Canal sem buffer e sem leitor: o envio deve ser descartado, não travar
	feedback := make(chan models.FeedbackMessage)

	done := make(chan struct{})
	go func() {
		a.execute(models.Command{Quantity: models.Force, GeneratedAt: time.Now()}, feedback)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("execute travou no envio de feedback sem leitor")
	}
}

func TestRunStopsWhenCommandChannelCloses(t *testing.T) {
	a := New(models.Force, testSimConfig(), systemlog.New())

	commands := make(chan models.Command, 4)
	feedback := make(chan models.FeedbackMessage, 4)

	commands <- models.Command{Quantity: models.Force, GeneratedAt: time.Now()}
	commands <- models.Command{Quantity: models.Force, GeneratedAt: time.Now()}
	close(commands)

	done := make(chan struct{})
	go func() {
		got := a.Run(context.Background(), commands, feedback)
		if got.ActuatorCycles != 2 {
			t.Errorf("ActuatorCycles = %d, esperado 2", got.ActuatorCycles)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run não encerrou com o canal de comandos fechado")
	}
}
