package sensor

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
		CycleInterval:      5 * time.Millisecond,
		ChannelBuffer:      100,
		ProcessingDeadline: 200 * time.Microsecond,
		TransitDeadline:    100 * time.Microsecond,
		FeedbackDeadline:   500 * time.Microsecond,
		Seed:               42,
	}
}

func TestMovingAverageWindow(t *testing.T) {
	c := New(models.Force, testSimConfig(), config.FaultConfig{}, systemlog.New())

	inputs := []float64{10, 20, 30, 40, 50, 60}
	// Médias esperadas sobre a janela de 5 elementos
	want := []float64{10, 15, 20, 25, 30, 40}

	for i, v := range inputs {
		reading := models.Reading{ID: int64(i + 1), Quantity: models.Force, Value: v, GeneratedAt: time.Now()}
		out, ok := c.process(reading)
		if !ok {
			t.Fatalf("leitura %d descartada inesperadamente", i+1)
		}
		if out.Value != want[i] {
			t.Errorf("leitura %d: média = %v, esperado %v", i+1, out.Value, want[i])
		}
	}
}

func TestAnomalySkipsFilter(t *testing.T) {
	c := New(models.Force, testSimConfig(), config.FaultConfig{}, systemlog.New())

	// Preencher o histórico com valores normais
	for _, v := range []float64{10, 20, 30} {
		c.process(models.Reading{Quantity: models.Force, Value: v})
	}

	out, ok := c.process(models.Reading{Quantity: models.Force, Value: 70})
	if !ok {
		t.Fatal("leitura anômala não deve ser descartada")
	}
	if !out.Anomaly {
		t.Error("leitura fora dos limites deve ser sinalizada como anômala")
	}
	if out.Value != 70 {
		t.Errorf("leitura anômala deve pular o filtro: valor = %v, esperado 70", out.Value)
	}
	if len(c.history) != 3 {
		t.Errorf("leitura anômala não deve entrar no histórico: len = %d", len(c.history))
	}
}

func TestFeedbackRecalibration(t *testing.T) {
	c := New(models.Position, testSimConfig(), config.FaultConfig{}, systemlog.New())

	c.handleFeedback(models.FeedbackMessage{
		Acknowledged:        false,
		RecalibrationOffset: 0.25,
		AlertText:           "Gripper solicitou recalibração",
		ProducedAt:          time.Now(),
	})
	c.handleFeedback(models.FeedbackMessage{
		RecalibrationOffset: -0.1,
		ProducedAt:          time.Now(),
	})

	if got := c.CalibrationBias(); got != 0.15 {
		t.Errorf("viés de calibração = %v, esperado 0.15", got)
	}
}

func TestFeedbackDeadlineMiss(t *testing.T) {
	c := New(models.Temperature, testSimConfig(), config.FaultConfig{}, systemlog.New())

	c.handleFeedback(models.FeedbackMessage{
		Acknowledged: true,
		ProducedAt:   time.Now().Add(-2 * time.Millisecond),
	})

	if c.stats.FeedbackDeadlineMisses != 1 {
		t.Errorf("FeedbackDeadlineMisses = %d, esperado 1", c.stats.FeedbackDeadlineMisses)
	}
}

func TestTransmitDropFault(t *testing.T) {
	faults := config.FaultConfig{DropProbability: 1.0}
	c := New(models.Force, testSimConfig(), faults, systemlog.New())

	out := make(chan models.Reading, 1)
	ok := c.transmit(context.Background(), out, models.Reading{Quantity: models.Force})

	if !ok {
		t.Fatal("descarte injetado é tratado, não terminal")
	}
	if c.stats.DroppedPackets != 1 {
		t.Errorf("DroppedPackets = %d, esperado 1", c.stats.DroppedPackets)
	}
	select {
	case r := <-out:
		t.Errorf("pacote descartado não deve ser entregue: %+v", r)
	default:
	}
}

func TestRunClosesOutputOnDeactivation(t *testing.T) {
	log := systemlog.New()
	sim := testSimConfig()
	c := New(models.Force, sim, config.FaultConfig{}, log)

	out := make(chan models.Reading, 100)
	feedback := make(chan models.FeedbackMessage, 100)

	done := make(chan struct{})
	go func() {
		c.Run(context.Background(), out, feedback)
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	log.Deactivate()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run não encerrou após limpar a flag de atividade")
	}

	// O canal de saída deve estar fechado após drenar as leituras pendentes
	count := 0
	for range out {
		count++
	}
	if count == 0 {
		t.Error("nenhuma leitura produzida durante a janela de execução")
	}
}

func TestWakeJitterIsAbsoluteDeviation(t *testing.T) {
	deadline := time.Now()

	if got := wakeJitter(deadline.Add(200*time.Microsecond), deadline); got != 200*time.Microsecond {
		t.Errorf("despertar atrasado: jitter = %v, esperado 200µs", got)
	}
	if got := wakeJitter(deadline.Add(-150*time.Microsecond), deadline); got != 150*time.Microsecond {
		t.Errorf("despertar adiantado: jitter = %v, esperado 150µs", got)
	}
	if got := wakeJitter(deadline, deadline); got != 0 {
		t.Errorf("despertar pontual: jitter = %v, esperado 0", got)
	}
}
