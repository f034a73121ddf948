package simulation

import (
	"context"
	"strings"
	"testing"
	"time"

	"controlsim_go/internal/config"
)

func testConfig() *config.Config {
	return &config.Config{
		Simulation: config.SimulationConfig{
			RunDuration:          150 * time.Millisecond,
			CycleInterval:        5 * time.Millisecond,
			GracePeriod:          300 * time.Millisecond,
			ChannelBuffer:        100,
			ProcessingDeadline:   200 * time.Microsecond,
			TransitDeadline:      100 * time.Microsecond,
			OperationDeadline:    2 * time.Millisecond,
			FeedbackDeadline:     500 * time.Microsecond,
			ActuationTime:        100 * time.Microsecond,
			RecalibrationChance:  0.05,
			EmergencyPassthrough: true,
			Seed:                 42,
		},
		Control: config.ControlConfig{
			Force:       config.PidGains{Kp: 1.5, Ki: 0.1, Kd: 0.05},
			Position:    config.PidGains{Kp: 0.8, Ki: 0.2, Kd: 0.1},
			Temperature: config.PidGains{Kp: 0.5, Ki: 0.05, Kd: 0.01},
		},
		Faults: config.FaultConfig{
			DropProbability:  0.05,
			DelayProbability: 0.05,
			DelayDuration:    300 * time.Microsecond,
		},
	}
}

func TestRunnerCompletesAndReports(t *testing.T) {
	r := New(testConfig())

	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("Start falhou: %v", err)
	}
	if !r.IsRunning() {
		t.Error("IsRunning deve ser verdadeiro durante a execução")
	}
	if r.RunID() == "" {
		t.Error("RunID deve ser atribuído no início da execução")
	}

	r.Wait()

	if r.IsRunning() {
		t.Error("IsRunning deve ser falso após a conclusão")
	}

	result, elapsed := r.Result()
	if result.SensorCycles == 0 {
		t.Error("nenhum ciclo de sensor registrado")
	}
	if result.CommandsIssued == 0 {
		t.Error("nenhum comando emitido")
	}
	if elapsed < 150*time.Millisecond {
		t.Errorf("duração registrada %v menor que a duração nominal", elapsed)
	}

	report := r.Report()
	if !strings.Contains(report, "Ciclos de sensor") {
		t.Errorf("relatório incompleto:\n%s", report)
	}
}

func TestStartWhileRunningFails(t *testing.T) {
	r := New(testConfig())

	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("Start falhou: %v", err)
	}
	defer r.Wait()

	if err := r.Start(context.Background()); err != ErrAlreadyRunning {
		t.Errorf("segundo Start retornou %v, esperado ErrAlreadyRunning", err)
	}

	r.Stop()
}

func TestStopEndsRunEarly(t *testing.T) {
	cfg := testConfig()
	cfg.Simulation.RunDuration = 10 * time.Second

	r := New(cfg)
	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("Start falhou: %v", err)
	}

	time.Sleep(50 * time.Millisecond)

	done := make(chan struct{})
	go func() {
		r.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("Stop não encerrou a execução dentro do período de tolerância")
	}

	if r.IsRunning() {
		t.Error("IsRunning deve ser falso após Stop")
	}
}

func TestStatusReflectsRunState(t *testing.T) {
	r := New(testConfig())

	status := r.Status()
	if status.Running {
		t.Error("Status deve refletir o estado parado antes do Start")
	}

	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("Start falhou: %v", err)
	}
	status = r.Status()
	if !status.Running {
		t.Error("Status deve refletir a execução em andamento")
	}
	if status.RunID == "" {
		t.Error("Status deve carregar o identificador da execução")
	}

	r.Wait()
}
