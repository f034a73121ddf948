package commander

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
		CycleInterval:        5 * time.Millisecond,
		ChannelBuffer:        100,
		TransitDeadline:      100 * time.Microsecond,
		EmergencyPassthrough: true,
	}
}

func testControlConfig() config.ControlConfig {
	return config.ControlConfig{
		Force:       config.PidGains{Kp: 1.5, Ki: 0.1, Kd: 0.05},
		Position:    config.PidGains{Kp: 0.8, Ki: 0.2, Kd: 0.1},
		Temperature: config.PidGains{Kp: 0.5, Ki: 0.05, Kd: 0.01},
	}
}

func reading(q models.Quantity, value float64, anomaly bool) models.Reading {
	return models.Reading{
		Quantity:    q,
		Value:       value,
		Anomaly:     anomaly,
		GeneratedAt: time.Now(),
	}
}

func commandChannels(buffer int) map[models.Quantity]chan models.Command {
	out := make(map[models.Quantity]chan models.Command)
	for _, q := range models.Quantities {
		out[q] = make(chan models.Command, buffer)
	}
	return out
}

func TestModeEscalationToDegradedAndEmergency(t *testing.T) {
	c := New(testSimConfig(), testControlConfig(), systemlog.New())

	for i := 0; i < 3; i++ {
		c.updateMode(reading(models.Force, 70, true))
	}
	if c.Mode() != models.Degraded {
		t.Fatalf("após 3 anomalias: modo = %v, esperado degradado", c.Mode())
	}

	for i := 0; i < 7; i++ {
		c.updateMode(reading(models.Force, 70, true))
	}
	if c.Mode() != models.EmergencyStop {
		t.Fatalf("após 10 anomalias: modo = %v, esperado parada de emergência", c.Mode())
	}
}

func TestEmergencyStopRecoversDirectlyToNormal(t *testing.T) {
	c := New(testSimConfig(), testControlConfig(), systemlog.New())

	for i := 0; i < 10; i++ {
		c.updateMode(reading(models.Force, 70, true))
	}
	if c.Mode() != models.EmergencyStop {
		t.Fatalf("modo = %v, esperado parada de emergência", c.Mode())
	}

	// O contador cai uma unidade por leitura normal; enquanto não zera o
	// modo permanece em parada de emergência (sem degradação intermediária)
	for i := 0; i < 9; i++ {
		c.updateMode(reading(models.Force, 30, false))
		if c.Mode() != models.EmergencyStop {
			t.Fatalf("leitura normal %d: modo = %v, parada de emergência deve ser pegajosa", i+1, c.Mode())
		}
	}

	c.updateMode(reading(models.Force, 30, false))
	if c.Mode() != models.Normal {
		t.Fatalf("contador zerado: modo = %v, esperado normal (não degradado)", c.Mode())
	}
}

func TestAnomalyCounterFloorsAtZero(t *testing.T) {
	c := New(testSimConfig(), testControlConfig(), systemlog.New())

	for i := 0; i < 5; i++ {
		c.updateMode(reading(models.Force, 30, false))
	}
	if got := c.Anomalies(); got != 0 {
		t.Errorf("contador = %d, esperado 0 (piso)", got)
	}
	if c.Mode() != models.Normal {
		t.Errorf("modo = %v, esperado normal", c.Mode())
	}
}

func TestAnomalousReadingBypassesPid(t *testing.T) {
	c := New(testSimConfig(), testControlConfig(), systemlog.New())
	commands := commandChannels(16)

	// Uma anomalia seguida de nove leituras normais
	c.handleReading(context.Background(), reading(models.Force, 70, true), commands)
	for i := 0; i < 9; i++ {
		c.handleReading(context.Background(), reading(models.Force, 30, false), commands)
	}

	if c.Mode() != models.Normal {
		t.Errorf("modo final = %v, esperado normal", c.Mode())
	}

	close(commands[models.Force])
	count := 0
	for range commands[models.Force] {
		count++
	}
	// A leitura anômala em modo normal não gera comando
	if count != 9 {
		t.Errorf("comandos emitidos = %d, esperados 9 (somente os derivados do PID)", count)
	}
}

func TestEmergencyPassthroughForwardsRawValue(t *testing.T) {
	c := New(testSimConfig(), testControlConfig(), systemlog.New())
	commands := commandChannels(32)

	for i := 0; i < 10; i++ {
		c.handleReading(context.Background(), reading(models.Force, 70, true), commands)
	}
	if c.Mode() != models.EmergencyStop {
		t.Fatalf("modo = %v, esperado parada de emergência", c.Mode())
	}

	c.handleReading(context.Background(), reading(models.Force, 75, true), commands)

	var last models.Command
	found := false
	for {
		select {
		case cmd := <-commands[models.Force]:
			last = cmd
			found = true
			continue
		default:
		}
		break
	}
	if !found {
		t.Fatal("nenhum comando emitido em modo de passagem direta")
	}
	if last.Magnitude != 75 {
		t.Errorf("magnitude = %v, esperado o valor bruto 75", last.Magnitude)
	}
}

func TestEmergencyHaltDeactivatesSystem(t *testing.T) {
	sim := testSimConfig()
	sim.EmergencyPassthrough = false
	log := systemlog.New()
	c := New(sim, testControlConfig(), log)
	commands := commandChannels(32)

	for i := 0; i < 10; i++ {
		c.handleReading(context.Background(), reading(models.Temperature, 150, true), commands)
	}

	if c.Mode() != models.EmergencyStop {
		t.Fatalf("modo = %v, esperado parada de emergência", c.Mode())
	}
	if log.Active() {
		t.Error("variante de halt deve limpar a flag de atividade do sistema")
	}
	select {
	case cmd := <-commands[models.Temperature]:
		t.Errorf("nenhum comando deveria ser emitido na variante de halt: %+v", cmd)
	default:
	}
}

func TestDegradedModeScalesControlEffort(t *testing.T) {
	log := systemlog.New()
	normal := New(testSimConfig(), testControlConfig(), log)
	degraded := New(testSimConfig(), testControlConfig(), log)

	commandsNormal := commandChannels(8)
	commandsDegraded := commandChannels(8)

	// Levar o segundo comandante ao modo degradado antes da medição
	for i := 0; i < 3; i++ {
		degraded.updateMode(reading(models.Force, 70, true))
	}

	normal.handleReading(context.Background(), reading(models.Force, 20, false), commandsNormal)
	degraded.handleReading(context.Background(), reading(models.Force, 20, false), commandsDegraded)

	cmdNormal := <-commandsNormal[models.Force]
	cmdDegraded := <-commandsDegraded[models.Force]

	if cmdDegraded.Magnitude != cmdNormal.Magnitude*0.5 {
		t.Errorf("esforço degradado = %v, esperado metade de %v", cmdDegraded.Magnitude, cmdNormal.Magnitude)
	}
}

func TestRunClosesCommandChannelsWhenSensorsStop(t *testing.T) {
	c := New(testSimConfig(), testControlConfig(), systemlog.New())

	force := make(chan models.Reading, 8)
	position := make(chan models.Reading, 8)
	temperature := make(chan models.Reading, 8)
	commands := commandChannels(8)

	force <- reading(models.Force, 25, false)
	close(force)
	close(position)
	close(temperature)

	done := make(chan struct{})
	go func() {
		c.Run(context.Background(), force, position, temperature, commands)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run não encerrou com os canais de sensores fechados")
	}

	for q, ch := range commands {
		select {
		case _, ok := <-ch:
			if ok {
				// Comando residual, drenar e verificar fechamento
				if _, still := <-ch; still {
					t.Errorf("canal de comando %v não foi fechado", q)
				}
			}
		case <-time.After(time.Second):
			t.Errorf("canal de comando %v não foi fechado", q)
		}
	}
}

func TestTransitSkippedForUnfilteredReadings(t *testing.T) {
	c := New(testSimConfig(), testControlConfig(), systemlog.New())
	commands := commandChannels(10)

	// Leituras anômalas pulam o filtro e chegam sem timestamp de
	// processamento; o trânsito não é medido para elas, mesmo que a
	// geração tenha sido bem antes
	r := reading(models.Force, 70, true)
	r.GeneratedAt = time.Now().Add(-time.Millisecond)
	c.handleReading(context.Background(), r, commands)

	if c.stats.TransitDeadlineMisses != 0 {
		t.Fatalf("TransitDeadlineMisses = %d, leitura sem ProcessedAt não deve contar trânsito",
			c.stats.TransitDeadlineMisses)
	}
	if c.stats.TransitTime != 0 {
		t.Fatalf("TransitTime = %v, leitura sem ProcessedAt não deve acumular trânsito",
			c.stats.TransitTime)
	}
}

func TestTransitMeasuredFromProcessedTimestamp(t *testing.T) {
	c := New(testSimConfig(), testControlConfig(), systemlog.New())
	commands := commandChannels(10)

	r := reading(models.Force, 30, false)
	r.GeneratedAt = time.Now().Add(-2 * time.Millisecond)
	r.ProcessedAt = time.Now().Add(-time.Millisecond)
	c.handleReading(context.Background(), r, commands)

	if c.stats.TransitDeadlineMisses != 1 {
		t.Fatalf("TransitDeadlineMisses = %d, esperado 1 para trânsito acima do orçamento",
			c.stats.TransitDeadlineMisses)
	}
	if c.stats.TransitTime < time.Millisecond {
		t.Fatalf("TransitTime = %v, esperado pelo menos 1ms medido do fim do processamento",
			c.stats.TransitTime)
	}
}
