package stats

import (
	"fmt"
	"strings"
	"time"

	"controlsim_go/pkg/utils"
)

// BenchmarkStats acumula contadores de latência, jitter e deadlines por
// componente. Cada goroutine mantém sua própria instância e o driver reduz
// todas em um único relatório via Merge ao final da execução.
type BenchmarkStats struct {
	// Contadores de ciclos e mensagens
	SensorCycles      int64
	CommanderReadings int64
	CommandsIssued    int64
	ActuatorCycles    int64
	AnomalousReadings int64
	DroppedPackets    int64
	DelayedPackets    int64

	// Deadlines perdidos por estágio
	ProcDeadlineMisses     int64
	TransitDeadlineMisses  int64
	ExecDeadlineMisses     int64
	FeedbackDeadlineMisses int64

	// Durações totais por estágio
	GenTime     time.Duration
	ProcTime    time.Duration
	TransitTime time.Duration
	ExecTime    time.Duration
	// Latência fim-a-fim (geração da leitura -> conclusão da atuação)
	EndToEndTime time.Duration

	// Jitter acumulado e de pico
	SensorJitter      time.Duration
	MaxSensorJitter   time.Duration
	ActuatorJitter    time.Duration
	MaxActuatorJitter time.Duration
}

// Merge combina dois acumuladores: somas para totais e contagens, máximo para
// jitter de pico. A operação é associativa e comutativa, de modo que as
// parciais por goroutine podem ser reduzidas em qualquer ordem.
func (s BenchmarkStats) Merge(o BenchmarkStats) BenchmarkStats {
	out := BenchmarkStats{
		SensorCycles:      s.SensorCycles + o.SensorCycles,
		CommanderReadings: s.CommanderReadings + o.CommanderReadings,
		CommandsIssued:    s.CommandsIssued + o.CommandsIssued,
		ActuatorCycles:    s.ActuatorCycles + o.ActuatorCycles,
		AnomalousReadings: s.AnomalousReadings + o.AnomalousReadings,
		DroppedPackets:    s.DroppedPackets + o.DroppedPackets,
		DelayedPackets:    s.DelayedPackets + o.DelayedPackets,

		ProcDeadlineMisses:     s.ProcDeadlineMisses + o.ProcDeadlineMisses,
		TransitDeadlineMisses:  s.TransitDeadlineMisses + o.TransitDeadlineMisses,
		ExecDeadlineMisses:     s.ExecDeadlineMisses + o.ExecDeadlineMisses,
		FeedbackDeadlineMisses: s.FeedbackDeadlineMisses + o.FeedbackDeadlineMisses,

		GenTime:      s.GenTime + o.GenTime,
		ProcTime:     s.ProcTime + o.ProcTime,
		TransitTime:  s.TransitTime + o.TransitTime,
		ExecTime:     s.ExecTime + o.ExecTime,
		EndToEndTime: s.EndToEndTime + o.EndToEndTime,

		SensorJitter:   s.SensorJitter + o.SensorJitter,
		ActuatorJitter: s.ActuatorJitter + o.ActuatorJitter,
	}

	out.MaxSensorJitter = maxDuration(s.MaxSensorJitter, o.MaxSensorJitter)
	out.MaxActuatorJitter = maxDuration(s.MaxActuatorJitter, o.MaxActuatorJitter)

	return out
}

// RecordSensorJitter registra o desvio absoluto do despertar de um ciclo de
// sensor em relação ao deadline ideal
func (s *BenchmarkStats) RecordSensorJitter(jitter time.Duration) {
	s.SensorJitter += jitter
	if jitter > s.MaxSensorJitter {
		s.MaxSensorJitter = jitter
	}
}

// RecordActuatorJitter registra o desvio do intervalo entre chegadas de
// comandos em relação ao período nominal
func (s *BenchmarkStats) RecordActuatorJitter(jitter time.Duration) {
	s.ActuatorJitter += jitter
	if jitter > s.MaxActuatorJitter {
		s.MaxActuatorJitter = jitter
	}
}

// Report renderiza o relatório final legível de uma execução
func (s BenchmarkStats) Report(elapsed time.Duration) string {
	var b strings.Builder

	throughput := 0.0
	if elapsed > 0 {
		throughput = float64(s.CommandsIssued) / elapsed.Seconds()
	}

	fmt.Fprintf(&b, "=== RELATÓRIO DE DESEMPENHO DA SIMULAÇÃO ===\n")
	fmt.Fprintf(&b, "Duração:                 %s\n", utils.FormatDuration(elapsed))
	fmt.Fprintf(&b, "Ciclos de sensor:        %d\n", s.SensorCycles)
	fmt.Fprintf(&b, "Leituras processadas:    %d (%d anômalas)\n", s.CommanderReadings, s.AnomalousReadings)
	fmt.Fprintf(&b, "Comandos emitidos:       %d (%.1f/s)\n", s.CommandsIssued, throughput)
	fmt.Fprintf(&b, "Ciclos de atuador:       %d\n", s.ActuatorCycles)
	fmt.Fprintf(&b, "Pacotes descartados:     %d (injeção de falha)\n", s.DroppedPackets)
	fmt.Fprintf(&b, "Pacotes atrasados:       %d (injeção de falha)\n", s.DelayedPackets)
	fmt.Fprintf(&b, "--- Deadlines perdidos ---\n")
	fmt.Fprintf(&b, "Processamento (sensor):  %d\n", s.ProcDeadlineMisses)
	fmt.Fprintf(&b, "Trânsito (comandante):   %d\n", s.TransitDeadlineMisses)
	fmt.Fprintf(&b, "Execução (atuador):      %d\n", s.ExecDeadlineMisses)
	fmt.Fprintf(&b, "Feedback (sensor):       %d\n", s.FeedbackDeadlineMisses)
	fmt.Fprintf(&b, "--- Latências médias ---\n")
	fmt.Fprintf(&b, "Geração:                 %s\n", utils.FormatMicros(utils.AvgDuration(s.GenTime, s.SensorCycles)))
	fmt.Fprintf(&b, "Processamento:           %s\n", utils.FormatMicros(utils.AvgDuration(s.ProcTime, s.SensorCycles)))
	fmt.Fprintf(&b, "Trânsito:                %s\n", utils.FormatMicros(utils.AvgDuration(s.TransitTime, s.CommanderReadings)))
	fmt.Fprintf(&b, "Execução:                %s\n", utils.FormatMicros(utils.AvgDuration(s.ExecTime, s.ActuatorCycles)))
	fmt.Fprintf(&b, "Fim-a-fim:               %s\n", utils.FormatMicros(utils.AvgDuration(s.EndToEndTime, s.ActuatorCycles)))
	fmt.Fprintf(&b, "--- Jitter ---\n")
	fmt.Fprintf(&b, "Sensor médio:            %s (pico %s)\n",
		utils.FormatMicros(utils.AvgDuration(s.SensorJitter, s.SensorCycles)),
		utils.FormatMicros(s.MaxSensorJitter))
	fmt.Fprintf(&b, "Atuador médio:           %s (pico %s)\n",
		utils.FormatMicros(utils.AvgDuration(s.ActuatorJitter, s.ActuatorCycles)),
		utils.FormatMicros(s.MaxActuatorJitter))

	return b.String()
}

func maxDuration(a, b time.Duration) time.Duration {
	if a > b {
		return a
	}
	return b
}
