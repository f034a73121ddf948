package stats

import (
	"strings"
	"testing"
	"time"
)

func sample(n int64) BenchmarkStats {
	return BenchmarkStats{
		SensorCycles:           n,
		CommanderReadings:      n * 2,
		CommandsIssued:         n * 3,
		ActuatorCycles:         n,
		AnomalousReadings:      n / 2,
		DroppedPackets:         n,
		DelayedPackets:         n,
		ProcDeadlineMisses:     n,
		TransitDeadlineMisses:  n,
		ExecDeadlineMisses:     n,
		FeedbackDeadlineMisses: n,
		GenTime:                time.Duration(n) * time.Microsecond,
		ProcTime:               time.Duration(n) * 2 * time.Microsecond,
		TransitTime:            time.Duration(n) * 3 * time.Microsecond,
		ExecTime:               time.Duration(n) * 4 * time.Microsecond,
		EndToEndTime:           time.Duration(n) * 5 * time.Microsecond,
		SensorJitter:           time.Duration(n) * time.Microsecond,
		MaxSensorJitter:        time.Duration(n*10) * time.Microsecond,
		ActuatorJitter:         time.Duration(n) * time.Microsecond,
		MaxActuatorJitter:      time.Duration(n*20) * time.Microsecond,
	}
}

func TestMergeAssociativeCommutative(t *testing.T) {
	a := sample(1)
	b := sample(7)
	c := sample(13)

	left := a.Merge(b).Merge(c)
	right := a.Merge(b.Merge(c))
	swapped := c.Merge(b).Merge(a)

	if left != right {
		t.Errorf("Merge não é associativo:\n%+v\n%+v", left, right)
	}
	if left != swapped {
		t.Errorf("Merge não é comutativo:\n%+v\n%+v", left, swapped)
	}
}

func TestMergeSumsAndMaxima(t *testing.T) {
	a := sample(2)
	b := sample(5)

	m := a.Merge(b)

	if m.SensorCycles != 7 {
		t.Errorf("SensorCycles = %d, esperado 7", m.SensorCycles)
	}
	if m.GenTime != 7*time.Microsecond {
		t.Errorf("GenTime = %v, esperado 7µs", m.GenTime)
	}
	// Jitter de pico usa máximo, não soma
	if m.MaxSensorJitter != 50*time.Microsecond {
		t.Errorf("MaxSensorJitter = %v, esperado 50µs", m.MaxSensorJitter)
	}
	if m.MaxActuatorJitter != 100*time.Microsecond {
		t.Errorf("MaxActuatorJitter = %v, esperado 100µs", m.MaxActuatorJitter)
	}
}

func TestMergeZeroIdentity(t *testing.T) {
	a := sample(9)
	var zero BenchmarkStats

	if got := a.Merge(zero); got != a {
		t.Errorf("Merge com zero alterou o acumulador:\n%+v\n%+v", got, a)
	}
}

func TestRecordJitterTracksMaximum(t *testing.T) {
	var s BenchmarkStats

	s.RecordSensorJitter(10 * time.Microsecond)
	s.RecordSensorJitter(40 * time.Microsecond)
	s.RecordSensorJitter(20 * time.Microsecond)

	if s.SensorJitter != 70*time.Microsecond {
		t.Errorf("SensorJitter = %v, esperado 70µs", s.SensorJitter)
	}
	if s.MaxSensorJitter != 40*time.Microsecond {
		t.Errorf("MaxSensorJitter = %v, esperado 40µs", s.MaxSensorJitter)
	}
}

func TestReportRendersCounters(t *testing.T) {
	s := sample(100)
	report := s.Report(2 * time.Second)

	if report == "" {
		t.Fatal("relatório vazio")
	}
	for _, want := range []string{"Ciclos de sensor", "Comandos emitidos", "Jitter"} {
		if !strings.Contains(report, want) {
			t.Errorf("relatório sem a seção %q:\n%s", want, report)
		}
	}
}
