package control

import (
	"math"
	"testing"

	"controlsim_go/internal/config"
)

func TestComputeZeroError(t *testing.T) {
	pid := NewPid(config.PidGains{Kp: 1.5, Ki: 0.1, Kd: 0.05})

	// Erro zero em um controlador recém-criado deve produzir esforço zero
	if got := pid.Compute(30.0, 30.0, 0.005, 1.0); got != 0.0 {
		t.Errorf("Compute(30, 30) = %v, esperado 0.0", got)
	}
}

func TestComputeProportional(t *testing.T) {
	pid := NewPid(config.PidGains{Kp: 2.0, Ki: 0.0, Kd: 0.0})

	// Somente o termo proporcional: esforço = kp * erro
	if got := pid.Compute(30.0, 20.0, 0.005, 1.0); got != 20.0 {
		t.Errorf("esforço proporcional = %v, esperado 20.0", got)
	}
}

func TestComputeIntegralAccumulates(t *testing.T) {
	pid := NewPid(config.PidGains{Kp: 0.0, Ki: 1.0, Kd: 0.0})

	// Dois ciclos com erro constante de 10: integral = 10*dt + 10*dt
	pid.Compute(10.0, 0.0, 0.005, 1.0)
	got := pid.Compute(10.0, 0.0, 0.005, 1.0)
	want := 0.1
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("esforço integral após 2 ciclos = %v, esperado %v", got, want)
	}
}

func TestComputeDerivative(t *testing.T) {
	pid := NewPid(config.PidGains{Kp: 0.0, Ki: 0.0, Kd: 0.01})

	// Primeiro ciclo: derivada = (erro - 0) / dt
	got := pid.Compute(5.0, 0.0, 0.005, 1.0)
	want := 0.01 * (5.0 / 0.005)
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("esforço derivativo = %v, esperado %v", got, want)
	}

	// Erro constante: derivada zera no segundo ciclo
	if got := pid.Compute(5.0, 0.0, 0.005, 1.0); math.Abs(got) > 1e-9 {
		t.Errorf("esforço derivativo com erro constante = %v, esperado 0", got)
	}
}

func TestComputeScale(t *testing.T) {
	pid := NewPid(config.PidGains{Kp: 1.0, Ki: 0.0, Kd: 0.0})

	// De-rating de modo degradado reduz o esforço pela metade
	if got := pid.Compute(40.0, 20.0, 0.005, 0.5); got != 10.0 {
		t.Errorf("esforço com scale 0.5 = %v, esperado 10.0", got)
	}
}
