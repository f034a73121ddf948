package control

import "controlsim_go/internal/config"

// Pid implementa a lei de controle PID de malha fechada.
// O termo integral acumula durante toda a vida do canal (sem anti-windup).
type Pid struct {
	kp, ki, kd float64
	integral   float64
	prevError  float64
}

// NewPid cria um novo controlador PID com os ganhos informados
func NewPid(gains config.PidGains) *Pid {
	return &Pid{
		kp: gains.Kp,
		ki: gains.Ki,
		kd: gains.Kd,
	}
}

// Compute avalia a lei de controle para um ciclo de amostragem.
// dt deve ser o período fixo e não nulo de amostragem (5ms canônico);
// scale aplica o de-rating por modo de operação (0.5 em modo degradado).
func (p *Pid) Compute(setpoint, measured, dt, scale float64) float64 {
	err := setpoint - measured
	p.integral += err * dt
	derivative := (err - p.prevError) / dt
	p.prevError = err

	return (p.kp*err + p.ki*p.integral + p.kd*derivative) * scale
}
