package models

import "testing"

func TestAnomalyThresholds(t *testing.T) {
	cases := []struct {
		name     string
		quantity Quantity
		value    float64
		want     bool
	}{
		{"forca dentro do limite superior", Force, 59.0, false},
		{"forca acima do limite superior", Force, 61.0, true},
		{"forca no limite superior", Force, 60.0, false},
		{"forca abaixo do limite inferior", Force, 4.9, true},
		{"posicao nominal", Position, 0.1, false},
		{"posicao acima do limite", Position, 0.6, true},
		{"posicao negativa fora do limite", Position, -0.7, true},
		{"temperatura nominal", Temperature, 100.0, false},
		{"temperatura acima do limite", Temperature, 121.0, true},
		{"temperatura no limite", Temperature, 120.0, false},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := c.quantity.Anomalous(c.value); got != c.want {
				t.Errorf("Anomalous(%v, %v) = %v, esperado %v", c.quantity, c.value, got, c.want)
			}
		})
	}
}

func TestSetpoints(t *testing.T) {
	if got := Force.Setpoint(); got != 30.0 {
		t.Errorf("setpoint de Force = %v, esperado 30.0", got)
	}
	if got := Position.Setpoint(); got != 0.0 {
		t.Errorf("setpoint de Position = %v, esperado 0.0", got)
	}
	if got := Temperature.Setpoint(); got != 240.0 {
		t.Errorf("setpoint de Temperature = %v, esperado 240.0", got)
	}
}

func TestActuatorNames(t *testing.T) {
	want := map[Quantity]string{
		Force:       "Motor",
		Position:    "Gripper",
		Temperature: "Stabiliser",
	}
	for q, name := range want {
		if got := q.ActuatorName(); got != name {
			t.Errorf("ActuatorName(%v) = %q, esperado %q", q, got, name)
		}
	}
}
