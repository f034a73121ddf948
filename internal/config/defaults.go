package config

import "time"

// getDefaultConfig retorna uma configuração padrão
func getDefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Enabled:         true,
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Simulation: SimulationConfig{
			RunDuration:           2 * time.Second,
			CycleInterval:         5 * time.Millisecond,
			GracePeriod:           1 * time.Second,
			ChannelBuffer:         100,
			ProcessingDeadline:    200 * time.Microsecond,
			TransitDeadline:       100 * time.Microsecond,
			OperationDeadline:     2 * time.Millisecond,
			FeedbackDeadline:      500 * time.Microsecond,
			ActuationTime:         100 * time.Microsecond,
			RecalibrationChance:   0.05,
			UnconditionalFeedback: false,
			EmergencyPassthrough:  true,
			Seed:                  0,
		},
		Control: ControlConfig{
			Force:       PidGains{Kp: 1.5, Ki: 0.1, Kd: 0.05},
			Position:    PidGains{Kp: 0.8, Ki: 0.2, Kd: 0.1},
			Temperature: PidGains{Kp: 0.5, Ki: 0.05, Kd: 0.01},
		},
		Faults: FaultConfig{
			DropProbability:  0.05,
			DelayProbability: 0.05,
			DelayDuration:    300 * time.Microsecond,
		},
		Redis: RedisConfig{
			Host:     "localhost",
			Port:     6379,
			Password: "",
			DB:       0,
			Prefix:   "controlsim",
			Enabled:  false,
		},
		PLC: PLCConfig{
			Enabled:      false,
			Host:         "192.168.1.100",
			Rack:         0,
			Slot:         1,
			DBNumber:     10,
			UpdateRate:   500 * time.Millisecond,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 5 * time.Second,
		},
	}
}
