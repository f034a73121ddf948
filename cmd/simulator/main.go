package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"controlsim_go/internal/config"
	"controlsim_go/internal/server"
	"controlsim_go/internal/simulation"
	"controlsim_go/pkg/logger"
)

func main() {
	// Configurar diretório de logs
	logDir := filepath.Join(".", "logs")
	os.MkdirAll(logDir, 0755)

	// Inicializar logger
	logger.Init()
	logger.SetLevel(logger.INFO)
	logger.EnableFileLogging(logDir, "controlsim")
	defer logger.Sync()

	// Exibir banner de inicialização
	displayBanner()

	logger.Info("Iniciando Control Loop Simulator")

	// Carregar configurações
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Erro ao carregar configurações", err)
	}

	// O período de amostragem define o dt fixo do PID; valores muito altos
	// descaracterizam a malha de controle
	if cfg.Simulation.CycleInterval > 100*time.Millisecond {
		logger.Warn("Período de amostragem muito alto. Definindo para 5ms")
		cfg.Simulation.CycleInterval = 5 * time.Millisecond
	}

	logger.Infof("Configuração carregada: ciclo de %v, duração de %v, semente %d",
		cfg.Simulation.CycleInterval, cfg.Simulation.RunDuration, cfg.Simulation.Seed)

	// Criar o driver da simulação
	runner := simulation.New(cfg)

	// Criar e iniciar o servidor de monitoramento (se habilitado)
	var srv *server.Server
	if cfg.Server.Enabled {
		srv, err = server.NewServer(cfg, runner)
		if err != nil {
			logger.Fatal("Erro ao criar servidor", err)
		}

		go func() {
			if err := srv.Start(); err != nil {
				logger.Fatal("Erro ao iniciar o servidor", err)
			}
		}()
	} else {
		logger.Info("Servidor de monitoramento desabilitado")
	}

	// Iniciar o pipeline de controle
	if err := runner.Start(context.Background()); err != nil {
		logger.Fatal("Erro ao iniciar a simulação", err)
	}
	logger.Infof("Execução %s iniciada", runner.RunID())

	// Configurar captura de sinais para shutdown gracioso
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan struct{})
	go func() {
		runner.Wait()
		close(done)
	}()

	select {
	case <-quit:
		logger.Info("Sinal recebido, encerrando a simulação...")
		runner.Stop()
	case <-done:
		logger.Info("Simulação concluída")
	}

	// Divulgar e imprimir o relatório final
	if srv != nil {
		srv.PublishRunCompletion()
	}
	fmt.Println(runner.Report())

	// Desligar o servidor de monitoramento
	if srv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Erro durante o shutdown do servidor", err)
		}
	}

	logger.Info("Encerrado com sucesso")
}

// displayBanner exibe um banner de inicialização
func displayBanner() {
	banner := `
 _______  _____  __   _ _______  ______  _____  _       _______ _____ _______
 |       |     | | \  |    |    |_____/ |     | |       |______   |   |  |  |
 |_____  |_____| |  \_|    |    |    \_ |_____| |_____  ______| __|__ |  |  |
                                                                 SOFT REAL-TIME
 `
	fmt.Println(banner)
	fmt.Printf("Iniciando em %s\n\n", time.Now().Format("2006-01-02 15:04:05"))
}
