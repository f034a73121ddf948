package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"controlsim_go/internal/config"
	"controlsim_go/internal/discovery"
	"controlsim_go/internal/models"
	"controlsim_go/internal/plc"
	"controlsim_go/internal/redis"
	"controlsim_go/internal/simulation"
	"controlsim_go/internal/websocket"
	"controlsim_go/pkg/logger"
)

// Server encapsula o servidor HTTP de monitoramento com todos os componentes
type Server struct {
	config           *config.Config
	httpServer       *http.Server
	router           *http.ServeMux
	runner           *simulation.Runner
	redisService     *redis.Service
	plcService       *plc.Service
	wsHub            *websocket.Hub
	discoveryService *discovery.DiscoveryService
	serverInfo       ServerInfo
}

// ServerInfo contém informações sobre o servidor
type ServerInfo struct {
	IP           string
	Port         int
	StartTime    time.Time
	Connections  int
	Version      string
	WebSocketURL string
	APIURL       string
}

// NewServer cria uma nova instância do servidor de monitoramento sobre um
// driver de simulação já construído
func NewServer(cfg *config.Config, runner *simulation.Runner) (*Server, error) {
	server := &Server{
		config: cfg,
		runner: runner,
		router: http.NewServeMux(),
		serverInfo: ServerInfo{
			StartTime: time.Now(),
			Version:   "1.0.0",
			Port:      cfg.Server.Port,
		},
	}

	// Determinar IP do servidor
	ip, err := server.getLocalIP()
	if err != nil {
		return nil, fmt.Errorf("erro ao obter IP local: %w", err)
	}
	server.serverInfo.IP = ip

	server.serverInfo.WebSocketURL = fmt.Sprintf("ws://%s:%d/ws", ip, cfg.Server.Port)
	server.serverInfo.APIURL = fmt.Sprintf("http://%s:%d/api", ip, cfg.Server.Port)

	if err := server.initComponents(); err != nil {
		return nil, err
	}

	server.setupRoutes()

	server.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      server.router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	return server, nil
}

// initComponents inicializa os componentes e liga a telemetria do pipeline
func (s *Server) initComponents() error {
	// Inicializar hub WebSocket
	s.wsHub = websocket.NewHub()
	go s.wsHub.Run()

	// Inicializar serviço Redis
	redisService, err := redis.NewService(s.config.Redis)
	if err != nil {
		return fmt.Errorf("erro ao inicializar serviço Redis: %w", err)
	}
	s.redisService = redisService

	// Inicializar serviço do PLC (se habilitado)
	if s.config.PLC.Enabled {
		s.plcService = plc.NewService(s.config.PLC)
	}

	// Inicializar serviço de descoberta
	s.discoveryService = discovery.NewDiscoveryService(s.config.Server.Port)

	// Fontes de consulta do hub
	s.wsHub.SetStatusProvider(s.runner.Status)
	s.wsHub.SetReportProvider(func() (string, string) {
		return s.runner.RunID(), s.runner.Report()
	})

	// Telemetria do comandante: leituras, comandos e transições de modo
	commander := s.runner.Commander()

	commander.RegisterReadingHandler(func(reading models.Reading) {
		s.wsHub.BroadcastReading(reading)
		if err := s.redisService.WriteReading(reading); err != nil {
			logger.Debugf("Persistência da leitura falhou: %v", err)
		}
	})

	commander.RegisterModeChangeHandler(func(change models.ModeChange) {
		s.wsHub.BroadcastModeChange(change)
		if err := s.redisService.WriteModeChange(change); err != nil {
			logger.Debugf("Persistência da transição de modo falhou: %v", err)
		}
		if s.plcService != nil {
			s.plcService.UpdateStatus(s.runner.Status())
		}
	})

	if s.plcService != nil {
		commander.RegisterCommandHandler(s.plcService.UpdateCommand)
	}

	// Alertas do registro do sistema
	s.runner.Log().RegisterAlertHandler(func(text string) {
		s.wsHub.BroadcastAlert(text)
		if err := s.redisService.WriteAlert(text); err != nil {
			logger.Debugf("Persistência do alerta falhou: %v", err)
		}
	})

	return nil
}

// Start inicia o servidor e todos os serviços
func (s *Server) Start() error {
	// Iniciar serviço de descoberta
	if err := s.discoveryService.Start(); err != nil {
		logger.Warnf("Erro ao iniciar serviço de descoberta: %v", err)
		// Não abortar operação se falhar
	}

	// Iniciar serviço do PLC (se habilitado)
	if s.config.PLC.Enabled && s.plcService != nil {
		if err := s.plcService.Start(); err != nil {
			logger.Errorf("Erro ao iniciar serviço PLC: %v", err)
			// Não abortar se o PLC falhar
		}
	}

	s.logServerInfo()

	// Iniciar servidor HTTP
	logger.Infof("Iniciando servidor HTTP na porta %d", s.config.Server.Port)
	if err := s.httpServer.ListenAndServe(); err != http.ErrServerClosed {
		return fmt.Errorf("erro ao iniciar servidor HTTP: %w", err)
	}

	return nil
}

// PublishRunCompletion divulga e persiste o desfecho de uma execução
func (s *Server) PublishRunCompletion() {
	runID := s.runner.RunID()
	report := s.runner.Report()

	s.wsHub.BroadcastStatus(s.runner.Status())
	s.wsHub.BroadcastReport(runID, report)

	if err := s.redisService.WriteStatus(s.runner.Status()); err != nil {
		logger.Debugf("Persistência do status final falhou: %v", err)
	}
	if err := s.redisService.WriteReport(runID, report); err != nil {
		logger.Debugf("Persistência do relatório falhou: %v", err)
	}
}

// Shutdown encerra graciosamente o servidor e todos os serviços
func (s *Server) Shutdown(ctx context.Context) error {
	logger.Info("Iniciando shutdown do servidor")

	if err := s.httpServer.Shutdown(ctx); err != nil {
		logger.Errorf("Erro ao encerrar servidor HTTP: %v", err)
	}

	if s.discoveryService != nil {
		s.discoveryService.Stop()
	}

	if s.plcService != nil {
		s.plcService.Shutdown()
	}

	if s.wsHub != nil {
		s.wsHub.Shutdown()
	}

	if s.redisService != nil {
		s.redisService.Shutdown()
	}

	logger.Info("Shutdown completo")
	return nil
}

// getLocalIP obtém o endereço IP local
func (s *Server) getLocalIP() (string, error) {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return "", err
	}

	for _, addr := range addrs {
		if ipnet, ok := addr.(*net.IPNet); ok && !ipnet.IP.IsLoopback() {
			if ipnet.IP.To4() != nil {
				return ipnet.IP.String(), nil
			}
		}
	}

	return "localhost", nil
}

// GetServerInfo retorna informações sobre o servidor
func (s *Server) GetServerInfo() ServerInfo {
	info := s.serverInfo
	info.Connections = s.wsHub.ClientCount()
	return info
}

// logServerInfo exibe informações do servidor no log
func (s *Server) logServerInfo() {
	logger.Info("===============================================")
	logger.Info("        Control Loop Simulator Monitor         ")
	logger.Info("===============================================")
	logger.Infof("Versão: %s", s.serverInfo.Version)
	logger.Infof("Endereço IP: %s", s.serverInfo.IP)
	logger.Infof("Porta HTTP: %d", s.serverInfo.Port)
	logger.Infof("WebSocket URL: %s", s.serverInfo.WebSocketURL)
	logger.Infof("API URL: %s", s.serverInfo.APIURL)
	logger.Infof("mDNS: %s.%s.%s",
		s.discoveryService.GetInstanceName(),
		discovery.ServiceType,
		discovery.ServiceDomain)
	logger.Info("===============================================")
	logger.Info("Servidor pronto para conexões!")
}
