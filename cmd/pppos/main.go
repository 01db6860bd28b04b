package main

import (
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/codelaboratoryltd/pppos/pkg/metrics"
	"github.com/codelaboratoryltd/pppos/pkg/pppos"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "pppos",
	Short: "PPP-over-stream session adapter",
	Long: `pppos runs a PPP link over a duplex byte stream (serial device,
TCP socket, unix socket) and manages it as a single network interface.`,
	Version: fmt.Sprintf("%s (commit: %s)", version, commit),
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a PPP session over a stream",
	RunE:  runSession,
}

var (
	streamAddr   string
	configFile   string
	logLevel     string
	metricsAddr  string
	authMode     string
	username     string
	password     string
	pollInterval time.Duration
	ifaceName    string
	applyTo      string
)

func init() {
	runCmd.Flags().StringVar(&streamAddr, "stream", "",
		"Stream to run PPP over: tcp://host:port, unix://path, or a device path")
	runCmd.Flags().StringVar(&configFile, "config", "/etc/pppos/config.yaml",
		"YAML config file (flags take precedence)")
	runCmd.Flags().StringVar(&logLevel, "log-level", "info",
		"Log level: debug, info, warn, error")
	runCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "",
		"Prometheus metrics listen address (empty = disabled)")
	runCmd.Flags().StringVar(&authMode, "auth", "none",
		"Authentication mode: none, pap, chap")
	runCmd.Flags().StringVar(&username, "username", "", "Authentication username")
	runCmd.Flags().StringVar(&password, "password", "", "Authentication password")
	runCmd.Flags().DurationVar(&pollInterval, "poll-interval", 10*time.Millisecond,
		"Delay between stream polls when the link is idle")
	runCmd.Flags().StringVar(&ifaceName, "interface", "ppp0",
		"Name for the managed network interface")
	runCmd.Flags().StringVar(&applyTo, "apply-to", "",
		"Host interface to push the negotiated address and default route onto (empty = disabled)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("pppos %s (commit: %s)\n", version, commit)
	},
}

func runSession(cmd *cobra.Command, args []string) error {
	logger, err := initLogger(logLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if err := loadConfigFile(cmd, logger); err != nil {
		return err
	}

	if streamAddr == "" {
		return fmt.Errorf("--stream is required")
	}

	mode, err := parseAuthMode(authMode)
	if err != nil {
		return err
	}

	stream, closeStream, err := openStream(streamAddr)
	if err != nil {
		return err
	}
	defer closeStream()

	config := pppos.DefaultConfig()
	config.InterfaceName = ifaceName

	// The binary ships with the built-in line-protocol engine for link
	// diagnostics; library consumers supply a real PPP engine factory.
	session := pppos.NewSession(stream, demoEngineFactory(logger), config, logger)

	if metricsAddr != "" {
		m := metrics.New()
		if err := m.Register(); err != nil {
			return fmt.Errorf("register metrics: %w", err)
		}
		session.SetRecorder(m)

		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", m.Handler())
			logger.Info("Metrics server listening", zap.String("addr", metricsAddr))
			if err := http.ListenAndServe(metricsAddr, mux); err != nil {
				logger.Error("Metrics server failed", zap.Error(err))
			}
		}()
	}

	var tracker *applyTracker
	if applyTo != "" {
		applier, err := newLinkApplier()
		if err != nil {
			return err
		}
		defer applier.Close()
		tracker = &applyTracker{applier: applier, device: applyTo, logger: logger}
	}

	if _, err := session.SetActive(true); err != nil {
		return err
	}

	if err := session.Connect(mode, username, password); err != nil {
		session.SetActive(false)
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("Session running",
		zap.String("stream", streamAddr),
		zap.String("auth_mode", mode.String()),
	)

	wasConnected := false
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case sig := <-sigCh:
			logger.Info("Shutting down", zap.String("signal", sig.String()))
			session.SetActive(false)
			tracker.onTransition(session.Netif(), false)
			return nil

		case <-ticker.C:
			session.Poll()

			if connected := session.IsConnected(); connected != wasConnected {
				wasConnected = connected
				tracker.onTransition(session.Netif(), connected)
				if connected {
					addr, netmask, gateway, dns := session.IfConfig()
					logger.Info("Connected",
						zap.String("addr", addr),
						zap.String("netmask", netmask),
						zap.String("gateway", gateway),
						zap.String("dns", dns),
					)
				} else {
					logger.Warn("Link lost, waiting for operator action",
						zap.Int("status", session.Status()),
					)
				}
			}
		}
	}
}

// openStream dials or opens the configured stream. The returned closer
// releases the underlying connection or file; the session itself never
// closes the stream.
func openStream(addr string) (pppos.Stream, func(), error) {
	switch {
	case strings.HasPrefix(addr, "tcp://"):
		conn, err := net.Dial("tcp", strings.TrimPrefix(addr, "tcp://"))
		if err != nil {
			return nil, nil, fmt.Errorf("dial %s: %w", addr, err)
		}
		return pppos.NewNetStream(conn), func() { conn.Close() }, nil

	case strings.HasPrefix(addr, "unix://"):
		conn, err := net.Dial("unix", strings.TrimPrefix(addr, "unix://"))
		if err != nil {
			return nil, nil, fmt.Errorf("dial %s: %w", addr, err)
		}
		return pppos.NewNetStream(conn), func() { conn.Close() }, nil

	default:
		file, err := os.OpenFile(addr, os.O_RDWR, 0)
		if err != nil {
			return nil, nil, fmt.Errorf("open %s: %w", addr, err)
		}
		return pppos.NewFileStream(file), func() { file.Close() }, nil
	}
}

func parseAuthMode(s string) (pppos.AuthMode, error) {
	switch strings.ToLower(s) {
	case "none", "":
		return pppos.AuthNone, nil
	case "pap":
		return pppos.AuthPAP, nil
	case "chap":
		return pppos.AuthCHAP, nil
	default:
		return 0, fmt.Errorf("invalid auth mode: %s", s)
	}
}

func initLogger(level string) (*zap.Logger, error) {
	var zapLevel zap.AtomicLevel
	switch level {
	case "debug":
		zapLevel = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		zapLevel = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		zapLevel = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		zapLevel = zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		return nil, fmt.Errorf("invalid log level: %s", level)
	}

	config := zap.NewProductionConfig()
	config.Level = zapLevel
	config.Encoding = "json"

	return config.Build()
}

// loadConfigFile reads a YAML config file and applies values to unset
// flags. CLI flags take precedence over config file values.
func loadConfigFile(cmd *cobra.Command, logger *zap.Logger) error {
	data, err := os.ReadFile(configFile)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read config file %s: %w", configFile, err)
	}

	var cfg map[string]string
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", configFile, err)
	}

	logger.Info("Loaded config file", zap.String("path", configFile), zap.Int("keys", len(cfg)))

	for key, val := range cfg {
		f := cmd.Flags().Lookup(key)
		if f == nil {
			logger.Warn("Unknown config key, skipping", zap.String("key", key))
			continue
		}
		if cmd.Flags().Changed(key) {
			continue
		}
		if err := cmd.Flags().Set(key, val); err != nil {
			logger.Warn("Failed to set config value",
				zap.String("key", key),
				zap.String("value", val),
				zap.Error(err),
			)
		}
	}

	return nil
}
