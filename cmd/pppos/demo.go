package main

import (
	"bufio"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/codelaboratoryltd/pppos/pkg/netif"
	"github.com/codelaboratoryltd/pppos/pkg/pppos"
)

var (
	demoDuration time.Duration
	demoAddr     string
	demoGateway  string
	demoDropWait time.Duration
)

func init() {
	demoCmd.Flags().DurationVar(&demoDuration, "duration", 10*time.Second,
		"How long to keep the demo link up before closing it")
	demoCmd.Flags().StringVar(&demoAddr, "addr", "10.64.64.64",
		"Address the simulated peer assigns")
	demoCmd.Flags().StringVar(&demoGateway, "gateway", "10.64.64.1",
		"Gateway the simulated peer announces")
	demoCmd.Flags().DurationVar(&demoDropWait, "drop-after", 0,
		"Simulate carrier loss after this duration (0 = never)")

	rootCmd.AddCommand(demoCmd)
}

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run a loopback PPP session against a simulated peer",
	Long: `Run the full session lifecycle against an in-process simulated
peer connected through an in-memory pipe:

  1. Activation and engine creation
  2. Connect with PAP credentials
  3. Poll-driven negotiation until the link is up
  4. Graceful close with bounded timeout

No external link required - runs on any platform.`,
	RunE: runDemo,
}

func runDemo(cmd *cobra.Command, args []string) error {
	logger, err := zap.NewDevelopment()
	if err != nil {
		return err
	}
	defer logger.Sync()

	local, remote := net.Pipe()
	defer local.Close()
	defer remote.Close()

	peer := &demoPeer{
		conn:    remote,
		addr:    demoAddr,
		gateway: demoGateway,
		logger:  logger,
	}
	go peer.serve()

	session := pppos.NewSession(
		pppos.NewNetStream(local),
		demoEngineFactory(logger),
		pppos.DefaultConfig(),
		logger,
	)

	if _, err := session.SetActive(true); err != nil {
		return err
	}
	if err := session.Connect(pppos.AuthPAP, "demo", "demo"); err != nil {
		session.SetActive(false)
		return err
	}

	deadline := time.Now().Add(5 * time.Second)
	for !session.IsConnected() && time.Now().Before(deadline) {
		session.Poll()
		time.Sleep(10 * time.Millisecond)
	}

	if !session.IsConnected() {
		session.SetActive(false)
		return fmt.Errorf("demo link did not come up (status=%d)", session.Status())
	}

	addr, netmask, gateway, dns := session.IfConfig()
	logger.Info("Demo link up",
		zap.String("addr", addr),
		zap.String("netmask", netmask),
		zap.String("gateway", gateway),
		zap.String("dns", dns),
	)

	if demoDropWait > 0 {
		time.AfterFunc(demoDropWait, peer.drop)
	}

	stop := time.Now().Add(demoDuration)
	for time.Now().Before(stop) {
		session.Poll()
		time.Sleep(10 * time.Millisecond)
	}

	logger.Info("Closing demo link")
	session.SetActive(false)
	logger.Info("Demo complete", zap.Int("final_status", session.Status()))
	return nil
}

// --- demo engine ---

// The demo engine speaks a newline-delimited text protocol instead of
// real PPP framing, so loopback traffic stays readable in captures:
//
//	-> CONNECT <user> <pass>
//	<- UP <addr> <gateway> <netmask> <dns1> <dns2>
//	-> TERM
//	<- TERMACK
//	<- DROP        (peer-initiated carrier loss)
//	<- REJECT      (authentication refused)
type demoEngine struct {
	nif    *netif.Interface
	out    pppos.OutputFunc
	status pppos.StatusFunc
	logger *zap.Logger

	username string
	password string
	partial  strings.Builder
}

func demoEngineFactory(logger *zap.Logger) pppos.EngineFactory {
	return func(nif *netif.Interface, out pppos.OutputFunc, status pppos.StatusFunc) (pppos.Engine, error) {
		return &demoEngine{
			nif:    nif,
			out:    out,
			status: status,
			logger: logger,
		}, nil
	}
}

func (e *demoEngine) SetAuth(mode pppos.AuthMode, username, password string) {
	e.username = username
	e.password = password
}

func (e *demoEngine) Connect(holdoff time.Duration) error {
	user, pass := e.username, e.password
	if user == "" {
		user, pass = "-", "-"
	}
	e.out([]byte(fmt.Sprintf("CONNECT %s %s\n", user, pass)))
	return nil
}

func (e *demoEngine) Close(immediate bool) {
	e.out([]byte("TERM\n"))
}

func (e *demoEngine) Free() {}

func (e *demoEngine) FeedInput(p []byte) {
	e.partial.Write(p)

	for {
		buffered := e.partial.String()
		idx := strings.IndexByte(buffered, '\n')
		if idx < 0 {
			return
		}
		line := strings.TrimSpace(buffered[:idx])
		e.partial.Reset()
		e.partial.WriteString(buffered[idx+1:])

		if line != "" {
			e.handleLine(line)
		}
	}
}

func (e *demoEngine) handleLine(line string) {
	fields := strings.Fields(line)

	switch fields[0] {
	case "UP":
		if len(fields) < 6 {
			e.status(pppos.EventProtocol)
			return
		}
		e.nif.SetAddrs(net.ParseIP(fields[1]), net.ParseIP(fields[2]), net.ParseIP(fields[3]))
		if e.nif.UsePeerDNS() {
			e.nif.SetDNS(net.ParseIP(fields[4]), net.ParseIP(fields[5]))
		}
		e.status(pppos.LinkUp)

	case "TERMACK":
		e.status(pppos.LinkUserClose)

	case "DROP":
		e.status(pppos.LinkLost)

	case "REJECT":
		e.status(pppos.EventAuthFail)

	default:
		e.logger.Debug("Demo engine ignoring line", zap.String("line", line))
	}
}

// --- simulated peer ---

// demoPeer answers the demo engine from the far end of the pipe.
type demoPeer struct {
	conn    net.Conn
	addr    string
	gateway string
	logger  *zap.Logger
}

func (p *demoPeer) serve() {
	scanner := bufio.NewScanner(p.conn)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		switch {
		case strings.HasPrefix(line, "CONNECT"):
			fmt.Fprintf(p.conn, "UP %s %s 255.255.255.255 8.8.8.8 8.8.4.4\n",
				p.addr, p.gateway)

		case line == "TERM":
			fmt.Fprintf(p.conn, "TERMACK\n")
			return
		}
	}
}

func (p *demoPeer) drop() {
	p.logger.Info("Simulating carrier loss")
	fmt.Fprintf(p.conn, "DROP\n")
}
