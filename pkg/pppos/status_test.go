package pppos_test

import (
	"net"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/codelaboratoryltd/pppos/pkg/netif"
	"github.com/codelaboratoryltd/pppos/pkg/pppos"
)

var _ = Describe("Link events", func() {
	var (
		stream  *fakeStream
		engine  *fakeEngine
		session *pppos.Session
	)

	BeforeEach(func() {
		stream = &fakeStream{}
		engine = nil

		factory := func(nif *netif.Interface, out pppos.OutputFunc, status pppos.StatusFunc) (pppos.Engine, error) {
			engine = &fakeEngine{nif: nif, out: out, status: status}
			return engine, nil
		}

		config := pppos.DefaultConfig()
		config.CloseTimeout = 100 * time.Millisecond
		config.ClosePollInterval = 5 * time.Millisecond

		session = pppos.NewSession(stream, factory, config, nil)
		_, err := session.SetActive(true)
		Expect(err).NotTo(HaveOccurred())
		Expect(session.Connect(pppos.AuthNone, "", "")).To(Succeed())
	})

	linkUp := func(addr string) {
		engine.nif.SetAddrs(net.ParseIP(addr), net.ParseIP("192.0.2.1"), net.ParseIP("255.255.255.255"))
		engine.status(pppos.LinkUp)
	}

	Describe("link up", func() {
		It("sets status to 1 and connected when an address was negotiated", func() {
			linkUp("192.0.2.7")

			Expect(session.Status()).To(Equal(1))
			Expect(session.IsConnected()).To(BeTrue())
		})

		It("sets status to 1 but not connected when the address is zero", func() {
			linkUp("0.0.0.0")

			Expect(session.Status()).To(Equal(1))
			Expect(session.IsConnected()).To(BeFalse())
		})

		It("exposes the negotiated configuration through ifconfig", func() {
			engine.nif.SetAddrs(
				net.ParseIP("192.0.2.7"),
				net.ParseIP("192.0.2.1"),
				net.ParseIP("255.255.255.255"),
			)
			engine.nif.SetDNS(net.ParseIP("203.0.113.53"), nil)
			engine.status(pppos.LinkUp)

			addr, netmask, gateway, dns := session.IfConfig()
			Expect(addr).To(Equal("192.0.2.7"))
			Expect(netmask).To(Equal("255.255.255.255"))
			Expect(gateway).To(Equal("192.0.2.1"))
			Expect(dns).To(Equal("203.0.113.53"))
		})
	})

	Describe("link loss after establishment", func() {
		BeforeEach(func() {
			linkUp("192.0.2.7")
			Expect(session.IsConnected()).To(BeTrue())
		})

		It("clears connected and flags the error for the caller", func() {
			engine.status(pppos.LinkLost)

			Expect(session.IsConnected()).To(BeFalse())
			Expect(session.Status()).To(Equal(-1))
		})

		It("does not clear the connect sequence: reconnect is the caller's call", func() {
			engine.status(pppos.LinkLost)

			// The original connect is still considered in progress.
			err := session.Connect(pppos.AuthNone, "", "")
			Expect(err).To(MatchError(pppos.ErrConnectInProgress))
			Expect(engine.connectCalls).To(Equal(1))
		})
	})

	Describe("negotiation failures", func() {
		DescribeTable("funnel into the non-terminal failure branch",
			func(ev pppos.LinkEvent) {
				engine.status(ev)

				Expect(session.Status()).To(Equal(-1))
				Expect(session.IsConnected()).To(BeFalse())
			},
			Entry("invalid parameter", pppos.EventParam),
			Entry("open failed", pppos.EventOpen),
			Entry("invalid device", pppos.EventDevice),
			Entry("allocation failed", pppos.EventAlloc),
			Entry("auth failed", pppos.EventAuthFail),
			Entry("protocol error", pppos.EventProtocol),
			Entry("peer dead", pppos.EventPeerDead),
			Entry("idle timeout", pppos.EventIdleTimeout),
			Entry("connect time exceeded", pppos.EventConnectTime),
			Entry("loopback", pppos.EventLoopback),
		)
	})

	Describe("user close", func() {
		It("terminates a close sequence without flagging an error", func() {
			engine.status(pppos.LinkUserClose)

			Expect(session.Status()).To(BeZero())

			// Deactivation finds the close already confirmed.
			start := time.Now()
			_, err := session.SetActive(false)
			Expect(err).NotTo(HaveOccurred())
			Expect(time.Since(start)).To(BeNumerically("<", 50*time.Millisecond))
		})
	})
})

var _ = Describe("LinkEvent", func() {
	DescribeTable("String() returns correct event names",
		func(ev pppos.LinkEvent, expected string) {
			Expect(ev.String()).To(Equal(expected))
		},
		Entry("Link-Up", pppos.LinkUp, "Link-Up"),
		Entry("User-Close", pppos.LinkUserClose, "User-Close"),
		Entry("Link-Lost", pppos.LinkLost, "Link-Lost"),
		Entry("Invalid-Parameter", pppos.EventParam, "Invalid-Parameter"),
		Entry("Open-Failed", pppos.EventOpen, "Open-Failed"),
		Entry("Invalid-Device", pppos.EventDevice, "Invalid-Device"),
		Entry("Alloc-Failed", pppos.EventAlloc, "Alloc-Failed"),
		Entry("Auth-Failed", pppos.EventAuthFail, "Auth-Failed"),
		Entry("Protocol-Error", pppos.EventProtocol, "Protocol-Error"),
		Entry("Peer-Dead", pppos.EventPeerDead, "Peer-Dead"),
		Entry("Idle-Timeout", pppos.EventIdleTimeout, "Idle-Timeout"),
		Entry("Connect-Time-Exceeded", pppos.EventConnectTime, "Connect-Time-Exceeded"),
		Entry("Loopback", pppos.EventLoopback, "Loopback"),
	)

	It("should return Unknown for invalid events", func() {
		Expect(pppos.LinkEvent(99).String()).To(Equal("Unknown"))
	})
})

var _ = Describe("AuthMode", func() {
	DescribeTable("String() returns correct mode names",
		func(mode pppos.AuthMode, expected string) {
			Expect(mode.String()).To(Equal(expected))
		},
		Entry("None", pppos.AuthNone, "None"),
		Entry("PAP", pppos.AuthPAP, "PAP"),
		Entry("CHAP", pppos.AuthCHAP, "CHAP"),
	)

	It("should return Unknown for invalid modes", func() {
		Expect(pppos.AuthMode(42).String()).To(Equal("Unknown"))
	})
})
