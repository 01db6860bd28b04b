package pppos_test

import (
	"bytes"
	"net"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/codelaboratoryltd/pppos/pkg/netif"
	"github.com/codelaboratoryltd/pppos/pkg/pppos"
)

var _ = Describe("Stream bridge", func() {
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

		session = pppos.NewSession(stream, factory, pppos.DefaultConfig(), nil)
		_, err := session.SetActive(true)
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("input path", func() {
		It("returns 0 and performs no decode call when the link is idle", func() {
			Expect(session.Poll()).To(BeZero())
			Expect(engine.feedCalls).To(BeZero())
		})

		It("forwards exactly the bytes that arrived", func() {
			payload := []byte{0x7e, 0xff, 0x7d, 0x23, 0xc0, 0x21}
			stream.queue(payload)

			Expect(session.Poll()).To(Equal(len(payload)))
			Expect(engine.fed).To(Equal(payload))
			Expect(engine.feedCalls).To(Equal(1))
		})

		It("consumes large bursts across consecutive polls", func() {
			burst := bytes.Repeat([]byte{0x7e}, 300)
			stream.queue(burst)

			// The read buffer caps a single poll at 256 bytes.
			Expect(session.Poll()).To(Equal(256))
			Expect(session.Poll()).To(Equal(44))
			Expect(session.Poll()).To(BeZero())
			Expect(engine.fed).To(Equal(burst))
		})

		It("returns 0 when the session is inactive", func() {
			_, err := session.SetActive(false)
			Expect(err).NotTo(HaveOccurred())

			stream.queue([]byte{0x7e})
			Expect(session.Poll()).To(BeZero())
		})
	})

	Describe("output path", func() {
		It("writes the engine's frames to the stream and reports the count", func() {
			frame := []byte{0x7e, 0x21, 0x45, 0x7e}

			n := engine.out(frame)
			Expect(n).To(Equal(len(frame)))
			Expect(stream.written).To(Equal(frame))
		})
	})
})

var _ = Describe("NetStream", func() {
	var (
		local  net.Conn
		remote net.Conn
		stream *pppos.NetStream
	)

	BeforeEach(func() {
		local, remote = net.Pipe()
		stream = pppos.NewNetStream(local)
	})

	AfterEach(func() {
		local.Close()
		remote.Close()
	})

	It("treats a quiet link as idle, not as an error", func() {
		buf := make([]byte, 256)
		n, err := stream.ReadNonBlocking(buf)
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(BeZero())
	})

	It("returns pending bytes without blocking", func() {
		go func() {
			remote.Write([]byte("hello"))
		}()

		buf := make([]byte, 256)
		Eventually(func() int {
			n, _ := stream.ReadNonBlocking(buf)
			return n
		}, time.Second, 5*time.Millisecond).Should(Equal(5))
	})

	It("blocks writes until the peer accepts them", func() {
		received := make(chan []byte, 1)
		go func() {
			buf := make([]byte, 16)
			n, _ := remote.Read(buf)
			received <- buf[:n]
		}()

		n, err := stream.Write([]byte("frame"))
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(Equal(5))
		Expect(<-received).To(Equal([]byte("frame")))
	})
})
