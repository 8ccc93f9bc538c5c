package verifier

import (
	"context"
	"net"
	"net/textproto"
	"strconv"
	"strings"
	"testing"
	"time"
)

// smtpScript configures the fake server's reply per command verb. A
// missing verb gets a 250 reply; replies may contain multiple lines.
type smtpScript struct {
	banner string
	ehlo   string
	helo   string
	mail   string
	rcpt   string
}

// startFakeSMTP runs a scripted SMTP server on a loopback port and
// returns the host and port to probe. The listener shuts down with the
// test.
func startFakeSMTP(t *testing.T, script smtpScript) (string, int) {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { ln.Close() })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go serveScript(conn, script)
		}
	}()

	host, portStr, _ := net.SplitHostPort(ln.Addr().String())
	port, _ := strconv.Atoi(portStr)
	return host, port
}

func serveScript(conn net.Conn, script smtpScript) {
	defer conn.Close()
	tp := textproto.NewConn(conn)

	banner := script.banner
	if banner == "" {
		banner = "220 mx.test.example ESMTP ready"
	}
	writeReply(tp, banner)

	for {
		line, err := tp.ReadLine()
		if err != nil {
			return
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		switch strings.ToUpper(fields[0]) {
		case "EHLO":
			writeReply(tp, orDefault(script.ehlo, "250-mx.test.example\n250 PIPELINING"))
		case "HELO":
			writeReply(tp, orDefault(script.helo, "250 mx.test.example"))
		case "MAIL":
			writeReply(tp, orDefault(script.mail, "250 2.1.0 sender ok"))
		case "RCPT":
			writeReply(tp, orDefault(script.rcpt, "250 2.1.5 recipient ok"))
		case "QUIT":
			writeReply(tp, "221 2.0.0 bye")
			return
		default:
			writeReply(tp, "250 ok")
		}
	}
}

func writeReply(tp *textproto.Conn, reply string) {
	for _, line := range strings.Split(reply, "\n") {
		_ = tp.PrintfLine("%s", line)
	}
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

func newTestProber(port int) *smtpProber {
	return &smtpProber{
		helloHost: "verify.test.example",
		port:      port,
		timeout:   3 * time.Second,
		pacing:    0,
		log:       testLogger(),
	}
}

func TestProbeAcceptedRecipient(t *testing.T) {
	host, port := startFakeSMTP(t, smtpScript{})
	p := newTestProber(port)

	res := p.Probe(context.Background(), host, "jane.roe@corp.example")

	if !res.Outcome.True() {
		t.Errorf("outcome = %s, want true", res.Outcome)
	}
	if res.Note != "mailbox verified" {
		t.Errorf("note = %q", res.Note)
	}
}

func TestProbeRejectedRecipient(t *testing.T) {
	for _, code := range []string{"550", "551", "552", "553"} {
		t.Run(code, func(t *testing.T) {
			host, port := startFakeSMTP(t, smtpScript{
				rcpt: code + " 5.1.1 no such user",
			})
			p := newTestProber(port)

			res := p.Probe(context.Background(), host, "ghost@corp.example")

			if !res.Outcome.False() {
				t.Errorf("outcome = %s, want false", res.Outcome)
			}
			if res.Note != "mailbox does not exist" {
				t.Errorf("note = %q", res.Note)
			}
		})
	}
}

func TestProbeTemporaryFailureIsInconclusive(t *testing.T) {
	host, port := startFakeSMTP(t, smtpScript{
		rcpt: "451 4.7.1 greylisted, try again later",
	})
	p := newTestProber(port)

	res := p.Probe(context.Background(), host, "jane.roe@corp.example")

	if res.Outcome != TriUnknown {
		t.Errorf("outcome = %s, want unknown", res.Outcome)
	}
	if res.Note != "inconclusive" {
		t.Errorf("note = %q", res.Note)
	}
}

func TestProbeInvalidBanner(t *testing.T) {
	host, port := startFakeSMTP(t, smtpScript{
		banner: "554 mx.test.example not accepting connections",
	})
	p := newTestProber(port)

	res := p.Probe(context.Background(), host, "jane.roe@corp.example")

	if res.Outcome != TriUnknown || res.Note != "invalid banner" {
		t.Errorf("got (%s, %q), want unknown / invalid banner", res.Outcome, res.Note)
	}
}

func TestProbeFallsBackToHELO(t *testing.T) {
	host, port := startFakeSMTP(t, smtpScript{
		ehlo: "502 5.5.1 EHLO not implemented",
	})
	p := newTestProber(port)

	res := p.Probe(context.Background(), host, "jane.roe@corp.example")

	if !res.Outcome.True() {
		t.Errorf("outcome = %s, want true via HELO fallback", res.Outcome)
	}
}

func TestProbeGreetingFallbackFails(t *testing.T) {
	host, port := startFakeSMTP(t, smtpScript{
		ehlo: "502 5.5.1 EHLO not implemented",
		helo: "502 5.5.1 HELO not implemented either",
	})
	p := newTestProber(port)

	res := p.Probe(context.Background(), host, "jane.roe@corp.example")

	if res.Outcome != TriUnknown || res.Note != "HELO failed" {
		t.Errorf("got (%s, %q), want unknown / HELO failed", res.Outcome, res.Note)
	}
}

func TestProbeSenderRejected(t *testing.T) {
	host, port := startFakeSMTP(t, smtpScript{
		mail: "550 5.7.1 sender blocked",
	})
	p := newTestProber(port)

	res := p.Probe(context.Background(), host, "jane.roe@corp.example")

	if res.Outcome != TriUnknown || res.Note != "MAIL FROM rejected" {
		t.Errorf("got (%s, %q), want unknown / MAIL FROM rejected", res.Outcome, res.Note)
	}
}

func TestProbeConnectionError(t *testing.T) {
	// Grab a port and close it so the dial is refused.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	host, portStr, _ := net.SplitHostPort(ln.Addr().String())
	port, _ := strconv.Atoi(portStr)
	ln.Close()

	p := newTestProber(port)
	p.timeout = time.Second

	res := p.Probe(context.Background(), host, "jane.roe@corp.example")

	if res.Outcome != TriUnknown || res.Note != "connection error" {
		t.Errorf("got (%s, %q), want unknown / connection error", res.Outcome, res.Note)
	}
}

func TestProbeRotatesSenders(t *testing.T) {
	p := newTestProber(0)

	seen := map[string]struct{}{}
	for i := 0; i < len(senderPool); i++ {
		seen[p.nextSender()] = struct{}{}
	}
	if len(seen) != len(senderPool) {
		t.Errorf("rotated through %d senders, want %d distinct", len(seen), len(senderPool))
	}
}
