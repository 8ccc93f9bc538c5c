package verifier

import (
	"context"
	"fmt"
	"net"
	"net/textproto"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/proxy"
)

// ProbeResult is the outcome of one RCPT TO conversation.
type ProbeResult struct {
	Outcome TriState
	Note    string
}

// Prober runs a single-recipient existence check against one mail
// exchanger. Implementations never send a message; the conversation
// stops after the RCPT TO reply.
type Prober interface {
	Probe(ctx context.Context, mxHost, email string) ProbeResult
}

// senderPool holds plausible public-provider MAIL FROM addresses. The
// probe rotates through them so repeated probes from one deployment
// don't present a single fingerprintable envelope sender.
var senderPool = []string{
	"miles.bennett87@gmail.com",
	"sarah.jennings22@outlook.com",
	"dkowalski1991@yahoo.com",
	"lena.hoffman.mail@gmx.com",
	"tom.reiner84@gmail.com",
}

// smtpProber is the production Prober: a raw-socket SMTP client that
// walks the conversation one state at a time, each transition guarded
// by the expected reply-code class.
type smtpProber struct {
	helloHost string
	port      int
	timeout   time.Duration
	pacing    time.Duration
	proxyAddr string
	log       *logrus.Entry

	senderIdx uint32
}

func newSMTPProber(cfg Config, log *logrus.Entry) *smtpProber {
	return &smtpProber{
		helloHost: cfg.HelloHostname,
		port:      cfg.SMTPPort,
		timeout:   cfg.ConnectTimeout,
		pacing:    cfg.CommandPacing,
		proxyAddr: cfg.SocksProxyAddr,
		log:       log,
	}
}

// nextSender rotates through the sender pool.
func (p *smtpProber) nextSender() string {
	idx := atomic.AddUint32(&p.senderIdx, 1)
	return senderPool[int(idx)%len(senderPool)]
}

func (p *smtpProber) dial(ctx context.Context, addr string) (net.Conn, error) {
	if p.proxyAddr != "" {
		dialer, err := proxy.SOCKS5("tcp", p.proxyAddr, nil, &net.Dialer{Timeout: p.timeout})
		if err != nil {
			return nil, err
		}
		if cd, ok := dialer.(proxy.ContextDialer); ok {
			return cd.DialContext(ctx, "tcp", addr)
		}
		return dialer.Dial("tcp", addr)
	}
	d := net.Dialer{Timeout: p.timeout}
	return d.DialContext(ctx, "tcp", addr)
}

// Probe opens a fresh connection, walks the SMTP dialog up to RCPT TO
// and interprets the recipient reply code. Every exit path sends QUIT
// and closes the socket so the remote server never holds a half-open
// conversation.
func (p *smtpProber) Probe(ctx context.Context, mxHost, email string) ProbeResult {
	addr := net.JoinHostPort(mxHost, fmt.Sprintf("%d", p.port))

	conn, err := p.dial(ctx, addr)
	if err != nil {
		p.log.WithFields(logrus.Fields{"mx": mxHost, "error": err}).Debug("SMTP dial failed")
		return ProbeResult{Outcome: TriUnknown, Note: "connection error"}
	}

	tp := textproto.NewConn(conn)
	defer func() {
		// Best effort; the server may already have hung up.
		conn.SetDeadline(time.Now().Add(2 * time.Second))
		_ = tp.PrintfLine("QUIT")
		_ = tp.Close()
	}()

	// Greeting: the banner must carry a 220 code before we speak.
	code, _, err := p.read(conn, tp)
	if err != nil || code != 220 {
		return ProbeResult{Outcome: TriUnknown, Note: "invalid banner"}
	}

	// Extended greeting, with plain HELO as the fallback for servers
	// that reject EHLO outright.
	code, err = p.exchange(conn, tp, "EHLO %s", p.helloHost)
	if err != nil || code/100 != 2 {
		code, err = p.exchange(conn, tp, "HELO %s", p.helloHost)
		if err != nil || code/100 != 2 {
			return ProbeResult{Outcome: TriUnknown, Note: "HELO failed"}
		}
	}

	code, err = p.exchange(conn, tp, "MAIL FROM:<%s>", p.nextSender())
	if err != nil || code/100 != 2 {
		return ProbeResult{Outcome: TriUnknown, Note: "MAIL FROM rejected"}
	}

	code, err = p.exchange(conn, tp, "RCPT TO:<%s>", email)
	if err != nil {
		return ProbeResult{Outcome: TriUnknown, Note: "inconclusive"}
	}

	switch code {
	case 250, 251:
		return ProbeResult{Outcome: TriTrue, Note: "mailbox verified"}
	case 550, 551, 552, 553:
		return ProbeResult{Outcome: TriFalse, Note: "mailbox does not exist"}
	default:
		return ProbeResult{Outcome: TriUnknown, Note: "inconclusive"}
	}
}

// exchange sends one command, waits the fixed pacing delay for slow
// servers, then reads the multi-line reply.
func (p *smtpProber) exchange(conn net.Conn, tp *textproto.Conn, format string, args ...interface{}) (int, error) {
	conn.SetDeadline(time.Now().Add(p.timeout))
	if err := tp.PrintfLine(format, args...); err != nil {
		return 0, err
	}
	if p.pacing > 0 {
		time.Sleep(p.pacing)
	}
	code, _, err := p.read(conn, tp)
	return code, err
}

// read consumes one full reply, tolerating continuation lines, and
// returns the 3-digit code. A reply with no parseable code is an error.
func (p *smtpProber) read(conn net.Conn, tp *textproto.Conn) (int, string, error) {
	conn.SetDeadline(time.Now().Add(p.timeout))
	code, msg, err := tp.ReadResponse(0)
	if err != nil {
		if protoErr, ok := err.(*textproto.Error); ok && protoErr.Code > 0 {
			// Non-2xx multiline parses land here; the code is still valid.
			return protoErr.Code, protoErr.Msg, nil
		}
		return 0, "", err
	}
	return code, msg, nil
}
