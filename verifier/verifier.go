package verifier

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Config carries the network knobs for the production resolver and
// prober. Zero values fall back to the defaults below.
type Config struct {
	// HelloHostname is the identity sent with EHLO/HELO.
	HelloHostname string
	// SMTPPort is the mail exchanger port to probe, normally 25.
	SMTPPort int
	// ConnectTimeout bounds the TCP dial and every socket read.
	ConnectTimeout time.Duration
	// CommandPacing is the fixed delay between sending a command and
	// reading its reply, a tolerance for slow servers.
	CommandPacing time.Duration
	// DNSTimeout bounds each resolver query.
	DNSTimeout time.Duration
	// SocksProxyAddr, when set, routes probe connections through a
	// SOCKS5 proxy (host:port).
	SocksProxyAddr string
}

const (
	defaultHelloHostname  = "verify.lookingup.online"
	defaultSMTPPort       = 25
	defaultConnectTimeout = 15 * time.Second
	defaultCommandPacing  = 500 * time.Millisecond
	defaultDNSTimeout     = 5 * time.Second
)

func (c *Config) applyDefaults() {
	if c.HelloHostname == "" {
		c.HelloHostname = defaultHelloHostname
	}
	if c.SMTPPort == 0 {
		c.SMTPPort = defaultSMTPPort
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = defaultConnectTimeout
	}
	if c.CommandPacing < 0 {
		c.CommandPacing = defaultCommandPacing
	}
	if c.DNSTimeout <= 0 {
		c.DNSTimeout = defaultDNSTimeout
	}
}

// Options are the per-call flags. SMTP and catch-all checks are
// individually toggleable so callers can run cheaper syntax/domain-only
// passes when probing is undesired or blocked.
type Options struct {
	CheckSMTP     bool
	CheckCatchAll bool
	// Delay is the pause inserted between consecutive probes in batch
	// and discovery runs. It is threaded through explicitly so
	// concurrent runs can pace themselves independently.
	Delay time.Duration
}

// DefaultOptions enables both probe stages with no inter-probe delay.
func DefaultOptions() Options {
	return Options{CheckSMTP: true, CheckCatchAll: true}
}

// Verifier checks whether a mailbox plausibly exists without sending a
// message. Each verification is a self-contained sequence of blocking
// network calls; a Verifier is safe for concurrent use because all of
// its state is read-only after construction.
type Verifier struct {
	resolver Resolver
	prober   Prober
	sets     Sets
	log      *logrus.Entry
}

// New builds a production Verifier with the given network config and
// classification sets.
func New(cfg Config, sets Sets, log *logrus.Entry) *Verifier {
	cfg.applyDefaults()
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Verifier{
		resolver: newNetResolver(cfg.DNSTimeout),
		prober:   newSMTPProber(cfg, log),
		sets:     sets,
		log:      log,
	}
}

// Verify runs the full pipeline for one address: syntax, domain
// existence, MX lookup, SMTP probe, catch-all probe, classification and
// scoring. Failures never surface as errors; every outcome terminates
// in a fully populated Result.
func (v *Verifier) Verify(ctx context.Context, email string, opts Options) *Result {
	email = strings.ToLower(strings.TrimSpace(email))
	result := &Result{Email: email}

	if err := validateSyntax(email); err != nil {
		result.addDetail("Invalid syntax: " + err.Error())
		result.ConfidenceScore = computeScore(result)
		result.Status = StatusInvalid
		return result
	}
	result.SyntaxValid = true
	result.addDetail("Valid email syntax")

	local, domain := splitAddress(email)

	if !v.resolver.Exists(ctx, domain) {
		result.addDetail("Domain does not exist")
		result.ConfidenceScore = computeScore(result)
		result.Status = StatusInvalid
		return result
	}
	result.DomainExists = true
	result.addDetail("Domain exists")

	mxHosts := v.resolver.LookupMX(ctx, domain)
	if len(mxHosts) == 0 {
		result.addDetail("No MX records found")
		result.ConfidenceScore = computeScore(result)
		result.Status = StatusInvalid
		return result
	}
	result.MXRecordsExist = true
	result.MXRecords = mxHosts
	result.addDetail(fmt.Sprintf("Found %d MX record(s)", len(mxHosts)))

	// Classification runs only once the address is known to be
	// routable; an early exit scores on the DNS facts alone.
	result.IsDisposable = v.sets.isDisposable(domain)
	result.IsRoleBased = v.sets.isRoleBased(local)
	result.IsFreeProvider = v.sets.isFreeProvider(domain)
	if result.IsDisposable {
		result.addDetail("Disposable email domain")
	}
	if result.IsRoleBased {
		result.addDetail("Role-based address")
	}
	if result.IsFreeProvider {
		result.addDetail("Free email provider")
	}

	if opts.CheckSMTP {
		probe := v.prober.Probe(ctx, mxHosts[0], email)
		result.SMTPVerified = probe.Outcome
		result.addDetail("SMTP check: " + probe.Note)

		// A domain that just rejected the real address cannot be
		// catch-all; skip the second probe.
		if opts.CheckCatchAll && !probe.Outcome.False() {
			v.detectCatchAll(ctx, mxHosts[0], domain, result)
		}
	}

	finalize(result)
	return result
}

// detectCatchAll probes a synthetic, near-certainly-nonexistent local
// part on the same exchanger. Acceptance means the server takes any
// recipient and per-address verification is unreliable there.
func (v *Verifier) detectCatchAll(ctx context.Context, mxHost, domain string, result *Result) {
	synthetic := fmt.Sprintf("%s@%s", syntheticLocalPart(), domain)
	probe := v.prober.Probe(ctx, mxHost, synthetic)

	switch probe.Outcome {
	case TriTrue:
		result.IsCatchAll = TriTrue
		result.addDetail("Catch-all domain detected")
	case TriFalse:
		result.IsCatchAll = TriFalse
		result.addDetail("Not a catch-all domain")
	default:
		result.IsCatchAll = TriUnknown
		result.addDetail("Catch-all check inconclusive")
	}
}

// syntheticLocalPart builds a local part with a random numeric suffix
// that is vanishingly unlikely to collide with a real mailbox.
func syntheticLocalPart() string {
	return fmt.Sprintf("lookup-probe-%012d", rand.Int63n(1e12))
}
