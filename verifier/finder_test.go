package verifier

import (
	"context"
	"testing"
	"time"
)

// scriptedProber answers per-address outcomes, defaulting to unknown.
type scriptedProber struct {
	outcomes map[string]ProbeResult
	probed   []string
}

func (s *scriptedProber) Probe(ctx context.Context, mxHost, email string) ProbeResult {
	s.probed = append(s.probed, email)
	if r, ok := s.outcomes[email]; ok {
		return r
	}
	return ProbeResult{Outcome: TriUnknown, Note: "inconclusive"}
}

func TestFindFirstConfirmedCandidateWins(t *testing.T) {
	// The 9th pattern for John Doe at acme.com is j.doe@acme.com.
	resolver := &fakeResolver{exists: true, mx: []string{"mx.acme.com"}}
	prober := &scriptedProber{outcomes: map[string]ProbeResult{
		"j.doe@acme.com": {Outcome: TriTrue, Note: "mailbox verified"},
	}}
	v := newTestVerifier(resolver, prober)

	find := v.Find(context.Background(), "John", "Doe", "acme.com", Options{CheckSMTP: true})

	if find.Email != "j.doe@acme.com" {
		t.Fatalf("found %q, want j.doe@acme.com", find.Email)
	}
	if find.Pattern != "f.last" {
		t.Errorf("pattern = %q, want f.last", find.Pattern)
	}
	if !find.Best.SMTPVerified.True() {
		t.Error("winning candidate must be SMTP-confirmed")
	}
	if len(prober.probed) != 9 {
		t.Errorf("probed %d candidates, want exactly 9 (stop on first success)", len(prober.probed))
	}
	if len(find.Candidates) != 9 {
		t.Errorf("recorded %d candidates, want 9", len(find.Candidates))
	}
}

func TestFindFallsBackToBestScore(t *testing.T) {
	resolver := &fakeResolver{exists: true, mx: []string{"mx.acme.com"}}
	prober := &scriptedProber{outcomes: map[string]ProbeResult{}}
	v := newTestVerifier(resolver, prober)

	find := v.Find(context.Background(), "John", "Doe", "acme.com", Options{CheckSMTP: true})

	if len(find.Candidates) != 26 {
		t.Fatalf("probed %d candidates, want all 26", len(find.Candidates))
	}
	// All candidates score identically, so the earliest one wins the tie.
	if find.Email != "john.doe@acme.com" {
		t.Errorf("best = %q, want the first-seen candidate on a tie", find.Email)
	}
	if find.Best == nil || find.Best.SMTPVerified.True() {
		t.Error("fallback best candidate must not claim SMTP confirmation")
	}
}

func TestFindNoCatchAllProbesPerCandidate(t *testing.T) {
	resolver := &fakeResolver{exists: true, mx: []string{"mx.acme.com"}}
	prober := &scriptedProber{outcomes: map[string]ProbeResult{
		"john.doe@acme.com": {Outcome: TriTrue, Note: "mailbox verified"},
	}}
	v := newTestVerifier(resolver, prober)

	v.Find(context.Background(), "John", "Doe", "acme.com", Options{CheckSMTP: true, CheckCatchAll: true})

	// One probe for the confirmed candidate, no synthetic follow-up.
	if len(prober.probed) != 1 {
		t.Errorf("probed = %v, want a single probe without catch-all checks", prober.probed)
	}
}

func TestFindStopsBetweenCandidatesOnCancel(t *testing.T) {
	resolver := &fakeResolver{exists: true, mx: []string{"mx.acme.com"}}
	prober := &scriptedProber{outcomes: map[string]ProbeResult{}}
	v := newTestVerifier(resolver, prober)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	find := v.Find(ctx, "John", "Doe", "acme.com", Options{CheckSMTP: true, Delay: time.Millisecond})

	if len(find.Candidates) > 1 {
		t.Errorf("probed %d candidates after cancellation, want at most 1", len(find.Candidates))
	}
}
