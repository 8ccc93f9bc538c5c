package verifier

import (
	"context"
	"time"
)

// CandidateResult is one probed discovery candidate with its full
// verification result.
type CandidateResult struct {
	Pattern string  `json:"pattern"`
	Result  *Result `json:"result"`
}

// FindResult is the outcome of a discovery run: the best candidate plus
// every candidate probed before the run ended.
type FindResult struct {
	Email      string            `json:"email"`
	Pattern    string            `json:"pattern"`
	Best       *Result           `json:"result"`
	Candidates []CandidateResult `json:"candidates"`
}

// Find discovers a mailbox for a (first, last, domain) triple by
// probing the generated patterns in priority order. The first candidate
// whose mailbox is SMTP-confirmed wins outright and later patterns are
// never probed; otherwise the highest-scoring candidate wins, ties
// keeping the earlier-seen one. Per-candidate verification runs with
// SMTP on and catch-all off, paced by opts.Delay between probes.
// Cancelling ctx stops the run between candidates; results gathered so
// far are still returned.
func (v *Verifier) Find(ctx context.Context, firstName, lastName, domain string, opts Options) *FindResult {
	find := &FindResult{}

	perCandidate := Options{CheckSMTP: opts.CheckSMTP, CheckCatchAll: false}

	for i, candidate := range GeneratePatterns(firstName, lastName, domain) {
		if i > 0 && opts.Delay > 0 {
			select {
			case <-ctx.Done():
				return find
			case <-time.After(opts.Delay):
			}
		} else if ctx.Err() != nil {
			return find
		}

		result := v.Verify(ctx, candidate.Email, perCandidate)
		find.Candidates = append(find.Candidates, CandidateResult{
			Pattern: candidate.Pattern,
			Result:  result,
		})

		if result.SMTPVerified.True() {
			find.Email = result.Email
			find.Pattern = candidate.Pattern
			find.Best = result
			return find
		}

		if find.Best == nil || result.ConfidenceScore > find.Best.ConfidenceScore {
			find.Email = result.Email
			find.Pattern = candidate.Pattern
			find.Best = result
		}
	}

	return find
}
