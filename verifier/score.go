package verifier

// computeScore accumulates the confidence score from the result's
// flags. It is a pure function of the other fields: +10 syntax, +10
// domain, +20 MX, +50 SMTP-confirmed; a definite SMTP "no" forces the
// score to zero regardless of everything else; catch-all costs 15,
// disposable caps the score at 30, role-based costs 5. Clamped to
// [0,100].
func computeScore(r *Result) int {
	score := 0

	if r.SyntaxValid {
		score += 10
	}
	if r.DomainExists {
		score += 10
	}
	if r.MXRecordsExist {
		score += 20
	}

	switch r.SMTPVerified {
	case TriTrue:
		score += 50
	case TriFalse:
		return 0
	}

	if r.IsCatchAll.True() {
		score -= 15
	}
	if r.IsDisposable && score > 30 {
		score = 30
	}
	if r.IsRoleBased {
		score -= 5
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score
}

// deriveStatus maps the result's flags to the four-way status and the
// deliverable bit. A definite SMTP rejection always wins; disposable
// and catch-all demote to risky even when the mailbox answered.
func deriveStatus(r *Result) (Status, bool) {
	switch {
	case r.SMTPVerified.False():
		return StatusInvalid, false
	case r.SMTPVerified.True() && !r.IsDisposable:
		return StatusValid, true
	case r.IsDisposable || r.IsCatchAll.True():
		return StatusRisky, r.SMTPVerified.True()
	default:
		return StatusUnknown, false
	}
}

// finalize computes the score, status and deliverable bit. Deliverable
// is true only when SMTP confirmed the mailbox and the status is not
// invalid.
func finalize(r *Result) {
	r.ConfidenceScore = computeScore(r)
	r.Status, r.Deliverable = deriveStatus(r)
	if r.Status == StatusInvalid || !r.SMTPVerified.True() {
		r.Deliverable = false
	}
}
