package controllers

import (
	"context"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"lookingup/config"
	"lookingup/models"
	"lookingup/verifier"
)

// fakeEngine records the options each call was made with.
type fakeEngine struct {
	verifyOpts []verifier.Options
	findOpts   []verifier.Options
	findResult *verifier.FindResult
}

func (f *fakeEngine) Verify(ctx context.Context, email string, opts verifier.Options) *verifier.Result {
	f.verifyOpts = append(f.verifyOpts, opts)
	return &verifier.Result{Email: email, Status: verifier.StatusUnknown, SyntaxValid: true}
}

func (f *fakeEngine) Find(ctx context.Context, firstName, lastName, domain string, opts verifier.Options) *verifier.FindResult {
	f.findOpts = append(f.findOpts, opts)
	return f.findResult
}

// fakeRecorder captures usage events.
type fakeRecorder struct {
	ops    []string
	counts []int
}

func (f *fakeRecorder) Report(userID, apiKeyID uint, operation string, emailCount int) {
	f.ops = append(f.ops, operation)
	f.counts = append(f.counts, emailCount)
}

func quietLogger() *logrus.Entry {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return logrus.NewEntry(l)
}

func testUser(plan string) *models.User {
	return &models.User{
		Model:        gorm.Model{ID: 1},
		Email:        "owner@example.com",
		Subscription: &models.Subscription{PlanType: plan, Status: "active"},
	}
}

// handlerApp wires a handler behind a stub that injects the locals the
// auth middleware would normally set.
func handlerApp(path string, user *models.User, handler fiber.Handler) *fiber.App {
	app := fiber.New()
	app.Post(path, func(c *fiber.Ctx) error {
		c.Locals("user", user)
		c.Locals("apiKey", &models.APIKey{Model: gorm.Model{ID: 2}})
		return handler(c)
	})
	return app
}

func postJSON(t *testing.T, app *fiber.App, path, body string) int {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	return resp.StatusCode
}

func TestRequestOptionsFlagOverrides(t *testing.T) {
	config.AppConfig = config.Config{Verifier: config.VerifierConfig{
		DelayStandard: 2 * time.Second,
		DelayPro:      0,
	}}

	f := false
	tr := true
	cases := []struct {
		name          string
		plan          string
		checkSMTP     *bool
		checkCatchAll *bool
		wantSMTP      bool
		wantCatchAll  bool
		wantDelay     time.Duration
	}{
		{"defaults on pro", "pro", nil, nil, true, true, 0},
		{"defaults on standard", "standard", nil, nil, true, true, 2 * time.Second},
		{"smtp disabled", "pro", &f, nil, false, true, 0},
		{"catch-all disabled", "pro", nil, &f, true, false, 0},
		{"both disabled", "standard", &f, &f, false, false, 2 * time.Second},
		{"explicit true is a no-op", "pro", &tr, &tr, true, true, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			opts := requestOptions(tc.plan, tc.checkSMTP, tc.checkCatchAll)
			if opts.CheckSMTP != tc.wantSMTP || opts.CheckCatchAll != tc.wantCatchAll {
				t.Errorf("flags = %v/%v, want %v/%v",
					opts.CheckSMTP, opts.CheckCatchAll, tc.wantSMTP, tc.wantCatchAll)
			}
			if opts.Delay != tc.wantDelay {
				t.Errorf("delay = %v, want %v", opts.Delay, tc.wantDelay)
			}
		})
	}
}

func TestVerifyEmailThreadsRequestFlags(t *testing.T) {
	config.AppConfig = config.Config{Verifier: config.VerifierConfig{DelayStandard: 2 * time.Second}}

	engine := &fakeEngine{}
	usage := &fakeRecorder{}
	vc := NewVerificationController(nil, engine, usage, nil, nil, quietLogger())
	app := handlerApp("/verify", testUser("pro"), vc.VerifyEmail)

	status := postJSON(t, app, "/verify",
		`{"email":"john@example.com","check_smtp":false,"check_catch_all":false}`)
	if status != fiber.StatusOK {
		t.Fatalf("status = %d, want %d", status, fiber.StatusOK)
	}

	if len(engine.verifyOpts) != 1 {
		t.Fatalf("verify calls = %d, want 1", len(engine.verifyOpts))
	}
	if engine.verifyOpts[0].CheckSMTP || engine.verifyOpts[0].CheckCatchAll {
		t.Errorf("opts = %+v, want both probe stages disabled", engine.verifyOpts[0])
	}

	postJSON(t, app, "/verify", `{"email":"jane@example.com"}`)
	if !engine.verifyOpts[1].CheckSMTP || !engine.verifyOpts[1].CheckCatchAll {
		t.Errorf("opts = %+v, want both probe stages on by default", engine.verifyOpts[1])
	}

	if len(usage.ops) != 2 || usage.ops[0] != "verify" || usage.counts[0] != 1 {
		t.Errorf("usage = %v/%v, want one verify event of count 1 per call", usage.ops, usage.counts)
	}
}

func TestBulkVerifyRejectsOversizedBatch(t *testing.T) {
	config.AppConfig = config.Config{Verifier: config.VerifierConfig{}}

	vc := NewVerificationController(nil, &fakeEngine{}, &fakeRecorder{}, nil, nil, quietLogger())
	app := handlerApp("/verify/bulk", testUser("pro"), vc.BulkVerify)

	emails := make([]string, maxBulkEmails+1)
	for i := range emails {
		emails[i] = fmt.Sprintf("user%d@example.com", i)
	}
	body := `{"emails":["` + strings.Join(emails, `","`) + `"]}`

	status := postJSON(t, app, "/verify/bulk", body)
	if status != fiber.StatusBadRequest {
		t.Errorf("status = %d, want %d for %d emails", status, fiber.StatusBadRequest, len(emails))
	}
}

func TestFindEmailReportsOneUsageEvent(t *testing.T) {
	config.AppConfig = config.Config{Verifier: config.VerifierConfig{DelayStandard: 2 * time.Second}}

	// An exhaustive run that probed every pattern before settling.
	var candidates []verifier.CandidateResult
	for i := 0; i < 26; i++ {
		candidates = append(candidates, verifier.CandidateResult{
			Pattern: "first.last",
			Result:  &verifier.Result{Email: fmt.Sprintf("c%d@acme.com", i)},
		})
	}
	engine := &fakeEngine{findResult: &verifier.FindResult{
		Email:      "john.doe@acme.com",
		Pattern:    "first.last",
		Best:       &verifier.Result{Email: "john.doe@acme.com", ConfidenceScore: 40},
		Candidates: candidates,
	}}
	usage := &fakeRecorder{}
	fc := NewFinderController(nil, engine, usage, quietLogger())
	app := handlerApp("/find", testUser("standard"), fc.FindEmail)

	status := postJSON(t, app, "/find",
		`{"first_name":"John","last_name":"Doe","domain":"acme.com"}`)
	if status != fiber.StatusOK {
		t.Fatalf("status = %d, want %d", status, fiber.StatusOK)
	}

	if len(usage.ops) != 1 || usage.ops[0] != "find" {
		t.Fatalf("usage ops = %v, want exactly one find event", usage.ops)
	}
	if usage.counts[0] != 1 {
		t.Errorf("usage count = %d, want 1 regardless of candidates probed", usage.counts[0])
	}

	if len(engine.findOpts) != 1 || !engine.findOpts[0].CheckSMTP {
		t.Errorf("find opts = %+v, want one call with SMTP on", engine.findOpts)
	}
	if engine.findOpts[0].Delay != 2*time.Second {
		t.Errorf("delay = %v, want the standard tier pacing", engine.findOpts[0].Delay)
	}
}
