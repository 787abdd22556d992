package loadtest_test

import (
	"context"
	"io"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	vegeta "github.com/tsenart/vegeta/v12/lib"

	"webcore/internal/app"
	"webcore/internal/platform/config"
	"webcore/internal/testutil"
)

// testEnv holds a running server and a valid token for it.
type testEnv struct {
	baseURL string
	token   string
}

type rlConfig struct {
	rate  float64
	burst int
}

func setupTestEnv(t *testing.T, rl rlConfig) *testEnv {
	t.Helper()

	cfg := &config.Config{
		Server: config.ServerConfig{
			Addr:            "127.0.0.1:0",
			LogLevel:        "error",
			MaxBodyBytes:    1 << 20,
			ShutdownTimeout: 5 * time.Second,
		},
		JWT:       *testutil.TokenConfig(),
		RateLimit: config.RateLimitConfig{Rate: rl.rate, Burst: rl.burst},
		Demo:      config.DemoConfig{UserID: 1, Email: "loadtest@webcore.local", Password: "loadtest-password"},
	}

	a, err := app.New(context.Background(), cfg, testutil.DiscardLogger())
	if err != nil {
		t.Fatalf("app.New: %v", err)
	}
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = a.Serve(ctx, ln)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	env := &testEnv{
		baseURL: "http://" + ln.Addr().String(),
		token:   testutil.IssueTestToken(t, cfg.Demo.Email, cfg.Demo.UserID, time.Now()),
	}
	waitForReady(t, env.baseURL+"/healthz")
	return env
}

func waitForReady(t *testing.T, url string) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := http.Get(url)
		if err == nil {
			resp.Body.Close()
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("server did not become ready at %s", url)
}

func loadtestDuration() time.Duration {
	if d := os.Getenv("LOADTEST_DURATION"); d != "" {
		dur, err := time.ParseDuration(d)
		if err == nil {
			return dur
		}
	}
	if testing.Short() {
		return 2 * time.Second
	}
	return 5 * time.Second
}

func loadtestRate() int {
	if r := os.Getenv("LOADTEST_RATE"); r != "" {
		rate, err := strconv.Atoi(r)
		if err == nil {
			return rate
		}
	}
	if testing.Short() {
		return 50
	}
	return 100
}

func attack(targeter vegeta.Targeter, freq int, duration time.Duration, name string) *vegeta.Metrics {
	attacker := vegeta.NewAttacker()
	var metrics vegeta.Metrics
	for res := range attacker.Attack(targeter, vegeta.Rate{Freq: freq, Per: time.Second}, duration, name) {
		metrics.Add(res)
	}
	metrics.Close()
	return &metrics
}

func bearer(token string) http.Header {
	return http.Header{"Authorization": []string{"Bearer " + token}}
}

func printReport(t *testing.T, name string, metrics *vegeta.Metrics) {
	t.Helper()
	t.Logf("\n=== %s ===", name)
	t.Logf("  Requests:    %d", metrics.Requests)
	t.Logf("  Rate:        %.1f req/s", metrics.Rate)
	t.Logf("  Throughput:  %.1f req/s", metrics.Throughput)
	t.Logf("  Latencies:   mean %s, p50 %s, p95 %s, p99 %s, max %s",
		metrics.Latencies.Mean, metrics.Latencies.P50, metrics.Latencies.P95,
		metrics.Latencies.P99, metrics.Latencies.Max)
	t.Logf("  Status Codes:")
	for code, count := range metrics.StatusCodes {
		t.Logf("    %s: %d", code, count)
	}
	if len(metrics.Errors) > 0 {
		t.Logf("  Errors (first 5):")
		for i, e := range metrics.Errors {
			if i >= 5 {
				break
			}
			t.Logf("    %s", e)
		}
	}
	t.Logf("  Success:     %.1f%%", metrics.Success*100)
}

func TestBaselineAuthenticated(t *testing.T) {
	env := setupTestEnv(t, rlConfig{rate: 10000, burst: 10000})

	targeter := vegeta.NewStaticTargeter(vegeta.Target{
		Method: http.MethodGet,
		URL:    env.baseURL + "/v1/me",
		Header: bearer(env.token),
	})
	metrics := attack(targeter, loadtestRate(), loadtestDuration(), "baseline")
	printReport(t, "Baseline Authenticated", metrics)

	if metrics.Success < 0.99 {
		t.Errorf("expected >99%% success rate, got %.1f%%", metrics.Success*100)
	}
	if metrics.Latencies.P99 > 100*time.Millisecond {
		t.Errorf("P99 latency too high: %s", metrics.Latencies.P99)
	}
}

// Failure translation is on the hot path for rejected traffic, so it should
// cost about as much as a success.
func TestTranslatedFailures(t *testing.T) {
	env := setupTestEnv(t, rlConfig{rate: 10000, burst: 10000})

	targeter := vegeta.NewStaticTargeter(
		vegeta.Target{Method: http.MethodGet, URL: env.baseURL + "/v1/me", Header: bearer("invalid.token.here")},
		vegeta.Target{Method: http.MethodGet, URL: env.baseURL + "/v1/users/2", Header: bearer(env.token)},
		vegeta.Target{Method: http.MethodGet, URL: env.baseURL + "/no-such-route"},
	)
	metrics := attack(targeter, loadtestRate(), loadtestDuration(), "failures")
	printReport(t, "Translated Failures", metrics)

	for _, code := range []string{"401", "403", "404"} {
		if metrics.StatusCodes[code] == 0 {
			t.Errorf("expected some %s responses", code)
		}
	}
	if metrics.StatusCodes["500"] > 0 {
		t.Errorf("expected no 500 responses, got %d", metrics.StatusCodes["500"])
	}
	if metrics.Latencies.P99 > 100*time.Millisecond {
		t.Errorf("P99 latency too high: %s", metrics.Latencies.P99)
	}
}

func TestRateLimitBehavior(t *testing.T) {
	env := setupTestEnv(t, rlConfig{rate: 5, burst: 10})

	targeter := vegeta.NewStaticTargeter(vegeta.Target{
		Method: http.MethodGet,
		URL:    env.baseURL + "/v1/me",
		Header: bearer(env.token),
	})
	metrics := attack(targeter, loadtestRate(), loadtestDuration(), "rate-limit")
	printReport(t, "Rate Limit Behavior", metrics)

	if metrics.StatusCodes["200"] == 0 {
		t.Error("expected some 200 responses (initial burst)")
	}
	if metrics.StatusCodes["429"] == 0 {
		t.Error("expected some 429 responses (rate limited)")
	}
}

func TestMixedTraffic(t *testing.T) {
	env := setupTestEnv(t, rlConfig{rate: 10000, burst: 10000})

	// 6 profile reads, 3 health checks, 1 invalid token.
	targets := make([]vegeta.Target, 0, 10)
	for range 6 {
		targets = append(targets, vegeta.Target{Method: http.MethodGet, URL: env.baseURL + "/v1/me", Header: bearer(env.token)})
	}
	for range 3 {
		targets = append(targets, vegeta.Target{Method: http.MethodGet, URL: env.baseURL + "/healthz"})
	}
	targets = append(targets, vegeta.Target{Method: http.MethodGet, URL: env.baseURL + "/v1/me", Header: bearer("invalid.token.here")})

	metrics := attack(vegeta.NewStaticTargeter(targets...), loadtestRate(), loadtestDuration(), "mixed")
	printReport(t, "Mixed Traffic (60% profile, 30% health, 10% invalid)", metrics)

	if metrics.StatusCodes["200"] == 0 {
		t.Error("expected some 200 responses")
	}
	if metrics.StatusCodes["401"] == 0 {
		t.Error("expected some 401 responses from invalid tokens")
	}
	successRate := float64(metrics.StatusCodes["200"]) / float64(metrics.Requests)
	if successRate < 0.80 {
		t.Errorf("expected >80%% success rate, got %.1f%%", successRate*100)
	}
}

func TestMetricsAfterLoad(t *testing.T) {
	env := setupTestEnv(t, rlConfig{rate: 10000, burst: 10000})

	targeter := vegeta.NewStaticTargeter(vegeta.Target{Method: http.MethodGet, URL: env.baseURL + "/no-such-route"})
	attack(targeter, loadtestRate(), time.Second, "metrics")

	resp, err := http.Get(env.baseURL + "/metrics")
	if err != nil {
		t.Fatalf("fetching metrics: %v", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("reading metrics: %v", err)
	}
	if !strings.Contains(string(body), "webcore_failures_total") {
		t.Error("expected webcore_failures_total after load")
	}
}
