package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goliatone/go-policyforge/pkg/prompt"
)

const countriesJSON = `[
	{"name": "Germany", "emoji": "🇩🇪"},
	{"name": "France", "emoji": "🇫🇷"},
	{"name": "Finland", "emoji": "🇫🇮"}
]`

func countryServer(t *testing.T) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, countriesJSON)
	}))
	t.Cleanup(ts.Close)
	return ts
}

func writeConfig(t *testing.T, countriesURL string) string {
	t.Helper()
	body := fmt.Sprintf("countries:\n  url: %s\n  retries: 0\nwizard:\n  generation_delay: 0s\nlog:\n  level: error\n", countriesURL)
	path := filepath.Join(t.TempDir(), "policyforge.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

type scriptedDriver struct {
	inputs  []string
	selects []int
	multis  [][]int
}

func (s *scriptedDriver) Input(context.Context, prompt.InputConfig) (string, error) {
	if len(s.inputs) == 0 {
		return "", errors.New("no input scripted")
	}
	v := s.inputs[0]
	s.inputs = s.inputs[1:]
	return v, nil
}

func (s *scriptedDriver) Select(context.Context, prompt.SelectConfig) (int, error) {
	if len(s.selects) == 0 {
		return 0, errors.New("no select scripted")
	}
	v := s.selects[0]
	s.selects = s.selects[1:]
	return v, nil
}

func (s *scriptedDriver) MultiSelect(context.Context, prompt.SelectConfig) ([]int, error) {
	if len(s.multis) == 0 {
		return nil, errors.New("no multiselect scripted")
	}
	v := s.multis[0]
	s.multis = s.multis[1:]
	return v, nil
}

func (s *scriptedDriver) Info(context.Context, string) error { return nil }

type recordingClipboard struct {
	text string
	err  error
}

func (c *recordingClipboard) WriteAll(text string) error {
	if c.err != nil {
		return c.err
	}
	c.text = text
	return nil
}

// acmeScript answers every step: website, France, Email collected, cookies,
// no services, no payments.
func acmeScript() *scriptedDriver {
	return &scriptedDriver{
		inputs:  []string{"Acme Corp", "acme.com", "a@acme.com"},
		selects: []int{0, 1, 0, 0, 0, 1, 0},
		multis:  [][]int{{1}, {}},
	}
}

func run(t *testing.T, d deps, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand(d)
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCountriesCommand_FiltersAndLimits(t *testing.T) {
	cfg := writeConfig(t, countryServer(t).URL)

	out, err := run(t, defaultDeps(), "--config", cfg, "countries", "f")
	if err != nil {
		t.Fatalf("countries: %v", err)
	}
	if out != "🇫🇮 Finland\n🇫🇷 France\n" {
		t.Fatalf("unexpected output %q", out)
	}

	out, err = run(t, defaultDeps(), "--config", cfg, "countries", "--limit", "1")
	if err != nil {
		t.Fatalf("countries: %v", err)
	}
	if out != "🇫🇮 Finland\n" {
		t.Fatalf("unexpected limited output %q", out)
	}

	out, err = run(t, defaultDeps(), "--config", cfg, "countries", "zz")
	if err != nil {
		t.Fatalf("countries: %v", err)
	}
	if !strings.Contains(out, `no countries match "zz"`) {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestCountriesCommand_FetchFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	_, err := run(t, defaultDeps(), "--config", writeConfig(t, ts.URL), "countries")
	if err == nil || !strings.Contains(err.Error(), "fetch countries") {
		t.Fatalf("expected fetch error, got %v", err)
	}
}

func TestGenerateCommand_TextToFileAndClipboard(t *testing.T) {
	cfg := writeConfig(t, countryServer(t).URL)
	clip := &recordingClipboard{}
	d := deps{
		newDriver: func(io.Writer) prompt.PromptDriver { return acmeScript() },
		clipboard: clip,
	}
	target := filepath.Join(t.TempDir(), "policy.txt")

	out, err := run(t, d, "--config", cfg, "generate", "--format", "text", "--output", target, "--copy")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !strings.Contains(out, "Policy written to "+target) || !strings.Contains(out, "Copied to clipboard.") {
		t.Fatalf("unexpected output %q", out)
	}

	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	text := string(data)
	for _, want := range []string{"Privacy Policy", "Acme Corp", "located at acme.com", "Country: France", "2. Cookies and Tracking Technologies"} {
		if !strings.Contains(text, want) {
			t.Fatalf("policy text missing %q:\n%s", want, text)
		}
	}
	if strings.Contains(text, "<h1>") {
		t.Fatal("text format should not contain markup")
	}
	if clip.text == "" || !strings.HasPrefix(clip.text, "Privacy Policy") {
		t.Fatalf("clipboard got %q", clip.text)
	}
}

func TestGenerateCommand_HTMLToStdoutClipboardFailure(t *testing.T) {
	cfg := writeConfig(t, countryServer(t).URL)
	d := deps{
		newDriver: func(io.Writer) prompt.PromptDriver { return acmeScript() },
		clipboard: &recordingClipboard{err: errors.New("no clipboard")},
	}

	out, err := run(t, d, "--config", cfg, "generate", "--copy")
	if err != nil {
		t.Fatalf("clipboard failure should not fail the command: %v", err)
	}
	if !strings.Contains(out, "<h1>Privacy Policy</h1>") {
		t.Fatalf("expected html on stdout:\n%s", out)
	}
	if strings.Contains(out, "Copied to clipboard.") {
		t.Fatal("failed copy must not be reported as done")
	}
}

func TestGenerateCommand_RejectsUnknownFormat(t *testing.T) {
	cfg := writeConfig(t, countryServer(t).URL)
	if _, err := run(t, defaultDeps(), "--config", cfg, "generate", "--format", "pdf"); err == nil {
		t.Fatal("expected format error")
	}
}

func TestRoot_InvalidLogLevel(t *testing.T) {
	cfg := writeConfig(t, countryServer(t).URL)
	if _, err := run(t, defaultDeps(), "--config", cfg, "--loglevel", "loud", "countries"); err == nil {
		t.Fatal("expected log level error")
	}
}
