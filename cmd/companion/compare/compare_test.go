package comparecmder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/mindfulware/companion/pkg/fault"
	"github.com/mindfulware/companion/pkg/llm"
	"github.com/mindfulware/companion/pkg/report"
	"github.com/mindfulware/companion/pkg/scenario"
)

var _ = Describe("Compare Command", func() {
	var (
		ctx        context.Context
		tmpDir     string
		adapterDir string
		reportPath string
		cfgPath    string
		out        *bytes.Buffer
		server     *httptest.Server
	)

	BeforeEach(func() {
		ctx = context.Background()
		var err error
		tmpDir, err = os.MkdirTemp("", "companion-compare-cmd-*")
		Expect(err).NotTo(HaveOccurred())

		adapterDir = filepath.Join(tmpDir, "adapter")
		Expect(os.MkdirAll(adapterDir, 0o755)).To(Succeed())
		reportPath = filepath.Join(tmpDir, "model_comparison_results.json")
		out = &bytes.Buffer{}

		// The fake runtime answers differently depending on whether the
		// request targets the base model alone or the adapter.
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/api/health":
				json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
			case "/api/generate":
				var req llm.GenerateRequest
				Expect(json.NewDecoder(r.Body).Decode(&req)).To(Succeed())

				answer := "base answer"
				if req.Adapter != "" {
					answer = "tuned answer"
				}
				json.NewEncoder(w).Encode(llm.GenerateResponse{Response: answer, Done: true})
			default:
				http.NotFound(w, r)
			}
		}))

		cfgPath = filepath.Join(tmpDir, "companion.toml")
		cfg := fmt.Sprintf(`
runtime_url = %q
adapter_dir = %q
report_file = %q
history_db = %q
`, server.URL, adapterDir, reportPath, filepath.Join(tmpDir, "history.db"))
		Expect(os.WriteFile(cfgPath, []byte(cfg), 0o644)).To(Succeed())
	})

	AfterEach(func() {
		server.Close()
		os.RemoveAll(tmpDir)
	})

	runCmd := func(stdin string) error {
		cmd := NewCompareCmd()
		cmd.SetArgs([]string{"--config", cfgPath})
		cmd.SetIn(strings.NewReader(stdin))
		cmd.SetOut(out)
		return cmd.ExecuteContext(ctx)
	}

	It("runs the test suite and writes the comparison report", func() {
		// Choice 1, then Enter after each of the four cases.
		Expect(runCmd("1\n\n\n\n\n")).To(Succeed())

		Expect(out.String()).To(ContainSubstring("BASE MODEL RESPONSE:"))
		Expect(out.String()).To(ContainSubstring("FINE-TUNED MODEL RESPONSE:"))
		Expect(out.String()).To(ContainSubstring("COMPARISON COMPLETE"))

		data, err := os.ReadFile(reportPath)
		Expect(err).NotTo(HaveOccurred())

		var records []report.Record
		Expect(json.Unmarshal(data, &records)).To(Succeed())
		Expect(records).To(HaveLen(len(scenario.Suite)))
		Expect(records[0].Input).To(Equal(scenario.Suite[0].Input))
		Expect(records[0].BaseResponse).To(Equal("base answer"))
		Expect(records[0].FineTunedResponse).To(Equal("tuned answer"))
	})

	It("compares interactively with an optional context line", func() {
		Expect(runCmd("2\nHow long do sessions last?\nTreatment planning\nquit\n")).To(Succeed())

		Expect(out.String()).To(ContainSubstring("USER INPUT: How long do sessions last?"))
		Expect(out.String()).To(ContainSubstring("CONTEXT: Treatment planning"))
		Expect(out.String()).To(ContainSubstring("base answer"))
		Expect(out.String()).To(ContainSubstring("tuned answer"))
	})

	It("fails with a precondition error when the adapter is missing", func() {
		Expect(os.RemoveAll(adapterDir)).To(Succeed())

		err := runCmd("")

		pe, ok := fault.AsPrecondition(err)
		Expect(ok).To(BeTrue())
		Expect(pe.Hint).To(ContainSubstring("companion train"))
	})
})
