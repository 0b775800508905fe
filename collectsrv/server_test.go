package collectsrv_test

import (
	"bytes"
	"encoding/json"
	"net"
	"net/http"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/mindfulware/companion/collectsrv"
	"github.com/mindfulware/companion/pkg/dataset"
)

var _ = Describe("Server", func() {
	var (
		tmpDir   string
		dataPath string
		addr     string
		srv      *collectsrv.Server
	)

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "companion-collect-test-*")
		Expect(err).NotTo(HaveOccurred())
		dataPath = filepath.Join(tmpDir, "user-examples.json")

		srv, err = collectsrv.New(collectsrv.Config{
			ListenAddr: ":0",
			DataPath:   dataPath,
		}, zap.NewNop())
		Expect(err).NotTo(HaveOccurred())

		listener, err := net.Listen("tcp", "127.0.0.1:0")
		Expect(err).NotTo(HaveOccurred())

		go func() {
			_ = srv.RunWithListener(listener)
		}()

		addr = "http://" + listener.Addr().String()
	})

	AfterEach(func() {
		srv.Shutdown()
		os.RemoveAll(tmpDir)
	})

	postExample := func(ex dataset.Example) *http.Response {
		body, err := json.Marshal(ex)
		Expect(err).NotTo(HaveOccurred())

		resp, err := http.Post(addr+"/examples", "application/json", bytes.NewReader(body))
		Expect(err).NotTo(HaveOccurred())
		return resp
	}

	It("reports healthy", func() {
		Eventually(func() error {
			_, err := http.Get(addr + "/health")
			return err
		}).Should(Succeed())
	})

	It("starts with an empty collection when the data file is missing", func() {
		var resp *http.Response
		Eventually(func() error {
			var err error
			resp, err = http.Get(addr + "/examples")
			return err
		}).Should(Succeed())
		defer resp.Body.Close()

		var examples []dataset.Example
		Expect(json.NewDecoder(resp.Body).Decode(&examples)).To(Succeed())
		Expect(examples).To(BeEmpty())
	})

	It("adds an example and persists it to the data file", func() {
		Eventually(func() error {
			_, err := http.Get(addr + "/health")
			return err
		}).Should(Succeed())

		resp := postExample(dataset.Example{
			Instruction: "What should I expect?",
			Context:     "Pre-session preparation",
			Response:    "Take your time and breathe.",
		})
		defer resp.Body.Close()
		Expect(resp.StatusCode).To(Equal(http.StatusCreated))

		saved, err := dataset.Load(dataPath)
		Expect(err).NotTo(HaveOccurred())
		Expect(saved).To(HaveLen(1))
		Expect(saved[0].Instruction).To(Equal("What should I expect?"))
	})

	It("rejects examples missing instruction or response", func() {
		Eventually(func() error {
			_, err := http.Get(addr + "/health")
			return err
		}).Should(Succeed())

		resp := postExample(dataset.Example{Instruction: "only a question"})
		defer resp.Body.Close()

		Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
	})

	It("deletes an example by index", func() {
		Eventually(func() error {
			_, err := http.Get(addr + "/health")
			return err
		}).Should(Succeed())

		postExample(dataset.Example{Instruction: "a", Response: "1"}).Body.Close()
		postExample(dataset.Example{Instruction: "b", Response: "2"}).Body.Close()

		req, err := http.NewRequest(http.MethodDelete, addr+"/examples/0", nil)
		Expect(err).NotTo(HaveOccurred())
		resp, err := http.DefaultClient.Do(req)
		Expect(err).NotTo(HaveOccurred())
		defer resp.Body.Close()
		Expect(resp.StatusCode).To(Equal(http.StatusOK))

		saved, err := dataset.Load(dataPath)
		Expect(err).NotTo(HaveOccurred())
		Expect(saved).To(HaveLen(1))
		Expect(saved[0].Instruction).To(Equal("b"))
	})

	It("serves collection stats", func() {
		Eventually(func() error {
			_, err := http.Get(addr + "/health")
			return err
		}).Should(Succeed())

		postExample(dataset.Example{Instruction: "a", Response: "1234"}).Body.Close()

		resp, err := http.Get(addr + "/examples/stats")
		Expect(err).NotTo(HaveOccurred())
		defer resp.Body.Close()

		var stats map[string]any
		Expect(json.NewDecoder(resp.Body).Decode(&stats)).To(Succeed())
		Expect(stats["count"]).To(BeNumerically("==", 1))
		Expect(stats["under_recommended"]).To(BeTrue())
	})

	It("reloads when the data file changes on disk", func() {
		Eventually(func() error {
			_, err := http.Get(addr + "/health")
			return err
		}).Should(Succeed())

		edited := []dataset.Example{
			{Instruction: "edited by hand", Response: "externally"},
		}
		Expect(dataset.Save(dataPath, edited)).To(Succeed())

		Eventually(func() int {
			resp, err := http.Get(addr + "/examples")
			if err != nil {
				return -1
			}
			defer resp.Body.Close()

			var examples []dataset.Example
			if err := json.NewDecoder(resp.Body).Decode(&examples); err != nil {
				return -1
			}
			return len(examples)
		}).Should(Equal(1))
	})
})
