package config_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/mindfulware/companion/pkg/config"
)

var _ = Describe("Load", func() {
	It("returns the shipped defaults for an empty path", func() {
		cfg, err := config.Load("")

		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.BaseModel).To(Equal("meta-llama/Llama-3.1-8B-Instruct"))
		Expect(cfg.Train.LoraRank).To(Equal(16))
		Expect(cfg.Train.LearningRate).To(BeNumerically("==", 2e-4))
		Expect(cfg.Generate.Temperature).To(BeNumerically("==", 0.7))
		Expect(cfg.Generate.MaxNewTokens).To(Equal(512))
	})

	It("overlays a TOML file onto the defaults", func() {
		tmpDir, err := os.MkdirTemp("", "companion-config-test-*")
		Expect(err).NotTo(HaveOccurred())
		defer os.RemoveAll(tmpDir)

		path := filepath.Join(tmpDir, "companion.toml")
		Expect(os.WriteFile(path, []byte(`
runtime_url = "http://gpu-box:11435"

[train]
batch_size = 2
`), 0o644)).To(Succeed())

		cfg, err := config.Load(path)

		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.RuntimeURL).To(Equal("http://gpu-box:11435"))
		Expect(cfg.Train.BatchSize).To(Equal(2))
		// Untouched values keep their defaults.
		Expect(cfg.Train.NumEpochs).To(Equal(3))
		Expect(cfg.AdapterDir).To(Equal("models/ketamine-therapy-fine-tuned"))
	})

	It("fails for a missing config file", func() {
		_, err := config.Load("/nonexistent/companion.toml")

		Expect(err).To(HaveOccurred())
	})
})
