package client_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/meridianqs/estimator-client/internal/client"
)

var _ = Describe("Config", func() {
	Context("validation", func() {
		It("accepts a full URL", func() {
			cfg := client.NewDefault()
			cfg.Service.Server = "https://pipeline.example.com:8443"
			Expect(cfg.Validate()).To(BeNil())
		})

		It("rejects an empty server", func() {
			Expect(client.NewDefault().Validate()).NotTo(BeNil())
		})

		It("rejects a server without a scheme", func() {
			cfg := client.NewDefault()
			cfg.Service.Server = "pipeline.example.com"
			Expect(cfg.Validate()).NotTo(BeNil())
		})
	})

	Context("persistence", func() {
		var tmpDir string

		BeforeEach(func() {
			var err error
			tmpDir, err = os.MkdirTemp("", "estimator-config")
			Expect(err).To(BeNil())
		})

		AfterEach(func() {
			os.RemoveAll(tmpDir)
		})

		It("round-trips through the config file", func() {
			cfg := client.NewDefault()
			cfg.Service.Server = "http://localhost:8090"

			path := filepath.Join(tmpDir, "nested", "client.yaml")
			Expect(cfg.Persist(path)).To(BeNil())

			loaded, err := client.ParseConfigFile(path)
			Expect(err).To(BeNil())
			Expect(loaded.Equal(cfg)).To(BeTrue())
		})

		It("refuses a persisted config that fails validation", func() {
			path := filepath.Join(tmpDir, "client.yaml")
			Expect(os.WriteFile(path, []byte("service:\n  server: \"\"\n"), 0600)).To(BeNil())

			_, err := client.ParseConfigFile(path)
			Expect(err).NotTo(BeNil())
		})

		It("fails on a missing file", func() {
			_, err := client.ParseConfigFile(filepath.Join(tmpDir, "absent.yaml"))
			Expect(err).NotTo(BeNil())
		})
	})
})
