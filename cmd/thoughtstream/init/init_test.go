package initcmder_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	initcmder "github.com/papercomputeco/thoughtstream/cmd/thoughtstream/init"
	"github.com/papercomputeco/thoughtstream/pkg/config"
)

var _ = Describe("Init Command", func() {
	var tmpDir string

	BeforeEach(func() {
		tmpDir = GinkgoT().TempDir()

		origDir, err := os.Getwd()
		Expect(err).NotTo(HaveOccurred())
		Expect(os.Chdir(tmpDir)).To(Succeed())
		DeferCleanup(func() { _ = os.Chdir(origDir) })
	})

	execute := func(args ...string) error {
		cmd := initcmder.NewInitCmd()
		cmd.SetOut(GinkgoWriter)
		cmd.SetArgs(args)
		return cmd.Execute()
	}

	loadConfig := func() *config.Config {
		cfger, err := config.NewConfiger(filepath.Join(tmpDir, ".thoughtstream"))
		Expect(err).NotTo(HaveOccurred())
		cfg, err := cfger.LoadConfig()
		Expect(err).NotTo(HaveOccurred())
		return cfg
	}

	It("rejects arguments", func() {
		Expect(execute("extra")).To(HaveOccurred())
	})

	It("creates the directory with a default config", func() {
		Expect(execute()).To(Succeed())

		Expect(filepath.Join(tmpDir, ".thoughtstream", "config.toml")).To(BeARegularFile())
		Expect(loadConfig()).To(Equal(config.NewDefaultConfig()))
	})

	It("writes a provider preset", func() {
		Expect(execute("--preset", "ollama")).To(Succeed())

		cfg := loadConfig()
		Expect(cfg.Relay.Upstream).To(Equal("http://localhost:11434/v1/chat/completions"))
		Expect(cfg.Provider.Model).To(Equal("llama3.2"))
	})

	It("leaves an existing config untouched", func() {
		dir := filepath.Join(tmpDir, ".thoughtstream")
		Expect(os.MkdirAll(dir, 0o755)).To(Succeed())
		Expect(os.WriteFile(filepath.Join(dir, "config.toml"), []byte("[provider]\nmodel = \"mine\"\n"), 0o600)).To(Succeed())

		Expect(execute("--preset", "ollama")).To(Succeed())
		Expect(loadConfig().Provider.Model).To(Equal("mine"))
	})

	It("rejects unknown presets", func() {
		Expect(execute("--preset", "bedrock")).To(MatchError(ContainSubstring("unknown preset")))
	})

	Describe("remote presets", func() {
		It("fetches and writes a remote config", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				fmt.Fprint(w, "[relay]\nlisten = \":9090\"\n\n[provider]\nmodel = \"gpt-4o\"\n")
			}))
			DeferCleanup(server.Close)

			Expect(execute("--preset", server.URL+"/config.toml")).To(Succeed())

			cfg := loadConfig()
			Expect(cfg.Relay.Listen).To(Equal(":9090"))
			Expect(cfg.Provider.Model).To(Equal("gpt-4o"))
		})

		It("fails on a non-200 reply", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusNotFound)
			}))
			DeferCleanup(server.Close)

			Expect(execute("--preset", server.URL)).To(MatchError(ContainSubstring("status 404")))
		})

		It("fails on invalid TOML", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				fmt.Fprint(w, "[relay")
			}))
			DeferCleanup(server.Close)

			Expect(execute("--preset", server.URL)).To(MatchError(ContainSubstring("parsing config TOML")))
		})
	})
})
