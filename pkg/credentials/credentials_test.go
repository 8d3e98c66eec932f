package credentials_test

import (
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/thoughtstream/pkg/credentials"
)

var _ = Describe("Manager", func() {
	var (
		tmpDir string
		mgr    *credentials.Manager
	)

	BeforeEach(func() {
		tmpDir = GinkgoT().TempDir()

		var err error
		mgr, err = credentials.NewManager(tmpDir)
		Expect(err).NotTo(HaveOccurred())
	})

	It("targets credentials.toml in the directory", func() {
		Expect(mgr.GetTarget()).To(Equal(filepath.Join(tmpDir, "credentials.toml")))
	})

	Describe("Load", func() {
		It("returns empty credentials when no file exists", func() {
			creds, err := mgr.Load()
			Expect(err).NotTo(HaveOccurred())
			Expect(creds.Providers).To(BeEmpty())
		})

		It("loads existing credentials", func() {
			data := `version = 0

[providers.openai]
api_key = "sk-test"
`
			Expect(os.WriteFile(mgr.GetTarget(), []byte(data), 0o600)).To(Succeed())

			key, err := mgr.GetKey("openai")
			Expect(err).NotTo(HaveOccurred())
			Expect(key).To(Equal("sk-test"))
		})

		It("returns an error for malformed TOML", func() {
			Expect(os.WriteFile(mgr.GetTarget(), []byte("[providers"), 0o600)).To(Succeed())

			_, err := mgr.Load()
			Expect(err).To(MatchError(ContainSubstring("parsing credentials")))
		})
	})

	Describe("Save", func() {
		It("writes the file with restricted permissions", func() {
			Expect(mgr.SetKey("openai", "sk-test")).To(Succeed())

			info, err := os.Stat(mgr.GetTarget())
			Expect(err).NotTo(HaveOccurred())
			Expect(info.Mode().Perm()).To(Equal(os.FileMode(0o600)))
		})

		It("rejects nil credentials", func() {
			Expect(mgr.Save(nil)).To(MatchError("cannot save nil credentials"))
		})
	})

	Describe("keys", func() {
		It("overwrites and preserves keys per provider", func() {
			Expect(mgr.SetKey("openai", "sk-one")).To(Succeed())
			Expect(mgr.SetKey("openrouter", "sk-or")).To(Succeed())
			Expect(mgr.SetKey("openai", "sk-two")).To(Succeed())

			Expect(mgr.GetKey("openai")).To(Equal("sk-two"))
			Expect(mgr.GetKey("openrouter")).To(Equal("sk-or"))
			Expect(mgr.ListProviders()).To(Equal([]string{"openai", "openrouter"}))
		})

		It("stamps when a key was saved", func() {
			Expect(mgr.SetKey("openai", "sk-one")).To(Succeed())

			creds, err := mgr.Load()
			Expect(err).NotTo(HaveOccurred())
			Expect(creds.Providers["openai"].SavedAt).To(BeTemporally("~", time.Now(), time.Minute))
		})

		It("removes keys", func() {
			Expect(mgr.SetKey("openai", "sk-one")).To(Succeed())
			Expect(mgr.RemoveKey("openai")).To(Succeed())
			Expect(mgr.RemoveKey("ollama")).To(Succeed())

			Expect(mgr.GetKey("openai")).To(BeEmpty())
			Expect(mgr.ListProviders()).To(BeEmpty())
		})
	})

	Describe("ResolveAPIKey", func() {
		BeforeEach(func() {
			Expect(mgr.SetKey("openai", "sk-stored")).To(Succeed())
		})

		It("prefers the environment", func() {
			GinkgoT().Setenv("OPENAI_API_KEY", "sk-env")
			Expect(mgr.ResolveAPIKey("OPENAI_API_KEY")).To(Equal("sk-env"))
		})

		It("falls back to the stored key", func() {
			GinkgoT().Setenv("OPENAI_API_KEY", "")
			Expect(mgr.ResolveAPIKey("OPENAI_API_KEY")).To(Equal("sk-stored"))
		})

		It("returns nothing for an unknown variable", func() {
			Expect(mgr.ResolveAPIKey("THOUGHTSTREAM_TEST_UNSET_KEY")).To(BeEmpty())
		})
	})
})

var _ = Describe("providers", func() {
	It("maps providers to env vars and back", func() {
		for _, p := range credentials.SupportedProviders() {
			envVar := credentials.EnvVarForProvider(p)
			Expect(envVar).NotTo(BeEmpty())
			Expect(credentials.ProviderForEnvVar(envVar)).To(Equal(p))
		}
		Expect(credentials.EnvVarForProvider("anthropic")).To(BeEmpty())
	})

	It("reports supported providers", func() {
		Expect(credentials.IsSupportedProvider("openrouter")).To(BeTrue())
		Expect(credentials.IsSupportedProvider("bedrock")).To(BeFalse())
	})
})
