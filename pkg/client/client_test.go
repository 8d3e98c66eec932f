package client_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/thoughtstream/pkg/client"
	"github.com/papercomputeco/thoughtstream/pkg/llm"
	"github.com/papercomputeco/thoughtstream/pkg/stream"
)

type fragments struct {
	mu   sync.Mutex
	list []string
}

func (f *fragments) OnFragment(fragment, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.list = append(f.list, fragment)
	return nil
}

func (f *fragments) all() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.list...)
}

func completion(text string) string {
	body, _ := json.Marshal(llm.ChatResponse{
		Choices: []llm.Choice{{Message: &llm.ChoiceContent{Role: "assistant", Content: text}}},
	})
	return string(body)
}

func sseChunk(content string) string {
	return fmt.Sprintf("data: {\"choices\":[{\"delta\":{\"content\":%q}}]}\n\n", content)
}

var _ = Describe("Client", func() {
	var (
		mu       sync.Mutex
		requests []llm.GenerateRequest
		handler  func(w http.ResponseWriter, r *http.Request, req llm.GenerateRequest)
		server   *httptest.Server
		c        *client.Client
		cfg      client.Config
	)

	recorded := func() []llm.GenerateRequest {
		mu.Lock()
		defer mu.Unlock()
		return append([]llm.GenerateRequest(nil), requests...)
	}

	BeforeEach(func() {
		requests = nil
		handler = func(w http.ResponseWriter, _ *http.Request, _ llm.GenerateRequest) {
			w.WriteHeader(http.StatusTeapot)
		}
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var req llm.GenerateRequest
			if r.Method == http.MethodPost {
				body, _ := io.ReadAll(r.Body)
				_ = json.Unmarshal(body, &req)
				mu.Lock()
				requests = append(requests, req)
				mu.Unlock()
			}
			handler(w, r, req)
		}))
		cfg = client.Config{RelayTarget: server.URL}
	})

	JustBeforeEach(func() {
		var err error
		c, err = client.New(cfg)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		server.Close()
	})

	Describe("New", func() {
		It("requires a relay target", func() {
			_, err := client.New(client.Config{})
			Expect(err).To(MatchError(client.ErrNoRelayTarget))
		})

		It("rejects non-http targets", func() {
			_, err := client.New(client.Config{RelayTarget: "ftp://relay"})
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Generate", func() {
		It("assembles an event stream as it arrives", func() {
			handler = func(w http.ResponseWriter, _ *http.Request, _ llm.GenerateRequest) {
				w.Header().Set("Content-Type", "text/event-stream")
				flusher := w.(http.Flusher)
				for _, part := range []string{"Hel", "lo", " world"} {
					_, _ = io.WriteString(w, sseChunk(part))
					flusher.Flush()
				}
				_, _ = io.WriteString(w, "data: [DONE]\n\n")
			}

			obs := &fragments{}
			text, err := c.Generate(context.Background(), llm.GenerateRequest{Text: "idea", ContentType: "expansion"}, obs)
			Expect(err).NotTo(HaveOccurred())
			Expect(text).To(Equal("Hello world"))
			Expect(obs.all()).To(Equal([]string{"Hel", "lo", " world"}))

			reqs := recorded()
			Expect(reqs).To(HaveLen(1))
			Expect(reqs[0].Stream).To(BeTrue())
			Expect(reqs[0].ContentType).To(Equal("expansion"))
		})

		It("delivers a JSON reply as one fragment", func() {
			handler = func(w http.ResponseWriter, _ *http.Request, _ llm.GenerateRequest) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = io.WriteString(w, completion("all at once"))
			}

			obs := &fragments{}
			text, err := c.Generate(context.Background(), llm.GenerateRequest{Text: "idea"}, obs)
			Expect(err).NotTo(HaveOccurred())
			Expect(text).To(Equal("all at once"))
			Expect(obs.all()).To(Equal([]string{"all at once"}))
		})

		Context("with typing simulation", func() {
			BeforeEach(func() {
				cfg.SimulateTyping = true
				cfg.FragmentSize = 4
				cfg.Simulator = stream.NewSimulatorWithDelay(func() time.Duration { return 0 })
			})

			It("replays a JSON reply in fixed-size fragments", func() {
				handler = func(w http.ResponseWriter, _ *http.Request, _ llm.GenerateRequest) {
					w.Header().Set("Content-Type", "application/json")
					_, _ = io.WriteString(w, completion("abcdefghij"))
				}

				obs := &fragments{}
				text, err := c.Generate(context.Background(), llm.GenerateRequest{Text: "idea"}, obs)
				Expect(err).NotTo(HaveOccurred())
				Expect(text).To(Equal("abcdefghij"))
				Expect(obs.all()).To(Equal([]string{"abcd", "efgh", "ij"}))
			})
		})

		It("surfaces relay errors as upstream errors", func() {
			handler = func(w http.ResponseWriter, _ *http.Request, _ llm.GenerateRequest) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = io.WriteString(w, `{"error":"slow down","status":429}`)
			}

			obs := &fragments{}
			_, err := c.Generate(context.Background(), llm.GenerateRequest{Text: "idea"}, obs)

			var upstream *llm.UpstreamError
			Expect(errors.As(err, &upstream)).To(BeTrue())
			Expect(upstream.Message).To(Equal("slow down"))
			Expect(upstream.StatusCode).To(Equal(http.StatusTooManyRequests))
			Expect(obs.all()).To(BeEmpty())
		})

		It("surfaces an error field on a 200 reply", func() {
			handler = func(w http.ResponseWriter, _ *http.Request, _ llm.GenerateRequest) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = io.WriteString(w, `{"error":{"message":"quota exceeded"}}`)
			}

			_, err := c.Generate(context.Background(), llm.GenerateRequest{Text: "idea"}, nil)
			var upstream *llm.UpstreamError
			Expect(errors.As(err, &upstream)).To(BeTrue())
			Expect(upstream.Message).To(Equal("quota exceeded"))
		})

		It("uses the status text for an empty error body", func() {
			handler = func(w http.ResponseWriter, _ *http.Request, _ llm.GenerateRequest) {
				w.WriteHeader(http.StatusBadGateway)
			}

			_, err := c.Generate(context.Background(), llm.GenerateRequest{Text: "idea"}, nil)
			Expect(err).To(MatchError("upstream returned status 502: Bad Gateway"))
		})

		It("wraps transport failures", func() {
			server.Close()

			_, err := c.Generate(context.Background(), llm.GenerateRequest{Text: "idea"}, nil)
			Expect(err).To(MatchError(ContainSubstring("sending request to relay")))
		})
	})

	Describe("Complete", func() {
		It("sends a non-streaming request", func() {
			handler = func(w http.ResponseWriter, _ *http.Request, _ llm.GenerateRequest) {
				_, _ = io.WriteString(w, completion("done"))
			}

			text, err := c.Complete(context.Background(), llm.GenerateRequest{Text: "idea", Stream: true})
			Expect(err).NotTo(HaveOccurred())
			Expect(text).To(Equal("done"))
			Expect(recorded()[0].Stream).To(BeFalse())
		})
	})

	Describe("Takes", func() {
		It("returns results in input order and keeps failures per take", func() {
			handler = func(w http.ResponseWriter, _ *http.Request, req llm.GenerateRequest) {
				if req.ContentType == "contrarian" {
					w.WriteHeader(http.StatusInternalServerError)
					_, _ = io.WriteString(w, `{"error":"boom","status":500}`)
					return
				}
				w.Header().Set("Content-Type", "text/event-stream")
				_, _ = io.WriteString(w, sseChunk("take on "+req.ContentType))
				_, _ = io.WriteString(w, "data: [DONE]\n\n")
			}

			var obsMu sync.Mutex
			observers := map[string]*fragments{}
			results := c.Takes(context.Background(), "idea", "naval",
				[]string{"expansion", "contrarian", "synapse"},
				func(contentType string) stream.Observer {
					obs := &fragments{}
					obsMu.Lock()
					observers[contentType] = obs
					obsMu.Unlock()
					return obs
				})

			Expect(results).To(HaveLen(3))
			Expect(results[0].ContentType).To(Equal("expansion"))
			Expect(results[0].Text).To(Equal("take on expansion"))
			Expect(results[0].Err).NotTo(HaveOccurred())

			Expect(results[1].ContentType).To(Equal("contrarian"))
			Expect(results[1].Err).To(MatchError(ContainSubstring("boom")))

			Expect(results[2].ContentType).To(Equal("synapse"))
			Expect(results[2].Text).To(Equal("take on synapse"))

			Expect(observers["synapse"].all()).To(Equal([]string{"take on synapse"}))
			for _, req := range recorded() {
				Expect(req.PersonaID).To(Equal("naval"))
			}
		})

		Context("with a parallelism cap", func() {
			BeforeEach(func() {
				cfg.MaxParallel = 1
			})

			It("still runs every take", func() {
				handler = func(w http.ResponseWriter, _ *http.Request, _ llm.GenerateRequest) {
					_, _ = io.WriteString(w, completion("ok"))
				}

				results := c.Takes(context.Background(), "idea", "", []string{"expansion", "deeper"}, nil)
				Expect(results).To(HaveLen(2))
				Expect(results[0].Text).To(Equal("ok"))
				Expect(results[1].Text).To(Equal("ok"))
				Expect(recorded()).To(HaveLen(2))
			})
		})
	})

	Describe("RelatedThoughts", func() {
		It("returns an empty list without contacting the relay", func() {
			items, err := c.RelatedThoughts(context.Background(), "   ")
			Expect(err).NotTo(HaveOccurred())
			Expect(items).To(BeEmpty())
			Expect(items).NotTo(BeNil())
			Expect(recorded()).To(BeEmpty())
		})

		It("extracts follow-ups from the completion", func() {
			handler = func(w http.ResponseWriter, _ *http.Request, _ llm.GenerateRequest) {
				_, _ = io.WriteString(w, completion(`{"questions":["Why does this work?","What breaks it?"]}`))
			}

			items, err := c.RelatedThoughts(context.Background(), "some long answer")
			Expect(err).NotTo(HaveOccurred())
			Expect(items).To(Equal([]string{"Why does this work?", "What breaks it?"}))

			reqs := recorded()
			Expect(reqs).To(HaveLen(1))
			Expect(reqs[0].ContentType).To(Equal("relatedThoughts"))
			Expect(reqs[0].Stream).To(BeFalse())
		})
	})

	Describe("Status", func() {
		It("reports a healthy relay", func() {
			var path string
			handler = func(w http.ResponseWriter, r *http.Request, _ llm.GenerateRequest) {
				mu.Lock()
				path = r.URL.Path
				mu.Unlock()
				_ = json.NewEncoder(w).Encode(llm.StatusResponse{Status: "ok", Configured: true, Message: "API configured correctly"})
			}

			Expect(c.Status(context.Background())).To(BeTrue())
			mu.Lock()
			Expect(path).To(Equal("/api/llm/status"))
			mu.Unlock()

			report, err := c.StatusReport(context.Background())
			Expect(err).NotTo(HaveOccurred())
			Expect(report.Configured).To(BeTrue())
		})

		It("reports an unreachable relay", func() {
			server.Close()
			Expect(c.Status(context.Background())).To(BeFalse())
		})
	})

	Describe("Personas", func() {
		It("decodes the persona list", func() {
			handler = func(w http.ResponseWriter, _ *http.Request, _ llm.GenerateRequest) {
				_, _ = io.WriteString(w, `[{"id":"naval","name":"Naval Ravikant"}]`)
			}

			personas, err := c.Personas(context.Background())
			Expect(err).NotTo(HaveOccurred())
			Expect(personas).To(HaveLen(1))
			Expect(personas[0].ID).To(Equal("naval"))
		})
	})
})
