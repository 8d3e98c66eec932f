package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/thoughtstream/pkg/eventstream"
	"github.com/papercomputeco/thoughtstream/pkg/llm"
	"github.com/papercomputeco/thoughtstream/pkg/logger"
	"github.com/papercomputeco/thoughtstream/relay/header"
)

var sseChunks = []string{
	"data: {\"id\":\"chatcmpl-1\",\"choices\":[{\"index\":0,\"delta\":{\"role\":\"assistant\",\"content\":\"Hello\"}}]}\n\n",
	": keep-alive\n\n",
	"data: {\"id\":\"chatcmpl-1\",\"choices\":[{\"index\":0,\"delta\":{\"content\":\" wor",
	"ld\"}}]}\n\ndata: {not json}\n\n",
	"data: [DONE]\n\n",
}

// recordingPublisher collects published events.
type recordingPublisher struct {
	mu     sync.Mutex
	events []*eventstream.GenerationEvent
}

func (p *recordingPublisher) PublishGeneration(_ context.Context, event *eventstream.GenerationEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) published() []*eventstream.GenerationEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*eventstream.GenerationEvent(nil), p.events...)
}

// upstreamCall is what the fake provider saw.
type upstreamCall struct {
	auth string
	body llm.ChatRequest
}

func newTestRelay(upstreamURL, apiKey string, publisher eventstream.Publisher) *Relay {
	r, err := New(Config{
		ListenAddr:  ":0",
		UpstreamURL: upstreamURL,
		APIKey:      apiKey,
		Publisher:   publisher,
	}, logger.Nop())
	Expect(err).NotTo(HaveOccurred())
	return r
}

func generateRequest(body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/llm", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeError(resp *http.Response) llm.ErrorResponse {
	var got llm.ErrorResponse
	ExpectWithOffset(1, json.NewDecoder(resp.Body).Decode(&got)).To(Succeed())
	return got
}

var _ = Describe("Relay", func() {
	var (
		r         *Relay
		upstream  *httptest.Server
		publisher *recordingPublisher
		calls     chan upstreamCall
	)

	// startUpstream runs handler as the provider and records every call.
	startUpstream := func(handler http.HandlerFunc) {
		upstream = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			var body llm.ChatRequest
			_ = json.NewDecoder(req.Body).Decode(&body)
			calls <- upstreamCall{auth: req.Header.Get("Authorization"), body: body}
			handler(w, req)
		}))
		r = newTestRelay(upstream.URL+"/v1/chat/completions", "sk-test", publisher)
	}

	BeforeEach(func() {
		publisher = &recordingPublisher{}
		calls = make(chan upstreamCall, 4)
	})

	AfterEach(func() {
		if r != nil {
			_ = r.Close()
			r = nil
		}
		if upstream != nil {
			upstream.Close()
			upstream = nil
		}
	})

	Context("when the provider streams", func() {
		BeforeEach(func() {
			startUpstream(func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "text/event-stream")
				w.Header().Set("X-Request-Id", "req_upstream")
				flusher := w.(http.Flusher)
				for _, chunk := range sseChunks {
					fmt.Fprint(w, chunk)
					flusher.Flush()
				}
			})
		})

		It("forwards the provider bytes untouched", func() {
			resp, err := r.server.Test(generateRequest(`{"text":"tiny houses","contentType":"expansion","personaId":"naval","stream":true}`), -1)
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()

			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			body, err := io.ReadAll(resp.Body)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(body)).To(Equal(strings.Join(sseChunks, "")))
		})

		It("sets the streaming headers", func() {
			resp, err := r.server.Test(generateRequest(`{"text":"x","stream":true}`), -1)
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()

			Expect(resp.Header.Get("Content-Type")).To(Equal("text/event-stream"))
			Expect(resp.Header.Get("Cache-Control")).To(Equal("no-cache"))
			Expect(resp.Header.Get("X-Accel-Buffering")).To(Equal("no"))
			Expect(resp.Header.Get("X-Request-Id")).To(Equal("req_upstream"))
			Expect(resp.Header.Get(header.RequestIDHeader)).NotTo(BeEmpty())
		})

		It("renders the provider request from the catalog", func() {
			resp, err := r.server.Test(generateRequest(`{"text":"tiny houses","contentType":"synapse","personaId":"naval","stream":true}`), -1)
			Expect(err).NotTo(HaveOccurred())
			resp.Body.Close()

			var call upstreamCall
			Eventually(calls).Should(Receive(&call))
			Expect(call.auth).To(Equal("Bearer sk-test"))
			Expect(call.body.Stream).To(BeTrue())
			Expect(call.body.Temperature).To(Equal(0.9))
			Expect(call.body.Messages).To(HaveLen(1))
			Expect(call.body.Messages[0].Content).To(HavePrefix("Respond as if you were Naval."))
			Expect(call.body.Messages[0].Content).To(ContainSubstring(`: "tiny houses". `))
		})

		It("publishes what it observed", func() {
			resp, err := r.server.Test(generateRequest(`{"text":"x","contentType":"expansion","stream":true}`), -1)
			Expect(err).NotTo(HaveOccurred())
			_, _ = io.Copy(io.Discard, resp.Body)
			resp.Body.Close()

			Eventually(publisher.published).Should(HaveLen(1))
			event := publisher.published()[0]
			Expect(event.Request.Streaming).To(BeTrue())
			Expect(event.Request.ContentType).To(Equal("expansion"))
			Expect(event.Request.HTTPStatus).To(Equal(http.StatusOK))
			Expect(event.Result.Characters).To(Equal(len("Hello world")))
			Expect(event.Result.Fragments).To(Equal(int64(2)))
			Expect(event.Result.Malformed).To(Equal(int64(1)))
			Expect(event.Result.Error).To(BeEmpty())
		})
	})

	Context("when the provider fails before streaming", func() {
		It("maps an object error to the structured shape and forwards no provider bytes", func() {
			startUpstream(func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				fmt.Fprint(w, `{"error":{"message":"x"}}`)
			})

			resp, err := r.server.Test(generateRequest(`{"text":"x","stream":true}`), -1)
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()

			Expect(resp.StatusCode).To(Equal(http.StatusInternalServerError))
			Expect(resp.Header.Get("Content-Type")).To(HavePrefix("application/json"))
			body, err := io.ReadAll(resp.Body)
			Expect(err).NotTo(HaveOccurred())
			Expect(body).To(MatchJSON(`{"error":"x","status":500}`))

			Eventually(publisher.published).Should(HaveLen(1))
			Expect(publisher.published()[0].Result.Error).To(Equal("x"))
		})

		It("keeps the provider status and a plain-text message", func() {
			startUpstream(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusTooManyRequests)
				fmt.Fprint(w, "slow down\n")
			})

			resp, err := r.server.Test(generateRequest(`{"text":"x","stream":true}`), -1)
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()

			Expect(resp.StatusCode).To(Equal(http.StatusTooManyRequests))
			Expect(decodeError(resp)).To(Equal(llm.ErrorResponse{Error: "slow down", Status: 429}))
		})

		It("describes an empty error body by its status", func() {
			startUpstream(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusServiceUnavailable)
			})

			resp, err := r.server.Test(generateRequest(`{"text":"x","stream":false}`), -1)
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()

			Expect(resp.StatusCode).To(Equal(http.StatusServiceUnavailable))
			Expect(decodeError(resp).Error).To(Equal("upstream returned status 503"))
		})
	})

	Context("when the provider is unreachable", func() {
		It("answers 502", func() {
			dead := httptest.NewServer(http.NotFoundHandler())
			deadURL := dead.URL
			dead.Close()

			r = newTestRelay(deadURL, "sk-test", publisher)
			resp, err := r.server.Test(generateRequest(`{"text":"x","stream":true}`), -1)
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()

			Expect(resp.StatusCode).To(Equal(http.StatusBadGateway))
			Expect(decodeError(resp)).To(Equal(llm.ErrorResponse{Error: "upstream request failed", Status: 502}))
		})
	})

	Context("when the provider drops the connection mid-stream", func() {
		BeforeEach(func() {
			startUpstream(func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "text/event-stream")
				fmt.Fprint(w, sseChunks[0])
				w.(http.Flusher).Flush()

				conn, _, err := w.(http.Hijacker).Hijack()
				if err == nil {
					_ = conn.Close()
				}
			})
		})

		It("aborts the client body instead of ending it cleanly", func() {
			resp, err := r.server.Test(generateRequest(`{"text":"x","stream":true}`), -1)
			if err == nil {
				defer resp.Body.Close()
				_, err = io.ReadAll(resp.Body)
			}
			Expect(err).To(HaveOccurred())

			Eventually(publisher.published).Should(HaveLen(1))
			event := publisher.published()[0]
			Expect(event.Result.Error).To(ContainSubstring("reading stream"))
			Expect(event.Result.Characters).To(Equal(len("Hello")))
		})
	})

	Context("when the provider answers a stream request with a complete reply", func() {
		const reply = `{"id":"chatcmpl-3","choices":[{"index":0,"message":{"role":"assistant","content":"hello world"}}]}`

		BeforeEach(func() {
			startUpstream(func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json; charset=utf-8")
				fmt.Fprint(w, reply)
			})
		})

		It("relays it as JSON instead of as an event stream", func() {
			resp, err := r.server.Test(generateRequest(`{"text":"x","stream":true}`), -1)
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()

			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(resp.Header.Get("Content-Type")).To(Equal(fiber.MIMEApplicationJSON))
			Expect(resp.Header.Get("X-Accel-Buffering")).To(BeEmpty())
			body, err := io.ReadAll(resp.Body)
			Expect(err).NotTo(HaveOccurred())
			Expect(body).To(MatchJSON(reply))

			Eventually(publisher.published).Should(HaveLen(1))
			event := publisher.published()[0]
			Expect(event.Request.Streaming).To(BeFalse())
			Expect(event.Result.Characters).To(Equal(len("hello world")))
		})
	})

	Context("when the provider streams without a content type", func() {
		BeforeEach(func() {
			startUpstream(func(w http.ResponseWriter, _ *http.Request) {
				w.Header()["Content-Type"] = nil
				for _, chunk := range sseChunks {
					fmt.Fprint(w, chunk)
				}
			})
		})

		It("still relays an event stream", func() {
			resp, err := r.server.Test(generateRequest(`{"text":"x","stream":true}`), -1)
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()

			Expect(resp.Header.Get("Content-Type")).To(Equal("text/event-stream"))
			body, err := io.ReadAll(resp.Body)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(body)).To(Equal(strings.Join(sseChunks, "")))
		})
	})

	Context("when the client stops reading while the provider is idle", func() {
		var upstreamGone chan struct{}

		BeforeEach(func() {
			upstreamGone = make(chan struct{})
			startUpstream(func(w http.ResponseWriter, req *http.Request) {
				w.Header().Set("Content-Type", "text/event-stream")
				fmt.Fprint(w, sseChunks[0])
				w.(http.Flusher).Flush()

				select {
				case <-req.Context().Done():
					close(upstreamGone)
				case <-time.After(10 * time.Second):
				}
			})
		})

		It("drops the provider connection when the response body is closed", func() {
			ctx, stop := r.newStreamContext()
			req, err := r.newUpstreamRequest(ctx, llm.ChatRequest{Stream: true})
			Expect(err).NotTo(HaveOccurred())
			resp, err := r.httpClient.Do(req)
			Expect(err).NotTo(HaveOccurred())

			pr, pw := io.Pipe()
			body := &streamBody{PipeReader: pr, stop: stop}
			go r.relayStream(ctx, resp, pw, eventstream.GenerationMeta{RequestID: "req-idle", Streaming: true})

			first := make([]byte, len(sseChunks[0]))
			_, err = io.ReadFull(body, first)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(first)).To(Equal(sseChunks[0]))

			Expect(body.Close()).To(Succeed())

			Eventually(upstreamGone).Should(BeClosed())
			Eventually(publisher.published).Should(HaveLen(1))
			Expect(publisher.published()[0].Result.Error).To(Equal("client stopped reading"))
		})
	})

	Describe("Close", func() {
		var upstreamGone chan struct{}

		BeforeEach(func() {
			upstreamGone = make(chan struct{})
			upstream = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				w.Header().Set("Content-Type", "text/event-stream")
				fmt.Fprint(w, sseChunks[0])
				w.(http.Flusher).Flush()

				select {
				case <-req.Context().Done():
					close(upstreamGone)
				case <-time.After(10 * time.Second):
				}
			}))

			var err error
			r, err = New(Config{
				UpstreamURL:     upstream.URL,
				APIKey:          "sk-test",
				Publisher:       publisher,
				ShutdownTimeout: 100 * time.Millisecond,
				DisableMCP:      true,
			}, logger.Nop())
			Expect(err).NotTo(HaveOccurred())
		})

		It("cancels a stalled stream once the grace period ends", func() {
			ln, err := net.Listen("tcp", "127.0.0.1:0")
			Expect(err).NotTo(HaveOccurred())
			go func() { _ = r.RunWithListener(ln) }()

			resp, err := http.Post("http://"+ln.Addr().String()+"/api/llm", "application/json",
				strings.NewReader(`{"text":"x","stream":true}`))
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()

			first := make([]byte, len(sseChunks[0]))
			_, err = io.ReadFull(resp.Body, first)
			Expect(err).NotTo(HaveOccurred())

			closed := make(chan error, 1)
			go func() { closed <- r.Close() }()

			Eventually(closed, 3*time.Second).Should(Receive(BeNil()))
			Eventually(upstreamGone).Should(BeClosed())
			Expect(publisher.published()).To(ConsistOf(
				HaveField("Result.Error", "relay shutting down"),
			))
		})

		It("can be called more than once", func() {
			Expect(r.Close()).To(Succeed())
			Expect(r.Close()).To(Succeed())
		})
	})

	Context("when compression is requested", func() {
		BeforeEach(func() {
			startUpstream(func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "text/event-stream")
				for _, chunk := range sseChunks {
					fmt.Fprint(w, chunk)
				}
			})
		})

		DescribeTable("sends generations uncompressed",
			func(path string) {
				req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(`{"text":"x","stream":true}`))
				req.Header.Set("Content-Type", "application/json")
				req.Header.Set("Accept-Encoding", "gzip")

				resp, err := r.server.Test(req, -1)
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()

				Expect(resp.StatusCode).To(Equal(http.StatusOK))
				Expect(resp.Header.Get("Content-Encoding")).To(BeEmpty())
				body, err := io.ReadAll(resp.Body)
				Expect(err).NotTo(HaveOccurred())
				Expect(string(body)).To(Equal(strings.Join(sseChunks, "")))
			},
			Entry("at the route", "/api/llm"),
			Entry("with a trailing slash", "/api/llm/"),
			Entry("in another case", "/API/LLM"),
		)
	})

	Context("when not streaming", func() {
		It("returns the provider reply as received", func() {
			reply := `{"id":"chatcmpl-2","choices":[{"index":0,"message":{"role":"assistant","content":"Full answer."}}]}`
			startUpstream(func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				fmt.Fprint(w, reply)
			})

			resp, err := r.server.Test(generateRequest(`{"text":"x","contentType":"preview"}`), -1)
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()

			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			body, err := io.ReadAll(resp.Body)
			Expect(err).NotTo(HaveOccurred())
			Expect(body).To(MatchJSON(reply))

			var call upstreamCall
			Eventually(calls).Should(Receive(&call))
			Expect(call.body.Stream).To(BeFalse())
			Expect(call.body.MaxTokens).To(Equal(200))
		})

		It("maps an error body sent with 200 to a 500", func() {
			startUpstream(func(w http.ResponseWriter, _ *http.Request) {
				fmt.Fprint(w, `{"error":{"message":"model overloaded"}}`)
			})

			resp, err := r.server.Test(generateRequest(`{"text":"x"}`), -1)
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()

			Expect(resp.StatusCode).To(Equal(http.StatusInternalServerError))
			Expect(decodeError(resp)).To(Equal(llm.ErrorResponse{Error: "model overloaded", Status: 500}))
		})

		It("serves Complete for in-process callers", func() {
			startUpstream(func(w http.ResponseWriter, _ *http.Request) {
				fmt.Fprint(w, `{"choices":[{"message":{"content":"done"}}]}`)
			})

			text, err := r.Complete(context.Background(), llm.GenerateRequest{Text: "x", ContentType: "deeper"})
			Expect(err).NotTo(HaveOccurred())
			Expect(text).To(Equal("done"))
		})

		It("returns an UpstreamError from Complete on failure", func() {
			startUpstream(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
				fmt.Fprint(w, `{"error":{"message":"bad key","type":"invalid_request_error"}}`)
			})

			_, err := r.Complete(context.Background(), llm.GenerateRequest{Text: "x"})
			var upErr *llm.UpstreamError
			Expect(err).To(BeAssignableToTypeOf(upErr))
			Expect(err).To(MatchError("upstream returned status 401: bad key"))
		})
	})

	Context("request validation", func() {
		BeforeEach(func() {
			startUpstream(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusTeapot)
			})
		})

		DescribeTable("rejects bad bodies with 400",
			func(body, message string) {
				resp, err := r.server.Test(generateRequest(body), -1)
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()

				Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
				Expect(decodeError(resp)).To(Equal(llm.ErrorResponse{Error: message, Status: 400}))
				Expect(calls).To(BeEmpty())
			},
			Entry("missing text", `{"stream":true}`, "text is required"),
			Entry("blank text", `{"text":"   "}`, "text is required"),
			Entry("not JSON", `text=hello`, "invalid request body"),
		)
	})

	Context("without an API key", func() {
		BeforeEach(func() {
			r = newTestRelay("http://127.0.0.1:1", "", publisher)
		})

		It("refuses to generate", func() {
			resp, err := r.server.Test(generateRequest(`{"text":"x","stream":true}`), -1)
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()

			Expect(resp.StatusCode).To(Equal(http.StatusInternalServerError))
			Expect(decodeError(resp).Error).To(Equal("API key not configured"))
		})

		It("reports itself unconfigured with a 200", func() {
			resp, err := r.server.Test(httptest.NewRequest(http.MethodGet, "/api/llm/status", nil), -1)
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()

			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			var status llm.StatusResponse
			Expect(json.NewDecoder(resp.Body).Decode(&status)).To(Succeed())
			Expect(status).To(Equal(llm.StatusResponse{Status: "error", Configured: false, Message: "API key not configured"}))
		})
	})

	Context("auxiliary endpoints", func() {
		BeforeEach(func() {
			r = newTestRelay("http://127.0.0.1:1", "sk-test", publisher)
		})

		It("reports a configured relay", func() {
			resp, err := r.server.Test(httptest.NewRequest(http.MethodGet, "/api/llm/status", nil), -1)
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()

			var status llm.StatusResponse
			Expect(json.NewDecoder(resp.Body).Decode(&status)).To(Succeed())
			Expect(status.Configured).To(BeTrue())
			Expect(status.Status).To(Equal("ok"))
		})

		It("lists personas", func() {
			resp, err := r.server.Test(httptest.NewRequest(http.MethodGet, "/api/personas", nil), -1)
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()

			var personas []map[string]any
			Expect(json.NewDecoder(resp.Body).Decode(&personas)).To(Succeed())
			Expect(personas).To(HaveLen(7))
			Expect(personas[1]).To(HaveKeyWithValue("id", "naval"))
			Expect(personas[1]).NotTo(HaveKey("instruction"))
		})

		It("answers ping", func() {
			resp, err := r.server.Test(httptest.NewRequest(http.MethodGet, "/ping", nil), -1)
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()

			body, _ := io.ReadAll(resp.Body)
			Expect(string(body)).To(Equal(`"pong"`))
		})

		It("mounts the MCP endpoint", func() {
			req := httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader(
				`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2025-06-18","capabilities":{},"clientInfo":{"name":"t","version":"0"}}}`,
			))
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Accept", "application/json, text/event-stream")

			resp, err := r.server.Test(req, -1)
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()

			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			body, _ := io.ReadAll(resp.Body)
			Expect(string(body)).To(ContainSubstring("thoughtstream"))
		})
	})
	Describe("CORS", func() {
		newCORSRelay := func(origins ...string) *Relay {
			r, err := New(Config{
				ListenAddr:     ":0",
				APIKey:         "sk-test",
				AllowedOrigins: origins,
				DisableMCP:     true,
			}, logger.Nop())
			Expect(err).NotTo(HaveOccurred())
			return r
		}

		preflight := func(r *Relay, origin string) *http.Response {
			req := httptest.NewRequest(http.MethodOptions, "/api/llm", nil)
			req.Header.Set("Origin", origin)
			req.Header.Set("Access-Control-Request-Method", http.MethodPost)
			resp, err := r.server.Test(req, -1)
			Expect(err).NotTo(HaveOccurred())
			DeferCleanup(resp.Body.Close)
			return resp
		}

		It("allows configured origins", func() {
			resp := preflight(newCORSRelay("http://localhost:3000"), "http://localhost:3000")
			Expect(resp.Header.Get("Access-Control-Allow-Origin")).To(Equal("http://localhost:3000"))
		})

		It("does not allow other origins", func() {
			resp := preflight(newCORSRelay("http://localhost:3000"), "https://evil.example")
			Expect(resp.Header.Get("Access-Control-Allow-Origin")).To(BeEmpty())
		})

		It("sends no CORS headers when no origins are configured", func() {
			resp := preflight(newCORSRelay(), "http://localhost:3000")
			Expect(resp.Header.Get("Access-Control-Allow-Origin")).To(BeEmpty())
		})
	})
})
