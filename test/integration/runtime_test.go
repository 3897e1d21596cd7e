// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

//go:build integration

package integration

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/holomush/plughost/internal/config"
	"github.com/holomush/plughost/internal/eventbus"
	"github.com/holomush/plughost/internal/hooks"
	"github.com/holomush/plughost/internal/host"
	"github.com/holomush/plughost/internal/plugin"
)

func writePluginFile(root, rel, content string) {
	path := filepath.Join(root, filepath.FromSlash(rel))
	Expect(os.MkdirAll(filepath.Dir(path), 0o750)).To(Succeed())
	Expect(os.WriteFile(path, []byte(content), 0o600)).To(Succeed())
}

var _ = Describe("Plugin host runtime", func() {
	var (
		ctx    context.Context
		cancel context.CancelFunc
		cfg    config.Config
		rt     *host.Runtime
		origin *httptest.Server
	)

	BeforeEach(func() {
		ctx, cancel = context.WithTimeout(context.Background(), 30*time.Second)

		cfg = config.Defaults()
		cfg.PluginsDir = GinkgoT().TempDir()
		writePluginFile(cfg.PluginsDir, "lobby/index.js", "import cfg from './cfg.yaml'\n")
		writePluginFile(cfg.PluginsDir, "lobby/cfg.yaml", "theme: dark\n")
		writePluginFile(cfg.PluginsDir, "lobby/icon.png", "\x89PNG")
		writePluginFile(cfg.PluginsDir, "tools/plugin.yaml", "name: tools\nversion: 2.0.0\nentry: dist/main.js\n")
		writePluginFile(cfg.PluginsDir, "tools/dist/main.js", "export {}\n")

		var err error
		rt, err = host.New(&cfg)
		Expect(err).NotTo(HaveOccurred())

		origin = httptest.NewServer(rt.Assets())
	})

	AfterEach(func() {
		origin.Close()
		cancel()
	})

	get := func(path string, script bool) *http.Response {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, origin.URL+path, nil)
		Expect(err).NotTo(HaveOccurred())
		if script {
			req.Header.Set("Sec-Fetch-Dest", "script")
		}
		resp, err := origin.Client().Do(req)
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(resp.Body.Close)
		return resp
	}

	body := func(resp *http.Response) string {
		b, err := io.ReadAll(resp.Body)
		Expect(err).NotTo(HaveOccurred())
		return string(b)
	}

	Describe("starting", func() {
		It("brings up assets and plugins and exposes entry URLs", func() {
			var seen []string
			rt.Hooks().PreInit(host.ComponentPlugins, func(_ context.Context, c hooks.Component) hooks.Pending {
				return hooks.Async(ctx, func(context.Context) error {
					seen = append(seen, c.Name)
					return nil
				})
			})

			plugins, err := rt.Start(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(plugins).To(HaveLen(2))
			Expect(seen).To(Equal([]string{host.ComponentPlugins}))
			Expect(rt.EntryURLs()).To(Equal([]string{
				"https://plugins/lobby/index.js",
				"https://plugins/tools/dist/main.js",
			}))
		})
	})

	Describe("serving the plugin origin", func() {
		It("serves a directory import as its index script", func() {
			resp := get("/lobby", true)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(resp.Header.Get("Content-Type")).To(Equal("text/javascript"))
			Expect(resp.Header.Get("Cache-Control")).To(Equal("no-store"))
			Expect(body(resp)).To(ContainSubstring("./cfg.yaml"))
		})

		It("wraps a YAML module import", func() {
			resp := get("/lobby/cfg.yaml", true)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(resp.Header.Get("Content-Type")).To(Equal("text/javascript"))
			Expect(body(resp)).To(ContainSubstring("__p('yaml')"))
		})

		It("serves the raw file to fetch requests", func() {
			resp := get("/lobby/cfg.yaml", false)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(body(resp)).To(Equal("theme: dark\n"))
		})

		It("serves binary assets as immutable with an ETag", func() {
			resp := get("/lobby/icon.png", false)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(resp.Header.Get("Content-Type")).To(Equal("image/png"))
			Expect(resp.Header.Get("Cache-Control")).To(Equal("max-age=31536000, immutable"))
			Expect(resp.Header.Get("Etag")).To(MatchRegexp(`^"[0-9a-f]{16}"$`))
		})

		It("answers missing files with 404 and CORS", func() {
			resp := get("/lobby/missing.js", true)
			Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
			Expect(resp.Header.Get("Access-Control-Allow-Origin")).To(Equal("*"))
		})
	})

	Describe("watching for new plugins", func() {
		It("rescans and reports the new entry", func() {
			_, err := rt.Start(ctx)
			Expect(err).NotTo(HaveOccurred())

			changes := make(chan []*plugin.Plugin, 16)
			w := rt.Watcher(func(p []*plugin.Plugin) {
				select {
				case changes <- p:
				default:
				}
			})
			watchCtx, stop := context.WithCancel(ctx)
			defer stop()
			go func() {
				defer GinkgoRecover()
				Expect(w.Run(watchCtx)).To(Succeed())
			}()

			Eventually(func() int {
				writePluginFile(cfg.PluginsDir, "late/index.js", "export {}\n")
				select {
				case p := <-changes:
					return len(p)
				default:
					return 0
				}
			}).WithTimeout(5 * time.Second).WithPolling(50 * time.Millisecond).Should(Equal(3))

			Expect(rt.EntryURLs()).To(ContainElement("https://plugins/late/index.js"))
		})
	})

	Describe("bridging message-bus events", func() {
		It("delivers bus frames to endpoint listeners", func() {
			upgrader := websocket.Upgrader{}
			bus := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				conn, err := upgrader.Upgrade(w, r, nil)
				if err != nil {
					return
				}
				defer conn.Close()

				var sub []any
				if conn.ReadJSON(&sub) != nil {
					return
				}
				frame := `[8,"OnJsonApiEvent",{"data":{"phase":"Lobby"},"eventType":"Update","uri":"/lol-gameflow/v1/session"}]`
				if conn.WriteMessage(websocket.TextMessage, []byte(frame)) != nil {
					return
				}
				for {
					if _, _, err := conn.ReadMessage(); err != nil {
						return
					}
				}
			}))
			defer bus.Close()

			cfg.EventsURL = "ws" + strings.TrimPrefix(bus.URL, "http")
			var err error
			rt, err = host.New(&cfg)
			Expect(err).NotTo(HaveOccurred())

			got := make(chan eventbus.Event, 1)
			sub, err := rt.Events().Observe("/lol-gameflow/v1/session", eventbus.ListenFunc(func(_ context.Context, e eventbus.Event) error {
				got <- e
				return nil
			}))
			Expect(err).NotTo(HaveOccurred())
			defer sub.Disconnect()

			srcCtx, stop := context.WithCancel(ctx)
			defer stop()
			go func() {
				defer GinkgoRecover()
				Expect(rt.EventSource().Run(srcCtx)).To(Succeed())
			}()

			var e eventbus.Event
			Eventually(got).WithTimeout(5 * time.Second).Should(Receive(&e))
			Expect(e.Kind).To(Equal(eventbus.Update))
			Expect(string(e.Data)).To(MatchJSON(`{"phase":"Lobby"}`))
		})
	})
})
