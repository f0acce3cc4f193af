package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httputil"
	_ "net/http/pprof"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alonana/harmetrics/buffer"
	"github.com/alonana/harmetrics/capture"
	"github.com/alonana/harmetrics/core"
	"github.com/alonana/harmetrics/core/aggregated"
	"github.com/alonana/harmetrics/exporters"
	"github.com/alonana/harmetrics/filter"
	"github.com/alonana/harmetrics/transport"
)

// EntryPoint runs a reverse proxy in front of the upstream and records every exchange
// passing through it.
type EntryPoint struct {
	Config         *core.Configuration
	signalsChannel chan os.Signal
	reporter       *aggregated.Reporter
	processor      *exporters.Processor
	watcher        *filter.Watcher
	middleware     *capture.Middleware
	server         *http.Server
}

func NewEntryPoint(c *core.Configuration) *EntryPoint {
	return &EntryPoint{Config: c}
}

// Setup builds the pipeline without serving, so it can be tested with Handler.
func (p *EntryPoint) Setup() error {
	c := p.Config
	if c.UpstreamURL == "" {
		return fmt.Errorf("upstream argument must be supplied")
	}
	upstream, err := url.Parse(c.UpstreamURL)
	if err != nil {
		return fmt.Errorf("parse upstream %v failed: %w", c.UpstreamURL, err)
	}

	source, err := p.filterSource()
	if err != nil {
		return err
	}

	var publisher core.MetricPublisher
	if c.CloudWatchNamespace != "" {
		publisher = core.NewCloudWatchClient(c.AWSRegion, c.CloudWatchNamespace, c.CreatorName)
	}

	p.reporter = aggregated.NewReporter(c.AggregatedLogInterval)
	if hasSink(c.Sinks, "cloudwatch") {
		p.reporter.Publisher = publisher
	}
	p.reporter.Start()

	p.processor, err = exporters.CreateProcessor(c, p.reporter, transport.NewFastHTTP(c.DeliveryTimeout), publisher)
	if err != nil {
		p.reporter.Stop()
		if p.watcher != nil {
			p.watcher.Stop()
		}
		return err
	}
	p.processor.Start()

	p.middleware = capture.New(source, buffer.New(c.BufferLength, p.processor), p.reporter)
	p.middleware.MaxBodySize = c.MaxBodySize
	if c.IdentityHeader != "" {
		p.middleware.Identify = headerIdentity(c.IdentityHeader)
	}

	proxy := httputil.NewSingleHostReverseProxy(upstream)
	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		p.reporter.Warn("proxy to %v failed: %v", upstream.Host, err)
		w.WriteHeader(http.StatusBadGateway)
	}

	mux := http.NewServeMux()
	mux.Handle("/", p.middleware.Handler(proxy))
	p.server = &http.Server{
		Addr:              c.ListenAddress,
		Handler:           mux,
		ReadHeaderTimeout: 30 * time.Second,
	}
	return nil
}

func (p *EntryPoint) filterSource() (capture.FilterSource, error) {
	c := p.Config
	if c.PolicyFile == "" {
		return filter.New(filter.PolicyFromConfig(c)), nil
	}

	watcher, err := filter.NewWatcher(c.PolicyFile)
	if err != nil {
		return nil, err
	}
	if c.WatchPolicy {
		err = watcher.Start()
		if err != nil {
			return nil, err
		}
		p.watcher = watcher
	}
	return watcher, nil
}

func (p *EntryPoint) Handler() http.Handler {
	return p.server.Handler
}

func (p *EntryPoint) Run() {
	core.Info("Starting")
	err := p.Setup()
	if err != nil {
		core.Fatal("setup failed: %v", err)
	}

	go func() {
		core.Warn("DEBUG SERVER: %v", http.ListenAndServe("localhost:6060", nil))
	}()

	go func() {
		core.Info("proxying %v to %v", p.Config.ListenAddress, p.Config.UpstreamURL)
		err := p.server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			core.Fatal("serve failed: %v", err)
		}
	}()

	p.signalsChannel = make(chan os.Signal, 1)
	signal.Notify(p.signalsChannel, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-p.signalsChannel

	core.Info("Termination initiated")
	p.Shutdown()
	core.Info("Terminating complete")
}

// Shutdown stops accepting requests, flushes the partial batch and drains the sinks.
func (p *EntryPoint) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	err := p.server.Shutdown(ctx)
	if err != nil {
		core.Warn("server shutdown failed: %v", err)
	}

	p.middleware.Close()
	p.processor.Stop()
	if p.watcher != nil {
		p.watcher.Stop()
	}
	p.reporter.Stop()

	counters := p.processor.Counters()
	core.Info("%v entries delivered, %v dropped, %v failed", counters.Delivered, counters.Dropped, counters.Failed)
}

// headerIdentity names the caller by a request header. Requests without it get no group.
func headerIdentity(name string) func(r *http.Request) *core.Group {
	return func(r *http.Request) *core.Group {
		id := r.Header.Get(name)
		if id == "" {
			return nil
		}
		return &core.Group{Id: id}
	}
}

func hasSink(sinks string, name string) bool {
	for _, s := range splitList(sinks) {
		if s == name {
			return true
		}
	}
	return false
}
