// Command recon-demo renders a keyed list into an in-memory host, updates it a
// few times and prints the host mutations of every commit.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/AnatoleLucet/recon"
	"github.com/AnatoleLucet/recon/internal/memhost"
)

type todo struct {
	ID    string
	Title string
}

type app struct {
	todos []todo
}

var row = recon.NewComponent(recon.ComponentSpec[todo, bool]{
	Name: "Row",
	Render: func(t todo, done bool, self *recon.Self[bool]) (*recon.Element, error) {
		mark := "[ ]"
		if done {
			mark = "[x]"
		}
		return recon.H("li", recon.Props{
			"id":      t.ID,
			"onClick": func() { self.Set(recon.InputLane, func(done bool) bool { return !done }) },
		}, recon.Text(mark+" "+t.Title)), nil
	},
})

func (a *app) view() *recon.Element {
	rows := make([]*recon.Element, len(a.todos))
	for i, t := range a.todos {
		rows[i] = row.New(t).WithKey(t.ID)
	}
	return recon.H("main", nil,
		recon.H("h1", nil, recon.Text(fmt.Sprintf("%d todos", len(a.todos)))),
		recon.H("ul", nil, rows...),
	)
}

func main() {
	configPath := flag.String("config", "", "YAML config file")
	steps := flag.Int("steps", 4, "number of list updates")
	seed := flag.Uint64("seed", 1, "shuffle seed")
	metricsAddr := flag.String("metrics-addr", "", "serve Prometheus metrics on this address after the run")
	flag.Parse()

	cfg := recon.DefaultConfig()
	if *configPath != "" {
		var err error
		if cfg, err = recon.LoadConfig(*configPath); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}
	logger := cfg.Logger(os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, cfg, logger, *steps, *seed); err != nil {
		logger.Error("demo failed", "error", err)
		os.Exit(1)
	}

	if *metricsAddr != "" {
		serveMetrics(ctx, logger, *metricsAddr)
	}
}

func run(ctx context.Context, cfg recon.Config, logger *slog.Logger, steps int, seed uint64) error {
	host := memhost.New()
	loop := cfg.NewLoop()
	root := recon.NewRoot(host.Container, host,
		recon.WithConfig(cfg),
		recon.WithLogger(logger),
		recon.WithScheduler(loop),
	)

	failed := false
	root.OnError(func(error) { failed = true })

	a := &app{}
	for i, title := range []string{"write", "review", "ship", "rest"} {
		a.todos = append(a.todos, todo{ID: fmt.Sprintf("t%d", i), Title: title})
	}

	commit := func(label string) error {
		loop.Drain()
		if failed {
			return errors.New("build abandoned, see logs")
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		fmt.Printf("== %s\n%s\n", label, host.String())
		for _, op := range host.Ops() {
			fmt.Println("  " + op)
		}
		return nil
	}

	root.Render(a.view(), recon.DefaultLane)
	if err := commit("mount"); err != nil {
		return err
	}

	rng := rand.New(rand.NewPCG(seed, seed))
	for step := range steps {
		switch step % 3 {
		case 0:
			rng.Shuffle(len(a.todos), func(i, j int) { a.todos[i], a.todos[j] = a.todos[j], a.todos[i] })
		case 1:
			if len(a.todos) > 1 {
				a.todos = append(a.todos[:1], a.todos[2:]...)
			}
		case 2:
			a.todos = append(a.todos, todo{ID: fmt.Sprintf("t%d", 10+step), Title: "new " + strings.Repeat("!", step)})
		}

		root.Render(a.view(), recon.TransitionLane)
		if err := commit(fmt.Sprintf("step %d", step+1)); err != nil {
			return err
		}
	}

	// click the first row as a host event would
	if first := firstRow(host.Container); first != nil {
		if click, ok := first.Props["onClick"].(func()); ok {
			click()
		}
	}
	return commit("click")
}

func firstRow(container *memhost.Instance) *memhost.Instance {
	for _, top := range container.Children {
		for _, section := range top.Children {
			if section.Kind == "ul" && len(section.Children) > 0 {
				return section.Children[0]
			}
		}
	}
	return nil
}

func serveMetrics(ctx context.Context, logger *slog.Logger, addr string) {
	srv := &http.Server{Addr: addr, Handler: promhttp.Handler()}
	go func() {
		<-ctx.Done()
		srv.Close()
	}()

	logger.Info("serving metrics", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("metrics server stopped", "error", err)
	}
}
