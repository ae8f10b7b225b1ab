package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"slices"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/on-the-ground/react_ive_go/effect"
	"github.com/on-the-ground/react_ive_go/store"
)

var errInputClosed = errors.New("input closed")

// searchView is the slice of state the terminal renders.
type searchView struct {
	Query   string
	Hits    []string
	Pending bool
}

func run(ctx context.Context, cfg Config) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	logger := zap.NewNop()
	if verbose {
		l, err := zap.NewDevelopment()
		if err != nil {
			return fmt.Errorf("build logger: %w", err)
		}
		logger = l
		defer func() {
			_ = logger.Sync()
		}()
	}

	srch, err := newSearcher(cfg)
	if err != nil {
		return err
	}
	defer srch.close()

	reg := effect.NewRegistry(effect.WithLogger(logger))
	st := store.New(ctx, searchState{}, newReducer(srch),
		store.WithLogger(logger),
		store.WithRegistry(reg),
	)
	defer st.Close()

	view := store.NewViewStore(st,
		func(s searchState) searchView {
			return searchView{Query: s.Query, Hits: s.Hits, Pending: s.Pending}
		},
		func(a, b searchView) bool {
			return a.Query == b.Query && a.Pending == b.Pending && slices.Equal(a.Hits, b.Hits)
		},
	)
	defer view.Close()

	fmt.Println("type to search, empty line clears, ctrl-d quits")

	g, gctx := errgroup.WithContext(ctx)

	// Stdin reads cannot be interrupted, so the scanner lives outside
	// the group and hands lines over through a channel.
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-gctx.Done():
				return
			}
		}
	}()

	g.Go(func() error {
		for {
			select {
			case line, ok := <-lines:
				if !ok {
					return errInputClosed
				}
				st.Send(queryChanged{Query: strings.TrimSpace(line)})
			case <-gctx.Done():
				return gctx.Err()
			}
		}
	})
	g.Go(func() error {
		for {
			select {
			case v, ok := <-view.Updates():
				if !ok {
					return nil
				}
				render(os.Stdout, v)
			case <-gctx.Done():
				return gctx.Err()
			}
		}
	})

	err = g.Wait()
	if errors.Is(err, errInputClosed) || errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func render(w io.Writer, v searchView) {
	switch {
	case v.Query == "":
		fmt.Fprintln(w, "(idle)")
	case v.Pending:
		fmt.Fprintf(w, "searching %q...\n", v.Query)
	case len(v.Hits) == 0:
		fmt.Fprintf(w, "%q: no matches\n", v.Query)
	default:
		fmt.Fprintf(w, "%q: %s\n", v.Query, strings.Join(v.Hits, ", "))
	}
}
