package main

import (
	"context"
	"io"
	"log/slog"

	"github.com/grafana/regexp"

	"github.com/cyberegoorg/consoleproxy/internal/logger"
)

// linePrinter writes console log lines as structured records. Lines below
// the minimum level or not matching the filter are skipped.
type linePrinter struct {
	out    *slog.Logger
	filter *regexp.Regexp
}

func newLinePrinter(w io.Writer, minLevel, filter string) (*linePrinter, error) {
	p := &linePrinter{
		out: slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
			Level: logger.ParseLevel(minLevel),
		})),
	}
	if filter != "" {
		re, err := regexp.Compile(filter)
		if err != nil {
			return nil, err
		}
		p.filter = re
	}
	return p, nil
}

func (p *linePrinter) print(level, where, msg string) {
	if p.filter != nil && !p.filter.MatchString(msg) {
		return
	}
	p.out.Log(context.Background(), logger.ParseLevel(level), msg, "where", where)
}
