package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"essaycore/internal/backup"
	"essaycore/internal/core"
)

func statsCmd(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet(a, "stats")
	if err := parse(fs, args, false); err != nil {
		return err
	}
	fmt.Fprintln(a.stdout, renderStats(a.svc.Stats(ctx)))
	return nil
}

func exportCmd(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet(a, "export")
	out := fs.String("o", "", "output file, - for stdout (default college-essays-<date>.json)")
	key := fs.String("blob", "", "write to this blob key instead of a file")
	if err := parse(fs, args, false); err != nil {
		return err
	}

	if *key != "" {
		info, err := a.svc.ExportEssaysToBlob(ctx, *key)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.stdout, "exported to blob %s (%d bytes)\n", info.Key, info.Size)
		return nil
	}

	if *out == "-" {
		_, err := a.svc.ExportEssays(ctx, a.stdout)
		return err
	}
	path := *out
	if path == "" {
		path = core.ExportFilename(a.now())
	}
	var buf bytes.Buffer
	n, err := a.svc.ExportEssays(ctx, &buf)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	fmt.Fprintf(a.stdout, "exported %d essays to %s\n", n, path)
	return nil
}

func importCmd(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet(a, "import")
	in := fs.String("in", "", "JSON export to read, - for stdin")
	if err := parse(fs, args, false); err != nil {
		return err
	}
	if err := required(fs, map[string]string{"in": *in}); err != nil {
		return err
	}
	data, err := a.readInput(*in)
	if err != nil {
		return err
	}
	n, res, err := a.svc.ImportEssays(ctx, bytes.NewReader(data))
	if err != nil {
		return err
	}
	a.warn(res)
	fmt.Fprintf(a.stdout, "imported %d essays\n", n)
	return nil
}

// backupCmd writes one backup, or with -daemon keeps the cron schedule
// running until interrupted.
func backupCmd(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet(a, "backup")
	daemon := fs.Bool("daemon", false, "run on the configured schedule until interrupted")
	metricsAddr := fs.String("metrics-addr", a.cfg.MetricsAddr, "serve Prometheus /metrics on this address while -daemon runs")
	if err := parse(fs, args, false); err != nil {
		return err
	}
	sched, err := backup.New(a.svc, backup.Config{
		Schedule: a.cfg.Backup.Schedule,
		Retain:   a.cfg.Backup.Retain,
		Logger:   a.logger,
	})
	if err != nil {
		return err
	}
	if !*daemon {
		info, err := sched.RunOnce(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.stdout, "backup written to %s\n", info.Key)
		return nil
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	if *metricsAddr != "" {
		addr, stopMetrics, err := serveMetrics(a, *metricsAddr)
		if err != nil {
			return fmt.Errorf("metrics: %w", err)
		}
		defer stopMetrics()
		a.logger.Info("serving metrics", "addr", addr)
	}
	sched.Start()
	a.logger.Info("backup daemon running", "schedule", a.cfg.Backup.Schedule, "next", sched.Next())
	<-ctx.Done()
	sched.Stop()
	return nil
}
