// Command bps is a thin CLI wrapper around the github.com/binarypatch/bps
// codec: everything file-I/O, flag-parsing, or logging related lives here,
// outside the core per spec §1's "external collaborators" scope.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"github.com/binarypatch/bps"
)

type encodeCmd struct {
	Source   string `arg:"" type:"existingfile" help:"Original file."`
	Target   string `arg:"" type:"existingfile" help:"Modified file."`
	Patch    string `arg:"" help:"Patch file to write."`
	Metadata string `arg:"" optional:"" help:"Opaque metadata string to embed in the patch."`
	Search   string `default:"linear" enum:"linear,rollinghash,suffixarray" help:"Substring-search backend."`
}

func (c *encodeCmd) Run(logger *slog.Logger) error {
	source, err := os.ReadFile(c.Source)
	if err != nil {
		return fmt.Errorf("reading source: %w", err)
	}
	target, err := os.ReadFile(c.Target)
	if err != nil {
		return fmt.Errorf("reading target: %w", err)
	}

	patch, err := bps.EncodeWithOptions(source, target, c.Metadata, bps.EncodeOptions{
		Backend: searchBackend(c.Search),
	})
	if err != nil {
		return fmt.Errorf("encoding patch: %w", err)
	}

	if err := os.WriteFile(c.Patch, patch, 0o644); err != nil {
		return fmt.Errorf("writing patch: %w", err)
	}

	logger.Info("wrote patch", slog.Int("sourceSize", len(source)), slog.Int("targetSize", len(target)), slog.Int("patchSize", len(patch)))
	return nil
}

func searchBackend(name string) bps.SearchBackend {
	switch name {
	case "rollinghash":
		return bps.SearchRollingHash
	case "suffixarray":
		return bps.SearchSuffixArray
	default:
		return bps.SearchLinear
	}
}

type decodeCmd struct {
	Source string `arg:"" type:"existingfile" help:"Original file."`
	Patch  string `arg:"" type:"existingfile" help:"Patch file to apply."`
	Target string `arg:"" help:"File to write the reconstructed target to."`
}

func (c *decodeCmd) Run(logger *slog.Logger) error {
	source, err := os.ReadFile(c.Source)
	if err != nil {
		return fmt.Errorf("reading source: %w", err)
	}
	patch, err := os.ReadFile(c.Patch)
	if err != nil {
		return fmt.Errorf("reading patch: %w", err)
	}

	target, warnings, err := bps.Decode(source, patch)
	if err != nil {
		return fmt.Errorf("decoding patch: %w", err)
	}

	if err := os.WriteFile(c.Target, target, 0o644); err != nil {
		return fmt.Errorf("writing target: %w", err)
	}

	for _, w := range warnings {
		logger.Warn("decode diagnostic", slog.String("kind", w.Kind.String()), slog.Uint64("expected", uint64(w.Expected)), slog.Uint64("actual", uint64(w.Actual)))
	}
	logger.Info("wrote target", slog.Int("targetSize", len(target)), slog.Int("warnings", len(warnings)))
	return nil
}

type cli struct {
	Encode encodeCmd `cmd:"" help:"Build a patch from a source and a target file."`
	Decode decodeCmd `cmd:"" help:"Apply a patch to a source file."`
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	var c cli
	ctx := kong.Parse(&c, kong.Bind(logger))
	if err := ctx.Run(); err != nil {
		logger.Error("command failed", slog.String("command", ctx.Command()), slog.Any("error", err))
		os.Exit(1)
	}
}
