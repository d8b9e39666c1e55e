// Package hardware supplies the host's hardware inventory, either from the
// on-disk snapshot written by the external collector or by invoking the
// collector and re-reading.
package hardware

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

// ErrReadFailed marks a failed read of the inventory snapshot. When it is the
// only failure, a rebuild was attempted and succeeded; when both the read and
// the rebuild-then-read fail, the returned error wraps ErrReadFailed and the
// rebuild cause.
var ErrReadFailed = errors.New("hardware inventory read failed")

// DataProvider yields the current hardware inventory.
type DataProvider interface {
	// Get returns the inventory. When fetch is true the collector is run
	// unconditionally before reading; otherwise the cached snapshot is
	// read first and the collector only runs if that read fails.
	Get(ctx context.Context, fetch bool) (*Inventory, error)
}

// Provider implements DataProvider around a snapshot file and a collector CLI.
type Provider struct {
	filePath string
	cli      string
	logger   zerolog.Logger
}

// NewProvider creates a Provider. filePath is the snapshot location, cli the
// collector command invoked as "<cli> --output-file <filePath>".
func NewProvider(filePath, cli string, logger zerolog.Logger) *Provider {
	return &Provider{
		filePath: filePath,
		cli:      cli,
		logger:   logger,
	}
}

// Get implements DataProvider with the two-step fallback: read, and on any
// read or parse failure rebuild once and re-read. A second failure is fatal
// to the request and carries both causes.
func (p *Provider) Get(ctx context.Context, fetch bool) (*Inventory, error) {
	if fetch {
		if err := p.rebuild(ctx); err != nil {
			return nil, fmt.Errorf("rebuilding hardware inventory: %w", err)
		}
	}

	inv, readErr := p.read()
	if readErr == nil {
		return inv, nil
	}

	p.logger.Warn().Err(readErr).Str("path", p.filePath).
		Msg("hardware snapshot unreadable, invoking collector")

	if err := p.rebuild(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v; rebuild also failed: %w", ErrReadFailed, readErr, err)
	}
	inv, err := p.read()
	if err != nil {
		return nil, fmt.Errorf("%w after rebuild: %w", ErrReadFailed, err)
	}
	return inv, nil
}

func (p *Provider) read() (*Inventory, error) {
	data, err := os.ReadFile(p.filePath)
	if err != nil {
		return nil, err
	}
	var inv Inventory
	if err := json.Unmarshal(data, &inv); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", p.filePath, err)
	}
	return &inv, nil
}

// rebuild runs the collector, which overwrites the snapshot with a fresh
// full inventory. Concurrent rebuilds race on the file; acceptable because
// every writer produces a complete snapshot.
func (p *Provider) rebuild(ctx context.Context) error {
	cmd := exec.CommandContext(ctx, p.cli, "--output-file", p.filePath)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("running %s: %w (output: %s)", p.cli, err, out)
	}
	p.logger.Debug().Str("cli", p.cli).Str("path", p.filePath).Msg("hardware inventory collected")
	return nil
}
