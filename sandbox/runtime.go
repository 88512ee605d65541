package sandbox

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	"github.com/tetratelabs/wazero/sys"
	"github.com/zeebo/blake3"

	"github.com/caffeineduck/kago/namespace"
)

// clockResolution is the granularity reported to guests for both the
// wall clock and the monotonic clock.
const clockResolution = sys.ClockResolution(time.Microsecond)

// nanotimeStep is how far the monotonic clock advances per read, so
// guest code polling a clock still observes progress, identically on
// every run.
const nanotimeStep = int64(time.Microsecond)

// Result holds the output and metadata from one guest execution.
type Result struct {
	Output   string
	Digest   [32]byte
	Duration time.Duration
	Error    error
}

// Runtime executes guest modules for one Context under deterministic
// configuration: pinned wall clock, counted monotonic clock, seeded
// entropy, and host modules reachable only under their sandbox names.
type Runtime struct {
	sb      *Context
	runtime wazero.Runtime

	mu     sync.Mutex
	closed bool
}

type runtimeConfig struct {
	memoryLimitPages uint32
}

// RuntimeOption configures a Runtime at creation time.
type RuntimeOption func(*runtimeConfig)

// WithMemoryLimit sets the maximum guest memory in 64KB pages.
func WithMemoryLimit(pages uint32) RuntimeOption {
	return func(c *runtimeConfig) {
		c.memoryLimitPages = pages
	}
}

// NewRuntime builds a runtime for this context. Every module in the
// context's host function registry is instantiated under its
// sandbox-namespace name; guests importing host-namespace names fail to
// link.
func (c *Context) NewRuntime(ctx context.Context, opts ...RuntimeOption) (*Runtime, error) {
	var cfg runtimeConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	rtConfig := wazero.NewRuntimeConfig().WithCloseOnContextDone(true)
	if cfg.memoryLimitPages > 0 {
		rtConfig = rtConfig.WithMemoryLimitPages(cfg.memoryLimitPages)
	}

	rt := wazero.NewRuntimeWithConfig(ctx, rtConfig)
	if _, err := wasi_snapshot_preview1.Instantiate(ctx, rt); err != nil {
		rt.Close(ctx)
		return nil, fmt.Errorf("instantiate WASI: %w", err)
	}

	for _, name := range c.registry.List() {
		mod, _ := c.registry.Module(name)
		sbName := c.resolver.ToSandbox(namespace.HostName(name))

		builder := rt.NewHostModuleBuilder(string(sbName))
		fns := mod.Funcs()
		fnNames := make([]string, 0, len(fns))
		for fnName := range fns {
			fnNames = append(fnNames, fnName)
		}
		sort.Strings(fnNames)
		for _, fnName := range fnNames {
			fn := fns[fnName]
			builder = builder.NewFunctionBuilder().
				WithGoModuleFunction(fn.Call, fn.Params, fn.Results).
				Export(fnName)
		}
		if _, err := builder.Instantiate(ctx); err != nil {
			rt.Close(ctx)
			return nil, fmt.Errorf("bind host module %s: %w", sbName, err)
		}
	}

	return &Runtime{sb: c, runtime: rt}, nil
}

type runConfig struct {
	timeout time.Duration
	args    []string
	env     map[string]string
	epoch   time.Time
	seed    int64
}

func defaultRunConfig() runConfig {
	return runConfig{
		timeout: 30 * time.Second,
		epoch:   time.Unix(0, 0),
		seed:    1,
	}
}

// RunOption configures one guest execution.
type RunOption func(*runConfig)

// WithTimeout bounds host-side execution time. The guest never observes
// the deadline through its clocks.
func WithTimeout(d time.Duration) RunOption {
	return func(c *runConfig) {
		c.timeout = d
	}
}

// WithArgs sets the guest's argv.
func WithArgs(args ...string) RunOption {
	return func(c *runConfig) {
		c.args = args
	}
}

// WithEnv sets one guest environment variable.
func WithEnv(key, val string) RunOption {
	return func(c *runConfig) {
		if c.env == nil {
			c.env = make(map[string]string)
		}
		c.env[key] = val
	}
}

// WithEpoch pins the wall clock the guest observes.
func WithEpoch(t time.Time) RunOption {
	return func(c *runConfig) {
		c.epoch = t
	}
}

// WithSeed seeds the guest's entropy source. Same seed, same byte
// stream.
func WithSeed(seed int64) RunOption {
	return func(c *runConfig) {
		c.seed = seed
	}
}

// Run executes a guest module. Two calls with the same guest binary and
// options produce bit-identical Output; Digest is the blake3 digest of
// Output for cheap comparison.
func (r *Runtime) Run(ctx context.Context, guest []byte, opts ...RunOption) Result {
	start := time.Now()

	cfg := defaultRunConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	walltime, nanotime, nanosleep := deterministicClock(cfg.epoch)

	moduleConfig := wazero.NewModuleConfig().
		WithStdout(&stdout).
		WithStderr(&stderr).
		WithArgs(cfg.args...).
		WithName("").
		WithWalltime(walltime, clockResolution).
		WithNanotime(nanotime, clockResolution).
		WithNanosleep(nanosleep).
		WithRandSource(rand.New(rand.NewSource(cfg.seed)))
	// WASI presents environ in WithEnv call order; apply in sorted key
	// order so the guest observes the same environment every run.
	for _, k := range sortedEnvKeys(cfg.env) {
		moduleConfig = moduleConfig.WithEnv(k, cfg.env[k])
	}

	_, err := r.runtime.InstantiateWithConfig(ctx, guest, moduleConfig)

	output := stdout.String() + stderr.String()
	result := Result{
		Output:   output,
		Digest:   blake3.Sum256([]byte(output)),
		Duration: time.Since(start),
	}

	if err != nil {
		var exit *sys.ExitError
		switch {
		case errors.As(err, &exit) && exit.ExitCode() == 0:
			// Clean exit.
		case ctx.Err() == context.DeadlineExceeded:
			result.Error = fmt.Errorf("timeout after %v", cfg.timeout)
		default:
			result.Error = fmt.Errorf("execution failed: %w", err)
		}
	}

	return result
}

// Close releases the underlying runtime.
func (r *Runtime) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true
	return r.runtime.Close(context.Background())
}

func sortedEnvKeys(env map[string]string) []string {
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// deterministicClock returns the per-run clock callbacks. The wall
// clock is pinned to epoch; the monotonic clock advances by a fixed
// step per read and by the requested amount per sleep.
func deterministicClock(epoch time.Time) (sys.Walltime, sys.Nanotime, sys.Nanosleep) {
	var tick int64

	walltime := func() (int64, int32) {
		return epoch.Unix(), int32(epoch.Nanosecond())
	}
	nanotime := func() int64 {
		tick += nanotimeStep
		return tick
	}
	nanosleep := func(ns int64) {
		tick += ns
	}
	return walltime, nanotime, nanosleep
}
