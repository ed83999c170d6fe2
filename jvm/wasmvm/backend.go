package wasmvm

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/tetratelabs/wazero"
	"go.uber.org/zap"

	"github.com/wippyai/bfbridge/jvm"
	"github.com/wippyai/bfbridge/jvm/refs"
)

// Name is the registry name of this backend.
const Name = "wasm"

const (
	classPathOption = "-Djava.class.path="
	cacheDirOption  = "-Dbfbridge.cachedir="
)

// Mode selects the wazero execution engine.
type Mode string

const (
	// ModeDefault uses the compiler where wazero supports it.
	ModeDefault     Mode = ""
	ModeInterpreter Mode = "interpreter"
	ModeCompiler    Mode = "compiler"
)

// Config tunes the runtime behind a VM.
type Config struct {
	Mode Mode
	// MemoryLimitPages caps each instance's memory in 64KiB pages.
	// 0 keeps the wazero default of 4GiB.
	MemoryLimitPages uint32
}

// Backend creates wazero-hosted VMs.
type Backend struct {
	cfg Config
}

var (
	_ jvm.Backend = (*Backend)(nil)
	_ jvm.VM      = (*VM)(nil)
)

func init() {
	jvm.Register(Name, func() (jvm.Backend, error) {
		return New(Config{}), nil
	})
}

// New returns a backend using cfg for every VM it creates.
func New(cfg Config) *Backend {
	return &Backend{cfg: cfg}
}

// Name implements jvm.Backend.
func (b *Backend) Name() string {
	return Name
}

type options struct {
	classPath []string
	cacheDir  string
}

func parseOptions(opts []string) options {
	var o options
	for _, opt := range opts {
		switch {
		case strings.HasPrefix(opt, classPathOption):
			for _, entry := range filepath.SplitList(strings.TrimPrefix(opt, classPathOption)) {
				if entry != "" {
					o.classPath = append(o.classPath, entry)
				}
			}
		case strings.HasPrefix(opt, cacheDirOption):
			o.cacheDir = strings.TrimPrefix(opt, cacheDirOption)
		default:
			Logger().Debug("ignoring VM option", zap.String("option", opt))
		}
	}
	return o
}

func (b *Backend) runtimeConfig(cache wazero.CompilationCache) wazero.RuntimeConfig {
	var rc wazero.RuntimeConfig
	switch b.cfg.Mode {
	case ModeInterpreter:
		rc = wazero.NewRuntimeConfigInterpreter()
	case ModeCompiler:
		rc = wazero.NewRuntimeConfigCompiler()
	default:
		rc = wazero.NewRuntimeConfig()
	}
	if b.cfg.MemoryLimitPages > 0 {
		rc = rc.WithMemoryLimitPages(b.cfg.MemoryLimitPages)
	}
	if cache != nil {
		rc = rc.WithCompilationCache(cache)
	}
	return rc
}

// CreateVM implements jvm.Backend. Every .wasm class path entry is compiled
// up front; a module that fails to compile fails creation with jvm.Err.
func (b *Backend) CreateVM(opts []string) (jvm.VM, jvm.Env, jvm.Status) {
	o := parseOptions(opts)
	ctx := context.Background()

	var cache wazero.CompilationCache
	if o.cacheDir != "" {
		c, err := wazero.NewCompilationCacheWithDir(o.cacheDir)
		if err != nil {
			Logger().Warn("compilation cache disabled", zap.String("dir", o.cacheDir), zap.Error(err))
		} else {
			cache = c
		}
	}

	vm := &VM{
		ctx:     ctx,
		runtime: wazero.NewRuntimeWithConfig(ctx, b.runtimeConfig(cache)),
		cache:   cache,
		classes: make(map[string]*class),
		table:   refs.NewTable(),
	}
	if err := vm.start(o.classPath); err != nil {
		Logger().Error("wasm VM creation failed", zap.Error(err))
		vm.shutdown()
		return nil, nil, jvm.Err
	}
	Logger().Debug("wasm VM created", zap.Int("classes", len(vm.classes)), zap.Bool("cache", cache != nil))
	return vm, vm.newEnv(), jvm.OK
}
