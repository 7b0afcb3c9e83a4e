// Package presets defines the built-in training configurations and a
// registry that overlays user-defined presets on top of them.
//
// A preset is data, not code: adding a new training method means adding a
// preset literal here or dropping a YAML file into the preset directory.
package presets

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/certlab/mixlaunch/internal/runcfg"
)

// Training methods covered by the built-in presets.
const (
	MethodIBP    = "ibp"
	MethodExpIBP = "expibp"
	MethodSABR   = "sabr"
	MethodTAPS   = "taps"
)

// Preset is a named, launchable run configuration.
type Preset struct {
	Name        string
	Method      string
	Description string
	Config      runcfg.Config
}

// mnistBase holds the parameters shared by every MNIST preset. Epsilons are
// the standard certified-training values for MNIST (train 0.4, test 0.3).
func mnistBase() runcfg.Config {
	return runcfg.New(
		runcfg.Param{Name: "dataset", Value: "mnist"},
		runcfg.Param{Name: "net", Value: "cnn_7layer_bn"},
		runcfg.Param{Name: "lr", Value: 0.0005},
		runcfg.Param{Name: "lr-milestones", Value: []int{50, 60}},
		runcfg.Param{Name: "n-epochs", Value: 70},
		runcfg.Param{Name: "train-eps", Value: 0.4},
		runcfg.Param{Name: "test-eps", Value: 0.3},
		runcfg.Param{Name: "train-batch", Value: 256},
		runcfg.Param{Name: "test-batch", Value: 256},
		runcfg.Param{Name: "grad-clip", Value: 10.0},
		runcfg.Param{Name: "L1-reg", Value: 1e-6},
		runcfg.Param{Name: "start-value-robust-weight", Value: 0.0},
		runcfg.Param{Name: "end-value-robust-weight", Value: 1.0},
		runcfg.Param{Name: "start-epoch-robust-weight", Value: 1},
		runcfg.Param{Name: "end-epoch-robust-weight", Value: 21},
	)
}

// cifar10Base holds the parameters shared by every CIFAR-10 preset.
// 0.03137... is 8/255.
func cifar10Base() runcfg.Config {
	return runcfg.New(
		runcfg.Param{Name: "dataset", Value: "cifar10"},
		runcfg.Param{Name: "net", Value: "cnn_7layer_bn"},
		runcfg.Param{Name: "lr", Value: 0.0005},
		runcfg.Param{Name: "lr-milestones", Value: []int{120, 140}},
		runcfg.Param{Name: "n-epochs", Value: 160},
		runcfg.Param{Name: "train-eps", Value: 0.03137254901960784},
		runcfg.Param{Name: "test-eps", Value: 0.03137254901960784},
		runcfg.Param{Name: "train-batch", Value: 128},
		runcfg.Param{Name: "test-batch", Value: 128},
		runcfg.Param{Name: "grad-clip", Value: 10.0},
		runcfg.Param{Name: "L1-reg", Value: 1e-6},
		runcfg.Param{Name: "start-value-robust-weight", Value: 0.0},
		runcfg.Param{Name: "end-value-robust-weight", Value: 1.0},
		runcfg.Param{Name: "start-epoch-robust-weight", Value: 1},
		runcfg.Param{Name: "end-epoch-robust-weight", Value: 81},
	)
}

// ibp decorates a base configuration with pure IBP training.
func ibp(base runcfg.Config) runcfg.Config {
	base.Set("use-ibp-training", true)
	base.Set("use-pop-stats", true)
	return base
}

// expibp decorates a base configuration with expressive-loss IBP: the robust
// weight ramps to 0.5 instead of 1 and L1 regularization is doubled.
func expibp(base runcfg.Config) runcfg.Config {
	c := ibp(base)
	c.Set("end-value-robust-weight", 0.5)
	c.Set("L1-reg", 2e-6)
	return c
}

// sabr decorates a base configuration with small-box adversarial training.
// shrink is the eps shrink ratio, which differs per dataset.
func sabr(base runcfg.Config, shrink float64) runcfg.Config {
	base.Set("train-steps", 8)
	base.Set("test-steps", 8)
	base.Set("restarts", 1)
	base.Set("use-small-box", true)
	base.Set("eps-shrink-ratio", shrink)
	base.Set("relu-shrink", 0.8)
	return base
}

// taps decorates a base configuration with TAPS gradient-linked training.
func taps(base runcfg.Config) runcfg.Config {
	base.Set("train-steps", 8)
	base.Set("test-steps", 8)
	base.Set("restarts", 1)
	base.Set("block-sizes", []int{4, 1})
	base.Set("taps-grad-scale", 5.0)
	base.Set("soft-thre", 0.5)
	return base
}

func builtins() []Preset {
	return []Preset{
		{
			Name:        "ibp_mnist",
			Method:      MethodIBP,
			Description: "IBP training on MNIST, eps 0.4",
			Config:      ibp(mnistBase()),
		},
		{
			Name:        "ibp_cifar10",
			Method:      MethodIBP,
			Description: "IBP training on CIFAR-10, eps 8/255",
			Config:      ibp(cifar10Base()),
		},
		{
			Name:        "expibp_mnist",
			Method:      MethodExpIBP,
			Description: "Expressive-loss IBP on MNIST, eps 0.4",
			Config:      expibp(mnistBase()),
		},
		{
			Name:        "expibp_cifar10",
			Method:      MethodExpIBP,
			Description: "Expressive-loss IBP on CIFAR-10, eps 8/255",
			Config:      expibp(cifar10Base()),
		},
		{
			Name:        "sabr_mnist",
			Method:      MethodSABR,
			Description: "SABR small-box training on MNIST, eps 0.4",
			Config:      sabr(mnistBase(), 0.4),
		},
		{
			Name:        "sabr_cifar10",
			Method:      MethodSABR,
			Description: "SABR small-box training on CIFAR-10, eps 8/255",
			Config:      sabr(cifar10Base(), 0.1),
		},
		{
			Name:        "taps_mnist",
			Method:      MethodTAPS,
			Description: "TAPS gradient-linked training on MNIST, eps 0.4",
			Config:      taps(mnistBase()),
		},
		{
			Name:        "taps_cifar10",
			Method:      MethodTAPS,
			Description: "TAPS gradient-linked training on CIFAR-10, eps 8/255",
			Config:      taps(cifar10Base()),
		},
	}
}

// Registry resolves preset names to presets. User presets loaded with
// LoadDir shadow built-ins of the same name.
type Registry struct {
	presets map[string]Preset
}

// NewRegistry creates a registry holding the built-in presets.
func NewRegistry() *Registry {
	r := &Registry{presets: make(map[string]Preset)}
	for _, p := range builtins() {
		r.presets[p.Name] = p
	}
	return r
}

// Get returns a copy of the named preset. Mutating the returned config does
// not change the registry.
func (r *Registry) Get(name string) (Preset, error) {
	p, ok := r.presets[name]
	if !ok {
		return Preset{}, fmt.Errorf("unknown preset %q (run 'mixlaunch presets' to list)", name)
	}
	p.Config = p.Config.Clone()
	return p, nil
}

// List returns copies of all presets sorted by name. Like Get, mutating a
// returned config does not change the registry.
func (r *Registry) List() []Preset {
	out := make([]Preset, 0, len(r.presets))
	for _, p := range r.presets {
		p.Config = p.Config.Clone()
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// userPresetFile is the YAML shape of a user preset.
type userPresetFile struct {
	Name        string         `yaml:"name"`
	Method      string         `yaml:"method"`
	Description string         `yaml:"description"`
	Extends     string         `yaml:"extends"`
	Params      map[string]any `yaml:"params"`
}

// LoadDir loads user presets from *.yaml files in dir. A preset may extend a
// built-in (or an already-loaded preset) by name; its params overlay the
// base configuration. A missing directory is not an error.
func (r *Registry) LoadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading preset directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := r.loadFile(path); err != nil {
			return fmt.Errorf("preset %s: %w", entry.Name(), err)
		}
	}
	return nil
}

func (r *Registry) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var file userPresetFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parsing yaml: %w", err)
	}
	if file.Name == "" {
		return fmt.Errorf("preset has no name")
	}

	var cfg runcfg.Config
	if file.Extends != "" {
		base, ok := r.presets[file.Extends]
		if !ok {
			return fmt.Errorf("extends unknown preset %q", file.Extends)
		}
		cfg = base.Config.Clone()
		if file.Method == "" {
			file.Method = base.Method
		}
	}
	if err := cfg.SetAll(file.Params); err != nil {
		return err
	}

	r.presets[file.Name] = Preset{
		Name:        file.Name,
		Method:      file.Method,
		Description: file.Description,
		Config:      cfg,
	}
	return nil
}
