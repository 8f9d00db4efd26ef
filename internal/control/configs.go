// configs.go implements the spec §6.3 /configs/* family: load (apply
// and persist as current), import (apply without persisting a name),
// save, export and list — grounded on original_source/src/io/rest_handlers.cpp's
// treatment of those four verbs (see SPEC_FULL.md "Supplemented features").
package control

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/anno-git/hokuyohub/internal/hubconfig"
)

// ListConfigs returns the names of every saved config in the store
// directory (spec §6.3 GET /configs/list), sorted for deterministic
// output.
func (a *Adapter) ListConfigs() ([]string, error) {
	entries, err := os.ReadDir(a.configDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("control: list configs: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), ".yaml"))
	}
	sort.Strings(names)
	return names, nil
}

// LoadConfig reads a saved config by name, applies it as the live
// configuration, and broadcasts a fresh snapshot (spec §6.3 POST
// /configs/load, "load = apply and persist as current").
func (a *Adapter) LoadConfig(name string) error {
	path, err := hubconfig.ResolveStorePath(a.configDir, name)
	if err != nil {
		return err
	}
	cfg, err := hubconfig.Load(path)
	if err != nil {
		return err
	}
	if err := a.applyConfigLocked(*cfg); err != nil {
		return err
	}
	a.broadcastSnapshot()
	return nil
}

// ImportConfig parses a YAML document and applies it as the live
// configuration without persisting it under any name (spec §6.3 POST
// /configs/import, "import = apply without persisting a name").
func (a *Adapter) ImportConfig(yamlBody []byte) error {
	cfg, err := hubconfig.Parse(yamlBody)
	if err != nil {
		return err
	}
	if err := a.applyConfigLocked(*cfg); err != nil {
		return err
	}
	a.broadcastSnapshot()
	return nil
}

// SaveConfig dumps the current live configuration to the named store
// entry (spec §6.3 POST /configs/save).
func (a *Adapter) SaveConfig(name string) error {
	path, err := hubconfig.ResolveStorePath(a.configDir, name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(a.configDir, 0o755); err != nil {
		return fmt.Errorf("control: create config store dir: %w", err)
	}

	a.mu.Lock()
	cfg := a.cfg
	a.mu.Unlock()

	data, err := hubconfig.Dump(&cfg)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("control: write config %q: %w", name, err)
	}
	return nil
}

// ExportConfig dumps the current live configuration as YAML for the
// spec §6.3 GET /configs/export response body.
func (a *Adapter) ExportConfig() ([]byte, error) {
	a.mu.Lock()
	cfg := a.cfg
	a.mu.Unlock()
	return hubconfig.Dump(&cfg)
}
