package hubconfig

import (
	"fmt"
	"path/filepath"
	"regexp"
)

// nameRE is the config-name pattern from spec §6.3's /configs/* endpoints.
var nameRE = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ValidateName rejects anything that is not a bare, traversal-free config
// name, grounded on the teacher's security.SanitizeFilename /
// ValidatePathWithinDirectory pair: instead of sanitizing, the spec asks
// us to reject outright so a bad name never silently resolves somewhere
// unintended.
func ValidateName(name string) error {
	if !nameRE.MatchString(name) {
		return fmt.Errorf("invalid config name %q: must match %s", name, nameRE.String())
	}
	return nil
}

// ResolveStorePath joins a validated name onto the configs storage
// directory and confirms the result does not escape it, mirroring the
// teacher's security.ValidatePathWithinDirectory. The check is lexical
// (filepath.Abs and filepath.Rel); symlinks are not resolved.
func ResolveStorePath(storeDir, name string) (string, error) {
	if err := ValidateName(name); err != nil {
		return "", err
	}
	joined := filepath.Join(storeDir, name+".yaml")

	absStore, err := filepath.Abs(storeDir)
	if err != nil {
		return "", fmt.Errorf("hubconfig: resolve store dir: %w", err)
	}
	absJoined, err := filepath.Abs(joined)
	if err != nil {
		return "", fmt.Errorf("hubconfig: resolve config path: %w", err)
	}
	rel, err := filepath.Rel(absStore, absJoined)
	if err != nil || rel == ".." || hasDotDotPrefix(rel) {
		return "", fmt.Errorf("hubconfig: config name %q escapes store directory", name)
	}
	return joined, nil
}

func hasDotDotPrefix(rel string) bool {
	return len(rel) >= 3 && rel[:3] == ".."+string(filepath.Separator)
}
