package bootbus

import (
	"fmt"

	"github.com/bft-labs/bootbus/pkg/event"
	"github.com/bft-labs/bootbus/pkg/lifecycle"
	"github.com/bft-labs/bootbus/pkg/log"
)

// Version information for the bootbus module.
const (
	// Version is the current version of the bootbus module.
	Version = "1.0.0"

	// MinCompatibleVersion is the minimum version that is compatible with this version.
	MinCompatibleVersion = "1.0.0"
)

// ModuleVersions returns the versions of the sub-modules this build uses.
func ModuleVersions() map[string]string {
	return map[string]string{
		"bootbus":   Version,
		"event":     event.Version,
		"lifecycle": lifecycle.Version,
		"log":       log.Version,
	}
}

// CompatibilityMatrix returns the minimum compatible version of each
// sub-module.
func CompatibilityMatrix() map[string]string {
	return map[string]string{
		"bootbus":   MinCompatibleVersion,
		"event":     event.MinCompatibleVersion,
		"lifecycle": lifecycle.MinCompatibleVersion,
		"log":       log.MinCompatibleVersion,
	}
}

// validateModuleVersions checks that all module versions are compatible.
// Returns an error if any module version is below its minimum compatible version.
func validateModuleVersions() error {
	versions := ModuleVersions()
	for name, minVersion := range CompatibilityMatrix() {
		if !isVersionCompatible(versions[name], minVersion) {
			return fmt.Errorf("module %s version %s is below minimum compatible version %s",
				name, versions[name], minVersion)
		}
	}
	return nil
}

// isVersionCompatible checks if version >= minVersion using semantic versioning.
// Assumes versions are in format "major.minor.patch".
func isVersionCompatible(version, minVersion string) bool {
	// Parse versions (simplified semver comparison)
	var vMajor, vMinor, vPatch int
	var mMajor, mMinor, mPatch int

	_, _ = fmt.Sscanf(version, "%d.%d.%d", &vMajor, &vMinor, &vPatch)
	_, _ = fmt.Sscanf(minVersion, "%d.%d.%d", &mMajor, &mMinor, &mPatch)

	if vMajor != mMajor {
		return vMajor > mMajor
	}
	if vMinor != mMinor {
		return vMinor > mMinor
	}
	return vPatch >= mPatch
}
