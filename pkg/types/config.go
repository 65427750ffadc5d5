package types

import "fmt"

// CurrentPanelConfigVersion is the current version of the panel config struct.
// Increment this value when adding new fields that require default values.
const CurrentPanelConfigVersion = 2

// Bounds enforced at the write boundary. Reads never reject; a config that
// was valid when written stays valid.
const (
	MinCapacityKW = 1.0
	MaxCapacityKW = 100.0
	MinAzimuthDeg = 0.0
	MaxAzimuthDeg = 360.0
	MinTiltDeg    = 0.0
	MaxTiltDeg    = 90.0
)

// PanelConfig describes a user's solar installation: the inverter-rated
// capacity and the physical orientation of the array.
type PanelConfig struct {
	CapacityKW float64 `json:"capacityKW"`
	AzimuthDeg float64 `json:"azimuthDeg"`
	TiltDeg    float64 `json:"tiltDeg"`

	// LatitudeDeg is the site latitude used for the orientation optimum.
	// Zero means "use the located latitude".
	LatitudeDeg float64 `json:"latitudeDeg,omitempty"`
}

// DefaultPanelConfig returns the configuration substituted until a user has
// completed initial setup: a 5 kW south-facing array tilted at the default
// site latitude.
func DefaultPanelConfig() PanelConfig {
	return PanelConfig{
		CapacityKW: 5,
		AzimuthDeg: 180,
		TiltDeg:    19,
	}
}

// Validate rejects out-of-range values with a descriptive reason.
func (c PanelConfig) Validate() error {
	if c.CapacityKW < MinCapacityKW || c.CapacityKW > MaxCapacityKW {
		return fmt.Errorf("capacity must be between %g and %g kW, got %g", MinCapacityKW, MaxCapacityKW, c.CapacityKW)
	}
	if c.AzimuthDeg < MinAzimuthDeg || c.AzimuthDeg > MaxAzimuthDeg {
		return fmt.Errorf("azimuth must be between %g and %g degrees, got %g", MinAzimuthDeg, MaxAzimuthDeg, c.AzimuthDeg)
	}
	if c.TiltDeg < MinTiltDeg || c.TiltDeg > MaxTiltDeg {
		return fmt.Errorf("tilt must be between %g and %g degrees, got %g", MinTiltDeg, MaxTiltDeg, c.TiltDeg)
	}
	return nil
}

// MigratePanelConfig migrates a stored config to the current version.
// It returns the migrated config, a boolean indicating if changes were made,
// and an error if migration failed.
func MigratePanelConfig(c PanelConfig, currentVersion int) (PanelConfig, bool, error) {
	if currentVersion >= CurrentPanelConfigVersion {
		return c, false, nil
	}

	migrated := false
	for version := currentVersion + 1; version <= CurrentPanelConfigVersion; version++ {
		switch version {
		case 1:
			// version 1: initial, substitute defaults for unset fields
			if c.CapacityKW == 0 {
				c.CapacityKW = DefaultPanelConfig().CapacityKW
				migrated = true
			}
		case 2:
			// version 2: add LatitudeDeg, zero means located latitude so
			// nothing to backfill
		default:
			return c, false, fmt.Errorf("unknown panel config version: %d", version)
		}
	}

	return c, migrated, nil
}
