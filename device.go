package vintfcheck

import (
	"github.com/leodido/vintfcheck/vintf"
)

// DeviceInfo is what a snapshot declares about itself.
type DeviceInfo struct {
	// Manifest is the resolved device manifest.
	Manifest *vintf.HalManifest
	// Level is the manifest target level.
	Level vintf.Level
	// VendorNDK is the VNDK version required by the vendor's device
	// compatibility matrix. Empty when the image ships no such matrix or
	// the matrix names no version.
	VendorNDK string
}

// InspectDevice resolves the device manifest of the snapshot at rootPath
// and reads the vendor-ndk version of its device compatibility matrix.
// A missing manifest is a [*ResolutionError]. An unreadable device matrix
// is returned as error alongside the manifest facts.
func InspectDevice(rootPath, vendorSku, hardwareSku string, opts ...Option) (DeviceInfo, error) {
	cfg := newEvalConfig(opts)
	logger := cfg.logger.With().Str("root", rootPath).Logger()

	obj, err := newObject(rootPath, vendorSku, hardwareSku, cfg.base, logger)
	if err != nil {
		return DeviceInfo{Level: vintf.LevelUnspecified}, &ResolutionError{Root: rootPath, Err: err}
	}
	manifest, err := obj.DeviceHalManifest()
	if err != nil {
		return DeviceInfo{Level: vintf.LevelUnspecified}, &ResolutionError{Root: rootPath, Err: err}
	}
	info := DeviceInfo{Manifest: manifest, Level: manifest.Level}

	matrix, err := obj.DeviceCompatibilityMatrix()
	if err != nil {
		logger.Warn().Err(err).Msg("cannot read device compatibility matrix")
		return info, err
	}
	if matrix != nil {
		info.VendorNDK = matrix.VendorNDKVersion
	}
	return info, nil
}
