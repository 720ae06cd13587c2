package config

import (
	"fmt"
	"time"
)

// SensorConf is the resolved runtime configuration consumed by the
// resolver and registry. Positional device
// arguments override file entries for the same MAC.
type SensorConf struct {
	Auto           bool
	AddressMap     map[string]SensorInfo
	LastSeenForget time.Duration
}

// New builds a SensorConf from the parsed CLI flags.
func New(devicemapPath string, positional []string, manual bool, intervalSeconds int) (SensorConf, error) {
	merged := map[string]SensorInfo{}
	if devicemapPath != "" {
		fromFile, err := ParseDevicemapFile(devicemapPath)
		if err != nil {
			return SensorConf{}, fmt.Errorf("config: %w", err)
		}
		for k, v := range fromFile {
			merged[k] = v
		}
	}
	for k, v := range ParsePositionalDevices(positional) {
		merged[k] = v
	}

	return SensorConf{
		Auto:           !manual,
		AddressMap:     merged,
		LastSeenForget: time.Duration(intervalSeconds) * time.Second,
	}, nil
}

// SensorIf returns the configured decoder name for address, if any.
func (c SensorConf) SensorIf(address string) (string, bool) {
	info, ok := c.AddressMap[address]
	if !ok {
		return "", false
	}
	return info.SensorIf, true
}

// Tag returns the configured tag for address, defaulting to the address
// itself when unconfigured.
func (c SensorConf) Tag(address string) string {
	if info, ok := c.AddressMap[address]; ok && info.Tag != "" {
		return info.Tag
	}
	return address
}
