//go:build windows

package temps

import (
	"context"
	"errors"
	"fmt"

	"github.com/StackExchange/wmi"
)

// WindowsReader implements temperature monitoring for Windows
type WindowsReader struct{}

func newPlatformReader() Reader {
	return &WindowsReader{}
}

// Win32_TemperatureProbe represents WMI temperature probe data
type Win32_TemperatureProbe struct {
	DeviceID        string
	Name            string
	Description     string
	CurrentReading  *uint32
	NominalReading  *uint32
	MaxReadableHigh *uint32
}

// Win32_PerfRawData_Counters_ThermalZoneInformation represents thermal zone data
type Win32_PerfRawData_Counters_ThermalZoneInformation struct {
	Name        string
	Temperature uint64
}

// GetInfo returns temperature information from WMI probes, falling back to thermal zones.
// Unlike a dashboard, a fan controller must not be fed placeholder readings, so an
// empty result is an error.
func (r *WindowsReader) GetInfo(ctx context.Context) (*Info, error) {
	info := newInfo()

	probeErr := r.getTemperatureProbes(info)
	if len(info.All()) > 0 {
		return info, nil
	}

	zoneErr := r.getThermalZones(info)
	if len(info.All()) > 0 {
		return info, nil
	}

	if err := errors.Join(probeErr, zoneErr); err != nil {
		return nil, err
	}
	return nil, fmt.Errorf("no WMI temperature sensors available")
}

// deciKelvin converts WMI tenths of Kelvin to Celsius
func deciKelvin(v uint64) float64 {
	return float64(v)/10.0 - 273.15
}

func (r *WindowsReader) getTemperatureProbes(info *Info) error {
	var probes []Win32_TemperatureProbe
	if err := wmi.Query("SELECT DeviceID, Name, Description, CurrentReading, NominalReading, MaxReadableHigh FROM Win32_TemperatureProbe", &probes); err != nil {
		return fmt.Errorf("failed to query temperature probes: %w", err)
	}

	for _, probe := range probes {
		if probe.CurrentReading == nil {
			continue
		}

		sensor := &Sensor{
			Name:        probe.DeviceID,
			Label:       probe.Name,
			Temperature: deciKelvin(uint64(*probe.CurrentReading)),
		}
		if probe.Description != "" {
			sensor.Label = probe.Description
		}
		if probe.MaxReadableHigh != nil {
			sensor.Critical = deciKelvin(uint64(*probe.MaxReadableHigh))
		}
		if probe.NominalReading != nil {
			sensor.Max = deciKelvin(uint64(*probe.NominalReading))
		}

		info.add(sensor)
	}

	return nil
}

func (r *WindowsReader) getThermalZones(info *Info) error {
	var zones []Win32_PerfRawData_Counters_ThermalZoneInformation
	if err := wmi.Query("SELECT Name, Temperature FROM Win32_PerfRawData_Counters_ThermalZoneInformation", &zones); err != nil {
		return fmt.Errorf("failed to query thermal zones: %w", err)
	}

	for _, zone := range zones {
		temp := deciKelvin(zone.Temperature)
		// Skip unrealistic temperatures
		if temp < -50 || temp > 150 {
			continue
		}

		info.System = append(info.System, &Sensor{
			Name:        zone.Name,
			Label:       fmt.Sprintf("Thermal Zone %s", zone.Name),
			Temperature: temp,
		})
	}

	return nil
}
