// Package ruuvitag holds the concrete RuuviTag Data Format 2 and 3 decoders.
package ruuvitag

import (
	"encoding/json"

	"ruuvicollector/internal/model"
	"ruuvicollector/internal/registry"
)

// mfrCompanyID is Ruuvi Innovations' Bluetooth SIG company identifier.
const mfrCompanyID = 0x0499

// DF3 decodes RuuviTag Data Format 3, carried over raw manufacturer-data
// bytes keyed by mfrCompanyID. See
// https://github.com/ruuvi/ruuvi-sensor-protocols for the byte layout.
type DF3 struct{}

func (DF3) Name() string { return "RuuvitagDF3" }

func (DF3) IsValid(rec *registry.Record) bool {
	data, ok := rec.MfrData[mfrCompanyID]
	return ok && len(data) == 18
}

func (d DF3) decode(rec *registry.Record) (model.RuuviDF3Measurement, bool) {
	data, ok := rec.MfrData[mfrCompanyID]
	if !ok || len(data) != 18 {
		return model.RuuviDF3Measurement{}, false
	}

	tempSign := int8(1)
	if data[2]&0x80 != 0 {
		tempSign = -1
	}

	pressure := uint32(data[4])<<8 | uint32(data[5])
	accX := int16(uint16(data[6])<<8 | uint16(data[7]))
	accY := int16(uint16(data[8])<<8 | uint16(data[9]))
	accZ := int16(uint16(data[10])<<8 | uint16(data[11]))
	battery := uint16(data[12])<<8 | uint16(data[13])

	return model.RuuviDF3Measurement{
		DataFormat:           data[0],
		Battery:              battery,
		Humidity:             data[1],
		TemperatureWholes:    data[2] & 0x7F,
		TemperatureSign:      tempSign,
		TemperatureFractions: data[3],
		Pressure:             50000 + pressure,
		AccelerationX:        accX,
		AccelerationY:        accY,
		AccelerationZ:        accZ,
		Address:              rec.Address,
		Tag:                  rec.Tag,
	}, true
}

func (d DF3) Measurements(rec *registry.Record) (map[string]model.Value, bool) {
	m, ok := d.decode(rec)
	if !ok {
		return nil, false
	}
	return m.Values(), true
}

func (d DF3) MeasurementsText(rec *registry.Record) (string, bool) {
	m, ok := d.decode(rec)
	if !ok {
		return "", false
	}
	return m.Text(), true
}

func (d DF3) MeasurementsJSON(rec *registry.Record) (string, bool) {
	m, ok := d.decode(rec)
	if !ok {
		return "", false
	}
	b, err := json.Marshal(m)
	if err != nil {
		return "", false
	}
	return string(b), true
}
