package model

import "fmt"

// RuuviDF3Measurement is the typed Data Format 3 measurement record, field
// names carried over from the original collector's wire struct.
type RuuviDF3Measurement struct {
	DataFormat           uint8  `json:"data_format"`
	Battery              uint16 `json:"battery"`
	Humidity             uint8  `json:"humidity"`
	TemperatureWholes    uint8  `json:"temperature"`
	TemperatureSign      int8   `json:"temperature_sign"`
	TemperatureFractions uint8  `json:"temperature_fractions"`
	Pressure             uint32 `json:"pressure"`
	AccelerationX        int16  `json:"acceleration_x"`
	AccelerationY        int16  `json:"acceleration_y"`
	AccelerationZ        int16  `json:"acceleration_z"`
	Address              string `json:"address"`
	Tag                  string `json:"tag"`
}

// TemperatureCelsius returns sign * (wholes + fractions/100).
func (m RuuviDF3Measurement) TemperatureCelsius() float64 {
	sign := float64(m.TemperatureSign)
	return sign * (float64(m.TemperatureWholes) + float64(m.TemperatureFractions)/100)
}

// HumidityPercent returns the 0.5%RH-unit raw byte as a percentage.
func (m RuuviDF3Measurement) HumidityPercent() float64 {
	return float64(m.Humidity) / 2
}

// Values produces the untagged measurement map consumed by the influxdb and
// prometheus consumers. All eight keys are always present together.
func (m RuuviDF3Measurement) Values() map[string]Value {
	return map[string]Value{
		"battery":         Integer(int64(m.Battery)),
		"humidity":        Integer(int64(m.HumidityPercent())),
		"humidity_float":  Float(m.HumidityPercent()),
		"temperature":     Float(m.TemperatureCelsius()),
		"pressure":        Integer(int64(m.Pressure)),
		"acceleration_x":  Integer(int64(m.AccelerationX)),
		"acceleration_y":  Integer(int64(m.AccelerationY)),
		"acceleration_z":  Integer(int64(m.AccelerationZ)),
	}
}

func (m RuuviDF3Measurement) Text() string {
	return fmt.Sprintf(
		"battery %d\ntemp %.2f°C\thumidity %.1f%%\tpressure %d Pa\nacc-x %d\tacc-y %d\tacc-z %d",
		m.Battery, m.TemperatureCelsius(), m.HumidityPercent(), m.Pressure,
		m.AccelerationX, m.AccelerationY, m.AccelerationZ,
	)
}

// RuuviDF2Measurement is the typed Data Format 2 (Eddystone-URL) measurement
// record.
type RuuviDF2Measurement struct {
	DataFormat           uint8  `json:"data_format"`
	Humidity             float32 `json:"humidity"`
	TemperatureWholes    uint8  `json:"temperature"`
	TemperatureSign      int8   `json:"temperature_sign"`
	TemperatureFractions uint8  `json:"temperature_fractions"`
	Pressure             uint32 `json:"pressure"`
	ID                   uint8  `json:"id"`
	Address              string `json:"address"`
	Tag                  string `json:"tag"`
}

func (m RuuviDF2Measurement) TemperatureCelsius() float64 {
	sign := float64(m.TemperatureSign)
	return sign * (float64(m.TemperatureWholes) + float64(m.TemperatureFractions)/100)
}

// Values intentionally omits "id" and "data_format", matching the original
// decoder's untagged measurement map.
func (m RuuviDF2Measurement) Values() map[string]Value {
	return map[string]Value{
		"humidity":    Integer(int64(m.Humidity)),
		"temperature": Float(m.TemperatureCelsius()),
		"pressure":    Integer(int64(m.Pressure)),
	}
}

func (m RuuviDF2Measurement) Text() string {
	return fmt.Sprintf(
		"temp %.2f°C\thumidity %.1f%%\tpressure %d Pa\nid %d\n",
		m.TemperatureCelsius(), m.Humidity, m.Pressure, m.ID,
	)
}
