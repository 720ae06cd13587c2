package ruuvitag

import (
	"encoding/base64"
	"encoding/json"
	"strings"

	"ruuvicollector/internal/model"
	"ruuvicollector/internal/registry"
)

// svcDataUUID is the Eddystone service-data UUID RuuviTag DF2 advertises
// under.
const svcDataUUID = "0000feaa-0000-1000-8000-00805f9b34fb"

// DF2 decodes RuuviTag Data Format 2, carried as an Eddystone-URL payload
// under svcDataUUID: 3 bytes of Eddystone framing, then a URL whose path
// segment after "#" is a base64 encoding of a 7-byte measurement: bytes 0-5
// laid out as DF3's bytes 0-5, then the tag id in byte 6.
type DF2 struct{}

func (DF2) Name() string { return "RuuvitagDF2" }

func (DF2) IsValid(rec *registry.Record) bool {
	data, ok := rec.SvcData[svcDataUUID]
	return ok && len(data) == 20
}

func (d DF2) decode(rec *registry.Record) (model.RuuviDF2Measurement, bool) {
	raw, ok := rec.SvcData[svcDataUUID]
	if !ok || len(raw) != 20 {
		return model.RuuviDF2Measurement{}, false
	}
	if len(raw) < 4 {
		return model.RuuviDF2Measurement{}, false
	}

	uri := string(raw[3:])
	cuts := strings.SplitN(uri, "#", 2)
	if len(cuts) < 2 {
		return model.RuuviDF2Measurement{}, false
	}
	// The Eddystone-URL fragment is one base64 character short of a valid
	// URL-safe (unpadded) encoding; appending a single "A" pad character
	// fixes the decode, matching the original collector's documented fix.
	data, err := base64.RawURLEncoding.DecodeString(cuts[1] + "A")
	if err != nil || len(data) < 7 {
		return model.RuuviDF2Measurement{}, false
	}

	tempSign := int8(1)
	if data[2]&0x80 != 0 {
		tempSign = -1
	}
	pressure := uint32(data[4])<<8 | uint32(data[5])

	return model.RuuviDF2Measurement{
		DataFormat:           data[0],
		Humidity:             float32(data[1]) * 0.5,
		TemperatureWholes:    data[2] & 0x7F,
		TemperatureSign:      tempSign,
		TemperatureFractions: data[3],
		Pressure:             50000 + pressure,
		ID:                   data[6],
		Address:              rec.Address,
		Tag:                  rec.Tag,
	}, true
}

func (d DF2) Measurements(rec *registry.Record) (map[string]model.Value, bool) {
	m, ok := d.decode(rec)
	if !ok {
		return nil, false
	}
	return m.Values(), true
}

func (d DF2) MeasurementsText(rec *registry.Record) (string, bool) {
	m, ok := d.decode(rec)
	if !ok {
		return "", false
	}
	return m.Text(), true
}

func (d DF2) MeasurementsJSON(rec *registry.Record) (string, bool) {
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
