package ruuvitag

import (
	"strings"
	"testing"

	"ruuvicollector/internal/registry"
)

func df2Record(svc []byte) *registry.Record {
	return &registry.Record{
		Address: "11:22:33:44:55:66",
		Tag:     "office",
		SvcData: map[string][]byte{svcDataUUID: svc},
	}
}

// eddystoneFrame builds a 20-byte Eddystone-URL service-data payload: 3
// framing bytes, then a prefix padded so "<prefix>#<fragment>" fills the
// remaining 17 bytes exactly (padding before "#", never after, since
// anything after "#" is part of the decoded fragment).
func eddystoneFrame(fragment string) []byte {
	const bodyLen = 17
	prefixLen := bodyLen - 1 - len(fragment)
	if prefixLen < 0 {
		panic("fragment too long for a 20-byte frame")
	}
	body := strings.Repeat("x", prefixLen) + "#" + fragment
	raw := append([]byte{0x10, 0x00, 0x00}, []byte(body)...)
	return raw[:20]
}

func TestDF2IsValid(t *testing.T) {
	if !(DF2{}).IsValid(df2Record(make([]byte, 20))) {
		t.Error("20-byte payload should be valid")
	}
	if (DF2{}).IsValid(df2Record(make([]byte, 19))) {
		t.Error("19-byte payload should not be valid")
	}
	if (DF2{}).IsValid(&registry.Record{}) {
		t.Error("record with no service data should not be valid")
	}
}

func TestDF2Decode(t *testing.T) {
	// The fragment is one base64 character short of the real encoding of
	// {0x02, 0x96, 0x15, 0x32, 0x03, 0xE3, 0x04}; appending "A" during
	// decode happens to reconstruct it exactly for this fixture.
	data := eddystoneFrame("ApYVMgPjB")
	rec := df2Record(data)

	d := DF2{}
	m, ok := d.decode(rec)
	if !ok {
		t.Fatal("decode failed")
	}

	if m.DataFormat != 2 {
		t.Errorf("DataFormat = %d, want 2", m.DataFormat)
	}
	if m.Humidity != 75.0 {
		t.Errorf("Humidity = %v, want 75.0", m.Humidity)
	}
	if m.TemperatureCelsius() != 21.5 {
		t.Errorf("TemperatureCelsius() = %v, want 21.5", m.TemperatureCelsius())
	}
	if m.Pressure != 50995 {
		t.Errorf("Pressure = %d, want 50995", m.Pressure)
	}
	if m.ID != 4 {
		t.Errorf("ID = %d, want 4", m.ID)
	}
}

func TestDF2DecodeRejectsMissingFragment(t *testing.T) {
	body := strings.Repeat("x", 17) // no '#' anywhere in the body
	data := append([]byte{0x10, 0x00, 0x00}, []byte(body)...)

	d := DF2{}
	if _, ok := d.decode(df2Record(data)); ok {
		t.Error("expected decode to fail without a '#' separator")
	}
}
