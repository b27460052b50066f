package dshot

import (
	"errors"
	"testing"

	"dshot-go/drivers/dshot/engine"
	"tinygo.org/x/drivers"
)

type reading struct {
	t TelemetryType
	v uint32
}

type fakeReader struct{ q []reading }

func (f *fakeReader) ReadTelemetryPacket(v *uint32) TelemetryType {
	if len(f.q) == 0 {
		return NoPacket
	}
	r := f.q[0]
	f.q = f.q[1:]
	if r.t != NoPacket && r.t != ChecksumError {
		*v = r.v
	}
	return r.t
}

func TestTelemetry_Update(t *testing.T) {
	r := &fakeReader{q: []reading{
		{ERPM, 14000},
		{Temperature, 41},
		{Voltage, 64},
		{Current, 3},
		{Stress, 9},
		{Status, 0x81},
		{ChecksumError, 0},
		{NoPacket, 0},
	}}
	tel := NewTelemetry(r, 14)
	for i := 0; i < 6; i++ {
		if err := tel.Update(drivers.Voltage | drivers.Temperature); err != nil {
			t.Fatalf("update %d: %v", i, err)
		}
	}
	if err := tel.Update(drivers.Voltage); !errors.Is(err, ErrTelemetryChecksum) {
		t.Fatalf("corrupt sample err = %v", err)
	}
	if err := tel.Update(drivers.Voltage); err != nil {
		t.Fatalf("no packet err = %v", err)
	}

	if tel.Erpm() != 14000 || tel.RPM() != 2000 {
		t.Fatalf("erpm %d rpm %d", tel.Erpm(), tel.RPM())
	}
	if tel.Temperature() != 41000 || tel.Voltage() != 16000 || tel.Current() != 3000 {
		t.Fatalf("temp %d volt %d curr %d", tel.Temperature(), tel.Voltage(), tel.Current())
	}
	if tel.Stress() != 9 || tel.Status() != 0x81 {
		t.Fatalf("stress %d status %#x", tel.Stress(), tel.Status())
	}
	all := HaveErpm | HaveTemperature | HaveVoltage | HaveCurrent | HaveStress | HaveStatus
	if tel.Seen() != all {
		t.Fatalf("seen = %#b", tel.Seen())
	}
	if tel.ChecksumErrors() != 1 {
		t.Fatalf("checksum errors = %d", tel.ChecksumErrors())
	}
}

func TestTelemetry_FromBidir(t *testing.T) {
	sim := engine.NewSim()
	d, esc := newBidir(t, sim, engine.NewManager(sim), 0)
	defer d.Close()
	tel := NewTelemetry(d, 0)

	esc.SetErpm(20000)
	d.SendThrottle(300)
	if err := tel.Update(drivers.Temperature); err != nil {
		t.Fatal(err)
	}
	esc.QueueEDT(Temperature, 55)
	d.SendThrottle(300)
	if err := tel.Update(drivers.Temperature); err != nil {
		t.Fatal(err)
	}
	if tel.RPM() != 20050 || tel.Temperature() != 55000 {
		t.Fatalf("rpm %d temp %d", tel.RPM(), tel.Temperature())
	}
	if tel.Seen()&HaveVoltage != 0 {
		t.Fatal("voltage reported without a frame")
	}
}
