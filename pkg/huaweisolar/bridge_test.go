package huaweisolar

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/kvaps/huawei-solar-go/internal/registers"
	"github.com/kvaps/huawei-solar-go/internal/session"
	"github.com/kvaps/huawei-solar-go/internal/transport"
)

// fakeInverter backs a Transport with a sparse holding-register space.
// Unset addresses read as zero.
type fakeInverter struct {
	mu     sync.Mutex
	words  map[uint16]uint16
	closed bool
}

func (f *fakeInverter) Connect() error { return nil }

func (f *fakeInverter) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeInverter) ReadHoldingRegisters(address, count uint16, slave byte) ([]uint16, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]uint16, count)
	for i := range out {
		out[i] = f.words[address+uint16(i)]
	}
	return out, nil
}

func (f *fakeInverter) WriteRegisters(address uint16, words []uint16, slave byte) (uint16, uint16, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, w := range words {
		f.words[address+uint16(i)] = w
	}
	return address, uint16(len(words)), nil
}

func (f *fakeInverter) WriteSingleRegister(address, word uint16, slave byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.words[address] = word
	return nil
}

func (f *fakeInverter) Execute(req transport.Request, slave byte) (transport.Response, error) {
	return transport.Response{}, &transport.ModbusException{FunctionCode: req.FunctionCode | 0x80, Code: transport.ExceptionIllegalFunction}
}

func (f *fakeInverter) setString(address uint16, length int, s string) {
	b := make([]byte, length*2)
	copy(b, s)
	for i := 0; i < length; i++ {
		f.words[address+uint16(i)] = uint16(b[2*i])<<8 | uint16(b[2*i+1])
	}
}

func newFakeInverter() *fakeInverter {
	f := &fakeInverter{words: map[uint16]uint16{
		30071: 2,      // two PV strings
		30072: 0,      // no optimizers
		37100: 1,      // meter NORMAL
		37125: 1,      // THREE_PHASE
		37758: 2,      // battery 1: HUAWEI_LUNA2000
		37798: 0,      // battery 2: NONE
		43006: 60,     // time zone +60 min
		32016: 2300,   // PV_01_VOLTAGE -> 230.0 V
		32017: 250,    // PV_01_CURRENT -> 2.50 A
		32080: 0x0000, // ACTIVE_POWER high word
		32081: 0x1388, // ACTIVE_POWER low word -> 5000 W
	}}
	f.setString(30000, 15, "SUN2000-10KTL-M1")
	f.setString(30015, 10, "HV1234567890")
	return f
}

func testConfig(f *fakeInverter, slave byte) session.Config {
	return session.Config{
		Transport:    f,
		SlaveID:      slave,
		Timeout:      time.Second,
		CooldownTime: time.Millisecond,
		Wait:         time.Millisecond,
		MaxTries:     2,
	}
}

func newTestBridge(t *testing.T, f *fakeInverter) *Bridge {
	t.Helper()
	cat, err := registers.NewHuaweiCatalog()
	if err != nil {
		t.Fatalf("NewHuaweiCatalog failed: %v", err)
	}
	b, err := Create(context.Background(), cat, testConfig(f, 1))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	return b
}

func TestBridgeProbesCapabilities(t *testing.T) {
	f := newFakeInverter()
	b := newTestBridge(t, f)
	defer b.Stop()

	if b.PVStringCount() != 2 {
		t.Errorf("PVStringCount = %d, want 2", b.PVStringCount())
	}
	if b.HasOptimizers() {
		t.Errorf("no optimizers were scripted")
	}
	if b.PowerMeterType() == nil || *b.PowerMeterType() != "THREE_PHASE" {
		t.Errorf("PowerMeterType = %v, want THREE_PHASE", b.PowerMeterType())
	}
	if m1, _ := b.BatteryModels(); m1 != "HUAWEI_LUNA2000" {
		t.Errorf("battery 1 = %q, want HUAWEI_LUNA2000", m1)
	}
}

func TestBridgeUpdateMergesRegisterSets(t *testing.T) {
	f := newFakeInverter()
	b := newTestBridge(t, f)
	defer b.Stop()

	values, err := b.Update(context.Background())
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	if res, ok := values["ACTIVE_POWER"]; !ok {
		t.Errorf("ACTIVE_POWER missing from update")
	} else if res.Value.(float64) != 5000 {
		t.Errorf("ACTIVE_POWER = %v, want 5000", res.Value)
	}

	if res, ok := values["PV_01_VOLTAGE"]; !ok {
		t.Errorf("PV_01_VOLTAGE missing from update")
	} else if res.Value.(float64) != 230.0 {
		t.Errorf("PV_01_VOLTAGE = %v, want 230.0", res.Value)
	}
	if _, ok := values["PV_02_CURRENT"]; !ok {
		t.Errorf("PV_02_CURRENT missing from update")
	}
	if _, ok := values["PV_03_VOLTAGE"]; ok {
		t.Errorf("PV_03_VOLTAGE present despite a 2-string inverter")
	}

	if _, ok := values["POWER_METER_ACTIVE_POWER"]; !ok {
		t.Errorf("meter set missing despite a detected meter")
	}
	if _, ok := values["STORAGE_STATE_OF_CAPACITY"]; !ok {
		t.Errorf("storage set missing despite a detected battery")
	}
	if _, ok := values["NB_ONLINE_OPTIMIZERS"]; ok {
		t.Errorf("optimizer set present despite no optimizers")
	}
}

func TestBridgeGetInfo(t *testing.T) {
	f := newFakeInverter()
	b := newTestBridge(t, f)
	defer b.Stop()

	info, err := b.GetInfo(context.Background())
	if err != nil {
		t.Fatalf("GetInfo failed: %v", err)
	}
	if info.ModelName != "SUN2000-10KTL-M1" {
		t.Errorf("ModelName = %q", info.ModelName)
	}
	if info.SerialNumber != "HV1234567890" {
		t.Errorf("SerialNumber = %q", info.SerialNumber)
	}
}

func TestBridgeSet(t *testing.T) {
	f := newFakeInverter()
	b := newTestBridge(t, f)
	defer b.Stop()

	ok, err := b.Set(context.Background(), "TIME_ZONE", float64(-120))
	if err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if !ok {
		t.Fatalf("Set should report true on a matching echo")
	}
	f.mu.Lock()
	got := int16(f.words[43006])
	f.mu.Unlock()
	if got != -120 {
		t.Errorf("time zone register = %d, want -120", got)
	}
}

func TestExtraSlaveSharesSessionWithoutOwningIt(t *testing.T) {
	f := newFakeInverter()
	primary := newTestBridge(t, f)

	extra, err := CreateExtraSlave(context.Background(), primary, 2)
	if err != nil {
		t.Fatalf("CreateExtraSlave failed: %v", err)
	}
	if extra.SlaveID() != 2 {
		t.Errorf("SlaveID = %d, want 2", extra.SlaveID())
	}

	extra.Stop()
	f.mu.Lock()
	closed := f.closed
	f.mu.Unlock()
	if closed {
		t.Fatalf("stopping a non-primary bridge must not close the shared transport")
	}

	primary.Stop()
	f.mu.Lock()
	closed = f.closed
	f.mu.Unlock()
	if !closed {
		t.Fatalf("stopping the primary bridge must close the transport")
	}
}

func TestExtraSlaveRejectsDuplicateID(t *testing.T) {
	f := newFakeInverter()
	primary := newTestBridge(t, f)
	defer primary.Stop()

	if _, err := CreateExtraSlave(context.Background(), primary, primary.SlaveID()); err == nil {
		t.Fatalf("expected an error reusing the primary slave id")
	}
}
