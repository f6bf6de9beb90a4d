// Package huaweisolar is the public façade for this module: it wraps
// internal/session.Session with the inverter-level bookkeeping
// (PV string count, optimizer/meter/battery presence, login, heartbeat)
// that a caller actually wants, instead of the raw register API.
package huaweisolar

import (
	"context"
	"fmt"
	"log"

	"github.com/kvaps/huawei-solar-go/internal/registers"
	"github.com/kvaps/huawei-solar-go/internal/session"
	"github.com/kvaps/huawei-solar-go/internal/transport"
)

// Info identifies the connected inverter.
type Info struct {
	ModelName    string
	SerialNumber string
}

// Bridge is one inverter's view onto a (possibly shared) Session. A primary
// Bridge owns its Session and closes it on Stop; a non-primary "extra
// slave" Bridge (CreateExtraSlave) shares another Bridge's Session and
// must not close it.
type Bridge struct {
	sess    *session.Session
	primary bool
	slaveID byte

	pvStringCount  int
	pvNames        []string
	hasOptimizers  bool
	batteryModel1  string
	batteryModel2  string
	powerMeterType *string
}

// Create opens a new Session over cfg.Transport and wraps it as the primary
// Bridge for that connection.
func Create(ctx context.Context, cat *registers.Catalog, cfg session.Config) (*Bridge, error) {
	sess, err := session.Create(ctx, cat, cfg)
	if err != nil {
		return nil, err
	}
	b := &Bridge{sess: sess, primary: true, slaveID: cfg.SlaveID}
	if err := b.populateFields(ctx); err != nil {
		sess.Stop(true)
		return nil, err
	}
	return b, nil
}

// CreateExtraSlave wraps an additional slave ID reachable over an already
// open Bridge's Session, without opening a second physical connection.
// All bridges on one Session share its gate, so requests to distinct
// slaves still serialize on the shared wire.
func CreateExtraSlave(ctx context.Context, primary *Bridge, slaveID byte) (*Bridge, error) {
	if slaveID == primary.slaveID {
		return nil, fmt.Errorf("huaweisolar: extra slave id %d must differ from the primary bridge's slave id", slaveID)
	}
	b := &Bridge{sess: primary.sess, primary: false, slaveID: slaveID}
	if err := b.populateFields(ctx); err != nil {
		return nil, err
	}
	return b, nil
}

// populateFields probes the inverter's capabilities: PV string count is
// required, optimizer/meter/battery presence are each individually
// optional and a read failure there simply leaves the feature disabled.
func (b *Bridge) populateFields(ctx context.Context) error {
	res, err := b.sess.Get(ctx, "NB_PV_STRINGS", b.slaveID)
	if err != nil {
		return fmt.Errorf("huaweisolar: probing PV string count: %w", err)
	}
	count := int(toFloat(res.Value))
	if count < 1 || count > 24 {
		return fmt.Errorf("huaweisolar: PV string count %d out of range [1,24]", count)
	}
	b.pvStringCount = count
	b.pvNames = registers.PVRegisterNames(count)

	if res, err := b.sess.Get(ctx, "NB_OPTIMIZERS", b.slaveID); err == nil {
		b.hasOptimizers = toFloat(res.Value) > 0
	}

	if res, err := b.sess.Get(ctx, "METER_STATUS", b.slaveID); err == nil {
		if name, _ := res.Value.(string); name == "NORMAL" {
			if mres, err := b.sess.Get(ctx, "METER_TYPE", b.slaveID); err == nil {
				mt, _ := mres.Value.(string)
				b.powerMeterType = &mt
			}
		}
	}

	if res, err := b.sess.Get(ctx, "STORAGE_UNIT_1_PRODUCT_MODEL", b.slaveID); err == nil {
		b.batteryModel1, _ = res.Value.(string)
	}
	if res, err := b.sess.Get(ctx, "STORAGE_UNIT_2_PRODUCT_MODEL", b.slaveID); err == nil {
		b.batteryModel2, _ = res.Value.(string)
	}

	if b.batteryModel1 != "" && b.batteryModel1 != "NONE" &&
		b.batteryModel2 != "" && b.batteryModel2 != "NONE" &&
		b.batteryModel1 != b.batteryModel2 {
		log.Printf("huaweisolar: bridge for slave %d detected two batteries of different type (%s, %s)", b.slaveID, b.batteryModel1, b.batteryModel2)
	}

	return nil
}

// PVStringCount, HasOptimizers, PowerMeterType and BatteryModels expose the
// capabilities populateFields discovered.
func (b *Bridge) PVStringCount() int       { return b.pvStringCount }
func (b *Bridge) HasOptimizers() bool      { return b.hasOptimizers }
func (b *Bridge) PowerMeterType() *string  { return b.powerMeterType }
func (b *Bridge) BatteryModels() (string, string) {
	return b.batteryModel1, b.batteryModel2
}

// Update reads every register this inverter's detected capabilities call
// for, one batched read per group (always-on, PV strings, optimizers,
// meter, storage). A failed group read fails the whole Update; no partial
// map is returned.
func (b *Bridge) Update(ctx context.Context) (map[string]registers.Result, error) {
	out := make(map[string]registers.Result)

	if err := b.getInto(ctx, out, registers.InverterRegisterNames); err != nil {
		return nil, err
	}
	if err := b.getInto(ctx, out, b.pvNames); err != nil {
		return nil, err
	}
	if b.hasOptimizers {
		if err := b.getInto(ctx, out, registers.OptimizerRegisterNames); err != nil {
			return nil, err
		}
	}
	if b.powerMeterType != nil {
		if err := b.getInto(ctx, out, registers.PowerMeterRegisterNames); err != nil {
			return nil, err
		}
	}
	if (b.batteryModel1 != "" && b.batteryModel1 != "NONE") || (b.batteryModel2 != "" && b.batteryModel2 != "NONE") {
		if err := b.getInto(ctx, out, registers.EnergyStorageRegisterNames); err != nil {
			return nil, err
		}
	}

	return out, nil
}

func (b *Bridge) getInto(ctx context.Context, out map[string]registers.Result, names []string) error {
	if len(names) == 0 {
		return nil
	}
	results, err := b.sess.GetMultiple(ctx, names, b.slaveID)
	if err != nil {
		return err
	}
	for i, name := range names {
		out[name] = results[i]
	}
	return nil
}

// GetInfo returns the model name and serial number in one batched read.
func (b *Bridge) GetInfo(ctx context.Context) (Info, error) {
	results, err := b.sess.GetMultiple(ctx, []string{"MODEL_NAME", "SERIAL_NUMBER"}, b.slaveID)
	if err != nil {
		return Info{}, err
	}
	modelName, _ := results[0].Value.(string)
	serial, _ := results[1].Value.(string)
	return Info{ModelName: modelName, SerialNumber: serial}, nil
}

// HasWritePermission delegates to the Session's time-zone round-trip test
// for this bridge's slave.
func (b *Bridge) HasWritePermission(ctx context.Context) (bool, error) {
	return b.sess.HasWritePermission(ctx, b.slaveID)
}

// Login performs the challenge/response login and starts the heartbeat
// loop. Login is a Session-wide operation: calling it from a non-primary
// Bridge authenticates the shared connection for all its bridges.
func (b *Bridge) Login(ctx context.Context, username, password string) error {
	return b.sess.Login(ctx, username, password, b.slaveID)
}

// Set writes a named register for this bridge's slave.
func (b *Bridge) Set(ctx context.Context, name string, value any) (bool, error) {
	return b.sess.Set(ctx, name, value, b.slaveID)
}

// GetFile runs the chunked file-upload procedure against this bridge's
// slave.
func (b *Bridge) GetFile(ctx context.Context, fileType byte, customized []byte) ([]byte, error) {
	return b.sess.GetFile(ctx, fileType, customized, b.slaveID)
}

// Stop disables the heartbeat and, only if this is the primary Bridge for
// its Session, closes the underlying transport. Non-primary bridges leave
// the shared connection open for their siblings.
func (b *Bridge) Stop() {
	b.sess.Stop(b.primary)
}

// SlaveID returns the slave address this bridge targets.
func (b *Bridge) SlaveID() byte { return b.slaveID }

// TransportIsConnection reports whether err indicates the underlying
// connection was lost, for callers implementing their own reconnect policy.
func TransportIsConnection(err error) bool { return transport.IsConnection(err) }

func toFloat(v any) float64 {
	f, _ := v.(float64)
	return f
}
