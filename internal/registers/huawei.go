package registers

// NewHuaweiCatalog builds the register catalog for Huawei SUN2000-family
// inverters: identity and probe registers, the always-on inverter block,
// per-string PV voltage/current pairs, and the optimizer, power-meter and
// energy-storage blocks. Not every register the firmware exposes is listed;
// unlisted ones can be added as plain Descriptor rows.
func NewHuaweiCatalog() (*Catalog, error) {
	descs := append(identityRegisters(), append(
		inverterRegisters(),
		append(pvStringRegisters(24),
			append(optimizerRegisters(),
				append(meterRegisters(), storageRegisters()...)...)...)...)...)

	return NewCatalog(descs)
}

func identityRegisters() []Descriptor {
	return []Descriptor{
		{Name: "MODEL_NAME", Address: 30000, Length: 15, Kind: KindString, StringLen: 30, AccessLevel: AccessReadable},
		{Name: "SERIAL_NUMBER", Address: 30015, Length: 10, Kind: KindString, StringLen: 20, AccessLevel: AccessReadable},
		{Name: "NB_PV_STRINGS", Address: 30071, Length: 1, Kind: KindU16, Scale: 1, AccessLevel: AccessReadable},
		{Name: "NB_OPTIMIZERS", Address: 30072, Length: 1, Kind: KindU16, Scale: 1, AccessLevel: AccessReadable},
		{Name: "SMARTLOGGER_FIRST_SLAVE_POWER", Address: 31000, Length: 2, Kind: KindI32, Scale: 1, Unit: Unit{Const: "W"}, AccessLevel: AccessReadable},
		{Name: "TIME_ZONE", Address: 43006, Length: 1, Kind: KindI16, Scale: 1, Writeable: true, AccessLevel: AccessWriteable},
		{Name: "SMARTLOGGER_TIME_ZONE", Address: 43011, Length: 1, Kind: KindI16, Scale: 1, AccessLevel: AccessReadable},
	}
}

// pvStringRegisters lays out count PV string voltage/current pairs directly
// below the always-on inverter register block, matching the address
// ordering real firmware uses (voltage/current interleaved per string).
func pvStringRegisters(count int) []Descriptor {
	names := PVRegisterNames(count)
	out := make([]Descriptor, 0, len(names))
	addr := uint16(32016)
	for i := 0; i < len(names); i += 2 {
		out = append(out,
			Descriptor{Name: names[i], Address: addr, Length: 1, Kind: KindU16, Scale: 10, Unit: Unit{Const: "V"}, AccessLevel: AccessReadable},
			Descriptor{Name: names[i+1], Address: addr + 1, Length: 1, Kind: KindI16, Scale: 100, Unit: Unit{Const: "A"}, AccessLevel: AccessReadable},
		)
		addr += 2
	}
	return out
}

var deviceStatusNames = map[int64]string{
	0x0000: "Standby: initializing",
	0x0001: "Standby: insulation resistance detecting",
	0x0100: "Grid connected",
	0x0200: "Grid connected: derating due to power limit",
	0x0300: "Shutdown: fault",
	0x0500: "Spot check",
}

func inverterRegisters() []Descriptor {
	return []Descriptor{
		{Name: "INPUT_POWER", Address: 32064, Length: 2, Kind: KindI32, Scale: 1, Unit: Unit{Const: "W"}, AccessLevel: AccessReadable},
		{Name: "LINE_VOLTAGE_A_B", Address: 32066, Length: 1, Kind: KindU16, Scale: 10, Unit: Unit{Const: "V"}, AccessLevel: AccessReadable},
		{Name: "LINE_VOLTAGE_B_C", Address: 32067, Length: 1, Kind: KindU16, Scale: 10, Unit: Unit{Const: "V"}, AccessLevel: AccessReadable},
		{Name: "LINE_VOLTAGE_C_A", Address: 32068, Length: 1, Kind: KindU16, Scale: 10, Unit: Unit{Const: "V"}, AccessLevel: AccessReadable},
		{Name: "PHASE_A_VOLTAGE", Address: 32069, Length: 1, Kind: KindU16, Scale: 10, Unit: Unit{Const: "V"}, AccessLevel: AccessReadable},
		{Name: "PHASE_B_VOLTAGE", Address: 32070, Length: 1, Kind: KindU16, Scale: 10, Unit: Unit{Const: "V"}, AccessLevel: AccessReadable},
		{Name: "PHASE_C_VOLTAGE", Address: 32071, Length: 1, Kind: KindU16, Scale: 10, Unit: Unit{Const: "V"}, AccessLevel: AccessReadable},
		{Name: "PHASE_A_CURRENT", Address: 32072, Length: 2, Kind: KindU32, Scale: 100, Unit: Unit{Const: "A"}, AccessLevel: AccessReadable},
		{Name: "PHASE_B_CURRENT", Address: 32074, Length: 2, Kind: KindU32, Scale: 100, Unit: Unit{Const: "A"}, AccessLevel: AccessReadable},
		{Name: "PHASE_C_CURRENT", Address: 32076, Length: 2, Kind: KindU32, Scale: 100, Unit: Unit{Const: "A"}, AccessLevel: AccessReadable},
		{Name: "DAY_ACTIVE_POWER_PEAK", Address: 32078, Length: 2, Kind: KindI32, Scale: 1, Unit: Unit{Const: "W"}, AccessLevel: AccessReadable},
		{Name: "ACTIVE_POWER", Address: 32080, Length: 2, Kind: KindI32, Scale: 1, Unit: Unit{Const: "W"}, AccessLevel: AccessReadable},
		{Name: "REACTIVE_POWER", Address: 32082, Length: 2, Kind: KindI32, Scale: 1, Unit: Unit{Const: "Var"}, AccessLevel: AccessReadable},
		{Name: "POWER_FACTOR", Address: 32084, Length: 1, Kind: KindI16, Scale: 1000, AccessLevel: AccessReadable},
		{Name: "GRID_FREQUENCY", Address: 32085, Length: 1, Kind: KindU16, Scale: 100, Unit: Unit{Const: "Hz"}, AccessLevel: AccessReadable},
		{Name: "EFFICIENCY", Address: 32086, Length: 1, Kind: KindU16, Scale: 100, Unit: Unit{Const: "%"}, AccessLevel: AccessReadable},
		{Name: "INTERNAL_TEMPERATURE", Address: 32087, Length: 1, Kind: KindI16, Scale: 10, Unit: Unit{Const: "°C"}, AccessLevel: AccessReadable},
		{Name: "INSULATION_RESISTANCE", Address: 32088, Length: 1, Kind: KindU16, Scale: 100, Unit: Unit{Const: "MOhm"}, AccessLevel: AccessReadable},
		{Name: "DEVICE_STATUS", Address: 32089, Length: 1, Kind: KindEnum, EnumMap: deviceStatusNames, AccessLevel: AccessReadable},
		{Name: "FAULT_CODE", Address: 32090, Length: 1, Kind: KindU16, Scale: 1, AccessLevel: AccessReadable},
		{Name: "STARTUP_TIME", Address: 32091, Length: 2, Kind: KindTimestamp, AccessLevel: AccessReadable},
		{Name: "SHUTDOWN_TIME", Address: 32093, Length: 2, Kind: KindTimestamp, AccessLevel: AccessReadable},
		{Name: "ACCUMULATED_YIELD_ENERGY", Address: 32106, Length: 2, Kind: KindU32, Scale: 100, Unit: Unit{Const: "kWh"}, AccessLevel: AccessReadable},
		{Name: "DAILY_YIELD_ENERGY", Address: 32114, Length: 2, Kind: KindU32, Scale: 100, Unit: Unit{Const: "kWh"}, AccessLevel: AccessReadable},
	}
}

func optimizerRegisters() []Descriptor {
	return []Descriptor{
		{Name: "NB_ONLINE_OPTIMIZERS", Address: 32212, Length: 1, Kind: KindU16, Scale: 1, AccessLevel: AccessReadable},
	}
}

var meterStatusNames = map[int64]string{0: "OFFLINE", 1: "NORMAL"}
var meterTypeNames = map[int64]string{0: "SINGLE_PHASE", 1: "THREE_PHASE"}

func meterRegisters() []Descriptor {
	return []Descriptor{
		{Name: "METER_STATUS", Address: 37100, Length: 1, Kind: KindEnum, EnumMap: meterStatusNames, AccessLevel: AccessReadable},
		{Name: "GRID_A_VOLTAGE", Address: 37101, Length: 2, Kind: KindI32, Scale: 10, Unit: Unit{Const: "V"}, AccessLevel: AccessReadable},
		{Name: "GRID_B_VOLTAGE", Address: 37103, Length: 2, Kind: KindI32, Scale: 10, Unit: Unit{Const: "V"}, AccessLevel: AccessReadable},
		{Name: "GRID_C_VOLTAGE", Address: 37105, Length: 2, Kind: KindI32, Scale: 10, Unit: Unit{Const: "V"}, AccessLevel: AccessReadable},
		{Name: "ACTIVE_GRID_A_CURRENT", Address: 37107, Length: 2, Kind: KindI32, Scale: 100, Unit: Unit{Const: "A"}, AccessLevel: AccessReadable},
		{Name: "ACTIVE_GRID_B_CURRENT", Address: 37109, Length: 2, Kind: KindI32, Scale: 100, Unit: Unit{Const: "A"}, AccessLevel: AccessReadable},
		{Name: "ACTIVE_GRID_C_CURRENT", Address: 37111, Length: 2, Kind: KindI32, Scale: 100, Unit: Unit{Const: "A"}, AccessLevel: AccessReadable},
		{Name: "POWER_METER_ACTIVE_POWER", Address: 37113, Length: 2, Kind: KindI32, Scale: 1, Unit: Unit{Const: "W"}, AccessLevel: AccessReadable},
		{Name: "POWER_METER_REACTIVE_POWER", Address: 37115, Length: 2, Kind: KindI32, Scale: 1, Unit: Unit{Const: "Var"}, AccessLevel: AccessReadable},
		{Name: "ACTIVE_GRID_POWER_FACTOR", Address: 37117, Length: 1, Kind: KindI16, Scale: 1000, AccessLevel: AccessReadable},
		{Name: "ACTIVE_GRID_FREQUENCY", Address: 37118, Length: 1, Kind: KindU16, Scale: 100, Unit: Unit{Const: "Hz"}, AccessLevel: AccessReadable},
		{Name: "GRID_EXPORTED_ENERGY", Address: 37119, Length: 2, Kind: KindI32, Scale: 100, Unit: Unit{Const: "kWh"}, AccessLevel: AccessReadable},
		{Name: "GRID_ACCUMULATED_ENERGY", Address: 37121, Length: 2, Kind: KindU32, Scale: 100, Unit: Unit{Const: "kWh"}, AccessLevel: AccessReadable},
		{Name: "GRID_ACCUMULATED_REACTIVE_POWER", Address: 37123, Length: 2, Kind: KindI32, Scale: 100, Unit: Unit{Const: "kVarh"}, AccessLevel: AccessReadable},
		{Name: "METER_TYPE", Address: 37125, Length: 1, Kind: KindEnum, EnumMap: meterTypeNames, AccessLevel: AccessReadable},
		{Name: "ACTIVE_GRID_A_B_VOLTAGE", Address: 37126, Length: 2, Kind: KindI32, Scale: 10, Unit: Unit{Const: "V"}, AccessLevel: AccessReadable},
		{Name: "ACTIVE_GRID_B_C_VOLTAGE", Address: 37128, Length: 2, Kind: KindI32, Scale: 10, Unit: Unit{Const: "V"}, AccessLevel: AccessReadable},
		{Name: "ACTIVE_GRID_C_A_VOLTAGE", Address: 37130, Length: 2, Kind: KindI32, Scale: 10, Unit: Unit{Const: "V"}, AccessLevel: AccessReadable},
		{Name: "ACTIVE_GRID_A_POWER", Address: 37132, Length: 2, Kind: KindI32, Scale: 1, Unit: Unit{Const: "W"}, AccessLevel: AccessReadable},
		{Name: "ACTIVE_GRID_B_POWER", Address: 37134, Length: 2, Kind: KindI32, Scale: 1, Unit: Unit{Const: "W"}, AccessLevel: AccessReadable},
		{Name: "ACTIVE_GRID_C_POWER", Address: 37136, Length: 2, Kind: KindI32, Scale: 1, Unit: Unit{Const: "W"}, AccessLevel: AccessReadable},
	}
}

var storageProductModelNames = map[int64]string{0: "NONE", 1: "LG_RESU", 2: "HUAWEI_LUNA2000"}
var storageRunningStatusNames = map[int64]string{
	0: "OFFLINE", 1: "STANDBY", 2: "RUNNING", 3: "FAULT", 4: "SLEEP_MODE",
}

func storageRegisters() []Descriptor {
	return []Descriptor{
		{Name: "STORAGE_UNIT_1_PRODUCT_MODEL", Address: 37758, Length: 1, Kind: KindEnum, EnumMap: storageProductModelNames, AccessLevel: AccessReadable},
		{Name: "STORAGE_STATE_OF_CAPACITY", Address: 37760, Length: 1, Kind: KindU16, Scale: 10, Unit: Unit{Const: "%"}, AccessLevel: AccessReadable},
		{Name: "STORAGE_RUNNING_STATUS", Address: 37761, Length: 1, Kind: KindEnum, EnumMap: storageRunningStatusNames, AccessLevel: AccessReadable},
		{Name: "STORAGE_BUS_VOLTAGE", Address: 37763, Length: 1, Kind: KindU16, Scale: 10, Unit: Unit{Const: "V"}, AccessLevel: AccessReadable},
		{Name: "STORAGE_BUS_CURRENT", Address: 37764, Length: 1, Kind: KindI16, Scale: 10, Unit: Unit{Const: "A"}, AccessLevel: AccessReadable},
		{Name: "STORAGE_CHARGE_DISCHARGE_POWER", Address: 37765, Length: 2, Kind: KindI32, Scale: 1, Unit: Unit{Const: "W"}, AccessLevel: AccessReadable},
		{Name: "STORAGE_TOTAL_CHARGE", Address: 37780, Length: 2, Kind: KindU32, Scale: 100, Unit: Unit{Const: "kWh"}, AccessLevel: AccessReadable},
		{Name: "STORAGE_TOTAL_DISCHARGE", Address: 37782, Length: 2, Kind: KindU32, Scale: 100, Unit: Unit{Const: "kWh"}, AccessLevel: AccessReadable},
		{Name: "STORAGE_CURRENT_DAY_CHARGE_CAPACITY", Address: 37784, Length: 2, Kind: KindU32, Scale: 100, Unit: Unit{Const: "kWh"}, AccessLevel: AccessReadable},
		{Name: "STORAGE_CURRENT_DAY_DISCHARGE_CAPACITY", Address: 37786, Length: 2, Kind: KindU32, Scale: 100, Unit: Unit{Const: "kWh"}, AccessLevel: AccessReadable},
		{Name: "STORAGE_UNIT_2_PRODUCT_MODEL", Address: 37798, Length: 1, Kind: KindEnum, EnumMap: storageProductModelNames, AccessLevel: AccessReadable},
	}
}

// InverterRegisterNames, OptimizerRegisterNames, PowerMeterRegisterNames and
// EnergyStorageRegisterNames are the always-on / conditional field sets the
// Bridge composes Update from, each orderable into a single batched read.
var (
	InverterRegisterNames      = namesOf(inverterRegisters())
	OptimizerRegisterNames     = namesOf(optimizerRegisters())
	PowerMeterRegisterNames    = namesOf(meterRegisters())
	EnergyStorageRegisterNames = []string{
		"STORAGE_STATE_OF_CAPACITY",
		"STORAGE_RUNNING_STATUS",
		"STORAGE_BUS_VOLTAGE",
		"STORAGE_BUS_CURRENT",
		"STORAGE_CHARGE_DISCHARGE_POWER",
		"STORAGE_TOTAL_CHARGE",
		"STORAGE_TOTAL_DISCHARGE",
		"STORAGE_CURRENT_DAY_CHARGE_CAPACITY",
		"STORAGE_CURRENT_DAY_DISCHARGE_CAPACITY",
	}
)

func namesOf(descs []Descriptor) []string {
	// METER_STATUS is excluded: the Bridge probes it individually.
	out := make([]string, 0, len(descs))
	for _, d := range descs {
		if d.Name == "METER_STATUS" {
			continue
		}
		out = append(out, d.Name)
	}
	return out
}
