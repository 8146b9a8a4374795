package txm

import "github.com/txm-control/txm-go/pkg/pv"

// Endpoint names of the standard instrument table.
const (
	SampleX        = "sample_x"
	SampleY        = "sample_y"
	SampleZ        = "sample_z"
	SampleRotation = "sample_rotation"

	ShutterAOpen   = "shutter_a_open"
	ShutterAClose  = "shutter_a_close"
	ShutterAStatus = "shutter_a_status"
	ShutterBOpen   = "shutter_b_open"
	ShutterBClose  = "shutter_b_close"
	ShutterBStatus = "shutter_b_status"

	FastShutterOpen          = "fast_shutter_open"
	FastShutterDelay         = "fast_shutter_delay"
	FastShutterTriggerMode   = "fast_shutter_trigger_mode"
	FastShutterControl       = "fast_shutter_control"
	FastShutterRelay         = "fast_shutter_relay"
	FastShutterTriggerSource = "fast_shutter_trigger_source"

	DetectorImageMode     = "detector_image_mode"
	DetectorTriggerMode   = "detector_trigger_mode"
	DetectorAcquire       = "detector_acquire"
	DetectorAcquireTime   = "detector_acquire_time"
	DetectorAcquirePeriod = "detector_acquire_period"
	DetectorDisplay       = "detector_display"
	DetectorState         = "detector_state"

	EnergySetpoint = "energy_setpoint"
	EnergyBusy     = "energy_busy"
)

// Instrument state values carried by the status and control endpoints.
const (
	ShutterStatusOpen   = 0
	ShutterStatusClosed = 1

	FastShutterClosedValue = 0
	FastShutterOpenValue   = 1

	FastShutterTriggerManual   = 0
	FastShutterTriggerRotation = 1

	FastShutterControlManual = 0
	FastShutterControlAuto   = 1

	FastShutterRelayDirect = 0
	FastShutterRelaySynced = 1

	FastShutterTriggerEncoder = 1

	DetectorAcquireStart = 1
)

// Detector image and trigger mode names.
const (
	ImageModeContinuous = "Continuous"
	ImageModeMultiple   = "Multiple"

	TriggerModeInternal   = "Internal"
	TriggerModeOverlapped = "Overlapped"
)

const iocPrefix = "32idcPG3:"

// DefaultRegistry declares the standard 32-ID-C endpoint table.
func DefaultRegistry() (*pv.Registry, error) {
	return pv.NewRegistry(
		// Sample stage. The top X/Z motors ride on the rotation stage.
		pv.Endpoint{Name: SampleX, Address: "32idcTXM:mcs:c3:m7.VAL", Type: pv.ValueTypeFloat, Wait: true},
		pv.Endpoint{Name: SampleY, Address: "32idcTXM:mxv:c1:m1.VAL", Type: pv.ValueTypeFloat, Wait: true},
		pv.Endpoint{Name: SampleZ, Address: "32idcTXM:mcs:c3:m8.VAL", Type: pv.ValueTypeFloat, Wait: true},
		pv.Endpoint{Name: SampleRotation, Address: "32idcTXM:ens:c1:m1.VAL", Type: pv.ValueTypeFloat, Wait: true},

		// Beamline shutters. Writing the actuators needs the permit;
		// the closed-status readbacks do not.
		pv.Endpoint{Name: ShutterAOpen, Address: "32idb:rshtrA:Open", Type: pv.ValueTypeInt, Wait: true, PermitRequired: true},
		pv.Endpoint{Name: ShutterAClose, Address: "32idb:rshtrA:Close", Type: pv.ValueTypeInt, Wait: true, PermitRequired: true},
		pv.Endpoint{Name: ShutterAStatus, Address: "PB:32ID:STA_A_FES_CLSD_PL", Type: pv.ValueTypeInt, Wait: true},
		pv.Endpoint{Name: ShutterBOpen, Address: "32idb:fbShutter:Open.PROC", Type: pv.ValueTypeInt, Wait: true, PermitRequired: true},
		pv.Endpoint{Name: ShutterBClose, Address: "32idb:fbShutter:Close.PROC", Type: pv.ValueTypeInt, Wait: true, PermitRequired: true},
		pv.Endpoint{Name: ShutterBStatus, Address: "PB:32ID:STA_B_SBS_CLSD_PL", Type: pv.ValueTypeInt, Wait: true},

		// Fast shutter FPGA block.
		pv.Endpoint{Name: FastShutterOpen, Address: "32idcTXM:shutCam:ShutterManual", Type: pv.ValueTypeInt, Wait: true},
		pv.Endpoint{Name: FastShutterDelay, Address: "32idcTXM:shutCam:tDly", Type: pv.ValueTypeFloat, Wait: true},
		pv.Endpoint{Name: FastShutterTriggerMode, Address: "32idcTXM:shutCam:Triggered", Type: pv.ValueTypeInt, Wait: true},
		pv.Endpoint{Name: FastShutterControl, Address: "32idcTXM:shutCam:ShutterCtrl", Type: pv.ValueTypeInt, Wait: true},
		pv.Endpoint{Name: FastShutterRelay, Address: "32idcTXM:shutCam:Enable", Type: pv.ValueTypeInt, Wait: true},
		pv.Endpoint{Name: FastShutterTriggerSource, Address: "32idcTXM:flyTriggerSelect", Type: pv.ValueTypeInt, Wait: true},

		// Detector. Acquire is fire-and-forget; acquisition end is
		// observed through the state readback.
		pv.Endpoint{Name: DetectorImageMode, Address: iocPrefix + "cam1:ImageMode", Type: pv.ValueTypeString, Wait: true},
		pv.Endpoint{Name: DetectorTriggerMode, Address: iocPrefix + "cam1:TriggerMode", Type: pv.ValueTypeString, Wait: true},
		pv.Endpoint{Name: DetectorAcquire, Address: iocPrefix + "cam1:Acquire", Type: pv.ValueTypeInt, Wait: false},
		pv.Endpoint{Name: DetectorAcquireTime, Address: iocPrefix + "cam1:AcquireTime", Type: pv.ValueTypeFloat, Wait: true},
		pv.Endpoint{Name: DetectorAcquirePeriod, Address: iocPrefix + "cam1:AcquirePeriod", Type: pv.ValueTypeFloat, Wait: true},
		pv.Endpoint{Name: DetectorDisplay, Address: iocPrefix + "image1:EnableCallbacks", Type: pv.ValueTypeInt, Wait: true},
		pv.Endpoint{Name: DetectorState, Address: iocPrefix + "cam1:DetectorState_RBV", Type: pv.ValueTypeInt, Wait: true},

		// Energy. The monochromator setpoint needs the permit; the
		// undulator busy flag is a readback.
		pv.Endpoint{Name: EnergySetpoint, Address: "32ida:BraggEAO.VAL", Type: pv.ValueTypeFloat, Wait: true, PermitRequired: true},
		pv.Endpoint{Name: EnergyBusy, Address: "ID32us:Busy", Type: pv.ValueTypeInt, Wait: true},
	)
}
