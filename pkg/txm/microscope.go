package txm

import (
	"context"
	"fmt"
	"time"

	"github.com/txm-control/txm-go/pkg/controller"
	"github.com/txm-control/txm-go/pkg/session"
)

// DefaultShutterTimeout bounds how long shutter moves may take before the
// status wait gives up.
const DefaultShutterTimeout = 15 * time.Second

// Position is the sample stage position.
type Position struct {
	X     float64
	Y     float64
	Z     float64
	Theta float64
}

// Move describes a sample stage move. Nil axes stay where they are.
type Move struct {
	X     *float64
	Y     *float64
	Z     *float64
	Theta *float64
}

// Microscope is the operator-facing facade over the instrument controller.
type Microscope struct {
	ctrl *controller.Controller

	// UseShutterA and UseShutterB select which beamline shutters
	// OpenShutters and CloseShutters actuate.
	UseShutterA bool
	UseShutterB bool

	// ShutterTimeout bounds the status wait after a shutter move.
	// Defaults to DefaultShutterTimeout.
	ShutterTimeout time.Duration
}

// NewMicroscope creates a microscope facade over the given controller.
// The controller's registry must contain the DefaultRegistry endpoints.
func NewMicroscope(ctrl *controller.Controller) *Microscope {
	return &Microscope{
		ctrl:           ctrl,
		UseShutterB:    true,
		ShutterTimeout: DefaultShutterTimeout,
	}
}

// Controller returns the underlying controller.
func (m *Microscope) Controller() *controller.Controller { return m.ctrl }

// SamplePosition reads the current stage position.
func (m *Microscope) SamplePosition(ctx context.Context) (Position, error) {
	var pos Position
	reads := []struct {
		name string
		dst  *float64
	}{
		{SampleX, &pos.X},
		{SampleY, &pos.Y},
		{SampleZ, &pos.Z},
		{SampleRotation, &pos.Theta},
	}
	for _, r := range reads {
		v, err := m.ctrl.Get(ctx, r.name)
		if err != nil {
			return Position{}, fmt.Errorf("sample position: %w", err)
		}
		*r.dst = v.AsFloat()
	}
	return pos, nil
}

// MoveSample moves the given stage axes together. The axis writes are
// dispatched as one blocking batch, so all motors start at once and the
// call returns when every move confirmed.
func (m *Microscope) MoveSample(ctx context.Context, move Move) error {
	return m.ctrl.Batch(ctx, true, func(ctx context.Context) error {
		axes := []struct {
			name  string
			value *float64
		}{
			{SampleRotation, move.Theta},
			{SampleX, move.X},
			{SampleY, move.Y},
			{SampleZ, move.Z},
		}
		for _, a := range axes {
			if a.value == nil {
				continue
			}
			if err := m.ctrl.Set(ctx, a.name, *a.value); err != nil {
				return fmt.Errorf("move %s: %w", a.name, err)
			}
		}
		return nil
	})
}

// OpenShutters opens the selected beamline shutters and waits for their
// status readbacks. Without the permit this is a no-op, matching the
// permit gate on the actuator endpoints.
func (m *Microscope) OpenShutters(ctx context.Context) error {
	return m.actuateShutters(ctx, ShutterAOpen, ShutterBOpen, ShutterStatusOpen)
}

// CloseShutters closes the selected beamline shutters and waits for their
// status readbacks. Without the permit this is a no-op.
func (m *Microscope) CloseShutters(ctx context.Context) error {
	return m.actuateShutters(ctx, ShutterAClose, ShutterBClose, ShutterStatusClosed)
}

func (m *Microscope) actuateShutters(ctx context.Context, actuatorA, actuatorB string, wantStatus int) error {
	if !m.ctrl.PermitGranted() {
		// The actuator writes would be skipped anyway; skipping the
		// status waits avoids a pointless timeout.
		return nil
	}
	timeout := m.ShutterTimeout
	if timeout <= 0 {
		timeout = DefaultShutterTimeout
	}

	if m.UseShutterA {
		if err := m.ctrl.Set(ctx, actuatorA, 1); err != nil {
			return err
		}
		if err := m.ctrl.WaitFor(ctx, ShutterAStatus, wantStatus, 0, timeout); err != nil {
			return fmt.Errorf("shutter A: %w", err)
		}
	}
	if m.UseShutterB {
		if err := m.ctrl.Set(ctx, actuatorB, 1); err != nil {
			return err
		}
		if err := m.ctrl.WaitFor(ctx, ShutterBStatus, wantStatus, 0, timeout); err != nil {
			return fmt.Errorf("shutter B: %w", err)
		}
	}
	return nil
}

// EnableFastShutter arms the hardware-triggered fast shutter. The shutter
// is left closed; projections open it just in time. With rotationTrigger
// the rotation stage encoder fires the shutter and detector directly,
// which fly scans need.
func (m *Microscope) EnableFastShutter(ctx context.Context, rotationTrigger bool, delay float64) error {
	trigger := FastShutterTriggerManual
	if rotationTrigger {
		trigger = FastShutterTriggerRotation
	}
	steps := []session.Step{
		// Close before rewiring so the shutter never flaps open.
		{Endpoint: FastShutterControl, Value: FastShutterControlManual},
		{Endpoint: FastShutterOpen, Value: FastShutterClosedValue},
		{Endpoint: FastShutterTriggerMode, Value: trigger},
		{Endpoint: FastShutterControl, Value: FastShutterControlAuto},
		{Endpoint: FastShutterRelay, Value: FastShutterRelaySynced},
		{Endpoint: FastShutterTriggerSource, Value: FastShutterTriggerEncoder},
		{Endpoint: FastShutterDelay, Value: delay},
	}
	return m.applySteps(ctx, steps)
}

// DisableFastShutter returns the instrument to software triggering with the
// fast shutter held open.
func (m *Microscope) DisableFastShutter(ctx context.Context) error {
	return m.applySteps(ctx, disarmFastShutterSteps())
}

func disarmFastShutterSteps() []session.Step {
	return []session.Step{
		{Endpoint: FastShutterTriggerMode, Value: FastShutterTriggerRotation},
		{Endpoint: FastShutterControl, Value: FastShutterControlManual},
		{Endpoint: FastShutterRelay, Value: FastShutterRelayDirect},
		{Endpoint: FastShutterTriggerSource, Value: FastShutterTriggerEncoder},
		// Held open so it cannot shadow measurements.
		{Endpoint: FastShutterOpen, Value: FastShutterOpenValue},
	}
}

func (m *Microscope) applySteps(ctx context.Context, steps []session.Step) error {
	for _, st := range steps {
		if err := m.ctrl.Set(ctx, st.Endpoint, st.Value); err != nil {
			return fmt.Errorf("write %s: %w", st.Endpoint, err)
		}
	}
	return nil
}

// SetExposure sets the detector exposure time in seconds.
func (m *Microscope) SetExposure(ctx context.Context, seconds float64) error {
	return m.ctrl.Set(ctx, DetectorAcquireTime, seconds)
}

// Exposure reads the effective exposure time: the larger of the acquire
// time and the acquire period, since the period caps the frame rate.
func (m *Microscope) Exposure(ctx context.Context) (float64, error) {
	acquireTime, err := m.ctrl.Get(ctx, DetectorAcquireTime)
	if err != nil {
		return 0, err
	}
	period, err := m.ctrl.Get(ctx, DetectorAcquirePeriod)
	if err != nil {
		return 0, err
	}
	if period.AsFloat() > acquireTime.AsFloat() {
		return period.AsFloat(), nil
	}
	return acquireTime.AsFloat(), nil
}

// ResetDetector returns the detector to live continuous display.
func (m *Microscope) ResetDetector(ctx context.Context) error {
	// The trigger mode is cycled through Overlapped because the camera
	// firmware latches the previous mode otherwise.
	steps := []session.Step{
		{Endpoint: DetectorTriggerMode, Value: TriggerModeInternal},
		{Endpoint: DetectorTriggerMode, Value: TriggerModeOverlapped},
		{Endpoint: DetectorTriggerMode, Value: TriggerModeInternal},
		{Endpoint: DetectorImageMode, Value: ImageModeContinuous},
		{Endpoint: DetectorDisplay, Value: 1},
		{Endpoint: DetectorAcquire, Value: DetectorAcquireStart},
	}
	if err := m.applySteps(ctx, steps); err != nil {
		return err
	}
	return m.ctrl.WaitFor(ctx, DetectorAcquire, DetectorAcquireStart, 0, 2*time.Second)
}

// ScanSessionConfig names the endpoint subset scan sessions protect: stage
// position and exposure are snapshotted and restored, the fast shutter is
// armed on entry, and teardown disarms it and returns the detector to
// continuous display.
func ScanSessionConfig() session.Config {
	teardown := disarmFastShutterSteps()
	teardown = append(teardown,
		session.Step{Endpoint: DetectorImageMode, Value: ImageModeContinuous},
		session.Step{Endpoint: DetectorDisplay, Value: 1},
	)
	return session.Config{
		Snapshot: []string{
			SampleX, SampleY, SampleZ, SampleRotation,
			DetectorAcquireTime,
		},
		Arm: []session.Step{
			{Endpoint: FastShutterControl, Value: FastShutterControlManual},
			{Endpoint: FastShutterOpen, Value: FastShutterClosedValue},
			{Endpoint: FastShutterTriggerMode, Value: FastShutterTriggerManual},
			{Endpoint: FastShutterControl, Value: FastShutterControlAuto},
			{Endpoint: FastShutterRelay, Value: FastShutterRelaySynced},
			{Endpoint: FastShutterTriggerSource, Value: FastShutterTriggerEncoder},
		},
		Teardown: teardown,
	}
}

// NewScanSession builds a scan session over the microscope's controller
// using the standard configuration.
func (m *Microscope) NewScanSession() *session.Session {
	return session.New(m.ctrl, ScanSessionConfig())
}
