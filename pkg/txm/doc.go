// Package txm binds the generic controller to the sector 32-ID-C
// transmission X-ray microscope.
//
// DefaultRegistry declares the instrument's standard endpoint table: sample
// stage motors, the two beamline shutters, the FPGA-driven fast shutter
// block, and the detector. Microscope is the operator-facing facade over a
// controller built from that table; it expresses the common multi-PV
// procedures (coordinated stage moves, shutter sequencing, fast-shutter
// arming, detector reset) as single calls.
//
// ScanSessionConfig names the endpoint subset a scan session snapshots and
// the fixed teardown writes that return the instrument to interactive use.
package txm
