// Package roboarm is the firmware for a four-joint robotic manipulator:
// a positioning engine that drives the joints along interpolated
// trajectories, a network orchestrator that keeps a TCP control channel
// reachable over Wi-Fi in station, access-point, or survival mode, and
// a persistent configurator that remembers Wi-Fi credentials across
// power cycles.
//
// The [motion] package implements the positioning engine: [motion.Engine]
// consumes queued [units.Position] targets and drives a [motion.Mechanics]
// of four [motion.Servo] outputs along a speed-bounded interpolated path.
//
// The [network] package implements the orchestrator: [network.Manager]
// is the Optimistic/Locked/Survival state machine, [network.WifiProvider]
// drives a [network.RadioController] to match its decisions, and
// [network.Transport] accepts and hot-preempts TCP API sessions per
// radio interface.
//
// The [netstack] package provides the userspace TCP/IP stack each
// radio interface runs on top of, including a DHCP server for the
// access-point interface and a pcap capture sink for diagnostics.
//
// The [storage] package implements the power-loss-tolerant
// log-structured flash key/value store the [configurator] package uses
// to persist [wificonfig.WifiConfig] across restarts.
//
// The [wire] package implements the binary framing and message codec
// spoken between the manipulator and a client such as cmd/roboarmctl.
//
// The [core] package wires these pieces into the same two concurrency
// domains the original firmware splits across its two CPU cores.
package roboarm
