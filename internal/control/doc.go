// Package control provides the rotational-speed controllers of a pile driver.
//
// The engine consults its [Controller] once per simulated second, that is every
// Period iterations:
//
//   - [Stall]: raise the speed by a fixed step whenever the pile advanced no
//     more than a threshold during the last second
//   - [Schedule]: follow a (time, speed) table, one entry per tick, and report
//     exhaustion once every entry has been applied
//
// # Usage
//
//	ctl, err := control.New(p.Control)
//	speed, done := ctl.Update(control.Observation{Time: t, Depth: d, Lagged: dPrev}, speed)
//
// Speeds returned by either controller never decrease.
package control
