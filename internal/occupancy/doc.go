// Package occupancy owns the occupancy-grid update engine.
//
// Responsibilities: log-odds evidence model, square grid addressing,
// single-ray traversal updates, the per-step log-odds history and the
// conversion back to occupancy probabilities.
// Key types: Session, Grid, History, LogOddsModel.
//
// A Session is not safe for concurrent use. Callers that receive
// observations from asynchronous transports must serialise calls
// themselves (see internal/mapper).
//
// No I/O beyond io.Writer table export is allowed in this package.
package occupancy
