// Package store persists validated flow documents as immutable snapshots
//
// Each snapshot is kept verbatim as JSON text under a generated identifier,
// together with its creation and update timestamps. Several backends share
// the Store interface; Open picks one from a database URL
package store
