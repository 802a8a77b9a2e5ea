// Package session keeps the per-user dialog state between messages.
package session

import (
	"encoding/json"

	"github.com/pkg/errors"
)

// ErrNoSession is returned when a user has no active dialog
var ErrNoSession = errors.New("no active session")

// Stage identifies which input a dialog is waiting for
type Stage string

const (
	StageAwaitingDate           Stage = "awaiting_date"
	StageAwaitingPreacher       Stage = "awaiting_preacher"
	StageAwaitingDeleteDate     Stage = "awaiting_delete_date"
	StageAwaitingDeleteDecision Stage = "awaiting_delete_decision"
	StageAwaitingDeletePreacher Stage = "awaiting_delete_preacher"
	StageAwaitingExportMonth    Stage = "awaiting_export_month"
)

// State is the payload of one dialog stage. The concrete type determines the stage.
type State interface {
	Stage() Stage
}

// AwaitingDate waits for one of the offered service dates
type AwaitingDate struct {
	Offered []string `json:"offered"`
}

// AwaitingPreacher waits for a preacher to assign to Date
type AwaitingPreacher struct {
	Date    string   `json:"date"`
	Offered []string `json:"offered"`
}

// AwaitingDeleteDate waits for an existing date to delete from
type AwaitingDeleteDate struct {
	Offered []string `json:"offered"`
}

// AwaitingDeleteDecision waits for how to delete from Date
type AwaitingDeleteDecision struct {
	Date      string   `json:"date"`
	Preachers []string `json:"preachers"`
	Choices   []string `json:"choices"`
}

// AwaitingDeletePreacher waits for which of Preachers to remove from Date
type AwaitingDeletePreacher struct {
	Date      string   `json:"date"`
	Preachers []string `json:"preachers"`
}

// AwaitingExportMonth waits for a month (MM.YYYY) to export
type AwaitingExportMonth struct {
	Offered []string `json:"offered"`
}

func (AwaitingDate) Stage() Stage           { return StageAwaitingDate }
func (AwaitingPreacher) Stage() Stage       { return StageAwaitingPreacher }
func (AwaitingDeleteDate) Stage() Stage     { return StageAwaitingDeleteDate }
func (AwaitingDeleteDecision) Stage() Stage { return StageAwaitingDeleteDecision }
func (AwaitingDeletePreacher) Stage() Stage { return StageAwaitingDeletePreacher }
func (AwaitingExportMonth) Stage() Stage    { return StageAwaitingExportMonth }

type envelope struct {
	Stage Stage           `json:"stage"`
	Data  json.RawMessage `json:"data"`
}

// Encode serializes a state together with its stage tag
func Encode(st State) ([]byte, error) {
	if st == nil {
		return nil, errors.New("nil session state")
	}
	data, err := json.Marshal(st)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal session state")
	}
	return json.Marshal(envelope{Stage: st.Stage(), Data: data})
}

// Decode restores a state written by Encode
func Decode(raw []byte) (State, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal session envelope")
	}

	var st State
	switch env.Stage {
	case StageAwaitingDate:
		st = &AwaitingDate{}
	case StageAwaitingPreacher:
		st = &AwaitingPreacher{}
	case StageAwaitingDeleteDate:
		st = &AwaitingDeleteDate{}
	case StageAwaitingDeleteDecision:
		st = &AwaitingDeleteDecision{}
	case StageAwaitingDeletePreacher:
		st = &AwaitingDeletePreacher{}
	case StageAwaitingExportMonth:
		st = &AwaitingExportMonth{}
	default:
		return nil, errors.Errorf("unknown session stage %q", env.Stage)
	}
	if err := json.Unmarshal(env.Data, st); err != nil {
		return nil, errors.Wrapf(err, "failed to unmarshal %s state", env.Stage)
	}
	return deref(st), nil
}

// deref turns the decode target back into the value type callers switch on
func deref(st State) State {
	switch s := st.(type) {
	case *AwaitingDate:
		return *s
	case *AwaitingPreacher:
		return *s
	case *AwaitingDeleteDate:
		return *s
	case *AwaitingDeleteDecision:
		return *s
	case *AwaitingDeletePreacher:
		return *s
	case *AwaitingExportMonth:
		return *s
	}
	return st
}
