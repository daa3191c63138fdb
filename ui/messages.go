package ui

import (
	"blendassist/model"
	"blendassist/session"
)

// sendResultMsg carries the outcome of a Send run inside a tea.Cmd
type sendResultMsg struct {
	Task    string
	Outcome session.Outcome
	Err     error
}

// runResultMsg carries the outcome of re-running code
type runResultMsg struct {
	Result model.ExecutionResult
}

// editorClosedMsg is sent when the external editor exits
type editorClosedMsg struct {
	Content string
	Err     error
}

type statusKind int

const (
	statusNone statusKind = iota
	statusOK
	statusError
	statusInfo
)
