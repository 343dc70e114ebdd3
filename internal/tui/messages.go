package tui

import (
	"github.com/matheuskafuri/menuscore/internal/dining"
)

type resultLoadedMsg struct {
	rs    *dining.ResultSet
	prefs dining.Preferences
}

type loadErrMsg struct {
	err error
}

type openErrMsg struct {
	err error
}
