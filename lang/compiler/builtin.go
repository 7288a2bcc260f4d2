package compiler

import (
	"strconv"
	"strings"

	"github.com/asc-lang/asc/lang/avm1"
	"github.com/dolthub/swiss"
)

// A builtin is a predeclared identifier that compiles to a single
// action with a fixed arity instead of a user-level function call.
type builtin struct {
	op    avm1.Opcode
	arity int
}

// builtins is consulted for every identifier token and magicProps for
// every member name after '.', so they live in swiss maps.
var builtins = func() *swiss.Map[string, builtin] {
	entries := map[string]builtin{
		"call":               {avm1.Call, 1},
		"chr":                {avm1.AsciiToChar, 1},
		"duplicateMovieClip": {avm1.CloneSprite, 3},
		"eval":               {avm1.GetVariable, 1},
		"getTimer":           {avm1.GetTime, 0},
		"int":                {avm1.ToInteger, 1},
		"length":             {avm1.StringLength, 1},
		"mbchr":              {avm1.MBAsciiToChar, 1},
		"mblength":           {avm1.MBStringLen, 1},
		"mbord":              {avm1.MBCharToAscii, 1},
		"mbsubstring":        {avm1.MBStringExtr, 3},
		"nextFrame":          {avm1.NextFrame, 0},
		"ord":                {avm1.CharToAscii, 1},
		"play":               {avm1.Play, 0},
		"prevFrame":          {avm1.PreviousFrame, 0},
		"random":             {avm1.RandomNumber, 1},
		"stop":               {avm1.Stop, 0},
		"stopAllSounds":      {avm1.StopSounds, 0},
		"stopDrag":           {avm1.EndDrag, 0},
		"targetPath":         {avm1.TargetPath, 1},
		"toggleHighQuality":  {avm1.ToggleQuality, 0},
	}
	m := swiss.NewMap[string, builtin](uint32(len(entries)))
	for k, v := range entries {
		m.Put(k, v)
	}
	return m
}()

// magicPropNames lists the movie-clip properties addressed by index
// through GetProperty/SetProperty; the slice index is the property
// index.
var magicPropNames = []string{
	"_x", "_y", "_xscale", "_yscale", "_currentframe",
	"_totalframes", "_alpha", "_visible", "_width", "_height",
	"_rotation", "_target", "_framesloaded", "_name",
	"_droptarget", "_url", "_highquality", "_focusrect",
	"_soundbuftime", "_quality", "_xmouse", "_ymouse",
}

var magicProps = func() *swiss.Map[string, int32] {
	m := swiss.NewMap[string, int32](uint32(len(magicPropNames)))
	for i, n := range magicPropNames {
		m.Put(n, int32(i))
	}
	return m
}()

// registerOf reports whether name designates a numbered virtual
// register (register0..register255) and returns its number.
func registerOf(name string) (uint8, bool) {
	const prefix = "register"
	if !strings.HasPrefix(name, prefix) || len(name) == len(prefix) {
		return 0, false
	}
	n, err := strconv.ParseUint(name[len(prefix):], 10, 8)
	if err != nil {
		return 0, false
	}
	return uint8(n), true
}
