package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl32"

	"voxeledit.ai/internal/editor"
	"voxeledit.ai/internal/sim/input"
)

type stepKind int

const (
	stepPress stepKind = iota
	stepActivate
	stepSelect
	stepLook
	stepTile
	stepWait
)

type step struct {
	kind    stepKind
	action  string
	target  editor.Kind
	actor   int64
	tile    uint16
	forward mgl32.Vec3
}

var knownActions = map[string]bool{
	input.MoveForward: true, input.MoveBack: true, input.MoveLeft: true,
	input.MoveRight: true, input.MoveUp: true, input.MoveDown: true,
	input.ExpandForward: true, input.ExpandBack: true, input.ExpandLeft: true,
	input.ExpandRight: true, input.ExpandUp: true, input.ExpandDown: true,
	input.RotateLeft: true, input.RotateRight: true,
	input.Insertion: true, input.Removal: true,
}

var lookDirs = map[string]mgl32.Vec3{
	"+x": {1, 0, 0},
	"-x": {-1, 0, 0},
	"+z": {0, 0, 1},
	"-z": {0, 0, -1},
}

// parseScript reads a comma-separated step list such as
//
//	activate:terrain,move_forward*3,look:-x,tile:2,insertion,wait:4
//
// A trailing *N repeats a step N times.
func parseScript(s string) ([]step, error) {
	var out []step
	for _, raw := range strings.Split(s, ",") {
		tok := strings.TrimSpace(raw)
		if tok == "" {
			continue
		}
		n := 1
		if i := strings.LastIndexByte(tok, '*'); i >= 0 {
			v, err := strconv.Atoi(tok[i+1:])
			if err != nil || v <= 0 {
				return nil, fmt.Errorf("step %q: bad repeat", tok)
			}
			n, tok = v, tok[:i]
		}
		st, err := parseStep(tok)
		if err != nil {
			return nil, err
		}
		for i := 0; i < n; i++ {
			out = append(out, st)
		}
	}
	return out, nil
}

func parseStep(tok string) (step, error) {
	name, arg, hasArg := strings.Cut(tok, ":")
	if !hasArg {
		if !knownActions[name] {
			return step{}, fmt.Errorf("step %q: unknown action", tok)
		}
		return step{kind: stepPress, action: name}, nil
	}
	switch name {
	case "activate":
		switch arg {
		case "terrain":
			return step{kind: stepActivate, target: editor.KindTerrain}, nil
		case "actor":
			return step{kind: stepActivate, target: editor.KindActor}, nil
		}
	case "select":
		id, err := strconv.ParseInt(arg, 10, 64)
		if err == nil {
			return step{kind: stepSelect, actor: id}, nil
		}
	case "look":
		if f, ok := lookDirs[arg]; ok {
			return step{kind: stepLook, forward: f}, nil
		}
	case "tile":
		t, err := strconv.ParseUint(arg, 10, 16)
		if err == nil && t > 0 {
			return step{kind: stepTile, tile: uint16(t)}, nil
		}
	case "wait":
		if arg == "" || arg == "1" {
			return step{kind: stepWait}, nil
		}
		return step{}, fmt.Errorf("step %q: use wait*N to wait N steps", tok)
	}
	return step{}, fmt.Errorf("step %q: bad argument", tok)
}
