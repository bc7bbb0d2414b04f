package movement

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ParseSegment builds a segment from a constructor expression as used in
// map properties, e.g. "distance(10, E)" or "sleep(2)". It allocates
// outside the pools, so it is safe to call from the map loader.
//
//	distance(n, dir)          walk n units
//	random([slack[, dirs...]]) random walk, 1-5 s
//	sleep(s)                  idle for s seconds
//	setxy(x, y)               teleport
//	jump(x, y)                jump to x, y
//	speed(name)               change the move speed
//	polygon(name[, rewind])   walk a map polygon
//	arc(x, y, deg|cw|ccw)     circle around x, y
//	ellipse(x, y, w, h[, deg|cw|ccw])
//	rectangle(x, y, w, h[, cw|ccw])
//	rotate(deg|cw|ccw[, speed])
//	animate(row)
//	keys(ns|we|4|8)           walk while movement keys are down
func ParseSegment(expr string) (*Segment, error) {
	name, args, err := splitCall(expr)
	if err != nil {
		return nil, err
	}
	switch name {
	case "distance":
		if len(args) != 2 {
			return nil, argErr(expr, 2)
		}
		d, err := parseFloat(args[0])
		if err != nil {
			return nil, err
		}
		dir, err := ParseDirection(args[1])
		if err != nil {
			return nil, err
		}
		return NewOnce(NewDistance(d, dir)), nil

	case "random":
		slack := DefaultSlackness
		var dirs []Direction
		if len(args) > 0 {
			n, err := strconv.Atoi(args[0])
			if err != nil {
				return nil, fmt.Errorf("random slackness %q: %w", args[0], err)
			}
			slack = n
		}
		for _, a := range args[min(len(args), 1):] {
			d, err := ParseDirection(a)
			if err != nil {
				return nil, err
			}
			dirs = append(dirs, d)
		}
		return NewForRandom(NewRandom(slack, dirs...), DefaultRandomMinSeconds, DefaultRandomMaxSeconds), nil

	case "sleep":
		if len(args) != 1 {
			return nil, argErr(expr, 1)
		}
		s, err := parseFloat(args[0])
		if err != nil {
			return nil, err
		}
		return NewFor(Idle(), s), nil

	case "setxy", "jump":
		if len(args) != 2 {
			return nil, argErr(expr, 2)
		}
		xy, err := parseFloats(args)
		if err != nil {
			return nil, err
		}
		if name == "jump" {
			return NewOnce(NewJump(xy[0], xy[1])), nil
		}
		return NewOnce(NewSetXY(xy[0], xy[1])), nil

	case "speed":
		if len(args) != 1 {
			return nil, argErr(expr, 1)
		}
		s, err := ParseSpeed(args[0])
		if err != nil {
			return nil, err
		}
		return NewOnce(NewChangeSpeed(s)), nil

	case "polygon":
		if len(args) < 1 {
			return nil, argErr(expr, 1)
		}
		rewind := len(args) > 1 && ParseBool(args[1])
		return NewOnce(NewPolygonByName(args[0], rewind, true)), nil

	case "arc":
		if len(args) != 3 {
			return nil, argErr(expr, 3)
		}
		xy, err := parseFloats(args[:2])
		if err != nil {
			return nil, err
		}
		angle, err := ParseAngle(args[2])
		if err != nil {
			return nil, err
		}
		return NewOnce(NewArc(Vec{xy[0], xy[1]}, angle)), nil

	case "ellipse", "rectangle":
		if len(args) < 4 {
			return nil, argErr(expr, 4)
		}
		v, err := parseFloats(args[:4])
		if err != nil {
			return nil, err
		}
		r := rectOf(v)
		if name == "rectangle" {
			cw := len(args) < 5 || strings.EqualFold(strings.TrimSpace(args[4]), "cw")
			return NewOnce(NewRectangle(r, BottomLeft, cw)), nil
		}
		angle := LoopClockwise
		if len(args) > 4 {
			if angle, err = ParseAngle(args[4]); err != nil {
				return nil, err
			}
		}
		return NewOnce(NewEllipse(r, Bottom, angle, false, false, Vec{})), nil

	case "rotate":
		if len(args) < 1 {
			return nil, argErr(expr, 1)
		}
		angle, err := ParseAngle(args[0])
		if err != nil {
			return nil, err
		}
		var speed *Speed
		if len(args) > 1 {
			s, err := ParseSpeed(args[1])
			if err != nil {
				return nil, err
			}
			speed = &s
		}
		return NewOnce(NewRotate(speed, angle)), nil

	case "animate":
		row := -1
		if len(args) > 0 {
			if row, err = strconv.Atoi(args[0]); err != nil {
				return nil, fmt.Errorf("animate row %q: %w", args[0], err)
			}
		}
		return NewOnce(NewAnimate(row)), nil

	case "keys":
		if len(args) != 1 {
			return nil, argErr(expr, 1)
		}
		ways, err := ParseWays(args[0])
		if err != nil {
			return nil, err
		}
		return NewOnce(NewKeyboard(ways, nil)), nil
	}
	return nil, fmt.Errorf("unknown move handler %q", name)
}

// ParseAngle accepts "cw", "ccw" or an angle in degrees. A zero angle loops
// forever: 0 counter-clockwise, -0 clockwise.
func ParseAngle(s string) (AngleSpec, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "cw":
		return LoopClockwise, nil
	case "ccw":
		return LoopCounterClockwise, nil
	}
	deg, err := parseFloat(s)
	if err != nil {
		return AngleSpec{}, err
	}
	if deg == 0 {
		if math.Signbit(deg) {
			return LoopClockwise, nil
		}
		return LoopCounterClockwise, nil
	}
	return FiniteAngle(deg), nil
}

// ParseBool is true for values starting with t, y or 1.
func ParseBool(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	switch s[0] {
	case 't', 'T', 'y', 'Y', '1':
		return true
	}
	return false
}

func splitCall(expr string) (string, []string, error) {
	expr = strings.TrimSpace(expr)
	open := strings.IndexByte(expr, '(')
	if open <= 0 || !strings.HasSuffix(expr, ")") {
		return "", nil, fmt.Errorf("malformed move handler %q", expr)
	}
	name := strings.ToLower(strings.TrimSpace(expr[:open]))
	inner := strings.TrimSpace(expr[open+1 : len(expr)-1])
	if inner == "" {
		return name, nil, nil
	}
	args := strings.Split(inner, ",")
	for i := range args {
		args[i] = strings.Trim(strings.TrimSpace(args[i]), `"'`)
	}
	return name, args, nil
}

func parseFloat(s string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("number %q: %w", s, err)
	}
	return f, nil
}

func parseFloats(args []string) ([]float64, error) {
	out := make([]float64, len(args))
	for i, a := range args {
		f, err := parseFloat(a)
		if err != nil {
			return nil, err
		}
		out[i] = f
	}
	return out, nil
}

func argErr(expr string, want int) error {
	return fmt.Errorf("move handler %q: want %d arguments", expr, want)
}
