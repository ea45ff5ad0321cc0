// Package native implements NOML's closed set of `@name("arg")` native
// constructors. Each constructor validates its string argument against a
// fixed grammar and returns a resolved value.Value payload; the set is
// intentionally closed (see the design notes in DESIGN.md) rather than a
// general function-call mechanism.
package native

import (
	"encoding/base64"
	"fmt"
	"net"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/mod/semver"

	"github.com/google/uuid"

	"github.com/noml-lang/noml-go/value"
)

// Result is the outcome of evaluating a native constructor: the tag name
// and its resolved payload.
type Result struct {
	Name    string
	Payload *value.Value
}

// Names lists the closed set of supported constructors.
var Names = []string{"size", "duration", "url", "ip", "semver", "base64", "uuid"}

// Eval evaluates the named constructor against arg. It returns a non-nil
// error when arg does not match the constructor's grammar or name is not
// one of Names.
func Eval(name, arg string) (Result, error) {
	switch name {
	case "size":
		n, err := evalSize(arg)
		if err != nil {
			return Result{}, err
		}
		return Result{Name: name, Payload: value.NewInt(n)}, nil
	case "duration":
		secs, err := evalDuration(arg)
		if err != nil {
			return Result{}, err
		}
		return Result{Name: name, Payload: value.NewFloat(secs)}, nil
	case "url":
		if err := evalURL(arg); err != nil {
			return Result{}, err
		}
		return Result{Name: name, Payload: value.NewString(arg)}, nil
	case "ip":
		if net.ParseIP(arg) == nil {
			return Result{}, fmt.Errorf("not a valid IPv4 or IPv6 address: %q", arg)
		}
		return Result{Name: name, Payload: value.NewString(arg)}, nil
	case "semver":
		if err := evalSemver(arg); err != nil {
			return Result{}, err
		}
		return Result{Name: name, Payload: value.NewString(arg)}, nil
	case "base64":
		if err := evalBase64(arg); err != nil {
			return Result{}, err
		}
		return Result{Name: name, Payload: value.NewString(arg)}, nil
	case "uuid":
		// uuid.Parse also accepts braced, urn:uuid: and undashed forms;
		// only the 36-character 8-4-4-4-12 form is canonical.
		if _, err := uuid.Parse(arg); err != nil || len(arg) != 36 {
			return Result{}, fmt.Errorf("not a valid UUID: %q", arg)
		}
		return Result{Name: name, Payload: value.NewString(arg)}, nil
	default:
		return Result{}, fmt.Errorf("unknown native constructor %q", name)
	}
}

// IsKnown reports whether name is one of the closed set of constructors.
func IsKnown(name string) bool {
	for _, n := range Names {
		if n == name {
			return true
		}
	}
	return false
}

var sizeRe = regexp.MustCompile(`^(\d+(?:\.\d+)?)\s*([A-Za-z]*)$`)

var sizeUnits = map[string]float64{
	"":    1,
	"b":   1,
	"kb":  1024,
	"k":   1024,
	"mb":  1024 * 1024,
	"m":   1024 * 1024,
	"gb":  1024 * 1024 * 1024,
	"g":   1024 * 1024 * 1024,
	"tb":  1024 * 1024 * 1024 * 1024,
	"pb":  1024 * 1024 * 1024 * 1024 * 1024,
}

func evalSize(arg string) (int64, error) {
	m := sizeRe.FindStringSubmatch(strings.TrimSpace(arg))
	if m == nil {
		return 0, fmt.Errorf("malformed size literal %q", arg)
	}
	n, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, fmt.Errorf("malformed size literal %q", arg)
	}
	unit, ok := sizeUnits[strings.ToLower(m[2])]
	if !ok {
		return 0, fmt.Errorf("unknown size unit %q in %q", m[2], arg)
	}
	return int64(n * unit), nil
}

var durationTermRe = regexp.MustCompile(`(\d+(?:\.\d+)?)(ns|us|µs|ms|s|m|h|d)?`)

var durationUnits = map[string]float64{
	"":   1, // bare number means seconds
	"ns": 1e-9,
	"us": 1e-6,
	"µs": 1e-6,
	"ms": 1e-3,
	"s":  1,
	"m":  60,
	"h":  3600,
	"d":  86400,
}

func evalDuration(arg string) (float64, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return 0, fmt.Errorf("empty duration literal")
	}
	matches := durationTermRe.FindAllStringSubmatchIndex(arg, -1)
	if matches == nil {
		return 0, fmt.Errorf("malformed duration literal %q", arg)
	}
	var total float64
	consumed := 0
	for _, m := range matches {
		if m[0] != consumed {
			return 0, fmt.Errorf("malformed duration literal %q", arg)
		}
		numStr := arg[m[2]:m[3]]
		unit := ""
		if m[4] >= 0 {
			unit = arg[m[4]:m[5]]
		}
		n, err := strconv.ParseFloat(numStr, 64)
		if err != nil {
			return 0, fmt.Errorf("malformed duration literal %q", arg)
		}
		mul, ok := durationUnits[unit]
		if !ok {
			return 0, fmt.Errorf("unknown duration unit %q in %q", unit, arg)
		}
		total += n * mul
		consumed = m[1]
	}
	if consumed != len(arg) {
		return 0, fmt.Errorf("malformed duration literal %q", arg)
	}
	return total, nil
}

func evalURL(arg string) error {
	u, err := url.Parse(arg)
	if err != nil {
		return fmt.Errorf("malformed URL %q: %w", arg, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("URL %q must have a scheme and host", arg)
	}
	return nil
}

func evalSemver(arg string) error {
	v := arg
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	if !semver.IsValid(v) {
		return fmt.Errorf("not a valid semantic version %q", arg)
	}
	// semver.IsValid also accepts the shortened "vMAJOR" and
	// "vMAJOR.MINOR" forms; the spec's grammar requires all three
	// components, so check the dot count in the core (before any
	// prerelease/build suffix) explicitly.
	core := strings.TrimPrefix(arg, "v")
	if build := strings.IndexByte(core, '+'); build >= 0 {
		core = core[:build]
	}
	if pre := strings.IndexByte(core, '-'); pre >= 0 {
		core = core[:pre]
	}
	if strings.Count(core, ".") != 2 {
		return fmt.Errorf("semantic version %q must specify MAJOR.MINOR.PATCH", arg)
	}
	return nil
}

func evalBase64(arg string) error {
	if len(arg)%4 != 0 {
		return fmt.Errorf("base64 string %q is not padded to a 4-byte boundary", arg)
	}
	if _, err := base64.StdEncoding.DecodeString(arg); err != nil {
		return fmt.Errorf("malformed base64 string %q: %w", arg, err)
	}
	return nil
}
