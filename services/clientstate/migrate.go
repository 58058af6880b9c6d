package clientstate

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// CurrentVersion is the envelope version written by Put.
const CurrentVersion = 1

// Migration rewrites a value from version i to i+1.
type Migration func(json.RawMessage) (json.RawMessage, error)

func identity(v json.RawMessage) (json.RawMessage, error) { return v, nil }

// migrations[family][i] upgrades version i; families without an entry only get wrapped.
var migrations = map[string][]Migration{
	KeyTheme:        {themeToObject},
	KeyUserLocation: {locationToObject},
}

func migrationsFor(key string) []Migration {
	if m, ok := migrations[family(key)]; ok {
		return m
	}
	return []Migration{identity}
}

// Migrate upgrades value stored at version from to CurrentVersion.
func Migrate(key string, from int, value json.RawMessage) (json.RawMessage, error) {
	steps := migrationsFor(key)
	for v := from; v < CurrentVersion; v++ {
		if v >= len(steps) {
			break
		}
		next, err := steps[v](value)
		if err != nil {
			return nil, fmt.Errorf("migrate %s from v%d: %w", key, v, err)
		}
		value = next
	}
	return value, nil
}

// "dark" becomes {"mode":"dark"}.
func themeToObject(v json.RawMessage) (json.RawMessage, error) {
	var mode string
	if err := json.Unmarshal(v, &mode); err != nil {
		if isObject(v) {
			return v, nil
		}
		return nil, err
	}
	return json.Marshal(map[string]string{"mode": mode})
}

// "32.08,34.78" becomes {"lat":32.08,"lng":34.78}.
func locationToObject(v json.RawMessage) (json.RawMessage, error) {
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		if isObject(v) {
			return v, nil
		}
		return nil, err
	}
	latS, lngS, ok := strings.Cut(s, ",")
	if !ok {
		return nil, fmt.Errorf("location %q is not lat,lng", s)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(latS), 64)
	if err != nil {
		return nil, err
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(lngS), 64)
	if err != nil {
		return nil, err
	}
	return json.Marshal(map[string]float64{"lat": lat, "lng": lng})
}

func isObject(v json.RawMessage) bool {
	var m map[string]interface{}
	return json.Unmarshal(v, &m) == nil
}
