package locate

import (
	"fmt"
	"sort"
)

// backends maps a detector name to a constructor returning the detector and
// its release func.
var backends = map[string]func() (Detector, func() error){
	"zxing": func() (Detector, func() error) {
		return NewZXing(), func() error { return nil }
	},
}

// Open builds the named detector. Callers must call the returned release func.
func Open(name string) (Detector, func() error, error) {
	ctor, ok := backends[name]
	if !ok {
		return nil, nil, fmt.Errorf("unknown detector %q, available: %v", name, Backends())
	}
	det, release := ctor()
	return det, release, nil
}

// Backends lists the detectors compiled into this binary.
func Backends() []string {
	names := make([]string, 0, len(backends))
	for n := range backends {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
