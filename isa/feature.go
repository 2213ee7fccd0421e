// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package isa

import (
	"fmt"
	"strings"

	"github.com/beevik/prefixtree/v2"
)

// A Feature is a set of optional hardware capabilities. Instruction forms
// list the features they require.
type Feature uint32

// Feature bits.
const (
	FeatureMul    Feature = 1 << iota // integer multiply and divide
	FeatureAtomic                     // atomic memory operations
	FeatureFloat                      // single-precision floating point
	FeatureDouble                     // double-precision floating point
	FeatureQuad                       // quad-precision floating point
	Feature64Bit                      // 64-bit general registers

	numFeatures = iota
)

var featureNames = [numFeatures]string{
	"mul",
	"atomic",
	"float",
	"double",
	"quad",
	"64bit",
}

var featureTree = prefixtree.New[Feature]()

func init() {
	for i, name := range featureNames {
		featureTree.Add(name, Feature(1)<<i)
	}
}

// FeatureName returns the name of the feature stored at the requested bit
// index, or the empty string if the bit is not assigned.
func FeatureName(bit int) string {
	if bit < 0 || bit >= numFeatures {
		return ""
	}
	return featureNames[bit]
}

// Has reports whether all features in g are present in f.
func (f Feature) Has(g Feature) bool {
	return f&g == g
}

// Names returns the names of all features in the set, in bit order.
func (f Feature) Names() []string {
	var names []string
	for i := 0; i < numFeatures; i++ {
		if f&(1<<i) != 0 {
			names = append(names, featureNames[i])
		}
	}
	return names
}

func (f Feature) String() string {
	if f == 0 {
		return "none"
	}
	return strings.Join(f.Names(), ",")
}

// ParseFeatures parses a comma-separated feature list such as "mul,+float"
// or "-double". A name may be abbreviated to any unambiguous prefix. Names
// prefixed with '-' are removed from the set built so far.
func ParseFeatures(list string) (Feature, error) {
	return Feature(0).Apply(list)
}

// Apply parses a feature list like ParseFeatures, starting from the
// features already in f.
func (f Feature) Apply(list string) (Feature, error) {
	for _, field := range strings.Split(list, ",") {
		field = strings.TrimSpace(strings.ToLower(field))
		if field == "" {
			continue
		}

		remove := false
		switch field[0] {
		case '-':
			remove, field = true, field[1:]
		case '+':
			field = field[1:]
		}

		bit, err := featureTree.FindValue(field)
		if err != nil {
			return 0, fmt.Errorf("feature '%s': %v", field, err)
		}

		if remove {
			f &^= bit
		} else {
			f |= bit
		}
	}
	return f, nil
}
