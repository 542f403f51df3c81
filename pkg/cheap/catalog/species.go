package catalog

import (
	"fmt"
	"strings"

	"github.com/diwise/cheap/pkg/cheap/errors"
)

// Species describes how a catalog relates to an upstream catalog
type Species int

const (
	Source Species = iota + 1
	Sink
	Mirror
	Cache
	Clone
	Fork
)

var speciesNames = map[Species]string{
	Source: "SOURCE",
	Sink:   "SINK",
	Mirror: "MIRROR",
	Cache:  "CACHE",
	Clone:  "CLONE",
	Fork:   "FORK",
}

func (s Species) String() string {
	if name, ok := speciesNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Species(%d)", int(s))
}

func (s Species) IsValid() bool {
	_, ok := speciesNames[s]
	return ok
}

// RequiresUpstream is false for SOURCE and SINK catalogs, which own their data,
// and true for every species derived from another catalog
func (s Species) RequiresUpstream() bool {
	return s != Source && s != Sink
}

func ParseSpecies(name string) (Species, error) {
	for s, n := range speciesNames {
		if strings.EqualFold(n, name) {
			return s, nil
		}
	}
	return 0, errors.NewConfigurationError("unknown catalog species %q", name)
}
