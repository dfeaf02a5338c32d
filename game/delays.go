package game

import (
	"fmt"
	"io/ioutil"
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Delays are in milliseconds.
type Delays struct {
	NextGame uint32 `yaml:"nextGame"`
	Reset    uint32 `yaml:"reset"`
}

func DefaultDelays() Delays {
	return Delays{
		NextGame: 5000,
		Reset:    10000,
	}
}

func (d Delays) NextGameDelay() time.Duration {
	return time.Duration(d.NextGame) * time.Millisecond
}

func (d Delays) ResetDelay() time.Duration {
	return time.Duration(d.Reset) * time.Millisecond
}

// ParseDelayConfig reads the delay file. Keys missing from the file keep
// their default values. A missing file yields the defaults.
func ParseDelayConfig(delaysFile string) (Delays, error) {
	data := DefaultDelays()
	bytes, err := ioutil.ReadFile(delaysFile)
	if err != nil {
		if os.IsNotExist(err) {
			return data, nil
		}
		return Delays{}, errors.Wrap(err, fmt.Sprintf("Error reading delay config file [%s]", delaysFile))
	}

	err = yaml.Unmarshal(bytes, &data)
	if err != nil {
		return Delays{}, errors.Wrap(err, fmt.Sprintf("Error parsing delays YAML file [%s]", delaysFile))
	}

	return data, nil
}
