package env

import (
	"os"

	"github.com/denisbrodbeck/machineid"
	"github.com/golang/glog"
)

const idLen = 12

// DeviceID derives a stable ID for this machine, falling back to the
// host name.
func DeviceID() string {
	id, err := machineid.ProtectedID("regmap")
	if err != nil {
		glog.Warningf("machine id: %v", err)
		if id, err = os.Hostname(); err != nil {
			return "regmap"
		}
		return id
	}
	if len(id) > idLen {
		id = id[:idLen]
	}
	return id
}
