package execution

import (
	"time"

	"github.com/google/uuid"
)

// KindUpgrade is the record kind written by the upgrade command.
const KindUpgrade = "upgrade"

// Configuration is the resolved set of user-supplied options for one upgrade
// attempt. It is persisted with the execution record so a resumed run can
// reuse the exact options of the original invocation.
type Configuration struct {
	Debug                 bool     `json:"debug"`
	Verbose               bool     `json:"verbose"`
	Reboot                bool     `json:"reboot"`
	NoRHSM                bool     `json:"no_rhsm"`
	Channel               string   `json:"channel,omitempty"`
	EnableRepos           []string `json:"enable_repos,omitempty"`
	WhitelistExperimental []string `json:"whitelist_experimental,omitempty"`
}

// Record identifies one logical upgrade attempt. The ID stays stable across
// every process invocation of that attempt, reboots included.
type Record struct {
	ID            string        `json:"id"`
	Kind          string        `json:"kind"`
	Configuration Configuration `json:"configuration"`
	CreatedAt     time.Time     `json:"created_at"`
}

// NewID generates a fresh execution identifier.
func NewID() string {
	return uuid.NewString()
}
