// internal/workers/client/extract-client-profile/models.go
package extractclientprofile

import (
	"sales-script-workers/internal/models"
	"sales-script-workers/internal/profile"
)

// Input carries the snapshot of the employee's open client page.
type Input struct {
	PageHTML  string             `json:"pageHtml"`
	Selectors *profile.Selectors `json:"selectors,omitempty"`
}

type Output struct {
	ClientProfile models.ClientProfile `json:"clientProfile"`
}
