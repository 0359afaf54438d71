package export

import (
	"strings"

	"waste-console/internal/models"
)

const DefaultRegionName = "Bucharest"

// LocationName resolves the place shown in report headers:
// an active sector filter first, then the label sent by the store, then the region.
func LocationName(sel models.SectorSelection, sectors []models.Sector, storeLabel, regionName string) string {
	if sel.Scope == models.SectorSingle {
		for _, s := range sectors {
			if s.ID == sel.SectorID {
				return s.Label()
			}
		}
	}
	if label := strings.TrimSpace(storeLabel); label != "" {
		return label
	}
	if regionName = strings.TrimSpace(regionName); regionName != "" {
		return regionName
	}
	return DefaultRegionName
}
