package plan

import (
	"fmt"
	"strconv"
)

// ZoneBand is one zone boundary pair. For power zones Min/Max are percent
// of FTP; for heart-rate zones they are bpm. A nil Max means the band is
// open-ended upward.
type ZoneBand struct {
	Name string   `json:"name,omitempty"`
	Min  float64  `json:"min"`
	Max  *float64 `json:"max,omitempty"`
}

// ZoneScheme pairs an ordered power-zone list with an ordered heart-rate
// zone list. The two lists are index-parallel: power zone k corresponds
// to heart-rate zone k. That correspondence is validated wherever schemes
// are defined (config load, storage upsert); the mapper re-checks it
// defensively because already-persisted bad data must not crash a viewer.
type ZoneScheme struct {
	Power     []ZoneBand `json:"power"`
	HeartRate []ZoneBand `json:"heart_rate"`
}

// Validate rejects schemes that violate the index-parallel assumption or
// are not ordered by ascending lower bound.
func (zs ZoneScheme) Validate() error {
	if len(zs.Power) == 0 {
		return fmt.Errorf("zone scheme has no power zones")
	}
	if len(zs.Power) != len(zs.HeartRate) {
		return fmt.Errorf("zone scheme mismatch: %d power zones vs %d heart-rate zones",
			len(zs.Power), len(zs.HeartRate))
	}
	for i := 1; i < len(zs.Power); i++ {
		if zs.Power[i].Min < zs.Power[i-1].Min {
			return fmt.Errorf("power zones out of order at index %d", i)
		}
		if zs.HeartRate[i].Min < zs.HeartRate[i-1].Min {
			return fmt.Errorf("heart-rate zones out of order at index %d", i)
		}
	}
	return nil
}

// AthleteZoneProfile is the slice of an athlete record the zone mapper
// needs. Nil FTP or MaxHR means the value was never configured.
type AthleteZoneProfile struct {
	FTPWatts  *float64 `json:"ftp_watts"`
	MaxHR     *float64 `json:"max_hr"`
	RestingHR *float64 `json:"resting_hr,omitempty"`
}

// ZoneDisplay is the heart-rate zone shown next to a power target.
// ZoneName is the power zone's name, falling back to the heart-rate
// zone's name and then to "Z<n>" when neither band is named.
type ZoneDisplay struct {
	ZoneNumber int    `json:"zone_number"`
	ZoneName   string `json:"zone_name"`
	BPMRange   string `json:"bpm_range"`
}

// HRZoneForPowerPercent maps a percent-of-FTP power target onto the
// athlete's heart-rate zone at the same zone index. It returns nil when
// the profile is incomplete, the scheme is empty or mismatched, or no
// power zone contains the target — callers must render nil as "zone
// unavailable", never as zone zero. Pure and O(zones); cheap enough to
// call once per rendered segment on every hover without memoization.
func HRZoneForPowerPercent(profile AthleteZoneProfile, scheme ZoneScheme, powerPercent float64) *ZoneDisplay {
	if profile.FTPWatts == nil || profile.MaxHR == nil {
		return nil
	}
	if len(scheme.Power) == 0 || len(scheme.Power) != len(scheme.HeartRate) {
		return nil
	}

	watts := powerPercent / 100 * *profile.FTPWatts

	idx := -1
	for i, z := range scheme.Power {
		minW := z.Min / 100 * *profile.FTPWatts
		if watts < minW {
			continue
		}
		// The last power zone is open-ended regardless of its declared max.
		if i == len(scheme.Power)-1 || z.Max == nil {
			idx = i
			break
		}
		maxW := *z.Max / 100 * *profile.FTPWatts
		if watts < maxW {
			idx = i
			break
		}
	}
	if idx < 0 || idx >= len(scheme.HeartRate) {
		return nil
	}

	hr := scheme.HeartRate[idx]
	var bpmRange string
	if hr.Max != nil {
		bpmRange = formatBPM(hr.Min) + "-" + formatBPM(*hr.Max)
	} else {
		bpmRange = ">" + formatBPM(hr.Min)
	}

	name := scheme.Power[idx].Name
	if name == "" {
		name = hr.Name
	}
	if name == "" {
		name = "Z" + strconv.Itoa(idx+1)
	}

	return &ZoneDisplay{
		ZoneNumber: idx + 1,
		ZoneName:   name,
		BPMRange:   bpmRange,
	}
}

func formatBPM(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
