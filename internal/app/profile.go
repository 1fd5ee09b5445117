package app

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"farmconnect/pkg/domain"
)

// ProfileUpdate is a partial profile edit; nil fields are left untouched.
// The role, farm location and contact preference save independently.
type ProfileUpdate struct {
	IsFarmer         *bool
	FarmLatitude     *float64
	FarmLongitude    *float64
	PreferredContact *string
}

// GetProfile returns the caller's profile, creating a default one for
// accounts that have none yet.
func (a *App) GetProfile(user domain.User) (domain.Profile, error) {
	profile, found, err := a.store.GetProfile(user.ID)
	if err != nil {
		return domain.Profile{}, fmt.Errorf("fetch profile: %w", err)
	}
	if found {
		return profile, nil
	}
	profile = defaultProfile(user.ID, time.Now().UTC())
	if err := a.store.SaveProfile(profile); err != nil {
		return domain.Profile{}, fmt.Errorf("save profile: %w", err)
	}
	return profile, nil
}

// UpdateProfile applies a partial edit to the caller's profile. Farm
// coordinates must be set or cleared together and stay within valid ranges.
func (a *App) UpdateProfile(user domain.User, update ProfileUpdate) (domain.Profile, error) {
	if (update.FarmLatitude == nil) != (update.FarmLongitude == nil) {
		return domain.Profile{}, invalidField("farmLocation", "latitude and longitude must be set together")
	}
	if update.FarmLatitude != nil {
		if *update.FarmLatitude < -90 || *update.FarmLatitude > 90 {
			return domain.Profile{}, invalidField("farmLatitude", "must be between -90 and 90")
		}
		if *update.FarmLongitude < -180 || *update.FarmLongitude > 180 {
			return domain.Profile{}, invalidField("farmLongitude", "must be between -180 and 180")
		}
	}
	profile, err := a.GetProfile(user)
	if err != nil {
		return domain.Profile{}, err
	}
	if update.IsFarmer != nil {
		profile.IsFarmer = *update.IsFarmer
	}
	if update.FarmLatitude != nil {
		lat, lon := *update.FarmLatitude, *update.FarmLongitude
		profile.FarmLatitude = &lat
		profile.FarmLongitude = &lon
	}
	if update.PreferredContact != nil {
		profile.PreferredContact = strings.TrimSpace(*update.PreferredContact)
	}
	profile.UpdatedAt = time.Now().UTC()
	if err := a.store.SaveProfile(profile); err != nil {
		return domain.Profile{}, fmt.Errorf("save profile: %w", err)
	}
	return profile, nil
}

// FarmMap is the satellite view of a farmer's saved location. MapURL is
// empty when no maps API key is configured; the coordinates still serve.
type FarmMap struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	MapURL    string  `json:"mapUrl,omitempty"`
}

// GetFarmMap returns the caller's farm location and, when a maps key is
// configured, an embeddable satellite map URL.
func (a *App) GetFarmMap(user domain.User) (FarmMap, error) {
	profile, err := a.GetProfile(user)
	if err != nil {
		return FarmMap{}, err
	}
	if !profile.HasFarmLocation() {
		return FarmMap{}, ErrNotFound
	}
	fm := FarmMap{
		Latitude:  *profile.FarmLatitude,
		Longitude: *profile.FarmLongitude,
	}
	if a.mapsAPIKey != "" {
		fm.MapURL = satelliteMapURL(a.mapsAPIKey, fm.Latitude, fm.Longitude)
	}
	return fm, nil
}

func satelliteMapURL(key string, lat, lon float64) string {
	q := url.Values{}
	q.Set("key", key)
	q.Set("q", strconv.FormatFloat(lat, 'f', 6, 64)+","+strconv.FormatFloat(lon, 'f', 6, 64))
	q.Set("maptype", "satellite")
	q.Set("zoom", "18")
	return "https://www.google.com/maps/embed/v1/place?" + q.Encode()
}
